package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"examprep-quiz/internal/domain"
)

// SessionRepository keeps the live sessions of this process (in-memory, Redis, etc).
// Acquire returns the session for id, building it with create when absent, and
// takes a reference on it. Release drops a reference; when the last one goes the
// session is removed and returned so the caller can tear it down.
type SessionRepository interface {
	Acquire(sessionID string, create func() *QuizSession) *QuizSession
	Get(sessionID string) (*QuizSession, bool)
	Release(sessionID string) (*QuizSession, bool)
}

// BankRepository supplies the question bank (from cache/backing store).
type BankRepository interface {
	GetBank(ctx context.Context) ([]domain.Section, error)
}

// ServiceOptions configures sessions created by the service.
type ServiceOptions struct {
	QuestionsPerSection int
	NewTicker           TickerFunc
	Logger              *slog.Logger
	Now                 func() time.Time
	Sampler             *Sampler
}

// QuizService contains the quiz use cases.
type QuizService struct {
	sessions SessionRepository
	bank     BankRepository
	store    StateStore
	opts     ServiceOptions
}

func NewQuizService(sessions SessionRepository, bank BankRepository, store StateStore, opts ServiceOptions) *QuizService {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Sampler == nil {
		opts.Sampler = NewSampler()
	}
	return &QuizService{sessions: sessions, bank: bank, store: store, opts: opts}
}

// Open attaches a client to a session, restoring it from the state store the
// first time it is seen by this process. Every Open must be paired with Close.
func (s *QuizService) Open(ctx context.Context, sessionID string) (domain.SessionSnapshot, error) {
	bank, err := s.loadBank(ctx)
	if err != nil {
		return domain.SessionSnapshot{}, err
	}
	session := s.sessions.Acquire(sessionID, func() *QuizSession {
		qs := NewQuizSession(sessionID, SessionOptions{
			QuestionsPerSection: s.opts.QuestionsPerSection,
			Store:               s.store,
			Sampler:             s.opts.Sampler,
			NewTicker:           s.opts.NewTicker,
			Logger:              s.opts.Logger,
			Now:                 s.opts.Now,
		})
		if qs.Restore(ctx, bank) {
			s.opts.Logger.Info("session restored", "session", sessionID, "state", qs.State())
		}
		return qs
	})
	return session.Snapshot(), nil
}

// Close detaches a client; the last detach tears the session down.
func (s *QuizService) Close(_ context.Context, sessionID string) {
	if session, removed := s.sessions.Release(sessionID); removed {
		session.Close()
	}
}

// Start samples a new attempt and begins it.
func (s *QuizService) Start(ctx context.Context, sessionID string) error {
	session, err := s.session(sessionID)
	if err != nil {
		return err
	}
	bank, err := s.loadBank(ctx)
	if err != nil {
		return err
	}
	return session.Start(bank)
}

// Restart discards the attempt and returns the session to the landing state.
func (s *QuizService) Restart(ctx context.Context, sessionID string) error {
	session, err := s.session(sessionID)
	if err != nil {
		return err
	}
	bank, err := s.loadBank(ctx)
	if err != nil {
		return err
	}
	return session.Restart(bank)
}

// RecordAnswer stores an answer for a sampled question.
func (s *QuizService) RecordAnswer(_ context.Context, sessionID, questionID, value string) error {
	session, err := s.session(sessionID)
	if err != nil {
		return err
	}
	return session.RecordAnswer(questionID, value)
}

// Move is a navigation step requested by the presentation layer.
type Move string

const (
	MoveNextSection  Move = "nextSection"
	MovePrevSection  Move = "prevSection"
	MoveNextQuestion Move = "nextQuestion"
	MovePrevQuestion Move = "prevQuestion"
)

// Navigate applies a navigation step.
func (s *QuizService) Navigate(_ context.Context, sessionID string, move Move) error {
	session, err := s.session(sessionID)
	if err != nil {
		return err
	}
	switch move {
	case MoveNextSection:
		return session.NextSection()
	case MovePrevSection:
		return session.PrevSection()
	case MoveNextQuestion:
		return session.NextQuestion()
	case MovePrevQuestion:
		return session.PrevQuestion()
	default:
		return fmt.Errorf("unknown move %q", move)
	}
}

// SelectQuestion jumps to a question of the current section.
func (s *QuizService) SelectQuestion(_ context.Context, sessionID string, index int) error {
	session, err := s.session(sessionID)
	if err != nil {
		return err
	}
	return session.SelectQuestion(index)
}

// Submit ends the attempt.
func (s *QuizService) Submit(_ context.Context, sessionID string) error {
	session, err := s.session(sessionID)
	if err != nil {
		return err
	}
	if err := session.Submit(); err != nil {
		return err
	}
	s.opts.Logger.Info("session submitted", "session", sessionID)
	return nil
}

// Results grades a submitted session.
func (s *QuizService) Results(_ context.Context, sessionID string) (domain.Results, error) {
	session, err := s.session(sessionID)
	if err != nil {
		return domain.Results{}, err
	}
	return session.Results()
}

// Export builds the results document for download.
func (s *QuizService) Export(_ context.Context, sessionID string) (domain.ExportDocument, error) {
	session, err := s.session(sessionID)
	if err != nil {
		return domain.ExportDocument{}, err
	}
	return session.Export()
}

// Subscribe returns a channel that receives session snapshots.
// The caller must invoke the returned cancel function to avoid leaks.
func (s *QuizService) Subscribe(_ context.Context, sessionID string) (<-chan domain.SessionSnapshot, func(), error) {
	session, err := s.session(sessionID)
	if err != nil {
		return nil, nil, err
	}
	ch, cancel := session.Subscribe()
	return ch, cancel, nil
}

// Snapshot returns the current view of a session.
func (s *QuizService) Snapshot(_ context.Context, sessionID string) (domain.SessionSnapshot, error) {
	session, err := s.session(sessionID)
	if err != nil {
		return domain.SessionSnapshot{}, err
	}
	return session.Snapshot(), nil
}

func (s *QuizService) session(sessionID string) (*QuizSession, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return session, nil
}

func (s *QuizService) loadBank(ctx context.Context) ([]domain.Section, error) {
	bank, err := s.bank.GetBank(ctx)
	if err != nil {
		return nil, fmt.Errorf("load bank: %w", err)
	}
	if err := domain.ValidateBank(bank); err != nil {
		return nil, err
	}
	return bank, nil
}
