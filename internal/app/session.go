package app

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"examprep-quiz/internal/domain"
)

// SessionOptions carries the collaborators of a QuizSession.
type SessionOptions struct {
	QuestionsPerSection int
	Store               StateStore // nil disables persistence
	Sampler             *Sampler
	NewTicker           TickerFunc // nil disables the background timer; drive Tick manually
	Logger              *slog.Logger
	Now                 func() time.Time
	PersistTimeout      time.Duration
}

// QuizSession is one attempt at the quiz: the sampled sections, the
// navigation position, the answers, the elapsed time and the lifecycle state.
//
// Operations that need an in-progress session return domain.ErrInvalidState
// otherwise and change nothing. Tick is the exception: outside in-progress it
// is ignored, since only the timer calls it.
type QuizSession struct {
	id             string
	perSection     int
	store          StateStore
	keys           stateKeys
	sampler        *Sampler
	newTicker      TickerFunc
	logger         *slog.Logger
	now            func() time.Time
	persistTimeout time.Duration

	mu          sync.Mutex
	sections    []domain.SampledSection
	index       int
	question    int
	elapsed     int
	answers     domain.AnswerMap
	state       domain.State
	timerGen    uint64
	stopTimer   func()
	subscribers map[chan domain.SessionSnapshot]struct{}
	closed      bool
}

// NewQuizSession builds a session in the not-started state with no sample yet.
// Call Restore or Restart to draw one.
func NewQuizSession(id string, opts SessionOptions) *QuizSession {
	if opts.Sampler == nil {
		opts.Sampler = NewSampler()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.PersistTimeout <= 0 {
		opts.PersistTimeout = 2 * time.Second
	}
	return &QuizSession{
		id:             id,
		perSection:     opts.QuestionsPerSection,
		store:          opts.Store,
		keys:           keysFor(id),
		sampler:        opts.Sampler,
		newTicker:      opts.NewTicker,
		logger:         opts.Logger,
		now:            opts.Now,
		persistTimeout: opts.PersistTimeout,
		index:          -1,
		answers:        domain.AnswerMap{},
		state:          domain.StateNotStarted,
		subscribers:    make(map[chan domain.SessionSnapshot]struct{}),
	}
}

// ID returns the session identifier.
func (s *QuizSession) ID() string { return s.id }

// Start draws a fresh sample from bank and begins the attempt. Calling it
// again while in progress replaces all prior state; a submitted attempt
// has to go through Restart first.
func (s *QuizSession) Start(bank []domain.Section) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.state == domain.StateSubmitted {
		return domain.ErrInvalidState
	}
	if len(bank) == 0 {
		return domain.ErrBankEmpty
	}

	s.sections = s.sampler.SampleBank(bank, s.perSection)
	s.answers = domain.AnswerMap{}
	s.index = 0
	s.question = 0
	s.elapsed = 0
	s.state = domain.StateInProgress
	s.startTimerLocked()
	s.persistLocked()
	s.broadcastLocked()
	return nil
}

// Restart discards the attempt, clears the persisted state and returns to
// the landing state with a fresh sample.
func (s *QuizSession) Restart(bank []domain.Section) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return domain.ErrInvalidState
	}
	s.resetLocked(bank)
	s.clearPersistedLocked()
	s.broadcastLocked()
	return nil
}

func (s *QuizSession) resetLocked(bank []domain.Section) {
	s.stopTimerLocked()
	s.sections = s.sampler.SampleBank(bank, s.perSection)
	s.answers = domain.AnswerMap{}
	s.index = -1
	s.question = 0
	s.elapsed = 0
	s.state = domain.StateNotStarted
}

// Restore rehydrates the session from the state store. When nothing usable
// was saved the session is left on the landing state with a fresh sample and
// false is returned.
func (s *QuizSession) Restore(ctx context.Context, bank []domain.Section) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer s.broadcastLocked()

	s.resetLocked(bank)
	saved, ok := s.loadLocked(ctx)
	if !ok || saved.index < 0 {
		return false
	}

	sections := resolveSample(bank, saved.sample)
	resampled := sections == nil
	if resampled {
		s.logger.Warn("saved sample not available, resampling", "session", s.id)
		sections = s.sections
	}
	if saved.index >= len(sections) {
		s.logger.Warn("saved section out of range", "session", s.id, "section", saved.index)
		return false
	}

	valid := questionIDs(sections)
	answers := make(domain.AnswerMap, len(saved.answers))
	dropped := 0
	for key, value := range saved.answers {
		if _, ok := valid[key]; !ok {
			dropped++
			continue
		}
		answers[key] = value
	}
	if dropped > 0 {
		s.logger.Warn("dropped answers for questions outside the sample", "session", s.id, "dropped", dropped)
	}

	s.sections = sections
	s.answers = answers
	s.index = saved.index
	s.elapsed = saved.elapsed
	s.state = saved.state
	if resampled || dropped > 0 {
		// the new sample and the pruned answers replace what was saved
		s.persistLocked()
	}
	if s.state == domain.StateInProgress {
		s.startTimerLocked()
	}
	return true
}

// RecordAnswer stores value for questionID. An empty value unanswers it.
func (s *QuizSession) RecordAnswer(questionID, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != domain.StateInProgress {
		return domain.ErrInvalidState
	}
	if _, ok := questionIDs(s.sections)[questionID]; !ok {
		return domain.ErrQuestionNotFound
	}
	s.answers[questionID] = value
	s.persistLocked()
	s.broadcastLocked()
	return nil
}

// NextSection moves forward one section; at the last section it does nothing.
func (s *QuizSession) NextSection() error {
	return s.moveSection(1)
}

// PrevSection moves back one section; at the first section it does nothing.
func (s *QuizSession) PrevSection() error {
	return s.moveSection(-1)
}

func (s *QuizSession) moveSection(delta int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != domain.StateInProgress {
		return domain.ErrInvalidState
	}
	next := clamp(s.index+delta, 0, len(s.sections)-1)
	if next == s.index {
		return nil
	}
	s.index = next
	s.question = 0
	s.persistLocked()
	s.broadcastLocked()
	return nil
}

// NextQuestion advances the cursor inside the current section.
func (s *QuizSession) NextQuestion() error {
	return s.moveQuestion(func(cur int) int { return cur + 1 })
}

// PrevQuestion moves the cursor back inside the current section.
func (s *QuizSession) PrevQuestion() error {
	return s.moveQuestion(func(cur int) int { return cur - 1 })
}

// SelectQuestion jumps to question i of the current section, clamped.
func (s *QuizSession) SelectQuestion(i int) error {
	return s.moveQuestion(func(int) int { return i })
}

func (s *QuizSession) moveQuestion(target func(cur int) int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != domain.StateInProgress {
		return domain.ErrInvalidState
	}
	next := clamp(target(s.question), 0, len(s.sections[s.index].Questions)-1)
	if next == s.question {
		return nil
	}
	s.question = next
	s.broadcastLocked()
	return nil
}

// Tick advances the elapsed counter by one second while in progress.
func (s *QuizSession) Tick() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tickLocked()
}

func (s *QuizSession) tickLocked() {
	if s.state != domain.StateInProgress {
		return
	}
	s.elapsed++
	s.persistTimeLocked()
	s.broadcastLocked()
}

// Submit ends the attempt. The answers become read-only and the timer stops for good.
func (s *QuizSession) Submit() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != domain.StateInProgress {
		return domain.ErrInvalidState
	}
	s.state = domain.StateSubmitted
	s.stopTimerLocked()
	s.persistLocked()
	s.broadcastLocked()
	return nil
}

// Progress is the answered share of all sampled questions, in percent.
func (s *QuizSession) Progress() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	answered, total := countAnswered(s.sections, s.answers)
	return percent(answered, total)
}

// State returns the lifecycle state.
func (s *QuizSession) State() domain.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Score grades a submitted session.
func (s *QuizSession) Score() (domain.ScoreReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != domain.StateSubmitted {
		return domain.ScoreReport{}, domain.ErrInvalidState
	}
	return Score(s.sections, s.answers), nil
}

// Results bundles the score, the per-question review and the grade band.
func (s *QuizSession) Results() (domain.Results, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != domain.StateSubmitted {
		return domain.Results{}, domain.ErrInvalidState
	}
	report := Score(s.sections, s.answers)
	return domain.Results{
		Report:      report,
		Review:      Review(s.sections, s.answers),
		Grade:       GradeFor(report.OverallScore),
		TimeElapsed: domain.FormatElapsed(s.elapsed),
	}, nil
}

// Export builds the downloadable results document for a started session.
func (s *QuizSession) Export() (domain.ExportDocument, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == domain.StateNotStarted {
		return domain.ExportDocument{}, domain.ErrInvalidState
	}
	answered, total := countAnswered(s.sections, s.answers)
	return domain.ExportDocument{
		TimeElapsed:       domain.FormatElapsed(s.elapsed),
		Answers:           s.answers.Clone(),
		Timestamp:         s.now().UTC().Format("2006-01-02T15:04:05.000Z07:00"),
		TotalQuestions:    total,
		AnsweredQuestions: answered,
	}, nil
}

// Snapshot returns the current read model.
func (s *QuizSession) Snapshot() domain.SessionSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Subscribe returns a channel receiving a snapshot after every change.
// The caller must invoke cancel to avoid leaks.
func (s *QuizSession) Subscribe() (<-chan domain.SessionSnapshot, func()) {
	ch := make(chan domain.SessionSnapshot, 8)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	s.subscribers[ch] = struct{}{}
	ch <- s.snapshotLocked()
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		if _, ok := s.subscribers[ch]; ok {
			delete(s.subscribers, ch)
			close(ch)
		}
		s.mu.Unlock()
	}
	return ch, cancel
}

// Close tears the session down: the timer is cancelled and subscribers are
// released. Persisted state is kept so the session can be restored later.
func (s *QuizSession) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.stopTimerLocked()
	for ch := range s.subscribers {
		delete(s.subscribers, ch)
		close(ch)
	}
}

func (s *QuizSession) broadcastLocked() {
	if len(s.subscribers) == 0 {
		return
	}
	snap := s.snapshotLocked()
	for ch := range s.subscribers {
		select {
		case ch <- snap:
		default:
			// drop the oldest update so a slow reader never blocks a mutation
			select {
			case <-ch:
			default:
			}
			ch <- snap
		}
	}
}

func (s *QuizSession) snapshotLocked() domain.SessionSnapshot {
	answered, total := countAnswered(s.sections, s.answers)
	perSection := make([]int, len(s.sections))
	labels := make(map[domain.QuestionType]string)
	for i, section := range s.sections {
		for _, q := range section.Questions {
			labels[q.Type] = q.Type.Label()
			if s.answers.Answered(q.ID) {
				perSection[i]++
			}
		}
	}
	sections := make([]domain.SampledSection, len(s.sections))
	copy(sections, s.sections)
	return domain.SessionSnapshot{
		SessionID:       s.id,
		State:           s.state,
		SectionIndex:    s.index,
		QuestionIndex:   s.question,
		ElapsedSeconds:  s.elapsed,
		TimeElapsed:     domain.FormatElapsed(s.elapsed),
		Progress:        percent(answered, total),
		Sections:        sections,
		SectionAnswered: perSection,
		TypeLabels:      labels,
		Answers:         s.answers.Clone(),
		UpdatedAt:       s.now(),
	}
}

func questionIDs(sections []domain.SampledSection) map[string]struct{} {
	ids := make(map[string]struct{})
	for _, section := range sections {
		for _, q := range section.Questions {
			ids[q.ID] = struct{}{}
		}
	}
	return ids
}

func clamp(v, lo, hi int) int {
	if hi < lo {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
