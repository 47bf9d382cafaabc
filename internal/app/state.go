package app

import (
	"context"
	"encoding/json"
	"strconv"

	"examprep-quiz/internal/domain"
)

// StateStore is the durable key-value store mirroring a session's mutable fields.
// Get reports ok=false when the key is absent.
type StateStore interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}

// Key names inside a session's namespace.
const (
	KeyAnswers  = "quiz-answers"
	KeySection  = "quiz-section"
	KeyTime     = "quiz-time"
	KeySections = "quiz-sections"
	KeyState    = "quiz-state"
)

type stateKeys struct {
	answers, section, elapsed, sections, state string
}

// StateKey returns the namespaced storage key for one of the Key* names.
func StateKey(sessionID, name string) string {
	return "quiz:" + sessionID + ":" + name
}

func keysFor(sessionID string) stateKeys {
	return stateKeys{
		answers:  StateKey(sessionID, KeyAnswers),
		section:  StateKey(sessionID, KeySection),
		elapsed:  StateKey(sessionID, KeyTime),
		sections: StateKey(sessionID, KeySections),
		state:    StateKey(sessionID, KeyState),
	}
}

func (k stateKeys) all() []string {
	return []string{k.answers, k.section, k.elapsed, k.sections, k.state}
}

type savedState struct {
	answers domain.AnswerMap
	index   int
	elapsed int
	sample  [][]string
	state   domain.State
}

func (s *QuizSession) persistCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), s.persistTimeout)
}

func (s *QuizSession) setLocked(ctx context.Context, key, value string) {
	if err := s.store.Set(ctx, key, value); err != nil {
		s.logger.Warn("persist session state", "session", s.id, "key", key, "error", err)
	}
}

// persistLocked mirrors every mutable field. Write failures are logged only.
func (s *QuizSession) persistLocked() {
	if s.store == nil {
		return
	}
	ctx, cancel := s.persistCtx()
	defer cancel()

	answers, err := json.Marshal(s.answers)
	if err != nil {
		s.logger.Warn("encode answers", "session", s.id, "error", err)
		return
	}
	sample := make([][]string, len(s.sections))
	for i, section := range s.sections {
		ids := make([]string, len(section.Questions))
		for j, q := range section.Questions {
			ids[j] = q.ID
		}
		sample[i] = ids
	}
	sampleJSON, err := json.Marshal(sample)
	if err != nil {
		s.logger.Warn("encode sample", "session", s.id, "error", err)
		return
	}

	s.setLocked(ctx, s.keys.answers, string(answers))
	s.setLocked(ctx, s.keys.section, strconv.Itoa(s.index))
	s.setLocked(ctx, s.keys.elapsed, strconv.Itoa(s.elapsed))
	s.setLocked(ctx, s.keys.sections, string(sampleJSON))
	s.setLocked(ctx, s.keys.state, string(s.state))
}

func (s *QuizSession) persistTimeLocked() {
	if s.store == nil {
		return
	}
	ctx, cancel := s.persistCtx()
	defer cancel()
	s.setLocked(ctx, s.keys.elapsed, strconv.Itoa(s.elapsed))
}

func (s *QuizSession) clearPersistedLocked() {
	if s.store == nil {
		return
	}
	ctx, cancel := s.persistCtx()
	defer cancel()
	for _, key := range s.keys.all() {
		if err := s.store.Remove(ctx, key); err != nil {
			s.logger.Warn("clear session state", "session", s.id, "key", key, "error", err)
		}
	}
}

// loadLocked reads the saved fields. ok is false when nothing was saved or
// anything could not be read or parsed.
func (s *QuizSession) loadLocked(ctx context.Context) (savedState, bool) {
	var saved savedState
	if s.store == nil {
		return saved, false
	}

	raw := make(map[string]string)
	present := make(map[string]bool)
	for _, key := range s.keys.all() {
		value, ok, err := s.store.Get(ctx, key)
		if err != nil {
			s.logger.Warn("read session state", "session", s.id, "key", key, "error", err)
			return saved, false
		}
		raw[key], present[key] = value, ok
	}
	if !present[s.keys.answers] && !present[s.keys.section] && !present[s.keys.elapsed] {
		return saved, false
	}

	saved.answers = domain.AnswerMap{}
	saved.state = domain.StateInProgress
	var err error
	if present[s.keys.answers] {
		if err = json.Unmarshal([]byte(raw[s.keys.answers]), &saved.answers); err != nil {
			return s.discardLocked(ctx, s.keys.answers, err)
		}
		if saved.answers == nil {
			saved.answers = domain.AnswerMap{}
		}
	}
	saved.index = -1
	if present[s.keys.section] {
		if saved.index, err = strconv.Atoi(raw[s.keys.section]); err != nil {
			return s.discardLocked(ctx, s.keys.section, err)
		}
	}
	if present[s.keys.elapsed] {
		if saved.elapsed, err = strconv.Atoi(raw[s.keys.elapsed]); err != nil || saved.elapsed < 0 {
			return s.discardLocked(ctx, s.keys.elapsed, err)
		}
	}
	if present[s.keys.sections] {
		if err = json.Unmarshal([]byte(raw[s.keys.sections]), &saved.sample); err != nil {
			// Without the sample the saved state is still usable; it is resampled.
			s.logger.Warn("decode saved sample", "session", s.id, "error", err)
			saved.sample = nil
		}
	}
	if present[s.keys.state] && domain.State(raw[s.keys.state]) == domain.StateSubmitted {
		saved.state = domain.StateSubmitted
	}
	return saved, true
}

func (s *QuizSession) discardLocked(_ context.Context, key string, err error) (savedState, bool) {
	s.logger.Warn("discard malformed session state", "session", s.id, "key", key, "error", err)
	s.clearPersistedLocked()
	return savedState{}, false
}

// resolveSample maps saved question IDs back onto the bank. It returns nil
// when the bank no longer contains the saved sample.
func resolveSample(bank []domain.Section, sample [][]string) []domain.SampledSection {
	if sample == nil || len(sample) != len(bank) {
		return nil
	}
	out := make([]domain.SampledSection, len(bank))
	for i, section := range bank {
		byID := make(map[string]domain.Question, len(section.Questions))
		for _, q := range section.Questions {
			byID[q.ID] = q
		}
		questions := make([]domain.Question, 0, len(sample[i]))
		for _, id := range sample[i] {
			q, ok := byID[id]
			if !ok {
				return nil
			}
			questions = append(questions, q)
		}
		out[i] = domain.SampledSection{Title: section.Title, Questions: questions}
	}
	return out
}
