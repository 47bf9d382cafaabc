package app

import (
	"math/rand"
	"sync"
	"time"

	"examprep-quiz/internal/domain"
)

// Sampler draws random, size-bounded subsets of a question pool.
// It is safe for concurrent use.
type Sampler struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// NewSampler seeds from the wall clock.
func NewSampler() *Sampler {
	return NewSamplerWithSource(rand.NewSource(time.Now().UnixNano()))
}

// NewSamplerWithSource is used by tests that need a reproducible sequence.
func NewSamplerWithSource(src rand.Source) *Sampler {
	return &Sampler{rnd: rand.New(src)}
}

// Sample returns min(size, len(pool)) questions in random order.
// The pool is never modified. A negative size is a programming error and panics.
func (s *Sampler) Sample(pool []domain.Question, size int) []domain.Question {
	if size < 0 {
		panic("sampler: negative sample size")
	}
	shuffled := make([]domain.Question, len(pool))
	copy(shuffled, pool)

	s.mu.Lock()
	// Fisher-Yates: i from last down to 1, j uniform in [0, i].
	s.rnd.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	s.mu.Unlock()

	if size < len(shuffled) {
		shuffled = shuffled[:size]
	}
	return shuffled
}

// SampleBank samples every section of the bank with the same size.
func (s *Sampler) SampleBank(bank []domain.Section, size int) []domain.SampledSection {
	out := make([]domain.SampledSection, 0, len(bank))
	for _, section := range bank {
		out = append(out, domain.SampledSection{
			Title:     section.Title,
			Questions: s.Sample(section.Questions, size),
		})
	}
	return out
}
