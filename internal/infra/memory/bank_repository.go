package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"examprep-quiz/internal/domain"
	"golang.org/x/sync/singleflight"
)

// BankLoader fetches the question bank from a backing store (file, Postgres, ...).
type BankLoader interface {
	LoadBank(ctx context.Context) ([]domain.Section, error)
}

const bankKey = "bank"

// BankRepository caches the bank with TTL to avoid repeated loads.
type BankRepository struct {
	loader BankLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand // only touched inside sf.Do

	mu        sync.RWMutex
	bank      []domain.Section
	expiresAt time.Time
}

func NewBankRepository(loader BankLoader, ttl time.Duration) *BankRepository {
	return &BankRepository{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *BankRepository) GetBank(ctx context.Context) ([]domain.Section, error) {
	if bank, ok := r.cached(r.clock()); ok {
		return bank, nil
	}

	result, err, _ := r.sf.Do(bankKey, func() (interface{}, error) {
		now := r.clock()
		if bank, ok := r.cached(now); ok {
			return bank, nil
		}

		bank, err := r.loader.LoadBank(ctx)
		if err != nil {
			return nil, err
		}

		expiresAt := now.Add(r.ttlWithJitter())
		r.mu.Lock()
		r.bank = bank
		r.expiresAt = expiresAt
		r.mu.Unlock()
		return bank, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Section), nil
}

func (r *BankRepository) cached(now time.Time) ([]domain.Section, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.bank != nil && r.expiresAt.After(now) {
		return r.bank, true
	}
	return nil, false
}

func (r *BankRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}

// StaticBankLoader is a loader backed by an in-memory bank (useful for tests/demos).
type StaticBankLoader struct {
	sections []domain.Section
}

func NewStaticBankLoader(sections []domain.Section) *StaticBankLoader {
	return &StaticBankLoader{sections: sections}
}

func (l *StaticBankLoader) LoadBank(_ context.Context) ([]domain.Section, error) {
	if len(l.sections) == 0 {
		return nil, domain.ErrBankEmpty
	}
	return l.sections, nil
}
