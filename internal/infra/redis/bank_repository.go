package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"time"

	"examprep-quiz/internal/domain"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// BankLoader fetches the question bank from a backing store (file, Postgres, ...).
type BankLoader interface {
	LoadBank(ctx context.Context) ([]domain.Section, error)
}

// BankKey holds the JSON-encoded bank shared by every service instance.
const BankKey = "quiz:bank"

// BankRepository caches the bank in Redis and falls back to a loader on cache miss.
type BankRepository struct {
	client *redis.Client
	loader BankLoader
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
}

func NewBankRepository(client *redis.Client, loader BankLoader, ttl time.Duration) *BankRepository {
	return &BankRepository{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *BankRepository) GetBank(ctx context.Context) ([]domain.Section, error) {
	if bank, ok := r.cached(ctx); ok {
		return bank, nil
	}

	result, err, _ := r.sf.Do(BankKey, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if bank, ok := r.cached(ctx); ok {
			return bank, nil
		}

		bank, err := r.loader.LoadBank(ctx)
		if err != nil {
			return nil, err
		}

		// best-effort fill; a failed write only costs another load
		if raw, err := json.Marshal(bank); err == nil {
			_ = r.client.Set(ctx, BankKey, raw, r.ttlWithJitter()).Err()
		}
		return bank, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Section), nil
}

func (r *BankRepository) cached(ctx context.Context) ([]domain.Section, bool) {
	raw, err := r.client.Get(ctx, BankKey).Bytes()
	if err != nil {
		return nil, false
	}
	var bank []domain.Section
	if err := json.Unmarshal(raw, &bank); err != nil || len(bank) == 0 {
		return nil, false
	}
	return bank, true
}

func (r *BankRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
