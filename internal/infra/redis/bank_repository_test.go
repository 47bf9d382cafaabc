package redis

import (
	"context"
	"testing"
	"time"

	"examprep-quiz/internal/domain"
	"examprep-quiz/internal/infra/memory"
	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestBankRepositoryCachesInRedis(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := newClient(mr)

	loader := &countingLoader{
		BankLoader: memory.NewStaticBankLoader(sampleBank()),
	}
	repo := NewBankRepository(client, loader, time.Minute)

	if _, err := repo.GetBank(context.Background()); err != nil {
		t.Fatalf("get bank: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected loader called once, got %d", loader.calls)
	}
	if !mr.Exists(BankKey) {
		t.Fatalf("expected bank cached under %s", BankKey)
	}

	// Second call should hit cache, loader not incremented.
	bank, _ := repo.GetBank(context.Background())
	if loader.calls != 1 {
		t.Fatalf("expected cache hit, loader calls=%d", loader.calls)
	}
	if len(bank) != 1 || bank[0].Questions[0].CorrectAnswer != "<nav>" {
		t.Fatalf("cached bank lost data: %+v", bank)
	}
}

type countingLoader struct {
	memory.BankLoader
	calls int
}

func (l *countingLoader) LoadBank(ctx context.Context) ([]domain.Section, error) {
	l.calls++
	return l.BankLoader.LoadBank(ctx)
}

func sampleBank() []domain.Section {
	return []domain.Section{{
		Title: "HTML & CSS",
		Questions: []domain.Question{
			{
				ID:            "html-1",
				Prompt:        "Which HTML5 semantic element is best for containing navigation links?",
				Type:          domain.TypeMultipleChoice,
				Options:       []string{"<div>", "<nav>", "<section>", "<header>"},
				CorrectAnswer: "<nav>",
			},
		},
	}}
}

func newClient(mr *miniredis.Miniredis) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
}
