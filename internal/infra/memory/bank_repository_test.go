package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"examprep-quiz/internal/domain"
)

func TestBankRepositoryCaches(t *testing.T) {
	loader := &countingLoader{BankLoader: NewStaticBankLoader(sampleBank())}
	repo := NewBankRepository(loader, time.Minute)

	if _, err := repo.GetBank(context.Background()); err != nil {
		t.Fatalf("get bank: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected loader once, got %d", loader.calls)
	}

	bank, err := repo.GetBank(context.Background())
	if err != nil {
		t.Fatalf("get bank 2: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected cache hit, loader calls %d", loader.calls)
	}
	if len(bank) != 1 || bank[0].Title != "HTML & CSS" {
		t.Fatalf("unexpected bank %+v", bank)
	}
}

func TestBankRepositoryReloadsAfterExpiry(t *testing.T) {
	loader := &countingLoader{BankLoader: NewStaticBankLoader(sampleBank())}
	repo := NewBankRepository(loader, time.Minute)
	now := time.Now()
	repo.clock = func() time.Time { return now }

	_, _ = repo.GetBank(context.Background())
	now = now.Add(2 * time.Minute)
	_, _ = repo.GetBank(context.Background())
	if loader.calls != 2 {
		t.Fatalf("expected reload after expiry, loader calls %d", loader.calls)
	}
}

func TestStaticBankLoaderEmpty(t *testing.T) {
	_, err := NewStaticBankLoader(nil).LoadBank(context.Background())
	if !errors.Is(err, domain.ErrBankEmpty) {
		t.Fatalf("expected ErrBankEmpty, got %v", err)
	}
}

func TestStateStore(t *testing.T) {
	ctx := context.Background()
	store := NewStateStore()
	if _, ok, _ := store.Get(ctx, "k"); ok {
		t.Fatalf("expected absent key")
	}
	_ = store.Set(ctx, "k", "v")
	if v, ok, _ := store.Get(ctx, "k"); !ok || v != "v" {
		t.Fatalf("expected v, got %q ok=%v", v, ok)
	}
	_ = store.Remove(ctx, "k")
	if store.Len() != 0 {
		t.Fatalf("expected empty store")
	}
}

type countingLoader struct {
	BankLoader
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
