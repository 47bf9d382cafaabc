package app_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"examprep-quiz/internal/app"
	"examprep-quiz/internal/domain"
	"examprep-quiz/internal/infra/memory"
)

func TestServiceFlow(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService(testBank(2, 3))

	snap, err := service.Open(ctx, "svc-1")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer service.Close(ctx, "svc-1")
	if snap.State != domain.StateNotStarted || snap.SectionIndex != -1 {
		t.Fatalf("expected landing state, got %+v", snap)
	}

	if err := service.Start(ctx, "svc-1"); err != nil {
		t.Fatalf("start: %v", err)
	}
	for i := 0; i < 2; i++ {
		for j := 0; j < 3; j++ {
			qid := fmt.Sprintf("s%d-q%d", i, j)
			if err := service.RecordAnswer(ctx, "svc-1", qid, "A"); err != nil {
				t.Fatalf("answer %s: %v", qid, err)
			}
		}
	}
	if err := service.Navigate(ctx, "svc-1", app.MoveNextSection); err != nil {
		t.Fatalf("navigate: %v", err)
	}
	if err := service.SelectQuestion(ctx, "svc-1", 2); err != nil {
		t.Fatalf("select: %v", err)
	}
	snap, err = service.Snapshot(ctx, "svc-1")
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if snap.SectionIndex != 1 || snap.QuestionIndex != 2 || snap.Progress != 100 {
		t.Fatalf("unexpected snapshot %+v", snap)
	}

	if _, err := service.Results(ctx, "svc-1"); !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("expected results to require submit, got %v", err)
	}
	if err := service.Submit(ctx, "svc-1"); err != nil {
		t.Fatalf("submit: %v", err)
	}
	results, err := service.Results(ctx, "svc-1")
	if err != nil {
		t.Fatalf("results: %v", err)
	}
	if results.Report.OverallScore != 100 {
		t.Fatalf("expected 100, got %+v", results.Report)
	}
}

func TestServiceUnknownSession(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService(testBank(1, 1))

	if err := service.Start(ctx, "missing"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected session not found, got %v", err)
	}
	if err := service.RecordAnswer(ctx, "missing", "s0-q0", "A"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected session not found, got %v", err)
	}
	if _, _, err := service.Subscribe(ctx, "missing"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected session not found, got %v", err)
	}
}

func TestServiceRejectsUnknownMove(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService(testBank(1, 1))
	if _, err := service.Open(ctx, "svc-2"); err != nil {
		t.Fatalf("open: %v", err)
	}
	defer service.Close(ctx, "svc-2")
	if err := service.Navigate(ctx, "svc-2", app.Move("sideways")); err == nil {
		t.Fatalf("expected error for unknown move")
	}
}

func TestServiceRestoresAfterLastClose(t *testing.T) {
	ctx := context.Background()
	service, store := newTestService(testBank(1, 2))

	if _, err := service.Open(ctx, "svc-3"); err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := service.Start(ctx, "svc-3"); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := service.RecordAnswer(ctx, "svc-3", "s0-q1", "B"); err != nil {
		t.Fatalf("answer: %v", err)
	}
	service.Close(ctx, "svc-3")

	if _, err := service.Snapshot(ctx, "svc-3"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected session released, got %v", err)
	}
	if store.Len() == 0 {
		t.Fatalf("expected state kept in the store")
	}

	snap, err := service.Open(ctx, "svc-3")
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer service.Close(ctx, "svc-3")
	if snap.State != domain.StateInProgress || snap.Answers["s0-q1"] != "B" {
		t.Fatalf("expected restored session, got %+v", snap)
	}
}

func TestServiceSharedSessionAcrossClients(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService(testBank(1, 2))

	if _, err := service.Open(ctx, "svc-4"); err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := service.Open(ctx, "svc-4"); err != nil {
		t.Fatalf("second open: %v", err)
	}
	ch, cancel, err := service.Subscribe(ctx, "svc-4")
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer cancel()
	<-ch // initial snapshot

	service.Close(ctx, "svc-4")
	if err := service.Start(ctx, "svc-4"); err != nil {
		t.Fatalf("start after one close: %v", err)
	}
	select {
	case update := <-ch:
		if update.State != domain.StateInProgress {
			t.Fatalf("expected in-progress update, got %s", update.State)
		}
	case <-time.After(time.Second):
		t.Fatalf("no update received")
	}
	service.Close(ctx, "svc-4")
}

func TestServiceRejectsInvalidBank(t *testing.T) {
	ctx := context.Background()
	bank := []domain.Section{{Title: "Broken", Questions: []domain.Question{{ID: "x", Type: domain.TypeMultipleChoice}}}}
	service, _ := newTestService(bank)
	if _, err := service.Open(ctx, "svc-5"); !errors.Is(err, domain.ErrInvalidBank) {
		t.Fatalf("expected invalid bank error, got %v", err)
	}
}

func newTestService(bank []domain.Section) (*app.QuizService, *memory.StateStore) {
	store := memory.NewStateStore()
	repo := memory.NewBankRepository(memory.NewStaticBankLoader(bank), time.Minute)
	return app.NewQuizService(memory.NewSessionStore(), repo, store, app.ServiceOptions{
		QuestionsPerSection: 10,
	}), store
}
