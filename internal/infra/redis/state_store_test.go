package redis

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
)

func TestStateStoreRoundTrip(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	ctx := context.Background()
	store := NewStateStore(newClient(mr), time.Hour)

	if _, ok, err := store.Get(ctx, "quiz:s-1:quiz-time"); err != nil || ok {
		t.Fatalf("expected absent key, ok=%v err=%v", ok, err)
	}
	if err := store.Set(ctx, "quiz:s-1:quiz-time", "42"); err != nil {
		t.Fatalf("set: %v", err)
	}
	v, ok, err := store.Get(ctx, "quiz:s-1:quiz-time")
	if err != nil || !ok || v != "42" {
		t.Fatalf("expected 42, got %q ok=%v err=%v", v, ok, err)
	}
	if ttl := mr.TTL("quiz:s-1:quiz-time"); ttl != time.Hour {
		t.Fatalf("expected ttl to be set, got %v", ttl)
	}
	if err := store.Remove(ctx, "quiz:s-1:quiz-time"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if mr.Exists("quiz:s-1:quiz-time") {
		t.Fatalf("expected key removed")
	}
}

func TestStateStoreReportsConnectionErrors(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	client := newClient(mr)
	mr.Close()

	store := NewStateStore(client, time.Hour)
	if _, _, err := store.Get(context.Background(), "k"); err == nil {
		t.Fatalf("expected error from closed server")
	}
}
