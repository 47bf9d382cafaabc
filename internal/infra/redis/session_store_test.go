package redis

import (
	"testing"
	"time"

	"examprep-quiz/internal/app"
	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestSessionStoreSetsAndClearsKeys(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewSessionStore(client, time.Minute)
	create := func() *app.QuizSession { return app.NewQuizSession("s-1", app.SessionOptions{}) }

	_ = store.Acquire("s-1", create)
	_ = store.Acquire("s-1", create)
	if !mr.Exists("quiz:live:s-1") {
		t.Fatalf("expected redis key to be set")
	}
	if got, _ := mr.Get("quiz:live:s-1"); got != "2" {
		t.Fatalf("expected two references, got %q", got)
	}

	if _, removed := store.Release("s-1"); removed {
		t.Fatalf("expected session kept while referenced")
	}
	if _, removed := store.Release("s-1"); !removed {
		t.Fatalf("expected session removed")
	}
	if mr.Exists("quiz:live:s-1") {
		t.Fatalf("expected redis key to be removed")
	}
}
