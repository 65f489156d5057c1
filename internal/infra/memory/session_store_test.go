package memory

import (
	"testing"

	"quiz-session-service/internal/app"
)

func TestSessionStoreLifecycle(t *testing.T) {
	store := NewSessionStore()
	gateway := NewSubmissionStore()

	session := app.NewSession(sampleQuiz(), "u1", gateway)
	defer session.Close()

	if got := store.Store("quiz-1/u1", session); got != session {
		t.Fatalf("expected stored session back")
	}
	if _, ok := store.Get("quiz-1/u1"); !ok {
		t.Fatalf("expected session present")
	}

	other := app.NewSession(sampleQuiz(), "u1", gateway)
	defer other.Close()
	if got := store.Store("quiz-1/u1", other); got != session {
		t.Fatalf("racing store must return the first session")
	}

	store.Remove("quiz-1/u1")
	if _, ok := store.Get("quiz-1/u1"); ok {
		t.Fatalf("expected session removed")
	}
}
