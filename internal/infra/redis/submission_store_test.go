package redis

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"quiz-session-service/internal/domain"
)

func TestSubmissionStoreRoundTrip(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	ctx := context.Background()
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewSubmissionStore(client, time.Minute)

	if _, err := store.FetchSubmission(ctx, "quiz-1", "u1"); err != domain.ErrSubmissionNotFound {
		t.Fatalf("expected absence signal, got %v", err)
	}

	sub := domain.Submission{
		ID:          "sub-1",
		QuizID:      "quiz-1",
		CourseID:    "course-1",
		UserID:      "u1",
		Answers:     []domain.SelectedAnswer{{QuestionID: 1, OptionID: "1-1"}},
		Score:       1,
		Total:       1,
		TimedOut:    true,
		SubmittedAt: time.Now().UTC(),
	}
	if _, err := store.CreateSubmission(ctx, sub); err != nil {
		t.Fatalf("create: %v", err)
	}
	if !mr.Exists("quiz:submission:quiz-1:u1") {
		t.Fatalf("expected submission key in redis")
	}

	got, err := store.FetchSubmission(ctx, "quiz-1", "u1")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if got.ID != "sub-1" || !got.TimedOut || len(got.Answers) != 1 {
		t.Fatalf("unexpected submission: %+v", got)
	}

	if err := store.DeleteSubmission(ctx, "quiz-1", "u1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if mr.Exists("quiz:submission:quiz-1:u1") {
		t.Fatalf("expected submission key removed")
	}
}
