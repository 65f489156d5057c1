package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"quiz-session-service/internal/domain"
)

// SubmissionStore persists quiz submissions as JSON values keyed
// quiz:submission:{quizID}:{userID}. A zero TTL keeps them until retake.
type SubmissionStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewSubmissionStore(client *redis.Client, ttl time.Duration) *SubmissionStore {
	return &SubmissionStore{client: client, ttl: ttl}
}

func (s *SubmissionStore) FetchSubmission(ctx context.Context, quizID, userID string) (domain.Submission, error) {
	raw, err := s.client.Get(ctx, s.key(quizID, userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Submission{}, domain.ErrSubmissionNotFound
	}
	if err != nil {
		return domain.Submission{}, fmt.Errorf("fetch submission: %w", err)
	}
	var sub domain.Submission
	if err := json.Unmarshal(raw, &sub); err != nil {
		return domain.Submission{}, fmt.Errorf("unmarshal submission: %w", err)
	}
	return sub, nil
}

func (s *SubmissionStore) CreateSubmission(ctx context.Context, sub domain.Submission) (domain.Submission, error) {
	raw, err := json.Marshal(sub)
	if err != nil {
		return domain.Submission{}, fmt.Errorf("marshal submission: %w", err)
	}
	if err := s.client.Set(ctx, s.key(sub.QuizID, sub.UserID), raw, s.ttl).Err(); err != nil {
		return domain.Submission{}, fmt.Errorf("store submission: %w", err)
	}
	return sub, nil
}

func (s *SubmissionStore) DeleteSubmission(ctx context.Context, quizID, userID string) error {
	if err := s.client.Del(ctx, s.key(quizID, userID)).Err(); err != nil {
		return fmt.Errorf("delete submission: %w", err)
	}
	return nil
}

func (s *SubmissionStore) key(quizID, userID string) string {
	return "quiz:submission:" + quizID + ":" + userID
}
