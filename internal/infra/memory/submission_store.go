package memory

import (
	"context"
	"sync"

	"quiz-session-service/internal/domain"
)

// SubmissionStore keeps quiz submissions in memory, one per (quiz, user).
type SubmissionStore struct {
	mu          sync.RWMutex
	submissions map[string]domain.Submission
}

func NewSubmissionStore() *SubmissionStore {
	return &SubmissionStore{
		submissions: make(map[string]domain.Submission),
	}
}

func (s *SubmissionStore) FetchSubmission(_ context.Context, quizID, userID string) (domain.Submission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sub, ok := s.submissions[s.key(quizID, userID)]
	if !ok {
		return domain.Submission{}, domain.ErrSubmissionNotFound
	}
	return sub, nil
}

func (s *SubmissionStore) CreateSubmission(_ context.Context, sub domain.Submission) (domain.Submission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.submissions[s.key(sub.QuizID, sub.UserID)] = sub
	return sub, nil
}

func (s *SubmissionStore) DeleteSubmission(_ context.Context, quizID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.submissions, s.key(quizID, userID))
	return nil
}

func (s *SubmissionStore) key(quizID, userID string) string {
	return quizID + "/" + userID
}
