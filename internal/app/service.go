package app

import (
	"context"
	"errors"
	"fmt"

	"quiz-session-service/internal/domain"
)

// SessionRepository abstracts how live sessions are stored (in-memory, Redis-marked, etc).
// Store returns the winning session when two attaches race on the same key.
type SessionRepository interface {
	Get(key string) (*Session, bool)
	Store(key string, session *Session) *Session
	Remove(key string)
}

// QuizRepository loads quiz content (from cache/backing store).
type QuizRepository interface {
	GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
}

// SubmissionGateway is the persistence boundary for quiz attempts.
// FetchSubmission signals absence with domain.ErrSubmissionNotFound, distinct
// from a transport failure.
type SubmissionGateway interface {
	FetchSubmission(ctx context.Context, quizID, userID string) (domain.Submission, error)
	CreateSubmission(ctx context.Context, sub domain.Submission) (domain.Submission, error)
	DeleteSubmission(ctx context.Context, quizID, userID string) error
}

// SessionService owns the loading phase of the session lifecycle: it resolves
// quiz content and any prior submission, then hands out live sessions.
type SessionService struct {
	sessions    SessionRepository
	quizzes     QuizRepository
	submissions SubmissionGateway
}

func NewSessionService(sessions SessionRepository, quizzes QuizRepository, submissions SubmissionGateway) *SessionService {
	return &SessionService{sessions: sessions, quizzes: quizzes, submissions: submissions}
}

// Attach resolves the session for one user on one quiz. A prior submission
// restores the session directly in the submitted state, bypassing in-progress;
// otherwise a fresh attempt starts with the full countdown. A load failure is
// terminal for the attempt: nothing is retried here, the client reconnects.
func (s *SessionService) Attach(ctx context.Context, quizID, userID string) (*Session, error) {
	key := sessionKey(quizID, userID)
	if session, ok := s.sessions.Get(key); ok {
		return session, nil
	}

	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return nil, fmt.Errorf("load quiz: %w", err)
	}

	var session *Session
	prior, err := s.submissions.FetchSubmission(ctx, quizID, userID)
	switch {
	case err == nil:
		session = RestoreSession(quiz, userID, s.submissions, prior)
	case errors.Is(err, domain.ErrSubmissionNotFound):
		session = NewSession(quiz, userID, s.submissions)
	default:
		return nil, fmt.Errorf("load submission: %w", err)
	}

	if winner := s.sessions.Store(key, session); winner != session {
		session.Close()
		return winner, nil
	}
	return session, nil
}

// Detach drops a session nobody is watching anymore, but only once it is
// finished: an in-progress session keeps its countdown running so a
// disconnected user can reconnect and the auto-submit still fires on expiry.
func (s *SessionService) Detach(quizID, userID string) {
	key := sessionKey(quizID, userID)
	session, ok := s.sessions.Get(key)
	if !ok {
		return
	}
	if session.Watchers() == 0 && session.Finished() {
		s.sessions.Remove(key)
		session.Close()
	}
}

func sessionKey(quizID, userID string) string {
	return quizID + "/" + userID
}
