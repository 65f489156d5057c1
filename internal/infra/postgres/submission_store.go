package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"quiz-session-service/internal/domain"
)

// SubmissionStore persists submissions in the submissions table, one row per
// (quiz, user). Answers are stored as raw JSONB; correctness is never
// persisted and gets recomputed from quiz content on load.
type SubmissionStore struct {
	pool *pgxpool.Pool
}

func NewSubmissionStore(pool *pgxpool.Pool) *SubmissionStore {
	return &SubmissionStore{pool: pool}
}

func (s *SubmissionStore) FetchSubmission(ctx context.Context, quizID, userID string) (domain.Submission, error) {
	sub := domain.Submission{QuizID: quizID, UserID: userID}
	var rawAnswers []byte
	err := s.pool.QueryRow(ctx,
		`SELECT id, course_id, answers, score, total_questions, timed_out, submitted_at
		 FROM submissions WHERE quiz_id=$1 AND user_id=$2`,
		quizID, userID,
	).Scan(&sub.ID, &sub.CourseID, &rawAnswers, &sub.Score, &sub.Total, &sub.TimedOut, &sub.SubmittedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Submission{}, domain.ErrSubmissionNotFound
	}
	if err != nil {
		return domain.Submission{}, fmt.Errorf("fetch submission: %w", err)
	}
	if err := json.Unmarshal(rawAnswers, &sub.Answers); err != nil {
		return domain.Submission{}, fmt.Errorf("unmarshal answers: %w", err)
	}
	return sub, nil
}

func (s *SubmissionStore) CreateSubmission(ctx context.Context, sub domain.Submission) (domain.Submission, error) {
	rawAnswers, err := json.Marshal(sub.Answers)
	if err != nil {
		return domain.Submission{}, fmt.Errorf("marshal answers: %w", err)
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO submissions (id, quiz_id, course_id, user_id, answers, score, total_questions, timed_out, submitted_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 ON CONFLICT (quiz_id, user_id) DO NOTHING`,
		sub.ID, sub.QuizID, sub.CourseID, sub.UserID, rawAnswers, sub.Score, sub.Total, sub.TimedOut, sub.SubmittedAt,
	)
	if err != nil {
		return domain.Submission{}, fmt.Errorf("store submission: %w", err)
	}
	// An existing row wins; a submission is created at most once per attempt.
	return s.FetchSubmission(ctx, sub.QuizID, sub.UserID)
}

func (s *SubmissionStore) DeleteSubmission(ctx context.Context, quizID, userID string) error {
	if _, err := s.pool.Exec(ctx,
		`DELETE FROM submissions WHERE quiz_id=$1 AND user_id=$2`, quizID, userID,
	); err != nil {
		return fmt.Errorf("delete submission: %w", err)
	}
	return nil
}
