package domain

import "time"

// Option represents a possible answer for a question. IDs are composite
// "<questionID>-<optionIndex>" strings, matching what clients render and send back.
type Option struct {
	ID      string `json:"id"`
	Text    string `json:"text"`
	Correct bool   `json:"correct"`
}

// Question models an MCQ question with exactly one correct option.
// IDs are sequential and 1-based within a quiz.
type Question struct {
	ID      int      `json:"id"`
	Text    string   `json:"text"`
	Options []Option `json:"options"`
}

// Quiz is the read-only content of one timed quiz.
type Quiz struct {
	ID        string     `json:"id"`
	CourseID  string     `json:"courseId"`
	Title     string     `json:"title"`
	Duration  string     `json:"duration"` // "HH:MM:SS"
	Questions []Question `json:"questions"`
}

// DurationSeconds returns the quiz time limit as total seconds.
func (q Quiz) DurationSeconds() int {
	return ParseClock(q.Duration)
}

// AnswerSet maps a question ID to the selected option ID. A missing key means
// the question is unanswered; at most one selection per question.
type AnswerSet map[int]string

// Clone copies the set so snapshots don't alias live session state.
func (a AnswerSet) Clone() AnswerSet {
	out := make(AnswerSet, len(a))
	for q, o := range a {
		out[q] = o
	}
	return out
}

// SelectedAnswer is the wire form of one answered question.
type SelectedAnswer struct {
	QuestionID int    `json:"questionId"`
	OptionID   string `json:"optionId"`
}

// Submission is the persisted record of one quiz attempt. Only answered
// questions appear in Answers; per-question correctness is never stored and is
// recomputed from quiz content whenever the submission is viewed.
type Submission struct {
	ID          string           `json:"id"`
	QuizID      string           `json:"quizId"`
	CourseID    string           `json:"courseId"`
	UserID      string           `json:"userId"`
	Answers     []SelectedAnswer `json:"answers"`
	Score       int              `json:"score"`
	Total       int              `json:"totalQuestions"`
	TimedOut    bool             `json:"timedOut"`
	SubmittedAt time.Time        `json:"submittedAt"`
}

// AnswerSet rebuilds the selection map from the persisted answer list.
func (s Submission) AnswerSet() AnswerSet {
	out := make(AnswerSet, len(s.Answers))
	for _, a := range s.Answers {
		out[a.QuestionID] = a.OptionID
	}
	return out
}

// QuestionResult is one row of the graded breakdown. Selected is empty when
// the question was left unanswered; Correct is empty when no option carries
// the correct flag.
type QuestionResult struct {
	QuestionID int    `json:"questionId"`
	Question   string `json:"question"`
	Selected   string `json:"selectedAnswer"`
	Correct    string `json:"correctAnswer"`
	IsCorrect  bool   `json:"isCorrect"`
}
