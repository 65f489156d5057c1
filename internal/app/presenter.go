package app

import "quiz-session-service/internal/domain"

// ResultView is the read-only projection of a finished session that a
// presentation layer renders. Building it has no side effects.
type ResultView struct {
	Score      int               `json:"score"`
	Total      int               `json:"totalQuestions"`
	Percentage int               `json:"percentage"`
	TimedOut   bool              `json:"timedOut"`
	Questions  []ResultRow       `json:"questions"`
	Submission domain.Submission `json:"submission"`
}

// ResultRow annotates one graded question with the marks a renderer needs:
// which option was the user's pick and which was the correct one.
type ResultRow struct {
	domain.QuestionResult
	MarkSelected bool `json:"markSelected"` // highlight the user's pick
	MarkCorrect  bool `json:"markCorrect"`  // highlight the correct pick
}

// PresentResult projects a submission plus its recomputed breakdown into a
// ResultView. The displayed score is counted from the recomputed rows, not
// read from storage, so the view stays consistent with the breakdown even if
// grading rules changed since the submission was persisted. A zero-question
// quiz yields a defined 0 percentage.
func PresentResult(sub domain.Submission, results []domain.QuestionResult) ResultView {
	score := 0
	rows := make([]ResultRow, 0, len(results))
	for _, r := range results {
		if r.IsCorrect {
			score++
		}
		rows = append(rows, ResultRow{
			QuestionResult: r,
			MarkSelected:   r.Selected != "",
			MarkCorrect:    r.Correct != "",
		})
	}
	pct := 0
	if sub.Total > 0 {
		pct = (score*100 + sub.Total/2) / sub.Total
	}
	return ResultView{
		Score:      score,
		Total:      sub.Total,
		Percentage: pct,
		TimedOut:   sub.TimedOut,
		Questions:  rows,
		Submission: sub,
	}
}
