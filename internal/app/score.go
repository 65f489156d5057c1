package app

import "quiz-session-service/internal/domain"

// Score grades a selection set against quiz content. It is pure: identical
// inputs always yield identical output, and results follow question order.
//
// The correct option for a question is the first option carrying the correct
// flag; a question with no flagged option has an empty correct answer and can
// never be judged correct. A question counts toward the score iff the selected
// option ID equals the correct option ID exactly.
func Score(questions []domain.Question, picks domain.AnswerSet) (int, []domain.QuestionResult) {
	score := 0
	results := make([]domain.QuestionResult, 0, len(questions))
	for _, q := range questions {
		correct := firstCorrectOption(q)
		selected := picks[q.ID]
		isCorrect := correct != "" && selected == correct
		if isCorrect {
			score++
		}
		results = append(results, domain.QuestionResult{
			QuestionID: q.ID,
			Question:   q.Text,
			Selected:   selected,
			Correct:    correct,
			IsCorrect:  isCorrect,
		})
	}
	return score, results
}

func firstCorrectOption(q domain.Question) string {
	for _, opt := range q.Options {
		if opt.Correct {
			return opt.ID
		}
	}
	return ""
}
