package domain

import "errors"

var (
	// ErrQuizNotFound indicates the quiz content could not be loaded.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrSubmissionNotFound is the normal absence signal from the submission
	// gateway, distinct from a transport failure.
	ErrSubmissionNotFound = errors.New("submission not found")
	// ErrQuestionNotFound indicates a selected question ID is not in the quiz.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrOptionNotFound indicates a selected option does not belong to the question.
	ErrOptionNotFound = errors.New("option not found")
	// ErrNotInProgress is returned for answer selection outside the in-progress state.
	ErrNotInProgress = errors.New("quiz session is not in progress")
	// ErrNotFinished is returned for a retake before any submission exists.
	ErrNotFinished = errors.New("quiz session has no submission to retake")
)
