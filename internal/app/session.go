package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"quiz-session-service/internal/domain"
)

// State tags the session lifecycle. The loading phase happens inside
// SessionService.Attach, so a live session is always in one of these.
type State string

const (
	StateInProgress State = "in_progress"
	StateSubmitted  State = "submitted"
	StateTimedOut   State = "timed_out"
)

// Snapshot is what subscribers receive on every tick and state change.
type Snapshot struct {
	QuizID    string           `json:"quizId"`
	UserID    string           `json:"userId"`
	State     State            `json:"state"`
	Remaining int              `json:"remainingSeconds"`
	Clock     string           `json:"remainingClock"`
	Answers   domain.AnswerSet `json:"answers"`
	Result    *ResultView      `json:"result,omitempty"`
	Err       string           `json:"error,omitempty"`
}

// Session owns one user's attempt at one timed quiz: the countdown, the
// answer selections, the submit guard, and the retake reset. All methods are
// safe for concurrent use; the submit guard (stored submission + in-flight
// flag) is the correctness mechanism, ticker cancellation is hygiene.
type Session struct {
	quiz    domain.Quiz
	userID  string
	gateway SubmissionGateway

	now       func() time.Time
	newID     func() string
	tickEvery time.Duration
	autoCtx   context.Context

	mu          sync.Mutex
	state       State
	remaining   int
	answers     domain.AnswerSet
	submission  *domain.Submission
	results     []domain.QuestionResult
	inFlight    bool
	lastErr     string
	stopTick    chan struct{}
	subscribers map[chan Snapshot]struct{}
	closed      bool
}

// NewSession starts a fresh attempt: empty answers, full countdown running.
func NewSession(quiz domain.Quiz, userID string, gateway SubmissionGateway) *Session {
	s := newSession(quiz, userID, gateway, time.Now, time.Second)
	s.mu.Lock()
	s.startCountdownLocked()
	s.mu.Unlock()
	return s
}

// RestoreSession rebuilds a finished attempt from a persisted submission. The
// per-question breakdown is recomputed from quiz content rather than trusted
// from storage, so a later grading-rule change re-grades the view.
func RestoreSession(quiz domain.Quiz, userID string, gateway SubmissionGateway, prior domain.Submission) *Session {
	s := newSession(quiz, userID, gateway, time.Now, time.Second)
	s.state = StateSubmitted
	s.remaining = 0
	s.answers = prior.AnswerSet()
	s.submission = &prior
	_, s.results = Score(quiz.Questions, s.answers)
	return s
}

// newSession leaves the countdown stopped; tickEvery <= 0 disables the ticker
// goroutine entirely so tests can drive ticks by hand.
func newSession(quiz domain.Quiz, userID string, gateway SubmissionGateway, now func() time.Time, tickEvery time.Duration) *Session {
	return &Session{
		quiz:        quiz,
		userID:      userID,
		gateway:     gateway,
		now:         now,
		newID:       uuid.NewString,
		tickEvery:   tickEvery,
		autoCtx:     context.Background(),
		state:       StateInProgress,
		remaining:   quiz.DurationSeconds(),
		answers:     make(domain.AnswerSet),
		subscribers: make(map[chan Snapshot]struct{}),
	}
}

// Select records an answer for a question; last write wins. Only valid while
// in progress, and the option must belong to the question.
func (s *Session) Select(questionID int, optionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateInProgress {
		return domain.ErrNotInProgress
	}
	question, ok := s.findQuestion(questionID)
	if !ok {
		return domain.ErrQuestionNotFound
	}
	if !hasOption(question, optionID) {
		return domain.ErrOptionNotFound
	}
	s.answers[questionID] = optionID
	s.broadcastLocked()
	return nil
}

// Submit persists the attempt. It executes at most once per session: calls
// while a submission is already stored or in flight are no-ops. From the
// timed-out state it acts as a retry of a failed automatic submission and the
// submission keeps the timed-out tag. On gateway failure the state is
// unchanged and the call may be repeated.
func (s *Session) Submit(ctx context.Context) error {
	s.mu.Lock()
	if s.submission != nil || s.inFlight || s.state == StateSubmitted {
		s.mu.Unlock()
		return nil
	}
	timedOut := s.state == StateTimedOut
	sub, results := s.buildSubmissionLocked(timedOut)
	s.inFlight = true
	s.mu.Unlock()

	created, err := s.gateway.CreateSubmission(ctx, sub)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.inFlight = false
	if err != nil {
		s.lastErr = fmt.Sprintf("submit failed: %v", err)
		s.broadcastLocked()
		return fmt.Errorf("create submission: %w", err)
	}
	s.submission = &created
	s.results = results
	s.lastErr = ""
	if s.state == StateInProgress {
		s.state = StateSubmitted
		s.stopCountdownLocked()
	}
	s.broadcastLocked()
	return nil
}

// Retake deletes the stored submission and resets the attempt: answers
// cleared, countdown back to the full duration, state in progress. On gateway
// failure nothing is reset and the call may be repeated.
func (s *Session) Retake(ctx context.Context) error {
	s.mu.Lock()
	if s.inFlight {
		s.mu.Unlock()
		return nil
	}
	if s.submission == nil {
		s.mu.Unlock()
		return domain.ErrNotFinished
	}
	s.inFlight = true
	s.mu.Unlock()

	err := s.gateway.DeleteSubmission(ctx, s.quiz.ID, s.userID)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.inFlight = false
	if err != nil {
		s.lastErr = fmt.Sprintf("retake failed: %v", err)
		s.broadcastLocked()
		return fmt.Errorf("delete submission: %w", err)
	}
	s.submission = nil
	s.results = nil
	s.answers = make(domain.AnswerSet)
	s.remaining = s.quiz.DurationSeconds()
	s.state = StateInProgress
	s.lastErr = ""
	s.startCountdownLocked()
	s.broadcastLocked()
	return nil
}

// Quiz returns the session's quiz content.
func (s *Session) Quiz() domain.Quiz {
	return s.quiz
}

// SnapshotNow returns the current session snapshot.
func (s *Session) SnapshotNow() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Finished reports whether a submission is stored, i.e. the attempt is over
// and only a retake can restart it.
func (s *Session) Finished() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.submission != nil
}

// Subscribe returns a channel that receives a snapshot on every tick and
// state change, starting with the current one. The caller must invoke the
// returned cancel function to avoid leaks.
func (s *Session) Subscribe() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 8)

	s.mu.Lock()
	s.subscribers[ch] = struct{}{}
	initial := s.snapshotLocked()
	s.mu.Unlock()

	ch <- initial

	cancel := func() {
		s.mu.Lock()
		if _, ok := s.subscribers[ch]; ok {
			delete(s.subscribers, ch)
			close(ch)
		}
		s.mu.Unlock()
	}
	return ch, cancel
}

// Watchers returns the live subscriber count.
func (s *Session) Watchers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subscribers)
}

// Close stops the countdown and closes all subscriber channels. An
// in-progress session should not be closed while its countdown still matters.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.stopCountdownLocked()
	for ch := range s.subscribers {
		delete(s.subscribers, ch)
		close(ch)
	}
}

// tick advances the countdown by one second. Ticks are ignored outside the
// in-progress state and frozen while a submit is in flight, so a late timer
// fire can never race a manual submit into a duplicate gateway call. When the
// countdown reaches zero the session moves to timed_out and runs the same
// submit procedure as a manual submit, tagged as timeout-triggered.
func (s *Session) tick() {
	s.mu.Lock()
	if s.state != StateInProgress || s.inFlight || s.closed {
		s.mu.Unlock()
		return
	}
	if s.remaining > 0 {
		s.remaining--
	}
	if s.remaining > 0 {
		s.broadcastLocked()
		s.mu.Unlock()
		return
	}
	s.state = StateTimedOut
	s.stopCountdownLocked()
	s.broadcastLocked()
	s.mu.Unlock()

	// Auto-submit failure is surfaced on the snapshot; the user retries via Submit.
	_ = s.Submit(s.autoCtx)
}

func (s *Session) startCountdownLocked() {
	if s.tickEvery <= 0 {
		return
	}
	s.stopCountdownLocked()
	stop := make(chan struct{})
	s.stopTick = stop
	go func() {
		ticker := time.NewTicker(s.tickEvery)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.tick()
			case <-stop:
				return
			}
		}
	}()
}

func (s *Session) stopCountdownLocked() {
	if s.stopTick != nil {
		close(s.stopTick)
		s.stopTick = nil
	}
}

// buildSubmissionLocked scores all questions but sends only answered ones in
// the persisted payload.
func (s *Session) buildSubmissionLocked(timedOut bool) (domain.Submission, []domain.QuestionResult) {
	score, results := Score(s.quiz.Questions, s.answers)
	answered := make([]domain.SelectedAnswer, 0, len(s.answers))
	for _, q := range s.quiz.Questions {
		if optionID, ok := s.answers[q.ID]; ok {
			answered = append(answered, domain.SelectedAnswer{QuestionID: q.ID, OptionID: optionID})
		}
	}
	sub := domain.Submission{
		ID:          s.newID(),
		QuizID:      s.quiz.ID,
		CourseID:    s.quiz.CourseID,
		UserID:      s.userID,
		Answers:     answered,
		Score:       score,
		Total:       len(s.quiz.Questions),
		TimedOut:    timedOut,
		SubmittedAt: s.now(),
	}
	return sub, results
}

func (s *Session) snapshotLocked() Snapshot {
	snap := Snapshot{
		QuizID:    s.quiz.ID,
		UserID:    s.userID,
		State:     s.state,
		Remaining: s.remaining,
		Clock:     domain.FormatClock(s.remaining),
		Answers:   s.answers.Clone(),
		Err:       s.lastErr,
	}
	if s.submission != nil {
		view := PresentResult(*s.submission, s.results)
		snap.Result = &view
	}
	return snap
}

func (s *Session) broadcastLocked() {
	snap := s.snapshotLocked()
	for ch := range s.subscribers {
		select {
		case ch <- snap:
		default:
			// Drop the stale snapshot so a slow receiver never blocks the session.
			select {
			case <-ch:
			default:
			}
			ch <- snap
		}
	}
}

func (s *Session) findQuestion(questionID int) (domain.Question, bool) {
	for _, q := range s.quiz.Questions {
		if q.ID == questionID {
			return q, true
		}
	}
	return domain.Question{}, false
}

func hasOption(q domain.Question, optionID string) bool {
	for _, opt := range q.Options {
		if opt.ID == optionID {
			return true
		}
	}
	return false
}
