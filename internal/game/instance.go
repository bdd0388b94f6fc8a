package game

import (
	"fmt"
	"sync"

	"github.com/trutoman/Apalabrazos-sub000/internal/domain"
)

// NoAnswer is the sentinel option index meaning the player passed on the
// question instead of choosing an option.
const NoAnswer = -1

// AnswerOutcome summarizes one processed submission. Next is nil when the
// question list is exhausted, which tells the caller to finalize.
type AnswerOutcome struct {
	QuestionIndex   int
	Letter          string
	Status          domain.QuestionStatus
	CorrectResponse string
	Next            *domain.Question
	Correct         int
	Incorrect       int
	Passed          int
}

// Instance is one player's progress inside a session: their question list,
// current index, running totals and remaining time. The current index only
// ever advances. All methods serialize on an internal mutex.
type Instance struct {
	mu        sync.Mutex
	state     InstanceState
	questions []domain.Question
	current   int
	duration  int
	remaining int
	correct   int
	incorrect int
	passed    int
}

// NewInstance builds a pending instance with the full session duration
// remaining.
func NewInstance(duration int) *Instance {
	return &Instance{
		state:     InstancePending,
		duration:  duration,
		remaining: duration,
	}
}

// SetQuestions installs the ordered question list. Only allowed while the
// instance is pending, and the list is capped at the alphabet length.
func (i *Instance) SetQuestions(qs []domain.Question) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.state != InstancePending {
		return fmt.Errorf("cannot load questions in state %s", i.state)
	}
	if len(qs) > domain.MaxQuestions {
		return fmt.Errorf("%w: %d questions exceed the %d cap", domain.ErrInvalidQuestion, len(qs), domain.MaxQuestions)
	}
	i.questions = make([]domain.Question, len(qs))
	for idx, q := range qs {
		i.questions[idx] = q.Clone()
	}
	return nil
}

// Start moves a pending instance to playing.
func (i *Instance) Start() {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.state == InstancePending {
		i.state = InstancePlaying
	}
}

// Pause suspends a playing instance.
func (i *Instance) Pause() {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.state == InstancePlaying {
		i.state = InstancePaused
	}
}

// Resume continues a paused instance.
func (i *Instance) Resume() {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.state == InstancePaused {
		i.state = InstancePlaying
	}
}

// Finish moves the instance to its terminal state.
func (i *Instance) Finish() {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.state = InstanceFinished
}

// State returns the current instance state.
func (i *Instance) State() InstanceState {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.state
}

// CurrentIndex returns the index of the question awaiting an answer.
func (i *Instance) CurrentIndex() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.current
}

// Current returns the question awaiting an answer, if any.
func (i *Instance) Current() (domain.Question, bool) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.current >= len(i.questions) {
		return domain.Question{}, false
	}
	return i.questions[i.current].Clone(), true
}

// Remaining returns the seconds left on this instance's clock.
func (i *Instance) Remaining() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.remaining
}

// TickDown consumes one second while playing and returns the new remaining
// value. Paused and finished instances do not lose time.
func (i *Instance) TickDown() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.state == InstancePlaying && i.remaining > 0 {
		i.remaining--
	}
	return i.remaining
}

// Apply processes a submitted option index against the current question:
// the NoAnswer sentinel passes it, a matching index scores responded_ok and
// anything else responded_fail. The current index then advances.
func (i *Instance) Apply(selected int) (AnswerOutcome, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.state != InstancePlaying {
		return AnswerOutcome{}, fmt.Errorf("instance is %s, not PLAYING", i.state)
	}
	if i.current >= len(i.questions) {
		return AnswerOutcome{}, domain.ErrNoActiveQuestion
	}
	q := &i.questions[i.current]
	if q.Status != domain.StatusInit {
		return AnswerOutcome{}, domain.ErrQuestionAnswered
	}

	switch {
	case selected == NoAnswer:
		q.Status = domain.StatusPassed
		i.passed++
	case q.IsCorrectIndex(selected):
		q.Status = domain.StatusRespondedOK
		i.correct++
	default:
		q.Status = domain.StatusRespondedFail
		i.incorrect++
	}

	letter, err := domain.Letter(i.current)
	if err != nil {
		return AnswerOutcome{}, err
	}
	outcome := AnswerOutcome{
		QuestionIndex:   i.current,
		Letter:          letter,
		Status:          q.Status,
		CorrectResponse: q.CorrectResponse(),
		Correct:         i.correct,
		Incorrect:       i.incorrect,
		Passed:          i.passed,
	}

	i.current++
	if i.current < len(i.questions) {
		next := i.questions[i.current].Clone()
		outcome.Next = &next
	}
	return outcome, nil
}

// Record snapshots the instance as a final per-player result.
func (i *Instance) Record() domain.GameRecord {
	i.mu.Lock()
	defer i.mu.Unlock()
	return domain.GameRecord{
		Correct:   i.correct,
		Incorrect: i.incorrect,
		Passed:    i.passed,
		TotalTime: i.duration - i.remaining,
	}
}
