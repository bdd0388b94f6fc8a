package events

import (
	"time"

	"github.com/trutoman/Apalabrazos-sub000/internal/domain"
)

// Event is the closed set of notifications that flow through a Bus. Every
// variant lives in this package and embeds Base; consumers type-switch over
// the concrete types, so adding a variant forces a review of every switch.
type Event interface {
	OccurredAt() time.Time
	isEvent()
}

// Base carries the creation timestamp shared by all variants. Events are
// values and are never mutated after construction.
type Base struct {
	At time.Time
}

// Now stamps a new Base with the current time.
func Now() Base {
	return Base{At: time.Now()}
}

// OccurredAt returns the event creation time.
func (b Base) OccurredAt() time.Time { return b.At }

func (Base) isEvent() {}

// PlayerJoined announces that a player wants to enter a game session.
type PlayerJoined struct {
	Base
	GameID   string
	PlayerID string
}

// ControllerReady is one half of the start rendezvous: the presentation
// controller for the game is wired up and listening.
type ControllerReady struct {
	Base
	GameID   string
	PlayerID string
}

// StartRequested is the other half of the start rendezvous: a client asked
// for the game to begin and the request was validated.
type StartRequested struct {
	Base
	GameID   string
	PlayerID string
}

// AnswerSubmitted carries a player's option choice for their current
// question. SelectedOption may be the no-answer sentinel.
type AnswerSubmitted struct {
	Base
	GameID         string
	PlayerID       string
	QuestionIndex  int
	SelectedOption int
}

// AnswerValidated reports the outcome of scoring one submission.
type AnswerValidated struct {
	Base
	GameID          string
	PlayerID        string
	QuestionIndex   int
	Letter          string
	Status          domain.QuestionStatus
	CorrectResponse string
	Correct         int
	Incorrect       int
}

// QuestionChanged tells a player which question is now current. Next is nil
// when the list is exhausted.
type QuestionChanged struct {
	Base
	GameID        string
	PlayerID      string
	QuestionIndex int
	Letter        string
	Status        domain.QuestionStatus
	Next          *domain.Question
	Correct       int
	Incorrect     int
}

// TimerTick is published by the timer on every firing. Elapsed counts
// firings since the last (re)start; Remaining is filled in by the game
// orchestrator when it republishes the tick toward consumers.
type TimerTick struct {
	Base
	GameID    string
	Elapsed   int
	Remaining int
}

// GameFinished carries one record per player once a session reaches its
// terminal state.
type GameFinished struct {
	Base
	GameID  string
	Records map[string]domain.GameRecord
}

// SessionCreated confirms a game session was built, echoing the temporary
// room code the requesting client used.
type SessionCreated struct {
	Base
	RoomCode string
	GameID   string
}
