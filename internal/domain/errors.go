package domain

import "errors"

var (
	// ErrInvalidQuestion wraps every structural validation failure of a Question.
	ErrInvalidQuestion = errors.New("invalid question")
	// ErrInsufficientContent is returned when a question source cannot supply
	// the requested number of questions.
	ErrInsufficientContent = errors.New("insufficient question content")
	// ErrDuplicateSession is returned when a session id is already registered.
	ErrDuplicateSession = errors.New("session id already registered")
	// ErrSessionNotFound is returned for lookups of unknown session ids.
	ErrSessionNotFound = errors.New("session not found")
	// ErrGameNotFound indicates the referenced game session does not exist.
	ErrGameNotFound = errors.New("game session not found")
	// ErrEmptyPlayerID rejects joins without a player id.
	ErrEmptyPlayerID = errors.New("player id is empty")
	// ErrDuplicatePlayer rejects a second join with the same player id.
	ErrDuplicatePlayer = errors.New("player already joined")
	// ErrGameFull rejects joins beyond the configured capacity.
	ErrGameFull = errors.New("game capacity exceeded")
	// ErrGameStarted rejects joins once a session has initialized.
	ErrGameStarted = errors.New("game already started")
	// ErrPlayerNotFound indicates an answer or action from a player the game
	// does not know.
	ErrPlayerNotFound = errors.New("player not found in game")
	// ErrNoActiveQuestion indicates an answer arrived after the last question
	// was consumed.
	ErrNoActiveQuestion = errors.New("no active question")
	// ErrQuestionAnswered indicates an attempt to move a question status
	// backward; statuses only advance away from init.
	ErrQuestionAnswered = errors.New("question already answered")
	// ErrSessionCreateFailed indicates a game orchestrator could not be built.
	ErrSessionCreateFailed = errors.New("session creation failed")
)
