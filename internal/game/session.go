package game

import (
	"sync"
	"time"

	"github.com/trutoman/Apalabrazos-sub000/internal/domain"
)

// Config holds the parameters of one game session.
type Config struct {
	Difficulty    domain.QuestionLevel
	MaxPlayers    int
	QuestionCount int
	Duration      int // seconds
	TickPeriod    time.Duration
}

// DefaultConfig mirrors the stock single-player setup: a four minute clock
// and one question per alphabet letter.
func DefaultConfig() Config {
	return Config{
		Difficulty:    domain.LevelEasy,
		MaxPlayers:    2,
		QuestionCount: domain.MaxQuestions,
		Duration:      240,
		TickPeriod:    time.Second,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.Difficulty == "" {
		c.Difficulty = d.Difficulty
	}
	if c.MaxPlayers <= 0 {
		c.MaxPlayers = d.MaxPlayers
	}
	if c.QuestionCount <= 0 || c.QuestionCount > domain.MaxQuestions {
		c.QuestionCount = d.QuestionCount
	}
	if c.Duration <= 0 {
		c.Duration = d.Duration
	}
	if c.TickPeriod <= 0 {
		c.TickPeriod = d.TickPeriod
	}
	return c
}

// Session is the session-wide state machine plus the per-player instances.
// Transitions serialize on one mutex scoped to the session, so two
// transitions on the same session never interleave.
type Session struct {
	mu        sync.Mutex
	state     State
	cfg       Config
	remaining int
	instances map[string]*Instance
}

// NewSession builds an idle session with normalized configuration.
func NewSession(cfg Config) *Session {
	cfg = cfg.withDefaults()
	return &Session{
		state:     StateIdle,
		cfg:       cfg,
		remaining: cfg.Duration,
		instances: make(map[string]*Instance),
	}
}

// Config returns the normalized session configuration.
func (s *Session) Config() Config {
	return s.cfg
}

// State returns the current session-wide state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// IsInitialized reports whether both start conditions have been met and the
// session has not advanced further.
func (s *Session) IsInitialized() bool {
	return s.State() == StateInitialized
}

// MarkControllerReady records the controller-ready half of the start
// rendezvous. It returns true when this signal completes the rendezvous.
// Repeating the signal while already satisfied is a no-op.
func (s *Session) MarkControllerReady() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.state {
	case StateIdle:
		s.state = StateControllerReady
	case StateStartValidated:
		s.state = StateInitialized
		return true
	}
	return false
}

// MarkStartValidated records the start-validated half of the rendezvous,
// symmetric to MarkControllerReady.
func (s *Session) MarkStartValidated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.state {
	case StateIdle:
		s.state = StateStartValidated
	case StateControllerReady:
		s.state = StateInitialized
		return true
	}
	return false
}

// AddPlayer validates a join and creates the player's instance: the id must
// be non-empty, unseen, and within capacity. Joins are only open while the
// session waits for its start rendezvous; once initialization begins the
// roster is fixed, so every instance gets questions loaded.
func (s *Session) AddPlayer(playerID string) (*Instance, error) {
	if playerID == "" {
		return nil, domain.ErrEmptyPlayerID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.state {
	case StateIdle, StateControllerReady, StateStartValidated:
	default:
		return nil, domain.ErrGameStarted
	}
	if _, exists := s.instances[playerID]; exists {
		return nil, domain.ErrDuplicatePlayer
	}
	if len(s.instances) >= s.cfg.MaxPlayers {
		return nil, domain.ErrGameFull
	}
	inst := NewInstance(s.cfg.Duration)
	s.instances[playerID] = inst
	return inst, nil
}

// Instance returns the per-player instance for a player id.
func (s *Session) Instance(playerID string) (*Instance, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	inst, ok := s.instances[playerID]
	return inst, ok
}

// Players lists the joined player ids.
func (s *Session) Players() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.instances))
	for id := range s.instances {
		out = append(out, id)
	}
	return out
}

// PlayerCount returns the number of joined players.
func (s *Session) PlayerCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.instances)
}

// BeginPlay moves an initialized session and every instance into PLAYING.
func (s *Session) BeginPlay() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateInitialized {
		return false
	}
	s.state = StatePlaying
	for _, inst := range s.instances {
		inst.Start()
	}
	return true
}

// Pause suspends a playing session and its instances.
func (s *Session) Pause() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StatePlaying {
		return false
	}
	s.state = StatePaused
	for _, inst := range s.instances {
		inst.Pause()
	}
	return true
}

// Resume continues a paused session and its instances.
func (s *Session) Resume() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StatePaused {
		return false
	}
	s.state = StatePlaying
	for _, inst := range s.instances {
		inst.Resume()
	}
	return true
}

// Tick consumes one second of session time while playing. It returns the
// remaining seconds and whether the clock just ran out.
func (s *Session) Tick() (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StatePlaying {
		return s.remaining, false
	}
	if s.remaining > 0 {
		s.remaining--
	}
	for _, inst := range s.instances {
		inst.TickDown()
	}
	return s.remaining, s.remaining == 0
}

// Remaining returns the seconds left on the session clock.
func (s *Session) Remaining() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.remaining
}

// AllFinished reports whether every joined instance reached FINISHED.
func (s *Session) AllFinished() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.instances) == 0 {
		return false
	}
	for _, inst := range s.instances {
		if inst.State() != InstanceFinished {
			return false
		}
	}
	return true
}

// Finish moves the session to POST, finishes every instance and collects
// the final per-player records. The second return is false when the session
// had already reached POST; a session in POST is never reused.
func (s *Session) Finish() (map[string]domain.GameRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	first := s.state != StatePost
	s.state = StatePost
	records := make(map[string]domain.GameRecord, len(s.instances))
	for id, inst := range s.instances {
		inst.Finish()
		records[id] = inst.Record()
	}
	return records, first
}
