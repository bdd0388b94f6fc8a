// Package game holds the two-level game state machine and the orchestrator
// that drives it from bus events.
package game

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/trutoman/Apalabrazos-sub000/internal/domain"
	"github.com/trutoman/Apalabrazos-sub000/internal/events"
	"github.com/trutoman/Apalabrazos-sub000/internal/timer"
)

const loadTimeout = 10 * time.Second

// QuestionSource supplies ordered question content for one player.
// Implementations fail with domain.ErrInsufficientContent when fewer than
// count questions are available.
type QuestionSource interface {
	LoadQuestions(ctx context.Context, level domain.QuestionLevel, count int) ([]domain.Question, error)
}

// Service orchestrates one game session. It subscribes itself to the shared
// bus for cross-session signals, owns a private bus for consumers such as
// the presentation layer, and owns the timer that drives the countdown.
//
// Events that carry a different game id are ignored; everything for this
// session funnels through the session's own lock, which provides the causal
// order the bus deliberately does not.
type Service struct {
	id      string
	session *Session
	shared  *events.Bus
	private *events.Bus
	clock   *timer.Service
	source  QuestionSource
}

// NewService builds an orchestrator, wires its timer onto the shared bus and
// subscribes it for events.
func NewService(cfg Config, shared *events.Bus, source QuestionSource) (*Service, error) {
	if shared == nil || source == nil {
		return nil, domain.ErrSessionCreateFailed
	}
	s := &Service{
		id:      uuid.NewString(),
		session: NewSession(cfg),
		shared:  shared,
		private: events.NewBus(),
		source:  source,
	}
	s.clock = timer.New(shared, s.session.Config().TickPeriod, s.id)
	shared.Subscribe(s)
	return s, nil
}

// ID returns the generated game session id.
func (s *Service) ID() string { return s.id }

// Session exposes the underlying state machine for diagnostics and tests.
func (s *Service) Session() *Session { return s.session }

// Consumers is the private bus; presentation listeners subscribe here for
// question-changed, timer-tick and game-finished events.
func (s *Service) Consumers() *events.Bus { return s.private }

// Join validates and registers a player synchronously.
func (s *Service) Join(playerID string) error {
	_, err := s.session.AddPlayer(playerID)
	return err
}

// HandleEvent dispatches shared-bus events addressed to this session.
func (s *Service) HandleEvent(e events.Event) {
	switch ev := e.(type) {
	case events.PlayerJoined:
		if ev.GameID != s.id {
			return
		}
		// The transport joins synchronously before announcing, so seeing the
		// player again here is the normal case.
		if err := s.Join(ev.PlayerID); err != nil && !errors.Is(err, domain.ErrDuplicatePlayer) {
			log.Printf("game[%s]: join %q rejected: %v", s.id, ev.PlayerID, err)
		}
	case events.ControllerReady:
		if ev.GameID != s.id {
			return
		}
		if s.session.MarkControllerReady() {
			s.initialize()
		}
	case events.StartRequested:
		if ev.GameID != s.id {
			return
		}
		if s.session.MarkStartValidated() {
			s.initialize()
		}
	case events.AnswerSubmitted:
		if ev.GameID != s.id {
			return
		}
		s.handleAnswer(ev)
	case events.TimerTick:
		if ev.GameID != s.id {
			return
		}
		s.handleTick(ev)
	case events.AnswerValidated, events.QuestionChanged, events.GameFinished, events.SessionCreated:
		// Produced, never consumed, by this orchestrator.
	}
}

// initialize loads questions for every joined player, starts the clock and
// publishes each player's first question.
func (s *Service) initialize() {
	ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
	defer cancel()

	cfg := s.session.Config()
	for _, playerID := range s.session.Players() {
		qs, err := s.source.LoadQuestions(ctx, cfg.Difficulty, cfg.QuestionCount)
		if err != nil {
			log.Printf("game[%s]: loading questions for %s failed: %v", s.id, playerID, err)
			return
		}
		inst, ok := s.session.Instance(playerID)
		if !ok {
			continue
		}
		if err := inst.SetQuestions(qs); err != nil {
			log.Printf("game[%s]: installing questions for %s failed: %v", s.id, playerID, err)
			return
		}
	}

	if !s.session.BeginPlay() {
		return
	}
	s.clock.Start()
	log.Printf("game[%s]: playing with %d players", s.id, s.session.PlayerCount())

	for _, playerID := range s.session.Players() {
		inst, ok := s.session.Instance(playerID)
		if !ok {
			continue
		}
		first, ok := inst.Current()
		if !ok {
			continue
		}
		letter, err := domain.Letter(inst.CurrentIndex())
		if err != nil {
			continue
		}
		s.private.Publish(events.QuestionChanged{
			Base:          events.Now(),
			GameID:        s.id,
			PlayerID:      playerID,
			QuestionIndex: inst.CurrentIndex(),
			Letter:        letter,
			Status:        domain.StatusInit,
			Next:          &first,
		})
	}
}

func (s *Service) handleTick(ev events.TimerTick) {
	remaining, exhausted := s.session.Tick()
	s.private.Publish(events.TimerTick{
		Base:      events.Now(),
		GameID:    s.id,
		Elapsed:   ev.Elapsed,
		Remaining: remaining,
	})
	if exhausted {
		s.finalize()
	}
}

func (s *Service) handleAnswer(ev events.AnswerSubmitted) {
	inst, ok := s.session.Instance(ev.PlayerID)
	if !ok {
		log.Printf("game[%s]: answer from %q dropped: %v", s.id, ev.PlayerID, domain.ErrPlayerNotFound)
		return
	}
	outcome, err := inst.Apply(ev.SelectedOption)
	if err != nil {
		log.Printf("game[%s]: answer from %s rejected: %v", s.id, ev.PlayerID, err)
		return
	}

	s.private.Publish(events.AnswerValidated{
		Base:            events.Now(),
		GameID:          s.id,
		PlayerID:        ev.PlayerID,
		QuestionIndex:   outcome.QuestionIndex,
		Letter:          outcome.Letter,
		Status:          outcome.Status,
		CorrectResponse: outcome.CorrectResponse,
		Correct:         outcome.Correct,
		Incorrect:       outcome.Incorrect,
	})

	changed := events.QuestionChanged{
		Base:          events.Now(),
		GameID:        s.id,
		PlayerID:      ev.PlayerID,
		QuestionIndex: outcome.QuestionIndex,
		Letter:        outcome.Letter,
		Status:        outcome.Status,
		Next:          outcome.Next,
		Correct:       outcome.Correct,
		Incorrect:     outcome.Incorrect,
	}
	s.private.Publish(changed)

	if outcome.Next == nil {
		inst.Finish()
		if s.session.AllFinished() {
			s.finalize()
		}
	}
}

// finalize stops the clock, computes the final records and publishes the
// finished event to consumers and to the shared bus. The session state
// machine guards against running the terminal publish twice.
func (s *Service) finalize() {
	s.clock.Stop()
	records, first := s.session.Finish()
	if !first {
		return
	}
	finished := events.GameFinished{Base: events.Now(), GameID: s.id, Records: records}
	s.private.Publish(finished)
	s.shared.Publish(finished)
	log.Printf("game[%s]: finished, %d records", s.id, len(records))
}

// Pause suspends the running session.
func (s *Service) Pause() bool { return s.session.Pause() }

// Resume continues a paused session.
func (s *Service) Resume() bool { return s.session.Resume() }

// Close detaches the orchestrator from the shared bus and releases the
// timer. Safe to call more than once.
func (s *Service) Close() {
	s.clock.Shutdown()
	s.shared.Unsubscribe(s)
}
