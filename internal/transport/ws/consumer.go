package ws

import (
	"log"

	"github.com/trutoman/Apalabrazos-sub000/internal/domain"
	"github.com/trutoman/Apalabrazos-sub000/internal/events"
	"github.com/trutoman/Apalabrazos-sub000/internal/registry"
)

// playerConsumer forwards a session's consumer-bus events to one player,
// filtering per-player variants by owner.
type playerConsumer struct {
	player *registry.Player
}

func newPlayerConsumer(p *registry.Player) *playerConsumer {
	return &playerConsumer{player: p}
}

type questionMessage struct {
	QuestionIndex int                   `json:"questionIndex"`
	Letter        string                `json:"letter"`
	Status        domain.QuestionStatus `json:"status"`
	Question      *domain.Question      `json:"question,omitempty"`
	Correct       int                   `json:"correct"`
	Incorrect     int                   `json:"incorrect"`
}

type answerResultMessage struct {
	QuestionIndex   int                   `json:"questionIndex"`
	Letter          string                `json:"letter"`
	Status          domain.QuestionStatus `json:"status"`
	CorrectResponse string                `json:"correctResponse"`
	Correct         int                   `json:"correct"`
	Incorrect       int                   `json:"incorrect"`
}

type tickMessage struct {
	Elapsed   int `json:"elapsed"`
	Remaining int `json:"remaining"`
}

type finishedMessage struct {
	Records map[string]domain.GameRecord `json:"records"`
}

func (c *playerConsumer) HandleEvent(ev events.Event) {
	switch e := ev.(type) {
	case events.QuestionChanged:
		if e.PlayerID != c.player.PlayerID() {
			return
		}
		c.player.SetState(domain.StatePlaying)
		c.deliver(outboundMessage[questionMessage]{Type: "question", Payload: questionMessage{
			QuestionIndex: e.QuestionIndex,
			Letter:        e.Letter,
			Status:        e.Status,
			Question:      e.Next,
			Correct:       e.Correct,
			Incorrect:     e.Incorrect,
		}})
	case events.AnswerValidated:
		if e.PlayerID != c.player.PlayerID() {
			return
		}
		c.deliver(outboundMessage[answerResultMessage]{Type: "answer", Payload: answerResultMessage{
			QuestionIndex:   e.QuestionIndex,
			Letter:          e.Letter,
			Status:          e.Status,
			CorrectResponse: e.CorrectResponse,
			Correct:         e.Correct,
			Incorrect:       e.Incorrect,
		}})
	case events.TimerTick:
		c.deliver(outboundMessage[tickMessage]{Type: "tick", Payload: tickMessage{
			Elapsed:   e.Elapsed,
			Remaining: e.Remaining,
		}})
	case events.GameFinished:
		c.player.SetState(domain.StateLobby)
		c.player.ClearMatch()
		c.deliver(outboundMessage[finishedMessage]{Type: "finished", Payload: finishedMessage{Records: e.Records}})
	}
}

func (c *playerConsumer) deliver(msg any) {
	if err := c.player.Send(msg); err != nil {
		log.Printf("ws: deliver to %s failed: %v", c.player.PlayerID(), err)
	}
}
