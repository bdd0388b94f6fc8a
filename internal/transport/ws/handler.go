// Package ws bridges websocket clients to the connection registry, the
// session manager and the shared event bus.
package ws

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/trutoman/Apalabrazos-sub000/internal/domain"
	"github.com/trutoman/Apalabrazos-sub000/internal/events"
	"github.com/trutoman/Apalabrazos-sub000/internal/game"
	"github.com/trutoman/Apalabrazos-sub000/internal/registry"
	"github.com/trutoman/Apalabrazos-sub000/internal/session"
)

// Handler upgrades HTTP requests to websockets and routes the inbound
// message envelopes into bus events and manager calls.
type Handler struct {
	registry *registry.Registry
	manager  *session.Manager
	bus      *events.Bus
	defaults game.Config
	upgrader websocket.Upgrader

	mu        sync.Mutex
	consumers map[uuid.UUID]*consumerSub
}

type consumerSub struct {
	svc      *game.Service
	listener events.Listener
}

// NewHandler wires the handler as the registry's inbound consumer. defaults
// fills in whatever a create payload leaves out.
func NewHandler(reg *registry.Registry, manager *session.Manager, bus *events.Bus, defaults game.Config) *Handler {
	h := &Handler{
		registry: reg,
		manager:  manager,
		bus:      bus,
		defaults: defaults,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		consumers: make(map[uuid.UUID]*consumerSub),
	}
	reg.SetInboundHandler(h.route)
	return h
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

type createPayload struct {
	RoomCode      string `json:"roomCode"`
	Difficulty    string `json:"difficulty"`
	MaxPlayers    int    `json:"maxPlayers"`
	QuestionCount int    `json:"questionCount"`
	Duration      int    `json:"duration"`
}

type joinPayload struct {
	GameID string `json:"gameId"`
}

type answerPayload struct {
	QuestionIndex  int  `json:"questionIndex"`
	SelectedOption int  `json:"selectedOption"`
	Pass           bool `json:"pass"`
}

type createdPayload struct {
	GameID string `json:"gameId"`
}

type joinedPayload struct {
	GameID   string `json:"gameId"`
	PlayerID string `json:"playerId"`
}

// ServeWS accepts a websocket connection. A `session` query parameter with a
// previously issued id turns the connect into a reconnect.
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	displayName := r.URL.Query().Get("name")
	if displayName == "" {
		http.Error(w, "missing name", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws: upgrade failed: %v", err)
		return
	}
	sender := newConnSender(conn)

	var player *registry.Player
	if raw := r.URL.Query().Get("session"); raw != "" {
		sessionID, parseErr := uuid.Parse(raw)
		if parseErr != nil {
			_ = sender.Send(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: "invalid session id"}})
			_ = sender.Close()
			return
		}
		player, err = h.registry.Reconnect(sessionID, sender)
	} else {
		player, err = h.registry.OnConnect(sender, displayName)
	}
	if err != nil {
		_ = sender.Send(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		_ = sender.Close()
		return
	}

	// A reconnecting player that resumed a live match needs its consumer
	// subscription rebuilt on top of the fresh sender.
	if gameID := player.MatchID(); gameID != "" {
		if svc, ok := h.manager.Get(gameID); ok {
			h.attach(player, svc)
		}
	}

	defer func() {
		h.detach(player)
		h.registry.OnDisconnect(player.SessionID())
	}()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return
		}
		h.registry.OnMessage(player.SessionID(), raw)
	}
}

// route dispatches one inbound envelope for an identified player.
func (h *Handler) route(p *registry.Player, raw []byte) {
	var inbound inboundMessage
	if err := json.Unmarshal(raw, &inbound); err != nil {
		h.sendError(p, "invalid message envelope")
		return
	}

	switch inbound.Type {
	case "create":
		h.handleCreate(p, inbound.Payload)
	case "join":
		h.handleJoin(p, inbound.Payload)
	case "ready":
		h.publishForMatch(p, func(gameID string) events.Event {
			return events.ControllerReady{Base: events.Now(), GameID: gameID, PlayerID: p.PlayerID()}
		})
	case "start":
		h.publishForMatch(p, func(gameID string) events.Event {
			return events.StartRequested{Base: events.Now(), GameID: gameID, PlayerID: p.PlayerID()}
		})
	case "answer":
		h.handleAnswer(p, inbound.Payload)
	case "pause":
		h.togglePause(p, true)
	case "resume":
		h.togglePause(p, false)
	default:
		h.sendError(p, "unsupported message type")
	}
}

func (h *Handler) handleCreate(p *registry.Player, raw json.RawMessage) {
	var payload createPayload
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &payload); err != nil {
			h.sendError(p, "invalid create payload")
			return
		}
	}
	cfg := h.defaults
	if payload.Difficulty != "" {
		cfg.Difficulty = domain.QuestionLevel(payload.Difficulty)
	}
	if payload.MaxPlayers > 0 {
		cfg.MaxPlayers = payload.MaxPlayers
	}
	if payload.QuestionCount > 0 {
		cfg.QuestionCount = payload.QuestionCount
	}
	if payload.Duration > 0 {
		cfg.Duration = payload.Duration
	}
	svc, err := h.manager.Create(payload.RoomCode, cfg)
	if err != nil {
		h.sendError(p, err.Error())
		return
	}
	if err := h.joinGame(p, svc); err != nil {
		h.sendError(p, err.Error())
		return
	}
	h.send(p, outboundMessage[createdPayload]{Type: "created", Payload: createdPayload{GameID: svc.ID()}})
}

func (h *Handler) handleJoin(p *registry.Player, raw json.RawMessage) {
	var payload joinPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		h.sendError(p, "invalid join payload")
		return
	}
	svc, err := h.manager.Lookup(payload.GameID)
	if err != nil {
		h.sendError(p, err.Error())
		return
	}
	if err := h.joinGame(p, svc); err != nil {
		h.sendError(p, err.Error())
		return
	}
	h.send(p, outboundMessage[joinedPayload]{Type: "joined", Payload: joinedPayload{GameID: svc.ID(), PlayerID: p.PlayerID()}})
}

// joinGame validates the join synchronously, then binds the player to the
// session and subscribes them to its consumer bus.
func (h *Handler) joinGame(p *registry.Player, svc *game.Service) error {
	if err := svc.Join(p.PlayerID()); err != nil {
		return err
	}
	p.SetMatch(svc.ID())
	p.SetState(domain.StateMatchmaking)
	h.attach(p, svc)
	h.bus.Publish(events.PlayerJoined{Base: events.Now(), GameID: svc.ID(), PlayerID: p.PlayerID()})
	return nil
}

func (h *Handler) handleAnswer(p *registry.Player, raw json.RawMessage) {
	var payload answerPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		h.sendError(p, "invalid answer payload")
		return
	}
	selected := payload.SelectedOption
	if payload.Pass {
		selected = game.NoAnswer
	}
	h.publishForMatch(p, func(gameID string) events.Event {
		return events.AnswerSubmitted{
			Base:           events.Now(),
			GameID:         gameID,
			PlayerID:       p.PlayerID(),
			QuestionIndex:  payload.QuestionIndex,
			SelectedOption: selected,
		}
	})
}

func (h *Handler) togglePause(p *registry.Player, pause bool) {
	gameID := p.MatchID()
	if gameID == "" {
		h.sendError(p, "not in a game")
		return
	}
	svc, ok := h.manager.Get(gameID)
	if !ok {
		h.sendError(p, domain.ErrGameNotFound.Error())
		return
	}
	if pause {
		svc.Pause()
	} else {
		svc.Resume()
	}
}

func (h *Handler) publishForMatch(p *registry.Player, build func(gameID string) events.Event) {
	gameID := p.MatchID()
	if gameID == "" {
		h.sendError(p, "not in a game")
		return
	}
	h.bus.Publish(build(gameID))
}

// attach subscribes the player to the session's consumer bus, replacing any
// previous subscription.
func (h *Handler) attach(p *registry.Player, svc *game.Service) {
	listener := newPlayerConsumer(p)
	h.mu.Lock()
	if prev, ok := h.consumers[p.SessionID()]; ok {
		prev.svc.Consumers().Unsubscribe(prev.listener)
	}
	h.consumers[p.SessionID()] = &consumerSub{svc: svc, listener: listener}
	h.mu.Unlock()
	svc.Consumers().Subscribe(listener)
}

func (h *Handler) detach(p *registry.Player) {
	h.mu.Lock()
	sub, ok := h.consumers[p.SessionID()]
	if ok {
		delete(h.consumers, p.SessionID())
	}
	h.mu.Unlock()
	if ok {
		sub.svc.Consumers().Unsubscribe(sub.listener)
	}
}

func (h *Handler) send(p *registry.Player, msg any) {
	if err := p.Send(msg); err != nil {
		log.Printf("ws: send to %s failed: %v", p.PlayerID(), err)
	}
}

func (h *Handler) sendError(p *registry.Player, message string) {
	h.send(p, outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: message}})
}
