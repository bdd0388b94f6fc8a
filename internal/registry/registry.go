// Package registry anchors network identities to game state. It owns the map
// from session id to Player and is the entry point for the transport's
// connect, message and disconnect callbacks.
package registry

import (
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/trutoman/Apalabrazos-sub000/internal/domain"
)

// detachedTTL bounds how long a disconnected identity (and its queued
// backlog) waits for a reconnect before it is dropped.
const detachedTTL = 10 * time.Minute

// InboundHandler consumes a raw payload received from an identified player.
type InboundHandler func(p *Player, payload []byte)

// MatchProbe reports whether a game session is still live, used to decide
// whether a reconnecting player resumes their match or returns to the lobby.
type MatchProbe func(gameID string) bool

type welcomeMessage struct {
	Type      string `json:"type"`
	SessionID string `json:"sessionId"`
	PlayerID  string `json:"playerId"`
	Message   string `json:"message"`
}

// Registry is the concurrent map of live connections plus a parking area for
// disconnected identities awaiting reconnect. A broadcast in progress sees
// either the pre- or the post-mutation membership, never a torn one.
type Registry struct {
	mu       sync.RWMutex
	players  map[uuid.UUID]*Player
	detached map[uuid.UUID]parkedPlayer
	handler  InboundHandler
	probe    MatchProbe
}

type parkedPlayer struct {
	player   *Player
	parkedAt time.Time
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{
		players:  make(map[uuid.UUID]*Player),
		detached: make(map[uuid.UUID]parkedPlayer),
	}
}

// SetInboundHandler installs the consumer of inbound payloads.
func (r *Registry) SetInboundHandler(h InboundHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handler = h
}

// SetMatchProbe installs the liveness check used on reconnect.
func (r *Registry) SetMatchProbe(p MatchProbe) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.probe = p
}

// Register adds a player under its session id. A duplicate id is rejected.
func (r *Registry) Register(p *Player) error {
	if p == nil {
		return domain.ErrSessionNotFound
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.players[p.SessionID()]; exists {
		return domain.ErrDuplicateSession
	}
	r.players[p.SessionID()] = p
	return nil
}

// Unregister removes and returns the player for the given session id.
func (r *Registry) Unregister(sessionID uuid.UUID) (*Player, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.players[sessionID]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	delete(r.players, sessionID)
	return p, nil
}

// Lookup returns the live player for a session id.
func (r *Registry) Lookup(sessionID uuid.UUID) (*Player, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.players[sessionID]
	return p, ok
}

// Count reports the number of live connections.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.players)
}

// Broadcast sends a message to every live player, best-effort: one failing
// recipient never aborts delivery to the rest.
func (r *Registry) Broadcast(msg any) {
	for _, p := range r.snapshot() {
		if err := p.Send(msg); err != nil {
			log.Printf("registry: broadcast to %s failed: %v", p.PlayerID(), err)
		}
	}
}

// SendTo delivers a message to one player, reporting whether the recipient
// was found and the send attempted.
func (r *Registry) SendTo(sessionID uuid.UUID, msg any) bool {
	p, ok := r.Lookup(sessionID)
	if !ok {
		return false
	}
	if err := p.Send(msg); err != nil {
		log.Printf("registry: send to %s failed: %v", p.PlayerID(), err)
	}
	return true
}

// OnConnect handles a fresh physical connection: it assigns a session id,
// builds the Player, registers it and attempts a welcome message. If
// registration fails the sender is closed and no identity is retained.
func (r *Registry) OnConnect(sender Sender, displayName string) (*Player, error) {
	sessionID := uuid.New()
	p := NewPlayer(sessionID, displayName, sender)
	if err := r.Register(p); err != nil {
		_ = sender.Close()
		return nil, err
	}
	welcome := welcomeMessage{
		Type:      "welcome",
		SessionID: sessionID.String(),
		PlayerID:  p.PlayerID(),
		Message:   "connection established",
	}
	if err := p.Send(welcome); err != nil {
		log.Printf("registry: welcome to %s failed: %v", p.PlayerID(), err)
	}
	log.Printf("registry: %s connected (session %s)", p.PlayerID(), sessionID)
	return p, nil
}

// OnMessage resolves the sender's identity and hands the payload to the
// inbound handler. Unknown session ids are logged and dropped.
func (r *Registry) OnMessage(sessionID uuid.UUID, payload []byte) {
	p, ok := r.Lookup(sessionID)
	if !ok {
		log.Printf("registry: message for unknown session %s dropped", sessionID)
		return
	}
	r.mu.RLock()
	h := r.handler
	r.mu.RUnlock()
	if h != nil {
		h(p, payload)
	}
}

// OnDisconnect removes the identity from the live map, marks it
// DISCONNECTED and parks it for a possible reconnect. Identities parked
// longer than detachedTTL are dropped while parking, so the detached map
// stays bounded under reconnect churn.
func (r *Registry) OnDisconnect(sessionID uuid.UUID) {
	p, err := r.Unregister(sessionID)
	if err != nil {
		log.Printf("registry: disconnect for unknown session %s", sessionID)
		return
	}
	p.Disconnect()
	now := time.Now()
	r.mu.Lock()
	r.detached[sessionID] = parkedPlayer{player: p, parkedAt: now}
	r.mu.Unlock()
	r.SweepDetached(now.Add(-detachedTTL))
	log.Printf("registry: %s disconnected (session %s)", p.PlayerID(), sessionID)
}

// SweepDetached drops every parked identity that disconnected before the
// cutoff, along with its queued backlog.
func (r *Registry) SweepDetached(cutoff time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, parked := range r.detached {
		if parked.parkedAt.Before(cutoff) {
			delete(r.detached, id)
			log.Printf("registry: %s evicted after waiting for reconnect (session %s)", parked.player.PlayerID(), id)
		}
	}
}

// DetachedCount reports how many identities are parked awaiting reconnect.
func (r *Registry) DetachedCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.detached)
}

// Reconnect rebinds a parked identity to a new sender. Queued messages are
// flushed first. The previous match is resumed only while its session is
// still live; otherwise the player returns to the lobby.
func (r *Registry) Reconnect(sessionID uuid.UUID, sender Sender) (*Player, error) {
	r.mu.Lock()
	parked, ok := r.detached[sessionID]
	if ok {
		delete(r.detached, sessionID)
	}
	probe := r.probe
	r.mu.Unlock()
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	p := parked.player

	state := domain.StateLobby
	if matchID := p.MatchID(); matchID != "" {
		if probe != nil && probe(matchID) {
			state = domain.StatePlaying
		} else {
			p.ClearMatch()
		}
	}
	p.Reconnect(sender, state)
	if err := r.Register(p); err != nil {
		_ = sender.Close()
		return nil, err
	}
	log.Printf("registry: %s reconnected (session %s, state %s)", p.PlayerID(), sessionID, state)
	return p, nil
}

func (r *Registry) snapshot() []*Player {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Player, 0, len(r.players))
	for _, p := range r.players {
		out = append(out, p)
	}
	return out
}
