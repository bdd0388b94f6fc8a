package registry

import (
	"log"
	"math/rand"
	"sync"

	"github.com/google/uuid"

	"github.com/trutoman/Apalabrazos-sub000/internal/domain"
)

const playerIDSuffixLen = 4

const alnum = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// Player anchors one connected user: a stable session id, a display name, a
// derived player id, the logical state, and exclusive ownership of the
// outbound channel. It lives from connect to disconnect and bridges the
// network with the game logic.
//
// All state-changing methods serialize internally, so concurrent diagnostic
// reads need no external locking.
type Player struct {
	sessionID uuid.UUID
	name      string
	playerID  string

	mu      sync.Mutex
	state   domain.PlayerState
	matchID string
	sender  Sender
	backlog []any
}

// NewPlayer builds a player in the LOBBY state bound to the given sender.
func NewPlayer(sessionID uuid.UUID, name string, sender Sender) *Player {
	return &Player{
		sessionID: sessionID,
		name:      name,
		playerID:  generatePlayerID(name),
		state:     domain.StateLobby,
		sender:    sender,
	}
}

// SessionID returns the stable connection-scoped identifier.
func (p *Player) SessionID() uuid.UUID { return p.sessionID }

// Name returns the display name.
func (p *Player) Name() string { return p.name }

// PlayerID returns the derived game-level id, name-XXXX.
func (p *Player) PlayerID() string { return p.playerID }

// State returns the current logical state.
func (p *Player) State() domain.PlayerState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// SetState moves the player to the given logical state.
func (p *Player) SetState(state domain.PlayerState) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.state = state
}

// MatchID returns the id of the game session the player is attached to, or
// the empty string.
func (p *Player) MatchID() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.matchID
}

// SetMatch attaches the player to a game session.
func (p *Player) SetMatch(gameID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.matchID = gameID
}

// ClearMatch detaches the player from any game session.
func (p *Player) ClearMatch() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.matchID = ""
}

// InMatch reports whether the player is attached to a game and playing.
func (p *Player) InMatch() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.matchID != "" && p.state == domain.StatePlaying
}

// Send delivers a message through the player's channel. While the player is
// disconnected the message is queued and flushed, in order, on reconnect.
func (p *Player) Send(v any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state == domain.StateDisconnected || p.sender == nil {
		p.backlog = append(p.backlog, v)
		return nil
	}
	return p.sender.Send(v)
}

// Connected reports whether messages can currently reach the client.
func (p *Player) Connected() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.sender != nil && p.sender.IsOpen() && p.state != domain.StateDisconnected
}

// Disconnect marks the player disconnected and closes the sender. The
// identity itself survives for a possible reconnect.
func (p *Player) Disconnect() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.state = domain.StateDisconnected
	if p.sender != nil {
		_ = p.sender.Close()
	}
}

// Reconnect swaps in a fresh sender, restores the given logical state and
// flushes any backlog in FIFO order before new sends are accepted.
func (p *Player) Reconnect(sender Sender, state domain.PlayerState) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.sender != nil {
		_ = p.sender.Close()
	}
	p.sender = sender
	p.state = state
	for _, msg := range p.backlog {
		if err := sender.Send(msg); err != nil {
			log.Printf("registry: flush to %s failed: %v", p.playerID, err)
		}
	}
	p.backlog = nil
}

func generatePlayerID(name string) string {
	if name == "" {
		name = "player"
	}
	suffix := make([]byte, playerIDSuffixLen)
	for i := range suffix {
		suffix[i] = alnum[rand.Intn(len(alnum))]
	}
	return name + "-" + string(suffix)
}
