package registry_test

import (
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/trutoman/Apalabrazos-sub000/internal/domain"
	"github.com/trutoman/Apalabrazos-sub000/internal/registry"
)

// fakeSender records everything sent through it.
type fakeSender struct {
	mu     sync.Mutex
	sent   []any
	closed bool
	fail   error
}

func (f *fakeSender) Send(v any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return f.fail
	}
	f.sent = append(f.sent, v)
	return nil
}

func (f *fakeSender) IsOpen() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return !f.closed
}

func (f *fakeSender) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeSender) messages() []any {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]any, len(f.sent))
	copy(out, f.sent)
	return out
}

func TestOnConnectAssignsIdentityAndWelcomes(t *testing.T) {
	reg := registry.New()
	sender := &fakeSender{}

	p, err := reg.OnConnect(sender, "alice")
	if err != nil {
		t.Fatalf("connect failed: %v", err)
	}
	if p.State() != domain.StateLobby {
		t.Fatalf("fresh player in state %s, want LOBBY", p.State())
	}
	if !strings.HasPrefix(p.PlayerID(), "alice-") || len(p.PlayerID()) != len("alice-")+4 {
		t.Fatalf("unexpected player id %q", p.PlayerID())
	}
	if reg.Count() != 1 {
		t.Fatalf("count = %d, want 1", reg.Count())
	}
	if msgs := sender.messages(); len(msgs) != 1 {
		t.Fatalf("expected one welcome message, got %d", len(msgs))
	}
}

func TestRegisterRejectsDuplicateSession(t *testing.T) {
	reg := registry.New()
	p := registry.NewPlayer(uuid.New(), "bob", &fakeSender{})
	if err := reg.Register(p); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if err := reg.Register(p); !errors.Is(err, domain.ErrDuplicateSession) {
		t.Fatalf("expected ErrDuplicateSession, got %v", err)
	}
	if reg.Count() != 1 {
		t.Fatalf("count = %d, want 1", reg.Count())
	}
}

func TestUnregisterRemovesLookup(t *testing.T) {
	reg := registry.New()
	p, _ := reg.OnConnect(&fakeSender{}, "carol")

	got, err := reg.Unregister(p.SessionID())
	if err != nil || got != p {
		t.Fatalf("unregister returned %v, %v", got, err)
	}
	if _, ok := reg.Lookup(p.SessionID()); ok {
		t.Fatal("player still resolvable after unregister")
	}
	if _, err := reg.Unregister(p.SessionID()); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestBroadcastSurvivesFailingRecipient(t *testing.T) {
	reg := registry.New()
	bad := &fakeSender{fail: errors.New("pipe broken")}
	good := &fakeSender{}
	if _, err := reg.OnConnect(bad, "bad"); err != nil {
		t.Fatalf("connect failed: %v", err)
	}
	if _, err := reg.OnConnect(good, "good"); err != nil {
		t.Fatalf("connect failed: %v", err)
	}

	reg.Broadcast("hello")
	// welcome + broadcast
	if msgs := good.messages(); len(msgs) != 2 {
		t.Fatalf("healthy recipient got %d messages, want 2", len(msgs))
	}
}

func TestSendTo(t *testing.T) {
	reg := registry.New()
	sender := &fakeSender{}
	p, _ := reg.OnConnect(sender, "dave")

	if !reg.SendTo(p.SessionID(), "direct") {
		t.Fatal("send to known session reported failure")
	}
	if reg.SendTo(uuid.New(), "direct") {
		t.Fatal("send to unknown session reported success")
	}
}

func TestDisconnectParksAndQueues(t *testing.T) {
	reg := registry.New()
	sender := &fakeSender{}
	p, _ := reg.OnConnect(sender, "erin")

	reg.OnDisconnect(p.SessionID())
	if p.State() != domain.StateDisconnected {
		t.Fatalf("state = %s, want DISCONNECTED", p.State())
	}
	if reg.Count() != 0 {
		t.Fatalf("count = %d after disconnect, want 0", reg.Count())
	}

	// Queued while away, flushed in order on reconnect.
	_ = p.Send("first")
	_ = p.Send("second")

	fresh := &fakeSender{}
	back, err := reg.Reconnect(p.SessionID(), fresh)
	if err != nil {
		t.Fatalf("reconnect failed: %v", err)
	}
	if back != p {
		t.Fatal("reconnect returned a different identity")
	}
	msgs := fresh.messages()
	if len(msgs) != 2 || msgs[0] != "first" || msgs[1] != "second" {
		t.Fatalf("backlog not flushed FIFO: %v", msgs)
	}
	if reg.Count() != 1 {
		t.Fatalf("count = %d after reconnect, want 1", reg.Count())
	}
}

func TestSweepEvictsStaleParkedIdentities(t *testing.T) {
	reg := registry.New()
	stale, _ := reg.OnConnect(&fakeSender{}, "gone")
	fresh, _ := reg.OnConnect(&fakeSender{}, "back")

	reg.OnDisconnect(stale.SessionID())
	time.Sleep(time.Millisecond)
	halfway := time.Now()
	reg.OnDisconnect(fresh.SessionID())
	if reg.DetachedCount() != 2 {
		t.Fatalf("detached = %d, want 2", reg.DetachedCount())
	}

	reg.SweepDetached(halfway)
	if reg.DetachedCount() != 1 {
		t.Fatalf("detached = %d after sweep, want 1", reg.DetachedCount())
	}
	if _, err := reg.Reconnect(stale.SessionID(), &fakeSender{}); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("evicted identity still reconnects: %v", err)
	}
	if _, err := reg.Reconnect(fresh.SessionID(), &fakeSender{}); err != nil {
		t.Fatalf("recent identity lost to the sweep: %v", err)
	}
}

func TestReconnectUnknownSession(t *testing.T) {
	reg := registry.New()
	if _, err := reg.Reconnect(uuid.New(), &fakeSender{}); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestReconnectResumesOnlyLiveMatches(t *testing.T) {
	reg := registry.New()
	alive := map[string]bool{"live-game": true}
	reg.SetMatchProbe(func(gameID string) bool { return alive[gameID] })

	p, _ := reg.OnConnect(&fakeSender{}, "frank")
	p.SetMatch("live-game")
	reg.OnDisconnect(p.SessionID())

	if _, err := reg.Reconnect(p.SessionID(), &fakeSender{}); err != nil {
		t.Fatalf("reconnect failed: %v", err)
	}
	if p.State() != domain.StatePlaying || p.MatchID() != "live-game" {
		t.Fatalf("expected resumed match, got state %s match %q", p.State(), p.MatchID())
	}

	// The game ends while the player is away: back to the lobby.
	reg.OnDisconnect(p.SessionID())
	alive["live-game"] = false
	if _, err := reg.Reconnect(p.SessionID(), &fakeSender{}); err != nil {
		t.Fatalf("reconnect failed: %v", err)
	}
	if p.State() != domain.StateLobby || p.MatchID() != "" {
		t.Fatalf("expected lobby fallback, got state %s match %q", p.State(), p.MatchID())
	}
}

func TestOnMessageRoutesToHandler(t *testing.T) {
	reg := registry.New()
	var gotPlayer *registry.Player
	var gotPayload []byte
	reg.SetInboundHandler(func(p *registry.Player, payload []byte) {
		gotPlayer = p
		gotPayload = payload
	})

	p, _ := reg.OnConnect(&fakeSender{}, "gail")
	reg.OnMessage(p.SessionID(), []byte(`{"type":"ping"}`))
	if gotPlayer != p || string(gotPayload) != `{"type":"ping"}` {
		t.Fatalf("handler got %v %q", gotPlayer, gotPayload)
	}

	gotPlayer = nil
	reg.OnMessage(uuid.New(), []byte("x"))
	if gotPlayer != nil {
		t.Fatal("unknown session reached the handler")
	}
}
