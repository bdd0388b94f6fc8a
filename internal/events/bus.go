package events

import (
	"log"
	"sync"
)

// Listener receives every event published on a Bus it subscribes to.
// Listeners are compared by identity, so the same value subscribing twice
// still receives each event once.
type Listener interface {
	HandleEvent(Event)
}

// Bus is an asynchronous publish/subscribe hub. Delivery runs one goroutine
// per listener; a panicking listener is logged and isolated, and never stops
// delivery to the others or surfaces to the publisher.
//
// Subscribe and Unsubscribe are safe to call while publishes are in flight:
// every publish works on a snapshot of the listener set.
type Bus struct {
	mu        sync.RWMutex
	listeners []Listener
}

// NewBus returns an empty bus.
func NewBus() *Bus {
	return &Bus{}
}

// Subscribe registers a listener. Registering the same listener again is a
// no-op.
func (b *Bus) Subscribe(l Listener) {
	if l == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, existing := range b.listeners {
		if existing == l {
			return
		}
	}
	b.listeners = append(b.listeners, l)
}

// Unsubscribe removes a listener. Unknown listeners are ignored.
func (b *Bus) Unsubscribe(l Listener) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, existing := range b.listeners {
		if existing == l {
			b.listeners = append(b.listeners[:i], b.listeners[i+1:]...)
			return
		}
	}
}

// ListenerCount reports the current number of registered listeners.
func (b *Bus) ListenerCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.listeners)
}

// Publish delivers the event to every registered listener and returns
// without waiting for any of them to finish.
func (b *Bus) Publish(e Event) {
	b.dispatch(e)
}

// PublishWait delivers the event like Publish but blocks until every
// listener invocation has completed or failed.
func (b *Bus) PublishWait(e Event) {
	b.dispatch(e).Wait()
}

func (b *Bus) dispatch(e Event) *sync.WaitGroup {
	b.mu.RLock()
	snapshot := make([]Listener, len(b.listeners))
	copy(snapshot, b.listeners)
	b.mu.RUnlock()

	var wg sync.WaitGroup
	wg.Add(len(snapshot))
	for _, l := range snapshot {
		go func(l Listener) {
			defer wg.Done()
			deliver(l, e)
		}(l)
	}
	return &wg
}

func deliver(l Listener, e Event) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("events: listener %T failed handling %T: %v", l, e, r)
		}
	}()
	l.HandleEvent(e)
}

// ListenerFunc adapts a function to the Listener interface. Each call to
// ListenerFunc yields a distinct identity, so keep the returned value if you
// need to unsubscribe later.
type ListenerFunc struct {
	fn func(Event)
}

// NewListenerFunc wraps fn as a Listener.
func NewListenerFunc(fn func(Event)) *ListenerFunc {
	return &ListenerFunc{fn: fn}
}

// HandleEvent invokes the wrapped function.
func (l *ListenerFunc) HandleEvent(e Event) {
	l.fn(e)
}
