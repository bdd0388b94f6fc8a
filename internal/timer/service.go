// Package timer publishes periodic tick events onto an event bus. The
// countdown of a running game is driven entirely by these ticks.
package timer

import (
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/trutoman/Apalabrazos-sub000/internal/events"
)

// shutdownGrace bounds how long Shutdown waits for an in-flight firing.
const shutdownGrace = 2 * time.Second

// Service fires at a fixed period and publishes a TimerTick per firing,
// fire-and-forget. The first firing happens immediately on Start. Scheduling
// uses time.Ticker, so idle periods cost nothing and ticks do not drift with
// listener latency.
type Service struct {
	bus    *events.Bus
	period time.Duration
	tag    string

	elapsed atomic.Int64

	mu      sync.Mutex
	running bool
	stop    chan struct{}
	done    chan struct{}
}

// New builds a stopped timer. tag is stamped on every tick so consumers
// sharing a bus can tell timers apart; period defaults to one second.
func New(bus *events.Bus, period time.Duration, tag string) *Service {
	if period <= 0 {
		period = time.Second
	}
	return &Service{bus: bus, period: period, tag: tag}
}

// Start resets the elapsed counter to zero and begins firing. Calling Start
// while already running is a no-op.
func (s *Service) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		log.Printf("timer[%s]: already running, start ignored", s.tag)
		return
	}
	s.running = true
	s.elapsed.Store(0)
	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	go s.run(s.stop, s.done)
}

func (s *Service) run(stop, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(s.period)
	defer ticker.Stop()
	for {
		s.fire()
		select {
		case <-ticker.C:
		case <-stop:
			return
		}
	}
}

func (s *Service) fire() {
	n := s.elapsed.Add(1)
	s.bus.Publish(events.TimerTick{Base: events.Now(), GameID: s.tag, Elapsed: int(n)})
}

// Stop cancels the schedule. An in-flight firing is allowed to complete.
// Stopping a stopped timer is a no-op.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
}

func (s *Service) stopLocked() {
	if !s.running {
		return
	}
	s.running = false
	close(s.stop)
}

// Reset zeroes the elapsed counter without touching the schedule.
func (s *Service) Reset() {
	s.elapsed.Store(0)
}

// Elapsed returns the number of firings since the last (re)start.
func (s *Service) Elapsed() int {
	return int(s.elapsed.Load())
}

// Running reports whether the timer is currently scheduled.
func (s *Service) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Shutdown stops the timer and waits, bounded, for the worker goroutine to
// drain. Safe to call more than once.
func (s *Service) Shutdown() {
	s.mu.Lock()
	done := s.done
	s.stopLocked()
	s.mu.Unlock()

	if done == nil {
		return
	}
	select {
	case <-done:
	case <-time.After(shutdownGrace):
		log.Printf("timer[%s]: shutdown grace period elapsed, abandoning in-flight tick", s.tag)
	}
}
