// Package status implements the listener status center: a single shared,
// lock-protected view of the capture/recognition state (idle, loading,
// ready, recognizing, …) consumed by UI surfaces and diagnostics.
//
// The center is an explicitly owned instance rather than package-level
// global state, so tests can construct independent centers and the host
// decides its lifetime. Readers always receive value snapshots — there is
// no aliasing into the center's internal state.
package status

import (
	"log/slog"
	"sync"
	"time"
)

// State enumerates the coarse lifecycle states of the voice listener.
type State int

const (
	StateUnknown State = iota
	StateInstalling
	StateLoading
	StateUnavailable
	StateReady
	StateRecognizing
)

// String returns the lowercase state name used in logs and the /readyz body.
func (s State) String() string {
	switch s {
	case StateInstalling:
		return "installing"
	case StateLoading:
		return "loading"
	case StateUnavailable:
		return "unavailable"
	case StateReady:
		return "ready"
	case StateRecognizing:
		return "recognizing"
	default:
		return "unknown"
	}
}

// Status is an immutable snapshot of the listener state.
type Status struct {
	State     State
	Message   string
	UpdatedAt time.Time
}

// Center holds the current listener status and fans updates out to
// subscribers. All methods are safe for concurrent use.
//
// The broadcast is synchronous and in-process: a slow subscriber blocks the
// publisher, so callbacks must not perform blocking work. A panicking
// subscriber is recovered and logged; it never prevents other subscribers
// from running or corrupts the center's state.
type Center struct {
	mu      sync.Mutex
	current Status
	subs    map[int]func(Status)
	nextID  int

	nowFunc func() time.Time
}

// NewCenter creates a Center in the Unknown state.
func NewCenter() *Center {
	c := &Center{
		subs:    make(map[int]func(Status)),
		nowFunc: time.Now,
	}
	c.current = Status{
		State:     StateUnknown,
		Message:   "listener status unknown",
		UpdatedAt: c.nowFunc(),
	}
	return c
}

// Current returns a snapshot of the latest published status.
func (c *Center) Current() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Publish replaces the current status and notifies all subscribers with the
// new snapshot. Exactly one current value exists per center at any time.
func (c *Center) Publish(state State, message string) {
	c.mu.Lock()
	c.current = Status{
		State:     state,
		Message:   message,
		UpdatedAt: c.nowFunc(),
	}
	snapshot := c.current
	fns := make([]func(Status), 0, len(c.subs))
	for _, fn := range c.subs {
		fns = append(fns, fn)
	}
	c.mu.Unlock()

	for _, fn := range fns {
		invoke(fn, snapshot)
	}
}

// Subscribe registers fn to be called on every Publish. The returned
// function removes the subscription; calling it more than once is harmless.
func (c *Center) Subscribe(fn func(Status)) (unsubscribe func()) {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.subs[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.subs, id)
		c.mu.Unlock()
	}
}

// invoke calls a subscriber, converting a panic into a log entry so one bad
// subscriber cannot break the publisher or its peers.
func invoke(fn func(Status), s Status) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("status center: subscriber panicked", "panic", r, "state", s.State)
		}
	}()
	fn(s)
}
