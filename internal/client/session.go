package client

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// State is the lifecycle stage of a single user action.
type State int

const (
	StateIdle State = iota
	StatePending
	StateSucceeded
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePending:
		return "pending"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

var (
	// ErrBusy is returned when an action starts while another is pending.
	ErrBusy = errors.New("another request is in progress")
	// ErrInvalidTransition is returned for transitions outside
	// Idle -> Pending -> {Succeeded, Failed} -> Idle.
	ErrInvalidTransition = errors.New("invalid state transition")
)

// Observer is told about every state change.
type Observer func(from, to State)

// Session allows at most one outstanding call per action.
type Session struct {
	mu        sync.Mutex
	state     State
	observers []Observer
}

func NewSession() *Session {
	return &Session{}
}

// Observe registers fn for state changes.
func (s *Session) Observe(fn Observer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, fn)
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Begin moves Idle to Pending. It returns ErrBusy while a call is pending.
func (s *Session) Begin() error {
	return s.transition(StatePending)
}

// Finish moves Pending to Succeeded or Failed.
func (s *Session) Finish(ok bool) error {
	if ok {
		return s.transition(StateSucceeded)
	}
	return s.transition(StateFailed)
}

// Reset moves a finished session back to Idle.
func (s *Session) Reset() error {
	return s.transition(StateIdle)
}

// Do runs fn through a full Begin, Finish, Reset cycle.
func (s *Session) Do(ctx context.Context, fn func(context.Context) error) error {
	if err := s.Begin(); err != nil {
		return err
	}

	finished := false
	defer func() {
		if finished {
			return
		}
		// fn panicked or exited the goroutine: fail the action and return
		// to Idle, then let the panic continue.
		r := recover()
		_ = s.Finish(false)
		_ = s.Reset()
		if r != nil {
			panic(r)
		}
	}()

	err := fn(ctx)
	finished = true
	if ferr := s.Finish(err == nil); ferr != nil {
		return ferr
	}
	if rerr := s.Reset(); rerr != nil {
		return rerr
	}
	return err
}

func (s *Session) transition(to State) error {
	s.mu.Lock()
	from := s.state
	if !allowed(from, to) {
		s.mu.Unlock()
		if from == StatePending && to == StatePending {
			return ErrBusy
		}
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	s.state = to
	observers := append([]Observer(nil), s.observers...)
	s.mu.Unlock()

	for _, fn := range observers {
		fn(from, to)
	}
	return nil
}

func allowed(from, to State) bool {
	switch from {
	case StateIdle:
		return to == StatePending
	case StatePending:
		return to == StateSucceeded || to == StateFailed
	case StateSucceeded, StateFailed:
		return to == StateIdle
	default:
		return false
	}
}
