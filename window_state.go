package main

import (
	"errors"
	"fmt"
	"sync"
)

// ErrInvalidTransition is returned when a window phase change is not allowed.
var ErrInvalidTransition = errors.New("invalid window transition")

// WindowPhase is the lifecycle position of the main window.
type WindowPhase int

const (
	PhaseUninitialized WindowPhase = iota
	PhaseHiddenLoading
	PhaseVisible
	PhaseClosed
)

// String representation for logs and the frontend
func (p WindowPhase) String() string {
	switch p {
	case PhaseUninitialized:
		return "uninitialized"
	case PhaseHiddenLoading:
		return "hidden-loading"
	case PhaseVisible:
		return "visible"
	case PhaseClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// windowTransitions lists the allowed next phases. Closed is final: the
// window only closes when the app quits.
var windowTransitions = map[WindowPhase][]WindowPhase{
	PhaseUninitialized: {PhaseHiddenLoading},
	PhaseHiddenLoading: {PhaseVisible, PhaseClosed},
	PhaseVisible:       {PhaseClosed},
}

// windowState guards the current phase.
type windowState struct {
	mutex sync.RWMutex
	phase WindowPhase
}

// Phase returns the current phase.
func (s *windowState) Phase() WindowPhase {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.phase
}

// Transition moves to the given phase if the move is allowed.
func (s *windowState) Transition(to WindowPhase) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	for _, allowed := range windowTransitions[s.phase] {
		if allowed == to {
			s.phase = to
			return nil
		}
	}
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, s.phase, to)
}
