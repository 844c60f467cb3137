// Package action provides the minimal lifecycle shared by the scheduler and
// the suite runner: a status state machine plus a cooperative stop flag, so
// cancellation propagates the same way through both.
package action

import "sync"

// Status is the lifecycle state of an action.
type Status string

const (
	// StatusIdle is the initial state before Start.
	StatusIdle Status = "idle"

	// StatusRunning is set when the action's work begins.
	StatusRunning Status = "running"

	// StatusSuccess is the terminal state of a completed action. It means
	// the action itself finished; individual workloads may still have
	// failed.
	StatusSuccess Status = "success"

	// StatusStopped is the terminal state after a stop request took effect.
	StatusStopped Status = "stopped"

	// StatusFailed is the terminal state after an unrecoverable error in
	// the action itself.
	StatusFailed Status = "failed"
)

// Action is the stoppable side of a lifecycle with an observable status.
// Starting is left to the concrete type since start signatures differ.
type Action interface {
	// Stop requests a cooperative stop.
	Stop()

	// Status returns the current lifecycle state.
	Status() Status
}

// State is an embeddable implementation of the status machine. The zero
// value starts at StatusIdle.
type State struct {
	mu      sync.RWMutex
	status  Status
	stopped bool
}

// Status returns the current lifecycle state.
func (s *State) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.status == "" {
		return StatusIdle
	}
	return s.status
}

// SetStatus moves the state machine to the given status.
func (s *State) SetStatus(status Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = status
}

// Stop raises the stop flag. The running action observes it at its next
// workload boundary; in-flight work runs to completion.
func (s *State) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
}

// StopRequested reports whether Stop has been called.
func (s *State) StopRequested() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stopped
}
