// Package notifier delivers structured status-change events to interested
// sinks. Delivery is fire and forget: a sink failure is logged and never
// affects the run.
package notifier

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// MessageTypeTestResult identifies test result status-change events.
const MessageTypeTestResult = "TestResult"

// Message is one status-change event.
type Message struct {
	// Type discriminates the event kind, e.g. MessageTypeTestResult.
	Type string

	// Name is the full name of the subject, e.g. a case full name.
	Name string

	// Status is the new status value.
	Status string

	// Message carries the human-readable detail, e.g. a failure reason.
	Message string

	// Environment is the assigned environment name, when known.
	Environment string

	// Elapsed is the accumulated wall time of the subject.
	Elapsed time.Duration
}

// Notifier receives status-change events.
type Notifier interface {
	Notify(msg Message)
}

// Hub fans one event out to every registered notifier. A nil Hub drops
// events, so components can notify unconditionally.
type Hub struct {
	mu        sync.RWMutex
	notifiers []Notifier
	log       zerolog.Logger
}

// NewHub creates an empty hub.
func NewHub(log zerolog.Logger) *Hub {
	return &Hub{log: log.With().Str("component", "notifier").Logger()}
}

// Register adds a notifier. Registration order is delivery order.
func (h *Hub) Register(n Notifier) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.notifiers = append(h.notifiers, n)
}

// Notify delivers the event to every registered notifier.
func (h *Hub) Notify(msg Message) {
	if h == nil {
		return
	}
	h.mu.RLock()
	sinks := h.notifiers
	h.mu.RUnlock()

	for _, n := range sinks {
		n.Notify(msg)
	}
}

// LogNotifier writes events to the run log.
type LogNotifier struct {
	log zerolog.Logger
}

// NewLogNotifier creates a notifier writing to the given logger.
func NewLogNotifier(log zerolog.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

// Notify implements Notifier.
func (n *LogNotifier) Notify(msg Message) {
	n.log.Debug().
		Str("type", msg.Type).
		Str("name", msg.Name).
		Str("status", msg.Status).
		Str("environment", msg.Environment).
		Str("message", msg.Message).
		Dur("elapsed", msg.Elapsed).
		Msg("status changed")
}
