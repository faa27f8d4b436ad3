package sink

import (
	"context"
	"time"
)

// Step event statuses
const (
	StatusStarted   = "started"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Event is one step notification from a pipeline run
type Event struct {
	Step    string    `json:"step"`
	Status  string    `json:"status"`
	Message string    `json:"message,omitempty"`
	Time    time.Time `json:"-"`
}

// Sink receives step events from a pipeline run
type Sink interface {
	// Provision makes sure the sink destination exists
	Provision(ctx context.Context) error

	// Emit sends one event to the sink
	Emit(ctx context.Context, ev Event) error
}

// Nop is a sink that drops every event
type Nop struct{}

var _ Sink = Nop{}

func (Nop) Provision(ctx context.Context) error      { return nil }
func (Nop) Emit(ctx context.Context, ev Event) error { return nil }
