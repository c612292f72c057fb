package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventStepStart   EventType = "step_start"
	EventToolCall    EventType = "tool_call"
	EventToolReturn  EventType = "tool_return"
	EventStateChange EventType = "state_change"
	EventTurnEnd     EventType = "turn_end"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	SessionID string    `json:"session_id"`
}

// StepEvent marks the start of one model call within a turn.
type StepEvent struct {
	EventBase
	Step int `json:"step"`
}

// ToolEvent represents a tool execution.
type ToolEvent struct {
	EventBase
	Step     int           `json:"step"`
	CallID   string        `json:"call_id"`
	ToolName string        `json:"tool_name"`
	Input    any           `json:"input,omitempty"`
	Output   any           `json:"output,omitempty"`
	IsError  bool          `json:"is_error,omitempty"`
	Duration time.Duration `json:"duration,omitempty"`
}

// StateEvent reports a committed state update.
type StateEvent struct {
	EventBase
	Before *VoyagerState `json:"before,omitempty"`
	After  *VoyagerState `json:"after"`
}

// TurnEvent closes a turn.
type TurnEvent struct {
	EventBase
	Steps     int   `json:"steps"`
	Truncated bool  `json:"truncated,omitempty"`
	Err       error `json:"-"`
}

// LifecycleHooks defines callbacks for observability.
type LifecycleHooks struct {
	OnStepStart   func(context.Context, *StepEvent)
	OnToolCall    func(context.Context, *ToolEvent)
	OnToolReturn  func(context.Context, *ToolEvent)
	OnStateChange func(context.Context, *StateEvent)
	OnTurnEnd     func(context.Context, *TurnEvent)
}

// Merge returns hooks that call h first and then other.
func (h LifecycleHooks) Merge(other LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnStepStart:   chain(h.OnStepStart, other.OnStepStart),
		OnToolCall:    chain(h.OnToolCall, other.OnToolCall),
		OnToolReturn:  chain(h.OnToolReturn, other.OnToolReturn),
		OnStateChange: chain(h.OnStateChange, other.OnStateChange),
		OnTurnEnd:     chain(h.OnTurnEnd, other.OnTurnEnd),
	}
}

func chain[E any](a, b func(context.Context, E)) func(context.Context, E) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(ctx context.Context, e E) {
		a(ctx, e)
		b(ctx, e)
	}
}
