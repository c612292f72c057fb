// Package runtime runs conversation turns: it renders the mode-driven system prompt,
// drives the model through its tool calls and streams the output to a sink.
package runtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/nullvoyager/voyager/internal/logging"
	"github.com/nullvoyager/voyager/internal/tools"
	"github.com/nullvoyager/voyager/pkg/domain"
	"github.com/nullvoyager/voyager/pkg/ports"
	"github.com/nullvoyager/voyager/pkg/registry"
	"github.com/nullvoyager/voyager/pkg/session"
)

// DefaultMaxSteps caps the number of model calls in one turn.
const DefaultMaxSteps = 10

// ErrNoMessages is returned when a turn is started without any message.
var ErrNoMessages = errors.New("no messages")

// Sink receives the visible output of a turn while it runs.
type Sink interface {
	// Text receives a fragment of assistant text.
	Text(delta string)
	// Tool receives each lifecycle change of a tool invocation.
	Tool(inv domain.ToolInvocation)
}

// SinkFuncs adapts plain functions to a Sink. Nil fields are ignored.
type SinkFuncs struct {
	OnText func(delta string)
	OnTool func(inv domain.ToolInvocation)
}

func (s SinkFuncs) Text(delta string) {
	if s.OnText != nil {
		s.OnText(delta)
	}
}

func (s SinkFuncs) Tool(inv domain.ToolInvocation) {
	if s.OnTool != nil {
		s.OnTool(inv)
	}
}

// Discard is a Sink that drops everything.
var Discard Sink = SinkFuncs{}

// TurnResult is the outcome of one turn.
type TurnResult struct {
	SessionID string
	// Messages holds what the turn appended to the history: assistant and tool messages.
	Messages []domain.Message
	// Text is the assistant text of the last step.
	Text      string
	Steps     int
	Truncated bool
	State     *domain.VoyagerState
}

// Engine runs conversation turns.
type Engine struct {
	model    ports.ChatModel
	sessions *session.Manager
	tools    *registry.Registry
	maxSteps int
	logger   *slog.Logger
	hooks    domain.LifecycleHooks
}

// Option configures the Engine.
type Option func(*Engine)

// WithMaxSteps sets the step cap of a turn.
func WithMaxSteps(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxSteps = n
		}
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithLifecycleHooks registers observability hooks. Multiple calls are merged.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = e.hooks.Merge(hooks)
	}
}

// NewEngine creates an Engine. The lookup tools come from lookup; the session tools
// are always added.
func NewEngine(model ports.ChatModel, sessions *session.Manager, lookup *registry.Registry, opts ...Option) *Engine {
	if lookup == nil {
		lookup = registry.NewRegistry()
	}
	e := &Engine{
		model:    model,
		sessions: sessions,
		tools:    lookup.With(tools.Session()...),
		maxSteps: DefaultMaxSteps,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Tools returns the specs of every tool offered to the model.
func (e *Engine) Tools() []domain.Tool {
	return e.tools.Specs()
}

// ProcessMessage runs one turn for the session. The whole turn holds the session lock.
// Reaching the step cap truncates the turn and is not an error. State updates made by
// tools before a failure are kept.
func (e *Engine) ProcessMessage(ctx context.Context, sessionID string, messages []domain.Message, sink Sink) (*TurnResult, error) {
	if len(messages) == 0 {
		return nil, ErrNoMessages
	}
	if sink == nil {
		sink = Discard
	}

	res := &TurnResult{SessionID: sessionID}
	err := e.sessions.WithLock(ctx, sessionID, func(ctx context.Context, s *session.Session) error {
		return e.run(ctx, s, messages, sink, res)
	})

	e.emitTurnEnd(ctx, sessionID, res, err)
	if err != nil {
		e.logger.ErrorContext(ctx, "turn failed", "session_id", sessionID, "steps", res.Steps, "err", err)
		return res, err
	}
	e.logger.InfoContext(ctx, "turn completed",
		"session_id", sessionID,
		"steps", res.Steps,
		"truncated", res.Truncated,
		"mode", res.State.Mode,
	)
	return res, nil
}

func (e *Engine) run(ctx context.Context, s *session.Session, messages []domain.Message, sink Sink, res *TurnResult) error {
	history := make([]domain.Message, len(messages), len(messages)+2*e.maxSteps)
	copy(history, messages)
	specs := e.tools.Specs()

	defer func() {
		res.State = s.State()
	}()

	for step := 1; step <= e.maxSteps; step++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		res.Steps = step
		e.emitStepStart(ctx, s.ID(), step)

		resp, err := e.model.Stream(ctx, ports.ChatRequest{
			System:   RenderSystemPrompt(s.State()),
			Messages: history,
			Tools:    specs,
		}, sink.Text)
		if err != nil {
			return fmt.Errorf("model call failed at step %d: %w", step, err)
		}

		assistant := domain.Message{Role: domain.RoleAssistant, Content: resp.Text, ToolCalls: resp.ToolCalls}
		for i := range assistant.ToolCalls {
			if assistant.ToolCalls[i].ID == "" {
				assistant.ToolCalls[i].ID = uuid.NewString()
			}
		}
		history = append(history, assistant)
		res.Messages = append(res.Messages, assistant)
		res.Text = resp.Text

		if len(assistant.ToolCalls) == 0 {
			return nil
		}

		for _, call := range assistant.ToolCalls {
			msg := e.callTool(ctx, s, step, call, sink)
			history = append(history, msg)
			res.Messages = append(res.Messages, msg)
		}
	}

	res.Truncated = true
	e.logger.WarnContext(ctx, "turn reached step limit", "session_id", s.ID(), "max_steps", e.maxSteps)
	return nil
}

func (e *Engine) callTool(ctx context.Context, s *session.Session, step int, call domain.ToolCall, sink Sink) domain.Message {
	sink.Tool(domain.ToolInvocation{ID: call.ID, ToolName: call.Name, State: domain.InvocationPending, Args: call.Args})
	e.emitToolCall(ctx, s.ID(), step, call)

	before := s.State()
	start := time.Now()
	result := e.tools.Execute(ctx, call, s)
	elapsed := time.Since(start)

	e.emitToolReturn(ctx, s.ID(), step, call, result, elapsed)
	if result.IsError {
		e.logger.DebugContext(ctx, "tool call failed", "tool", call.Name, "err", result.Error)
	}
	if after := s.State(); domain.Diff(s.ID(), before, after) != nil {
		e.emitStateChange(ctx, s.ID(), before, after)
	}

	inv := domain.ToolInvocation{
		ID:       call.ID,
		ToolName: call.Name,
		State:    domain.InvocationResult,
		Args:     call.Args,
		Result:   result.Payload(),
	}
	if result.IsError {
		inv.State = domain.InvocationError
	}
	sink.Tool(inv)

	content, err := json.Marshal(result.Payload())
	if err != nil {
		content, _ = json.Marshal(map[string]string{"error": err.Error()})
	}
	return domain.Message{
		Role:       domain.RoleTool,
		Content:    string(content),
		ToolCallID: call.ID,
		Name:       call.Name,
	}
}

func (e *Engine) base(sessionID string, t domain.EventType) domain.EventBase {
	return domain.EventBase{Timestamp: time.Now(), Type: t, SessionID: sessionID}
}

func (e *Engine) emitStepStart(ctx context.Context, sessionID string, step int) {
	e.logger.DebugContext(ctx, "step started", "session_id", sessionID, "step", step)
	if e.hooks.OnStepStart != nil {
		e.hooks.OnStepStart(ctx, &domain.StepEvent{EventBase: e.base(sessionID, domain.EventStepStart), Step: step})
	}
}

func (e *Engine) emitToolCall(ctx context.Context, sessionID string, step int, call domain.ToolCall) {
	e.logger.DebugContext(ctx, "tool call", "session_id", sessionID, "tool", call.Name, "call_id", call.ID)
	if e.hooks.OnToolCall != nil {
		e.hooks.OnToolCall(ctx, &domain.ToolEvent{
			EventBase: e.base(sessionID, domain.EventToolCall),
			Step:      step,
			CallID:    call.ID,
			ToolName:  call.Name,
			Input:     call.Args,
		})
	}
}

func (e *Engine) emitToolReturn(ctx context.Context, sessionID string, step int, call domain.ToolCall, result domain.ToolResult, d time.Duration) {
	if e.hooks.OnToolReturn != nil {
		e.hooks.OnToolReturn(ctx, &domain.ToolEvent{
			EventBase: e.base(sessionID, domain.EventToolReturn),
			Step:      step,
			CallID:    call.ID,
			ToolName:  call.Name,
			Input:     call.Args,
			Output:    result.Result,
			IsError:   result.IsError,
			Duration:  d,
		})
	}
}

func (e *Engine) emitStateChange(ctx context.Context, sessionID string, before, after *domain.VoyagerState) {
	if e.hooks.OnStateChange != nil {
		e.hooks.OnStateChange(ctx, &domain.StateEvent{
			EventBase: e.base(sessionID, domain.EventStateChange),
			Before:    before,
			After:     after,
		})
	}
}

func (e *Engine) emitTurnEnd(ctx context.Context, sessionID string, res *TurnResult, err error) {
	if e.hooks.OnTurnEnd != nil {
		e.hooks.OnTurnEnd(ctx, &domain.TurnEvent{
			EventBase: e.base(sessionID, domain.EventTurnEnd),
			Steps:     res.Steps,
			Truncated: res.Truncated,
			Err:       err,
		})
	}
}
