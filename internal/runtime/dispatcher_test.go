package runtime

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/nullvoyager/voyager/internal/tools"
	"github.com/nullvoyager/voyager/pkg/adapters/memory"
	"github.com/nullvoyager/voyager/pkg/domain"
	"github.com/nullvoyager/voyager/pkg/ports"
	"github.com/nullvoyager/voyager/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedModel replays one response per call; after the script ends it repeats the last one.
type scriptedModel struct {
	mu       sync.Mutex
	script   []ports.ChatResponse
	err      error
	requests []ports.ChatRequest
}

func (m *scriptedModel) Stream(ctx context.Context, req ports.ChatRequest, onDelta ports.DeltaFunc) (*ports.ChatResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = append(m.requests, req)
	if m.err != nil {
		return nil, m.err
	}
	i := min(len(m.requests)-1, len(m.script)-1)
	resp := m.script[i]
	for _, word := range strings.SplitAfter(resp.Text, " ") {
		onDelta(word)
	}
	return &resp, nil
}

func call(id, name, args string) domain.ToolCall {
	return domain.ToolCall{ID: id, Name: name, Args: json.RawMessage(args)}
}

func userSays(text string) []domain.Message {
	return []domain.Message{{Role: domain.RoleUser, Content: text}}
}

type recorder struct {
	text  strings.Builder
	tools []domain.ToolInvocation
}

func (r *recorder) Text(delta string)              { r.text.WriteString(delta) }
func (r *recorder) Tool(inv domain.ToolInvocation) { r.tools = append(r.tools, inv) }

func newEngine(model ports.ChatModel, opts ...Option) (*Engine, *session.Manager) {
	mgr := session.NewManager(memory.NewStore())
	return NewEngine(model, mgr, tools.NewRegistry(tools.Config{}), opts...), mgr
}

func TestProcessMessage_PlainAnswer(t *testing.T) {
	model := &scriptedModel{script: []ports.ChatResponse{{Text: "Where would you like to go?"}}}
	engine, _ := newEngine(model)
	sink := &recorder{}

	res, err := engine.ProcessMessage(context.Background(), "s1", userSays("hi"), sink)
	require.NoError(t, err)

	assert.Equal(t, 1, res.Steps)
	assert.False(t, res.Truncated)
	assert.Equal(t, "Where would you like to go?", res.Text)
	assert.Equal(t, "Where would you like to go?", sink.text.String())
	assert.Equal(t, domain.ModeInspiration, res.State.Mode)

	require.Len(t, model.requests, 1)
	req := model.requests[0]
	assert.Contains(t, req.System, "CURRENT MODE: INSPIRATION")
	assert.Len(t, req.Messages, 1)

	var names []string
	for _, tool := range req.Tools {
		names = append(names, tool.Name)
	}
	assert.Equal(t, []string{
		domain.ToolSearchFlights, domain.ToolSearchHotels, domain.ToolSuggestDestinations,
		domain.ToolSetMode, domain.ToolUpdateTrip, domain.ToolSelectFlight, domain.ToolSelectHotel,
	}, names)
}

func TestProcessMessage_NoMessages(t *testing.T) {
	engine, _ := newEngine(&scriptedModel{})
	_, err := engine.ProcessMessage(context.Background(), "s1", nil, nil)
	assert.ErrorIs(t, err, ErrNoMessages)
}

func TestProcessMessage_ToolsRunInOrder(t *testing.T) {
	model := &scriptedModel{script: []ports.ChatResponse{
		{ToolCalls: []domain.ToolCall{
			call("a", domain.ToolSearchFlights, `{"origin":"JFK","destination":"LHR","departureDate":"2025-06-01"}`),
			call("b", domain.ToolSearchHotels, `{"location":"London"}`),
		}},
		{Text: "Here is what I found."},
	}}
	engine, _ := newEngine(model)
	sink := &recorder{}

	res, err := engine.ProcessMessage(context.Background(), "s1", userSays("London trip"), sink)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Steps)

	require.Len(t, sink.tools, 4)
	assert.Equal(t, domain.InvocationPending, sink.tools[0].State)
	assert.Equal(t, "a", sink.tools[0].ID)
	assert.Equal(t, domain.InvocationResult, sink.tools[1].State)
	assert.Equal(t, "a", sink.tools[1].ID)
	assert.Equal(t, "b", sink.tools[2].ID)
	assert.Equal(t, domain.InvocationResult, sink.tools[3].State)

	flights := sink.tools[1].Result.(*domain.FlightResults)
	assert.Equal(t, domain.SourceMock, flights.Source)

	// The second model call sees both tool results after the assistant message.
	second := model.requests[1].Messages
	require.Len(t, second, 4)
	assert.Equal(t, domain.RoleAssistant, second[1].Role)
	assert.Equal(t, domain.RoleTool, second[2].Role)
	assert.Equal(t, "a", second[2].ToolCallID)
	assert.Contains(t, second[2].Content, `"source":"mock"`)
	assert.Equal(t, "b", second[3].ToolCallID)

	require.Len(t, res.Messages, 4)
	assert.Equal(t, "Here is what I found.", res.Messages[3].Content)
}

func TestProcessMessage_StepCapTruncates(t *testing.T) {
	loop := ports.ChatResponse{ToolCalls: []domain.ToolCall{call("", domain.ToolSuggestDestinations, `{"vibe":"beach"}`)}}
	model := &scriptedModel{script: []ports.ChatResponse{loop}}

	var ended *domain.TurnEvent
	engine, _ := newEngine(model, WithLifecycleHooks(domain.LifecycleHooks{
		OnTurnEnd: func(ctx context.Context, e *domain.TurnEvent) { ended = e },
	}))

	res, err := engine.ProcessMessage(context.Background(), "s1", userSays("surprise me"), nil)
	require.NoError(t, err)
	assert.True(t, res.Truncated)
	assert.Equal(t, DefaultMaxSteps, res.Steps)
	assert.Len(t, model.requests, DefaultMaxSteps)

	require.NotNil(t, ended)
	assert.True(t, ended.Truncated)
	assert.NoError(t, ended.Err)

	for _, m := range res.Messages {
		for _, c := range m.ToolCalls {
			assert.NotEmpty(t, c.ID, "Missing call ids are generated")
		}
	}
}

func TestProcessMessage_CustomStepCap(t *testing.T) {
	loop := ports.ChatResponse{ToolCalls: []domain.ToolCall{call("x", domain.ToolSuggestDestinations, `{"vibe":"food"}`)}}
	model := &scriptedModel{script: []ports.ChatResponse{loop}}
	engine, _ := newEngine(model, WithMaxSteps(3))

	res, err := engine.ProcessMessage(context.Background(), "s1", userSays("food"), nil)
	require.NoError(t, err)
	assert.True(t, res.Truncated)
	assert.Equal(t, 3, res.Steps)
}

func TestProcessMessage_SetModeChangesNextPrompt(t *testing.T) {
	model := &scriptedModel{script: []ports.ChatResponse{
		{ToolCalls: []domain.ToolCall{call("m", domain.ToolSetMode, `{"mode":"PLANNING"}`)}},
		{Text: "Let's plan."},
	}}

	var changes []*domain.StateEvent
	engine, mgr := newEngine(model, WithLifecycleHooks(domain.LifecycleHooks{
		OnStateChange: func(ctx context.Context, e *domain.StateEvent) { changes = append(changes, e) },
	}))

	res, err := engine.ProcessMessage(context.Background(), "s1", userSays("I want Lisbon"), nil)
	require.NoError(t, err)

	assert.Contains(t, model.requests[0].System, "CURRENT MODE: INSPIRATION")
	assert.Contains(t, model.requests[1].System, "CURRENT MODE: PLANNING")
	assert.Equal(t, domain.ModePlanning, res.State.Mode)

	stored, err := mgr.Load(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, domain.ModePlanning, stored.Mode)

	require.Len(t, changes, 1)
	assert.Equal(t, domain.ModeInspiration, changes[0].Before.Mode)
	assert.Equal(t, domain.ModePlanning, changes[0].After.Mode)
}

func TestProcessMessage_InvalidToolInputGoesBackToModel(t *testing.T) {
	model := &scriptedModel{script: []ports.ChatResponse{
		{ToolCalls: []domain.ToolCall{call("f", domain.ToolSearchFlights, `{"origin":"NEWYORK","destination":"LHR","departureDate":"2025-06-01"}`)}},
		{Text: "Which airport?"},
	}}
	engine, _ := newEngine(model)
	sink := &recorder{}

	res, err := engine.ProcessMessage(context.Background(), "s1", userSays("fly"), sink)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Steps)

	require.Len(t, sink.tools, 2)
	assert.Equal(t, domain.InvocationError, sink.tools[1].State)
	assert.Contains(t, model.requests[1].Messages[2].Content, `"error"`)
}

func TestProcessMessage_ModelFailureKeepsCommittedState(t *testing.T) {
	model := &scriptedModel{script: []ports.ChatResponse{
		{ToolCalls: []domain.ToolCall{call("u", domain.ToolUpdateTrip, `{"travelers":3}`)}},
	}}
	engine, mgr := newEngine(model)

	// First turn commits the update, then loops until the cap.
	_, err := engine.ProcessMessage(context.Background(), "s1", userSays("we are three"), nil)
	require.NoError(t, err)

	model.err = errors.New("provider down")
	var ended *domain.TurnEvent
	engine = NewEngine(model, mgr, tools.NewRegistry(tools.Config{}), WithLifecycleHooks(domain.LifecycleHooks{
		OnTurnEnd: func(ctx context.Context, e *domain.TurnEvent) { ended = e },
	}))

	_, err = engine.ProcessMessage(context.Background(), "s1", userSays("again"), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "provider down")
	require.NotNil(t, ended)
	assert.Error(t, ended.Err)

	state, err := mgr.Load(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, 3, state.Preferences.Travelers)
}

func TestProcessMessage_Cancelled(t *testing.T) {
	engine, _ := newEngine(&scriptedModel{script: []ports.ChatResponse{{Text: "hi"}}})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := engine.ProcessMessage(ctx, "s1", userSays("hi"), nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestProcessMessage_TurnsAreSerializedPerSession(t *testing.T) {
	model := &scriptedModel{script: []ports.ChatResponse{
		{ToolCalls: []domain.ToolCall{call("s", domain.ToolSelectFlight, `{"flightId":"mock-1"}`)}},
		{Text: "done"},
	}}
	engine, mgr := newEngine(model)

	var wg sync.WaitGroup
	for range 5 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := engine.ProcessMessage(context.Background(), "shared", userSays("book"), nil)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	state, err := mgr.Load(context.Background(), "shared")
	require.NoError(t, err)
	assert.Equal(t, "mock-1", state.Cart.SelectedFlightID)
}
