package workflow

import (
	"context"
	"fmt"
	"sort"
)

// GuardFunc decides whether a guarded edge may be taken
type GuardFunc func(ctx context.Context) bool

// StateMachineBuilder assembles a transition graph and stamps out machines from it
type StateMachineBuilder interface {
	// Configure returns the edge configuration for the given source state
	Configure(state State) StateConfiguration

	// Build creates a machine positioned at initialState
	Build(initialState State) StateMachine
}

// StateConfiguration adds outgoing edges to one source state
type StateConfiguration interface {
	// Permit adds an unconditional edge
	Permit(trigger Trigger, toState State) StateConfiguration

	// PermitIf adds an edge taken only when guard returns true
	PermitIf(trigger Trigger, toState State, guard GuardFunc) StateConfiguration
}

type edge struct {
	toState State
	guard   GuardFunc
}

type edgeSet map[Trigger][]edge

type stateConfig struct {
	fromState State
	edges     edgeSet
}

type stateMachineBuilder struct {
	graph map[State]*stateConfig
}

type stateMachine struct {
	currentState State
	graph        map[State]edgeSet
}

// NewBuilder creates an empty state machine builder
func NewBuilder() StateMachineBuilder {
	return &stateMachineBuilder{
		graph: make(map[State]*stateConfig),
	}
}

// Configure returns the edge configuration for the given source state
func (b *stateMachineBuilder) Configure(state State) StateConfiguration {
	if !state.IsValid() {
		panic(fmt.Sprintf("invalid state: %s", state))
	}

	cfg, ok := b.graph[state]
	if !ok {
		cfg = &stateConfig{
			fromState: state,
			edges:     make(edgeSet),
		}
		b.graph[state] = cfg
	}

	return cfg
}

// Build creates a machine positioned at initialState.
// Each machine gets its own copy of the graph so later Configure calls do not leak into it.
func (b *stateMachineBuilder) Build(initialState State) StateMachine {
	if !initialState.IsValid() {
		panic(fmt.Sprintf("invalid initial state: %s", initialState))
	}

	graph := make(map[State]edgeSet, len(b.graph))
	for state, cfg := range b.graph {
		edges := make(edgeSet, len(cfg.edges))
		for trigger, list := range cfg.edges {
			edges[trigger] = append([]edge(nil), list...)
		}
		graph[state] = edges
	}

	return &stateMachine{
		currentState: initialState,
		graph:        graph,
	}
}

// Permit adds an unconditional edge
func (c *stateConfig) Permit(trigger Trigger, toState State) StateConfiguration {
	return c.PermitIf(trigger, toState, nil)
}

// PermitIf adds an edge taken only when guard returns true
func (c *stateConfig) PermitIf(trigger Trigger, toState State, guard GuardFunc) StateConfiguration {
	if !toState.IsValid() {
		panic(fmt.Sprintf("invalid target state: %s", toState))
	}

	c.edges[trigger] = append(c.edges[trigger], edge{
		toState: toState,
		guard:   guard,
	})

	return c
}

func (m *stateMachine) State() State {
	return m.currentState
}

func (m *stateMachine) Next(ctx context.Context, trigger Trigger) (State, error) {
	edges := m.graph[m.currentState][trigger]
	if len(edges) == 0 {
		return "", fmt.Errorf("%w: cannot %s from %s, permitted %v",
			ErrInvalidTransition, trigger, m.currentState, m.PermittedTriggers())
	}

	for _, e := range edges {
		if e.guard == nil || e.guard(ctx) {
			return e.toState, nil
		}
	}

	return "", fmt.Errorf("%w: %s from %s", ErrGuardFailed, trigger, m.currentState)
}

func (m *stateMachine) Fire(ctx context.Context, trigger Trigger) error {
	next, err := m.Next(ctx, trigger)
	if err != nil {
		return err
	}
	m.currentState = next
	return nil
}

func (m *stateMachine) PermittedTriggers() []Trigger {
	edges := m.graph[m.currentState]
	triggers := make([]Trigger, 0, len(edges))
	for trigger := range edges {
		triggers = append(triggers, trigger)
	}
	sort.Slice(triggers, func(i, j int) bool { return triggers[i] < triggers[j] })
	return triggers
}
