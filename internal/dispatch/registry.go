package dispatch

import (
	"context"
	"fmt"
	"sync"

	"sentinel/internal/logging"
	"sentinel/internal/types"
)

// Executor performs one kind of action. Implementations receive the
// validated, normalized payload and return a result map that will be
// sanitized before leaving the process.
type Executor interface {
	Execute(ctx context.Context, payload map[string]any) (map[string]any, error)
}

// ExecutorFunc adapts a function to the Executor interface.
type ExecutorFunc func(ctx context.Context, payload map[string]any) (map[string]any, error)

// Execute implements Executor.
func (f ExecutorFunc) Execute(ctx context.Context, payload map[string]any) (map[string]any, error) {
	return f(ctx, payload)
}

// Registry maps action kinds to executors. Registration happens at
// startup; lookups happen on every request, so reads outnumber writes.
type Registry struct {
	mu        sync.RWMutex
	executors map[types.ActionKind]Executor
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{executors: make(map[types.ActionKind]Executor)}
}

// Register binds an executor to a kind, replacing any previous binding.
func (r *Registry) Register(kind types.ActionKind, executor Executor) {
	r.mu.Lock()
	r.executors[kind] = executor
	r.mu.Unlock()
}

// Lookup returns the executor for a kind, or false when none is bound.
func (r *Registry) Lookup(kind types.ActionKind) (Executor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	executor, ok := r.executors[kind]
	return executor, ok
}

// Kinds lists the kinds that currently have an executor.
func (r *Registry) Kinds() []types.ActionKind {
	r.mu.RLock()
	defer r.mu.RUnlock()
	kinds := make([]types.ActionKind, 0, len(r.executors))
	for _, kind := range types.AllActionKinds {
		if _, ok := r.executors[kind]; ok {
			kinds = append(kinds, kind)
		}
	}
	return kinds
}

// DryRunExecutor acknowledges an action without performing it. It
// stands in for connectors that are not configured in this deployment.
func DryRunExecutor(kind types.ActionKind) Executor {
	return ExecutorFunc(func(ctx context.Context, payload map[string]any) (map[string]any, error) {
		return map[string]any{
			"status": "planned",
			"detail": fmt.Sprintf("%s is not connected; the action was validated but not performed", kind),
		}, nil
	})
}

// Dispatcher runs validated actions in order, carrying an ActionContext
// so later actions can borrow from earlier results. Payloads and
// results in its output are sanitized.
type Dispatcher struct {
	registry  *Registry
	validator *Validator
	sanitizer *Sanitizer
}

// NewDispatcher wires a dispatcher.
func NewDispatcher(registry *Registry, validator *Validator, sanitizer *Sanitizer) *Dispatcher {
	return &Dispatcher{registry: registry, validator: validator, sanitizer: sanitizer}
}

// Dispatch validates and executes each action in order. An action that
// fails validation becomes a clarification and is skipped; execution
// failures abort the whole batch. Results of schedule_meeting and
// order_pizza feed the context used by later send_email defaults.
func (d *Dispatcher) Dispatch(ctx context.Context, actions []types.Action) ([]types.ActionResult, []types.Clarification, error) {
	actx := &ActionContext{}
	var results []types.ActionResult
	var clarifications []types.Clarification

	for _, action := range actions {
		validated, clarification, err := d.validator.ValidateWith(action, actx)
		if err != nil {
			return nil, nil, err
		}
		if clarification != nil {
			clarifications = append(clarifications, *clarification)
			continue
		}

		executor, ok := d.registry.Lookup(validated.Kind)
		if !ok {
			return nil, nil, fmt.Errorf("no executor registered for %s", validated.Kind)
		}
		result, err := executor.Execute(ctx, validated.Payload)
		if err != nil {
			return nil, nil, fmt.Errorf("%s failed: %w", validated.Kind, err)
		}
		logging.Dispatch("executed %s", validated.Kind)

		switch validated.Kind {
		case types.ActionScheduleMeeting:
			actx.LastMeeting = result
		case types.ActionOrderPizza:
			actx.LastPizzaOrder = result
		}

		results = append(results, types.ActionResult{
			Kind:    validated.Kind,
			Payload: d.sanitizer.Sanitize(validated.Payload),
			Result:  d.sanitizer.Sanitize(result),
		})
	}
	return results, clarifications, nil
}
