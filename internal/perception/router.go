package perception

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"sentinel/internal/logging"
)

// routerState is the lifecycle of the local provider chain.
type routerState int

const (
	stateUninitialized routerState = iota
	stateResolving
	stateResolved
	stateUnavailable
)

// defaultUnavailableMessage is reported when probing failed without any
// adapter producing a specific reason.
const defaultUnavailableMessage = "No local inference backend could be initialized. " +
	"Configure an ollama daemon, a llama.cpp server, or a text-generation pipeline server."

// Router owns the ordered probing of local provider adapters. The first
// candidate whose Init succeeds is cached for the remainder of the
// process; every failure reason is accumulated so an operator can see
// all of them at once. Resolution happens lazily on first use and can be
// re-run only by an explicit Reinitialize.
//
// The lock discipline assumes many readers and rare writers: the
// provider resolves once and is read on every generation afterwards.
type Router struct {
	mu         sync.RWMutex
	state      routerState
	candidates []Adapter
	active     Adapter
	reasons    []string
}

// NewRouter creates a router over an ordered candidate list.
func NewRouter(candidates ...Adapter) *Router {
	return &Router{candidates: candidates}
}

// ensure performs the lazy uninitialized -> resolving -> resolved |
// unavailable transition. Later calls are no-ops until Reinitialize.
func (r *Router) ensure(ctx context.Context) {
	r.mu.RLock()
	st := r.state
	r.mu.RUnlock()
	if st == stateResolved || st == stateUnavailable {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state == stateResolved || r.state == stateUnavailable {
		return
	}
	r.state = stateResolving

	for _, candidate := range r.candidates {
		if err := candidate.Init(ctx); err != nil {
			r.reasons = append(r.reasons, err.Error())
			logging.Perception("probe failed for %s: %v", candidate.Provider(), err)
			continue
		}
		r.active = candidate
		r.state = stateResolved
		logging.Perception("resolved local provider %s (%s)", candidate.Provider(), candidate.Descriptor())
		return
	}

	r.state = stateUnavailable
	logging.Perception("no local provider available: %s", r.availabilityMessageLocked())
}

// Generate delegates to the resolved adapter. When the chain is
// unavailable it returns ErrUnavailable immediately. An adapter-level
// failure is appended to the accumulated reasons but does not demote a
// working provider; one failed generation is not grounds for discarding
// it.
func (r *Router) Generate(ctx context.Context, systemPrompt, userPrompt string, maxTokens int, temperature float64) (string, error) {
	r.ensure(ctx)

	r.mu.RLock()
	st, active := r.state, r.active
	r.mu.RUnlock()
	if st != stateResolved || active == nil {
		return "", ErrUnavailable
	}

	reply, err := active.Generate(ctx, systemPrompt, userPrompt, maxTokens, temperature)
	if err != nil {
		r.mu.Lock()
		r.reasons = append(r.reasons, fmt.Sprintf("%s generation error: %v", active.Provider(), err))
		r.mu.Unlock()
		return "", err
	}
	return reply, nil
}

// IsAvailable resolves the chain if needed and reports whether a
// provider is active.
func (r *Router) IsAvailable(ctx context.Context) bool {
	r.ensure(ctx)
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state == stateResolved
}

// Provider returns the active provider kind, or empty when none.
func (r *Router) Provider() Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.active == nil {
		return ""
	}
	return r.active.Provider()
}

// Descriptor returns the active provider's model descriptor, or a
// placeholder when nothing resolved.
func (r *Router) Descriptor() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.active == nil {
		return "<uninitialized>"
	}
	return r.active.Descriptor()
}

// AvailabilityMessage describes why the chain is unavailable, with every
// accumulated probe and generation failure concatenated.
func (r *Router) AvailabilityMessage() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.availabilityMessageLocked()
}

func (r *Router) availabilityMessageLocked() string {
	if len(r.reasons) == 0 {
		return defaultUnavailableMessage
	}
	return strings.Join(r.reasons, " | ")
}

// Reinitialize resets the state machine and re-runs the whole probe.
// This is the only path back from unavailable; it exists for the
// administrative endpoint, not for per-request use.
func (r *Router) Reinitialize(ctx context.Context) bool {
	r.mu.Lock()
	r.state = stateUninitialized
	r.active = nil
	r.reasons = nil
	r.mu.Unlock()

	r.ensure(ctx)

	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state == stateResolved
}
