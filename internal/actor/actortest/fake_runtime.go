// Package actortest provides test helpers for actors and their reducers.
package actortest

import (
	"context"
	"slices"
	"sync"

	"github.com/kindredapp/kindred/internal/actor"
)

// FakeRuntime stands in for a reducer's effect runtime. It keeps every effect
// it is handed and, when Reply is set, feeds the inputs Reply returns back to
// the actor the way a server answers a request.
type FakeRuntime struct {
	// Reply maps an effect to the inputs it produces. It runs on the actor
	// goroutine after the effect is recorded.
	Reply func(eff actor.Effect) []actor.Input

	mu      sync.Mutex
	effects []actor.Effect
	stops   int
}

var _ actor.Runtime = (*FakeRuntime)(nil)

// HandleEffects implements actor.Runtime.
func (r *FakeRuntime) HandleEffects(_ context.Context, effects []actor.Effect, emit func(actor.Input)) {
	r.mu.Lock()
	r.effects = append(r.effects, effects...)
	reply := r.Reply
	r.mu.Unlock()

	if reply == nil {
		return
	}
	for _, eff := range effects {
		for _, in := range reply(eff) {
			emit(in)
		}
	}
}

// Stop implements actor.Runtime.
func (r *FakeRuntime) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stops++
}

// Stopped reports whether Stop was called at least once.
func (r *FakeRuntime) Stopped() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stops > 0
}

// Effects returns every effect recorded so far.
func (r *FakeRuntime) Effects() []actor.Effect {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.effects)
}

// Take returns the recorded effects and forgets them.
func (r *FakeRuntime) Take() []actor.Effect {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.effects
	r.effects = nil
	return out
}

// EffectsOf returns the effects of type E, in recording order.
func EffectsOf[E actor.Effect](effects []actor.Effect) []E {
	var out []E
	for _, eff := range effects {
		if e, ok := eff.(E); ok {
			out = append(out, e)
		}
	}
	return out
}
