// Package actor provides the single-goroutine event loop that owns reconciled
// client state.
//
// The core idea is:
//   - One goroutine ("the actor loop") owns all mutable state.
//   - A pure reducer transforms state given an input and returns effects.
//   - A runtime interprets effects and may emit follow-up inputs.
//
// Inputs are applied strictly in mailbox order, so the loop doubles as the
// ordering point for events arriving from the network.
package actor

import (
	"context"
	"errors"
	"sync"
)

// Input is an item delivered to an actor mailbox.
type Input interface {
	isActorInput()
}

// Effect is a declarative side-effect produced by a reducer.
//
// Effects are data, not execution. The Runtime interprets them.
type Effect interface {
	isActorEffect()
}

// ReducerFunc is a pure state transition function.
//
// Reducers must be side-effect free:
//   - no I/O
//   - no goroutine spawning
//   - no time.Now (inject timestamps via inputs instead)
type ReducerFunc[S any] func(state S, input Input) (next S, effects []Effect)

// Runtime interprets effects and emits follow-up inputs back to the actor.
type Runtime interface {
	// HandleEffects executes effects on the actor goroutine. It must return
	// quickly; blocking work has to run asynchronously and must stop once ctx
	// is canceled.
	HandleEffects(ctx context.Context, effects []Effect, emit func(Input))

	// Stop requests that the runtime stop any background work. It may be
	// called multiple times.
	Stop()
}

// Hooks provide optional observability into an actor's execution.
type Hooks[S any] struct {
	// OnInput is called after an input is dequeued, before reducing.
	OnInput func(input Input)
	// OnEffects is called after reducing, before effects are handed to Runtime.
	OnEffects func(effects []Effect)
	// OnPanic is called when the reducer or runtime panics. If nil, panics
	// propagate and crash the process.
	OnPanic func(recovered any)
}

// Observer is notified after every reduced input, on the actor goroutine.
type Observer[S any] func(prev S, next S, input Input)

// Actor runs a single-threaded event loop that owns state of type S.
type Actor[S any] struct {
	reduce  ReducerFunc[S]
	runtime Runtime
	hooks   Hooks[S]

	mu        sync.Mutex
	state     S
	observers map[uint64]Observer[S]
	nextObsID uint64

	inbox  chan Input
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

// ErrStopped is returned when the actor has been stopped.
var ErrStopped = errors.New("actor stopped")

// Option configures an Actor.
type Option[S any] func(*Actor[S])

// WithHooks attaches hooks for observability.
func WithHooks[S any](hooks Hooks[S]) Option[S] {
	return func(a *Actor[S]) { a.hooks = hooks }
}

// WithMailboxSize sets the actor mailbox buffer size.
func WithMailboxSize[S any](n int) Option[S] {
	return func(a *Actor[S]) {
		if n <= 0 {
			return
		}
		a.inbox = make(chan Input, n)
	}
}

// New creates a new actor with initial state, reducer, and runtime.
func New[S any](initial S, reducer ReducerFunc[S], runtime Runtime, opts ...Option[S]) *Actor[S] {
	ctx, cancel := context.WithCancel(context.Background())
	a := &Actor[S]{
		reduce:    reducer,
		runtime:   runtime,
		state:     initial,
		observers: make(map[uint64]Observer[S]),
		inbox:     make(chan Input, 256),
		ctx:       ctx,
		cancel:    cancel,
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Start launches the actor loop in its own goroutine.
//
// Start is idempotent.
func (a *Actor[S]) Start() {
	a.once.Do(func() { go a.loop() })
}

// Stop cancels the actor context and stops the runtime.
//
// Stop is safe to call multiple times. Inputs still queued are discarded.
func (a *Actor[S]) Stop() {
	a.cancel()
	if a.runtime != nil {
		a.runtime.Stop()
	}
}

// Done returns a channel that closes when the actor loop exits.
func (a *Actor[S]) Done() <-chan struct{} { return a.done }

// Enqueue delivers an input to the actor mailbox, blocking while the mailbox
// is full so no input is ever dropped.
//
// Enqueue returns false if the actor is stopped.
func (a *Actor[S]) Enqueue(input Input) bool {
	if input == nil {
		return false
	}
	select {
	case <-a.ctx.Done():
		return false
	default:
	}
	select {
	case a.inbox <- input:
		return true
	case <-a.ctx.Done():
		return false
	}
}

// State returns a snapshot of the current actor state.
func (a *Actor[S]) State() S {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// Observe registers fn to run after every reduced input. The returned function
// removes the observer.
//
// Observers run on the actor goroutine in registration order and must not
// block or call Sync.
func (a *Actor[S]) Observe(fn Observer[S]) (cancel func()) {
	if fn == nil {
		return func() {}
	}
	a.mu.Lock()
	id := a.nextObsID
	a.nextObsID++
	a.observers[id] = fn
	a.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			a.mu.Lock()
			delete(a.observers, id)
			a.mu.Unlock()
		})
	}
}

// barrier is an internal input that is acknowledged instead of reduced.
type barrier struct {
	InputBase
	ack chan struct{}
}

// Sync blocks until every input enqueued before the call has been reduced
// and its effects handed to the runtime.
func (a *Actor[S]) Sync(ctx context.Context) error {
	b := barrier{ack: make(chan struct{})}
	select {
	case a.inbox <- b:
	case <-a.ctx.Done():
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-b.ack:
		return nil
	case <-a.ctx.Done():
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// loop runs the actor event loop.
func (a *Actor[S]) loop() {
	defer close(a.done)

	// Follow-up inputs from the runtime must not block the loop on its own
	// mailbox.
	emit := func(in Input) {
		select {
		case a.inbox <- in:
		default:
			go a.Enqueue(in)
		}
	}

	for {
		select {
		case <-a.ctx.Done():
			return
		case in := <-a.inbox:
			if in == nil {
				continue
			}
			if b, ok := in.(barrier); ok {
				close(b.ack)
				continue
			}
			a.step(in, emit)
		}
	}
}

// step reduces a single input. Panics are handed to OnPanic so a bad payload
// cannot take the loop down when a handler is installed.
func (a *Actor[S]) step(in Input, emit func(Input)) {
	defer func() {
		if r := recover(); r != nil {
			if a.hooks.OnPanic == nil {
				panic(r)
			}
			a.hooks.OnPanic(r)
		}
	}()

	if a.hooks.OnInput != nil {
		a.hooks.OnInput(in)
	}

	a.mu.Lock()
	prev := a.state
	a.mu.Unlock()

	next, effects := a.reduce(prev, in)

	a.mu.Lock()
	a.state = next
	observers := make([]Observer[S], 0, len(a.observers))
	for id := uint64(0); id < a.nextObsID; id++ {
		if fn, ok := a.observers[id]; ok {
			observers = append(observers, fn)
		}
	}
	a.mu.Unlock()

	for _, fn := range observers {
		fn(prev, next, in)
	}
	if len(effects) > 0 && a.hooks.OnEffects != nil {
		a.hooks.OnEffects(effects)
	}
	if a.runtime != nil && len(effects) > 0 {
		a.runtime.HandleEffects(a.ctx, effects, emit)
	}
}
