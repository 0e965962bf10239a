package actor_test

import (
	"context"
	"testing"
	"time"

	"github.com/kindredapp/kindred/internal/actor"
	"github.com/kindredapp/kindred/internal/actor/actortest"
	"github.com/stretchr/testify/require"
)

type testEvent struct {
	actor.InputBase
	n int
}

type testEffect struct {
	actor.EffectBase
	n int
}

func sumReducer(state int, input actor.Input) (int, []actor.Effect) {
	ev, ok := input.(testEvent)
	if !ok {
		return state, nil
	}
	if ev.n < 0 {
		panic("negative")
	}
	return state + ev.n, []actor.Effect{testEffect{n: ev.n}}
}

func TestActorProcessesInputsSequentially(t *testing.T) {
	t.Parallel()

	rt := &actortest.FakeRuntime{}
	a := actor.New[int](0, sumReducer, rt)
	a.Start()
	defer a.Stop()

	for i := 1; i <= 5; i++ {
		require.True(t, a.Enqueue(testEvent{n: i}))
	}
	require.NoError(t, a.Sync(context.Background()))

	require.Equal(t, 15, a.State())
	effects := rt.Effects()
	require.Len(t, effects, 5)
	for i, eff := range effects {
		require.Equal(t, i+1, eff.(testEffect).n)
	}
}

func TestActorObserversSeeEveryTransitionInOrder(t *testing.T) {
	t.Parallel()

	a := actor.New[int](0, sumReducer, &actortest.FakeRuntime{})
	a.Start()
	defer a.Stop()

	var seen []int
	cancel := a.Observe(func(prev, next int, _ actor.Input) {
		seen = append(seen, next-prev)
	})

	a.Enqueue(testEvent{n: 1})
	a.Enqueue(testEvent{n: 2})
	require.NoError(t, a.Sync(context.Background()))

	cancel()
	cancel()
	a.Enqueue(testEvent{n: 3})
	require.NoError(t, a.Sync(context.Background()))

	require.Equal(t, []int{1, 2}, seen)
	require.Equal(t, 6, a.State())
}

func TestActorRuntimeFollowUpInputs(t *testing.T) {
	t.Parallel()

	rt := &actortest.FakeRuntime{}
	// Every effect with n > 1 answers with an event for n-1.
	rt.Reply = func(eff actor.Effect) []actor.Input {
		if te := eff.(testEffect); te.n > 1 {
			return []actor.Input{testEvent{n: te.n - 1}}
		}
		return nil
	}
	a := actor.New[int](0, sumReducer, rt)
	a.Start()
	defer a.Stop()

	a.Enqueue(testEvent{n: 3})
	require.Eventually(t, func() bool { return a.State() == 6 }, 2*time.Second, 5*time.Millisecond)
}

func TestActorStopStopsRuntime(t *testing.T) {
	t.Parallel()

	rt := &actortest.FakeRuntime{}
	a := actor.New[int](0, sumReducer, rt)
	a.Start()

	a.Enqueue(testEvent{n: 2})
	a.Enqueue(testEvent{n: 5})
	require.NoError(t, a.Sync(context.Background()))

	got := actortest.EffectsOf[testEffect](rt.Take())
	require.Equal(t, []testEffect{{n: 2}, {n: 5}}, got)
	require.Empty(t, rt.Effects())

	require.False(t, rt.Stopped())
	a.Stop()
	require.True(t, rt.Stopped())
	require.False(t, a.Enqueue(testEvent{n: 1}))
}

func TestActorRecoversWithPanicHook(t *testing.T) {
	t.Parallel()

	panics := make(chan any, 1)
	a := actor.New[int](0, sumReducer, nil, actor.WithHooks(actor.Hooks[int]{
		OnPanic: func(r any) { panics <- r },
	}))
	a.Start()
	defer a.Stop()

	a.Enqueue(testEvent{n: -1})
	a.Enqueue(testEvent{n: 4})
	require.NoError(t, a.Sync(context.Background()))

	require.Equal(t, "negative", <-panics)
	require.Equal(t, 4, a.State())
}

func TestActorStopRejectsInputs(t *testing.T) {
	t.Parallel()

	a := actor.New[int](0, sumReducer, nil)
	a.Start()
	a.Stop()

	select {
	case <-a.Done():
	case <-time.After(2 * time.Second):
		t.Fatalf("actor loop did not exit")
	}
	require.False(t, a.Enqueue(testEvent{n: 1}))
	require.ErrorIs(t, a.Sync(context.Background()), actor.ErrStopped)
}

func TestReplay(t *testing.T) {
	t.Parallel()

	state, effects := actor.Replay(10, sumReducer, testEvent{n: 1}, testEvent{n: 2})
	require.Equal(t, 13, state)
	require.Len(t, effects, 2)

	next, effs := actor.Step(state, testEvent{n: 7}, sumReducer)
	require.Equal(t, 20, next)
	require.Equal(t, []actor.Effect{testEffect{n: 7}}, effs)
}
