package conveyor_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/conveyor"
	"github.com/aretw0/conveyor/pkg/domain"
	"github.com/aretw0/conveyor/pkg/promise"
)

// settle invokes a and resolves whatever it produced, plain or deferred.
func settle(t *testing.T, a conveyor.Action, in conveyor.Value) conveyor.Value {
	t.Helper()
	out, err := a(in)
	require.NoError(t, err)
	if p, ok := out.(*promise.Promise); ok {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		v, err := p.Await(ctx)
		require.NoError(t, err)
		return v
	}
	return out
}

func TestSequenceSynchronous(t *testing.T) {
	seq := conveyor.Sequence(
		func(v conveyor.Value) (conveyor.Value, error) { return v.(int) + 1, nil },
		func(v conveyor.Value) (conveyor.Value, error) { return v.(int) * 10, nil },
	)

	out, err := seq(1)
	require.NoError(t, err)

	// A wholly synchronous run still returns chain-shaped output.
	p, ok := out.(*promise.Promise)
	require.True(t, ok, "synchronous sequence must wrap its result in a resolved promise")
	require.True(t, p.Settled())

	v, err := p.Await(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 20, v)
}

func TestSequenceSwitchesToAsync(t *testing.T) {
	var order []string
	var mu sync.Mutex
	mark := func(s string) {
		mu.Lock()
		order = append(order, s)
		mu.Unlock()
	}

	seq := conveyor.Sequence(
		func(v conveyor.Value) (conveyor.Value, error) {
			mark("sync")
			return v, nil
		},
		conveyor.Sleep(5*time.Millisecond),
		func(v conveyor.Value) (conveyor.Value, error) {
			mark("after-delay")
			return v.(int) + 1, nil
		},
	)

	v := settle(t, seq, 41)
	assert.Equal(t, 42, v)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"sync", "after-delay"}, order)
}

func TestSequenceFirstActionGetsCompositeInput(t *testing.T) {
	seq := conveyor.Sequence(
		func(v conveyor.Value) (conveyor.Value, error) { return v, nil },
	)
	assert.Equal(t, "input", settle(t, seq, "input"))
}

func TestSequenceStopsOnError(t *testing.T) {
	boom := errors.New("boom")
	var reached atomic.Bool

	seq := conveyor.Sequence(
		conveyor.Fail(boom),
		conveyor.Tap(func(conveyor.Value) { reached.Store(true) }),
	)

	_, err := seq(nil)
	require.ErrorIs(t, err, boom)
	assert.False(t, reached.Load(), "actions after a synchronous failure must not run")
}

func TestSequenceRejectsNilActions(t *testing.T) {
	seq := conveyor.Sequence(conveyor.Ident(), nil)

	_, err := seq(nil)
	require.ErrorIs(t, err, domain.ErrInvalidAction)
}

func TestWhenShortCircuits(t *testing.T) {
	var ran atomic.Bool
	gated := conveyor.When(
		func(conveyor.Value) conveyor.Value { return false },
		conveyor.Tap(func(conveyor.Value) { ran.Store(true) }),
	)

	v := settle(t, gated, "untouched")
	assert.Equal(t, "untouched", v, "input must pass through unchanged")
	assert.False(t, ran.Load(), "gated action must never be invoked")
}

func TestWhenRunsActionsOnPass(t *testing.T) {
	gated := conveyor.When(
		func(v conveyor.Value) conveyor.Value { return v },
		func(v conveyor.Value) (conveyor.Value, error) { return v.(int) * 2, nil },
	)
	assert.Equal(t, 6, settle(t, gated, 3))
}

func TestWhenTreatsFalsyButDefinedAsPass(t *testing.T) {
	// 0 and "" open the gate; only nil and false short-circuit.
	for _, predResult := range []conveyor.Value{0, ""} {
		gated := conveyor.When(
			func(conveyor.Value) conveyor.Value { return predResult },
			conveyor.Always("ran"),
		)
		assert.Equal(t, "ran", settle(t, gated, nil), "predicate result %#v must pass", predResult)
	}
}

func TestUnlessInvertsThePredicate(t *testing.T) {
	var ran atomic.Bool
	gated := conveyor.Unless(
		func(conveyor.Value) conveyor.Value { return true },
		conveyor.Tap(func(conveyor.Value) { ran.Store(true) }),
	)

	v := settle(t, gated, 7)
	assert.Equal(t, 7, v)
	assert.False(t, ran.Load())

	ranOnFalse := conveyor.Unless(
		func(conveyor.Value) conveyor.Value { return false },
		conveyor.Always("ran"),
	)
	assert.Equal(t, "ran", settle(t, ranOnFalse, nil))
}

func TestSimultaneouslyFiresAllWithoutWaiting(t *testing.T) {
	var started atomic.Int32
	release := make(chan struct{})

	slow := func(conveyor.Value) (conveyor.Value, error) {
		started.Add(1)
		<-release
		return nil, nil
	}

	par := conveyor.Simultaneously(slow, slow, slow)

	out, err := par("shared")
	require.NoError(t, err)
	assert.Nil(t, out, "the composite itself has no result")

	// All three must begin without any of them finishing.
	require.Eventually(t, func() bool {
		return started.Load() == 3
	}, 5*time.Second, time.Millisecond)
	close(release)
}

func TestSimultaneouslyPassesSameInput(t *testing.T) {
	var mu sync.Mutex
	var got []conveyor.Value

	collect := func(v conveyor.Value) (conveyor.Value, error) {
		mu.Lock()
		got = append(got, v)
		mu.Unlock()
		return nil, nil
	}

	par := conveyor.Simultaneously(collect, collect)
	_, err := par("x")
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 2
	}, 5*time.Second, time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []conveyor.Value{"x", "x"}, got)
}

func TestSimultaneouslyRejectsNilActions(t *testing.T) {
	par := conveyor.Simultaneously(conveyor.Ident(), nil)
	_, err := par(nil)
	require.ErrorIs(t, err, domain.ErrInvalidAction)
}
