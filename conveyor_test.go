package conveyor_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/conveyor"
	"github.com/aretw0/conveyor/pkg/domain"
)

func TestConveyor_EndToEnd(t *testing.T) {
	c := conveyor.New(
		conveyor.WithActionInterval(time.Millisecond),
		conveyor.WithBufferInterval(500*time.Microsecond),
	)
	defer c.Close()

	require.True(t, c.IsComplete())

	c.Do(
		conveyor.Always([]int{1}),
		conveyor.Sleep(5*time.Millisecond),
		func(v conveyor.Value) (conveyor.Value, error) {
			return append(v.([]int), 2), nil
		},
		conveyor.Sleep(5*time.Millisecond),
	)
	require.NoError(t, c.Err())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	out, err := c.Await(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, out)
	assert.True(t, c.IsComplete())
}

func TestConveyor_DoAllRetainsEnqueueError(t *testing.T) {
	c := conveyor.New()
	defer c.Close()

	c.DoAll([]conveyor.Action{conveyor.Ident(), nil, conveyor.Ident()})

	err := c.Err()
	require.ErrorIs(t, err, domain.ErrInvalidAction)

	// Rejected before any queueing: the conveyor is still empty.
	assert.True(t, c.IsComplete())
}

func TestConveyor_SequenceBlocksLaterActions(t *testing.T) {
	c := conveyor.New(
		conveyor.WithActionInterval(time.Millisecond),
		conveyor.WithBufferInterval(500*time.Microsecond),
	)
	defer c.Close()

	order := make(chan string, 3)
	c.Do(
		conveyor.Sequence(
			conveyor.Tap(func(conveyor.Value) { order <- "seq-1" }),
			conveyor.Sleep(10*time.Millisecond),
			conveyor.Tap(func(conveyor.Value) { order <- "seq-2" }),
		),
		conveyor.Tap(func(conveyor.Value) { order <- "after" }),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, err := c.Await(ctx)
	require.NoError(t, err)

	assert.Equal(t, "seq-1", <-order)
	assert.Equal(t, "seq-2", <-order)
	assert.Equal(t, "after", <-order, "actions after a sequence start only once it settles")
}

func TestConveyor_ThenExposesCompletion(t *testing.T) {
	c := conveyor.New(
		conveyor.WithActionInterval(time.Millisecond),
		conveyor.WithBufferInterval(500*time.Microsecond),
	)
	defer c.Close()

	c.Do(conveyor.Always("result"))

	p := c.Then(func(v conveyor.Value) (conveyor.Value, error) {
		return v.(string) + "!", nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	v, err := p.Await(ctx)
	require.NoError(t, err)
	assert.Equal(t, "result!", v)
}

func TestIsConveyor(t *testing.T) {
	c := conveyor.New()
	defer c.Close()

	assert.True(t, conveyor.IsConveyor(c))
	assert.False(t, conveyor.IsConveyor("not a conveyor"))
	assert.False(t, conveyor.IsConveyor(nil))
}

func TestWithErrorHandlerReceivesFailure(t *testing.T) {
	handled := make(chan error, 1)
	c := conveyor.New(
		conveyor.WithActionInterval(time.Millisecond),
		conveyor.WithErrorHandler(func(err error) {
			select {
			case handled <- err:
			default:
			}
		}),
	)
	defer c.Close()

	c.Do(
		conveyor.Always(1),
		conveyor.Fail(assert.AnError),
	)

	select {
	case err := <-handled:
		require.ErrorIs(t, err, assert.AnError)
		var execErr *domain.ExecutionError
		assert.ErrorAs(t, err, &execErr)
	case <-time.After(5 * time.Second):
		t.Fatal("error handler was not invoked")
	}
}
