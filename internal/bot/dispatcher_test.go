package bot

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	api "github.com/OvyFlash/telegram-bot-api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iamwavecut/multibot/internal/event"
	"github.com/iamwavecut/multibot/internal/gate"
)

type countingPipeline struct {
	mu       sync.Mutex
	inFlight int
	peak     int
	handled  atomic.Int64
	delay    time.Duration
}

func (p *countingPipeline) Handle(ctx context.Context, ev *event.Event) gate.Result {
	p.mu.Lock()
	p.inFlight++
	if p.inFlight > p.peak {
		p.peak = p.inFlight
	}
	p.mu.Unlock()

	time.Sleep(p.delay)

	p.mu.Lock()
	p.inFlight--
	p.mu.Unlock()
	p.handled.Add(1)
	return gate.Result{Matched: true}
}

func inlineUpdate(id int) api.Update {
	return api.Update{
		UpdateID:    id,
		InlineQuery: &api.InlineQuery{ID: "q", From: &api.User{ID: int64(id)}, Query: "st"},
	}
}

func TestDispatcherBoundsConcurrency(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	p := &countingPipeline{delay: 20 * time.Millisecond}
	d := NewDispatcher(p, 3, time.Minute)
	require.NoError(t, d.Start(ctx))

	for i := 1; i <= 12; i++ {
		u := inlineUpdate(i)
		require.NoError(t, d.Dispatch(ctx, &u))
	}

	stopCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	require.NoError(t, d.Stop(stopCtx))

	assert.EqualValues(t, 12, p.handled.Load())
	assert.LessOrEqual(t, p.peak, 3)
}

type stalledPipeline struct {
	settled chan struct{}
	handled atomic.Int64
}

func (p *stalledPipeline) Handle(context.Context, *event.Event) gate.Result {
	p.handled.Add(1)
	return gate.Result{Matched: true, Err: gate.ErrHandlerTimeout, Settled: p.settled}
}

func TestDispatcherHoldsSlotUntilHandlerSettles(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	p := &stalledPipeline{settled: make(chan struct{})}
	d := NewDispatcher(p, 1, time.Minute)
	require.NoError(t, d.Start(ctx))

	u := inlineUpdate(1)
	require.NoError(t, d.Dispatch(ctx, &u))

	short, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()
	u = inlineUpdate(2)
	assert.ErrorIs(t, d.Dispatch(short, &u), context.DeadlineExceeded)

	close(p.settled)
	waitCtx, cancelWait := context.WithTimeout(ctx, 5*time.Second)
	defer cancelWait()
	u = inlineUpdate(3)
	require.NoError(t, d.Dispatch(waitCtx, &u))
	require.NoError(t, d.Stop(waitCtx))
	assert.EqualValues(t, 2, p.handled.Load())
}

func TestDispatcherRejectsWhenStopped(t *testing.T) {
	t.Parallel()

	d := NewDispatcher(&countingPipeline{}, 1, time.Minute)
	u := inlineUpdate(1)
	assert.Error(t, d.Dispatch(context.Background(), &u))
}

func TestDispatcherSkipsUnsupportedUpdates(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	p := &countingPipeline{}
	d := NewDispatcher(p, 1, time.Minute)
	require.NoError(t, d.Start(ctx))
	require.NoError(t, d.Dispatch(ctx, &api.Update{UpdateID: 1}))
	require.NoError(t, d.Stop(ctx))
	assert.Zero(t, p.handled.Load())
}

func TestRunReturnsPollerError(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	p := &countingPipeline{}
	d := NewDispatcher(p, 2, time.Minute)
	require.NoError(t, d.Start(ctx))

	updates := make(chan api.Update, 2)
	errs := make(chan error, 1)
	updates <- inlineUpdate(1)
	updates <- inlineUpdate(2)
	close(updates)

	require.NoError(t, d.Run(ctx, updates, errs))
	require.NoError(t, d.Stop(ctx))
	assert.EqualValues(t, 2, p.handled.Load())

	errs2 := make(chan error, 1)
	errs2 <- context.Canceled
	require.NoError(t, d.Start(ctx))
	assert.ErrorIs(t, d.Run(ctx, make(chan api.Update), errs2), context.Canceled)
}
