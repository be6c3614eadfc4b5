package bot

import (
	"context"
	"sync"
	"time"

	api "github.com/OvyFlash/telegram-bot-api"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"

	"github.com/iamwavecut/multibot/internal/event"
	"github.com/iamwavecut/multibot/internal/gate"
)

type pipeline interface {
	Handle(ctx context.Context, ev *event.Event) gate.Result
}

// Dispatcher feeds updates into the pipeline, one goroutine per event, bounded
// by a weighted semaphore so a burst cannot exhaust the process.
type Dispatcher struct {
	pipeline pipeline
	sem      *semaphore.Weighted
	maxAge   time.Duration
	now      func() time.Time
	logger   *log.Entry

	runMutex  sync.Mutex
	started   bool
	runCtx    context.Context
	runCancel context.CancelFunc
	workersWg sync.WaitGroup
}

func NewDispatcher(p pipeline, maxConcurrency int64, maxAge time.Duration) *Dispatcher {
	if maxConcurrency <= 0 {
		maxConcurrency = 1
	}
	return &Dispatcher{
		pipeline: p,
		sem:      semaphore.NewWeighted(maxConcurrency),
		maxAge:   maxAge,
		now:      time.Now,
		logger:   log.WithField("object", "Dispatcher"),
	}
}

func (d *Dispatcher) Start(ctx context.Context) error {
	d.runMutex.Lock()
	defer d.runMutex.Unlock()
	if d.started {
		return nil
	}
	d.runCtx, d.runCancel = context.WithCancel(context.WithoutCancel(ctx))
	d.started = true
	return nil
}

// Stop waits for in-flight events, then cancels whatever is still running when
// ctx expires.
func (d *Dispatcher) Stop(ctx context.Context) error {
	d.runMutex.Lock()
	if !d.started {
		d.runMutex.Unlock()
		return nil
	}
	d.started = false
	cancel := d.runCancel
	d.runMutex.Unlock()

	done := make(chan struct{})
	go func() {
		defer close(done)
		d.workersWg.Wait()
	}()

	select {
	case <-done:
		cancel()
		return nil
	case <-ctx.Done():
		cancel()
		return ctx.Err()
	}
}

// Dispatch converts u and schedules it. It blocks while all worker slots are busy.
func (d *Dispatcher) Dispatch(ctx context.Context, u *api.Update) error {
	ev, ok := FromUpdate(u, d.maxAge, d.now())
	if !ok {
		d.logger.WithField("update_id", updateID(u)).Trace("skipping update")
		return nil
	}

	d.runMutex.Lock()
	if !d.started {
		d.runMutex.Unlock()
		return errors.New("dispatcher is not started")
	}
	runCtx := d.runCtx
	d.workersWg.Add(1)
	d.runMutex.Unlock()

	if err := d.sem.Acquire(ctx, 1); err != nil {
		d.workersWg.Done()
		return errors.WithMessage(err, "cant acquire worker slot")
	}

	go func() {
		defer d.workersWg.Done()
		defer d.sem.Release(1)
		res := d.pipeline.Handle(runCtx, ev)
		entry := d.logger.WithFields(log.Fields{
			"event_id": ev.ID,
			"user_id":  ev.UserID,
			"kind":     ev.Kind,
		})
		switch {
		case res.DeniedBy != "":
			entry.WithField("stage", res.DeniedBy).Trace("event denied")
		case res.Err != nil:
			entry.WithField("route", res.Route).Debug("event failed")
		case res.Matched:
			entry.WithField("route", res.Route).Trace("event handled")
		}
		// A timed-out handler keeps its slot until its goroutine exits.
		if res.Settled != nil {
			<-res.Settled
		}
	}()
	return nil
}

// Run dispatches updates until the channel closes or ctx is done, returning the
// poller's terminal error.
func (d *Dispatcher) Run(ctx context.Context, updates <-chan api.Update, errs <-chan error) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err, ok := <-errs:
			if !ok {
				return nil
			}
			return errors.WithMessage(err, "polling stopped")
		case u, ok := <-updates:
			if !ok {
				return nil
			}
			if err := d.Dispatch(ctx, &u); err != nil {
				return err
			}
		}
	}
}

func updateID(u *api.Update) int {
	if u == nil {
		return 0
	}
	return u.UpdateID
}
