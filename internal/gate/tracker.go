package gate

import (
	"context"
	"math"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/iamwavecut/multibot/internal/event"
)

// Decision is the outcome of a tracker check.
type Decision struct {
	Allowed   bool
	Remaining time.Duration
}

// RemainingSeconds is the remaining wait rounded to one decimal.
func (d Decision) RemainingSeconds() float64 {
	return math.Round(d.Remaining.Seconds()*10) / 10
}

// Tracker enforces minimum spacing between events of one class from one user.
type Tracker interface {
	CheckAndRecord(ctx context.Context, userID int64, class event.Class, now time.Time) (Decision, error)
	Threshold(class event.Class) time.Duration
}

type intervalTracker struct {
	name       string
	thresholds map[event.Class]time.Duration
	entries    timestamps
	idle       time.Duration
	logger     *log.Entry

	runMutex  sync.Mutex
	started   bool
	runCancel context.CancelFunc
	workersWg sync.WaitGroup
}

func newIntervalTracker(name string, thresholds map[event.Class]time.Duration, idle time.Duration) *intervalTracker {
	return &intervalTracker{
		name:       name,
		thresholds: thresholds,
		idle:       idle,
		logger:     log.WithField("object", name),
	}
}

func (t *intervalTracker) Threshold(class event.Class) time.Duration {
	return t.thresholds[class]
}

func (t *intervalTracker) CheckAndRecord(ctx context.Context, userID int64, class event.Class, now time.Time) (Decision, error) {
	if err := ctx.Err(); err != nil {
		return Decision{}, err
	}
	interval := t.thresholds[class]
	if interval <= 0 {
		return Decision{Allowed: true}, nil
	}
	allowed, remaining := t.entries.checkAndRecord(slotKey{userID: userID, class: class}, interval, now)
	return Decision{Allowed: allowed, Remaining: remaining}, nil
}

// Start runs a janitor that forgets users idle for longer than the idle TTL.
func (t *intervalTracker) Start(ctx context.Context) error {
	t.runMutex.Lock()
	defer t.runMutex.Unlock()
	if t.started || t.idle <= 0 {
		return nil
	}

	runCtx, cancel := context.WithCancel(ctx)
	t.runCancel = cancel

	t.workersWg.Add(1)
	go func() {
		defer t.workersWg.Done()
		ticker := time.NewTicker(t.idle)
		defer ticker.Stop()
		for {
			select {
			case <-runCtx.Done():
				return
			case now := <-ticker.C:
				if n := t.entries.sweep(t.idle, now); n > 0 {
					t.logger.WithField("removed", n).Trace("swept idle entries")
				}
			}
		}
	}()

	t.started = true
	return nil
}

func (t *intervalTracker) Stop(ctx context.Context) error {
	t.runMutex.Lock()
	if !t.started {
		t.runMutex.Unlock()
		return nil
	}
	t.started = false
	cancel := t.runCancel
	t.runMutex.Unlock()

	if cancel != nil {
		cancel()
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		t.workersWg.Wait()
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}

// CooldownTracker spaces private-chat commands and inline queries.
type CooldownTracker struct {
	*intervalTracker
}

func NewCooldownTracker(command, inline, idle time.Duration) *CooldownTracker {
	return &CooldownTracker{newIntervalTracker("CooldownTracker", map[event.Class]time.Duration{
		event.ClassCommand: command,
		event.ClassInline:  inline,
	}, idle)}
}

// FloodTracker is the coarser throttle over all messages and inline queries.
type FloodTracker struct {
	*intervalTracker
}

func NewFloodTracker(message, inline, idle time.Duration) *FloodTracker {
	return &FloodTracker{newIntervalTracker("FloodTracker", map[event.Class]time.Duration{
		event.ClassMessage: message,
		event.ClassInline:  inline,
	}, idle)}
}
