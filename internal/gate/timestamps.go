package gate

import (
	"sync"
	"time"

	"github.com/iamwavecut/multibot/internal/event"
)

type slotKey struct {
	userID int64
	class  event.Class
}

type slot struct {
	mu   sync.Mutex
	last time.Time
}

// timestamps is a per-key last-seen register. Each key has its own lock, so
// unrelated users never contend.
type timestamps struct {
	slots sync.Map
}

// checkAndRecord admits when at least interval passed since the last admitted
// event for key, and records now. The stored value never moves backwards.
func (t *timestamps) checkAndRecord(key slotKey, interval time.Duration, now time.Time) (bool, time.Duration) {
	v, _ := t.slots.LoadOrStore(key, &slot{})
	s := v.(*slot)

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.last.IsZero() {
		elapsed := now.Sub(s.last)
		if elapsed < interval {
			remaining := interval - elapsed
			if remaining > interval {
				remaining = interval
			}
			return false, remaining
		}
	}
	if now.After(s.last) {
		s.last = now
	}
	return true, 0
}

// sweep drops keys idle for longer than idle and returns how many were removed.
func (t *timestamps) sweep(idle time.Duration, now time.Time) int {
	removed := 0
	t.slots.Range(func(k, v any) bool {
		s := v.(*slot)
		s.mu.Lock()
		stale := now.Sub(s.last) > idle
		s.mu.Unlock()
		if stale && t.slots.CompareAndDelete(k, v) {
			removed++
		}
		return true
	})
	return removed
}

func (t *timestamps) len() int {
	n := 0
	t.slots.Range(func(any, any) bool {
		n++
		return true
	})
	return n
}
