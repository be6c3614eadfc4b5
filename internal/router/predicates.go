package router

import (
	"strings"

	"github.com/iamwavecut/multibot/internal/event"
)

func Always() Predicate {
	return func(*event.Event) bool { return true }
}

func Kind(kinds ...event.Kind) Predicate {
	return func(ev *event.Event) bool {
		for _, k := range kinds {
			if ev.Kind == k {
				return true
			}
		}
		return false
	}
}

// Command matches command messages by token, case-insensitively.
func Command(names ...string) Predicate {
	return func(ev *event.Event) bool {
		if ev.Kind != event.KindCommand {
			return false
		}
		for _, name := range names {
			if strings.EqualFold(ev.Command, name) {
				return true
			}
		}
		return false
	}
}

func From(userID int64) Predicate {
	return func(ev *event.Event) bool { return ev.UserID == userID }
}

func ChatIs(types ...event.ChatType) Predicate {
	return func(ev *event.Event) bool {
		for _, t := range types {
			if ev.Chat == t {
				return true
			}
		}
		return false
	}
}

// TextPrefix matches free-text messages.
func TextPrefix(prefix string) Predicate {
	return func(ev *event.Event) bool {
		return ev.Kind == event.KindText && strings.HasPrefix(ev.Text, prefix)
	}
}

// DataPrefix matches callback data.
func DataPrefix(prefix string) Predicate {
	return func(ev *event.Event) bool {
		return ev.Kind == event.KindCallback && strings.HasPrefix(ev.Text, prefix)
	}
}

// QueryPrefix matches inline queries. The prefix must be followed by a space or
// end the query, so "st" does not match "status".
func QueryPrefix(prefix string) Predicate {
	return func(ev *event.Event) bool {
		if ev.Kind != event.KindInline {
			return false
		}
		q := strings.TrimSpace(ev.Text)
		if !strings.HasPrefix(q, prefix) {
			return false
		}
		rest := q[len(prefix):]
		return rest == "" || strings.HasPrefix(rest, " ")
	}
}

func All(preds ...Predicate) Predicate {
	return func(ev *event.Event) bool {
		for _, p := range preds {
			if !p(ev) {
				return false
			}
		}
		return true
	}
}

func Any(preds ...Predicate) Predicate {
	return func(ev *event.Event) bool {
		for _, p := range preds {
			if p(ev) {
				return true
			}
		}
		return false
	}
}

func Not(p Predicate) Predicate {
	return func(ev *event.Event) bool { return !p(ev) }
}
