package router

import (
	"context"
	"sync/atomic"

	"github.com/pkg/errors"

	"github.com/iamwavecut/multibot/internal/event"
	errs "github.com/iamwavecut/multibot/internal/errors"
)

type (
	// Handler serves an admitted event.
	Handler func(ctx context.Context, ev *event.Event) error

	// Predicate is a pure function of event metadata.
	Predicate func(ev *event.Event) bool

	Route struct {
		Name    string
		Match   Predicate
		Handler Handler
	}

	// Table is an ordered, first-match-wins route table. It is built once at
	// startup and sealed before the first dispatch.
	Table struct {
		routes []Route
		sealed atomic.Bool
	}
)

func NewTable() *Table {
	return &Table{}
}

// Register appends a route. Registering after Seal is a programming error.
func (t *Table) Register(name string, match Predicate, handler Handler) error {
	if t.sealed.Load() {
		return errors.WithMessage(errs.ErrSealed, name)
	}
	if match == nil || handler == nil {
		return errors.WithMessagef(errs.ErrInvalidInput, "route %q has nil predicate or handler", name)
	}
	t.routes = append(t.routes, Route{Name: name, Match: match, Handler: handler})
	return nil
}

// MustRegister is Register for static route tables.
func (t *Table) MustRegister(name string, match Predicate, handler Handler) {
	if err := t.Register(name, match, handler); err != nil {
		panic(err)
	}
}

func (t *Table) Seal() {
	t.sealed.Store(true)
}

func (t *Table) Len() int {
	return len(t.routes)
}

// Names lists registered routes in evaluation order.
func (t *Table) Names() []string {
	names := make([]string, 0, len(t.routes))
	for _, r := range t.routes {
		names = append(names, r.Name)
	}
	return names
}

// Dispatch returns the first route whose predicate matches. ok=false means the
// event is intentionally unhandled.
func (t *Table) Dispatch(ev *event.Event) (Route, bool) {
	if ev == nil {
		return Route{}, false
	}
	t.sealed.Store(true)
	for _, r := range t.routes {
		if r.Match(ev) {
			return r, true
		}
	}
	return Route{}, false
}
