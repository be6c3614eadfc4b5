package router

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "github.com/iamwavecut/multibot/internal/errors"
	"github.com/iamwavecut/multibot/internal/event"
)

func named(name string, calls *[]string) Handler {
	return func(context.Context, *event.Event) error {
		*calls = append(*calls, name)
		return nil
	}
}

func TestDispatchFirstRegisteredWins(t *testing.T) {
	t.Parallel()

	var calls []string
	table := NewTable()
	table.MustRegister("admin-ban", All(Command("ban"), From(42)), named("admin-ban", &calls))
	table.MustRegister("any-ban", Command("ban"), named("any-ban", &calls))
	table.MustRegister("fallback", Always(), named("fallback", &calls))

	route, ok := table.Dispatch(&event.Event{Kind: event.KindCommand, Command: "ban", UserID: 42})
	require.True(t, ok)
	assert.Equal(t, "admin-ban", route.Name)

	route, ok = table.Dispatch(&event.Event{Kind: event.KindCommand, Command: "ban", UserID: 7})
	require.True(t, ok)
	assert.Equal(t, "any-ban", route.Name)

	route, ok = table.Dispatch(&event.Event{Kind: event.KindText, Text: "hi"})
	require.True(t, ok)
	assert.Equal(t, "fallback", route.Name)

	require.NoError(t, route.Handler(context.Background(), nil))
	assert.Equal(t, []string{"fallback"}, calls)
}

func TestDispatchNoMatch(t *testing.T) {
	t.Parallel()

	table := NewTable()
	table.MustRegister("help", Command("help"), func(context.Context, *event.Event) error { return nil })

	_, ok := table.Dispatch(&event.Event{Kind: event.KindInline, Text: "help"})
	assert.False(t, ok)

	_, ok = table.Dispatch(nil)
	assert.False(t, ok)
}

func TestRegisterAfterDispatchIsRejected(t *testing.T) {
	t.Parallel()

	table := NewTable()
	noop := func(context.Context, *event.Event) error { return nil }
	require.NoError(t, table.Register("one", Always(), noop))
	table.Dispatch(&event.Event{})

	err := table.Register("two", Always(), noop)
	require.ErrorIs(t, err, errs.ErrSealed)
	assert.Equal(t, []string{"one"}, table.Names())
}

func TestRegisterRejectsNil(t *testing.T) {
	t.Parallel()

	table := NewTable()
	require.ErrorIs(t, table.Register("nil", nil, nil), errs.ErrInvalidInput)
	assert.Zero(t, table.Len())
}

func TestPredicates(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		pred Predicate
		ev   event.Event
		want bool
	}{
		{"command-case-insensitive", Command("Help"), event.Event{Kind: event.KindCommand, Command: "help"}, true},
		{"command-not-text", Command("help"), event.Event{Kind: event.KindText, Text: "/help"}, false},
		{"query-prefix-exact", QueryPrefix("sys"), event.Event{Kind: event.KindInline, Text: "sys"}, true},
		{"query-prefix-with-args", QueryPrefix("st"), event.Event{Kind: event.KindInline, Text: "st example.com"}, true},
		{"query-prefix-not-word", QueryPrefix("st"), event.Event{Kind: event.KindInline, Text: "status"}, false},
		{"query-prefix-wrong-kind", QueryPrefix("st"), event.Event{Kind: event.KindText, Text: "st x"}, false},
		{"data-prefix", DataPrefix("lang_"), event.Event{Kind: event.KindCallback, Text: "lang_ru"}, true},
		{"text-prefix", TextPrefix("hello"), event.Event{Kind: event.KindText, Text: "hello there"}, true},
		{"chat-is", ChatIs(event.ChatPrivate), event.Event{Chat: event.ChatGroup}, false},
		{"kind-many", Kind(event.KindCallback, event.KindInline), event.Event{Kind: event.KindInline}, true},
		{"not", Not(From(1)), event.Event{UserID: 2}, true},
		{"any", Any(From(1), From(2)), event.Event{UserID: 2}, true},
		{"all-empty", All(), event.Event{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ev := tt.ev
			assert.Equal(t, tt.want, tt.pred(&ev))
		})
	}
}
