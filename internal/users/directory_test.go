package users

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iamwavecut/multibot/internal/db"
	"github.com/iamwavecut/multibot/internal/db/sqlite"
	errs "github.com/iamwavecut/multibot/internal/errors"
	"github.com/iamwavecut/multibot/internal/event"
)

type brokenStore struct{}

func (brokenStore) GetUserSettings(context.Context, int64) (*db.UserSettings, error) {
	return nil, errors.New("boom")
}
func (brokenStore) SetUserSettings(context.Context, *db.UserSettings) error { return errors.New("boom") }
func (brokenStore) InsertInteraction(context.Context, *db.Interaction) error {
	return errors.New("boom")
}
func (brokenStore) GetStats(context.Context) (*db.Stats, error) { return nil, errors.New("boom") }
func (brokenStore) GetLastInteraction(context.Context, int64) (*db.Interaction, error) {
	return nil, errors.New("boom")
}

func newDirectory(t *testing.T) *Directory {
	t.Helper()

	client, err := sqlite.NewSQLiteClient(context.Background(), t.TempDir(), "test.db")
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return NewDirectory(client, nil, nil)
}

func TestLanguageDefaultsAndUpdates(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	d := newDirectory(t)

	assert.Equal(t, "en", d.GetLanguage(ctx, 1))
	require.NoError(t, d.SetLanguage(ctx, 1, "RU"))
	assert.Equal(t, "ru", d.GetLanguage(ctx, 1))

	err := d.SetLanguage(ctx, 1, "xx")
	require.ErrorIs(t, err, errs.ErrInvalidInput)
	assert.Equal(t, "ru", d.GetLanguage(ctx, 1))
}

func TestStoreFailuresAreSwallowed(t *testing.T) {
	t.Parallel()

	d := NewDirectory(brokenStore{}, nil, nil)
	ctx := context.Background()

	assert.NotPanics(t, func() {
		d.LogInteraction(ctx, &event.Event{UserID: 1, Kind: event.KindText})
	})
	assert.Equal(t, "en", d.GetLanguage(ctx, 1))
	_, err := d.Stats(ctx)
	assert.Error(t, err)
}

func TestLogInteractionFeedsStats(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	d := newDirectory(t)

	now := time.Now()
	d.LogInteraction(ctx, &event.Event{UserID: 1, Kind: event.KindCommand, Command: "help", ReceivedAt: now})
	d.LogInteraction(ctx, &event.Event{UserID: 1, Kind: event.KindInline, Text: "st x", ReceivedAt: now})
	d.LogInteraction(ctx, &event.Event{UserID: 2, Kind: event.KindCallback, Text: "lang_ru", ReceivedAt: now})

	stats, err := d.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.Interactions)
	assert.Equal(t, int64(2), stats.Users)
}

func TestInteractionFromEvent(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		ev          event.Event
		wantCommand string
		wantChat    string
	}{
		{"command", event.Event{Kind: event.KindCommand, Command: "start", Chat: event.ChatPrivate}, "/start", "private"},
		{"text", event.Event{Kind: event.KindText, Chat: event.ChatGroup}, "", "group"},
		{"callback", event.Event{Kind: event.KindCallback, Chat: event.ChatPrivate}, "callback", "callback"},
		{"inline", event.Event{Kind: event.KindInline, Chat: event.ChatOther}, "inline", "inline"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ev := tt.ev
			got := InteractionFromEvent(&ev)
			assert.Equal(t, tt.wantCommand, got.Command)
			assert.Equal(t, tt.wantChat, got.ChatType)
		})
	}
}
