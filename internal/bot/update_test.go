package bot

import (
	"testing"
	"time"

	api "github.com/OvyFlash/telegram-bot-api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iamwavecut/multibot/internal/event"
)

var testNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func commandMessage(chatType, text string) *api.Message {
	cmdLen := len(text)
	for i, r := range text {
		if r == ' ' {
			cmdLen = i
			break
		}
	}
	return &api.Message{
		MessageID: 10,
		Date:      int(testNow.Unix()),
		From:      &api.User{ID: 42, UserName: "neo", FirstName: "Thomas"},
		Chat:      api.Chat{ID: 100, Type: chatType},
		Text:      text,
		Entities:  []api.MessageEntity{{Type: "bot_command", Offset: 0, Length: cmdLen}},
	}
}

func TestFromUpdate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		update *api.Update
		ok     bool
		check  func(t *testing.T, ev *event.Event)
	}{
		{
			name:   "private command",
			update: &api.Update{Message: commandMessage("private", "/Ban@multibot 555 spam")},
			ok:     true,
			check: func(t *testing.T, ev *event.Event) {
				assert.Equal(t, event.KindCommand, ev.Kind)
				assert.Equal(t, event.ChatPrivate, ev.Chat)
				assert.Equal(t, "ban", ev.Command)
				assert.Equal(t, "555 spam", ev.Args)
				assert.EqualValues(t, 42, ev.UserID)
				assert.EqualValues(t, 100, ev.ChatID)
				assert.NotEmpty(t, ev.ID)
			},
		},
		{
			name:   "supergroup command",
			update: &api.Update{Message: commandMessage("supergroup", "/help")},
			ok:     true,
			check: func(t *testing.T, ev *event.Event) {
				assert.Equal(t, event.ChatGroup, ev.Chat)
				assert.Equal(t, "help", ev.Command)
			},
		},
		{
			name: "plain text with caption",
			update: &api.Update{Message: &api.Message{
				Date:    int(testNow.Unix()),
				From:    &api.User{ID: 1},
				Chat:    api.Chat{ID: 1, Type: "private"},
				Caption: " look ",
			}},
			ok: true,
			check: func(t *testing.T, ev *event.Event) {
				assert.Equal(t, event.KindText, ev.Kind)
				assert.Equal(t, "look", ev.Text)
			},
		},
		{
			name: "outdated message",
			update: &api.Update{Message: &api.Message{
				Date: int(testNow.Add(-time.Hour).Unix()),
				From: &api.User{ID: 1},
				Chat: api.Chat{ID: 1, Type: "private"},
				Text: "hello",
			}},
			ok: false,
		},
		{
			name: "callback",
			update: &api.Update{CallbackQuery: &api.CallbackQuery{
				ID:      "cb1",
				From:    &api.User{ID: 7},
				Data:    "lang_ru",
				Message: &api.Message{MessageID: 3, Chat: api.Chat{ID: 7, Type: "private"}},
			}},
			ok: true,
			check: func(t *testing.T, ev *event.Event) {
				assert.Equal(t, event.KindCallback, ev.Kind)
				assert.Equal(t, event.ChatPrivate, ev.Chat)
				assert.Equal(t, "lang_ru", ev.Text)
				assert.Equal(t, "cb1", ev.RefID)
				assert.Equal(t, 3, ev.MessageID)
			},
		},
		{
			name: "inline query",
			update: &api.Update{InlineQuery: &api.InlineQuery{
				ID:    "iq1",
				From:  &api.User{ID: 9},
				Query: " tr hola ",
			}},
			ok: true,
			check: func(t *testing.T, ev *event.Event) {
				assert.Equal(t, event.KindInline, ev.Kind)
				assert.Equal(t, event.ChatOther, ev.Chat)
				assert.Equal(t, "tr hola", ev.Text)
			},
		},
		{
			name:   "message without sender",
			update: &api.Update{Message: &api.Message{Date: int(testNow.Unix()), Chat: api.Chat{ID: 1, Type: "channel"}}},
			ok:     false,
		},
		{
			name:   "unsupported kind",
			update: &api.Update{EditedMessage: commandMessage("private", "/start")},
			ok:     false,
		},
		{
			name:   "nil",
			update: nil,
			ok:     false,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ev, ok := FromUpdate(tt.update, 5*time.Minute, testNow)
			require.Equal(t, tt.ok, ok)
			if tt.check != nil {
				tt.check(t, ev)
			}
		})
	}
}
