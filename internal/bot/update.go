package bot

import (
	"strings"
	"time"

	api "github.com/OvyFlash/telegram-bot-api"
	"github.com/pborman/uuid"

	"github.com/iamwavecut/multibot/internal/event"
)

// FromUpdate converts a Telegram update into an event. Updates of kinds the
// pipeline does not serve, and message updates older than maxAge, are reported
// as not ok.
func FromUpdate(u *api.Update, maxAge time.Duration, now time.Time) (*event.Event, bool) {
	if u == nil {
		return nil, false
	}
	ev := &event.Event{
		ID:         uuid.New(),
		ReceivedAt: now,
	}

	switch {
	case u.Message != nil:
		msg := u.Message
		if msg.From == nil {
			return nil, false
		}
		if maxAge > 0 && now.Sub(time.Unix(int64(msg.Date), 0)) > maxAge {
			return nil, false
		}
		fillUser(ev, msg.From)
		ev.Chat = chatType(&msg.Chat)
		ev.ChatID = msg.Chat.ID
		ev.MessageID = msg.MessageID
		ev.Text = messageText(msg)
		ev.Kind = event.KindText
		if msg.IsCommand() {
			ev.Kind = event.KindCommand
			ev.Command = strings.ToLower(msg.Command())
			ev.Args = strings.TrimSpace(msg.CommandArguments())
		}

	case u.CallbackQuery != nil:
		cq := u.CallbackQuery
		if cq.From == nil {
			return nil, false
		}
		fillUser(ev, cq.From)
		ev.Kind = event.KindCallback
		ev.Chat = event.ChatOther
		if cq.Message != nil {
			ev.Chat = chatType(&cq.Message.Chat)
			ev.ChatID = cq.Message.Chat.ID
			ev.MessageID = cq.Message.MessageID
		}
		ev.Text = cq.Data
		ev.RefID = cq.ID

	case u.InlineQuery != nil:
		iq := u.InlineQuery
		if iq.From == nil {
			return nil, false
		}
		fillUser(ev, iq.From)
		ev.Kind = event.KindInline
		ev.Chat = event.ChatOther
		ev.Text = strings.TrimSpace(iq.Query)
		ev.RefID = iq.ID

	default:
		return nil, false
	}

	return ev, true
}

func fillUser(ev *event.Event, user *api.User) {
	ev.UserID = user.ID
	ev.UserName = user.UserName
	ev.FirstName = user.FirstName
	ev.LastName = user.LastName
}

func chatType(chat *api.Chat) event.ChatType {
	switch chat.Type {
	case "private":
		return event.ChatPrivate
	case "group", "supergroup":
		return event.ChatGroup
	default:
		return event.ChatOther
	}
}

func messageText(msg *api.Message) string {
	text := strings.TrimSpace(msg.Text)
	if text == "" {
		text = strings.TrimSpace(msg.Caption)
	}
	return text
}
