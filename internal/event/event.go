package event

import (
	"context"
	"time"
)

type (
	// Kind discriminates inbound events.
	Kind string

	// ChatType is the context the event originated in.
	ChatType string

	// Class selects throttling thresholds.
	Class string
)

const (
	KindCommand  Kind = "command"
	KindText     Kind = "text"
	KindCallback Kind = "callback"
	KindInline   Kind = "inline"

	ChatPrivate ChatType = "private"
	ChatGroup   ChatType = "group"
	ChatOther   ChatType = "other"

	ClassCommand Class = "command"
	ClassMessage Class = "message"
	ClassInline  Class = "inline"
)

// Event is a transport-neutral inbound update.
type Event struct {
	ID        string
	Kind      Kind
	Chat      ChatType
	ChatID    int64
	MessageID int

	UserID    int64
	UserName  string
	FirstName string
	LastName  string

	// Command is the bare command token without the leading slash or bot mention.
	Command string
	Args    string
	// Text is the raw message text, callback data or inline query.
	Text string
	// RefID is the callback or inline query id needed to answer it.
	RefID string

	ReceivedAt time.Time
}

// IsMessage reports whether the event arrived as a chat message.
func (e *Event) IsMessage() bool {
	return e.Kind == KindCommand || e.Kind == KindText
}

// DisplayName returns @username, or the full name when no username is set.
func (e *Event) DisplayName() string {
	if e.UserName != "" {
		return "@" + e.UserName
	}
	name := e.FirstName
	if e.LastName != "" {
		if name != "" {
			name += " "
		}
		name += e.LastName
	}
	return name
}

// Notice is a short user-facing message produced by a gate or the chain boundary.
type Notice struct {
	Text  string
	Alert bool
}

// InlineResult is a single answer to an inline query. It is an article unless
// PhotoFileID is set, in which case MessageText becomes the photo caption.
type InlineResult struct {
	ID          string
	Title       string
	Description string
	MessageText string
	PhotoFileID string
}

// Photo is an image uploaded from memory.
type Photo struct {
	Name    string
	Data    []byte
	Caption string
}

// InlineAnswer carries inline results plus caching hints.
type InlineAnswer struct {
	Results    []InlineResult
	CacheTime  int
	IsPersonal bool
}

// Responder delivers answers back through the transport.
type Responder interface {
	Reply(ctx context.Context, ev *Event, text string) error
	SendTo(ctx context.Context, chatID int64, text string) error
	EditText(ctx context.Context, ev *Event, text string, keyboard [][]Button) error
	ReplyWithKeyboard(ctx context.Context, ev *Event, text string, keyboard [][]Button) error
	AnswerCallback(ctx context.Context, ev *Event, text string, alert bool) error
	AnswerInline(ctx context.Context, ev *Event, answer InlineAnswer) error
	// SendPhoto uploads p to chatID and returns the file ID Telegram assigned.
	SendPhoto(ctx context.Context, chatID int64, p Photo) (string, error)
	// Notify delivers a notice in the kind-appropriate way. Inline events get nothing.
	Notify(ctx context.Context, ev *Event, n Notice) error
}

// Button is an inline keyboard button carrying callback data.
type Button struct {
	Text string
	Data string
}
