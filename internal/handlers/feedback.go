package handlers

import (
	"context"
	"html"
	"strconv"

	"github.com/iamwavecut/tool"

	"github.com/iamwavecut/multibot/internal/event"
	"github.com/iamwavecut/multibot/internal/handlers/base"
	"github.com/iamwavecut/multibot/internal/i18n"
	"github.com/iamwavecut/multibot/internal/router"
)

const feedbackTemplate = `📩 <b>{{ .title }}</b>
{{ .from_label }}: {{ .from }} (ID: <code>{{ .user_id }}</code>)

{{ .content }}`

// Feedback forwards private free-text messages to the admin.
type Feedback struct {
	*base.BaseHandler
	adminID int64
}

func NewFeedback(d Deps) *Feedback {
	return &Feedback{
		BaseHandler: base.NewBaseHandler(d.Responder, d.Users, "feedback"),
		adminID:     d.AdminID,
	}
}

func (f *Feedback) register(t *router.Table) error {
	return t.Register("feedback.forward", router.All(
		router.Kind(event.KindText),
		router.ChatIs(event.ChatPrivate),
		router.Not(router.From(f.adminID)),
	), f.handleForward)
}

func (f *Feedback) handleForward(ctx context.Context, ev *event.Event) error {
	content := ev.Text
	if content == "" {
		content = "[Media/Sticker/Voice]"
	}
	from := ev.DisplayName()
	if from == "" {
		from = "ID: " + strconv.FormatInt(ev.UserID, 10)
	}

	adminLang := i18n.DefaultLanguage()
	text := tool.ExecTemplate(feedbackTemplate, map[string]any{
		"title":      i18n.Get("New message", adminLang),
		"from_label": i18n.Get("From", adminLang),
		"from":       html.EscapeString(from),
		"user_id":    ev.UserID,
		"content":    html.EscapeString(content),
	})
	if err := f.Responder().SendTo(ctx, f.adminID, text); err != nil {
		return err
	}
	return f.Responder().Reply(ctx, ev, f.T(ctx, ev, "Message delivered to administrator."))
}
