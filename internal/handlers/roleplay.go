package handlers

import (
	"context"
	"html"
	"strings"

	"github.com/pborman/uuid"

	"github.com/iamwavecut/multibot/internal/event"
	"github.com/iamwavecut/multibot/internal/handlers/base"
	"github.com/iamwavecut/multibot/internal/i18n"
	"github.com/iamwavecut/multibot/internal/router"
)

const rolePlayKeyword = "rp"

// RolePlay renders "@sender <b>action</b> target" lines for inline queries.
type RolePlay struct {
	*base.BaseHandler
}

func NewRolePlay(d Deps) *RolePlay {
	return &RolePlay{BaseHandler: base.NewBaseHandler(d.Responder, d.Users, "roleplay")}
}

func (rp *RolePlay) register(t *router.Table) error {
	return t.Register("roleplay.inline", router.QueryPrefix(rolePlayKeyword), rp.handleInline)
}

func senderName(ev *event.Event) string {
	if ev.UserName != "" {
		return "@" + ev.UserName
	}
	return ev.FirstName
}

func (rp *RolePlay) handleInline(ctx context.Context, ev *event.Event) error {
	args := base.QueryArgs(ev, rolePlayKeyword)
	if args == "" {
		return nil
	}
	lang := rp.Lang(ctx, ev)

	parts := strings.SplitN(args, " ", 2)
	action := parts[0]
	target := i18n.Get("the air", lang)
	if len(parts) > 1 && strings.TrimSpace(parts[1]) != "" {
		target = strings.TrimSpace(parts[1])
	}
	sender := senderName(ev)

	return rp.Responder().AnswerInline(ctx, ev, event.InlineAnswer{
		Results: []event.InlineResult{{
			ID:          uuid.New(),
			Title:       i18n.Get("Action", lang) + ": " + action,
			Description: sender + " " + action + " " + target,
			MessageText: html.EscapeString(sender) + " <b>" + html.EscapeString(action) + "</b> " + html.EscapeString(target),
		}},
		CacheTime:  1,
		IsPersonal: true,
	})
}
