package handlers

import (
	"context"
	"html"
	"strings"

	"github.com/iamwavecut/tool"

	"github.com/iamwavecut/multibot/internal/event"
	"github.com/iamwavecut/multibot/internal/handlers/base"
	"github.com/iamwavecut/multibot/internal/i18n"
	"github.com/iamwavecut/multibot/internal/router"
)

type Common struct {
	*base.BaseHandler
	botUsername   string
	hasTranslator bool
}

func NewCommon(d Deps) *Common {
	return &Common{
		BaseHandler:   base.NewBaseHandler(d.Responder, d.Users, "common"),
		botUsername:   d.BotUsername,
		hasTranslator: d.Translator != nil,
	}
}

func (c *Common) register(t *router.Table) error {
	if err := t.Register("common.start", router.All(router.Command("start"), router.ChatIs(event.ChatPrivate)), c.handleStart); err != nil {
		return err
	}
	return t.Register("common.help", router.Command("help"), c.handleHelp)
}

func (c *Common) handleStart(ctx context.Context, ev *event.Event) error {
	lang := c.Lang(ctx, ev)
	name := ev.FirstName
	if name == "" {
		name = i18n.Get("User", lang)
	}
	text := tool.ExecTemplate(i18n.Get("👋 Hello, {{ .name }}!", lang), map[string]any{
		"name": "<b>" + html.EscapeString(name) + "</b>",
	}) + "\n" + i18n.Get("Bot is ready to work. Use /help to see the list of commands.", lang)
	return c.Responder().Reply(ctx, ev, text)
}

func (c *Common) handleHelp(ctx context.Context, ev *event.Event) error {
	lang := c.Lang(ctx, ev)
	bot := "@" + c.botUsername

	lines := []string{
		"🛠 <b>" + i18n.Get("Available commands:", lang) + "</b>",
		strings.Repeat("─", 20),
		"🌐 <b>/status domain</b> — " + i18n.Get("Check website status", lang),
		"🔍 <b>/whois domain</b> — " + i18n.Get("WHOIS lookup", lang),
		"🔳 <b>/qr text</b> — " + i18n.Get("Generate QR code", lang),
		"🔗 <b>/short url</b> — " + i18n.Get("Shorten URL", lang),
	}
	if c.hasTranslator {
		lines = append(lines, "🔤 <b>/tr text</b> — "+i18n.Get("Translate text", lang))
	}
	lines = append(lines,
		"🔧 <b>/settings</b> — "+i18n.Get("Bot settings", lang),
		"❓ <b>/help</b> — "+i18n.Get("This menu", lang),
		"",
		"💡 <i>"+i18n.Get("Inline modes (type in any chat):", lang)+"</i>",
		"<code>"+bot+" st url</code>",
		"<code>"+bot+" short url</code>",
		"<code>"+bot+" qr text</code>",
		"<code>"+bot+" rp action @user</code>",
	)
	if c.hasTranslator {
		lines = append(lines, "<code>"+bot+" tr text</code>")
	}
	return c.Responder().Reply(ctx, ev, strings.Join(lines, "\n"))
}
