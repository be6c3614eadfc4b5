package handlers

import (
	"context"
	"html"

	"github.com/pborman/uuid"

	"github.com/iamwavecut/multibot/internal/adapters"
	"github.com/iamwavecut/multibot/internal/event"
	"github.com/iamwavecut/multibot/internal/handlers/base"
	"github.com/iamwavecut/multibot/internal/i18n"
	"github.com/iamwavecut/multibot/internal/router"
)

const translateKeyword = "tr"

// Translator translates free text through the configured LLM.
type Translator struct {
	*base.BaseHandler
	llm    adapters.LLM
	target string
}

func NewTranslator(d Deps) *Translator {
	target := d.TranslateTo
	if target == "" {
		target = i18n.DefaultLanguage()
	}
	return &Translator{
		BaseHandler: base.NewBaseHandler(d.Responder, d.Users, "translator"),
		llm:         d.Translator,
		target:      target,
	}
}

func (tr *Translator) register(t *router.Table) error {
	if err := t.Register("translator.inline", router.QueryPrefix(translateKeyword), tr.handleInline); err != nil {
		return err
	}
	return t.Register("translator.command", router.Command("tr", "translate"), tr.handleCommand)
}

func (tr *Translator) targetName() string {
	if name := i18n.GetLanguageName(tr.target); name != "" {
		return name
	}
	return tr.target
}

func (tr *Translator) handleInline(ctx context.Context, ev *event.Event) error {
	text := base.QueryArgs(ev, translateKeyword)
	if text == "" {
		return nil
	}
	translated, err := adapters.Translate(ctx, tr.llm, text, tr.targetName())
	if err != nil {
		return err
	}
	return tr.Responder().AnswerInline(ctx, ev, event.InlineAnswer{
		Results: []event.InlineResult{{
			ID:          uuid.New(),
			Title:       tr.T(ctx, ev, "Translate to") + " " + tr.targetName(),
			Description: translated,
			MessageText: html.EscapeString(translated),
		}},
		CacheTime: 300,
	})
}

func (tr *Translator) handleCommand(ctx context.Context, ev *event.Event) error {
	if ev.Args == "" {
		return tr.Usage(ctx, ev, "/tr &lt;text&gt;", "/tr hola amigo")
	}
	translated, err := adapters.Translate(ctx, tr.llm, ev.Args, tr.targetName())
	if err != nil {
		return err
	}
	return tr.Responder().Reply(ctx, ev, "🌐 "+html.EscapeString(translated))
}
