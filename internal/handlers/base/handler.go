package base

import (
	"context"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/iamwavecut/multibot/internal/event"
	"github.com/iamwavecut/multibot/internal/i18n"
)

type LanguageResolver interface {
	GetLanguage(ctx context.Context, userID int64) string
}

// BaseHandler provides common functionality for all handlers
type BaseHandler struct {
	responder event.Responder
	languages LanguageResolver
	logger    *log.Entry
}

// NewBaseHandler creates a new base handler
func NewBaseHandler(responder event.Responder, languages LanguageResolver, handlerName string) *BaseHandler {
	return &BaseHandler{
		responder: responder,
		languages: languages,
		logger:    log.WithField("handler", handlerName),
	}
}

func (h *BaseHandler) Responder() event.Responder {
	return h.responder
}

// GetLogger returns the handler's logger
func (h *BaseHandler) GetLogger() *log.Entry {
	return h.logger
}

// Lang returns the sender's language.
func (h *BaseHandler) Lang(ctx context.Context, ev *event.Event) string {
	if h.languages == nil {
		return i18n.DefaultLanguage()
	}
	return h.languages.GetLanguage(ctx, ev.UserID)
}

// T translates key into the sender's language.
func (h *BaseHandler) T(ctx context.Context, ev *event.Event, key string) string {
	return i18n.Get(key, h.Lang(ctx, ev))
}

// Usage replies with a localized usage hint. Malformed input is not an error.
func (h *BaseHandler) Usage(ctx context.Context, ev *event.Event, usage string, examples ...string) error {
	lang := h.Lang(ctx, ev)
	var b strings.Builder
	b.WriteString("❌ <b>")
	b.WriteString(i18n.Get("Usage:", lang))
	b.WriteString("</b> ")
	b.WriteString(usage)
	for _, ex := range examples {
		b.WriteString("\n")
		b.WriteString(i18n.Get("Example:", lang))
		b.WriteString(" ")
		b.WriteString(ex)
	}
	return h.responder.Reply(ctx, ev, b.String())
}

// QueryArgs returns the inline query without its leading keyword.
func QueryArgs(ev *event.Event, keyword string) string {
	return strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(ev.Text), keyword))
}
