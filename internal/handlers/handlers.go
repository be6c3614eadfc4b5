package handlers

import (
	"context"
	"net/http"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/iamwavecut/multibot/internal/adapters"
	"github.com/iamwavecut/multibot/internal/db"
	"github.com/iamwavecut/multibot/internal/event"
	"github.com/iamwavecut/multibot/internal/moderation"
	"github.com/iamwavecut/multibot/internal/router"
)

type (
	userDirectory interface {
		GetLanguage(ctx context.Context, userID int64) string
		SetLanguage(ctx context.Context, userID int64, lang string) error
		Stats(ctx context.Context) (*db.Stats, error)
		LastSeen(ctx context.Context, userID int64) (*db.Interaction, error)
	}

	// Deps are the collaborators shared by all route handlers.
	Deps struct {
		Responder   event.Responder
		Bans        moderation.BanService
		Users       userDirectory
		AdminID     int64
		BotUsername string

		// Translator is optional; translation routes are not registered without it.
		Translator  adapters.LLM
		TranslateTo string

		Gatherer   prometheus.Gatherer
		HTTPClient *http.Client

		// QRDumpChatID hosts the uploads behind inline QR answers. Zero
		// disables inline QR.
		QRDumpChatID int64
		WhoisLookup  WhoisLookup
		ShortenerURL string
	}

	registrar interface {
		register(t *router.Table) error
	}
)

// Routes builds the route table. Registration order decides precedence: the
// privileged admin routes come first so they can never be shadowed.
func Routes(d Deps) (*router.Table, error) {
	if d.Responder == nil || d.Users == nil || d.Bans == nil {
		return nil, errors.New("handlers: responder, users and bans are required")
	}

	var chain []registrar
	if d.AdminID != 0 {
		chain = append(chain, NewAdmin(d))
	}
	chain = append(chain, NewSettings(d))
	if d.Translator != nil {
		chain = append(chain, NewTranslator(d))
	}
	chain = append(chain,
		NewRolePlay(d),
		NewNetTools(d),
		NewQR(d),
		NewShortener(d),
		NewCommon(d),
	)
	if d.AdminID != 0 {
		chain = append(chain, NewFeedback(d))
	}

	table := router.NewTable()
	for _, r := range chain {
		if err := r.register(table); err != nil {
			return nil, errors.WithMessage(err, "cant register routes")
		}
	}
	return table, nil
}
