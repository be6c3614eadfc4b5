package users

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"go.uber.org/zap"

	"github.com/iamwavecut/multibot/internal/db"
	errs "github.com/iamwavecut/multibot/internal/errors"
	"github.com/iamwavecut/multibot/internal/event"
	"github.com/iamwavecut/multibot/internal/i18n"
	"github.com/iamwavecut/multibot/internal/observability"
)

type userStore interface {
	GetUserSettings(ctx context.Context, userID int64) (*db.UserSettings, error)
	SetUserSettings(ctx context.Context, settings *db.UserSettings) error
	InsertInteraction(ctx context.Context, interaction *db.Interaction) error
	GetLastInteraction(ctx context.Context, userID int64) (*db.Interaction, error)
	GetStats(ctx context.Context) (*db.Stats, error)
}

// Directory holds user preferences and the interaction log.
type Directory struct {
	store   userStore
	audit   *zap.Logger
	metrics *observability.Metrics
	logger  *log.Entry
}

func NewDirectory(store userStore, audit *zap.Logger, metrics *observability.Metrics) *Directory {
	if audit == nil {
		audit = zap.NewNop()
	}
	return &Directory{
		store:   store,
		audit:   audit,
		metrics: metrics,
		logger:  log.WithField("object", "Directory"),
	}
}

// LogInteraction records the event. Failures are logged and swallowed.
func (d *Directory) LogInteraction(ctx context.Context, ev *event.Event) {
	interaction := InteractionFromEvent(ev)

	d.audit.Info("interaction",
		zap.String("event_id", ev.ID),
		zap.Int64("user_id", interaction.UserID),
		zap.String("username", interaction.UserName),
		zap.String("command", interaction.Command),
		zap.String("chat_type", interaction.ChatType),
		zap.String("text", interaction.MessageText),
	)

	if err := d.store.InsertInteraction(ctx, interaction); err != nil {
		d.metrics.InteractionLogFailed()
		d.logger.WithError(err).WithFields(log.Fields{
			"event_id": ev.ID,
			"user_id":  ev.UserID,
		}).Error("failed to log user interaction")
	}
}

// GetLanguage returns the stored preference, or the default when absent or unreadable.
func (d *Directory) GetLanguage(ctx context.Context, userID int64) string {
	settings, err := d.store.GetUserSettings(ctx, userID)
	if err != nil {
		d.logger.WithError(err).WithField("user_id", userID).Warn("failed to get user language")
		return i18n.DefaultLanguage()
	}
	if settings == nil || !i18n.IsSupported(settings.Language) {
		return i18n.DefaultLanguage()
	}
	return settings.Language
}

func (d *Directory) SetLanguage(ctx context.Context, userID int64, lang string) error {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if !i18n.IsSupported(lang) {
		return errors.WithMessagef(errs.ErrInvalidInput, "unsupported language %q", lang)
	}
	if err := d.store.SetUserSettings(ctx, &db.UserSettings{UserID: userID, Language: lang}); err != nil {
		return errors.Wrap(err, "set user language")
	}
	return nil
}

func (d *Directory) Stats(ctx context.Context) (*db.Stats, error) {
	stats, err := d.store.GetStats(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "get stats")
	}
	return stats, nil
}

// LastSeen returns the most recent logged interaction of the user, or nil.
func (d *Directory) LastSeen(ctx context.Context, userID int64) (*db.Interaction, error) {
	last, err := d.store.GetLastInteraction(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "get last interaction")
	}
	return last, nil
}

// InteractionFromEvent maps an event to its log row. Callback and inline events
// carry a synthetic command and chat type, matching how they are audited.
func InteractionFromEvent(ev *event.Event) *db.Interaction {
	interaction := &db.Interaction{
		UserID:      ev.UserID,
		UserName:    ev.UserName,
		FirstName:   ev.FirstName,
		LastName:    ev.LastName,
		MessageText: ev.Text,
		ChatType:    string(ev.Chat),
		CreatedAt:   ev.ReceivedAt.UTC(),
	}
	switch ev.Kind {
	case event.KindCommand:
		interaction.Command = "/" + ev.Command
	case event.KindCallback:
		interaction.Command = db.ChatTypeCallback
		interaction.ChatType = db.ChatTypeCallback
	case event.KindInline:
		interaction.Command = db.ChatTypeInline
		interaction.ChatType = db.ChatTypeInline
	}
	return interaction
}
