package gate

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/iamwavecut/multibot/internal/event"
	"github.com/iamwavecut/multibot/internal/i18n"
)

const (
	StageLogging  = "logging"
	StageBan      = "ban"
	StageCooldown = "cooldown"
	StageFlood    = "flood"
)

type (
	// Verdict is a stage decision. A denied verdict with a nil Notice is silent.
	Verdict struct {
		Admit  bool
		Notice *event.Notice
		Reason string
	}

	Stage interface {
		Name() string
		Check(ctx context.Context, ev *event.Event) Verdict
	}

	interactionLogger interface {
		LogInteraction(ctx context.Context, ev *event.Event)
	}

	banChecker interface {
		IsBanned(ctx context.Context, userID int64) bool
	}

	languageResolver interface {
		GetLanguage(ctx context.Context, userID int64) string
	}

	Clock func() time.Time
)

func Admit() Verdict {
	return Verdict{Admit: true}
}

func Deny(reason string, notice *event.Notice) Verdict {
	return Verdict{Reason: reason, Notice: notice}
}

// LoggingStage records every event, including ones later denied.
type LoggingStage struct {
	log interactionLogger
}

func NewLoggingStage(l interactionLogger) *LoggingStage {
	return &LoggingStage{log: l}
}

func (s *LoggingStage) Name() string { return StageLogging }

func (s *LoggingStage) Check(ctx context.Context, ev *event.Event) Verdict {
	s.log.LogInteraction(ctx, ev)
	return Admit()
}

type BanStage struct {
	bans banChecker
	lang languageResolver
}

func NewBanStage(bans banChecker, lang languageResolver) *BanStage {
	return &BanStage{bans: bans, lang: lang}
}

func (s *BanStage) Name() string { return StageBan }

func (s *BanStage) Check(ctx context.Context, ev *event.Event) Verdict {
	if !s.bans.IsBanned(ctx, ev.UserID) {
		return Admit()
	}
	if ev.Kind == event.KindCallback {
		return Deny("banned", &event.Notice{
			Text:  i18n.Get("You are banned from using this bot.", s.lang.GetLanguage(ctx, ev.UserID)),
			Alert: true,
		})
	}
	return Deny("banned", nil)
}

// CooldownStage applies to commands in private chats and to inline queries.
type CooldownStage struct {
	tracker Tracker
	lang    languageResolver
	now     Clock
	logger  *log.Entry
}

func NewCooldownStage(tracker Tracker, lang languageResolver, now Clock) *CooldownStage {
	if now == nil {
		now = time.Now
	}
	return &CooldownStage{
		tracker: tracker,
		lang:    lang,
		now:     now,
		logger:  log.WithField("object", "CooldownStage"),
	}
}

func (s *CooldownStage) Name() string { return StageCooldown }

func cooldownClass(ev *event.Event) (event.Class, bool) {
	switch {
	case ev.Kind == event.KindCommand && ev.Chat == event.ChatPrivate:
		return event.ClassCommand, true
	case ev.Kind == event.KindInline:
		return event.ClassInline, true
	}
	return "", false
}

func (s *CooldownStage) Check(ctx context.Context, ev *event.Event) Verdict {
	class, ok := cooldownClass(ev)
	if !ok {
		return Admit()
	}
	decision, err := s.tracker.CheckAndRecord(ctx, ev.UserID, class, s.now())
	if err != nil {
		s.logger.WithError(err).WithField("user_id", ev.UserID).Warn("cooldown tracker unavailable, dropping event")
		return Deny("tracker unavailable", nil)
	}
	if decision.Allowed {
		return Admit()
	}
	if class == event.ClassInline {
		return Deny("inline cooldown", nil)
	}
	text := fmt.Sprintf(
		i18n.Get("⏰ Please wait %.1f seconds before using another command.", s.lang.GetLanguage(ctx, ev.UserID)),
		decision.RemainingSeconds(),
	)
	return Deny("command cooldown", &event.Notice{Text: text})
}

// FloodStage throttles every message and inline query regardless of chat type.
type FloodStage struct {
	tracker Tracker
	lang    languageResolver
	now     Clock
	logger  *log.Entry
}

func NewFloodStage(tracker Tracker, lang languageResolver, now Clock) *FloodStage {
	if now == nil {
		now = time.Now
	}
	return &FloodStage{
		tracker: tracker,
		lang:    lang,
		now:     now,
		logger:  log.WithField("object", "FloodStage"),
	}
}

func (s *FloodStage) Name() string { return StageFlood }

func floodClass(ev *event.Event) (event.Class, bool) {
	switch {
	case ev.IsMessage():
		return event.ClassMessage, true
	case ev.Kind == event.KindInline:
		return event.ClassInline, true
	}
	return "", false
}

func (s *FloodStage) Check(ctx context.Context, ev *event.Event) Verdict {
	class, ok := floodClass(ev)
	if !ok {
		return Admit()
	}
	decision, err := s.tracker.CheckAndRecord(ctx, ev.UserID, class, s.now())
	if err != nil {
		s.logger.WithError(err).WithField("user_id", ev.UserID).Warn("flood tracker unavailable, dropping event")
		return Deny("tracker unavailable", nil)
	}
	if decision.Allowed {
		return Admit()
	}
	if class == event.ClassInline {
		return Deny("inline flood", nil)
	}
	text := fmt.Sprintf(
		i18n.Get("⏳ Commands cooldown: %.1fs.", s.lang.GetLanguage(ctx, ev.UserID)),
		s.tracker.Threshold(class).Seconds(),
	)
	return Deny("flood", &event.Notice{Text: text})
}
