package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	api "github.com/OvyFlash/telegram-bot-api"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/iamwavecut/multibot/internal/adapters"
	"github.com/iamwavecut/multibot/internal/adapters/llm/gemini"
	"github.com/iamwavecut/multibot/internal/adapters/llm/openai"
	"github.com/iamwavecut/multibot/internal/bot"
	"github.com/iamwavecut/multibot/internal/config"
	"github.com/iamwavecut/multibot/internal/db/sqlite"
	"github.com/iamwavecut/multibot/internal/gate"
	"github.com/iamwavecut/multibot/internal/handlers"
	"github.com/iamwavecut/multibot/internal/infra"
	"github.com/iamwavecut/multibot/internal/lifecycle"
	"github.com/iamwavecut/multibot/internal/moderation"
	"github.com/iamwavecut/multibot/internal/observability"
	"github.com/iamwavecut/multibot/internal/users"
)

const (
	shutdownTimeout = 15 * time.Second
	pollTimeout     = 60
)

var errExecutableReplaced = errors.New("executable file was modified")

type RunCmd struct{}

func (c *RunCmd) Run(ctx context.Context, a *app) error {
	cfg := a.cfg
	if err := cfg.RequireToken(); err != nil {
		return err
	}
	logger := log.WithField("object", "run")

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := sqlite.Open(ctx, cfg.DBPath())
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.WithError(err).Warn("cant close db")
		}
	}()

	audit, err := observability.NewAuditLogger(cfg.Observability.AuditLog)
	if err != nil {
		return errors.WithMessage(err, "cant open audit log")
	}
	defer func() { _ = audit.Sync() }()

	metrics := observability.NewMetrics()
	bans := moderation.NewBanService(store, metrics)
	directory := users.NewDirectory(store, audit, metrics)

	translator, closeLLM, err := newTranslator(ctx, cfg.LLM)
	if err != nil {
		return err
	}
	defer closeLLM()

	botAPI, err := api.NewBotAPI(cfg.TelegramAPIToken)
	if err != nil {
		return errors.WithMessage(err, "cant initialize bot api")
	}
	if log.Level(cfg.LogLevel) == log.TraceLevel {
		botAPI.Debug = true
	}
	logger.WithField("username", botAPI.Self.UserName).Info("authorized")

	responder := bot.NewResponder(botAPI)
	routes, err := handlers.Routes(handlers.Deps{
		Responder:   responder,
		Bans:        bans,
		Users:       directory,
		AdminID:     cfg.AdminID,
		BotUsername: botAPI.Self.UserName,
		Translator:  translator,
		TranslateTo: cfg.LLM.TranslateTo,
		Gatherer:    metrics.Registry(),

		QRDumpChatID: cfg.Tools.QRDumpChatID,
		WhoisLookup:  handlers.NewWhoisLookup(cfg.Tools.WhoisTimeout),
		ShortenerURL: cfg.Tools.ShortenerURL,
	})
	if err != nil {
		return err
	}

	gc := cfg.Gate
	cooldown := gate.NewCooldownTracker(gc.CommandCooldown, gc.InlineCooldown, gc.TrackerIdleTTL)
	flood := gate.NewFloodTracker(gc.MessageFlood, gc.InlineFlood, gc.TrackerIdleTTL)
	pipeline := gate.NewPipeline(gate.Options{
		Stages: []gate.Stage{
			gate.NewLoggingStage(directory),
			gate.NewBanStage(bans, directory),
			gate.NewCooldownStage(cooldown, directory, time.Now),
			gate.NewFloodStage(flood, directory, time.Now),
		},
		Routes:         routes,
		Responder:      responder,
		Languages:      directory,
		Metrics:        metrics,
		HandlerTimeout: gc.HandlerTimeout,
	})
	dispatcher := bot.NewDispatcher(pipeline, gc.MaxConcurrency, gc.UpdateMaxAge)

	runtime := lifecycle.NewRuntime()
	runtime.Register("tracing", observability.NewTracing())
	runtime.Register("metrics_server", observability.NewServer(cfg.Observability.MetricsAddr, metrics))
	runtime.Register("cooldown_tracker", cooldown)
	runtime.Register("flood_tracker", flood)
	runtime.Register("dispatcher", dispatcher)
	if err := runtime.Start(ctx); err != nil {
		return err
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := runtime.Stop(stopCtx); err != nil {
			logger.WithError(err).Error("shutdown incomplete")
		}
	}()
	logger.WithField("routes", routes.Names()).Info("bot is running")

	g, gctx := errgroup.WithContext(ctx)
	updateConfig := api.NewUpdate(0)
	updateConfig.Timeout = pollTimeout
	updates, pollErrs := bot.GetUpdatesChans(gctx, botAPI, updateConfig)

	g.Go(func() error {
		return dispatcher.Run(gctx, updates, pollErrs)
	})
	g.Go(func() error {
		select {
		case <-gctx.Done():
			return nil
		case _, ok := <-infra.MonitorExecutable(gctx):
			if ok {
				return errExecutableReplaced
			}
			return nil
		}
	})

	err = g.Wait()
	switch {
	case err == nil, errors.Is(err, context.Canceled):
		logger.Info("stopping")
		return nil
	case errors.Is(err, errExecutableReplaced):
		logger.Warn(err.Error())
		return nil
	default:
		return err
	}
}

// newTranslator returns a nil LLM when no API key is configured.
func newTranslator(ctx context.Context, cfg config.LLM) (adapters.LLM, func(), error) {
	noop := func() {}
	if cfg.APIKey == "" {
		return nil, noop, nil
	}
	llmLogger := log.WithField("object", "llm")
	switch cfg.Type {
	case "gemini":
		g, err := gemini.NewGemini(ctx, cfg.APIKey, cfg.Model, llmLogger)
		if err != nil {
			return nil, noop, errors.WithMessage(err, "cant create gemini client")
		}
		return g, func() { _ = g.Close() }, nil
	default:
		return openai.NewOpenAI(cfg.APIKey, cfg.Model, cfg.BaseURL, llmLogger), noop, nil
	}
}
