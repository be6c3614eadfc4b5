package gate

import (
	"context"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/iamwavecut/multibot/internal/event"
	"github.com/iamwavecut/multibot/internal/i18n"
	"github.com/iamwavecut/multibot/internal/infra"
	"github.com/iamwavecut/multibot/internal/observability"
	"github.com/iamwavecut/multibot/internal/router"
)

const genericFailure = "Something went wrong, please try again later"

var ErrHandlerTimeout = errors.New("handler timed out")

type (
	// Result describes how a single event left the pipeline.
	Result struct {
		DeniedBy string
		Reason   string
		Route    string
		Matched  bool
		Err      error
		// Settled closes once the handler goroutine has returned. It stays
		// open past a timeout while a handler that ignores its context runs on.
		// Nil when no handler ran.
		Settled  <-chan struct{}
	}

	Pipeline struct {
		stages    []Stage
		routes    *router.Table
		responder event.Responder
		lang      languageResolver
		metrics   *observability.Metrics
		timeout   time.Duration
		logger    *log.Entry
	}

	Options struct {
		Stages         []Stage
		Routes         *router.Table
		Responder      event.Responder
		Languages      languageResolver
		Metrics        *observability.Metrics
		HandlerTimeout time.Duration
	}
)

// NewPipeline seals the route table. Stages run in the given order.
func NewPipeline(opts Options) *Pipeline {
	opts.Routes.Seal()
	return &Pipeline{
		stages:    opts.Stages,
		routes:    opts.Routes,
		responder: opts.Responder,
		lang:      opts.Languages,
		metrics:   opts.Metrics,
		timeout:   opts.HandlerTimeout,
		logger:    log.WithField("object", "Pipeline"),
	}
}

// Handle runs ev through every stage and, when all admit, through the first
// matching route. It never panics and never returns handler errors to the caller.
func (p *Pipeline) Handle(ctx context.Context, ev *event.Event) Result {
	done := p.metrics.EventStarted()
	defer done()

	ctx, span := otel.Tracer("multibot/gate").Start(ctx, "pipeline.handle",
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(
			attribute.String("event.id", ev.ID),
			attribute.String("event.kind", string(ev.Kind)),
			attribute.String("event.chat", string(ev.Chat)),
			attribute.Int64("user.id", ev.UserID),
		),
	)
	defer span.End()

	entry := p.logger.WithFields(log.Fields{
		"event_id": ev.ID,
		"user_id":  ev.UserID,
		"kind":     ev.Kind,
	})

	for _, stage := range p.stages {
		verdict := stage.Check(ctx, ev)
		if verdict.Admit {
			p.metrics.GateDecision(stage.Name(), "admit")
			continue
		}
		p.metrics.GateDecision(stage.Name(), "deny")
		span.SetAttributes(attribute.String("gate.denied_by", stage.Name()))
		entry.WithFields(log.Fields{"stage": stage.Name(), "reason": verdict.Reason}).Debug("event denied")
		if verdict.Notice != nil {
			if err := p.responder.Notify(ctx, ev, *verdict.Notice); err != nil {
				entry.WithError(err).Warn("failed to deliver gate notice")
			}
		}
		return Result{DeniedBy: stage.Name(), Reason: verdict.Reason}
	}

	route, ok := p.routes.Dispatch(ev)
	if !ok {
		entry.Trace("no route matched")
		return Result{}
	}
	span.SetAttributes(attribute.String("route", route.Name))

	settled, err := p.invoke(ctx, route, ev)
	res := Result{Route: route.Name, Matched: true, Err: err, Settled: settled}
	if err == nil {
		return res
	}

	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	entry.WithError(err).WithField("route", route.Name).Error("handler failed")
	if ev.Kind != event.KindInline {
		notice := event.Notice{Text: i18n.Get(genericFailure, p.language(ctx, ev))}
		if nerr := p.responder.Notify(context.WithoutCancel(ctx), ev, notice); nerr != nil {
			entry.WithError(nerr).Warn("failed to deliver failure notice")
		}
	}
	return res
}

// invoke runs the handler in its own goroutine so a stalled handler that
// ignores its context still releases the caller once the timeout expires.
// The returned channel closes when that goroutine exits.
func (p *Pipeline) invoke(ctx context.Context, route router.Route, ev *event.Event) (<-chan struct{}, error) {
	observe := p.metrics.StartHandler(route.Name)

	hctx := ctx
	cancel := context.CancelFunc(func() {})
	if p.timeout > 0 {
		hctx, cancel = context.WithTimeout(ctx, p.timeout)
	}
	defer cancel()

	errCh := make(chan error, 1)
	settled := make(chan struct{})
	go func() {
		defer close(settled)
		defer func() {
			if r := recover(); r != nil {
				errCh <- infra.PanicError(r)
			}
		}()
		errCh <- route.Handler(hctx, ev)
	}()

	select {
	case err := <-errCh:
		if err != nil && errors.Is(hctx.Err(), context.DeadlineExceeded) {
			err = errors.WithMessage(ErrHandlerTimeout, err.Error())
		}
		observe(status(err))
		return settled, err
	case <-hctx.Done():
		err := ErrHandlerTimeout
		if !errors.Is(hctx.Err(), context.DeadlineExceeded) {
			err = errors.WithMessage(hctx.Err(), "handler cancelled")
		}
		observe(status(err))
		return settled, err
	}
}

func (p *Pipeline) language(ctx context.Context, ev *event.Event) string {
	if p.lang == nil {
		return i18n.DefaultLanguage()
	}
	return p.lang.GetLanguage(ctx, ev.UserID)
}

func status(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrHandlerTimeout):
		return "timeout"
	default:
		return "error"
	}
}
