package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/sdk/trace"
)

// Tracing owns the process tracer provider.
type Tracing struct {
	provider *trace.TracerProvider
}

func NewTracing() *Tracing {
	return &Tracing{}
}

func (t *Tracing) Start(_ context.Context) error {
	t.provider = trace.NewTracerProvider()
	otel.SetTracerProvider(t.provider)
	return nil
}

func (t *Tracing) Stop(ctx context.Context) error {
	if t.provider == nil {
		return nil
	}
	return t.provider.Shutdown(ctx)
}
