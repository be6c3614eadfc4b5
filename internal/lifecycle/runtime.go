package lifecycle

import (
	"context"
	stderrors "errors"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Component is a long-lived part of the bot with explicit start and stop.
type Component interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

type named struct {
	name      string
	component Component
}

// Runtime starts components in registration order and stops them in reverse.
type Runtime struct {
	components []named
	logger     *log.Entry
}

func NewRuntime() *Runtime {
	return &Runtime{logger: log.WithField("object", "Runtime")}
}

func (r *Runtime) Register(name string, component Component) {
	if component == nil {
		return
	}
	r.components = append(r.components, named{name: name, component: component})
}

// Names lists registered components in start order.
func (r *Runtime) Names() []string {
	names := make([]string, 0, len(r.components))
	for _, c := range r.components {
		names = append(names, c.name)
	}
	return names
}

// Start brings components up one by one. When one fails, the ones already
// started are stopped before the error is returned.
func (r *Runtime) Start(ctx context.Context) error {
	started := make([]named, 0, len(r.components))
	for _, c := range r.components {
		if err := c.component.Start(ctx); err != nil {
			if stopErr := r.stopAll(ctx, started); stopErr != nil {
				r.logger.WithError(stopErr).Warn("rollback after failed start")
			}
			return errors.WithMessagef(err, "start %s", c.name)
		}
		r.logger.WithField("component", c.name).Debug("started")
		started = append(started, c)
	}
	return nil
}

func (r *Runtime) Stop(ctx context.Context) error {
	return r.stopAll(ctx, r.components)
}

func (r *Runtime) stopAll(ctx context.Context, components []named) error {
	var stopErr error
	for i := len(components) - 1; i >= 0; i-- {
		c := components[i]
		if err := c.component.Stop(ctx); err != nil {
			stopErr = stderrors.Join(stopErr, errors.WithMessagef(err, "stop %s", c.name))
			continue
		}
		r.logger.WithField("component", c.name).Debug("stopped")
	}
	return stopErr
}
