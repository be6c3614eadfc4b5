package lifecycle

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testComponent struct {
	name      string
	startErr  error
	stopErr   error
	events    *[]string
	stopCalls int
}

func (c *testComponent) Start(context.Context) error {
	*c.events = append(*c.events, "start:"+c.name)
	return c.startErr
}

func (c *testComponent) Stop(context.Context) error {
	c.stopCalls++
	*c.events = append(*c.events, "stop:"+c.name)
	return c.stopErr
}

func newRuntime(components ...*testComponent) *Runtime {
	r := NewRuntime()
	for _, c := range components {
		r.Register(c.name, c)
	}
	return r
}

func TestRuntimeStartStopOrder(t *testing.T) {
	t.Parallel()

	var events []string
	r := newRuntime(
		&testComponent{name: "tracing", events: &events},
		&testComponent{name: "cooldown", events: &events},
		&testComponent{name: "dispatcher", events: &events},
	)
	r.Register("nil", nil)
	assert.Equal(t, []string{"tracing", "cooldown", "dispatcher"}, r.Names())

	require.NoError(t, r.Start(context.Background()))
	require.NoError(t, r.Stop(context.Background()))

	assert.Equal(t, []string{
		"start:tracing", "start:cooldown", "start:dispatcher",
		"stop:dispatcher", "stop:cooldown", "stop:tracing",
	}, events)
}

func TestRuntimeStartFailureStopsStartedComponents(t *testing.T) {
	t.Parallel()

	var events []string
	boom := errors.New("boom")
	one := &testComponent{name: "one", events: &events}
	two := &testComponent{name: "two", events: &events, startErr: boom}
	three := &testComponent{name: "three", events: &events}

	err := newRuntime(one, two, three).Start(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "start two")

	assert.Equal(t, 1, one.stopCalls)
	assert.Zero(t, two.stopCalls)
	assert.Zero(t, three.stopCalls)
	assert.Equal(t, []string{"start:one", "start:two", "stop:one"}, events)
}

func TestRuntimeStopJoinsErrors(t *testing.T) {
	t.Parallel()

	var events []string
	errA := errors.New("a")
	errB := errors.New("b")
	r := newRuntime(
		&testComponent{name: "a", events: &events, stopErr: errA},
		&testComponent{name: "b", events: &events, stopErr: errB},
	)
	require.NoError(t, r.Start(context.Background()))

	err := r.Stop(context.Background())
	assert.ErrorIs(t, err, errA)
	assert.ErrorIs(t, err, errB)
}
