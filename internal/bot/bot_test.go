package bot

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/edgard/dymbot/internal/bot/tasks"
	"github.com/edgard/dymbot/internal/config"
	"github.com/edgard/dymbot/internal/logger"
)

type blockingListener struct {
	started atomic.Bool
}

func (l *blockingListener) Start(ctx context.Context) {
	l.started.Store(true)
	<-ctx.Done()
}

type returningListener struct{}

func (returningListener) Start(context.Context) {}

type runnerStub struct {
	err error
}

func (r runnerStub) Run(ctx context.Context) error {
	if r.err != nil {
		return r.err
	}
	<-ctx.Done()
	return nil
}

func newTestScheduler(t *testing.T, cfg *config.SchedulerConfig, taskMap map[string]tasks.ScheduledTaskFunc) *Scheduler {
	t.Helper()
	s, err := NewScheduler(logger.Discard(), cfg, taskMap)
	require.NoError(t, err)
	return s
}

func TestRunStopsOnCancel(t *testing.T) {
	t.Parallel()
	listener := &blockingListener{}
	b := NewBot(logger.Discard(), listener, newTestScheduler(t, &config.SchedulerConfig{}, nil), runnerStub{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- b.Run(ctx) }()

	require.Eventually(t, listener.started.Load, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}
}

func TestRunFailsWhenListenerStops(t *testing.T) {
	t.Parallel()
	b := NewBot(logger.Discard(), returningListener{}, newTestScheduler(t, &config.SchedulerConfig{}, nil), nil)

	require.ErrorContains(t, b.Run(context.Background()), "stopped unexpectedly")
}

func TestRunFailsWhenMetricsFail(t *testing.T) {
	t.Parallel()
	b := NewBot(logger.Discard(), &blockingListener{}, newTestScheduler(t, &config.SchedulerConfig{}, nil),
		runnerStub{err: errors.New("address in use")})

	require.ErrorContains(t, b.Run(context.Background()), "address in use")
}

func TestSchedulerStartStop(t *testing.T) {
	t.Parallel()
	cfg := &config.SchedulerConfig{Tasks: map[string]config.TaskConfig{
		"enabled":  {Enabled: true, Schedule: "0 0 3 * * *"},
		"disabled": {Enabled: false, Schedule: "0 0 3 * * *"},
		"missing":  {Enabled: true, Schedule: "0 0 3 * * *"},
	}}
	noop := func(context.Context) error { return nil }
	s := newTestScheduler(t, cfg, map[string]tasks.ScheduledTaskFunc{"enabled": noop, "disabled": noop})
	ctx := context.Background()

	require.NoError(t, s.Start(ctx))
	require.Error(t, s.Start(ctx))
	require.NoError(t, s.Stop())
	require.NoError(t, s.Stop())
}
