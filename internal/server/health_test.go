package server

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePinger struct {
	err   atomic.Pointer[error]
	calls atomic.Int32
}

func (f *fakePinger) Ping(context.Context) error {
	f.calls.Add(1)
	if p := f.err.Load(); p != nil {
		return *p
	}
	return nil
}

func (f *fakePinger) fail(err error) { f.err.Store(&err) }

func TestHealth_Refresh(t *testing.T) {
	pinger := &fakePinger{}
	h := NewHealth(pinger, 0, nil, nil)

	assert.False(t, h.Ready(), "not ready before the first probe")
	assert.True(t, h.Refresh(context.Background()))
	assert.True(t, h.Ready())

	pinger.fail(errors.New("database is down"))
	assert.False(t, h.Refresh(context.Background()))
	assert.False(t, h.Ready())
}

func TestHealth_Warmup(t *testing.T) {
	clock := clockwork.NewFakeClock()
	pinger := &fakePinger{}
	h := NewHealth(pinger, 30*time.Second, clock, nil)

	assert.False(t, h.Refresh(context.Background()))
	assert.Zero(t, pinger.calls.Load(), "database is not probed during warm-up")

	clock.Advance(29 * time.Second)
	assert.False(t, h.Refresh(context.Background()))

	clock.Advance(time.Second)
	assert.True(t, h.Refresh(context.Background()))
	assert.Equal(t, int32(1), pinger.calls.Load())
}

func TestHealth_Schedule(t *testing.T) {
	s, err := gocron.NewScheduler()
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Shutdown() })

	pinger := &fakePinger{}
	h := NewHealth(pinger, 0, nil, nil)

	job, err := h.Schedule(s, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, "Readiness Probe", job.Name())

	s.Start()
	assert.Eventually(t, h.Ready, 2*time.Second, 10*time.Millisecond, "first probe runs immediately")
}
