package realtime_test

import (
	"context"
	"testing"
	"time"

	"github.com/neilotoole/slogt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"

	"github.com/Archontes/aox"
	"github.com/Archontes/aox/realtime"
)

func newTickedKernel(t *testing.T) (*aox.Kernel, *atomic.Int32) {
	t.Helper()
	k := aox.NewKernel(aox.WithLogger(slogt.New(t)))
	fires := atomic.NewInt32(0)

	m, err := aox.NewMachine("counter", "counting", []aox.State{{
		ID: "counting",
		Handler: func(e *aox.Event) aox.Disposition {
			if e.Sig == aox.SigTimeTick {
				fires.Inc()
				return aox.Handled()
			}
			return aox.Pass()
		},
	}})
	require.NoError(t, err)

	_, err = k.AddActive("counter", 1, m, aox.WithStartHook(func(a *aox.Active) {
		a.Subscribe(aox.SigTimeTick)
	}))
	require.NoError(t, err)
	return k, fires
}

func TestDriverAdvancesKernelClock(t *testing.T) {
	k, fires := newTickedKernel(t)

	d := realtime.New(k, realtime.Config{TickRate: time.Millisecond})
	require.NoError(t, d.Start(context.Background()))
	defer d.Stop()

	// The driver starts the kernel itself and delivers the tick broadcast.
	assert.True(t, k.Started())
	assert.Eventually(t, func() bool { return fires.Load() >= 5 },
		2*time.Second, time.Millisecond)
	assert.GreaterOrEqual(t, k.Ticks(), uint64(5))
}

func TestStopHaltsTicking(t *testing.T) {
	k, fires := newTickedKernel(t)

	d := realtime.New(k, realtime.Config{TickRate: time.Millisecond})
	require.NoError(t, d.Start(context.Background()))
	require.Eventually(t, func() bool { return fires.Load() >= 1 },
		2*time.Second, time.Millisecond)

	d.Stop()
	after := fires.Load()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, after, fires.Load())

	// Stopping again is harmless.
	d.Stop()
}

func TestStartTwiceFails(t *testing.T) {
	k, _ := newTickedKernel(t)

	d := realtime.New(k, realtime.Config{})
	require.NoError(t, d.Start(context.Background()))
	defer d.Stop()

	assert.Error(t, d.Start(context.Background()))
}

func TestDefaultTickRateIsSixtyPerSecond(t *testing.T) {
	k, _ := newTickedKernel(t)
	d := realtime.New(k, realtime.Config{})
	assert.Equal(t, realtime.DefaultTickRate, d.TickRate())
}

func TestDriverRunsArmedTimeEvents(t *testing.T) {
	k := aox.NewKernel(aox.WithLogger(slogt.New(t)))
	fired := atomic.NewBool(false)

	const sigTimeout = aox.SigUser
	m, err := aox.NewMachine("waiter", "waiting", []aox.State{{
		ID: "waiting",
		Handler: func(e *aox.Event) aox.Disposition {
			if e.Sig == sigTimeout {
				fired.Store(true)
				return aox.Handled()
			}
			return aox.Pass()
		},
	}})
	require.NoError(t, err)
	a, err := k.AddActive("waiter", 1, m)
	require.NoError(t, err)

	te := k.NewTimeEvent(a, sigTimeout, nil)
	te.Arm(3, 0)

	d := realtime.New(k, realtime.Config{TickRate: time.Millisecond})
	require.NoError(t, d.Start(context.Background()))
	defer d.Stop()

	assert.Eventually(t, fired.Load, 2*time.Second, time.Millisecond)
	assert.False(t, te.Armed())
}
