package aox_test

import (
	"fmt"
	"testing"

	"github.com/neilotoole/slogt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Archontes/aox"
)

func TestPublishWithNoSubscribersAllocatesNothing(t *testing.T) {
	k := aox.NewKernel(aox.WithLogger(slogt.New(t)), aox.WithPoolCapacity(1))
	_, err := k.AddActive("bystander", 1, sinkMachine(t, "bystander", nil))
	require.NoError(t, err)
	require.NoError(t, k.Start())

	require.NoError(t, k.Publish(sigGo, nil))
	assert.Equal(t, 1, k.Pool().Free())
	assert.Equal(t, 0, k.RunToIdle())
}

func TestPublishDeliversOneSharedInstance(t *testing.T) {
	k := aox.NewKernel(aox.WithLogger(slogt.New(t)))

	// Pointer identity proves the instance is shared; the payload must be
	// snapshotted at dispatch time, since the buffer is zeroed once the last
	// subscriber releases it.
	var seen []*aox.Event
	var payloads []any
	mkSink := func(name string) *aox.Machine {
		return sinkMachine(t, name, func(e *aox.Event) {
			seen = append(seen, e)
			payloads = append(payloads, e.Data)
		})
	}

	a, err := k.AddActive("a", 1, mkSink("a"))
	require.NoError(t, err)
	b, err := k.AddActive("b", 2, mkSink("b"))
	require.NoError(t, err)
	c, err := k.AddActive("c", 3, mkSink("c"))
	require.NoError(t, err)
	require.NoError(t, k.Start())

	a.Subscribe(sigGo)
	b.Subscribe(sigGo)
	c.Subscribe(sigGo)

	require.NoError(t, k.Publish(sigGo, "shared"))
	assert.Equal(t, 3, k.RunToIdle())

	require.Len(t, seen, 3)
	assert.Same(t, seen[0], seen[1])
	assert.Same(t, seen[1], seen[2])
	assert.Equal(t, []any{"shared", "shared", "shared"}, payloads)
	// All per-subscriber references released after the last dispatch.
	assert.Equal(t, k.Pool().Capacity(), k.Pool().Free())
}

func TestSubscribeIsIdempotent(t *testing.T) {
	k := aox.NewKernel(aox.WithLogger(slogt.New(t)))
	deliveries := 0

	a, err := k.AddActive("dup", 1, sinkMachine(t, "dup", func(e *aox.Event) {
		deliveries++
	}))
	require.NoError(t, err)
	require.NoError(t, k.Start())

	a.Subscribe(sigGo)
	a.Subscribe(sigGo)
	a.Subscribe(sigGo)
	assert.Equal(t, 1, k.Subscribers(sigGo))

	require.NoError(t, k.Publish(sigGo, nil))
	k.RunToIdle()
	assert.Equal(t, 1, deliveries)
}

func TestPublishDeliveryFollowsPriorityOrder(t *testing.T) {
	k := aox.NewKernel(aox.WithLogger(slogt.New(t)))
	log := &actionLog{}

	mkSink := func(name string) *aox.Machine {
		return sinkMachine(t, name, func(e *aox.Event) { log.add(name) })
	}
	low, err := k.AddActive("low", 7, mkSink("low"))
	require.NoError(t, err)
	high, err := k.AddActive("high", 1, mkSink("high"))
	require.NoError(t, err)
	mid, err := k.AddActive("mid", 3, mkSink("mid"))
	require.NoError(t, err)
	require.NoError(t, k.Start())

	// Subscription order is deliberately scrambled; dispatch order is not.
	low.Subscribe(sigGo)
	high.Subscribe(sigGo)
	mid.Subscribe(sigGo)

	require.NoError(t, k.Publish(sigGo, nil))
	k.RunToIdle()
	assert.Equal(t, []string{"high", "mid", "low"}, log.take())
}

func TestSubscriberOverflowOnlyLosesThatSubscriber(t *testing.T) {
	k := aox.NewKernel(aox.WithLogger(slogt.New(t)))
	log := &actionLog{}

	mkSink := func(name string) *aox.Machine {
		return sinkMachine(t, name, func(e *aox.Event) {
			log.add(fmt.Sprintf("%s:%v", name, e.Data))
		})
	}
	full, err := k.AddActive("full", 1, mkSink("full"), aox.WithQueueCapacity(1))
	require.NoError(t, err)
	open, err := k.AddActive("open", 2, mkSink("open"))
	require.NoError(t, err)
	require.NoError(t, k.Start())

	full.Subscribe(sigGo)
	open.Subscribe(sigGo)

	// Jam the full subscriber's queue first.
	require.NoError(t, full.Post(mustAllocate(t, k, sigStay, "jam")))

	require.NoError(t, k.Publish(sigGo, "news"))
	k.RunToIdle()

	// full missed the broadcast but kept its queued event; open got the news.
	assert.Equal(t, []string{"full:jam", "open:news"}, log.take())
	assert.Equal(t, k.Pool().Capacity(), k.Pool().Free())
}

func TestPublishFailsWhenPoolExhausted(t *testing.T) {
	k := aox.NewKernel(aox.WithLogger(slogt.New(t)), aox.WithPoolCapacity(1))

	a, err := k.AddActive("sub", 1, sinkMachine(t, "sub", nil))
	require.NoError(t, err)
	require.NoError(t, k.Start())
	a.Subscribe(sigGo)

	// Hold the only buffer.
	held := mustAllocate(t, k, sigStay, nil)

	err = k.Publish(sigGo, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, aox.ErrPoolExhausted)

	held.Release()
	require.NoError(t, k.Publish(sigGo, nil))
	assert.Equal(t, 1, k.RunToIdle())
}
