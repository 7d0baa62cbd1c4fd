package aox

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for the runtime. Pool gauges reflect the most recently
// active pool; per-active series are labelled with the active's name.

var (
	eventsAllocatedTotal = promauto.NewCounter(prometheus.CounterOpts{ //nolint:gochecknoglobals
		Name: "aox_events_allocated_total",
		Help: "The total number of events allocated from the pool",
	})

	eventsReclaimedTotal = promauto.NewCounter(prometheus.CounterOpts{ //nolint:gochecknoglobals
		Name: "aox_events_reclaimed_total",
		Help: "The total number of events returned to the pool",
	})

	poolExhaustedTotal = promauto.NewCounter(prometheus.CounterOpts{ //nolint:gochecknoglobals
		Name: "aox_pool_exhausted_total",
		Help: "The total number of allocations that failed with an exhausted pool",
	})

	poolInUse = promauto.NewGauge(prometheus.GaugeOpts{ //nolint:gochecknoglobals
		Name: "aox_pool_in_use",
		Help: "The number of event buffers currently in use",
	})

	poolHighWater = promauto.NewGauge(prometheus.GaugeOpts{ //nolint:gochecknoglobals
		Name: "aox_pool_high_water",
		Help: "The most event buffers ever in use at once",
	})

	queueDepth = promauto.NewGaugeVec(prometheus.GaugeOpts{ //nolint:gochecknoglobals
		Name: "aox_queue_depth",
		Help: "The number of events waiting in an active object's queue",
	}, []string{"active"})

	dispatchedTotal = promauto.NewCounterVec(prometheus.CounterOpts{ //nolint:gochecknoglobals
		Name: "aox_dispatched_total",
		Help: "The total number of events dispatched, by active and outcome",
	}, []string{"active", "outcome"})

	droppedTotal = promauto.NewCounterVec(prometheus.CounterOpts{ //nolint:gochecknoglobals
		Name: "aox_dropped_total",
		Help: "The total number of events dropped at post time, by active and reason",
	}, []string{"active", "reason"})

	publishedTotal = promauto.NewCounter(prometheus.CounterOpts{ //nolint:gochecknoglobals
		Name: "aox_published_total",
		Help: "The total number of publish calls that reached at least one subscriber",
	})

	ticksTotal = promauto.NewCounter(prometheus.CounterOpts{ //nolint:gochecknoglobals
		Name: "aox_ticks_total",
		Help: "The total number of kernel ticks",
	})

	timeEventsFiredTotal = promauto.NewCounter(prometheus.CounterOpts{ //nolint:gochecknoglobals
		Name: "aox_time_events_fired_total",
		Help: "The total number of time events that fired",
	})
)
