// Package metrics exposes the prometheus metrics of the driver
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Controller counters and gauges, partitioned by axis where relevant.

var (
	Ticks = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "torcsrl",
		Subsystem: "driver",
		Name:      "ticks_total",
		Help:      "Total ticks handled, by controller state",
	}, []string{"state"})

	TickLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "torcsrl",
		Subsystem: "driver",
		Name:      "tick_duration_seconds",
		Help:      "Time to compute one control action",
		Buckets:   []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.02},
	})

	RejectedSnapshots = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "torcsrl",
		Subsystem: "driver",
		Name:      "rejected_snapshots_total",
		Help:      "Snapshots with NaN or out of range readings",
	})

	Updates = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "torcsrl",
		Subsystem: "learner",
		Name:      "updates_total",
		Help:      "Total Q-table updates",
	}, []string{"axis"})

	Rewards = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "torcsrl",
		Subsystem: "learner",
		Name:      "reward",
		Help:      "Rewards observed by each axis",
		Buckets:   []float64{-1000, -100, -10, 0, 100, 200},
	}, []string{"axis"})

	Epsilon = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "torcsrl",
		Subsystem: "learner",
		Name:      "epsilon",
		Help:      "Current exploration rate",
	}, []string{"axis"})

	Episodes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "torcsrl",
		Subsystem: "episode",
		Name:      "ended_total",
		Help:      "Total episodes ended, by reason",
	}, []string{"end"})

	Epoch = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "torcsrl",
		Subsystem: "episode",
		Name:      "epoch",
		Help:      "Number of completed epochs",
	})

	DistanceRaced = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "torcsrl",
		Subsystem: "episode",
		Name:      "distance_raced_meters",
		Help:      "Distance raced in the current episode",
	})

	Messages = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "torcsrl",
		Subsystem: "transport",
		Name:      "messages_total",
		Help:      "Total messages exchanged with the race server",
	}, []string{"direction"})

	Timeouts = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "torcsrl",
		Subsystem: "transport",
		Name:      "timeouts_total",
		Help:      "Total reads from the race server that timed out",
	})
)
