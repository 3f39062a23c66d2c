package confine

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// loopAlive tracks the number of running loops.
	loopAlive = promauto.NewGaugeVec(prometheus.GaugeOpts{ //nolint:gochecknoglobals
		Name: "confine_loop_alive",
		Help: "The number of confinement loops alive",
	}, []string{"subsystem", "loop"})

	// loopQueued tracks the queue depth (tasks waiting to run).
	loopQueued = promauto.NewGaugeVec(prometheus.GaugeOpts{ //nolint:gochecknoglobals
		Name: "confine_loop_queued_tasks",
		Help: "The number of tasks waiting in the loop's mailbox",
	}, []string{"subsystem", "loop"})

	// loopProcessed counts tasks that ran, including ones that panicked.
	loopProcessed = promauto.NewCounterVec(prometheus.CounterOpts{ //nolint:gochecknoglobals
		Name: "confine_loop_processed_tasks_total",
		Help: "The total number of tasks run by the loop",
	}, []string{"subsystem", "loop"})

	// loopPanics counts tasks that panicked.
	loopPanics = promauto.NewCounterVec(prometheus.CounterOpts{ //nolint:gochecknoglobals
		Name: "confine_loop_panics_total",
		Help: "The total number of tasks that panicked inside the loop",
	}, []string{"subsystem", "loop"})

	// loopDropped counts tasks submitted after the loop was closed.
	loopDropped = promauto.NewCounterVec(prometheus.CounterOpts{ //nolint:gochecknoglobals
		Name: "confine_loop_dropped_tasks_total",
		Help: "The total number of tasks dropped because the loop was closed",
	}, []string{"subsystem", "loop"})

	// loopTaskTime measures how long each task held the loop.
	loopTaskTime = promauto.NewHistogramVec(prometheus.HistogramOpts{ //nolint:gochecknoglobals
		Name: "confine_loop_task_seconds",
		Help: "The time spent running a single task",
		Buckets: []float64{
			0.0001, // 100us
			0.001,  // 1ms
			0.01,   // 10ms
			0.1,    // 100ms
			1,      // 1s
			10,     // 10s
		},
	}, []string{"subsystem", "loop"})
)
