package executor

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	poolAlive = promauto.NewGaugeVec(prometheus.GaugeOpts{ //nolint:gochecknoglobals
		Name: "executor_pool_alive",
		Help: "1 if the pool is alive and accepting tasks",
	}, []string{"pool"})

	tasksSubmitted = promauto.NewCounterVec(prometheus.CounterOpts{ //nolint:gochecknoglobals
		Name: "executor_tasks_submitted_total",
		Help: "The total number of tasks accepted by the pool",
	}, []string{"pool"})

	tasksRejected = promauto.NewCounterVec(prometheus.CounterOpts{ //nolint:gochecknoglobals
		Name: "executor_tasks_rejected_total",
		Help: "The total number of tasks rejected because the pool was stopped",
	}, []string{"pool"})

	tasksPanicked = promauto.NewCounterVec(prometheus.CounterOpts{ //nolint:gochecknoglobals
		Name: "executor_tasks_panicked_total",
		Help: "The total number of tasks that panicked",
	}, []string{"pool"})
)
