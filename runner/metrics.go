package runner

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	outcomeResult   = "result"
	outcomeTimeout  = "timeout"
	outcomeSalvaged = "salvaged"
	outcomeError    = "error"
	outcomeLate     = "late"
)

var (
	commandsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "runner_commands_total",
		Help: "Interpreted command primitives by runner and kind",
	}, []string{"runner", "kind"})

	backlogDepth = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "runner_backlog_depth",
		Help: "Actions waiting in the backlog",
	}, []string{"runner"})

	pendingTasks = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "runner_pending_tasks",
		Help: "Async and deferred tasks that have not settled yet",
	}, []string{"runner"})

	taskOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "runner_task_outcomes_total",
		Help: "Settled pending tasks by outcome (result, timeout, salvaged, error, late)",
	}, []string{"runner", "outcome"})

	faultsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "runner_faults_total",
		Help: "Errors reported to receivers or the orphan handler, by source",
	}, []string{"runner", "source"})

	lifecycleTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "runner_lifecycle_total",
		Help: "Scheduler starts and stops",
	}, []string{"runner", "event"})
)
