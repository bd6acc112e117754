package command

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// commandsTotal counts executed commands by command name and result
	commandsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ancestre_commands_total",
		Help: "Total commands executed by name and result",
	}, []string{"command", "result"})

	// historyOperationsTotal counts undo/redo requests by result (ok, empty, error)
	historyOperationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ancestre_history_operations_total",
		Help: "Total undo and redo requests by operation and result",
	}, []string{"operation", "result"})

	// historyEvictionsTotal counts commands dropped from a full history
	historyEvictionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ancestre_history_evictions_total",
		Help: "Total commands evicted from a bounded history stack",
	}, []string{"stack"})

	// historyDepth tracks the current size of the undo and redo stacks
	historyDepth = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "ancestre_history_depth",
		Help: "Number of commands currently held in each history stack",
	}, []string{"stack"})
)

const (
	stackUndo = "undo"
	stackRedo = "redo"

	resultOK    = "ok"
	resultError = "error"
	resultEmpty = "empty"
)
