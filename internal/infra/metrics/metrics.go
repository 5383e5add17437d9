// Package metrics provides Prometheus metrics for Kidzy.
// Counters for dispatched commands, ledger writes, snapshot persistence,
// logins and health checks. Exposed by the API on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "kidzy"

// ─── Commands ───────────────────────────────────────────────────────────────

// CommandsTotal counts dispatched commands by name and outcome
// (applied, rejected, panic).
var CommandsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Name:      "commands_total",
	Help:      "Commands dispatched to the household store.",
}, []string{"command", "outcome"})

// CommandLatency tracks transition plus persistence time.
var CommandLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: namespace,
	Name:      "command_duration_seconds",
	Help:      "Time to apply and persist a command.",
	Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
}, []string{"command"})

// ─── Ledger ─────────────────────────────────────────────────────────────────

// TransactionsTotal counts ledger entries appended, by type.
var TransactionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Name:      "transactions_total",
	Help:      "Ledger transactions appended.",
}, []string{"type"})

// MultiplierRolls counts bonus rolls by resulting multiplier.
var MultiplierRolls = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Name:      "multiplier_rolls_total",
	Help:      "Bonus multiplier rolls by result.",
}, []string{"multiplier"})

// ─── Persistence ────────────────────────────────────────────────────────────

// SnapshotSaves counts snapshot saves by result (ok, quota, error).
var SnapshotSaves = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Name:      "snapshot_saves_total",
	Help:      "Snapshot save attempts by result.",
}, []string{"result"})

// SnapshotBytes is the size of the last encoded snapshot.
var SnapshotBytes = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: namespace,
	Name:      "snapshot_bytes",
	Help:      "Encoded size of the last saved snapshot.",
})

// ─── Auth ───────────────────────────────────────────────────────────────────

// LoginAttempts counts PIN logins by result (ok, wrong_pin, locked).
var LoginAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Name:      "login_attempts_total",
	Help:      "PIN login attempts by result.",
}, []string{"result"})

// ─── Health ─────────────────────────────────────────────────────────────────

// HealthStatus tracks health check status (1=healthy, 0=unhealthy).
var HealthStatus = promauto.NewGaugeVec(prometheus.GaugeOpts{
	Namespace: namespace,
	Name:      "health_check_status",
	Help:      "Health check status (1=healthy, 0=unhealthy).",
}, []string{"check"})
