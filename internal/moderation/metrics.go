package moderation

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var verdictCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "sweeper_verdicts_total",
	Help: "Number of rule verdicts produced",
}, []string{"rule"})

var actionCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "sweeper_actions_total",
	Help: "Number of enforcement actions taken",
}, []string{"kind"})

var signalCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "sweeper_repetition_signals_total",
	Help: "Number of repetition signals raised",
}, []string{"signal"})

var notifyFailureCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "sweeper_notify_failures_total",
	Help: "Number of warnings that could not be delivered by direct message",
}, []string{"rule"})

var auditFailureCount = promauto.NewCounter(prometheus.CounterOpts{
	Name: "sweeper_audit_failures_total",
	Help: "Number of audit entries that could not be delivered",
})

var classifyErrorCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "sweeper_classify_errors_total",
	Help: "Number of rule evaluations that failed",
}, []string{"rule"})

var trackedUsers = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "sweeper_tracked_users",
	Help: "Number of members with repetition state",
})
