package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ActiveCalls = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "callengine_active_calls",
		Help: "Number of call sessions not yet in a terminal state",
	})

	CallsStarted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "callengine_calls_started_total",
		Help: "Admitted call sessions by type and mode",
	}, []string{"call_type", "call_mode"})

	AdmissionsDenied = promauto.NewCounter(prometheus.CounterOpts{
		Name: "callengine_admissions_denied_total",
		Help: "Call start requests rejected for insufficient balance",
	})

	ConnectFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "callengine_connect_failures_total",
		Help: "Sessions that failed before reaching the active state, timeouts included",
	})

	SettlementsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "callengine_settlements_total",
		Help: "Settlement records emitted",
	})

	BilledMinutesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "callengine_billed_minutes_total",
		Help: "Minutes billed across all settlements",
	})
)
