package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Counters exposed on /metrics.
var (
	PinSessionsGenerated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "classpin_pin_sessions_generated_total",
		Help: "Number of attendance PIN sessions generated.",
	})

	Marks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "classpin_attendance_marks_total",
		Help: "Attendance records written, by entry method.",
	}, []string{"method"})

	Rejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "classpin_attendance_rejections_total",
		Help: "Rejected attendance submissions, by reason code.",
	}, []string{"reason"})
)
