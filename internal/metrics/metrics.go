package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SessionsOpened counts attendance sessions opened, by type.
	SessionsOpened = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "attend_sessions_opened_total",
		Help: "Attendance sessions opened.",
	}, []string{"type"})

	// SessionsClosed counts closures, by trigger (teacher or sweep).
	SessionsClosed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "attend_sessions_closed_total",
		Help: "Attendance sessions closed.",
	}, []string{"reason"})

	// MarksRecorded counts attendance marks written, by status.
	MarksRecorded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "attend_marks_recorded_total",
		Help: "Attendance records written.",
	}, []string{"status"})

	// CodeLookups counts code resolution attempts, by outcome (cache, db, miss).
	CodeLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "attend_code_lookups_total",
		Help: "Attendance code lookups.",
	}, []string{"outcome"})
)
