package app

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	messagesDispatchedCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "care",
			Name:      "messages_dispatched_total",
			Help:      "Total number of care messages processed by the dispatcher.",
		},
		[]string{"outcome"}, // sent, failed, failed_no_webhook
	)
	dispatchCycleDurationHist = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "care",
			Name:      "dispatch_cycle_duration_seconds",
			Help:      "Duration of a full dispatch cycle.",
			Buckets:   prometheus.DefBuckets,
		},
	)
	draftsProcessedCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "care",
			Name:      "drafts_processed_total",
			Help:      "Total number of draft attempts by outcome.",
		},
		[]string{"outcome"}, // success or a DraftFailureReason
	)
	scanTriggeredCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "care",
			Name:      "scan_drafts_triggered_total",
			Help:      "Total number of draft jobs fanned out by the eligibility scanner.",
		},
	)
)
