package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PredictionsServed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tapsalert_predictions_served_total",
		Help: "Total number of probability predictions computed.",
	})
	SightingsReported = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tapsalert_sightings_reported_total",
		Help: "Total number of TAPS sightings reported.",
	})
	NotificationsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tapsalert_notifications_created_total",
		Help: "Total number of in-app notifications created.",
	})
	RemindersSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tapsalert_reminders_sent_total",
		Help: "Total number of checkout reminders sent.",
	})
	PredictionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "tapsalert_prediction_duration_seconds",
		Help:    "Duration of a full prediction evaluation.",
		Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
	})
)
