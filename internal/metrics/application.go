package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ApplicationMetrics tracks domain-specific metrics (note uploads, aura, moderation, etc)
type ApplicationMetrics struct {
	// Note pipeline
	NoteUploadsTotal       prometheus.CounterVec
	NoteProcessingDuration prometheus.HistogramVec
	NoteProcessingFailures prometheus.CounterVec
	NoteDownloadsTotal     prometheus.CounterVec

	// Engagement
	VotesTotal    prometheus.CounterVec
	SavesTotal    prometheus.CounterVec
	ReportsTotal  prometheus.CounterVec
	AuraAwarded   prometheus.CounterVec
	NotesCreated  prometheus.CounterVec

	// Moderation
	ModerationOutcomes prometheus.CounterVec

	// Realtime delivery
	RealtimeClientsConnected prometheus.GaugeVec
	RealtimeMessagesSent     prometheus.CounterVec

	// Validation metrics
	ValidationFailures prometheus.CounterVec

	// Search
	SearchRequests prometheus.CounterVec
}

// InitializeApplicationMetrics creates and registers all application metrics
func InitializeApplicationMetrics() *ApplicationMetrics {
	return &ApplicationMetrics{
		// Note pipeline metrics
		NoteUploadsTotal: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "note_uploads_total",
				Help: "Total number of note uploads",
			},
			[]string{"status", "file_type"},
		),
		NoteProcessingDuration: *promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "note_processing_duration_seconds",
				Help:    "Note upload pipeline stage duration in seconds",
				Buckets: []float64{0.05, 0.1, 0.5, 1, 5, 10, 30, 60},
			},
			[]string{"stage"},
		),
		NoteProcessingFailures: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "note_processing_failures_total",
				Help: "Total note upload pipeline failures",
			},
			[]string{"reason"},
		),
		NoteDownloadsTotal: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "note_downloads_total",
				Help: "Total number of note downloads",
			},
			[]string{"authenticated"},
		),

		// Engagement metrics
		VotesTotal: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "note_votes_total",
				Help: "Total number of note votes",
			},
			[]string{"direction"},
		),
		SavesTotal: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "note_saves_total",
				Help: "Total number of note saves",
			},
			[]string{},
		),
		ReportsTotal: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "reports_total",
				Help: "Total number of content reports",
			},
			[]string{"reason"},
		),
		AuraAwarded: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "aura_points_awarded_total",
				Help: "Total aura points awarded or deducted",
			},
			[]string{"event_type"},
		),
		NotesCreated: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "notes_created_total",
				Help: "Total number of notes created",
			},
			[]string{"status"},
		),

		// Moderation metrics
		ModerationOutcomes: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "moderation_outcomes_total",
				Help: "Total moderation evaluations by outcome",
			},
			[]string{"action"},
		),

		// Realtime metrics
		RealtimeClientsConnected: *promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "realtime_clients_connected",
				Help: "Number of currently connected websocket clients",
			},
			[]string{},
		),
		RealtimeMessagesSent: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "realtime_messages_sent_total",
				Help: "Total realtime messages delivered",
			},
			[]string{"type"},
		),

		// Validation metrics
		ValidationFailures: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "validation_failures_total",
				Help: "Total validation failures",
			},
			[]string{"field", "reason"},
		),

		// Search metrics
		SearchRequests: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "search_requests_total",
				Help: "Total search requests",
			},
			[]string{"backend", "type"},
		),
	}
}
