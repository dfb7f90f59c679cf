// Package handlers contains the HTTP layer: request parsing, auth
// middleware, and JSON responses. Business rules live in the service
// packages.
package handlers

import (
	"github.com/Aazib-Ai/UOLink-App-sub006/internal/alerts"
	"github.com/Aazib-Ai/UOLink-App-sub006/internal/aura"
	"github.com/Aazib-Ai/UOLink-App-sub006/internal/auth"
	"github.com/Aazib-Ai/UOLink-App-sub006/internal/email"
	"github.com/Aazib-Ai/UOLink-App-sub006/internal/moderation"
	"github.com/Aazib-Ai/UOLink-App-sub006/internal/notes"
	"github.com/Aazib-Ai/UOLink-App-sub006/internal/notifications"
	"github.com/Aazib-Ai/UOLink-App-sub006/internal/realtime"
	"github.com/Aazib-Ai/UOLink-App-sub006/internal/search"
	"github.com/Aazib-Ai/UOLink-App-sub006/internal/storage"
	"github.com/Aazib-Ai/UOLink-App-sub006/internal/timetable"
	"github.com/Aazib-Ai/UOLink-App-sub006/internal/warming"
)

// Handlers bundles every HTTP handler with its dependencies. Optional
// dependencies (search, storage, email, realtime) may be nil; the
// affected endpoints then degrade or return a service error.
type Handlers struct {
	auth          *auth.Service
	notes         *notes.Service
	aura          *aura.Service
	timetable     *timetable.Service
	notifications *notifications.Service
	moderation    *moderation.Engine

	storage storage.Uploader
	email   email.Sender
	search  *search.Client
	cached  *search.CachedClient
	hub     *realtime.Hub
	alerts  *alerts.Manager
	warmer  *warming.Scheduler
}

// NewHandlers creates the handler set from the core services
func NewHandlers(
	authService *auth.Service,
	notesService *notes.Service,
	auraService *aura.Service,
	timetableService *timetable.Service,
	notificationService *notifications.Service,
	moderationEngine *moderation.Engine,
) *Handlers {
	return &Handlers{
		auth:          authService,
		notes:         notesService,
		aura:          auraService,
		timetable:     timetableService,
		notifications: notificationService,
		moderation:    moderationEngine,
	}
}

// SetStorage sets the file storage backend (Cloudflare R2)
func (h *Handlers) SetStorage(uploader storage.Uploader) {
	h.storage = uploader
}

// SetEmailSender sets the transactional email backend
func (h *Handlers) SetEmailSender(sender email.Sender) {
	h.email = sender
}

// SetSearchClient sets the Elasticsearch client and its cached wrapper
func (h *Handlers) SetSearchClient(client *search.Client) {
	h.search = client
	if client != nil {
		h.cached = search.NewCachedClient(client)
	}
}

// SetRealtimeHub sets the WebSocket hub for live pushes
func (h *Handlers) SetRealtimeHub(hub *realtime.Hub) {
	h.hub = hub
}

// SetAlertManager sets the operational alert store
func (h *Handlers) SetAlertManager(manager *alerts.Manager) {
	h.alerts = manager
}

// SetWarmingScheduler exposes the cache warming scheduler so operators
// can trigger a pass on demand
func (h *Handlers) SetWarmingScheduler(scheduler *warming.Scheduler) {
	h.warmer = scheduler
}
