package realtime

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/Aazib-Ai/UOLink-App-sub006/internal/logger"
	"github.com/Aazib-Ai/UOLink-App-sub006/internal/models"
	"github.com/coder/websocket"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// TokenValidator authenticates a bearer token. Satisfied by
// auth.Service.
type TokenValidator interface {
	ValidateToken(tokenString string) (*models.User, error)
}

// Handler upgrades HTTP requests to WebSocket connections
type Handler struct {
	hub       *Hub
	validator TokenValidator
}

// NewHandler creates a new WebSocket handler
func NewHandler(hub *Hub, validator TokenValidator) *Handler {
	return &Handler{
		hub:       hub,
		validator: validator,
	}
}

// HandleWebSocket handles WebSocket upgrade requests.
// Authentication is via ?token=... query param or an
// Authorization: Bearer header; browsers can't set headers on
// WebSocket connects, so the query param is the common path.
func (h *Handler) HandleWebSocket(c *gin.Context) {
	user, err := h.authenticateRequest(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error":   "authentication_failed",
			"message": err.Error(),
		})
		return
	}

	conn, err := websocket.Accept(c.Writer, c.Request, &websocket.AcceptOptions{
		InsecureSkipVerify: true, // origin checked by the CORS layer in front
		CompressionMode:    websocket.CompressionContextTakeover,
	})
	if err != nil {
		logger.Log.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}

	client := NewClient(h.hub, conn, user.ID, user.Username)
	client.RemoteAddr = c.ClientIP()
	client.UserAgent = c.GetHeader("User-Agent")

	h.hub.Register(client)

	client.Send(NewMessage(MessageTypeSystem, SystemPayload{
		Event:   "connected",
		Message: "Connected to UOLink",
		Data: map[string]interface{}{
			"user_id":     user.ID,
			"username":    user.Username,
			"server_time": time.Now().UTC().UnixMilli(),
		},
	}))

	go client.WritePump()
	client.ReadPump() // blocks until the client disconnects
}

func (h *Handler) authenticateRequest(c *gin.Context) (*models.User, error) {
	tokenString := c.Query("token")

	if auth := c.GetHeader("Authorization"); auth != "" {
		tokenString = strings.TrimPrefix(auth, "Bearer ")
	}

	if tokenString == "" {
		return nil, errors.New("no authentication token provided")
	}

	return h.validator.ValidateToken(tokenString)
}

// HandleStats returns hub counters for monitoring
func (h *Handler) HandleStats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"websocket":    h.hub.Snapshot(),
		"online_users": h.hub.OnlineUserCount(),
		"timestamp":    time.Now().UTC(),
	})
}

// Shutdown gracefully shuts down the hub
func (h *Handler) Shutdown(ctx context.Context) error {
	return h.hub.Shutdown(ctx)
}

// GetHub returns the hub for services that push messages
func (h *Handler) GetHub() *Hub {
	return h.hub
}
