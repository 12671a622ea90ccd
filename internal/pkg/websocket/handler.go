package websocket

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// JobSource looks up the current state of a job for late subscribers
type JobSource interface {
	Snapshot(ctx context.Context, jobID string) (any, error)
}

// ErrorResponder writes an error response for a failed lookup
type ErrorResponder func(c *gin.Context, err error)

// Handler for WebSocket connections
type Handler struct {
	hub     *Hub
	jobs    JobSource
	onError ErrorResponder
	logger  zerolog.Logger
}

// NewHandler creates a new WebSocket handler
func NewHandler(hub *Hub, jobs JobSource, onError ErrorResponder, logger zerolog.Logger) *Handler {
	return &Handler{
		hub:     hub,
		jobs:    jobs,
		onError: onError,
		logger:  logger,
	}
}

// HandleConnection godoc
// @Summary Subscribe to batch progress
// @Description Upgrades to a WebSocket that first receives the job snapshot, then every progress event until the job completes
// @Tags certificates
// @Security BearerAuth
// @Param id path string true "Batch job ID"
// @Param token query string false "Access token for clients that cannot set headers"
// @Success 101 {string} string "Switching Protocols to WebSocket"
// @Failure 401 {object} dto.ErrorResponse
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/certificates/batch/{id}/ws [get]
func (h *Handler) HandleConnection(c *gin.Context) {
	jobID := c.Param("id")

	snapshot, err := h.jobs.Snapshot(c.Request.Context(), jobID)
	if err != nil {
		h.onError(c, err)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error().Err(err).Str("jobID", jobID).Msg("Failed to upgrade connection to WebSocket")
		return
	}

	client := &Client{
		hub:    h.hub,
		conn:   conn,
		send:   make(chan []byte, sendBuffer),
		userID: c.GetString("userID"),
		jobID:  jobID,
		logger: h.logger,
	}

	if data, err := marshalEvent(jobID, EventSnapshot, snapshot); err == nil {
		client.send <- data
	}
	if !h.hub.attach(client) {
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}
