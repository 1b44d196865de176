package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"whispers/backend/internal/apperr"
	"whispers/backend/internal/garden"
	"whispers/backend/internal/session"
)

// GardenHandler exposes the caller's garden over HTTP.
type GardenHandler struct {
	gardens *garden.Registry
	logger  *zap.Logger
	timeout time.Duration
}

func NewGardenHandler(gardens *garden.Registry, logger *zap.Logger, timeout time.Duration) *GardenHandler {
	return &GardenHandler{gardens: gardens, logger: logger, timeout: timeout}
}

// PlantThoughtPayload is the body of POST /garden/thoughts. A missing or
// empty text plants nothing, like whitespace-only text.
type PlantThoughtPayload struct {
	Text string `json:"text" binding:"max=2000"`
}

// GetGarden reloads the garden from the store.
func (h *GardenHandler) GetGarden(c *gin.Context) {
	sess, g, ok := h.resolve(c)
	if !ok {
		return
	}
	ctx, cancel := h.context(c)
	defer cancel()

	snap := g.Activate(ctx, sess)
	c.JSON(activationStatus(snap), snap)
}

// GetGardenState returns the cached garden, reloading it first when it was
// never loaded or a change failed since the last load.
func (h *GardenHandler) GetGardenState(c *gin.Context) {
	sess, g, ok := h.resolve(c)
	if !ok {
		return
	}
	if !g.NeedsRefresh() {
		c.JSON(http.StatusOK, g.Snapshot())
		return
	}
	ctx, cancel := h.context(c)
	defer cancel()

	snap := g.Activate(ctx, sess)
	c.JSON(activationStatus(snap), snap)
}

// PlantThought adds a thought. Empty or whitespace-only text plants nothing.
func (h *GardenHandler) PlantThought(c *gin.Context) {
	var payload PlantThoughtPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		h.logger.Debug("rejected thought payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid payload: " + err.Error()})
		return
	}
	sess, g, ok := h.resolve(c)
	if !ok {
		return
	}
	ctx, cancel := h.context(c)
	defer cancel()

	snap := g.AddThought(ctx, sess, payload.Text)
	if snap.Planted != nil && snap.Notice == nil {
		c.JSON(http.StatusCreated, snap)
		return
	}
	c.JSON(http.StatusOK, snap)
}

// DeleteThought removes a thought by id.
func (h *GardenHandler) DeleteThought(c *gin.Context) {
	sess, g, ok := h.resolve(c)
	if !ok {
		return
	}
	ctx, cancel := h.context(c)
	defer cancel()

	snap := g.DeleteThought(ctx, sess, c.Param("id"))
	c.JSON(http.StatusOK, snap)
}

func (h *GardenHandler) resolve(c *gin.Context) (*session.Session, *garden.Garden, bool) {
	sess := session.ForContext(c.Request.Context())
	if !sess.SignedIn() {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return nil, nil, false
	}
	return sess, h.gardens.For(sess.UserID), true
}

func (h *GardenHandler) context(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), h.timeout)
}

func activationStatus(snap garden.Snapshot) int {
	if snap.State == garden.StateError && snap.Notice != nil {
		return apperr.HTTPStatus(snap.Notice.Kind)
	}
	return http.StatusOK
}
