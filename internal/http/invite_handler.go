package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"pong-auth/internal/domain"
	"pong-auth/internal/repository"
)

// InviteHandler expone las listas de invitaciones que sondea el frontend.
type InviteHandler struct {
	logger  *zap.Logger
	invites repository.GameInviteRepository
}

func NewInviteHandler(logger *zap.Logger, invites repository.GameInviteRepository) *InviteHandler {
	return &InviteHandler{
		logger:  logger,
		invites: invites,
	}
}

// Create maneja POST /invites. La invitacion nace en estado waiting.
func (h *InviteHandler) Create(c *gin.Context) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	var req struct {
		InviteeID string `json:"inviteeId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.InviteeID == claims.UserID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	invite := domain.GameInvite{
		ID:        uuid.NewString(),
		InviterID: claims.UserID,
		InviteeID: req.InviteeID,
		Status:    domain.InviteWaiting,
		CreatedAt: time.Now().UTC(),
	}
	if err := h.invites.Create(c.Request.Context(), invite); err != nil {
		h.logger.Error("invite create failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create invite"})
		return
	}
	c.JSON(http.StatusCreated, invite)
}

// Respond maneja PATCH /invites/:id. Solo acepta transiciones a thinking
// o accepted.
func (h *InviteHandler) Respond(c *gin.Context) {
	if _, ok := GetAuthClaims(c); !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil ||
		(req.Status != domain.InviteThinking && req.Status != domain.InviteAccepted) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status"})
		return
	}

	if err := h.invites.UpdateStatus(c.Request.Context(), c.Param("id"), req.Status); err != nil {
		h.logger.Error("invite status update failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not update invite"})
		return
	}
	c.Status(http.StatusNoContent)
}

// ListAccepted maneja GET /invites/accepted.
func (h *InviteHandler) ListAccepted(c *gin.Context) {
	h.list(c, h.invites.ListAccepted)
}

// ListWaiting maneja GET /invites/waiting.
func (h *InviteHandler) ListWaiting(c *gin.Context) {
	h.list(c, h.invites.ListWaiting)
}

// ListThinking maneja GET /invites/thinking.
func (h *InviteHandler) ListThinking(c *gin.Context) {
	h.list(c, h.invites.ListThinking)
}

func (h *InviteHandler) list(c *gin.Context, fetch func(ctx context.Context, userID string) ([]domain.GameInvite, error)) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	invites, err := fetch(c.Request.Context(), claims.UserID)
	if err != nil {
		h.logger.Error("invite list failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list invites"})
		return
	}
	c.JSON(http.StatusOK, invites)
}
