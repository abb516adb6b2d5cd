package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"pong-auth/internal/service"
)

// UserHandler mantiene dependencias para endpoints auxiliares de cuenta.
type UserHandler struct {
	logger   *zap.Logger
	authServ *service.AuthService
}

// NewUserHandler crea una instancia de UserHandler con dependencias necesarias.
func NewUserHandler(logger *zap.Logger, authServ *service.AuthService) *UserHandler {
	return &UserHandler{
		logger:   logger,
		authServ: authServ,
	}
}

// Online maneja POST /user/online.
func (h *UserHandler) Online(c *gin.Context) {
	h.setPresence(c, true)
}

// Offline maneja POST /user/offline.
func (h *UserHandler) Offline(c *gin.Context) {
	h.setPresence(c, false)
}

func (h *UserHandler) setPresence(c *gin.Context, online bool) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	if err := h.authServ.SetOnline(c.Request.Context(), claims.UserID, online); err != nil {
		h.logger.Error("presence update failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not update presence"})
		return
	}
	c.Status(http.StatusNoContent)
}

// Change2FA maneja POST /user/change2fa.
func (h *UserHandler) Change2FA(c *gin.Context) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	enabled, err := h.authServ.Toggle2FA(c.Request.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		h.logger.Error("2fa toggle failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not change 2fa"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"is2faEnabled": enabled})
}

// RequestEmailVerification maneja POST /user/verify-email/request.
func (h *UserHandler) RequestEmailVerification(c *gin.Context) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	err := h.authServ.RequestEmailVerification(c.Request.Context(), claims.UserID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		case errors.Is(err, service.ErrRateLimited):
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
			return
		case errors.Is(err, service.ErrEmailSendFailure):
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "email delivery unavailable"})
			return
		}
		h.logger.Error("request email verification failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not request verification"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "code_sent"})
}

// VerifyEmailCode maneja POST /user/verify-email.
func (h *UserHandler) VerifyEmailCode(c *gin.Context) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	var req struct {
		Code string `json:"verificationCode" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	verified, err := h.authServ.VerifyEmailCode(c.Request.Context(), claims.UserID, req.Code)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		case errors.Is(err, service.ErrNoVerificationPending),
			errors.Is(err, service.ErrVerificationCodeExpired):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		case errors.Is(err, service.ErrInvalidVerificationCode):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid verification code"})
			return
		}
		h.logger.Error("verify email code failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not verify code"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"verified": verified})
}

// DeleteAccount maneja DELETE /users.
func (h *UserHandler) DeleteAccount(c *gin.Context) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	if err := h.authServ.DeleteAccount(c.Request.Context(), claims.UserID); err != nil {
		h.logger.Error("account deletion failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not delete account"})
		return
	}
	c.Status(http.StatusNoContent)
}
