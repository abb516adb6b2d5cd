package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"pong-auth/internal/oauth42"
	"pong-auth/internal/service"
)

// AuthHandler mantiene dependencias para los endpoints de autenticacion.
type AuthHandler struct {
	logger   *zap.Logger
	authServ *service.AuthService
	fortyTwo *oauth42.Client
}

// NewAuthHandler crea una instancia de AuthHandler con dependencias necesarias.
func NewAuthHandler(logger *zap.Logger, authServ *service.AuthService, fortyTwo *oauth42.Client) *AuthHandler {
	return &AuthHandler{
		logger:   logger,
		authServ: authServ,
		fortyTwo: fortyTwo,
	}
}

// SignupLocal maneja POST /auth/local/signup.
func (h *AuthHandler) SignupLocal(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required,email"`
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid signup request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	tokens, err := h.authServ.SignupLocal(c.Request.Context(), req.Email, req.Username, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmailInUse):
			c.JSON(http.StatusConflict, gin.H{"error": "Email already in use", "field": "email"})
			return
		case errors.Is(err, service.ErrUsernameInUse):
			c.JSON(http.StatusConflict, gin.H{"error": "Username already in use", "field": "username"})
			return
		case errors.Is(err, service.ErrInvalidCredentials):
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
			return
		}
		h.logger.Error("signup failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not sign up"})
		return
	}

	c.JSON(http.StatusCreated, tokens)
}

// SigninLocal maneja POST /auth/local/signin.
func (h *AuthHandler) SigninLocal(c *gin.Context) {
	var req struct {
		Email    string `json:"email"`
		Username string `json:"username"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || (req.Email == "" && req.Username == "") {
		h.logger.Warn("invalid signin request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	result, err := h.authServ.SigninLocal(c.Request.Context(), req.Email, req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}
		h.logger.Error("signin failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not sign in"})
		return
	}

	c.JSON(http.StatusOK, result)
}

// Verify2FA maneja POST /auth/local/signin/2fa.
func (h *AuthHandler) Verify2FA(c *gin.Context) {
	var req struct {
		Email            string `json:"email"`
		Username         string `json:"username"`
		VerificationCode string `json:"verificationCode" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || (req.Email == "" && req.Username == "") {
		h.logger.Warn("invalid 2fa request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	tokens, err := h.authServ.Verify2FA(c.Request.Context(), req.Email, req.Username, req.VerificationCode)
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
		h.logger.Error("2fa verify failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not verify code"})
		return
	}

	c.JSON(http.StatusOK, tokens)
}

// SigninFortyTwo maneja GET /auth/42/signin.
func (h *AuthHandler) SigninFortyTwo(c *gin.Context) {
	code := c.Query("code")
	if code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing authorization code"})
		return
	}
	if h.fortyTwo == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "oauth not configured"})
		return
	}

	profile, err := h.fortyTwo.ExchangeCode(c.Request.Context(), code)
	if err != nil {
		h.logger.Warn("oauth exchange failed", zap.Error(err))
		c.JSON(http.StatusUnauthorized, gin.H{"error": "oauth exchange failed"})
		return
	}

	result, err := h.authServ.SigninFortyTwo(c.Request.Context(), service.FortyTwoProfile{
		Email:    profile.Email,
		Username: profile.Login,
		Avatar:   profile.ImageURL,
	})
	if err != nil {
		if errors.Is(err, service.ErrUsernameInUse) {
			c.JSON(http.StatusConflict, gin.H{"error": "Username already in use", "field": "username"})
			return
		}
		h.logger.Error("42 signin failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not sign in"})
		return
	}

	c.JSON(http.StatusOK, result)
}

// Refresh maneja POST /auth/refresh. Requiere bearer de refresh.
func (h *AuthHandler) Refresh(c *gin.Context) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	raw, ok := GetRefreshToken(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	tokens, err := h.authServ.RefreshTokens(c.Request.Context(), claims.UserID, raw)
	if err != nil {
		if errors.Is(err, service.ErrAccessDenied) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Access Denied", "message": "Access Denied"})
			return
		}
		h.logger.Error("refresh failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not refresh"})
		return
	}

	c.JSON(http.StatusOK, tokens)
}

// Logout maneja POST /auth/logout. Requiere bearer de access.
func (h *AuthHandler) Logout(c *gin.Context) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	if err := h.authServ.Logout(c.Request.Context(), claims.UserID); err != nil {
		h.logger.Error("logout failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not log out"})
		return
	}
	c.Status(http.StatusNoContent)
}
