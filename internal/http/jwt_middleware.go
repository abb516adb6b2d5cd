package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"pong-auth/internal/service"
)

const (
	authClaimsKey   = "auth_claims"
	refreshTokenKey = "refresh_token"
)

// AccessAuthMiddleware valida access tokens y guarda claims en el contexto.
func AccessAuthMiddleware(tokens *service.TokenService) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := bearerToken(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized", "message": "Unauthorized"})
			c.Abort()
			return
		}
		claims, err := tokens.ParseAccess(raw)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized", "message": "Unauthorized"})
			c.Abort()
			return
		}
		c.Set(authClaimsKey, claims)
		c.Next()
	}
}

// RefreshAuthMiddleware valida refresh tokens. Ademas de los claims guarda
// el token crudo: el servicio lo compara contra el hash persistido.
func RefreshAuthMiddleware(tokens *service.TokenService) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := bearerToken(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized", "message": "Unauthorized"})
			c.Abort()
			return
		}
		claims, err := tokens.ParseRefresh(raw)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized", "message": "Unauthorized"})
			c.Abort()
			return
		}
		c.Set(authClaimsKey, claims)
		c.Set(refreshTokenKey, raw)
		c.Next()
	}
}

// GetAuthClaims obtiene claims de JWT desde el contexto.
func GetAuthClaims(c *gin.Context) (service.Claims, bool) {
	val, ok := c.Get(authClaimsKey)
	if !ok {
		return service.Claims{}, false
	}
	claims, ok := val.(service.Claims)
	return claims, ok
}

// GetRefreshToken obtiene el refresh token crudo desde el contexto.
func GetRefreshToken(c *gin.Context) (string, bool) {
	val, ok := c.Get(refreshTokenKey)
	if !ok {
		return "", false
	}
	token, ok := val.(string)
	return token, ok
}

func bearerToken(c *gin.Context) (string, bool) {
	header := strings.TrimSpace(c.GetHeader("Authorization"))
	if header == "" || !strings.HasPrefix(strings.ToLower(header), "bearer ") {
		return "", false
	}
	return strings.TrimSpace(header[len("Bearer "):]), true
}
