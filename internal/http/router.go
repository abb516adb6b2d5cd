package http

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"pong-auth/internal/service"
)

// NewRouter configura el router de Gin con middlewares y rutas.
func NewRouter(
	logger *zap.Logger,
	tokens *service.TokenService,
	authH *AuthHandler,
	userH *UserHandler,
	inviteH *InviteHandler,
) *gin.Engine {
	r := gin.New()

	// Middlewares basicos: logging y recovery. El Content-Type lo pone cada
	// render; un header global rompe las respuestas 204 sin cuerpo.
	r.Use(zapLoggerMiddleware(logger), gin.Recovery())

	auth := r.Group("/auth")
	auth.POST("/local/signup", authH.SignupLocal)
	auth.POST("/local/signin", authH.SigninLocal)
	auth.POST("/local/signin/2fa", authH.Verify2FA)
	auth.GET("/42/signin", authH.SigninFortyTwo)
	auth.POST("/refresh", RefreshAuthMiddleware(tokens), authH.Refresh)
	auth.POST("/logout", AccessAuthMiddleware(tokens), authH.Logout)

	user := r.Group("/user", AccessAuthMiddleware(tokens))
	user.POST("/online", userH.Online)
	user.POST("/offline", userH.Offline)
	user.POST("/change2fa", userH.Change2FA)
	user.POST("/verify-email/request", userH.RequestEmailVerification)
	user.POST("/verify-email", userH.VerifyEmailCode)

	r.DELETE("/users", AccessAuthMiddleware(tokens), userH.DeleteAccount)

	invites := r.Group("/invites", AccessAuthMiddleware(tokens))
	invites.POST("", inviteH.Create)
	invites.PATCH("/:id", inviteH.Respond)
	invites.GET("/accepted", inviteH.ListAccepted)
	invites.GET("/waiting", inviteH.ListWaiting)
	invites.GET("/thinking", inviteH.ListThinking)

	return r
}

// zapLoggerMiddleware crea un middleware simple de logging con zap.
func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", latency),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}
