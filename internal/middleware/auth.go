package middleware

import (
	"context"
	"net/http"
	"strings"

	"firebase.google.com/go/v4/auth"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"whispers/backend/internal/session"
)

// DebugUserHeader names the caller when token verification is disabled.
const DebugUserHeader = "X-Debug-User"

// TokenVerifier is the part of *auth.Client the middleware needs.
type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
}

// AuthMiddleware verifies Firebase ID tokens and stores the caller's session
// in the request context.
func AuthMiddleware(verifier TokenVerifier, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.Request.Header.Get("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header is required"})
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		token, err := verifier.VerifyIDToken(c.Request.Context(), tokenString)
		if err != nil {
			logger.Info("rejected Firebase ID token", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid auth token"})
			return
		}

		setSession(c, session.FromToken(token))
		c.Next()
	}
}

// DebugAuthMiddleware trusts the X-Debug-User header. It exists for local
// development against the memory store.
func DebugAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		uid := c.Request.Header.Get(DebugUserHeader)
		if uid == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": DebugUserHeader + " header is required"})
			return
		}
		setSession(c, &session.Session{UserID: uid})
		c.Next()
	}
}

func setSession(c *gin.Context, s *session.Session) {
	c.Request = c.Request.WithContext(session.WithContext(c.Request.Context(), s))
}
