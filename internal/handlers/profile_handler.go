package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"whispers/backend/internal/garden"
	"whispers/backend/internal/session"
)

const (
	AppName    = "Whispers in Bloom"
	AppVersion = "1.0.0"
)

// Profile returns who the caller is signed in as.
func Profile(c *gin.Context) {
	sess := session.ForContext(c.Request.Context())
	if !sess.SignedIn() {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	email := sess.Email
	if email == "" {
		email = "User"
	}
	c.JSON(http.StatusOK, gin.H{
		"uid":     sess.UserID,
		"email":   email,
		"app":     AppName,
		"version": AppVersion,
	})
}

// HealthCheck reports liveness and how many gardens are held in memory.
func HealthCheck(gardens *garden.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"version": AppVersion,
			"gardens": gardens.Len(),
		})
	}
}
