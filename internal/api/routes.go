package api

import (
	"net/http"

	"edupulse/lms-backend/internal/domain"

	"github.com/gin-gonic/gin"
)

// SetupRoutes mounts the recording pipeline endpoints. Upload and
// verification are restricted to instructors and admins; token minting
// lives in the separate auth service.
func SetupRoutes(
	router *gin.Engine,
	jwtSecret string,
	recordingHandler *RecordingHandler,
) {
	authMiddleware := AuthMiddleware(jwtSecret)

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	apiV1 := router.Group("/api/v1")

	protected := apiV1.Group("")
	protected.Use(authMiddleware)
	{
		sessionGroup := protected.Group("/sessions")
		sessionGroup.Use(RoleMiddleware(domain.RoleInstructor, domain.RoleAdmin))
		{
			// POST /api/v1/sessions/recordings
			sessionGroup.POST("/recordings", recordingHandler.UploadSessionRecordings)
			// POST /api/v1/sessions/recordings/verify
			sessionGroup.POST("/recordings/verify", recordingHandler.VerifyRecordings)
		}
	}
}
