package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/taskhub/backend/internal/models"
	"github.com/taskhub/backend/internal/services"
)

// HealthHandler provides the health check endpoint.
type HealthHandler struct{}

func NewHealthHandler() *HealthHandler {
	return &HealthHandler{}
}

// CheckHealth returns the health status of all subsystems.
// GET /health
func (h *HealthHandler) CheckHealth(c *gin.Context) {
	overall := "healthy"

	// Database check
	dbStatus := "ok"
	sqlDB, err := models.GetDB().DB()
	if err != nil {
		dbStatus = "error: " + err.Error()
		overall = "unhealthy"
	} else if err := sqlDB.Ping(); err != nil {
		dbStatus = "error: " + err.Error()
		overall = "unhealthy"
	}

	// Mail queue mode
	mailQueue := services.GetMailQueue()
	queueMode := "sync"
	if mailQueue != nil && mailQueue.IsAsync() {
		queueMode = "async (Redis)"
	}

	var pendingInvites int64
	models.GetDB().Model(&models.Member{}).
		Where("invitation_status = ?", models.InvitationPending).
		Count(&pendingInvites)

	c.JSON(200, gin.H{
		"status":  overall,
		"service": "taskhub",
		"components": gin.H{
			"database":            dbStatus,
			"queue_mode":          queueMode,
			"pending_invitations": pendingInvites,
		},
	})
}
