package main

import (
	"github.com/gin-gonic/gin"
	"github.com/taskhub/backend/internal/handlers"
	"github.com/taskhub/backend/internal/middleware"
	"github.com/taskhub/backend/internal/models"
	"github.com/taskhub/backend/pkg/logger"
)

// registerRoutes sets up all HTTP routes on the given Gin engine.
func registerRoutes(r *gin.Engine, svc *appServices) {
	r.Use(logger.GinLogger(), logger.GinRecovery())
	r.RedirectTrailingSlash = false
	r.RedirectFixedPath = false
	r.Use(middleware.CORS())

	db := models.GetDB()

	// Health check
	healthHandler := handlers.NewHealthHandler()
	r.GET("/health", healthHandler.CheckHealth)

	api := r.Group("/api/v1")
	{
		// Auth routes (public, rate limited)
		authHandler := handlers.NewAuthHandler(db, svc.notifier)
		auth := api.Group("/auth", middleware.RateLimit(5, 10))
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/verify-email", authHandler.VerifyEmail)
			auth.POST("/login", authHandler.Login)
			auth.POST("/forgot-password", authHandler.ForgotPassword)
			auth.POST("/reset-password", authHandler.ResetPassword)
		}

		// Protected routes
		protected := api.Group("")
		protected.Use(middleware.AuthRequired(db), middleware.AuditLog())
		{
			// Account
			protected.GET("/auth/me", authHandler.Me)
			protected.PATCH("/auth/me", authHandler.UpdateFullName)

			// Projects
			projectHandler := handlers.NewProjectHandler(db)
			protected.GET("/projects", projectHandler.List)
			protected.GET("/projects/:projectId", projectHandler.Get)
			protected.POST("/projects", projectHandler.Create)
			protected.PATCH("/projects", projectHandler.Update)
			protected.DELETE("/projects/:projectId", projectHandler.Delete)

			// Members
			memberHandler := handlers.NewMemberHandler(db, svc.notifier)
			protected.GET("/members", memberHandler.List)
			protected.POST("/members/invite", memberHandler.Invite)
			protected.PUT("/members/invitation", memberHandler.ChangeInvitationStatus)
			protected.PATCH("/members/role", memberHandler.UpdateRole)
			protected.DELETE("/projects/:projectId/members/:memberId", memberHandler.Remove)

			// Tasks
			taskHandler := handlers.NewTaskHandler(db, svc.notifier)
			protected.GET("/tasks", taskHandler.List)
			protected.GET("/projects/:projectId/tasks/:taskId", taskHandler.Get)
			protected.POST("/tasks", taskHandler.Create)
			protected.PATCH("/tasks", taskHandler.Update)
			protected.PATCH("/tasks/status", taskHandler.ChangeStatus)
			protected.DELETE("/projects/:projectId/tasks/:taskId", taskHandler.Delete)
			protected.POST("/tasks/assign", taskHandler.AssignMember)
			protected.POST("/tasks/unassign", taskHandler.RemoveAssignedMember)
			protected.POST("/tasks/comments", taskHandler.AddComment)
			protected.PATCH("/tasks/comments", taskHandler.UpdateComment)
			protected.DELETE("/projects/:projectId/tasks/:taskId/comments/:commentId", taskHandler.RemoveComment)

			// Documents
			documentHandler := handlers.NewDocumentHandler(db, svc.notifier)
			protected.GET("/documents", documentHandler.List)
			protected.GET("/projects/:projectId/documents/:documentId", documentHandler.Get)
			protected.POST("/documents", documentHandler.Create)
			protected.PATCH("/documents", documentHandler.Update)
			protected.DELETE("/projects/:projectId/documents/:documentId", documentHandler.Delete)
			protected.POST("/documents/assign", documentHandler.AssignMember)
			protected.POST("/documents/unassign", documentHandler.RemoveAssignedMember)
			protected.POST("/documents/comments", documentHandler.AddComment)
			protected.DELETE("/projects/:projectId/documents/:documentId/comments/:commentId", documentHandler.RemoveComment)

			// Teams
			teamHandler := handlers.NewTeamHandler(db)
			protected.GET("/teams", teamHandler.List)
			protected.POST("/teams", teamHandler.Create)
			protected.PATCH("/teams", teamHandler.Update)
			protected.DELETE("/projects/:projectId/teams/:teamId", teamHandler.Delete)
			protected.POST("/teams/members", teamHandler.AddMember)
			protected.POST("/teams/members/remove", teamHandler.RemoveMember)
			protected.PUT("/teams/leader", teamHandler.SetLeader)
			protected.DELETE("/projects/:projectId/teams/:teamId/leader", teamHandler.RemoveLeader)

			// Labels
			labelHandler := handlers.NewLabelHandler(db)
			protected.GET("/labels", labelHandler.List)
			protected.POST("/labels", labelHandler.Create)
			protected.PATCH("/labels", labelHandler.Update)
			protected.DELETE("/projects/:projectId/labels/:labelId", labelHandler.Delete)
		}
	}
}
