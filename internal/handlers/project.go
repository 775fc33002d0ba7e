package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/taskhub/backend/internal/middleware"
	"github.com/taskhub/backend/internal/services"
	"github.com/taskhub/backend/pkg/response"
	"gorm.io/gorm"
)

type ProjectHandler struct {
	projectService *services.ProjectService
}

func NewProjectHandler(db *gorm.DB) *ProjectHandler {
	return &ProjectHandler{
		projectService: services.NewProjectService(db, services.NewQuotaService(db)),
	}
}

// List returns the caller's projects
// GET /api/v1/projects
func (h *ProjectHandler) List(c *gin.Context) {
	views, err := h.projectService.List(middleware.CurrentUser(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, "projects fetched", gin.H{"projects": views})
}

// Get returns one project
// GET /api/v1/projects/:projectId
func (h *ProjectHandler) Get(c *gin.Context) {
	projectID := pathID(c, "projectId")
	if projectID == 0 {
		response.BadRequest(c, "invalid project id")
		return
	}

	view, err := h.projectService.Get(middleware.CurrentUser(c), projectID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, "project fetched", view)
}

// Create makes a project owned by the caller
// POST /api/v1/projects
func (h *ProjectHandler) Create(c *gin.Context) {
	var req services.CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	project, err := h.projectService.Create(middleware.CurrentUser(c), &req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "project created", project)
}

// Update edits name, description, or tags
// PATCH /api/v1/projects
func (h *ProjectHandler) Update(c *gin.Context) {
	var req services.UpdateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	project, err := h.projectService.Update(middleware.CurrentUser(c), &req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, "project updated", project)
}

// Delete soft-deletes a project
// DELETE /api/v1/projects/:projectId
func (h *ProjectHandler) Delete(c *gin.Context) {
	projectID := pathID(c, "projectId")
	if projectID == 0 {
		response.BadRequest(c, "invalid project id")
		return
	}

	if err := h.projectService.Delete(middleware.CurrentUser(c), projectID); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, "project deleted", nil)
}
