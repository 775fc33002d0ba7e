package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/taskhub/backend/internal/middleware"
	"github.com/taskhub/backend/internal/services"
	"github.com/taskhub/backend/pkg/response"
	"gorm.io/gorm"
)

type LabelHandler struct {
	labelService *services.LabelService
}

func NewLabelHandler(db *gorm.DB) *LabelHandler {
	return &LabelHandler{
		labelService: services.NewLabelService(db),
	}
}

// List returns a project's labels
// GET /api/v1/labels
func (h *LabelHandler) List(c *gin.Context) {
	var req services.LabelListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	resp, err := h.labelService.List(middleware.CurrentUser(c), &req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, "labels fetched", resp)
}

// Create makes a label
// POST /api/v1/labels
func (h *LabelHandler) Create(c *gin.Context) {
	var req services.CreateLabelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	label, err := h.labelService.Create(middleware.CurrentUser(c), &req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "label created", label)
}

// Update edits a label's name or color
// PATCH /api/v1/labels
func (h *LabelHandler) Update(c *gin.Context) {
	var req services.UpdateLabelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	label, err := h.labelService.Update(middleware.CurrentUser(c), &req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, "label updated", label)
}

// Delete removes a label
// DELETE /api/v1/projects/:projectId/labels/:labelId
func (h *LabelHandler) Delete(c *gin.Context) {
	projectID := pathID(c, "projectId")
	labelID := pathID(c, "labelId")
	if projectID == 0 || labelID == 0 {
		response.BadRequest(c, "invalid project or label id")
		return
	}

	if err := h.labelService.Delete(middleware.CurrentUser(c), projectID, labelID); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, "label deleted", nil)
}
