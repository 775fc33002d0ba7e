package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/taskhub/backend/internal/middleware"
	"github.com/taskhub/backend/internal/services"
	"github.com/taskhub/backend/pkg/response"
	"gorm.io/gorm"
)

type DocumentHandler struct {
	documentService *services.DocumentService
}

func NewDocumentHandler(db *gorm.DB, notifier *services.NotificationService) *DocumentHandler {
	return &DocumentHandler{
		documentService: services.NewDocumentService(db, notifier),
	}
}

// List returns filtered, enriched, paginated documents
// GET /api/v1/documents
func (h *DocumentHandler) List(c *gin.Context) {
	var req services.DocumentListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	resp, err := h.documentService.List(middleware.CurrentUser(c), &req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, "documents fetched", resp)
}

// Get returns one document, honoring its access type
// GET /api/v1/projects/:projectId/documents/:documentId
func (h *DocumentHandler) Get(c *gin.Context) {
	projectID := pathID(c, "projectId")
	docID := pathID(c, "documentId")
	if projectID == 0 || docID == 0 {
		response.BadRequest(c, "invalid project or document id")
		return
	}

	view, err := h.documentService.Get(middleware.CurrentUser(c), projectID, docID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, "document fetched", view)
}

// Create makes a document
// POST /api/v1/documents
func (h *DocumentHandler) Create(c *gin.Context) {
	var req services.CreateDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	doc, err := h.documentService.Create(middleware.CurrentUser(c), &req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "document created", doc)
}

// Update applies a partial edit
// PATCH /api/v1/documents
func (h *DocumentHandler) Update(c *gin.Context) {
	var req services.UpdateDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	doc, err := h.documentService.Update(middleware.CurrentUser(c), &req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, "document updated", doc)
}

// Delete soft-deletes a document
// DELETE /api/v1/projects/:projectId/documents/:documentId
func (h *DocumentHandler) Delete(c *gin.Context) {
	projectID := pathID(c, "projectId")
	docID := pathID(c, "documentId")
	if projectID == 0 || docID == 0 {
		response.BadRequest(c, "invalid project or document id")
		return
	}

	if err := h.documentService.Delete(middleware.CurrentUser(c), projectID, docID); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, "document deleted", nil)
}

// AssignMember adds an assignee to a published document
// POST /api/v1/documents/assign
func (h *DocumentHandler) AssignMember(c *gin.Context) {
	var req services.AssignDocumentMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	if err := h.documentService.AssignMember(middleware.CurrentUser(c), &req); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, "member assigned", nil)
}

// RemoveAssignedMember removes an assignee
// POST /api/v1/documents/unassign
func (h *DocumentHandler) RemoveAssignedMember(c *gin.Context) {
	var req services.AssignDocumentMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	if err := h.documentService.RemoveAssignedMember(middleware.CurrentUser(c), &req); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, "member unassigned", nil)
}

// AddComment attaches a comment
// POST /api/v1/documents/comments
func (h *DocumentHandler) AddComment(c *gin.Context) {
	var req services.AddDocumentCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	commentID, err := h.documentService.AddComment(middleware.CurrentUser(c), &req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "comment added", gin.H{"commentId": commentID})
}

// RemoveComment detaches a comment from a document
// DELETE /api/v1/projects/:projectId/documents/:documentId/comments/:commentId
func (h *DocumentHandler) RemoveComment(c *gin.Context) {
	projectID := pathID(c, "projectId")
	docID := pathID(c, "documentId")
	commentID := pathID(c, "commentId")
	if projectID == 0 || docID == 0 || commentID == 0 {
		response.BadRequest(c, "invalid id")
		return
	}

	if err := h.documentService.RemoveComment(middleware.CurrentUser(c), projectID, docID, commentID); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, "comment removed", nil)
}
