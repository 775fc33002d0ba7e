package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/taskhub/backend/internal/middleware"
	"github.com/taskhub/backend/internal/services"
	"github.com/taskhub/backend/pkg/response"
	"gorm.io/gorm"
)

type TaskHandler struct {
	taskService *services.TaskService
}

func NewTaskHandler(db *gorm.DB, notifier *services.NotificationService) *TaskHandler {
	return &TaskHandler{
		taskService: services.NewTaskService(db, notifier),
	}
}

// List returns filtered, enriched, paginated tasks
// GET /api/v1/tasks
func (h *TaskHandler) List(c *gin.Context) {
	var req services.TaskListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	resp, err := h.taskService.List(middleware.CurrentUser(c), &req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, "tasks fetched", resp)
}

// Get returns one enriched task
// GET /api/v1/projects/:projectId/tasks/:taskId
func (h *TaskHandler) Get(c *gin.Context) {
	projectID := pathID(c, "projectId")
	taskID := pathID(c, "taskId")
	if projectID == 0 || taskID == 0 {
		response.BadRequest(c, "invalid project or task id")
		return
	}

	view, err := h.taskService.Get(middleware.CurrentUser(c), projectID, taskID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, "task fetched", view)
}

// Create makes a task
// POST /api/v1/tasks
func (h *TaskHandler) Create(c *gin.Context) {
	var req services.CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	task, err := h.taskService.Create(middleware.CurrentUser(c), &req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "task created", task)
}

// Update applies a partial edit
// PATCH /api/v1/tasks
func (h *TaskHandler) Update(c *gin.Context) {
	var req services.UpdateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	task, err := h.taskService.Update(middleware.CurrentUser(c), &req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, "task updated", task)
}

// ChangeStatus moves a task between statuses
// PATCH /api/v1/tasks/status
func (h *TaskHandler) ChangeStatus(c *gin.Context) {
	var req services.ChangeTaskStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	task, err := h.taskService.ChangeStatus(middleware.CurrentUser(c), &req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, "task status updated", task)
}

// Delete soft-deletes a task
// DELETE /api/v1/projects/:projectId/tasks/:taskId
func (h *TaskHandler) Delete(c *gin.Context) {
	projectID := pathID(c, "projectId")
	taskID := pathID(c, "taskId")
	if projectID == 0 || taskID == 0 {
		response.BadRequest(c, "invalid project or task id")
		return
	}

	if err := h.taskService.Delete(middleware.CurrentUser(c), projectID, taskID); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, "task deleted", nil)
}

// AssignMember adds an assignee
// POST /api/v1/tasks/assign
func (h *TaskHandler) AssignMember(c *gin.Context) {
	var req services.AssignMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	if err := h.taskService.AssignMember(middleware.CurrentUser(c), &req); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, "member assigned", nil)
}

// RemoveAssignedMember removes an assignee
// POST /api/v1/tasks/unassign
func (h *TaskHandler) RemoveAssignedMember(c *gin.Context) {
	var req services.AssignMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	if err := h.taskService.RemoveAssignedMember(middleware.CurrentUser(c), &req); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, "member unassigned", nil)
}

// AddComment attaches a comment
// POST /api/v1/tasks/comments
func (h *TaskHandler) AddComment(c *gin.Context) {
	var req services.AddTaskCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	commentID, err := h.taskService.AddComment(middleware.CurrentUser(c), &req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "comment added", gin.H{"commentId": commentID})
}

// UpdateComment edits a comment's content
// PATCH /api/v1/tasks/comments
func (h *TaskHandler) UpdateComment(c *gin.Context) {
	var req services.UpdateTaskCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	if err := h.taskService.UpdateComment(middleware.CurrentUser(c), &req); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, "comment updated", nil)
}

// RemoveComment detaches a comment from a task
// DELETE /api/v1/projects/:projectId/tasks/:taskId/comments/:commentId
func (h *TaskHandler) RemoveComment(c *gin.Context) {
	projectID := pathID(c, "projectId")
	taskID := pathID(c, "taskId")
	commentID := pathID(c, "commentId")
	if projectID == 0 || taskID == 0 || commentID == 0 {
		response.BadRequest(c, "invalid id")
		return
	}

	if err := h.taskService.RemoveComment(middleware.CurrentUser(c), projectID, taskID, commentID); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, "comment removed", nil)
}
