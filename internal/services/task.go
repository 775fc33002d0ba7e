package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/taskhub/backend/internal/models"
	"github.com/taskhub/backend/pkg/response"
	"gorm.io/gorm"
)

type TaskService struct {
	db       *gorm.DB
	notifier *NotificationService
}

func NewTaskService(db *gorm.DB, notifier *NotificationService) *TaskService {
	return &TaskService{db: db, notifier: notifier}
}

// findTask loads a live task belonging to the given project.
func findTask(db *gorm.DB, projectID, taskID uint) (*models.Task, error) {
	var task models.Task
	err := db.First(&task, taskID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, response.NewNotFound("task not found")
	}
	if err != nil {
		return nil, response.NewServerError("failed to load task")
	}
	if task.ProjectID != projectID || task.IsDeleted {
		return nil, response.NewNotFound("task not found")
	}
	return &task, nil
}

// addAuditComment writes an audit row and attaches it to the task.
// Audit comments share the comments table with user comments.
func addAuditComment(tx *gorm.DB, taskID, memberID uint, kind models.CommentType, content string) error {
	comment := models.Comment{
		MemberID: memberID,
		Content:  content,
		Type:     kind,
	}
	if err := tx.Create(&comment).Error; err != nil {
		return err
	}
	return tx.Create(&models.TaskComment{TaskID: taskID, CommentID: comment.ID}).Error
}

type CreateTaskRequest struct {
	ProjectID   uint       `json:"projectId" binding:"required"`
	Title       string     `json:"title" binding:"required"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	Priority    string     `json:"priority"`
	TaskType    string     `json:"taskType"`
	DueDate     *time.Time `json:"dueDate"`
	SubTasks    []string   `json:"subTasks"`
}

// Create makes a task with the next per-project task number.
func (s *TaskService) Create(user *models.User, req *CreateTaskRequest) (*models.Task, error) {
	if _, err := findActiveProject(s.db, req.ProjectID); err != nil {
		return nil, err
	}
	member, err := findAcceptedMember(s.db, user.ID, req.ProjectID)
	if err != nil {
		return nil, err
	}

	status := models.TaskTodo
	if req.Status != "" {
		parsed, ok := models.ParseTaskStatus(req.Status)
		if !ok {
			return nil, response.NewBadRequest("unknown task status: " + req.Status)
		}
		status = parsed
	}
	priority := models.PriorityLow
	if req.Priority != "" {
		parsed, ok := models.ParseTaskPriority(req.Priority)
		if !ok {
			return nil, response.NewBadRequest("unknown task priority: " + req.Priority)
		}
		priority = parsed
	}

	task := models.Task{
		ProjectID:   req.ProjectID,
		MemberID:    member.ID,
		Title:       req.Title,
		Description: req.Description,
		Status:      status,
		Priority:    priority,
		TaskType:    req.TaskType,
		DueDate:     req.DueDate,
		SubTasks:    models.StringList(req.SubTasks),
	}
	if task.Status == models.TaskCompleted {
		now := time.Now()
		task.CompletedDate = &now
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		var maxNumber int
		row := tx.Model(&models.Task{}).Where("project_id = ?", req.ProjectID).
			Select("COALESCE(MAX(task_number), 0)").Row()
		if err := row.Scan(&maxNumber); err != nil {
			return err
		}
		task.TaskNumber = maxNumber + 1
		return tx.Create(&task).Error
	})
	if err != nil {
		return nil, response.NewServerError("failed to create task")
	}
	return &task, nil
}

type UpdateTaskRequest struct {
	ProjectID   uint       `json:"projectId" binding:"required"`
	TaskID      uint       `json:"taskId" binding:"required"`
	Title       string     `json:"title"`
	Description *string    `json:"description"`
	Status      string     `json:"status"`
	Priority    string     `json:"priority"`
	TaskType    *string    `json:"taskType"`
	DueDate     *time.Time `json:"dueDate"`
	SubTasks    *[]string  `json:"subTasks"`
}

// Update applies a partial edit and records one audit comment: a
// sub-task change writes SUBTASK_UPDATED, anything else COMMENT_UPDATED.
func (s *TaskService) Update(user *models.User, req *UpdateTaskRequest) (*models.Task, error) {
	task, err := findTask(s.db, req.ProjectID, req.TaskID)
	if err != nil {
		return nil, err
	}
	member, err := findAcceptedMember(s.db, user.ID, req.ProjectID)
	if err != nil {
		return nil, err
	}
	if !CanPerform(member.Role, member.ID, OpMutateTask, task.MemberID) {
		return nil, response.NewForbidden("you can only edit tasks you created")
	}

	subTasksChanged := false
	if req.Title != "" {
		task.Title = req.Title
	}
	if req.Description != nil {
		task.Description = *req.Description
	}
	if req.TaskType != nil {
		task.TaskType = *req.TaskType
	}
	if req.DueDate != nil {
		task.DueDate = req.DueDate
	}
	if req.SubTasks != nil {
		task.SubTasks = models.StringList(*req.SubTasks)
		subTasksChanged = true
	}
	if req.Priority != "" {
		priority, ok := models.ParseTaskPriority(req.Priority)
		if !ok {
			return nil, response.NewBadRequest("unknown task priority: " + req.Priority)
		}
		task.Priority = priority
	}
	if req.Status != "" {
		status, ok := models.ParseTaskStatus(req.Status)
		if !ok {
			return nil, response.NewBadRequest("unknown task status: " + req.Status)
		}
		task.Status = status
	}

	if task.Status == models.TaskCompleted {
		if task.CompletedDate == nil {
			now := time.Now()
			task.CompletedDate = &now
		}
	} else {
		task.CompletedDate = nil
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(task).Error; err != nil {
			return err
		}
		if subTasksChanged {
			return addAuditComment(tx, task.ID, member.ID, models.CommentSubtaskUpdated,
				fmt.Sprintf("Sub-tasks updated by %s", user.FullName))
		}
		return addAuditComment(tx, task.ID, member.ID, models.CommentCommentUpdated,
			fmt.Sprintf("Task updated by %s", user.FullName))
	})
	if err != nil {
		return nil, response.NewServerError("failed to update task")
	}
	return task, nil
}

type ChangeTaskStatusRequest struct {
	ProjectID uint   `json:"projectId" binding:"required"`
	TaskID    uint   `json:"taskId" binding:"required"`
	Status    string `json:"status" binding:"required"`
}

// ChangeStatus moves a task between statuses. Transitions are free in
// both directions; entering COMPLETED stamps completedDate and leaving
// it clears the stamp. Every change writes one STATUS_UPDATED comment.
func (s *TaskService) ChangeStatus(user *models.User, req *ChangeTaskStatusRequest) (*models.Task, error) {
	status, ok := models.ParseTaskStatus(req.Status)
	if !ok {
		return nil, response.NewBadRequest("unknown task status: " + req.Status)
	}

	task, err := findTask(s.db, req.ProjectID, req.TaskID)
	if err != nil {
		return nil, err
	}
	member, err := findAcceptedMember(s.db, user.ID, req.ProjectID)
	if err != nil {
		return nil, err
	}

	oldStatus := task.Status
	task.Status = status
	if status == models.TaskCompleted {
		now := time.Now()
		task.CompletedDate = &now
	} else {
		task.CompletedDate = nil
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(task).Error; err != nil {
			return err
		}
		return addAuditComment(tx, task.ID, member.ID, models.CommentStatusUpdated,
			fmt.Sprintf("Updated status: %s -> %s", oldStatus, status))
	})
	if err != nil {
		return nil, response.NewServerError("failed to change task status")
	}
	return task, nil
}

// Delete soft-deletes a task. Comments and assignments stay in place;
// the task simply disappears from listings.
func (s *TaskService) Delete(user *models.User, projectID, taskID uint) error {
	task, err := findTask(s.db, projectID, taskID)
	if err != nil {
		return err
	}
	member, err := findAcceptedMember(s.db, user.ID, projectID)
	if err != nil {
		return err
	}
	if !CanPerform(member.Role, member.ID, OpMutateTask, task.MemberID) {
		return response.NewForbidden("you can only delete tasks you created")
	}

	if err := s.db.Model(&models.Task{}).Where("id = ?", task.ID).
		Update("is_deleted", true).Error; err != nil {
		return response.NewServerError("failed to delete task")
	}
	return nil
}

type AssignMemberRequest struct {
	ProjectID uint `json:"projectId" binding:"required"`
	TaskID    uint `json:"taskId" binding:"required"`
	MemberID  uint `json:"memberId" binding:"required"`
}

// AssignMember adds an assignee. The join-row insert is the atomic
// assignment; a duplicate is a conflict whether detected by the
// pre-check or by the unique index under a race.
func (s *TaskService) AssignMember(user *models.User, req *AssignMemberRequest) error {
	project, err := findActiveProject(s.db, req.ProjectID)
	if err != nil {
		return err
	}
	task, err := findTask(s.db, req.ProjectID, req.TaskID)
	if err != nil {
		return err
	}
	actor, err := findAcceptedMember(s.db, user.ID, req.ProjectID)
	if err != nil {
		return err
	}
	if !CanPerform(actor.Role, actor.ID, OpAssignMember, task.MemberID) {
		return response.NewForbidden("you can only manage assignees on tasks you created")
	}

	var assignee models.Member
	err = s.db.First(&assignee, req.MemberID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && assignee.ProjectID != req.ProjectID) {
		return response.NewNotFound("member not found in this project")
	}
	if err != nil {
		return response.NewServerError("failed to load member")
	}

	var existing int64
	s.db.Model(&models.TaskAssignee{}).
		Where("task_id = ? AND member_id = ?", task.ID, assignee.ID).Count(&existing)
	if existing > 0 {
		return response.NewConflict("member is already assigned to this task")
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&models.TaskAssignee{TaskID: task.ID, MemberID: assignee.ID}).Error; err != nil {
			return err
		}
		return addAuditComment(tx, task.ID, actor.ID, models.CommentAssignedMember,
			fmt.Sprintf("%s assigned %s", user.FullName, assignee.Email))
	})
	if err != nil {
		return response.NewConflict("member is already assigned to this task")
	}

	s.notifier.SendTaskAssigned(assignee.Email, project.Name, task.Title, project.ID, task.ID)
	return nil
}

// RemoveAssignedMember removes an assignee. Removing a member who is
// not assigned is a conflict, which makes a doubled remove observable.
func (s *TaskService) RemoveAssignedMember(user *models.User, req *AssignMemberRequest) error {
	task, err := findTask(s.db, req.ProjectID, req.TaskID)
	if err != nil {
		return err
	}
	actor, err := findAcceptedMember(s.db, user.ID, req.ProjectID)
	if err != nil {
		return err
	}
	if !CanPerform(actor.Role, actor.ID, OpAssignMember, task.MemberID) {
		return response.NewForbidden("you can only manage assignees on tasks you created")
	}

	var assignee models.Member
	err = s.db.First(&assignee, req.MemberID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && assignee.ProjectID != req.ProjectID) {
		return response.NewNotFound("member not found in this project")
	}
	if err != nil {
		return response.NewServerError("failed to load member")
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Where("task_id = ? AND member_id = ?", task.ID, assignee.ID).
			Delete(&models.TaskAssignee{})
		if result.Error != nil {
			return response.NewServerError("failed to remove assignee")
		}
		if result.RowsAffected == 0 {
			return response.NewConflict("member is not assigned to this task")
		}
		if err := addAuditComment(tx, task.ID, actor.ID, models.CommentRemoveAssignedMember,
			fmt.Sprintf("%s removed %s", user.FullName, assignee.Email)); err != nil {
			return response.NewServerError("failed to record removal")
		}
		return nil
	})
}

type AddTaskCommentRequest struct {
	ProjectID uint   `json:"projectId" binding:"required"`
	TaskID    uint   `json:"taskId" binding:"required"`
	Content   string `json:"content" binding:"required"`
}

// AddComment attaches a user comment to a task. Any accepted member of
// the project may comment.
func (s *TaskService) AddComment(user *models.User, req *AddTaskCommentRequest) (uint, error) {
	task, err := findTask(s.db, req.ProjectID, req.TaskID)
	if err != nil {
		return 0, err
	}
	member, err := findAcceptedMember(s.db, user.ID, req.ProjectID)
	if err != nil {
		return 0, err
	}

	comment := models.Comment{
		MemberID: member.ID,
		Content:  req.Content,
		Type:     models.CommentGeneral,
	}
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&comment).Error; err != nil {
			return err
		}
		return tx.Create(&models.TaskComment{TaskID: task.ID, CommentID: comment.ID}).Error
	})
	if err != nil {
		return 0, response.NewServerError("failed to add comment")
	}
	return comment.ID, nil
}

type UpdateTaskCommentRequest struct {
	ProjectID uint   `json:"projectId" binding:"required"`
	TaskID    uint   `json:"taskId" binding:"required"`
	CommentID uint   `json:"commentId" binding:"required"`
	Content   string `json:"content" binding:"required"`
}

// UpdateComment edits a comment's content. Only the author may edit,
// whatever their role.
func (s *TaskService) UpdateComment(user *models.User, req *UpdateTaskCommentRequest) error {
	task, err := findTask(s.db, req.ProjectID, req.TaskID)
	if err != nil {
		return err
	}
	member, err := findAcceptedMember(s.db, user.ID, req.ProjectID)
	if err != nil {
		return err
	}

	comment, err := s.findAttachedComment(task.ID, req.CommentID)
	if err != nil {
		return err
	}
	if comment.MemberID != member.ID {
		return response.NewForbidden("only the author can edit a comment")
	}

	comment.Content = req.Content
	if err := s.db.Save(comment).Error; err != nil {
		return response.NewServerError("failed to update comment")
	}
	return nil
}

// RemoveComment detaches a comment from a task. The comment row itself
// is kept. MEMBERs may detach their own comments; OWNER and ADMIN any.
func (s *TaskService) RemoveComment(user *models.User, projectID, taskID, commentID uint) error {
	task, err := findTask(s.db, projectID, taskID)
	if err != nil {
		return err
	}
	member, err := findAcceptedMember(s.db, user.ID, projectID)
	if err != nil {
		return err
	}

	comment, err := s.findAttachedComment(task.ID, commentID)
	if err != nil {
		return err
	}
	if !CanPerform(member.Role, member.ID, OpMutateTask, comment.MemberID) {
		return response.NewForbidden("you can only remove your own comments")
	}

	if err := s.db.Where("task_id = ? AND comment_id = ?", task.ID, comment.ID).
		Delete(&models.TaskComment{}).Error; err != nil {
		return response.NewServerError("failed to remove comment")
	}
	return nil
}

func (s *TaskService) findAttachedComment(taskID, commentID uint) (*models.Comment, error) {
	var attachment models.TaskComment
	err := s.db.Where("task_id = ? AND comment_id = ?", taskID, commentID).First(&attachment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, response.NewNotFound("comment not found on this task")
	}
	if err != nil {
		return nil, response.NewServerError("failed to load comment")
	}

	var comment models.Comment
	if err := s.db.First(&comment, commentID).Error; err != nil {
		return nil, response.NewNotFound("comment not found on this task")
	}
	return &comment, nil
}

type TaskListRequest struct {
	ProjectID    uint   `form:"projectId" binding:"required"`
	Title        string `form:"title"`
	Priority     string `form:"priority"`
	Status       string `form:"status"`
	CreatedByMe  bool   `form:"createdByMe"`
	AssignedToMe bool   `form:"assignedToMe"`
	Sort         string `form:"sort"`
	Page         int    `form:"page"`
	Limit        int    `form:"limit"`
}

type MemberRef struct {
	ID    uint   `json:"id"`
	Email string `json:"email"`
}

type CreatorView struct {
	MemberID uint              `json:"memberId"`
	Email    string            `json:"email"`
	Role     models.MemberRole `json:"role"`
	FullName string            `json:"fullName"`
	Avatar   string            `json:"avatar"`
}

type TaskView struct {
	ID            uint                `json:"id"`
	ProjectID     uint                `json:"projectId"`
	Title         string              `json:"title"`
	Description   string              `json:"description"`
	Status        models.TaskStatus   `json:"status"`
	Priority      models.TaskPriority `json:"priority"`
	TaskType      string              `json:"taskType"`
	TaskNumber    int                 `json:"taskNumber"`
	SubTasks      models.StringList   `json:"subTasks"`
	DueDate       *time.Time          `json:"dueDate"`
	CompletedDate *time.Time          `json:"completedDate"`
	CreatedAt     time.Time           `json:"createdAt"`
	Creator       CreatorView         `json:"createdBy"`
	Assignees     []MemberRef         `json:"assignees"`
	CommentCount  int                 `json:"commentCount"`
	IsCreator     bool                `json:"isCreator"`
	IsMember      bool                `json:"isMember"`
}

// List returns enriched tasks. Filters run in the query, enrichment in
// batch lookups, pagination last over the enriched set.
func (s *TaskService) List(user *models.User, req *TaskListRequest) (*TaskListResponse, error) {
	if _, err := findActiveProject(s.db, req.ProjectID); err != nil {
		return nil, err
	}
	viewer, err := findAcceptedMember(s.db, user.ID, req.ProjectID)
	if err != nil {
		return nil, err
	}

	query := s.db.Model(&models.Task{}).
		Where("tasks.project_id = ? AND tasks.is_deleted = ?", req.ProjectID, false)

	if req.Title != "" {
		query = query.Where("LOWER(tasks.title) LIKE ? ESCAPE '!'", likePattern(req.Title))
	}
	if req.Priority != "" {
		priority, ok := models.ParseTaskPriority(req.Priority)
		if !ok {
			return nil, response.NewBadRequest("unknown task priority: " + req.Priority)
		}
		query = query.Where("tasks.priority = ?", priority)
	}
	if req.Status != "" {
		status, ok := models.ParseTaskStatus(req.Status)
		if !ok {
			return nil, response.NewBadRequest("unknown task status: " + req.Status)
		}
		query = query.Where("tasks.status = ?", status)
	}
	if req.CreatedByMe {
		query = query.Where("tasks.member_id = ?", viewer.ID)
	}
	if req.AssignedToMe {
		query = query.Joins("JOIN task_assignees ON task_assignees.task_id = tasks.id").
			Where("task_assignees.member_id = ?", viewer.ID)
	}

	order := "tasks.created_at DESC"
	if req.Sort == "asc" {
		order = "tasks.created_at ASC"
	}

	var tasks []models.Task
	if err := query.Order(order).Find(&tasks).Error; err != nil {
		return nil, response.NewServerError("failed to list tasks")
	}

	views := s.enrich(viewer, tasks)
	page, meta := paginate(views, req.Page, req.Limit)
	return &TaskListResponse{Tasks: page, PageMeta: meta}, nil
}

type TaskListResponse struct {
	Tasks []TaskView `json:"tasks"`
	PageMeta
}

// Get returns one enriched task.
func (s *TaskService) Get(user *models.User, projectID, taskID uint) (*TaskView, error) {
	task, err := findTask(s.db, projectID, taskID)
	if err != nil {
		return nil, err
	}
	viewer, err := findAcceptedMember(s.db, user.ID, projectID)
	if err != nil {
		return nil, err
	}

	views := s.enrich(viewer, []models.Task{*task})
	return &views[0], nil
}

// enrich joins creators, assignees, and comment counts onto tasks.
// Dangling references (removed members, deleted users) degrade to empty
// projections instead of failing the whole listing.
func (s *TaskService) enrich(viewer *models.Member, tasks []models.Task) []TaskView {
	if len(tasks) == 0 {
		return []TaskView{}
	}

	taskIDs := make([]uint, 0, len(tasks))
	creatorIDs := make([]uint, 0, len(tasks))
	for _, t := range tasks {
		taskIDs = append(taskIDs, t.ID)
		creatorIDs = append(creatorIDs, t.MemberID)
	}

	var creators []models.Member
	s.db.Where("id IN ?", creatorIDs).Find(&creators)
	creatorsByID := make(map[uint]models.Member, len(creators))
	userIDs := make([]uint, 0, len(creators))
	for _, m := range creators {
		creatorsByID[m.ID] = m
		if m.UserID != nil {
			userIDs = append(userIDs, *m.UserID)
		}
	}

	usersByID := make(map[uint]models.User, len(userIDs))
	if len(userIDs) > 0 {
		var users []models.User
		s.db.Where("id IN ?", userIDs).Find(&users)
		for _, u := range users {
			usersByID[u.ID] = u
		}
	}

	var assignments []models.TaskAssignee
	s.db.Where("task_id IN ?", taskIDs).Find(&assignments)
	assigneeIDs := make([]uint, 0, len(assignments))
	for _, a := range assignments {
		assigneeIDs = append(assigneeIDs, a.MemberID)
	}
	assigneesByID := make(map[uint]models.Member, len(assigneeIDs))
	if len(assigneeIDs) > 0 {
		var members []models.Member
		s.db.Where("id IN ?", assigneeIDs).Find(&members)
		for _, m := range members {
			assigneesByID[m.ID] = m
		}
	}
	assignmentsByTask := make(map[uint][]models.TaskAssignee)
	for _, a := range assignments {
		assignmentsByTask[a.TaskID] = append(assignmentsByTask[a.TaskID], a)
	}

	commentCounts := make(map[uint]int, len(taskIDs))
	var counts []struct {
		TaskID uint
		N      int
	}
	s.db.Model(&models.TaskComment{}).
		Select("task_id, COUNT(*) AS n").
		Where("task_id IN ?", taskIDs).
		Group("task_id").
		Scan(&counts)
	for _, c := range counts {
		commentCounts[c.TaskID] = c.N
	}

	views := make([]TaskView, 0, len(tasks))
	for _, t := range tasks {
		view := TaskView{
			ID:            t.ID,
			ProjectID:     t.ProjectID,
			Title:         t.Title,
			Description:   t.Description,
			Status:        t.Status,
			Priority:      t.Priority,
			TaskType:      t.TaskType,
			TaskNumber:    t.TaskNumber,
			SubTasks:      t.SubTasks,
			DueDate:       t.DueDate,
			CompletedDate: t.CompletedDate,
			CreatedAt:     t.CreatedAt,
			Assignees:     []MemberRef{},
			CommentCount:  commentCounts[t.ID],
			IsCreator:     t.MemberID == viewer.ID,
		}

		if creator, ok := creatorsByID[t.MemberID]; ok {
			view.Creator = CreatorView{
				MemberID: creator.ID,
				Email:    creator.Email,
				Role:     creator.Role,
			}
			if creator.UserID != nil {
				if u, ok := usersByID[*creator.UserID]; ok {
					view.Creator.FullName = u.FullName
					view.Creator.Avatar = u.Avatar
				}
			}
		}

		for _, a := range assignmentsByTask[t.ID] {
			if a.MemberID == viewer.ID {
				view.IsMember = true
			}
			if m, ok := assigneesByID[a.MemberID]; ok {
				view.Assignees = append(view.Assignees, MemberRef{ID: m.ID, Email: m.Email})
			}
		}

		views = append(views, view)
	}
	return views
}
