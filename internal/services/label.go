package services

import (
	"errors"
	"strings"

	"github.com/taskhub/backend/internal/models"
	"github.com/taskhub/backend/pkg/response"
	"gorm.io/gorm"
)

type LabelService struct {
	db *gorm.DB
}

func NewLabelService(db *gorm.DB) *LabelService {
	return &LabelService{db: db}
}

type CreateLabelRequest struct {
	ProjectID   uint   `json:"projectId" binding:"required"`
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	Color       string `json:"color"`
}

// Create adds a label to a project. OWNER and ADMIN only.
func (s *LabelService) Create(user *models.User, req *CreateLabelRequest) (*models.Label, error) {
	if _, err := findActiveProject(s.db, req.ProjectID); err != nil {
		return nil, err
	}
	member, err := findAcceptedMember(s.db, user.ID, req.ProjectID)
	if err != nil {
		return nil, err
	}
	if !CanPerform(member.Role, member.ID, OpMutateLabel, 0) {
		return nil, response.NewForbidden("you do not have permission to manage labels")
	}

	label := models.Label{
		ProjectID:   req.ProjectID,
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		Color:       req.Color,
	}
	if label.Name == "" {
		return nil, response.NewBadRequest("label name cannot be empty")
	}
	if err := s.db.Create(&label).Error; err != nil {
		return nil, response.NewServerError("failed to create label")
	}
	return &label, nil
}

type UpdateLabelRequest struct {
	ProjectID   uint    `json:"projectId" binding:"required"`
	LabelID     uint    `json:"labelId" binding:"required"`
	Name        string  `json:"name"`
	Description *string `json:"description"`
	Color       string  `json:"color"`
}

// Update edits a label.
func (s *LabelService) Update(user *models.User, req *UpdateLabelRequest) (*models.Label, error) {
	if _, err := findActiveProject(s.db, req.ProjectID); err != nil {
		return nil, err
	}
	member, err := findAcceptedMember(s.db, user.ID, req.ProjectID)
	if err != nil {
		return nil, err
	}
	if !CanPerform(member.Role, member.ID, OpMutateLabel, 0) {
		return nil, response.NewForbidden("you do not have permission to manage labels")
	}

	var label models.Label
	err = s.db.First(&label, req.LabelID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && label.ProjectID != req.ProjectID) {
		return nil, response.NewNotFound("label not found")
	}
	if err != nil {
		return nil, response.NewServerError("failed to load label")
	}

	if req.Name != "" {
		label.Name = strings.TrimSpace(req.Name)
	}
	if req.Description != nil {
		label.Description = *req.Description
	}
	if req.Color != "" {
		label.Color = req.Color
	}
	if err := s.db.Save(&label).Error; err != nil {
		return nil, response.NewServerError("failed to update label")
	}
	return &label, nil
}

// Delete removes a label.
func (s *LabelService) Delete(user *models.User, projectID, labelID uint) error {
	if _, err := findActiveProject(s.db, projectID); err != nil {
		return err
	}
	member, err := findAcceptedMember(s.db, user.ID, projectID)
	if err != nil {
		return err
	}
	if !CanPerform(member.Role, member.ID, OpMutateLabel, 0) {
		return response.NewForbidden("you do not have permission to manage labels")
	}

	var label models.Label
	err = s.db.First(&label, labelID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && label.ProjectID != projectID) {
		return response.NewNotFound("label not found")
	}
	if err != nil {
		return response.NewServerError("failed to load label")
	}

	if err := s.db.Delete(&models.Label{}, label.ID).Error; err != nil {
		return response.NewServerError("failed to delete label")
	}
	return nil
}

type LabelListRequest struct {
	ProjectID uint   `form:"projectId" binding:"required"`
	Name      string `form:"name"`
	Page      int    `form:"page"`
	Limit     int    `form:"limit"`
}

type LabelListResponse struct {
	Labels []models.Label `json:"labels"`
	PageMeta
}

// List returns labels newest first, optionally filtered by name.
func (s *LabelService) List(user *models.User, req *LabelListRequest) (*LabelListResponse, error) {
	if _, err := findActiveProject(s.db, req.ProjectID); err != nil {
		return nil, err
	}
	if _, err := findAcceptedMember(s.db, user.ID, req.ProjectID); err != nil {
		return nil, err
	}

	query := s.db.Where("project_id = ?", req.ProjectID)
	if req.Name != "" {
		query = query.Where("LOWER(name) LIKE ? ESCAPE '!'", likePattern(req.Name))
	}

	var labels []models.Label
	if err := query.Order("created_at DESC").Find(&labels).Error; err != nil {
		return nil, response.NewServerError("failed to list labels")
	}

	page, meta := paginate(labels, req.Page, req.Limit)
	return &LabelListResponse{Labels: page, PageMeta: meta}, nil
}
