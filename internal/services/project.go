package services

import (
	"errors"
	"time"

	"github.com/taskhub/backend/internal/models"
	"github.com/taskhub/backend/pkg/response"
	"gorm.io/gorm"
)

type ProjectService struct {
	db    *gorm.DB
	quota *QuotaService
}

func NewProjectService(db *gorm.DB, quota *QuotaService) *ProjectService {
	return &ProjectService{db: db, quota: quota}
}

type CreateProjectRequest struct {
	Name        string   `json:"name" binding:"required"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
}

type UpdateProjectRequest struct {
	ProjectID   uint      `json:"projectId" binding:"required"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	Tags        *[]string `json:"tags"`
}

type OwnerView struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Avatar   string `json:"avatar"`
}

type ProjectView struct {
	ProjectID   uint              `json:"projectId"`
	MemberID    uint              `json:"memberId"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Tags        models.StringList `json:"tags"`
	Role        models.MemberRole `json:"role"`
	Owner       OwnerView         `json:"owner"`
	CreatedAt   time.Time         `json:"createdAt"`
}

// defaultLabels is seeded into every new project.
var defaultLabels = []models.Label{
	{Name: "feature", Description: "New feature or request", Color: "#2b90d9"},
	{Name: "bug", Description: "Something isn't working", Color: "#e74c3c"},
	{Name: "improvement", Description: "Enhancement to existing functionality", Color: "#27ae60"},
	{Name: "documentation", Description: "Improvements or additions to documentation", Color: "#f39c12"},
	{Name: "test", Description: "Testing related tasks", Color: "#8e44ad"},
	{Name: "design", Description: "Design related tasks", Color: "#e67e22"},
	{Name: "research", Description: "Research and investigation", Color: "#16a085"},
	{Name: "refactor", Description: "Code refactoring", Color: "#95a5a6"},
	{Name: "maintenance", Description: "Maintenance and housekeeping", Color: "#7f8c8d"},
	{Name: "deployment", Description: "Deployment related tasks", Color: "#34495e"},
	{Name: "task", Description: "General task", Color: "#bdc3c7"},
	{Name: "discussion", Description: "Needs discussion", Color: "#9b59b6"},
	{Name: "blocked", Description: "Blocked by something else", Color: "#c0392b"},
	{Name: "urgent", Description: "Needs immediate attention", Color: "#d35400"},
	{Name: "review", Description: "Needs review", Color: "#2980b9"},
	{Name: "security", Description: "Security related", Color: "#e84393"},
}

// Create makes a project, its OWNER membership row, and the default
// label set, all in one transaction. The caller's tier caps how many
// live projects they may own.
func (s *ProjectService) Create(user *models.User, req *CreateProjectRequest) (*models.Project, error) {
	if err := s.quota.CheckProjectQuota(user); err != nil {
		return nil, err
	}

	project := models.Project{
		Name:        req.Name,
		Description: req.Description,
		Tags:        models.StringList(req.Tags),
		UserID:      user.ID,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&project).Error; err != nil {
			return err
		}

		owner := models.Member{
			ProjectID:        project.ID,
			Email:            normalizeEmail(user.Email),
			UserID:           &user.ID,
			Role:             models.RoleOwner,
			InvitationStatus: models.InvitationAccepted,
		}
		if err := tx.Create(&owner).Error; err != nil {
			return err
		}

		labels := make([]models.Label, len(defaultLabels))
		copy(labels, defaultLabels)
		for i := range labels {
			labels[i].ProjectID = project.ID
		}
		return tx.Create(&labels).Error
	})
	if err != nil {
		return nil, response.NewServerError("failed to create project")
	}

	return &project, nil
}

// List returns every project the user holds an ACCEPTED membership in.
// Deleted projects are skipped; a missing owner degrades to a
// placeholder projection rather than failing the list.
func (s *ProjectService) List(user *models.User) ([]ProjectView, error) {
	var memberships []models.Member
	if err := s.db.Where("user_id = ? AND invitation_status = ?", user.ID, models.InvitationAccepted).
		Order("created_at ASC").Find(&memberships).Error; err != nil {
		return nil, response.NewServerError("failed to list memberships")
	}

	projectIDs := make([]uint, 0, len(memberships))
	for _, m := range memberships {
		projectIDs = append(projectIDs, m.ProjectID)
	}

	projectsByID := make(map[uint]models.Project, len(projectIDs))
	if len(projectIDs) > 0 {
		var projects []models.Project
		if err := s.db.Where("id IN ? AND is_deleted = ?", projectIDs, false).
			Find(&projects).Error; err != nil {
			return nil, response.NewServerError("failed to list projects")
		}
		for _, p := range projects {
			projectsByID[p.ID] = p
		}
	}

	ownerIDs := make([]uint, 0, len(projectsByID))
	for _, p := range projectsByID {
		ownerIDs = append(ownerIDs, p.UserID)
	}
	ownersByID := make(map[uint]models.User, len(ownerIDs))
	if len(ownerIDs) > 0 {
		var owners []models.User
		s.db.Where("id IN ?", ownerIDs).Find(&owners)
		for _, u := range owners {
			ownersByID[u.ID] = u
		}
	}

	views := make([]ProjectView, 0, len(memberships))
	for _, m := range memberships {
		project, ok := projectsByID[m.ProjectID]
		if !ok {
			continue
		}
		owner := OwnerView{FullName: "Unknown", Email: "N/A"}
		if u, ok := ownersByID[project.UserID]; ok {
			owner = OwnerView{FullName: u.FullName, Email: u.Email, Avatar: u.Avatar}
		}
		views = append(views, buildProjectView(&project, &m, owner))
	}
	return views, nil
}

// Get returns a single project projection for an accepted member.
func (s *ProjectService) Get(user *models.User, projectID uint) (*ProjectView, error) {
	project, err := findActiveProject(s.db, projectID)
	if err != nil {
		return nil, err
	}
	member, err := findAcceptedMember(s.db, user.ID, projectID)
	if err != nil {
		return nil, err
	}

	view := s.toView(project, member)
	return &view, nil
}

func (s *ProjectService) toView(project *models.Project, member *models.Member) ProjectView {
	owner := OwnerView{FullName: "Unknown", Email: "N/A"}
	var ownerUser models.User
	if err := s.db.First(&ownerUser, project.UserID).Error; err == nil {
		owner = OwnerView{
			FullName: ownerUser.FullName,
			Email:    ownerUser.Email,
			Avatar:   ownerUser.Avatar,
		}
	}
	return buildProjectView(project, member, owner)
}

func buildProjectView(project *models.Project, member *models.Member, owner OwnerView) ProjectView {
	return ProjectView{
		ProjectID:   project.ID,
		MemberID:    member.ID,
		Name:        project.Name,
		Description: project.Description,
		Tags:        project.Tags,
		Role:        member.Role,
		Owner:       owner,
		CreatedAt:   project.CreatedAt,
	}
}

// Update edits name, description, or tags. Reserved for the OWNER.
func (s *ProjectService) Update(user *models.User, req *UpdateProjectRequest) (*models.Project, error) {
	project, err := findActiveProject(s.db, req.ProjectID)
	if err != nil {
		return nil, err
	}

	member, err := findAcceptedMember(s.db, user.ID, req.ProjectID)
	if err != nil {
		return nil, err
	}
	if !CanPerform(member.Role, member.ID, OpUpdateProject, 0) {
		return nil, response.NewForbidden("only the project owner can update the project")
	}

	if req.Name != "" {
		project.Name = req.Name
	}
	if req.Description != nil {
		project.Description = *req.Description
	}
	if req.Tags != nil {
		project.Tags = models.StringList(*req.Tags)
	}

	if err := s.db.Save(project).Error; err != nil {
		return nil, response.NewServerError("failed to update project")
	}
	return project, nil
}

// Delete soft-deletes a project and retires its memberships so they
// stop counting against the owner's quotas.
func (s *ProjectService) Delete(user *models.User, projectID uint) error {
	var project models.Project
	err := s.db.First(&project, projectID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return response.NewNotFound("project not found")
	}
	if err != nil {
		return response.NewServerError("failed to load project")
	}
	if project.IsDeleted {
		return response.NewConflict("project is already deleted")
	}

	member, err := findAcceptedMember(s.db, user.ID, projectID)
	if err != nil {
		return err
	}
	if !CanPerform(member.Role, member.ID, OpDeleteProject, 0) {
		return response.NewForbidden("only the project owner can delete the project")
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Project{}).Where("id = ?", projectID).
			Update("is_deleted", true).Error; err != nil {
			return response.NewServerError("failed to delete project")
		}
		if err := tx.Model(&models.Member{}).Where("project_id = ?", projectID).
			Update("invitation_status", models.InvitationRejected).Error; err != nil {
			return response.NewServerError("failed to retire memberships")
		}
		return nil
	})
}
