package services

import (
	"errors"
	"strings"
	"time"

	"github.com/taskhub/backend/internal/models"
	"github.com/taskhub/backend/pkg/response"
	"gorm.io/gorm"
)

type TeamService struct {
	db *gorm.DB
}

func NewTeamService(db *gorm.DB) *TeamService {
	return &TeamService{db: db}
}

func findTeam(db *gorm.DB, projectID, teamID uint) (*models.Team, error) {
	var team models.Team
	err := db.First(&team, teamID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, response.NewNotFound("team not found")
	}
	if err != nil {
		return nil, response.NewServerError("failed to load team")
	}
	if team.ProjectID != projectID || team.IsDeleted {
		return nil, response.NewNotFound("team not found")
	}
	return &team, nil
}

type CreateTeamRequest struct {
	ProjectID uint   `json:"projectId" binding:"required"`
	Name      string `json:"name" binding:"required"`
}

// Create makes a team. Team names are unique per project among live
// teams.
func (s *TeamService) Create(user *models.User, req *CreateTeamRequest) (*models.Team, error) {
	if _, err := findActiveProject(s.db, req.ProjectID); err != nil {
		return nil, err
	}
	member, err := findAcceptedMember(s.db, user.ID, req.ProjectID)
	if err != nil {
		return nil, err
	}
	if !CanPerform(member.Role, member.ID, OpMutateTeam, 0) {
		return nil, response.NewForbidden("you do not have permission to manage teams")
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, response.NewBadRequest("team name cannot be empty")
	}

	var count int64
	s.db.Model(&models.Team{}).
		Where("project_id = ? AND name = ? AND is_deleted = ?", req.ProjectID, name, false).
		Count(&count)
	if count > 0 {
		return nil, response.NewConflict("a team with this name already exists")
	}

	team := models.Team{ProjectID: req.ProjectID, Name: name}
	if err := s.db.Create(&team).Error; err != nil {
		return nil, response.NewServerError("failed to create team")
	}
	return &team, nil
}

type UpdateTeamRequest struct {
	ProjectID uint   `json:"projectId" binding:"required"`
	TeamID    uint   `json:"teamId" binding:"required"`
	Name      string `json:"name" binding:"required"`
}

// Update renames a team, keeping the per-project uniqueness rule.
func (s *TeamService) Update(user *models.User, req *UpdateTeamRequest) (*models.Team, error) {
	team, err := findTeam(s.db, req.ProjectID, req.TeamID)
	if err != nil {
		return nil, err
	}
	member, err := findAcceptedMember(s.db, user.ID, req.ProjectID)
	if err != nil {
		return nil, err
	}
	if !CanPerform(member.Role, member.ID, OpMutateTeam, 0) {
		return nil, response.NewForbidden("you do not have permission to manage teams")
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, response.NewBadRequest("team name cannot be empty")
	}

	var count int64
	s.db.Model(&models.Team{}).
		Where("project_id = ? AND name = ? AND is_deleted = ? AND id != ?",
			req.ProjectID, name, false, team.ID).
		Count(&count)
	if count > 0 {
		return nil, response.NewConflict("a team with this name already exists")
	}

	team.Name = name
	if err := s.db.Save(team).Error; err != nil {
		return nil, response.NewServerError("failed to update team")
	}
	return team, nil
}

// Delete soft-deletes a team.
func (s *TeamService) Delete(user *models.User, projectID, teamID uint) error {
	team, err := findTeam(s.db, projectID, teamID)
	if err != nil {
		return err
	}
	member, err := findAcceptedMember(s.db, user.ID, projectID)
	if err != nil {
		return err
	}
	if !CanPerform(member.Role, member.ID, OpMutateTeam, 0) {
		return response.NewForbidden("you do not have permission to manage teams")
	}

	if err := s.db.Model(&models.Team{}).Where("id = ?", team.ID).
		Update("is_deleted", true).Error; err != nil {
		return response.NewServerError("failed to delete team")
	}
	return nil
}

type TeamMemberRequest struct {
	ProjectID uint `json:"projectId" binding:"required"`
	TeamID    uint `json:"teamId" binding:"required"`
	MemberID  uint `json:"memberId" binding:"required"`
}

// AddMember puts a project member into a team.
func (s *TeamService) AddMember(user *models.User, req *TeamMemberRequest) error {
	team, err := findTeam(s.db, req.ProjectID, req.TeamID)
	if err != nil {
		return err
	}
	actor, err := findAcceptedMember(s.db, user.ID, req.ProjectID)
	if err != nil {
		return err
	}
	if !CanPerform(actor.Role, actor.ID, OpMutateTeam, 0) {
		return response.NewForbidden("you do not have permission to manage teams")
	}

	var target models.Member
	err = s.db.First(&target, req.MemberID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && target.ProjectID != req.ProjectID) {
		return response.NewNotFound("member not found in this project")
	}
	if err != nil {
		return response.NewServerError("failed to load member")
	}

	var existing int64
	s.db.Model(&models.TeamMember{}).
		Where("team_id = ? AND member_id = ?", team.ID, target.ID).Count(&existing)
	if existing > 0 {
		return response.NewConflict("member is already in this team")
	}

	if err := s.db.Create(&models.TeamMember{TeamID: team.ID, MemberID: target.ID}).Error; err != nil {
		return response.NewConflict("member is already in this team")
	}
	return nil
}

// RemoveMember takes a member out of a team. A member who leads the
// team loses the leader slot too.
func (s *TeamService) RemoveMember(user *models.User, req *TeamMemberRequest) error {
	team, err := findTeam(s.db, req.ProjectID, req.TeamID)
	if err != nil {
		return err
	}
	actor, err := findAcceptedMember(s.db, user.ID, req.ProjectID)
	if err != nil {
		return err
	}
	if !CanPerform(actor.Role, actor.ID, OpMutateTeam, 0) {
		return response.NewForbidden("you do not have permission to manage teams")
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Where("team_id = ? AND member_id = ?", team.ID, req.MemberID).
			Delete(&models.TeamMember{})
		if result.Error != nil {
			return response.NewServerError("failed to remove team member")
		}
		if result.RowsAffected == 0 {
			return response.NewConflict("member is not in this team")
		}
		if team.LeaderID != nil && *team.LeaderID == req.MemberID {
			if err := tx.Model(&models.Team{}).Where("id = ?", team.ID).
				Update("leader_id", nil).Error; err != nil {
				return response.NewServerError("failed to clear team leader")
			}
		}
		return nil
	})
}

// SetLeader makes a team member the leader.
func (s *TeamService) SetLeader(user *models.User, req *TeamMemberRequest) error {
	team, err := findTeam(s.db, req.ProjectID, req.TeamID)
	if err != nil {
		return err
	}
	actor, err := findAcceptedMember(s.db, user.ID, req.ProjectID)
	if err != nil {
		return err
	}
	if !CanPerform(actor.Role, actor.ID, OpMutateTeam, 0) {
		return response.NewForbidden("you do not have permission to manage teams")
	}

	var inTeam int64
	s.db.Model(&models.TeamMember{}).
		Where("team_id = ? AND member_id = ?", team.ID, req.MemberID).Count(&inTeam)
	if inTeam == 0 {
		return response.NewBadRequest("the leader must be a member of the team")
	}

	if err := s.db.Model(&models.Team{}).Where("id = ?", team.ID).
		Update("leader_id", req.MemberID).Error; err != nil {
		return response.NewServerError("failed to set team leader")
	}
	return nil
}

// RemoveLeader clears the leader slot.
func (s *TeamService) RemoveLeader(user *models.User, projectID, teamID uint) error {
	team, err := findTeam(s.db, projectID, teamID)
	if err != nil {
		return err
	}
	actor, err := findAcceptedMember(s.db, user.ID, projectID)
	if err != nil {
		return err
	}
	if !CanPerform(actor.Role, actor.ID, OpMutateTeam, 0) {
		return response.NewForbidden("you do not have permission to manage teams")
	}

	if err := s.db.Model(&models.Team{}).Where("id = ?", team.ID).
		Update("leader_id", nil).Error; err != nil {
		return response.NewServerError("failed to clear team leader")
	}
	return nil
}

type TeamListRequest struct {
	ProjectID uint   `form:"projectId" binding:"required"`
	Name      string `form:"name"`
	Page      int    `form:"page"`
	Limit     int    `form:"limit"`
}

type TeamView struct {
	ID        uint         `json:"id"`
	ProjectID uint         `json:"projectId"`
	Name      string       `json:"name"`
	Leader    *MemberView  `json:"leader"`
	Members   []MemberView `json:"members"`
	CreatedAt time.Time    `json:"createdAt"`
}

type TeamListResponse struct {
	Teams []TeamView `json:"teams"`
	PageMeta
}

// List returns teams with member and leader projections.
func (s *TeamService) List(user *models.User, req *TeamListRequest) (*TeamListResponse, error) {
	if _, err := findActiveProject(s.db, req.ProjectID); err != nil {
		return nil, err
	}
	if _, err := findAcceptedMember(s.db, user.ID, req.ProjectID); err != nil {
		return nil, err
	}

	query := s.db.Where("project_id = ? AND is_deleted = ?", req.ProjectID, false)
	if req.Name != "" {
		query = query.Where("LOWER(name) LIKE ? ESCAPE '!'", likePattern(req.Name))
	}

	var teams []models.Team
	if err := query.Order("created_at ASC").Find(&teams).Error; err != nil {
		return nil, response.NewServerError("failed to list teams")
	}

	views := make([]TeamView, 0, len(teams))
	for _, team := range teams {
		var links []models.TeamMember
		s.db.Where("team_id = ?", team.ID).Find(&links)

		memberIDs := make([]uint, 0, len(links))
		for _, l := range links {
			memberIDs = append(memberIDs, l.MemberID)
		}

		var members []models.Member
		if len(memberIDs) > 0 {
			s.db.Where("id IN ?", memberIDs).Find(&members)
		}
		memberViews := enrichMembers(s.db, members)

		view := TeamView{
			ID:        team.ID,
			ProjectID: team.ProjectID,
			Name:      team.Name,
			Members:   memberViews,
			CreatedAt: team.CreatedAt,
		}
		if team.LeaderID != nil {
			for i := range memberViews {
				if memberViews[i].ID == *team.LeaderID {
					view.Leader = &memberViews[i]
					break
				}
			}
		}
		views = append(views, view)
	}

	page, meta := paginate(views, req.Page, req.Limit)
	return &TeamListResponse{Teams: page, PageMeta: meta}, nil
}
