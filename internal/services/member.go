package services

import (
	"errors"
	"strings"
	"time"

	"github.com/taskhub/backend/internal/models"
	"github.com/taskhub/backend/internal/utils"
	"github.com/taskhub/backend/pkg/response"
	"gorm.io/gorm"
)

// MemberService is the membership directory and invitation lifecycle.
type MemberService struct {
	db       *gorm.DB
	quota    *QuotaService
	notifier *NotificationService
}

func NewMemberService(db *gorm.DB, quota *QuotaService, notifier *NotificationService) *MemberService {
	return &MemberService{db: db, quota: quota, notifier: notifier}
}

// normalizeEmail is the single email comparison rule: trimmed,
// lower-cased.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// likeEscaper neutralizes LIKE wildcards so filter text matches
// literally. Queries using it must carry ESCAPE '!'; backslash would
// need dialect-specific quoting in the SQL literal.
var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

// likePattern builds a lower-cased substring LIKE pattern from user
// filter input.
func likePattern(s string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(s)) + "%"
}

// findMember resolves the membership row of a user in a project,
// regardless of invitation status.
func findMember(db *gorm.DB, userID, projectID uint) (*models.Member, error) {
	var member models.Member
	err := db.Where("project_id = ? AND user_id = ?", projectID, userID).First(&member).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, response.NewNotFound("you are not a member of this project")
	}
	if err != nil {
		return nil, response.NewServerError("failed to load membership")
	}
	return &member, nil
}

// findAcceptedMember resolves a membership and requires it to be
// ACCEPTED. PENDING and REJECTED memberships grant no access.
func findAcceptedMember(db *gorm.DB, userID, projectID uint) (*models.Member, error) {
	member, err := findMember(db, userID, projectID)
	if err != nil {
		return nil, err
	}
	if !member.Accepted() {
		return nil, response.NewForbidden("you have not accepted the invitation to this project")
	}
	return member, nil
}

// findActiveProject loads a project that is not soft-deleted.
func findActiveProject(db *gorm.DB, projectID uint) (*models.Project, error) {
	var project models.Project
	err := db.First(&project, projectID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, response.NewNotFound("project not found")
	}
	if err != nil {
		return nil, response.NewServerError("failed to load project")
	}
	if project.IsDeleted {
		return nil, response.NewNotFound("project not found")
	}
	return &project, nil
}

type MemberListRequest struct {
	ProjectID        uint   `form:"projectId" binding:"required"`
	Email            string `form:"email"`
	InvitationStatus string `form:"invitationStatus"`
	Page             int    `form:"page"`
	Limit            int    `form:"limit"`
}

type MemberView struct {
	ID               uint                    `json:"id"`
	UserID           *uint                   `json:"userId"`
	Email            string                  `json:"email"`
	Role             models.MemberRole       `json:"role"`
	InvitationStatus models.InvitationStatus `json:"invitationStatus"`
	FullName         string                  `json:"fullName"`
	Avatar           string                  `json:"avatar"`
	CreatedAt        time.Time               `json:"createdAt"`
}

type MemberListResponse struct {
	Members []MemberView `json:"members"`
	PageMeta
}

// List returns the members of a project, filtered and paginated.
// Pending members appear too; a project member may see who was invited.
func (s *MemberService) List(user *models.User, req *MemberListRequest) (*MemberListResponse, error) {
	if _, err := findActiveProject(s.db, req.ProjectID); err != nil {
		return nil, err
	}
	if _, err := findAcceptedMember(s.db, user.ID, req.ProjectID); err != nil {
		return nil, err
	}

	query := s.db.Where("project_id = ?", req.ProjectID)

	if req.InvitationStatus != "" {
		status, ok := models.ParseInvitationStatus(req.InvitationStatus)
		if !ok {
			return nil, response.NewBadRequest("unknown invitation status: " + req.InvitationStatus)
		}
		query = query.Where("invitation_status = ?", status)
	}
	if req.Email != "" {
		query = query.Where("email LIKE ? ESCAPE '!'", likePattern(req.Email))
	}

	var members []models.Member
	if err := query.Order("created_at ASC").Find(&members).Error; err != nil {
		return nil, response.NewServerError("failed to list members")
	}

	views := s.enrich(members)
	page, meta := paginate(views, req.Page, req.Limit)

	return &MemberListResponse{Members: page, PageMeta: meta}, nil
}

// enrichMembers joins user projections onto membership rows. Members
// whose user is unbound (pending) or missing degrade to empty
// projections. Shared with the team listing, which projects the same
// member views.
func enrichMembers(db *gorm.DB, members []models.Member) []MemberView {
	userIDs := make([]uint, 0, len(members))
	for _, m := range members {
		if m.UserID != nil {
			userIDs = append(userIDs, *m.UserID)
		}
	}

	usersByID := make(map[uint]models.User, len(userIDs))
	if len(userIDs) > 0 {
		var users []models.User
		db.Where("id IN ?", userIDs).Find(&users)
		for _, u := range users {
			usersByID[u.ID] = u
		}
	}

	views := make([]MemberView, 0, len(members))
	for _, m := range members {
		view := MemberView{
			ID:               m.ID,
			UserID:           m.UserID,
			Email:            m.Email,
			Role:             m.Role,
			InvitationStatus: m.InvitationStatus,
			CreatedAt:        m.CreatedAt,
		}
		if m.UserID != nil {
			if u, ok := usersByID[*m.UserID]; ok {
				view.FullName = u.FullName
				view.Avatar = u.Avatar
			}
		}
		views = append(views, view)
	}
	return views
}

func (s *MemberService) enrich(members []models.Member) []MemberView {
	return enrichMembers(s.db, members)
}

type InviteMemberRequest struct {
	ProjectID uint   `json:"projectId" binding:"required"`
	Email     string `json:"email" binding:"required,email"`
}

// Invite creates (or revives) a PENDING membership and emails a signed
// invitation link. The member slot is reserved immediately, so quota is
// checked before the row is written.
func (s *MemberService) Invite(user *models.User, req *InviteMemberRequest) (uint, error) {
	project, err := findActiveProject(s.db, req.ProjectID)
	if err != nil {
		return 0, err
	}

	actor, err := findAcceptedMember(s.db, user.ID, req.ProjectID)
	if err != nil {
		return 0, err
	}
	if !CanPerform(actor.Role, actor.ID, OpInviteMember, 0) {
		return 0, response.NewForbidden("you do not have permission to invite members")
	}

	email := normalizeEmail(req.Email)
	if email == normalizeEmail(user.Email) {
		return 0, response.NewBadRequest("you cannot invite your own account")
	}

	var owner models.User
	if err := s.db.First(&owner, project.UserID).Error; err != nil {
		return 0, response.NewServerError("failed to load project owner")
	}

	var existing models.Member
	err = s.db.Where("project_id = ? AND email = ?", req.ProjectID, email).First(&existing).Error
	switch {
	case err == nil:
		if existing.InvitationStatus != models.InvitationRejected {
			return 0, response.NewConflict("this email has already been invited to the project")
		}
		// Re-invite: revive the rejected row instead of inserting a new one
		if err := s.quota.CheckMemberQuota(req.ProjectID, owner.Tier); err != nil {
			return 0, err
		}
		existing.InvitationStatus = models.InvitationPending
		existing.Role = models.RoleMember
		existing.UserID = nil
		if err := s.db.Save(&existing).Error; err != nil {
			return 0, response.NewServerError("failed to update invitation")
		}
		s.sendInvitation(user, project, &existing)
		return existing.ID, nil

	case errors.Is(err, gorm.ErrRecordNotFound):
		if err := s.quota.CheckMemberQuota(req.ProjectID, owner.Tier); err != nil {
			return 0, err
		}
		member := models.Member{
			ProjectID:        req.ProjectID,
			Email:            email,
			Role:             models.RoleMember,
			InvitationStatus: models.InvitationPending,
		}
		if err := s.db.Create(&member).Error; err != nil {
			// The unique (project_id, email) index catches a racing invite
			return 0, response.NewConflict("this email has already been invited to the project")
		}
		s.sendInvitation(user, project, &member)
		return member.ID, nil

	default:
		return 0, response.NewServerError("failed to check existing membership")
	}
}

func (s *MemberService) sendInvitation(inviter *models.User, project *models.Project, member *models.Member) {
	token, err := utils.GenerateInvitationToken(member.Email, project.ID, member.ID, invitationTTL)
	if err != nil {
		// The membership row exists; a re-invite can issue a fresh link.
		return
	}
	s.notifier.SendProjectInvitation(member.Email, project.Name, inviter.FullName, token)
}

type ChangeInvitationStatusRequest struct {
	Token  string `json:"token" binding:"required"`
	Status string `json:"status" binding:"required"`
}

// ChangeInvitationStatus resolves an invitation token and moves the
// membership to ACCEPTED or REJECTED. ACCEPTED is terminal; accepting
// binds the acting user to the row.
func (s *MemberService) ChangeInvitationStatus(user *models.User, req *ChangeInvitationStatusRequest) (*models.Member, error) {
	status, ok := models.ParseInvitationStatus(req.Status)
	if !ok || status == models.InvitationPending {
		return nil, response.NewBadRequest("status must be ACCEPTED or REJECTED")
	}

	claims, err := utils.ParseInvitationToken(req.Token)
	if err != nil {
		return nil, response.NewBadRequest("invitation token is invalid or expired")
	}

	if normalizeEmail(claims.Email) != normalizeEmail(user.Email) {
		return nil, response.NewForbidden("this invitation was issued for a different email address")
	}

	var member models.Member
	err = s.db.First(&member, claims.MemberID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, response.NewNotFound("invitation not found")
	}
	if err != nil {
		return nil, response.NewServerError("failed to load invitation")
	}
	if member.ProjectID != claims.ProjectID {
		return nil, response.NewBadRequest("invitation token is invalid or expired")
	}
	if member.InvitationStatus != models.InvitationPending {
		// ACCEPTED is terminal and a REJECTED row only re-enters the
		// flow through a fresh invite resetting it to PENDING.
		return nil, response.NewConflict("this invitation has already been " +
			strings.ToLower(string(member.InvitationStatus)))
	}

	member.InvitationStatus = status
	if status == models.InvitationAccepted {
		member.UserID = &user.ID
	}
	if err := s.db.Save(&member).Error; err != nil {
		return nil, response.NewServerError("failed to update invitation")
	}
	return &member, nil
}

// Remove deletes a membership row. The OWNER row is untouchable and
// ADMINs may only remove plain MEMBERs.
func (s *MemberService) Remove(user *models.User, projectID, memberID uint) error {
	if _, err := findActiveProject(s.db, projectID); err != nil {
		return err
	}

	actor, err := findAcceptedMember(s.db, user.ID, projectID)
	if err != nil {
		return err
	}
	if !CanPerform(actor.Role, actor.ID, OpRemoveMember, 0) {
		return response.NewForbidden("you do not have permission to remove members")
	}

	var target models.Member
	err = s.db.First(&target, memberID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && target.ProjectID != projectID) {
		return response.NewNotFound("member not found")
	}
	if err != nil {
		return response.NewServerError("failed to load member")
	}

	if !CanRemoveMember(actor.Role, target.Role) {
		return response.NewForbidden("you cannot remove this member")
	}

	if err := s.db.Delete(&models.Member{}, target.ID).Error; err != nil {
		return response.NewServerError("failed to remove member")
	}
	return nil
}

type UpdateMemberRoleRequest struct {
	ProjectID uint   `json:"projectId" binding:"required"`
	MemberID  uint   `json:"memberId" binding:"required"`
	Role      string `json:"role" binding:"required"`
}

// UpdateRole changes another member's role. Reserved for the OWNER;
// the OWNER role itself can be neither assigned nor taken away.
func (s *MemberService) UpdateRole(user *models.User, req *UpdateMemberRoleRequest) error {
	role, ok := models.ParseMemberRole(req.Role)
	if !ok {
		return response.NewBadRequest("unknown role: " + req.Role)
	}
	if role == models.RoleOwner {
		return response.NewForbidden("the owner role cannot be assigned")
	}

	if _, err := findActiveProject(s.db, req.ProjectID); err != nil {
		return err
	}

	actor, err := findAcceptedMember(s.db, user.ID, req.ProjectID)
	if err != nil {
		return err
	}
	if !CanPerform(actor.Role, actor.ID, OpUpdateMemberRole, 0) {
		return response.NewForbidden("only the project owner can change member roles")
	}

	var target models.Member
	err = s.db.First(&target, req.MemberID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && target.ProjectID != req.ProjectID) {
		return response.NewNotFound("member not found")
	}
	if err != nil {
		return response.NewServerError("failed to load member")
	}
	if target.Role == models.RoleOwner {
		return response.NewForbidden("the owner role cannot be changed")
	}

	target.Role = role
	if err := s.db.Save(&target).Error; err != nil {
		return response.NewServerError("failed to update member role")
	}
	return nil
}
