package services

import (
	"github.com/taskhub/backend/internal/models"
)

// Operation names a permission-gated action inside a project.
type Operation int

const (
	// project-level, OWNER only
	OpUpdateProject Operation = iota
	OpDeleteProject
	OpUpdateMemberRole

	// membership management, OWNER or ADMIN
	OpInviteMember
	OpRemoveMember

	// structural mutations: OWNER/ADMIN anywhere, MEMBER on own entities
	OpMutateTask
	OpMutateDocument
	OpAssignMember

	// project-scoped config, OWNER or ADMIN
	OpMutateLabel
	OpMutateTeam
)

// CanPerform is the single authorization decision point. actorMemberID
// is the acting membership row; ownerMemberID is the creating member of
// the target entity (zero when the operation has no per-entity owner).
func CanPerform(role models.MemberRole, actorMemberID uint, op Operation, ownerMemberID uint) bool {
	switch role {
	case models.RoleOwner:
		return true
	case models.RoleAdmin:
		switch op {
		case OpUpdateProject, OpDeleteProject, OpUpdateMemberRole:
			return false
		}
		return true
	case models.RoleMember:
		switch op {
		case OpMutateTask, OpMutateDocument, OpAssignMember:
			return actorMemberID != 0 && actorMemberID == ownerMemberID
		}
		return false
	}
	return false
}

// CanRemoveMember decides whether actorRole may remove a member holding
// targetRole. The OWNER row is untouchable; ADMINs manage MEMBERs only.
func CanRemoveMember(actorRole, targetRole models.MemberRole) bool {
	if targetRole == models.RoleOwner {
		return false
	}
	switch actorRole {
	case models.RoleOwner:
		return true
	case models.RoleAdmin:
		return targetRole == models.RoleMember
	}
	return false
}
