package services

import (
	"fmt"

	"github.com/taskhub/backend/internal/models"
	"github.com/taskhub/backend/pkg/response"
	"gorm.io/gorm"
)

// TierLimits holds the ceilings attached to a subscription tier.
type TierLimits struct {
	MaxProjects          int
	MaxMembersPerProject int
}

var tierLimits = map[models.SubscriptionTier]TierLimits{
	models.TierFree:       {MaxProjects: 1, MaxMembersPerProject: 5},
	models.TierPremium:    {MaxProjects: 10, MaxMembersPerProject: 30},
	models.TierEnterprise: {MaxProjects: 25, MaxMembersPerProject: 150},
}

// LimitsForTier returns the ceilings for a tier.
func LimitsForTier(tier models.SubscriptionTier) (TierLimits, bool) {
	l, ok := tierLimits[tier]
	return l, ok
}

// QuotaService enforces subscription ceilings. Quotas are counted
// against the project owner's tier, not the acting member's.
type QuotaService struct {
	db *gorm.DB
}

func NewQuotaService(db *gorm.DB) *QuotaService {
	return &QuotaService{db: db}
}

// CheckProjectQuota verifies the owner can create one more project.
// Soft-deleted projects do not count.
func (s *QuotaService) CheckProjectQuota(owner *models.User) error {
	limits, ok := tierLimits[owner.Tier]
	if !ok {
		return response.NewBadRequest("unknown subscription tier")
	}

	var count int64
	if err := s.db.Model(&models.Project{}).
		Where("user_id = ? AND is_deleted = ?", owner.ID, false).
		Count(&count).Error; err != nil {
		return response.NewServerError("failed to count projects")
	}

	if int(count) >= limits.MaxProjects {
		return response.NewQuotaExceeded(fmt.Sprintf(
			"%s plan allows at most %d project(s); upgrade to create more",
			owner.Tier, limits.MaxProjects))
	}
	return nil
}

// CheckMemberQuota verifies the project can take one more member.
// PENDING and ACCEPTED rows consume a slot; REJECTED rows do not.
func (s *QuotaService) CheckMemberQuota(projectID uint, ownerTier models.SubscriptionTier) error {
	limits, ok := tierLimits[ownerTier]
	if !ok {
		return response.NewBadRequest("unknown subscription tier")
	}

	var count int64
	if err := s.db.Model(&models.Member{}).
		Where("project_id = ? AND invitation_status IN ?", projectID,
			[]models.InvitationStatus{models.InvitationPending, models.InvitationAccepted}).
		Count(&count).Error; err != nil {
		return response.NewServerError("failed to count members")
	}

	if int(count) >= limits.MaxMembersPerProject {
		return response.NewQuotaExceeded(fmt.Sprintf(
			"%s plan allows at most %d members per project; upgrade to invite more",
			ownerTier, limits.MaxMembersPerProject))
	}
	return nil
}
