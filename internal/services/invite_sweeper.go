package services

import (
	"time"

	"github.com/robfig/cron/v3"
	"github.com/taskhub/backend/internal/models"
	"github.com/taskhub/backend/pkg/logger"
	"gorm.io/gorm"
)

// invitationTTL matches the validity of invitation tokens. Once the
// token can no longer be accepted, the PENDING row only blocks a quota
// slot and a re-invite, so the sweeper retires it.
const invitationTTL = 7 * 24 * time.Hour

// InviteSweeper marks stale PENDING invitations REJECTED on a nightly
// schedule. REJECTED rows stop counting against the member quota and
// can be re-invited.
type InviteSweeper struct {
	db        *gorm.DB
	scheduler *cron.Cron
	entryID   cron.EntryID
}

func NewInviteSweeper(db *gorm.DB) *InviteSweeper {
	return &InviteSweeper{db: db}
}

// Start schedules the nightly sweep and runs one immediately so a
// restarted server catches up.
func (s *InviteSweeper) Start() error {
	s.scheduler = cron.New()

	entryID, err := s.scheduler.AddFunc("30 3 * * *", func() {
		s.Sweep()
	})
	if err != nil {
		return err
	}
	s.entryID = entryID
	s.scheduler.Start()

	go s.Sweep()

	logger.Infof("[InviteSweeper] Scheduled nightly at 03:30")
	return nil
}

// Stop halts the scheduler.
func (s *InviteSweeper) Stop() {
	if s.scheduler != nil {
		s.scheduler.Remove(s.entryID)
		s.scheduler.Stop()
	}
}

// Sweep retires PENDING invitations whose last (re-)issue is older than
// the token TTL. Returns the number of rows updated.
func (s *InviteSweeper) Sweep() int64 {
	cutoff := time.Now().Add(-invitationTTL)

	result := s.db.Model(&models.Member{}).
		Where("invitation_status = ? AND updated_at < ?", models.InvitationPending, cutoff).
		Update("invitation_status", models.InvitationRejected)

	if result.Error != nil {
		logger.Errorf("[InviteSweeper] Sweep failed: %v", result.Error)
		return 0
	}
	if result.RowsAffected > 0 {
		logger.Infof("[InviteSweeper] Retired %d expired invitation(s)", result.RowsAffected)
	}
	return result.RowsAffected
}
