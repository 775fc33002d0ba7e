package services

import (
	"testing"
	"time"

	"github.com/taskhub/backend/internal/models"
)

func TestSweep(t *testing.T) {
	db := newTestDB(t)
	sweeper := NewInviteSweeper(db)

	owner := seedUser(t, db, "Olive Owner", "olive@example.com", models.TierFree)
	project, _ := seedProject(t, db, owner)

	stale := seedUser(t, db, "Stale", "stale@example.com", models.TierFree)
	staleRow := seedMember(t, db, project.ID, stale, models.RoleMember, models.InvitationPending)
	fresh := seedUser(t, db, "Fresh", "fresh@example.com", models.TierFree)
	freshRow := seedMember(t, db, project.ID, fresh, models.RoleMember, models.InvitationPending)
	accepted := seedUser(t, db, "Old Hand", "oldhand@example.com", models.TierFree)
	acceptedRow := seedMember(t, db, project.ID, accepted, models.RoleMember, models.InvitationAccepted)

	// Age the stale rows past the invitation TTL without touching the
	// gorm auto-timestamps.
	old := time.Now().Add(-invitationTTL - time.Hour)
	db.Model(&models.Member{}).Where("id IN ?", []uint{staleRow.ID, acceptedRow.ID}).
		UpdateColumn("updated_at", old)

	if n := sweeper.Sweep(); n != 1 {
		t.Errorf("Sweep retired %d rows, want 1", n)
	}

	var reloaded models.Member
	db.First(&reloaded, staleRow.ID)
	if reloaded.InvitationStatus != models.InvitationRejected {
		t.Errorf("stale pending row = %s, want REJECTED", reloaded.InvitationStatus)
	}

	reloaded = models.Member{}
	db.First(&reloaded, freshRow.ID)
	if reloaded.InvitationStatus != models.InvitationPending {
		t.Errorf("fresh pending row = %s, want PENDING", reloaded.InvitationStatus)
	}

	reloaded = models.Member{}
	db.First(&reloaded, acceptedRow.ID)
	if reloaded.InvitationStatus != models.InvitationAccepted {
		t.Errorf("accepted row = %s, want ACCEPTED", reloaded.InvitationStatus)
	}

	if n := sweeper.Sweep(); n != 0 {
		t.Errorf("second sweep retired %d rows, want 0", n)
	}
}
