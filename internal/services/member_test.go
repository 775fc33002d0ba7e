package services

import (
	"net/http"
	"testing"
	"time"

	"github.com/taskhub/backend/internal/models"
	"github.com/taskhub/backend/internal/utils"
	"gorm.io/gorm"
)

func memberFixture(t *testing.T) (*gorm.DB, *MemberService, *models.User, *models.Project) {
	t.Helper()
	db := newTestDB(t)
	svc := NewMemberService(db, NewQuotaService(db), newTestNotifier())
	owner := seedUser(t, db, "Olive Owner", "olive@example.com", models.TierFree)
	project, _ := seedProject(t, db, owner)
	return db, svc, owner, project
}

func TestInvite(t *testing.T) {
	db, svc, owner, project := memberFixture(t)

	memberID, err := svc.Invite(owner, &InviteMemberRequest{ProjectID: project.ID, Email: "Pat@Example.com"})
	if err != nil {
		t.Fatalf("Invite failed: %v", err)
	}

	var member models.Member
	if err := db.First(&member, memberID).Error; err != nil {
		t.Fatalf("invited member not persisted: %v", err)
	}
	if member.Email != "pat@example.com" {
		t.Errorf("email should be normalized, got %q", member.Email)
	}
	if member.InvitationStatus != models.InvitationPending {
		t.Errorf("status = %s, want PENDING", member.InvitationStatus)
	}
	if member.Role != models.RoleMember {
		t.Errorf("role = %s, want MEMBER", member.Role)
	}
	if member.UserID != nil {
		t.Error("a pending invitation must not be bound to a user yet")
	}
}

func TestInvite_SelfInvite(t *testing.T) {
	_, svc, owner, project := memberFixture(t)

	_, err := svc.Invite(owner, &InviteMemberRequest{ProjectID: project.ID, Email: "OLIVE@example.com"})
	if httpStatus(err) != http.StatusBadRequest {
		t.Errorf("expected 400 for self-invite, got %v", err)
	}
}

func TestInvite_Duplicate(t *testing.T) {
	_, svc, owner, project := memberFixture(t)

	if _, err := svc.Invite(owner, &InviteMemberRequest{ProjectID: project.ID, Email: "pat@example.com"}); err != nil {
		t.Fatalf("first invite failed: %v", err)
	}

	_, err := svc.Invite(owner, &InviteMemberRequest{ProjectID: project.ID, Email: "pat@example.com"})
	if httpStatus(err) != http.StatusConflict {
		t.Errorf("expected 409 for duplicate invite, got %v", err)
	}
}

func TestInvite_RevivesRejectedRow(t *testing.T) {
	db, svc, owner, project := memberFixture(t)

	pat := seedUser(t, db, "Pat", "pat@example.com", models.TierFree)
	rejected := seedMember(t, db, project.ID, pat, models.RoleAdmin, models.InvitationRejected)

	memberID, err := svc.Invite(owner, &InviteMemberRequest{ProjectID: project.ID, Email: "pat@example.com"})
	if err != nil {
		t.Fatalf("re-invite failed: %v", err)
	}
	if memberID != rejected.ID {
		t.Errorf("re-invite should reuse row %d, got %d", rejected.ID, memberID)
	}

	var member models.Member
	db.First(&member, memberID)
	if member.InvitationStatus != models.InvitationPending {
		t.Errorf("status = %s, want PENDING", member.InvitationStatus)
	}
	if member.Role != models.RoleMember {
		t.Errorf("revived row should reset to MEMBER, got %s", member.Role)
	}
	if member.UserID != nil {
		t.Error("revived row should drop the previous user binding")
	}
}

func TestInvite_MemberRoleForbidden(t *testing.T) {
	db, svc, _, project := memberFixture(t)

	plain := seedUser(t, db, "Plain", "plain@example.com", models.TierFree)
	seedMember(t, db, project.ID, plain, models.RoleMember, models.InvitationAccepted)

	_, err := svc.Invite(plain, &InviteMemberRequest{ProjectID: project.ID, Email: "new@example.com"})
	if httpStatus(err) != http.StatusForbidden {
		t.Errorf("expected 403 for MEMBER invite, got %v", err)
	}
}

func TestInvite_QuotaExceeded(t *testing.T) {
	_, svc, owner, project := memberFixture(t)

	// FREE allows 5 member slots; the owner holds one.
	for _, email := range []string{"a@example.com", "b@example.com", "c@example.com", "d@example.com"} {
		if _, err := svc.Invite(owner, &InviteMemberRequest{ProjectID: project.ID, Email: email}); err != nil {
			t.Fatalf("invite %s failed: %v", email, err)
		}
	}

	_, err := svc.Invite(owner, &InviteMemberRequest{ProjectID: project.ID, Email: "e@example.com"})
	if httpStatus(err) != http.StatusPaymentRequired {
		t.Errorf("expected 402 past the FREE ceiling, got %v", err)
	}
}

func TestChangeInvitationStatus_Accept(t *testing.T) {
	db, svc, owner, project := memberFixture(t)

	memberID, err := svc.Invite(owner, &InviteMemberRequest{ProjectID: project.ID, Email: "pat@example.com"})
	if err != nil {
		t.Fatalf("invite failed: %v", err)
	}

	pat := seedUser(t, db, "Pat", "pat@example.com", models.TierFree)
	token, _ := utils.GenerateInvitationToken("pat@example.com", project.ID, memberID, time.Hour)

	member, err := svc.ChangeInvitationStatus(pat, &ChangeInvitationStatusRequest{Token: token, Status: "ACCEPTED"})
	if err != nil {
		t.Fatalf("accept failed: %v", err)
	}
	if member.InvitationStatus != models.InvitationAccepted {
		t.Errorf("status = %s, want ACCEPTED", member.InvitationStatus)
	}
	if member.UserID == nil || *member.UserID != pat.ID {
		t.Error("accepting must bind the acting user to the membership")
	}
}

func TestChangeInvitationStatus_AcceptIsTerminal(t *testing.T) {
	db, svc, owner, project := memberFixture(t)

	memberID, _ := svc.Invite(owner, &InviteMemberRequest{ProjectID: project.ID, Email: "pat@example.com"})
	pat := seedUser(t, db, "Pat", "pat@example.com", models.TierFree)
	token, _ := utils.GenerateInvitationToken("pat@example.com", project.ID, memberID, time.Hour)

	if _, err := svc.ChangeInvitationStatus(pat, &ChangeInvitationStatusRequest{Token: token, Status: "ACCEPTED"}); err != nil {
		t.Fatalf("accept failed: %v", err)
	}

	_, err := svc.ChangeInvitationStatus(pat, &ChangeInvitationStatusRequest{Token: token, Status: "REJECTED"})
	if httpStatus(err) != http.StatusConflict {
		t.Errorf("expected 409 after acceptance, got %v", err)
	}
}

func TestChangeInvitationStatus_RejectedNeedsReinvite(t *testing.T) {
	db, svc, owner, project := memberFixture(t)

	memberID, _ := svc.Invite(owner, &InviteMemberRequest{ProjectID: project.ID, Email: "pat@example.com"})
	pat := seedUser(t, db, "Pat", "pat@example.com", models.TierFree)
	token, _ := utils.GenerateInvitationToken("pat@example.com", project.ID, memberID, time.Hour)

	if _, err := svc.ChangeInvitationStatus(pat, &ChangeInvitationStatusRequest{Token: token, Status: "REJECTED"}); err != nil {
		t.Fatalf("reject failed: %v", err)
	}

	// The token is still valid, but a REJECTED row only re-enters the
	// flow through a fresh invite resetting it to PENDING.
	_, err := svc.ChangeInvitationStatus(pat, &ChangeInvitationStatusRequest{Token: token, Status: "ACCEPTED"})
	if httpStatus(err) != http.StatusConflict {
		t.Errorf("expected 409 accepting a rejected invitation, got %v", err)
	}

	var member models.Member
	if err := db.First(&member, memberID).Error; err != nil {
		t.Fatalf("member row not found: %v", err)
	}
	if member.InvitationStatus != models.InvitationRejected {
		t.Errorf("status = %s, want REJECTED", member.InvitationStatus)
	}
	if member.UserID != nil {
		t.Error("a rejected membership must stay unbound")
	}
}

func TestChangeInvitationStatus_EmailMismatch(t *testing.T) {
	db, svc, owner, project := memberFixture(t)

	memberID, _ := svc.Invite(owner, &InviteMemberRequest{ProjectID: project.ID, Email: "pat@example.com"})
	stranger := seedUser(t, db, "Stranger", "stranger@example.com", models.TierFree)
	token, _ := utils.GenerateInvitationToken("pat@example.com", project.ID, memberID, time.Hour)

	_, err := svc.ChangeInvitationStatus(stranger, &ChangeInvitationStatusRequest{Token: token, Status: "ACCEPTED"})
	if httpStatus(err) != http.StatusForbidden {
		t.Errorf("expected 403 for a foreign invitation, got %v", err)
	}
}

func TestChangeInvitationStatus_BadInput(t *testing.T) {
	db, svc, owner, project := memberFixture(t)

	memberID, _ := svc.Invite(owner, &InviteMemberRequest{ProjectID: project.ID, Email: "pat@example.com"})
	pat := seedUser(t, db, "Pat", "pat@example.com", models.TierFree)
	token, _ := utils.GenerateInvitationToken("pat@example.com", project.ID, memberID, time.Hour)

	tests := []struct {
		name   string
		token  string
		status string
		want   int
	}{
		{"garbage token", "not.a.token", "ACCEPTED", http.StatusBadRequest},
		{"pending is not a decision", token, "PENDING", http.StatusBadRequest},
		{"unknown status", token, "MAYBE", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.ChangeInvitationStatus(pat, &ChangeInvitationStatusRequest{Token: tt.token, Status: tt.status})
			if httpStatus(err) != tt.want {
				t.Errorf("got %v, want HTTP %d", err, tt.want)
			}
		})
	}
}

func TestRemoveMember(t *testing.T) {
	db, svc, _, project := memberFixture(t)

	admin := seedUser(t, db, "Ada Admin", "ada@example.com", models.TierFree)
	seedMember(t, db, project.ID, admin, models.RoleAdmin, models.InvitationAccepted)
	plain := seedUser(t, db, "Plain", "plain@example.com", models.TierFree)
	target := seedMember(t, db, project.ID, plain, models.RoleMember, models.InvitationAccepted)

	if err := svc.Remove(admin, project.ID, target.ID); err != nil {
		t.Fatalf("admin should remove a MEMBER: %v", err)
	}

	var count int64
	db.Model(&models.Member{}).Where("id = ?", target.ID).Count(&count)
	if count != 0 {
		t.Error("membership row should be gone")
	}
}

func TestRemoveMember_RoleLadder(t *testing.T) {
	db, svc, owner, project := memberFixture(t)

	admin := seedUser(t, db, "Ada Admin", "ada@example.com", models.TierFree)
	adminRow := seedMember(t, db, project.ID, admin, models.RoleAdmin, models.InvitationAccepted)
	second := seedUser(t, db, "Bea Admin", "bea@example.com", models.TierFree)
	secondAdmin := seedMember(t, db, project.ID, second, models.RoleAdmin, models.InvitationAccepted)

	var ownerRow models.Member
	db.Where("project_id = ? AND role = ?", project.ID, models.RoleOwner).First(&ownerRow)

	if err := svc.Remove(admin, project.ID, secondAdmin.ID); httpStatus(err) != http.StatusForbidden {
		t.Errorf("admin removing admin: got %v, want 403", err)
	}
	if err := svc.Remove(admin, project.ID, ownerRow.ID); httpStatus(err) != http.StatusForbidden {
		t.Errorf("admin removing owner: got %v, want 403", err)
	}
	if err := svc.Remove(owner, project.ID, ownerRow.ID); httpStatus(err) != http.StatusForbidden {
		t.Errorf("owner removing own row: got %v, want 403", err)
	}
	if err := svc.Remove(owner, project.ID, adminRow.ID); err != nil {
		t.Errorf("owner removing admin should work: %v", err)
	}
}

func TestUpdateRole(t *testing.T) {
	db, svc, owner, project := memberFixture(t)

	plain := seedUser(t, db, "Plain", "plain@example.com", models.TierFree)
	target := seedMember(t, db, project.ID, plain, models.RoleMember, models.InvitationAccepted)

	err := svc.UpdateRole(owner, &UpdateMemberRoleRequest{ProjectID: project.ID, MemberID: target.ID, Role: "ADMIN"})
	if err != nil {
		t.Fatalf("owner should promote a member: %v", err)
	}

	var updated models.Member
	db.First(&updated, target.ID)
	if updated.Role != models.RoleAdmin {
		t.Errorf("role = %s, want ADMIN", updated.Role)
	}
}

func TestUpdateRole_Restrictions(t *testing.T) {
	db, svc, owner, project := memberFixture(t)

	admin := seedUser(t, db, "Ada Admin", "ada@example.com", models.TierFree)
	adminRow := seedMember(t, db, project.ID, admin, models.RoleAdmin, models.InvitationAccepted)
	plain := seedUser(t, db, "Plain", "plain@example.com", models.TierFree)
	target := seedMember(t, db, project.ID, plain, models.RoleMember, models.InvitationAccepted)

	var ownerRow models.Member
	db.Where("project_id = ? AND role = ?", project.ID, models.RoleOwner).First(&ownerRow)

	tests := []struct {
		name string
		user *models.User
		req  UpdateMemberRoleRequest
		want int
	}{
		{"admin cannot change roles", admin,
			UpdateMemberRoleRequest{ProjectID: project.ID, MemberID: target.ID, Role: "ADMIN"}, http.StatusForbidden},
		{"owner role cannot be assigned", owner,
			UpdateMemberRoleRequest{ProjectID: project.ID, MemberID: target.ID, Role: "OWNER"}, http.StatusForbidden},
		{"owner row cannot be demoted", owner,
			UpdateMemberRoleRequest{ProjectID: project.ID, MemberID: ownerRow.ID, Role: "ADMIN"}, http.StatusForbidden},
		{"unknown role", owner,
			UpdateMemberRoleRequest{ProjectID: project.ID, MemberID: adminRow.ID, Role: "SUPERADMIN"}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := tt.req
			if got := httpStatus(svc.UpdateRole(tt.user, &req)); got != tt.want {
				t.Errorf("got HTTP %d, want %d", got, tt.want)
			}
		})
	}
}

func TestListMembers(t *testing.T) {
	db, svc, owner, project := memberFixture(t)

	pat := seedUser(t, db, "Pat", "pat@example.com", models.TierFree)
	seedMember(t, db, project.ID, pat, models.RoleMember, models.InvitationAccepted)
	if _, err := svc.Invite(owner, &InviteMemberRequest{ProjectID: project.ID, Email: "dana@sample.org"}); err != nil {
		t.Fatalf("invite failed: %v", err)
	}

	all, err := svc.List(owner, &MemberListRequest{ProjectID: project.ID})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(all.Members) != 3 {
		t.Fatalf("expected 3 members, got %d", len(all.Members))
	}

	pending, err := svc.List(owner, &MemberListRequest{ProjectID: project.ID, InvitationStatus: "PENDING"})
	if err != nil {
		t.Fatalf("filtered List failed: %v", err)
	}
	if len(pending.Members) != 1 || pending.Members[0].Email != "dana@sample.org" {
		t.Errorf("PENDING filter returned %+v", pending.Members)
	}

	byEmail, err := svc.List(owner, &MemberListRequest{ProjectID: project.ID, Email: "PAT"})
	if err != nil {
		t.Fatalf("email filter failed: %v", err)
	}
	if len(byEmail.Members) != 1 || byEmail.Members[0].FullName != "Pat" {
		t.Errorf("email filter returned %+v", byEmail.Members)
	}

	if _, err := svc.List(owner, &MemberListRequest{ProjectID: project.ID, InvitationStatus: "WAITING"}); httpStatus(err) != http.StatusBadRequest {
		t.Errorf("unknown status filter should 400, got %v", err)
	}
}

func TestListMembers_FilterWildcardsAreLiteral(t *testing.T) {
	db, svc, owner, project := memberFixture(t)

	pat := seedUser(t, db, "Pat", "pat@example.com", models.TierFree)
	seedMember(t, db, project.ID, pat, models.RoleMember, models.InvitationAccepted)

	tests := []struct {
		name   string
		filter string
		want   int
	}{
		{"percent matches nothing", "%", 0},
		{"underscore matches nothing", "_", 0},
		{"plain substring still works", "example.com", 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := svc.List(owner, &MemberListRequest{ProjectID: project.ID, Email: tt.filter})
			if err != nil {
				t.Fatalf("List failed: %v", err)
			}
			if len(resp.Members) != tt.want {
				t.Errorf("filter %q returned %d members, want %d", tt.filter, len(resp.Members), tt.want)
			}
		})
	}
}

func TestListMembers_RequiresAcceptedMembership(t *testing.T) {
	db, svc, owner, project := memberFixture(t)

	memberID, _ := svc.Invite(owner, &InviteMemberRequest{ProjectID: project.ID, Email: "pat@example.com"})
	pat := seedUser(t, db, "Pat", "pat@example.com", models.TierFree)
	db.Model(&models.Member{}).Where("id = ?", memberID).Update("user_id", pat.ID)

	_, err := svc.List(pat, &MemberListRequest{ProjectID: project.ID})
	if httpStatus(err) != http.StatusForbidden {
		t.Errorf("a PENDING member should not see the directory, got %v", err)
	}
}
