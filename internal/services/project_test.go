package services

import (
	"net/http"
	"testing"

	"github.com/taskhub/backend/internal/models"
	"gorm.io/gorm"
)

func projectFixture(t *testing.T) (*gorm.DB, *ProjectService, *models.User) {
	t.Helper()
	db := newTestDB(t)
	svc := NewProjectService(db, NewQuotaService(db))
	owner := seedUser(t, db, "Olive Owner", "olive@example.com", models.TierPremium)
	return db, svc, owner
}

func TestCreateProject(t *testing.T) {
	db, svc, owner := projectFixture(t)

	project, err := svc.Create(owner, &CreateProjectRequest{
		Name:        "Apollo",
		Description: "Lunar program",
		Tags:        []string{"space", "research"},
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	var member models.Member
	if err := db.Where("project_id = ?", project.ID).First(&member).Error; err != nil {
		t.Fatalf("owner membership not created: %v", err)
	}
	if member.Role != models.RoleOwner || member.InvitationStatus != models.InvitationAccepted {
		t.Errorf("owner membership = %s/%s, want OWNER/ACCEPTED", member.Role, member.InvitationStatus)
	}
	if member.UserID == nil || *member.UserID != owner.ID {
		t.Error("owner membership should be bound to the creator")
	}

	var labelCount int64
	db.Model(&models.Label{}).Where("project_id = ?", project.ID).Count(&labelCount)
	if labelCount != int64(len(defaultLabels)) {
		t.Errorf("expected %d seeded labels, got %d", len(defaultLabels), labelCount)
	}
}

func TestCreateProject_Quota(t *testing.T) {
	db := newTestDB(t)
	svc := NewProjectService(db, NewQuotaService(db))
	owner := seedUser(t, db, "Free Fred", "fred@example.com", models.TierFree)

	if _, err := svc.Create(owner, &CreateProjectRequest{Name: "First"}); err != nil {
		t.Fatalf("first project failed: %v", err)
	}

	_, err := svc.Create(owner, &CreateProjectRequest{Name: "Second"})
	if httpStatus(err) != http.StatusPaymentRequired {
		t.Errorf("expected 402 for a second FREE project, got %v", err)
	}
}

func TestListProjects(t *testing.T) {
	db, svc, owner := projectFixture(t)

	first, err := svc.Create(owner, &CreateProjectRequest{Name: "Apollo"})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	second, err := svc.Create(owner, &CreateProjectRequest{Name: "Gemini"})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	// A project someone else invited the user into, still pending
	other := seedUser(t, db, "Other", "other@example.com", models.TierFree)
	otherProject, _ := seedProject(t, db, other)
	pending := models.Member{ProjectID: otherProject.ID, Email: owner.Email, UserID: &owner.ID,
		Role: models.RoleMember, InvitationStatus: models.InvitationPending}
	db.Create(&pending)

	views, err := svc.List(owner)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(views) != 2 {
		t.Fatalf("expected 2 projects, got %d", len(views))
	}
	if views[0].ProjectID != first.ID || views[1].ProjectID != second.ID {
		t.Errorf("unexpected ordering: %+v", views)
	}
	if views[0].Role != models.RoleOwner {
		t.Errorf("role = %s, want OWNER", views[0].Role)
	}
	if views[0].Owner.Email != owner.Email {
		t.Errorf("owner projection = %+v", views[0].Owner)
	}

	if err := svc.Delete(owner, first.ID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	views, _ = svc.List(owner)
	if len(views) != 1 || views[0].ProjectID != second.ID {
		t.Errorf("deleted project should disappear from the list, got %+v", views)
	}
}

func TestGetProject(t *testing.T) {
	db, svc, owner := projectFixture(t)

	project, _ := svc.Create(owner, &CreateProjectRequest{Name: "Apollo"})

	view, err := svc.Get(owner, project.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if view.Name != "Apollo" || view.Role != models.RoleOwner {
		t.Errorf("unexpected view: %+v", view)
	}

	stranger := seedUser(t, db, "Stranger", "stranger@example.com", models.TierFree)
	if _, err := svc.Get(stranger, project.ID); httpStatus(err) != http.StatusNotFound {
		t.Errorf("non-member Get should 404, got %v", err)
	}

	if _, err := svc.Get(owner, 9999); httpStatus(err) != http.StatusNotFound {
		t.Errorf("missing project should 404, got %v", err)
	}
}

func TestUpdateProject(t *testing.T) {
	db, svc, owner := projectFixture(t)

	project, _ := svc.Create(owner, &CreateProjectRequest{Name: "Apollo", Tags: []string{"space"}})

	desc := "Crewed lunar flight"
	updated, err := svc.Update(owner, &UpdateProjectRequest{
		ProjectID:   project.ID,
		Name:        "Apollo 11",
		Description: &desc,
	})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if updated.Name != "Apollo 11" || updated.Description != desc {
		t.Errorf("unexpected project after update: %+v", updated)
	}
	if len(updated.Tags) != 1 || updated.Tags[0] != "space" {
		t.Errorf("tags should be untouched when omitted, got %v", updated.Tags)
	}

	admin := seedUser(t, db, "Ada Admin", "ada@example.com", models.TierFree)
	seedMember(t, db, project.ID, admin, models.RoleAdmin, models.InvitationAccepted)
	_, err = svc.Update(admin, &UpdateProjectRequest{ProjectID: project.ID, Name: "Hijacked"})
	if httpStatus(err) != http.StatusForbidden {
		t.Errorf("admin update should 403, got %v", err)
	}
}

func TestDeleteProject(t *testing.T) {
	db, svc, owner := projectFixture(t)

	project, _ := svc.Create(owner, &CreateProjectRequest{Name: "Apollo"})
	pat := seedUser(t, db, "Pat", "pat@example.com", models.TierFree)
	seedMember(t, db, project.ID, pat, models.RoleMember, models.InvitationAccepted)

	if err := svc.Delete(owner, project.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	var reloaded models.Project
	db.First(&reloaded, project.ID)
	if !reloaded.IsDeleted {
		t.Error("project should be soft-deleted")
	}

	var live int64
	db.Model(&models.Member{}).
		Where("project_id = ? AND invitation_status != ?", project.ID, models.InvitationRejected).
		Count(&live)
	if live != 0 {
		t.Errorf("all memberships should be retired, %d still live", live)
	}

	if err := svc.Delete(owner, project.ID); httpStatus(err) != http.StatusConflict {
		t.Errorf("second delete should 409, got %v", err)
	}
}

func TestDeleteProject_AdminForbidden(t *testing.T) {
	db, svc, owner := projectFixture(t)

	project, _ := svc.Create(owner, &CreateProjectRequest{Name: "Apollo"})
	admin := seedUser(t, db, "Ada Admin", "ada@example.com", models.TierFree)
	seedMember(t, db, project.ID, admin, models.RoleAdmin, models.InvitationAccepted)

	if err := svc.Delete(admin, project.ID); httpStatus(err) != http.StatusForbidden {
		t.Errorf("admin delete should 403, got %v", err)
	}
}
