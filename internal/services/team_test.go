package services

import (
	"net/http"
	"testing"

	"github.com/taskhub/backend/internal/models"
	"gorm.io/gorm"
)

func teamFixture(t *testing.T) (*gorm.DB, *TeamService, *models.User, *models.Project) {
	t.Helper()
	db := newTestDB(t)
	svc := NewTeamService(db)
	owner := seedUser(t, db, "Olive Owner", "olive@example.com", models.TierPremium)
	project, _ := seedProject(t, db, owner)
	return db, svc, owner, project
}

func TestCreateTeam(t *testing.T) {
	db, svc, owner, project := teamFixture(t)

	team, err := svc.Create(owner, &CreateTeamRequest{ProjectID: project.ID, Name: "  Platform  "})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if team.Name != "Platform" {
		t.Errorf("name should be trimmed, got %q", team.Name)
	}

	if _, err := svc.Create(owner, &CreateTeamRequest{ProjectID: project.ID, Name: "Platform"}); httpStatus(err) != http.StatusConflict {
		t.Errorf("duplicate name should 409, got %v", err)
	}
	if _, err := svc.Create(owner, &CreateTeamRequest{ProjectID: project.ID, Name: "   "}); httpStatus(err) != http.StatusBadRequest {
		t.Errorf("blank name should 400, got %v", err)
	}

	// A deleted team releases its name
	if err := svc.Delete(owner, project.ID, team.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := svc.Create(owner, &CreateTeamRequest{ProjectID: project.ID, Name: "Platform"}); err != nil {
		t.Errorf("name of a deleted team should be reusable: %v", err)
	}

	plain := seedUser(t, db, "Plain", "plain@example.com", models.TierFree)
	seedMember(t, db, project.ID, plain, models.RoleMember, models.InvitationAccepted)
	if _, err := svc.Create(plain, &CreateTeamRequest{ProjectID: project.ID, Name: "Rogue"}); httpStatus(err) != http.StatusForbidden {
		t.Errorf("MEMBER creating a team should 403, got %v", err)
	}
}

func TestUpdateTeam(t *testing.T) {
	_, svc, owner, project := teamFixture(t)

	first, _ := svc.Create(owner, &CreateTeamRequest{ProjectID: project.ID, Name: "Platform"})
	second, _ := svc.Create(owner, &CreateTeamRequest{ProjectID: project.ID, Name: "Frontend"})

	// Renaming onto another live team's name collides
	if _, err := svc.Update(owner, &UpdateTeamRequest{
		ProjectID: project.ID, TeamID: second.ID, Name: "Platform",
	}); httpStatus(err) != http.StatusConflict {
		t.Errorf("rename collision should 409, got %v", err)
	}

	// Saving a team under its own name is fine
	if _, err := svc.Update(owner, &UpdateTeamRequest{
		ProjectID: project.ID, TeamID: first.ID, Name: "Platform",
	}); err != nil {
		t.Errorf("no-op rename failed: %v", err)
	}

	renamed, err := svc.Update(owner, &UpdateTeamRequest{
		ProjectID: project.ID, TeamID: second.ID, Name: "Web",
	})
	if err != nil {
		t.Fatalf("rename failed: %v", err)
	}
	if renamed.Name != "Web" {
		t.Errorf("name = %q, want Web", renamed.Name)
	}
}

func TestTeamMembership(t *testing.T) {
	db, svc, owner, project := teamFixture(t)

	team, _ := svc.Create(owner, &CreateTeamRequest{ProjectID: project.ID, Name: "Platform"})
	pat := seedUser(t, db, "Pat", "pat@example.com", models.TierFree)
	patRow := seedMember(t, db, project.ID, pat, models.RoleMember, models.InvitationAccepted)

	req := &TeamMemberRequest{ProjectID: project.ID, TeamID: team.ID, MemberID: patRow.ID}

	if err := svc.AddMember(owner, req); err != nil {
		t.Fatalf("AddMember failed: %v", err)
	}
	if err := svc.AddMember(owner, req); httpStatus(err) != http.StatusConflict {
		t.Errorf("double add should 409, got %v", err)
	}

	// Leader must already be in the team
	if err := svc.SetLeader(owner, req); err != nil {
		t.Fatalf("SetLeader failed: %v", err)
	}

	var reloaded models.Team
	db.First(&reloaded, team.ID)
	if reloaded.LeaderID == nil || *reloaded.LeaderID != patRow.ID {
		t.Errorf("leader = %v, want %d", reloaded.LeaderID, patRow.ID)
	}

	// Removing the leader from the team clears the slot too
	if err := svc.RemoveMember(owner, req); err != nil {
		t.Fatalf("RemoveMember failed: %v", err)
	}
	db.First(&reloaded, team.ID)
	if reloaded.LeaderID != nil {
		t.Error("removing the leading member should clear the leader slot")
	}

	if err := svc.RemoveMember(owner, req); httpStatus(err) != http.StatusConflict {
		t.Errorf("removing a non-member should 409, got %v", err)
	}
	if err := svc.SetLeader(owner, req); httpStatus(err) != http.StatusBadRequest {
		t.Errorf("leader outside the team should 400, got %v", err)
	}
}

func TestRemoveTeamLeader(t *testing.T) {
	db, svc, owner, project := teamFixture(t)

	team, _ := svc.Create(owner, &CreateTeamRequest{ProjectID: project.ID, Name: "Platform"})
	pat := seedUser(t, db, "Pat", "pat@example.com", models.TierFree)
	patRow := seedMember(t, db, project.ID, pat, models.RoleMember, models.InvitationAccepted)

	req := &TeamMemberRequest{ProjectID: project.ID, TeamID: team.ID, MemberID: patRow.ID}
	svc.AddMember(owner, req)
	svc.SetLeader(owner, req)

	if err := svc.RemoveLeader(owner, project.ID, team.ID); err != nil {
		t.Fatalf("RemoveLeader failed: %v", err)
	}

	var reloaded models.Team
	db.First(&reloaded, team.ID)
	if reloaded.LeaderID != nil {
		t.Error("leader slot should be empty")
	}

	// The member stays in the team
	var count int64
	db.Model(&models.TeamMember{}).Where("team_id = ?", team.ID).Count(&count)
	if count != 1 {
		t.Errorf("team should keep its member, got %d", count)
	}
}

func TestListTeams(t *testing.T) {
	db, svc, owner, project := teamFixture(t)

	platform, _ := svc.Create(owner, &CreateTeamRequest{ProjectID: project.ID, Name: "Platform"})
	svc.Create(owner, &CreateTeamRequest{ProjectID: project.ID, Name: "Frontend"})

	pat := seedUser(t, db, "Pat", "pat@example.com", models.TierFree)
	patRow := seedMember(t, db, project.ID, pat, models.RoleMember, models.InvitationAccepted)
	req := &TeamMemberRequest{ProjectID: project.ID, TeamID: platform.ID, MemberID: patRow.ID}
	svc.AddMember(owner, req)
	svc.SetLeader(owner, req)

	list, err := svc.List(owner, &TeamListRequest{ProjectID: project.ID})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(list.Teams) != 2 {
		t.Fatalf("expected 2 teams, got %d", len(list.Teams))
	}

	var platformView *TeamView
	for i := range list.Teams {
		if list.Teams[i].ID == platform.ID {
			platformView = &list.Teams[i]
		}
	}
	if platformView == nil {
		t.Fatal("platform team missing from list")
	}
	if len(platformView.Members) != 1 || platformView.Members[0].FullName != "Pat" {
		t.Errorf("members = %+v", platformView.Members)
	}
	if platformView.Leader == nil || platformView.Leader.ID != patRow.ID {
		t.Errorf("leader = %+v", platformView.Leader)
	}

	filtered, _ := svc.List(owner, &TeamListRequest{ProjectID: project.ID, Name: "front"})
	if len(filtered.Teams) != 1 || filtered.Teams[0].Name != "Frontend" {
		t.Errorf("name filter returned %+v", filtered.Teams)
	}
}
