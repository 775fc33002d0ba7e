package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/taskhub/backend/internal/middleware"
	"github.com/taskhub/backend/internal/services"
	"github.com/taskhub/backend/pkg/response"
	"gorm.io/gorm"
)

type TeamHandler struct {
	teamService *services.TeamService
}

func NewTeamHandler(db *gorm.DB) *TeamHandler {
	return &TeamHandler{
		teamService: services.NewTeamService(db),
	}
}

// List returns a project's teams with member projections
// GET /api/v1/teams
func (h *TeamHandler) List(c *gin.Context) {
	var req services.TeamListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	resp, err := h.teamService.List(middleware.CurrentUser(c), &req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, "teams fetched", resp)
}

// Create makes a team
// POST /api/v1/teams
func (h *TeamHandler) Create(c *gin.Context) {
	var req services.CreateTeamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	team, err := h.teamService.Create(middleware.CurrentUser(c), &req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "team created", team)
}

// Update renames a team
// PATCH /api/v1/teams
func (h *TeamHandler) Update(c *gin.Context) {
	var req services.UpdateTeamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	team, err := h.teamService.Update(middleware.CurrentUser(c), &req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, "team updated", team)
}

// Delete soft-deletes a team
// DELETE /api/v1/projects/:projectId/teams/:teamId
func (h *TeamHandler) Delete(c *gin.Context) {
	projectID := pathID(c, "projectId")
	teamID := pathID(c, "teamId")
	if projectID == 0 || teamID == 0 {
		response.BadRequest(c, "invalid project or team id")
		return
	}

	if err := h.teamService.Delete(middleware.CurrentUser(c), projectID, teamID); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, "team deleted", nil)
}

// AddMember puts a project member on a team
// POST /api/v1/teams/members
func (h *TeamHandler) AddMember(c *gin.Context) {
	var req services.TeamMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	if err := h.teamService.AddMember(middleware.CurrentUser(c), &req); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, "member added to team", nil)
}

// RemoveMember takes a member off a team
// POST /api/v1/teams/members/remove
func (h *TeamHandler) RemoveMember(c *gin.Context) {
	var req services.TeamMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	if err := h.teamService.RemoveMember(middleware.CurrentUser(c), &req); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, "member removed from team", nil)
}

// SetLeader promotes a team member to leader
// PUT /api/v1/teams/leader
func (h *TeamHandler) SetLeader(c *gin.Context) {
	var req services.TeamMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	if err := h.teamService.SetLeader(middleware.CurrentUser(c), &req); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, "team leader set", nil)
}

// RemoveLeader clears the leader slot
// DELETE /api/v1/projects/:projectId/teams/:teamId/leader
func (h *TeamHandler) RemoveLeader(c *gin.Context) {
	projectID := pathID(c, "projectId")
	teamID := pathID(c, "teamId")
	if projectID == 0 || teamID == 0 {
		response.BadRequest(c, "invalid project or team id")
		return
	}

	if err := h.teamService.RemoveLeader(middleware.CurrentUser(c), projectID, teamID); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, "team leader removed", nil)
}
