package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/taskhub/backend/internal/middleware"
	"github.com/taskhub/backend/internal/services"
	"github.com/taskhub/backend/pkg/response"
	"gorm.io/gorm"
)

type MemberHandler struct {
	memberService *services.MemberService
}

func NewMemberHandler(db *gorm.DB, notifier *services.NotificationService) *MemberHandler {
	return &MemberHandler{
		memberService: services.NewMemberService(db, services.NewQuotaService(db), notifier),
	}
}

// List returns the members of a project
// GET /api/v1/members
func (h *MemberHandler) List(c *gin.Context) {
	var req services.MemberListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	resp, err := h.memberService.List(middleware.CurrentUser(c), &req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, "members fetched", resp)
}

// Invite sends an invitation email and reserves a member slot
// POST /api/v1/members/invite
func (h *MemberHandler) Invite(c *gin.Context) {
	var req services.InviteMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	memberID, err := h.memberService.Invite(middleware.CurrentUser(c), &req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "invitation sent", gin.H{"memberId": memberID})
}

// ChangeInvitationStatus accepts or rejects an invitation token
// PUT /api/v1/members/invitation
func (h *MemberHandler) ChangeInvitationStatus(c *gin.Context) {
	var req services.ChangeInvitationStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	member, err := h.memberService.ChangeInvitationStatus(middleware.CurrentUser(c), &req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, "invitation updated", member)
}

// Remove deletes a membership
// DELETE /api/v1/projects/:projectId/members/:memberId
func (h *MemberHandler) Remove(c *gin.Context) {
	projectID := pathID(c, "projectId")
	memberID := pathID(c, "memberId")
	if projectID == 0 || memberID == 0 {
		response.BadRequest(c, "invalid project or member id")
		return
	}

	if err := h.memberService.Remove(middleware.CurrentUser(c), projectID, memberID); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, "member removed", nil)
}

// UpdateRole changes a member's role
// PATCH /api/v1/members/role
func (h *MemberHandler) UpdateRole(c *gin.Context) {
	var req services.UpdateMemberRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	if err := h.memberService.UpdateRole(middleware.CurrentUser(c), &req); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, "role updated", nil)
}
