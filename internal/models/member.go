package models

import (
	"time"
)

// Member is a per-project membership row. It is created at invitation
// time with a nil UserID; the user is bound when the invitation is
// accepted. The unique (project_id, email) index is the storage guard
// against duplicate invitations: rows in a terminal REJECTED state are
// reused by a re-invite instead of inserting a second row.
type Member struct {
	ID               uint             `gorm:"primaryKey" json:"id"`
	ProjectID        uint             `gorm:"uniqueIndex:idx_member_project_email;not null" json:"projectId"`
	Project          *Project         `gorm:"foreignKey:ProjectID" json:"-"`
	Email            string           `gorm:"uniqueIndex:idx_member_project_email;size:255;not null" json:"email"`
	UserID           *uint            `gorm:"index" json:"userId"`
	User             *User            `gorm:"foreignKey:UserID" json:"-"`
	Role             MemberRole       `gorm:"size:20;default:MEMBER" json:"role"`
	InvitationStatus InvitationStatus `gorm:"size:20;default:PENDING" json:"invitationStatus"`
	CreatedAt        time.Time        `json:"createdAt"`
	UpdatedAt        time.Time        `json:"updatedAt"`
}

func (Member) TableName() string { return "members" }

// Accepted reports whether this membership grants project access.
func (m *Member) Accepted() bool {
	return m.InvitationStatus == InvitationAccepted
}
