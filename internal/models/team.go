package models

import (
	"time"
)

// Team groups members inside a project. Team names are unique per
// project among non-deleted teams (enforced in the service).
type Team struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ProjectID uint      `gorm:"index;not null" json:"projectId"`
	Project   *Project  `gorm:"foreignKey:ProjectID" json:"-"`
	Name      string    `gorm:"size:200;not null" json:"name"`
	LeaderID  *uint     `json:"leaderId"`
	IsDeleted bool      `gorm:"default:false" json:"-"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (Team) TableName() string { return "teams" }

// TeamMember links a member to a team.
type TeamMember struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	TeamID    uint      `gorm:"uniqueIndex:idx_team_member;not null" json:"teamId"`
	MemberID  uint      `gorm:"uniqueIndex:idx_team_member;not null" json:"memberId"`
	CreatedAt time.Time `json:"createdAt"`
}

func (TeamMember) TableName() string { return "team_members" }
