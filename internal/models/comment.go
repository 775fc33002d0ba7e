package models

import (
	"time"
)

// Comment is authored by a member. Audit entries written by task
// mutations share this table with user comments, distinguished by Type.
// Rows are never deleted; detaching from a task removes only the
// attachment row.
type Comment struct {
	ID        uint        `gorm:"primaryKey" json:"id"`
	MemberID  uint        `gorm:"index;not null" json:"memberId"`
	Member    *Member     `gorm:"foreignKey:MemberID" json:"-"`
	Content   string      `gorm:"type:text;not null" json:"content"`
	Type      CommentType `gorm:"size:30;default:GENERAL" json:"type"`
	Likes     int         `gorm:"default:0" json:"likes"`
	CreatedAt time.Time   `json:"createdAt"`
	UpdatedAt time.Time   `json:"updatedAt"`
}

func (Comment) TableName() string { return "comments" }
