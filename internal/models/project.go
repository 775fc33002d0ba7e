package models

import (
	"time"
)

// Project is the root entity. UserID is the owning account; the owner
// also holds an ACCEPTED membership row with role OWNER.
type Project struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	Name        string     `gorm:"size:200;not null" json:"name"`
	Description string     `gorm:"type:text" json:"description"`
	Tags        StringList `gorm:"type:text" json:"tags"`
	UserID      uint       `gorm:"index;not null" json:"userId"`
	User        *User      `gorm:"foreignKey:UserID" json:"-"`
	IsDeleted   bool       `gorm:"default:false" json:"-"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

func (Project) TableName() string { return "projects" }
