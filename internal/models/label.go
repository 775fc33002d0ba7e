package models

import (
	"time"
)

// Label is a project-scoped tag with a display color. A fixed set is
// seeded when a project is created.
type Label struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	ProjectID   uint      `gorm:"index;not null" json:"projectId"`
	Project     *Project  `gorm:"foreignKey:ProjectID" json:"-"`
	Name        string    `gorm:"size:100;not null" json:"name"`
	Description string    `gorm:"size:500" json:"description"`
	Color       string    `gorm:"size:20" json:"color"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (Label) TableName() string { return "labels" }
