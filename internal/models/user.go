package models

import (
	"time"
)

// User represents a registered account. Subscription tier drives the
// project and member quotas.
type User struct {
	ID        uint             `gorm:"primaryKey" json:"id"`
	FullName  string           `gorm:"size:200;not null" json:"fullName"`
	Email     string           `gorm:"uniqueIndex;size:255;not null" json:"email"`
	Password  string           `gorm:"size:255" json:"-"`
	Avatar    string           `gorm:"size:500" json:"avatar"`
	Tier      SubscriptionTier `gorm:"size:20;default:FREE" json:"subscription"`
	CreatedAt time.Time        `json:"createdAt"`
	UpdatedAt time.Time        `json:"updatedAt"`
}

func (User) TableName() string { return "users" }
