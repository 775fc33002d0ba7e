package models

import (
	"time"
)

// Task belongs to a project; MemberID is the creating member (not the
// user). TaskNumber is a per-project sequence assigned at creation.
type Task struct {
	ID            uint         `gorm:"primaryKey" json:"id"`
	ProjectID     uint         `gorm:"index;not null" json:"projectId"`
	Project       *Project     `gorm:"foreignKey:ProjectID" json:"-"`
	MemberID      uint         `gorm:"index;not null" json:"memberId"`
	Title         string       `gorm:"size:500;not null" json:"title"`
	Description   string       `gorm:"type:text" json:"description"`
	Status        TaskStatus   `gorm:"size:20;default:TODO" json:"status"`
	Priority      TaskPriority `gorm:"size:20;default:LOW" json:"priority"`
	TaskType      string       `gorm:"size:100" json:"taskType"`
	TaskNumber    int          `gorm:"not null" json:"taskNumber"`
	SubTasks      StringList   `gorm:"type:text" json:"subTasks"`
	DueDate       *time.Time   `json:"dueDate"`
	CompletedDate *time.Time   `json:"completedDate"`
	IsDeleted     bool         `gorm:"default:false" json:"-"`
	CreatedAt     time.Time    `json:"createdAt"`
	UpdatedAt     time.Time    `json:"updatedAt"`
}

func (Task) TableName() string { return "tasks" }

// TaskAssignee links a member to a task. Inserting or deleting one row
// is the atomic assign/unassign; the unique index turns a concurrent
// duplicate assign into a storage conflict.
type TaskAssignee struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	TaskID    uint      `gorm:"uniqueIndex:idx_task_assignee;not null" json:"taskId"`
	MemberID  uint      `gorm:"uniqueIndex:idx_task_assignee;not null" json:"memberId"`
	CreatedAt time.Time `json:"createdAt"`
}

func (TaskAssignee) TableName() string { return "task_assignees" }

// TaskComment attaches a comment to a task. Removing a comment from a
// task deletes the attachment only; the Comment row stays.
type TaskComment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	TaskID    uint      `gorm:"uniqueIndex:idx_task_comment;not null" json:"taskId"`
	CommentID uint      `gorm:"uniqueIndex:idx_task_comment;not null" json:"commentId"`
	CreatedAt time.Time `json:"createdAt"`
}

func (TaskComment) TableName() string { return "task_comments" }
