package models

import (
	"time"
)

// Document is a project document (document, wiki page, or note).
// PRIVATE documents are visible to their creating member only.
type Document struct {
	ID          uint          `gorm:"primaryKey" json:"id"`
	ProjectID   uint          `gorm:"index;not null" json:"projectId"`
	Project     *Project      `gorm:"foreignKey:ProjectID" json:"-"`
	MemberID    uint          `gorm:"index;not null" json:"memberId"`
	Title       string        `gorm:"size:500;not null" json:"title"`
	Content     string        `gorm:"type:text" json:"content"`
	Status      DocStatus     `gorm:"size:20;default:DRAFT" json:"status"`
	AccessType  DocAccessType `gorm:"size:20;default:PRIVATE" json:"accessType"`
	DocType     DocType       `gorm:"size:20;default:DOCUMENT" json:"docType"`
	LeftMargin  int           `gorm:"default:56" json:"leftMargin"`
	RightMargin int           `gorm:"default:56" json:"rightMargin"`
	IsDeleted   bool          `gorm:"default:false" json:"-"`
	CreatedAt   time.Time     `json:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt"`
}

func (Document) TableName() string { return "documents" }

// DocumentAssignee links a member to a published document.
type DocumentAssignee struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	DocumentID uint      `gorm:"uniqueIndex:idx_document_assignee;not null" json:"documentId"`
	MemberID   uint      `gorm:"uniqueIndex:idx_document_assignee;not null" json:"memberId"`
	CreatedAt  time.Time `json:"createdAt"`
}

func (DocumentAssignee) TableName() string { return "document_assignees" }

// DocumentComment attaches a comment to a document.
type DocumentComment struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	DocumentID uint      `gorm:"uniqueIndex:idx_document_comment;not null" json:"documentId"`
	CommentID  uint      `gorm:"uniqueIndex:idx_document_comment;not null" json:"commentId"`
	CreatedAt  time.Time `json:"createdAt"`
}

func (DocumentComment) TableName() string { return "document_comments" }
