package services

import (
	"errors"
	"time"

	"github.com/taskhub/backend/internal/models"
	"github.com/taskhub/backend/pkg/response"
	"gorm.io/gorm"
)

type DocumentService struct {
	db       *gorm.DB
	notifier *NotificationService
}

func NewDocumentService(db *gorm.DB, notifier *NotificationService) *DocumentService {
	return &DocumentService{db: db, notifier: notifier}
}

// findDocument loads a live document belonging to the given project.
func findDocument(db *gorm.DB, projectID, docID uint) (*models.Document, error) {
	var doc models.Document
	err := db.First(&doc, docID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, response.NewNotFound("document not found")
	}
	if err != nil {
		return nil, response.NewServerError("failed to load document")
	}
	if doc.ProjectID != projectID || doc.IsDeleted {
		return nil, response.NewNotFound("document not found")
	}
	return &doc, nil
}

type CreateDocumentRequest struct {
	ProjectID  uint   `json:"projectId" binding:"required"`
	Title      string `json:"title" binding:"required"`
	Content    string `json:"content"`
	AccessType string `json:"accessType"`
	DocType    string `json:"docType"`
}

// Create makes a document. New documents start as DRAFT; access
// defaults to PRIVATE so nothing leaks before the creator publishes.
func (s *DocumentService) Create(user *models.User, req *CreateDocumentRequest) (*models.Document, error) {
	if _, err := findActiveProject(s.db, req.ProjectID); err != nil {
		return nil, err
	}
	member, err := findAcceptedMember(s.db, user.ID, req.ProjectID)
	if err != nil {
		return nil, err
	}

	accessType := models.DocPrivate
	if req.AccessType != "" {
		parsed, ok := models.ParseDocAccessType(req.AccessType)
		if !ok {
			return nil, response.NewBadRequest("unknown access type: " + req.AccessType)
		}
		accessType = parsed
	}
	docType := models.DocTypeDocument
	if req.DocType != "" {
		parsed, ok := models.ParseDocType(req.DocType)
		if !ok {
			return nil, response.NewBadRequest("unknown document type: " + req.DocType)
		}
		docType = parsed
	}

	doc := models.Document{
		ProjectID:   req.ProjectID,
		MemberID:    member.ID,
		Title:       req.Title,
		Content:     req.Content,
		Status:      models.DocDraft,
		AccessType:  accessType,
		DocType:     docType,
		LeftMargin:  56,
		RightMargin: 56,
	}
	if err := s.db.Create(&doc).Error; err != nil {
		return nil, response.NewServerError("failed to create document")
	}
	return &doc, nil
}

type UpdateDocumentRequest struct {
	ProjectID   uint    `json:"projectId" binding:"required"`
	DocumentID  uint    `json:"documentId" binding:"required"`
	Title       string  `json:"title"`
	Content     *string `json:"content"`
	Status      string  `json:"status"`
	AccessType  string  `json:"accessType"`
	DocType     string  `json:"docType"`
	LeftMargin  *int    `json:"leftMargin"`
	RightMargin *int    `json:"rightMargin"`
}

// Update applies a partial edit. A PRIVATE document can be edited by
// its creator only; otherwise the usual role gate applies.
func (s *DocumentService) Update(user *models.User, req *UpdateDocumentRequest) (*models.Document, error) {
	doc, err := findDocument(s.db, req.ProjectID, req.DocumentID)
	if err != nil {
		return nil, err
	}
	member, err := findAcceptedMember(s.db, user.ID, req.ProjectID)
	if err != nil {
		return nil, err
	}
	if err := s.checkMutable(doc, member); err != nil {
		return nil, err
	}

	if req.Title != "" {
		doc.Title = req.Title
	}
	if req.Content != nil {
		doc.Content = *req.Content
	}
	if req.Status != "" {
		status, ok := models.ParseDocStatus(req.Status)
		if !ok {
			return nil, response.NewBadRequest("unknown document status: " + req.Status)
		}
		doc.Status = status
	}
	if req.AccessType != "" {
		accessType, ok := models.ParseDocAccessType(req.AccessType)
		if !ok {
			return nil, response.NewBadRequest("unknown access type: " + req.AccessType)
		}
		doc.AccessType = accessType
	}
	if req.DocType != "" {
		docType, ok := models.ParseDocType(req.DocType)
		if !ok {
			return nil, response.NewBadRequest("unknown document type: " + req.DocType)
		}
		doc.DocType = docType
	}
	if req.LeftMargin != nil {
		doc.LeftMargin = *req.LeftMargin
	}
	if req.RightMargin != nil {
		doc.RightMargin = *req.RightMargin
	}

	if err := s.db.Save(doc).Error; err != nil {
		return nil, response.NewServerError("failed to update document")
	}
	return doc, nil
}

// checkMutable gates document mutation: creator always may; others only
// when the document is not PRIVATE and they hold OWNER or ADMIN.
func (s *DocumentService) checkMutable(doc *models.Document, member *models.Member) error {
	if doc.MemberID == member.ID {
		return nil
	}
	if doc.AccessType == models.DocPrivate {
		return response.NewForbidden("private documents can only be changed by their creator")
	}
	if !CanPerform(member.Role, member.ID, OpMutateDocument, doc.MemberID) {
		return response.NewForbidden("you can only edit documents you created")
	}
	return nil
}

// Delete soft-deletes a document.
func (s *DocumentService) Delete(user *models.User, projectID, docID uint) error {
	doc, err := findDocument(s.db, projectID, docID)
	if err != nil {
		return err
	}
	member, err := findAcceptedMember(s.db, user.ID, projectID)
	if err != nil {
		return err
	}
	if err := s.checkMutable(doc, member); err != nil {
		return err
	}

	if err := s.db.Model(&models.Document{}).Where("id = ?", doc.ID).
		Update("is_deleted", true).Error; err != nil {
		return response.NewServerError("failed to delete document")
	}
	return nil
}

type AssignDocumentMemberRequest struct {
	ProjectID  uint `json:"projectId" binding:"required"`
	DocumentID uint `json:"documentId" binding:"required"`
	MemberID   uint `json:"memberId" binding:"required"`
}

// AssignMember shares a document with a member. Only PUBLISHED
// documents can be assigned.
func (s *DocumentService) AssignMember(user *models.User, req *AssignDocumentMemberRequest) error {
	project, err := findActiveProject(s.db, req.ProjectID)
	if err != nil {
		return err
	}
	doc, err := findDocument(s.db, req.ProjectID, req.DocumentID)
	if err != nil {
		return err
	}
	actor, err := findAcceptedMember(s.db, user.ID, req.ProjectID)
	if err != nil {
		return err
	}
	if !CanPerform(actor.Role, actor.ID, OpAssignMember, doc.MemberID) {
		return response.NewForbidden("you can only manage assignees on documents you created")
	}
	if doc.Status != models.DocPublished {
		return response.NewBadRequest("only published documents can be assigned")
	}

	var assignee models.Member
	err = s.db.First(&assignee, req.MemberID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && assignee.ProjectID != req.ProjectID) {
		return response.NewNotFound("member not found in this project")
	}
	if err != nil {
		return response.NewServerError("failed to load member")
	}

	var existing int64
	s.db.Model(&models.DocumentAssignee{}).
		Where("document_id = ? AND member_id = ?", doc.ID, assignee.ID).Count(&existing)
	if existing > 0 {
		return response.NewConflict("member is already assigned to this document")
	}

	if err := s.db.Create(&models.DocumentAssignee{DocumentID: doc.ID, MemberID: assignee.ID}).Error; err != nil {
		return response.NewConflict("member is already assigned to this document")
	}

	s.notifier.SendDocumentAssigned(assignee.Email, project.Name, doc.Title, project.ID, doc.ID)
	return nil
}

// RemoveAssignedMember unshares a document.
func (s *DocumentService) RemoveAssignedMember(user *models.User, req *AssignDocumentMemberRequest) error {
	doc, err := findDocument(s.db, req.ProjectID, req.DocumentID)
	if err != nil {
		return err
	}
	actor, err := findAcceptedMember(s.db, user.ID, req.ProjectID)
	if err != nil {
		return err
	}
	if !CanPerform(actor.Role, actor.ID, OpAssignMember, doc.MemberID) {
		return response.NewForbidden("you can only manage assignees on documents you created")
	}

	result := s.db.Where("document_id = ? AND member_id = ?", doc.ID, req.MemberID).
		Delete(&models.DocumentAssignee{})
	if result.Error != nil {
		return response.NewServerError("failed to remove assignee")
	}
	if result.RowsAffected == 0 {
		return response.NewConflict("member is not assigned to this document")
	}
	return nil
}

type AddDocumentCommentRequest struct {
	ProjectID  uint   `json:"projectId" binding:"required"`
	DocumentID uint   `json:"documentId" binding:"required"`
	Content    string `json:"content" binding:"required"`
}

// AddComment attaches a comment to a document.
func (s *DocumentService) AddComment(user *models.User, req *AddDocumentCommentRequest) (uint, error) {
	doc, err := findDocument(s.db, req.ProjectID, req.DocumentID)
	if err != nil {
		return 0, err
	}
	member, err := findAcceptedMember(s.db, user.ID, req.ProjectID)
	if err != nil {
		return 0, err
	}
	if doc.AccessType == models.DocPrivate && doc.MemberID != member.ID {
		return 0, response.NewNotFound("document not found")
	}

	comment := models.Comment{
		MemberID: member.ID,
		Content:  req.Content,
		Type:     models.CommentGeneral,
	}
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&comment).Error; err != nil {
			return err
		}
		return tx.Create(&models.DocumentComment{DocumentID: doc.ID, CommentID: comment.ID}).Error
	})
	if err != nil {
		return 0, response.NewServerError("failed to add comment")
	}
	return comment.ID, nil
}

// RemoveComment detaches a comment; the comment row stays.
func (s *DocumentService) RemoveComment(user *models.User, projectID, docID, commentID uint) error {
	doc, err := findDocument(s.db, projectID, docID)
	if err != nil {
		return err
	}
	member, err := findAcceptedMember(s.db, user.ID, projectID)
	if err != nil {
		return err
	}

	var attachment models.DocumentComment
	err = s.db.Where("document_id = ? AND comment_id = ?", doc.ID, commentID).First(&attachment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return response.NewNotFound("comment not found on this document")
	}
	if err != nil {
		return response.NewServerError("failed to load comment")
	}

	var comment models.Comment
	if err := s.db.First(&comment, commentID).Error; err != nil {
		return response.NewNotFound("comment not found on this document")
	}
	if !CanPerform(member.Role, member.ID, OpMutateDocument, comment.MemberID) {
		return response.NewForbidden("you can only remove your own comments")
	}

	if err := s.db.Where("document_id = ? AND comment_id = ?", doc.ID, commentID).
		Delete(&models.DocumentComment{}).Error; err != nil {
		return response.NewServerError("failed to remove comment")
	}
	return nil
}

type DocumentListRequest struct {
	ProjectID    uint   `form:"projectId" binding:"required"`
	Title        string `form:"title"`
	Status       string `form:"status"`
	CreatedByMe  bool   `form:"createdByMe"`
	AssignedToMe bool   `form:"assignedToMe"`
	IsPublic     bool   `form:"isPublic"`
	Sort         string `form:"sort"`
	Page         int    `form:"page"`
	Limit        int    `form:"limit"`
}

type DocumentView struct {
	ID           uint                 `json:"id"`
	ProjectID    uint                 `json:"projectId"`
	Title        string               `json:"title"`
	Content      string               `json:"content"`
	Status       models.DocStatus     `json:"status"`
	AccessType   models.DocAccessType `json:"accessType"`
	DocType      models.DocType       `json:"docType"`
	LeftMargin   int                  `json:"leftMargin"`
	RightMargin  int                  `json:"rightMargin"`
	CreatedAt    time.Time            `json:"createdAt"`
	Creator      CreatorView          `json:"createdBy"`
	Assignees    []MemberRef          `json:"assignees"`
	CommentCount int                  `json:"commentCount"`
	IsCreator    bool                 `json:"isCreator"`
	IsMember     bool                 `json:"isMember"`
}

type DocumentListResponse struct {
	Documents []DocumentView `json:"documents"`
	PageMeta
}

// List returns enriched documents. PRIVATE documents of other members
// are always excluded; assignedToMe and isPublic both imply PUBLISHED.
func (s *DocumentService) List(user *models.User, req *DocumentListRequest) (*DocumentListResponse, error) {
	if _, err := findActiveProject(s.db, req.ProjectID); err != nil {
		return nil, err
	}
	viewer, err := findAcceptedMember(s.db, user.ID, req.ProjectID)
	if err != nil {
		return nil, err
	}

	query := s.db.Model(&models.Document{}).
		Where("documents.project_id = ? AND documents.is_deleted = ?", req.ProjectID, false).
		Where("documents.access_type != ? OR documents.member_id = ?", models.DocPrivate, viewer.ID)

	if req.Title != "" {
		query = query.Where("LOWER(documents.title) LIKE ? ESCAPE '!'", likePattern(req.Title))
	}
	if req.Status != "" {
		status, ok := models.ParseDocStatus(req.Status)
		if !ok {
			return nil, response.NewBadRequest("unknown document status: " + req.Status)
		}
		query = query.Where("documents.status = ?", status)
	}
	if req.CreatedByMe {
		query = query.Where("documents.member_id = ?", viewer.ID)
	}
	if req.AssignedToMe {
		query = query.Joins("JOIN document_assignees ON document_assignees.document_id = documents.id").
			Where("document_assignees.member_id = ?", viewer.ID).
			Where("documents.status = ?", models.DocPublished)
	}
	if req.IsPublic {
		query = query.Where("documents.access_type = ? AND documents.status = ?",
			models.DocPublic, models.DocPublished)
	}

	order := "documents.created_at DESC"
	if req.Sort == "asc" {
		order = "documents.created_at ASC"
	}

	var docs []models.Document
	if err := query.Order(order).Find(&docs).Error; err != nil {
		return nil, response.NewServerError("failed to list documents")
	}

	views := s.enrich(viewer, docs)
	page, meta := paginate(views, req.Page, req.Limit)
	return &DocumentListResponse{Documents: page, PageMeta: meta}, nil
}

// Get returns one enriched document. PRIVATE documents are only
// readable by their creator.
func (s *DocumentService) Get(user *models.User, projectID, docID uint) (*DocumentView, error) {
	doc, err := findDocument(s.db, projectID, docID)
	if err != nil {
		return nil, err
	}
	viewer, err := findAcceptedMember(s.db, user.ID, projectID)
	if err != nil {
		return nil, err
	}
	if doc.AccessType == models.DocPrivate && doc.MemberID != viewer.ID {
		return nil, response.NewForbidden("this document is private")
	}

	views := s.enrich(viewer, []models.Document{*doc})
	return &views[0], nil
}

func (s *DocumentService) enrich(viewer *models.Member, docs []models.Document) []DocumentView {
	if len(docs) == 0 {
		return []DocumentView{}
	}

	docIDs := make([]uint, 0, len(docs))
	creatorIDs := make([]uint, 0, len(docs))
	for _, d := range docs {
		docIDs = append(docIDs, d.ID)
		creatorIDs = append(creatorIDs, d.MemberID)
	}

	var creators []models.Member
	s.db.Where("id IN ?", creatorIDs).Find(&creators)
	creatorsByID := make(map[uint]models.Member, len(creators))
	userIDs := make([]uint, 0, len(creators))
	for _, m := range creators {
		creatorsByID[m.ID] = m
		if m.UserID != nil {
			userIDs = append(userIDs, *m.UserID)
		}
	}

	usersByID := make(map[uint]models.User, len(userIDs))
	if len(userIDs) > 0 {
		var users []models.User
		s.db.Where("id IN ?", userIDs).Find(&users)
		for _, u := range users {
			usersByID[u.ID] = u
		}
	}

	var assignments []models.DocumentAssignee
	s.db.Where("document_id IN ?", docIDs).Find(&assignments)
	assigneeIDs := make([]uint, 0, len(assignments))
	for _, a := range assignments {
		assigneeIDs = append(assigneeIDs, a.MemberID)
	}
	assigneesByID := make(map[uint]models.Member, len(assigneeIDs))
	if len(assigneeIDs) > 0 {
		var members []models.Member
		s.db.Where("id IN ?", assigneeIDs).Find(&members)
		for _, m := range members {
			assigneesByID[m.ID] = m
		}
	}
	assignmentsByDoc := make(map[uint][]models.DocumentAssignee)
	for _, a := range assignments {
		assignmentsByDoc[a.DocumentID] = append(assignmentsByDoc[a.DocumentID], a)
	}

	commentCounts := make(map[uint]int, len(docIDs))
	var counts []struct {
		DocumentID uint
		N          int
	}
	s.db.Model(&models.DocumentComment{}).
		Select("document_id, COUNT(*) AS n").
		Where("document_id IN ?", docIDs).
		Group("document_id").
		Scan(&counts)
	for _, c := range counts {
		commentCounts[c.DocumentID] = c.N
	}

	views := make([]DocumentView, 0, len(docs))
	for _, d := range docs {
		view := DocumentView{
			ID:           d.ID,
			ProjectID:    d.ProjectID,
			Title:        d.Title,
			Content:      d.Content,
			Status:       d.Status,
			AccessType:   d.AccessType,
			DocType:      d.DocType,
			LeftMargin:   d.LeftMargin,
			RightMargin:  d.RightMargin,
			CreatedAt:    d.CreatedAt,
			Assignees:    []MemberRef{},
			CommentCount: commentCounts[d.ID],
			IsCreator:    d.MemberID == viewer.ID,
		}

		if creator, ok := creatorsByID[d.MemberID]; ok {
			view.Creator = CreatorView{
				MemberID: creator.ID,
				Email:    creator.Email,
				Role:     creator.Role,
			}
			if creator.UserID != nil {
				if u, ok := usersByID[*creator.UserID]; ok {
					view.Creator.FullName = u.FullName
					view.Creator.Avatar = u.Avatar
				}
			}
		}

		for _, a := range assignmentsByDoc[d.ID] {
			if a.MemberID == viewer.ID {
				view.IsMember = true
			}
			if m, ok := assigneesByID[a.MemberID]; ok {
				view.Assignees = append(view.Assignees, MemberRef{ID: m.ID, Email: m.Email})
			}
		}

		views = append(views, view)
	}
	return views
}
