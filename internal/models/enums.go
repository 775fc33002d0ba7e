package models

// Closed string enums for the domain. Parse* helpers accept only the
// canonical uppercase values; anything else is rejected at the boundary.

type MemberRole string

const (
	RoleOwner  MemberRole = "OWNER"
	RoleAdmin  MemberRole = "ADMIN"
	RoleMember MemberRole = "MEMBER"
)

func ParseMemberRole(s string) (MemberRole, bool) {
	switch MemberRole(s) {
	case RoleOwner, RoleAdmin, RoleMember:
		return MemberRole(s), true
	}
	return "", false
}

type InvitationStatus string

const (
	InvitationPending  InvitationStatus = "PENDING"
	InvitationAccepted InvitationStatus = "ACCEPTED"
	InvitationRejected InvitationStatus = "REJECTED"
)

func ParseInvitationStatus(s string) (InvitationStatus, bool) {
	switch InvitationStatus(s) {
	case InvitationPending, InvitationAccepted, InvitationRejected:
		return InvitationStatus(s), true
	}
	return "", false
}

type TaskStatus string

const (
	TaskTodo        TaskStatus = "TODO"
	TaskInProgress  TaskStatus = "IN_PROGRESS"
	TaskUnderReview TaskStatus = "UNDER_REVIEW"
	TaskCompleted   TaskStatus = "COMPLETED"
)

func ParseTaskStatus(s string) (TaskStatus, bool) {
	switch TaskStatus(s) {
	case TaskTodo, TaskInProgress, TaskUnderReview, TaskCompleted:
		return TaskStatus(s), true
	}
	return "", false
}

type TaskPriority string

const (
	PriorityLow    TaskPriority = "LOW"
	PriorityMedium TaskPriority = "MEDIUM"
	PriorityHigh   TaskPriority = "HIGH"
)

func ParseTaskPriority(s string) (TaskPriority, bool) {
	switch TaskPriority(s) {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return TaskPriority(s), true
	}
	return "", false
}

type DocStatus string

const (
	DocDraft     DocStatus = "DRAFT"
	DocPublished DocStatus = "PUBLISHED"
	DocArchived  DocStatus = "ARCHIVED"
)

func ParseDocStatus(s string) (DocStatus, bool) {
	switch DocStatus(s) {
	case DocDraft, DocPublished, DocArchived:
		return DocStatus(s), true
	}
	return "", false
}

type DocAccessType string

const (
	DocPrivate DocAccessType = "PRIVATE"
	DocPublic  DocAccessType = "PUBLIC"
	DocTeam    DocAccessType = "TEAM"
)

func ParseDocAccessType(s string) (DocAccessType, bool) {
	switch DocAccessType(s) {
	case DocPrivate, DocPublic, DocTeam:
		return DocAccessType(s), true
	}
	return "", false
}

type DocType string

const (
	DocTypeDocument DocType = "DOCUMENT"
	DocTypeWiki     DocType = "WIKI"
	DocTypeNote     DocType = "NOTE"
)

func ParseDocType(s string) (DocType, bool) {
	switch DocType(s) {
	case DocTypeDocument, DocTypeWiki, DocTypeNote:
		return DocType(s), true
	}
	return "", false
}

// CommentType distinguishes user comments from audit entries written by
// task mutations.
type CommentType string

const (
	CommentGeneral              CommentType = "GENERAL"
	CommentStatusUpdated        CommentType = "STATUS_UPDATED"
	CommentCommentUpdated       CommentType = "COMMENT_UPDATED"
	CommentAssignedMember       CommentType = "ASSIGNED_MEMBER"
	CommentRemoveAssignedMember CommentType = "REMOVE_ASSIGNED_MEMBER"
	CommentSubtaskUpdated       CommentType = "SUBTASK_UPDATED"
)

type SubscriptionTier string

const (
	TierFree       SubscriptionTier = "FREE"
	TierPremium    SubscriptionTier = "PREMIUM"
	TierEnterprise SubscriptionTier = "ENTERPRISE"
)

func ParseSubscriptionTier(s string) (SubscriptionTier, bool) {
	switch SubscriptionTier(s) {
	case TierFree, TierPremium, TierEnterprise:
		return SubscriptionTier(s), true
	}
	return "", false
}
