package services

import (
	"errors"
	"testing"

	"github.com/taskhub/backend/internal/config"
	"github.com/taskhub/backend/internal/models"
	"github.com/taskhub/backend/internal/utils"
	"github.com/taskhub/backend/pkg/response"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func init() {
	utils.SetJWTSecret("service-test-secret")
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	if err := models.Migrate(db); err != nil {
		t.Fatalf("failed to migrate test db: %v", err)
	}
	return db
}

// newTestNotifier builds a notifier whose mails go to a sync queue with
// no sender, so nothing leaves the process.
func newTestNotifier() *NotificationService {
	return NewNotificationService(config.DefaultConfig(), NewSyncMailQueue())
}

func seedUser(t *testing.T, db *gorm.DB, name, email string, tier models.SubscriptionTier) *models.User {
	t.Helper()
	user := models.User{FullName: name, Email: email, Password: "hashed", Tier: tier}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("failed to seed user %s: %v", email, err)
	}
	return &user
}

// seedProject creates a project with its OWNER membership row, the
// minimal shape every project carries.
func seedProject(t *testing.T, db *gorm.DB, owner *models.User) (*models.Project, *models.Member) {
	t.Helper()
	project := models.Project{Name: "Apollo", UserID: owner.ID}
	if err := db.Create(&project).Error; err != nil {
		t.Fatalf("failed to seed project: %v", err)
	}
	member := models.Member{
		ProjectID:        project.ID,
		Email:            owner.Email,
		UserID:           &owner.ID,
		Role:             models.RoleOwner,
		InvitationStatus: models.InvitationAccepted,
	}
	if err := db.Create(&member).Error; err != nil {
		t.Fatalf("failed to seed owner membership: %v", err)
	}
	return &project, &member
}

func seedMember(t *testing.T, db *gorm.DB, projectID uint, user *models.User, role models.MemberRole, status models.InvitationStatus) *models.Member {
	t.Helper()
	member := models.Member{
		ProjectID:        projectID,
		Email:            user.Email,
		Role:             role,
		InvitationStatus: status,
	}
	if status == models.InvitationAccepted {
		member.UserID = &user.ID
	}
	if err := db.Create(&member).Error; err != nil {
		t.Fatalf("failed to seed member %s: %v", user.Email, err)
	}
	return &member
}

// httpStatus unwraps the HTTP status carried by a service error, or 0
// for nil and non-application errors.
func httpStatus(err error) int {
	var appErr *response.AppError
	if errors.As(err, &appErr) {
		return appErr.HTTPStatus
	}
	return 0
}
