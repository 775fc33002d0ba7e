package services

import (
	"errors"
	"time"

	"github.com/taskhub/backend/internal/models"
	"github.com/taskhub/backend/internal/utils"
	"github.com/taskhub/backend/pkg/response"
	"gorm.io/gorm"
)

const (
	verifyEmailTTL = 10 * time.Minute
	accessTokenTTL = 30 * 24 * time.Hour
	resetTokenTTL  = 48 * time.Hour
)

type AuthService struct {
	db       *gorm.DB
	notifier *NotificationService
}

func NewAuthService(db *gorm.DB, notifier *NotificationService) *AuthService {
	return &AuthService{db: db, notifier: notifier}
}

type RegisterRequest struct {
	FullName string `json:"fullName" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
}

// Register starts the signup flow: no user row yet, just a short-lived
// signed token emailed to the address. The account is created once the
// email is verified and a password chosen.
func (s *AuthService) Register(req *RegisterRequest) error {
	email := normalizeEmail(req.Email)

	var count int64
	s.db.Model(&models.User{}).Where("email = ?", email).Count(&count)
	if count > 0 {
		return response.NewConflict("an account with this email already exists")
	}

	token, err := utils.GenerateToken(0, email, req.FullName, verifyEmailTTL)
	if err != nil {
		return response.NewServerError("failed to issue verification token")
	}

	s.notifier.SendVerifyEmail(email, req.FullName, token)
	return nil
}

type VerifyEmailRequest struct {
	Token           string `json:"token" binding:"required"`
	Password        string `json:"password" binding:"required,min=8"`
	ConfirmPassword string `json:"confirmPassword" binding:"required"`
}

type AuthResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// VerifyEmail finishes signup: validates the emailed token, creates the
// user on the FREE tier, and signs them in.
func (s *AuthService) VerifyEmail(req *VerifyEmailRequest) (*AuthResponse, error) {
	if req.Password != req.ConfirmPassword {
		return nil, response.NewBadRequest("passwords do not match")
	}

	claims, err := utils.ParseToken(req.Token)
	if err != nil {
		return nil, response.NewBadRequest("verification token is invalid or expired")
	}
	email := normalizeEmail(claims.Email)

	var count int64
	s.db.Model(&models.User{}).Where("email = ?", email).Count(&count)
	if count > 0 {
		return nil, response.NewConflict("an account with this email already exists")
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		return nil, response.NewServerError("failed to hash password")
	}

	user := models.User{
		FullName: claims.FullName,
		Email:    email,
		Password: hash,
		Tier:     models.TierFree,
	}
	if err := s.db.Create(&user).Error; err != nil {
		return nil, response.NewConflict("an account with this email already exists")
	}

	token, err := utils.GenerateToken(user.ID, user.Email, user.FullName, accessTokenTTL)
	if err != nil {
		return nil, response.NewServerError("failed to issue access token")
	}
	return &AuthResponse{Token: token, User: &user}, nil
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Login authenticates with email and password.
func (s *AuthService) Login(req *LoginRequest) (*AuthResponse, error) {
	var user models.User
	err := s.db.Where("email = ?", normalizeEmail(req.Email)).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, response.NewUnauthorized("invalid email or password")
	}
	if err != nil {
		return nil, response.NewServerError("failed to load user")
	}

	if !utils.CheckPassword(req.Password, user.Password) {
		return nil, response.NewUnauthorized("invalid email or password")
	}

	token, err := utils.GenerateToken(user.ID, user.Email, user.FullName, accessTokenTTL)
	if err != nil {
		return nil, response.NewServerError("failed to issue access token")
	}
	return &AuthResponse{Token: token, User: &user}, nil
}

type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// ForgotPassword emails a reset link to a known account.
func (s *AuthService) ForgotPassword(req *ForgotPasswordRequest) error {
	var user models.User
	err := s.db.Where("email = ?", normalizeEmail(req.Email)).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return response.NewNotFound("no account with this email")
	}
	if err != nil {
		return response.NewServerError("failed to load user")
	}

	token, err := utils.GenerateToken(user.ID, user.Email, user.FullName, resetTokenTTL)
	if err != nil {
		return response.NewServerError("failed to issue reset token")
	}

	s.notifier.SendPasswordReset(user.Email, user.FullName, token)
	return nil
}

type ResetPasswordRequest struct {
	Token           string `json:"token" binding:"required"`
	Password        string `json:"password" binding:"required,min=8"`
	ConfirmPassword string `json:"confirmPassword" binding:"required"`
}

// ResetPassword sets a new password from a reset token.
func (s *AuthService) ResetPassword(req *ResetPasswordRequest) error {
	if req.Password != req.ConfirmPassword {
		return response.NewBadRequest("passwords do not match")
	}

	claims, err := utils.ParseToken(req.Token)
	if err != nil {
		return response.NewBadRequest("reset token is invalid or expired")
	}

	var user models.User
	if err := s.db.First(&user, claims.UserID).Error; err != nil {
		return response.NewNotFound("account not found")
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		return response.NewServerError("failed to hash password")
	}

	if err := s.db.Model(&models.User{}).Where("id = ?", user.ID).
		Update("password", hash).Error; err != nil {
		return response.NewServerError("failed to update password")
	}
	return nil
}

// Me returns the signed-in user.
func (s *AuthService) Me(userID uint) (*models.User, error) {
	var user models.User
	err := s.db.First(&user, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, response.NewNotFound("account not found")
	}
	if err != nil {
		return nil, response.NewServerError("failed to load user")
	}
	return &user, nil
}

type UpdateFullNameRequest struct {
	FullName string `json:"fullName" binding:"required"`
}

// UpdateFullName renames the signed-in user.
func (s *AuthService) UpdateFullName(userID uint, req *UpdateFullNameRequest) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		return nil, response.NewNotFound("account not found")
	}

	user.FullName = req.FullName
	if err := s.db.Save(&user).Error; err != nil {
		return nil, response.NewServerError("failed to update name")
	}
	return &user, nil
}
