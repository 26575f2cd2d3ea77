package services

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"marketplace-service/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type UserService struct {
	DB       *gorm.DB
	Referral *ReferralService
}

func NewUserService(db *gorm.DB, referral *ReferralService) *UserService {
	return &UserService{DB: db, Referral: referral}
}

type RegisterDTO struct {
	Name         string `json:"name" binding:"required"`
	Username     string `json:"username" binding:"required"`
	Email        string `json:"email" binding:"required,email"`
	Password     string `json:"password" binding:"required,min=8"`
	ReferralCode string `json:"referral_code"`
}

// Register creates an account and, when a usable referral code accompanies
// it, attaches the account to the referrer's chain. A missing or unusable
// code never blocks registration; the account simply starts without a
// referrer, and the attachment cannot be added later.
func (s *UserService) Register(data RegisterDTO) (*models.User, error) {
	username := strings.TrimSpace(strings.ToLower(data.Username))
	email := strings.TrimSpace(strings.ToLower(data.Email))

	var count int64
	s.DB.Model(&models.User{}).Where("username = ? OR email = ?", username, email).Count(&count)
	if count > 0 {
		return nil, fmt.Errorf("username or email already taken")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(data.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := models.User{
		Name:         strings.TrimSpace(data.Name),
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		Role:         "user",
	}
	if err := s.DB.Create(&user).Error; err != nil {
		return nil, err
	}

	if code := strings.TrimSpace(data.ReferralCode); code != "" {
		linked, err := s.Referral.LinkNewAccount(user.ID, code)
		if err != nil {
			log.Printf("Referral link failed for user %d with code %s: %v", user.ID, code, err)
		} else if !linked {
			log.Printf("Referral code %s not usable for user %d, registered without referrer", code, user.ID)
		}
	}

	// Re-read so the response reflects any referral linkage.
	s.DB.First(&user, user.ID)
	return &user, nil
}

// Authenticate checks credentials and returns the account on success.
func (s *UserService) Authenticate(username, password string) (*models.User, error) {
	var user models.User
	err := s.DB.Where("username = ? OR email = ?",
		strings.ToLower(username), strings.ToLower(username)).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("invalid credentials")
	}
	if err != nil {
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, fmt.Errorf("invalid credentials")
	}
	return &user, nil
}

// GetProfile returns one account by id.
func (s *UserService) GetProfile(userId int) (*models.User, error) {
	var user models.User
	if err := s.DB.First(&user, userId).Error; err != nil {
		return nil, err
	}
	return &user, nil
}
