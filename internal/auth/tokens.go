package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/Aazib-Ai/UOLink-App-sub006/internal/database"
	"github.com/Aazib-Ai/UOLink-App-sub006/internal/models"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	// PasswordResetTTL is how long a reset link stays usable.
	PasswordResetTTL = 1 * time.Hour

	// EmailVerificationTTL is how long a verification link stays usable.
	EmailVerificationTTL = 48 * time.Hour
)

var ErrInvalidResetToken = errors.New("invalid or expired reset token")
var ErrInvalidVerifyToken = errors.New("invalid or expired verification token")

// newRawToken returns a random token and the SHA-256 digest stored in
// the database. Only the digest is persisted, so a leaked table never
// reveals usable tokens.
func newRawToken() (raw string, digest string, err error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", "", fmt.Errorf("failed to generate token: %w", err)
	}
	raw = hex.EncodeToString(buf)
	sum := sha256.Sum256([]byte(raw))
	return raw, hex.EncodeToString(sum[:]), nil
}

func hashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// RequestPasswordReset creates a reset token for the account, returning
// the raw token to email. Returns ("", nil) when no matching resettable
// account exists, so callers never reveal whether an email is registered.
func (s *Service) RequestPasswordReset(email string) (string, error) {
	var user models.User
	err := database.DB.Where("LOWER(email) = LOWER(?)", email).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("database error: %w", err)
	}

	// Google-only accounts have no password to reset.
	if user.PasswordHash == nil {
		return "", nil
	}

	raw, digest, err := newRawToken()
	if err != nil {
		return "", err
	}

	reset := models.PasswordReset{
		UserID:    user.ID,
		Token:     digest,
		ExpiresAt: time.Now().Add(PasswordResetTTL),
	}
	if err := database.DB.Create(&reset).Error; err != nil {
		return "", fmt.Errorf("failed to create reset token: %w", err)
	}

	return raw, nil
}

// ResetPassword consumes a reset token and updates the password
func (s *Service) ResetPassword(rawToken, newPassword string) error {
	var reset models.PasswordReset
	err := database.DB.
		Where("token = ? AND used = false AND expires_at > ?", hashToken(rawToken), time.Now()).
		First(&reset).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrInvalidResetToken
		}
		return fmt.Errorf("database error: %w", err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	hashedPasswordStr := string(hashedPassword)

	return database.DB.Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&models.User{}).
			Where("id = ?", reset.UserID).
			Update("password_hash", hashedPasswordStr).Error
		if err != nil {
			return fmt.Errorf("failed to update password: %w", err)
		}
		return tx.Model(&reset).Update("used", true).Error
	})
}

// IssueEmailVerification creates a verification token for the user,
// returning the raw token to email. Existing unused tokens are retired
// so only the newest link works.
func (s *Service) IssueEmailVerification(userID string) (string, error) {
	raw, digest, err := newRawToken()
	if err != nil {
		return "", err
	}

	err = database.DB.Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&models.EmailVerification{}).
			Where("user_id = ? AND used = false", userID).
			Update("used", true).Error
		if err != nil {
			return fmt.Errorf("failed to retire old tokens: %w", err)
		}

		verification := models.EmailVerification{
			UserID:    userID,
			Token:     digest,
			ExpiresAt: time.Now().Add(EmailVerificationTTL),
		}
		return tx.Create(&verification).Error
	})
	if err != nil {
		return "", err
	}

	return raw, nil
}

// VerifyEmail consumes a verification token and marks the account verified
func (s *Service) VerifyEmail(rawToken string) (*models.User, error) {
	var verification models.EmailVerification
	err := database.DB.
		Where("token = ? AND used = false AND expires_at > ?", hashToken(rawToken), time.Now()).
		First(&verification).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidVerifyToken
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	var user models.User
	err = database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&user, "id = ?", verification.UserID).Error; err != nil {
			return fmt.Errorf("user not found: %w", err)
		}
		if err := tx.Model(&user).Update("email_verified", true).Error; err != nil {
			return fmt.Errorf("failed to mark email verified: %w", err)
		}
		user.EmailVerified = true
		return tx.Model(&verification).Update("used", true).Error
	})
	if err != nil {
		return nil, err
	}

	return &user, nil
}
