package auth

import (
	"context"

	"github.com/Aazib-Ai/UOLink-App-sub006/internal/models"
)

// ServiceInterface defines the contract for authentication operations.
// This enables mocking for unit tests without requiring a real database.
type ServiceInterface interface {
	// Registration and login
	RegisterNativeUser(req RegisterRequest) (*AuthResponse, error)
	LoginNativeUser(req LoginRequest) (*LoginResult, error)
	GenerateTokenForUser(user *models.User) (*AuthResponse, error)

	// User lookup
	FindUserByEmail(email string) (*models.User, error)
	FindUserByUsername(username string) (*models.User, error)

	// Token operations
	ValidateToken(tokenString string) (*models.User, error)
	RevokeToken(tokenString string) error

	// Google sign-in
	GetGoogleOAuthURL(state string) (string, error)
	HandleGoogleCallback(ctx context.Context, code string) (*AuthResponse, error)

	// Password reset and email verification
	RequestPasswordReset(email string) (string, error)
	ResetPassword(token, newPassword string) error
	IssueEmailVerification(userID string) (string, error)
	VerifyEmail(token string) (*models.User, error)

	// Two-factor auth
	Get2FAStatus(userID string) (*TwoFactorStatus, error)
	Begin2FA(userID, password, otpType string) (*TwoFactorSetup, error)
	Confirm2FA(userID, code string) error
	Verify2FALogin(userID, code string) (*AuthResponse, error)
	Disable2FA(userID, password, code string) error
}

// Ensure Service implements ServiceInterface
var _ ServiceInterface = (*Service)(nil)
