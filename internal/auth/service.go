package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Aazib-Ai/UOLink-App-sub006/internal/database"
	"github.com/Aazib-Ai/UOLink-App-sub006/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/oauth2"
	"gorm.io/gorm"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrUserExists         = errors.New("user already exists")
	ErrUsernameExists     = errors.New("username already taken")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailNotVerified   = errors.New("email not verified")
	ErrNoPasswordSet      = errors.New("account has no password - use Google sign-in")
)

// TokenTTL is how long issued JWTs stay valid.
const TokenTTL = 24 * time.Hour

// Service handles all authentication operations
type Service struct {
	jwtSecret    []byte
	googleConfig *oauth2.Config
}

// NewService creates a new authentication service. googleConfig may be
// nil when Google sign-in is not configured; OAuth endpoints then fail
// with a configuration error instead of at startup.
func NewService(jwtSecret []byte, googleConfig *oauth2.Config) *Service {
	return &Service{
		jwtSecret:    jwtSecret,
		googleConfig: googleConfig,
	}
}

// AuthResponse represents a completed authentication
type AuthResponse struct {
	Token     string      `json:"token"`
	User      models.User `json:"user"`
	ExpiresAt time.Time   `json:"expires_at"`
}

// LoginResult is either a completed authentication or a 2FA challenge.
// When TwoFactorRequired is set, Auth is nil and the client must call
// the 2FA login endpoint with UserID and a code.
type LoginResult struct {
	Auth              *AuthResponse `json:"auth,omitempty"`
	TwoFactorRequired bool          `json:"two_factor_required"`
	UserID            string        `json:"user_id,omitempty"`
}

// RegisterRequest represents a native registration request
type RegisterRequest struct {
	Email       string `json:"email" binding:"required,email"`
	Username    string `json:"username" binding:"required,min=3,max=30"`
	Password    string `json:"password" binding:"required,min=8"`
	DisplayName string `json:"display_name" binding:"required,min=1,max=50"`
	University  string `json:"university" binding:"max=120"`
	Major       string `json:"major" binding:"max=120"`
	Semester    int    `json:"semester" binding:"min=0,max=12"`
}

// LoginRequest represents a native login request
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// RegisterNativeUser creates a new user with email/password. The account
// starts unverified; the caller issues a verification token and emails it.
func (s *Service) RegisterNativeUser(req RegisterRequest) (*AuthResponse, error) {
	var existingUser models.User
	err := database.DB.Where("LOWER(email) = LOWER(?)", req.Email).First(&existingUser).Error
	if err == nil {
		// A Google-only account can claim a password afterwards.
		if existingUser.PasswordHash == nil {
			return s.addPasswordToOAuthUser(&existingUser, req.Password)
		}
		return nil, ErrUserExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("database error: %w", err)
	}

	var usernameCheck models.User
	err = database.DB.Where("LOWER(username) = LOWER(?)", req.Username).First(&usernameCheck).Error
	if err == nil {
		return nil, ErrUsernameExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("database error: %w", err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	hashedPasswordStr := string(hashedPassword)
	user := models.User{
		Email:        strings.TrimSpace(req.Email),
		Username:     strings.TrimSpace(req.Username),
		DisplayName:  strings.TrimSpace(req.DisplayName),
		University:   strings.TrimSpace(req.University),
		Major:        strings.TrimSpace(req.Major),
		Semester:     req.Semester,
		PasswordHash: &hashedPasswordStr,
	}

	if err := database.DB.Create(&user).Error; err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return s.generateAuthResponse(&user)
}

// LoginNativeUser authenticates with email/password. Accounts with 2FA
// enabled get a challenge instead of a token.
func (s *Service) LoginNativeUser(req LoginRequest) (*LoginResult, error) {
	var user models.User
	err := database.DB.Where("LOWER(email) = LOWER(?)", req.Email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidCredentials
	} else if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}

	if user.PasswordHash == nil {
		return nil, ErrNoPasswordSet
	}

	if err := bcrypt.CompareHashAndPassword([]byte(*user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	if user.TwoFactorEnabled {
		return &LoginResult{TwoFactorRequired: true, UserID: user.ID}, nil
	}

	s.touchLastActive(&user)

	auth, err := s.generateAuthResponse(&user)
	if err != nil {
		return nil, err
	}
	return &LoginResult{Auth: auth}, nil
}

// FindUserByEmail finds a user by email (case-insensitive)
func (s *Service) FindUserByEmail(email string) (*models.User, error) {
	var user models.User
	err := database.DB.Where("LOWER(email) = LOWER(?)", email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	} else if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &user, nil
}

// FindUserByUsername finds a user by username (case-insensitive)
func (s *Service) FindUserByUsername(username string) (*models.User, error) {
	var user models.User
	err := database.DB.Where("LOWER(username) = LOWER(?)", username).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	} else if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &user, nil
}

// addPasswordToOAuthUser adds a password to a Google-only account
func (s *Service) addPasswordToOAuthUser(user *models.User, password string) (*AuthResponse, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	hashedPasswordStr := string(hashedPassword)
	user.PasswordHash = &hashedPasswordStr
	if err := database.DB.Save(user).Error; err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	return s.generateAuthResponse(user)
}

// GenerateTokenForUser creates a JWT and auth response for a user.
// Used by the 2FA login flow after successful verification.
func (s *Service) GenerateTokenForUser(user *models.User) (*AuthResponse, error) {
	s.touchLastActive(user)
	return s.generateAuthResponse(user)
}

// generateAuthResponse creates a signed JWT and auth response
func (s *Service) generateAuthResponse(user *models.User) (*AuthResponse, error) {
	expiresAt := time.Now().Add(TokenTTL)

	claims := jwt.MapClaims{
		"user_id":  user.ID,
		"email":    user.Email,
		"username": user.Username,
		"exp":      expiresAt.Unix(),
		"iat":      time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	return &AuthResponse{
		Token:     tokenString,
		User:      *user,
		ExpiresAt: expiresAt,
	}, nil
}

// ValidateToken validates a JWT and returns a fresh user row
func (s *Service) ValidateToken(tokenString string) (*models.User, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}

	if s.isRevoked(tokenString) {
		return nil, ErrTokenRevoked
	}

	userID, ok := claims["user_id"].(string)
	if !ok {
		return nil, errors.New("invalid user_id in token")
	}

	var user models.User
	if err := database.DB.Where("id = ?", userID).First(&user).Error; err != nil {
		return nil, fmt.Errorf("user not found: %w", err)
	}

	return &user, nil
}

// touchLastActive stamps the user's last activity, best effort
func (s *Service) touchLastActive(user *models.User) {
	now := time.Now()
	user.LastActiveAt = &now
	database.DB.Model(user).UpdateColumn("last_active_at", now)
}
