package auth

import (
	"context"
	"sync"
	"time"

	"github.com/Aazib-Ai/UOLink-App-sub006/internal/models"
	"github.com/google/uuid"
)

// MockCall records a method call for assertion
type MockCall struct {
	Method string
	Args   []interface{}
}

// MockAuthService is a mock implementation of ServiceInterface for testing.
type MockAuthService struct {
	mu sync.Mutex

	// Call tracking
	Calls []MockCall

	// Configurable function overrides
	RegisterNativeUserFunc   func(req RegisterRequest) (*AuthResponse, error)
	LoginNativeUserFunc      func(req LoginRequest) (*LoginResult, error)
	ValidateTokenFunc        func(tokenString string) (*models.User, error)
	RequestPasswordResetFunc func(email string) (string, error)
	ResetPasswordFunc        func(token, newPassword string) error

	// Default error to return
	DefaultError error

	// Pre-configured users for testing, keyed by email
	Users map[string]*models.User

	// Tokens revoked through RevokeToken
	Revoked map[string]bool
}

// NewMockAuthService creates a new mock auth service with sensible defaults
func NewMockAuthService() *MockAuthService {
	return &MockAuthService{
		Calls: make([]MockCall, 0),
		Users: make(map[string]*models.User),
	}
}

func (m *MockAuthService) recordCall(method string, args ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, MockCall{Method: method, Args: args})
}

// GetCallsForMethod returns calls for a specific method
func (m *MockAuthService) GetCallsForMethod(method string) []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []MockCall
	for _, call := range m.Calls {
		if call.Method == method {
			result = append(result, call)
		}
	}
	return result
}

// Reset clears all recorded calls
func (m *MockAuthService) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = m.Calls[:0]
}

// AddUser registers a canned user, returning it for further setup
func (m *MockAuthService) AddUser(email, username string) *models.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	user := &models.User{
		ID:       uuid.New().String(),
		Email:    email,
		Username: username,
	}
	m.Users[email] = user
	return user
}

func (m *MockAuthService) mockAuth(user *models.User) *AuthResponse {
	return &AuthResponse{
		Token:     "mock-token-" + user.ID,
		User:      *user,
		ExpiresAt: time.Now().Add(TokenTTL),
	}
}

// RegisterNativeUser implements ServiceInterface
func (m *MockAuthService) RegisterNativeUser(req RegisterRequest) (*AuthResponse, error) {
	m.recordCall("RegisterNativeUser", req)
	if m.RegisterNativeUserFunc != nil {
		return m.RegisterNativeUserFunc(req)
	}
	if m.DefaultError != nil {
		return nil, m.DefaultError
	}
	if _, exists := m.Users[req.Email]; exists {
		return nil, ErrUserExists
	}
	user := m.AddUser(req.Email, req.Username)
	user.DisplayName = req.DisplayName
	return m.mockAuth(user), nil
}

// LoginNativeUser implements ServiceInterface
func (m *MockAuthService) LoginNativeUser(req LoginRequest) (*LoginResult, error) {
	m.recordCall("LoginNativeUser", req)
	if m.LoginNativeUserFunc != nil {
		return m.LoginNativeUserFunc(req)
	}
	if m.DefaultError != nil {
		return nil, m.DefaultError
	}
	user, exists := m.Users[req.Email]
	if !exists {
		return nil, ErrInvalidCredentials
	}
	if user.TwoFactorEnabled {
		return &LoginResult{TwoFactorRequired: true, UserID: user.ID}, nil
	}
	return &LoginResult{Auth: m.mockAuth(user)}, nil
}

// GenerateTokenForUser implements ServiceInterface
func (m *MockAuthService) GenerateTokenForUser(user *models.User) (*AuthResponse, error) {
	m.recordCall("GenerateTokenForUser", user.ID)
	return m.mockAuth(user), nil
}

// FindUserByEmail implements ServiceInterface
func (m *MockAuthService) FindUserByEmail(email string) (*models.User, error) {
	m.recordCall("FindUserByEmail", email)
	if user, exists := m.Users[email]; exists {
		return user, nil
	}
	return nil, ErrUserNotFound
}

// FindUserByUsername implements ServiceInterface
func (m *MockAuthService) FindUserByUsername(username string) (*models.User, error) {
	m.recordCall("FindUserByUsername", username)
	for _, user := range m.Users {
		if user.Username == username {
			return user, nil
		}
	}
	return nil, ErrUserNotFound
}

// ValidateToken implements ServiceInterface. Tokens issued by the mock
// look like "mock-token-{userID}".
func (m *MockAuthService) ValidateToken(tokenString string) (*models.User, error) {
	m.recordCall("ValidateToken", tokenString)
	if m.ValidateTokenFunc != nil {
		return m.ValidateTokenFunc(tokenString)
	}
	if m.Revoked[tokenString] {
		return nil, ErrTokenRevoked
	}
	for _, user := range m.Users {
		if tokenString == "mock-token-"+user.ID {
			return user, nil
		}
	}
	return nil, ErrInvalidCredentials
}

// RevokeToken implements ServiceInterface. Revoked tokens stop
// validating.
func (m *MockAuthService) RevokeToken(tokenString string) error {
	m.recordCall("RevokeToken", tokenString)
	if m.Revoked == nil {
		m.Revoked = map[string]bool{}
	}
	m.Revoked[tokenString] = true
	return nil
}

// GetGoogleOAuthURL implements ServiceInterface
func (m *MockAuthService) GetGoogleOAuthURL(state string) (string, error) {
	m.recordCall("GetGoogleOAuthURL", state)
	return "https://accounts.google.com/o/oauth2/auth?state=" + state, nil
}

// HandleGoogleCallback implements ServiceInterface
func (m *MockAuthService) HandleGoogleCallback(ctx context.Context, code string) (*AuthResponse, error) {
	m.recordCall("HandleGoogleCallback", code)
	if m.DefaultError != nil {
		return nil, m.DefaultError
	}
	user := m.AddUser("oauth-"+code+"@example.edu", "oauthuser")
	return m.mockAuth(user), nil
}

// RequestPasswordReset implements ServiceInterface
func (m *MockAuthService) RequestPasswordReset(email string) (string, error) {
	m.recordCall("RequestPasswordReset", email)
	if m.RequestPasswordResetFunc != nil {
		return m.RequestPasswordResetFunc(email)
	}
	if _, exists := m.Users[email]; !exists {
		return "", nil
	}
	return "mock-reset-token", nil
}

// ResetPassword implements ServiceInterface
func (m *MockAuthService) ResetPassword(token, newPassword string) error {
	m.recordCall("ResetPassword", token)
	if m.ResetPasswordFunc != nil {
		return m.ResetPasswordFunc(token, newPassword)
	}
	if token != "mock-reset-token" {
		return ErrInvalidResetToken
	}
	return nil
}

// IssueEmailVerification implements ServiceInterface
func (m *MockAuthService) IssueEmailVerification(userID string) (string, error) {
	m.recordCall("IssueEmailVerification", userID)
	return "mock-verify-token", nil
}

// VerifyEmail implements ServiceInterface
func (m *MockAuthService) VerifyEmail(token string) (*models.User, error) {
	m.recordCall("VerifyEmail", token)
	if token != "mock-verify-token" {
		return nil, ErrInvalidVerifyToken
	}
	for _, user := range m.Users {
		user.EmailVerified = true
		return user, nil
	}
	return nil, ErrUserNotFound
}

// Get2FAStatus implements ServiceInterface
func (m *MockAuthService) Get2FAStatus(userID string) (*TwoFactorStatus, error) {
	m.recordCall("Get2FAStatus", userID)
	return &TwoFactorStatus{}, nil
}

// Begin2FA implements ServiceInterface
func (m *MockAuthService) Begin2FA(userID, password, otpType string) (*TwoFactorSetup, error) {
	m.recordCall("Begin2FA", userID, otpType)
	return &TwoFactorSetup{Type: OTPTypeTOTP, Secret: "MOCKSECRET"}, nil
}

// Confirm2FA implements ServiceInterface
func (m *MockAuthService) Confirm2FA(userID, code string) error {
	m.recordCall("Confirm2FA", userID)
	return nil
}

// Verify2FALogin implements ServiceInterface
func (m *MockAuthService) Verify2FALogin(userID, code string) (*AuthResponse, error) {
	m.recordCall("Verify2FALogin", userID)
	for _, user := range m.Users {
		if user.ID == userID {
			return m.mockAuth(user), nil
		}
	}
	return nil, ErrUserNotFound
}

// Disable2FA implements ServiceInterface
func (m *MockAuthService) Disable2FA(userID, password, code string) error {
	m.recordCall("Disable2FA", userID)
	return nil
}

// Ensure MockAuthService implements ServiceInterface
var _ ServiceInterface = (*MockAuthService)(nil)
