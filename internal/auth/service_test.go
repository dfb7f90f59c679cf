package auth

import (
	"testing"

	"github.com/Aazib-Ai/UOLink-App-sub006/internal/cache"
	"github.com/Aazib-Ai/UOLink-App-sub006/internal/database"
	"github.com/Aazib-Ai/UOLink-App-sub006/internal/logger"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// AuthServiceTestSuite exercises the auth service against an in-memory
// sqlite database. Tables are created by hand because the models carry
// postgres column types that AutoMigrate cannot express on sqlite.
type AuthServiceTestSuite struct {
	suite.Suite
	service *Service
}

func (s *AuthServiceTestSuite) SetupSuite() {
	logger.Initialize("error", "/tmp/uolink-auth-test.log")

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	s.Require().NoError(err)

	ddl := []string{
		`CREATE TABLE users (
			id TEXT PRIMARY KEY,
			email TEXT UNIQUE NOT NULL,
			username TEXT UNIQUE NOT NULL,
			display_name TEXT NOT NULL DEFAULT '',
			bio TEXT DEFAULT '',
			university TEXT DEFAULT '',
			major TEXT DEFAULT '',
			semester INTEGER DEFAULT 1,
			graduation_year INTEGER DEFAULT 0,
			interests TEXT,
			password_hash TEXT,
			email_verified BOOLEAN DEFAULT 0,
			google_id TEXT,
			two_factor_enabled BOOLEAN DEFAULT 0,
			two_factor_type TEXT DEFAULT '',
			two_factor_secret TEXT,
			hotp_counter INTEGER DEFAULT 0,
			backup_codes TEXT,
			avatar_url TEXT DEFAULT '',
			social_links TEXT,
			aura_points INTEGER DEFAULT 0,
			note_count INTEGER DEFAULT 0,
			is_moderator BOOLEAN DEFAULT 0,
			is_admin BOOLEAN DEFAULT 0,
			last_active_at DATETIME,
			created_at DATETIME,
			updated_at DATETIME,
			deleted_at DATETIME
		)`,
		`CREATE TABLE password_resets (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			token TEXT UNIQUE NOT NULL,
			expires_at DATETIME NOT NULL,
			used BOOLEAN DEFAULT 0,
			created_at DATETIME,
			updated_at DATETIME
		)`,
		`CREATE TABLE email_verifications (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			token TEXT UNIQUE NOT NULL,
			expires_at DATETIME NOT NULL,
			used BOOLEAN DEFAULT 0,
			created_at DATETIME,
			updated_at DATETIME
		)`,
	}
	for _, stmt := range ddl {
		s.Require().NoError(db.Exec(stmt).Error)
	}

	database.DB = db
	s.service = NewService([]byte("test-secret-key-for-auth-suite"), nil)
}

func (s *AuthServiceTestSuite) SetupTest() {
	database.DB.Exec("DELETE FROM users")
	database.DB.Exec("DELETE FROM password_resets")
	database.DB.Exec("DELETE FROM email_verifications")
}

func (s *AuthServiceTestSuite) register(email, username string) *AuthResponse {
	resp, err := s.service.RegisterNativeUser(RegisterRequest{
		Email:       email,
		Username:    username,
		Password:    "correct-horse-battery",
		DisplayName: "Test Student",
		University:  "Test University",
		Semester:    3,
	})
	s.Require().NoError(err)
	return resp
}

func (s *AuthServiceTestSuite) TestRegisterAndLogin() {
	resp := s.register("student@uni.edu", "student1")
	s.NotEmpty(resp.Token)
	s.Equal("student@uni.edu", resp.User.Email)
	s.False(resp.User.EmailVerified)

	// Email lookup is case-insensitive
	result, err := s.service.LoginNativeUser(LoginRequest{
		Email:    "Student@Uni.EDU",
		Password: "correct-horse-battery",
	})
	s.Require().NoError(err)
	s.False(result.TwoFactorRequired)
	s.NotEmpty(result.Auth.Token)
}

func (s *AuthServiceTestSuite) TestRegisterDuplicateEmail() {
	s.register("student@uni.edu", "student1")

	_, err := s.service.RegisterNativeUser(RegisterRequest{
		Email:       "student@uni.edu",
		Username:    "other",
		Password:    "another-password",
		DisplayName: "Other",
	})
	s.ErrorIs(err, ErrUserExists)
}

func (s *AuthServiceTestSuite) TestRegisterDuplicateUsername() {
	s.register("student@uni.edu", "student1")

	_, err := s.service.RegisterNativeUser(RegisterRequest{
		Email:       "other@uni.edu",
		Username:    "Student1",
		Password:    "another-password",
		DisplayName: "Other",
	})
	s.ErrorIs(err, ErrUsernameExists)
}

func (s *AuthServiceTestSuite) TestLoginWrongPassword() {
	s.register("student@uni.edu", "student1")

	_, err := s.service.LoginNativeUser(LoginRequest{
		Email:    "student@uni.edu",
		Password: "wrong-password",
	})
	s.ErrorIs(err, ErrInvalidCredentials)
}

func (s *AuthServiceTestSuite) TestLoginUnknownEmail() {
	// Unknown accounts and wrong passwords are indistinguishable
	_, err := s.service.LoginNativeUser(LoginRequest{
		Email:    "nobody@uni.edu",
		Password: "whatever-password",
	})
	s.ErrorIs(err, ErrInvalidCredentials)
}

func (s *AuthServiceTestSuite) TestTokenRoundTrip() {
	resp := s.register("student@uni.edu", "student1")

	user, err := s.service.ValidateToken(resp.Token)
	s.Require().NoError(err)
	s.Equal(resp.User.ID, user.ID)
	s.Equal("student1", user.Username)
}

func (s *AuthServiceTestSuite) TestValidateTokenRejectsGarbage() {
	_, err := s.service.ValidateToken("not.a.token")
	s.Error(err)
}

func (s *AuthServiceTestSuite) TestValidateTokenRejectsWrongSecret() {
	other := NewService([]byte("a-different-secret"), nil)
	resp := s.register("student@uni.edu", "student1")

	_, err := other.ValidateToken(resp.Token)
	s.Error(err)
}

func (s *AuthServiceTestSuite) TestLogoutRevokesToken() {
	cache.NewStore(nil)
	resp := s.register("student@uni.edu", "student1")

	_, err := s.service.ValidateToken(resp.Token)
	s.Require().NoError(err)

	s.Require().NoError(s.service.RevokeToken(resp.Token))

	_, err = s.service.ValidateToken(resp.Token)
	s.ErrorIs(err, ErrTokenRevoked)
}

func (s *AuthServiceTestSuite) TestRevokeIgnoresGarbageToken() {
	cache.NewStore(nil)
	s.NoError(s.service.RevokeToken("not.a.token"))
}

func (s *AuthServiceTestSuite) TestPasswordResetFlow() {
	s.register("student@uni.edu", "student1")

	raw, err := s.service.RequestPasswordReset("student@uni.edu")
	s.Require().NoError(err)
	s.NotEmpty(raw)

	// Only the digest is stored
	var stored string
	database.DB.Raw("SELECT token FROM password_resets LIMIT 1").Scan(&stored)
	s.NotEqual(raw, stored)

	s.Require().NoError(s.service.ResetPassword(raw, "brand-new-password"))

	_, err = s.service.LoginNativeUser(LoginRequest{
		Email:    "student@uni.edu",
		Password: "correct-horse-battery",
	})
	s.ErrorIs(err, ErrInvalidCredentials)

	result, err := s.service.LoginNativeUser(LoginRequest{
		Email:    "student@uni.edu",
		Password: "brand-new-password",
	})
	s.Require().NoError(err)
	s.NotNil(result.Auth)

	// Token is single use
	s.ErrorIs(s.service.ResetPassword(raw, "yet-another-password"), ErrInvalidResetToken)
}

func (s *AuthServiceTestSuite) TestPasswordResetUnknownEmailIsSilent() {
	raw, err := s.service.RequestPasswordReset("ghost@uni.edu")
	s.NoError(err)
	s.Empty(raw)
}

func (s *AuthServiceTestSuite) TestEmailVerificationFlow() {
	resp := s.register("student@uni.edu", "student1")

	raw, err := s.service.IssueEmailVerification(resp.User.ID)
	s.Require().NoError(err)

	user, err := s.service.VerifyEmail(raw)
	s.Require().NoError(err)
	s.True(user.EmailVerified)

	// Token is single use
	_, err = s.service.VerifyEmail(raw)
	s.ErrorIs(err, ErrInvalidVerifyToken)
}

func (s *AuthServiceTestSuite) TestReissueRetiresOldVerificationToken() {
	resp := s.register("student@uni.edu", "student1")

	first, err := s.service.IssueEmailVerification(resp.User.ID)
	s.Require().NoError(err)
	second, err := s.service.IssueEmailVerification(resp.User.ID)
	s.Require().NoError(err)

	_, err = s.service.VerifyEmail(first)
	s.ErrorIs(err, ErrInvalidVerifyToken)

	_, err = s.service.VerifyEmail(second)
	s.NoError(err)
}

func (s *AuthServiceTestSuite) TestTwoFactorLoginFlow() {
	resp := s.register("student@uni.edu", "student1")

	setup, err := s.service.Begin2FA(resp.User.ID, "correct-horse-battery", OTPTypeTOTP)
	s.Require().NoError(err)
	s.Len(setup.BackupCodes, backupCodeCount)

	// Not enabled until a code is confirmed
	result, err := s.service.LoginNativeUser(LoginRequest{
		Email:    "student@uni.edu",
		Password: "correct-horse-battery",
	})
	s.Require().NoError(err)
	s.False(result.TwoFactorRequired)

	code, err := GenerateTOTPCode(setup.Secret)
	s.Require().NoError(err)
	s.Require().NoError(s.service.Confirm2FA(resp.User.ID, code))

	result, err = s.service.LoginNativeUser(LoginRequest{
		Email:    "student@uni.edu",
		Password: "correct-horse-battery",
	})
	s.Require().NoError(err)
	s.True(result.TwoFactorRequired)
	s.Nil(result.Auth)

	code, err = GenerateTOTPCode(setup.Secret)
	s.Require().NoError(err)
	auth, err := s.service.Verify2FALogin(result.UserID, code)
	s.Require().NoError(err)
	s.NotEmpty(auth.Token)
}

func (s *AuthServiceTestSuite) TestBackupCodeIsConsumed() {
	resp := s.register("student@uni.edu", "student1")

	setup, err := s.service.Begin2FA(resp.User.ID, "correct-horse-battery", OTPTypeTOTP)
	s.Require().NoError(err)
	code, err := GenerateTOTPCode(setup.Secret)
	s.Require().NoError(err)
	s.Require().NoError(s.service.Confirm2FA(resp.User.ID, code))

	backup := setup.BackupCodes[0]
	auth, err := s.service.Verify2FALogin(resp.User.ID, backup)
	s.Require().NoError(err)
	s.NotEmpty(auth.Token)

	// The same backup code cannot be replayed
	_, err = s.service.Verify2FALogin(resp.User.ID, backup)
	s.ErrorIs(err, ErrInvalid2FACode)

	status, err := s.service.Get2FAStatus(resp.User.ID)
	s.Require().NoError(err)
	s.Equal(backupCodeCount-1, status.BackupCodesRemaining)
}

func (s *AuthServiceTestSuite) TestDisable2FA() {
	resp := s.register("student@uni.edu", "student1")

	setup, err := s.service.Begin2FA(resp.User.ID, "correct-horse-battery", OTPTypeTOTP)
	s.Require().NoError(err)
	code, err := GenerateTOTPCode(setup.Secret)
	s.Require().NoError(err)
	s.Require().NoError(s.service.Confirm2FA(resp.User.ID, code))

	s.Require().NoError(s.service.Disable2FA(resp.User.ID, "correct-horse-battery", ""))

	status, err := s.service.Get2FAStatus(resp.User.ID)
	s.Require().NoError(err)
	s.False(status.Enabled)
}

func TestAuthServiceSuite(t *testing.T) {
	suite.Run(t, new(AuthServiceTestSuite))
}
