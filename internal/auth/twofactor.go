package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base32"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Aazib-Ai/UOLink-App-sub006/internal/database"
	"github.com/Aazib-Ai/UOLink-App-sub006/internal/models"
	"github.com/pquerna/otp"
	"github.com/pquerna/otp/hotp"
	"github.com/pquerna/otp/totp"
	"golang.org/x/crypto/bcrypt"
)

const (
	backupCodeCount  = 10
	backupCodeLength = 8

	// otpIssuer is the account issuer shown in authenticator apps.
	otpIssuer = "UOLink"

	// OTP types: time-based for authenticator apps, counter-based for
	// hardware tokens.
	OTPTypeTOTP = "totp"
	OTPTypeHOTP = "hotp"

	// hotpLookAhead tolerates codes generated but never submitted.
	hotpLookAhead = 10
)

var (
	Err2FAAlreadyEnabled = errors.New("two-factor authentication is already enabled")
	Err2FANotEnabled     = errors.New("two-factor authentication is not enabled")
	Err2FANotInitiated   = errors.New("two-factor setup not initiated")
	ErrInvalid2FACode    = errors.New("invalid verification code")
)

// TwoFactorSetup is returned when 2FA enrollment starts. BackupCodes are
// shown exactly once; only their hashes are stored.
type TwoFactorSetup struct {
	Type        string   `json:"type"`
	Secret      string   `json:"secret"`
	QRCodeURL   string   `json:"qr_code_url"`
	BackupCodes []string `json:"backup_codes"`
	Counter     uint64   `json:"counter,omitempty"`
}

// TwoFactorStatus reports the user's current 2FA state
type TwoFactorStatus struct {
	Enabled              bool   `json:"enabled"`
	Type                 string `json:"type,omitempty"`
	BackupCodesRemaining int    `json:"backup_codes_remaining"`
}

// Get2FAStatus returns the 2FA state for a user
func (s *Service) Get2FAStatus(userID string) (*TwoFactorStatus, error) {
	var user models.User
	if err := database.DB.First(&user, "id = ?", userID).Error; err != nil {
		return nil, ErrUserNotFound
	}

	status := &TwoFactorStatus{Enabled: user.TwoFactorEnabled}
	if user.TwoFactorEnabled {
		status.Type = user.TwoFactorType
		if status.Type == "" {
			status.Type = OTPTypeTOTP
		}
	}
	if user.BackupCodes != nil && *user.BackupCodes != "" {
		var codes []string
		if err := json.Unmarshal([]byte(*user.BackupCodes), &codes); err == nil {
			status.BackupCodesRemaining = len(codes)
		}
	}
	return status, nil
}

// Begin2FA starts 2FA enrollment: generates the secret and backup codes
// and stores them unconfirmed. The user must verify a code through
// Confirm2FA before 2FA takes effect. Password confirmation is required
// for accounts that have one.
func (s *Service) Begin2FA(userID, password, otpType string) (*TwoFactorSetup, error) {
	var user models.User
	if err := database.DB.First(&user, "id = ?", userID).Error; err != nil {
		return nil, ErrUserNotFound
	}

	if user.TwoFactorEnabled {
		return nil, Err2FAAlreadyEnabled
	}

	if user.PasswordHash != nil {
		if bcrypt.CompareHashAndPassword([]byte(*user.PasswordHash), []byte(password)) != nil {
			return nil, ErrInvalidCredentials
		}
	}

	if otpType != OTPTypeHOTP {
		otpType = OTPTypeTOTP
	}

	var key *otp.Key
	var err error
	if otpType == OTPTypeHOTP {
		key, err = hotp.Generate(hotp.GenerateOpts{
			Issuer:      otpIssuer,
			AccountName: user.Email,
			SecretSize:  32,
		})
	} else {
		key, err = totp.Generate(totp.GenerateOpts{
			Issuer:      otpIssuer,
			AccountName: user.Email,
			SecretSize:  32,
		})
	}
	if err != nil {
		return nil, fmt.Errorf("failed to generate 2FA secret: %w", err)
	}

	backupCodes := generateBackupCodes(backupCodeCount)
	hashedJSON, _ := json.Marshal(hashBackupCodes(backupCodes))
	hashedStr := string(hashedJSON)

	secret := key.Secret()
	err = database.DB.Model(&user).Updates(map[string]interface{}{
		"two_factor_type":   otpType,
		"two_factor_secret": secret,
		"hotp_counter":      0,
		"backup_codes":      hashedStr,
	}).Error
	if err != nil {
		return nil, fmt.Errorf("failed to save 2FA setup: %w", err)
	}

	setup := &TwoFactorSetup{
		Type:        otpType,
		Secret:      secret,
		QRCodeURL:   key.URL(),
		BackupCodes: backupCodes,
	}
	return setup, nil
}

// Confirm2FA completes enrollment by verifying a code from the new device
func (s *Service) Confirm2FA(userID, code string) error {
	var user models.User
	if err := database.DB.First(&user, "id = ?", userID).Error; err != nil {
		return ErrUserNotFound
	}

	if user.TwoFactorSecret == nil || *user.TwoFactorSecret == "" {
		return Err2FANotInitiated
	}

	valid, newCounter := s.verifyOTP(&user, code)
	if !valid {
		return ErrInvalid2FACode
	}

	updates := map[string]interface{}{"two_factor_enabled": true}
	if user.TwoFactorType == OTPTypeHOTP {
		updates["hotp_counter"] = newCounter
	}
	if err := database.DB.Model(&user).Updates(updates).Error; err != nil {
		return fmt.Errorf("failed to enable 2FA: %w", err)
	}
	return nil
}

// Verify2FALogin completes the login challenge for a 2FA-enabled user.
// A one-time backup code is accepted and consumed when the OTP fails.
func (s *Service) Verify2FALogin(userID, code string) (*AuthResponse, error) {
	var user models.User
	if err := database.DB.First(&user, "id = ?", userID).Error; err != nil {
		return nil, ErrUserNotFound
	}

	if !user.TwoFactorEnabled || user.TwoFactorSecret == nil {
		return nil, Err2FANotEnabled
	}

	valid, newCounter := s.verifyOTP(&user, code)
	if valid && user.TwoFactorType == OTPTypeHOTP {
		database.DB.Model(&user).Update("hotp_counter", newCounter)
	}
	if !valid && !consumeBackupCode(&user, code) {
		return nil, ErrInvalid2FACode
	}

	return s.GenerateTokenForUser(&user)
}

// Disable2FA turns off 2FA after verifying a password, OTP code, or
// backup code, and clears every stored secret.
func (s *Service) Disable2FA(userID, password, code string) error {
	var user models.User
	if err := database.DB.First(&user, "id = ?", userID).Error; err != nil {
		return ErrUserNotFound
	}

	if !user.TwoFactorEnabled {
		return Err2FANotEnabled
	}

	verified := false
	if code != "" && user.TwoFactorSecret != nil {
		var newCounter uint64
		verified, newCounter = s.verifyOTP(&user, code)
		if verified && user.TwoFactorType == OTPTypeHOTP {
			database.DB.Model(&user).Update("hotp_counter", newCounter)
		}
		if !verified {
			verified = consumeBackupCode(&user, code)
		}
	}
	if !verified && password != "" && user.PasswordHash != nil {
		verified = bcrypt.CompareHashAndPassword([]byte(*user.PasswordHash), []byte(password)) == nil
	}
	if !verified {
		return ErrInvalid2FACode
	}

	return database.DB.Model(&user).Updates(map[string]interface{}{
		"two_factor_enabled": false,
		"two_factor_type":    OTPTypeTOTP,
		"two_factor_secret":  nil,
		"hotp_counter":       0,
		"backup_codes":       nil,
	}).Error
}

// verifyOTP checks a code against the user's secret. For HOTP the new
// counter value is returned and must be persisted on success.
func (s *Service) verifyOTP(user *models.User, code string) (bool, uint64) {
	if user.TwoFactorSecret == nil {
		return false, 0
	}
	if user.TwoFactorType == OTPTypeHOTP {
		return verifyHOTPWithLookAhead(*user.TwoFactorSecret, code, user.HOTPCounter, hotpLookAhead)
	}
	return totp.Validate(code, *user.TwoFactorSecret), 0
}

// verifyHOTPWithLookAhead scans a window of counters to resynchronize
// with tokens whose codes were generated but never submitted. Returns
// the counter to store for the next verification.
func verifyHOTPWithLookAhead(secret, code string, counter uint64, lookAhead int) (bool, uint64) {
	for i := 0; i <= lookAhead; i++ {
		testCounter := counter + uint64(i)
		if hotp.Validate(code, testCounter, secret) {
			return true, testCounter + 1
		}
	}
	return false, counter
}

// consumeBackupCode checks a backup code and removes it when it matches
func consumeBackupCode(user *models.User, code string) bool {
	if user.BackupCodes == nil || *user.BackupCodes == "" {
		return false
	}

	var hashed []string
	if err := json.Unmarshal([]byte(*user.BackupCodes), &hashed); err != nil {
		return false
	}

	provided := hashBackupCode(code)
	for i, stored := range hashed {
		if stored == provided {
			hashed = append(hashed[:i], hashed[i+1:]...)
			updatedJSON, _ := json.Marshal(hashed)
			updatedStr := string(updatedJSON)
			database.DB.Model(user).Update("backup_codes", updatedStr)
			return true
		}
	}
	return false
}

func generateBackupCodes(count int) []string {
	codes := make([]string, count)
	for i := range codes {
		codes[i] = generateRandomCode(backupCodeLength)
	}
	return codes
}

// generateRandomCode returns an XXXX-XXXX base32 code, avoiding easily
// confused characters.
func generateRandomCode(length int) string {
	buf := make([]byte, length)
	rand.Read(buf)
	encoded := strings.ToUpper(base32.StdEncoding.EncodeToString(buf))
	code := encoded[:length]
	if length == 8 {
		return code[:4] + "-" + code[4:]
	}
	return code
}

func hashBackupCodes(codes []string) []string {
	hashed := make([]string, len(codes))
	for i, code := range codes {
		hashed[i] = hashBackupCode(code)
	}
	return hashed
}

func hashBackupCode(code string) string {
	clean := strings.ReplaceAll(strings.ToUpper(code), "-", "")
	sum := sha256.Sum256([]byte(clean))
	return hex.EncodeToString(sum[:])
}

// GenerateTOTPCode generates a current TOTP code for a secret. Tests only.
func GenerateTOTPCode(secret string) (string, error) {
	return totp.GenerateCode(secret, time.Now())
}
