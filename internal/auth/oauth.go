package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/Aazib-Ai/UOLink-App-sub006/internal/database"
	"github.com/Aazib-Ai/UOLink-App-sub006/internal/logger"
	"github.com/Aazib-Ai/UOLink-App-sub006/internal/models"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"gorm.io/gorm"
)

var ErrOAuthNotConfigured = errors.New("google sign-in is not configured")

// GoogleUserInfo represents the Google OAuth userinfo response
type GoogleUserInfo struct {
	Sub           string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

// GetGoogleOAuthURL returns the Google authorization URL for state
func (s *Service) GetGoogleOAuthURL(state string) (string, error) {
	if s.googleConfig == nil {
		return "", ErrOAuthNotConfigured
	}
	return s.googleConfig.AuthCodeURL(state, oauth2.AccessTypeOffline), nil
}

// HandleGoogleCallback exchanges the authorization code and signs the
// user in, creating or linking an account by email as needed.
func (s *Service) HandleGoogleCallback(ctx context.Context, code string) (*AuthResponse, error) {
	if s.googleConfig == nil {
		return nil, ErrOAuthNotConfigured
	}

	userInfo, err := s.getGoogleUserInfo(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to get Google user info: %w", err)
	}

	return s.findOrCreateGoogleUser(userInfo)
}

// findOrCreateGoogleUser implements email-based account unification:
// an existing Google link wins, then an existing account with the same
// email is linked, then a fresh account is created. Google emails are
// pre-verified, so linked and created accounts skip email verification.
func (s *Service) findOrCreateGoogleUser(info *GoogleUserInfo) (*AuthResponse, error) {
	var user models.User
	err := database.DB.Where("google_id = ?", info.Sub).First(&user).Error
	if err == nil {
		if user.AvatarURL == "" && info.Picture != "" {
			database.DB.Model(&user).Update("avatar_url", info.Picture)
			user.AvatarURL = info.Picture
		}
		s.touchLastActive(&user)
		return s.generateAuthResponse(&user)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("database error checking Google link: %w", err)
	}

	existing, err := s.FindUserByEmail(info.Email)
	if err == nil {
		updates := map[string]interface{}{
			"google_id":      info.Sub,
			"email_verified": true,
		}
		if existing.AvatarURL == "" && info.Picture != "" {
			updates["avatar_url"] = info.Picture
			existing.AvatarURL = info.Picture
		}
		if err := database.DB.Model(existing).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("failed to link Google account: %w", err)
		}
		existing.GoogleID = &info.Sub
		existing.EmailVerified = true

		logger.Log.Info("Linked Google account to existing user",
			zap.String("user_id", existing.ID),
		)
		return s.generateAuthResponse(existing)
	} else if !errors.Is(err, ErrUserNotFound) {
		return nil, fmt.Errorf("database error finding user: %w", err)
	}

	username, err := s.ensureUniqueUsername(usernameFromName(info.Name))
	if err != nil {
		return nil, fmt.Errorf("failed to generate unique username: %w", err)
	}

	googleID := info.Sub
	user = models.User{
		Email:         info.Email,
		Username:      username,
		DisplayName:   info.Name,
		AvatarURL:     info.Picture,
		EmailVerified: true,
		GoogleID:      &googleID,
	}
	if err := database.DB.Create(&user).Error; err != nil {
		return nil, fmt.Errorf("failed to create user from Google sign-in: %w", err)
	}

	logger.Log.Info("Created account from Google sign-in",
		zap.String("user_id", user.ID),
		zap.String("username", user.Username),
	)
	return s.generateAuthResponse(&user)
}

// getGoogleUserInfo exchanges the code and fetches the userinfo document
func (s *Service) getGoogleUserInfo(ctx context.Context, code string) (*GoogleUserInfo, error) {
	token, err := s.googleConfig.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange code: %w", err)
	}

	client := s.googleConfig.Client(ctx, token)
	resp, err := client.Get("https://www.googleapis.com/oauth2/v3/userinfo")
	if err != nil {
		return nil, fmt.Errorf("failed to get user info: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var info GoogleUserInfo
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, fmt.Errorf("failed to parse user info: %w", err)
	}
	if info.Email == "" {
		return nil, errors.New("google userinfo response missing email")
	}

	return &info, nil
}

// ensureUniqueUsername appends a counter until the username is free
func (s *Service) ensureUniqueUsername(base string) (string, error) {
	username := base
	counter := 1

	for {
		var existing models.User
		err := database.DB.Where("LOWER(username) = LOWER(?)", username).First(&existing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return username, nil
		} else if err != nil {
			return "", fmt.Errorf("database error: %w", err)
		}

		username = fmt.Sprintf("%s%d", base, counter)
		counter++
		if counter > 999 {
			return "", errors.New("unable to generate unique username")
		}
	}
}

// usernameFromName derives a lowercase alphanumeric username
func usernameFromName(name string) string {
	lowered := strings.ToLower(strings.ReplaceAll(name, " ", ""))

	var b strings.Builder
	for _, char := range lowered {
		if (char >= 'a' && char <= 'z') || (char >= '0' && char <= '9') {
			b.WriteRune(char)
		}
	}

	cleaned := b.String()
	if cleaned == "" {
		cleaned = "student"
	}
	if len(cleaned) > 20 {
		cleaned = cleaned[:20]
	}
	return cleaned
}
