package config

import (
	"fmt"
	"os"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// LoadGoogleOAuthConfig builds the Google OAuth config from environment
// variables. Required:
//   - OAUTH_REDIRECT_URL: base URL for OAuth callbacks (e.g. https://api.uolink.app)
//   - GOOGLE_CLIENT_ID / GOOGLE_CLIENT_SECRET
func LoadGoogleOAuthConfig() (*oauth2.Config, error) {
	redirectURL := os.Getenv("OAUTH_REDIRECT_URL")
	if redirectURL == "" {
		return nil, fmt.Errorf("OAUTH_REDIRECT_URL environment variable not set")
	}

	clientID := os.Getenv("GOOGLE_CLIENT_ID")
	if clientID == "" {
		return nil, fmt.Errorf("GOOGLE_CLIENT_ID environment variable not set")
	}

	clientSecret := os.Getenv("GOOGLE_CLIENT_SECRET")
	if clientSecret == "" {
		return nil, fmt.Errorf("GOOGLE_CLIENT_SECRET environment variable not set")
	}

	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURL + "/api/v1/auth/google/callback",
		Scopes:       []string{"openid", "profile", "email"},
		Endpoint:     google.Endpoint,
	}, nil
}
