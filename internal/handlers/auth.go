package handlers

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"net/http"
	"strings"

	"github.com/Aazib-Ai/UOLink-App-sub006/internal/auth"
	apierrors "github.com/Aazib-Ai/UOLink-App-sub006/internal/errors"
	"github.com/Aazib-Ai/UOLink-App-sub006/internal/logger"
	"github.com/Aazib-Ai/UOLink-App-sub006/internal/models"
	"github.com/Aazib-Ai/UOLink-App-sub006/internal/util"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AuthMiddleware validates the bearer token and stashes the user in the
// request context. Handlers read it via util.GetUserFromContext.
func (h *Handlers) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := extractBearerToken(c)
		if tokenString == "" {
			util.RespondUnauthorized(c, "missing authentication token")
			c.Abort()
			return
		}

		user, err := h.auth.ValidateToken(tokenString)
		if err != nil {
			util.RespondUnauthorized(c, "invalid or expired token")
			c.Abort()
			return
		}

		c.Set("user_id", user.ID)
		c.Set("user", user)
		c.Next()
	}
}

// OptionalAuthMiddleware sets the user when a valid token is present but
// lets anonymous requests through. Used on public listings so viewer
// flags (user_vote, is_saved) can be filled in.
func (h *Handlers) OptionalAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if tokenString := extractBearerToken(c); tokenString != "" {
			if user, err := h.auth.ValidateToken(tokenString); err == nil {
				c.Set("user_id", user.ID)
				c.Set("user", user)
			}
		}
		c.Next()
	}
}

func extractBearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header == "" {
		return ""
	}
	return strings.TrimPrefix(header, "Bearer ")
}

// Register creates a new account and sends a verification email
func (h *Handlers) Register(c *gin.Context) {
	var req auth.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	resp, err := h.auth.RegisterNativeUser(req)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrUserExists):
			util.RespondConflict(c, "account with this email")
		case errors.Is(err, auth.ErrUsernameExists):
			util.RespondConflict(c, "username")
		default:
			util.RespondInternalError(c, "registration failed")
		}
		return
	}

	h.sendVerificationEmail(c, &resp.User)

	c.JSON(http.StatusCreated, resp)
}

func (h *Handlers) sendVerificationEmail(c *gin.Context, user *models.User) {
	if h.email == nil {
		return
	}
	token, err := h.auth.IssueEmailVerification(user.ID)
	if err != nil {
		logger.Log.Warn("Failed to issue verification token",
			zap.String("user_id", user.ID), zap.Error(err))
		return
	}
	if err := h.email.SendVerificationEmail(c.Request.Context(), user.Email, token); err != nil {
		logger.Log.Warn("Failed to send verification email",
			zap.String("user_id", user.ID), zap.Error(err))
	}
}

// Login authenticates with email/password. 2FA accounts get a challenge
// instead of a token.
func (h *Handlers) Login(c *gin.Context) {
	var req auth.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	result, err := h.auth.LoginNativeUser(req)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrInvalidCredentials):
			util.RespondUnauthorized(c, "invalid email or password")
		case errors.Is(err, auth.ErrNoPasswordSet):
			util.RespondBadRequest(c, "account uses Google sign-in")
		default:
			util.RespondInternalError(c, "login failed")
		}
		return
	}

	c.JSON(http.StatusOK, result)
}

// LoginWith2FA completes a login that required a second factor
func (h *Handlers) LoginWith2FA(c *gin.Context) {
	var req struct {
		UserID string `json:"user_id" binding:"required"`
		Code   string `json:"code" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	resp, err := h.auth.Verify2FALogin(req.UserID, req.Code)
	if err != nil {
		if errors.Is(err, auth.ErrInvalid2FACode) {
			util.RespondUnauthorized(c, "invalid verification code")
			return
		}
		util.RespondInternalError(c, "two-factor login failed")
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Logout revokes the bearer token so it stops working before its
// natural expiry.
func (h *Handlers) Logout(c *gin.Context) {
	tokenString := extractBearerToken(c)
	if err := h.auth.RevokeToken(tokenString); err != nil {
		util.RespondInternalError(c, "logout failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

// Me returns the authenticated user's own record
func (h *Handlers) Me(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

// GoogleLogin returns the Google consent URL with a CSRF state cookie
func (h *Handlers) GoogleLogin(c *gin.Context) {
	state := randomState()

	url, err := h.auth.GetGoogleOAuthURL(state)
	if err != nil {
		util.RespondWithAPIError(c, apierrors.ServiceUnavailable("google sign-in"))
		return
	}

	c.SetCookie("oauth_state", state, 600, "/", "", true, true)
	c.JSON(http.StatusOK, gin.H{"url": url})
}

// GoogleCallback exchanges the authorization code for a session
func (h *Handlers) GoogleCallback(c *gin.Context) {
	state := c.Query("state")
	cookieState, err := c.Cookie("oauth_state")
	if err != nil || state == "" || state != cookieState {
		util.RespondUnauthorized(c, "invalid oauth state")
		return
	}
	c.SetCookie("oauth_state", "", -1, "/", "", true, true)

	code := c.Query("code")
	if code == "" {
		util.RespondBadRequest(c, "missing authorization code")
		return
	}

	resp, err := h.auth.HandleGoogleCallback(c.Request.Context(), code)
	if err != nil {
		if errors.Is(err, auth.ErrOAuthNotConfigured) {
			util.RespondWithAPIError(c, apierrors.ServiceUnavailable("google sign-in"))
			return
		}
		logger.Log.Warn("Google OAuth callback failed", zap.Error(err))
		util.RespondUnauthorized(c, "google sign-in failed")
		return
	}

	c.JSON(http.StatusOK, resp)
}

func randomState() string {
	b := make([]byte, 16)
	rand.Read(b)
	return hex.EncodeToString(b)
}

// RequestPasswordReset issues a reset token and emails it. Responds
// identically whether or not the email exists.
func (h *Handlers) RequestPasswordReset(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required,email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	token, err := h.auth.RequestPasswordReset(req.Email)
	if err != nil {
		util.RespondInternalError(c, "failed to process reset request")
		return
	}
	if token != "" && h.email != nil {
		if err := h.email.SendPasswordResetEmail(c.Request.Context(), req.Email, token); err != nil {
			logger.Log.Warn("Failed to send password reset email", zap.Error(err))
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "if the email exists, a reset link has been sent",
	})
}

// ConfirmPasswordReset sets a new password from a reset token
func (h *Handlers) ConfirmPasswordReset(c *gin.Context) {
	var req struct {
		Token       string `json:"token" binding:"required"`
		NewPassword string `json:"new_password" binding:"required,min=8"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	if err := h.auth.ResetPassword(req.Token, req.NewPassword); err != nil {
		if errors.Is(err, auth.ErrInvalidResetToken) {
			util.RespondBadRequest(c, "invalid or expired reset token")
			return
		}
		util.RespondInternalError(c, "failed to reset password")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "password updated"})
}

// VerifyEmail redeems an email verification token
func (h *Handlers) VerifyEmail(c *gin.Context) {
	var req struct {
		Token string `json:"token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	user, err := h.auth.VerifyEmail(req.Token)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidVerifyToken) {
			util.RespondBadRequest(c, "invalid or expired verification token")
			return
		}
		util.RespondInternalError(c, "failed to verify email")
		return
	}

	if h.notifications != nil {
		h.notifications.Notify(c.Request.Context(), user.ID,
			models.NotificationAccountVerified,
			"Email verified",
			"Your university email is verified. Welcome to UOLink!",
			nil)
	}

	c.JSON(http.StatusOK, gin.H{"message": "email verified", "user": user})
}

// ResendVerification issues a fresh verification token for the
// authenticated user.
func (h *Handlers) ResendVerification(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}
	if user.EmailVerified {
		util.RespondBadRequest(c, "email is already verified")
		return
	}

	h.sendVerificationEmail(c, user)
	c.JSON(http.StatusOK, gin.H{"message": "verification email sent"})
}

// Get2FAStatus reports whether 2FA is enabled and how many backup codes
// remain.
func (h *Handlers) Get2FAStatus(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	status, err := h.auth.Get2FAStatus(userID)
	if err != nil {
		util.RespondInternalError(c, "failed to read two-factor status")
		return
	}
	c.JSON(http.StatusOK, status)
}

// Begin2FASetup starts 2FA enrollment. Returns the secret, QR URL, and
// one-time backup codes; nothing is enabled until confirmed.
func (h *Handlers) Begin2FASetup(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var req struct {
		Password string `json:"password" binding:"required"`
		Type     string `json:"type"` // "totp" (default) or "hotp"
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}
	if req.Type == "" {
		req.Type = auth.OTPTypeTOTP
	}

	setup, err := h.auth.Begin2FA(userID, req.Password, req.Type)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrInvalidCredentials):
			util.RespondUnauthorized(c, "invalid password")
		case errors.Is(err, auth.Err2FAAlreadyEnabled):
			util.RespondConflict(c, "two-factor authentication")
		default:
			util.RespondInternalError(c, "failed to start two-factor setup")
		}
		return
	}

	c.JSON(http.StatusOK, setup)
}

// Confirm2FASetup enables 2FA after the user proves they can generate
// codes.
func (h *Handlers) Confirm2FASetup(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var req struct {
		Code string `json:"code" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	if err := h.auth.Confirm2FA(userID, req.Code); err != nil {
		switch {
		case errors.Is(err, auth.ErrInvalid2FACode):
			util.RespondBadRequest(c, "invalid verification code")
		case errors.Is(err, auth.Err2FANotInitiated):
			util.RespondBadRequest(c, "two-factor setup was not started")
		default:
			util.RespondInternalError(c, "failed to enable two-factor authentication")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "two-factor authentication enabled"})
}

// Disable2FA turns off 2FA after re-verifying password and a code
func (h *Handlers) Disable2FA(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var req struct {
		Password string `json:"password" binding:"required"`
		Code     string `json:"code" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	if err := h.auth.Disable2FA(userID, req.Password, req.Code); err != nil {
		switch {
		case errors.Is(err, auth.ErrInvalidCredentials):
			util.RespondUnauthorized(c, "invalid password")
		case errors.Is(err, auth.ErrInvalid2FACode):
			util.RespondBadRequest(c, "invalid verification code")
		case errors.Is(err, auth.Err2FANotEnabled):
			util.RespondBadRequest(c, "two-factor authentication is not enabled")
		default:
			util.RespondInternalError(c, "failed to disable two-factor authentication")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "two-factor authentication disabled"})
}
