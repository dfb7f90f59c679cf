// Package email sends transactional mail through AWS SES: account
// verification, password resets, and moderation outcome notices.
package email

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
)

// Sender is the email contract consumed by handlers, mockable in tests
type Sender interface {
	SendVerificationEmail(ctx context.Context, toEmail, verifyToken string) error
	SendPasswordResetEmail(ctx context.Context, toEmail, resetToken string) error
	SendModerationOutcomeEmail(ctx context.Context, toEmail, noteTitle, outcome, reason string) error
}

// EmailService sends emails via AWS SES
type EmailService struct {
	client    *ses.Client
	fromEmail string
	fromName  string
	baseURL   string
}

var _ Sender = (*EmailService)(nil)

// NewEmailService creates a new email service using AWS SES
func NewEmailService(region, fromEmail, fromName, baseURL string) (*EmailService, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(region),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &EmailService{
		client:    ses.NewFromConfig(cfg),
		fromEmail: fromEmail,
		fromName:  fromName,
		baseURL:   baseURL,
	}, nil
}

const htmlShell = `<!DOCTYPE html>
<html>
<head>
	<meta charset="UTF-8">
	<style>
		body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; line-height: 1.6; color: #333; }
		.container { max-width: 600px; margin: 0 auto; padding: 20px; }
		.button { display: inline-block; padding: 12px 24px; background-color: #6c5ce7; color: white; text-decoration: none; border-radius: 6px; margin: 20px 0; }
	</style>
</head>
<body>
	<div class="container">
	%s
	<hr>
	<p style="color: #999; font-size: 12px;">This is an automated message from UOLink.</p>
	</div>
</body>
</html>`

// SendVerificationEmail sends the account verification link. The web
// app extracts the token and calls the verify endpoint.
func (e *EmailService) SendVerificationEmail(ctx context.Context, toEmail, verifyToken string) error {
	verifyURL := fmt.Sprintf("%s/verify-email?token=%s", e.baseURL, verifyToken)

	htmlBody := fmt.Sprintf(htmlShell, fmt.Sprintf(`
		<h1>Verify Your Email</h1>
		<p>Welcome to UOLink! Confirm your university email to start sharing and downloading notes.</p>
		<p>This link expires in 48 hours.</p>
		<a href="%s" class="button">Verify Email</a>
		<p>Or copy and paste this link into your browser:</p>
		<p style="word-break: break-all; color: #666;">%s</p>
		<p>If you didn't create a UOLink account, you can safely ignore this email.</p>
	`, verifyURL, verifyURL))

	textBody := fmt.Sprintf(`Verify Your UOLink Email

Welcome to UOLink! Confirm your university email to start sharing and downloading notes.

This link expires in 48 hours.

%s

If you didn't create a UOLink account, you can safely ignore this email.
`, verifyURL)

	return e.send(ctx, toEmail, "Verify your UOLink email", htmlBody, textBody)
}

// SendPasswordResetEmail sends a password reset link
func (e *EmailService) SendPasswordResetEmail(ctx context.Context, toEmail, resetToken string) error {
	resetURL := fmt.Sprintf("%s/reset-password?token=%s", e.baseURL, resetToken)

	htmlBody := fmt.Sprintf(htmlShell, fmt.Sprintf(`
		<h1>Reset Your Password</h1>
		<p>You requested to reset your UOLink password.</p>
		<p>Click the button below to choose a new one. This link expires in 1 hour.</p>
		<a href="%s" class="button">Reset Password</a>
		<p>Or copy and paste this link into your browser:</p>
		<p style="word-break: break-all; color: #666;">%s</p>
		<p>If you didn't request this reset, you can safely ignore this email.</p>
	`, resetURL, resetURL))

	textBody := fmt.Sprintf(`Reset Your UOLink Password

You requested to reset your UOLink password.

Click the link below to choose a new one. This link expires in 1 hour.

%s

If you didn't request this reset, you can safely ignore this email.
`, resetURL)

	return e.send(ctx, toEmail, "Reset your UOLink password", htmlBody, textBody)
}

// SendModerationOutcomeEmail tells an uploader what happened to a
// reported or flagged note. outcome is human-readable ("removed",
// "restored", "approved").
func (e *EmailService) SendModerationOutcomeEmail(ctx context.Context, toEmail, noteTitle, outcome, reason string) error {
	reasonLine := ""
	if reason != "" {
		reasonLine = fmt.Sprintf("<p>Moderator note: %s</p>", reason)
	}

	htmlBody := fmt.Sprintf(htmlShell, fmt.Sprintf(`
		<h1>Update on Your Note</h1>
		<p>Your note <strong>%s</strong> has been <strong>%s</strong> after moderator review.</p>
		%s
		<p>If you believe this was a mistake, reply to this email to reach the moderation team.</p>
	`, noteTitle, outcome, reasonLine))

	textReason := ""
	if reason != "" {
		textReason = fmt.Sprintf("Moderator note: %s\n\n", reason)
	}
	textBody := fmt.Sprintf(`Update on Your Note

Your note %q has been %s after moderator review.

%sIf you believe this was a mistake, reply to this email to reach the moderation team.
`, noteTitle, outcome, textReason)

	return e.send(ctx, toEmail, "Update on your UOLink note", htmlBody, textBody)
}

func (e *EmailService) send(ctx context.Context, toEmail, subject, htmlBody, textBody string) error {
	from := e.fromEmail
	if e.fromName != "" {
		from = fmt.Sprintf("%s <%s>", e.fromName, e.fromEmail)
	}

	input := &ses.SendEmailInput{
		Source: aws.String(from),
		Destination: &types.Destination{
			ToAddresses: []string{toEmail},
		},
		Message: &types.Message{
			Subject: &types.Content{
				Data:    aws.String(subject),
				Charset: aws.String("UTF-8"),
			},
			Body: &types.Body{
				Html: &types.Content{
					Data:    aws.String(htmlBody),
					Charset: aws.String("UTF-8"),
				},
				Text: &types.Content{
					Data:    aws.String(textBody),
					Charset: aws.String("UTF-8"),
				},
			},
		},
	}

	if _, err := e.client.SendEmail(ctx, input); err != nil {
		return fmt.Errorf("failed to send email %q to %s: %w", subject, toEmail, err)
	}
	return nil
}
