// Package storage handles file persistence on Cloudflare R2, accessed
// through the S3-compatible API with a custom endpoint.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"github.com/Aazib-Ai/UOLink-App-sub006/internal/util"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// R2Config holds the connection settings for a Cloudflare R2 bucket.
// Endpoint is https://{accountID}.r2.cloudflarestorage.com.
type R2Config struct {
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	// PublicBaseURL is the custom domain serving public objects, used
	// to build avatar URLs. Note files are never public; they are
	// served through presigned GETs.
	PublicBaseURL string
}

// R2Client uploads, deletes, and presigns objects in an R2 bucket
type R2Client struct {
	client        *s3.Client
	presigner     *s3.PresignClient
	bucket        string
	publicBaseURL string
}

// UploadResult contains the outcome of an upload
type UploadResult struct {
	Key  string `json:"key"`
	URL  string `json:"url"`
	Size int64  `json:"size"`
}

// DownloadURLTTL is how long presigned note download links stay valid
const DownloadURLTTL = 15 * time.Minute

// NewR2Client creates a client against the R2 S3-compatible endpoint.
// R2 ignores regions, but the SDK requires one; "auto" is Cloudflare's
// documented value.
func NewR2Client(cfg R2Config) (*R2Client, error) {
	if cfg.Endpoint == "" || cfg.AccessKeyID == "" || cfg.SecretAccessKey == "" {
		return nil, fmt.Errorf("incomplete R2 configuration")
	}

	awsCfg, err := config.LoadDefaultConfig(context.TODO(),
		config.WithRegion("auto"),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID, cfg.SecretAccessKey, "",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load R2 config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.Endpoint)
		o.UsePathStyle = true
	})

	return &R2Client{
		client:        client,
		presigner:     s3.NewPresignClient(client),
		bucket:        cfg.Bucket,
		publicBaseURL: strings.TrimSuffix(cfg.PublicBaseURL, "/"),
	}, nil
}

// UploadNote stores a note file under notes/{year}/{month}/{userID}/.
// The returned URL is the object key path; actual downloads go through
// PresignDownload so removed notes become unreachable once the last
// presigned link expires.
func (r *R2Client) UploadNote(ctx context.Context, data []byte, userID, originalFilename string) (*UploadResult, error) {
	extension := strings.ToLower(filepath.Ext(originalFilename))
	if extension == "" {
		extension = ".pdf"
	}

	now := time.Now()
	key := fmt.Sprintf("notes/%d/%02d/%s/%s%s",
		now.Year(), now.Month(), userID, uuid.New().String(), extension)

	_, err := r.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(r.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(util.NoteContentType(originalFilename)),
		Metadata: map[string]string{
			"user-id":           userID,
			"original-filename": originalFilename,
			"upload-timestamp":  now.Format(time.RFC3339),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload note to R2: %w", err)
	}

	return &UploadResult{
		Key:  key,
		URL:  key,
		Size: int64(len(data)),
	}, nil
}

// UploadAvatar stores a profile picture under avatars/{userID}/ and
// returns a public URL. Avatars are immutable per upload; a new upload
// gets a new key, so long cache lifetimes are safe.
func (r *R2Client) UploadAvatar(ctx context.Context, file multipart.File, header *multipart.FileHeader, userID string) (*UploadResult, error) {
	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read avatar file: %w", err)
	}

	extension := strings.ToLower(filepath.Ext(header.Filename))
	contentType := avatarContentType(extension)
	if contentType == "" {
		return nil, fmt.Errorf("unsupported avatar format %q", extension)
	}

	key := fmt.Sprintf("avatars/%s/%s%s", userID, uuid.New().String(), extension)

	_, err = r.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:       aws.String(r.bucket),
		Key:          aws.String(key),
		Body:         bytes.NewReader(data),
		ContentType:  aws.String(contentType),
		CacheControl: aws.String("public, max-age=31536000, immutable"),
		Metadata: map[string]string{
			"user-id": userID,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload avatar to R2: %w", err)
	}

	return &UploadResult{
		Key:  key,
		URL:  fmt.Sprintf("%s/%s", r.publicBaseURL, key),
		Size: int64(len(data)),
	}, nil
}

// PresignDownload returns a time-limited GET URL for a stored object
func (r *R2Client) PresignDownload(ctx context.Context, key string) (string, error) {
	req, err := r.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(DownloadURLTTL))
	if err != nil {
		return "", fmt.Errorf("failed to presign download for %s: %w", key, err)
	}
	return req.URL, nil
}

// DeleteFile removes an object from the bucket
func (r *R2Client) DeleteFile(ctx context.Context, key string) error {
	_, err := r.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete %s from R2: %w", key, err)
	}
	return nil
}

// CheckBucketAccess verifies bucket reachability at startup
func (r *R2Client) CheckBucketAccess(ctx context.Context) error {
	_, err := r.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(r.bucket),
	})
	if err != nil {
		return fmt.Errorf("cannot access R2 bucket %s: %w", r.bucket, err)
	}
	return nil
}

func avatarContentType(extension string) string {
	switch extension {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	default:
		return ""
	}
}
