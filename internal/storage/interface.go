package storage

import (
	"context"
	"mime/multipart"
)

// Uploader is the storage contract consumed by handlers. It allows
// mocking uploads in tests without touching R2.
type Uploader interface {
	UploadNote(ctx context.Context, data []byte, userID, originalFilename string) (*UploadResult, error)
	UploadAvatar(ctx context.Context, file multipart.File, header *multipart.FileHeader, userID string) (*UploadResult, error)
	PresignDownload(ctx context.Context, key string) (string, error)
	DeleteFile(ctx context.Context, key string) error
}

// Ensure R2Client implements Uploader
var _ Uploader = (*R2Client)(nil)
