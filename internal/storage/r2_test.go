package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAvatarContentType(t *testing.T) {
	tests := []struct {
		extension string
		expected  string
	}{
		{".jpg", "image/jpeg"},
		{".jpeg", "image/jpeg"},
		{".png", "image/png"},
		{".gif", "image/gif"},
		{".webp", "image/webp"},
		{".pdf", ""},
		{".svg", ""}, // scriptable, never allowed as avatar
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.extension, func(t *testing.T) {
			assert.Equal(t, tt.expected, avatarContentType(tt.extension))
		})
	}
}

func TestNewR2ClientRequiresCredentials(t *testing.T) {
	_, err := NewR2Client(R2Config{
		Endpoint: "https://example.r2.cloudflarestorage.com",
		Bucket:   "uolink",
	})
	assert.Error(t, err)

	_, err = NewR2Client(R2Config{
		AccessKeyID:     "key",
		SecretAccessKey: "secret",
		Bucket:          "uolink",
	})
	assert.Error(t, err)
}
