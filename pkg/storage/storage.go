package storage

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

// PresignedURLResult contains a presigned URL for direct upload/download
type PresignedURLResult struct {
	Key       string            `json:"key"`
	URL       string            `json:"url"`
	PublicURL string            `json:"public_url,omitempty"`
	Method    string            `json:"method"`
	Headers   map[string]string `json:"headers,omitempty"`
	ExpiresAt time.Time         `json:"expires_at"`
}

// Storage is the object store used for proof images
type Storage interface {
	// GetURL returns the public URL for a key
	GetURL(key string) string

	// GetPresignedUploadURL generates a presigned URL for direct upload
	GetPresignedUploadURL(ctx context.Context, key string, contentType string, expiresIn time.Duration) (*PresignedURLResult, error)
}

// GenerateProofKey builds a unique key for a proof image of an order.
// Format: proofs/{order_id}/{yyyymmdd}_{unique}{ext}
func GenerateProofKey(orderID, filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	uniqueID := uuid.New().String()[:8]
	timestamp := time.Now().UTC().Format("20060102")

	return fmt.Sprintf("proofs/%s/%s_%s%s", sanitizeSegment(orderID), timestamp, uniqueID, ext)
}

func sanitizeSegment(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "..", "_")
	if s == "" {
		return "unknown"
	}
	return s
}

// ValidateMimeType checks if the mime type is allowed
func ValidateMimeType(mimeType string, allowedTypes []string) bool {
	if len(allowedTypes) == 0 {
		return true
	}

	mimeType = strings.ToLower(mimeType)
	for _, allowed := range allowedTypes {
		if strings.ToLower(allowed) == mimeType {
			return true
		}
		// Support wildcards like "image/*"
		if strings.HasSuffix(allowed, "/*") {
			prefix := strings.TrimSuffix(allowed, "*")
			if strings.HasPrefix(mimeType, prefix) {
				return true
			}
		}
	}
	return false
}

// GetMimeTypeFromExtension returns the MIME type for proof file extensions
func GetMimeTypeFromExtension(filename string) string {
	switch strings.ToLower(path.Ext(filename)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".webp":
		return "image/webp"
	case ".svg":
		return "image/svg+xml"
	case ".pdf":
		return "application/pdf"
	default:
		return "application/octet-stream"
	}
}
