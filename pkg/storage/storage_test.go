package storage

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateProofKey(t *testing.T) {
	key := GenerateProofKey("order_01H", "Proof.PNG")

	assert.True(t, strings.HasPrefix(key, "proofs/order_01H/"), key)
	assert.True(t, strings.HasSuffix(key, ".png"), key)
	assert.NotEqual(t, key, GenerateProofKey("order_01H", "Proof.PNG"))
}

func TestGenerateProofKey_SanitizesOrderID(t *testing.T) {
	key := GenerateProofKey("../etc/passwd", "x.pdf")
	assert.NotContains(t, key, "..")
	assert.True(t, strings.HasPrefix(key, "proofs/__etc_passwd/"), key)
	assert.Equal(t, 2, strings.Count(key, "/"))

	assert.True(t, strings.HasPrefix(GenerateProofKey("  ", "x.pdf"), "proofs/unknown/"))
}

func TestValidateMimeType(t *testing.T) {
	allowed := []string{"image/*", "application/pdf"}

	assert.True(t, ValidateMimeType("image/png", allowed))
	assert.True(t, ValidateMimeType("IMAGE/JPEG", allowed))
	assert.True(t, ValidateMimeType("application/pdf", allowed))
	assert.False(t, ValidateMimeType("text/html", allowed))
	assert.True(t, ValidateMimeType("text/html", nil))
}

func TestGetMimeTypeFromExtension(t *testing.T) {
	assert.Equal(t, "image/jpeg", GetMimeTypeFromExtension("a.JPG"))
	assert.Equal(t, "image/png", GetMimeTypeFromExtension("a.png"))
	assert.Equal(t, "application/pdf", GetMimeTypeFromExtension("a.pdf"))
	assert.Equal(t, "application/octet-stream", GetMimeTypeFromExtension("a.exe"))
}

func TestS3Storage_URLs(t *testing.T) {
	s, err := NewS3Storage(context.Background(), S3Config{
		Bucket:    "order-proofs",
		Region:    "us-east-1",
		Endpoint:  "http://localhost:9000",
		AccessKey: "minio",
		SecretKey: "minio123",
	})
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:9000/order-proofs/proofs/o1/a.png", s.GetURL("proofs/o1/a.png"))

	up, err := s.GetPresignedUploadURL(context.Background(), "proofs/o1/a.png", "image/png", 10*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, "PUT", up.Method)
	assert.Contains(t, up.URL, "proofs/o1/a.png")
	assert.Contains(t, up.URL, "X-Amz-Signature")
	assert.Equal(t, s.GetURL("proofs/o1/a.png"), up.PublicURL)
}

func TestNewS3Storage_RequiresBucket(t *testing.T) {
	_, err := NewS3Storage(context.Background(), S3Config{Region: "us-east-1"})
	assert.Error(t, err)
}

func TestPublicBaseURL(t *testing.T) {
	assert.Equal(t, "https://cdn.example.com",
		publicBaseURL(S3Config{Bucket: "b", BaseURL: "https://cdn.example.com/"}))
	assert.Equal(t, "http://localhost:9000/b",
		publicBaseURL(S3Config{Bucket: "b", Endpoint: "http://localhost:9000"}))
	assert.Equal(t, "https://b.s3.eu-west-1.amazonaws.com",
		publicBaseURL(S3Config{Bucket: "b", Region: "eu-west-1"}))
}
