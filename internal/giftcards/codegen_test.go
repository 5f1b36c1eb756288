package giftcards

import (
	"bytes"
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestFormatCode(t *testing.T) {
	code := formatCode([]byte{0x1a, 0x2b, 0x3c, 0x4d, 0x5e, 0x6f})
	assert.Equal(t, "GC-1A2B-3C4D-5E6F", code)
}

func TestGenerate_Format(t *testing.T) {
	gen := NewCodeGenerator(newMemoryRepository(), 0)

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		code, err := gen.Generate(context.Background())
		require.NoError(t, err)
		assert.Regexp(t, codePattern, code)
		seen[code] = true
	}
	assert.Len(t, seen, 50)
}

func TestGenerate_SkipsExistingCodes(t *testing.T) {
	ctx := context.Background()
	repo := new(mockRepository)
	gen := NewCodeGenerator(repo, 3)
	gen.random = bytes.NewReader([]byte{
		0, 0, 0, 0, 0, 1,
		0, 0, 0, 0, 0, 2,
	})

	repo.On("CodeExists", ctx, "GC-0000-0000-0001").Return(true, nil).Once()
	repo.On("CodeExists", ctx, "GC-0000-0000-0002").Return(false, nil).Once()

	code, err := gen.Generate(ctx)
	require.NoError(t, err)
	assert.Equal(t, "GC-0000-0000-0002", code)
	repo.AssertExpectations(t)
}

func TestGenerate_ExhaustsAttempts(t *testing.T) {
	ctx := context.Background()
	repo := new(mockRepository)
	gen := NewCodeGenerator(repo, 4)

	repo.On("CodeExists", ctx, mock.Anything).Return(true, nil)

	_, err := gen.Generate(ctx)
	appErr := requireAppError(t, err, http.StatusInternalServerError)
	assert.Equal(t, "Failed to generate unique gift card code after multiple attempts", appErr.Message)
	repo.AssertNumberOfCalls(t, "CodeExists", 4)
}
