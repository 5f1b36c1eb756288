package giftcards

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"github.com/richxcame/engraving-commerce/pkg/common"
)

const (
	codeRandomBytes     = 6
	defaultCodeAttempts = 10
)

type codeChecker interface {
	CodeExists(ctx context.Context, code string) (bool, error)
}

// CodeGenerator produces GC-XXXX-XXXX-XXXX codes not yet present in the ledger
type CodeGenerator struct {
	repo     codeChecker
	attempts int
	random   io.Reader
}

// NewCodeGenerator creates a generator that tries up to attempts candidates
func NewCodeGenerator(repo codeChecker, attempts int) *CodeGenerator {
	if attempts <= 0 {
		attempts = defaultCodeAttempts
	}
	return &CodeGenerator{repo: repo, attempts: attempts, random: rand.Reader}
}

// Generate returns a fresh code. The existence check narrows collisions; the
// unique index on gift_cards.code is what guarantees them.
func (g *CodeGenerator) Generate(ctx context.Context) (string, error) {
	buf := make([]byte, codeRandomBytes)
	for i := 0; i < g.attempts; i++ {
		if _, err := io.ReadFull(g.random, buf); err != nil {
			return "", common.NewInternalError("failed to read random bytes", err)
		}
		code := formatCode(buf)

		exists, err := g.repo.CodeExists(ctx, code)
		if err != nil {
			return "", common.NewInternalError("failed to check gift card code", err)
		}
		if !exists {
			return code, nil
		}
	}

	return "", common.NewInternalError(
		"Failed to generate unique gift card code after multiple attempts",
		fmt.Errorf("%d candidates collided", g.attempts),
	)
}

func formatCode(b []byte) string {
	h := strings.ToUpper(hex.EncodeToString(b))
	return fmt.Sprintf("GC-%s-%s-%s", h[0:4], h[4:8], h[8:12])
}
