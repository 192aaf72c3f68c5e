// Package idgen produces human-readable unique identifiers: a fixed prefix
// followed by a random 128-bit token, checked against existing ids with a
// bounded retry loop. The retry is the correctness backstop; the entropy just
// keeps retries rare.
package idgen

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/tobenna/bankcore/internal/domain"
)

// TransactionPrefix starts every public transaction identifier. Account
// numbers are prefixed with the owning bank's code instead.
const TransactionPrefix = "TXN"

const (
	tokenBytes         = 16
	DefaultMaxAttempts = 5
)

// ExistsFunc reports whether an id is already taken.
type ExistsFunc func(ctx context.Context, id string) (bool, error)

type Generator struct {
	maxAttempts int
}

func New(maxAttempts int) *Generator {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	return &Generator{maxAttempts: maxAttempts}
}

// Generate draws candidates until one passes the exists check, failing with
// DuplicateID once attempts run out. Safe for concurrent use.
func (g *Generator) Generate(ctx context.Context, prefix string, exists ExistsFunc) (string, error) {
	for attempt := 0; attempt < g.maxAttempts; attempt++ {
		id := prefix + token()
		taken, err := exists(ctx, id)
		if err != nil {
			return "", fmt.Errorf("Generate: %w", err)
		}
		if !taken {
			return id, nil
		}
	}
	return "", domain.NewDuplicateID(prefix, g.maxAttempts)
}

func token() string {
	var b [tokenBytes]byte
	if _, err := rand.Read(b[:]); err != nil {
		panic(err)
	}
	return strings.ToUpper(hex.EncodeToString(b[:]))
}
