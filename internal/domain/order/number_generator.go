package order

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/orderflow/backend/internal/domain/shared"
)

// DefaultMaxGenerationAttempts bounds the uniqueness retry loop. Unbounded
// retry risks livelock under clock skew or random-source degeneracy; the
// ceiling converts a potential hang into a reportable failure.
const DefaultMaxGenerationAttempts = 10

// UniquenessChecker answers whether an order number is already taken
type UniquenessChecker interface {
	ExistsByOrderNumber(ctx context.Context, orderNumber string) (bool, error)
}

// NumberGenerator produces unique human-readable order numbers of the form
// ORD-20060102-150405-A4B9: a second-resolution timestamp plus a short
// random suffix. On collision only the suffix is regenerated.
type NumberGenerator struct {
	checker     UniquenessChecker
	maxAttempts int
	now         func() time.Time
}

// NumberGeneratorOption is a functional option for NumberGenerator
type NumberGeneratorOption func(*NumberGenerator)

// WithMaxAttempts overrides the retry ceiling
func WithMaxAttempts(n int) NumberGeneratorOption {
	return func(g *NumberGenerator) {
		if n > 0 {
			g.maxAttempts = n
		}
	}
}

// WithClock overrides the clock (for testing)
func WithClock(now func() time.Time) NumberGeneratorOption {
	return func(g *NumberGenerator) {
		g.now = now
	}
}

// NewNumberGenerator creates a new order number generator
func NewNumberGenerator(checker UniquenessChecker, opts ...NumberGeneratorOption) *NumberGenerator {
	g := &NumberGenerator{
		checker:     checker,
		maxAttempts: DefaultMaxGenerationAttempts,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate produces a verified-unique order number. The timestamp component
// is fixed for the whole attempt; only the random suffix changes between
// retries. Fails with ErrGenerationExhausted once the retry ceiling is hit.
func (g *NumberGenerator) Generate(ctx context.Context) (string, error) {
	timestamp := g.now().Format("20060102-150405")

	for attempt := 0; attempt < g.maxAttempts; attempt++ {
		suffix, err := randomSuffix()
		if err != nil {
			return "", fmt.Errorf("failed to generate order number suffix: %w", err)
		}
		candidate := fmt.Sprintf("ORD-%s-%s", timestamp, suffix)

		exists, err := g.checker.ExistsByOrderNumber(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("failed to check order number uniqueness: %w", err)
		}
		if !exists {
			return candidate, nil
		}
	}

	return "", shared.ErrGenerationExhausted
}

// randomSuffix returns 4 uppercase hex characters from crypto/rand
func randomSuffix() (string, error) {
	var buf [2]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return "", err
	}
	return strings.ToUpper(hex.EncodeToString(buf[:])), nil
}
