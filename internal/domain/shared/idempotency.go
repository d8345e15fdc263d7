package shared

import (
	"context"
	"time"
)

// IdempotencyStore stores processed fact IDs to prevent duplicate processing.
// MarkProcessed must be an atomic insert-if-absent: with at-least-once
// delivery, two workers may race on the same redelivered fact and exactly one
// of them must win.
type IdempotencyStore interface {
	// MarkProcessed marks a fact as processed with a TTL
	// Returns true if the fact was newly marked, false if it was already processed
	MarkProcessed(ctx context.Context, factID string, ttl time.Duration) (bool, error)

	// IsProcessed checks if a fact has already been processed
	IsProcessed(ctx context.Context, factID string) (bool, error)

	// Close closes the store and releases resources
	Close() error
}

// IdempotencyConfig holds configuration for idempotency handling
type IdempotencyConfig struct {
	// TTL is the time-to-live for processed fact IDs
	// After this duration, the same fact ID can be processed again
	// Default: 24 hours
	TTL time.Duration

	// Enabled determines whether idempotency checking is enabled
	// Default: true
	Enabled bool
}

// DefaultIdempotencyConfig returns the default idempotency configuration
func DefaultIdempotencyConfig() IdempotencyConfig {
	return IdempotencyConfig{
		TTL:     24 * time.Hour,
		Enabled: true,
	}
}
