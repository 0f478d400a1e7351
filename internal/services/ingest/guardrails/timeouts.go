// Package guardrails bounds network work with per phase timeouts
package guardrails

import (
	"context"
	"time"
)

// Timeouts are per call budgets. Zero values mean no extra timeout at that level
type Timeouts struct {
	// Batch caps one receipt page query
	Batch time.Duration

	// Content caps one chunk of content lookups
	Content time.Duration

	// Profile caps one chunk of profile lookups
	Profile time.Duration
}

// ForBatch returns a sub context for a receipt page bounded by Batch and any remaining parent budget
func ForBatch(parent context.Context, t Timeouts) (context.Context, context.CancelFunc) {
	return withChildTimeout(parent, t.Batch)
}

// ForContent returns a sub context for a content chunk
func ForContent(parent context.Context, t Timeouts) (context.Context, context.CancelFunc) {
	return withChildTimeout(parent, t.Content)
}

// ForProfile returns a sub context for a profile chunk
func ForProfile(parent context.Context, t Timeouts) (context.Context, context.CancelFunc) {
	return withChildTimeout(parent, t.Profile)
}

// Remaining returns the time until the deadline on ctx or zero when none is set or already expired
func Remaining(ctx context.Context) time.Duration {
	if dl, ok := ctx.Deadline(); ok {
		if d := time.Until(dl); d > 0 {
			return d
		}
	}
	return 0
}

// withChildTimeout chooses the tighter of d and any parent remainder; never extends the parent deadline
func withChildTimeout(parent context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(parent)
	}
	if rem := Remaining(parent); rem > 0 && rem < d {
		return context.WithTimeout(parent, rem)
	}
	return context.WithTimeout(parent, d)
}
