// Package domain holds DTOs for the zaps http and service contracts
package domain

import (
	"time"

	"zaplens/internal/core/aggregate"
	"zaplens/internal/core/window"
	enrich "zaplens/internal/services/enrich/domain"
	ingest "zaplens/internal/services/ingest/domain"
)

// OpenInput starts a viewing session for a user and window
type OpenInput struct {
	User  string `json:"user"  validate:"required,pubkey" example:"3bf0c63fcb93463407af97a5e5ee64fa883d107ef9e558472c4eb9aaaefa459d"` //nolint:lll
	Range string `json:"range" validate:"required,oneof=24h 7d 30d 90d 1y all custom" example:"7d"`
	Since *int64 `json:"since,omitempty" validate:"required_if=Range custom,omitempty,min=0" example:"1725731200"`
	Until *int64 `json:"until,omitempty" validate:"required_if=Range custom,omitempty,min=0" example:"1726336000"`
}

// UserInput switches the session to another user; all loading state resets
type UserInput struct {
	User string `json:"user" validate:"required,pubkey" example:"3bf0c63fcb93463407af97a5e5ee64fa883d107ef9e558472c4eb9aaaefa459d"` //nolint:lll
}

// WindowInput retargets the session; cached receipts stay
type WindowInput struct {
	Range string `json:"range" validate:"required,oneof=24h 7d 30d 90d 1y all custom" example:"30d"`
	Since *int64 `json:"since,omitempty" validate:"required_if=Range custom,omitempty,min=0" example:"1725731200"`
	Until *int64 `json:"until,omitempty" validate:"required_if=Range custom,omitempty,min=0" example:"1726336000"`
}

// SessionView is the session as returned by every control endpoint
type SessionView struct {
	ID        string              `json:"id" example:"5f0c3e8a-6a0e-4a43-9a55-0d3f9f8d5e21"`
	Window    window.Window       `json:"window"`
	State     ingest.LoadingState `json:"state"`
	ExpiresAt time.Time           `json:"expires_at"`
}

// LoadOutput reports one manual fetch. A failed batch is not an HTTP error;
// Error carries the reason and State the updated counters
type LoadOutput struct {
	Batch ingest.BatchResult  `json:"batch"`
	State ingest.LoadingState `json:"state"`
	Error string              `json:"error,omitempty"`
}

// SnapshotView is the analytic payload plus how complete it is
type SnapshotView struct {
	SessionID  string              `json:"session_id"`
	State      ingest.LoadingState `json:"state"`
	Enrichment enrich.Stats        `json:"enrichment"`
	Snapshot   aggregate.Snapshot  `json:"snapshot"`
}
