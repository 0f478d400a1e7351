// Package domain holds the ingestion state model and the ports other modules consume
package domain

import (
	"time"

	"zaplens/internal/core/receipt"
)

// Phase is the pagination lifecycle of one viewing session
type Phase string

// Phases
const (
	PhaseIdle     Phase = "idle"
	PhaseFetching Phase = "fetching"
	PhaseComplete Phase = "complete"
	PhaseError    Phase = "error"
)

// LoadingState is what a viewer sees of ingestion progress. It lives for one
// user and survives window changes
type LoadingState struct {
	UserID              string `json:"user_id"`
	Phase               Phase  `json:"phase"`
	IsFetching          bool   `json:"is_fetching"`
	IsComplete          bool   `json:"is_complete"`
	BatchesFetched      int    `json:"batches_fetched"`
	TotalFetched        int    `json:"total_fetched"`
	DetectedLimit       int    `json:"detected_limit"`
	ConsecutiveFailures int    `json:"consecutive_failures"`
	AutoLoadEnabled     bool   `json:"auto_load_enabled"`
	AutoLoadPending     bool   `json:"auto_load_pending"`
	CanLoadMore         bool   `json:"can_load_more"`
	Cached              int    `json:"cached"`
	LastError           string `json:"last_error,omitempty"`
}

// Skip reasons for a FetchNext call that did nothing
const (
	SkipInFlight     = "in_flight"
	SkipComplete     = "complete"
	SkipAutoDisabled = "auto_load_disabled"
	SkipExhausted    = "failure_threshold"
	SkipNoUser       = "no_user"
	SkipStale        = "stale"
)

// BatchResult describes one FetchNext call
type BatchResult struct {
	// Skipped is set when preconditions failed and no query was issued
	Skipped   string `json:"skipped,omitempty"`
	Requested int    `json:"requested"`
	Received  int    `json:"received"`
	Valid     int    `json:"valid"`
	Added     int    `json:"added"`
	Dropped   int    `json:"dropped"`
	Complete  bool   `json:"complete"`
	// Substantial results keep the automatic chain going
	Substantial bool          `json:"substantial"`
	Cursor      *time.Time    `json:"cursor,omitempty"`
	Duration    time.Duration `json:"duration"`
}

// Config tunes pagination and auto loading
type Config struct {
	Kinds             []int
	InitialBatch      int
	MinBatch          int
	MaxBatch          int
	AutoBatch         int
	FailureThreshold  int
	BoundaryTolerance time.Duration
	BatchTimeout      time.Duration
	InitialDelay      time.Duration
	InterBatchDelay   time.Duration
	RetryBase         time.Duration
	MaxRetryDelay     time.Duration
	SubstantialRatio  float64
	SubstantialMin    int
	MaxUsers          int
}

// DefaultConfig returns the stock tuning
func DefaultConfig() Config {
	return Config{
		Kinds:             []int{receipt.KindZapReceipt},
		InitialBatch:      1000,
		MinBatch:          50,
		MaxBatch:          1000,
		AutoBatch:         500,
		FailureThreshold:  3,
		BoundaryTolerance: time.Hour,
		BatchTimeout:      15 * time.Second,
		InitialDelay:      500 * time.Millisecond,
		InterBatchDelay:   time.Second,
		RetryBase:         2 * time.Second,
		MaxRetryDelay:     time.Minute,
		SubstantialRatio:  0.9,
		SubstantialMin:    100,
		MaxUsers:          256,
	}
}

// Normalize fills zero fields from DefaultConfig and orders the batch bounds
func (c Config) Normalize() Config {
	d := DefaultConfig()
	if len(c.Kinds) == 0 {
		c.Kinds = d.Kinds
	}
	if c.MinBatch <= 0 {
		c.MinBatch = d.MinBatch
	}
	if c.MaxBatch <= 0 {
		c.MaxBatch = d.MaxBatch
	}
	c.MaxBatch = max(c.MaxBatch, c.MinBatch)
	if c.InitialBatch <= 0 {
		c.InitialBatch = d.InitialBatch
	}
	if c.AutoBatch <= 0 {
		c.AutoBatch = d.AutoBatch
	}
	if c.FailureThreshold <= 0 {
		c.FailureThreshold = d.FailureThreshold
	}
	if c.BoundaryTolerance < 0 {
		c.BoundaryTolerance = 0
	}
	if c.BatchTimeout <= 0 {
		c.BatchTimeout = d.BatchTimeout
	}
	if c.RetryBase <= 0 {
		c.RetryBase = d.RetryBase
	}
	if c.MaxRetryDelay <= 0 {
		c.MaxRetryDelay = d.MaxRetryDelay
	}
	if c.SubstantialRatio <= 0 || c.SubstantialRatio > 1 {
		c.SubstantialRatio = d.SubstantialRatio
	}
	if c.SubstantialMin <= 0 {
		c.SubstantialMin = d.SubstantialMin
	}
	if c.MaxUsers <= 0 {
		c.MaxUsers = d.MaxUsers
	}
	return c
}
