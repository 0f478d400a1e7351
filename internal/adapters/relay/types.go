// Package relay is a resilient client for an HTTP relay gateway that answers
// NIP-01 style filters with a JSON array of events
package relay

import (
	"context"
	"errors"

	"zaplens/internal/core/receipt"
)

// Filter is a NIP-01 subscription filter. Empty fields are omitted on the wire
type Filter struct {
	IDs     []string `json:"ids,omitempty"`
	Authors []string `json:"authors,omitempty"`
	Kinds   []int    `json:"kinds,omitempty"`
	PTags   []string `json:"#p,omitempty"`
	ETags   []string `json:"#e,omitempty"`
	Since   *int64   `json:"since,omitempty"`
	Until   *int64   `json:"until,omitempty"`
	Limit   int      `json:"limit,omitempty"`
}

// Querier answers a single filter. Results are at least once, possibly truncated
// at an undisclosed limit and possibly unordered
type Querier interface {
	Query(ctx context.Context, f Filter) ([]receipt.Event, error)
}

// QuerierFunc adapts a function to Querier
type QuerierFunc func(ctx context.Context, f Filter) ([]receipt.Event, error)

// Query implements Querier
func (fn QuerierFunc) Query(ctx context.Context, f Filter) ([]receipt.Event, error) {
	return fn(ctx, f)
}

// StatusError wraps non-2xx gateway responses
type StatusError struct {
	Status int
	Body   string
	Err    error
}

// Error interface
func (e *StatusError) Error() string { return e.Err.Error() }

// Unwrap interface
func (e *StatusError) Unwrap() error { return e.Err }

// HTTPStatus interface
func (e *StatusError) HTTPStatus() int { return e.Status }

// IsRateLimited reports whether err is a StatusError with a 429 status
func IsRateLimited(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Status == 429
}

// IsTransient reports whether err is a StatusError with a 5xx status
func IsTransient(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Status >= 500
}
