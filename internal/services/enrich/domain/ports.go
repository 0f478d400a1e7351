// Package domain holds the enrichment port and its result types
package domain

import (
	"context"

	"zaplens/internal/core/receipt"
)

// Stats reports how complete an enrichment pass was. Unresolved ids are
// normal and never an error
type Stats struct {
	ContentRequested  int `json:"content_requested"`
	ContentResolved   int `json:"content_resolved"`
	ProfilesRequested int `json:"profiles_requested"`
	ProfilesResolved  int `json:"profiles_resolved"`
	FailedChunks      int `json:"failed_chunks"`
}

// Enricher joins receipts with referenced content and sender profiles
type Enricher interface {
	Join(ctx context.Context, rs []receipt.Receipt) ([]receipt.Record, Stats)
}
