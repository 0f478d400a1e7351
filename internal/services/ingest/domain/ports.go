package domain

import (
	"context"

	"zaplens/internal/adapters/relay"
	"zaplens/internal/core/receipt"
	"zaplens/internal/core/window"
)

// Source answers receipt queries; relay.Client and test fakes satisfy it
type Source = relay.Querier

// Loader drives ingestion for one viewing session
type Loader interface {
	// Activate points the session at a user and window. A new user resets all
	// state and aborts in flight work; a new window only retargets
	Activate(userID string, w window.Window)
	// LoadMore runs one manual fetch, ignoring the auto load flag and failure threshold
	LoadMore(ctx context.Context) (BatchResult, error)
	ToggleAutoLoad() LoadingState
	RestartAutoLoad() LoadingState
	State() LoadingState
	// Records returns a copy of the cached receipts inside the active window
	Records() []receipt.Receipt
	Window() window.Window
	Close()
}

// LoaderFactory creates session loaders that share one receipt store
type LoaderFactory interface {
	NewLoader() Loader
}
