package domain

import "context"

// ServicePort is the interface implemented by the session manager
type ServicePort interface {
	Open(ctx context.Context, in OpenInput) (SessionView, error)
	Get(ctx context.Context, id string) (SessionView, error)
	Close(ctx context.Context, id string) error
	SetUser(ctx context.Context, id string, in UserInput) (SessionView, error)
	SetWindow(ctx context.Context, id string, in WindowInput) (SessionView, error)
	Load(ctx context.Context, id string) (LoadOutput, error)
	ToggleAutoLoad(ctx context.Context, id string) (SessionView, error)
	RestartAutoLoad(ctx context.Context, id string) (SessionView, error)
	Snapshot(ctx context.Context, id string) (SnapshotView, error)
}
