package store

import (
	"context"

	"github.com/webinar-impact/webinar-impact/internal/cohort"
)

// Store defines the interface for import storage operations
type Store interface {
	// Import operations
	CreateImport(ctx context.Context, name string, events []cohort.WebinarEvent, roster []cohort.StoreRecord) (*Import, error)
	GetImport(ctx context.Context, ref string) (*Import, error)
	ListImports(ctx context.Context) ([]*Import, error)
	LatestImport(ctx context.Context) (*Import, error)
	DeleteImport(ctx context.Context, ref string) error

	// Dataset operations
	GetEvents(ctx context.Context, importID string) ([]cohort.WebinarEvent, error)
	GetRoster(ctx context.Context, importID string) ([]cohort.StoreRecord, error)

	// Settings
	GetSetting(ctx context.Context, key string) (string, error)
	SetSetting(ctx context.Context, key, value string) error

	// Lifecycle
	Close() error
}
