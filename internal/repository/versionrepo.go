package repository

import (
	"context"

	"github.com/and161185/chunkhub/internal/model"
)

// VersionRepository provides access to the releases of a modpack.
type VersionRepository interface {
	// Create inserts a version; a duplicate (modpack, label) yields errs.ErrAlreadyExists.
	Create(ctx context.Context, v *model.ModpackVersion) error
	// Get loads one version by its label.
	Get(ctx context.Context, modpackID int64, label string) (*model.ModpackVersion, error)
	// List returns versions newest first (created_at, then id).
	List(ctx context.Context, modpackID int64, stableOnly bool) ([]model.ModpackVersion, error)
	// Latest returns the newest version matching the stability filter.
	Latest(ctx context.Context, modpackID int64, stableOnly bool) (*model.ModpackVersion, error)
	// IncrementDownloads atomically bumps the counter and returns the new value.
	IncrementDownloads(ctx context.Context, id int64) (int64, error)
	// SetFile stores or clears (nil, nil) the artifact reference of a version.
	SetFile(ctx context.Context, id int64, downloadURL *string, size *int64) error
}
