package repository

import (
	"context"

	"github.com/and161185/chunkhub/internal/model"
)

// ModpackRepository provides access to modpack records.
type ModpackRepository interface {
	// Create inserts a modpack and fills server-assigned fields.
	Create(ctx context.Context, m *model.Modpack) error
	// GetBySlug loads a modpack regardless of its publish state.
	GetBySlug(ctx context.Context, slug string) (*model.Modpack, error)
	// List returns modpacks matching the filter ordered by id.
	List(ctx context.Context, f model.ModpackFilter) ([]model.Modpack, error)
	// Search returns published modpacks whose name or description matches.
	Search(ctx context.Context, q model.SearchQuery) ([]model.Modpack, error)
	// Update applies the set fields of the patch and returns the new row.
	Update(ctx context.Context, id int64, p model.ModpackPatch) (*model.Modpack, error)
	// Delete removes the modpack with its versions and returns the labels and
	// download URLs of the removed versions that referenced a file.
	Delete(ctx context.Context, id int64) ([]model.ModpackVersion, error)
	// IncrementDownloads atomically bumps the counter and returns the new value.
	IncrementDownloads(ctx context.Context, id int64) (int64, error)
}
