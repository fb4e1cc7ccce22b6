package postgres

import (
	"context"
	"fmt"

	"github.com/and161185/chunkhub/internal/errs"
	"github.com/and161185/chunkhub/internal/model"
)

// VersionRepo implements VersionRepository using PostgreSQL.
type VersionRepo struct{ db *DB }

// NewVersionRepo constructs a version repository.
func NewVersionRepo(db *DB) *VersionRepo { return &VersionRepo{db: db} }

const versionColumns = `id, modpack_id, version, mc_version, loader, loader_version, changelog, ` +
	`download_url, file_size, downloads, is_stable, created_at`

func scanVersion(row scanner) (*model.ModpackVersion, error) {
	var v model.ModpackVersion
	err := row.Scan(&v.ID, &v.ModpackID, &v.Version, &v.MCVersion, &v.Loader, &v.LoaderVersion, &v.Changelog,
		&v.DownloadURL, &v.FileSize, &v.Downloads, &v.IsStable, &v.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// Create inserts a version row; (modpack_id, version) is unique.
func (r *VersionRepo) Create(ctx context.Context, v *model.ModpackVersion) error {
	const q = `
INSERT INTO modpack_versions (modpack_id, version, mc_version, loader, loader_version, changelog, download_url, file_size, is_stable)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
RETURNING id, downloads, created_at`
	err := r.db.Pool.QueryRow(ctx, q,
		v.ModpackID, v.Version, v.MCVersion, v.Loader, v.LoaderVersion, v.Changelog, v.DownloadURL, v.FileSize, v.IsStable,
	).Scan(&v.ID, &v.Downloads, &v.CreatedAt)
	if isUniqueViolation(err) {
		return fmt.Errorf("version %q: %w", v.Version, errs.ErrAlreadyExists)
	}
	return tooLong(err)
}

// Get selects a version by modpack and label.
func (r *VersionRepo) Get(ctx context.Context, modpackID int64, label string) (*model.ModpackVersion, error) {
	const q = `SELECT ` + versionColumns + ` FROM modpack_versions WHERE modpack_id=$1 AND version=$2`
	v, err := scanVersion(r.db.Pool.QueryRow(ctx, q, modpackID, label))
	if err != nil {
		return nil, notFound(err)
	}
	return v, nil
}

// List returns the versions of a modpack, newest first.
func (r *VersionRepo) List(ctx context.Context, modpackID int64, stableOnly bool) ([]model.ModpackVersion, error) {
	const q = `
SELECT ` + versionColumns + `
FROM modpack_versions
WHERE modpack_id=$1 AND (NOT $2::boolean OR is_stable)
ORDER BY created_at DESC, id DESC`
	rows, err := r.db.Pool.Query(ctx, q, modpackID, stableOnly)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.ModpackVersion{}
	for rows.Next() {
		v, err := scanVersion(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *v)
	}
	return out, rows.Err()
}

// Latest returns the newest version; equal timestamps fall back to the higher id.
func (r *VersionRepo) Latest(ctx context.Context, modpackID int64, stableOnly bool) (*model.ModpackVersion, error) {
	const q = `
SELECT ` + versionColumns + `
FROM modpack_versions
WHERE modpack_id=$1 AND (NOT $2::boolean OR is_stable)
ORDER BY created_at DESC, id DESC
LIMIT 1`
	v, err := scanVersion(r.db.Pool.QueryRow(ctx, q, modpackID, stableOnly))
	if err != nil {
		return nil, notFound(err)
	}
	return v, nil
}

// IncrementDownloads bumps the version counter in a single statement.
func (r *VersionRepo) IncrementDownloads(ctx context.Context, id int64) (int64, error) {
	const q = `UPDATE modpack_versions SET downloads = downloads + 1 WHERE id=$1 RETURNING downloads`
	var n int64
	if err := r.db.Pool.QueryRow(ctx, q, id).Scan(&n); err != nil {
		return 0, notFound(err)
	}
	return n, nil
}

// SetFile stores the artifact reference of a version; nil values clear it.
func (r *VersionRepo) SetFile(ctx context.Context, id int64, downloadURL *string, size *int64) error {
	const q = `UPDATE modpack_versions SET download_url=$2, file_size=$3 WHERE id=$1`
	tag, err := r.db.Pool.Exec(ctx, q, id, downloadURL, size)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}
