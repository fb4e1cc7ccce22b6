package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/and161185/chunkhub/internal/errs"
	"github.com/and161185/chunkhub/internal/model"
)

// ModpackRepo implements ModpackRepository using PostgreSQL.
type ModpackRepo struct{ db *DB }

// NewModpackRepo constructs a modpack repository.
func NewModpackRepo(db *DB) *ModpackRepo { return &ModpackRepo{db: db} }

const modpackColumns = `id, name, slug, description, mc_version, loader, loader_version, ` +
	`recommended_ram_gb, downloads, is_published, author_id, created_at, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanModpack(row scanner) (*model.Modpack, error) {
	var m model.Modpack
	err := row.Scan(&m.ID, &m.Name, &m.Slug, &m.Description, &m.MCVersion, &m.Loader, &m.LoaderVersion,
		&m.RecommendedRAMGB, &m.Downloads, &m.IsPublished, &m.AuthorID, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// Create inserts a modpack row; the slug unique index guards duplicates.
func (r *ModpackRepo) Create(ctx context.Context, m *model.Modpack) error {
	const q = `
INSERT INTO modpacks (name, slug, description, mc_version, loader, loader_version, recommended_ram_gb, author_id)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING id, downloads, is_published, created_at`
	err := r.db.Pool.QueryRow(ctx, q,
		m.Name, m.Slug, m.Description, m.MCVersion, m.Loader, m.LoaderVersion, m.RecommendedRAMGB, m.AuthorID,
	).Scan(&m.ID, &m.Downloads, &m.IsPublished, &m.CreatedAt)
	if isUniqueViolation(err) {
		return fmt.Errorf("modpack %q: %w", m.Slug, errs.ErrAlreadyExists)
	}
	return tooLong(err)
}

// GetBySlug selects a modpack by slug.
func (r *ModpackRepo) GetBySlug(ctx context.Context, slug string) (*model.Modpack, error) {
	const q = `SELECT ` + modpackColumns + ` FROM modpacks WHERE slug=$1`
	m, err := scanModpack(r.db.Pool.QueryRow(ctx, q, slug))
	if err != nil {
		return nil, notFound(err)
	}
	return m, nil
}

// List returns a page of modpacks ordered by id. When PublishedOnly is false,
// unpublished rows are included only for their author.
func (r *ModpackRepo) List(ctx context.Context, f model.ModpackFilter) ([]model.Modpack, error) {
	const q = `
SELECT ` + modpackColumns + `
FROM modpacks
WHERE ($1 = '' OR mc_version = $1)
  AND ($2 = '' OR loader = $2)
  AND (is_published OR (NOT $3::boolean AND author_id = $4))
ORDER BY id ASC
OFFSET $5 LIMIT $6`
	return r.query(ctx, q, f.MCVersion, f.Loader, f.PublishedOnly, f.CallerID, f.Skip, f.Limit)
}

// Search matches published modpacks by name or description, most downloaded first.
func (r *ModpackRepo) Search(ctx context.Context, s model.SearchQuery) ([]model.Modpack, error) {
	const q = `
SELECT ` + modpackColumns + `
FROM modpacks
WHERE is_published
  AND (name ILIKE $1 OR description ILIKE $1)
  AND ($2 = '' OR mc_version = $2)
  AND ($3 = '' OR loader = $3)
ORDER BY downloads DESC, id ASC
OFFSET $4 LIMIT $5`
	pattern := "%" + escapeLike(strings.ToLower(s.Q)) + "%"
	return r.query(ctx, q, pattern, s.MCVersion, s.Loader, s.Skip, s.Limit)
}

func (r *ModpackRepo) query(ctx context.Context, q string, args ...any) ([]model.Modpack, error) {
	rows, err := r.db.Pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Modpack{}
	for rows.Next() {
		m, err := scanModpack(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *m)
	}
	return out, rows.Err()
}

// Update writes only the fields set in the patch and bumps updated_at.
func (r *ModpackRepo) Update(ctx context.Context, id int64, p model.ModpackPatch) (*model.Modpack, error) {
	var (
		sets []string
		args = []any{id}
	)
	add := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s=$%d", col, len(args)))
	}
	if p.Name.Set {
		add("name", p.Name.Val)
	}
	if p.Description.Set {
		add("description", nullable(p.Description))
	}
	if p.MCVersion.Set {
		add("mc_version", p.MCVersion.Val)
	}
	if p.Loader.Set {
		add("loader", p.Loader.Val)
	}
	if p.LoaderVersion.Set {
		add("loader_version", nullable(p.LoaderVersion))
	}
	if p.RecommendedRAMGB.Set {
		add("recommended_ram_gb", p.RecommendedRAMGB.Val)
	}
	if p.IsPublished.Set {
		add("is_published", p.IsPublished.Val)
	}
	sets = append(sets, "updated_at=now()")

	q := `UPDATE modpacks SET ` + strings.Join(sets, ", ") + ` WHERE id=$1 RETURNING ` + modpackColumns
	m, err := scanModpack(r.db.Pool.QueryRow(ctx, q, args...))
	if err != nil {
		return nil, tooLong(notFound(err))
	}
	return m, nil
}

// Delete removes a modpack; versions go with it through ON DELETE CASCADE.
// The versions that referenced a file are collected in the same transaction
// so the caller can drop the stored artifacts.
func (r *ModpackRepo) Delete(ctx context.Context, id int64) ([]model.ModpackVersion, error) {
	var files []model.ModpackVersion
	err := r.db.WithTx(ctx, func(tx pgx.Tx) error {
		const sel = `SELECT version, download_url FROM modpack_versions WHERE modpack_id=$1 AND download_url IS NOT NULL FOR UPDATE`
		rows, err := tx.Query(ctx, sel, id)
		if err != nil {
			return err
		}
		for rows.Next() {
			v := model.ModpackVersion{ModpackID: id}
			if err := rows.Scan(&v.Version, &v.DownloadURL); err != nil {
				rows.Close()
				return err
			}
			files = append(files, v)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return err
		}

		tag, err := tx.Exec(ctx, `DELETE FROM modpacks WHERE id=$1`, id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return errs.ErrNotFound
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

// IncrementDownloads bumps the modpack counter in a single statement.
func (r *ModpackRepo) IncrementDownloads(ctx context.Context, id int64) (int64, error) {
	const q = `UPDATE modpacks SET downloads = downloads + 1 WHERE id=$1 RETURNING downloads`
	var n int64
	if err := r.db.Pool.QueryRow(ctx, q, id).Scan(&n); err != nil {
		return 0, notFound(err)
	}
	return n, nil
}

func nullable(o model.Opt[string]) any {
	if o.Null {
		return nil
	}
	return o.Val
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string { return likeEscaper.Replace(s) }
