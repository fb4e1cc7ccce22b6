package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/require"

	"github.com/and161185/chunkhub/internal/errs"
	"github.com/and161185/chunkhub/internal/model"
)

var versionCols = []string{
	"id", "modpack_id", "version", "mc_version", "loader", "loader_version", "changelog",
	"download_url", "file_size", "downloads", "is_stable", "created_at",
}

func versionRow(rows *pgxmock.Rows, v model.ModpackVersion) *pgxmock.Rows {
	return rows.AddRow(v.ID, v.ModpackID, v.Version, v.MCVersion, v.Loader, v.LoaderVersion, v.Changelog,
		v.DownloadURL, v.FileSize, v.Downloads, v.IsStable, v.CreatedAt)
}

func sampleVersion(id int64, label string, stable bool) model.ModpackVersion {
	return model.ModpackVersion{
		ID: id, ModpackID: 1, Version: label, MCVersion: "1.20.1", Loader: "forge",
		LoaderVersion: (*string)(nil), Changelog: strp("changes"),
		DownloadURL: (*string)(nil), FileSize: (*int64)(nil),
		IsStable: stable, CreatedAt: time.Unix(1700000000+id, 0),
	}
}

func TestVersionRepo_Create(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewVersionRepo(db)
	ctx := context.Background()
	now := time.Now()

	v := &model.ModpackVersion{ModpackID: 1, Version: "1.0.0", MCVersion: "1.20.1", Loader: "forge", IsStable: true}
	mock.ExpectQuery(`INSERT INTO modpack_versions \(modpack_id, version, mc_version, loader, loader_version, changelog, download_url, file_size, is_stable\)`).
		WithArgs(v.ModpackID, v.Version, v.MCVersion, v.Loader, v.LoaderVersion, v.Changelog, v.DownloadURL, v.FileSize, v.IsStable).
		WillReturnRows(pgxmock.NewRows([]string{"id", "downloads", "created_at"}).AddRow(int64(8), int64(0), now))
	require.NoError(t, r.Create(ctx, v))
	require.Equal(t, int64(8), v.ID)

	mock.ExpectQuery(`INSERT INTO modpack_versions`).
		WithArgs(v.ModpackID, v.Version, v.MCVersion, v.Loader, v.LoaderVersion, v.Changelog, v.DownloadURL, v.FileSize, v.IsStable).
		WillReturnError(&pgconn.PgError{Code: "23505"})
	require.ErrorIs(t, r.Create(ctx, v), errs.ErrAlreadyExists)

	mock.ExpectQuery(`INSERT INTO modpack_versions`).
		WithArgs(v.ModpackID, v.Version, v.MCVersion, v.Loader, v.LoaderVersion, v.Changelog, v.DownloadURL, v.FileSize, v.IsStable).
		WillReturnError(&pgconn.PgError{Code: "22001"})
	err := r.Create(ctx, v)
	require.ErrorIs(t, err, errs.ErrInvalidInput)
	require.NotErrorIs(t, err, errs.ErrAlreadyExists)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestVersionRepo_GetListLatest(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewVersionRepo(db)
	ctx := context.Background()

	v2, v1 := sampleVersion(2, "1.1.0", false), sampleVersion(1, "1.0.0", true)

	mock.ExpectQuery(`FROM modpack_versions WHERE modpack_id=\$1 AND version=\$2`).
		WithArgs(int64(1), "1.0.0").
		WillReturnRows(versionRow(pgxmock.NewRows(versionCols), v1))
	got, err := r.Get(ctx, 1, "1.0.0")
	require.NoError(t, err)
	require.Equal(t, v1, *got)

	mock.ExpectQuery(`FROM modpack_versions WHERE modpack_id=\$1 AND version=\$2`).
		WithArgs(int64(1), "9.9").WillReturnError(pgx.ErrNoRows)
	_, err = r.Get(ctx, 1, "9.9")
	require.ErrorIs(t, err, errs.ErrNotFound)

	mock.ExpectQuery(`WHERE modpack_id=\$1 AND \(NOT \$2::boolean OR is_stable\) ORDER BY created_at DESC, id DESC`).
		WithArgs(int64(1), false).
		WillReturnRows(versionRow(versionRow(pgxmock.NewRows(versionCols), v2), v1))
	list, err := r.List(ctx, 1, false)
	require.NoError(t, err)
	require.Equal(t, []model.ModpackVersion{v2, v1}, list)

	mock.ExpectQuery(`ORDER BY created_at DESC, id DESC LIMIT 1`).
		WithArgs(int64(1), true).
		WillReturnRows(versionRow(pgxmock.NewRows(versionCols), v1))
	latest, err := r.Latest(ctx, 1, true)
	require.NoError(t, err)
	require.Equal(t, "1.0.0", latest.Version)

	mock.ExpectQuery(`LIMIT 1`).WithArgs(int64(2), false).WillReturnError(pgx.ErrNoRows)
	_, err = r.Latest(ctx, 2, false)
	require.ErrorIs(t, err, errs.ErrNotFound)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestVersionRepo_IncrementAndSetFile(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewVersionRepo(db)
	ctx := context.Background()

	mock.ExpectQuery(`UPDATE modpack_versions SET downloads = downloads \+ 1 WHERE id=\$1 RETURNING downloads`).
		WithArgs(int64(3)).
		WillReturnRows(pgxmock.NewRows([]string{"downloads"}).AddRow(int64(1)))
	n, err := r.IncrementDownloads(ctx, 3)
	require.NoError(t, err)
	require.Equal(t, int64(1), n)

	url, size := strp("/uploads/p-1.0.zip"), int64(2048)
	mock.ExpectExec(`UPDATE modpack_versions SET download_url=\$2, file_size=\$3 WHERE id=\$1`).
		WithArgs(int64(3), url, &size).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	require.NoError(t, r.SetFile(ctx, 3, url, &size))

	mock.ExpectExec(`UPDATE modpack_versions SET download_url`).
		WithArgs(int64(99), (*string)(nil), (*int64)(nil)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	require.ErrorIs(t, r.SetFile(ctx, 99, nil, nil), errs.ErrNotFound)

	require.NoError(t, mock.ExpectationsWereMet())
}
