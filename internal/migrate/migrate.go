// Package migrate applies the embedded SQL migrations.
package migrate

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/and161185/chunkhub/migrations"
)

// Up runs all pending migrations.
func Up(ctx context.Context, dsn string) error { return Run(ctx, dsn, "up") }

// Run executes a goose command ("up", "down", "status", "version") against dsn.
func Run(ctx context.Context, dsn, command string) error {
	switch command {
	case "up", "down", "status", "version":
	default:
		return fmt.Errorf("migrate: unknown command %q", command)
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return err
	}
	defer db.Close()

	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	return goose.RunContext(ctx, command, db, ".")
}
