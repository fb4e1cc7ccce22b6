package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/and161185/chunkhub/internal/auth"
	"github.com/and161185/chunkhub/internal/config"
	"github.com/and161185/chunkhub/internal/limiter"
	"github.com/and161185/chunkhub/internal/migrate"
	"github.com/and161185/chunkhub/internal/repository/postgres"
	httpserver "github.com/and161185/chunkhub/internal/server/http"
	"github.com/and161185/chunkhub/internal/service"
	"github.com/and161185/chunkhub/internal/storage"
)

// Per-client budgets for the rate-limited routes.
const (
	rootPerMinute   = 100
	searchPerMinute = 30
)

func newServeCmd(v *viper.Viper, load loader) *cobra.Command {
	var autoMigrate bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := load()
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()
			return serve(cmd.Context(), cfg, log, autoMigrate)
		},
	}
	f := cmd.Flags()
	f.String("host", "", "listen host (API_HOST)")
	f.Int("port", 0, "listen port (API_PORT)")
	f.String("upload-dir", "", "artifact directory for local storage (UPLOAD_DIR)")
	f.String("storage", "", "storage backend: local or s3 (STORAGE_BACKEND)")
	f.BoolVar(&autoMigrate, "migrate", true, "apply pending migrations before serving")
	for key, name := range map[string]string{
		"API_HOST":        "host",
		"API_PORT":        "port",
		"UPLOAD_DIR":      "upload-dir",
		"STORAGE_BACKEND": "storage",
	} {
		_ = v.BindPFlag(key, f.Lookup(name))
	}
	return cmd
}

func serve(ctx context.Context, cfg config.Config, log *zap.Logger, autoMigrate bool) error {
	log.Info("starting",
		zap.String("version", version),
		zap.String("buildDate", buildDate),
		zap.String("addr", cfg.Addr()),
		zap.String("storage", cfg.StorageBackend),
	)

	if autoMigrate {
		if err := migrate.Up(ctx, cfg.DatabaseURL); err != nil {
			return fmt.Errorf("migrate up: %w", err)
		}
	}

	db, err := postgres.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer db.Close()

	store, err := newStore(ctx, cfg)
	if err != nil {
		return err
	}

	users := postgres.NewUserRepo(db)
	packs := postgres.NewModpackRepo(db)
	versions := postgres.NewVersionRepo(db)

	loginLim := limiter.NewPG(db.Pool, cfg.LoginWindow, cfg.LoginMaxFails, cfg.LoginBlockFor)
	limits := requestLimits(db.Pool, cfg.RateLimitEnabled)

	svc := httpserver.Services{
		Auth:     service.NewAuthService(users, auth.NewTokens([]byte(cfg.SecretKey), cfg.AccessTTL()), loginLim),
		Modpacks: service.NewModpackService(packs, store, log),
		Versions: service.NewVersionService(packs, versions),
		Uploads:  service.NewUploadService(packs, versions, store, cfg.MaxFileSize, log),
		Projects: service.NewProjectService(packs, versions, users),
	}
	api := httpserver.New(svc, store, limits, log)

	srv := &http.Server{
		Addr: cfg.Addr(),
		Handler: api.Handler(httpserver.Options{
			AllowedOrigins: cfg.AllowedOrigins,
			TrustProxy:     cfg.TrustProxy,
		}),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", zap.String("addr", srv.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(sctx); err != nil {
			log.Warn("forced shutdown", zap.Error(err))
			_ = srv.Close()
		}
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
	}

	log.Info("shutdown complete")
	return nil
}

func newStore(ctx context.Context, cfg config.Config) (storage.Store, error) {
	if cfg.StorageBackend == config.BackendS3 {
		client, err := storage.NewS3Client(ctx, storage.S3Options{
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
		})
		if err != nil {
			return nil, fmt.Errorf("s3 client: %w", err)
		}
		return storage.NewS3(client, cfg.S3Bucket), nil
	}
	local, err := storage.NewLocal(cfg.UploadDir)
	if err != nil {
		return nil, fmt.Errorf("upload dir: %w", err)
	}
	return local, nil
}

// requestLimits builds the per-route request limiters. Login lockout is
// configured separately and stays on when these are disabled.
func requestLimits(pool limiter.Querier, enabled bool) httpserver.Limits {
	if !enabled {
		return httpserver.Limits{Root: limiter.Nop{}, Search: limiter.Nop{}}
	}
	return httpserver.Limits{
		Root:   limiter.NewPGWindow(pool, "root", rootPerMinute, time.Minute),
		Search: limiter.NewPGWindow(pool, "search", searchPerMinute, time.Minute),
	}
}
