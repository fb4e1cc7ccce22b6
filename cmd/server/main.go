// Command chunkhub-server runs the ChunkHub registry API.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	_ "go.uber.org/automaxprocs"
	"go.uber.org/zap"

	"github.com/and161185/chunkhub/internal/config"
	"github.com/and161185/chunkhub/internal/migrate"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	v := viper.New()
	var envDir string

	root := &cobra.Command{
		Use:           "chunkhub-server",
		Short:         "ChunkHub modpack registry API",
		Version:       version + " (" + buildDate + ")",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&envDir, "env-dir", ".", "directory holding an optional .env file")
	root.PersistentFlags().String("dsn", "", "PostgreSQL DSN (DATABASE_URL)")
	root.PersistentFlags().Bool("debug", false, "development logging (DEBUG)")
	_ = v.BindPFlag("DATABASE_URL", root.PersistentFlags().Lookup("dsn"))
	_ = v.BindPFlag("DEBUG", root.PersistentFlags().Lookup("debug"))

	load := func() (config.Config, *zap.Logger, error) {
		cfg, err := config.Load(v, envDir)
		if err != nil {
			return config.Config{}, nil, err
		}
		log, err := newLogger(cfg.Debug)
		if err != nil {
			return config.Config{}, nil, err
		}
		return cfg, log, nil
	}

	root.AddCommand(newServeCmd(v, load), newMigrateCmd(load))
	return root
}

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

type loader func() (config.Config, *zap.Logger, error)

func newMigrateCmd(load loader) *cobra.Command {
	return &cobra.Command{
		Use:       "migrate [up|down|status|version]",
		Short:     "Apply or inspect database migrations",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"up", "down", "status", "version"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := load()
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			command := "up"
			if len(args) == 1 {
				command = args[0]
			}
			log.Info("migrate", zap.String("command", command))
			return migrate.Run(cmd.Context(), cfg.DatabaseURL, command)
		},
	}
}
