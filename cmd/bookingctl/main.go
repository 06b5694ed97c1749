package main

import (
	"context"
	"fmt"
	"os"

	"marketplace_backend/platform/config"
	"marketplace_backend/platform/db"
	"marketplace_backend/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
)

// Version info set via ldflags at build time.
var (
	Version = "dev"
	Commit  = "none"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "bookingctl",
		Short:        "Booking engine administration",
		Long:         "bookingctl imports intake scripts and repairs operator queue counters.",
		SilenceUsage: true,
	}

	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newScriptCmd())
	cmd.AddCommand(newQueueCmd())
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "bookingctl %s (commit: %s)\n", Version, Commit)
		},
	}
}

// connect loads the environment config and opens a database pool.
func connect(ctx context.Context) (*pgxpool.Pool, *logger.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	log := logger.New(cfg.Env)

	pool, err := db.Connect(ctx, cfg, log)
	if err != nil {
		return nil, nil, fmt.Errorf("connect database: %w", err)
	}
	return pool, log, nil
}

func execute(cmd *cobra.Command) int {
	if err := cmd.Execute(); err != nil {
		return 1
	}
	return 0
}

func main() {
	os.Exit(execute(newRootCmd()))
}
