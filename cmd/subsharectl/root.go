package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"gitlab.com/subshare/subshare/internal/database"
	"gitlab.com/subshare/subshare/internal/lifecycle"
	"gitlab.com/subshare/subshare/internal/repository"
)

// rootOptions are the flags shared by every subcommand.
type rootOptions struct {
	databaseURL string
	codePrefix  string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:          "subsharectl",
		Short:        "SubShare catalog tooling",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&opts.databaseURL, "database-url", os.Getenv("DATABASE_URL"),
		"PostgreSQL connection string")
	root.PersistentFlags().StringVar(&opts.codePrefix, "prefix", envOr("CODE_PREFIX", "SF"),
		"listing code prefix")

	root.AddCommand(
		newParseCmd(opts),
		newCodesCmd(opts),
		newExportCmd(opts),
		newImportCmd(opts),
		newAdminCmd(opts),
		newTokenCmd(),
	)
	return root
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// readInput reads the named file, or stdin when name is "-" or missing.
func readInput(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", args[0], err)
	}
	return string(data), nil
}

// connect opens the database and builds a controller over it. The returned
// func closes the pool.
func (o *rootOptions) connect(ctx context.Context) (*pgxpool.Pool, *lifecycle.Controller, func(), error) {
	if o.databaseURL == "" {
		return nil, nil, nil, fmt.Errorf("--database-url or DATABASE_URL is required")
	}
	pool, err := database.Connect(ctx, o.databaseURL)
	if err != nil {
		return nil, nil, nil, err
	}
	if err := database.RunMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, nil, err
	}
	ctrl := lifecycle.New(repository.NewStores(pool), repository.NewTransactor(pool),
		lifecycle.Config{CodePrefix: o.codePrefix})
	return pool, ctrl, pool.Close, nil
}
