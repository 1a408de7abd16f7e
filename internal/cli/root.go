// Package cli implements payablesctl, the command-line client that runs
// ledger operations directly against the configured repository.
package cli

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/payables/internal/application"
	"github.com/JonMunkholm/payables/internal/config"
	"github.com/JonMunkholm/payables/internal/logging"
)

// Execute runs payablesctl with os.Args.
func Execute() error {
	return NewRootCmd().Execute()
}

// NewRootCmd builds the command tree. Each call returns fresh flag state.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "payablesctl",
		Short: "Manage the accounts payable ledger",
		Long: `payablesctl imports CSV files and queries the accounts payable ledger
using the same configuration (environment, .env and CONFIG_FILE) as the server.`,
		SilenceUsage: true,
	}

	root.AddCommand(
		newImportCmd(),
		newTotalPaidCmd(),
		newGetCmd(),
		newListCmd(),
		newMigrateCmd(),
	)
	return root
}

// loadConfig reads configuration and sends logs to stderr so stdout stays
// machine-readable. Unlike the server, a .env file does not override the
// shell environment.
func loadConfig() (*config.Config, error) {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logging.New(os.Stderr, cfg.Logging.Level, cfg.Logging.Format))
	return cfg, nil
}

// withApp runs fn against an application built from the loaded config.
// adjust, if set, may modify the config first.
func withApp(cmd *cobra.Command, adjust func(*config.Config), fn func(ctx context.Context, app *application.App) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if adjust != nil {
		adjust(cfg)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	app, err := application.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	return fn(ctx, app)
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
