package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/payables/internal/application"
	"github.com/JonMunkholm/payables/internal/config"
	"github.com/JonMunkholm/payables/internal/core"
	"github.com/JonMunkholm/payables/internal/store"
)

// ─── import ─────────────────────────────────────────────────────────────────

func newImportCmd() *cobra.Command {
	var validate bool

	cmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Import accounts payable from a CSV file",
		Long: `Parse FILE as CSV and save every row that parses as one batch.
Rows that fail to parse are reported and skipped. With --validate, rows
that fail record validation are skipped as well.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			info, err := f.Stat()
			if err != nil {
				return err
			}

			adjust := func(cfg *config.Config) {
				if validate {
					cfg.Upload.ValidateOnImport = true
				}
			}
			return withApp(cmd, adjust, func(ctx context.Context, app *application.App) error {
				res, err := app.Service.ImportCSV(ctx, core.Upload{
					FileName: filepath.Base(args[0]),
					Size:     uploadSize(info),
					Body:     f,
				})
				if err != nil {
					return userError(err)
				}
				return printJSON(cmd, res)
			})
		},
	}

	cmd.Flags().BoolVar(&validate, "validate", false, "Skip rows that fail record validation")
	return cmd
}

// uploadSize reports -1 for pipes and devices, whose Stat size says nothing
// about the content.
func uploadSize(info os.FileInfo) int64 {
	if !info.Mode().IsRegular() {
		return -1
	}
	return info.Size()
}

// ─── total-paid ─────────────────────────────────────────────────────────────

func newTotalPaidCmd() *cobra.Command {
	var start, end string

	cmd := &cobra.Command{
		Use:   "total-paid",
		Short: "Sum the amounts of records due within a date range",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			startDate, err := parseDateFlag("start", start)
			if err != nil {
				return err
			}
			endDate, err := parseDateFlag("end", end)
			if err != nil {
				return err
			}

			return withApp(cmd, nil, func(ctx context.Context, app *application.App) error {
				total, err := app.Service.TotalPaid(ctx, startDate, endDate)
				if err != nil {
					return userError(err)
				}
				return printJSON(cmd, struct {
					TotalPaid decimal.Decimal `json:"totalPaid"`
				}{total})
			})
		},
	}

	cmd.Flags().StringVar(&start, "start", "", "First due date, yyyy-mm-dd (inclusive)")
	cmd.Flags().StringVar(&end, "end", "", "Last due date, yyyy-mm-dd (inclusive)")
	cmd.MarkFlagRequired("start")
	cmd.MarkFlagRequired("end")
	return cmd
}

// ─── get ────────────────────────────────────────────────────────────────────

func newGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get ID",
		Short: "Show one accounts payable record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid id %q: %w", args[0], err)
			}

			return withApp(cmd, nil, func(ctx context.Context, app *application.App) error {
				p, err := app.Service.ByID(ctx, id)
				if err != nil {
					return userError(err)
				}
				return printJSON(cmd, p)
			})
		},
	}
}

// ─── list ───────────────────────────────────────────────────────────────────

func newListCmd() *cobra.Command {
	var (
		dueDate     string
		description string
		page, size  int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List records, optionally filtered by due date and description",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			q := core.Query{Page: core.Page{Number: page, Size: size}}
			if dueDate != "" {
				d, err := parseDateFlag("due-date", dueDate)
				if err != nil {
					return err
				}
				q.DueDate = &d
			}
			if cmd.Flags().Changed("description") {
				q.Description = &description
			}

			return withApp(cmd, nil, func(ctx context.Context, app *application.App) error {
				res, err := app.Service.Query(ctx, q)
				if err != nil {
					return err
				}
				if res.Items == nil {
					res.Items = []core.AccountsPayable{}
				}
				return printJSON(cmd, res)
			})
		},
	}

	cmd.Flags().StringVar(&dueDate, "due-date", "", "Only records due on this date (yyyy-mm-dd)")
	cmd.Flags().StringVar(&description, "description", "", "Only records whose description contains this text")
	cmd.Flags().IntVar(&page, "page", 0, "Page number, 0-based")
	cmd.Flags().IntVar(&size, "size", 0, "Page size; 0 lists everything")
	return cmd
}

// ─── migrate ────────────────────────────────────────────────────────────────

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			cfg.Database.AutoMigrate = false

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			repo, err := store.Open(ctx, cfg.Database)
			if err != nil {
				return err
			}
			defer repo.Close()

			if err := repo.Migrate(ctx); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "migrations applied (%s)\n", cfg.Database.Driver)
			return nil
		},
	}
}

func parseDateFlag(name, value string) (civil.Date, error) {
	d, err := civil.ParseDate(value)
	if err != nil {
		return civil.Date{}, fmt.Errorf("--%s must be a date in yyyy-mm-dd format: %w", name, err)
	}
	return d, nil
}

// userError prefixes errors with a known support code with their user message.
func userError(err error) error {
	if !core.IsUserFacing(err) {
		return err
	}
	return fmt.Errorf("%s: %w", core.FormatUserError(err), err)
}
