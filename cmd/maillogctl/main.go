// Command maillogctl runs maintenance tasks against a maillog install:
// schema migrations, retention sweeps (for an external cron), statistics,
// and test emails.  It reads the same configuration as cmd/web.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/yanizio/maillog/internal/app"
	"github.com/yanizio/maillog/internal/config"
	"github.com/yanizio/maillog/internal/database"
	"github.com/yanizio/maillog/internal/retention"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// rootFlags are shared by every subcommand.
type rootFlags struct {
	root    string
	verbose bool
}

// newRootCmd builds a fresh command tree.  Tests call it directly.
func newRootCmd() *cobra.Command {
	f := &rootFlags{}
	cmd := &cobra.Command{
		Use:   "maillogctl",
		Short: "maillog maintenance tool",
		Long: `maillogctl manages a maillog install: apply schema migrations,
purge old log rows, print statistics, and send test emails.

Configuration is read from <root>/conf/global.yaml with MAILLOG_ env
overrides, exactly like the web server.`,
		SilenceUsage: true,
		PersistentPreRun: func(*cobra.Command, []string) {
			l := zap.NewNop()
			if f.verbose {
				l, _ = zap.NewDevelopment()
			}
			zap.ReplaceGlobals(l)
		},
	}

	cmd.PersistentFlags().StringVar(&f.root, "root", "", "install root (default: MAILLOG_ROOT or discovered)")
	cmd.PersistentFlags().BoolVarP(&f.verbose, "verbose", "v", false, "enable verbose output")

	cmd.AddCommand(
		newVersionCmd(),
		newMigrateCmd(f),
		newSweepCmd(f),
		newStatsCmd(f),
		newSendTestCmd(f),
	)
	return cmd
}

// loadConfig honours --root, otherwise falls back to discovery.
func (f *rootFlags) loadConfig(ctx context.Context) (*config.Config, error) {
	if f.root == "" {
		return app.LoadConfig(ctx)
	}
	root, err := filepath.Abs(f.root)
	if err != nil {
		return nil, err
	}
	return config.LoadFrom(ctx, root, nil)
}

// withApp loads config, builds the app, and runs fn.
func (f *rootFlags) withApp(ctx context.Context, fn func(*app.App) error) error {
	cfg, err := f.loadConfig(ctx)
	if err != nil {
		return err
	}
	a, err := app.Build(ctx, cfg, zap.S())
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a)
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the build version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), app.Version)
		},
	}
}

func newMigrateCmd(f *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:       "migrate [up|down]",
		Short:     "Apply or revert the log-store schema",
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"up", "down"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := f.loadConfig(cmd.Context())
			if err != nil {
				return err
			}
			if len(args) == 1 && args[0] == "down" {
				if err := database.Rollback(cfg.Database); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "schema reverted")
				return nil
			}
			if err := database.Migrate(cfg.Database); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "schema up to date")
			return nil
		},
	}
}

func newSweepCmd(f *rootFlags) *cobra.Command {
	var days int
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Delete log rows older than the retention horizon",
		Long: `Run one retention sweep and exit.  Intended for cron when the
in-process loop is disabled (retention.days: 0 in the web config).`,
		Args:    cobra.NoArgs,
		Example: "  maillogctl sweep\n  maillogctl sweep --days 7",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return f.withApp(cmd.Context(), func(a *app.App) error {
				d := a.Config.Retention.Days
				if cmd.Flags().Changed("days") {
					d = days
				}
				if d <= 0 {
					d = retention.DefaultDays
				}
				n, err := retention.New(a.Store, d, 0, zap.S()).Run(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "removed %d log row(s) older than %d day(s)\n", n, d)
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&days, "days", 0, "override retention.days for this run")
	return cmd
}

func newStatsCmd(f *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print log statistics as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return f.withApp(cmd.Context(), func(a *app.App) error {
				st, err := a.Queries.HandleStats(cmd.Context())
				if err != nil {
					return err
				}
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(st)
			})
		},
	}
}

func newSendTestCmd(f *rootFlags) *cobra.Command {
	var (
		to, subject, message string
		html                 bool
	)
	cmd := &cobra.Command{
		Use:     "send-test",
		Short:   "Send a test email through the configured SMTP server",
		Args:    cobra.NoArgs,
		Example: "  maillogctl send-test --to admin@example.com --html",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return f.withApp(cmd.Context(), func(a *app.App) error {
				send := a.Tester.SendPlain
				if html {
					send = a.Tester.SendHTML
				}
				res := send(cmd.Context(), to, subject, message)
				fmt.Fprintln(cmd.OutOrStdout(), res.Message)
				return res.Err
			})
		},
	}
	cmd.Flags().StringVar(&to, "to", "", "recipient address (required)")
	cmd.Flags().StringVar(&subject, "subject", "", "subject (default: Test Email from <site>)")
	cmd.Flags().StringVar(&message, "message", "", "body (default: built-in template)")
	cmd.Flags().BoolVar(&html, "html", false, "send as HTML")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}
