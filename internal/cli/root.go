package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"ckd_auth_service/internal/app"
	"ckd_auth_service/internal/config"

	"github.com/spf13/cobra"
)

// Opener builds the application from a loaded config.
type Opener func(ctx context.Context, cfg *config.Config, log *slog.Logger) (*app.App, error)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
	Verbose    bool

	open Opener
}

func NewRootCommand() *cobra.Command {
	return newRootCommand(app.New)
}

func newRootCommand(open Opener) *cobra.Command {
	opts := &RootOptions{open: open}

	cmd := &cobra.Command{
		Use:   "authctl",
		Short: "Operator tool for the CKD auth service",
		Long:  "Run migrations, sweep expired sessions and read dashboard counters without the HTTP server.",
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "path to the YAML config file")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	_ = cmd.MarkPersistentFlagRequired("config")

	cmd.AddCommand(NewMigrateCommand(opts))
	cmd.AddCommand(NewSweepCommand(opts))
	cmd.AddCommand(NewStatsCommand(opts))

	return cmd
}

type env struct {
	app *app.App
	cfg *config.Config
	log *slog.Logger
}

// openApp loads the config and opens the application. Logs go to the
// command's stderr so stdout stays machine readable.
func (o *RootOptions) openApp(cmd *cobra.Command) (*env, error) {
	cfg, err := config.LoadConfig(o.ConfigPath)
	if err != nil {
		return nil, err
	}

	log := o.logger(cmd.ErrOrStderr())

	a, err := o.open(cmd.Context(), cfg, log)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}

	return &env{app: a, cfg: cfg, log: log}, nil
}

func (o *RootOptions) logger(w io.Writer) *slog.Logger {
	level := slog.LevelWarn
	if o.Verbose {
		level = slog.LevelDebug
	}

	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
