package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"titechportal/internal/components/telemetry"

	"github.com/spf13/cobra"
)

var (
	configPath *string
	endpoint   *string
	debug      *bool
)

// shutdown flushes the otel providers if telemetry.json5 was found.
var shutdown = func(context.Context) error { return nil }

func init() {
	configPath = rootCmd.PersistentFlags().String("config", "config.json5", "The config file with the account to log in as.")
	endpoint = rootCmd.PersistentFlags().String("endpoint", "", "Overrides the endpoint of the config: production, mock or an origin like http://localhost:8080.")
	debug = rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging.")
}

var rootCmd = &cobra.Command{
	Use:           "portal-cli",
	Short:         "portal-cli logs into the Titech portal with a password and matrix code.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		telemetry.InitSlog(*debug)

		otel, err := telemetry.SetupFromEnv(cmd.Context(), "portal-cli")
		switch {
		case err == nil:
			shutdown = otel.Shutdown
		case errors.Is(err, os.ErrNotExist):
			slog.Debug("no telemetry.json5 found, otel is disabled")
		default:
			slog.Warn("failed to setup otel", "err", err)
		}

		g, err := loadGlobals(*configPath, *endpoint, *debug)
		if err != nil {
			return err
		}
		cmd.SetContext(withGlobals(cmd.Context(), g))
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return shutdown(context.WithoutCancel(cmd.Context()))
	},
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
