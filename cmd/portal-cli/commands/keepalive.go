package commands

import (
	"fmt"
	"log/slog"
	"time"
	"titechportal/internal/components/chrono"
	"titechportal/internal/components/telemetry"
	"titechportal/internal/sessions"

	"github.com/spf13/cobra"
)

var keepaliveInterval *time.Duration

func init() {
	keepaliveInterval = keepaliveCmd.Flags().Duration("interval", time.Minute*10, "How often the session is probed.")
	rootCmd.AddCommand(keepaliveCmd)
}

var keepaliveCmd = &cobra.Command{
	Use:   "keepalive [--interval 10m]",
	Short: "Keeps a session logged in, logging in again whenever the portal drops it.",
	RunE: func(cmd *cobra.Command, args []string) error {
		g := getGlobals(cmd.Context())
		if err := g.requireCredentials(); err != nil {
			return err
		}
		if *keepaliveInterval < time.Second {
			return fmt.Errorf("interval must be at least a second")
		}
		ctx := cmd.Context()

		cache := sessions.NewCache(sessions.Options{
			Size: 1,
			// the probe decides when to log in again, not the ttl
			TTL: *keepaliveInterval * 100,
		}, g.newClient, g.tel)
		account := g.account()

		refresh := func() {
			_, err := cache.Get(ctx, account)
			if err != nil {
				slog.Error("failed to keep session alive", "username", account.Username, "err", err)
				return
			}
			slog.Info("session is alive", "username", account.Username)
		}

		refresh()

		telemetry.InstrumentPerfStats(ctx, g.tel, time.Minute)

		cron := chrono.NewStandardCron(g.tel)
		err := cron.Cron(fmt.Sprintf("@every %s", *keepaliveInterval), refresh)
		if err != nil {
			<-cron.Stop()
			return err
		}

		<-ctx.Done()
		<-cron.Stop()
		return nil
	},
}
