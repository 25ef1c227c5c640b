package commands

import (
	"errors"
	"titechportal/pkg/portal"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var statusLogin *bool

func init() {
	statusLogin = statusCmd.Flags().Bool("login", false, "Log in before probing the session.")
	rootCmd.AddCommand(statusCmd)
}

var statusCmd = &cobra.Command{
	Use:   "status [--login]",
	Short: "Probes whether a session is logged in, the session is fresh unless --login is given.",
	RunE: func(cmd *cobra.Command, args []string) error {
		g := getGlobals(cmd.Context())

		client, err := g.newClient()
		if err != nil {
			return err
		}

		if *statusLogin {
			if err := g.requireCredentials(); err != nil {
				return err
			}
			err = client.Login(cmd.Context(), g.account())
			if err != nil && !errors.Is(err, portal.ErrAlreadyLoggedIn) {
				return err
			}
		}

		loggedIn, err := client.IsLoggedIn(cmd.Context())
		if err != nil {
			return err
		}

		t := newTable()
		t.AppendHeader(table.Row{"Endpoint", "Logged in"})
		t.AppendRow(table.Row{client.Endpoints().Origin, loggedIn})
		t.Render()
		return nil
	},
}
