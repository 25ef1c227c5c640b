package commands

import (
	"errors"
	"fmt"
	"titechportal/pkg/portal"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(loginCmd)
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Logs in with the account of the config and reports the outcome.",
	RunE: func(cmd *cobra.Command, args []string) error {
		g := getGlobals(cmd.Context())
		if err := g.requireCredentials(); err != nil {
			return err
		}

		client, err := g.newClient()
		if err != nil {
			return err
		}

		err = client.Login(cmd.Context(), g.account())
		if errors.Is(err, portal.ErrAlreadyLoggedIn) {
			fmt.Printf("%s is already logged in.\n", g.config.Username)
			return nil
		}
		var loginErr *portal.LoginError
		if errors.As(err, &loginErr) && len(loginErr.Matrices) > 0 {
			printAnswered(g, loginErr.Matrices)
		}
		if err != nil {
			return err
		}

		fmt.Printf("Logged in as %s.\n", g.config.Username)
		return nil
	},
}

// printAnswered shows which of the rejected cells had a secret configured,
// the secrets themselves are never printed.
func printAnswered(g *globals, matrices []portal.Matrix) {
	t := newTable()
	t.AppendHeader(table.Row{"Cell", "Configured"})
	for _, m := range matrices {
		_, ok := g.matrix[m]
		t.AppendRow(table.Row{m.String(), ok})
	}
	t.Render()
}
