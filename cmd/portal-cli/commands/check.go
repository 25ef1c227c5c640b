package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(checkCmd)
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Checks the username and password of the config without answering the matrix code.",
	RunE: func(cmd *cobra.Command, args []string) error {
		g := getGlobals(cmd.Context())
		if err := g.requireCredentials(); err != nil {
			return err
		}

		client, err := g.newClient()
		if err != nil {
			return err
		}
		ok, err := client.CheckCredentials(cmd.Context(), g.config.Username, g.config.Password)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("the portal rejected the password of %s", g.config.Username)
		}

		fmt.Printf("The password of %s is valid.\n", g.config.Username)
		return nil
	},
}
