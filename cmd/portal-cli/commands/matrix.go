package commands

import (
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(matrixCmd)
}

var matrixCmd = &cobra.Command{
	Use:   "matrix",
	Short: "Prints the cells the portal currently challenges and whether the config has them.",
	RunE: func(cmd *cobra.Command, args []string) error {
		g := getGlobals(cmd.Context())
		if err := g.requireCredentials(); err != nil {
			return err
		}

		client, err := g.newClient()
		if err != nil {
			return err
		}
		matrices, err := client.FetchCurrentMatrix(cmd.Context(), g.config.Username, g.config.Password)
		if err != nil {
			return err
		}

		printAnswered(g, matrices)
		return nil
	},
}
