package commands

import (
	"fmt"
	"titechportal/internal/components/chrono"
	"titechportal/internal/components/serviceutil"
	"titechportal/internal/mockportal"

	"github.com/spf13/cobra"
)

var (
	mockPort   *int
	mockSkip   *bool
	mockTotp   *bool
	mockNoGrid *bool
)

func init() {
	mockPort = mockCmd.Flags().Int("port", 8080, "The port to listen on.")
	mockSkip = mockCmd.Flags().Bool("skip-otp", false, "Go straight from the password page to the matrix page.")
	mockTotp = mockCmd.Flags().Bool("totp", false, "Show the token authentication page instead of the otp method selection.")
	mockNoGrid = mockCmd.Flags().Bool("no-grid", false, "Do not offer matrix authentication as an otp method.")
	rootCmd.AddCommand(mockCmd)
}

var mockCmd = &cobra.Command{
	Use:   "mock [--port 8080]",
	Short: "Serves a mock of the portal login, log in with --endpoint http://localhost:<port>.",
	RunE: func(cmd *cobra.Command, args []string) error {
		g := getGlobals(cmd.Context())

		server := mockportal.NewServer(mockportal.Options{
			SkipOtp:      *mockSkip,
			TotpVariant:  *mockTotp,
			NoGridOption: *mockNoGrid,
		}, g.tel, chrono.NewStandardTime())

		fmt.Printf(
			"Mock account: %s / %s, every matrix cell is %q.\n",
			mockportal.DefaultAccount.Username,
			mockportal.DefaultAccount.Password,
			mockportal.DefaultAccount.Matrix[mockportal.DefaultChallenge[0]],
		)
		return serviceutil.ServeHttp(cmd.Context(), fmt.Sprintf("0.0.0.0:%d", *mockPort), server)
	},
}
