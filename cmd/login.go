package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Login to a microsoft account",
	Long:  "Runs the device code flow and caches the resulting credentials for authenticated launches",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ms, err := microsoftProvider()
		if err != nil {
			return err
		}

		if err := ms.Prompt(cmd.Context()); err != nil {
			return err
		}

		data, err := ms.LaunchAuthData(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("Logged in as %s\n", data.GetPlayerName())
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the cached microsoft credentials",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ms, err := microsoftProvider()
		if err != nil {
			return err
		}
		return ms.Logout()
	},
}

func init() {
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
}
