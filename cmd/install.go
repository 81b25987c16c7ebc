package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mclc/mclc/internals/minecraft"
)

var installCmd = &cobra.Command{
	Use:   "install <version>",
	Short: "Install a minecraft version",
	Long:  "Downloads the client jar, libraries and assets of the given version and unpacks its native libraries",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		man, err := instance.ResolveVersion(ctx, args[0])
		if err != nil {
			return err
		}

		stats, err := instance.Install(ctx, man, minecraft.CurrentRuleContext(), nil)
		if err != nil {
			return err
		}

		fmt.Println(stats)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(installCmd)
}
