package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var listSnapshots bool

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all available minecraft versions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		releases, err := instance.ListReleases(cmd.Context())
		if err != nil {
			return err
		}

		if listSnapshots {
			for _, release := range releases.Versions {
				fmt.Printf("%-28s %s\n", release.ID, release.Type)
			}
			return nil
		}

		for _, release := range releases.SortedReleases() {
			fmt.Println(release.ID)
		}
		return nil
	},
}

func init() {
	listCmd.Flags().BoolVar(&listSnapshots, "all", false, "include snapshots and other non release versions")
	rootCmd.AddCommand(listCmd)
}
