package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mclc/mclc/internals/auth"
	"github.com/mclc/mclc/internals/instances"
	"github.com/mclc/mclc/internals/java"
	"github.com/mclc/mclc/internals/minecraft"
)

var launchOpts struct {
	authType string
	username string
	jvmArgs  string
	ramMiB   int
	demo     bool
}

var launchCmd = &cobra.Command{
	Use:     "launch <version>",
	Short:   "Launch an installed minecraft version",
	Aliases: []string{"run", "start", "play"},
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		var provider auth.AuthProvider
		switch launchOpts.authType {
		case "offline":
			provider = &auth.Offline{Username: launchOpts.username}
		case "msa":
			ms, err := microsoftProvider()
			if err != nil {
				return err
			}
			provider = ms
		default:
			return fmt.Errorf("unknown auth type %q (offline or msa)", launchOpts.authType)
		}

		if !launchOpts.demo {
			data, err := provider.LaunchAuthData(ctx)
			if err != nil {
				return err
			}
			instance.SetLaunchCredentials(data)
		}

		man, err := instance.ResolveVersion(ctx, args[0])
		if err != nil {
			return err
		}

		plan, err := instance.BuildLaunchPlan(man, minecraft.CurrentRuleContext(), &instances.LaunchOptions{
			Demo:          launchOpts.demo,
			CustomJVMArgs: strings.Fields(launchOpts.jvmArgs),
			RamMiB:        launchOpts.ramMiB,
		})
		if err != nil {
			return err
		}

		javaBin, err := java.Find(javaPath)
		if err != nil {
			return err
		}

		fmt.Printf("Launching %s\n", man.ID)
		run := instance.BuildLaunchCmd(plan, javaBin)
		run.Stdout = os.Stdout
		run.Stderr = os.Stderr
		return run.Run()
	},
}

func init() {
	launchCmd.Flags().StringVar(&launchOpts.authType, "auth", "offline", "authentication type (offline or msa)")
	launchCmd.Flags().StringVarP(&launchOpts.username, "username", "u", "", "player name for offline launches")
	launchCmd.Flags().StringVarP(&launchOpts.jvmArgs, "jvm-args", "j", "", "custom jvm arguments (e.g. \"-Xmx4G\")")
	launchCmd.Flags().IntVar(&launchOpts.ramMiB, "ram", 0, "max heap in MiB (0 = auto)")
	launchCmd.Flags().BoolVar(&launchOpts.demo, "demo", false, "launch in demo mode without an identity")
	rootCmd.AddCommand(launchCmd)
}
