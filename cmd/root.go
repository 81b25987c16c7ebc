package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/mclc/mclc/internals/auth"
	"github.com/mclc/mclc/internals/credentials"
	"github.com/mclc/mclc/internals/instances"
	"github.com/mclc/mclc/internals/minecraft/microsoft"
)

// Version is set by the build
var Version = "0.1.0"

var (
	cfg      *instances.Config
	instance *instances.Instance

	// javaPath is the --runtime override, empty means autodetect
	javaPath string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Version: Version,
	Use:     "mclc",
	Short:   "Minecraft launcher core",
	Long:    "mclc installs and launches minecraft versions from the command line",

	Example: `
  mclc install 1.19.2
  mclc launch 1.19.2 --username Steve
  mclc login && mclc launch 1.19.2 --auth msa`,

	SilenceUsage: true,

	// config only gets loaded when a command actually runs, so things
	// like --help work even with a broken environment
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = instances.LoadConfig()
		if err != nil {
			return err
		}
		instance = instances.New(cfg)
		return nil
	},
}

// Execute runs the CLI. It is called once from main.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&javaPath, "runtime", "r", "", "path to the java binary to launch with")
}

// microsoftProvider wires the device code login against the configured
// azure application
func microsoftProvider() (*auth.Microsoft, error) {
	if cfg.ClientID == "" {
		return nil, fmt.Errorf("no azure application id configured. set MCLC_CLIENT_ID")
	}

	store, err := credentials.New(cfg.Dir)
	if err != nil {
		return nil, err
	}

	ms := auth.NewMicrosoft(instance.HTTP, store, cfg.ClientID)
	ms.OnDeviceCode = func(code *microsoft.DeviceCodeResponse) {
		fmt.Printf("Open %s and enter the code %s\n", code.VerificationURI, code.UserCode)
	}
	return ms, nil
}
