package commands

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/diegobuccelloni-ecal/talk-to-me-2026-DB-RH/pkg/cli"
)

const appName = "kissmachine"

var (
	cfgFile      string
	contextName  string
	verbose      bool
	globalConfig *cli.Config
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "kissmachine",
	Short: "Artificial kissing machine",
	Long: `kissmachine runs the dialog of the artificial kissing machine.

The machine asks a few yes/no questions, then classifies how its two lip
buttons are kissed and answers out loud. Buttons, speech and LEDs live on
the device, which connects to the link served by "kissmachine run".

Configuration is stored in ~/.talktome/kissmachine/ and supports
multiple contexts, one per installation.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	},
	// Run the machine by default
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMachine(cmd, args)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.talktome/kissmachine/config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&contextName, "context", "c", "", "context to use (default is current context)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(classifyCmd)
	rootCmd.AddCommand(configCmd)
}

// getConfig loads the configuration on first use.
func getConfig() (*cli.Config, error) {
	if globalConfig != nil {
		return globalConfig, nil
	}
	cfg, err := cli.LoadConfigWithPath(appName, cfgFile)
	if err != nil {
		return nil, fmt.Errorf("%s config: %w", appName, err)
	}
	globalConfig = cfg
	return cfg, nil
}

// getContext returns the context to use, resolving from flag or current context.
func getContext() (*cli.Context, error) {
	cfg, err := getConfig()
	if err != nil {
		return nil, err
	}
	return cfg.ResolveContext(contextName)
}
