package commands

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/diegobuccelloni-ecal/talk-to-me-2026-DB-RH/pkg/cli"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long: `Manage kissmachine configuration.

Configuration is stored in ~/.talktome/kissmachine/config.yaml`,
}

// contextCmd represents the context subcommand
var contextCmd = &cobra.Command{
	Use:   "context",
	Short: "Manage contexts",
	Long:  `Manage kissmachine contexts, one per installation.`,
}

// contextListCmd lists all contexts
var contextListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all contexts",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := getConfig()
		if err != nil {
			return err
		}
		names := cfg.ListContexts()
		out := cmd.OutOrStdout()
		if len(names) == 0 {
			fmt.Fprintln(out, "No contexts configured.")
			fmt.Fprintln(out, "\nCreate one with:")
			fmt.Fprintln(out, "  kissmachine config context set gallery listen=:8090 codec=json")
			return nil
		}

		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "CURRENT\tNAME\tLISTEN\tCODEC\tSCRIPT")
		for _, name := range names {
			ctx, _ := cfg.GetContext(name)
			current := ""
			if name == cfg.CurrentContext {
				current = "*"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", current, name,
				orDefault(ctx.Listen, defaultListen), orDefault(ctx.Codec, "json"), orDefault(ctx.Script, "(default)"))
		}
		return w.Flush()
	},
}

// contextUseCmd switches the current context
var contextUseCmd = &cobra.Command{
	Use:   "use <name>",
	Short: "Switch to a context",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := getConfig()
		if err != nil {
			return err
		}
		if err := cfg.UseContext(args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Switched to context %q\n", args[0])
		return nil
	},
}

// contextSetCmd creates or updates a context
var contextSetCmd = &cobra.Command{
	Use:   "set <name> [key=value...]",
	Short: "Create or update a context",
	Long: `Create or update a context with the specified settings.

Keys:
  listen, codec (json|msgpack), script,
  silence_timeout, long_press_delay,
  short_press, long_press, sequential_gap, decision_delay  (milliseconds)
  top_lip, bottom_lip, yes, no                             (input indices)

Examples:
  # Create a new context
  kissmachine config context set gallery listen=:9000 codec=msgpack

  # Wait longer for an answer
  kissmachine config context set gallery silence_timeout=15000`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := getConfig()
		if err != nil {
			return err
		}
		name := args[0]

		// Get existing context or create new one
		ctx, err := cfg.GetContext(name)
		if err != nil {
			ctx = &cli.Context{Name: name}
		}
		for _, kv := range args[1:] {
			key, value, ok := strings.Cut(kv, "=")
			if !ok {
				return fmt.Errorf("setting %q: want key=value", kv)
			}
			if err := ctx.Set(key, value); err != nil {
				return err
			}
		}
		if _, err := ctx.DialogConfig(); err != nil {
			return err
		}
		if err := cfg.AddContext(name, ctx); err != nil {
			return err
		}
		cli.PrintSuccess(cmd.OutOrStdout(), "Context %q saved", name)
		return nil
	},
}

// contextShowCmd prints a context
var contextShowCmd = &cobra.Command{
	Use:   "show [name]",
	Short: "Show a context (default is current context)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := getConfig()
		if err != nil {
			return err
		}
		name := contextName
		if len(args) == 1 {
			name = args[0]
		}
		ctx, err := cfg.ResolveContext(name)
		if err != nil {
			return err
		}
		format, err := cli.ParseOutputFormat(flagShowOutput)
		if err != nil {
			return err
		}
		return cli.Output(ctx, cli.OutputOptions{Format: format, Writer: cmd.OutOrStdout()})
	},
}

// contextDeleteCmd deletes a context
var contextDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a context",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := getConfig()
		if err != nil {
			return err
		}
		if err := cfg.DeleteContext(args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Context %q deleted\n", args[0])
		return nil
	},
}

var flagShowOutput string

func init() {
	contextShowCmd.Flags().StringVarP(&flagShowOutput, "output", "o", "yaml", "output format: yaml or json")

	contextCmd.AddCommand(contextListCmd)
	contextCmd.AddCommand(contextUseCmd)
	contextCmd.AddCommand(contextSetCmd)
	contextCmd.AddCommand(contextShowCmd)
	contextCmd.AddCommand(contextDeleteCmd)
	configCmd.AddCommand(contextCmd)
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
