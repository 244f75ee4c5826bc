// Package cli provides common CLI utilities for the kissmachine command.
//
// This package includes:
//   - Configuration management (named contexts per installation)
//   - Output formatting (JSON, YAML)
//   - A lipgloss console mirror of the LED strip and dialog state
//
// Configuration is stored in ~/.talktome/<app>/ directory, supporting
// multiple contexts similar to kubectl.
//
// Example usage:
//
//	cfg, err := cli.LoadConfig("kissmachine")
//	ctx, err := cfg.ResolveContext(name)
//	dcfg, err := ctx.DialogConfig()
//
//	cli.Output(result, cli.OutputOptions{Format: cli.FormatJSON})
package cli
