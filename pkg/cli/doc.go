// Package cli provides common CLI utilities for the bipbuf command-line tool.
//
// This package includes:
//   - Configuration management (buffer profiles)
//   - Output formatting (YAML, JSON, raw) with optional jq queries
//   - A lipgloss region map for BipBuffer snapshots
//
// Configuration is stored in os.UserConfigDir()/bipbuf/config.yaml and holds
// named profiles, one of which may be current.
//
// Example usage:
//
//	cfg, err := cli.LoadConfig()
//	profile, err := cfg.ResolveProfile("")
//	bb, err := profile.NewBuffer(logger)
//
//	cli.Output(bb.Stats(), cli.OutputOptions{
//	    Format: cli.FormatJSON,
//	    Query:  ".block_a",
//	})
package cli
