package commands

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/haivivi/bipbuf/pkg/cli"
)

var (
	// Global flags
	verbose      bool
	configPath   string
	profileName  string
	outputFormat string
	outputQuery  string

	// Global configuration (loaded on first use)
	globalConfig *cli.Config
)

var rootCmd = &cobra.Command{
	Use:   "bipbuf",
	Short: "Inspect and exercise bip buffers",
	Long: `bipbuf - a command line interface for the bip buffer library.

A bip buffer is a byte queue that always hands out contiguous regions for
both writing and reading, growing its storage when it runs out of room.

Buffer settings come from profiles stored in the OS config directory:
  macOS:   ~/Library/Application Support/bipbuf/config.yaml
  Linux:   ~/.config/bipbuf/config.yaml
  Windows: %AppData%/bipbuf/config.yaml

Examples:
  # Create a profile and make it current
  bipbuf config set small capacity 4K
  bipbuf config use small

  # Pipe data through the buffer
  cat big.log | bipbuf pipe --stats > copy.log

  # Watch the regions move
  bipbuf trace script.yaml

  # Query structured output
  bipbuf bench -o json -q .throughput`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := slog.LevelWarn
		if verbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})))
		if _, err := cli.ParseOutputFormat(outputFormat); err != nil {
			return err
		}
		return nil
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	pf.StringVar(&configPath, "config", "", "config file (default is $CONFIG_DIR/bipbuf/config.yaml)")
	pf.StringVarP(&profileName, "profile", "p", "", "buffer profile to use (default is the current profile)")
	pf.StringVarP(&outputFormat, "output", "o", "", "structured output format: yaml, json, raw")
	pf.StringVarP(&outputQuery, "query", "q", "", "jq expression applied to structured output")
}

// GetConfig returns the configuration selected by --config.
func GetConfig() (*cli.Config, error) {
	if globalConfig != nil {
		return globalConfig, nil
	}
	var (
		cfg *cli.Config
		err error
	)
	if configPath != "" {
		cfg, err = cli.LoadConfigWithPath(configPath)
	} else {
		cfg, err = cli.LoadConfig()
	}
	if err != nil {
		return nil, fmt.Errorf("config not available: %w", err)
	}
	globalConfig = cfg
	return cfg, nil
}

// GetProfile resolves --profile against the configuration.
func GetProfile() (*cli.Profile, error) {
	cfg, err := GetConfig()
	if err != nil {
		return nil, err
	}
	return cfg.ResolveProfile(profileName)
}

// IsVerbose returns whether verbose mode is enabled.
func IsVerbose() bool {
	return verbose
}

// structured reports whether the user asked for machine-readable output.
func structured() bool {
	return outputFormat != "" || outputQuery != ""
}

func output(cmd *cobra.Command, result any) error {
	format, err := cli.ParseOutputFormat(outputFormat)
	if err != nil {
		return err
	}
	return cli.Output(result, cli.OutputOptions{
		Format: format,
		Query:  outputQuery,
		Writer: cmd.OutOrStdout(),
	})
}
