package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/haivivi/bipbuf/cmd/bipbuf/internal/build"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	RunE: func(cmd *cobra.Command, args []string) error {
		if structured() {
			return output(cmd, build.Get())
		}
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, build.String())
		if IsVerbose() {
			fmt.Fprintf(out, "  go:     %s\n", build.Get().Go)
			if cfg, err := GetConfig(); err == nil {
				fmt.Fprintf(out, "  config: %s\n", cfg.Path())
			} else {
				fmt.Fprintf(out, "  config: (unavailable: %v)\n", err)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
