package commands

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/haivivi/bipbuf/cmd/bipbuf/internal/trace"
	"github.com/haivivi/bipbuf/pkg/cli"
)

var traceWidth int

var traceCmd = &cobra.Command{
	Use:   "trace [script.yaml]",
	Short: "Run an operation script and show the buffer after each step",
	Long: `Run an operation script against a fresh bip buffer and show the region
map after each step. The script is read from stdin when no file or "-" is
given.

Script format:

  capacity: 8
  page_size: 8
  steps:
    - write: "abcde"
    - read: 3
    - reserve_write: 4
    - commit_write: "xy"
    - try_reserve_read
    - commit_read: 2
    - grow: 16
    - clear

Map legend: A block A, B block B, w write reservation, r read reservation,
. free space.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var in io.Reader = cmd.InOrStdin()
		if len(args) == 1 && args[0] != "-" {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			in = f
		}

		sc, err := trace.Load(in)
		if err != nil {
			return err
		}
		results, err := trace.Run(sc, slog.Default())
		if err != nil {
			return err
		}
		if structured() {
			return output(cmd, results)
		}

		out := cmd.OutOrStdout()
		m := cli.NewRegionMap("", traceWidth)
		for _, r := range results {
			m.Title = "#" + strconv.Itoa(r.Step) + " " + r.Op
			if r.Arg != "" {
				m.Title += " " + r.Arg
			}
			switch {
			case r.Error != "":
				m.Title += " ✗ " + r.Error
			case r.Value != "":
				m.Title += " → " + r.Value
			}
			fmt.Fprintln(out, m.Render(r.Stats))
		}
		return nil
	},
}

func init() {
	traceCmd.Flags().IntVarP(&traceWidth, "width", "w", 64, "region map width")
	rootCmd.AddCommand(traceCmd)
}
