package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/haivivi/bipbuf/pkg/buffer"
	"github.com/haivivi/bipbuf/pkg/cli"
)

var pipeStats bool

var pipeCmd = &cobra.Command{
	Use:   "pipe",
	Short: "Copy stdin to stdout through a bip buffer",
	Long: `Copy stdin to stdout through a bip buffer.

A producer goroutine reads stdin into the buffer and a consumer goroutine
drains it to stdout. Writers wait while the buffer holds the profile's
limit; a zero limit lets the buffer grow instead.

Examples:
  cat big.log | bipbuf pipe > copy.log
  bipbuf pipe -p small --stats < in.bin > out.bin`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := GetProfile()
		if err != nil {
			return err
		}
		session := uuid.NewString()
		logger := slog.Default().With("session", session)

		bb, err := p.NewBuffer(logger)
		if err != nil {
			return err
		}
		defer bb.Release()

		logger.Debug("pipe: start", "profile", p.Name, "capacity", bb.Cap(), "limit", p.Limit, "chunk", p.Chunk())
		s := buffer.NewStream(bb, p.Limit)
		n, err := runPipe(cmd.Context(), s, cmd.InOrStdin(), cmd.OutOrStdout(), p.Chunk())
		stats := bb.Stats()
		logger.Debug("pipe: done", "bytes", n, "capacity", stats.Capacity, "grows", stats.Grows, "error", err)
		if err != nil {
			return fmt.Errorf("pipe: %w", err)
		}

		if pipeStats {
			format, err := cli.ParseOutputFormat(outputFormat)
			if err != nil {
				return err
			}
			return cli.Output(PipeResult{Session: session, Bytes: n, Stats: stats}, cli.OutputOptions{
				Format: format,
				Query:  outputQuery,
				Writer: cmd.ErrOrStderr(),
			})
		}
		return nil
	},
}

// PipeResult summarises a pipe run.
type PipeResult struct {
	Session string       `yaml:"session" json:"session"`
	Bytes   int64        `yaml:"bytes" json:"bytes"`
	Stats   buffer.Stats `yaml:"stats" json:"stats"`
}

// runPipe copies in to out through s with a producer and a consumer
// goroutine, chunk bytes at a time. It returns the number of bytes that
// reached out.
func runPipe(ctx context.Context, s *buffer.Stream, in io.Reader, out io.Writer, chunk int) (int64, error) {
	stop := context.AfterFunc(ctx, func() { s.CloseWithError(ctx.Err()) })
	defer stop()

	errc := make(chan error, 1)
	go func() {
		// Hide ReaderFrom/WriterTo so the copy goes chunk by chunk.
		_, err := io.CopyBuffer(struct{ io.Writer }{s}, struct{ io.Reader }{in}, make([]byte, chunk))
		if err != nil {
			s.CloseWithError(err)
		} else {
			s.CloseWrite()
		}
		errc <- err
	}()

	n, err := io.CopyBuffer(struct{ io.Writer }{out}, struct{ io.Reader }{s}, make([]byte, chunk))
	if err == nil {
		return n, <-errc
	}
	s.CloseWithError(err)
	select {
	case werr := <-errc:
		if werr != nil {
			return n, werr
		}
	default:
	}
	return n, err
}

func init() {
	pipeCmd.Flags().BoolVar(&pipeStats, "stats", false, "print buffer statistics to stderr when done")
	rootCmd.AddCommand(pipeCmd)
}
