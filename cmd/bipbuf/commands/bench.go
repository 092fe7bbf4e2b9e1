package commands

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/haivivi/bipbuf/pkg/buffer"
	"github.com/haivivi/bipbuf/pkg/cli"
)

// Bench modes.
const (
	BenchStream  = "stream"
	BenchReserve = "reserve"
)

var (
	benchTotal string
	benchChunk string
	benchMode  string
)

var benchCmd = &cobra.Command{
	Use:   "bench",
	Short: "Measure buffer throughput",
	Long: `Measure buffer throughput.

Modes:
  stream   a producer and a consumer goroutine copy through a Stream
  reserve  one goroutine alternates ReserveWrite/CommitWrite with
           TryReserveRead/CommitRead, copying nothing on the read side

Examples:
  bipbuf bench --total 256M --chunk 16K
  bipbuf bench --mode reserve -o json -q .throughput`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := GetProfile()
		if err != nil {
			return err
		}
		total, err := cli.ParseBytes(benchTotal)
		if err != nil {
			return err
		}
		chunk := p.Chunk()
		if benchChunk != "" {
			if chunk, err = cli.ParseBytes(benchChunk); err != nil {
				return err
			}
		}
		if total <= 0 || chunk <= 0 {
			return fmt.Errorf("bench: total and chunk must be positive")
		}

		session := uuid.NewString()
		logger := slog.Default().With("session", session)
		bb, err := p.NewBuffer(logger)
		if err != nil {
			return err
		}
		defer bb.Release()

		logger.Debug("bench: start", "mode", benchMode, "total", total, "chunk", chunk)
		start := time.Now()
		var n int64
		switch benchMode {
		case BenchStream:
			n, err = runPipe(cmd.Context(), buffer.NewStream(bb, p.Limit),
				io.LimitReader(filler{}, int64(total)), io.Discard, chunk)
		case BenchReserve:
			n, err = benchReserve(bb, int64(total), chunk)
		default:
			return fmt.Errorf("bench: unknown mode %q", benchMode)
		}
		elapsed := time.Since(start)
		if err != nil {
			return fmt.Errorf("bench: %w", err)
		}

		res := BenchResult{
			Session:    session,
			Mode:       benchMode,
			Bytes:      n,
			Chunk:      chunk,
			Duration:   elapsed.String(),
			Throughput: cli.FormatThroughput(n, elapsed),
			Stats:      bb.Stats(),
		}
		logger.Debug("bench: done", "bytes", n, "elapsed", elapsed, "grows", res.Stats.Grows)
		if structured() {
			return output(cmd, res)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %s in %s (%s), capacity %s, grows %d\n",
			res.Mode, cli.FormatBytes(n), res.Duration, res.Throughput,
			cli.FormatBytes(int64(res.Stats.Capacity)), res.Stats.Grows)
		return nil
	},
}

// BenchResult is the outcome of one bench run.
type BenchResult struct {
	Session    string       `yaml:"session" json:"session"`
	Mode       string       `yaml:"mode" json:"mode"`
	Bytes      int64        `yaml:"bytes" json:"bytes"`
	Chunk      int          `yaml:"chunk" json:"chunk"`
	Duration   string       `yaml:"duration" json:"duration"`
	Throughput string       `yaml:"throughput" json:"throughput"`
	Stats      buffer.Stats `yaml:"stats" json:"stats"`
}

// benchReserve moves total bytes through bb in chunk-sized reservations.
func benchReserve(bb *buffer.BipBuffer, total int64, chunk int) (int64, error) {
	var moved int64
	for moved < total {
		n := int(min(int64(chunk), total-moved))
		w, err := bb.ReserveWrite(n)
		if err != nil {
			return moved, err
		}
		p := w.Bytes()
		for i := range p {
			p[i] = byte(i)
		}
		if err := bb.CommitWrite(n); err != nil {
			return moved, err
		}
		for {
			r, ok := bb.TryReserveRead(0)
			if !ok {
				break
			}
			bb.CommitRead(r.Len())
			moved += int64(r.Len())
		}
	}
	return moved, nil
}

// filler is an endless reader that leaves its buffer as is.
type filler struct{}

func (filler) Read(p []byte) (int, error) {
	return len(p), nil
}

func init() {
	benchCmd.Flags().StringVar(&benchTotal, "total", "64M", "bytes to move")
	benchCmd.Flags().StringVar(&benchChunk, "chunk", "", "chunk size (default is the profile's chunk_size)")
	benchCmd.Flags().StringVar(&benchMode, "mode", BenchStream, "bench mode: stream, reserve")
	rootCmd.AddCommand(benchCmd)
}
