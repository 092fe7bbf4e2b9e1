// Package trace runs scripted operation sequences against a BipBuffer and
// records the ledger after every step.
//
// A script is YAML:
//
//	capacity: 8
//	page_size: 8
//	steps:
//	  - write: "abcdef"
//	  - read: 4
//	  - reserve_write: 4
//	  - commit_write: "xy"
//	  - clear
//
// Each step is either a bare operation name or a one-key mapping from the
// operation to its argument.
package trace

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/haivivi/bipbuf/pkg/buffer"
)

// Operation names.
const (
	OpWrite           = "write"
	OpRead            = "read"
	OpReserveWrite    = "reserve_write"
	OpTryReserveWrite = "try_reserve_write"
	OpCommitWrite     = "commit_write"
	OpReserveRead     = "reserve_read"
	OpTryReserveRead  = "try_reserve_read"
	OpCommitRead      = "commit_read"
	OpGrow            = "grow"
	OpClear           = "clear"
	OpRelease         = "release"
)

var ops = map[string]bool{
	OpWrite: true, OpRead: true,
	OpReserveWrite: true, OpTryReserveWrite: true, OpCommitWrite: true,
	OpReserveRead: true, OpTryReserveRead: true, OpCommitRead: true,
	OpGrow: true, OpClear: true, OpRelease: true,
}

// ErrInvalidated is reported when commit_write has data to copy but the
// runner's reservation is gone: never made, already committed, or
// invalidated by a growth or clear.
var ErrInvalidated = errors.New("trace: reservation invalidated")

// Script is a decoded trace file.
type Script struct {
	Capacity int    `yaml:"capacity"`
	PageSize int    `yaml:"page_size"`
	Steps    []Step `yaml:"steps"`
}

// Step is one operation. Arg holds the raw scalar argument, empty for
// operations that take none.
type Step struct {
	Op   string
	Arg  string
	Line int

	// number is set when Arg is a YAML integer
	number bool
}

// UnmarshalYAML accepts "op" or {op: arg}.
func (s *Step) UnmarshalYAML(node *yaml.Node) error {
	s.Line = node.Line
	switch node.Kind {
	case yaml.ScalarNode:
		s.Op = node.Value
	case yaml.MappingNode:
		if len(node.Content) != 2 {
			return fmt.Errorf("line %d: step must have exactly one operation", node.Line)
		}
		key, val := node.Content[0], node.Content[1]
		if val.Kind != yaml.ScalarNode {
			return fmt.Errorf("line %d: %s: argument must be a scalar", val.Line, key.Value)
		}
		s.Op = key.Value
		s.Arg = val.Value
		s.number = val.Tag == "!!int"
	default:
		return fmt.Errorf("line %d: step must be an operation name or a mapping", node.Line)
	}
	if !ops[s.Op] {
		return fmt.Errorf("line %d: unknown operation %q", node.Line, s.Op)
	}
	return nil
}

// Load decodes a script.
func Load(r io.Reader) (*Script, error) {
	var sc Script
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&sc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("trace: empty script")
		}
		return nil, fmt.Errorf("trace: %w", err)
	}
	if sc.Capacity < 0 || sc.PageSize < 0 {
		return nil, fmt.Errorf("trace: capacity and page_size must not be negative")
	}
	return &sc, nil
}

// Result is the outcome of one step.
type Result struct {
	Step  int          `yaml:"step" json:"step"`
	Op    string       `yaml:"op" json:"op"`
	Arg   string       `yaml:"arg,omitempty" json:"arg,omitempty"`
	Value string       `yaml:"value,omitempty" json:"value,omitempty"`
	Error string       `yaml:"error,omitempty" json:"error,omitempty"`
	Stats buffer.Stats `yaml:"stats" json:"stats"`
}

// Runner executes steps on one buffer, carrying the last write reservation
// between reserve_write and commit_write.
type Runner struct {
	bb     *buffer.BipBuffer
	writeR buffer.Reservation
}

// NewRunner creates the buffer described by sc.
func NewRunner(sc *Script, logger *slog.Logger) (*Runner, error) {
	bb, err := buffer.New(sc.Capacity, sc.PageSize, buffer.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	return &Runner{bb: bb}, nil
}

// Run executes every step of sc on a fresh buffer. A failing step is
// recorded in its Result and does not stop the script.
func Run(sc *Script, logger *slog.Logger) ([]Result, error) {
	r, err := NewRunner(sc, logger)
	if err != nil {
		return nil, err
	}
	results := make([]Result, 0, len(sc.Steps))
	for i, st := range sc.Steps {
		results = append(results, r.Step(i+1, st))
	}
	return results, nil
}

// Step executes one step and snapshots the buffer afterwards.
func (r *Runner) Step(index int, st Step) Result {
	res := Result{Step: index, Op: st.Op, Arg: st.Arg}
	value, err := r.apply(st)
	res.Value = value
	if err != nil {
		res.Error = err.Error()
	}
	res.Stats = r.bb.Stats()
	return res
}

func (r *Runner) apply(st Step) (string, error) {
	switch st.Op {
	case OpWrite:
		n, err := r.bb.Write([]byte(st.Arg))
		return strconv.Itoa(n), err

	case OpRead:
		n, err := st.int()
		if err != nil {
			return "", err
		}
		p := make([]byte, max(n, 0))
		m, err := r.bb.Read(p)
		if err != nil {
			return "", err
		}
		return strconv.Quote(string(p[:m])), nil

	case OpReserveWrite:
		n, err := st.int()
		if err != nil {
			return "", err
		}
		res, err := r.bb.ReserveWrite(n)
		if err != nil {
			return "", err
		}
		r.writeR = res
		return res.Region.String(), nil

	case OpTryReserveWrite:
		n, err := st.int()
		if err != nil {
			return "", err
		}
		res, ok := r.bb.TryReserveWrite(n)
		if !ok {
			return "none", nil
		}
		r.writeR = res
		return res.Region.String(), nil

	case OpCommitWrite:
		n := len(st.Arg)
		if st.number {
			v, err := st.int()
			if err != nil {
				return "", err
			}
			n = v
		} else {
			if !r.pending() {
				return "", ErrInvalidated
			}
			n = copy(r.writeR.Bytes(), st.Arg)
		}
		r.writeR = buffer.Reservation{}
		if err := r.bb.CommitWrite(n); err != nil {
			return "", err
		}
		return strconv.Itoa(n), nil

	case OpReserveRead:
		n, err := st.int()
		if err != nil {
			return "", err
		}
		res, err := r.bb.ReserveRead(n)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s %q", res.Region, res.Bytes()), nil

	case OpTryReserveRead:
		n := 0
		if st.Arg != "" {
			v, err := st.int()
			if err != nil {
				return "", err
			}
			n = v
		}
		res, ok := r.bb.TryReserveRead(n)
		if !ok {
			return "none", nil
		}
		return fmt.Sprintf("%s %q", res.Region, res.Bytes()), nil

	case OpCommitRead:
		n, err := st.int()
		if err != nil {
			return "", err
		}
		r.bb.CommitRead(n)
		return "", nil

	case OpGrow:
		n, err := st.int()
		if err != nil {
			return "", err
		}
		return "", r.bb.Grow(n)

	case OpClear:
		r.bb.Clear()
		return "", nil

	case OpRelease:
		r.bb.Release()
		return "", nil
	}
	return "", fmt.Errorf("unknown operation %q", st.Op)
}

// pending reports whether the runner's reservation is still the buffer's
// outstanding one.
func (r *Runner) pending() bool {
	return r.bb.Valid(r.writeR) && r.bb.Stats().WriteReservation == r.writeR.Region
}

func (s Step) int() (int, error) {
	n, err := strconv.Atoi(s.Arg)
	if err != nil {
		return 0, fmt.Errorf("line %d: %s needs an integer argument, got %q", s.Line, s.Op, s.Arg)
	}
	return n, nil
}
