package buffer

import "fmt"

// Region is a half-open byte range [Index, Index+Size) within the backing
// storage of a BipBuffer. A zero Size means there is no region.
type Region struct {
	Index int `yaml:"index" json:"index"`
	Size  int `yaml:"size" json:"size"`
}

// End returns the first offset past the region.
func (r Region) End() int {
	return r.Index + r.Size
}

// Empty reports whether the region holds no bytes.
func (r Region) Empty() bool {
	return r.Size == 0
}

func (r Region) String() string {
	return fmt.Sprintf("[%d,%d)", r.Index, r.End())
}

func (r *Region) clear() {
	r.Index = 0
	r.Size = 0
}

// State is the occupancy state of the two committed blocks.
//
//	StateEmpty        A and B are both empty
//	StateSingleBlock  only A holds data
//	StateTwoBlocks    A holds the oldest data, B holds data written after a wrap
//
// Transitions:
//
//	Empty       --CommitWrite-->                   SingleBlock
//	SingleBlock --CommitWrite (reservation at 0)--> TwoBlocks
//	SingleBlock --CommitRead (all of A)-->         Empty
//	TwoBlocks   --CommitRead (all of A)-->         SingleBlock (B rotates into A)
//	any         --Grow-->                          Empty or SingleBlock
type State int

const (
	StateEmpty State = iota
	StateSingleBlock
	StateTwoBlocks
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateSingleBlock:
		return "single"
	case StateTwoBlocks:
		return "two"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// MarshalText implements encoding.TextMarshaler so snapshots render the state
// by name.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func stateOf(a, b Region) State {
	switch {
	case !b.Empty():
		return StateTwoBlocks
	case !a.Empty():
		return StateSingleBlock
	default:
		return StateEmpty
	}
}
