// Package deps tracks register read/write conflicts across an instruction
// stream.
//
// The Tracker keeps one access record per architectural register and
// derives RAW, WAR and WAW dependences as instructions are recorded in
// program order. Only the most recent access to each register matters: a
// newer access shadows every earlier one.
package deps

import (
	"fmt"

	"github.com/sarchlab/hazardsim/insts"
)

// Kind is the type of a register dependence.
type Kind uint8

// Dependence kinds.
const (
	RAW Kind = iota // read after write
	WAR             // write after read
	WAW             // write after write
)

// String returns the dependence kind name.
func (k Kind) String() string {
	switch k {
	case RAW:
		return "RAW"
	case WAR:
		return "WAR"
	case WAW:
		return "WAW"
	default:
		return "UNKNOWN"
	}
}

// ParseKind converts "RAW", "WAR" or "WAW" to a Kind.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "RAW", "raw":
		return RAW, nil
	case "WAR", "war":
		return WAR, nil
	case "WAW", "waw":
		return WAW, nil
	default:
		return 0, fmt.Errorf("unknown dependence kind %q", s)
	}
}

// Dependence records that instruction Later touches Register after
// instruction Earlier did, in a way that orders the two.
type Dependence struct {
	Register uint8 `json:"register"`
	Earlier  int   `json:"earlier"`
	Later    int   `json:"later"`
	Kind     Kind  `json:"kind"`
}

// MarshalText lets Kind appear by name in JSON.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText parses a Kind name.
func (k *Kind) UnmarshalText(b []byte) error {
	parsed, err := ParseKind(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// AccessType is the most recent kind of access to a register.
type AccessType uint8

// Access types.
const (
	AccessNone AccessType = iota
	AccessRead
	AccessWrite
)

// RegisterState is the access record of one register.
type RegisterState struct {
	Access       AccessType
	LastAccessor int
}

// TrackerOption configures a Tracker.
type TrackerOption func(*Tracker)

// WithZeroRegister makes register 0 hardwired: accesses to it never create
// or resolve dependences.
func WithZeroRegister() TrackerOption {
	return func(t *Tracker) {
		t.zeroReg = true
	}
}

// Tracker derives register dependences for an instruction stream.
type Tracker struct {
	registers    []RegisterState
	instructions []*insts.Instruction
	dependences  []Dependence

	// byLater[i] indexes into dependences for every dependence whose
	// Later is i.
	byLater [][]int

	zeroReg bool
}

// NewTracker creates a tracker for a machine with numRegisters registers.
func NewTracker(numRegisters int, opts ...TrackerOption) *Tracker {
	t := &Tracker{
		registers: make([]RegisterState, numRegisters),
	}

	for _, opt := range opts {
		opt(t)
	}

	return t
}

// Record appends inst to the tracked stream and returns its index.
//
// Reads are checked against the register state left by earlier
// instructions, producing RAW when the last access was a write. The write
// is checked against the same earlier state, producing WAR after a read and
// WAW after a write, so an instruction never depends on itself.
func (t *Tracker) Record(inst *insts.Instruction) int {
	idx := len(t.instructions)
	t.instructions = append(t.instructions, inst)
	t.byLater = append(t.byLater, nil)

	sources := inst.SourceRegs()
	dest, writes := inst.DestReg()

	for _, reg := range sources {
		if !t.tracked(reg) {
			continue
		}
		state := t.registers[reg]
		if state.Access == AccessWrite {
			t.add(Dependence{Register: reg, Earlier: state.LastAccessor, Later: idx, Kind: RAW})
		}
	}

	if writes && t.tracked(dest) {
		state := t.registers[dest]
		switch state.Access {
		case AccessRead:
			t.add(Dependence{Register: dest, Earlier: state.LastAccessor, Later: idx, Kind: WAR})
		case AccessWrite:
			t.add(Dependence{Register: dest, Earlier: state.LastAccessor, Later: idx, Kind: WAW})
		}
	}

	for _, reg := range sources {
		if t.tracked(reg) {
			t.registers[reg] = RegisterState{Access: AccessRead, LastAccessor: idx}
		}
	}
	if writes && t.tracked(dest) {
		t.registers[dest] = RegisterState{Access: AccessWrite, LastAccessor: idx}
	}

	return idx
}

func (t *Tracker) tracked(reg uint8) bool {
	if int(reg) >= len(t.registers) {
		return false
	}
	return !(t.zeroReg && reg == 0)
}

func (t *Tracker) add(d Dependence) {
	t.byLater[d.Later] = append(t.byLater[d.Later], len(t.dependences))
	t.dependences = append(t.dependences, d)
}

// MostRecent returns the nearest earlier instruction that instruction i
// has a dependence of the given kind on. ok is false when there is none.
//
// It panics if i was never recorded.
func (t *Tracker) MostRecent(i int, kind Kind) (prev int, ok bool) {
	t.mustBeRecorded(i)

	prev = -1
	for _, di := range t.byLater[i] {
		d := t.dependences[di]
		if d.Kind == kind && d.Earlier > prev {
			prev = d.Earlier
		}
	}

	return prev, prev >= 0
}

// DependencesOf returns the dependences whose later instruction is i.
//
// It panics if i was never recorded.
func (t *Tracker) DependencesOf(i int) []Dependence {
	t.mustBeRecorded(i)

	out := make([]Dependence, 0, len(t.byLater[i]))
	for _, di := range t.byLater[i] {
		out = append(out, t.dependences[di])
	}
	return out
}

// Dependences returns all dependences in detection order. When kinds are
// given, only dependences of those kinds are returned.
func (t *Tracker) Dependences(kinds ...Kind) []Dependence {
	out := make([]Dependence, 0, len(t.dependences))
	for _, d := range t.dependences {
		if len(kinds) == 0 || containsKind(kinds, d.Kind) {
			out = append(out, d)
		}
	}
	return out
}

func containsKind(kinds []Kind, k Kind) bool {
	for _, x := range kinds {
		if x == k {
			return true
		}
	}
	return false
}

// Register returns the access record of reg.
func (t *Tracker) Register(reg uint8) RegisterState {
	return t.registers[reg]
}

// NumRegisters returns the number of tracked registers.
func (t *Tracker) NumRegisters() int {
	return len(t.registers)
}

// Len returns the number of recorded instructions.
func (t *Tracker) Len() int {
	return len(t.instructions)
}

// Instruction returns the i-th recorded instruction.
//
// It panics if i was never recorded.
func (t *Tracker) Instruction(i int) *insts.Instruction {
	t.mustBeRecorded(i)
	return t.instructions[i]
}

// Instructions returns the recorded stream.
func (t *Tracker) Instructions() []*insts.Instruction {
	return t.instructions
}

func (t *Tracker) mustBeRecorded(i int) {
	if i < 0 || i >= len(t.instructions) {
		panic(fmt.Sprintf("deps: instruction %d was never recorded (have %d)", i, len(t.instructions)))
	}
}
