package pipeline

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sarchlab/hazardsim/insts"
)

// ErrUnknownPolicy is returned when a hazard policy name is not recognized.
var ErrUnknownPolicy = errors.New("unknown hazard policy")

// ValueSchedule says when an instruction class needs its operands and when
// it makes its result available.
type ValueSchedule struct {
	// Required is the stage the instruction cannot enter until its
	// operands are available.
	Required Stage
	// Produced is the stage in which the result is computed.
	Produced Stage
}

// Validate checks that both stages can take part in a hazard check.
func (v ValueSchedule) Validate() error {
	if v.Required < StageDecode || v.Required > StageWriteback {
		return fmt.Errorf("required stage %v must be between DECODE and WRITEBACK", v.Required)
	}
	if v.Produced > StageWriteback {
		return fmt.Errorf("produced stage %v must be at most WRITEBACK", v.Produced)
	}
	return nil
}

// State is the read-only view of a simulation run that policies consult.
type State interface {
	// Stage returns the current stage of an issued instruction.
	Stage(i int) Stage
	// Class returns the instruction class of instruction i.
	Class(i int) insts.Class
	// PrevDependence returns the most recent instruction that i has a RAW
	// dependence on. ok is false when there is none.
	PrevDependence(i int) (prev int, ok bool)
}

// PolicyKind identifies one of the hazard policies.
type PolicyKind uint8

// Hazard policies.
const (
	PolicyIdeal PolicyKind = iota
	PolicyStall
	PolicyForward
)

// AllPolicies lists every policy kind in report order.
var AllPolicies = []PolicyKind{PolicyIdeal, PolicyStall, PolicyForward}

// String returns the lower-case policy name used on the command line.
func (k PolicyKind) String() string {
	switch k {
	case PolicyIdeal:
		return "ideal"
	case PolicyStall:
		return "stall"
	case PolicyForward:
		return "forward"
	default:
		return fmt.Sprintf("PolicyKind(%d)", uint8(k))
	}
}

// Label returns the pipeline type name shown in reports.
func (k PolicyKind) Label() string {
	switch k {
	case PolicyIdeal:
		return "IDEAL"
	case PolicyStall:
		return "STALL"
	case PolicyForward:
		return "FORWARDING"
	default:
		return strings.ToUpper(k.String())
	}
}

// ParsePolicyKind converts a policy name to a PolicyKind.
func ParsePolicyKind(s string) (PolicyKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "ideal", "none":
		return PolicyIdeal, nil
	case "stall", "stall-only", "stallonly":
		return PolicyStall, nil
	case "forward", "forwarding", "full-forward", "fullforward":
		return PolicyForward, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownPolicy, s)
	}
}

// Policy decides whether an instruction may advance this cycle.
type Policy interface {
	Kind() PolicyKind
	// Name returns the pipeline type label for display.
	Name() string
	// Schedule returns the value schedule of an instruction class.
	Schedule(class insts.Class) ValueSchedule
	// ControlHazard reports whether instruction i must wait for the
	// control-delay slot of the instruction ahead of it.
	ControlHazard(s State, i int) bool
	// DataHazard reports whether instruction i must wait for an operand.
	DataHazard(s State, i int) bool
}

type scheduleTable [insts.NumClasses]ValueSchedule

var defaultSchedules = map[PolicyKind]scheduleTable{
	PolicyIdeal: {
		insts.ClassArithmetic: {Required: StageExecute, Produced: StageExecute},
		insts.ClassMemory:     {Required: StageExecute, Produced: StageMemory},
		insts.ClassControl:    {Required: StageExecute, Produced: StageWriteback},
	},
	PolicyStall: {
		insts.ClassArithmetic: {Required: StageDecode, Produced: StageWriteback},
		insts.ClassMemory:     {Required: StageDecode, Produced: StageWriteback},
		insts.ClassControl:    {Required: StageDecode, Produced: StageWriteback},
	},
	PolicyForward: {
		insts.ClassArithmetic: {Required: StageExecute, Produced: StageExecute},
		insts.ClassMemory:     {Required: StageExecute, Produced: StageMemory},
		insts.ClassControl:    {Required: StageWriteback, Produced: StageWriteback},
	},
}

// DefaultSchedule returns the built-in value schedule of a policy for an
// instruction class.
func DefaultSchedule(kind PolicyKind, class insts.Class) ValueSchedule {
	return defaultSchedules[kind][class]
}

// NewPolicy creates the policy of the given kind. Overrides replace the
// built-in value schedule of individual classes.
func NewPolicy(kind PolicyKind, overrides map[insts.Class]ValueSchedule) (Policy, error) {
	table, ok := defaultSchedules[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %v", ErrUnknownPolicy, kind)
	}

	for class, sched := range overrides {
		if int(class) >= insts.NumClasses {
			return nil, fmt.Errorf("schedule override for unknown class %d", class)
		}
		if err := sched.Validate(); err != nil {
			return nil, fmt.Errorf("%v schedule for %v: %w", kind, class, err)
		}
		table[class] = sched
	}

	switch kind {
	case PolicyIdeal:
		return &IdealPolicy{table: table}, nil
	case PolicyStall:
		return &StallPolicy{table: table}, nil
	default:
		return &ForwardPolicy{table: table}, nil
	}
}

// MustNewPolicy is NewPolicy with the built-in schedules.
func MustNewPolicy(kind PolicyKind) Policy {
	p, err := NewPolicy(kind, nil)
	if err != nil {
		panic(err)
	}
	return p
}

// IdealPolicy never stalls for data. Only the control-delay slot applies.
type IdealPolicy struct {
	table scheduleTable
}

// Kind returns PolicyIdeal.
func (p *IdealPolicy) Kind() PolicyKind { return PolicyIdeal }

// Name returns the pipeline type label.
func (p *IdealPolicy) Name() string { return PolicyIdeal.Label() }

// Schedule returns the value schedule of class.
func (p *IdealPolicy) Schedule(class insts.Class) ValueSchedule { return p.table[class] }

// ControlHazard applies the control-delay slot.
func (p *IdealPolicy) ControlHazard(s State, i int) bool { return controlDelay(s, i) }

// DataHazard is always false.
func (p *IdealPolicy) DataHazard(State, int) bool { return false }

// StallPolicy has no forwarding. A consumer waits in FETCH until the
// producer reaches WRITEBACK; the register file is written and read in the
// same cycle, so reaching the produced stage is enough.
type StallPolicy struct {
	table scheduleTable
}

// Kind returns PolicyStall.
func (p *StallPolicy) Kind() PolicyKind { return PolicyStall }

// Name returns the pipeline type label.
func (p *StallPolicy) Name() string { return PolicyStall.Label() }

// Schedule returns the value schedule of class.
func (p *StallPolicy) Schedule(class insts.Class) ValueSchedule { return p.table[class] }

// ControlHazard applies the control-delay slot.
func (p *StallPolicy) ControlHazard(s State, i int) bool { return controlDelay(s, i) }

// DataHazard reports a stall while the producer is short of its produced
// stage.
func (p *StallPolicy) DataHazard(s State, i int) bool {
	return operandStall(s, i, &p.table, func(producer, produced Stage) bool {
		return producer >= produced
	})
}

// ForwardPolicy forwards results from the producing stage straight to the
// consumer. The value is usable once the producer has finished its
// produced stage, which can be cycles before it retires.
type ForwardPolicy struct {
	table scheduleTable
}

// Kind returns PolicyForward.
func (p *ForwardPolicy) Kind() PolicyKind { return PolicyForward }

// Name returns the pipeline type label.
func (p *ForwardPolicy) Name() string { return PolicyForward.Label() }

// Schedule returns the value schedule of class.
func (p *ForwardPolicy) Schedule(class insts.Class) ValueSchedule { return p.table[class] }

// ControlHazard applies the control-delay slot.
func (p *ForwardPolicy) ControlHazard(s State, i int) bool { return controlDelay(s, i) }

// DataHazard reports a stall until the producer has moved past its
// produced stage.
func (p *ForwardPolicy) DataHazard(s State, i int) bool {
	return operandStall(s, i, &p.table, func(producer, produced Stage) bool {
		return producer > produced
	})
}

// controlDelay is true while the instruction ahead of i is a control
// instruction sitting in EXECUTE. There is no branch prediction, so its
// successor always loses one cycle.
func controlDelay(s State, i int) bool {
	if i == 0 {
		return false
	}
	return s.Class(i-1) == insts.ClassControl && s.Stage(i-1) == StageExecute
}

// operandStall checks whether i is about to enter its required stage while
// the producer it depends on has not made the value available. The
// producer's current stage is used because upstream stalls can delay it by
// any amount.
func operandStall(
	s State,
	i int,
	table *scheduleTable,
	available func(producer, produced Stage) bool,
) bool {
	prev, ok := s.PrevDependence(i)
	if !ok {
		return false
	}

	required := table[s.Class(i)].Required
	if s.Stage(i)+1 != required {
		return false
	}

	produced := table[s.Class(prev)].Produced
	return !available(s.Stage(prev), produced)
}
