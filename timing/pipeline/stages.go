// Package pipeline provides a 5-stage in-order pipeline model for
// cycle-level hazard simulation.
package pipeline

import (
	"fmt"
	"strings"
)

// Stage is a pipeline stage. Stages are ordered: an instruction only ever
// moves to a greater stage.
type Stage uint8

// Pipeline stages in datapath order. StageRetired is terminal.
const (
	StageFetch Stage = iota
	StageDecode
	StageExecute
	StageMemory
	StageWriteback
	StageRetired
)

// NumStages is the number of stages an instruction passes through before
// it retires.
const NumStages = int(StageRetired)

var stageNames = [...]string{"FETCH", "DECODE", "EXECUTE", "MEMORY", "WRITEBACK", "RETIRED"}

// String returns the upper-case stage name.
func (s Stage) String() string {
	if int(s) < len(stageNames) {
		return stageNames[s]
	}
	return fmt.Sprintf("Stage(%d)", uint8(s))
}

// Short returns the one-letter abbreviation used in pipeline diagrams.
func (s Stage) Short() string {
	switch s {
	case StageFetch:
		return "F"
	case StageDecode:
		return "D"
	case StageExecute:
		return "X"
	case StageMemory:
		return "M"
	case StageWriteback:
		return "W"
	default:
		return " "
	}
}

// ParseStage converts a stage name ("EXECUTE", "ex", "WB", ...) to a Stage.
func ParseStage(s string) (Stage, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "FETCH", "IF", "F":
		return StageFetch, nil
	case "DECODE", "ID", "D":
		return StageDecode, nil
	case "EXECUTE", "EX", "X":
		return StageExecute, nil
	case "MEMORY", "MEM", "M":
		return StageMemory, nil
	case "WRITEBACK", "WB", "W":
		return StageWriteback, nil
	case "RETIRED":
		return StageRetired, nil
	default:
		return 0, fmt.Errorf("unknown pipeline stage %q", s)
	}
}

// MarshalText writes the stage by name.
func (s Stage) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText reads a stage name.
func (s *Stage) UnmarshalText(text []byte) error {
	stage, err := ParseStage(string(text))
	if err != nil {
		return err
	}
	*s = stage
	return nil
}
