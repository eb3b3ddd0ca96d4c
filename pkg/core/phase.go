package core

import "strings"

// Phase identifies a stage of a pipeline command.
type Phase string

// Phases in execution order. Drop and Create make up the schema reset;
// Stage, Transform and Verify make up the load.
const (
	PhaseDrop      Phase = "drop"
	PhaseCreate    Phase = "create"
	PhaseStage     Phase = "stage"
	PhaseTransform Phase = "transform"
	PhaseVerify    Phase = "verify"
)

// ResetPhases lists the phases run by the schema reset, in order.
var ResetPhases = []Phase{PhaseDrop, PhaseCreate}

// LoadPhases lists the phases run by the load pipeline, in order.
var LoadPhases = []Phase{PhaseStage, PhaseTransform, PhaseVerify}

// AllPhases lists every phase in execution order.
var AllPhases = []Phase{PhaseDrop, PhaseCreate, PhaseStage, PhaseTransform, PhaseVerify}

// String returns the phase name.
func (p Phase) String() string {
	return string(p)
}

// ParsePhase converts a string to a Phase.
// Returns the phase and true if valid, or an empty phase and false otherwise.
func ParsePhase(s string) (Phase, bool) {
	p := Phase(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range AllPhases {
		if p == known {
			return p, true
		}
	}
	return "", false
}
