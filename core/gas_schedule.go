package core

// Canonical gas-pricing table for every instruction opcode and session
// operation recognised by this runtime, following the teacher's gas_table.go
// convention of a single map with a punitive, once-logged default for
// anything un-priced.

import (
	log "github.com/sirupsen/logrus"
)

// DefaultGasCost is charged for any opcode that has slipped through the
// cracks; it is deliberately high so un-priced operations are conspicuous.
const DefaultGasCost uint64 = 100_000

var instructionGas = map[Opcode]uint64{
	OpTransform: 3,
	OpAlloc:     2,
	OpConsume:   1,
	OpCompose:   2,
	OpTensor:    2,
	OpMove:      1,
	OpApply:     2,
	OpSelect:    1,
	OpWitness:   1,
	OpMatch:     1,
	OpReturn:    1,
	OpLabel:     0,
	OpCheck:     2,
	OpPerform:   2,
}

var warnedOpcodes = make(map[Opcode]bool)

// InstructionGasCost returns the base gas cost charged by the simulation
// scheduler for a single traditional (non-session) instruction.
func InstructionGasCost(op Opcode) uint64 {
	if cost, ok := instructionGas[op]; ok {
		return cost
	}
	if !warnedOpcodes[op] {
		log.WithField("opcode", op.String()).Warn("gas_schedule: missing cost, charging default")
		warnedOpcodes[op] = true
	}
	return DefaultGasCost
}

// SessionOpKind tags the kind of session operation charged by
// SessionOpGasCost, independent of the concrete SessionType continuation it
// advances.
type SessionOpKind int

const (
	SessionOpSend SessionOpKind = iota
	SessionOpReceive
	SessionOpInternalChoice
	SessionOpExternalChoice
	SessionOpEnd
)

var sessionGas = map[SessionOpKind]uint64{
	SessionOpSend:           3,
	SessionOpReceive:        2,
	SessionOpInternalChoice: 4,
	SessionOpExternalChoice: 2,
	SessionOpEnd:            1,
}

// SessionOpGasCost returns the gas charged for executing one session
// operation (§4.5).
func SessionOpGasCost(kind SessionOpKind) uint64 {
	if cost, ok := sessionGas[kind]; ok {
		return cost
	}
	return DefaultGasCost
}
