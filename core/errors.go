package core

import "errors"

// Code-generation failures (§4.1). Fatal for the affected expression.
var (
	ErrUnknownSymbol      = errors.New("codegen: unknown symbol")
	ErrUnsupportedLiteral = errors.New("codegen: unsupported literal")
)

// Lifecycle failures (§4.3, §4.7). No partial state change is ever committed.
var (
	ErrInvalidState    = errors.New("lifecycle: invalid state transition")
	ErrDoubleSpend     = errors.New("lifecycle: double spend")
	ErrCausalViolation = errors.New("lifecycle: causal violation")
	ErrNotFound        = errors.New("lifecycle: not found")
)

// Engine configuration failures (§4.6).
var (
	ErrSnapshotsDisabled = errors.New("engine: snapshots disabled")
	ErrBranchNotFound    = errors.New("engine: branch not found")
)

// Session failures (§4.5, §7).
var ErrSessionProtocolViolation = errors.New("session: protocol violation")

// Engine termination results (§4.6, §7).
var (
	ErrDeadlock = errors.New("engine: deadlock")
	ErrTimeout  = errors.New("engine: timeout")
)

// Intent synthesis failures (§4.9).
var (
	ErrTemplateNotFound       = errors.New("intent: template not found")
	ErrUnsatisfiableConstraint = errors.New("intent: unsatisfiable constraint")
	ErrMissingResource        = errors.New("intent: missing resource")
)

// Storage / proof failures (§4.10, §6).
var (
	ErrInvalidProof      = errors.New("proof: invalid")
	ErrHashMismatch      = errors.New("proof: hash mismatch")
	ErrSerializationError = errors.New("codec: serialization error")
	ErrNoRPCClient       = errors.New("proof: no rpc client configured")
	ErrUnknownContract   = errors.New("proof: unknown contract")
	ErrUnsupportedType   = errors.New("proof: unsupported type")
)
