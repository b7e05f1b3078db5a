package core

// The Layer-0 target of the compiler: a small register-machine instruction
// set. Registers here are virtual-register ordinals minted by the code
// generator (core.RegisterAllocator), distinct from the content-addressed
// one-time Register entities of register.go.

import "fmt"

// Reg is an opaque, non-zero virtual-register ordinal.
type Reg uint32

// Label identifies a jump target minted by the code generator.
type Label uint32

// Opcode identifies an instruction kind. The set is fixed at 14 members per
// the compiler's Layer-0 target; every opcode's read/write set is derivable
// from its tag alone (§3 invariant 6).
type Opcode uint8

const (
	OpMove Opcode = iota
	OpApply
	OpAlloc
	OpConsume
	OpSelect
	OpWitness
	OpMatch
	OpReturn
	OpLabel
	OpCompose
	OpTensor
	OpTransform
	OpCheck
	OpPerform
)

func (o Opcode) String() string {
	switch o {
	case OpMove:
		return "Move"
	case OpApply:
		return "Apply"
	case OpAlloc:
		return "Alloc"
	case OpConsume:
		return "Consume"
	case OpSelect:
		return "Select"
	case OpWitness:
		return "Witness"
	case OpMatch:
		return "Match"
	case OpReturn:
		return "Return"
	case OpLabel:
		return "LabelMarker"
	case OpCompose:
		return "Compose"
	case OpTensor:
		return "Tensor"
	case OpTransform:
		return "Transform"
	case OpCheck:
		return "Check"
	case OpPerform:
		return "Perform"
	default:
		return fmt.Sprintf("Opcode(%d)", uint8(o))
	}
}

// Instruction is a single register-machine instruction. Rather than a Go sum
// type, it is one flat struct carrying every opcode's payload fields; the Op
// tag selects which fields are meaningful, mirroring how the teacher prefers
// flat, allocation-cheap structs over interface-boxed variants on hot paths.
type Instruction struct {
	Op Opcode

	// Move
	Src, Dst Reg

	// Apply: Fn(Arg) -> Out
	Fn, Arg, Out Reg

	// Alloc: materializes Val under Type into Out
	Type, Val Reg

	// Consume: Resource -> Out
	Resource Reg

	// Select: cond ? T : F -> Out
	Cond, T, F Reg

	// Match: discriminate Sum into LeftVar/RightVar, branch to LeftLbl/RightLbl
	Sum, LeftVar, RightVar Reg
	LeftLbl, RightLbl      Label

	// Return: optional result register (valid iff HasResult)
	Result    Reg
	HasResult bool

	// LabelMarker
	Lbl Label

	// Compose / Tensor: binary combinators
	First, Second, A, B Reg

	// Transform: a named morphism applied to In, producing Out
	Morph string
	In    Reg

	// Check: assertion over a register set, with a human-readable predicate
	CheckRegs []Reg
	Predicate string

	// Perform: an effectful tag with argument registers
	Tag  string
	Args []Reg
}

// Reads returns the set of registers this instruction reads from.
func (i Instruction) Reads() []Reg {
	switch i.Op {
	case OpMove:
		return []Reg{i.Src}
	case OpApply:
		return []Reg{i.Fn, i.Arg}
	case OpAlloc:
		return []Reg{i.Type, i.Val}
	case OpConsume:
		return []Reg{i.Resource}
	case OpSelect:
		return []Reg{i.Cond, i.T, i.F}
	case OpWitness:
		return nil
	case OpMatch:
		return []Reg{i.Sum}
	case OpReturn:
		if i.HasResult {
			return []Reg{i.Result}
		}
		return nil
	case OpLabel:
		return nil
	case OpCompose:
		return []Reg{i.First, i.Second}
	case OpTensor:
		return []Reg{i.A, i.B}
	case OpTransform:
		return []Reg{i.In}
	case OpCheck:
		return append([]Reg(nil), i.CheckRegs...)
	case OpPerform:
		return append([]Reg(nil), i.Args...)
	default:
		return nil
	}
}

// Writes returns the set of registers this instruction defines.
func (i Instruction) Writes() []Reg {
	switch i.Op {
	case OpMove:
		return []Reg{i.Dst}
	case OpApply:
		return []Reg{i.Out}
	case OpAlloc:
		return []Reg{i.Out}
	case OpConsume:
		return []Reg{i.Out}
	case OpSelect:
		return []Reg{i.Out}
	case OpWitness:
		return []Reg{i.Out}
	case OpMatch:
		return []Reg{i.LeftVar, i.RightVar}
	case OpReturn:
		return nil
	case OpLabel:
		return nil
	case OpCompose:
		return []Reg{i.Out}
	case OpTensor:
		return []Reg{i.Out}
	case OpTransform:
		return []Reg{i.Out}
	case OpCheck:
		return nil
	case OpPerform:
		return nil
	default:
		return nil
	}
}

// HasSideEffects reports whether the instruction performs an observable
// effect beyond register assignment, making it ineligible for dead-code
// elimination (§4.2).
func (i Instruction) HasSideEffects() bool {
	switch i.Op {
	case OpAlloc, OpConsume, OpCheck, OpPerform, OpWitness:
		return true
	default:
		return false
	}
}

func (i Instruction) String() string {
	switch i.Op {
	case OpMove:
		return fmt.Sprintf("Move{%d->%d}", i.Src, i.Dst)
	case OpApply:
		return fmt.Sprintf("Apply{fn=%d,arg=%d,out=%d}", i.Fn, i.Arg, i.Out)
	case OpAlloc:
		return fmt.Sprintf("Alloc{type=%d,val=%d,out=%d}", i.Type, i.Val, i.Out)
	case OpConsume:
		return fmt.Sprintf("Consume{res=%d,out=%d}", i.Resource, i.Out)
	case OpSelect:
		return fmt.Sprintf("Select{cond=%d,t=%d,f=%d,out=%d}", i.Cond, i.T, i.F, i.Out)
	case OpWitness:
		return fmt.Sprintf("Witness{out=%d}", i.Out)
	case OpMatch:
		return fmt.Sprintf("Match{sum=%d,l=%d,r=%d,Ll=%d,Lr=%d}", i.Sum, i.LeftVar, i.RightVar, i.LeftLbl, i.RightLbl)
	case OpReturn:
		if i.HasResult {
			return fmt.Sprintf("Return{%d}", i.Result)
		}
		return "Return{}"
	case OpLabel:
		return fmt.Sprintf("Label(%d)", i.Lbl)
	case OpCompose:
		return fmt.Sprintf("Compose{%d,%d->%d}", i.First, i.Second, i.Out)
	case OpTensor:
		return fmt.Sprintf("Tensor{%d,%d->%d}", i.A, i.B, i.Out)
	case OpTransform:
		return fmt.Sprintf("Transform{%s,%d->%d}", i.Morph, i.In, i.Out)
	case OpCheck:
		return fmt.Sprintf("Check{%v: %s}", i.CheckRegs, i.Predicate)
	case OpPerform:
		return fmt.Sprintf("Perform{%s%v}", i.Tag, i.Args)
	default:
		return "?"
	}
}
