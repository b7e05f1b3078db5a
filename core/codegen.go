package core

// Lowers the 11-primitive source language to the register-machine ISA
// (instruction.go), following the operational semantics of §4.1. Grounded on
// the teacher's opcode-dispatch / gas-table split: one emitter owns a
// private buffer and scope stack, discarded once generation finishes.

import (
	"fmt"
)

// codegenState is privately owned by a single Generate call; both its
// instruction buffer and its binding stack are discarded on return.
type codegenState struct {
	alloc        *RegisterAllocator
	instructions []Instruction
	scopes       []map[string]Reg
}

func newCodegenState() *codegenState {
	return &codegenState{
		alloc:  NewRegisterAllocator(),
		scopes: []map[string]Reg{make(map[string]Reg)},
	}
}

func (s *codegenState) emit(in Instruction) {
	s.alloc.TouchAll(in.Reads())
	s.alloc.TouchAll(in.Writes())
	s.instructions = append(s.instructions, in)
}

func (s *codegenState) pushScope()         { s.scopes = append(s.scopes, make(map[string]Reg)) }
func (s *codegenState) popScope()          { s.scopes = s.scopes[:len(s.scopes)-1] }
func (s *codegenState) bind(name string, r Reg) {
	s.scopes[len(s.scopes)-1][name] = r
}

func (s *codegenState) lookup(name string) (Reg, bool) {
	for i := len(s.scopes) - 1; i >= 0; i-- {
		if r, ok := s.scopes[i][name]; ok {
			return r, true
		}
	}
	return 0, false
}

// GeneratedProgram is the result of Generate: an instruction stream plus the
// register count it consumed.
type GeneratedProgram struct {
	Instructions []Instruction
	RegisterCount int
}

// Generate lowers a SourceExpr into a Layer-0 instruction stream.
func Generate(expr *SourceExpr) (*GeneratedProgram, error) {
	st := newCodegenState()
	if _, err := genExpr(st, expr); err != nil {
		return nil, err
	}
	return &GeneratedProgram{
		Instructions:  st.instructions,
		RegisterCount: st.alloc.Count(),
	}, nil
}

// genExpr emits instructions for expr and returns the register holding its
// result.
func genExpr(st *codegenState, expr *SourceExpr) (Reg, error) {
	if expr == nil {
		return 0, fmt.Errorf("%w: nil expression", ErrUnsupportedLiteral)
	}
	switch expr.Kind {
	case ExprUnitVal:
		out := st.alloc.Fresh()
		st.emit(Instruction{Op: OpWitness, Out: out})
		return out, nil

	case ExprLiteral:
		if expr.LiteralType == "" {
			return 0, fmt.Errorf("%w: literal with no type tag", ErrUnsupportedLiteral)
		}
		out := st.alloc.Fresh()
		st.emit(Instruction{Op: OpWitness, Out: out})
		return out, nil

	case ExprVariable:
		r, ok := st.lookup(expr.Name)
		if !ok {
			return 0, fmt.Errorf("%w: %q", ErrUnknownSymbol, expr.Name)
		}
		return r, nil

	case ExprLetUnit:
		if _, err := genExpr(st, expr.E); err != nil {
			return 0, err
		}
		return genExpr(st, expr.Body)

	case ExprTensor:
		if _, err := genExpr(st, expr.L); err != nil {
			return 0, err
		}
		if _, err := genExpr(st, expr.R); err != nil {
			return 0, err
		}
		out := st.alloc.Fresh()
		st.emit(Instruction{Op: OpWitness, Out: out})
		return out, nil

	case ExprLetTensor:
		if _, err := genExpr(st, expr.E); err != nil {
			return 0, err
		}
		left := st.alloc.Fresh()
		st.emit(Instruction{Op: OpWitness, Out: left})
		right := st.alloc.Fresh()
		st.emit(Instruction{Op: OpWitness, Out: right})
		st.pushScope()
		st.bind(expr.XL, left)
		st.bind(expr.XR, right)
		result, err := genExpr(st, expr.Body)
		st.popScope()
		return result, err

	case ExprInl, ExprInr:
		if _, err := genExpr(st, expr.V); err != nil {
			return 0, err
		}
		out := st.alloc.Fresh()
		st.emit(Instruction{Op: OpWitness, Out: out})
		return out, nil

	case ExprCase:
		sumReg, err := genExpr(st, expr.E)
		if err != nil {
			return 0, err
		}
		result := st.alloc.Fresh()
		leftVar := st.alloc.Fresh()
		rightVar := st.alloc.Fresh()
		ll := st.alloc.FreshLabel()
		lr := st.alloc.FreshLabel()
		st.emit(Instruction{Op: OpMatch, Sum: sumReg, LeftVar: leftVar, RightVar: rightVar, LeftLbl: ll, RightLbl: lr})

		st.emit(Instruction{Op: OpLabel, Lbl: ll})
		st.pushScope()
		st.bind(expr.XL, leftVar)
		leftResult, err := genExpr(st, expr.BL)
		st.popScope()
		if err != nil {
			return 0, err
		}
		st.emit(Instruction{Op: OpMove, Src: leftResult, Dst: result})

		st.emit(Instruction{Op: OpLabel, Lbl: lr})
		st.pushScope()
		st.bind(expr.XR, rightVar)
		rightResult, err := genExpr(st, expr.BR)
		st.popScope()
		if err != nil {
			return 0, err
		}
		st.emit(Instruction{Op: OpMove, Src: rightResult, Dst: result})

		return result, nil

	case ExprLambda:
		if len(expr.Params) > 1 {
			return 0, fmt.Errorf("%w: multi-parameter lambda", ErrUnsupportedLiteral)
		}
		out := st.alloc.Fresh()
		st.emit(Instruction{Op: OpWitness, Out: out})
		lf := st.alloc.FreshLabel()
		st.emit(Instruction{Op: OpLabel, Lbl: lf})
		st.pushScope()
		if len(expr.Params) == 1 {
			param := st.alloc.Fresh()
			st.emit(Instruction{Op: OpWitness, Out: param})
			st.bind(expr.Params[0], param)
		}
		bodyResult, err := genExpr(st, expr.Body)
		if err != nil {
			st.popScope()
			return 0, err
		}
		st.emit(Instruction{Op: OpReturn, Result: bodyResult, HasResult: true})
		st.popScope()
		return out, nil

	case ExprApply:
		cur, err := genExpr(st, expr.Fn)
		if err != nil {
			return 0, err
		}
		for _, argExpr := range expr.Args {
			a, err := genExpr(st, argExpr)
			if err != nil {
				return 0, err
			}
			r := st.alloc.Fresh()
			st.emit(Instruction{Op: OpApply, Fn: cur, Arg: a, Out: r})
			cur = r
		}
		return cur, nil

	case ExprAlloc:
		val, err := genExpr(st, expr.V)
		if err != nil {
			return 0, err
		}
		typeReg := st.alloc.Fresh()
		st.emit(Instruction{Op: OpWitness, Out: typeReg})
		out := st.alloc.Fresh()
		st.emit(Instruction{Op: OpAlloc, Type: typeReg, Val: val, Out: out})
		return out, nil

	case ExprConsume:
		res, err := genExpr(st, expr.E)
		if err != nil {
			return 0, err
		}
		out := st.alloc.Fresh()
		st.emit(Instruction{Op: OpConsume, Resource: res, Out: out})
		return out, nil

	default:
		return 0, fmt.Errorf("%w: expr kind %d", ErrUnsupportedLiteral, expr.Kind)
	}
}
