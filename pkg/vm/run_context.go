package vm

import (
	"github.com/feltlabs/cairo-vm-core/pkg/vm/memory"
	"github.com/feltlabs/cairo-vm-core/pkg/vmerr"
)

// RunContext holds the three VM registers. It is mutated only by Step (via
// UpdateRegisters), never directly by operand resolution.
type RunContext struct {
	Pc memory.Relocatable
	Ap memory.Relocatable
	Fp memory.Relocatable
}

// ComputeAddress resolves (reg, offset) to base +/- |offset|, where base is
// Ap or Fp per reg.
func (r *RunContext) ComputeAddress(reg Register, offset int) (memory.Relocatable, error) {
	switch reg {
	case RegisterAP:
		return r.Ap.AddInt(offset)
	case RegisterFP:
		return r.Fp.AddInt(offset)
	default:
		return memory.Relocatable{}, vmerr.New(vmerr.InvalidOp1Src, "unknown register selector")
	}
}

// ComputeDstAddr resolves the dst operand's address.
func (r *RunContext) ComputeDstAddr(instr Instruction) (memory.Relocatable, error) {
	return r.ComputeAddress(instr.DstReg, instr.OffDst)
}

// ComputeOp0Addr resolves the op0 operand's address.
func (r *RunContext) ComputeOp0Addr(instr Instruction) (memory.Relocatable, error) {
	return r.ComputeAddress(instr.Op0Reg, instr.OffOp0)
}

// ComputeOp1Addr resolves op1's address, which - unlike dst and op0 - can
// depend on op0's already-read value (Op1Src == Op0).
func (r *RunContext) ComputeOp1Addr(instr Instruction, op0 *memory.MaybeRelocatable) (memory.Relocatable, error) {
	switch instr.Op1Src {
	case Op1SrcOp0:
		if op0 == nil {
			return memory.Relocatable{}, vmerr.New(vmerr.TypeMismatch, "op1 addressed via op0 but op0 is undefined")
		}
		base, ok := op0.GetRelocatable()
		if !ok {
			return memory.Relocatable{}, vmerr.New(vmerr.TypeMismatch, "op1 addressed via op0 but op0 is not a relocatable")
		}
		return base.AddInt(instr.OffOp1)
	case Op1SrcImm:
		if instr.OffOp1 != 1 {
			return memory.Relocatable{}, vmerr.Newf(vmerr.InvalidOp1Src, "immediate op1 requires off_op1 = 1, got %d", instr.OffOp1)
		}
		return r.Pc.AddInt(instr.OffOp1)
	case Op1SrcFP:
		return r.Fp.AddInt(instr.OffOp1)
	case Op1SrcAP:
		return r.Ap.AddInt(instr.OffOp1)
	default:
		return memory.Relocatable{}, vmerr.New(vmerr.InvalidOp1Src, "unknown op1 source")
	}
}
