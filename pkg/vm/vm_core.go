// Package vm implements the Cairo VM's execution core: RunContext,
// Instruction decoding, and VirtualMachine.Step - fetch, decode, resolve
// operands (with algebraic deduction), assert, and commit register updates.
package vm

import (
	"github.com/feltlabs/cairo-vm-core/pkg/builtins"
	"github.com/feltlabs/cairo-vm-core/pkg/vm/memory"
	"github.com/feltlabs/cairo-vm-core/pkg/vmerr"
)

// TraceEntry records the registers at the start of one successful step.
// Kept for inspection during development; relocating it to a prover-ready
// format is out of this core's scope.
type TraceEntry struct {
	Pc memory.Relocatable
	Ap memory.Relocatable
	Fp memory.Relocatable
}

// VirtualMachine is the Cairo VM: registers, memory, and the builtin
// extension points a caller may register. It owns RunContext and Memory for
// the run's lifetime and never suspends mid-step - a step either commits or
// fails outright.
type VirtualMachine struct {
	RunContext     RunContext
	CurrentStep    uint
	Segments       memory.MemorySegmentManager
	BuiltinRunners []builtins.BuiltinRunner
	Trace          []TraceEntry
}

func NewVirtualMachine() *VirtualMachine {
	return &VirtualMachine{
		Segments:       memory.NewMemorySegmentManager(),
		BuiltinRunners: make([]builtins.BuiltinRunner, 0, 9),
		Trace:          make([]TraceEntry, 0),
	}
}

// Operands is the resolved quadruple for one instruction. Dst and Res are
// optional: Dst can remain undefined through a malformed Jnz (caught as
// UnconstrainedJnzDst at register update), and Res is undefined whenever
// ResLogic is Unconstrained.
type Operands struct {
	Dst *memory.MaybeRelocatable
	Op0 memory.MaybeRelocatable
	Op1 memory.MaybeRelocatable
	Res *memory.MaybeRelocatable
}

// Step fetches the instruction at pc, decodes it, and runs it.
func (vm *VirtualMachine) Step() error {
	encoded, ok := vm.Segments.Memory.Get(vm.RunContext.Pc)
	if !ok {
		return vmerr.Newf(vmerr.EndOfInstructions, "no instruction at %s", vm.RunContext.Pc)
	}

	encodedFelt, ok := encoded.GetFelt()
	if !ok {
		return vmerr.New(vmerr.InstructionEncodingError, "instruction memory cell holds a relocatable, not a felt")
	}

	raw, ok := encodedFelt.ToU64()
	if !ok {
		return vmerr.New(vmerr.InstructionEncodingError, "instruction felt does not fit in 64 bits")
	}

	instr, err := DecodeInstruction(raw)
	if err != nil {
		return err
	}

	return vm.RunInstruction(&instr)
}

// RunInstruction resolves operands, checks the opcode's assertions, records
// a trace entry, and commits the register update - in that order, so a
// failure at any stage leaves the trace and registers untouched.
func (vm *VirtualMachine) RunInstruction(instr *Instruction) error {
	operands, err := vm.ComputeOperands(*instr)
	if err != nil {
		return err
	}

	if err := vm.OpcodeAssertions(*instr, operands); err != nil {
		return err
	}

	entry := TraceEntry{Pc: vm.RunContext.Pc, Ap: vm.RunContext.Ap, Fp: vm.RunContext.Fp}

	if err := vm.UpdateRegisters(instr, &operands); err != nil {
		return err
	}

	vm.Trace = append(vm.Trace, entry)
	vm.CurrentStep++
	return nil
}

// ComputeOperands computes the three operand addresses, reads whatever is
// already in memory, and runs the deduction cascade for anything missing,
// writing deduced values back through Memory.Insert's write-once equality
// check.
func (vm *VirtualMachine) ComputeOperands(instr Instruction) (Operands, error) {
	var res *memory.MaybeRelocatable

	dstAddr, err := vm.RunContext.ComputeDstAddr(instr)
	if err != nil {
		return Operands{}, err
	}
	var dst *memory.MaybeRelocatable
	if v, ok := vm.Segments.Memory.Get(dstAddr); ok {
		dst = &v
	}

	op0Addr, err := vm.RunContext.ComputeOp0Addr(instr)
	if err != nil {
		return Operands{}, err
	}
	var op0Read *memory.MaybeRelocatable
	if v, ok := vm.Segments.Memory.Get(op0Addr); ok {
		op0Read = &v
	}

	op1Addr, err := vm.RunContext.ComputeOp1Addr(instr, op0Read)
	if err != nil {
		return Operands{}, err
	}
	var op1Read *memory.MaybeRelocatable
	if v, ok := vm.Segments.Memory.Get(op1Addr); ok {
		op1Read = &v
	}

	var op0 memory.MaybeRelocatable
	if op0Read != nil {
		op0 = *op0Read
	} else {
		deduced, deducedRes, err := vm.computeOp0(op0Addr, &instr, dst, op1Read)
		if err != nil {
			return Operands{}, err
		}
		op0 = deduced
		res = deducedRes
	}

	var op1 memory.MaybeRelocatable
	if op1Read != nil {
		op1 = *op1Read
	} else {
		deduced, deducedRes, err := vm.computeOp1(op1Addr, &instr, dst, &op0)
		if err != nil {
			return Operands{}, err
		}
		op1 = deduced
		if res == nil {
			res = deducedRes
		}
	}

	if res == nil {
		computed, err := vm.ComputeRes(instr, op0, op1)
		if err != nil {
			return Operands{}, err
		}
		res = computed
	}

	if dst == nil {
		if deducedDst := vm.DeduceDst(instr, res); deducedDst != nil {
			if err := vm.Segments.Memory.Insert(dstAddr, *deducedDst); err != nil {
				return Operands{}, err
			}
			dst = deducedDst
		}
	}

	return Operands{Dst: dst, Op0: op0, Op1: op1, Res: res}, nil
}

// computeOp0 deduces op0 when it was absent from memory: first giving any
// registered builtin owning op0Addr's segment a chance, then falling back to
// DeduceOp0. Inserts the deduced value at op0Addr.
func (vm *VirtualMachine) computeOp0(addr memory.Relocatable, instr *Instruction, dst, op1 *memory.MaybeRelocatable) (memory.MaybeRelocatable, *memory.MaybeRelocatable, error) {
	builtinVal, err := vm.DeduceMemoryCell(addr)
	if err != nil {
		return memory.MaybeRelocatable{}, nil, err
	}

	deduced := builtinVal
	var deducedRes *memory.MaybeRelocatable
	if deduced == nil {
		deduced, deducedRes, err = vm.DeduceOp0(instr, dst, op1)
		if err != nil {
			return memory.MaybeRelocatable{}, nil, err
		}
	}
	if deduced == nil {
		return memory.MaybeRelocatable{}, nil, vmerr.New(vmerr.UnconstrainedRes, "op0 is undefined and could not be deduced")
	}
	if err := vm.Segments.Memory.Insert(addr, *deduced); err != nil {
		return memory.MaybeRelocatable{}, nil, err
	}
	return *deduced, deducedRes, nil
}

// computeOp1 is computeOp0's mirror for op1.
func (vm *VirtualMachine) computeOp1(addr memory.Relocatable, instr *Instruction, dst, op0 *memory.MaybeRelocatable) (memory.MaybeRelocatable, *memory.MaybeRelocatable, error) {
	builtinVal, err := vm.DeduceMemoryCell(addr)
	if err != nil {
		return memory.MaybeRelocatable{}, nil, err
	}

	deduced := builtinVal
	var deducedRes *memory.MaybeRelocatable
	if deduced == nil {
		deduced, deducedRes, err = vm.DeduceOp1(instr, dst, op0)
		if err != nil {
			return memory.MaybeRelocatable{}, nil, err
		}
	}
	if deduced == nil {
		return memory.MaybeRelocatable{}, nil, vmerr.New(vmerr.UnconstrainedRes, "op1 is undefined and could not be deduced")
	}
	if err := vm.Segments.Memory.Insert(addr, *deduced); err != nil {
		return memory.MaybeRelocatable{}, nil, err
	}
	return *deduced, deducedRes, nil
}

// DeduceOp0 tries to derive op0 (and sometimes res alongside it) from dst
// and op1, per the opcode/res_logic-specific rules. Returns (nil, nil, nil)
// when no rule applies. Division by zero under ResMul is swallowed, not
// reported - it just defers to a later deduction path.
func (vm *VirtualMachine) DeduceOp0(instr *Instruction, dst, op1 *memory.MaybeRelocatable) (*memory.MaybeRelocatable, *memory.MaybeRelocatable, error) {
	switch instr.Opcode {
	case Call:
		newPc, err := vm.RunContext.Pc.AddUint(instr.Size())
		if err != nil {
			return nil, nil, err
		}
		v := memory.NewFromRelocatable(newPc)
		return &v, nil, nil
	case AssertEq:
		switch instr.ResLogic {
		case ResAdd:
			if dst != nil && op1 != nil {
				diff, err := dst.Sub(*op1)
				if err != nil {
					return nil, nil, err
				}
				return &diff, dst, nil
			}
		case ResMul:
			if dst != nil && op1 != nil {
				dstFelt, dstOk := dst.GetFelt()
				op1Felt, op1Ok := op1.GetFelt()
				if dstOk && op1Ok && !op1Felt.IsZero() {
					q, err := dstFelt.Div(op1Felt)
					if err != nil {
						return nil, nil, nil
					}
					v := memory.NewFromFelt(q)
					return &v, dst, nil
				}
			}
		}
	}
	return nil, nil, nil
}

// DeduceOp1 is DeduceOp0's mirror for op1, the only opcode it applies to
// being AssertEq.
func (vm *VirtualMachine) DeduceOp1(instr *Instruction, dst, op0 *memory.MaybeRelocatable) (*memory.MaybeRelocatable, *memory.MaybeRelocatable, error) {
	if instr.Opcode != AssertEq {
		return nil, nil, nil
	}
	switch instr.ResLogic {
	case ResOp1:
		return dst, dst, nil
	case ResAdd:
		if dst != nil && op0 != nil {
			diff, err := dst.Sub(*op0)
			if err != nil {
				return nil, nil, err
			}
			return &diff, dst, nil
		}
	case ResMul:
		if dst != nil && op0 != nil {
			dstFelt, dstOk := dst.GetFelt()
			op0Felt, op0Ok := op0.GetFelt()
			if dstOk && op0Ok && !op0Felt.IsZero() {
				q, err := dstFelt.Div(op0Felt)
				if err != nil {
					return nil, nil, nil
				}
				v := memory.NewFromFelt(q)
				return &v, dst, nil
			}
		}
	}
	return nil, nil, nil
}

// ComputeRes computes res from op0 and op1 once both are defined.
func (vm *VirtualMachine) ComputeRes(instr Instruction, op0, op1 memory.MaybeRelocatable) (*memory.MaybeRelocatable, error) {
	switch instr.ResLogic {
	case ResOp1:
		return &op1, nil
	case ResAdd:
		sum, err := op0.Add(op1)
		if err != nil {
			return nil, err
		}
		return &sum, nil
	case ResMul:
		prod, err := op0.Mul(op1)
		if err != nil {
			return nil, err
		}
		return &prod, nil
	case ResUnconstrained:
		return nil, nil
	}
	return nil, nil
}

// DeduceDst derives dst when it was absent from memory: AssertEq's dst is
// whatever res turned out to be, Call's dst is always fp.
func (vm *VirtualMachine) DeduceDst(instr Instruction, res *memory.MaybeRelocatable) *memory.MaybeRelocatable {
	switch instr.Opcode {
	case AssertEq:
		return res
	case Call:
		v := memory.NewFromRelocatable(vm.RunContext.Fp)
		return &v
	}
	return nil
}

// OpcodeAssertions enforces the opcode-specific invariants after operand
// resolution. Ret and NoOp assert nothing.
func (vm *VirtualMachine) OpcodeAssertions(instr Instruction, operands Operands) error {
	switch instr.Opcode {
	case AssertEq:
		if operands.Res == nil {
			return vmerr.New(vmerr.UnconstrainedRes, "AssertEq requires a defined res")
		}
		if operands.Dst == nil {
			return vmerr.New(vmerr.UnconstrainedRes, "AssertEq requires a defined dst")
		}
		if !operands.Res.IsEqual(*operands.Dst) {
			return vmerr.Newf(vmerr.DiffAssertValues, "assert failed: dst=%s res=%s", *operands.Dst, *operands.Res)
		}
	case Call:
		expectedOp0, err := vm.RunContext.Pc.AddUint(instr.Size())
		if err != nil {
			return err
		}
		if !operands.Op0.IsEqual(memory.NewFromRelocatable(expectedOp0)) {
			return vmerr.New(vmerr.InvalidOp0ForCall, "call's op0 must equal pc + instruction size")
		}
		if operands.Dst == nil {
			return vmerr.New(vmerr.InvalidDstForCall, "call's dst is undefined")
		}
		if !operands.Dst.IsEqual(memory.NewFromRelocatable(vm.RunContext.Fp)) {
			return vmerr.New(vmerr.InvalidDstForCall, "call's dst must equal fp")
		}
	}
	return nil
}

// UpdateRegisters computes the next pc, ap, and fp from the *current*
// registers and operands, then commits all three together - a partial
// register update is never visible to a later step.
func (vm *VirtualMachine) UpdateRegisters(instr *Instruction, operands *Operands) error {
	newFp, err := vm.computeNewFp(instr, operands)
	if err != nil {
		return err
	}
	newAp, err := vm.computeNewAp(instr, operands)
	if err != nil {
		return err
	}
	newPc, err := vm.computeNewPc(instr, operands)
	if err != nil {
		return err
	}

	vm.RunContext.Fp = newFp
	vm.RunContext.Ap = newAp
	vm.RunContext.Pc = newPc
	return nil
}

func (vm *VirtualMachine) computeNewPc(instr *Instruction, operands *Operands) (memory.Relocatable, error) {
	switch instr.PcUpdate {
	case PcUpdateRegular:
		return vm.RunContext.Pc.AddUint(instr.Size())
	case PcUpdateJump:
		if operands.Res == nil {
			return memory.Relocatable{}, vmerr.New(vmerr.InvalidJumpTarget, "Jump requires a defined res")
		}
		target, ok := operands.Res.GetRelocatable()
		if !ok {
			return memory.Relocatable{}, vmerr.New(vmerr.InvalidJumpTarget, "Jump target must be a relocatable")
		}
		return target, nil
	case PcUpdateJumpRel:
		if operands.Res == nil {
			return memory.Relocatable{}, vmerr.New(vmerr.InvalidJumpRelTarget, "JumpRel requires a defined res")
		}
		offset, ok := operands.Res.GetFelt()
		if !ok {
			return memory.Relocatable{}, vmerr.New(vmerr.InvalidJumpRelTarget, "JumpRel offset must be a felt")
		}
		return vm.RunContext.Pc.AddFelt(offset)
	case PcUpdateJnz:
		if operands.Dst == nil {
			return memory.Relocatable{}, vmerr.New(vmerr.UnconstrainedJnzDst, "Jnz requires a defined dst")
		}
		if operands.Dst.IsZero() {
			return vm.RunContext.Pc.AddUint(instr.Size())
		}
		op1Felt, ok := operands.Op1.GetFelt()
		if !ok {
			return memory.Relocatable{}, vmerr.New(vmerr.InvalidJnzOp1, "Jnz's branch offset (op1) must be a felt")
		}
		return vm.RunContext.Pc.AddFelt(op1Felt)
	}
	return memory.Relocatable{}, vmerr.New(vmerr.InvalidPcUpdate, "unknown pc_update")
}

func (vm *VirtualMachine) computeNewAp(instr *Instruction, operands *Operands) (memory.Relocatable, error) {
	switch instr.ApUpdate {
	case ApUpdateRegular:
		return vm.RunContext.Ap, nil
	case ApUpdateAdd:
		if operands.Res == nil {
			return memory.Relocatable{}, vmerr.New(vmerr.UnconstrainedRes, "ApUpdate.Add requires a defined res")
		}
		return vm.RunContext.Ap.AddMaybeRelocatable(*operands.Res)
	case ApUpdateAdd1:
		return vm.RunContext.Ap.AddUint(1)
	case ApUpdateAdd2:
		return vm.RunContext.Ap.AddUint(2)
	}
	return memory.Relocatable{}, vmerr.New(vmerr.InvalidApUpdate, "unknown ap_update")
}

func (vm *VirtualMachine) computeNewFp(instr *Instruction, operands *Operands) (memory.Relocatable, error) {
	switch instr.FpUpdate {
	case FpUpdateRegular:
		return vm.RunContext.Fp, nil
	case FpUpdateAPPlus2:
		return vm.RunContext.Ap.AddUint(2)
	case FpUpdateDst:
		if operands.Dst == nil {
			return memory.Relocatable{}, vmerr.New(vmerr.InvalidFpUpdate, "Ret requires a defined dst")
		}
		rel, ok := operands.Dst.GetRelocatable()
		if !ok {
			return memory.Relocatable{}, vmerr.New(vmerr.InvalidFpUpdate, "Ret's dst must be a relocatable")
		}
		return rel, nil
	}
	return memory.Relocatable{}, vmerr.New(vmerr.InvalidFpUpdate, "unknown fp_update")
}

// DeduceMemoryCell gives the builtin owning addr's segment, if any, a
// chance to deduce addr's value before algebraic deduction runs. Returns
// (nil, nil) when no builtin owns the segment or it has no deduction for
// this cell.
func (vm *VirtualMachine) DeduceMemoryCell(addr memory.Relocatable) (*memory.MaybeRelocatable, error) {
	if addr.SegmentIndex < 0 {
		return nil, nil
	}
	for i := range vm.BuiltinRunners {
		if vm.BuiltinRunners[i].Base().SegmentIndex == addr.SegmentIndex {
			return vm.BuiltinRunners[i].DeduceMemoryCell(addr, vm.Segments.Memory)
		}
	}
	return nil, nil
}
