package vm_test

import (
	"testing"

	"github.com/feltlabs/cairo-vm-core/pkg/vm"
	"github.com/feltlabs/cairo-vm-core/pkg/vm/memory"
)

func TestComputeAddressAP(t *testing.T) {
	rc := vm.RunContext{Ap: memory.Relocatable{SegmentIndex: 1, Offset: 5}}
	addr, err := rc.ComputeAddress(vm.RegisterAP, -2)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if addr != (memory.Relocatable{SegmentIndex: 1, Offset: 3}) {
		t.Errorf("expected 1:3, got %s", addr)
	}
}

func TestComputeAddressFP(t *testing.T) {
	rc := vm.RunContext{Fp: memory.Relocatable{SegmentIndex: 2, Offset: 10}}
	addr, err := rc.ComputeAddress(vm.RegisterFP, 3)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if addr != (memory.Relocatable{SegmentIndex: 2, Offset: 13}) {
		t.Errorf("expected 2:13, got %s", addr)
	}
}

func TestComputeOp1AddrImmRequiresOffsetOne(t *testing.T) {
	rc := vm.RunContext{Pc: memory.Relocatable{SegmentIndex: 0, Offset: 10}}
	instr := vm.Instruction{Op1Src: vm.Op1SrcImm, OffOp1: 1}
	addr, err := rc.ComputeOp1Addr(instr, nil)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if addr != (memory.Relocatable{SegmentIndex: 0, Offset: 11}) {
		t.Errorf("expected 0:11, got %s", addr)
	}

	badInstr := vm.Instruction{Op1Src: vm.Op1SrcImm, OffOp1: 2}
	if _, err := rc.ComputeOp1Addr(badInstr, nil); err == nil {
		t.Errorf("expected InvalidOp1Src when off_op1 != 1 for an immediate")
	}
}

func TestComputeOp1AddrViaOp0(t *testing.T) {
	rc := vm.RunContext{}
	instr := vm.Instruction{Op1Src: vm.Op1SrcOp0, OffOp1: 5}
	op0 := memory.NewFromRelocatable(memory.Relocatable{SegmentIndex: 3, Offset: 0})

	addr, err := rc.ComputeOp1Addr(instr, &op0)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if addr != (memory.Relocatable{SegmentIndex: 3, Offset: 5}) {
		t.Errorf("expected 3:5, got %s", addr)
	}

	if _, err := rc.ComputeOp1Addr(instr, nil); err == nil {
		t.Errorf("expected TypeMismatch when op1 is addressed via an undefined op0")
	}
}
