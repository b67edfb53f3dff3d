package vm_test

import (
	"testing"

	"github.com/feltlabs/cairo-vm-core/pkg/vm"
)

func TestDecodeHighBitSetFails(t *testing.T) {
	_, err := vm.DecodeInstruction(1 << 63)
	if err == nil {
		t.Fatalf("expected HighBitSet error")
	}
}

func TestDecodeInvalidOp1Src(t *testing.T) {
	// op1_src bits = 3 (0b011), not one of {0,1,2,4}.
	raw := uint64(3) << 50
	_, err := vm.DecodeInstruction(raw)
	if err == nil {
		t.Fatalf("expected InvalidOp1Src error")
	}
}

func TestDecodeInvalidResLogic(t *testing.T) {
	// res_logic bits = 3, not one of {0,1,2}.
	raw := uint64(3) << 53
	_, err := vm.DecodeInstruction(raw)
	if err == nil {
		t.Fatalf("expected InvalidResLogic error")
	}
}

func TestDecodeInvalidPcUpdate(t *testing.T) {
	raw := uint64(3) << 55
	_, err := vm.DecodeInstruction(raw)
	if err == nil {
		t.Fatalf("expected InvalidPcUpdate error")
	}
}

func TestDecodeInvalidApUpdate(t *testing.T) {
	raw := uint64(3) << 58
	_, err := vm.DecodeInstruction(raw)
	if err == nil {
		t.Fatalf("expected InvalidApUpdate error")
	}
}

func TestDecodeInvalidOpcode(t *testing.T) {
	raw := uint64(3) << 60
	_, err := vm.DecodeInstruction(raw)
	if err == nil {
		t.Fatalf("expected InvalidOpcode error")
	}
}

func TestDecodeJnzForcesResUnconstrained(t *testing.T) {
	raw := uint64(4) << 55 // pc_update = Jnz, res_logic bits left at 0 (Op1)
	instr, err := vm.DecodeInstruction(raw)
	if err != nil {
		t.Fatalf("decode error: %s", err)
	}
	if instr.ResLogic != vm.ResUnconstrained {
		t.Errorf("expected ResUnconstrained under Jnz, got %v", instr.ResLogic)
	}
}

func TestDecodeCallForcesApUpdateAdd2(t *testing.T) {
	raw := uint64(1) << 60 // opcode = Call, ap_update bits left at 0 (Regular)
	instr, err := vm.DecodeInstruction(raw)
	if err != nil {
		t.Fatalf("decode error: %s", err)
	}
	if instr.ApUpdate != vm.ApUpdateAdd2 {
		t.Errorf("expected ApUpdateAdd2 under Call, got %v", instr.ApUpdate)
	}
	if instr.FpUpdate != vm.FpUpdateAPPlus2 {
		t.Errorf("expected FpUpdateAPPlus2 derived for Call, got %v", instr.FpUpdate)
	}
}

func TestDecodeRetDerivesFpUpdateDst(t *testing.T) {
	raw := uint64(2) << 60 // opcode = Ret
	instr, err := vm.DecodeInstruction(raw)
	if err != nil {
		t.Fatalf("decode error: %s", err)
	}
	if instr.FpUpdate != vm.FpUpdateDst {
		t.Errorf("expected FpUpdateDst derived for Ret, got %v", instr.FpUpdate)
	}
}

func TestInstructionSize(t *testing.T) {
	imm := vm.Instruction{Op1Src: vm.Op1SrcImm}
	if imm.Size() != 2 {
		t.Errorf("expected size 2 for immediate op1, got %d", imm.Size())
	}
	reg := vm.Instruction{Op1Src: vm.Op1SrcFP}
	if reg.Size() != 1 {
		t.Errorf("expected size 1 for non-immediate op1, got %d", reg.Size())
	}
}

func TestDecodeEncodeRoundTrip(t *testing.T) {
	// A realistic assert_eq instruction: dst=[ap+0], op0=[fp-1], op1=[fp+2], res_logic=Add.
	cases := []vm.Instruction{
		{
			OffDst: 0, OffOp0: -1, OffOp1: 2,
			DstReg: vm.RegisterAP, Op0Reg: vm.RegisterFP, Op1Src: vm.Op1SrcFP,
			ResLogic: vm.ResAdd, PcUpdate: vm.PcUpdateRegular, ApUpdate: vm.ApUpdateRegular,
			FpUpdate: vm.FpUpdateRegular, Opcode: vm.AssertEq,
		},
		{
			OffDst: -2, OffOp0: 0, OffOp1: 1,
			DstReg: vm.RegisterFP, Op0Reg: vm.RegisterAP, Op1Src: vm.Op1SrcImm,
			ResLogic: vm.ResOp1, PcUpdate: vm.PcUpdateRegular, ApUpdate: vm.ApUpdateRegular,
			FpUpdate: vm.FpUpdateRegular, Opcode: vm.NoOp,
		},
		{
			OffDst: 0, OffOp0: 0, OffOp1: 1,
			DstReg: vm.RegisterAP, Op0Reg: vm.RegisterAP, Op1Src: vm.Op1SrcImm,
			ResLogic: vm.ResOp1, PcUpdate: vm.PcUpdateRegular, ApUpdate: vm.ApUpdateAdd2,
			FpUpdate: vm.FpUpdateAPPlus2, Opcode: vm.Call,
		},
	}

	for i, want := range cases {
		raw := want.Encode()
		got, err := vm.DecodeInstruction(raw)
		if err != nil {
			t.Fatalf("case %d: decode error: %s", i, err)
		}
		if got != want {
			t.Errorf("case %d: round trip mismatch:\n want %+v\n got  %+v", i, want, got)
		}
	}
}
