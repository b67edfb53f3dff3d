package vm

import "github.com/feltlabs/cairo-vm-core/pkg/vmerr"

// Register selects which of ap/fp an offset is relative to.
type Register int

const (
	RegisterAP Register = iota
	RegisterFP
)

// Op1Src selects where op1's address comes from.
type Op1Src int

const (
	Op1SrcOp0 Op1Src = iota
	Op1SrcImm
	Op1SrcFP
	Op1SrcAP
)

// ResLogic selects how res is computed from op0 and op1.
type ResLogic int

const (
	ResOp1 ResLogic = iota
	ResAdd
	ResMul
	ResUnconstrained
)

// PcUpdate selects how pc advances.
type PcUpdate int

const (
	PcUpdateRegular PcUpdate = iota
	PcUpdateJump
	PcUpdateJumpRel
	PcUpdateJnz
)

// ApUpdate selects how ap advances.
type ApUpdate int

const (
	ApUpdateRegular ApUpdate = iota
	ApUpdateAdd
	ApUpdateAdd1
	ApUpdateAdd2
)

// FpUpdate selects how fp advances. Never encoded directly - derived from Opcode.
type FpUpdate int

const (
	FpUpdateRegular FpUpdate = iota
	FpUpdateAPPlus2
	FpUpdateDst
)

// Opcode selects the instruction's semantic family.
type Opcode int

const (
	NoOp Opcode = iota
	Call
	Ret
	AssertEq
)

// Instruction is the fully decoded form of a 63-bit encoded word.
type Instruction struct {
	OffDst int
	OffOp0 int
	OffOp1 int

	DstReg Register
	Op0Reg Register
	Op1Src Op1Src

	ResLogic ResLogic
	PcUpdate PcUpdate
	ApUpdate ApUpdate
	FpUpdate FpUpdate
	Opcode   Opcode
}

// Size is 2 when op1 is an immediate (it occupies the word right after the
// instruction), 1 otherwise.
func (i Instruction) Size() int {
	if i.Op1Src == Op1SrcImm {
		return 2
	}
	return 1
}

const offsetBias = 1 << 15

func fromBiased(u uint16) int {
	return int(u) - offsetBias
}

func toBiased(off int) uint16 {
	return uint16(off + offsetBias)
}

// DecodeInstruction decodes a 63-bit encoded instruction word. The layout
// (LSB first) is bit-exact against the published Cairo encoding and must
// round-trip through Encode.
func DecodeInstruction(raw uint64) (Instruction, error) {
	if raw&(1<<63) != 0 {
		return Instruction{}, vmerr.New(vmerr.HighBitSet, "instruction encoding's high bit must be zero")
	}

	offDst := fromBiased(uint16(raw))
	offOp0 := fromBiased(uint16(raw >> 16))
	offOp1 := fromBiased(uint16(raw >> 32))

	dstReg := RegisterAP
	if (raw>>48)&1 == 1 {
		dstReg = RegisterFP
	}
	op0Reg := RegisterAP
	if (raw>>49)&1 == 1 {
		op0Reg = RegisterFP
	}

	var op1Src Op1Src
	switch (raw >> 50) & 0x7 {
	case 0:
		op1Src = Op1SrcOp0
	case 1:
		op1Src = Op1SrcImm
	case 2:
		op1Src = Op1SrcFP
	case 4:
		op1Src = Op1SrcAP
	default:
		return Instruction{}, vmerr.Newf(vmerr.InvalidOp1Src, "invalid op1_src bits %#x", (raw>>50)&0x7)
	}

	var resLogic ResLogic
	switch (raw >> 53) & 0x3 {
	case 0:
		resLogic = ResOp1
	case 1:
		resLogic = ResAdd
	case 2:
		resLogic = ResMul
	default:
		return Instruction{}, vmerr.Newf(vmerr.InvalidResLogic, "invalid res_logic bits %#x", (raw>>53)&0x3)
	}

	var pcUpdate PcUpdate
	switch (raw >> 55) & 0x7 {
	case 0:
		pcUpdate = PcUpdateRegular
	case 1:
		pcUpdate = PcUpdateJump
	case 2:
		pcUpdate = PcUpdateJumpRel
	case 4:
		pcUpdate = PcUpdateJnz
	default:
		return Instruction{}, vmerr.Newf(vmerr.InvalidPcUpdate, "invalid pc_update bits %#x", (raw>>55)&0x7)
	}

	var apUpdate ApUpdate
	switch (raw >> 58) & 0x3 {
	case 0:
		apUpdate = ApUpdateRegular
	case 1:
		apUpdate = ApUpdateAdd
	case 2:
		apUpdate = ApUpdateAdd1
	default:
		return Instruction{}, vmerr.Newf(vmerr.InvalidApUpdate, "invalid ap_update bits %#x", (raw>>58)&0x3)
	}

	var opcode Opcode
	switch (raw >> 60) & 0x7 {
	case 0:
		opcode = NoOp
	case 1:
		opcode = Call
	case 2:
		opcode = Ret
	case 4:
		opcode = AssertEq
	default:
		return Instruction{}, vmerr.Newf(vmerr.InvalidOpcode, "invalid opcode bits %#x", (raw>>60)&0x7)
	}

	// res_logic 0 means Unconstrained, not Op1, when pc_update is Jnz.
	if pcUpdate == PcUpdateJnz && resLogic == ResOp1 {
		resLogic = ResUnconstrained
	}

	// ap_update 0 means Add2, not Regular, for a Call.
	if opcode == Call && apUpdate == ApUpdateRegular {
		apUpdate = ApUpdateAdd2
	}

	var fpUpdate FpUpdate
	switch opcode {
	case Call:
		fpUpdate = FpUpdateAPPlus2
	case Ret:
		fpUpdate = FpUpdateDst
	default:
		fpUpdate = FpUpdateRegular
	}

	return Instruction{
		OffDst:   offDst,
		OffOp0:   offOp0,
		OffOp1:   offOp1,
		DstReg:   dstReg,
		Op0Reg:   op0Reg,
		Op1Src:   op1Src,
		ResLogic: resLogic,
		PcUpdate: pcUpdate,
		ApUpdate: apUpdate,
		FpUpdate: fpUpdate,
		Opcode:   opcode,
	}, nil
}

// Encode is the left inverse of DecodeInstruction: it reconstructs the
// 63-bit word that would decode back to i. FpUpdate is never encoded; it is
// always re-derived from Opcode on decode.
func (i Instruction) Encode() uint64 {
	var raw uint64
	raw |= uint64(toBiased(i.OffDst))
	raw |= uint64(toBiased(i.OffOp0)) << 16
	raw |= uint64(toBiased(i.OffOp1)) << 32

	if i.DstReg == RegisterFP {
		raw |= 1 << 48
	}
	if i.Op0Reg == RegisterFP {
		raw |= 1 << 49
	}

	var op1SrcBits uint64
	switch i.Op1Src {
	case Op1SrcOp0:
		op1SrcBits = 0
	case Op1SrcImm:
		op1SrcBits = 1
	case Op1SrcFP:
		op1SrcBits = 2
	case Op1SrcAP:
		op1SrcBits = 4
	}
	raw |= op1SrcBits << 50

	var resLogicBits uint64
	switch i.ResLogic {
	case ResOp1, ResUnconstrained:
		resLogicBits = 0
	case ResAdd:
		resLogicBits = 1
	case ResMul:
		resLogicBits = 2
	}
	raw |= resLogicBits << 53

	var pcUpdateBits uint64
	switch i.PcUpdate {
	case PcUpdateRegular:
		pcUpdateBits = 0
	case PcUpdateJump:
		pcUpdateBits = 1
	case PcUpdateJumpRel:
		pcUpdateBits = 2
	case PcUpdateJnz:
		pcUpdateBits = 4
	}
	raw |= pcUpdateBits << 55

	var apUpdateBits uint64
	switch {
	case i.Opcode == Call && i.ApUpdate == ApUpdateAdd2:
		apUpdateBits = 0
	case i.ApUpdate == ApUpdateRegular:
		apUpdateBits = 0
	case i.ApUpdate == ApUpdateAdd:
		apUpdateBits = 1
	case i.ApUpdate == ApUpdateAdd1:
		apUpdateBits = 2
	}
	raw |= apUpdateBits << 58

	var opcodeBits uint64
	switch i.Opcode {
	case NoOp:
		opcodeBits = 0
	case Call:
		opcodeBits = 1
	case Ret:
		opcodeBits = 2
	case AssertEq:
		opcodeBits = 4
	}
	raw |= opcodeBits << 60

	return raw
}
