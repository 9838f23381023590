package insts

import "fmt"

// recipeFlag is a bitset over the decode-path flags a first-byte recipe can
// carry, matching the 8086 reference's opcode metadata table.
type recipeFlag uint16

// Recipe flag bits.
const (
	flagRegIsDst    recipeFlag = 1 << iota // reg-side operand is dst, not src
	flagSignExt                            // s bit: 8-bit immediate sign-extends to operand width
	flagWidthWord                          // w bit: operand width is word, not byte
	flagRegByte1                           // low 3 bits of byte 1 select a register
	flagModRM                              // byte 2 is a ModR/M byte
	flagRegByte2                           // middle 3 bits of byte 2 select a register
	flagAddtlOpCode                        // middle 3 bits of byte 2 index recipe.ext instead
	flagImm                                // an immediate follows
	flagMem                                // a 16-bit direct address follows
	flagAcc                                // implicit AX/AL operand
	flagIncIP8                             // sole operand is an 8-bit signed IP-relative displacement
)

// recipe is the per-first-byte decode record: C1's opcode table entry.
type recipe struct {
	op    Op
	flags recipeFlag
	ext   *[8]Op // indexed by ModR/M reg field when flagAddtlOpCode is set
}

// defined reports whether r holds a usable recipe (the zero value means the
// first byte is undefined and decoding must fail).
func (r recipe) defined() bool {
	return r.op != OpUnknown || r.flags != 0
}

// extGroup1 is the 0x80-0x83 ImmToRM group's ModR/M-reg-field dispatch
// table, in the fixed order the 8086 encoding assigns it.
var extGroup1 = [8]Op{
	OpAddImmRM,
	OpOrImmRM,
	OpAdcImmRM,
	OpSbbImmRM,
	OpAndImmRM,
	OpSubImmRM,
	OpXorImmRM,
	OpCmpImmRM,
}

// opcodeTable is the 256-entry first-byte dispatch table (C1). Built once
// at package init; every other byte value is left at its zero value, which
// recipe.defined reports as undefined.
var opcodeTable [256]recipe

func init() {
	// 0x00-0x05, 0x28-0x2D, 0x38-0x3D: ADD/SUB/CMP r/m<->reg plus
	// acc,imm, sharing the same d/w low-bit layout.
	type family struct {
		base   byte
		regOp  Op
		accOp  Op
	}
	for _, fam := range []family{
		{0x00, OpAddRegRM, OpAddImmAcc},
		{0x28, OpSubRegRM, OpSubImmAcc},
		{0x38, OpCmpRegRM, OpCmpImmAcc},
	} {
		for i := 0; i < 4; i++ {
			f := flagModRM | flagRegByte2
			if i&0x1 != 0 {
				f |= flagWidthWord
			}
			if i&0x2 != 0 {
				f |= flagRegIsDst
			}
			opcodeTable[int(fam.base)+i] = recipe{op: fam.regOp, flags: f}
		}
		opcodeTable[int(fam.base)+4] = recipe{op: fam.accOp, flags: flagAcc | flagImm | flagRegIsDst}
		opcodeTable[int(fam.base)+5] = recipe{op: fam.accOp, flags: flagAcc | flagImm | flagRegIsDst | flagWidthWord}
	}

	// 0x70-0x7F: conditional jumps, one predicate per byte.
	jumps := [16]Op{
		OpJO, OpJNO, OpJB, OpJNB, OpJE, OpJNE, OpJBE, OpJNBE,
		OpJS, OpJNS, OpJP, OpJNP, OpJL, OpJNL, OpJLE, OpJNLE,
	}
	for i, op := range jumps {
		opcodeTable[0x70+i] = recipe{op: op, flags: flagIncIP8}
	}

	// 0x80-0x83: ImmToRM group. Low two bits of the opcode are (s<<1)|w.
	for i := 0; i < 4; i++ {
		f := flagModRM | flagAddtlOpCode | flagImm
		if i&0x1 != 0 {
			f |= flagWidthWord
		}
		if i&0x2 != 0 {
			f |= flagSignExt
		}
		opcodeTable[0x80+i] = recipe{flags: f, ext: &extGroup1}
	}

	// 0x88-0x8B: MOV r/m<->reg, same d/w layout as the arithmetic families.
	for i := 0; i < 4; i++ {
		f := flagModRM | flagRegByte2
		if i&0x1 != 0 {
			f |= flagWidthWord
		}
		if i&0x2 != 0 {
			f |= flagRegIsDst
		}
		opcodeTable[0x88+i] = recipe{op: OpMovRegRM, flags: f}
	}

	// 0xA0-0xA3: MOV acc<->direct memory.
	opcodeTable[0xA0] = recipe{op: OpMovMemToAcc, flags: flagAcc | flagMem | flagRegIsDst}
	opcodeTable[0xA1] = recipe{op: OpMovMemToAcc, flags: flagAcc | flagMem | flagRegIsDst | flagWidthWord}
	opcodeTable[0xA2] = recipe{op: OpMovAccToMem, flags: flagAcc | flagMem}
	opcodeTable[0xA3] = recipe{op: OpMovAccToMem, flags: flagAcc | flagMem | flagWidthWord}

	// 0xB0-0xBF: MOV imm->reg. Low 3 bits select the register, bit 3 the width.
	for i := 0; i < 16; i++ {
		f := flagRegByte1 | flagRegIsDst | flagImm
		if i&0x8 != 0 {
			f |= flagWidthWord
		}
		opcodeTable[0xB0+i] = recipe{op: OpMovImmReg, flags: f}
	}

	// 0xC6-0xC7: MOV imm->r/m.
	opcodeTable[0xC6] = recipe{op: OpMovImmRM, flags: flagModRM | flagImm}
	opcodeTable[0xC7] = recipe{op: OpMovImmRM, flags: flagModRM | flagImm | flagWidthWord}

	// 0xE0-0xE3: LOOPNZ, LOOPZ, LOOP, JCXZ.
	opcodeTable[0xE0] = recipe{op: OpLoopNZ, flags: flagIncIP8}
	opcodeTable[0xE1] = recipe{op: OpLoopZ, flags: flagIncIP8}
	opcodeTable[0xE2] = recipe{op: OpLoop, flags: flagIncIP8}
	opcodeTable[0xE3] = recipe{op: OpJCXZ, flags: flagIncIP8}
}

// rmBase describes the base register(s) a non-direct memory r/m encoding
// addresses, per the ModR/M r/m table (§4.2).
type rmBase struct {
	base1    Register
	hasBase1 bool
	base2    Register
	hasBase2 bool
}

var rmBases = [8]rmBase{
	{BX, true, SI, true}, // 000
	{BX, true, DI, true}, // 001
	{BP, true, SI, true}, // 010
	{BP, true, DI, true}, // 011
	{SI, true, 0, false}, // 100
	{DI, true, 0, false}, // 101
	{BP, true, 0, false}, // 110 (mod != 00)
	{BX, true, 0, false}, // 111
}

// decodeError reports an unsupported first byte at decode time.
type decodeError struct {
	pos  int
	byte byte
}

func (e *decodeError) Error() string {
	return fmt.Sprintf("unsupported instruction at offset %d (opcode 0x%02X)", e.pos, e.byte)
}

// Decoder decodes 8086 machine code into Instructions (C2).
type Decoder struct{}

// NewDecoder creates a new 8086 instruction decoder.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Decode decodes one instruction from code starting at pos. It returns the
// decoded Instruction and the number of bytes consumed via inst.Size.
func (d *Decoder) Decode(code []byte, pos int) (*Instruction, error) {
	if pos < 0 || pos >= len(code) {
		return nil, fmt.Errorf("decode position %d out of range (len %d)", pos, len(code))
	}

	b0 := code[pos]
	rec := opcodeTable[b0]
	if !rec.defined() {
		return nil, &decodeError{pos: pos, byte: b0}
	}

	wide := rec.flags&flagWidthWord != 0
	regIsDst := rec.flags&flagRegIsDst != 0
	op := rec.op
	cursor := pos + 1

	inst := &Instruction{Op: op}
	regSide, rmSide := &inst.Src, &inst.Dst
	if regIsDst {
		regSide, rmSide = &inst.Dst, &inst.Src
	}

	if rec.flags&flagAcc != 0 {
		acc := AX
		if !wide {
			acc = AL
		}
		*regSide = Operand{Kind: OperandRegister, Reg: acc, Wide: wide}
	}

	if rec.flags&flagRegByte1 != 0 {
		reg := registerFromField(b0&0x7, wide)
		*regSide = Operand{Kind: OperandRegister, Reg: reg, Wide: wide}
	}

	if rec.flags&flagModRM != 0 {
		if cursor >= len(code) {
			return nil, fmt.Errorf("truncated ModR/M byte at offset %d", cursor)
		}
		b1 := code[cursor]
		cursor++

		mod := b1 >> 6
		regField := (b1 >> 3) & 0x7
		rm := b1 & 0x7

		if rec.flags&flagRegByte2 != 0 {
			reg := registerFromField(regField, wide)
			*regSide = Operand{Kind: OperandRegister, Reg: reg, Wide: wide}
		}
		if rec.flags&flagAddtlOpCode != 0 && rec.ext != nil {
			op = rec.ext[regField]
			inst.Op = op
		}

		rmOperand, consumed, err := decodeRM(code, cursor, mod, rm, wide)
		if err != nil {
			return nil, err
		}
		cursor += consumed
		*rmSide = rmOperand
	}

	if rec.flags&flagImm != 0 {
		signExt := rec.flags&flagSignExt != 0
		if wide && !signExt {
			if cursor+2 > len(code) {
				return nil, fmt.Errorf("truncated 16-bit immediate at offset %d", cursor)
			}
			v := int16(uint16(code[cursor]) | uint16(code[cursor+1])<<8)
			inst.Src = Operand{Kind: OperandImmediate, Imm: v, ImmWide: true}
			cursor += 2
		} else {
			if cursor+1 > len(code) {
				return nil, fmt.Errorf("truncated 8-bit immediate at offset %d", cursor)
			}
			v := int16(int8(code[cursor]))
			inst.Src = Operand{Kind: OperandImmediate, Imm: v, ImmWide: false}
			cursor++
		}
	}

	if rec.flags&flagMem != 0 {
		if cursor+2 > len(code) {
			return nil, fmt.Errorf("truncated direct address at offset %d", cursor)
		}
		addr := uint16(code[cursor]) | uint16(code[cursor+1])<<8
		cursor += 2
		memSide := &inst.Dst
		if regIsDst {
			memSide = &inst.Src
		}
		*memSide = Operand{Kind: OperandDirectMemory, Addr: addr, Wide: wide}
	}

	if rec.flags&flagIncIP8 != 0 {
		if cursor+1 > len(code) {
			return nil, fmt.Errorf("truncated displacement at offset %d", cursor)
		}
		disp := int16(int8(code[cursor]))
		cursor++
		inst.Dst = Operand{Kind: OperandRelative, Imm: disp}
		inst.Src = Operand{Kind: OperandNone}
	}

	inst.Size = uint8(cursor - pos)
	return inst, nil
}

// decodeRM decodes the r/m operand selected by (mod, rm, w), per the
// ModR/M r/m table (§4.2). It returns the operand and the number of
// additional bytes consumed beyond the ModR/M byte itself.
func decodeRM(code []byte, cursor int, mod, rm byte, wide bool) (Operand, int, error) {
	if mod == 0b11 {
		return Operand{Kind: OperandRegister, Reg: registerFromField(rm, wide), Wide: wide}, 0, nil
	}

	if mod == 0b00 && rm == 0b110 {
		if cursor+2 > len(code) {
			return Operand{}, 0, fmt.Errorf("truncated direct address at offset %d", cursor)
		}
		addr := uint16(code[cursor]) | uint16(code[cursor+1])<<8
		return Operand{Kind: OperandDirectMemory, Addr: addr, Wide: wide}, 2, nil
	}

	base := rmBases[rm]
	operand := Operand{
		Kind:     OperandMemory,
		Base1:    base.base1,
		HasBase1: base.hasBase1,
		Base2:    base.base2,
		HasBase2: base.hasBase2,
		Wide:     wide,
	}

	switch mod {
	case 0b00:
		return operand, 0, nil
	case 0b01:
		if cursor+1 > len(code) {
			return Operand{}, 0, fmt.Errorf("truncated 8-bit displacement at offset %d", cursor)
		}
		operand.Disp = int16(int8(code[cursor]))
		operand.HasDisp = true
		return operand, 1, nil
	case 0b10:
		if cursor+2 > len(code) {
			return Operand{}, 0, fmt.Errorf("truncated 16-bit displacement at offset %d", cursor)
		}
		operand.Disp = int16(uint16(code[cursor]) | uint16(code[cursor+1])<<8)
		operand.HasDisp = true
		return operand, 2, nil
	default:
		return Operand{}, 0, fmt.Errorf("impossible mod value %d", mod)
	}
}
