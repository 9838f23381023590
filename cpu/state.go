// Package cpu models 8086 programmer-visible state: the general, segment,
// and flags registers plus the 1 MiB linear memory image (C4).
//
// Register aliasing (AL/AH within AX, and so on for CX/DX/BX) is modeled
// with word-sized struct fields and explicit byte-masking get/set, the
// second of the two approaches §9's Design Notes calls out as faithful to
// the aliasing invariant.
package cpu

import "github.com/connorhaskins/sim8086/insts"

// Flag bit positions within the FLAGS word, per §3's data model.
const (
	CF = 1 << 0
	PF = 1 << 2
	AF = 1 << 4
	ZF = 1 << 6
	SF = 1 << 7
	TF = 1 << 8
	IF = 1 << 9
	DF = 1 << 10
	OF = 1 << 11
)

// MemorySize is the size of the 8086's linear memory image: 1 MiB.
const MemorySize = 1 << 20

// State holds the complete programmer-visible 8086 machine state: the
// register file, the flags word, and the 1 MiB memory image. The loaded
// program occupies the image starting at address 0; IP indexes that same
// buffer.
type State struct {
	AX, CX, DX, BX uint16
	SP, BP, SI, DI uint16
	CS, DS, SS, ES uint16
	IP             uint16
	Flags          uint16
	Memory         [MemorySize]byte
}

// New creates a State with every register, flag, and memory byte zeroed.
func New() *State {
	return &State{}
}

// LoadCode copies code into memory starting at address 0. The caller is
// responsible for bounding len(code) to MemorySize.
func (s *State) LoadCode(code []byte) {
	copy(s.Memory[:], code)
}

// RegVal returns r's current value. For a wide register this is the word;
// for a byte register this is the aliased low or high byte of its word,
// zero-extended.
func (s *State) RegVal(r insts.Register) uint16 {
	switch r {
	case insts.AX:
		return s.AX
	case insts.CX:
		return s.CX
	case insts.DX:
		return s.DX
	case insts.BX:
		return s.BX
	case insts.SP:
		return s.SP
	case insts.BP:
		return s.BP
	case insts.SI:
		return s.SI
	case insts.DI:
		return s.DI
	case insts.AL:
		return s.AX & 0xFF
	case insts.AH:
		return (s.AX >> 8) & 0xFF
	case insts.CL:
		return s.CX & 0xFF
	case insts.CH:
		return (s.CX >> 8) & 0xFF
	case insts.DL:
		return s.DX & 0xFF
	case insts.DH:
		return (s.DX >> 8) & 0xFF
	case insts.BL:
		return s.BX & 0xFF
	case insts.BH:
		return (s.BX >> 8) & 0xFF
	default:
		return 0
	}
}

// RegSet writes v to r. For a wide register this replaces the whole word;
// for a byte register this replaces only the aliased byte, leaving the
// other half of the word untouched.
func (s *State) RegSet(r insts.Register, v uint16) {
	switch r {
	case insts.AX:
		s.AX = v
	case insts.CX:
		s.CX = v
	case insts.DX:
		s.DX = v
	case insts.BX:
		s.BX = v
	case insts.SP:
		s.SP = v
	case insts.BP:
		s.BP = v
	case insts.SI:
		s.SI = v
	case insts.DI:
		s.DI = v
	case insts.AL:
		s.AX = (s.AX & 0xFF00) | (v & 0xFF)
	case insts.AH:
		s.AX = (s.AX & 0x00FF) | ((v & 0xFF) << 8)
	case insts.CL:
		s.CX = (s.CX & 0xFF00) | (v & 0xFF)
	case insts.CH:
		s.CX = (s.CX & 0x00FF) | ((v & 0xFF) << 8)
	case insts.DL:
		s.DX = (s.DX & 0xFF00) | (v & 0xFF)
	case insts.DH:
		s.DX = (s.DX & 0x00FF) | ((v & 0xFF) << 8)
	case insts.BL:
		s.BX = (s.BX & 0xFF00) | (v & 0xFF)
	case insts.BH:
		s.BX = (s.BX & 0x00FF) | ((v & 0xFF) << 8)
	}
}

// Mem8 reads a single byte. Addresses are masked by 0xFFFFF (the §9
// AddressOutOfRange resolution: wraparound rather than a hard assertion).
func (s *State) Mem8(addr uint32) byte {
	return s.Memory[addr&(MemorySize-1)]
}

// Mem8Set writes a single byte, masked as Mem8 reads.
func (s *State) Mem8Set(addr uint32, v byte) {
	s.Memory[addr&(MemorySize-1)] = v
}

// Mem16 reads a little-endian word.
func (s *State) Mem16(addr uint32) uint16 {
	lo := s.Mem8(addr)
	hi := s.Mem8(addr + 1)
	return uint16(lo) | uint16(hi)<<8
}

// Mem16Set writes a little-endian word.
func (s *State) Mem16Set(addr uint32, v uint16) {
	s.Mem8Set(addr, byte(v))
	s.Mem8Set(addr+1, byte(v>>8))
}

// EffectiveAddress resolves a Memory or DirectMemory operand to a physical
// address (ea(op) in §4.4): base register(s), if any, plus the signed
// displacement, summed and masked modulo 1<<20.
func (s *State) EffectiveAddress(op insts.Operand) uint32 {
	if op.Kind == insts.OperandDirectMemory {
		return uint32(op.Addr) & (MemorySize - 1)
	}
	var sum int64
	if op.HasBase1 {
		sum += int64(s.RegVal(op.Base1))
	}
	if op.HasBase2 {
		sum += int64(s.RegVal(op.Base2))
	}
	if op.HasDisp {
		sum += int64(op.Disp)
	}
	return uint32(sum) & (MemorySize - 1)
}

// ClearFlags clears every bit of the flags word.
func (s *State) ClearFlags() {
	s.Flags = 0
}

// SetFlag sets every bit in mask.
func (s *State) SetFlag(mask uint16) {
	s.Flags |= mask
}

// flagLetters is the fixed C/P/A/Z/S/T/I/D/O rendering order, matching the
// reference's printFlags (original_source/src/8086.hpp), used by both the
// per-instruction trace and the final register dump.
var flagLetters = []struct {
	mask   uint16
	letter byte
}{
	{CF, 'C'}, {PF, 'P'}, {AF, 'A'}, {ZF, 'Z'},
	{SF, 'S'}, {TF, 'T'}, {IF, 'I'}, {DF, 'D'}, {OF, 'O'},
}

// FlagString renders flags as the concatenation of single letters for each
// set bit, in fixed C/P/A/Z/S/T/I/D/O order (empty string when none set).
func FlagString(flags uint16) string {
	buf := make([]byte, 0, len(flagLetters))
	for _, fl := range flagLetters {
		if flags&fl.mask != 0 {
			buf = append(buf, fl.letter)
		}
	}
	return string(buf)
}
