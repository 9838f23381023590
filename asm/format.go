// Package asm renders decoded 8086 instructions as NASM-compatible text.
//
// Package insts + package asm together implement C2 and C3: the decoder
// and the formatter are intentionally separate so that a consumer (the
// decode-only listing, or the executor's per-instruction trace) can format
// an Instruction without re-deriving anything the decoder already decided.
package asm

import (
	"strconv"
	"strings"

	"github.com/connorhaskins/sim8086/insts"
)

// Prologue is the fixed header emitted exactly once before any instruction
// line, matching the external-interface contract in §6.
const Prologue = "; Instruction decoding on the 8086 Homework by Connor Haskins\n\nbits 16\n\n"

// Format renders inst as a single NASM source line, with no trailing
// newline. Format is a pure function of inst: the same Instruction always
// renders to the same bytes.
func Format(inst *insts.Instruction) string {
	if insts.IsJump(inst.Op) {
		return formatJump(inst)
	}
	return insts.Mnemonic(inst.Op) + " " + operandString(inst.Dst, inst.Src) + ", " + operandString(inst.Src, inst.Dst)
}

// formatJump renders the single-operand IP-relative jump/loop form:
// "<mnemonic> $<signed+2>".
func formatJump(inst *insts.Instruction) string {
	target := int(inst.Dst.Imm) + 2
	return insts.Mnemonic(inst.Op) + " $" + signedPlus(target)
}

// operandString renders op, consulting sibling to decide whether an
// immediate needs a byte/word size prefix (the sibling's width applies in
// both the effective-address and direct-memory cases, per §9's resolution
// of the direct-memory size-prefix open question).
func operandString(op, sibling insts.Operand) string {
	switch op.Kind {
	case insts.OperandRegister:
		return op.Reg.String()
	case insts.OperandMemory:
		return formatMemory(op)
	case insts.OperandDirectMemory:
		return "[" + strconv.Itoa(int(op.Addr)) + "]"
	case insts.OperandImmediate:
		s := strconv.Itoa(int(op.Imm))
		if sibling.Kind == insts.OperandMemory || sibling.Kind == insts.OperandDirectMemory {
			if sibling.Wide {
				s = "word " + s
			} else {
				s = "byte " + s
			}
		}
		return s
	default:
		return ""
	}
}

// formatMemory renders an effective-address operand: "[base1]",
// "[base1 + base2]", each optionally followed by a signed displacement.
func formatMemory(op insts.Operand) string {
	var sb strings.Builder
	sb.WriteByte('[')
	sb.WriteString(op.Base1.String())
	if op.HasBase2 {
		sb.WriteString(" + ")
		sb.WriteString(op.Base2.String())
	}
	if op.HasDisp {
		appendDisplacement(&sb, op.Disp)
	}
	sb.WriteByte(']')
	return sb.String()
}

// appendDisplacement writes " + <d>" for d >= 0 or " - <|d|>" for d < 0.
func appendDisplacement(sb *strings.Builder, d int16) {
	if d >= 0 {
		sb.WriteString(" + ")
		sb.WriteString(strconv.Itoa(int(d)))
		return
	}
	sb.WriteString(" - ")
	sb.WriteString(strconv.Itoa(int(-d)))
}

// signedPlus formats n with an explicit sign, matching printf's "%+d".
func signedPlus(n int) string {
	if n >= 0 {
		return "+" + strconv.Itoa(n)
	}
	return strconv.Itoa(n)
}
