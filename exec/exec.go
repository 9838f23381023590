package exec

import (
	"fmt"
	"io"
	"math/bits"

	"github.com/connorhaskins/sim8086/asm"
	"github.com/connorhaskins/sim8086/cpu"
	"github.com/connorhaskins/sim8086/insts"
)

// unimplementedError is UnimplementedSemantic (§7): the opcode decoded
// cleanly but this executor has no action for it (mem-to-mem MOV, or any
// of the ADC/SBB/AND/OR/XOR immediate forms, which decode and format but
// were never given an executor action — matching the reference's
// progressive-implementation contract).
type unimplementedError struct {
	name string
}

func (e *unimplementedError) Error() string {
	return fmt.Sprintf("Executing op %s not yet implemented!", e.name)
}

// Executor applies C5's semantic actions to a cpu.State.
//
// CF, AF, and OF are never set by this executor (only cleared, alongside
// SF/ZF/PF, before every ADD/SUB/CMP) — the §9 Open Question choice (a):
// faithfully reproduce the reference's limitation rather than compute
// carry/overflow correctly. Every conditional-jump predicate that reads
// CF or OF therefore always observes those bits clear.
type Executor struct {
	State *cpu.State
}

// NewExecutor creates an Executor operating on st.
func NewExecutor(st *cpu.State) *Executor {
	return &Executor{State: st}
}

// Execute applies inst's semantic action to e.State and returns the
// resulting trace Delta. Per §4.5's protocol, IP is advanced by
// inst.Size before the opcode is dispatched.
func (e *Executor) Execute(inst *insts.Instruction) (Delta, error) {
	st := e.State
	oldFlags := st.Flags
	st.IP += uint16(inst.Size)

	var err error
	delta := Delta{}

	switch inst.Op {
	case insts.OpMovRegRM, insts.OpMovImmReg, insts.OpMovImmRM, insts.OpMovMemToAcc, insts.OpMovAccToMem:
		err = e.execMov(inst, &delta)
	case insts.OpAddRegRM, insts.OpAddImmRM, insts.OpAddImmAcc:
		e.execArith(inst, &delta, false)
	case insts.OpSubRegRM, insts.OpSubImmRM, insts.OpSubImmAcc:
		e.execArith(inst, &delta, true)
	case insts.OpCmpRegRM, insts.OpCmpImmRM, insts.OpCmpImmAcc:
		e.execCmp(inst, &delta)
	case insts.OpOrImmRM, insts.OpAdcImmRM, insts.OpSbbImmRM, insts.OpAndImmRM, insts.OpXorImmRM:
		err = &unimplementedError{name: insts.Mnemonic(inst.Op)}
	case insts.OpLoopNZ, insts.OpLoopZ, insts.OpLoop:
		e.execLoop(inst, &delta)
	case insts.OpJCXZ:
		e.execJCXZ(inst, &delta)
	default:
		if insts.IsJump(inst.Op) {
			e.execCondJump(inst, &delta)
		} else {
			err = &unimplementedError{name: insts.Mnemonic(inst.Op)}
		}
	}

	delta.OldFlags = oldFlags
	delta.NewFlags = st.Flags
	delta.NewIP = st.IP
	return delta, err
}

// isMemoryOperand reports whether op is one of the two memory shapes
// (effective-address or direct), as opposed to a register or immediate.
func isMemoryOperand(op insts.Operand) bool {
	return op.Kind == insts.OperandMemory || op.Kind == insts.OperandDirectMemory
}

// widthMask returns 0xFFFF for a wide operand, 0x00FF for a byte operand.
func widthMask(op insts.Operand) uint16 {
	if op.Wide {
		return 0xFFFF
	}
	return 0x00FF
}

// valueOf reads op's current value from e.State.
func (e *Executor) valueOf(op insts.Operand) uint16 {
	switch op.Kind {
	case insts.OperandRegister:
		return e.State.RegVal(op.Reg)
	case insts.OperandMemory, insts.OperandDirectMemory:
		addr := e.State.EffectiveAddress(op)
		if op.Wide {
			return e.State.Mem16(addr)
		}
		return uint16(e.State.Mem8(addr))
	case insts.OperandImmediate:
		return uint16(op.Imm)
	default:
		return 0
	}
}

// writeAndTrace writes val to dst and, if dst is a register, records the
// change on delta.
func (e *Executor) writeAndTrace(dst insts.Operand, val uint16, delta *Delta) {
	switch dst.Kind {
	case insts.OperandRegister:
		old := e.State.RegVal(dst.Reg)
		e.State.RegSet(dst.Reg, val)
		delta.RegName = dst.Reg.String()
		delta.OldReg = old
		delta.NewReg = e.State.RegVal(dst.Reg)
	case insts.OperandMemory, insts.OperandDirectMemory:
		addr := e.State.EffectiveAddress(dst)
		if dst.Wide {
			e.State.Mem16Set(addr, val)
		} else {
			e.State.Mem8Set(addr, byte(val))
		}
	}
}

// execMov implements the MOV family: copy src -> dst. Mem-to-mem is
// rejected as UnimplementedSemantic; flags are never touched.
func (e *Executor) execMov(inst *insts.Instruction, delta *Delta) error {
	if isMemoryOperand(inst.Dst) && isMemoryOperand(inst.Src) {
		return &unimplementedError{name: "mov (mem-to-mem)"}
	}
	val := e.valueOf(inst.Src) & widthMask(inst.Dst)
	e.writeAndTrace(inst.Dst, val, delta)
	return nil
}

// execArith implements ADD (sub=false) and SUB (sub=true): SUB is ADD with
// the two's-complement negation of val(src), per §4.5.
func (e *Executor) execArith(inst *insts.Instruction, delta *Delta, sub bool) {
	mask := widthMask(inst.Dst)
	dstVal := e.valueOf(inst.Dst)
	srcVal := e.valueOf(inst.Src) & mask
	if sub {
		srcVal = (^srcVal + 1) & mask
	}
	result := (dstVal + srcVal) & mask
	e.writeAndTrace(inst.Dst, result, delta)
	e.updateFlags(result)
}

// execCmp implements CMP: dst - src, flags updated, no write-back.
func (e *Executor) execCmp(inst *insts.Instruction, delta *Delta) {
	mask := widthMask(inst.Dst)
	dstVal := e.valueOf(inst.Dst)
	srcVal := e.valueOf(inst.Src) & mask
	result := (dstVal - srcVal) & mask
	e.updateFlags(result)
}

// updateFlags implements the §4.5 flag rule: clear all flags, then set SF
// if bit 15 of result is set, else ZF if result is zero (SF and ZF are
// mutually exclusive in this model), then PF from the low byte's parity.
func (e *Executor) updateFlags(result uint16) {
	st := e.State
	st.ClearFlags()
	if result&0x8000 != 0 {
		st.SetFlag(cpu.SF)
	} else if result == 0 {
		st.SetFlag(cpu.ZF)
	}
	if bits.OnesCount8(byte(result))%2 == 0 {
		st.SetFlag(cpu.PF)
	}
}

// condJumpTaken evaluates the flag predicate for one of the sixteen
// conditional jump mnemonics (§4.5's predicate table), literally —
// JL/JNGE reads only SF, not "SF xor OF", exactly as the table states.
func condJumpTaken(op insts.Op, flags uint16) bool {
	zf := flags&cpu.ZF != 0
	sf := flags&cpu.SF != 0
	of := flags&cpu.OF != 0
	cf := flags&cpu.CF != 0
	pf := flags&cpu.PF != 0

	switch op {
	case insts.OpJE:
		return zf
	case insts.OpJNE:
		return !zf
	case insts.OpJL:
		return sf
	case insts.OpJNL:
		return sf != of
	case insts.OpJLE:
		return zf || sf
	case insts.OpJNLE:
		return !((sf != of) || zf)
	case insts.OpJB:
		return cf
	case insts.OpJNB:
		return !cf
	case insts.OpJBE:
		return cf || zf
	case insts.OpJNBE:
		return !(cf || zf)
	case insts.OpJP:
		return pf
	case insts.OpJNP:
		return !pf
	case insts.OpJO:
		return of
	case insts.OpJNO:
		return !of
	case insts.OpJS:
		return sf
	case insts.OpJNS:
		return !sf
	default:
		return false
	}
}

// execCondJump applies one of the sixteen predicate jumps: add the
// displacement to IP (already advanced by size_bytes) iff the predicate
// holds.
func (e *Executor) execCondJump(inst *insts.Instruction, delta *Delta) {
	if condJumpTaken(inst.Op, e.State.Flags) {
		e.State.IP = uint16(int32(e.State.IP) + int32(inst.Dst.Imm))
	}
}

// execLoop implements LOOP/LOOPZ/LOOPNZ: decrement CX unconditionally,
// then jump per the op-specific condition over the decremented CX and ZF.
func (e *Executor) execLoop(inst *insts.Instruction, delta *Delta) {
	st := e.State
	old := st.RegVal(insts.CX)
	next := old - 1
	st.RegSet(insts.CX, next)
	delta.RegName = "cx"
	delta.OldReg = old
	delta.NewReg = next

	var taken bool
	switch inst.Op {
	case insts.OpLoop:
		taken = next != 0
	case insts.OpLoopZ:
		taken = next != 0 && st.Flags&cpu.ZF != 0
	case insts.OpLoopNZ:
		taken = next != 0 && st.Flags&cpu.ZF == 0
	}
	if taken {
		st.IP = uint16(int32(st.IP) + int32(inst.Dst.Imm))
	}
}

// execJCXZ implements JCXZ: jump iff CX = 0, no decrement.
func (e *Executor) execJCXZ(inst *insts.Instruction, delta *Delta) {
	if e.State.RegVal(insts.CX) == 0 {
		e.State.IP = uint16(int32(e.State.IP) + int32(inst.Dst.Imm))
	}
}

// Machine drives the outer decode-execute run loop (§2, §4.5's state
// machine): Running while IP < code length, Halted otherwise. There is no
// halt instruction in the supported set.
type Machine struct {
	State    *cpu.State
	CodeLen  int
	decoder  *insts.Decoder
	executor *Executor
}

// NewMachine creates a Machine with code loaded at address 0.
func NewMachine(code []byte) *Machine {
	st := cpu.New()
	st.LoadCode(code)
	return &Machine{
		State:    st,
		CodeLen:  len(code),
		decoder:  insts.NewDecoder(),
		executor: NewExecutor(st),
	}
}

// Run decodes (and, if execute is true, executes) every instruction in the
// loaded image, writing the NASM listing to out. A decode error
// (UnsupportedOpcode) is fatal and stops the run; an execute error
// (UnimplementedSemantic) is printed on that instruction's line and the
// run continues.
func (m *Machine) Run(out io.Writer, execute bool) error {
	fmt.Fprint(out, asm.Prologue)

	for int(m.State.IP) < m.CodeLen {
		inst, err := m.decoder.Decode(m.State.Memory[:m.CodeLen], int(m.State.IP))
		if err != nil {
			fmt.Fprintf(out, "ERROR: unsupported instruction: %v\n", err)
			return err
		}

		line := asm.Format(inst)

		if !execute {
			fmt.Fprintln(out, line)
			m.State.IP += uint16(inst.Size)
			continue
		}

		delta, execErr := m.executor.Execute(inst)
		if execErr != nil {
			fmt.Fprintf(out, "%s ; ERROR: %v\n", line, execErr)
			continue
		}
		fmt.Fprintf(out, "%s ; %s\n", line, delta)
	}

	return nil
}
