package asm_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/connorhaskins/sim8086/asm"
	"github.com/connorhaskins/sim8086/insts"
)

var _ = Describe("Format", func() {
	It("renders a decoded scenario 1 instruction as mov cx, bx", func() {
		inst := &insts.Instruction{
			Op:  insts.OpMovRegRM,
			Dst: insts.Operand{Kind: insts.OperandRegister, Reg: insts.CX, Wide: true},
			Src: insts.Operand{Kind: insts.OperandRegister, Reg: insts.BX, Wide: true},
		}
		Expect(asm.Format(inst)).To(Equal("mov cx, bx"))
	})

	It("renders scenario 2 as mov ax, 1", func() {
		inst := &insts.Instruction{
			Op:  insts.OpMovImmReg,
			Dst: insts.Operand{Kind: insts.OperandRegister, Reg: insts.AX, Wide: true},
			Src: insts.Operand{Kind: insts.OperandImmediate, Imm: 1, ImmWide: true},
		}
		Expect(asm.Format(inst)).To(Equal("mov ax, 1"))
	})

	It("renders scenario 3 with a byte size prefix for an effective-address destination", func() {
		inst := &insts.Instruction{
			Op: insts.OpMovImmRM,
			Dst: insts.Operand{
				Kind: insts.OperandMemory, Base1: insts.BP, HasBase1: true,
				Base2: insts.DI, HasBase2: true, Wide: false,
			},
			Src: insts.Operand{Kind: insts.OperandImmediate, Imm: 7},
		}
		Expect(asm.Format(inst)).To(Equal("mov [bp + di], byte 7"))
	})

	It("adds a size prefix for a direct-memory destination too", func() {
		inst := &insts.Instruction{
			Op:  insts.OpMovImmRM,
			Dst: insts.Operand{Kind: insts.OperandDirectMemory, Addr: 100, Wide: true},
			Src: insts.Operand{Kind: insts.OperandImmediate, Imm: 42},
		}
		Expect(asm.Format(inst)).To(Equal("mov [100], word 42"))
	})

	It("renders a negative displacement with a minus sign", func() {
		inst := &insts.Instruction{
			Op: insts.OpAddRegRM,
			Dst: insts.Operand{
				Kind: insts.OperandMemory, Base1: insts.BX, HasBase1: true,
				Disp: -5, HasDisp: true, Wide: true,
			},
			Src: insts.Operand{Kind: insts.OperandRegister, Reg: insts.AX, Wide: true},
		}
		Expect(asm.Format(inst)).To(Equal("add [bx - 5], ax"))
	})

	It("renders a conditional jump as a signed displacement relative to $", func() {
		inst := &insts.Instruction{
			Op:  insts.OpJNE,
			Dst: insts.Operand{Kind: insts.OperandRelative, Imm: -3},
		}
		Expect(asm.Format(inst)).To(Equal("jne $-1"))
	})

	It("is a pure function of its Instruction", func() {
		inst := &insts.Instruction{
			Op:  insts.OpMovRegRM,
			Dst: insts.Operand{Kind: insts.OperandRegister, Reg: insts.CX, Wide: true},
			Src: insts.Operand{Kind: insts.OperandRegister, Reg: insts.BX, Wide: true},
		}
		Expect(asm.Format(inst)).To(Equal(asm.Format(inst)))
	})
})
