package cpu_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/connorhaskins/sim8086/cpu"
	"github.com/connorhaskins/sim8086/insts"
)

var _ = Describe("State register aliasing", func() {
	It("leaves the other half of the aliased word register untouched on a byte write", func() {
		st := cpu.New()
		st.RegSet(insts.AX, 0x1234)
		st.RegSet(insts.AL, 0xFF)
		Expect(st.RegVal(insts.AX)).To(Equal(uint16(0x12FF)))
		Expect(st.RegVal(insts.AH)).To(Equal(uint16(0x12)))

		st.RegSet(insts.AH, 0x00)
		Expect(st.RegVal(insts.AX)).To(Equal(uint16(0x00FF)))
	})

	It("aliases CL/CH onto CX and BL/BH onto BX", func() {
		st := cpu.New()
		st.RegSet(insts.CX, 0xABCD)
		Expect(st.RegVal(insts.CL)).To(Equal(uint16(0xCD)))
		Expect(st.RegVal(insts.CH)).To(Equal(uint16(0xAB)))

		st.RegSet(insts.BX, 0x5566)
		Expect(st.RegVal(insts.BL)).To(Equal(uint16(0x66)))
		Expect(st.RegVal(insts.BH)).To(Equal(uint16(0x55)))
	})
})

var _ = Describe("State memory", func() {
	It("masks addresses by 0xFFFFF rather than panicking out of range", func() {
		st := cpu.New()
		st.Mem8Set(cpu.MemorySize, 0x42)
		Expect(st.Mem8(0)).To(Equal(byte(0x42)))
	})

	It("reads and writes little-endian words", func() {
		st := cpu.New()
		st.Mem16Set(10, 0xBEEF)
		Expect(st.Mem8(10)).To(Equal(byte(0xEF)))
		Expect(st.Mem8(11)).To(Equal(byte(0xBE)))
		Expect(st.Mem16(10)).To(Equal(uint16(0xBEEF)))
	})
})

var _ = Describe("EffectiveAddress", func() {
	It("sums both base registers and the displacement", func() {
		st := cpu.New()
		st.RegSet(insts.BP, 10)
		st.RegSet(insts.DI, 20)
		op := insts.Operand{
			Kind: insts.OperandMemory, Base1: insts.BP, HasBase1: true,
			Base2: insts.DI, HasBase2: true, Disp: 5, HasDisp: true,
		}
		Expect(st.EffectiveAddress(op)).To(Equal(uint32(35)))
	})

	It("uses Addr directly for a direct-memory operand", func() {
		st := cpu.New()
		op := insts.Operand{Kind: insts.OperandDirectMemory, Addr: 0x1000}
		Expect(st.EffectiveAddress(op)).To(Equal(uint32(0x1000)))
	})
})

var _ = Describe("FlagString", func() {
	It("renders set flags in fixed C/P/A/Z/S/T/I/D/O order", func() {
		Expect(cpu.FlagString(cpu.PF | cpu.ZF)).To(Equal("PZ"))
		Expect(cpu.FlagString(cpu.PF | cpu.SF)).To(Equal("PS"))
		Expect(cpu.FlagString(0)).To(Equal(""))
	})
})
