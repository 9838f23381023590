// Package exec implements C5: per-opcode semantic actions over a cpu.State,
// and the decode-execute run loop that drives package insts and package asm
// together against an 8086 program image.
package exec

import (
	"fmt"

	"github.com/connorhaskins/sim8086/cpu"
)

// Delta records the observable state change produced by executing one
// instruction, in the shape the per-instruction trace line (§4.5) renders.
type Delta struct {
	RegName  string // empty if no register was written
	OldReg   uint16
	NewReg   uint16
	NewIP    uint16
	OldFlags uint16
	NewFlags uint16
}

// String renders the trace line matching the reference format: register
// change as "<name>:0x%04x->0x%04x ip:0x%04x", followed by
// " flags: <OLD>-><NEW>" when flags changed.
func (d Delta) String() string {
	s := ""
	if d.RegName != "" {
		s += fmt.Sprintf("%s:0x%04x->0x%04x ", d.RegName, d.OldReg, d.NewReg)
	}
	s += fmt.Sprintf("ip:0x%04x", d.NewIP)
	if d.OldFlags != d.NewFlags {
		s += fmt.Sprintf(" flags: %s->%s", cpu.FlagString(d.OldFlags), cpu.FlagString(d.NewFlags))
	}
	return s
}
