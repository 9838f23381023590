// Package main provides the entry point for sim8086.
// sim8086 disassembles (and optionally simulates) flat 8086 binaries.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/connorhaskins/sim8086/cpu"
	"github.com/connorhaskins/sim8086/dump"
	"github.com/connorhaskins/sim8086/exec"
	"github.com/connorhaskins/sim8086/loader"
)

var (
	execFlag   = flag.Bool("exec", false, "Execute after decoding each instruction; print state deltas and a final register dump")
	dumpFlag   = flag.Bool("dump", false, "After the run, write the full 1 MiB memory image to sim8086_dump.data")
	clocksFlag = flag.Bool("clocks", false, "Reserved: recognized but has no prescribed behavior")
)

func main() {
	flag.Parse()
	_ = clocksFlag

	if flag.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "Usage: sim8086 [options] <binary-path>\n")
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	path := flag.Arg(0)
	prog, err := loader.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading program: %v\n", err)
		os.Exit(1)
	}

	machine := exec.NewMachine(prog.Code)
	if err := machine.Run(os.Stdout, *execFlag); err != nil {
		os.Exit(1)
	}

	if *execFlag {
		printFinalRegisters(machine.State)
	}

	if *dumpFlag {
		if err := dump.WriteImage(dump.DefaultPath, &machine.State.Memory); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing memory dump: %v\n", err)
			os.Exit(1)
		}
	}
}

// printFinalRegisters prints the final register/flags dump in the exact
// format specified: {ax, bx, cx, dx, sp, bp, si, di, blank, cs, ds, ss, es,
// blank, ip, blank, flags}.
func printFinalRegisters(st *cpu.State) {
	fmt.Printf(";Final registers:\n")
	fmt.Printf(";\tax: 0x%04x (%d)\n", st.AX, st.AX)
	fmt.Printf(";\tbx: 0x%04x (%d)\n", st.BX, st.BX)
	fmt.Printf(";\tcx: 0x%04x (%d)\n", st.CX, st.CX)
	fmt.Printf(";\tdx: 0x%04x (%d)\n", st.DX, st.DX)
	fmt.Printf(";\tsp: 0x%04x (%d)\n", st.SP, st.SP)
	fmt.Printf(";\tbp: 0x%04x (%d)\n", st.BP, st.BP)
	fmt.Printf(";\tsi: 0x%04x (%d)\n", st.SI, st.SI)
	fmt.Printf(";\tdi: 0x%04x (%d)\n", st.DI, st.DI)
	fmt.Printf(";\n")
	fmt.Printf(";\tcs: 0x%04x (%d)\n", st.CS, st.CS)
	fmt.Printf(";\tds: 0x%04x (%d)\n", st.DS, st.DS)
	fmt.Printf(";\tss: 0x%04x (%d)\n", st.SS, st.SS)
	fmt.Printf(";\tes: 0x%04x (%d)\n", st.ES, st.ES)
	fmt.Printf(";\n")
	fmt.Printf(";\tip: 0x%04x (%d)\n", st.IP, st.IP)
	fmt.Printf(";\n")
	fmt.Printf(";\tflags: %s\n", cpu.FlagString(st.Flags))
}
