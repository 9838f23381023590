// Package dump writes the post-run memory image to disk.
//
// Kept as its own collaborator rather than folded into package cpu or
// cmd/sim8086, mirroring the teacher's pattern of treating program I/O
// (loader reads, dump writes) as a sibling of the core state it serializes
// rather than a method on that state.
package dump

import (
	"fmt"
	"os"

	"github.com/connorhaskins/sim8086/cpu"
)

// DefaultPath is the file written by the -dump CLI flag.
const DefaultPath = "sim8086_dump.data"

// WriteImage writes the complete 1 MiB memory image to path.
func WriteImage(path string, memory *[cpu.MemorySize]byte) error {
	if err := os.WriteFile(path, memory[:], 0o644); err != nil {
		return fmt.Errorf("failed to write memory dump: %w", err)
	}
	return nil
}
