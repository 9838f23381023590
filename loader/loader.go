// Package loader reads a flat 8086 binary image from disk.
//
// Adapted from the teacher's ELF segment loader (loader/elf.go): same
// error-wrapping style and Program-struct-return shape, but an 8086 .bin
// has no headers or segments to parse — the whole file is the image, and
// it is always loaded at address 0.
package loader

import (
	"fmt"
	"os"
)

// MaxImageSize bounds a loaded image to the 8086's 1 MiB address space.
const MaxImageSize = 1 << 20

// Program is a loaded flat binary ready for execution. EntryPoint is
// always 0: the 8086 core here has no header to locate one elsewhere.
type Program struct {
	EntryPoint uint16
	Code       []byte
}

// Load reads the file at path and returns a Program. It fails if the file
// cannot be read or exceeds MaxImageSize.
func Load(path string) (*Program, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read input file: %w", err)
	}
	if len(data) > MaxImageSize {
		return nil, fmt.Errorf("input file too large: %d bytes exceeds %d byte limit", len(data), MaxImageSize)
	}
	return &Program{EntryPoint: 0, Code: data}, nil
}
