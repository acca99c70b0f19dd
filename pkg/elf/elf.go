// Package elf builds ELF64 executable images for x86_64 Linux.
// This package has no dependencies on the compiler internals and can be
// used standalone for generating static executables.
//
// The produced image carries program headers only (no section headers,
// no dynamic linking): one PT_LOAD entry per segment, page-aligned,
// with file offsets equal to virtual-address offsets from the load
// base.
package elf

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// ELF64 constants
const (
	// ELF identification
	ELFClass64   = 2
	ELFData2LSB  = 1 // Little endian
	EVCurrent    = 1
	ELFOSABINone = 0

	// ELF types
	ETExec = 2 // Executable file

	// Machine types
	EMX8664 = 0x3E

	// Program header types
	PTLoad = 1

	// Sizes
	Ehdr64Size = 64
	Phdr64Size = 56
	PageSize   = 0x1000

	// LoadBase is the virtual address the first byte of the file maps
	// to. It sits below 4 GiB so 32-bit address arithmetic on segment
	// contents stays valid.
	LoadBase = 0x08048000
)

// PhdrFlags is the permission bit mask of a loadable segment.
type PhdrFlags uint32

const (
	PFX PhdrFlags = 1 << 0 // execute
	PFW PhdrFlags = 1 << 1 // write
	PFR PhdrFlags = 1 << 2 // read
)

// EntryLabel is the label the text segment must declare; its address
// becomes the image's entry point.
const EntryLabel = "_start"

// ErrBigEndianHost is returned when the emitter runs on a big-endian
// host.
var ErrBigEndianHost = errors.New("elf: big-endian hosts are not supported")

// MissingEntryPointError is returned when no segment declared the
// entry label.
type MissingEntryPointError struct{}

func (e *MissingEntryPointError) Error() string {
	return fmt.Sprintf("elf: no segment declared %q", EntryLabel)
}

// phdrPatches holds the four address fields of one program header that
// are only known after layout.
type phdrPatches struct {
	offset   Patch
	vaddr    Patch
	fileSize Patch
	memSize  Patch
}

// CompileToELF lays out the given segments into a complete ELF64
// little-endian x86_64 executable image.
//
// Segments assemble in order; each one sees the labels declared by
// those before it. The entry point is the address of the "_start"
// label, whichever segment declares it.
func CompileToELF(segments []SegmentBuilder) ([]byte, error) {
	if !hostLittleEndian() {
		return nil, ErrBigEndianHost
	}

	b := NewBinaryBuilder()

	// === ELF HEADER ===
	b.EmitBytes([]byte{0x7F, 'E', 'L', 'F'})                              // magic
	b.EmitBytes([]byte{ELFClass64, ELFData2LSB, EVCurrent, ELFOSABINone}) // class, endian, version, abi
	b.Pad(8)

	b.Emit16(ETExec)    // type
	b.Emit16(EMX8664)   // machine
	b.Emit32(EVCurrent) // version

	entryPoint := b.Mark64() // entry point
	phdrOffset := b.Mark64() // program header table offset
	b.Emit64(0)              // section header table (none)

	b.Emit32(0)                     // flags (none)
	b.Emit16(Ehdr64Size)            // elf header size
	b.Emit16(Phdr64Size)            // program header size
	b.Emit16(uint16(len(segments))) // number of program headers

	b.Emit16(0) // no section headers
	b.Emit16(0)
	b.Emit16(0)

	b.Patch64(phdrOffset, uint64(b.Len()))

	// === PROGRAM HEADERS ===
	patches := make([]phdrPatches, 0, len(segments))
	for _, seg := range segments {
		b.Emit32(PTLoad)              // segment type: loadable
		b.Emit32(uint32(seg.Flags())) // permissions

		p := phdrPatches{}
		p.offset = b.Mark64()
		p.vaddr = b.Mark64()
		b.Emit64(0) // physical address is ignored
		p.fileSize = b.Mark64()
		p.memSize = b.Mark64()
		b.Emit64(PageSize) // alignment

		patches = append(patches, p)
	}

	b.PadToWidth(PageSize)

	// === SEGMENTS ===
	labels := make(LabelMap)
	for i, seg := range segments {
		fileOffset := uint64(b.Len())
		vaddr := LoadBase + fileOffset

		body, err := buildSegment(seg, vaddr, labels)
		if err != nil {
			return nil, err
		}

		p := patches[i]
		b.Patch64(p.offset, fileOffset)
		b.Patch64(p.vaddr, vaddr)
		b.Patch64(p.fileSize, uint64(len(body)))
		b.Patch64(p.memSize, uint64(len(body)))

		b.EmitBytes(body)
		b.PadToWidth(PageSize)
	}

	entry, err := labels.Get(EntryLabel)
	if err != nil {
		return nil, &MissingEntryPointError{}
	}
	b.Patch64(entryPoint, entry)

	return b.Build()
}

// hostLittleEndian reports whether the host stores integers little-endian.
func hostLittleEndian() bool {
	return binary.NativeEndian.Uint16([]byte{0x01, 0x00}) == 1
}
