package elf

import (
	"encoding/binary"
	"fmt"
)

// MissingPatchError is returned when an image is finalized while
// marked placeholder regions are still unpatched. It indicates a bug
// in the emitter, not in the input program.
type MissingPatchError struct {
	Outstanding int
}

func (e *MissingPatchError) Error() string {
	return fmt.Sprintf("elf: %d outstanding patches at finalize", e.Outstanding)
}

// Patch identifies a reserved 8-byte placeholder in the binary,
// awaiting its final value.
type Patch struct {
	index int
}

// BinaryBuilder accumulates the output image as an append-only byte
// buffer. Placeholder regions are reserved with Mark64 and must each
// be redeemed with Patch64 exactly once before Build.
type BinaryBuilder struct {
	binary             []byte
	outstandingPatches int
}

// NewBinaryBuilder creates an empty builder.
func NewBinaryBuilder() *BinaryBuilder {
	return &BinaryBuilder{}
}

// Len returns the current buffer position.
func (b *BinaryBuilder) Len() int {
	return len(b.binary)
}

// EmitBytes appends raw bytes.
func (b *BinaryBuilder) EmitBytes(p []byte) {
	b.binary = append(b.binary, p...)
}

// Emit16 appends a little-endian 16-bit value.
func (b *BinaryBuilder) Emit16(v uint16) {
	b.binary = binary.LittleEndian.AppendUint16(b.binary, v)
}

// Emit32 appends a little-endian 32-bit value.
func (b *BinaryBuilder) Emit32(v uint32) {
	b.binary = binary.LittleEndian.AppendUint32(b.binary, v)
}

// Emit64 appends a little-endian 64-bit value.
func (b *BinaryBuilder) Emit64(v uint64) {
	b.binary = binary.LittleEndian.AppendUint64(b.binary, v)
}

// Pad appends count zero bytes.
func (b *BinaryBuilder) Pad(count int) {
	b.binary = append(b.binary, make([]byte, count)...)
}

// PadToWidth pads with zeros up to the next multiple of width.
func (b *BinaryBuilder) PadToWidth(width int) {
	if over := len(b.binary) % width; over != 0 {
		b.Pad(width - over)
	}
}

// Mark64 reserves an 8-byte placeholder at the current position and
// counts it as outstanding until patched.
func (b *BinaryBuilder) Mark64() Patch {
	p := Patch{index: len(b.binary)}
	b.outstandingPatches++
	b.Pad(8)
	return p
}

// Patch64 writes the final value into a reserved placeholder.
func (b *BinaryBuilder) Patch64(p Patch, v uint64) {
	b.outstandingPatches--
	binary.LittleEndian.PutUint64(b.binary[p.index:], v)
}

// Build finalizes the image. Every marked patch must have been
// redeemed; otherwise a MissingPatchError is returned.
func (b *BinaryBuilder) Build() ([]byte, error) {
	if b.outstandingPatches != 0 {
		return nil, &MissingPatchError{Outstanding: b.outstandingPatches}
	}
	return b.binary, nil
}
