package amd64

import (
	"encoding/binary"
	"fmt"
	"math"
)

// AssembleError is returned when the assembler cannot encode or
// resolve an instruction.
type AssembleError struct {
	Msg string
}

func (e *AssembleError) Error() string {
	return "assemble: " + e.Msg
}

// fixup records a rel32 field awaiting a label address.
type fixup struct {
	offset int    // offset of the rel32 within the code buffer
	label  string // label the jump targets
}

// Assembler accumulates machine code with named labels and resolves
// rel32 references once the final layout is known. A label may be
// referenced before it is defined; resolution happens in Assemble.
type Assembler struct {
	code   []byte
	labels map[string]int // label name -> code offset
	fixups []fixup
}

// NewAssembler creates an empty assembler.
func NewAssembler() *Assembler {
	return &Assembler{
		code:   make([]byte, 0, 4096),
		labels: make(map[string]int),
	}
}

// Len returns the current code size in bytes.
func (a *Assembler) Len() int {
	return len(a.code)
}

// Emit appends raw instruction bytes.
func (a *Assembler) Emit(b []byte) {
	a.code = append(a.code, b...)
}

// Pad appends count zero bytes.
func (a *Assembler) Pad(count int) {
	a.code = append(a.code, make([]byte, count)...)
}

// SetLabel defines a label at the current position.
func (a *Assembler) SetLabel(name string) {
	a.labels[name] = len(a.code)
}

// JeLabel emits a je to the named label, resolved at assemble time.
func (a *Assembler) JeLabel(name string) {
	a.fixups = append(a.fixups, fixup{offset: len(a.code) + 2, label: name})
	a.Emit(JeRel32(0))
}

// JneLabel emits a jne to the named label, resolved at assemble time.
func (a *Assembler) JneLabel(name string) {
	a.fixups = append(a.fixups, fixup{offset: len(a.code) + 2, label: name})
	a.Emit(JneRel32(0))
}

// Result holds assembled code and the absolute addresses of every
// label defined in it.
type Result struct {
	Code   []byte
	Labels map[string]uint64
}

// Assemble resolves all fixups against the given load address and
// returns the finished code plus the absolute address of each label.
func (a *Assembler) Assemble(ip uint64) (Result, error) {
	for _, f := range a.fixups {
		target, ok := a.labels[f.label]
		if !ok {
			return Result{}, &AssembleError{
				Msg: fmt.Sprintf("jump to undefined label %q", f.label),
			}
		}

		// rel32 is relative to the end of the jump instruction.
		instrEnd := f.offset + 4
		rel := target - instrEnd
		if rel > math.MaxInt32 || rel < math.MinInt32 {
			return Result{}, &AssembleError{
				Msg: fmt.Sprintf("jump to %q does not fit in rel32", f.label),
			}
		}

		binary.LittleEndian.PutUint32(a.code[f.offset:], uint32(int32(rel)))
	}

	addrs := make(map[string]uint64, len(a.labels))
	for name, off := range a.labels {
		addrs[name] = ip + uint64(off)
	}

	return Result{Code: a.code, Labels: addrs}, nil
}
