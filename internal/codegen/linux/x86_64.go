// Package linux produces statically linked ELF64 x86_64 Linux
// executables from IR operations. The emitted programs talk to the
// kernel directly via syscalls; there is no runtime and no libc.
package linux

import (
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/CoByte/concussion/internal/core"
	"github.com/CoByte/concussion/pkg/amd64"
	"github.com/CoByte/concussion/pkg/elf"
)

// Linux syscall numbers
const (
	sysWrite = 1
	sysExit  = 60
)

// CellBufferLabel names the start of the tape in the label map.
const CellBufferLabel = "cell_buffer"

// UnsupportedOperationError is returned when the backend meets an IR
// operation it has no lowering for.
type UnsupportedOperationError struct {
	Kind core.OpKind
}

func (e *UnsupportedOperationError) Error() string {
	return fmt.Sprintf("unsupported operation %s", e.Kind)
}

// Register conventions, fixed across the whole text segment:
//
//	RCX  data pointer (absolute address of the current cell)
//	RAX  syscall number
//	RDI  syscall arg 0 (fd)
//	RSI  syscall arg 1 (buf)
//	RDX  syscall arg 2 (count)
//	R15  scratch save of RCX across syscalls
//
// The kernel clobbers RCX and R11 on syscall entry, so the data
// pointer is parked in R15 around every syscall. Bounds comparisons
// use ECX: the cell buffer lives below the 4 GiB boundary, so the low
// half of the pointer is the whole pointer.

// DataSegment emits the zero-initialized cell buffer and declares the
// cell_buffer label at its start. Flags: R|W.
type DataSegment struct{}

func (DataSegment) Code(_ elf.LabelMap) (elf.Segment, error) {
	a := amd64.NewAssembler()
	a.SetLabel(CellBufferLabel)
	a.Pad(core.TapeSize)

	return elf.Segment{Asm: a, Labels: []string{CellBufferLabel}}, nil
}

func (DataSegment) Flags() elf.PhdrFlags {
	return elf.PFR | elf.PFW
}

// TextSegment lowers the IR program to machine code and declares
// _start. Flags: R|X. It must assemble after DataSegment so the cell
// buffer address is in the label map.
type TextSegment struct {
	Ops []core.Op
}

func (t TextSegment) Flags() elf.PhdrFlags {
	return elf.PFR | elf.PFX
}

func (t TextSegment) Code(labels elf.LabelMap) (elf.Segment, error) {
	base, err := labels.Get(CellBufferLabel)
	if err != nil {
		return elf.Segment{}, err
	}

	g := &generator{asm: amd64.NewAssembler(), base: uint32(base)}

	g.emitPrologue()
	for i, op := range t.Ops {
		if err := g.emitOp(i, op); err != nil {
			return elf.Segment{}, err
		}
	}
	g.emitEpilogue()

	log.WithFields(log.Fields{
		"ops":  len(t.Ops),
		"size": g.asm.Len(),
	}).Debug("assembled text segment")

	return elf.Segment{Asm: g.asm, Labels: []string{elf.EntryLabel}}, nil
}

// generator walks the IR and emits machine code into an assembler.
type generator struct {
	asm  *amd64.Assembler
	base uint32 // virtual address of the cell buffer start
}

// jumpLabel names the assembler label owned by the bracket at IR
// index i. Each bracket defines its label just past its own branch, so
// the partner's jump lands on the first op after the bracket.
func jumpLabel(i int) string {
	return fmt.Sprintf("jt_%d", i)
}

// emitPrologue points RCX at the first cell.
func (g *generator) emitPrologue() {
	g.asm.SetLabel(elf.EntryLabel)
	g.asm.Emit(amd64.MovabsRCX(uint64(g.base))) // movabs $cell_buffer, %rcx
}

// emitEpilogue terminates the program with exit(0). These are always
// the final instructions of the segment.
func (g *generator) emitEpilogue() {
	g.asm.Emit(amd64.MovqImm32RAX(sysExit)) // movq $60, %rax
	g.asm.Emit(amd64.MovqImm32RDI(0))       // movq $0, %rdi
	g.asm.Emit(amd64.Syscall())             // syscall
}

// emitOp lowers a single IR operation.
func (g *generator) emitOp(i int, op core.Op) error {
	switch op.Kind {
	case core.OpShiftRight:
		g.emitShiftRight(uint32(op.Arg % core.TapeSize))
	case core.OpShiftLeft:
		g.emitShiftLeft(uint32(op.Arg % core.TapeSize))
	case core.OpAdd:
		g.emitAdd(uint8(op.Arg))
	case core.OpSub:
		g.emitSub(uint8(op.Arg))
	case core.OpWrite:
		g.emitWrite()
	case core.OpRead:
		// Reserved: no native lowering for ',' yet.
		return &UnsupportedOperationError{Kind: op.Kind}
	case core.OpJumpFwd:
		g.emitJumpFwd(i, int(op.Arg))
	case core.OpJumpBack:
		g.emitJumpBack(i, int(op.Arg))
	}
	return nil
}

// emitShiftRight advances the data pointer by n cells, wrapping at the
// end of the buffer. n has been reduced mod TapeSize, so a single
// subtract is enough to wrap.
func (g *generator) emitShiftRight(n uint32) {
	if n == 0 {
		return
	}

	wrap := amd64.SubECXImm32(core.TapeSize)

	g.asm.Emit(amd64.LeaRCXDisp32(int32(n)))              // leaq n(%rcx), %rcx
	g.asm.Emit(amd64.CmpECXImm32(g.base + core.TapeSize)) // cmpl $end, %ecx
	g.asm.Emit(amd64.JbShort(int8(len(wrap))))            // jb done
	g.asm.Emit(wrap)                                      // subl $TapeSize, %ecx
	// done:
}

// emitShiftLeft retreats the data pointer by n cells, wrapping at the
// start of the buffer.
func (g *generator) emitShiftLeft(n uint32) {
	if n == 0 {
		return
	}

	wrap := amd64.LeaRCXDisp32(core.TapeSize)

	g.asm.Emit(amd64.LeaRCXDisp32(-int32(n)))   // leaq -n(%rcx), %rcx
	g.asm.Emit(amd64.CmpECXImm32(g.base))       // cmpl $base, %ecx
	g.asm.Emit(amd64.JaeShort(int8(len(wrap)))) // jae done
	g.asm.Emit(wrap)                            // leaq TapeSize(%rcx), %rcx
	// done:
}

// emitAdd adds k to the current cell. A fused run of 256 '+' collapses
// to k == 0, a net no-op, and emits nothing.
func (g *generator) emitAdd(k uint8) {
	if k == 0 {
		return
	}
	g.asm.Emit(amd64.AddbImm8AtRCX(k)) // addb $k, (%rcx)
}

// emitSub subtracts k from the current cell.
func (g *generator) emitSub(k uint8) {
	if k == 0 {
		return
	}
	g.asm.Emit(amd64.SubbImm8AtRCX(k)) // subb $k, (%rcx)
}

// emitWrite writes the current cell to stdout. The data pointer is
// parked in R15 because the kernel clobbers RCX.
func (g *generator) emitWrite() {
	g.asm.Emit(amd64.MovR15RCX())            // movq %rcx, %r15
	g.asm.Emit(amd64.MovqImm32RAX(sysWrite)) // movq $1, %rax
	g.asm.Emit(amd64.MovqImm32RDI(1))        // movq $1, %rdi
	g.asm.Emit(amd64.MovRSIRCX())            // movq %rcx, %rsi
	g.asm.Emit(amd64.MovqImm32RDX(1))        // movq $1, %rdx
	g.asm.Emit(amd64.Syscall())              // syscall
	g.asm.Emit(amd64.MovRCXR15())            // movq %r15, %rcx
}

// emitJumpFwd skips the loop body when the cell is zero.
func (g *generator) emitJumpFwd(i, target int) {
	g.asm.Emit(amd64.CmpbZeroAtRCX()) // cmpb $0, (%rcx)
	g.asm.JeLabel(jumpLabel(target))  // je jt_target
	g.asm.SetLabel(jumpLabel(i))
}

// emitJumpBack repeats the loop body while the cell is nonzero.
func (g *generator) emitJumpBack(i, target int) {
	g.asm.Emit(amd64.CmpbZeroAtRCX()) // cmpb $0, (%rcx)
	g.asm.JneLabel(jumpLabel(target)) // jne jt_target
	g.asm.SetLabel(jumpLabel(i))
}
