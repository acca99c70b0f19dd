// Package gas renders the IR as GAS (AT&T syntax) assembly for x86_64
// Linux. The output mirrors the binary backend instruction for
// instruction and exists for inspection and debugging; assemble it
// with `as`/`ld` and it behaves like the compiled ELF.
package gas

import (
	"fmt"
	"strings"

	"github.com/klauspost/asmfmt"

	"github.com/CoByte/concussion/internal/core"
)

// Linux syscall numbers
const (
	sysWrite = 1
	sysExit  = 60
)

// Generator produces GAS assembly from IR operations.
type Generator struct {
	ops []core.Op
	out strings.Builder
}

// NewGenerator creates a new GAS assembly generator.
func NewGenerator(ops []core.Op) *Generator {
	return &Generator{ops: ops}
}

// Generate produces the complete assembly output, normalized through
// asmfmt.
func (g *Generator) Generate() (string, error) {
	g.emitHeader()
	g.emitPrologue()

	for i, op := range g.ops {
		g.emitOp(i, op)
	}

	g.emitEpilogue()

	formatted, err := asmfmt.Format(strings.NewReader(g.out.String()))
	if err != nil {
		return "", err
	}
	return string(formatted), nil
}

// emitHeader outputs the cell buffer reservation and text section
// preamble.
func (g *Generator) emitHeader() {
	fmt.Fprintf(&g.out, ".section .bss\n")
	fmt.Fprintf(&g.out, "    .lcomm cell_buffer, %d\n", core.TapeSize)
	fmt.Fprintf(&g.out, "\n")
	fmt.Fprintf(&g.out, ".section .text\n")
	fmt.Fprintf(&g.out, ".globl _start\n")
}

// emitPrologue points RCX at the first cell.
func (g *Generator) emitPrologue() {
	fmt.Fprintf(&g.out, "_start:\n")
	fmt.Fprintf(&g.out, "    movq $cell_buffer, %%rcx\n")
}

// emitEpilogue outputs the exit(0) syscall.
func (g *Generator) emitEpilogue() {
	fmt.Fprintf(&g.out, "    movq $%d, %%rax\n", sysExit)
	fmt.Fprintf(&g.out, "    movq $0, %%rdi\n")
	fmt.Fprintf(&g.out, "    syscall\n")
}

// emitOp outputs assembly for a single IR operation.
func (g *Generator) emitOp(i int, op core.Op) {
	switch op.Kind {
	case core.OpShiftRight:
		g.emitShiftRight(i, op.Arg%core.TapeSize)
	case core.OpShiftLeft:
		g.emitShiftLeft(i, op.Arg%core.TapeSize)
	case core.OpAdd:
		g.emitAdd(uint8(op.Arg))
	case core.OpSub:
		g.emitSub(uint8(op.Arg))
	case core.OpWrite:
		g.emitWrite()
	case core.OpRead:
		fmt.Fprintf(&g.out, "    # ',' has no native lowering\n")
	case core.OpJumpFwd:
		g.emitJumpFwd(i, op.Arg)
	case core.OpJumpBack:
		g.emitJumpBack(i, op.Arg)
	}
}

// emitShiftRight advances the data pointer with wrap at the buffer end.
func (g *Generator) emitShiftRight(i int, n uint64) {
	if n == 0 {
		return
	}
	fmt.Fprintf(&g.out, "    leaq %d(%%rcx), %%rcx\n", n)
	fmt.Fprintf(&g.out, "    cmpl $cell_buffer+%d, %%ecx\n", core.TapeSize)
	fmt.Fprintf(&g.out, "    jb .wr_%d\n", i)
	fmt.Fprintf(&g.out, "    subl $%d, %%ecx\n", core.TapeSize)
	fmt.Fprintf(&g.out, ".wr_%d:\n", i)
}

// emitShiftLeft retreats the data pointer with wrap at the buffer start.
func (g *Generator) emitShiftLeft(i int, n uint64) {
	if n == 0 {
		return
	}
	fmt.Fprintf(&g.out, "    leaq -%d(%%rcx), %%rcx\n", n)
	fmt.Fprintf(&g.out, "    cmpl $cell_buffer, %%ecx\n")
	fmt.Fprintf(&g.out, "    jae .wl_%d\n", i)
	fmt.Fprintf(&g.out, "    leaq %d(%%rcx), %%rcx\n", core.TapeSize)
	fmt.Fprintf(&g.out, ".wl_%d:\n", i)
}

// emitAdd outputs: addb $k, (%rcx)
func (g *Generator) emitAdd(k uint8) {
	if k == 0 {
		return
	}
	fmt.Fprintf(&g.out, "    addb $%d, (%%rcx)\n", k)
}

// emitSub outputs: subb $k, (%rcx)
func (g *Generator) emitSub(k uint8) {
	if k == 0 {
		return
	}
	fmt.Fprintf(&g.out, "    subb $%d, (%%rcx)\n", k)
}

// emitWrite outputs the inline write(1, rcx, 1) syscall, preserving
// the data pointer in R15 across the kernel's RCX clobber.
func (g *Generator) emitWrite() {
	fmt.Fprintf(&g.out, "    movq %%rcx, %%r15\n")
	fmt.Fprintf(&g.out, "    movq $%d, %%rax\n", sysWrite)
	fmt.Fprintf(&g.out, "    movq $1, %%rdi\n")
	fmt.Fprintf(&g.out, "    movq %%rcx, %%rsi\n")
	fmt.Fprintf(&g.out, "    movq $1, %%rdx\n")
	fmt.Fprintf(&g.out, "    syscall\n")
	fmt.Fprintf(&g.out, "    movq %%r15, %%rcx\n")
}

// emitJumpFwd outputs the loop entry branch and this bracket's label.
func (g *Generator) emitJumpFwd(i int, target uint64) {
	fmt.Fprintf(&g.out, "    cmpb $0, (%%rcx)\n")
	fmt.Fprintf(&g.out, "    je .jt_%d\n", target)
	fmt.Fprintf(&g.out, ".jt_%d:\n", i)
}

// emitJumpBack outputs the loop exit branch and this bracket's label.
func (g *Generator) emitJumpBack(i int, target uint64) {
	fmt.Fprintf(&g.out, "    cmpb $0, (%%rcx)\n")
	fmt.Fprintf(&g.out, "    jne .jt_%d\n", target)
	fmt.Fprintf(&g.out, ".jt_%d:\n", i)
}
