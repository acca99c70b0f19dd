// Package vm provides a reference interpreter for executing IR
// operations, with the same tape semantics as the compiled artifact:
// one-byte cells, circular 30,000-cell buffer.
package vm

import (
	"io"
	"os"

	"github.com/CoByte/concussion/internal/core"
)

// EOFBehavior specifies how the VM handles EOF on input.
type EOFBehavior int

const (
	EOFZero     EOFBehavior = iota // Set cell to 0 (default)
	EOFMinusOne                    // Set cell to 255
	EOFNoChange                    // Leave cell unchanged
)

// VM executes IR operations.
type VM struct {
	memSize     int
	input       io.Reader
	output      io.Writer
	eofBehavior EOFBehavior
	memory      []byte
	dp          int     // data pointer
	pc          int     // program counter
	ioBuf       [1]byte // reusable I/O buffer to avoid allocations
}

// VMOption is a functional option for configuring a VM.
type VMOption func(*VM)

// WithMemorySize sets the tape size (default core.TapeSize).
func WithMemorySize(size int) VMOption {
	return func(v *VM) {
		v.memSize = size
	}
}

// WithInput sets the input reader (default os.Stdin).
func WithInput(r io.Reader) VMOption {
	return func(v *VM) {
		v.input = r
	}
}

// WithOutput sets the output writer (default os.Stdout).
func WithOutput(w io.Writer) VMOption {
	return func(v *VM) {
		v.output = w
	}
}

// WithEOFBehavior sets the EOF handling behavior (default EOFZero).
func WithEOFBehavior(b EOFBehavior) VMOption {
	return func(v *VM) {
		v.eofBehavior = b
	}
}

// NewVM creates a new VM with the given options.
func NewVM(opts ...VMOption) *VM {
	vm := &VM{
		memSize:     core.TapeSize,
		input:       os.Stdin,
		output:      os.Stdout,
		eofBehavior: EOFZero,
	}
	for _, opt := range opts {
		opt(vm)
	}
	return vm
}

// Run executes the given IR operations.
func (v *VM) Run(ops []core.Op) error {
	v.memory = make([]byte, v.memSize)
	v.dp = 0
	v.pc = 0

	// Cache frequently accessed values for the hot loop
	memory := v.memory
	memSize := v.memSize
	numOps := len(ops)

	for v.pc < numOps {
		op := ops[v.pc]

		switch op.Kind {
		case core.OpShiftRight:
			// The tape is circular; stepping off the end wraps.
			v.dp = (v.dp + int(op.Arg)) % memSize

		case core.OpShiftLeft:
			n := int(op.Arg) % memSize
			v.dp = (v.dp - n + memSize) % memSize

		case core.OpAdd:
			memory[v.dp] += byte(op.Arg)

		case core.OpSub:
			memory[v.dp] -= byte(op.Arg)

		case core.OpRead:
			n, err := v.input.Read(v.ioBuf[:])
			if err == io.EOF || n == 0 {
				switch v.eofBehavior {
				case EOFZero:
					memory[v.dp] = 0
				case EOFMinusOne:
					memory[v.dp] = 255
				case EOFNoChange:
					// leave unchanged
				}
			} else if err != nil {
				return &RuntimeError{Msg: "input error: " + err.Error(), Pos: op.Pos, PC: v.pc}
			} else {
				memory[v.dp] = v.ioBuf[0]
			}

		case core.OpWrite:
			v.ioBuf[0] = memory[v.dp]
			_, err := v.output.Write(v.ioBuf[:])
			if err != nil {
				return &RuntimeError{Msg: "output error: " + err.Error(), Pos: op.Pos, PC: v.pc}
			}

		case core.OpJumpFwd:
			if memory[v.dp] == 0 {
				v.pc = int(op.Arg)
				continue
			}

		case core.OpJumpBack:
			if memory[v.dp] != 0 {
				v.pc = int(op.Arg)
				continue
			}
		}

		v.pc++
	}

	return nil
}
