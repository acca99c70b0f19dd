package core

import (
	"fmt"
	"strings"
)

// OpKind identifies the kind of IR operation.
type OpKind int

const (
	OpShiftRight OpKind = iota // SHIFTR n
	OpShiftLeft                // SHIFTL n
	OpAdd                      // ADD k
	OpSub                      // SUB k
	OpWrite                    // WRITE
	OpRead                     // READ
	OpJumpFwd                  // JF target
	OpJumpBack                 // JB target
)

// opNames maps each OpKind to its string representation for debugging.
var opNames = [...]string{
	OpShiftRight: "SHIFTR",
	OpShiftLeft:  "SHIFTL",
	OpAdd:        "ADD",
	OpSub:        "SUB",
	OpWrite:      "WRITE",
	OpRead:       "READ",
	OpJumpFwd:    "JF",
	OpJumpBack:   "JB",
}

// String returns the string representation of the OpKind.
func (k OpKind) String() string {
	return opNames[k]
}

// Op represents one intermediate instruction. Arg carries the shift
// count for SHIFTR/SHIFTL, the addend (0..255) for ADD/SUB, and the
// absolute IR index of the matching bracket for JF/JB.
type Op struct {
	Kind OpKind
	Arg  uint64
	Pos  *Position // optional source metadata for debugging
}

func ShiftRight(n uint64) Op { return Op{Kind: OpShiftRight, Arg: n} }
func ShiftLeft(n uint64) Op  { return Op{Kind: OpShiftLeft, Arg: n} }
func Add(k uint8) Op         { return Op{Kind: OpAdd, Arg: uint64(k)} }
func Sub(k uint8) Op         { return Op{Kind: OpSub, Arg: uint64(k)} }
func Write() Op              { return Op{Kind: OpWrite} }
func Read() Op               { return Op{Kind: OpRead} }
func JumpFwd(target int) Op  { return Op{Kind: OpJumpFwd, Arg: uint64(target)} }
func JumpBack(target int) Op { return Op{Kind: OpJumpBack, Arg: uint64(target)} }

// IsJump reports whether the operation is a bracket jump.
func (o Op) IsJump() bool {
	return o.Kind == OpJumpFwd || o.Kind == OpJumpBack
}

// Dump returns a formatted string representation of the IR stream.
func Dump(ops []Op) string {
	var out strings.Builder

	for i, op := range ops {
		switch op.Kind {
		case OpShiftRight, OpShiftLeft, OpAdd, OpSub:
			fmt.Fprintf(&out, "%03d: %-6s %d\n", i, op.Kind, op.Arg)
		case OpWrite, OpRead:
			fmt.Fprintf(&out, "%03d: %s\n", i, op.Kind)
		case OpJumpFwd, OpJumpBack:
			fmt.Fprintf(&out, "%03d: %-6s %d\n", i, op.Kind, op.Arg)
		}
	}
	return out.String()
}
