package linux

import (
	"github.com/pkg/errors"

	"github.com/CoByte/concussion/internal/core"
	"github.com/CoByte/concussion/pkg/elf"
)

// Compile translates source text into a complete ELF64 executable
// image. It is the single entry point of the compiler core: bytes in,
// ELF bytes (or a typed error) out, with no state surviving the call.
func Compile(src []byte) ([]byte, error) {
	tokens := core.Tokenize(src)

	ops, err := core.Lower(tokens)
	if err != nil {
		return nil, errors.Wrap(err, "lowering")
	}

	return CompileOps(ops)
}

// CompileOps builds the executable from already-lowered IR. The data
// segment assembles first so cell_buffer is resolvable when the text
// segment references it.
func CompileOps(ops []core.Op) ([]byte, error) {
	image, err := elf.CompileToELF([]elf.SegmentBuilder{
		DataSegment{},
		TextSegment{Ops: ops},
	})
	if err != nil {
		return nil, errors.Wrap(err, "emitting elf")
	}
	return image, nil
}
