package elf

import (
	"fmt"

	"github.com/CoByte/concussion/pkg/amd64"
)

// MissingLabelError is returned when a segment references a label that
// no earlier segment declared.
type MissingLabelError struct {
	Name string
}

func (e *MissingLabelError) Error() string {
	return fmt.Sprintf("missing label %q", e.Name)
}

// LabelMap maps label names to absolute virtual addresses. It is
// populated by the emitter as each segment assembles and read by the
// segments that follow.
type LabelMap map[string]uint64

// Get looks up a label, returning a MissingLabelError if it has not
// been declared yet.
func (m LabelMap) Get(name string) (uint64, error) {
	addr, ok := m[name]
	if !ok {
		return 0, &MissingLabelError{Name: name}
	}
	return addr, nil
}

// Segment is the output of a SegmentBuilder: an unassembled body plus
// the names of the labels it declares for later segments.
type Segment struct {
	Asm    *amd64.Assembler
	Labels []string
}

// SegmentBuilder produces one loadable segment of the output binary.
type SegmentBuilder interface {
	// Code builds the segment body. It may read labels declared by
	// earlier segments and fails with a MissingLabelError if one is
	// absent, or an amd64.AssembleError on an encoding problem.
	Code(labels LabelMap) (Segment, error)

	// Flags returns the segment's permission bits.
	Flags() PhdrFlags
}

// buildSegment assembles a segment at its load address and publishes
// its declared labels into the shared map.
func buildSegment(sb SegmentBuilder, ip uint64, labels LabelMap) ([]byte, error) {
	seg, err := sb.Code(labels)
	if err != nil {
		return nil, err
	}

	res, err := seg.Asm.Assemble(ip)
	if err != nil {
		return nil, err
	}

	for _, name := range seg.Labels {
		addr, ok := res.Labels[name]
		if !ok {
			return nil, &MissingLabelError{Name: name}
		}
		labels[name] = addr
	}

	return res.Code, nil
}
