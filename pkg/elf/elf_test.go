package elf

import (
	"bytes"
	debugelf "debug/elf"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/CoByte/concussion/pkg/amd64"
)

func TestBinaryBuilderPatchProtocol(t *testing.T) {
	b := NewBinaryBuilder()

	b.Emit32(0xAABBCCDD)
	p := b.Mark64()
	b.Emit16(0x1122)

	b.Patch64(p, 0x0102030405060708)

	out, err := b.Build()
	if err != nil {
		t.Fatal(err)
	}

	want := []byte{
		0xDD, 0xCC, 0xBB, 0xAA,
		0x08, 0x07, 0x06, 0x05, 0x04, 0x03, 0x02, 0x01,
		0x22, 0x11,
	}
	if diff := cmp.Diff(want, out); diff != "" {
		t.Errorf("image mismatch (-want +got):\n%s", diff)
	}
}

func TestBinaryBuilderMissingPatch(t *testing.T) {
	b := NewBinaryBuilder()
	b.Mark64()

	_, err := b.Build()
	var mp *MissingPatchError
	if !errors.As(err, &mp) {
		t.Fatalf("want MissingPatchError, got %v", err)
	}
	if mp.Outstanding != 1 {
		t.Errorf("outstanding: got %d, want 1", mp.Outstanding)
	}
}

func TestBinaryBuilderPadToWidth(t *testing.T) {
	b := NewBinaryBuilder()
	b.EmitBytes([]byte{1, 2, 3})
	b.PadToWidth(8)
	if b.Len() != 8 {
		t.Errorf("len after pad: got %d, want 8", b.Len())
	}

	// Already aligned: no extra page
	b.PadToWidth(8)
	if b.Len() != 8 {
		t.Errorf("len after second pad: got %d, want 8", b.Len())
	}
}

func TestLabelMapGet(t *testing.T) {
	m := LabelMap{"here": 0x1234}

	addr, err := m.Get("here")
	if err != nil || addr != 0x1234 {
		t.Errorf("Get(here): got %#x, %v", addr, err)
	}

	_, err = m.Get("nowhere")
	var ml *MissingLabelError
	if !errors.As(err, &ml) {
		t.Fatalf("want MissingLabelError, got %v", err)
	}
	if ml.Name != "nowhere" {
		t.Errorf("missing label name: got %q", ml.Name)
	}
}

// rawSegment emits fixed bytes under a single label, for layout tests.
type rawSegment struct {
	label string
	body  []byte
	flags PhdrFlags
}

func (s rawSegment) Code(_ LabelMap) (Segment, error) {
	a := amd64.NewAssembler()
	a.SetLabel(s.label)
	a.Emit(s.body)
	return Segment{Asm: a, Labels: []string{s.label}}, nil
}

func (s rawSegment) Flags() PhdrFlags {
	return s.flags
}

// dependentSegment reads another segment's label before emitting.
type dependentSegment struct {
	needs string
}

func (s dependentSegment) Code(labels LabelMap) (Segment, error) {
	addr, err := labels.Get(s.needs)
	if err != nil {
		return Segment{}, err
	}

	a := amd64.NewAssembler()
	a.SetLabel(EntryLabel)
	a.Emit(amd64.MovabsRCX(addr))
	return Segment{Asm: a, Labels: []string{EntryLabel}}, nil
}

func (s dependentSegment) Flags() PhdrFlags {
	return PFR | PFX
}

func TestCompileToELFLayout(t *testing.T) {
	img, err := CompileToELF([]SegmentBuilder{
		rawSegment{label: "data", body: make([]byte, 123), flags: PFR | PFW},
		dependentSegment{needs: "data"},
	})
	if err != nil {
		t.Fatal(err)
	}

	if !bytes.HasPrefix(img, []byte{0x7F, 'E', 'L', 'F'}) {
		t.Fatalf("bad magic: % x", img[:4])
	}

	f, err := debugelf.NewFile(bytes.NewReader(img))
	if err != nil {
		t.Fatalf("debug/elf rejects image: %v", err)
	}
	defer f.Close()

	if f.Class != debugelf.ELFCLASS64 {
		t.Errorf("class: got %v", f.Class)
	}
	if f.Data != debugelf.ELFDATA2LSB {
		t.Errorf("data: got %v", f.Data)
	}
	if f.Type != debugelf.ET_EXEC {
		t.Errorf("type: got %v", f.Type)
	}
	if f.Machine != debugelf.EM_X86_64 {
		t.Errorf("machine: got %v", f.Machine)
	}
	if len(f.Progs) != 2 {
		t.Fatalf("progs: got %d, want 2", len(f.Progs))
	}

	for i, p := range f.Progs {
		if p.Type != debugelf.PT_LOAD {
			t.Errorf("prog %d: type %v", i, p.Type)
		}
		if p.Off%PageSize != p.Vaddr%PageSize {
			t.Errorf("prog %d: offset %#x misaligned with vaddr %#x", i, p.Off, p.Vaddr)
		}
		if p.Vaddr != LoadBase+p.Off {
			t.Errorf("prog %d: vaddr %#x, want load base + %#x", i, p.Vaddr, p.Off)
		}
		if p.Align != PageSize {
			t.Errorf("prog %d: align %#x", i, p.Align)
		}
	}

	// The data segment lands on the first page after the headers, and
	// the entry points into the second segment.
	if f.Progs[0].Off != PageSize {
		t.Errorf("data offset: got %#x, want %#x", f.Progs[0].Off, PageSize)
	}
	if f.Progs[0].Filesz != 123 {
		t.Errorf("data filesz: got %d", f.Progs[0].Filesz)
	}
	if f.Entry != f.Progs[1].Vaddr {
		t.Errorf("entry %#x, want start of text %#x", f.Entry, f.Progs[1].Vaddr)
	}
}

func TestCompileToELFSegmentOrderMatters(t *testing.T) {
	// The dependent segment assembles first and must not see a label
	// declared later.
	_, err := CompileToELF([]SegmentBuilder{
		dependentSegment{needs: "data"},
		rawSegment{label: "data", body: []byte{1}, flags: PFR | PFW},
	})

	var ml *MissingLabelError
	if !errors.As(err, &ml) {
		t.Fatalf("want MissingLabelError, got %v", err)
	}
}

func TestCompileToELFMissingEntryPoint(t *testing.T) {
	_, err := CompileToELF([]SegmentBuilder{
		rawSegment{label: "data", body: []byte{1}, flags: PFR | PFW},
	})

	var me *MissingEntryPointError
	if !errors.As(err, &me) {
		t.Fatalf("want MissingEntryPointError, got %v", err)
	}
}
