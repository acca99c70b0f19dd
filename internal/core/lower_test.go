package core

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// lower is a test helper running the full frontend on source text.
func lower(t *testing.T, src string) []Op {
	t.Helper()
	ops, err := Lower(Tokenize([]byte(src)))
	if err != nil {
		t.Fatalf("Lower(%q): %v", src, err)
	}
	return ops
}

// stripPos clears source metadata so literal expectations stay short.
func stripPos(ops []Op) []Op {
	out := make([]Op, len(ops))
	for i, op := range ops {
		op.Pos = nil
		out[i] = op
	}
	return out
}

func TestLowerFusesRuns(t *testing.T) {
	tests := []struct {
		src  string
		want []Op
	}{
		{">>>", []Op{ShiftRight(3)}},
		{"<<", []Op{ShiftLeft(2)}},
		{"++++", []Op{Add(4)}},
		{"---", []Op{Sub(3)}},
		{">>><<<", []Op{ShiftRight(3), ShiftLeft(3)}},
		{"+-+", []Op{Add(1), Sub(1), Add(1)}},
		{"...", []Op{Write(), Write(), Write()}},
		{",,", []Op{Read(), Read()}},
		{"", []Op{}},
	}

	for _, tt := range tests {
		got := stripPos(lower(t, tt.src))
		if diff := cmp.Diff(tt.want, got); diff != "" {
			t.Errorf("Lower(%q) mismatch (-want +got):\n%s", tt.src, diff)
		}
	}
}

func TestLowerAddCountsReduceMod256(t *testing.T) {
	tests := []struct {
		run  int
		want uint64
	}{
		{1, 1},
		{255, 255},
		{256, 0},
		{257, 1},
		{512, 0},
	}

	for _, tt := range tests {
		ops := lower(t, strings.Repeat("+", tt.run))
		if len(ops) != 1 || ops[0].Kind != OpAdd || ops[0].Arg != tt.want {
			t.Errorf("run of %d '+': got %v, want ADD %d", tt.run, stripPos(ops), tt.want)
		}
	}
}

func TestLowerFusionIsComplete(t *testing.T) {
	// No two adjacent ops may share a fusible kind: fusion is a
	// complete quotient over runs.
	src := ">>>+++<<<--->>.+++[->+<]++"
	ops := lower(t, src)

	fusible := map[OpKind]bool{
		OpShiftRight: true, OpShiftLeft: true, OpAdd: true, OpSub: true,
	}
	for i := 1; i < len(ops); i++ {
		if fusible[ops[i].Kind] && ops[i].Kind == ops[i-1].Kind {
			t.Errorf("adjacent %s ops at %d and %d:\n%s", ops[i].Kind, i-1, i, Dump(ops))
		}
	}
}

func TestLowerBracketTargets(t *testing.T) {
	// +[-]  ->  ADD 1, JF 3, SUB 1, JB 1
	got := stripPos(lower(t, "+[-]"))
	want := []Op{Add(1), JumpFwd(3), Sub(1), JumpBack(1)}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("bracket targets mismatch (-want +got):\n%s", diff)
	}
}

func TestLowerNestedBrackets(t *testing.T) {
	// [[][]]  ->  JF: 0->5, 1->2, 3->4
	got := stripPos(lower(t, "[[][]]"))
	want := []Op{
		JumpFwd(5),
		JumpFwd(2), JumpBack(1),
		JumpFwd(4), JumpBack(3),
		JumpBack(0),
	}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("nesting mismatch (-want +got):\n%s", diff)
	}
}

func TestLowerBracketPairing(t *testing.T) {
	// Every forward target must be a backward jump pointing back, and
	// symmetrically.
	ops := lower(t, "++[>+++[-]<[[]]-]")

	for i, op := range ops {
		switch op.Kind {
		case OpJumpFwd:
			target := int(op.Arg)
			if target <= i {
				t.Fatalf("JF at %d targets %d, want > %d", i, target, i)
			}
			partner := ops[target]
			if partner.Kind != OpJumpBack || int(partner.Arg) != i {
				t.Errorf("JF at %d: partner at %d is %s %d", i, target, partner.Kind, partner.Arg)
			}
		case OpJumpBack:
			target := int(op.Arg)
			if target >= i {
				t.Fatalf("JB at %d targets %d, want < %d", i, target, i)
			}
			partner := ops[target]
			if partner.Kind != OpJumpFwd || int(partner.Arg) != i {
				t.Errorf("JB at %d: partner at %d is %s %d", i, target, partner.Kind, partner.Arg)
			}
		}
	}
}

func TestLowerUnmatchedBrackets(t *testing.T) {
	tests := []struct {
		src       string
		wantChar  byte
		wantIndex int
	}{
		{"[", '[', 0},
		{"]", ']', 0},
		{"+[", '[', 1},
		{"[][", '[', 2},
		{"+]+", ']', 1},
		{"[[]", '[', 0},
	}

	for _, tt := range tests {
		_, err := Lower(Tokenize([]byte(tt.src)))
		if err == nil {
			t.Errorf("Lower(%q): want error, got nil", tt.src)
			continue
		}

		var ub *UnmatchedBracketError
		if !errors.As(err, &ub) {
			t.Errorf("Lower(%q): error %v is not UnmatchedBracketError", tt.src, err)
			continue
		}
		if ub.Char != tt.wantChar || ub.Index != tt.wantIndex {
			t.Errorf("Lower(%q): got '%c' at %d, want '%c' at %d",
				tt.src, ub.Char, ub.Index, tt.wantChar, tt.wantIndex)
		}
	}
}

func TestLowerHelloWorld(t *testing.T) {
	src := "++++++++[>++++[>++>+++>+++>+<<<<-]>+>+>->>+[<]<-]>>.>---.+++++++..+++.>>.<-.<.+++.------.--------.>>+.>++."
	ops := lower(t, src)

	// Spot checks: opens with ADD 8 into the outer loop, and every
	// bracket resolved away from the placeholder.
	if ops[0].Kind != OpAdd || ops[0].Arg != 8 {
		t.Fatalf("first op: got %s %d, want ADD 8", ops[0].Kind, ops[0].Arg)
	}
	for i, op := range ops {
		if op.IsJump() && op.Arg == 0 && i != 0 {
			t.Errorf("unresolved placeholder at %d:\n%s", i, Dump(ops))
		}
	}
}

func TestDump(t *testing.T) {
	out := Dump([]Op{Add(2), JumpFwd(3), Write(), JumpBack(1)})

	for _, want := range []string{"000: ADD", "001: JF", "002: WRITE", "003: JB"} {
		if !strings.Contains(out, want) {
			t.Errorf("Dump output missing %q:\n%s", want, out)
		}
	}
}
