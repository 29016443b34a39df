package asmir

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/dhwatson/minic/tac"
)

// TestBuildReturnStructuralShape pins Build's output shape for the
// simplest program via structural diffing against a hand-built expected
// assembly-IR tree.
func TestBuildReturnStructuralShape(t *testing.T) {
	in := &tac.Program{Function: &tac.Function{Name: "main", Body: []tac.Instruction{
		&tac.Return{Val: tac.Constant(7)},
	}}}

	got, err := Build(in)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}

	want := &Program{Function: &Function{
		Name: "main",
		Body: []Instruction{
			&Mov{Src: Imm(7), Dst: Reg{Name: AX}},
			&Ret{},
		},
	}}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("unexpected assembly-IR shape (-want +got):\n%s", diff)
	}
}

func TestBuildCopyStructuralShape(t *testing.T) {
	in := &tac.Program{Function: &tac.Function{Name: "main", Body: []tac.Instruction{
		&tac.Copy{Src: tac.Constant(3), Dst: "x.0"},
	}}}

	got, err := Build(in)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}

	want := &Program{Function: &Function{
		Name: "main",
		Body: []Instruction{
			&Mov{Src: Imm(3), Dst: Pseudo("x.0")},
		},
	}}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("unexpected assembly-IR shape (-want +got):\n%s", diff)
	}
}
