package tac

import (
	"testing"

	"github.com/dhwatson/minic/lexer"
	"github.com/dhwatson/minic/parser"
	"github.com/dhwatson/minic/resolver"
	"github.com/dhwatson/minic/token"
)

func generateSrc(t *testing.T, src string) *Program {
	t.Helper()
	l := lexer.New(src)
	var toks []token.Token
	for {
		tok, err := l.NextToken()
		if err != nil {
			t.Fatalf("lex error: %s", err)
		}
		if tok.Type == token.COMMENT {
			continue
		}
		toks = append(toks, tok)
		if tok.Type == token.EOF {
			break
		}
	}
	prog, err := parser.New(toks).Parse()
	if err != nil {
		t.Fatalf("parse error: %s", err)
	}
	resolved, err := resolver.Resolve(prog)
	if err != nil {
		t.Fatalf("resolve error: %s", err)
	}
	tacProg, err := Generate(resolved)
	if err != nil {
		t.Fatalf("generate error: %s", err)
	}
	return tacProg
}

func TestReturnConstant(t *testing.T) {
	prog := generateSrc(t, "int main(void){ return 2; }")
	if len(prog.Function.Body) != 1 {
		t.Fatalf("expected one instruction, got %d", len(prog.Function.Body))
	}
	ret, ok := prog.Function.Body[0].(*Return)
	if !ok {
		t.Fatalf("expected a Return, got %T", prog.Function.Body[0])
	}
	if c, ok := ret.Val.(Constant); !ok || c != 2 {
		t.Fatalf("expected Constant(2), got %#v", ret.Val)
	}
}

func TestImplicitMainEpilogue(t *testing.T) {
	prog := generateSrc(t, "int main(void){ int a = 1; }")
	last := prog.Function.Body[len(prog.Function.Body)-1]
	ret, ok := last.(*Return)
	if !ok {
		t.Fatalf("expected an implicit Return at the end, got %T", last)
	}
	if c, ok := ret.Val.(Constant); !ok || c != 0 {
		t.Fatalf("expected the implicit return to be Constant(0), got %#v", ret.Val)
	}
}

func TestExplicitReturnSuppressesEpilogue(t *testing.T) {
	prog := generateSrc(t, "int main(void){ return 5; }")
	count := 0
	for _, instr := range prog.Function.Body {
		if _, ok := instr.(*Return); ok {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("expected exactly one Return, got %d", count)
	}
}

func TestArithmeticLoweringProducesBinary(t *testing.T) {
	prog := generateSrc(t, "int main(void){ return 1 + 2 * 3; }")
	var sawMultiply, sawAdd bool
	for _, instr := range prog.Function.Body {
		b, ok := instr.(*Binary)
		if !ok {
			continue
		}
		switch b.Op {
		case Multiply:
			sawMultiply = true
		case Add:
			sawAdd = true
		}
	}
	if !sawMultiply || !sawAdd {
		t.Fatalf("expected both a Multiply and an Add instruction, body=%#v", prog.Function.Body)
	}
}

func TestAssignmentLowersToCopy(t *testing.T) {
	prog := generateSrc(t, "int main(void){ int a; a = 3; return a; }")
	var sawCopyOfThree bool
	for _, instr := range prog.Function.Body {
		c, ok := instr.(*Copy)
		if !ok {
			continue
		}
		if v, ok := c.Src.(Constant); ok && v == 3 {
			sawCopyOfThree = true
		}
	}
	if !sawCopyOfThree {
		t.Fatalf("expected a Copy(Constant(3), ...) instruction, body=%#v", prog.Function.Body)
	}
}

// TestLogicalAndShortCircuits checks that && lowers to a JumpIfZero guarding
// the right operand, before any instruction that evaluates the right side.
func TestLogicalAndShortCircuits(t *testing.T) {
	prog := generateSrc(t, "int main(void){ int a; int b; return a && b; }")

	jzIndex := -1
	for i, instr := range prog.Function.Body {
		if _, ok := instr.(*JumpIfZero); ok {
			jzIndex = i
			break
		}
	}
	if jzIndex == -1 {
		t.Fatalf("expected a JumpIfZero instruction, body=%#v", prog.Function.Body)
	}

	sawSecondJumpIfZero := false
	for _, instr := range prog.Function.Body[jzIndex+1:] {
		if _, ok := instr.(*JumpIfZero); ok {
			sawSecondJumpIfZero = true
		}
	}
	if !sawSecondJumpIfZero {
		t.Fatalf("expected a second JumpIfZero testing the right operand, body=%#v", prog.Function.Body)
	}
}

func TestLogicalOrShortCircuits(t *testing.T) {
	prog := generateSrc(t, "int main(void){ int a; int b; return a || b; }")

	var jumpIfNotZeroCount int
	for _, instr := range prog.Function.Body {
		if _, ok := instr.(*JumpIfNotZero); ok {
			jumpIfNotZeroCount++
		}
	}
	if jumpIfNotZeroCount != 2 {
		t.Fatalf("expected two JumpIfNotZero instructions (left guard + right test), got %d", jumpIfNotZeroCount)
	}
}

func TestNullStatementIsANoOp(t *testing.T) {
	prog := generateSrc(t, "int main(void){ ; return 1; }")
	if len(prog.Function.Body) != 1 {
		t.Fatalf("expected the null statement to emit nothing, body=%#v", prog.Function.Body)
	}
}

func TestExpressionStatementDiscardsItsValue(t *testing.T) {
	prog := generateSrc(t, "int main(void){ int a; a = 1 + 2; return a; }")
	// Only the Copy into `a` should be observable in the body; the 1+2
	// Binary result feeds the Copy and is never itself returned.
	lastCopy := (*Copy)(nil)
	for _, instr := range prog.Function.Body {
		if c, ok := instr.(*Copy); ok {
			lastCopy = c
		}
	}
	if lastCopy == nil {
		t.Fatalf("expected a Copy instruction assigning to a, body=%#v", prog.Function.Body)
	}
}
