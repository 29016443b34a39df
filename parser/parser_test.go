package parser

import (
	"testing"

	"github.com/dhwatson/minic/ast"
	"github.com/dhwatson/minic/lexer"
	"github.com/dhwatson/minic/token"
)

func lexAll(t *testing.T, src string) []token.Token {
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
	return toks
}

func TestParseSimpleReturn(t *testing.T) {
	prog, err := New(lexAll(t, "int main(void){ return 2; }")).Parse()
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if prog.Function.Name != "main" {
		t.Fatalf("expected function main, got %s", prog.Function.Name)
	}
	if len(prog.Function.Body) != 1 {
		t.Fatalf("expected one block item, got %d", len(prog.Function.Body))
	}
	item, ok := prog.Function.Body[0].(*ast.StatementItem)
	if !ok {
		t.Fatalf("expected a statement item, got %T", prog.Function.Body[0])
	}
	ret, ok := item.Statement.(*ast.Return)
	if !ok {
		t.Fatalf("expected a return statement, got %T", item.Statement)
	}
	fe, ok := ret.Exp.(*ast.FactorExp)
	if !ok {
		t.Fatalf("expected a factor expression, got %T", ret.Exp)
	}
	i, ok := fe.Factor.(*ast.Int)
	if !ok || i.Value != 2 {
		t.Fatalf("expected Int(2), got %#v", fe.Factor)
	}
}

func TestPrecedenceClimbing(t *testing.T) {
	// 1 + 2 * 3 should parse as 1 + (2 * 3).
	prog, err := New(lexAll(t, "int main(void){ return 1 + 2 * 3; }")).Parse()
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	ret := prog.Function.Body[0].(*ast.StatementItem).Statement.(*ast.Return)
	top, ok := ret.Exp.(*ast.Binary)
	if !ok || top.Op != ast.Add {
		t.Fatalf("expected a top-level Add, got %#v", ret.Exp)
	}
	right, ok := top.Right.(*ast.Binary)
	if !ok || right.Op != ast.Multiply {
		t.Fatalf("expected the right-hand side to be a Multiply, got %#v", top.Right)
	}
}

func TestAssignmentIsRightAssociative(t *testing.T) {
	prog, err := New(lexAll(t, "int main(void){ int a; int b; a = b = 3; return a; }")).Parse()
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	item := prog.Function.Body[2].(*ast.StatementItem)
	stmt := item.Statement.(*ast.ExpressionStatement)
	assign, ok := stmt.Exp.(*ast.Assignment)
	if !ok {
		t.Fatalf("expected an assignment, got %T", stmt.Exp)
	}
	if _, ok := assign.Right.(*ast.Assignment); !ok {
		t.Fatalf("expected a = (b = 3), got right-hand side %#v", assign.Right)
	}
}

func TestTrailingTokensIsAnError(t *testing.T) {
	toks := lexAll(t, "int main(void){ return 1; } 2")
	_, err := New(toks).Parse()
	if err == nil {
		t.Fatalf("expected a trailing-tokens error")
	}
}

func TestBogusPrograms(t *testing.T) {
	tests := []string{
		"",
		"int main(void){ return; }",
		"int main(void){ return 1 }",
		"int main(void) return 1; }",
	}
	for _, src := range tests {
		_, err := New(lexAll(t, src)).Parse()
		if err == nil {
			t.Errorf("expected an error parsing %q, got none", src)
		}
	}
}
