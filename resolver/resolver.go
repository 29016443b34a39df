// Package resolver renames every user variable to a program-wide unique
// name, and rejects undeclared uses, redeclarations and non-lvalue
// assignment targets.  There is exactly one flat scope per function in
// this subset.
package resolver

import (
	"fmt"

	"github.com/dhwatson/minic/ast"
	"github.com/dhwatson/minic/cerr"
)

// Resolver holds the name → unique-name mapping for the function currently
// being resolved, plus a monotonic counter that guarantees fresh suffixes.
type Resolver struct {
	names   map[string]string
	counter int
}

// Resolve renames every variable in prog and returns the rewritten tree.
// The input is consumed by value in spirit: resolution builds fresh nodes
// rather than mutating the parser's tree.
func Resolve(prog *ast.Program) (*ast.Program, error) {
	r := &Resolver{names: make(map[string]string)}

	body, err := r.resolveBlockItems(prog.Function.Body)
	if err != nil {
		return nil, err
	}

	return &ast.Program{
		Function: &ast.Function{Name: prog.Function.Name, Body: body},
	}, nil
}

func (r *Resolver) resolveBlockItems(items []ast.BlockItem) ([]ast.BlockItem, error) {
	out := make([]ast.BlockItem, 0, len(items))
	for _, item := range items {
		resolved, err := r.resolveBlockItem(item)
		if err != nil {
			return nil, err
		}
		out = append(out, resolved)
	}
	return out, nil
}

func (r *Resolver) resolveBlockItem(item ast.BlockItem) (ast.BlockItem, error) {
	switch n := item.(type) {
	case *ast.Declaration:
		return r.resolveDeclaration(n)
	case *ast.StatementItem:
		stmt, err := r.resolveStatement(n.Statement)
		if err != nil {
			return nil, err
		}
		return &ast.StatementItem{Statement: stmt}, nil
	default:
		return nil, cerr.New(cerr.InternalInvariantViolation, -1, "unhandled block item %T", item)
	}
}

func (r *Resolver) resolveDeclaration(d *ast.Declaration) (*ast.Declaration, error) {
	if _, taken := r.names[d.Name]; taken {
		return nil, cerr.New(cerr.Redeclaration, -1, "name %q", d.Name)
	}

	unique := r.freshName(d.Name)
	r.names[d.Name] = unique

	var init ast.Exp
	if d.Init != nil {
		resolved, err := r.resolveExp(d.Init)
		if err != nil {
			return nil, err
		}
		init = resolved
	}

	return &ast.Declaration{Name: unique, Init: init}, nil
}

func (r *Resolver) resolveStatement(stmt ast.Statement) (ast.Statement, error) {
	switch n := stmt.(type) {
	case *ast.Return:
		exp, err := r.resolveExp(n.Exp)
		if err != nil {
			return nil, err
		}
		return &ast.Return{Exp: exp}, nil

	case *ast.ExpressionStatement:
		exp, err := r.resolveExp(n.Exp)
		if err != nil {
			return nil, err
		}
		return &ast.ExpressionStatement{Exp: exp}, nil

	case *ast.Null:
		return &ast.Null{}, nil

	default:
		return nil, cerr.New(cerr.InternalInvariantViolation, -1, "unhandled statement %T", stmt)
	}
}

func (r *Resolver) resolveExp(exp ast.Exp) (ast.Exp, error) {
	switch n := exp.(type) {
	case *ast.FactorExp:
		f, err := r.resolveFactor(n.Factor)
		if err != nil {
			return nil, err
		}
		return &ast.FactorExp{Factor: f}, nil

	case *ast.Binary:
		left, err := r.resolveExp(n.Left)
		if err != nil {
			return nil, err
		}
		right, err := r.resolveExp(n.Right)
		if err != nil {
			return nil, err
		}
		return &ast.Binary{Left: left, Op: n.Op, Right: right}, nil

	case *ast.Assignment:
		left, err := r.resolveExp(n.Left)
		if err != nil {
			return nil, err
		}
		right, err := r.resolveExp(n.Right)
		if err != nil {
			return nil, err
		}
		if !isLvalue(left) {
			return nil, cerr.New(cerr.InvalidAssignmentTarget, -1, "left-hand side is not a variable")
		}
		return &ast.Assignment{Left: left, Right: right}, nil

	default:
		return nil, cerr.New(cerr.InternalInvariantViolation, -1, "unhandled expression %T", exp)
	}
}

func (r *Resolver) resolveFactor(factor ast.Factor) (ast.Factor, error) {
	switch n := factor.(type) {
	case *ast.Int:
		return &ast.Int{Value: n.Value}, nil

	case *ast.Unary:
		operand, err := r.resolveFactor(n.Operand)
		if err != nil {
			return nil, err
		}
		return &ast.Unary{Op: n.Op, Operand: operand}, nil

	case *ast.Var:
		unique, ok := r.names[n.Name]
		if !ok {
			return nil, cerr.New(cerr.UndeclaredVariable, -1, "name %q", n.Name)
		}
		return &ast.Var{Name: unique}, nil

	case *ast.Parenthesized:
		inner, err := r.resolveExp(n.Inner)
		if err != nil {
			return nil, err
		}
		return &ast.Parenthesized{Inner: inner}, nil

	default:
		return nil, cerr.New(cerr.InternalInvariantViolation, -1, "unhandled factor %T", factor)
	}
}

// isLvalue reports whether a resolved expression is a bare variable,
// possibly wrapped in a single layer of parentheses - the two shapes the
// spec allows as an assignment target.
func isLvalue(exp ast.Exp) bool {
	fe, ok := exp.(*ast.FactorExp)
	if !ok {
		return false
	}
	switch f := fe.Factor.(type) {
	case *ast.Var:
		return true
	case *ast.Parenthesized:
		inner, ok := f.Inner.(*ast.FactorExp)
		if !ok {
			return false
		}
		_, isVar := inner.Factor.(*ast.Var)
		return isVar
	default:
		return false
	}
}

// freshName allocates a unique name for name, never reusing a suffix
// already handed out in this scope.
func (r *Resolver) freshName(name string) string {
	for {
		candidate := fmt.Sprintf("%s.%d", name, r.counter)
		r.counter++
		used := false
		for _, v := range r.names {
			if v == candidate {
				used = true
				break
			}
		}
		if !used {
			return candidate
		}
	}
}
