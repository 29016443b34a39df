// The compiler-package contains the core of our compiler.
//
// In brief we go through a six-step process:
//
//  1.  Use the lexer to tokenize the source.
//
//  2.  Parse the tokens into an abstract syntax tree.
//
//  3.  Resolve every variable to a program-wide unique name.
//
//  4.  Lower the AST to three-address code (TAC).
//
//  5.  Build virtual assembly from the TAC, resolve pseudo-registers to
//      stack slots, and legalize operand forms for the target ISA.
//
//  6.  Emit AT&T-syntax assembly text.
//
// Each stage is a pure function: it consumes the previous stage's output
// by value and returns a freshly built result, or the first error
// encountered. There is no recovery - a single bad token or undeclared
// variable aborts the whole pipeline.
package compiler

import (
	"fmt"
	"io"
	"strings"

	"github.com/davecgh/go-spew/spew"

	"github.com/dhwatson/minic/asmir"
	"github.com/dhwatson/minic/lexer"
	"github.com/dhwatson/minic/parser"
	"github.com/dhwatson/minic/resolver"
	"github.com/dhwatson/minic/tac"
	"github.com/dhwatson/minic/token"
)

// Compiler holds our object-state.
type Compiler struct {

	// debug decides whether intermediate representations are dumped
	// to debugOut as each stage completes. It does not change the
	// emitted assembly.
	debug bool

	// debugOut receives the per-stage dumps when debug is set. New
	// leaves it nil, and nothing is dumped until SetDebugOutput sets it.
	debugOut io.Writer

	// source holds the program text we're compiling.
	source string

	// target selects the function-symbol prefixing convention
	// (Darwin vs System V) the emitter renders under.
	target asmir.Target
}

//
// Our public API consists of:
//  New
//  SetDebug
//  SetDebugOutput
//  SetTarget
//  Compile
//
// The rest of the code is an implementation detail.
//

// New creates a new compiler, given the source text in the constructor.
func New(source string) *Compiler {
	return &Compiler{source: source, target: asmir.SystemV()}
}

// SetDebug changes the debug-flag for our output.
func (c *Compiler) SetDebug(val bool) {
	c.debug = val
}

// SetDebugOutput redirects the per-stage debug dumps; defaults to stderr
// in the driver, but tests can point it at a buffer.
func (c *Compiler) SetDebugOutput(w io.Writer) {
	c.debugOut = w
}

// SetTarget selects the emitter's function-symbol convention.
func (c *Compiler) SetTarget(t asmir.Target) {
	c.target = t
}

// Compile converts the input program into AT&T-syntax x86-64 assembly.
func (c *Compiler) Compile() (string, error) {

	//
	// Lex the source into a token stream, discarding comments (the
	// driver never sees them; only the compiler package does).
	//
	tokens, err := c.tokenize()
	if err != nil {
		return "", err
	}

	//
	// Parse the tokens into an AST.
	//
	prog, err := parser.New(tokens).Parse()
	if err != nil {
		return "", err
	}
	c.dump("ast (parsed)", prog)
	if c.debug && c.debugOut != nil {
		prog.Dump(c.debugOut)
	}

	//
	// Resolve every variable to a unique name.
	//
	prog, err = resolver.Resolve(prog)
	if err != nil {
		return "", err
	}
	c.dump("ast (resolved)", prog)

	//
	// Lower to three-address code.
	//
	tacProg, err := tac.Generate(prog)
	if err != nil {
		return "", err
	}
	c.dump("tac", tacProg)

	//
	// Build virtual assembly, then resolve pseudo-registers and
	// legalize operand forms.
	//
	asmProg, err := asmir.Build(tacProg)
	if err != nil {
		return "", err
	}
	c.dump("asm (virtual)", asmProg)

	resolved, frameSize := asmir.ResolvePseudo(asmProg)
	legal := asmir.Legalize(resolved, frameSize)
	c.dump("asm (legalized)", legal)

	//
	// Emit the final assembly text.
	//
	out, err := c.emit(legal)
	if err != nil {
		return "", err
	}

	return out, nil
}

// tokenize populates a flat token list from the lexer, dropping comment
// tokens (the parser's grammar has no production for them) but leaving
// everything else - including '#'-tags - for the parser to accept or
// reject.
func (c *Compiler) tokenize() ([]token.Token, error) {
	lexed := lexer.New(c.source)

	var tokens []token.Token
	for {
		tok, err := lexed.NextToken()
		if err != nil {
			return nil, err
		}

		if tok.Type == token.COMMENT {
			continue
		}

		tokens = append(tokens, tok)

		if tok.Type == token.EOF {
			break
		}
	}

	return tokens, nil
}

// emit renders the legalized assembly program to text.
func (c *Compiler) emit(prog *asmir.Program) (string, error) {
	var sb strings.Builder
	if err := asmir.Emit(&sb, prog, c.target); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// dump writes a labelled spew representation of v to the debug writer,
// when debugging is enabled. It's a no-op otherwise - callers never need
// to guard the call themselves.
func (c *Compiler) dump(label string, v interface{}) {
	if !c.debug || c.debugOut == nil {
		return
	}
	fmt.Fprintf(c.debugOut, "--- %s ---\n", label)
	spew.Fdump(c.debugOut, v)
}
