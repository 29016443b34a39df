// Package parser implements a recursive-descent parser over the token
// stream, with precedence climbing for expressions.
package parser

import (
	"github.com/dhwatson/minic/ast"
	"github.com/dhwatson/minic/cerr"
	"github.com/dhwatson/minic/token"
)

// Parser holds our object-state: the token buffer, consumed from the front.
type Parser struct {
	tokens []token.Token
	pos    int
}

// New builds a Parser over an already-lexed, comment-stripped token stream.
func New(tokens []token.Token) *Parser {
	return &Parser{tokens: tokens}
}

// precedence gives the binding power of each binary operator; higher
// binds tighter.  Shift shares a level with additive, matching this
// subset's source rather than standard C - see SPEC_FULL.md §4/§9.
var precedence = map[token.Type]int{
	token.ASTERISK: 50,
	token.SLASH:    50,
	token.PERCENT:  50,

	token.PLUS:   45,
	token.MINUS:  45,
	token.LSHIFT: 45,
	token.RSHIFT: 45,

	token.AMP:   44,
	token.CARET: 43,
	token.PIPE:  42,

	token.LT: 35,
	token.GT: 35,
	token.LE: 35,
	token.GE: 35,

	token.EQ:  30,
	token.NEQ: 30,

	token.AMPAMP:   10,
	token.PIPEPIPE: 5,

	token.ASSIGN: 1,
}

var binaryOps = map[token.Type]ast.BinaryOp{
	token.ASTERISK: ast.Multiply,
	token.SLASH:    ast.Divide,
	token.PERCENT:  ast.Modulo,
	token.PLUS:     ast.Add,
	token.MINUS:    ast.Subtract,
	token.LSHIFT:   ast.LeftShift,
	token.RSHIFT:   ast.RightShift,
	token.AMP:      ast.BitwiseAnd,
	token.CARET:    ast.BitwiseXor,
	token.PIPE:     ast.BitwiseOr,
	token.LT:       ast.LessThan,
	token.GT:       ast.GreaterThan,
	token.LE:       ast.LessOrEqual,
	token.GE:       ast.GreaterOrEqual,
	token.EQ:       ast.Equal,
	token.NEQ:      ast.NotEqual,
	token.AMPAMP:   ast.LogicalAnd,
	token.PIPEPIPE: ast.LogicalOr,
}

// Parse consumes the whole token buffer and returns the program, or the
// first parse error.  On success the buffer must be fully consumed.
func (p *Parser) Parse() (*ast.Program, error) {
	fn, err := p.parseFunction()
	if err != nil {
		return nil, err
	}

	if !p.atEOF() {
		tok := p.peek()
		return nil, cerr.New(cerr.TrailingTokens, tok.Offset, "unexpected token %q after program", tok.Literal)
	}

	return &ast.Program{Function: fn}, nil
}

func (p *Parser) parseFunction() (*ast.Function, error) {
	if err := p.expectKeyword("int"); err != nil {
		return nil, err
	}

	name, err := p.expectIdentNamed("main")
	if err != nil {
		return nil, err
	}

	if err := p.expect(token.LPAREN); err != nil {
		return nil, err
	}
	if err := p.expectKeyword("void"); err != nil {
		return nil, err
	}
	if err := p.expect(token.RPAREN); err != nil {
		return nil, err
	}
	if err := p.expect(token.LBRACE); err != nil {
		return nil, err
	}

	var body []ast.BlockItem
	for !p.check(token.RBRACE) {
		if p.atEOF() {
			return nil, cerr.New(cerr.UnexpectedEOF, p.lastOffset(), "while expecting '}'")
		}
		item, err := p.parseBlockItem()
		if err != nil {
			return nil, err
		}
		body = append(body, item)
	}

	if err := p.expect(token.RBRACE); err != nil {
		return nil, err
	}

	return &ast.Function{Name: name, Body: body}, nil
}

func (p *Parser) parseBlockItem() (ast.BlockItem, error) {
	if p.check(token.KEYWORD) && p.peek().Literal == "int" {
		return p.parseDeclaration()
	}
	stmt, err := p.parseStatement()
	if err != nil {
		return nil, err
	}
	return &ast.StatementItem{Statement: stmt}, nil
}

func (p *Parser) parseDeclaration() (*ast.Declaration, error) {
	if err := p.expectKeyword("int"); err != nil {
		return nil, err
	}

	name, err := p.expectIdent()
	if err != nil {
		return nil, err
	}

	var init ast.Exp
	if p.check(token.ASSIGN) {
		p.advance()
		init, err = p.parseExp(0)
		if err != nil {
			return nil, err
		}
	}

	if err := p.expect(token.SEMICOLON); err != nil {
		return nil, err
	}

	return &ast.Declaration{Name: name, Init: init}, nil
}

func (p *Parser) parseStatement() (ast.Statement, error) {
	if p.atEOF() {
		return nil, cerr.New(cerr.UnexpectedEOF, p.lastOffset(), "while expecting a statement")
	}

	if p.check(token.SEMICOLON) {
		p.advance()
		return &ast.Null{}, nil
	}

	if p.check(token.KEYWORD) && p.peek().Literal == "return" {
		p.advance()
		exp, err := p.parseExp(0)
		if err != nil {
			return nil, err
		}
		if err := p.expect(token.SEMICOLON); err != nil {
			return nil, err
		}
		return &ast.Return{Exp: exp}, nil
	}

	exp, err := p.parseExp(0)
	if err != nil {
		return nil, err
	}
	if err := p.expect(token.SEMICOLON); err != nil {
		return nil, err
	}
	return &ast.ExpressionStatement{Exp: exp}, nil
}

// parseExp implements precedence climbing: parse a factor, then while the
// lookahead is a binary operator binding at least as tightly as
// minPrecedence, fold it in.
func (p *Parser) parseExp(minPrecedence int) (ast.Exp, error) {
	factor, err := p.parseFactor()
	if err != nil {
		return nil, err
	}
	left := ast.Exp(&ast.FactorExp{Factor: factor})

	for !p.atEOF() {
		tok := p.peek()
		prec, ok := precedence[tok.Type]
		if !ok || prec < minPrecedence {
			break
		}

		if tok.Type == token.ASSIGN {
			p.advance()
			right, err := p.parseExp(prec)
			if err != nil {
				return nil, err
			}
			left = &ast.Assignment{Left: left, Right: right}
			continue
		}

		p.advance()
		right, err := p.parseExp(prec + 1)
		if err != nil {
			return nil, err
		}
		left = &ast.Binary{Left: left, Op: binaryOps[tok.Type], Right: right}
	}

	return left, nil
}

// Factor grammar: Int | '-' Factor | '~' Factor | '!' Factor | '(' Exp ')' | Identifier.
func (p *Parser) parseFactor() (ast.Factor, error) {
	if p.atEOF() {
		return nil, cerr.New(cerr.UnexpectedEOF, p.lastOffset(), "while expecting a factor")
	}

	tok := p.peek()
	switch tok.Type {
	case token.INT:
		p.advance()
		return &ast.Int{Value: parseInt32(tok.Literal)}, nil

	case token.MINUS:
		p.advance()
		operand, err := p.parseFactor()
		if err != nil {
			return nil, err
		}
		return &ast.Unary{Op: ast.Negation, Operand: operand}, nil

	case token.TILDE:
		p.advance()
		operand, err := p.parseFactor()
		if err != nil {
			return nil, err
		}
		return &ast.Unary{Op: ast.Complement, Operand: operand}, nil

	case token.BANG:
		p.advance()
		operand, err := p.parseFactor()
		if err != nil {
			return nil, err
		}
		return &ast.Unary{Op: ast.LogicalNot, Operand: operand}, nil

	case token.LPAREN:
		p.advance()
		exp, err := p.parseExp(0)
		if err != nil {
			return nil, err
		}
		if err := p.expect(token.RPAREN); err != nil {
			return nil, err
		}
		return &ast.Parenthesized{Inner: exp}, nil

	case token.IDENT:
		p.advance()
		return &ast.Var{Name: tok.Literal}, nil

	default:
		return nil, cerr.New(cerr.UnexpectedToken, tok.Offset, "unexpected token %q while parsing a factor", tok.Literal)
	}
}

func parseInt32(lit string) int32 {
	var v int64
	for _, r := range lit {
		v = v*10 + int64(r-'0')
	}
	return int32(v)
}

// --- token-buffer helpers ---

func (p *Parser) atEOF() bool {
	return p.pos >= len(p.tokens) || p.tokens[p.pos].Type == token.EOF
}

func (p *Parser) peek() token.Token {
	if p.pos >= len(p.tokens) {
		return token.Token{Type: token.EOF}
	}
	return p.tokens[p.pos]
}

func (p *Parser) advance() {
	p.pos++
}

func (p *Parser) check(t token.Type) bool {
	return !p.atEOF() && p.peek().Type == t
}

func (p *Parser) lastOffset() int {
	if len(p.tokens) == 0 {
		return 0
	}
	return p.tokens[len(p.tokens)-1].Offset
}

func (p *Parser) expect(t token.Type) error {
	if p.atEOF() {
		return cerr.New(cerr.UnexpectedEOF, p.lastOffset(), "while expecting %q", t)
	}
	tok := p.peek()
	if tok.Type != t {
		return cerr.New(cerr.UnexpectedToken, tok.Offset, "got %q, expected %q", tok.Literal, t)
	}
	p.advance()
	return nil
}

func (p *Parser) expectKeyword(word string) error {
	if p.atEOF() {
		return cerr.New(cerr.UnexpectedEOF, p.lastOffset(), "while expecting keyword %q", word)
	}
	tok := p.peek()
	if tok.Type != token.KEYWORD || tok.Literal != word {
		return cerr.New(cerr.UnexpectedToken, tok.Offset, "got %q, expected keyword %q", tok.Literal, word)
	}
	p.advance()
	return nil
}

func (p *Parser) expectIdent() (string, error) {
	if p.atEOF() {
		return "", cerr.New(cerr.UnexpectedEOF, p.lastOffset(), "while expecting an identifier")
	}
	tok := p.peek()
	if tok.Type != token.IDENT {
		return "", cerr.New(cerr.UnexpectedToken, tok.Offset, "got %q, expected an identifier", tok.Literal)
	}
	p.advance()
	return tok.Literal, nil
}

func (p *Parser) expectIdentNamed(name string) (string, error) {
	if p.atEOF() {
		return "", cerr.New(cerr.UnexpectedEOF, p.lastOffset(), "while expecting identifier %q", name)
	}
	tok := p.peek()
	if tok.Type != token.IDENT || tok.Literal != name {
		return "", cerr.New(cerr.UnexpectedToken, tok.Offset, "got %q, expected identifier %q", tok.Literal, name)
	}
	p.advance()
	return tok.Literal, nil
}
