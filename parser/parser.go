package parser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/thiremani/cirrus/ast"
	"github.com/thiremani/cirrus/lexer"
	"github.com/thiremani/cirrus/token"
)

const ModuleOp = "builtin.module"

// Parser reads the generic operation form. The only custom form understood
// is `module @name attributes {...} {...}`.
type Parser struct {
	l      *lexer.Lexer
	src    string
	errors []*token.Error

	curToken  token.Token
	peekToken token.Token
	prevEnd   int // end offset of the last consumed token
}

func New(l *lexer.Lexer) *Parser {
	p := &Parser{
		l:   l,
		src: l.Input(),
	}

	// Read two tokens, so curToken and peekToken are both set
	p.nextToken()
	p.nextToken()

	return p
}

func (p *Parser) nextToken() {
	p.prevEnd = p.curToken.End
	p.curToken = p.peekToken
	p.peekToken = p.l.NextToken()
}

func (p *Parser) curTokenIs(t token.TokenType) bool {
	return p.curToken.Type == t
}

func (p *Parser) peekTokenIs(t token.TokenType) bool {
	return p.peekToken.Type == t
}

func (p *Parser) Errors() []*token.Error {
	return p.errors
}

func (p *Parser) errorf(tok token.Token, format string, args ...any) {
	p.errors = append(p.errors, &token.Error{Token: tok, Msg: fmt.Sprintf(format, args...)})
}

// expect consumes the current token if it has type t.
func (p *Parser) expect(t token.TokenType) (token.Token, bool) {
	tok := p.curToken
	if tok.Type != t {
		p.unexpected(t.String())
		return tok, false
	}
	p.nextToken()
	return tok, true
}

func (p *Parser) unexpected(want string) {
	got := p.curToken.String()
	switch p.curToken.Type {
	case token.ILLEGAL:
		got = fmt.Sprintf("illegal token %q", p.curToken.Literal)
	case token.EOF:
		got = "end of input"
	}
	p.errorf(p.curToken, "expected %s, got %s", want, got)
}

// ParseModule parses a whole source file. Top-level operations other than a
// single module are wrapped in an implicit module. It returns nil if any
// error was recorded.
func (p *Parser) ParseModule() *ast.Operation {
	start := p.curToken
	var ops []*ast.Operation
	for !p.curTokenIs(token.EOF) {
		op := p.parseOperation()
		if op == nil {
			return nil
		}
		ops = append(ops, op)
	}

	if len(ops) == 1 && ops[0].Name == ModuleOp {
		m := ops[0]
		if len(m.Regions) != 1 {
			p.errorf(m.Token, "%s must have exactly one region, got %d", ModuleOp, len(m.Regions))
			return nil
		}
		if len(m.Regions[0].Blocks) == 0 {
			m.Regions[0].Blocks = []*ast.Block{{Token: m.Regions[0].Token}}
		}
		return m
	}

	return &ast.Operation{
		Token:   start,
		Name:    ModuleOp,
		Regions: []*ast.Region{{Token: start, Blocks: []*ast.Block{{Token: start, Ops: ops}}}},
		Type:    &ast.FuncType{Token: start},
	}
}

func (p *Parser) parseOperation() *ast.Operation {
	var results []*ast.Result
	if p.curTokenIs(token.PERCENT_ID) {
		var ok bool
		if results, ok = p.parseResults(); !ok {
			return nil
		}
		if _, ok = p.expect(token.EQUAL); !ok {
			return nil
		}
	}

	var op *ast.Operation
	switch {
	case p.curTokenIs(token.STRING):
		op = p.parseGenericOperation()
	case p.curTokenIs(token.BARE_ID) && (p.curToken.Literal == "module" || p.curToken.Literal == ModuleOp):
		if len(results) > 0 {
			p.errorf(p.curToken, "%s does not produce results", ModuleOp)
			return nil
		}
		op = p.parseModule()
	default:
		p.unexpected("operation name")
		return nil
	}
	if op == nil {
		return nil
	}
	op.Results = results

	if !p.skipLocation() {
		return nil
	}
	return op
}

func (p *Parser) parseResults() ([]*ast.Result, bool) {
	var results []*ast.Result
	for {
		tok, ok := p.expect(token.PERCENT_ID)
		if !ok {
			return nil, false
		}
		if strings.Contains(tok.Literal, "#") {
			p.errorf(tok, "result name %s cannot carry a result number", tok.Literal)
			return nil, false
		}
		r := &ast.Result{Token: tok, Name: tok.Literal, Count: 1}
		if p.curTokenIs(token.COLON) && p.peekTokenIs(token.INT) {
			p.nextToken()
			n, err := strconv.Atoi(p.curToken.Literal)
			if err != nil || n < 1 {
				p.errorf(p.curToken, "invalid result count %s", p.curToken.Literal)
				return nil, false
			}
			r.Count = n
			p.nextToken()
		}
		results = append(results, r)

		if !p.curTokenIs(token.COMMA) {
			return results, true
		}
		p.nextToken()
	}
}

func (p *Parser) parseGenericOperation() *ast.Operation {
	op := &ast.Operation{Token: p.curToken, Name: p.curToken.Literal}
	if op.Name == "" {
		p.errorf(op.Token, "empty operation name")
		return nil
	}
	p.nextToken()

	var ok bool
	if _, ok = p.expect(token.LPAREN); !ok {
		return nil
	}
	if op.Operands, ok = p.parseValueRefs(); !ok {
		return nil
	}
	if _, ok = p.expect(token.RPAREN); !ok {
		return nil
	}

	if p.curTokenIs(token.LBRACK) {
		p.nextToken()
		if op.Successors, ok = p.parseSuccessors(); !ok {
			return nil
		}
		if _, ok = p.expect(token.RBRACK); !ok {
			return nil
		}
	}

	if p.curTokenIs(token.LESS) {
		p.nextToken()
		if op.Properties, ok = p.parseAttrDict(); !ok {
			return nil
		}
		if _, ok = p.expect(token.GREATER); !ok {
			return nil
		}
	}

	if p.curTokenIs(token.LPAREN) {
		p.nextToken()
		for {
			r, ok := p.parseRegion()
			if !ok {
				return nil
			}
			op.Regions = append(op.Regions, r)
			if !p.curTokenIs(token.COMMA) {
				break
			}
			p.nextToken()
		}
		if _, ok = p.expect(token.RPAREN); !ok {
			return nil
		}
	}

	if p.curTokenIs(token.LBRACE) {
		if op.Attrs, ok = p.parseAttrDict(); !ok {
			return nil
		}
	}

	if _, ok = p.expect(token.COLON); !ok {
		return nil
	}
	if op.Type, ok = p.parseFunctionType(); !ok {
		return nil
	}
	if len(op.Type.Inputs) != len(op.Operands) {
		p.errorf(op.Token, "%s has %d operands but its type lists %d", op.Name, len(op.Operands), len(op.Type.Inputs))
		return nil
	}
	return op
}

// parseModule parses the custom module form.
func (p *Parser) parseModule() *ast.Operation {
	op := &ast.Operation{Token: p.curToken, Name: ModuleOp, Type: &ast.FuncType{Token: p.curToken}}
	p.nextToken()

	if p.curTokenIs(token.AT_ID) {
		op.Attrs = append(op.Attrs, &ast.NamedAttr{
			Token: p.curToken,
			Name:  "sym_name",
			Value: strconv.Quote(strings.TrimPrefix(p.curToken.Literal, "@")),
		})
		p.nextToken()
	}

	if p.curTokenIs(token.BARE_ID) && p.curToken.Literal == "attributes" {
		p.nextToken()
		attrs, ok := p.parseAttrDict()
		if !ok {
			return nil
		}
		op.Attrs = append(op.Attrs, attrs...)
	}

	r, ok := p.parseRegion()
	if !ok {
		return nil
	}
	if len(r.Blocks) == 0 {
		r.Blocks = []*ast.Block{{Token: r.Token}}
	}
	op.Regions = []*ast.Region{r}
	return op
}

func (p *Parser) parseValueRefs() ([]*ast.ValueRef, bool) {
	var refs []*ast.ValueRef
	if !p.curTokenIs(token.PERCENT_ID) {
		return refs, true
	}
	for {
		tok, ok := p.expect(token.PERCENT_ID)
		if !ok {
			return nil, false
		}
		ref := &ast.ValueRef{Token: tok, Name: tok.Literal}
		if name, num, found := strings.Cut(tok.Literal, "#"); found {
			ref.Name = name
			// the lexer only admits digits after '#'
			ref.Index, _ = strconv.Atoi(num)
		}
		refs = append(refs, ref)

		if !p.curTokenIs(token.COMMA) {
			return refs, true
		}
		p.nextToken()
	}
}

func (p *Parser) parseSuccessors() ([]*ast.BlockRef, bool) {
	var succs []*ast.BlockRef
	for {
		tok, ok := p.expect(token.CARET_ID)
		if !ok {
			return nil, false
		}
		succs = append(succs, &ast.BlockRef{Token: tok, Label: tok.Literal})
		if !p.curTokenIs(token.COMMA) {
			return succs, true
		}
		p.nextToken()
	}
}

func (p *Parser) parseRegion() (*ast.Region, bool) {
	tok, ok := p.expect(token.LBRACE)
	if !ok {
		return nil, false
	}
	r := &ast.Region{Token: tok}

	// the entry block may omit its label
	if !p.curTokenIs(token.CARET_ID) && !p.curTokenIs(token.RBRACE) {
		b := &ast.Block{Token: p.curToken}
		if !p.parseBlockBody(b) {
			return nil, false
		}
		r.Blocks = append(r.Blocks, b)
	}

	for p.curTokenIs(token.CARET_ID) {
		b, ok := p.parseBlock()
		if !ok {
			return nil, false
		}
		r.Blocks = append(r.Blocks, b)
	}

	if _, ok := p.expect(token.RBRACE); !ok {
		return nil, false
	}
	return r, true
}

func (p *Parser) parseBlock() (*ast.Block, bool) {
	b := &ast.Block{Token: p.curToken, Label: p.curToken.Literal}
	p.nextToken()

	if p.curTokenIs(token.LPAREN) {
		p.nextToken()
		for !p.curTokenIs(token.RPAREN) {
			tok, ok := p.expect(token.PERCENT_ID)
			if !ok {
				return nil, false
			}
			if strings.Contains(tok.Literal, "#") {
				p.errorf(tok, "block argument %s cannot carry a result number", tok.Literal)
				return nil, false
			}
			if _, ok = p.expect(token.COLON); !ok {
				return nil, false
			}
			typ, ok := p.parseType()
			if !ok {
				return nil, false
			}
			if !p.skipLocation() {
				return nil, false
			}
			b.Args = append(b.Args, &ast.BlockArg{Token: tok, Name: tok.Literal, Type: typ})

			if !p.curTokenIs(token.COMMA) {
				break
			}
			p.nextToken()
		}
		if _, ok := p.expect(token.RPAREN); !ok {
			return nil, false
		}
	}

	if _, ok := p.expect(token.COLON); !ok {
		return nil, false
	}
	if !p.parseBlockBody(b) {
		return nil, false
	}
	return b, true
}

func (p *Parser) parseBlockBody(b *ast.Block) bool {
	for !p.curTokenIs(token.RBRACE) && !p.curTokenIs(token.CARET_ID) && !p.curTokenIs(token.EOF) {
		op := p.parseOperation()
		if op == nil {
			return false
		}
		b.Ops = append(b.Ops, op)
	}
	return true
}

func (p *Parser) parseAttrDict() ([]*ast.NamedAttr, bool) {
	if _, ok := p.expect(token.LBRACE); !ok {
		return nil, false
	}
	attrs := []*ast.NamedAttr{}
	for !p.curTokenIs(token.RBRACE) {
		tok := p.curToken
		if !p.curTokenIs(token.BARE_ID) && !p.curTokenIs(token.STRING) {
			p.unexpected("attribute name")
			return nil, false
		}
		p.nextToken()

		na := &ast.NamedAttr{Token: tok, Name: tok.Literal, Value: "unit"}
		if p.curTokenIs(token.EQUAL) {
			p.nextToken()
			var ok bool
			if na.Value, ok = p.parseAttrValue(); !ok {
				return nil, false
			}
			if p.curTokenIs(token.COLON) {
				p.nextToken()
				if na.Type, ok = p.parseType(); !ok {
					return nil, false
				}
			}
		}
		attrs = append(attrs, na)

		if !p.curTokenIs(token.COMMA) {
			break
		}
		p.nextToken()
	}
	if _, ok := p.expect(token.RBRACE); !ok {
		return nil, false
	}
	return attrs, true
}

// parseAttrValue returns the source text of an attribute value.
func (p *Parser) parseAttrValue() (string, bool) {
	start := p.curToken.Offset
	switch p.curToken.Type {
	case token.STRING, token.INT, token.FLOAT:
		p.nextToken()
	case token.MINUS:
		p.nextToken()
		if !p.curTokenIs(token.INT) && !p.curTokenIs(token.FLOAT) {
			p.unexpected("number")
			return "", false
		}
		p.nextToken()
	case token.LBRACK, token.LBRACE:
		if !p.skipBalanced() {
			return "", false
		}
	case token.LPAREN:
		if _, ok := p.parseType(); !ok {
			return "", false
		}
	case token.AT_ID:
		p.nextToken()
		// nested symbol reference @a::@b
		for p.curTokenIs(token.COLON) && p.peekTokenIs(token.COLON) {
			p.nextToken()
			p.nextToken()
			if _, ok := p.expect(token.AT_ID); !ok {
				return "", false
			}
		}
	case token.HASH_ID, token.BANG_ID, token.BARE_ID:
		p.nextToken()
		if p.curTokenIs(token.LESS) && !p.skipBalanced() {
			return "", false
		}
	default:
		p.unexpected("attribute value")
		return "", false
	}
	return p.src[start:p.prevEnd], true
}

// parseType returns the source text of a type.
func (p *Parser) parseType() (string, bool) {
	start := p.curToken.Offset
	switch p.curToken.Type {
	case token.LPAREN:
		if _, ok := p.parseFunctionType(); !ok {
			return "", false
		}
	case token.BARE_ID, token.BANG_ID:
		p.nextToken()
		if p.curTokenIs(token.LESS) && !p.skipBalanced() {
			return "", false
		}
	default:
		p.unexpected("type")
		return "", false
	}
	return p.src[start:p.prevEnd], true
}

func (p *Parser) parseFunctionType() (*ast.FuncType, bool) {
	tok, ok := p.expect(token.LPAREN)
	if !ok {
		return nil, false
	}
	ft := &ast.FuncType{Token: tok}
	if ft.Inputs, ok = p.parseTypeList(); !ok {
		return nil, false
	}
	if _, ok = p.expect(token.RPAREN); !ok {
		return nil, false
	}
	if _, ok = p.expect(token.ARROW); !ok {
		return nil, false
	}

	if p.curTokenIs(token.LPAREN) {
		p.nextToken()
		if ft.Results, ok = p.parseTypeList(); !ok {
			return nil, false
		}
		if _, ok = p.expect(token.RPAREN); !ok {
			return nil, false
		}
		return ft, true
	}

	t, ok := p.parseType()
	if !ok {
		return nil, false
	}
	ft.Results = []string{t}
	return ft, true
}

func (p *Parser) parseTypeList() ([]string, bool) {
	types := []string{}
	if p.curTokenIs(token.RPAREN) {
		return types, true
	}
	for {
		t, ok := p.parseType()
		if !ok {
			return nil, false
		}
		types = append(types, t)
		if !p.curTokenIs(token.COMMA) {
			return types, true
		}
		p.nextToken()
	}
}

// skipLocation consumes a trailing loc(...) if present.
func (p *Parser) skipLocation() bool {
	if p.curTokenIs(token.BARE_ID) && p.curToken.Literal == "loc" && p.peekTokenIs(token.LPAREN) {
		p.nextToken()
		return p.skipBalanced()
	}
	return true
}

var closers = map[token.TokenType]token.TokenType{
	token.LPAREN: token.RPAREN,
	token.LBRACK: token.RBRACK,
	token.LBRACE: token.RBRACE,
	token.LESS:   token.GREATER,
}

// skipBalanced consumes tokens from the current opening bracket through its
// matching closer.
func (p *Parser) skipBalanced() bool {
	open := p.curToken
	var stack []token.TokenType
	for {
		switch p.curToken.Type {
		case token.LPAREN, token.LBRACK, token.LBRACE, token.LESS:
			stack = append(stack, closers[p.curToken.Type])
		case token.RPAREN, token.RBRACK, token.RBRACE, token.GREATER:
			if len(stack) == 0 || stack[len(stack)-1] != p.curToken.Type {
				p.errorf(p.curToken, "unbalanced %s", p.curToken.Type)
				return false
			}
			stack = stack[:len(stack)-1]
		case token.EOF:
			p.errorf(open, "unterminated %s", open.Type)
			return false
		case token.ILLEGAL:
			p.unexpected("token")
			return false
		}
		p.nextToken()
		if len(stack) == 0 {
			return true
		}
	}
}
