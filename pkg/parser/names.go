package parser

import (
	"cppsema/pkg/ast"
)

// nameMode tells parseName how eagerly '<' opens a template argument list.
type nameMode int

const (
	// nameExpr: only after known templates, or when the closing '>' is
	// followed by '(', '::' or '{'.
	nameExpr nameMode = iota
	// nameType: whenever the argument list parses.
	nameType
)

// isNameStart reports whether the token at offset can start a name.
func (p *Parser) isNameStart(offset int) bool {
	tok := p.tokenCache.peekAhead(offset)
	switch tok.Type {
	case TokenIdentifier, TokenOperator:
		return true
	case TokenDoubleColon:
		return p.isSegmentStart(offset + 1)
	case TokenTilde:
		return p.tokenCache.checkAhead(offset+1, TokenIdentifier)
	}
	return false
}

// isSegmentStart reports whether the token at offset can follow '::'.
func (p *Parser) isSegmentStart(offset int) bool {
	switch p.tokenCache.peekAhead(offset).Type {
	case TokenIdentifier, TokenOperator, TokenTemplate:
		return true
	case TokenTilde:
		return p.tokenCache.checkAhead(offset+1, TokenIdentifier)
	}
	return false
}

// parseName parses an id-expression or a type name: an identifier,
// destructor, operator or conversion function name, optionally qualified and
// with template arguments.
func (p *Parser) parseName(mode nameMode) (ast.NameNode, error) {
	start := p.tokenCache.getCurrentPosition()
	global := false
	if p.tokenCache.check(TokenDoubleColon) {
		if !p.isSegmentStart(1) {
			return nil, p.errorf("expected name after '::'")
		}
		p.tokenCache.advance()
		global = true
	}

	var segments []ast.NameNode
	for {
		seg, err := p.parseNameSegment(mode)
		if err != nil {
			return nil, err
		}
		segments = append(segments, seg)
		if _, isName := seg.(*ast.Name); !isName {
			if _, isTemplate := seg.(*ast.TemplateId); !isTemplate {
				break
			}
		}
		if p.tokenCache.check(TokenDoubleColon) && p.isSegmentStart(1) {
			p.tokenCache.advance() // consume '::'
			continue
		}
		break
	}

	if !global && len(segments) == 1 {
		return segments[0], nil
	}
	q := &ast.QualifiedName{FullyQualified: global, Segments: segments}
	p.finish(q, start)
	return q, nil
}

// parseNameSegment parses one component of a possibly qualified name.
func (p *Parser) parseNameSegment(mode nameMode) (ast.NameNode, error) {
	forceTemplate := p.tokenCache.match(TokenTemplate)
	tok := p.tokenCache.peek()

	switch tok.Type {
	case TokenOperator:
		return p.parseOperatorName()
	case TokenTilde:
		p.tokenCache.advance() // consume '~'
		id, err := p.expect(TokenIdentifier, "identifier")
		if err != nil {
			return nil, err
		}
		n := &ast.Name{Ident: "~" + id.Value}
		ast.SetRange(n, ast.Range{Offset: tok.Offset, Length: tok.Length}.Union(ast.Range{Offset: id.Offset, Length: id.Length}))
		if id.Expansion != nil {
			ast.SetImage(n, id.Image)
		}
		return n, nil
	case TokenIdentifier:
	default:
		return nil, p.errorf("expected name but found '%s'", tok.Value)
	}

	start := p.tokenCache.getCurrentPosition()
	p.tokenCache.advance()
	name := p.leafName(tok, tok.Value)
	if !p.tokenCache.check(TokenLess) {
		return name, nil
	}

	switch {
	case forceTemplate || mode == nameType || p.isTemplateName(tok.Value):
		if tid, ok := p.tryTemplateId(start, name, false); ok {
			return tid, nil
		}
	case !p.isValueName(name) && p.templateTrials < 2:
		if tid, ok := p.tryTemplateId(start, name, true); ok {
			return tid, nil
		}
	}
	return name, nil
}

// tryTemplateId parses the template argument list following name. With
// strict set the list is only accepted when the token after it can only
// follow a template-id.
func (p *Parser) tryTemplateId(start int, name *ast.Name, strict bool) (*ast.TemplateId, bool) {
	var tid *ast.TemplateId
	p.templateTrials++
	ok := p.speculate(func() error {
		args, err := p.parseTemplateArgs()
		if err != nil {
			return err
		}
		if strict {
			switch p.tokenCache.peek().Type {
			case TokenLeftParen, TokenDoubleColon, TokenLeftBrace:
			default:
				return p.errorf("not a template argument list")
			}
		}
		tid = &ast.TemplateId{Template: name, Args: args}
		p.finish(tid, start)
		return nil
	})
	p.templateTrials--
	return tid, ok
}

// closeAngle consumes the '>' closing a template argument or parameter
// list, splitting '>>' when needed.
func (p *Parser) closeAngle() bool {
	if p.tokenCache.check(TokenRightShift) {
		p.tokenCache.splitShift()
	}
	return p.tokenCache.match(TokenGreater)
}

// parseTemplateArgs parses '<' args '>'.
func (p *Parser) parseTemplateArgs() ([]ast.Node, error) {
	err := p.enter()
	defer p.leave()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TokenLess, "<"); err != nil {
		return nil, err
	}

	saved := p.noGreater
	defer func() { p.noGreater = saved }()

	args := []ast.Node{}
	if p.closeAngle() {
		return args, nil
	}
	for {
		p.noGreater = true
		arg, err := p.parseTemplateArgument()
		if err != nil {
			return nil, err
		}
		p.tokenCache.match(TokenEllipsis)
		args = append(args, arg)
		if p.tokenCache.match(TokenComma) {
			continue
		}
		if p.closeAngle() {
			return args, nil
		}
		return nil, p.errorf("expected '>' but found '%s'", p.tokenCache.peek().Value)
	}
}

func (p *Parser) atTemplateArgEnd() bool {
	switch p.tokenCache.peek().Type {
	case TokenComma, TokenGreater, TokenRightShift, TokenEllipsis:
		return true
	}
	return false
}

// parseTemplateArgument parses a type-id or an expression. A lone name
// that could be either and is not known as a type or a value yields an
// ambiguous argument holding both readings.
func (p *Parser) parseTemplateArgument() (ast.Node, error) {
	start := p.mark()

	var typeArg *ast.TypeId
	typeEnd := -1
	if p.speculate(func() error {
		t, err := p.parseTypeId()
		if err != nil {
			return err
		}
		if !p.atTemplateArgEnd() {
			return p.errorf("not a type")
		}
		typeArg = t
		return nil
	}) {
		name := bareTypeName(typeArg)
		if name == nil || p.isTypeName(name) {
			return typeArg, nil
		}
		typeEnd = p.tokenCache.getCurrentPosition()
		p.reset(start)
	}

	var exprArg ast.Expression
	exprOK := p.speculate(func() error {
		e, err := p.parseConditionalExpression()
		if err != nil {
			return err
		}
		if !p.atTemplateArgEnd() {
			return p.errorf("expected ',' or '>' but found '%s'", p.tokenCache.peek().Value)
		}
		exprArg = e
		return nil
	})

	switch {
	case exprOK && typeArg != nil && p.tokenCache.getCurrentPosition() == typeEnd:
		if p.isValueName(bareTypeName(typeArg)) {
			return exprArg, nil
		}
		amb := &ast.AmbiguousTemplateArgument{Alternatives: []ast.Node{typeArg, exprArg}}
		ast.SetRange(amb, typeArg.Range().Union(exprArg.Range()))
		return amb, nil
	case exprOK:
		return exprArg, nil
	case typeArg != nil:
		p.reset(start)
		return p.parseTypeId()
	}
	return nil, p.errorf("expected template argument but found '%s'", p.tokenCache.peek().Value)
}

// bareTypeName returns the name of a type-id that is nothing but a name,
// or nil.
func bareTypeName(t *ast.TypeId) ast.NameNode {
	if t == nil {
		return nil
	}
	named, ok := t.Spec.(*ast.NamedTypeSpec)
	if !ok || named.Typename || named.Spec != (ast.SpecFlags{}) {
		return nil
	}
	if d := t.Declarator; d != nil {
		if len(d.PtrOps) > 0 || len(d.Arrays) > 0 || d.IsFunction || d.Nested != nil || d.Pack {
			return nil
		}
	}
	return named.Name
}

var overloadableOperators = map[TokenType]bool{
	TokenPlus: true, TokenMinus: true, TokenStar: true, TokenSlash: true, TokenPercent: true,
	TokenCaret: true, TokenAmpersand: true, TokenPipe: true, TokenTilde: true, TokenExclamation: true,
	TokenEquals: true, TokenLess: true, TokenGreater: true, TokenPlusEquals: true, TokenMinusEquals: true,
	TokenStarEquals: true, TokenSlashEquals: true, TokenPercentEquals: true, TokenCaretEquals: true,
	TokenAmpEquals: true, TokenPipeEquals: true, TokenLeftShift: true, TokenRightShift: true,
	TokenLeftShiftEquals: true, TokenRightShiftEquals: true, TokenDoubleEquals: true, TokenNotEquals: true,
	TokenLessEqual: true, TokenGreaterEqual: true, TokenDoubleAmp: true, TokenDoublePipe: true,
	TokenPlusPlus: true, TokenMinusMinus: true, TokenComma: true, TokenArrowStar: true, TokenArrow: true,
}

// parseOperatorName parses operator-function-ids and conversion-function-ids.
func (p *Parser) parseOperatorName() (ast.NameNode, error) {
	start := p.tokenCache.getCurrentPosition()
	opTok := p.tokenCache.advance() // consume 'operator'
	tok := p.tokenCache.peek()

	var op string
	switch {
	case tok.Type == TokenLeftParen:
		p.tokenCache.advance()
		if _, err := p.expect(TokenRightParen, ")"); err != nil {
			return nil, err
		}
		op = "()"
	case tok.Type == TokenLeftBracket:
		p.tokenCache.advance()
		if _, err := p.expect(TokenRightBracket, "]"); err != nil {
			return nil, err
		}
		op = "[]"
	case tok.Type == TokenNew || tok.Type == TokenDelete:
		p.tokenCache.advance()
		op = tok.Value
		if p.tokenCache.check(TokenLeftBracket) && p.tokenCache.checkAhead(1, TokenRightBracket) {
			p.tokenCache.advance()
			p.tokenCache.advance()
			op += "[]"
		}
	case overloadableOperators[tok.Type]:
		p.tokenCache.advance()
		op = tok.Value
	default:
		t, err := p.parseConversionTypeId()
		if err != nil {
			return nil, err
		}
		c := &ast.ConversionName{Type: t}
		p.finish(c, start)
		return c, nil
	}

	n := &ast.OperatorName{Op: op}
	p.finish(n, start)
	if opTok.Expansion != nil {
		ast.SetImage(n, opTok.Image)
	}
	return n, nil
}

// parseConversionTypeId parses the type of a conversion function, which
// takes pointer operators but no other declarator parts.
func (p *Parser) parseConversionTypeId() (*ast.TypeId, error) {
	start := p.tokenCache.getCurrentPosition()
	spec, err := p.parseDeclSpecifiers(specOptions{typeOnly: true})
	if err != nil {
		return nil, err
	}
	dStart := p.tokenCache.getCurrentPosition()
	d := &ast.Declarator{}
	for p.isPtrOperatorStart() {
		op, err := p.parsePtrOperator()
		if err != nil {
			return nil, err
		}
		d.PtrOps = append(d.PtrOps, op)
	}
	p.finishDeclarator(d, dStart)
	t := &ast.TypeId{Spec: spec, Declarator: d}
	p.finish(t, start)
	return t, nil
}
