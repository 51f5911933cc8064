package parser

import (
	"cppsema/pkg/ast"
)

// declaratorMode says whether a declarator must, may or must not declare a
// name.
type declaratorMode int

const (
	declNamed declaratorMode = iota
	declAbstract
	declEither
)

// isPtrOperatorStart reports whether the current token starts a pointer
// operator: *, &, && or a pointer to member C::*.
func (p *Parser) isPtrOperatorStart() bool {
	switch p.tokenCache.peek().Type {
	case TokenStar, TokenAmpersand, TokenDoubleAmp:
		return true
	case TokenIdentifier, TokenDoubleColon:
		return p.isMemberPointerAhead(0)
	}
	return false
}

// isMemberPointerAhead scans [::] id [<...>] { :: id [<...>] } :: * from the
// token at offset.
func (p *Parser) isMemberPointerAhead(offset int) bool {
	i := offset
	if p.tokenCache.checkAhead(i, TokenDoubleColon) {
		i++
	}
	for {
		if !p.tokenCache.checkAhead(i, TokenIdentifier) {
			return false
		}
		i++
		if p.tokenCache.checkAhead(i, TokenLess) {
			next, ok := p.skipAnglesAhead(i)
			if !ok {
				return false
			}
			i = next
		}
		if !p.tokenCache.checkAhead(i, TokenDoubleColon) {
			return false
		}
		i++
		if p.tokenCache.checkAhead(i, TokenStar) {
			return true
		}
	}
}

// skipAnglesAhead skips a balanced <...> group starting at offset and
// returns the offset after it. The scan gives up at ';', '{' or the end of
// input.
func (p *Parser) skipAnglesAhead(offset int) (int, bool) {
	i, depth := offset, 0
	for {
		t := p.tokenCache.peekAhead(i).Type
		i++
		switch t {
		case TokenEOF, TokenSemicolon, TokenLeftBrace, TokenRightBrace:
			return 0, false
		case TokenLess:
			depth++
		case TokenGreater:
			depth--
		case TokenRightShift:
			depth -= 2
		}
		if depth <= 0 {
			return i, true
		}
	}
}

// parsePtrOperator parses one pointer operator with its cv-qualifiers.
func (p *Parser) parsePtrOperator() (*ast.PointerOp, error) {
	start := p.tokenCache.getCurrentPosition()
	op := &ast.PointerOp{}
	switch p.tokenCache.peek().Type {
	case TokenStar:
		p.tokenCache.advance()
		op.Op = ast.OpPointer
	case TokenAmpersand:
		p.tokenCache.advance()
		op.Op = ast.OpLValueRef
	case TokenDoubleAmp:
		p.tokenCache.advance()
		op.Op = ast.OpRValueRef
	default:
		class, err := p.parseName(nameType)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokenDoubleColon, "::"); err != nil {
			return nil, err
		}
		if _, err := p.expect(TokenStar, "*"); err != nil {
			return nil, err
		}
		op.Op = ast.OpMemberPointer
		op.Class = class
	}

	for {
		p.skipAttributes()
		tok := p.tokenCache.peek()
		switch {
		case tok.Type == TokenConst:
			op.Const = true
		case tok.Type == TokenVolatile:
			op.Volatile = true
		case tok.Type == TokenIdentifier && (tok.Value == "__restrict" || tok.Value == "__restrict__" || tok.Value == "restrict"):
		default:
			p.finish(op, start)
			return op, nil
		}
		p.tokenCache.advance()
	}
}

// isNestedDeclaratorStart decides whether a '(' at the current position
// opens a nested declarator such as (*fp) rather than a parameter list.
func (p *Parser) isNestedDeclaratorStart(mode declaratorMode) bool {
	switch p.tokenCache.peekAhead(1).Type {
	case TokenStar, TokenAmpersand, TokenDoubleAmp:
		return true
	case TokenIdentifier, TokenDoubleColon:
		if p.isMemberPointerAhead(1) {
			return true
		}
		if mode == declAbstract {
			return false
		}
		next := p.tokenCache.peekAhead(1)
		if next.Type == TokenIdentifier && p.tokenCache.checkAhead(2, TokenRightParen) {
			// In a parameter, "(T)" with a known type T is an abstract
			// function declarator.
			return mode == declNamed || p.lookupSymbol(next.Value) != symType
		}
	}
	return false
}

// parseDeclarator parses pointer operators, the declarator-id or a nested
// declarator, then array and function suffixes.
func (p *Parser) parseDeclarator(mode declaratorMode) (*ast.Declarator, error) {
	err := p.enter()
	defer p.leave()
	if err != nil {
		return nil, err
	}

	start := p.tokenCache.getCurrentPosition()
	d := &ast.Declarator{}
	for p.isPtrOperatorStart() {
		op, err := p.parsePtrOperator()
		if err != nil {
			return nil, err
		}
		d.PtrOps = append(d.PtrOps, op)
	}
	p.skipAttributes()

	switch {
	case p.tokenCache.check(TokenEllipsis) && (mode == declAbstract || !p.isNameStart(1)):
		p.tokenCache.advance()
		d.Pack = true
	case p.tokenCache.check(TokenEllipsis) && mode != declAbstract:
		p.tokenCache.advance()
		d.Pack = true
		name, err := p.parseName(nameType)
		if err != nil {
			return nil, err
		}
		d.Name = name
	case p.tokenCache.check(TokenLeftParen) && p.isNestedDeclaratorStart(mode):
		p.tokenCache.advance() // consume '('
		nested, err := p.parseDeclarator(mode)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokenRightParen, ")"); err != nil {
			return nil, err
		}
		d.Nested = nested
	case mode != declAbstract && p.isNameStart(0):
		name, err := p.parseName(nameType)
		if err != nil {
			return nil, err
		}
		d.Name = name
	}

	if mode == declNamed && d.Name == nil && d.Nested == nil {
		return nil, p.errorf("expected declarator but found '%s'", p.tokenCache.peek().Value)
	}

	if err := p.parseDeclaratorSuffixes(d, mode); err != nil {
		return nil, err
	}
	p.finishDeclarator(d, start)
	return d, nil
}

// parseDeclaratorSuffixes parses [size] and (params) suffixes. After a
// declarator-id, a '(' whose contents do not form a parameter list is left
// for the initializer, as in "T x(a, b);".
func (p *Parser) parseDeclaratorSuffixes(d *ast.Declarator, mode declaratorMode) error {
	for {
		switch {
		case p.tokenCache.check(TokenLeftBracket) && !p.tokenCache.checkAhead(1, TokenLeftBracket):
			arr, err := p.parseArrayModifier()
			if err != nil {
				return err
			}
			d.Arrays = append(d.Arrays, arr)
		case p.tokenCache.check(TokenLeftParen) && !d.IsFunction && len(d.Arrays) == 0:
			if d.Name != nil {
				if !p.speculate(func() error { return p.parseFunctionSuffix(d) }) {
					return nil
				}
				continue
			}
			if err := p.parseFunctionSuffix(d); err != nil {
				return err
			}
		default:
			return nil
		}
	}
}

// parseArrayModifier parses [size].
func (p *Parser) parseArrayModifier() (*ast.ArrayModifier, error) {
	start := p.tokenCache.getCurrentPosition()
	p.tokenCache.advance() // consume '['
	arr := &ast.ArrayModifier{}
	if !p.tokenCache.check(TokenRightBracket) {
		saved := p.noGreater
		p.noGreater = false
		size, err := p.parseExpression()
		p.noGreater = saved
		if err != nil {
			return nil, err
		}
		arr.Size = size
	}
	if _, err := p.expect(TokenRightBracket, "]"); err != nil {
		return nil, err
	}
	p.finish(arr, start)
	return arr, nil
}

// parseFunctionSuffix parses (params) followed by cv- and ref-qualifiers,
// exception specifications, virt-specifiers and a trailing return type.
func (p *Parser) parseFunctionSuffix(d *ast.Declarator) error {
	if _, err := p.expect(TokenLeftParen, "("); err != nil {
		return err
	}
	saved := p.noGreater
	p.noGreater = false
	params, varargs, err := p.parseParameterClause()
	p.noGreater = saved
	if err != nil {
		return err
	}
	if _, err := p.expect(TokenRightParen, ")"); err != nil {
		return err
	}
	d.IsFunction = true
	d.Params = params
	d.Varargs = varargs

	for {
		p.skipAttributes()
		tok := p.tokenCache.peek()
		switch {
		case tok.Type == TokenConst:
			p.tokenCache.advance()
			d.Const = true
		case tok.Type == TokenVolatile:
			p.tokenCache.advance()
			d.Volatile = true
		case tok.Type == TokenAmpersand:
			p.tokenCache.advance()
			d.RefQual = ast.RefLValue
		case tok.Type == TokenDoubleAmp:
			p.tokenCache.advance()
			d.RefQual = ast.RefRValue
		case tok.Type == TokenNoexcept:
			p.tokenCache.advance()
			d.Noexcept = true
			if p.tokenCache.check(TokenLeftParen) {
				if p.tokenCache.checkAhead(1, TokenFalse) && p.tokenCache.checkAhead(2, TokenRightParen) {
					d.Noexcept = false
				}
				if err := p.skipBalanced(); err != nil {
					return err
				}
			}
		case tok.Type == TokenThrow:
			p.tokenCache.advance()
			if err := p.skipBalanced(); err != nil {
				return err
			}
		case tok.Type == TokenIdentifier && tok.Value == "override":
			p.tokenCache.advance()
			d.Override = true
		case tok.Type == TokenIdentifier && tok.Value == "final":
			p.tokenCache.advance()
			d.Final = true
		case tok.Type == TokenArrow && d.Trailing == nil:
			p.tokenCache.advance()
			t, err := p.parseTypeId()
			if err != nil {
				return err
			}
			d.Trailing = t
		default:
			return nil
		}
	}
}

// parseParameterClause parses the parameters between the parentheses of a
// function declarator. A lone (void) yields no parameters.
func (p *Parser) parseParameterClause() ([]*ast.ParameterDeclaration, bool, error) {
	var params []*ast.ParameterDeclaration
	varargs := false
	if p.tokenCache.check(TokenRightParen) {
		return nil, false, nil
	}
	for {
		if p.tokenCache.match(TokenEllipsis) {
			varargs = true
			break
		}
		param, err := p.parseParameterDeclaration()
		if err != nil {
			return nil, false, err
		}
		params = append(params, param)
		if p.tokenCache.match(TokenEllipsis) {
			varargs = true
			break
		}
		if !p.tokenCache.match(TokenComma) {
			break
		}
	}
	if len(params) == 1 && isVoidParameter(params[0]) {
		params = nil
	}
	return params, varargs, nil
}

func isVoidParameter(param *ast.ParameterDeclaration) bool {
	spec, ok := param.Spec.(*ast.SimpleDeclSpec)
	if !ok || spec.Type != ast.TypeVoid || spec.Spec.Const || spec.Spec.Volatile {
		return false
	}
	d := param.Declarator
	return d == nil || (len(d.PtrOps) == 0 && d.Name == nil && d.Nested == nil && len(d.Arrays) == 0 && !d.IsFunction)
}

// parseParameterDeclaration parses a function or non-type template
// parameter with its default argument. A known variable or a literal where
// the type should be makes the parameter list fail, which lets "T x(a);"
// fall back to a constructor initializer.
func (p *Parser) parseParameterDeclaration() (*ast.ParameterDeclaration, error) {
	start := p.tokenCache.getCurrentPosition()
	spec, err := p.parseDeclSpecifiers(specOptions{rejectValues: true})
	if err != nil {
		return nil, err
	}
	dStart := p.tokenCache.getCurrentPosition()
	d, err := p.parseDeclarator(declEither)
	if err != nil {
		return nil, err
	}
	if p.tokenCache.check(TokenEquals) {
		initStart := p.tokenCache.getCurrentPosition()
		p.tokenCache.advance() // consume '='
		value, err := p.parseInitializerClause()
		if err != nil {
			return nil, err
		}
		init := &ast.EqualsInitializer{Value: value}
		p.finish(init, initStart)
		d.Init = init
		p.finishDeclarator(d, dStart)
	}
	param := &ast.ParameterDeclaration{Spec: spec, Declarator: d}
	p.finish(param, start)
	return param, nil
}

// finishDeclarator sets the declarator's range. An empty abstract
// declarator gets a zero-length range after the previous token.
func (p *Parser) finishDeclarator(d *ast.Declarator, start int) {
	if p.tokenCache.getCurrentPosition() == start {
		ast.SetRange(d, ast.Range{Offset: p.tokenCache.previous().End()})
		return
	}
	p.finish(d, start)
}

// parseInitializer parses "= value", "(args)" or "{list}" after a
// declarator. "= 0" on a function declarator marks a pure virtual function.
func (p *Parser) parseInitializer(d *ast.Declarator) error {
	start := p.tokenCache.getCurrentPosition()
	switch p.tokenCache.peek().Type {
	case TokenEquals:
		p.tokenCache.advance() // consume '='
		next := p.tokenCache.peek()
		if d.FunctionDeclarator() != nil && next.Type == TokenNumber && next.Value == "0" {
			p.tokenCache.advance()
			d.Pure = true
			return nil
		}
		value, err := p.parseInitializerClause()
		if err != nil {
			return err
		}
		init := &ast.EqualsInitializer{Value: value}
		p.finish(init, start)
		d.Init = init
	case TokenLeftParen:
		p.tokenCache.advance() // consume '('
		args, err := p.parseExpressionList(TokenRightParen)
		if err != nil {
			return err
		}
		if _, err := p.expect(TokenRightParen, ")"); err != nil {
			return err
		}
		init := &ast.ConstructorInitializer{Args: args}
		p.finish(init, start)
		d.Init = init
	case TokenLeftBrace:
		list, err := p.parseInitializerList()
		if err != nil {
			return err
		}
		d.Init = list
	}
	return nil
}

// parseInitializerClause parses an assignment expression or a braced list.
func (p *Parser) parseInitializerClause() (ast.Node, error) {
	if p.tokenCache.check(TokenLeftBrace) {
		return p.parseInitializerList()
	}
	return p.parseAssignmentExpression()
}

// parseInitializerList parses { a, b, } including C designators, which are
// skipped.
func (p *Parser) parseInitializerList() (*ast.InitializerList, error) {
	err := p.enter()
	defer p.leave()
	if err != nil {
		return nil, err
	}
	start := p.tokenCache.getCurrentPosition()
	if _, err := p.expect(TokenLeftBrace, "{"); err != nil {
		return nil, err
	}
	saved := p.noGreater
	p.noGreater = false
	defer func() { p.noGreater = saved }()

	list := &ast.InitializerList{}
	for !p.tokenCache.check(TokenRightBrace) {
		if p.tokenCache.check(TokenDot) && p.tokenCache.checkAhead(1, TokenIdentifier) && p.tokenCache.checkAhead(2, TokenEquals) {
			p.tokenCache.advance()
			p.tokenCache.advance()
			p.tokenCache.advance()
		}
		elem, err := p.parseInitializerClause()
		if err != nil {
			return nil, err
		}
		p.tokenCache.match(TokenEllipsis)
		list.Elements = append(list.Elements, elem)
		if !p.tokenCache.match(TokenComma) {
			break
		}
	}
	if _, err := p.expect(TokenRightBrace, "}"); err != nil {
		return nil, err
	}
	p.finish(list, start)
	return list, nil
}

// parseExpressionList parses initializer clauses separated by commas up to
// the closing token, which is not consumed.
func (p *Parser) parseExpressionList(closing TokenType) ([]ast.Node, error) {
	saved := p.noGreater
	p.noGreater = false
	defer func() { p.noGreater = saved }()

	var args []ast.Node
	if p.tokenCache.check(closing) {
		return args, nil
	}
	for {
		arg, err := p.parseInitializerClause()
		if err != nil {
			return nil, err
		}
		p.tokenCache.match(TokenEllipsis)
		args = append(args, arg)
		if !p.tokenCache.match(TokenComma) {
			return args, nil
		}
	}
}

// parseTypeId parses a type with an abstract declarator.
func (p *Parser) parseTypeId() (*ast.TypeId, error) {
	start := p.tokenCache.getCurrentPosition()
	spec, err := p.parseDeclSpecifiers(specOptions{typeOnly: true, rejectValues: true})
	if err != nil {
		return nil, err
	}
	d, err := p.parseDeclarator(declAbstract)
	if err != nil {
		return nil, err
	}
	t := &ast.TypeId{Spec: spec, Declarator: d}
	p.finish(t, start)
	return t, nil
}
