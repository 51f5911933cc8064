package parser

import (
	"strings"

	"cppsema/pkg/ast"
)

type binaryOpInfo struct {
	op   ast.BinaryOp
	prec int
}

var binaryOps = map[TokenType]binaryOpInfo{
	TokenDoublePipe:   {ast.BinaryLogOr, 1},
	TokenDoubleAmp:    {ast.BinaryLogAnd, 2},
	TokenPipe:         {ast.BinaryBitOr, 3},
	TokenCaret:        {ast.BinaryBitXor, 4},
	TokenAmpersand:    {ast.BinaryBitAnd, 5},
	TokenDoubleEquals: {ast.BinaryEq, 6},
	TokenNotEquals:    {ast.BinaryNe, 6},
	TokenLess:         {ast.BinaryLt, 7},
	TokenGreater:      {ast.BinaryGt, 7},
	TokenLessEqual:    {ast.BinaryLe, 7},
	TokenGreaterEqual: {ast.BinaryGe, 7},
	TokenLeftShift:    {ast.BinaryShl, 8},
	TokenRightShift:   {ast.BinaryShr, 8},
	TokenPlus:         {ast.BinaryAdd, 9},
	TokenMinus:        {ast.BinarySub, 9},
	TokenStar:         {ast.BinaryMul, 10},
	TokenSlash:        {ast.BinaryDiv, 10},
	TokenPercent:      {ast.BinaryMod, 10},
	TokenDotStar:      {ast.BinaryPtrMemDot, 11},
	TokenArrowStar:    {ast.BinaryPtrMemArrow, 11},
}

var assignmentOps = map[TokenType]ast.BinaryOp{
	TokenEquals:           ast.BinaryAssign,
	TokenStarEquals:       ast.BinaryMulAssign,
	TokenSlashEquals:      ast.BinaryDivAssign,
	TokenPercentEquals:    ast.BinaryModAssign,
	TokenPlusEquals:       ast.BinaryAddAssign,
	TokenMinusEquals:      ast.BinarySubAssign,
	TokenLeftShiftEquals:  ast.BinaryShlAssign,
	TokenRightShiftEquals: ast.BinaryShrAssign,
	TokenAmpEquals:        ast.BinaryAndAssign,
	TokenCaretEquals:      ast.BinaryXorAssign,
	TokenPipeEquals:       ast.BinaryOrAssign,
}

var prefixOps = map[TokenType]ast.UnaryOp{
	TokenPlus:        ast.UnaryPlus,
	TokenMinus:       ast.UnaryMinus,
	TokenExclamation: ast.UnaryNot,
	TokenTilde:       ast.UnaryBitNot,
	TokenStar:        ast.UnaryDeref,
	TokenAmpersand:   ast.UnaryAddressOf,
	TokenPlusPlus:    ast.UnaryPreIncr,
	TokenMinusMinus:  ast.UnaryPreDecr,
}

var namedCasts = map[TokenType]ast.CastKind{
	TokenStaticCast:      ast.CastStatic,
	TokenDynamicCast:     ast.CastDynamic,
	TokenConstCast:       ast.CastConst,
	TokenReinterpretCast: ast.CastReinterpret,
}

// parseExpression parses a comma expression. Commas nest to the left.
func (p *Parser) parseExpression() (ast.Expression, error) {
	start := p.tokenCache.getCurrentPosition()
	expr, err := p.parseAssignmentExpression()
	if err != nil {
		return nil, err
	}
	for p.tokenCache.check(TokenComma) {
		comma := p.tokenCache.advance()
		rhs, err := p.parseAssignmentExpression()
		if err != nil {
			return nil, err
		}
		b := &ast.BinaryExpression{Op: ast.BinaryComma, Left: expr, Right: rhs, OpOffset: comma.Offset}
		p.finish(b, start)
		expr = b
	}
	return expr, nil
}

// parseAssignmentExpression parses assignments, which are right
// associative, and throw expressions.
func (p *Parser) parseAssignmentExpression() (ast.Expression, error) {
	err := p.enter()
	defer p.leave()
	if err != nil {
		return nil, err
	}

	start := p.tokenCache.getCurrentPosition()
	if p.tokenCache.check(TokenThrow) {
		tok := p.tokenCache.advance()
		u := &ast.UnaryExpression{Op: ast.UnaryThrow, OpOffset: tok.Offset}
		if p.isExpressionStart() {
			operand, err := p.parseAssignmentExpression()
			if err != nil {
				return nil, err
			}
			u.Operand = operand
		}
		p.finish(u, start)
		return u, nil
	}

	lhs, err := p.parseConditionalExpression()
	if err != nil {
		return nil, err
	}
	op, ok := assignmentOps[p.tokenCache.peek().Type]
	if !ok {
		return lhs, nil
	}
	opTok := p.tokenCache.advance()
	rhs, err := p.parseInitializerClause()
	if err != nil {
		return nil, err
	}
	b := &ast.BinaryExpression{Op: op, Left: lhs, Right: rhs, OpOffset: opTok.Offset}
	p.finish(b, start)
	return b, nil
}

// parseConditionalExpression parses cond ? then : else.
func (p *Parser) parseConditionalExpression() (ast.Expression, error) {
	start := p.tokenCache.getCurrentPosition()
	cond, err := p.parseBinaryExpression(1)
	if err != nil {
		return nil, err
	}
	if !p.tokenCache.match(TokenQuestion) {
		return cond, nil
	}

	saved := p.noGreater
	p.noGreater = false
	then, err := p.parseExpression()
	p.noGreater = saved
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TokenColon, ":"); err != nil {
		return nil, err
	}
	els, err := p.parseAssignmentExpression()
	if err != nil {
		return nil, err
	}
	c := &ast.ConditionalExpression{Cond: cond, Then: then, Else: els}
	p.finish(c, start)
	return c, nil
}

// parseBinaryExpression climbs the precedence table. Inside a template
// argument list '>' and '>>' end the expression.
func (p *Parser) parseBinaryExpression(minPrec int) (ast.Expression, error) {
	start := p.tokenCache.getCurrentPosition()
	lhs, err := p.parseCastExpression()
	if err != nil {
		return nil, err
	}
	for {
		tok := p.tokenCache.peek()
		info, ok := binaryOps[tok.Type]
		if !ok || info.prec < minPrec {
			return lhs, nil
		}
		if p.noGreater && (tok.Type == TokenGreater || tok.Type == TokenRightShift) {
			return lhs, nil
		}
		p.tokenCache.advance()
		rhs, err := p.parseBinaryExpression(info.prec + 1)
		if err != nil {
			return nil, err
		}
		b := &ast.BinaryExpression{Op: info.op, Left: lhs, Right: rhs, OpOffset: tok.Offset}
		p.finish(b, start)
		lhs = b
	}
}

// parseCastExpression parses (T)operand when the parenthesized tokens name
// a type, otherwise a unary expression.
func (p *Parser) parseCastExpression() (ast.Expression, error) {
	if !p.tokenCache.check(TokenLeftParen) || !p.isTypeStart(1) {
		return p.parseUnaryExpression()
	}

	start := p.tokenCache.getCurrentPosition()
	var cast *ast.CastExpression
	if p.speculate(func() error {
		p.tokenCache.advance() // consume '('
		saved := p.noGreater
		p.noGreater = false
		t, err := p.parseTypeId()
		p.noGreater = saved
		if err != nil {
			return err
		}
		if _, err := p.expect(TokenRightParen, ")"); err != nil {
			return err
		}
		if !p.isExpressionStart() {
			return p.errorf("expected cast operand")
		}
		var operand ast.Expression
		if p.tokenCache.check(TokenLeftBrace) {
			// C compound literal
			operand, err = p.parseInitializerList()
		} else {
			operand, err = p.parseCastExpression()
		}
		if err != nil {
			return err
		}
		cast = &ast.CastExpression{Cast: ast.CastCStyle, Type: t, Operand: operand}
		p.finish(cast, start)
		return nil
	}) {
		return cast, nil
	}
	return p.parseUnaryExpression()
}

// isTypeStart reports whether the token at offset starts a type: a type
// keyword or a name known to denote a type.
func (p *Parser) isTypeStart(offset int) bool {
	tok := p.tokenCache.peekAhead(offset)
	switch tok.Type {
	case TokenConst, TokenVolatile, TokenClass, TokenStruct, TokenUnion, TokenEnum, TokenTypename, TokenDecltype:
		return true
	case TokenIdentifier, TokenDoubleColon:
		return p.isKnownTypeAhead(offset)
	}
	return basicTypes[tok.Type] != ast.TypeUnspecified || isTypeModifier(tok.Type)
}

// isKnownTypeAhead scans a possibly qualified name at offset and reports
// whether its last identifier is a known type.
func (p *Parser) isKnownTypeAhead(offset int) bool {
	i := offset
	if p.tokenCache.checkAhead(i, TokenDoubleColon) {
		i++
	}
	qualified := i > offset
	for {
		tok := p.tokenCache.peekAhead(i)
		if tok.Type != TokenIdentifier {
			return false
		}
		i++
		if p.tokenCache.checkAhead(i, TokenLess) && p.isTemplateName(tok.Value) {
			next, ok := p.skipAnglesAhead(i)
			if !ok {
				return false
			}
			i = next
		}
		if p.tokenCache.checkAhead(i, TokenDoubleColon) && p.tokenCache.checkAhead(i+1, TokenIdentifier) {
			i++
			qualified = true
			continue
		}
		if qualified {
			return p.symbols.types[tok.Value]
		}
		k := p.lookupSymbol(tok.Value)
		return k == symType || k == symTemplate
	}
}

// isExpressionStart reports whether the current token can start an
// operand.
func (p *Parser) isExpressionStart() bool {
	tok := p.tokenCache.peek()
	switch tok.Type {
	case TokenIdentifier, TokenNumber, TokenString, TokenCharLiteral, TokenTrue, TokenFalse, TokenNullptr,
		TokenThis, TokenLeftParen, TokenDoubleColon, TokenTilde, TokenExclamation, TokenPlus, TokenMinus,
		TokenStar, TokenAmpersand, TokenPlusPlus, TokenMinusMinus, TokenSizeof, TokenAlignof, TokenNew,
		TokenDelete, TokenThrow, TokenTypeid, TokenOperator, TokenLeftBrace, TokenTypename, TokenDecltype,
		TokenStaticCast, TokenDynamicCast, TokenConstCast, TokenReinterpretCast:
		return true
	}
	return basicTypes[tok.Type] != ast.TypeUnspecified || isTypeModifier(tok.Type)
}

// parseUnaryExpression parses prefix operators, sizeof, alignof, new and
// delete.
func (p *Parser) parseUnaryExpression() (ast.Expression, error) {
	err := p.enter()
	defer p.leave()
	if err != nil {
		return nil, err
	}

	start := p.tokenCache.getCurrentPosition()
	tok := p.tokenCache.peek()

	if op, ok := prefixOps[tok.Type]; ok {
		p.tokenCache.advance()
		operand, err := p.parseCastExpression()
		if err != nil {
			return nil, err
		}
		u := &ast.UnaryExpression{Op: op, Operand: operand, OpOffset: tok.Offset}
		p.finish(u, start)
		return u, nil
	}

	switch tok.Type {
	case TokenSizeof, TokenAlignof:
		return p.parseSizeof()
	case TokenNew:
		return p.parseNewExpression(start, false)
	case TokenDelete:
		return p.parseDeleteExpression(start, false)
	case TokenDoubleColon:
		if p.tokenCache.checkAhead(1, TokenNew) {
			p.tokenCache.advance()
			return p.parseNewExpression(start, true)
		}
		if p.tokenCache.checkAhead(1, TokenDelete) {
			p.tokenCache.advance()
			return p.parseDeleteExpression(start, true)
		}
	}
	return p.parsePostfixExpression()
}

// parseSizeof parses sizeof and alignof applied to a type or an
// expression, and sizeof...(pack).
func (p *Parser) parseSizeof() (ast.Expression, error) {
	start := p.tokenCache.getCurrentPosition()
	tok := p.tokenCache.advance()
	unaryOp, typeOp := ast.UnarySizeof, ast.TypeIdSizeof
	if tok.Type == TokenAlignof {
		unaryOp, typeOp = ast.UnaryAlignof, ast.TypeIdAlignof
	}
	p.tokenCache.match(TokenEllipsis)

	if p.tokenCache.check(TokenLeftParen) {
		var t *ast.TypeId
		if p.speculate(func() error {
			p.tokenCache.advance() // consume '('
			saved := p.noGreater
			p.noGreater = false
			typeID, err := p.parseTypeId()
			p.noGreater = saved
			if err != nil {
				return err
			}
			if _, err := p.expect(TokenRightParen, ")"); err != nil {
				return err
			}
			// a lone unknown name reads better as a variable
			if name := bareTypeName(typeID); name != nil && !p.isTypeName(name) {
				return p.errorf("not a type")
			}
			t = typeID
			return nil
		}) {
			e := &ast.TypeIdExpression{Op: typeOp, Type: t}
			p.finish(e, start)
			return e, nil
		}
	}

	operand, err := p.parseUnaryExpression()
	if err != nil {
		return nil, err
	}
	u := &ast.UnaryExpression{Op: unaryOp, Operand: operand, OpOffset: tok.Offset}
	p.finish(u, start)
	return u, nil
}

// parseNewExpression parses new [(placement)] type [initializer]. start is
// the position of a leading '::'.
func (p *Parser) parseNewExpression(start int, global bool) (ast.Expression, error) {
	p.tokenCache.advance() // consume 'new'
	ne := &ast.NewExpression{Global: global}

	saved := p.noGreater
	p.noGreater = false
	defer func() { p.noGreater = saved }()

	if p.tokenCache.check(TokenLeftParen) {
		// new (T) is a parenthesized type unless a type follows, which
		// makes the parentheses a placement
		var t *ast.TypeId
		if p.speculate(func() error {
			p.tokenCache.advance() // consume '('
			typeID, err := p.parseTypeId()
			if err != nil {
				return err
			}
			if _, err := p.expect(TokenRightParen, ")"); err != nil {
				return err
			}
			if p.isNameStart(0) || p.isTypeStart(0) {
				return p.errorf("placement")
			}
			t = typeID
			return nil
		}) {
			ne.Type = t
		} else {
			p.tokenCache.advance() // consume '('
			args, err := p.parseExpressionList(TokenRightParen)
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(TokenRightParen, ")"); err != nil {
				return nil, err
			}
			for _, a := range args {
				if e, ok := a.(ast.Expression); ok {
					ne.Placement = append(ne.Placement, e)
				}
			}
		}
	}

	if ne.Type == nil {
		if p.tokenCache.match(TokenLeftParen) {
			t, err := p.parseTypeId()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(TokenRightParen, ")"); err != nil {
				return nil, err
			}
			ne.Type = t
		} else {
			t, err := p.parseNewTypeId()
			if err != nil {
				return nil, err
			}
			ne.Type = t
		}
	}

	switch p.tokenCache.peek().Type {
	case TokenLeftParen:
		initStart := p.tokenCache.getCurrentPosition()
		p.tokenCache.advance() // consume '('
		args, err := p.parseExpressionList(TokenRightParen)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokenRightParen, ")"); err != nil {
			return nil, err
		}
		init := &ast.ConstructorInitializer{Args: args}
		p.finish(init, initStart)
		ne.Init = init
	case TokenLeftBrace:
		list, err := p.parseInitializerList()
		if err != nil {
			return nil, err
		}
		ne.Init = list
	}
	p.finish(ne, start)
	return ne, nil
}

// parseNewTypeId parses the type of a new expression, whose declarator has
// pointer operators and array bounds but no function suffix.
func (p *Parser) parseNewTypeId() (*ast.TypeId, error) {
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
	for p.tokenCache.check(TokenLeftBracket) {
		arr, err := p.parseArrayModifier()
		if err != nil {
			return nil, err
		}
		d.Arrays = append(d.Arrays, arr)
	}
	p.finishDeclarator(d, dStart)
	t := &ast.TypeId{Spec: spec, Declarator: d}
	p.finish(t, start)
	return t, nil
}

// parseDeleteExpression parses delete and delete[].
func (p *Parser) parseDeleteExpression(start int, global bool) (ast.Expression, error) {
	p.tokenCache.advance() // consume 'delete'
	de := &ast.DeleteExpression{Global: global}
	if p.tokenCache.check(TokenLeftBracket) && p.tokenCache.checkAhead(1, TokenRightBracket) {
		p.tokenCache.advance()
		p.tokenCache.advance()
		de.Array = true
	}
	operand, err := p.parseCastExpression()
	if err != nil {
		return nil, err
	}
	de.Operand = operand
	p.finish(de, start)
	return de, nil
}

// parsePostfixExpression parses calls, subscripts, member accesses and
// postfix increments.
func (p *Parser) parsePostfixExpression() (ast.Expression, error) {
	start := p.tokenCache.getCurrentPosition()
	expr, err := p.parsePrimaryExpression()
	if err != nil {
		return nil, err
	}

	for {
		tok := p.tokenCache.peek()
		switch tok.Type {
		case TokenLeftParen:
			p.tokenCache.advance() // consume '('
			args, err := p.parseExpressionList(TokenRightParen)
			if err != nil {
				return nil, err
			}
			rparen, err := p.expect(TokenRightParen, ")")
			if err != nil {
				return nil, err
			}
			call := &ast.FunctionCallExpression{Callee: expr, Args: args, LParen: tok.Offset, RParen: rparen.Offset}
			p.finish(call, start)
			expr = call

		case TokenLeftBracket:
			p.tokenCache.advance() // consume '['
			saved := p.noGreater
			p.noGreater = false
			index, err := p.parseInitializerClause()
			if err == nil && p.tokenCache.check(TokenComma) {
				err = p.errorf("unexpected ',' in subscript")
			}
			p.noGreater = saved
			if err != nil {
				return nil, err
			}
			rbracket, err := p.expect(TokenRightBracket, "]")
			if err != nil {
				return nil, err
			}
			sub := &ast.ArraySubscriptExpression{Array: expr, Index: index, LBracket: tok.Offset, RBracket: rbracket.Offset}
			p.finish(sub, start)
			expr = sub

		case TokenDot, TokenArrow:
			p.tokenCache.advance() // consume '.' or '->'
			template := p.tokenCache.check(TokenTemplate)
			member, err := p.parseName(nameExpr)
			if err != nil {
				return nil, err
			}
			ref := &ast.FieldReference{Owner: expr, Arrow: tok.Type == TokenArrow, Template: template, Member: member}
			p.finish(ref, start)
			expr = ref

		case TokenPlusPlus, TokenMinusMinus:
			p.tokenCache.advance()
			op := ast.UnaryPostIncr
			if tok.Type == TokenMinusMinus {
				op = ast.UnaryPostDecr
			}
			u := &ast.UnaryExpression{Op: op, Operand: expr, OpOffset: tok.Offset}
			p.finish(u, start)
			expr = u

		default:
			return expr, nil
		}
	}
}

// parsePrimaryExpression parses literals, parenthesized expressions, names,
// named casts, typeid and explicit type conversions.
func (p *Parser) parsePrimaryExpression() (ast.Expression, error) {
	start := p.tokenCache.getCurrentPosition()
	tok := p.tokenCache.peek()

	switch tok.Type {
	case TokenNumber:
		p.tokenCache.advance()
		kind := ast.LitInteger
		if isFloatLiteral(tok.Value) {
			kind = ast.LitFloat
		}
		return p.literal(kind, tok.Value, start), nil
	case TokenCharLiteral:
		p.tokenCache.advance()
		return p.literal(ast.LitChar, tok.Value, start), nil
	case TokenString:
		// adjacent string literals are concatenated
		var parts []string
		for p.tokenCache.check(TokenString) {
			parts = append(parts, p.tokenCache.advance().Value)
		}
		return p.literal(ast.LitString, strings.Join(parts, " "), start), nil
	case TokenTrue:
		p.tokenCache.advance()
		return p.literal(ast.LitTrue, tok.Value, start), nil
	case TokenFalse:
		p.tokenCache.advance()
		return p.literal(ast.LitFalse, tok.Value, start), nil
	case TokenNullptr:
		p.tokenCache.advance()
		return p.literal(ast.LitNullptr, tok.Value, start), nil
	case TokenThis:
		p.tokenCache.advance()
		return p.literal(ast.LitThis, tok.Value, start), nil

	case TokenLeftParen:
		p.tokenCache.advance() // consume '('
		saved := p.noGreater
		p.noGreater = false
		inner, err := p.parseExpression()
		p.noGreater = saved
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokenRightParen, ")"); err != nil {
			return nil, err
		}
		u := &ast.UnaryExpression{Op: ast.UnaryParen, Operand: inner, OpOffset: tok.Offset}
		p.finish(u, start)
		return u, nil

	case TokenStaticCast, TokenDynamicCast, TokenConstCast, TokenReinterpretCast:
		return p.parseNamedCast()
	case TokenTypeid:
		return p.parseTypeid()

	case TokenTypename:
		return p.parseTypeConstruction()
	case TokenIdentifier, TokenDoubleColon, TokenOperator:
		name, err := p.parseName(nameExpr)
		if err != nil {
			return nil, err
		}
		if p.tokenCache.check(TokenLeftBrace) && !p.isValueName(name) {
			// T{...}
			p.tokenCache.setPosition(start)
			return p.parseTypeConstruction()
		}
		id := &ast.IdExpression{Name: name}
		p.finish(id, start)
		return id, nil
	}

	if basicTypes[tok.Type] != ast.TypeUnspecified || isTypeModifier(tok.Type) || tok.Type == TokenDecltype {
		return p.parseTypeConstruction()
	}
	return nil, p.errorf("expected expression but found '%s'", tok.Value)
}

func (p *Parser) literal(kind ast.LiteralKind, value string, start int) ast.Expression {
	lit := &ast.LiteralExpression{Lit: kind, Value: value}
	p.finish(lit, start)
	return lit
}

// isFloatLiteral reports whether a number token is a floating literal.
func isFloatLiteral(text string) bool {
	if i := strings.IndexByte(text, '_'); i >= 0 {
		text = text[:i]
	}
	if strings.HasPrefix(text, "0x") || strings.HasPrefix(text, "0X") {
		return strings.ContainsAny(text, ".pP")
	}
	return strings.ContainsAny(text, ".eE")
}

// parseTypeConstruction parses T(args) or T{args} where T is a simple type
// specifier.
func (p *Parser) parseTypeConstruction() (ast.Expression, error) {
	start := p.tokenCache.getCurrentPosition()
	spec, err := p.parseDeclSpecifiers(specOptions{typeOnly: true})
	if err != nil {
		return nil, err
	}
	tc := &ast.TypeConstruction{Spec: spec}

	switch p.tokenCache.peek().Type {
	case TokenLeftParen:
		initStart := p.tokenCache.getCurrentPosition()
		p.tokenCache.advance() // consume '('
		args, err := p.parseExpressionList(TokenRightParen)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokenRightParen, ")"); err != nil {
			return nil, err
		}
		init := &ast.ConstructorInitializer{Args: args}
		p.finish(init, initStart)
		tc.Init = init
	case TokenLeftBrace:
		list, err := p.parseInitializerList()
		if err != nil {
			return nil, err
		}
		tc.Init = list
	default:
		return nil, p.errorf("expected '(' or '{' after type name")
	}
	p.finish(tc, start)
	return tc, nil
}

// parseNamedCast parses static_cast<T>(e) and its siblings.
func (p *Parser) parseNamedCast() (ast.Expression, error) {
	start := p.tokenCache.getCurrentPosition()
	kind := namedCasts[p.tokenCache.advance().Type]
	if _, err := p.expect(TokenLess, "<"); err != nil {
		return nil, err
	}

	saved := p.noGreater
	p.noGreater = true
	t, err := p.parseTypeId()
	p.noGreater = saved
	if err != nil {
		return nil, err
	}
	if !p.closeAngle() {
		return nil, p.errorf("expected '>' but found '%s'", p.tokenCache.peek().Value)
	}

	if _, err := p.expect(TokenLeftParen, "("); err != nil {
		return nil, err
	}
	p.noGreater = false
	operand, err := p.parseExpression()
	p.noGreater = saved
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TokenRightParen, ")"); err != nil {
		return nil, err
	}
	c := &ast.CastExpression{Cast: kind, Type: t, Operand: operand}
	p.finish(c, start)
	return c, nil
}

// parseTypeid parses typeid(T) and typeid(e).
func (p *Parser) parseTypeid() (ast.Expression, error) {
	start := p.tokenCache.getCurrentPosition()
	p.tokenCache.advance() // consume 'typeid'
	if _, err := p.expect(TokenLeftParen, "("); err != nil {
		return nil, err
	}
	saved := p.noGreater
	p.noGreater = false
	defer func() { p.noGreater = saved }()

	e := &ast.TypeIdExpression{Op: ast.TypeIdTypeid}
	if !p.speculate(func() error {
		t, err := p.parseTypeId()
		if err != nil {
			return err
		}
		if !p.tokenCache.check(TokenRightParen) {
			return p.errorf("expected ')'")
		}
		if name := bareTypeName(t); name != nil && !p.isTypeName(name) {
			return p.errorf("not a type")
		}
		e.Type = t
		return nil
	}) {
		operand, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		e.Operand = operand
	}
	if _, err := p.expect(TokenRightParen, ")"); err != nil {
		return nil, err
	}
	p.finish(e, start)
	return e, nil
}
