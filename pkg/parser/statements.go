package parser

import (
	"cppsema/pkg/ast"
)

// parseCompoundStatement parses a braced block in its own scope. Statements
// that fail to parse become problem statements and parsing continues.
func (p *Parser) parseCompoundStatement() (*ast.CompoundStatement, error) {
	err := p.enter()
	defer p.leave()
	if err != nil {
		return nil, err
	}

	start := p.tokenCache.getCurrentPosition()
	open, err := p.expect(TokenLeftBrace, "{")
	if err != nil {
		return nil, err
	}
	saved := p.noGreater
	p.noGreater = false
	defer func() { p.noGreater = saved }()

	p.enterScope("")
	cs := &ast.CompoundStatement{}
	for !p.tokenCache.check(TokenRightBrace) && !p.tokenCache.isAtEnd() {
		cs.Stmts = p.appendStatement(cs.Stmts)
	}
	p.exitScope()

	if err := p.closeBrace(open); err != nil {
		return nil, err
	}
	p.finish(cs, start)
	return cs, nil
}

// appendStatement parses one statement, recovering from errors, and
// appends the result.
func (p *Parser) appendStatement(stmts []ast.Statement) []ast.Statement {
	start := p.tokenCache.getCurrentPosition()
	s, err := p.parseStatement()
	if err != nil {
		s = p.problemStatement(start, err)
	}
	p.declare(s)
	return append(stmts, s)
}

// parseSubStatement parses the body of a control statement. A body that
// fails to parse becomes a problem statement.
func (p *Parser) parseSubStatement() ast.Statement {
	start := p.tokenCache.getCurrentPosition()
	s, err := p.parseStatement()
	if err != nil {
		return p.problemStatement(start, err)
	}
	p.declare(s)
	return s
}

// parseStatement dispatches on the first token of a statement.
func (p *Parser) parseStatement() (ast.Statement, error) {
	err := p.enter()
	defer p.leave()
	if err != nil {
		return nil, err
	}

	p.skipAttributes()
	start := p.tokenCache.getCurrentPosition()
	tok := p.tokenCache.peek()

	switch tok.Type {
	case TokenLeftBrace:
		return p.parseCompoundStatement()
	case TokenSemicolon:
		p.tokenCache.advance()
		s := &ast.NullStatement{}
		p.finish(s, start)
		return s, nil
	case TokenIf:
		return p.parseIfStatement()
	case TokenWhile:
		return p.parseWhileStatement()
	case TokenDo:
		return p.parseDoStatement()
	case TokenFor:
		return p.parseForStatement()
	case TokenSwitch:
		return p.parseSwitchStatement()
	case TokenCase:
		return p.parseCaseStatement()
	case TokenDefault:
		if p.tokenCache.checkAhead(1, TokenColon) {
			p.tokenCache.advance()
			p.tokenCache.advance()
			s := &ast.DefaultStatement{}
			p.finish(s, start)
			return s, nil
		}
	case TokenBreak, TokenContinue:
		p.tokenCache.advance()
		if err := p.expectSemicolon(); err != nil {
			return nil, err
		}
		var s ast.Statement = &ast.BreakStatement{}
		if tok.Type == TokenContinue {
			s = &ast.ContinueStatement{}
		}
		p.finish(s, start)
		return s, nil
	case TokenReturn:
		return p.parseReturnStatement()
	case TokenGoto:
		p.tokenCache.advance() // consume 'goto'
		label, err := p.expect(TokenIdentifier, "label")
		if err != nil {
			return nil, err
		}
		if err := p.expectSemicolon(); err != nil {
			return nil, err
		}
		s := &ast.GotoStatement{Label: p.leafName(label, label.Value)}
		p.finish(s, start)
		return s, nil
	case TokenTry:
		return p.parseTryBlock()
	case TokenIdentifier:
		if p.tokenCache.checkAhead(1, TokenColon) {
			return p.parseLabelStatement()
		}
	}
	return p.parseDeclOrExprStatement()
}

// parseDeclOrExprStatement parses a declaration statement or an expression
// statement, both ending with ';'.
func (p *Parser) parseDeclOrExprStatement() (ast.Statement, error) {
	tok := p.tokenCache.peek()
	switch {
	case isDeclarationKeyword(tok.Type):
		return p.parseDeclarationStatement()
	case basicTypes[tok.Type] != ast.TypeUnspecified || isTypeModifier(tok.Type) || tok.Type == TokenDecltype:
		// int(x) + 1; is an expression
		start := p.mark()
		var s ast.Statement
		if p.speculate(func() error {
			var err error
			s, err = p.parseDeclarationStatement()
			return err
		}) {
			return s, nil
		}
		if s, err := p.parseExpressionStatementTrial(); err == nil {
			return s, nil
		}
		p.reset(start)
		return p.parseDeclarationStatement()
	case tok.Type == TokenIdentifier || (tok.Type == TokenDoubleColon && p.isNameStart(0)):
		return p.parseAmbiguousStatement()
	}
	return p.parseExpressionStatement()
}

func (p *Parser) parseExpressionStatementTrial() (ast.Statement, error) {
	var s ast.Statement
	var failure error
	if !p.speculate(func() error {
		var err error
		s, err = p.parseExpressionStatement()
		failure = err
		return err
	}) {
		return nil, failure
	}
	return s, nil
}

func isDeclarationKeyword(t TokenType) bool {
	switch t {
	case TokenTypedef, TokenStatic, TokenExtern, TokenRegister, TokenThreadLocal, TokenInline,
		TokenConstexpr, TokenClass, TokenStruct, TokenUnion, TokenEnum, TokenUsing, TokenNamespace,
		TokenStaticAssert, TokenTemplate, TokenTypename, TokenFriend, TokenVirtual, TokenMutable,
		TokenExplicit, TokenConst, TokenVolatile:
		return true
	}
	return false
}

func isTypeModifier(t TokenType) bool {
	switch t {
	case TokenSigned, TokenUnsigned, TokenShort, TokenLong:
		return true
	}
	return false
}

// parseAmbiguousStatement parses a statement starting with a name, which
// may be a declaration or an expression. Both readings are tried; when both
// cover the same tokens the names known so far decide, and otherwise an
// ambiguous statement holding both readings is returned.
func (p *Parser) parseAmbiguousStatement() (ast.Statement, error) {
	start := p.mark()
	firstIsType := p.startsWithTypeName()
	firstIsValue := p.startsWithValueName()

	var declStmt ast.Statement
	declEnd := -1
	if !firstIsValue || !p.tokenCache.checkAhead(1, TokenEquals) {
		if p.speculate(func() error {
			var err error
			declStmt, err = p.parseDeclarationStatement()
			return err
		}) {
			declEnd = p.tokenCache.getCurrentPosition()
			if firstIsType {
				return declStmt, nil
			}
			p.reset(start)
		}
	}

	var exprStmt ast.Statement
	exprOK := p.speculate(func() error {
		var err error
		exprStmt, err = p.parseExpressionStatement()
		return err
	})
	exprEnd := p.tokenCache.getCurrentPosition()

	switch {
	case declStmt != nil && exprOK && declEnd == exprEnd:
		if firstIsValue {
			return exprStmt, nil
		}
		amb := &ast.AmbiguousStatement{Alternatives: []ast.Statement{declStmt, exprStmt}}
		ast.SetRange(amb, declStmt.Range().Union(exprStmt.Range()))
		return amb, nil
	case declStmt != nil && (!exprOK || declEnd > exprEnd):
		p.reset(start)
		p.tokenCache.setPosition(declEnd)
		return declStmt, nil
	case exprOK:
		return exprStmt, nil
	}

	// Neither reading covers a complete statement. Parse again outside a
	// trial so that a missing ';' can be accepted, starting with the more
	// likely reading.
	p.reset(start)
	if firstIsType {
		return p.parseDeclarationStatement()
	}
	s, err := p.parseExpressionStatement()
	if err == nil {
		return s, nil
	}
	p.reset(start)
	if s, declErr := p.parseDeclarationStatement(); declErr == nil {
		return s, nil
	}
	p.reset(start)
	return nil, err
}

// startsWithTypeName reports whether the statement starts with a name
// known to denote a type.
func (p *Parser) startsWithTypeName() bool {
	cp := p.mark()
	p.trial++
	name, err := p.parseName(nameType)
	p.trial--
	p.reset(cp)
	return err == nil && p.isTypeName(name)
}

// startsWithValueName reports whether the statement starts with an
// unqualified name known to denote a variable or function.
func (p *Parser) startsWithValueName() bool {
	tok := p.tokenCache.peek()
	return tok.Type == TokenIdentifier && !p.tokenCache.checkAhead(1, TokenDoubleColon) && p.lookupSymbol(tok.Value) == symValue
}

// parseDeclarationStatement wraps a block scope declaration.
func (p *Parser) parseDeclarationStatement() (ast.Statement, error) {
	start := p.tokenCache.getCurrentPosition()
	decl, err := p.parseDeclaration(declBlock)
	if err != nil {
		return nil, err
	}
	if decl == nil {
		s := &ast.NullStatement{}
		p.finish(s, start)
		return s, nil
	}
	s := &ast.DeclarationStatement{Decl: decl}
	p.finish(s, start)
	return s, nil
}

// parseExpressionStatement parses expr;
func (p *Parser) parseExpressionStatement() (ast.Statement, error) {
	start := p.tokenCache.getCurrentPosition()
	expr, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if err := p.expectSemicolon(); err != nil {
		return nil, err
	}
	s := &ast.ExpressionStatement{Expr: expr}
	p.finish(s, start)
	return s, nil
}

// parseLabelStatement parses label: stmt
func (p *Parser) parseLabelStatement() (ast.Statement, error) {
	start := p.tokenCache.getCurrentPosition()
	tok := p.tokenCache.advance()
	p.tokenCache.advance() // consume ':'
	s := &ast.LabelStatement{Label: p.leafName(tok, tok.Value)}
	if p.tokenCache.check(TokenRightBrace) {
		return nil, p.errorf("expected statement after label")
	}
	s.Stmt = p.parseSubStatement()
	p.finish(s, start)
	return s, nil
}

// parseCaseStatement parses case value:
func (p *Parser) parseCaseStatement() (ast.Statement, error) {
	start := p.tokenCache.getCurrentPosition()
	p.tokenCache.advance() // consume 'case'
	value, err := p.parseConditionalExpression()
	if err != nil {
		return nil, err
	}
	if p.tokenCache.match(TokenEllipsis) {
		// case ranges: case 1 ... 5:
		if _, err := p.parseConditionalExpression(); err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(TokenColon, ":"); err != nil {
		return nil, err
	}
	s := &ast.CaseStatement{Value: value}
	p.finish(s, start)
	return s, nil
}

// parseReturnStatement parses return [value];
func (p *Parser) parseReturnStatement() (ast.Statement, error) {
	start := p.tokenCache.getCurrentPosition()
	p.tokenCache.advance() // consume 'return'
	s := &ast.ReturnStatement{}
	if !p.tokenCache.check(TokenSemicolon) {
		var value ast.Node
		var err error
		if p.tokenCache.check(TokenLeftBrace) {
			value, err = p.parseInitializerList()
		} else {
			value, err = p.parseExpression()
		}
		if err != nil {
			return nil, err
		}
		s.Value = value
	}
	if err := p.expectSemicolon(); err != nil {
		return nil, err
	}
	p.finish(s, start)
	return s, nil
}

// hasInitStatement reports whether the parenthesized clause starting at the
// current token contains a ';' at depth zero, as in "if (init; cond)".
func (p *Parser) hasInitStatement() bool {
	depth := 0
	for i := 0; ; i++ {
		switch p.tokenCache.peekAhead(i).Type {
		case TokenEOF, TokenLeftBrace, TokenRightBrace:
			return false
		case TokenLeftParen, TokenLeftBracket:
			depth++
		case TokenRightParen, TokenRightBracket:
			if depth == 0 {
				return false
			}
			depth--
		case TokenSemicolon:
			return depth == 0
		}
	}
}

// parseCondition parses the condition of if, while, switch or for: an
// expression or a declaration with an initializer, as in "if (T* p = f())".
func (p *Parser) parseCondition() (ast.Node, error) {
	var decl *ast.SimpleDeclaration
	if p.speculate(func() error {
		start := p.tokenCache.getCurrentPosition()
		spec, err := p.parseDeclSpecifiers(specOptions{})
		if err != nil {
			return err
		}
		dStart := p.tokenCache.getCurrentPosition()
		d, err := p.parseDeclarator(declNamed)
		if err != nil {
			return err
		}
		if !p.tokenCache.check(TokenEquals) && !p.tokenCache.check(TokenLeftBrace) {
			return p.errorf("expected initializer in condition")
		}
		if err := p.parseInitializer(d); err != nil {
			return err
		}
		p.finishDeclarator(d, dStart)
		if !p.tokenCache.check(TokenRightParen) && !p.tokenCache.check(TokenSemicolon) {
			return p.errorf("expected ')' after condition")
		}
		decl = &ast.SimpleDeclaration{Spec: spec, Declarators: []*ast.Declarator{d}}
		p.finish(decl, start)
		return nil
	}) {
		p.declare(decl)
		return decl, nil
	}
	return p.parseExpression()
}

// parseConditionClause parses "( [init;] cond )" of if and switch.
func (p *Parser) parseConditionClause() (ast.Statement, ast.Node, error) {
	if _, err := p.expect(TokenLeftParen, "("); err != nil {
		return nil, nil, err
	}
	var init ast.Statement
	if p.hasInitStatement() {
		s, err := p.parseDeclOrExprStatement()
		if err != nil {
			return nil, nil, err
		}
		p.declare(s)
		init = s
	}
	cond, err := p.parseCondition()
	if err != nil {
		return nil, nil, err
	}
	if _, err := p.expect(TokenRightParen, ")"); err != nil {
		return nil, nil, err
	}
	return init, cond, nil
}

// parseIfStatement parses if [constexpr] (init; cond) then [else]
func (p *Parser) parseIfStatement() (ast.Statement, error) {
	start := p.tokenCache.getCurrentPosition()
	p.tokenCache.advance() // consume 'if'
	s := &ast.IfStatement{Constexpr: p.tokenCache.match(TokenConstexpr)}

	// condition variables are visible in both branches
	p.enterScope("")
	defer p.exitScope()

	init, cond, err := p.parseConditionClause()
	if err != nil {
		return nil, err
	}
	s.Init, s.Cond = init, cond
	s.Then = p.parseSubStatement()
	if p.tokenCache.match(TokenElse) {
		s.Else = p.parseSubStatement()
	}
	p.finish(s, start)
	return s, nil
}

// parseSwitchStatement parses switch (init; cond) body
func (p *Parser) parseSwitchStatement() (ast.Statement, error) {
	start := p.tokenCache.getCurrentPosition()
	p.tokenCache.advance() // consume 'switch'
	p.enterScope("")
	defer p.exitScope()

	init, cond, err := p.parseConditionClause()
	if err != nil {
		return nil, err
	}
	s := &ast.SwitchStatement{Init: init, Cond: cond}
	s.Body = p.parseSubStatement()
	p.finish(s, start)
	return s, nil
}

// parseWhileStatement parses while (cond) body
func (p *Parser) parseWhileStatement() (ast.Statement, error) {
	start := p.tokenCache.getCurrentPosition()
	p.tokenCache.advance() // consume 'while'
	p.enterScope("")
	defer p.exitScope()

	if _, err := p.expect(TokenLeftParen, "("); err != nil {
		return nil, err
	}
	cond, err := p.parseCondition()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TokenRightParen, ")"); err != nil {
		return nil, err
	}
	s := &ast.WhileStatement{Cond: cond}
	s.Body = p.parseSubStatement()
	p.finish(s, start)
	return s, nil
}

// parseDoStatement parses do body while (cond);
func (p *Parser) parseDoStatement() (ast.Statement, error) {
	start := p.tokenCache.getCurrentPosition()
	p.tokenCache.advance() // consume 'do'
	s := &ast.DoStatement{Body: p.parseSubStatement()}

	if _, err := p.expect(TokenWhile, "while"); err != nil {
		return nil, err
	}
	if _, err := p.expect(TokenLeftParen, "("); err != nil {
		return nil, err
	}
	cond, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	s.Cond = cond
	if _, err := p.expect(TokenRightParen, ")"); err != nil {
		return nil, err
	}
	if err := p.expectSemicolon(); err != nil {
		return nil, err
	}
	p.finish(s, start)
	return s, nil
}

// parseForStatement parses classic and range-based for loops
func (p *Parser) parseForStatement() (ast.Statement, error) {
	start := p.tokenCache.getCurrentPosition()
	p.tokenCache.advance() // consume 'for'
	p.enterScope("")
	defer p.exitScope()

	if _, err := p.expect(TokenLeftParen, "("); err != nil {
		return nil, err
	}

	var rangeDecl *ast.SimpleDeclaration
	if p.speculate(func() error {
		declStart := p.tokenCache.getCurrentPosition()
		spec, err := p.parseDeclSpecifiers(specOptions{})
		if err != nil {
			return err
		}
		d, err := p.parseDeclarator(declNamed)
		if err != nil {
			return err
		}
		if !p.tokenCache.check(TokenColon) {
			return p.errorf("expected ':' in range-based for")
		}
		rangeDecl = &ast.SimpleDeclaration{Spec: spec, Declarators: []*ast.Declarator{d}}
		p.finish(rangeDecl, declStart)
		p.tokenCache.advance() // consume ':'
		return nil
	}) {
		p.declare(rangeDecl)
		rng, err := p.parseInitializerClause()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokenRightParen, ")"); err != nil {
			return nil, err
		}
		s := &ast.RangeForStatement{Decl: rangeDecl, RangeExpr: rng}
		s.Body = p.parseSubStatement()
		p.finish(s, start)
		return s, nil
	}

	s := &ast.ForStatement{}
	if !p.tokenCache.match(TokenSemicolon) {
		init, err := p.parseDeclOrExprStatement()
		if err != nil {
			return nil, err
		}
		p.declare(init)
		s.Init = init
	}
	if !p.tokenCache.check(TokenSemicolon) {
		cond, err := p.parseCondition()
		if err != nil {
			return nil, err
		}
		s.Cond = cond
	}
	if _, err := p.expect(TokenSemicolon, ";"); err != nil {
		return nil, err
	}
	if !p.tokenCache.check(TokenRightParen) {
		iter, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		s.Iter = iter
	}
	if _, err := p.expect(TokenRightParen, ")"); err != nil {
		return nil, err
	}
	s.Body = p.parseSubStatement()
	p.finish(s, start)
	return s, nil
}

// parseTryBlock parses try { } followed by its handlers
func (p *Parser) parseTryBlock() (ast.Statement, error) {
	start := p.tokenCache.getCurrentPosition()
	p.tokenCache.advance() // consume 'try'
	body, err := p.parseCompoundStatement()
	if err != nil {
		return nil, err
	}
	handlers, err := p.parseCatchHandlers()
	if err != nil {
		return nil, err
	}
	s := &ast.TryBlockStatement{Body: body, Handlers: handlers}
	p.finish(s, start)
	return s, nil
}

// parseCatchHandlers parses one or more catch clauses.
func (p *Parser) parseCatchHandlers() ([]*ast.CatchHandler, error) {
	var handlers []*ast.CatchHandler
	for p.tokenCache.check(TokenCatch) || len(handlers) == 0 {
		start := p.tokenCache.getCurrentPosition()
		if _, err := p.expect(TokenCatch, "catch"); err != nil {
			return nil, err
		}
		if _, err := p.expect(TokenLeftParen, "("); err != nil {
			return nil, err
		}

		h := &ast.CatchHandler{}
		p.enterScope("")
		if p.tokenCache.match(TokenEllipsis) {
			h.CatchAll = true
		} else {
			declStart := p.tokenCache.getCurrentPosition()
			spec, err := p.parseDeclSpecifiers(specOptions{})
			if err != nil {
				p.exitScope()
				return nil, err
			}
			d, err := p.parseDeclarator(declEither)
			if err != nil {
				p.exitScope()
				return nil, err
			}
			h.Decl = &ast.SimpleDeclaration{Spec: spec, Declarators: []*ast.Declarator{d}}
			p.finish(h.Decl, declStart)
			p.declare(h.Decl)
		}
		if _, err := p.expect(TokenRightParen, ")"); err != nil {
			p.exitScope()
			return nil, err
		}
		body, err := p.parseCompoundStatement()
		p.exitScope()
		if err != nil {
			return nil, err
		}
		h.Body = body
		p.finish(h, start)
		handlers = append(handlers, h)
	}
	return handlers, nil
}
