package parser

import (
	"cppsema/pkg/ast"
)

// classKeyOf maps class, struct and union to their class keys
func classKeyOf(tok Token) ast.ClassKey {
	switch tok.Type {
	case TokenStruct:
		return ast.KeyStruct
	case TokenUnion:
		return ast.KeyUnion
	}
	return ast.KeyClass
}

// parseClassSpecifier handles class, struct and union specifiers. Without a
// body the result is an elaborated type specifier.
func (p *Parser) parseClassSpecifier() (ast.DeclSpecifier, error) {
	start := p.tokenCache.getCurrentPosition()
	keyword := p.tokenCache.advance() // consume 'class', 'struct' or 'union'
	key := classKeyOf(keyword)
	template := p.pendingTemplate
	p.pendingTemplate = false

	p.skipAttributes()
	var name ast.NameNode
	if p.isNameStart(0) && !p.tokenCache.check(TokenOperator) && !p.isFinalSpecifier() {
		n, err := p.parseName(nameType)
		if err != nil {
			return nil, err
		}
		name = n
	}

	final := false
	if p.isFinalSpecifier() {
		p.tokenCache.advance() // consume 'final'
		final = true
	}

	if !p.tokenCache.check(TokenLeftBrace) && !p.tokenCache.check(TokenColon) {
		if name == nil {
			return nil, p.errorf("expected %s name", keyword.Value)
		}
		el := &ast.ElaboratedTypeSpec{Key: key, Name: name}
		p.finish(el, start)
		return el, nil
	}

	spec := &ast.CompositeTypeSpec{Key: key, Name: name, Final: final}

	// The class name is visible in its own body. Specializations add no name.
	id := ""
	if _, specialization := lastSegment(name).(*ast.TemplateId); !specialization {
		id = unqualifiedID(lastSegment(name))
	}
	if id != "" {
		if template {
			p.addOuterSymbol(id, symTemplate)
		} else {
			p.addSymbol(id, symType)
		}
	}

	if p.tokenCache.match(TokenColon) {
		bases, err := p.parseBaseClause(key)
		if err != nil {
			return nil, err
		}
		spec.Bases = bases
	}

	open, err := p.expect(TokenLeftBrace, "{")
	if err != nil {
		return nil, err
	}

	scopeName := id
	if scopeName == "" {
		scopeName = unqualifiedID(lastSegment(name))
	}
	if scopeName == "" {
		scopeName = key.String()
	}
	p.enterScope(scopeName)
	for !p.tokenCache.check(TokenRightBrace) && !p.tokenCache.isAtEnd() {
		spec.Members = p.appendDeclaration(spec.Members, declClass)
	}
	p.exitScope()

	if err := p.closeBrace(open); err != nil {
		return nil, err
	}
	p.finish(spec, start)
	return spec, nil
}

// isFinalSpecifier reports whether the current token is the class-virt-
// specifier final.
func (p *Parser) isFinalSpecifier() bool {
	tok := p.tokenCache.peek()
	if tok.Type != TokenIdentifier || tok.Value != "final" {
		return false
	}
	return p.tokenCache.checkAhead(1, TokenLeftBrace) || p.tokenCache.checkAhead(1, TokenColon)
}

// parseBaseClause parses the base specifiers after ':'
func (p *Parser) parseBaseClause(key ast.ClassKey) ([]*ast.BaseSpecifier, error) {
	var bases []*ast.BaseSpecifier
	for {
		start := p.tokenCache.getCurrentPosition()
		base := &ast.BaseSpecifier{Access: defaultAccess(key)}

	specifiers:
		for {
			p.skipAttributes()
			tok := p.tokenCache.peek()
			switch tok.Type {
			case TokenVirtual:
				base.Virtual = true
			case TokenPublic, TokenProtected, TokenPrivate:
				base.Access = accessLevelOf(tok)
			default:
				break specifiers
			}
			p.tokenCache.advance()
		}

		name, err := p.parseName(nameType)
		if err != nil {
			return nil, err
		}
		base.Name = name
		p.tokenCache.match(TokenEllipsis)
		p.finish(base, start)
		bases = append(bases, base)

		if !p.tokenCache.match(TokenComma) {
			return bases, nil
		}
	}
}
