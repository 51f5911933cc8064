package parser

import (
	"cppsema/pkg/ast"
)

// parseEnumSpecifier handles enum definitions, opaque enum declarations and
// elaborated enum type specifiers
func (p *Parser) parseEnumSpecifier() (ast.DeclSpecifier, error) {
	start := p.tokenCache.getCurrentPosition()
	p.tokenCache.advance() // consume 'enum'

	// Check for 'class' or 'struct' after enum
	scoped := p.tokenCache.match(TokenClass, TokenStruct)
	p.skipAttributes()

	var name ast.NameNode
	if p.isNameStart(0) {
		n, err := p.parseName(nameType)
		if err != nil {
			return nil, err
		}
		name = n
	}
	es := &ast.EnumSpec{Scoped: scoped, Name: name}

	// ':' starts the underlying type unless it is a bit-field width
	if p.tokenCache.check(TokenColon) {
		p.speculate(func() error {
			p.tokenCache.advance() // consume ':'
			underlying, err := p.parseDeclSpecifiers(specOptions{typeOnly: true, rejectValues: true})
			if err != nil {
				return err
			}
			if !p.tokenCache.check(TokenLeftBrace) && !p.tokenCache.check(TokenSemicolon) {
				return p.errorf("expected enum body")
			}
			es.Underlying = underlying
			return nil
		})
	}

	if !p.tokenCache.check(TokenLeftBrace) {
		if name == nil {
			return nil, p.errorf("expected enum name")
		}
		if !scoped && es.Underlying == nil {
			el := &ast.ElaboratedTypeSpec{Key: ast.KeyEnum, Name: name}
			p.finish(el, start)
			return el, nil
		}
		es.Opaque = true
		p.finish(es, start)
		return es, nil
	}

	open := p.tokenCache.advance() // consume '{'
	if id := unqualifiedID(name); id != "" {
		p.addSymbol(id, symType)
	}
	saved := p.noGreater
	p.noGreater = false
	defer func() { p.noGreater = saved }()

	for !p.tokenCache.check(TokenRightBrace) && !p.tokenCache.isAtEnd() {
		enumStart := p.tokenCache.getCurrentPosition()
		tok, err := p.expect(TokenIdentifier, "enumerator")
		if err != nil {
			return nil, err
		}
		e := &ast.Enumerator{Name: p.leafName(tok, tok.Value)}
		p.skipAttributes()
		if p.tokenCache.match(TokenEquals) {
			value, err := p.parseConditionalExpression()
			if err != nil {
				return nil, err
			}
			e.Value = value
		}
		p.finish(e, enumStart)
		es.Enumerators = append(es.Enumerators, e)
		if !scoped {
			p.addSymbol(tok.Value, symValue)
		}

		if !p.tokenCache.match(TokenComma) {
			break
		}
	}

	if err := p.closeBrace(open); err != nil {
		return nil, err
	}
	p.finish(es, start)
	return es, nil
}
