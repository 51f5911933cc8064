package parser

import (
	"cppsema/pkg/ast"
)

// parseUsing handles using directives, using declarations and alias
// declarations. typedef is a declaration specifier and goes through
// parseSimpleDeclaration.
func (p *Parser) parseUsing() (ast.Declaration, error) {
	start := p.tokenCache.getCurrentPosition()
	p.tokenCache.advance() // consume 'using'

	if p.tokenCache.match(TokenNamespace) {
		name, err := p.parseName(nameType)
		if err != nil {
			return nil, err
		}
		if err := p.expectSemicolon(); err != nil {
			return nil, err
		}
		ud := &ast.UsingDirective{Name: name}
		p.finish(ud, start)
		return ud, nil
	}

	if p.tokenCache.check(TokenIdentifier) && p.isAliasAhead() {
		tok := p.tokenCache.advance()
		alias := p.leafName(tok, tok.Value)
		p.skipAttributes()
		p.tokenCache.advance() // consume '='

		t, err := p.parseTypeId()
		if err != nil {
			return nil, err
		}
		if err := p.expectSemicolon(); err != nil {
			return nil, err
		}
		ad := &ast.AliasDeclaration{Alias: alias, Type: t}
		p.finish(ad, start)
		return ad, nil
	}

	typename := p.tokenCache.match(TokenTypename)
	name, err := p.parseName(nameType)
	if err != nil {
		return nil, err
	}
	if err := p.expectSemicolon(); err != nil {
		return nil, err
	}
	ud := &ast.UsingDeclaration{Typename: typename, Name: name}
	p.finish(ud, start)
	return ud, nil
}

// isAliasAhead reports whether the identifier at the current position is
// followed by '=', possibly after attributes.
func (p *Parser) isAliasAhead() bool {
	i := 1
	for p.tokenCache.checkAhead(i, TokenLeftBracket) && p.tokenCache.checkAhead(i+1, TokenLeftBracket) {
		depth := 0
		for {
			t := p.tokenCache.peekAhead(i).Type
			if t == TokenEOF {
				return false
			}
			i++
			if t == TokenLeftBracket {
				depth++
			} else if t == TokenRightBracket {
				depth--
				if depth == 0 {
					break
				}
			}
		}
	}
	return p.tokenCache.checkAhead(i, TokenEquals)
}
