package parser

import (
	"cppsema/pkg/ast"
)

// parseAccessSpecifier handles access specifier labels in a class body
func (p *Parser) parseAccessSpecifier() (ast.Declaration, error) {
	start := p.tokenCache.getCurrentPosition()
	accessToken := p.tokenCache.advance()

	if _, err := p.expect(TokenColon, ":"); err != nil {
		return nil, err
	}

	label := &ast.VisibilityLabel{Access: accessLevelOf(accessToken)}
	p.finish(label, start)
	return label, nil
}

// accessLevelOf maps public, protected and private to access levels.
func accessLevelOf(tok Token) ast.AccessLevel {
	switch tok.Type {
	case TokenPublic:
		return ast.AccessPublic
	case TokenProtected:
		return ast.AccessProtected
	case TokenPrivate:
		return ast.AccessPrivate
	}
	return ast.AccessUnknown
}

// defaultAccess returns the access of members and bases declared before any
// label.
func defaultAccess(key ast.ClassKey) ast.AccessLevel {
	if key == ast.KeyClass {
		return ast.AccessPrivate
	}
	return ast.AccessPublic
}
