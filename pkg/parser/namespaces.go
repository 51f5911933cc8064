package parser

import (
	"cppsema/pkg/ast"
)

// parseNamespace handles namespace definitions and namespace aliases. A
// nested definition such as "namespace a::b {}" yields one definition per
// segment, all sharing the same range.
func (p *Parser) parseNamespace() (ast.Declaration, error) {
	start := p.tokenCache.getCurrentPosition()
	inline := p.tokenCache.match(TokenInline)
	p.tokenCache.advance() // consume 'namespace'
	p.skipAttributes()

	if p.tokenCache.check(TokenIdentifier) && p.tokenCache.checkAhead(1, TokenEquals) {
		return p.parseNamespaceAlias(start)
	}

	// Parse namespace name (could be nested like a::b)
	var names []*ast.Name
	for p.tokenCache.check(TokenIdentifier) {
		tok := p.tokenCache.advance()
		names = append(names, p.leafName(tok, tok.Value))
		if !p.tokenCache.check(TokenDoubleColon) {
			break
		}
		p.tokenCache.advance() // consume '::'
		p.tokenCache.match(TokenInline)
	}

	open, err := p.expect(TokenLeftBrace, "{")
	if err != nil {
		return nil, err
	}

	// Namespace members stay visible to the parser's type heuristics after
	// the closing brace, so no symbol scope is entered here.
	var decls []ast.Declaration
	for !p.tokenCache.check(TokenRightBrace) && !p.tokenCache.isAtEnd() {
		decls = p.appendDeclaration(decls, declTopLevel)
	}
	if err := p.closeBrace(open); err != nil {
		return nil, err
	}

	rng := p.rangeFrom(start)
	if len(names) == 0 {
		ns := &ast.NamespaceDefinition{Inline: inline, Decls: decls}
		ast.SetRange(ns, rng)
		return ns, nil
	}

	var inner *ast.NamespaceDefinition
	for i := len(names) - 1; i >= 0; i-- {
		ns := &ast.NamespaceDefinition{Name: names[i], Decls: decls}
		ast.SetRange(ns, rng)
		if i == 0 {
			ns.Inline = inline
		}
		inner = ns
		decls = []ast.Declaration{ns}
	}
	return inner, nil
}

// parseNamespaceAlias handles namespace Alias = Target;
func (p *Parser) parseNamespaceAlias(start int) (ast.Declaration, error) {
	tok := p.tokenCache.advance()
	alias := p.leafName(tok, tok.Value)
	p.tokenCache.advance() // consume '='

	target, err := p.parseName(nameType)
	if err != nil {
		return nil, err
	}
	if err := p.expectSemicolon(); err != nil {
		return nil, err
	}
	na := &ast.NamespaceAlias{Alias: alias, Target: target}
	p.finish(na, start)
	return na, nil
}
