package parser

import (
	"cppsema/pkg/ast"
)

// parseTemplateDeclaration handles template declarations, explicit
// specializations (template<>) and explicit instantiations (template ...
// without a parameter list)
func (p *Parser) parseTemplateDeclaration(ctx declContext) (ast.Declaration, error) {
	err := p.enter()
	defer p.leave()
	if err != nil {
		return nil, err
	}

	start := p.tokenCache.getCurrentPosition()
	p.tokenCache.match(TokenExtern)
	p.tokenCache.advance() // consume 'template'
	td := &ast.TemplateDeclaration{}

	if !p.tokenCache.check(TokenLess) {
		decl, err := p.parseDeclaration(ctx)
		if err != nil {
			return nil, err
		}
		if decl == nil {
			return nil, p.errorf("expected declaration after 'template'")
		}
		td.Decl = decl
		p.finish(td, start)
		return td, nil
	}

	// template parameters are visible in the declaration only
	p.enterScope("")
	defer p.exitScope()

	params, err := p.parseTemplateParameterList()
	if err != nil {
		return nil, err
	}
	td.Params = params
	td.ExplicitSpecialization = len(params) == 0

	switch p.tokenCache.peek().Type {
	case TokenClass, TokenStruct, TokenUnion:
		p.pendingTemplate = len(params) > 0
	}
	decl, err := p.parseDeclaration(ctx)
	p.pendingTemplate = false
	if err != nil {
		return nil, err
	}
	if decl == nil {
		return nil, p.errorf("expected declaration after template parameter list")
	}
	td.Decl = decl
	p.finish(td, start)
	return td, nil
}

// parseTemplateParameterList parses '<' params '>'. An empty list yields
// no parameters.
func (p *Parser) parseTemplateParameterList() ([]ast.Node, error) {
	if _, err := p.expect(TokenLess, "<"); err != nil {
		return nil, err
	}
	saved := p.noGreater
	defer func() { p.noGreater = saved }()

	var params []ast.Node
	if p.closeAngle() {
		return params, nil
	}
	for {
		p.noGreater = true
		param, err := p.parseTemplateParameter()
		if err != nil {
			return nil, err
		}
		params = append(params, param)
		if p.tokenCache.match(TokenComma) {
			continue
		}
		if p.closeAngle() {
			return params, nil
		}
		return nil, p.errorf("expected '>' but found '%s'", p.tokenCache.peek().Value)
	}
}

// isTypeParameterStart reports whether class or typename at the current
// position introduces a type parameter rather than a non-type parameter
// such as "typename T::type n".
func (p *Parser) isTypeParameterStart() bool {
	if !p.tokenCache.check(TokenClass) && !p.tokenCache.check(TokenTypename) {
		return false
	}
	i := 1
	if p.tokenCache.checkAhead(i, TokenEllipsis) {
		i++
	}
	if p.tokenCache.checkAhead(i, TokenIdentifier) {
		i++
	}
	switch p.tokenCache.peekAhead(i).Type {
	case TokenComma, TokenGreater, TokenRightShift, TokenEquals:
		return true
	}
	return false
}

// parseTemplateParameter parses a type, template template or non-type
// template parameter and declares its name.
func (p *Parser) parseTemplateParameter() (ast.Node, error) {
	start := p.tokenCache.getCurrentPosition()
	kind := symType

	if p.tokenCache.check(TokenTemplate) {
		p.tokenCache.advance() // consume 'template'
		p.enterScope("")
		_, err := p.parseTemplateParameterList()
		p.exitScope()
		if err != nil {
			return nil, err
		}
		p.noGreater = true
		if !p.isTypeParameterStart() {
			return nil, p.errorf("expected 'class' or 'typename' in template template parameter")
		}
		kind = symTemplate
	}

	if p.isTypeParameterStart() {
		p.tokenCache.advance() // consume 'class' or 'typename'
		tp := &ast.TypeTemplateParameter{Pack: p.tokenCache.match(TokenEllipsis)}
		if p.tokenCache.check(TokenIdentifier) {
			tok := p.tokenCache.advance()
			tp.Name = p.leafName(tok, tok.Value)
			p.addSymbol(tok.Value, kind)
		}
		if p.tokenCache.match(TokenEquals) {
			def, err := p.parseTypeId()
			if err != nil {
				return nil, err
			}
			tp.Default = def
		}
		p.finish(tp, start)
		return tp, nil
	}

	param, err := p.parseParameterDeclaration()
	if err != nil {
		return nil, err
	}
	if param.Declarator != nil {
		p.addSymbol(unqualifiedID(param.Declarator.InnermostName()), symValue)
	}
	return param, nil
}
