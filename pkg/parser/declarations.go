package parser

import (
	"strings"

	"cppsema/pkg/ast"
)

// declContext is where a declaration appears.
type declContext int

const (
	declTopLevel declContext = iota
	declClass
	declBlock
)

// specOptions restricts what parseDeclSpecifiers accepts.
type specOptions struct {
	// typeOnly excludes storage classes and function specifiers, as in a
	// type-id.
	typeOnly bool
	// rejectValues fails on a name known as a variable or on a literal
	// where a type is expected.
	rejectValues bool
	// allowEmpty accepts no specifier at all, as before a constructor.
	allowEmpty bool
}

// parseDeclaration dispatches on the first token of a declaration. A lone
// ';' yields no declaration.
func (p *Parser) parseDeclaration(ctx declContext) (ast.Declaration, error) {
	p.skipAttributes()
	tok := p.tokenCache.peek()

	switch tok.Type {
	case TokenSemicolon:
		p.tokenCache.advance()
		return nil, nil
	case TokenNamespace:
		return p.parseNamespace()
	case TokenInline:
		if p.tokenCache.checkAhead(1, TokenNamespace) {
			return p.parseNamespace()
		}
	case TokenUsing:
		return p.parseUsing()
	case TokenTemplate:
		return p.parseTemplateDeclaration(ctx)
	case TokenExtern:
		if p.tokenCache.checkAhead(1, TokenString) {
			return p.parseLinkageSpecification()
		}
		if p.tokenCache.checkAhead(1, TokenTemplate) {
			return p.parseTemplateDeclaration(ctx)
		}
	case TokenStaticAssert:
		return p.parseStaticAssert()
	case TokenPublic, TokenProtected, TokenPrivate:
		if ctx == declClass && p.tokenCache.checkAhead(1, TokenColon) {
			return p.parseAccessSpecifier()
		}
	}
	return p.parseSimpleDeclaration(ctx)
}

// parseSimpleDeclaration parses specifiers followed by init-declarators, or
// a function definition.
func (p *Parser) parseSimpleDeclaration(ctx declContext) (ast.Declaration, error) {
	start := p.tokenCache.getCurrentPosition()
	spec, err := p.parseDeclSpecifiers(specOptions{allowEmpty: ctx != declBlock})
	if err != nil {
		return nil, err
	}
	decl := &ast.SimpleDeclaration{Spec: spec}

	if p.tokenCache.check(TokenSemicolon) || (p.tokenCache.isAtEnd() && p.trial == 0) {
		if !declaresWithoutDeclarator(spec) {
			return nil, p.errorf("declaration does not declare anything")
		}
		if err := p.expectSemicolon(); err != nil {
			return nil, err
		}
		p.finish(decl, start)
		return decl, nil
	}

	for first := true; ; first = false {
		dStart := p.tokenCache.getCurrentPosition()
		var d *ast.Declarator
		if ctx == declClass && p.tokenCache.check(TokenColon) {
			// unnamed bit-field
			d = &ast.Declarator{}
		} else {
			d, err = p.parseDeclarator(declNamed)
			if err != nil {
				return nil, err
			}
		}
		fn := d.FunctionDeclarator()
		if fn == nil && hasNoType(spec) && !p.cMode {
			return nil, p.errorf("expected type specifier")
		}
		if first && fn != nil && p.isFunctionBodyStart(ctx) {
			return p.parseFunctionDefinition(start, spec, d)
		}

		if ctx == declClass && p.tokenCache.match(TokenColon) {
			width, err := p.parseConditionalExpression()
			if err != nil {
				return nil, err
			}
			d.BitField = width
		}
		if err := p.parseInitializer(d); err != nil {
			return nil, err
		}
		p.finishDeclarator(d, dStart)
		decl.Declarators = append(decl.Declarators, d)

		if !p.tokenCache.match(TokenComma) {
			break
		}
	}

	if err := p.expectSemicolon(); err != nil {
		return nil, err
	}
	p.finish(decl, start)
	return decl, nil
}

// declaresWithoutDeclarator reports whether a declaration consisting of
// spec alone declares something: a class, an enumeration or a friend.
func declaresWithoutDeclarator(spec ast.DeclSpecifier) bool {
	switch s := spec.(type) {
	case *ast.CompositeTypeSpec, *ast.ElaboratedTypeSpec, *ast.EnumSpec:
		return true
	case *ast.NamedTypeSpec:
		return s.Spec.Friend
	}
	return false
}

// hasNoType reports whether spec names no type, which is only valid for
// constructors, destructors and conversion functions.
func hasNoType(spec ast.DeclSpecifier) bool {
	s, ok := spec.(*ast.SimpleDeclSpec)
	return ok && s.Type == ast.TypeUnspecified && !s.Signed && !s.Unsigned && !s.Short && s.Long == 0
}

func (p *Parser) isFunctionBodyStart(ctx declContext) bool {
	if ctx == declBlock {
		return false
	}
	switch p.tokenCache.peek().Type {
	case TokenLeftBrace, TokenTry, TokenColon:
		return true
	case TokenEquals:
		return p.tokenCache.checkAhead(1, TokenDefault) || p.tokenCache.checkAhead(1, TokenDelete)
	}
	return false
}

// parseFunctionDefinition parses the body of a function whose specifiers
// and declarator are already parsed.
func (p *Parser) parseFunctionDefinition(start int, spec ast.DeclSpecifier, d *ast.Declarator) (ast.Declaration, error) {
	fd := &ast.FunctionDefinition{Spec: spec, Declarator: d}

	if p.tokenCache.match(TokenEquals) {
		if p.tokenCache.match(TokenDefault) {
			fd.Defaulted = true
		} else {
			p.tokenCache.advance() // consume 'delete'
			fd.Deleted = true
		}
		if err := p.expectSemicolon(); err != nil {
			return nil, err
		}
		p.finish(fd, start)
		return fd, nil
	}

	// parameters are visible in the body
	p.enterScope("")
	defer p.exitScope()
	for _, param := range d.FunctionDeclarator().Params {
		p.addSymbol(unqualifiedID(param.Declarator.InnermostName()), symValue)
	}

	tryStart := p.tokenCache.getCurrentPosition()
	isTry := p.tokenCache.match(TokenTry)
	if p.tokenCache.match(TokenColon) {
		inits, err := p.parseMemberInitializers()
		if err != nil {
			return nil, err
		}
		fd.MemberInits = inits
	}

	body, err := p.parseCompoundStatement()
	if err != nil {
		return nil, err
	}
	if isTry {
		handlers, err := p.parseCatchHandlers()
		if err != nil {
			return nil, err
		}
		try := &ast.TryBlockStatement{Body: body, Handlers: handlers}
		p.finish(try, tryStart)
		body = &ast.CompoundStatement{Stmts: []ast.Statement{try}}
		ast.SetRange(body, try.Range())
	}
	fd.Body = body
	p.finish(fd, start)
	return fd, nil
}

// parseMemberInitializers parses the mem-initializer list of a constructor.
func (p *Parser) parseMemberInitializers() ([]*ast.ConstructorChainInitializer, error) {
	var inits []*ast.ConstructorChainInitializer
	for {
		start := p.tokenCache.getCurrentPosition()
		name, err := p.parseName(nameType)
		if err != nil {
			return nil, err
		}
		ci := &ast.ConstructorChainInitializer{Member: name}

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
			ci.Init = init
		case TokenLeftBrace:
			list, err := p.parseInitializerList()
			if err != nil {
				return nil, err
			}
			ci.Init = list
		default:
			return nil, p.errorf("expected '(' or '{' after member initializer")
		}
		p.tokenCache.match(TokenEllipsis)
		p.finish(ci, start)
		inits = append(inits, ci)

		if !p.tokenCache.match(TokenComma) {
			return inits, nil
		}
	}
}

// parseDeclSpecifiers parses the specifier sequence of a declaration. cv-
// qualifiers and function specifiers may appear on either side of the type.
func (p *Parser) parseDeclSpecifiers(opts specOptions) (ast.DeclSpecifier, error) {
	start := p.tokenCache.getCurrentPosition()
	var flags ast.SpecFlags
	simple := &ast.SimpleDeclSpec{}
	var typed ast.DeclSpecifier
	seenType := false

loop:
	for {
		p.skipAttributes()
		tok := p.tokenCache.peek()

		switch tok.Type {
		case TokenConst:
			flags.Const = true
		case TokenVolatile:
			flags.Volatile = true

		case TokenStatic, TokenExtern, TokenRegister, TokenThreadLocal, TokenTypedef, TokenInline,
			TokenVirtual, TokenExplicit, TokenFriend, TokenConstexpr, TokenMutable:
			if opts.typeOnly {
				break loop
			}
			setSpecifier(&flags, tok.Type)
			if tok.Type == TokenExplicit && p.tokenCache.checkAhead(1, TokenLeftParen) {
				p.tokenCache.advance()
				if err := p.skipBalanced(); err != nil {
					return nil, err
				}
				continue
			}

		case TokenVoid, TokenBool, TokenChar, TokenWChar, TokenChar16, TokenChar32, TokenInt,
			TokenFloat, TokenDouble, TokenAuto:
			if typed != nil || simple.Type != ast.TypeUnspecified {
				break loop
			}
			simple.Type = basicTypes[tok.Type]
			seenType = true
		case TokenSigned, TokenUnsigned, TokenShort, TokenLong:
			if typed != nil {
				break loop
			}
			switch tok.Type {
			case TokenSigned:
				simple.Signed = true
			case TokenUnsigned:
				simple.Unsigned = true
			case TokenShort:
				simple.Short = true
			default:
				simple.Long++
			}
			seenType = true

		case TokenDecltype:
			if typed != nil || seenType {
				break loop
			}
			if err := p.parseDecltype(simple); err != nil {
				return nil, err
			}
			seenType = true
			continue

		case TokenClass, TokenStruct, TokenUnion:
			if typed != nil || seenType {
				break loop
			}
			spec, err := p.parseClassSpecifier()
			if err != nil {
				return nil, err
			}
			typed = spec
			continue
		case TokenEnum:
			if typed != nil || seenType {
				break loop
			}
			spec, err := p.parseEnumSpecifier()
			if err != nil {
				return nil, err
			}
			typed = spec
			continue

		case TokenTypename:
			if typed != nil || seenType {
				break loop
			}
			nameStart := p.tokenCache.getCurrentPosition()
			p.tokenCache.advance() // consume 'typename'
			name, err := p.parseName(nameType)
			if err != nil {
				return nil, err
			}
			named := &ast.NamedTypeSpec{Typename: true, Name: name}
			p.finish(named, nameStart)
			typed = named
			continue

		case TokenIdentifier, TokenDoubleColon:
			if typed != nil || seenType || !p.isNameStart(0) {
				break loop
			}
			if opts.rejectValues && tok.Type == TokenIdentifier && p.lookupSymbol(tok.Value) == symValue {
				return nil, p.errorf("'%s' is not a type", tok.Value)
			}
			if !opts.typeOnly && p.looksLikeConstructor() {
				break loop
			}
			nameStart := p.tokenCache.getCurrentPosition()
			name, err := p.parseName(nameType)
			if err != nil {
				return nil, err
			}
			named := &ast.NamedTypeSpec{Name: name}
			p.finish(named, nameStart)
			typed = named
			continue

		case TokenNumber, TokenString, TokenCharLiteral, TokenTrue, TokenFalse, TokenNullptr, TokenThis:
			if opts.rejectValues && typed == nil && !seenType {
				return nil, p.errorf("expected type but found '%s'", tok.Value)
			}
			break loop

		default:
			break loop
		}
		p.tokenCache.advance()
	}

	if typed != nil {
		*typed.Specifiers() = mergeSpecifiers(*typed.Specifiers(), flags)
		p.finish(typed, start)
		return typed, nil
	}

	simple.Spec = flags
	if simple.Type == ast.TypeUnspecified && (simple.Signed || simple.Unsigned || simple.Short || simple.Long > 0) {
		simple.Type = ast.TypeInt
	}
	if p.tokenCache.getCurrentPosition() == start {
		if !opts.allowEmpty {
			return nil, p.errorf("expected type specifier but found '%s'", p.tokenCache.peek().Value)
		}
		ast.SetRange(simple, ast.Range{Offset: p.tokenCache.peek().Offset})
		return simple, nil
	}
	if opts.typeOnly && !seenType {
		return nil, p.errorf("expected type specifier but found '%s'", p.tokenCache.peek().Value)
	}
	p.finish(simple, start)
	return simple, nil
}

var basicTypes = map[TokenType]ast.BasicType{
	TokenVoid:   ast.TypeVoid,
	TokenBool:   ast.TypeBool,
	TokenChar:   ast.TypeChar,
	TokenWChar:  ast.TypeWChar,
	TokenChar16: ast.TypeChar16,
	TokenChar32: ast.TypeChar32,
	TokenInt:    ast.TypeInt,
	TokenFloat:  ast.TypeFloat,
	TokenDouble: ast.TypeDouble,
	TokenAuto:   ast.TypeAuto,
}

func setSpecifier(flags *ast.SpecFlags, t TokenType) {
	switch t {
	case TokenStatic:
		flags.Storage = ast.StorageStatic
	case TokenExtern:
		flags.Storage = ast.StorageExtern
	case TokenRegister:
		flags.Storage = ast.StorageRegister
	case TokenThreadLocal:
		flags.Storage = ast.StorageThreadLocal
	case TokenTypedef:
		flags.Typedef = true
	case TokenInline:
		flags.Inline = true
	case TokenVirtual:
		flags.Virtual = true
	case TokenExplicit:
		flags.Explicit = true
	case TokenFriend:
		flags.Friend = true
	case TokenConstexpr:
		flags.Constexpr = true
	case TokenMutable:
		flags.Mutable = true
	}
}

func mergeSpecifiers(a, b ast.SpecFlags) ast.SpecFlags {
	if b.Storage != ast.StorageNone {
		a.Storage = b.Storage
	}
	a.Const = a.Const || b.Const
	a.Volatile = a.Volatile || b.Volatile
	a.Inline = a.Inline || b.Inline
	a.Virtual = a.Virtual || b.Virtual
	a.Explicit = a.Explicit || b.Explicit
	a.Friend = a.Friend || b.Friend
	a.Constexpr = a.Constexpr || b.Constexpr
	a.Mutable = a.Mutable || b.Mutable
	a.Typedef = a.Typedef || b.Typedef
	return a
}

// parseDecltype parses decltype(expr) or decltype(auto).
func (p *Parser) parseDecltype(spec *ast.SimpleDeclSpec) error {
	p.tokenCache.advance() // consume 'decltype'
	if _, err := p.expect(TokenLeftParen, "("); err != nil {
		return err
	}
	spec.Type = ast.TypeDecltype
	if !p.tokenCache.match(TokenAuto) {
		saved := p.noGreater
		p.noGreater = false
		expr, err := p.parseExpression()
		p.noGreater = saved
		if err != nil {
			return err
		}
		spec.Decltype = expr
	}
	_, err := p.expect(TokenRightParen, ")")
	return err
}

// looksLikeConstructor reports whether the name at the current position
// declares a constructor, destructor or conversion function instead of
// naming a type: X( inside class X, A::A(, A::~A or A::operator.
func (p *Parser) looksLikeConstructor() bool {
	i := 0
	if p.tokenCache.checkAhead(i, TokenDoubleColon) {
		i++
	}
	var idents []string
	for {
		tok := p.tokenCache.peekAhead(i)
		switch {
		case tok.Type == TokenIdentifier:
			idents = append(idents, tok.Value)
			i++
			if p.tokenCache.checkAhead(i, TokenLess) {
				next, ok := p.skipAnglesAhead(i)
				if !ok {
					return false
				}
				i = next
			}
		case len(idents) > 0 && (tok.Type == TokenTilde || tok.Type == TokenOperator):
			return true
		default:
			return false
		}
		if !p.tokenCache.checkAhead(i, TokenDoubleColon) {
			break
		}
		i++
	}

	if !p.tokenCache.checkAhead(i, TokenLeftParen) {
		return false
	}
	if n := len(idents); n > 1 {
		return idents[n-1] == idents[n-2]
	}
	return p.isInsideClass() && idents[0] == p.currentClass()
}

// parseLinkageSpecification handles extern "C" blocks and declarations
func (p *Parser) parseLinkageSpecification() (ast.Declaration, error) {
	start := p.tokenCache.getCurrentPosition()
	p.tokenCache.advance() // consume 'extern'
	lit := p.tokenCache.advance()
	ls := &ast.LinkageSpecification{Linkage: strings.Trim(lit.Value, `"`)}

	if p.tokenCache.check(TokenLeftBrace) {
		open := p.tokenCache.advance()
		for !p.tokenCache.check(TokenRightBrace) && !p.tokenCache.isAtEnd() {
			ls.Decls = p.appendDeclaration(ls.Decls, declTopLevel)
		}
		if err := p.closeBrace(open); err != nil {
			return nil, err
		}
	} else {
		decl, err := p.parseDeclaration(declTopLevel)
		if err != nil {
			return nil, err
		}
		if decl != nil {
			ls.Decls = append(ls.Decls, decl)
		}
	}
	p.finish(ls, start)
	return ls, nil
}

// parseStaticAssert handles static_assert(cond[, message]);
func (p *Parser) parseStaticAssert() (ast.Declaration, error) {
	start := p.tokenCache.getCurrentPosition()
	p.tokenCache.advance() // consume 'static_assert'
	if _, err := p.expect(TokenLeftParen, "("); err != nil {
		return nil, err
	}
	saved := p.noGreater
	p.noGreater = false
	defer func() { p.noGreater = saved }()

	cond, err := p.parseAssignmentExpression()
	if err != nil {
		return nil, err
	}
	sa := &ast.StaticAssert{Cond: cond}
	if p.tokenCache.match(TokenComma) {
		msg, err := p.parseAssignmentExpression()
		if err != nil {
			return nil, err
		}
		sa.Message = msg
	}
	if _, err := p.expect(TokenRightParen, ")"); err != nil {
		return nil, err
	}
	if err := p.expectSemicolon(); err != nil {
		return nil, err
	}
	p.finish(sa, start)
	return sa, nil
}
