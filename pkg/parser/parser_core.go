package parser

import (
	"fmt"

	"cppsema/pkg/ast"
	"cppsema/pkg/compilation"
	"cppsema/pkg/diag"
)

// Parser is a backtracking recursive-descent parser over preprocessed
// tokens. Syntax errors never abort a parse: the offending span becomes a
// problem node and parsing resumes at the next ';' or closing brace.
type Parser struct {
	ctx        *compilation.Context
	tu         *ast.TranslationUnit
	tokenCache *TokenCache
	cMode      bool

	// quiet parsers (inactive code) report nothing.
	quiet bool
	diags []diag.Diagnostic

	symbols  *symbolTable
	depth    int
	maxDepth int
	// trial counts the speculative parses in progress. Error recovery that
	// accepts incomplete input is disabled inside a trial.
	trial int
	// noGreater is set while parsing a template argument, where '>' ends
	// the argument instead of being an operator.
	noGreater bool
	// templateTrials bounds nested speculative template argument lists.
	templateTrials int
	// pendingTemplate is set between a template parameter list and the
	// class head it introduces.
	pendingTemplate bool
}

// syntaxError is the error type of the parse functions.
type syntaxError struct {
	kind   diag.Kind
	offset int
	length int
	msg    string
}

func (e *syntaxError) Error() string {
	return e.msg
}

// checkpoint is a position the parser can return to.
type checkpoint struct {
	pos   int
	diags int
}

// Parse preprocesses and parses a translation unit. The returned unit is
// always complete and walkable; problems are reported to ctx.
func Parse(ctx *compilation.Context, filename, content string) *ast.TranslationUnit {
	tu := ast.NewTranslationUnit(filename, ast.NewLocationMap())
	res := NewPreprocessor(ctx, tu).Run(filename, content)

	p := newParser(ctx, tu, res.Tokens, nil)
	for _, d := range p.parseTranslationUnit() {
		link(d)
		tu.AddDeclaration(d)
	}
	p.flush()

	// Inactive branches see the names of the active code, which gives the
	// best guesses for declaration/expression decisions.
	for _, region := range res.Inactive {
		q := newParser(ctx, tu, region, p.symbols)
		q.quiet = true
		for _, d := range q.parseTranslationUnit() {
			link(d)
			tu.AddInactiveDeclaration(d)
		}
	}

	end := tu.Locations.Extent()
	ast.SetRange(tu, ast.Range{Offset: 0, Length: end})
	return tu
}

func newParser(ctx *compilation.Context, tu *ast.TranslationUnit, tokens []Token, symbols *symbolTable) *Parser {
	if symbols == nil {
		symbols = newSymbolTable()
	}
	maxDepth := ctx.Config.MaxNestingDepth
	if maxDepth <= 0 {
		maxDepth = 256
	}
	return &Parser{
		ctx:        ctx,
		tu:         tu,
		tokenCache: NewTokenCache(tokens),
		cMode:      !ctx.Config.IsCPlusPlus(),
		symbols:    symbols,
		maxDepth:   maxDepth,
	}
}

// link sets the parent of every node below n.
func link(n ast.Node) {
	ast.Inspect(n, func(c ast.Node) bool {
		ast.Adopt(c, c.Children()...)
		return true
	})
}

// parseTranslationUnit parses declarations until the end of input. A stray
// closing brace becomes a problem declaration.
func (p *Parser) parseTranslationUnit() []ast.Declaration {
	var decls []ast.Declaration
	for !p.tokenCache.isAtEnd() {
		if p.tokenCache.check(TokenRightBrace) {
			start := p.tokenCache.getCurrentPosition()
			tok := p.tokenCache.advance()
			p.report(diag.UnbalancedBrace, tok.Offset, tok.Length, "")
			decls = append(decls, p.problemDeclarationAt(start, diag.UnbalancedBrace))
			continue
		}
		decls = p.appendDeclaration(decls, declTopLevel)
	}
	return decls
}

// appendDeclaration parses one declaration in the given context, recovering
// from errors, and appends the result.
func (p *Parser) appendDeclaration(decls []ast.Declaration, ctx declContext) []ast.Declaration {
	start := p.tokenCache.getCurrentPosition()
	decl, err := p.parseDeclaration(ctx)
	if err != nil {
		p.tokenCache.setPosition(start)
		decl = p.problemDeclaration(start, err)
	}
	if decl == nil {
		return decls
	}
	p.declare(decl)
	return append(decls, decl)
}

// report records a diagnostic unless the parser is quiet. Diagnostics of a
// speculative parse are dropped when the parser backtracks.
func (p *Parser) report(kind diag.Kind, offset, length int, arg string) {
	if p.quiet {
		return
	}
	p.diags = append(p.diags, diag.Diagnostic{Kind: kind, Offset: offset, Length: length, Arg: arg})
}

// flush hands the buffered diagnostics to the context.
func (p *Parser) flush() {
	for _, d := range p.diags {
		p.ctx.Diagnostics.Add(d)
	}
	p.diags = nil
}

func (p *Parser) mark() checkpoint {
	return checkpoint{pos: p.tokenCache.getCurrentPosition(), diags: len(p.diags)}
}

func (p *Parser) reset(cp checkpoint) {
	p.tokenCache.setPosition(cp.pos)
	p.diags = p.diags[:cp.diags]
}

// errorf creates a syntax error at the current token.
func (p *Parser) errorf(format string, args ...interface{}) error {
	tok := p.tokenCache.peek()
	return &syntaxError{kind: diag.SyntaxError, offset: tok.Offset, length: tok.Length, msg: fmt.Sprintf(format, args...)}
}

// expect consumes a token of the given type or fails.
func (p *Parser) expect(tokenType TokenType, what string) (Token, error) {
	if !p.tokenCache.check(tokenType) {
		return Token{}, p.errorf("expected '%s' but found '%s'", what, p.tokenCache.peek().Value)
	}
	return p.tokenCache.advance(), nil
}

// enter guards the recursion depth of nested constructs.
func (p *Parser) enter() error {
	p.depth++
	if p.depth > p.maxDepth {
		tok := p.tokenCache.peek()
		return &syntaxError{kind: diag.NestingTooDeep, offset: tok.Offset, length: tok.Length, msg: "nesting too deep"}
	}
	return nil
}

func (p *Parser) leave() {
	p.depth--
}

// rangeFrom returns the range from the token at start to the last consumed
// token.
func (p *Parser) rangeFrom(start int) ast.Range {
	return p.tokenCache.getRangeFromPositions(start, p.tokenCache.getCurrentPosition()-1)
}

// finish assigns the range from start to the last consumed token to n.
func (p *Parser) finish(n ast.Node, start int) {
	ast.SetRange(n, p.rangeFrom(start))
}

// skipToRecoveryPoint skips to the next ';' (consumed) or past a balanced
// closing brace. A closing brace that does not belong to the skipped span
// is left for the enclosing construct.
func (p *Parser) skipToRecoveryPoint() {
	depth := 0
	for !p.tokenCache.isAtEnd() {
		switch p.tokenCache.peek().Type {
		case TokenLeftBrace:
			depth++
		case TokenRightBrace:
			if depth == 0 {
				return
			}
			depth--
			p.tokenCache.advance()
			if depth == 0 {
				if p.tokenCache.check(TokenSemicolon) {
					p.tokenCache.advance()
				}
				return
			}
			continue
		case TokenSemicolon:
			if depth == 0 {
				p.tokenCache.advance()
				return
			}
		}
		p.tokenCache.advance()
	}
}

// recoverFrom reports err, skips to the next recovery point and returns
// the range of the skipped span together with the problem kind.
func (p *Parser) recoverFrom(start int, err error) (ast.Range, diag.Kind) {
	kind := diag.SyntaxError
	if se, ok := err.(*syntaxError); ok {
		kind = se.kind
		p.report(se.kind, se.offset, se.length, se.msg)
	} else {
		tok := p.tokenCache.at(start)
		p.report(kind, tok.Offset, tok.Length, err.Error())
	}
	p.tokenCache.setPosition(start)
	p.skipToRecoveryPoint()
	if p.tokenCache.getCurrentPosition() == start && !p.tokenCache.isAtEnd() && !p.tokenCache.check(TokenRightBrace) {
		p.tokenCache.advance()
	}
	if p.tokenCache.getCurrentPosition() == start {
		tok := p.tokenCache.at(start)
		return ast.Range{Offset: tok.Offset}, kind
	}
	return p.rangeFrom(start), kind
}

func (p *Parser) problemDeclaration(start int, err error) ast.Declaration {
	rng, kind := p.recoverFrom(start, err)
	d := &ast.ProblemDeclaration{Problem: kind}
	ast.SetRange(d, rng)
	ast.AddFlags(d, ast.FlagProblem)
	return d
}

func (p *Parser) problemDeclarationAt(start int, kind diag.Kind) ast.Declaration {
	d := &ast.ProblemDeclaration{Problem: kind}
	p.finish(d, start)
	ast.AddFlags(d, ast.FlagProblem)
	return d
}

func (p *Parser) problemStatement(start int, err error) ast.Statement {
	rng, kind := p.recoverFrom(start, err)
	s := &ast.ProblemStatement{Problem: kind}
	ast.SetRange(s, rng)
	ast.AddFlags(s, ast.FlagProblem)
	return s
}

// missingSemicolon reports a missing ';' after the last consumed token and
// reports whether the construct may be accepted without it. Incomplete
// input is only accepted outside speculative parses, when the next token
// starts a new line or closes the enclosing block.
func (p *Parser) missingSemicolon() bool {
	if p.trial > 0 {
		return false
	}
	prev, next := p.tokenCache.previous(), p.tokenCache.peek()
	if next.Type != TokenEOF && next.Type != TokenRightBrace && next.Line == prev.Line {
		return false
	}
	p.report(diag.MissingSemicolon, prev.End(), 0, "")
	return true
}

// expectSemicolon consumes the ';' ending a declaration or statement.
func (p *Parser) expectSemicolon() error {
	if p.tokenCache.match(TokenSemicolon) {
		return nil
	}
	if p.missingSemicolon() {
		return nil
	}
	return p.errorf("expected ';' but found '%s'", p.tokenCache.peek().Value)
}

// closeBrace consumes the '}' matching open. A block left open at the end
// of input is reported and accepted.
func (p *Parser) closeBrace(open Token) error {
	if p.tokenCache.match(TokenRightBrace) {
		return nil
	}
	if p.tokenCache.isAtEnd() && p.trial == 0 {
		p.report(diag.UnbalancedBrace, open.Offset, open.Length, "")
		return nil
	}
	return p.errorf("expected '}' but found '%s'", p.tokenCache.peek().Value)
}

// speculate runs parse as a trial. On failure the position and the
// diagnostics are restored.
func (p *Parser) speculate(parse func() error) bool {
	cp := p.mark()
	p.trial++
	err := parse()
	p.trial--
	if err != nil {
		p.reset(cp)
		return false
	}
	return true
}

// skipBalanced skips a parenthesized, bracketed or braced group starting
// at the current token.
func (p *Parser) skipBalanced() error {
	first := p.tokenCache.peek()
	open := first.Type
	var close TokenType
	switch open {
	case TokenLeftParen:
		close = TokenRightParen
	case TokenLeftBracket:
		close = TokenRightBracket
	case TokenLeftBrace:
		close = TokenRightBrace
	default:
		return p.errorf("expected group")
	}
	depth := 0
	for !p.tokenCache.isAtEnd() {
		t := p.tokenCache.advance().Type
		if t == open {
			depth++
		} else if t == close {
			depth--
			if depth == 0 {
				return nil
			}
		}
	}
	return &syntaxError{kind: diag.SyntaxError, offset: first.Offset, length: first.Length, msg: "unbalanced '" + first.Value + "'"}
}

// skipAttributes skips [[...]], __attribute__((...)), __declspec(...) and
// alignas(...).
func (p *Parser) skipAttributes() {
	for {
		tok := p.tokenCache.peek()
		switch {
		case tok.Type == TokenLeftBracket && p.tokenCache.checkAhead(1, TokenLeftBracket):
			if p.skipBalanced() != nil {
				return
			}
		case tok.Type == TokenIdentifier && (tok.Value == "__attribute__" || tok.Value == "__declspec" || tok.Value == "alignas") &&
			p.tokenCache.checkAhead(1, TokenLeftParen):
			p.tokenCache.advance()
			if p.skipBalanced() != nil {
				return
			}
		default:
			return
		}
	}
}

// leafName creates a name for a single identifier token.
func (p *Parser) leafName(tok Token, ident string) *ast.Name {
	n := &ast.Name{Ident: ident}
	ast.SetRange(n, ast.Range{Offset: tok.Offset, Length: tok.Length})
	if tok.Expansion != nil {
		ast.SetImage(n, tok.Image)
	}
	return n
}
