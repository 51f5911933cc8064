package parser

import (
	"strings"

	"cppsema/pkg/ast"
	"cppsema/pkg/compilation"
	"cppsema/pkg/diag"
)

// Preprocessor expands macros and evaluates conditional directives. It
// produces the token sequence consumed by the parser and the token regions
// of branches that were not taken, and records macro definitions,
// expansions, includes and conditional directives in the translation unit.
type Preprocessor struct {
	ctx *compilation.Context
	tu  *ast.TranslationUnit

	src   *source
	conds []*condFrame
	out   []Token

	inactive [][]Token
	region   []Token

	bodies       map[*ast.MacroDefinition][]Token
	once         map[string]bool
	includeDepth int
	truncated    bool
}

// Result is the output of a preprocessor run.
type Result struct {
	// Tokens are the active tokens in sequence coordinates, terminated by an
	// EOF token.
	Tokens []Token
	// Inactive holds one token list per region of skipped conditional code.
	Inactive [][]Token
}

// condFrame tracks one #if group.
type condFrame struct {
	taken        bool // a branch of the group was taken
	active       bool // the current branch is active
	parentActive bool
	sawElse      bool
	rng          ast.Range
}

// NewPreprocessor creates a preprocessor writing into tu. Macros are kept
// in the context's macro table.
func NewPreprocessor(ctx *compilation.Context, tu *ast.TranslationUnit) *Preprocessor {
	return &Preprocessor{
		ctx:    ctx,
		tu:     tu,
		bodies: make(map[*ast.MacroDefinition][]Token),
		once:   make(map[string]bool),
	}
}

// Run preprocesses the main file of the translation unit.
func (pp *Preprocessor) Run(filename, content string) Result {
	pp.definePredefined()
	pp.processFile(ast.NewSourceFile(filename, content))

	sortComments(pp.tu.Comments)
	eof := Token{Type: TokenEOF, Offset: pp.tu.Locations.Extent()}
	return Result{Tokens: append(pp.out, eof), Inactive: pp.inactive}
}

func (pp *Preprocessor) report(kind diag.Kind, offset, length int, arg string) {
	pp.ctx.Report(kind, offset, length, arg)
}

func (pp *Preprocessor) cMode() bool {
	return !pp.ctx.Config.IsCPlusPlus()
}

// active reports whether tokens at the current position are compiled.
func (pp *Preprocessor) active() bool {
	return len(pp.conds) == 0 || pp.conds[len(pp.conds)-1].active
}

func (pp *Preprocessor) emit(tok Token) {
	if pp.truncated {
		return
	}
	if len(pp.out) >= pp.ctx.Config.MaxTokens {
		pp.truncated = true
		pp.report(diag.TooManyTokens, tok.Offset, tok.Length, "")
		return
	}
	pp.out = append(pp.out, tok)
}

func (pp *Preprocessor) flushRegion() {
	if len(pp.region) > 0 {
		pp.inactive = append(pp.inactive, pp.region)
		pp.region = nil
	}
}

// processFile preprocesses one file. Included files are processed
// recursively at their directive.
func (pp *Preprocessor) processFile(file *ast.SourceFile) {
	src := newSource(pp.tu.Locations, file, pp.cMode(), pp.ctx.Config.MaxTokens)
	savedSrc, savedConds := pp.src, pp.conds
	pp.src, pp.conds = src, nil

	ex := &expander{pp: pp, src: src, record: true}
	for {
		tok, fromFile := ex.read()
		if tok.Type == TokenEOF {
			break
		}
		if fromFile && tok.bol && tok.Type == TokenHash {
			pp.directive(ex, tok)
			continue
		}
		active := pp.active()
		if tok.Problem != diag.KindNone && active {
			pp.report(tok.Problem, tok.Offset, tok.Length, "")
		}
		if tok.Type == TokenError {
			continue
		}
		if !active {
			pp.region = append(pp.region, tok)
			continue
		}
		if ex.expand(tok) {
			continue
		}
		pp.emit(tok)
	}

	for _, c := range pp.conds {
		pp.report(diag.UnterminatedConditional, c.rng.Offset, c.rng.Length, "")
	}
	pp.flushRegion()
	src.close(len(file.Content))
	pp.recordComments(src)
	pp.src, pp.conds = savedSrc, savedConds
}

// directive handles the line starting at hash.
func (pp *Preprocessor) directive(ex *expander, hash Token) {
	line := pp.src.restOfLine()
	rng := ast.Range{Offset: hash.Offset, Length: hash.Length}
	if len(line) > 0 {
		last := line[len(line)-1]
		rng.Length = pp.src.seq(last.End()) - hash.Offset
	}
	if len(line) == 0 {
		return // null directive
	}

	name, args := line[0], line[1:]
	if name.Type == TokenNumber {
		return // line marker
	}

	wasActive := pp.active()
	switch name.Value {
	case "if", "ifdef", "ifndef":
		pp.openConditional(ex, name.Value, args, rng)
	case "elif":
		pp.elseIf(ex, args, rng)
	case "else":
		pp.elseBranch(rng)
	case "endif":
		pp.endIf(rng)
	default:
		if wasActive {
			pp.otherDirective(ex, name, args, rng)
		}
		return
	}
	if !wasActive && pp.active() {
		pp.flushRegion()
	}
}

func (pp *Preprocessor) otherDirective(ex *expander, name Token, args []Token, rng ast.Range) {
	switch name.Value {
	case "define":
		pp.define(args, rng)
	case "undef":
		if len(args) == 0 || !isIdentLike(args[0]) {
			pp.report(diag.MalformedDirective, rng.Offset, rng.Length, "undef")
			return
		}
		pp.ctx.Macros.Undefine(args[0].Value)
	case "include", "include_next", "import":
		pp.include(ex, args, rng)
	case "error":
		pp.report(diag.ErrorDirective, rng.Offset, rng.Length, pp.src.text(args))
	case "warning":
		pp.report(diag.WarningDirective, rng.Offset, rng.Length, pp.src.text(args))
	case "pragma":
		if len(args) == 1 && args[0].Value == "once" {
			pp.once[pp.src.file.Name] = true
		}
	case "line", "ident", "sccs", "assert", "unassert":
	default:
		pp.report(diag.InvalidDirective, rng.Offset, rng.Length, name.Value)
	}
}

func (pp *Preprocessor) recordConditional(directive string, args []Token, rng ast.Range, taken bool) {
	d := &ast.ConditionalDirective{
		Directive: directive,
		Condition: pp.src.text(args),
		Taken:     taken,
	}
	ast.SetRange(d, rng)
	pp.tu.AddDirective(d)
}

func (pp *Preprocessor) openConditional(ex *expander, directive string, args []Token, rng ast.Range) {
	parentActive := pp.active()
	value := false
	if parentActive {
		switch directive {
		case "if":
			value = pp.evalCondition(args, rng)
		default:
			if len(args) == 0 || !isIdentLike(args[0]) {
				pp.report(diag.MalformedDirective, rng.Offset, rng.Length, directive)
			} else {
				value = pp.ctx.Macros.Defined(args[0].Value) == (directive == "ifdef")
			}
		}
	}
	frame := &condFrame{
		taken:        value,
		active:       parentActive && value,
		parentActive: parentActive,
		rng:          rng,
	}
	pp.conds = append(pp.conds, frame)
	pp.recordConditional(directive, args, rng, frame.active)
}

func (pp *Preprocessor) elseIf(ex *expander, args []Token, rng ast.Range) {
	if len(pp.conds) == 0 || pp.conds[len(pp.conds)-1].sawElse {
		pp.report(diag.UnbalancedConditional, rng.Offset, rng.Length, "elif")
		return
	}
	frame := pp.conds[len(pp.conds)-1]
	frame.active = false
	if frame.parentActive && !frame.taken {
		frame.active = pp.evalCondition(args, rng)
		frame.taken = frame.active
	}
	pp.recordConditional("elif", args, rng, frame.active)
}

func (pp *Preprocessor) elseBranch(rng ast.Range) {
	if len(pp.conds) == 0 || pp.conds[len(pp.conds)-1].sawElse {
		pp.report(diag.UnbalancedConditional, rng.Offset, rng.Length, "else")
		return
	}
	frame := pp.conds[len(pp.conds)-1]
	frame.active = frame.parentActive && !frame.taken
	frame.taken = true
	frame.sawElse = true
	pp.recordConditional("else", nil, rng, frame.active)
}

func (pp *Preprocessor) endIf(rng ast.Range) {
	if len(pp.conds) == 0 {
		pp.report(diag.UnbalancedConditional, rng.Offset, rng.Length, "endif")
		return
	}
	pp.conds = pp.conds[:len(pp.conds)-1]
	pp.recordConditional("endif", nil, rng, pp.active())
}

// define handles #define. Body tokens are cached with their image in the
// definition.
func (pp *Preprocessor) define(args []Token, rng ast.Range) {
	if len(args) == 0 || !isIdentLike(args[0]) {
		pp.report(diag.MalformedDirective, rng.Offset, rng.Length, "define")
		return
	}
	nameTok := args[0]
	def := &ast.MacroDefinition{
		Name:       nameTok.Value,
		File:       pp.src.file.Name,
		NameOffset: nameTok.Offset,
	}
	body := args[1:]
	replStart := nameTok.End()
	if len(body) > 0 && body[0].Type == TokenLeftParen && !body[0].space {
		params, variadic, rest, ok := parseMacroParams(body[1:])
		if !ok {
			pp.report(diag.MalformedDirective, rng.Offset, rng.Length, nameTok.Value)
			return
		}
		def.FunctionLike = true
		def.Params = params
		def.Variadic = variadic
		replStart = body[len(body)-len(rest)-1].End()
		body = rest
	}
	if len(body) > 0 {
		replStart = body[0].Offset
		def.Replacement = pp.src.text(body)
	}
	def.ReplacementOffset = replStart

	tokens := make([]Token, len(body))
	for i, t := range body {
		t.Image = ast.ImageLocation{Kind: ast.ImageMacroDefinition, File: def.File, Offset: t.Offset, Length: t.Length}
		t.bol = false
		tokens[i] = t
	}

	prev := pp.ctx.Macros.Define(def)
	if prev != nil && !pp.sameDefinition(prev, def, tokens) {
		pp.report(diag.MacroRedefinition, rng.Offset, rng.Length, def.Name)
	}
	pp.bodies[def] = tokens
	ast.SetRange(def, rng)
	pp.tu.AddMacroDefinition(def)
}

// parseMacroParams parses the parameter list after '(' and returns the
// tokens after ')'.
func parseMacroParams(toks []Token) (params []string, variadic bool, rest []Token, ok bool) {
	i := 0
	if i < len(toks) && toks[i].Type == TokenRightParen {
		return nil, false, toks[i+1:], true
	}
	for i < len(toks) {
		t := toks[i]
		switch {
		case t.Type == TokenEllipsis:
			params = append(params, "__VA_ARGS__")
			variadic = true
			i++
		case isIdentLike(t):
			params = append(params, t.Value)
			i++
			if i < len(toks) && toks[i].Type == TokenEllipsis {
				variadic = true
				i++
			}
		default:
			return nil, false, nil, false
		}
		if i >= len(toks) {
			return nil, false, nil, false
		}
		if toks[i].Type == TokenRightParen {
			return params, variadic, toks[i+1:], true
		}
		if toks[i].Type != TokenComma || variadic {
			return nil, false, nil, false
		}
		i++
	}
	return nil, false, nil, false
}

func (pp *Preprocessor) sameDefinition(a, b *ast.MacroDefinition, bTokens []Token) bool {
	if a.FunctionLike != b.FunctionLike || a.Variadic != b.Variadic || len(a.Params) != len(b.Params) {
		return false
	}
	for i := range a.Params {
		if a.Params[i] != b.Params[i] {
			return false
		}
	}
	return spelling(pp.bodies[a]) == spelling(bTokens)
}

// spelling renders tokens with single spaces where whitespace separated
// them.
func spelling(toks []Token) string {
	var sb strings.Builder
	for i, t := range toks {
		if i > 0 && t.space {
			sb.WriteByte(' ')
		}
		sb.WriteString(t.Value)
	}
	return sb.String()
}

// include handles #include. The included file is spliced into the
// sequence after the directive line.
func (pp *Preprocessor) include(ex *expander, args []Token, rng ast.Range) {
	path, system, ok := pp.includePath(args)
	if !ok {
		pp.report(diag.MalformedDirective, rng.Offset, rng.Length, "include")
		return
	}

	node := &ast.IncludeDirective{Path: path, System: system}
	ast.SetRange(node, rng)
	pp.tu.AddInclude(node)

	resolved, found := pp.ctx.ResolveInclude(path, system, pp.src.file.Name)
	if !found {
		pp.report(diag.IncludeNotFound, rng.Offset, rng.Length, path)
		return
	}
	node.Resolved, node.Found = resolved, true
	if pp.once[resolved] {
		return
	}
	if pp.includeDepth >= pp.ctx.Config.MaxIncludeDepth {
		pp.report(diag.IncludeTooDeep, rng.Offset, rng.Length, path)
		return
	}
	content, err := pp.ctx.Files.ReadFile(resolved)
	if err != nil {
		pp.report(diag.IncludeNotFound, rng.Offset, rng.Length, path)
		return
	}

	src := pp.src
	lineEnd := src.lineEnd(args[len(args)-1].End())
	src.close(lineEnd)
	pp.includeDepth++
	pp.processFile(ast.NewSourceFile(resolved, content))
	pp.includeDepth--
	src.reopen(lineEnd)
}

func (pp *Preprocessor) includePath(args []Token) (path string, system, ok bool) {
	if len(args) == 0 {
		return "", false, false
	}
	first := args[0]
	switch first.Type {
	case TokenString:
		return strings.Trim(first.Value, `"`), false, true
	case TokenLess:
		for _, t := range args[1:] {
			if t.Type == TokenGreater {
				return pp.src.file.Content[first.End():t.Offset], true, true
			}
		}
		return "", false, false
	}

	// #include MACRO
	sub := &expander{pp: pp}
	sub.push(pp.src.translateAll(args))
	expanded := sub.expandAll()
	if len(expanded) == 0 {
		return "", false, false
	}
	if expanded[0].Type == TokenString {
		return strings.Trim(expanded[0].Value, `"`), false, true
	}
	if expanded[0].Type == TokenLess {
		var sb strings.Builder
		for _, t := range expanded[1:] {
			if t.Type == TokenGreater {
				return sb.String(), true, true
			}
			sb.WriteString(t.Value)
		}
	}
	return "", false, false
}

const (
	builtinFile     = "<built-in>"
	commandLineFile = "<command-line>"
)

// definePredefined installs the predefined and configured macros.
func (pp *Preprocessor) definePredefined() {
	cfg := pp.ctx.Config
	if cfg.IsCPlusPlus() {
		pp.defineBuiltin("__cplusplus", "201703L", builtinFile)
	}
	pp.defineBuiltin("__STDC__", "1", builtinFile)
	pp.defineBuiltin("__FILE__", "", builtinFile)
	pp.defineBuiltin("__LINE__", "", builtinFile)
	for _, name := range cfg.DefineNames() {
		pp.defineBuiltin(name, cfg.Defines[name], commandLineFile)
	}
	for _, name := range cfg.Undefines {
		pp.ctx.Macros.Undefine(name)
	}
}

func (pp *Preprocessor) defineBuiltin(name, value, file string) {
	def := &ast.MacroDefinition{
		Name:        name,
		Replacement: value,
		File:        file,
		Builtin:     true,
	}
	var tokens []Token
	for _, t := range fragmentTokens(value, pp.cMode()) {
		t.Image = ast.ImageLocation{Kind: ast.ImageMacroDefinition, File: file, Offset: t.Offset, Length: t.Length}
		tokens = append(tokens, t)
	}
	pp.ctx.Macros.Define(def)
	pp.bodies[def] = tokens
}

// fragmentTokens tokenizes a piece of text outside any file, dropping
// whitespace and comments.
func fragmentTokens(text string, cMode bool) []Token {
	tz := NewTokenizer(text)
	tz.SetCMode(cMode)
	var out []Token
	space := false
	for _, t := range tz.Tokenize() {
		switch t.Type {
		case TokenEOF:
			return out
		case TokenWhitespace, TokenNewline, TokenLineComment, TokenBlockComment:
			space = true
			continue
		}
		t.space = space
		space = false
		out = append(out, t)
	}
	return out
}

func isIdentLike(t Token) bool {
	return t.Type == TokenIdentifier || t.IsKeyword()
}

// source reads the significant tokens of one file and maps their offsets
// into the sequence.
type source struct {
	lm   *ast.LocationMap
	file *ast.SourceFile
	toks []Token
	pos  int
	line int

	pieceStart int
	pieceSeq   int

	comments []Token
}

func newSource(lm *ast.LocationMap, file *ast.SourceFile, cMode bool, maxTokens int) *source {
	lm.AddFile(file)
	tz := NewTokenizer(file.Content)
	tz.SetCMode(cMode)
	tz.SetMaxTokens(maxTokens)

	s := &source{lm: lm, file: file, pieceSeq: lm.Extent()}
	bol, space := true, false
	for _, t := range tz.Tokenize() {
		switch t.Type {
		case TokenNewline:
			bol, space = true, false
			continue
		case TokenLineComment, TokenBlockComment:
			s.comments = append(s.comments, t)
			space = true
			continue
		case TokenWhitespace:
			space = true
			continue
		case TokenError:
			// Keep unterminated literals as best-effort tokens.
			switch t.Problem {
			case diag.UnterminatedString:
				t.Type = TokenString
				t.Value = file.Content[t.Offset : t.Offset+t.Length]
			case diag.UnterminatedChar:
				t.Type = TokenCharLiteral
				t.Value = file.Content[t.Offset : t.Offset+t.Length]
			}
		}
		t.bol, t.space = bol, space
		bol, space = false, false
		s.toks = append(s.toks, t)
	}
	return s
}

// seq maps a file offset of the current piece into the sequence.
func (s *source) seq(offset int) int {
	return s.pieceSeq + offset - s.pieceStart
}

func (s *source) translate(t Token) Token {
	t.Image = ast.ImageLocation{Kind: ast.ImageRegularCode, File: s.file.Name, Offset: t.Offset, Length: t.Length}
	t.Offset = s.seq(t.Offset)
	return t
}

func (s *source) translateAll(toks []Token) []Token {
	out := make([]Token, len(toks))
	for i, t := range toks {
		out[i] = s.translate(t)
	}
	return out
}

func (s *source) next() Token {
	t := s.toks[s.pos]
	if t.Type != TokenEOF {
		s.pos++
		s.line = t.Line
	}
	return s.translate(t)
}

func (s *source) peek() Token {
	return s.translate(s.toks[s.pos])
}

// restOfLine consumes the tokens up to the end of the current line. The
// returned tokens keep their file offsets.
func (s *source) restOfLine() []Token {
	start := s.pos
	for s.toks[s.pos].Type != TokenEOF && !s.toks[s.pos].bol {
		s.pos++
	}
	return s.toks[start:s.pos]
}

// text returns the file text spanned by raw tokens.
func (s *source) text(toks []Token) string {
	if len(toks) == 0 {
		return ""
	}
	return s.file.Content[toks[0].Offset:toks[len(toks)-1].End()]
}

// lineEnd returns the offset after the newline that ends the line
// containing offset.
func (s *source) lineEnd(offset int) int {
	if i := strings.IndexByte(s.file.Content[offset:], '\n'); i >= 0 {
		return offset + i + 1
	}
	return len(s.file.Content)
}

// close appends the current piece, ending at the file offset end, to the
// location map.
func (s *source) close(end int) {
	s.lm.Append(s.file, s.pieceStart, end)
}

// reopen starts a new piece at the file offset start.
func (s *source) reopen(start int) {
	s.pieceStart = start
	s.pieceSeq = s.lm.Extent()
}
