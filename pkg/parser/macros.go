package parser

import (
	"strconv"
	"strings"

	"cppsema/pkg/ast"
	"cppsema/pkg/diag"
)

// hideset is the set of macro names a token must not be expanded by. Values
// are never modified after creation, so tokens share them freely.
type hideset []string

func (h hideset) contains(name string) bool {
	for _, n := range h {
		if n == name {
			return true
		}
	}
	return false
}

func (h hideset) with(name string) hideset {
	if h.contains(name) {
		return h
	}
	out := make(hideset, len(h), len(h)+1)
	copy(out, h)
	return append(out, name)
}

func (h hideset) union(o hideset) hideset {
	out := h
	for _, n := range o {
		out = out.with(n)
	}
	return out
}

func (h hideset) intersect(o hideset) hideset {
	var out hideset
	for _, n := range h {
		if o.contains(n) {
			out = append(out, n)
		}
	}
	return out
}

// frame is a list of tokens pushed back by a macro expansion.
type frame struct {
	toks []Token
	pos  int
}

// expander rescans tokens for macro invocations. The file-level expander
// reads from a source once its frames are exhausted; sub-expanders used for
// macro arguments and directive lines only read their frames.
type expander struct {
	pp     *Preprocessor
	src    *source
	frames []*frame
	// parent receives the expansions found while pre-expanding an argument.
	parent *ast.MacroExpansion
	record bool
	depth  int
}

func (e *expander) push(toks []Token) {
	if len(toks) > 0 {
		e.frames = append(e.frames, &frame{toks: toks})
	}
}

// read returns the next token and whether it came straight from the file.
func (e *expander) read() (Token, bool) {
	for len(e.frames) > 0 {
		f := e.frames[len(e.frames)-1]
		if f.pos < len(f.toks) {
			t := f.toks[f.pos]
			f.pos++
			return t, false
		}
		e.frames = e.frames[:len(e.frames)-1]
	}
	if e.src != nil {
		return e.src.next(), true
	}
	return Token{Type: TokenEOF}, false
}

func (e *expander) peek() (Token, bool) {
	for i := len(e.frames) - 1; i >= 0; i-- {
		if f := e.frames[i]; f.pos < len(f.toks) {
			return f.toks[f.pos], false
		}
	}
	if e.src != nil {
		return e.src.peek(), true
	}
	return Token{Type: TokenEOF}, false
}

// expandAll expands every token of the frames.
func (e *expander) expandAll() []Token {
	var out []Token
	for {
		t, _ := e.read()
		if t.Type == TokenEOF {
			return out
		}
		if e.expand(t) {
			continue
		}
		out = append(out, t)
	}
}

// expand replaces tok by its expansion if it names a macro that may be
// expanded here. It reports false when tok is to be kept as is.
func (e *expander) expand(tok Token) bool {
	if !isIdentLike(tok) || tok.hide.contains(tok.Value) {
		return false
	}
	def := e.pp.ctx.Macros.Lookup(tok.Value)
	if def == nil {
		return false
	}
	if e.depth+len(e.frames) >= e.pp.ctx.Config.MaxMacroExpansionDepth {
		e.pp.report(diag.ExpansionTooDeep, tok.Offset, tok.Length, tok.Value)
		return false
	}
	rng := ast.Range{Offset: tok.Offset, Length: tok.Length}

	if def.Builtin && (def.Name == "__FILE__" || def.Name == "__LINE__") {
		e.expandBuiltin(tok, def, rng)
		return true
	}

	if !def.FunctionLike {
		exp := e.newExpansion(def, tok, rng, nil)
		e.push(e.substitute(def, exp, nil, tok.hide.with(def.Name)))
		return true
	}

	if next, _ := e.peek(); next.Type != TokenLeftParen {
		return false
	}
	lparen, _ := e.read()
	args, rparen, consumed, ok := e.collectArgs(def, lparen)
	if !ok {
		e.pp.report(diag.UnterminatedMacroArgs, tok.Offset, tok.Length, def.Name)
		e.push(consumed)
		return false
	}
	rng = rng.Union(ast.Range{Offset: rparen.Offset, Length: rparen.Length})
	if args, ok = matchArity(def, args); !ok {
		e.pp.report(diag.MacroArgCount, rng.Offset, rng.Length, def.Name)
		e.push(consumed)
		return false
	}

	exp := e.newExpansion(def, tok, rng, argRanges(args, rng))
	hs := tok.hide.intersect(rparen.hide).with(def.Name)
	e.push(e.substitute(def, exp, args, hs))
	return true
}

// collectArgs reads the arguments of a function-like invocation after '('.
// On failure the consumed tokens are returned so they can be pushed back.
func (e *expander) collectArgs(def *ast.MacroDefinition, lparen Token) (args [][]Token, rparen Token, consumed []Token, ok bool) {
	consumed = []Token{lparen}
	var cur []Token
	depth := 0
	for {
		t, fromFile := e.peek()
		if t.Type == TokenEOF || (fromFile && t.bol && t.Type == TokenHash) {
			return nil, Token{}, consumed, false
		}
		e.read()
		if t.Type == TokenError {
			continue
		}
		consumed = append(consumed, t)
		switch t.Type {
		case TokenLeftParen:
			depth++
		case TokenRightParen:
			if depth == 0 {
				return append(args, cur), t, consumed, true
			}
			depth--
		case TokenComma:
			// The variadic parameter takes the remaining commas.
			if depth == 0 && !(def.Variadic && len(args) == len(def.Params)-1) {
				args = append(args, cur)
				cur = nil
				continue
			}
		}
		cur = append(cur, t)
	}
}

func matchArity(def *ast.MacroDefinition, args [][]Token) ([][]Token, bool) {
	n := len(def.Params)
	switch {
	case n == 0:
		return nil, len(args) == 1 && len(args[0]) == 0
	case len(args) == n:
		return args, true
	case def.Variadic && len(args) == n-1:
		return append(args, nil), true
	}
	return args, false
}

// argRanges computes the call site ranges of the arguments.
func argRanges(args [][]Token, invocation ast.Range) []ast.Range {
	out := make([]ast.Range, len(args))
	for i, a := range args {
		if len(a) == 0 {
			out[i] = ast.Range{Offset: invocation.Offset}
			continue
		}
		first, last := a[0], a[len(a)-1]
		if first.Expansion != nil || last.Expansion != nil {
			out[i] = ast.Range{Offset: first.Offset}
			continue
		}
		out[i] = ast.Range{Offset: first.Offset, Length: last.End() - first.Offset}
	}
	return out
}

func (e *expander) newExpansion(def *ast.MacroDefinition, tok Token, rng ast.Range, args []ast.Range) *ast.MacroExpansion {
	exp := &ast.MacroExpansion{Macro: def, Args: args}
	ast.SetRange(exp, rng)
	if !e.record {
		return exp
	}
	switch {
	case tok.Expansion != nil:
		tok.Expansion.AddNested(exp)
	case e.parent != nil:
		e.parent.AddNested(exp)
	default:
		e.pp.tu.AddExpansion(exp)
	}
	return exp
}

func (e *expander) expandBuiltin(tok Token, def *ast.MacroDefinition, rng ast.Range) {
	exp := e.newExpansion(def, tok, rng, nil)
	res := tok
	if def.Name == "__FILE__" {
		res.Type = TokenString
		res.Value = strconv.Quote(e.pp.src.file.Name)
	} else {
		res.Type = TokenNumber
		res.Value = strconv.Itoa(e.pp.src.line)
	}
	res.Expansion = exp
	res.Image = ast.ImageLocation{Kind: ast.ImageMacroDefinition, File: def.File, Expansion: exp}
	res.hide = tok.hide.with(def.Name)
	e.push([]Token{res})
}

// substitute builds the replacement of one invocation. Replacement tokens
// take the invocation range; argument tokens keep their own offsets and
// report the call site as their image.
func (e *expander) substitute(def *ast.MacroDefinition, exp *ast.MacroExpansion, args [][]Token, hs hideset) []Token {
	body := e.pp.bodies[def]
	rng := exp.Range()

	index := make(map[string]int, len(def.Params))
	for i, p := range def.Params {
		index[p] = i
	}
	argOf := func(t Token) int {
		if !def.FunctionLike || !isIdentLike(t) {
			return -1
		}
		if i, ok := index[t.Value]; ok && i < len(args) {
			return i
		}
		return -1
	}
	fromBody := func(t Token) Token {
		t.Offset, t.Length = rng.Offset, rng.Length
		t.Expansion = exp
		t.Image.Expansion = exp
		t.hide = t.hide.union(hs)
		return t
	}
	fromArg := func(t Token) Token {
		if t.Image.Kind == ast.ImageRegularCode {
			t.Image.Kind = ast.ImageMacroArgument
			t.Image.Expansion = exp
		}
		t.Expansion = exp
		t.hide = t.hide.union(hs)
		return t
	}

	expanded := make([][]Token, len(args))
	done := make([]bool, len(args))
	preExpand := func(i int) []Token {
		if !done[i] {
			sub := &expander{pp: e.pp, parent: exp, record: e.record, depth: e.depth + len(e.frames) + 1}
			sub.push(append([]Token(nil), args[i]...))
			expanded[i] = sub.expandAll()
			done[i] = true
		}
		return expanded[i]
	}

	var out []Token
	for i := 0; i < len(body); i++ {
		t := body[i]

		// #param
		if def.FunctionLike && t.Type == TokenHash && i+1 < len(body) {
			if a := argOf(body[i+1]); a >= 0 {
				out = append(out, fromBody(stringize(t, args[a])))
				i++
				continue
			}
		}

		// , ## __VA_ARGS__ drops the comma when the variadic argument is empty.
		if t.Type == TokenComma && i+2 < len(body) && body[i+1].Type == TokenHashHash {
			if a := argOf(body[i+2]); a >= 0 && def.Variadic && a == len(def.Params)-1 {
				if len(args[a]) == 0 {
					i += 2
				} else {
					out = append(out, fromBody(t))
					i++
				}
				continue
			}
		}

		if t.Type == TokenHashHash {
			if len(out) == 0 || i+1 >= len(body) {
				e.pp.report(diag.InvalidPaste, rng.Offset, rng.Length, def.Name)
				continue
			}
			rhs := body[i+1]
			i++
			if a := argOf(rhs); a >= 0 {
				if len(args[a]) > 0 {
					out = e.paste(out, t, fromArg(args[a][0]), exp)
					for _, at := range args[a][1:] {
						out = append(out, fromArg(at))
					}
				}
				continue
			}
			out = e.paste(out, t, fromBody(rhs), exp)
			continue
		}

		if a := argOf(t); a >= 0 {
			if i+1 < len(body) && body[i+1].Type == TokenHashHash {
				if len(args[a]) == 0 {
					// An empty left operand leaves the right operand alone.
					if i+2 < len(body) {
						rhs := body[i+2]
						if b := argOf(rhs); b >= 0 {
							for _, at := range args[b] {
								out = append(out, fromArg(at))
							}
						} else {
							out = append(out, fromBody(rhs))
						}
						i += 2
					} else {
						i++
					}
					continue
				}
				for _, at := range args[a] {
					out = append(out, fromArg(at))
				}
				continue
			}
			for _, at := range preExpand(a) {
				out = append(out, fromArg(at))
			}
			continue
		}

		out = append(out, fromBody(t))
	}
	return out
}

// paste concatenates the last token of out with rhs. A concatenation that
// does not form a single token is reported and both tokens are kept.
func (e *expander) paste(out []Token, op, rhs Token, exp *ast.MacroExpansion) []Token {
	lhs := out[len(out)-1]
	text := lhs.Value + rhs.Value
	toks := fragmentTokens(text, e.pp.cMode())
	if len(toks) != 1 || toks[0].Type == TokenError {
		rng := exp.Range()
		e.pp.report(diag.InvalidPaste, rng.Offset, rng.Length, text)
		return append(out, rhs)
	}
	res := toks[0]
	res.Offset, res.Length = exp.Range().Offset, exp.Range().Length
	res.Line = lhs.Line
	res.Column = lhs.Column
	res.Expansion = exp
	res.Image = op.Image
	res.Image.Expansion = exp
	res.hide = lhs.hide.union(rhs.hide)
	res.space = lhs.space
	out[len(out)-1] = res
	return out
}

// stringize implements the # operator. The result keeps the location of
// the operator in the definition.
func stringize(op Token, arg []Token) Token {
	var sb strings.Builder
	sb.WriteByte('"')
	for i, t := range arg {
		if i > 0 && t.space {
			sb.WriteByte(' ')
		}
		if t.Type == TokenString || t.Type == TokenCharLiteral {
			for _, r := range t.Value {
				if r == '"' || r == '\\' {
					sb.WriteByte('\\')
				}
				sb.WriteRune(r)
			}
			continue
		}
		sb.WriteString(t.Value)
	}
	sb.WriteByte('"')

	res := op
	res.Type = TokenString
	res.Value = sb.String()
	return res
}
