package parser

import (
	"fmt"
	"strconv"
	"strings"

	"cppsema/pkg/ast"
	"cppsema/pkg/diag"
)

// evalCondition evaluates the controlling expression of #if or #elif.
// defined operators are replaced first, then macros are expanded and the
// remaining identifiers evaluate to 0.
func (pp *Preprocessor) evalCondition(line []Token, rng ast.Range) bool {
	toks := pp.src.translateAll(line)
	var pre []Token
	for i := 0; i < len(toks); i++ {
		t := toks[i]
		if t.Type != TokenIdentifier || t.Value != "defined" {
			pre = append(pre, t)
			continue
		}
		j := i + 1
		paren := j < len(toks) && toks[j].Type == TokenLeftParen
		if paren {
			j++
		}
		if j >= len(toks) || !isIdentLike(toks[j]) {
			pp.report(diag.ConditionSyntax, rng.Offset, rng.Length, "defined")
			return false
		}
		value := "0"
		if pp.ctx.Macros.Defined(toks[j].Value) {
			value = "1"
		}
		if paren {
			j++
			if j >= len(toks) || toks[j].Type != TokenRightParen {
				pp.report(diag.ConditionSyntax, rng.Offset, rng.Length, "defined")
				return false
			}
		}
		t.Type, t.Value = TokenNumber, value
		pre = append(pre, t)
		i = j
	}
	if len(pre) == 0 {
		pp.report(diag.ConditionSyntax, rng.Offset, rng.Length, "empty condition")
		return false
	}

	sub := &expander{pp: pp}
	sub.push(pre)
	ev := &condEvaluator{pp: pp, toks: sub.expandAll(), rng: rng}
	v := ev.conditional(true)
	if ev.err == nil && ev.pos < len(ev.toks) {
		ev.fail("unexpected %q", ev.toks[ev.pos].Value)
	}
	if ev.err != nil {
		pp.report(diag.ConditionSyntax, rng.Offset, rng.Length, ev.err.Error())
		return false
	}
	return v.v != 0
}

// ppValue is an integer of the preprocessor arithmetic. Unsigned values
// keep their bits in v.
type ppValue struct {
	v        int64
	unsigned bool
}

func (a ppValue) less(b ppValue) bool {
	if a.unsigned || b.unsigned {
		return uint64(a.v) < uint64(b.v)
	}
	return a.v < b.v
}

func boolValue(b bool) ppValue {
	if b {
		return ppValue{v: 1}
	}
	return ppValue{}
}

// condEvaluator is a precedence climbing evaluator over expanded tokens.
// When eval is false the operand is parsed without reporting division by
// zero, as required for the unevaluated side of &&, || and ?:.
type condEvaluator struct {
	pp   *Preprocessor
	toks []Token
	pos  int
	rng  ast.Range
	err  error
}

func (ev *condEvaluator) fail(format string, args ...interface{}) {
	if ev.err == nil {
		ev.err = fmt.Errorf(format, args...)
	}
}

func (ev *condEvaluator) peek() Token {
	if ev.pos >= len(ev.toks) {
		return Token{Type: TokenEOF}
	}
	return ev.toks[ev.pos]
}

func (ev *condEvaluator) conditional(eval bool) ppValue {
	cond := ev.binary(1, eval)
	if ev.peek().Type != TokenQuestion {
		return cond
	}
	ev.pos++
	then := ev.conditional(eval && cond.v != 0)
	if ev.peek().Type != TokenColon {
		ev.fail("expected ':'")
		return ppValue{}
	}
	ev.pos++
	els := ev.conditional(eval && cond.v == 0)
	res := els
	if cond.v != 0 {
		res = then
	}
	res.unsigned = then.unsigned || els.unsigned
	return res
}

var condPrecedence = map[TokenType]int{
	TokenDoublePipe:   1,
	TokenDoubleAmp:    2,
	TokenPipe:         3,
	TokenCaret:        4,
	TokenAmpersand:    5,
	TokenDoubleEquals: 6,
	TokenNotEquals:    6,
	TokenLess:         7,
	TokenGreater:      7,
	TokenLessEqual:    7,
	TokenGreaterEqual: 7,
	TokenLeftShift:    8,
	TokenRightShift:   8,
	TokenPlus:         9,
	TokenMinus:        9,
	TokenStar:         10,
	TokenSlash:        10,
	TokenPercent:      10,
}

func (ev *condEvaluator) binary(minPrec int, eval bool) ppValue {
	lhs := ev.unary(eval)
	for ev.err == nil {
		op := ev.peek()
		prec, ok := condPrecedence[op.Type]
		if !ok || prec < minPrec {
			return lhs
		}
		ev.pos++
		rhsEval := eval
		switch op.Type {
		case TokenDoubleAmp:
			rhsEval = eval && lhs.v != 0
		case TokenDoublePipe:
			rhsEval = eval && lhs.v == 0
		}
		rhs := ev.binary(prec+1, rhsEval)
		lhs = ev.apply(op, lhs, rhs, eval)
	}
	return lhs
}

func (ev *condEvaluator) apply(op Token, a, b ppValue, eval bool) ppValue {
	unsigned := a.unsigned || b.unsigned
	res := ppValue{unsigned: unsigned}
	switch op.Type {
	case TokenDoublePipe:
		return boolValue(a.v != 0 || b.v != 0)
	case TokenDoubleAmp:
		return boolValue(a.v != 0 && b.v != 0)
	case TokenPipe:
		res.v = a.v | b.v
	case TokenCaret:
		res.v = a.v ^ b.v
	case TokenAmpersand:
		res.v = a.v & b.v
	case TokenDoubleEquals:
		return boolValue(a.v == b.v)
	case TokenNotEquals:
		return boolValue(a.v != b.v)
	case TokenLess:
		return boolValue(a.less(b))
	case TokenGreater:
		return boolValue(b.less(a))
	case TokenLessEqual:
		return boolValue(!b.less(a))
	case TokenGreaterEqual:
		return boolValue(!a.less(b))
	case TokenLeftShift:
		res.v = a.v << uint64(b.v&63)
		res.unsigned = a.unsigned
	case TokenRightShift:
		if a.unsigned {
			res.v = int64(uint64(a.v) >> uint64(b.v&63))
		} else {
			res.v = a.v >> uint64(b.v&63)
		}
		res.unsigned = a.unsigned
	case TokenPlus:
		res.v = a.v + b.v
	case TokenMinus:
		res.v = a.v - b.v
	case TokenStar:
		res.v = a.v * b.v
	case TokenSlash, TokenPercent:
		if b.v == 0 {
			if eval {
				ev.pp.report(diag.ConditionDivisionByZero, ev.rng.Offset, ev.rng.Length, "")
			}
			return ppValue{unsigned: unsigned}
		}
		switch {
		case unsigned && op.Type == TokenSlash:
			res.v = int64(uint64(a.v) / uint64(b.v))
		case unsigned:
			res.v = int64(uint64(a.v) % uint64(b.v))
		case op.Type == TokenSlash:
			res.v = a.v / b.v
		default:
			res.v = a.v % b.v
		}
	}
	return res
}

func (ev *condEvaluator) unary(eval bool) ppValue {
	t := ev.peek()
	switch t.Type {
	case TokenPlus:
		ev.pos++
		return ev.unary(eval)
	case TokenMinus:
		ev.pos++
		v := ev.unary(eval)
		v.v = -v.v
		return v
	case TokenExclamation:
		ev.pos++
		return boolValue(ev.unary(eval).v == 0)
	case TokenTilde:
		ev.pos++
		v := ev.unary(eval)
		v.v = ^v.v
		return v
	}
	return ev.primary(eval)
}

func (ev *condEvaluator) primary(eval bool) ppValue {
	t := ev.peek()
	switch {
	case t.Type == TokenEOF:
		ev.fail("unexpected end of condition")
		return ppValue{}
	case t.Type == TokenLeftParen:
		ev.pos++
		v := ev.conditional(eval)
		if ev.peek().Type != TokenRightParen {
			ev.fail("expected ')'")
			return ppValue{}
		}
		ev.pos++
		return v
	case t.Type == TokenNumber:
		ev.pos++
		v, unsigned, err := parseIntLiteral(t.Value)
		if err != nil {
			ev.fail("invalid integer %q", t.Value)
			return ppValue{}
		}
		return ppValue{v: v, unsigned: unsigned}
	case t.Type == TokenCharLiteral:
		ev.pos++
		return ppValue{v: charValue(t.Value)}
	case t.Type == TokenTrue:
		ev.pos++
		return ppValue{v: 1}
	case t.Type == TokenFalse:
		ev.pos++
		return ppValue{}
	case isIdentLike(t):
		ev.pos++
		ev.pp.report(diag.UndefinedMacroInCondition, t.Offset, t.Length, t.Value)
		return ppValue{}
	}
	ev.fail("unexpected %q", t.Value)
	return ppValue{}
}

// parseIntLiteral parses an integer literal with base prefixes, digit
// separators and suffixes.
func parseIntLiteral(text string) (int64, bool, error) {
	s := strings.ReplaceAll(text, "'", "")
	unsigned := false
	for len(s) > 0 {
		c := s[len(s)-1]
		if c == 'u' || c == 'U' {
			unsigned = true
		} else if c != 'l' && c != 'L' {
			break
		}
		s = s[:len(s)-1]
	}
	base := 10
	switch {
	case strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X"):
		base, s = 16, s[2:]
	case strings.HasPrefix(s, "0b") || strings.HasPrefix(s, "0B"):
		base, s = 2, s[2:]
	case len(s) > 1 && s[0] == '0':
		base, s = 8, s[1:]
	}
	v, err := strconv.ParseUint(s, base, 64)
	if err != nil {
		return 0, false, err
	}
	return int64(v), unsigned, nil
}

// charValue returns the value of a character literal such as 'a' or '\n'.
func charValue(lit string) int64 {
	if i := strings.IndexByte(lit, '\''); i >= 0 {
		lit = lit[i:]
	}
	body := strings.TrimSuffix(strings.TrimPrefix(lit, "'"), "'")
	if body == "" {
		return 0
	}
	if body[0] != '\\' {
		r := []rune(body)
		return int64(r[0])
	}
	if len(body) < 2 {
		return '\\'
	}
	switch body[1] {
	case 'n':
		return '\n'
	case 't':
		return '\t'
	case 'r':
		return '\r'
	case 'a':
		return 7
	case 'b':
		return 8
	case 'f':
		return 12
	case 'v':
		return 11
	case 'x':
		v, _ := strconv.ParseInt(body[2:], 16, 64)
		return v
	case '0', '1', '2', '3', '4', '5', '6', '7':
		v, _ := strconv.ParseInt(body[1:], 8, 64)
		return v
	}
	return int64(body[1])
}
