package parser

import (
	"cppsema/pkg/ast"
)

// TokenCache provides an abstraction layer for navigating preprocessed
// tokens. It encapsulates token array access, position management and the
// splitting of '>>' inside template argument lists.
type TokenCache struct {
	tokens  []Token // The token array, terminated by an EOF token
	current int     // Current position in the token array
	splits  []int   // Positions of '>>' tokens split into two '>'
}

// NewTokenCache creates a new token cache over preprocessed tokens.
func NewTokenCache(tokens []Token) *TokenCache {
	if len(tokens) == 0 || tokens[len(tokens)-1].Type != TokenEOF {
		eof := Token{Type: TokenEOF}
		if len(tokens) > 0 {
			eof.Offset = tokens[len(tokens)-1].End()
		}
		tokens = append(tokens, eof)
	}
	return &TokenCache{tokens: tokens}
}

// advance returns the current token and moves to the next
func (tc *TokenCache) advance() Token {
	if !tc.isAtEnd() {
		tc.current++
	}
	return tc.previous()
}

// isAtEnd checks if we're at the end of tokens
func (tc *TokenCache) isAtEnd() bool {
	return tc.current >= len(tc.tokens)-1
}

// peek returns the current token without advancing
func (tc *TokenCache) peek() Token {
	if tc.current >= len(tc.tokens) {
		return tc.tokens[len(tc.tokens)-1]
	}
	return tc.tokens[tc.current]
}

// previous returns the previous token
func (tc *TokenCache) previous() Token {
	if tc.current <= 0 {
		return Token{Type: TokenEOF}
	}
	return tc.tokens[tc.current-1]
}

// peekAhead looks ahead by offset tokens
func (tc *TokenCache) peekAhead(offset int) Token {
	targetIndex := tc.current + offset
	if targetIndex >= len(tc.tokens) {
		return tc.tokens[len(tc.tokens)-1]
	}
	if targetIndex < 0 {
		return Token{Type: TokenEOF}
	}
	return tc.tokens[targetIndex]
}

// at returns the token at an absolute position
func (tc *TokenCache) at(position int) Token {
	if position < 0 {
		return Token{Type: TokenEOF}
	}
	if position >= len(tc.tokens) {
		return tc.tokens[len(tc.tokens)-1]
	}
	return tc.tokens[position]
}

// getCurrentPosition returns the current position in the token array
func (tc *TokenCache) getCurrentPosition() int {
	return tc.current
}

// check returns true if current token is of given type
func (tc *TokenCache) check(tokenType TokenType) bool {
	return tc.peek().Type == tokenType
}

// checkAhead returns true if the token at offset is of given type
func (tc *TokenCache) checkAhead(offset int, tokenType TokenType) bool {
	return tc.peekAhead(offset).Type == tokenType
}

// match checks if current token matches any of the given types
func (tc *TokenCache) match(types ...TokenType) bool {
	for _, tokenType := range types {
		if tc.check(tokenType) {
			tc.advance()
			return true
		}
	}
	return false
}

// setPosition sets the current position (for checkpointing). Splits made
// at or after the position are undone.
func (tc *TokenCache) setPosition(position int) {
	for len(tc.splits) > 0 && tc.splits[len(tc.splits)-1] >= position {
		tc.unsplit(tc.splits[len(tc.splits)-1])
		tc.splits = tc.splits[:len(tc.splits)-1]
	}
	if position < 0 {
		tc.current = 0
	} else if position >= len(tc.tokens) {
		tc.current = len(tc.tokens) - 1
	} else {
		tc.current = position
	}
}

// splitShift turns a '>>' at the current position into two '>' tokens so
// that the first one can close a template argument list.
func (tc *TokenCache) splitShift() bool {
	tok := tc.peek()
	if tok.Type != TokenRightShift {
		return false
	}
	first, second := tok, tok
	first.Type, second.Type = TokenGreater, TokenGreater
	first.Value, second.Value = ">", ">"
	if tok.Expansion == nil {
		first.Length = 1
		second.Offset++
		second.Length = 1
	}
	second.space = false
	tc.tokens = append(tc.tokens, Token{})
	copy(tc.tokens[tc.current+2:], tc.tokens[tc.current+1:])
	tc.tokens[tc.current] = first
	tc.tokens[tc.current+1] = second
	tc.splits = append(tc.splits, tc.current)
	return true
}

func (tc *TokenCache) unsplit(position int) {
	merged := tc.tokens[position]
	merged.Type = TokenRightShift
	merged.Value = ">>"
	if merged.Expansion == nil {
		merged.Length = 2
	}
	tc.tokens[position] = merged
	tc.tokens = append(tc.tokens[:position+1], tc.tokens[position+2:]...)
}

// tokenRange returns the range of one token.
func (tc *TokenCache) tokenRange(position int) ast.Range {
	t := tc.at(position)
	return ast.Range{Offset: t.Offset, Length: t.Length}
}

// getRangeFromPositions creates a range covering the tokens from start to
// end inclusive. When either end lies in a macro expansion every token in
// between is taken into account, since argument tokens keep their own
// offsets while the replacement tokens share the invocation range.
func (tc *TokenCache) getRangeFromPositions(start, end int) ast.Range {
	if start >= len(tc.tokens) {
		start = len(tc.tokens) - 1
	}
	if end >= len(tc.tokens) {
		end = len(tc.tokens) - 1
	}
	if start < 0 {
		start = 0
	}
	if end < start {
		t := tc.tokens[start]
		return ast.Range{Offset: t.Offset}
	}

	first, last := tc.tokens[start], tc.tokens[end]
	r := ast.Range{Offset: first.Offset, Length: first.Length}.Union(ast.Range{Offset: last.Offset, Length: last.Length})
	if first.Expansion != nil || last.Expansion != nil {
		for i := start + 1; i < end; i++ {
			t := tc.tokens[i]
			r = r.Union(ast.Range{Offset: t.Offset, Length: t.Length})
		}
	}
	return r
}
