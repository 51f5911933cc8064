package parser

import (
	"strings"
	"testing"

	"cppsema/pkg/diag"
)

func significant(tokens []Token) []Token {
	var out []Token
	for _, tok := range tokens {
		switch tok.Type {
		case TokenWhitespace, TokenNewline, TokenLineComment, TokenBlockComment:
			continue
		}
		out = append(out, tok)
	}
	return out
}

func TestTokenizerBasics(t *testing.T) {
	input := `namespace Test {
    class MyClass {
    public:
        void method();
    };
}`

	tokenizer := NewTokenizer(input)
	tokens := significant(tokenizer.Tokenize())

	expectedTokens := []TokenType{
		TokenNamespace, TokenIdentifier, TokenLeftBrace,
		TokenClass, TokenIdentifier, TokenLeftBrace,
		TokenPublic, TokenColon,
		TokenVoid, TokenIdentifier, TokenLeftParen, TokenRightParen, TokenSemicolon,
		TokenRightBrace, TokenSemicolon,
		TokenRightBrace, TokenEOF,
	}

	if len(tokens) != len(expectedTokens) {
		t.Fatalf("Expected %d tokens, got %d", len(expectedTokens), len(tokens))
	}
	for i, expected := range expectedTokens {
		if tokens[i].Type != expected {
			t.Errorf("Token %d: expected %v, got %v", i, expected, tokens[i].Type)
		}
	}

	if tokens[1].Value != "Test" || tokens[1].Offset != 10 || tokens[1].Line != 1 {
		t.Errorf("Unexpected identifier token %+v", tokens[1])
	}
	if tokens[3].Line != 2 || tokens[3].Column != 5 {
		t.Errorf("Expected class at 2:5, got %d:%d", tokens[3].Line, tokens[3].Column)
	}
}

func TestTokenizerComments(t *testing.T) {
	input := `// Line comment
/* Block comment */
/** Doc block */
/// Doc line`

	tokenizer := NewTokenizer(input)
	tokens := tokenizer.Tokenize()

	var comments []Token
	for _, token := range tokens {
		if token.Type == TokenLineComment || token.Type == TokenBlockComment {
			comments = append(comments, token)
		}
	}

	expected := []struct {
		typ TokenType
		doc bool
	}{
		{TokenLineComment, false},
		{TokenBlockComment, false},
		{TokenBlockComment, true},
		{TokenLineComment, true},
	}

	if len(comments) != len(expected) {
		t.Fatalf("Expected %d comment tokens, got %d", len(expected), len(comments))
	}
	for i, want := range expected {
		if comments[i].Type != want.typ {
			t.Errorf("Comment %d: expected %v, got %v", i, want.typ, comments[i].Type)
		}
		if isDocComment(comments[i].Value) != want.doc {
			t.Errorf("Comment %d: expected doc=%v for %q", i, want.doc, comments[i].Value)
		}
	}
}

func TestTokenizerOperators(t *testing.T) {
	input := `:: -> == != <= >= && || ++ -- += -= *= /= << >> .* ->* ... <<= >>=`

	tokenizer := NewTokenizer(input)
	tokens := significant(tokenizer.Tokenize())

	expectedOperators := []TokenType{
		TokenDoubleColon, TokenArrow, TokenDoubleEquals, TokenNotEquals,
		TokenLessEqual, TokenGreaterEqual, TokenDoubleAmp, TokenDoublePipe,
		TokenPlusPlus, TokenMinusMinus, TokenPlusEquals, TokenMinusEquals,
		TokenStarEquals, TokenSlashEquals, TokenLeftShift, TokenRightShift,
		TokenDotStar, TokenArrowStar, TokenEllipsis, TokenLeftShiftEquals,
		TokenRightShiftEquals, TokenEOF,
	}

	if len(tokens) != len(expectedOperators) {
		for i, token := range tokens {
			t.Logf("Token %d: %s", i, token)
		}
		t.Fatalf("Expected %d tokens, got %d", len(expectedOperators), len(tokens))
	}
	for i, expected := range expectedOperators {
		if tokens[i].Type != expected {
			t.Errorf("Token %d: expected %v, got %v", i, expected, tokens[i].Type)
		}
	}
}

func TestTokenizerPreprocessor(t *testing.T) {
	input := `#define MAX_SIZE 100
#include <iostream>
a ## b`

	tokens := significant(NewTokenizer(input).Tokenize())

	foundDefine := false
	foundInclude := false
	foundPaste := false
	for _, token := range tokens {
		switch {
		case token.Value == "define":
			foundDefine = true
		case token.Value == "include":
			foundInclude = true
		case token.Type == TokenHashHash:
			foundPaste = true
		}
	}

	if !foundDefine {
		t.Error("Expected to find 'define' identifier")
	}
	if !foundInclude {
		t.Error("Expected to find 'include' identifier")
	}
	if !foundPaste {
		t.Error("Expected to find '##' token")
	}
}

func TestTokenizerLiterals(t *testing.T) {
	tests := []struct {
		input string
		typ   TokenType
	}{
		{`"hello"`, TokenString},
		{`u8"utf"`, TokenString},
		{`L'x'`, TokenCharLiteral},
		{`R"x(raw "quoted")x"`, TokenString},
		{`"km"_s`, TokenString},
		{`0x1p-3`, TokenNumber},
		{`1'000'000`, TokenNumber},
		{`.5e+10f`, TokenNumber},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			tokens := significant(NewTokenizer(tt.input).Tokenize())
			if len(tokens) != 2 {
				t.Fatalf("Expected one token, got %v", tokens)
			}
			if tokens[0].Type != tt.typ || tokens[0].Value != tt.input {
				t.Errorf("Expected %v %q, got %s", tt.typ, tt.input, tokens[0])
			}
		})
	}
}

func TestTokenizerCMode(t *testing.T) {
	tokenizer := NewTokenizer("class new this")
	tokenizer.SetCMode(true)
	for _, tok := range significant(tokenizer.Tokenize()) {
		if tok.Type != TokenIdentifier && tok.Type != TokenEOF {
			t.Errorf("Expected identifier in C mode, got %s", tok)
		}
	}
}

func TestTokenizerSafeguards(t *testing.T) {
	t.Run("UnterminatedString", func(t *testing.T) {
		tokenizer := NewTokenizer("\"abc\nint x;")
		tokens := tokenizer.Tokenize()
		if !tokenizer.HasErrors() {
			t.Fatal("Expected tokenizer to report the unterminated string")
		}
		if errs := tokenizer.GetErrors(); errs[0].Problem != diag.UnterminatedString {
			t.Errorf("Expected %v, got %v", diag.UnterminatedString, errs[0].Problem)
		}
		if tokens[len(tokens)-1].Type != TokenEOF {
			t.Error("Expected tokens to end with EOF")
		}
	})

	t.Run("UnterminatedComment", func(t *testing.T) {
		tokenizer := NewTokenizer("int x; /* " + strings.Repeat("a", 1000))
		tokenizer.Tokenize()
		errs := tokenizer.GetErrors()
		if len(errs) != 1 || errs[0].Problem != diag.UnterminatedComment {
			t.Errorf("Expected one unterminated comment error, got %v", errs)
		}
	})

	t.Run("TooManyTokens", func(t *testing.T) {
		tokenizer := NewTokenizer(strings.Repeat("a ", 100))
		tokenizer.SetMaxTokens(10)
		tokens := tokenizer.Tokenize()
		if len(tokens) > 12 {
			t.Errorf("Expected the token limit to apply, got %d tokens", len(tokens))
		}
		errs := tokenizer.GetErrors()
		if len(errs) == 0 || errs[len(errs)-1].Problem != diag.TooManyTokens {
			t.Errorf("Expected a too-many-tokens error, got %v", errs)
		}
	})

	t.Run("BadCharacter", func(t *testing.T) {
		tokenizer := NewTokenizer("int @ x;")
		tokenizer.Tokenize()
		if !tokenizer.HasErrors() {
			t.Error("Expected a bad character error")
		}
	})
}
