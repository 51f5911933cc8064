// Package parser - tokenizer, preprocessor and recursive-descent parser for
// C and C++ translation units
package parser

import (
	"fmt"
	"unicode"
	"unicode/utf8"

	"cppsema/pkg/ast"
	"cppsema/pkg/diag"
)

// TokenType represents the type of a token
type TokenType int

const (
	TokenEOF TokenType = iota
	TokenError
	TokenWhitespace
	TokenNewline
	TokenLineComment  // //
	TokenBlockComment // /* */

	// Literals
	TokenIdentifier
	TokenNumber
	TokenString
	TokenCharLiteral

	// Operators and punctuation
	TokenLeftParen         // (
	TokenRightParen        // )
	TokenLeftBrace         // {
	TokenRightBrace        // }
	TokenLeftBracket       // [
	TokenRightBracket      // ]
	TokenSemicolon         // ;
	TokenColon             // :
	TokenDoubleColon       // ::
	TokenComma             // ,
	TokenDot               // .
	TokenDotStar           // .*
	TokenEllipsis          // ...
	TokenArrow             // ->
	TokenArrowStar         // ->*
	TokenEquals            // =
	TokenDoubleEquals      // ==
	TokenNotEquals         // !=
	TokenLess              // <
	TokenGreater           // >
	TokenLessEqual         // <=
	TokenGreaterEqual      // >=
	TokenAmpersand         // &
	TokenDoubleAmp         // &&
	TokenPipe              // |
	TokenDoublePipe        // ||
	TokenCaret             // ^
	TokenTilde             // ~
	TokenExclamation       // !
	TokenQuestion          // ?
	TokenPlus              // +
	TokenMinus             // -
	TokenStar              // *
	TokenSlash             // /
	TokenPercent           // %
	TokenPlusPlus          // ++
	TokenMinusMinus        // --
	TokenPlusEquals        // +=
	TokenMinusEquals       // -=
	TokenStarEquals        // *=
	TokenSlashEquals       // /=
	TokenPercentEquals     // %=
	TokenAmpEquals         // &=
	TokenPipeEquals        // |=
	TokenCaretEquals       // ^=
	TokenLeftShift         // <<
	TokenRightShift        // >>
	TokenLeftShiftEquals   // <<=
	TokenRightShiftEquals  // >>=

	// Preprocessor
	TokenHash      // #
	TokenHashHash  // ##
	TokenBackslash // \

	// Keywords
	TokenKeywordStart // Marker for start of keywords
	TokenNamespace
	TokenClass
	TokenStruct
	TokenEnum
	TokenUnion
	TokenTypedef
	TokenUsing
	TokenTemplate
	TokenTypename
	TokenPublic
	TokenPrivate
	TokenProtected
	TokenStatic
	TokenVirtual
	TokenInline
	TokenConst
	TokenConstexpr
	TokenMutable
	TokenExtern
	TokenRegister
	TokenThreadLocal
	TokenVolatile
	TokenFriend
	TokenOperator
	TokenExplicit
	TokenNoexcept
	TokenThrow
	TokenTry
	TokenCatch
	TokenIf
	TokenElse
	TokenSwitch
	TokenCase
	TokenDefault
	TokenFor
	TokenWhile
	TokenDo
	TokenBreak
	TokenContinue
	TokenReturn
	TokenGoto
	TokenSizeof
	TokenAlignof
	TokenDecltype
	TokenTypeid
	TokenStaticAssert
	TokenStaticCast
	TokenDynamicCast
	TokenConstCast
	TokenReinterpretCast
	TokenAuto
	TokenVoid
	TokenBool
	TokenChar
	TokenWChar
	TokenChar16
	TokenChar32
	TokenShort
	TokenInt
	TokenLong
	TokenFloat
	TokenDouble
	TokenSigned
	TokenUnsigned
	TokenTrue
	TokenFalse
	TokenNullptr
	TokenThis
	TokenNew
	TokenDelete
	TokenKeywordEnd // Marker for end of keywords
)

// Token represents a single token. Raw tokens carry file offsets; after
// preprocessing Offset and Length are sequence coordinates and Image tells
// where the text was written.
type Token struct {
	Type   TokenType
	Value  string
	Line   int
	Column int
	Offset int
	Length int

	// Problem classifies error tokens.
	Problem diag.Kind
	// Image is the pre-expansion location of the token.
	Image ast.ImageLocation
	// Expansion is the macro expansion that produced the token.
	Expansion *ast.MacroExpansion

	hide  hideset
	space bool // preceded by whitespace
	bol   bool // first token of a line
}

// IsMacroExpansion reports whether the token was produced by a macro.
func (t Token) IsMacroExpansion() bool {
	return t.Expansion != nil
}

// End returns the end of the token's range.
func (t Token) End() int {
	return t.Offset + t.Length
}

// IsKeyword reports whether the token is a keyword.
func (t Token) IsKeyword() bool {
	return t.Type > TokenKeywordStart && t.Type < TokenKeywordEnd
}

// String returns a string representation of the token
func (t Token) String() string {
	switch t.Type {
	case TokenEOF:
		return "EOF"
	case TokenError:
		return fmt.Sprintf("ERROR:%s", t.Value)
	case TokenWhitespace:
		return "WHITESPACE"
	case TokenNewline:
		return "NEWLINE"
	case TokenLineComment:
		return fmt.Sprintf("LINE_COMMENT:%s", t.Value)
	case TokenBlockComment:
		return fmt.Sprintf("BLOCK_COMMENT:%s", t.Value)
	case TokenIdentifier:
		return fmt.Sprintf("IDENTIFIER:%s", t.Value)
	case TokenNumber:
		return fmt.Sprintf("NUMBER:%s", t.Value)
	case TokenString:
		return fmt.Sprintf("STRING:%s", t.Value)
	case TokenCharLiteral:
		return fmt.Sprintf("CHAR:%s", t.Value)
	default:
		if t.IsKeyword() {
			return fmt.Sprintf("KEYWORD:%s", t.Value)
		}
		return fmt.Sprintf("%s:%s", tokenTypeNames[t.Type], t.Value)
	}
}

// tokenTypeNames maps token types to their names for debugging
var tokenTypeNames = map[TokenType]string{
	TokenLeftParen:        "LEFT_PAREN",
	TokenRightParen:       "RIGHT_PAREN",
	TokenLeftBrace:        "LEFT_BRACE",
	TokenRightBrace:       "RIGHT_BRACE",
	TokenLeftBracket:      "LEFT_BRACKET",
	TokenRightBracket:     "RIGHT_BRACKET",
	TokenSemicolon:        "SEMICOLON",
	TokenColon:            "COLON",
	TokenDoubleColon:      "DOUBLE_COLON",
	TokenComma:            "COMMA",
	TokenDot:              "DOT",
	TokenDotStar:          "DOT_STAR",
	TokenEllipsis:         "ELLIPSIS",
	TokenArrow:            "ARROW",
	TokenArrowStar:        "ARROW_STAR",
	TokenEquals:           "EQUALS",
	TokenDoubleEquals:     "DOUBLE_EQUALS",
	TokenNotEquals:        "NOT_EQUALS",
	TokenLess:             "LESS",
	TokenGreater:          "GREATER",
	TokenLessEqual:        "LESS_EQUAL",
	TokenGreaterEqual:     "GREATER_EQUAL",
	TokenAmpersand:        "AMPERSAND",
	TokenDoubleAmp:        "DOUBLE_AMP",
	TokenPipe:             "PIPE",
	TokenDoublePipe:       "DOUBLE_PIPE",
	TokenCaret:            "CARET",
	TokenTilde:            "TILDE",
	TokenExclamation:      "EXCLAMATION",
	TokenQuestion:         "QUESTION",
	TokenPlus:             "PLUS",
	TokenMinus:            "MINUS",
	TokenStar:             "STAR",
	TokenSlash:            "SLASH",
	TokenPercent:          "PERCENT",
	TokenPlusPlus:         "PLUS_PLUS",
	TokenMinusMinus:       "MINUS_MINUS",
	TokenPlusEquals:       "PLUS_EQUALS",
	TokenMinusEquals:      "MINUS_EQUALS",
	TokenStarEquals:       "STAR_EQUALS",
	TokenSlashEquals:      "SLASH_EQUALS",
	TokenPercentEquals:    "PERCENT_EQUALS",
	TokenAmpEquals:        "AMP_EQUALS",
	TokenPipeEquals:       "PIPE_EQUALS",
	TokenCaretEquals:      "CARET_EQUALS",
	TokenLeftShift:        "LEFT_SHIFT",
	TokenRightShift:       "RIGHT_SHIFT",
	TokenLeftShiftEquals:  "LEFT_SHIFT_EQUALS",
	TokenRightShiftEquals: "RIGHT_SHIFT_EQUALS",
	TokenHash:             "HASH",
	TokenHashHash:         "HASH_HASH",
	TokenBackslash:        "BACKSLASH",
}

// Keywords map for quick lookup
var keywords = map[string]TokenType{
	"namespace":        TokenNamespace,
	"class":            TokenClass,
	"struct":           TokenStruct,
	"enum":             TokenEnum,
	"union":            TokenUnion,
	"typedef":          TokenTypedef,
	"using":            TokenUsing,
	"template":         TokenTemplate,
	"typename":         TokenTypename,
	"public":           TokenPublic,
	"private":          TokenPrivate,
	"protected":        TokenProtected,
	"static":           TokenStatic,
	"virtual":          TokenVirtual,
	"inline":           TokenInline,
	"const":            TokenConst,
	"constexpr":        TokenConstexpr,
	"mutable":          TokenMutable,
	"extern":           TokenExtern,
	"register":         TokenRegister,
	"thread_local":     TokenThreadLocal,
	"volatile":         TokenVolatile,
	"friend":           TokenFriend,
	"operator":         TokenOperator,
	"explicit":         TokenExplicit,
	"noexcept":         TokenNoexcept,
	"throw":            TokenThrow,
	"try":              TokenTry,
	"catch":            TokenCatch,
	"if":               TokenIf,
	"else":             TokenElse,
	"switch":           TokenSwitch,
	"case":             TokenCase,
	"default":          TokenDefault,
	"for":              TokenFor,
	"while":            TokenWhile,
	"do":               TokenDo,
	"break":            TokenBreak,
	"continue":         TokenContinue,
	"return":           TokenReturn,
	"goto":             TokenGoto,
	"sizeof":           TokenSizeof,
	"alignof":          TokenAlignof,
	"decltype":         TokenDecltype,
	"typeid":           TokenTypeid,
	"static_assert":    TokenStaticAssert,
	"static_cast":      TokenStaticCast,
	"dynamic_cast":     TokenDynamicCast,
	"const_cast":       TokenConstCast,
	"reinterpret_cast": TokenReinterpretCast,
	"auto":             TokenAuto,
	"void":             TokenVoid,
	"bool":             TokenBool,
	"char":             TokenChar,
	"wchar_t":          TokenWChar,
	"char16_t":         TokenChar16,
	"char32_t":         TokenChar32,
	"short":            TokenShort,
	"int":              TokenInt,
	"long":             TokenLong,
	"float":            TokenFloat,
	"double":           TokenDouble,
	"signed":           TokenSigned,
	"unsigned":         TokenUnsigned,
	"true":             TokenTrue,
	"false":            TokenFalse,
	"nullptr":          TokenNullptr,
	"this":             TokenThis,
	"new":              TokenNew,
	"delete":           TokenDelete,
}

// cOnlyIdentifiers are C++ keywords that C code may use as identifiers.
var cOnlyIdentifiers = map[string]bool{
	"class": true, "namespace": true, "template": true, "typename": true,
	"public": true, "private": true, "protected": true, "virtual": true,
	"mutable": true, "friend": true, "operator": true, "explicit": true,
	"noexcept": true, "throw": true, "try": true, "catch": true,
	"using": true, "new": true, "delete": true, "this": true,
	"nullptr": true, "true": true, "false": true, "bool": true,
	"constexpr": true, "decltype": true, "typeid": true, "thread_local": true,
	"static_cast": true, "dynamic_cast": true, "const_cast": true,
	"reinterpret_cast": true, "wchar_t": true, "char16_t": true, "char32_t": true,
	"alignof": true, "static_assert": true,
}

// Tokenizer represents the tokenizer state
type Tokenizer struct {
	input     string
	pos       int // current position in input
	line      int // current line number
	column    int // current column number
	width     int // width of last rune read
	start     int // start position of current token
	startLine int
	startCol  int
	tokens    []Token
	maxTokens int // Maximum number of tokens to prevent OOM
	cMode     bool
}

// NewTokenizer creates a new tokenizer
func NewTokenizer(input string) *Tokenizer {
	const maxTokensLimit = 1000000 // Prevent OOM from too many tokens
	return &Tokenizer{
		input:     input,
		line:      1,
		column:    1,
		startLine: 1,
		startCol:  1,
		tokens:    make([]Token, 0, len(input)/4+16),
		maxTokens: maxTokensLimit,
	}
}

// SetCMode makes C++-only keywords plain identifiers.
func (t *Tokenizer) SetCMode(c bool) {
	t.cMode = c
}

// next reads the next rune and advances position
func (t *Tokenizer) next() rune {
	if t.pos >= len(t.input) {
		t.width = 0
		return 0
	}

	r, w := utf8.DecodeRuneInString(t.input[t.pos:])
	t.width = w
	t.pos += w

	if r == '\n' {
		t.line++
		t.column = 1
	} else {
		t.column++
	}

	return r
}

// backup steps back one rune
func (t *Tokenizer) backup() {
	if t.width == 0 {
		return
	}
	t.pos -= t.width
	t.width = 0
	if t.pos < len(t.input) && t.input[t.pos] == '\n' {
		t.line--
		// Recalculate column by scanning back to start of line
		col := 1
		for i := t.pos - 1; i >= 0 && t.input[i] != '\n'; i-- {
			col++
		}
		t.column = col
	} else {
		t.column--
	}
}

// peek returns the next rune without advancing position
func (t *Tokenizer) peek() rune {
	if t.pos >= len(t.input) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(t.input[t.pos:])
	return r
}

// peekN returns the nth rune ahead (1-based) without advancing position
func (t *Tokenizer) peekN(n int) rune {
	pos := t.pos
	var r rune
	for i := 0; i < n; i++ {
		if pos >= len(t.input) {
			return 0
		}
		var w int
		r, w = utf8.DecodeRuneInString(t.input[pos:])
		pos += w
	}
	return r
}

// emit creates a token and adds it to the tokens slice
func (t *Tokenizer) emit(tokenType TokenType) {
	// Safeguard: Check if we've exceeded maximum tokens
	if len(t.tokens) >= t.maxTokens {
		return
	}

	value := t.input[t.start:t.pos]
	t.tokens = append(t.tokens, Token{
		Type:   tokenType,
		Value:  value,
		Line:   t.startLine,
		Column: t.startCol,
		Offset: t.start,
		Length: len(value),
	})
	t.markStart()
}

// emitError creates an error token covering the current text
func (t *Tokenizer) emitError(kind diag.Kind, message string) {
	t.tokens = append(t.tokens, Token{
		Type:    TokenError,
		Value:   message,
		Line:    t.startLine,
		Column:  t.startCol,
		Offset:  t.start,
		Length:  t.pos - t.start,
		Problem: kind,
	})
	t.markStart()
}

func (t *Tokenizer) markStart() {
	t.start = t.pos
	t.startLine = t.line
	t.startCol = t.column
}

// Tokenize processes the input and returns all tokens
func (t *Tokenizer) Tokenize() []Token {
	for t.pos < len(t.input) {
		// Safeguard: Check if we have too many tokens
		if len(t.tokens) >= t.maxTokens {
			t.emitError(diag.TooManyTokens, "too many tokens")
			break
		}

		// Safeguard: Check if position is advancing
		oldPos := t.pos

		r := t.next()

		switch {
		case r == '\n':
			t.emit(TokenNewline)

		case r == '\\' && (t.peek() == '\n' || (t.peek() == '\r' && t.peekN(2) == '\n')):
			// Line continuation is whitespace
			if t.peek() == '\r' {
				t.next()
			}
			t.next()
			t.emit(TokenWhitespace)

		case unicode.IsSpace(r):
			t.scanWhitespace()

		case r == '/':
			if !t.scanComment() {
				// If it's not a comment, we need to handle operators like /=
				t.scanSlashOperator()
			}

		case r == '#':
			t.scanHash()

		case r == '"':
			t.scanString()

		case r == '\'':
			t.scanChar()

		case unicode.IsLetter(r) || r == '_' || r == '$':
			t.scanIdentifier()

		case unicode.IsDigit(r) || (r == '.' && unicode.IsDigit(t.peek())):
			t.scanNumber()

		default:
			t.scanOperator(r)
		}

		// Safeguard: Ensure position advanced
		if t.pos == oldPos {
			t.pos++
			t.emitError(diag.BadCharacter, fmt.Sprintf("tokenizer stuck at position %d", oldPos))
		}
	}

	return append(t.tokens, Token{Type: TokenEOF, Line: t.line, Column: t.column, Offset: t.pos})
}

// HasErrors returns true if the tokenizer encountered any errors
func (t *Tokenizer) HasErrors() bool {
	for _, token := range t.tokens {
		if token.Type == TokenError {
			return true
		}
	}
	return false
}

// GetErrors returns all error tokens
func (t *Tokenizer) GetErrors() []Token {
	var errors []Token
	for _, token := range t.tokens {
		if token.Type == TokenError {
			errors = append(errors, token)
		}
	}
	return errors
}

// SetMaxTokens sets the maximum number of tokens
func (t *Tokenizer) SetMaxTokens(max int) {
	t.maxTokens = max
}

// scanSlashOperator handles the / character that wasn't part of a comment
func (t *Tokenizer) scanSlashOperator() {
	if t.peek() == '=' {
		t.next()
		t.emit(TokenSlashEquals)
	} else {
		t.emit(TokenSlash)
	}
}

// scanWhitespace scans whitespace characters other than newlines
func (t *Tokenizer) scanWhitespace() {
	for {
		r := t.peek()
		if r == 0 || !unicode.IsSpace(r) || r == '\n' {
			break
		}
		t.next()
	}
	t.emit(TokenWhitespace)
}

// scanComment scans comments and returns true if a comment was found
func (t *Tokenizer) scanComment() bool {
	// We've already consumed one '/'
	switch t.peek() {
	case '/':
		t.next()
		t.scanLineComment()
		t.emit(TokenLineComment)
		return true
	case '*':
		t.next()
		if t.scanBlockComment() {
			t.emit(TokenBlockComment)
		}
		return true
	}
	return false
}

// scanLineComment scans until end of line. A backslash before the newline
// continues the comment.
func (t *Tokenizer) scanLineComment() {
	for {
		r := t.next()
		if r == 0 {
			return
		}
		if r == '\\' && t.peek() == '\n' {
			t.next()
			continue
		}
		if r == '\n' {
			t.backup()
			return
		}
	}
}

// scanBlockComment scans until */ and reports whether it was terminated
func (t *Tokenizer) scanBlockComment() bool {
	for {
		r := t.next()
		if r == 0 {
			t.emitError(diag.UnterminatedComment, "unterminated block comment")
			return false
		}
		if r == '*' && t.peek() == '/' {
			t.next() // consume '/'
			return true
		}
	}
}

// scanHash scans hash and hash-hash operators
func (t *Tokenizer) scanHash() {
	if t.peek() == '#' {
		t.next()
		t.emit(TokenHashHash)
	} else {
		t.emit(TokenHash)
	}
}

// scanQuoted scans a string or character literal body up to the closing
// quote.
func (t *Tokenizer) scanQuoted(quote rune) bool {
	for {
		r := t.next()
		if r == 0 || r == '\n' {
			if r == '\n' {
				t.backup()
			}
			return false
		}
		if r == quote {
			return true
		}
		if r == '\\' {
			// Skip escaped character
			if t.next() == 0 {
				return false
			}
		}
	}
}

// scanString scans a string literal
func (t *Tokenizer) scanString() {
	if !t.scanQuoted('"') {
		t.emitError(diag.UnterminatedString, "unterminated string literal")
		return
	}
	t.scanUDSuffix()
	t.emit(TokenString)
}

// scanChar scans a character literal
func (t *Tokenizer) scanChar() {
	if !t.scanQuoted('\'') {
		t.emitError(diag.UnterminatedChar, "unterminated character literal")
		return
	}
	t.emit(TokenCharLiteral)
}

// scanUDSuffix consumes a user-defined literal suffix.
func (t *Tokenizer) scanUDSuffix() {
	r := t.peek()
	if !unicode.IsLetter(r) && r != '_' {
		return
	}
	for {
		r := t.peek()
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' {
			return
		}
		t.next()
	}
}

// scanIdentifier scans an identifier or keyword. Encoding prefixes of
// string and character literals are recognized here.
func (t *Tokenizer) scanIdentifier() {
	for {
		r := t.peek()
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' && r != '$' {
			break
		}
		t.next()
	}

	value := t.input[t.start:t.pos]
	switch value {
	case "L", "u", "U", "u8", "R", "LR", "uR", "UR", "u8R":
		if q := t.peek(); q == '"' || (q == '\'' && value[len(value)-1] != 'R') {
			t.next()
			if value[len(value)-1] == 'R' {
				t.scanRawString()
				return
			}
			if q == '"' {
				t.scanString()
			} else {
				t.scanChar()
			}
			return
		}
	}

	if tokenType, isKeyword := keywords[value]; isKeyword && !(t.cMode && cOnlyIdentifiers[value]) {
		t.emit(tokenType)
	} else {
		t.emit(TokenIdentifier)
	}
}

// scanRawString scans R"delim( ... )delim" after the opening quote
func (t *Tokenizer) scanRawString() {
	delimStart := t.pos
	for t.peek() != '(' {
		if r := t.next(); r == 0 || r == '\n' {
			t.emitError(diag.UnterminatedString, "unterminated raw string literal")
			return
		}
	}
	closing := ")" + t.input[delimStart:t.pos] + "\""
	t.next() // consume '('
	for {
		if t.pos >= len(t.input) {
			t.emitError(diag.UnterminatedString, "unterminated raw string literal")
			return
		}
		if len(t.input)-t.pos >= len(closing) && t.input[t.pos:t.pos+len(closing)] == closing {
			for range closing {
				t.next()
			}
			t.emit(TokenString)
			return
		}
		t.next()
	}
}

// scanNumber scans a pp-number: digits, letters, dots, digit separators and
// exponent signs.
func (t *Tokenizer) scanNumber() {
	for {
		r := t.peek()
		switch {
		case unicode.IsDigit(r) || unicode.IsLetter(r) || r == '.' || r == '_':
			t.next()
			if r == 'e' || r == 'E' || r == 'p' || r == 'P' {
				if s := t.peek(); s == '+' || s == '-' {
					t.next()
				}
			}
		case r == '\'' && unicode.IsDigit(t.peekN(2)):
			t.next()
		default:
			t.emit(TokenNumber)
			return
		}
	}
}

// scanOperator scans operators and punctuation
func (t *Tokenizer) scanOperator(r rune) {
	switch r {
	case '(':
		t.emit(TokenLeftParen)
	case ')':
		t.emit(TokenRightParen)
	case '{':
		t.emit(TokenLeftBrace)
	case '}':
		t.emit(TokenRightBrace)
	case '[':
		t.emit(TokenLeftBracket)
	case ']':
		t.emit(TokenRightBracket)
	case ';':
		t.emit(TokenSemicolon)
	case ',':
		t.emit(TokenComma)
	case '\\':
		t.emit(TokenBackslash)
	case '?':
		t.emit(TokenQuestion)
	case '~':
		t.emit(TokenTilde)

	case '^':
		t.withEquals(TokenCaret, TokenCaretEquals)
	case '%':
		t.withEquals(TokenPercent, TokenPercentEquals)
	case '*':
		t.withEquals(TokenStar, TokenStarEquals)
	case '=':
		t.withEquals(TokenEquals, TokenDoubleEquals)
	case '!':
		t.withEquals(TokenExclamation, TokenNotEquals)

	case ':':
		if t.peek() == ':' {
			t.next()
			t.emit(TokenDoubleColon)
		} else {
			t.emit(TokenColon)
		}

	case '.':
		if t.peek() == '.' && t.peekN(2) == '.' {
			t.next()
			t.next()
			t.emit(TokenEllipsis)
		} else if t.peek() == '*' {
			t.next()
			t.emit(TokenDotStar)
		} else {
			t.emit(TokenDot)
		}

	case '<':
		switch t.peek() {
		case '=':
			t.next()
			t.emit(TokenLessEqual)
		case '<':
			t.next()
			t.withEquals(TokenLeftShift, TokenLeftShiftEquals)
		default:
			t.emit(TokenLess)
		}

	case '>':
		switch t.peek() {
		case '=':
			t.next()
			t.emit(TokenGreaterEqual)
		case '>':
			t.next()
			t.withEquals(TokenRightShift, TokenRightShiftEquals)
		default:
			t.emit(TokenGreater)
		}

	case '&':
		switch t.peek() {
		case '&':
			t.next()
			t.emit(TokenDoubleAmp)
		case '=':
			t.next()
			t.emit(TokenAmpEquals)
		default:
			t.emit(TokenAmpersand)
		}

	case '|':
		switch t.peek() {
		case '|':
			t.next()
			t.emit(TokenDoublePipe)
		case '=':
			t.next()
			t.emit(TokenPipeEquals)
		default:
			t.emit(TokenPipe)
		}

	case '+':
		switch t.peek() {
		case '+':
			t.next()
			t.emit(TokenPlusPlus)
		case '=':
			t.next()
			t.emit(TokenPlusEquals)
		default:
			t.emit(TokenPlus)
		}

	case '-':
		switch t.peek() {
		case '-':
			t.next()
			t.emit(TokenMinusMinus)
		case '=':
			t.next()
			t.emit(TokenMinusEquals)
		case '>':
			t.next()
			if t.peek() == '*' {
				t.next()
				t.emit(TokenArrowStar)
			} else {
				t.emit(TokenArrow)
			}
		default:
			t.emit(TokenMinus)
		}

	default:
		t.emitError(diag.BadCharacter, fmt.Sprintf("unexpected character: %c", r))
	}
}

// withEquals emits the compound form when the next rune is '='.
func (t *Tokenizer) withEquals(plain, compound TokenType) {
	if t.peek() == '=' {
		t.next()
		t.emit(compound)
	} else {
		t.emit(plain)
	}
}
