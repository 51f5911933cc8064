// Package diag defines the machine-stable diagnostic kinds reported by every
// stage of the front end and the ordered sink that collects them.
package diag

import (
	"fmt"
	"sort"
	"sync"
)

// Category groups diagnostic kinds by the stage that produces them.
type Category int

const (
	CategoryLexical Category = iota
	CategoryPreprocessor
	CategorySyntax
	CategorySemantic
)

func (c Category) String() string {
	switch c {
	case CategoryLexical:
		return "lexical"
	case CategoryPreprocessor:
		return "preprocessor"
	case CategorySyntax:
		return "syntax"
	case CategorySemantic:
		return "semantic"
	default:
		return "unknown"
	}
}

// Severity is the default severity of a kind. Callers are free to remap it.
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
	SeverityInfo
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return "info"
	}
}

// Kind identifies a diagnostic. The string returned by ID never changes
// between releases.
type Kind int

const (
	KindNone Kind = iota

	// lexical
	BadCharacter
	UnterminatedString
	UnterminatedChar
	UnterminatedComment
	TooManyTokens

	// preprocessor
	InvalidDirective
	MalformedDirective
	MacroArgCount
	UnterminatedMacroArgs
	UndefinedMacroInCondition
	ConditionSyntax
	ConditionDivisionByZero
	UnbalancedConditional
	UnterminatedConditional
	IncludeNotFound
	IncludeTooDeep
	ErrorDirective
	WarningDirective
	InvalidPaste
	MacroRedefinition
	ExpansionTooDeep

	// syntax
	SyntaxError
	MissingSemicolon
	UnbalancedBrace
	NestingTooDeep

	// semantic
	NameNotFound
	Ambiguous
	NoViableOverload
	Inaccessible
	Redefinition
	InvalidRedeclaration
	WrongTemplateArgCount
	NotAType
	NotATemplate
	CircularResolution
	InvalidType
	DeductionFailure
	LabelNotFound
)

type kindInfo struct {
	id       string
	category Category
	severity Severity
}

var kinds = map[Kind]kindInfo{
	BadCharacter:        {"lex.bad-character", CategoryLexical, SeverityError},
	UnterminatedString:  {"lex.unterminated-string", CategoryLexical, SeverityError},
	UnterminatedChar:    {"lex.unterminated-char", CategoryLexical, SeverityError},
	UnterminatedComment: {"lex.unterminated-comment", CategoryLexical, SeverityError},
	TooManyTokens:       {"lex.too-many-tokens", CategoryLexical, SeverityError},

	InvalidDirective:          {"pp.invalid-directive", CategoryPreprocessor, SeverityError},
	MalformedDirective:        {"pp.malformed-directive", CategoryPreprocessor, SeverityError},
	MacroArgCount:             {"pp.macro-argument-count", CategoryPreprocessor, SeverityError},
	UnterminatedMacroArgs:     {"pp.unterminated-macro-arguments", CategoryPreprocessor, SeverityError},
	UndefinedMacroInCondition: {"pp.undefined-in-condition", CategoryPreprocessor, SeverityWarning},
	ConditionSyntax:           {"pp.condition-syntax", CategoryPreprocessor, SeverityError},
	ConditionDivisionByZero:   {"pp.condition-division-by-zero", CategoryPreprocessor, SeverityError},
	UnbalancedConditional:     {"pp.unbalanced-conditional", CategoryPreprocessor, SeverityError},
	UnterminatedConditional:   {"pp.unterminated-conditional", CategoryPreprocessor, SeverityError},
	IncludeNotFound:           {"pp.include-not-found", CategoryPreprocessor, SeverityError},
	IncludeTooDeep:            {"pp.include-too-deep", CategoryPreprocessor, SeverityError},
	ErrorDirective:            {"pp.error-directive", CategoryPreprocessor, SeverityError},
	WarningDirective:          {"pp.warning-directive", CategoryPreprocessor, SeverityWarning},
	InvalidPaste:              {"pp.invalid-paste", CategoryPreprocessor, SeverityError},
	MacroRedefinition:         {"pp.macro-redefinition", CategoryPreprocessor, SeverityWarning},
	ExpansionTooDeep:          {"pp.expansion-too-deep", CategoryPreprocessor, SeverityError},

	SyntaxError:      {"syntax.error", CategorySyntax, SeverityError},
	MissingSemicolon: {"syntax.missing-semicolon", CategorySyntax, SeverityError},
	UnbalancedBrace:  {"syntax.unbalanced-brace", CategorySyntax, SeverityError},
	NestingTooDeep:   {"syntax.nesting-too-deep", CategorySyntax, SeverityError},

	NameNotFound:          {"sema.name-not-found", CategorySemantic, SeverityError},
	Ambiguous:             {"sema.ambiguous", CategorySemantic, SeverityError},
	NoViableOverload:      {"sema.no-viable-overload", CategorySemantic, SeverityError},
	Inaccessible:          {"sema.inaccessible", CategorySemantic, SeverityError},
	Redefinition:          {"sema.redefinition", CategorySemantic, SeverityError},
	InvalidRedeclaration:  {"sema.invalid-redeclaration", CategorySemantic, SeverityError},
	WrongTemplateArgCount: {"sema.wrong-template-argument-count", CategorySemantic, SeverityError},
	NotAType:              {"sema.not-a-type", CategorySemantic, SeverityError},
	NotATemplate:          {"sema.not-a-template", CategorySemantic, SeverityError},
	CircularResolution:    {"sema.circular-resolution", CategorySemantic, SeverityError},
	InvalidType:           {"sema.invalid-type", CategorySemantic, SeverityError},
	DeductionFailure:      {"sema.deduction-failure", CategorySemantic, SeverityError},
	LabelNotFound:         {"sema.label-not-found", CategorySemantic, SeverityError},
}

// ID returns the stable identifier of the kind, e.g. "sema.ambiguous".
func (k Kind) ID() string {
	if info, ok := kinds[k]; ok {
		return info.id
	}
	return "none"
}

// Category returns the stage that reports the kind.
func (k Kind) Category() Category {
	return kinds[k].category
}

// Severity returns the default severity of the kind.
func (k Kind) Severity() Severity {
	if info, ok := kinds[k]; ok {
		return info.severity
	}
	return SeverityInfo
}

func (k Kind) String() string {
	return k.ID()
}

// KindByID maps a stable identifier back to its kind.
func KindByID(id string) (Kind, bool) {
	for k, info := range kinds {
		if info.id == id {
			return k, true
		}
	}
	return KindNone, false
}

// Diagnostic is a single recorded problem. Offset and Length are in expanded
// (sequence) coordinates of the translation unit.
type Diagnostic struct {
	Kind   Kind
	Offset int
	Length int
	// Arg is the offending name or directive text. It is informational only.
	Arg string
}

// End returns the end offset of the covered range.
func (d Diagnostic) End() int {
	return d.Offset + d.Length
}

func (d Diagnostic) String() string {
	if d.Arg == "" {
		return fmt.Sprintf("%s at %d+%d", d.Kind.ID(), d.Offset, d.Length)
	}
	return fmt.Sprintf("%s at %d+%d: %s", d.Kind.ID(), d.Offset, d.Length, d.Arg)
}

// Sink collects diagnostics in report order. Identical diagnostics are kept
// once. A Sink is safe for use from multiple goroutines.
type Sink struct {
	mu    sync.Mutex
	items []Diagnostic
	seen  map[Diagnostic]struct{}
}

// NewSink creates an empty sink.
func NewSink() *Sink {
	return &Sink{seen: make(map[Diagnostic]struct{})}
}

// Report records a diagnostic.
func (s *Sink) Report(kind Kind, offset, length int, arg string) {
	s.Add(Diagnostic{Kind: kind, Offset: offset, Length: length, Arg: arg})
}

// Add records a diagnostic unless an identical one was already recorded.
func (s *Sink) Add(d Diagnostic) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, dup := s.seen[d]; dup {
		return
	}
	s.seen[d] = struct{}{}
	s.items = append(s.items, d)
}

// All returns a copy of all diagnostics in the order they were reported.
func (s *Sink) All() []Diagnostic {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Diagnostic, len(s.items))
	copy(out, s.items)
	return out
}

// Sorted returns all diagnostics ordered by offset, then by report order.
func (s *Sink) Sorted() []Diagnostic {
	out := s.All()
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Offset < out[j].Offset
	})
	return out
}

// Len returns the number of recorded diagnostics.
func (s *Sink) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// HasErrors reports whether any recorded diagnostic has error severity.
func (s *Sink) HasErrors() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range s.items {
		if d.Kind.Severity() == SeverityError {
			return true
		}
	}
	return false
}

// ByCategory returns the diagnostics of one category in report order.
func (s *Sink) ByCategory(c Category) []Diagnostic {
	var out []Diagnostic
	for _, d := range s.All() {
		if d.Kind.Category() == c {
			out = append(out, d)
		}
	}
	return out
}
