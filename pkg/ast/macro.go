package ast

import (
	"github.com/emirpasic/gods/maps/linkedhashmap"
)

// MacroDefinition is a #define seen by the preprocessor or supplied by the
// configuration.
type MacroDefinition struct {
	node
	Name         string
	Params       []string
	FunctionLike bool
	Variadic     bool
	// Replacement is the replacement list as written.
	Replacement string
	// File and the offsets locate the definition. ReplacementOffset is the
	// file offset of the first byte of Replacement.
	File              string
	NameOffset        int
	ReplacementOffset int
	// Builtin is set for predefined and command line macros.
	Builtin bool
}

func (*MacroDefinition) Children() []Node { return nil }

// VariadicParam returns the parameter name the variadic arguments bind to.
func (d *MacroDefinition) VariadicParam() string {
	if !d.Variadic {
		return ""
	}
	if n := len(d.Params); n > 0 && d.Params[n-1] != "__VA_ARGS__" {
		return d.Params[n-1]
	}
	return "__VA_ARGS__"
}

// MacroExpansion records one macro invocation. Its range is the invocation
// in sequence coordinates. Expansions triggered while rescanning the
// replacement of another expansion are nested in it.
type MacroExpansion struct {
	node
	Macro *MacroDefinition
	// Args are the sequence ranges of the arguments written at the call
	// site. Arguments that came from another macro's replacement list have a
	// zero length.
	Args   []Range
	Nested []*MacroExpansion
}

func (e *MacroExpansion) Children() []Node {
	var out []Node
	for _, n := range e.Nested {
		out = appendNodes(out, n)
	}
	return out
}

// AddNested appends an expansion performed inside this one.
func (e *MacroExpansion) AddNested(n *MacroExpansion) {
	n.parent = e
	e.Nested = append(e.Nested, n)
}

// IncludeDirective is an #include line.
type IncludeDirective struct {
	node
	Path     string
	System   bool
	Resolved string
	Found    bool
}

func (*IncludeDirective) Children() []Node { return nil }

// ConditionalDirective is one #if, #ifdef, #ifndef, #elif, #else or #endif
// line. Taken is set when the branch it opens is active.
type ConditionalDirective struct {
	node
	Directive string
	Condition string
	Taken     bool
}

func (*ConditionalDirective) Children() []Node { return nil }

// Comment is a comment of the translation unit. Doc is set for
// documentation comments: /**, /*!, /// and //!.
type Comment struct {
	node
	Text  string
	Block bool
	Doc   bool
}

func (*Comment) Children() []Node { return nil }

// MacroTable holds the defined macros by name in definition order.
type MacroTable struct {
	m *linkedhashmap.Map
}

// NewMacroTable creates an empty table.
func NewMacroTable() *MacroTable {
	return &MacroTable{m: linkedhashmap.New()}
}

// Define adds or replaces a macro and returns the previous definition.
func (t *MacroTable) Define(d *MacroDefinition) *MacroDefinition {
	prev := t.Lookup(d.Name)
	if prev != nil {
		t.m.Remove(d.Name)
	}
	t.m.Put(d.Name, d)
	return prev
}

// Undefine removes a macro.
func (t *MacroTable) Undefine(name string) {
	t.m.Remove(name)
}

// Lookup returns the definition of name, or nil.
func (t *MacroTable) Lookup(name string) *MacroDefinition {
	v, ok := t.m.Get(name)
	if !ok {
		return nil
	}
	return v.(*MacroDefinition)
}

// Defined reports whether name is a defined macro.
func (t *MacroTable) Defined(name string) bool {
	_, ok := t.m.Get(name)
	return ok
}

// Definitions returns all definitions in definition order.
func (t *MacroTable) Definitions() []*MacroDefinition {
	out := make([]*MacroDefinition, 0, t.m.Size())
	it := t.m.Iterator()
	for it.Next() {
		out = append(out, it.Value().(*MacroDefinition))
	}
	return out
}

// Len returns the number of defined macros.
func (t *MacroTable) Len() int {
	return t.m.Size()
}

// Clone returns an independent copy of the table.
func (t *MacroTable) Clone() *MacroTable {
	c := NewMacroTable()
	for _, d := range t.Definitions() {
		c.m.Put(d.Name, d)
	}
	return c
}
