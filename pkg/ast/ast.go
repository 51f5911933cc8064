// Package ast defines the syntax tree produced by the parser: declarations,
// statements, expressions and names, plus the preprocessor artifacts (macro
// definitions and expansions) and the location map that ties expanded
// offsets back to the original source.
package ast

import (
	"reflect"
)

// Position represents a line/column position in a source file
type Position struct {
	Line   int
	Column int
	Offset int
}

// Range is an offset/length pair in expanded (sequence) coordinates.
type Range struct {
	Offset int
	Length int
}

// End returns the exclusive end offset.
func (r Range) End() int {
	return r.Offset + r.Length
}

// Contains reports whether o lies completely inside r.
func (r Range) Contains(o Range) bool {
	return o.Offset >= r.Offset && o.End() <= r.End()
}

// Overlaps reports whether the two ranges share at least one offset.
func (r Range) Overlaps(o Range) bool {
	return o.Offset < r.End() && r.Offset < o.End()
}

// Union returns the smallest range covering both ranges.
func (r Range) Union(o Range) Range {
	start, end := r.Offset, r.End()
	if o.Offset < start {
		start = o.Offset
	}
	if o.End() > end {
		end = o.End()
	}
	return Range{Offset: start, Length: end - start}
}

// AccessLevel represents C++ access levels
type AccessLevel int

const (
	AccessUnknown AccessLevel = iota
	AccessPublic
	AccessProtected
	AccessPrivate
)

func (al AccessLevel) String() string {
	switch al {
	case AccessPublic:
		return "public"
	case AccessProtected:
		return "protected"
	case AccessPrivate:
		return "private"
	default:
		return "unknown"
	}
}

// Flags carries per-node markers.
type Flags uint8

const (
	// FlagImplicit marks synthesized nodes that do not appear in the source.
	FlagImplicit Flags = 1 << iota
	// FlagInactive marks nodes parsed from a conditional branch that was not
	// taken.
	FlagInactive
	// FlagProblem marks problem nodes and nodes containing a syntax problem.
	FlagProblem
)

// Node is implemented by every syntax tree node.
type Node interface {
	Kind() Kind
	Range() Range
	Parent() Node
	Children() []Node
	IsImplicit() bool
	IsInactive() bool
	base() *node
}

type node struct {
	parent Node
	rng    Range
	flags  Flags
}

func (n *node) Range() Range          { return n.rng }
func (n *node) Parent() Node          { return n.parent }
func (n *node) IsImplicit() bool      { return n.flags&FlagImplicit != 0 }
func (n *node) IsInactive() bool      { return n.flags&FlagInactive != 0 }
func (n *node) IsProblem() bool       { return n.flags&FlagProblem != 0 }
func (n *node) base() *node           { return n }
func (n *node) setRange(r Range)      { n.rng = r }
func (n *node) addFlags(f Flags)      { n.flags |= f }
func (n *node) hasFlags(f Flags) bool { return n.flags&f == f }

// SetRange assigns the node's range. It is used by the parser while building
// the tree.
func SetRange(n Node, r Range) {
	n.base().setRange(r)
}

// Adopt sets parent as the parent of every non-nil child.
func Adopt(parent Node, children ...Node) {
	for _, c := range children {
		if isNil(c) {
			continue
		}
		c.base().parent = parent
	}
}

// AddFlags adds markers to the node.
func AddFlags(n Node, f Flags) {
	n.base().addFlags(f)
}

// HasFlags reports whether the node carries all the given markers.
func HasFlags(n Node, f Flags) bool {
	return n.base().hasFlags(f)
}

// MarkInactive flags n and all its descendants as inactive.
func MarkInactive(n Node) {
	Inspect(n, func(c Node) bool {
		c.base().addFlags(FlagInactive)
		return true
	})
}

// Declaration is implemented by declaration nodes.
type Declaration interface {
	Node
	declNode()
}

// Statement is implemented by statement nodes.
type Statement interface {
	Node
	stmtNode()
}

// Expression is implemented by expression nodes.
type Expression interface {
	Node
	exprNode()
}

// Initializer is implemented by the initializer forms of a declarator.
type Initializer interface {
	Node
	initNode()
}

// DeclSpecifier is implemented by the declaration specifier variants.
type DeclSpecifier interface {
	Node
	Specifiers() *SpecFlags
	declSpecNode()
}

func isNil(n Node) bool {
	if n == nil {
		return true
	}
	v := reflect.ValueOf(n)
	return v.Kind() == reflect.Ptr && v.IsNil()
}

// IsNil reports whether n is nil or an interface holding a nil pointer.
func IsNil(n Node) bool {
	return isNil(n)
}

func appendNodes(out []Node, ns ...Node) []Node {
	for _, n := range ns {
		if !isNil(n) {
			out = append(out, n)
		}
	}
	return out
}

// Root returns the outermost ancestor of n.
func Root(n Node) Node {
	for !isNil(n) && !isNil(n.Parent()) {
		n = n.Parent()
	}
	return n
}

// TranslationUnitOf returns the translation unit owning n, or nil for a
// detached node.
func TranslationUnitOf(n Node) *TranslationUnit {
	if isNil(n) {
		return nil
	}
	tu, _ := Root(n).(*TranslationUnit)
	return tu
}

// Enclosing returns the nearest ancestor of n (excluding n) for which match
// returns true.
func Enclosing(n Node, match func(Node) bool) Node {
	if isNil(n) {
		return nil
	}
	for p := n.Parent(); !isNil(p); p = p.Parent() {
		if match(p) {
			return p
		}
	}
	return nil
}

// childReplacer is implemented by nodes that may hold an ambiguous child.
type childReplacer interface {
	replaceChild(old, repl Node) bool
}

// Replace substitutes old by new in old's parent. It reports false when the
// parent cannot hold the replacement.
func Replace(old, repl Node) bool {
	p := old.Parent()
	r, ok := p.(childReplacer)
	if !ok {
		return false
	}
	if !r.replaceChild(old, repl) {
		return false
	}
	repl.base().parent = p
	return true
}

func replaceNode(slot *Node, old, repl Node) bool {
	if isNil(*slot) || *slot != old {
		return false
	}
	*slot = repl
	return true
}

func replaceStmt(slot *Statement, old, repl Node) bool {
	if Node(*slot) != old {
		return false
	}
	s, ok := repl.(Statement)
	if !ok {
		return false
	}
	*slot = s
	return true
}

func replaceInStmts(list []Statement, old, repl Node) bool {
	for i := range list {
		if replaceStmt(&list[i], old, repl) {
			return true
		}
	}
	return false
}
