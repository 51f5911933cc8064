// Package selector finds the AST node or name that corresponds to a range
// of the expanded source of a translation unit.
package selector

import (
	"errors"
	"fmt"
	"sort"

	"cppsema/pkg/ast"
)

// ErrOutOfRange is returned for a query that does not lie within the
// translation unit.
var ErrOutOfRange = errors.New("selector: range outside the translation unit")

// Mode selects how a node relates to the query range.
type Mode int

const (
	// Contained selects the smallest node lying fully inside the range.
	Contained Mode = iota
	// Enclosing selects the smallest node that covers the range.
	Enclosing
	// ExactName selects the name whose range equals the range.
	ExactName
	// ExactNode selects the node whose range equals the range.
	ExactNode
	// MacroExpansion selects the innermost macro expansion whose
	// invocation covers the range.
	MacroExpansion
)

var modeNames = map[Mode]string{
	Contained:      "contained",
	Enclosing:      "enclosing",
	ExactName:      "name",
	ExactNode:      "node",
	MacroExpansion: "macro",
}

func (m Mode) String() string {
	if s, ok := modeNames[m]; ok {
		return s
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// ParseMode converts a mode name as printed by String.
func ParseMode(s string) (Mode, error) {
	for m, name := range modeNames {
		if name == s {
			return m, nil
		}
	}
	return 0, fmt.Errorf("unknown selection mode %q", s)
}

// AmbiguityResolver picks one of several nodes that match a query equally
// well, e.g. the alternatives of an ambiguous parse or the nodes produced
// by one macro expansion. It must be deterministic.
type AmbiguityResolver func(candidates []ast.Node) ast.Node

// Option configures a Selector.
type Option func(*Selector)

// WithAmbiguityResolver installs the resolver used for ties.
func WithAmbiguityResolver(r AmbiguityResolver) Option {
	return func(s *Selector) { s.resolve = r }
}

// WithInactive makes nodes of inactive conditional branches selectable.
func WithInactive() Option {
	return func(s *Selector) { s.inactive = true }
}

// Selector answers range queries on one translation unit. It only reads
// the tree and may be shared between goroutines.
type Selector struct {
	tu       *ast.TranslationUnit
	resolve  AmbiguityResolver
	inactive bool
}

// New creates a selector for tu.
func New(tu *ast.TranslationUnit, opts ...Option) *Selector {
	s := &Selector{tu: tu}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Select returns the node for the query range in the given mode, or nil
// when no node qualifies. A range outside the unit yields ErrOutOfRange.
func (s *Selector) Select(offset, length int, mode Mode) (ast.Node, error) {
	q, err := s.query(offset, length)
	if err != nil {
		return nil, err
	}
	switch mode {
	case Contained:
		return s.contained(q), nil
	case Enclosing:
		return s.enclosing(q, false), nil
	case ExactName:
		return s.exact(q, true), nil
	case ExactNode:
		return s.exact(q, false), nil
	case MacroExpansion:
		if e := s.tu.ExpansionAt(q); e != nil {
			return e, nil
		}
		return nil, nil
	}
	return nil, fmt.Errorf("unknown selection mode %v", mode)
}

// FirstContainedNode returns the smallest node inside the range.
func (s *Selector) FirstContainedNode(offset, length int) (ast.Node, error) {
	return s.Select(offset, length, Contained)
}

// EnclosingNode returns the smallest node covering the range.
func (s *Selector) EnclosingNode(offset, length int) (ast.Node, error) {
	return s.Select(offset, length, Enclosing)
}

// EnclosingName returns the smallest name covering the range.
func (s *Selector) EnclosingName(offset, length int) (ast.NameNode, error) {
	q, err := s.query(offset, length)
	if err != nil {
		return nil, err
	}
	n, _ := s.enclosing(q, true).(ast.NameNode)
	return n, nil
}

// Name returns the name whose range is exactly the query range.
func (s *Selector) Name(offset, length int) (ast.NameNode, error) {
	n, err := s.Select(offset, length, ExactName)
	if err != nil || n == nil {
		return nil, err
	}
	return n.(ast.NameNode), nil
}

// Node returns the node whose range is exactly the query range.
func (s *Selector) Node(offset, length int) (ast.Node, error) {
	return s.Select(offset, length, ExactNode)
}

// Expansion returns the innermost macro expansion covering the range.
func (s *Selector) Expansion(offset, length int) (*ast.MacroExpansion, error) {
	q, err := s.query(offset, length)
	if err != nil {
		return nil, err
	}
	return s.tu.ExpansionAt(q), nil
}

func (s *Selector) query(offset, length int) (ast.Range, error) {
	if s.tu == nil {
		return ast.Range{}, fmt.Errorf("%w: no translation unit", ErrOutOfRange)
	}
	extent := s.tu.Locations.Extent()
	if offset < 0 || length < 0 || offset+length > extent {
		return ast.Range{}, fmt.Errorf("%w: %d+%d not in [0, %d]", ErrOutOfRange, offset, length, extent)
	}
	return ast.Range{Offset: offset, Length: length}, nil
}

// walk visits, in pre-order, the selectable nodes whose subtree may hold a
// node overlapping q.
func (s *Selector) walk(q ast.Range, visit func(n ast.Node)) {
	ast.Inspect(s.tu, func(n ast.Node) bool {
		if n == ast.Node(s.tu) {
			return true
		}
		if n.IsInactive() && !s.inactive || !touches(n.Range(), q) {
			return false
		}
		visit(n)
		return true
	})
}

// touches reports whether r overlaps q, or contains it when q is empty.
func touches(r, q ast.Range) bool {
	if q.Length == 0 || r.Length == 0 {
		return r.Offset <= q.Offset && q.Offset <= r.End() || q.Contains(r)
	}
	return r.Overlaps(q)
}

func (s *Selector) contained(q ast.Range) ast.Node {
	var best []ast.Node
	bestLen := -1
	s.walk(q, func(n ast.Node) {
		r := n.Range()
		if !q.Contains(r) || r.Length == 0 && q.Length > 0 {
			return
		}
		switch {
		case bestLen < 0 || r.Length < bestLen:
			best, bestLen = []ast.Node{n}, r.Length
		case r.Length == bestLen:
			best = append(best, n)
		}
	})
	return s.pick(best)
}

func (s *Selector) enclosing(q ast.Range, namesOnly bool) ast.Node {
	var best []ast.Node
	bestLen := -1
	s.walk(q, func(n ast.Node) {
		if _, isName := n.(ast.NameNode); namesOnly && !isName {
			return
		}
		r := n.Range()
		if !r.Contains(q) {
			return
		}
		switch {
		case bestLen < 0 || r.Length < bestLen:
			best, bestLen = []ast.Node{n}, r.Length
		case r.Length == bestLen:
			best = append(best, n)
		}
	})
	return s.pick(best)
}

func (s *Selector) exact(q ast.Range, namesOnly bool) ast.Node {
	var best []ast.Node
	s.walk(q, func(n ast.Node) {
		if _, isName := n.(ast.NameNode); namesOnly && !isName {
			return
		}
		if n.Range() == q {
			best = append(best, n)
		}
	})
	return s.pick(best)
}

// pick chooses among equally good matches. The earliest range wins, and
// nested nodes sharing it resolve to the innermost one. Unrelated nodes
// left with the same range are handed to the ambiguity resolver, or else
// the first in source order wins.
func (s *Selector) pick(cands []ast.Node) ast.Node {
	if len(cands) == 0 {
		return nil
	}
	sort.SliceStable(cands, func(i, j int) bool {
		return cands[i].Range().Offset < cands[j].Range().Offset
	})
	first := cands[0].Range()
	var tied []ast.Node
	for _, c := range cands {
		if c.Range() == first {
			tied = append(tied, c)
		}
	}
	var inner []ast.Node
	for _, c := range tied {
		if !hasDescendant(c, tied) {
			inner = append(inner, c)
		}
	}
	if len(inner) > 1 && s.resolve != nil {
		if n := s.resolve(inner); n != nil {
			return n
		}
	}
	return inner[0]
}

// hasDescendant reports whether one of the nodes lies below n.
func hasDescendant(n ast.Node, nodes []ast.Node) bool {
	for _, d := range nodes {
		if d == n {
			continue
		}
		for p := d.Parent(); !ast.IsNil(p); p = p.Parent() {
			if p == n {
				return true
			}
		}
	}
	return false
}

// ImageLocation returns where the text of n was written. For a node taken
// from a macro argument this is the argument at the call site.
func (s *Selector) ImageLocation(n ast.Node) ast.ImageLocation {
	return s.tu.ImageLocation(n)
}
