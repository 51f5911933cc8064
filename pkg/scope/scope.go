// Package scope implements the scope arena of a translation unit. Scopes are
// addressed by ID handles; each scope holds its declared names in
// declaration order and a non-owning link to its parent.
package scope

import (
	"sync"

	"github.com/emirpasic/gods/maps/linkedhashmap"

	"cppsema/pkg/ast"
)

// ID is a handle into an Arena. The zero ID denotes no scope.
type ID int32

// None is the zero handle.
const None ID = 0

// Kind enumerates the scope categories.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindGlobal
	KindNamespace
	KindClass
	KindEnum
	KindFunction
	KindBlock
	KindTemplate
	KindPrototype
)

func (k Kind) String() string {
	switch k {
	case KindGlobal:
		return "global"
	case KindNamespace:
		return "namespace"
	case KindClass:
		return "class"
	case KindEnum:
		return "enum"
	case KindFunction:
		return "function"
	case KindBlock:
		return "block"
	case KindTemplate:
		return "template"
	case KindPrototype:
		return "prototype"
	default:
		return "invalid"
	}
}

// Entry is one declaration of a name.
type Entry struct {
	Binding ast.Binding
	// Decl is the name node of the declaration, nil for implicit members.
	Decl ast.NameNode
	// Offset is the sequence offset at which the name becomes visible.
	Offset int
}

// Relation classifies a new declaration against an existing one of the same
// name in the same scope.
type Relation int

const (
	// Unrelated declarations coexist, e.g. overloads.
	Unrelated Relation = iota
	// Redeclaration declares the same entity again.
	Redeclaration
	// Redefinition defines an entity that already has a definition.
	Redefinition
	// Conflict declares a different entity of an incompatible kind.
	Conflict
)

func (r Relation) String() string {
	switch r {
	case Redeclaration:
		return "redeclaration"
	case Redefinition:
		return "redefinition"
	case Conflict:
		return "conflict"
	default:
		return "unrelated"
	}
}

// Outcome is the result of Declare.
type Outcome struct {
	Relation Relation
	// Existing is the earlier entry the new one relates to, if any.
	Existing Entry
}

// Using is a namespace nominated by a using-directive.
type Using struct {
	Target ID
	Offset int
}

// Scope is a declarative region.
type Scope struct {
	ID     ID
	Kind   Kind
	Parent ID
	// Owner is the binding of the namespace, class, enum or function that
	// opens the scope. It is nil for the global scope and blocks.
	Owner ast.Binding
	Node  ast.Node
	// Inline is set for inline namespaces, whose names are visible in the
	// enclosing namespace.
	Inline   bool
	Usings   []Using
	Children []ID

	names *linkedhashmap.Map
	count int
}

// Declare adds a declaration of name. relate classifies the new entry
// against each existing entry of the same name; the entry is only stored
// when it is unrelated to all of them.
func (s *Scope) Declare(name string, e Entry, relate func(existing Entry) Relation) Outcome {
	var list []Entry
	if v, ok := s.names.Get(name); ok {
		list = v.([]Entry)
	}
	for _, ex := range list {
		if rel := relate(ex); rel != Unrelated {
			return Outcome{Relation: rel, Existing: ex}
		}
	}
	s.names.Put(name, append(list, e))
	s.count++
	return Outcome{Relation: Unrelated}
}

// Replace swaps the binding of an existing entry.
func (s *Scope) Replace(name string, old, repl ast.Binding) bool {
	v, ok := s.names.Get(name)
	if !ok {
		return false
	}
	list := v.([]Entry)
	for i := range list {
		if list[i].Binding == old {
			list[i].Binding = repl
			return true
		}
	}
	return false
}

// Lookup returns all entries of name in declaration order.
func (s *Scope) Lookup(name string) []Entry {
	v, ok := s.names.Get(name)
	if !ok {
		return nil
	}
	return v.([]Entry)
}

// LookupBefore returns the entries of name that are visible at offset.
func (s *Scope) LookupBefore(name string, offset int) []Entry {
	var out []Entry
	for _, e := range s.Lookup(name) {
		if e.Offset <= offset {
			out = append(out, e)
		}
	}
	return out
}

// Names returns the declared names in declaration order.
func (s *Scope) Names() []string {
	out := make([]string, 0, s.names.Size())
	it := s.names.Iterator()
	for it.Next() {
		out = append(out, it.Key().(string))
	}
	return out
}

// Entries returns every entry, grouped by name in declaration order.
func (s *Scope) Entries() []Entry {
	out := make([]Entry, 0, s.count)
	it := s.names.Iterator()
	for it.Next() {
		out = append(out, it.Value().([]Entry)...)
	}
	return out
}

// Len returns the number of entries.
func (s *Scope) Len() int {
	return s.count
}

// AddUsing records a using-directive nominating target.
func (s *Scope) AddUsing(target ID, offset int) {
	for _, u := range s.Usings {
		if u.Target == target {
			return
		}
	}
	s.Usings = append(s.Usings, Using{Target: target, Offset: offset})
}

// Arena owns all scopes of a translation unit.
type Arena struct {
	mu     sync.RWMutex
	scopes []*Scope
}

// NewArena creates an arena with no scopes.
func NewArena() *Arena {
	return &Arena{scopes: []*Scope{nil}}
}

// New allocates a scope and links it into its parent.
func (a *Arena) New(kind Kind, parent ID, node ast.Node, owner ast.Binding) ID {
	a.mu.Lock()
	defer a.mu.Unlock()

	id := ID(len(a.scopes))
	a.scopes = append(a.scopes, &Scope{
		ID:     id,
		Kind:   kind,
		Parent: parent,
		Owner:  owner,
		Node:   node,
		names:  linkedhashmap.New(),
	})
	if parent != None {
		p := a.scopes[parent]
		p.Children = append(p.Children, id)
	}
	return id
}

// Get returns the scope of id, or nil for None or a stale handle.
func (a *Arena) Get(id ID) *Scope {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if id <= None || int(id) >= len(a.scopes) {
		return nil
	}
	return a.scopes[id]
}

// Len returns the number of allocated scopes.
func (a *Arena) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.scopes) - 1
}

// Parent returns the parent handle of id.
func (a *Arena) Parent(id ID) ID {
	if s := a.Get(id); s != nil {
		return s.Parent
	}
	return None
}

// Enclosing returns the nearest scope, starting at id itself, whose kind is
// one of kinds.
func (a *Arena) Enclosing(id ID, kinds ...Kind) ID {
	for cur := id; cur != None; cur = a.Parent(cur) {
		s := a.Get(cur)
		if s == nil {
			return None
		}
		for _, k := range kinds {
			if s.Kind == k {
				return cur
			}
		}
	}
	return None
}

// Chain returns id and its ancestors, innermost first.
func (a *Arena) Chain(id ID) []ID {
	var out []ID
	for cur := id; cur != None; cur = a.Parent(cur) {
		out = append(out, cur)
	}
	return out
}

// IsWithin reports whether inner is outer or nested in it.
func (a *Arena) IsWithin(inner, outer ID) bool {
	for cur := inner; cur != None; cur = a.Parent(cur) {
		if cur == outer {
			return true
		}
	}
	return false
}
