package ast

import (
	"strings"
	"sync/atomic"

	"cppsema/pkg/diag"
)

// BindingKind classifies the entity a name resolves to.
type BindingKind int

const (
	BindingProblem BindingKind = iota
	BindingVariable
	BindingField
	BindingParameter
	BindingFunction
	BindingMethod
	BindingConstructor
	BindingDestructor
	BindingOverloadSet
	BindingClass
	BindingEnum
	BindingEnumerator
	BindingTypedef
	BindingNamespace
	BindingClassTemplate
	BindingFunctionTemplate
	BindingTemplateParameter
	BindingLabel
	BindingUnknown
)

func (k BindingKind) String() string {
	switch k {
	case BindingVariable:
		return "variable"
	case BindingField:
		return "field"
	case BindingParameter:
		return "parameter"
	case BindingFunction:
		return "function"
	case BindingMethod:
		return "method"
	case BindingConstructor:
		return "constructor"
	case BindingDestructor:
		return "destructor"
	case BindingOverloadSet:
		return "overload-set"
	case BindingClass:
		return "class"
	case BindingEnum:
		return "enum"
	case BindingEnumerator:
		return "enumerator"
	case BindingTypedef:
		return "typedef"
	case BindingNamespace:
		return "namespace"
	case BindingClassTemplate:
		return "class-template"
	case BindingFunctionTemplate:
		return "function-template"
	case BindingTemplateParameter:
		return "template-parameter"
	case BindingLabel:
		return "label"
	case BindingUnknown:
		return "unknown"
	default:
		return "problem"
	}
}

// Binding is the semantic entity a name denotes. Two names denoting the same
// declaration resolve to the identical Binding value.
type Binding interface {
	Name() string
	BindingKind() BindingKind
	// Owner returns the binding of the enclosing namespace, class or
	// function, or nil at global scope.
	Owner() Binding
}

// ProblemBinding stands in for a failed resolution.
type ProblemBinding interface {
	Binding
	ProblemKind() diag.Kind
	// Candidates returns the bindings that made the resolution ambiguous or
	// were rejected, if any.
	Candidates() []Binding
}

// IsProblem reports whether b is a problem binding.
func IsProblem(b Binding) bool {
	_, ok := b.(ProblemBinding)
	return ok
}

// QualifiedNameOf returns the "::" separated path of a binding.
func QualifiedNameOf(b Binding) string {
	var parts []string
	for cur := b; cur != nil; cur = cur.Owner() {
		if cur.Name() != "" {
			parts = append([]string{cur.Name()}, parts...)
		}
	}
	return strings.Join(parts, "::")
}

// Resolver computes bindings and implicit names on demand. The semantic
// package attaches one to every analyzed translation unit.
type Resolver interface {
	ResolveName(n NameNode) Binding
	ImplicitNames(owner ImplicitNameOwner) []*ImplicitName
	ImplicitDestructorNames(owner ImplicitDestructorNameOwner) []*ImplicitName
}

// unresolved is returned for names of a translation unit without resolver.
type unresolved struct {
	name string
}

func (u *unresolved) Name() string             { return u.name }
func (u *unresolved) BindingKind() BindingKind { return BindingProblem }
func (u *unresolved) Owner() Binding           { return nil }
func (u *unresolved) ProblemKind() diag.Kind   { return diag.NameNotFound }
func (u *unresolved) Candidates() []Binding    { return nil }

type bindingBox struct {
	b Binding
}

// bindingCell is a write-once slot. Racing writers are harmless: the first
// stored value wins and every caller observes it.
type bindingCell struct {
	p atomic.Pointer[bindingBox]
}

func (c *bindingCell) load() Binding {
	if box := c.p.Load(); box != nil {
		return box.b
	}
	return nil
}

func (c *bindingCell) store(b Binding) Binding {
	if c.p.CompareAndSwap(nil, &bindingBox{b: b}) {
		return b
	}
	return c.p.Load().b
}

type cellHolder interface {
	cell() *bindingCell
}

// SetBinding stores b as the binding of n unless one was stored before, and
// returns the binding that is now cached.
func SetBinding(n NameNode, b Binding) Binding {
	h, ok := n.(cellHolder)
	if !ok || b == nil {
		return b
	}
	return h.cell().store(b)
}

// CachedBinding returns the memoized binding of n, or nil.
func CachedBinding(n NameNode) Binding {
	if h, ok := n.(cellHolder); ok {
		return h.cell().load()
	}
	return nil
}

func resolveCell(n NameNode, c *bindingCell) Binding {
	if b := c.load(); b != nil {
		return b
	}
	tu := TranslationUnitOf(n)
	if tu == nil || tu.resolver == nil {
		return &unresolved{name: n.SimpleID()}
	}
	return c.store(tu.resolver.ResolveName(n))
}

type namesBox struct {
	names []*ImplicitName
}

// implicitNames lazily holds the synthesized names of an owner node.
type implicitNames struct {
	p atomic.Pointer[namesBox]
}

func (in *implicitNames) get(compute func() []*ImplicitName) []*ImplicitName {
	if box := in.p.Load(); box != nil {
		return box.names
	}
	box := &namesBox{names: compute()}
	if in.p.CompareAndSwap(nil, box) {
		return box.names
	}
	return in.p.Load().names
}

// ImplicitNameOwner is implemented by nodes that may imply calls to
// overloaded operators, constructors or allocation functions.
type ImplicitNameOwner interface {
	Node
	ImplicitNames() []*ImplicitName
}

// ImplicitDestructorNameOwner is implemented by nodes at which objects or
// temporaries are destroyed.
type ImplicitDestructorNameOwner interface {
	Node
	ImplicitDestructorNames() []*ImplicitName
}

func ownerImplicitNames(owner ImplicitNameOwner, in *implicitNames) []*ImplicitName {
	return in.get(func() []*ImplicitName {
		tu := TranslationUnitOf(owner)
		if tu == nil || tu.resolver == nil {
			return nil
		}
		return tu.resolver.ImplicitNames(owner)
	})
}

func ownerDestructorNames(owner ImplicitDestructorNameOwner, in *implicitNames) []*ImplicitName {
	return in.get(func() []*ImplicitName {
		tu := TranslationUnitOf(owner)
		if tu == nil || tu.resolver == nil {
			return nil
		}
		return tu.resolver.ImplicitDestructorNames(owner)
	})
}
