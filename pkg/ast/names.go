package ast

import "strings"

// NameNode is implemented by every name occurrence.
type NameNode interface {
	Node
	// SimpleID returns the identifier the name denotes without qualification
	// or template arguments.
	SimpleID() string
	// ResolveBinding returns the binding of the name. The result is never
	// nil and is the identical value on every call.
	ResolveBinding() Binding
	nameNode()
}

// Name is an unqualified identifier. Destructor names carry the leading
// tilde in Ident.
type Name struct {
	node
	Ident string
	image *ImageLocation
	c     bindingCell
}

func (*Name) nameNode()            {}
func (n *Name) Children() []Node   { return nil }
func (n *Name) SimpleID() string   { return n.Ident }
func (n *Name) cell() *bindingCell { return &n.c }
func (n *Name) String() string     { return n.Ident }
func (n *Name) IsDestructor() bool { return strings.HasPrefix(n.Ident, "~") }
func (n *Name) ResolveBinding() Binding {
	return resolveCell(n, &n.c)
}

// QualifiedName is a name with a nested-name-specifier, e.g. ::a::b<int>::c.
type QualifiedName struct {
	node
	FullyQualified bool
	Segments       []NameNode
	c              bindingCell
}

func (*QualifiedName) nameNode() {}

func (q *QualifiedName) Children() []Node {
	out := make([]Node, 0, len(q.Segments))
	for _, s := range q.Segments {
		out = appendNodes(out, s)
	}
	return out
}

// Last returns the final segment, the one naming the entity.
func (q *QualifiedName) Last() NameNode {
	if len(q.Segments) == 0 {
		return nil
	}
	return q.Segments[len(q.Segments)-1]
}

// Qualifier returns the segments before the last one.
func (q *QualifiedName) Qualifier() []NameNode {
	if len(q.Segments) == 0 {
		return nil
	}
	return q.Segments[:len(q.Segments)-1]
}

func (q *QualifiedName) SimpleID() string {
	if last := q.Last(); last != nil {
		return last.SimpleID()
	}
	return ""
}

func (q *QualifiedName) cell() *bindingCell { return &q.c }

// ResolveBinding returns the binding of the last segment.
func (q *QualifiedName) ResolveBinding() Binding {
	if b := q.c.load(); b != nil {
		return b
	}
	last := q.Last()
	if last == nil {
		return q.c.store(&unresolved{})
	}
	return q.c.store(last.ResolveBinding())
}

func (q *QualifiedName) String() string {
	var sb strings.Builder
	if q.FullyQualified {
		sb.WriteString("::")
	}
	for i, s := range q.Segments {
		if i > 0 {
			sb.WriteString("::")
		}
		sb.WriteString(NameString(s))
	}
	return sb.String()
}

// TemplateId is a template name followed by an argument list. Each argument
// is a *TypeId, an Expression or an *AmbiguousTemplateArgument.
type TemplateId struct {
	node
	Template NameNode
	Args     []Node
	c        bindingCell
}

func (*TemplateId) nameNode() {}

func (t *TemplateId) Children() []Node {
	out := appendNodes(nil, t.Template)
	return appendNodes(out, t.Args...)
}

func (t *TemplateId) SimpleID() string {
	if t.Template == nil {
		return ""
	}
	return t.Template.SimpleID()
}

func (t *TemplateId) cell() *bindingCell { return &t.c }
func (t *TemplateId) ResolveBinding() Binding {
	return resolveCell(t, &t.c)
}

func (t *TemplateId) replaceChild(old, repl Node) bool {
	for i, a := range t.Args {
		if a == old {
			t.Args[i] = repl
			return true
		}
	}
	return false
}

// OperatorName is an operator-function-id such as operator+ or operator().
// Op holds the operator spelling: "+", "()", "[]", "new", "new[]", ...
type OperatorName struct {
	node
	Op    string
	image *ImageLocation
	c     bindingCell
}

func (*OperatorName) nameNode()            {}
func (o *OperatorName) Children() []Node   { return nil }
func (o *OperatorName) SimpleID() string   { return "operator " + o.Op }
func (o *OperatorName) cell() *bindingCell { return &o.c }
func (o *OperatorName) ResolveBinding() Binding {
	return resolveCell(o, &o.c)
}

// ConversionName is a conversion-function-id, operator T.
type ConversionName struct {
	node
	Type *TypeId
	c    bindingCell
}

func (*ConversionName) nameNode()            {}
func (c *ConversionName) Children() []Node   { return appendNodes(nil, c.Type) }
func (c *ConversionName) SimpleID() string   { return "operator conversion" }
func (c *ConversionName) cell() *bindingCell { return &c.c }
func (c *ConversionName) ResolveBinding() Binding {
	return resolveCell(c, &c.c)
}

// ImplicitName stands for a call the compiler inserts: an overloaded
// operator, a constructor, a destructor or an allocation function. Its parent
// is the owner node. The binding is fixed when the name is created.
type ImplicitName struct {
	node
	Ident string
	// Alternate is set on the second name of a pair that denotes the same
	// call from a different token, e.g. the closing parenthesis of an
	// operator() call.
	Alternate bool
	// ConstructionPoint is the node whose object or temporary the destructor
	// name destroys. It is nil for other implicit names.
	ConstructionPoint Node
	c                 bindingCell
}

// NewImplicitName creates an implicit name owned by owner and bound to b.
func NewImplicitName(owner Node, ident string, rng Range, b Binding) *ImplicitName {
	n := &ImplicitName{Ident: ident}
	n.parent = owner
	n.rng = rng
	n.flags = FlagImplicit
	n.c.store(b)
	return n
}

func (*ImplicitName) nameNode()            {}
func (n *ImplicitName) Children() []Node   { return nil }
func (n *ImplicitName) SimpleID() string   { return n.Ident }
func (n *ImplicitName) cell() *bindingCell { return &n.c }
func (n *ImplicitName) IsAlternate() bool  { return n.Alternate }
func (n *ImplicitName) ResolveBinding() Binding {
	if b := n.c.load(); b != nil {
		return b
	}
	return n.c.store(&unresolved{name: n.Ident})
}

// AmbiguousTemplateArgument holds the type-id and the expression reading of
// a template argument such as A<B> until lookup decides between them.
type AmbiguousTemplateArgument struct {
	node
	Alternatives []Node
}

func (a *AmbiguousTemplateArgument) Children() []Node {
	return appendNodes(nil, a.Alternatives...)
}

// NameString renders a name the way it is spelled, without whitespace.
func NameString(n NameNode) string {
	switch n := n.(type) {
	case nil:
		return ""
	case *Name:
		return n.Ident
	case *QualifiedName:
		return n.String()
	case *TemplateId:
		var sb strings.Builder
		sb.WriteString(NameString(n.Template))
		sb.WriteString("<")
		for i, a := range n.Args {
			if i > 0 {
				sb.WriteString(",")
			}
			if tu := TranslationUnitOf(a); tu != nil {
				sb.WriteString(tu.RawText(a))
			} else {
				sb.WriteString(a.Kind().String())
			}
		}
		sb.WriteString(">")
		return sb.String()
	default:
		return n.SimpleID()
	}
}

// SetImage records the pre-expansion location of a name produced inside a
// macro expansion.
func SetImage(n NameNode, loc ImageLocation) {
	switch n := n.(type) {
	case *Name:
		n.image = &loc
	case *OperatorName:
		n.image = &loc
	}
}

func nameImage(n Node) *ImageLocation {
	switch n := n.(type) {
	case *Name:
		return n.image
	case *OperatorName:
		return n.image
	}
	return nil
}
