package ast

// PointerOpKind is the kind of a pointer or reference operator.
type PointerOpKind int

const (
	OpPointer PointerOpKind = iota
	OpLValueRef
	OpRValueRef
	OpMemberPointer
)

// PointerOp is one of *, &, && or C::* in a declarator.
type PointerOp struct {
	node
	Op       PointerOpKind
	Const    bool
	Volatile bool
	// Class is the class name of a pointer to member.
	Class NameNode
}

func (p *PointerOp) Children() []Node { return appendNodes(nil, p.Class) }

// ArrayModifier is a [size] suffix. Size is nil for [].
type ArrayModifier struct {
	node
	Size Expression
}

func (a *ArrayModifier) Children() []Node { return appendNodes(nil, a.Size) }

// RefQualifier is the & or && qualifier of a member function.
type RefQualifier int

const (
	RefNone RefQualifier = iota
	RefLValue
	RefRValue
)

// Declarator introduces a name with its type modifiers. The type is read
// inside out: pointer operators apply to the nested declarator, which
// applies to the array and function suffixes.
type Declarator struct {
	node
	PtrOps []*PointerOp
	// Name is nil for abstract declarators.
	Name   NameNode
	Nested *Declarator
	Arrays []*ArrayModifier

	IsFunction bool
	Params     []*ParameterDeclaration
	Varargs    bool
	Const      bool
	Volatile   bool
	RefQual    RefQualifier
	Noexcept   bool
	Override   bool
	Final      bool
	Pure       bool
	Trailing   *TypeId

	Init     Initializer
	BitField Expression
	// Pack is set for "T... args".
	Pack bool

	implicit implicitNames
	dtors    implicitNames
}

func (d *Declarator) Children() []Node {
	var out []Node
	for _, p := range d.PtrOps {
		out = appendNodes(out, p)
	}
	out = appendNodes(out, d.Name, d.Nested)
	for _, a := range d.Arrays {
		out = appendNodes(out, a)
	}
	for _, p := range d.Params {
		out = appendNodes(out, p)
	}
	return appendNodes(out, d.Trailing, d.BitField, d.Init)
}

// InnermostName returns the declared name, looking through nested
// declarators.
func (d *Declarator) InnermostName() NameNode {
	for cur := d; cur != nil; cur = cur.Nested {
		if cur.Name != nil {
			return cur.Name
		}
	}
	return nil
}

// Innermost returns the declarator that carries the name.
func (d *Declarator) Innermost() *Declarator {
	cur := d
	for cur.Nested != nil {
		cur = cur.Nested
	}
	return cur
}

// FunctionDeclarator returns the declarator holding the function suffix of
// a function declaration, or nil. In "int (*fp)(int)" the pointer binds to
// the name first, so fp is not a function.
func (d *Declarator) FunctionDeclarator() *Declarator {
	var chain []*Declarator
	for cur := d; cur != nil; cur = cur.Nested {
		chain = append(chain, cur)
	}
	for i := len(chain) - 1; i >= 0; i-- {
		cur := chain[i]
		if cur.IsFunction {
			return cur
		}
		if len(cur.PtrOps) > 0 || len(cur.Arrays) > 0 {
			return nil
		}
	}
	return nil
}

// ImplicitNames returns the constructor call implied by the declaration.
func (d *Declarator) ImplicitNames() []*ImplicitName {
	return ownerImplicitNames(d, &d.implicit)
}

// ImplicitDestructorNames returns the destructor calls for temporaries of
// the initializer that end with the declaration.
func (d *Declarator) ImplicitDestructorNames() []*ImplicitName {
	return ownerDestructorNames(d, &d.dtors)
}

// ParameterDeclaration is a function or non-type template parameter.
type ParameterDeclaration struct {
	node
	Spec       DeclSpecifier
	Declarator *Declarator
}

func (p *ParameterDeclaration) Children() []Node {
	return appendNodes(nil, p.Spec, p.Declarator)
}

// TypeId is a type with an abstract declarator, e.g. "const int*".
type TypeId struct {
	node
	Spec       DeclSpecifier
	Declarator *Declarator
}

func (t *TypeId) Children() []Node { return appendNodes(nil, t.Spec, t.Declarator) }

// TypeTemplateParameter is "typename T = Default" or "class... Ts".
type TypeTemplateParameter struct {
	node
	Name    *Name
	Default *TypeId
	Pack    bool
}

func (p *TypeTemplateParameter) Children() []Node {
	return appendNodes(nil, p.Name, p.Default)
}

// EqualsInitializer is "= value". Value is an Expression or an
// *InitializerList.
type EqualsInitializer struct {
	node
	Value Node
}

func (*EqualsInitializer) initNode()          {}
func (i *EqualsInitializer) Children() []Node { return appendNodes(nil, i.Value) }

// ConstructorInitializer is a parenthesized argument list, "(a, b)".
type ConstructorInitializer struct {
	node
	Args []Node
}

func (*ConstructorInitializer) initNode()          {}
func (i *ConstructorInitializer) Children() []Node { return appendNodes(nil, i.Args...) }

// InitializerList is a braced list. It doubles as an expression in contexts
// such as function arguments and return statements.
type InitializerList struct {
	node
	Elements []Node
}

func (*InitializerList) initNode()          {}
func (*InitializerList) exprNode()          {}
func (l *InitializerList) Children() []Node { return appendNodes(nil, l.Elements...) }

// ConstructorChainInitializer is one entry of a constructor's member
// initializer list, "member(args)" or "Base{args}".
type ConstructorChainInitializer struct {
	node
	Member NameNode
	Init   Initializer

	implicit implicitNames
}

func (c *ConstructorChainInitializer) Children() []Node {
	return appendNodes(nil, c.Member, c.Init)
}

func (c *ConstructorChainInitializer) ImplicitNames() []*ImplicitName {
	return ownerImplicitNames(c, &c.implicit)
}
