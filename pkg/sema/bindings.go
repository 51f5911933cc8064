package sema

import (
	"cppsema/pkg/ast"
	"cppsema/pkg/diag"
	"cppsema/pkg/scope"
)

// binding holds what every semantic entity shares.
type binding struct {
	name   string
	owner  ast.Binding
	scope  scope.ID
	access ast.AccessLevel
	decls  []ast.NameNode
}

func (b *binding) Name() string { return b.name }

func (b *binding) Owner() ast.Binding { return b.owner }

// Access returns the access specifier the entity was declared with, or
// AccessUnknown for non-members.
func (b *binding) Access() ast.AccessLevel { return b.access }

// Declarations returns the names that declare the entity, in source order.
func (b *binding) Declarations() []ast.NameNode { return b.decls }

// DeclaringScope returns the scope the entity is a member of.
func (b *binding) DeclaringScope() scope.ID { return b.scope }

func (b *binding) addDecl(n ast.NameNode) {
	if n == nil {
		return
	}
	for _, d := range b.decls {
		if d == n {
			return
		}
	}
	b.decls = append(b.decls, n)
}

func (b *binding) base() *binding { return b }

type baseBinding interface {
	ast.Binding
	base() *binding
}

func newBinding(name string, owner ast.Binding, sc scope.ID) binding {
	b := binding{name: name, scope: sc}
	if owner != nil {
		b.owner = owner
	}
	return b
}

// Variable is a variable, data member or function parameter.
type Variable struct {
	binding
	kind ast.BindingKind
	typ  Type

	Static     bool
	Extern     bool
	Mutable    bool
	HasDefault bool
	Declarator *ast.Declarator
	// Class is the class of a data member.
	Class *Class
	// Specialized is the member of the class template pattern this member
	// of a class template instance was produced from.
	Specialized *Variable
}

func (v *Variable) BindingKind() ast.BindingKind { return v.kind }

func (v *Variable) String() string { return v.name + " " + typeString(v.typ) }

// Function is a function, member function, constructor or destructor.
type Function struct {
	binding
	kind ast.BindingKind
	typ  FunctionType

	Params []*Variable
	Class  *Class

	Static    bool
	Virtual   bool
	Pure      bool
	Explicit  bool
	Inline    bool
	Deleted   bool
	Defaulted bool
	Extern    bool
	// Implicit is set for special members the compiler declares.
	Implicit bool
	// Trivial is set for trivial special members.
	Trivial    bool
	Definition *ast.FunctionDefinition
	special    specialKind

	// Template is the function template an instance was deduced from.
	Template     *FunctionTemplate
	TemplateArgs []TemplateArg
	// Specialized is the member of the class template pattern this member
	// of a class template instance was produced from.
	Specialized *Function
	// friendOf lists the classes that declared the function a friend
	// before any declaration at namespace scope.
	friendOf []*Class
}

func (f *Function) BindingKind() ast.BindingKind { return f.kind }

// Type returns the function type.
func (f *Function) Type() FunctionType { return f.typ }

// IsDefined reports whether a definition was seen.
func (f *Function) IsDefined() bool { return f.Definition != nil || f.Defaulted || f.Deleted }

// UserDeclared reports whether the function was written in the source.
func (f *Function) UserDeclared() bool { return !f.Implicit }

func (f *Function) String() string { return ast.QualifiedNameOf(f) + " " + f.typ.String() }

// minArgs returns the number of parameters without default argument.
func (f *Function) minArgs() int {
	n := 0
	for i, p := range f.Params {
		if p.HasDefault {
			break
		}
		n = i + 1
	}
	if len(f.Params) == 0 && len(f.typ.Params) > 0 {
		return len(f.typ.Params)
	}
	return n
}

func (f *Function) isMember() bool { return f.Class != nil && !f.Static }

// OverloadSet is the result of naming several functions outside of a call.
type OverloadSet struct {
	binding
	Functions []ast.Binding
}

func (*OverloadSet) BindingKind() ast.BindingKind { return ast.BindingOverloadSet }

// Base is one base class specifier of a class.
type Base struct {
	Class   *Class
	Type    Type
	Access  ast.AccessLevel
	Virtual bool
	Spec    *ast.BaseSpecifier
}

// Class is a class, struct or union. Instances of class templates are
// classes with Template and Args set.
type Class struct {
	binding
	Key     ast.ClassKey
	ScopeID scope.ID
	Spec    *ast.CompositeTypeSpec
	Bases   []Base
	// Members lists the member bindings in declaration order, implicit
	// special members last.
	Members      []ast.Binding
	Constructors []*Function
	Destructor   *Function
	Friends      []ast.Binding
	Complete     bool

	Template *ClassTemplate
	Args     []TemplateArg
	// pattern is the class the members of an instance are taken from.
	pattern *Class
	subst   substitution
	// inTemplate is set for classes declared inside a template.
	inTemplate  bool
	polymorphic bool
}

func (*Class) isType() {}

func (c *Class) BindingKind() ast.BindingKind { return ast.BindingClass }

func (c *Class) String() string {
	name := ast.QualifiedNameOf(c)
	if name == "" {
		name = "<anonymous " + c.Key.String() + ">"
	}
	if c.Template != nil && c.Args != nil {
		return name + templateArgsString(c.Args)
	}
	return name
}

// IsInstance reports whether c is an instance of a class template.
func (c *Class) IsInstance() bool { return c.pattern != nil }

// Pattern returns the class the members of an instance come from, or c.
func (c *Class) Pattern() *Class {
	if c.pattern != nil {
		return c.pattern
	}
	return c
}

// IsPolymorphic reports whether the class declares or inherits a virtual
// function.
func (c *Class) IsPolymorphic() bool { return c.polymorphic }

func (c *Class) dependent() bool {
	if c.pattern == nil {
		return c.inTemplate
	}
	for _, a := range c.Args {
		if !a.IsValue && IsDependent(a.Type) {
			return true
		}
	}
	return false
}

// isFriend reports whether b was declared a friend of c.
func (c *Class) isFriend(b ast.Binding) bool {
	for _, f := range c.Pattern().Friends {
		if f == b {
			return true
		}
		if fn, ok := b.(*Function); ok && fn.Template != nil && f == ast.Binding(fn.Template) {
			return true
		}
	}
	return false
}

// Enum is an enumeration.
type Enum struct {
	binding
	Scoped      bool
	Underlying  Type
	ScopeID     scope.ID
	Enumerators []*Enumerator
}

func (*Enum) isType() {}

func (e *Enum) BindingKind() ast.BindingKind { return ast.BindingEnum }

func (e *Enum) String() string { return ast.QualifiedNameOf(e) }

// Enumerator is an enumeration constant.
type Enumerator struct {
	binding
	Enum  *Enum
	Value int64
}

func (*Enumerator) BindingKind() ast.BindingKind { return ast.BindingEnumerator }

// Typedef is a typedef name or alias declaration. It is transparent for
// type comparisons.
type Typedef struct {
	binding
	Target Type
	// params are the parameters of an alias template.
	params    []*TemplateParameter
	instances map[string]*Typedef
}

func (*Typedef) isType() {}

func (*Typedef) BindingKind() ast.BindingKind { return ast.BindingTypedef }

func (t *Typedef) String() string { return ast.QualifiedNameOf(t) }

// Namespace is a named or anonymous namespace.
type Namespace struct {
	binding
	ScopeID   scope.ID
	Inline    bool
	Anonymous bool
}

func (*Namespace) BindingKind() ast.BindingKind { return ast.BindingNamespace }

// TemplateParameter is a type or non-type template parameter.
type TemplateParameter struct {
	binding
	Index   int
	NonType bool
	Pack    bool
	// ValueType is the type of a non-type parameter.
	ValueType  Type
	Default    TemplateArg
	HasDefault bool
}

func (*TemplateParameter) isType() {}

func (*TemplateParameter) BindingKind() ast.BindingKind { return ast.BindingTemplateParameter }

func (p *TemplateParameter) String() string { return p.name }

// ClassTemplate is a class template. Instances are memoized by their
// arguments, so equal arguments yield the identical class.
type ClassTemplate struct {
	binding
	Params  []*TemplateParameter
	Pattern *Class

	specializations map[string]*Class
	partials        []partialSpec
	instances       map[string]*Class
}

func (*ClassTemplate) BindingKind() ast.BindingKind { return ast.BindingClassTemplate }

// Instances returns the number of distinct instances created so far.
func (t *ClassTemplate) Instances() int { return len(t.instances) }

// FunctionTemplate is a function template.
type FunctionTemplate struct {
	binding
	Params  []*TemplateParameter
	Pattern *Function

	instances map[string]*Function
}

func (*FunctionTemplate) BindingKind() ast.BindingKind { return ast.BindingFunctionTemplate }

// Label is a statement label.
type Label struct {
	binding
	Statement *ast.LabelStatement
}

func (*Label) BindingKind() ast.BindingKind { return ast.BindingLabel }

// Unknown is the binding of a name that depends on template arguments.
type Unknown struct {
	binding
}

func (*Unknown) BindingKind() ast.BindingKind { return ast.BindingUnknown }

// Problem records why a name could not be resolved.
type Problem struct {
	name       string
	kind       diag.Kind
	candidates []ast.Binding
	// Node is the name or expression the problem was found at.
	Node ast.Node
}

func newProblem(kind diag.Kind, name string, n ast.Node, candidates ...ast.Binding) *Problem {
	return &Problem{name: name, kind: kind, candidates: candidates, Node: n}
}

func (p *Problem) Name() string                 { return p.name }
func (p *Problem) BindingKind() ast.BindingKind { return ast.BindingProblem }
func (p *Problem) Owner() ast.Binding           { return nil }
func (p *Problem) ProblemKind() diag.Kind       { return p.kind }
func (p *Problem) Candidates() []ast.Binding    { return p.candidates }
func (p *Problem) String() string               { return p.kind.ID() + " " + p.name }

func isTypeBinding(b ast.Binding) bool {
	switch b.(type) {
	case *Class, *Enum, *Typedef, *TemplateParameter, *ClassTemplate:
		if p, ok := b.(*TemplateParameter); ok {
			return !p.NonType
		}
		return true
	}
	return false
}

func isScopeBinding(b ast.Binding) bool {
	switch b.(type) {
	case *Namespace, *Unknown:
		return true
	}
	return isTypeBinding(b)
}

func isFunctionBinding(b ast.Binding) bool {
	switch b.(type) {
	case *Function, *FunctionTemplate:
		return true
	}
	return false
}

// memberClass returns the class a member binding belongs to, or nil.
func memberClass(b ast.Binding) *Class {
	switch b := b.(type) {
	case *Variable:
		return b.Class
	case *Function:
		return b.Class
	}
	if b == nil {
		return nil
	}
	c, _ := b.Owner().(*Class)
	return c
}
