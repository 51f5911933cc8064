package ast

import "cppsema/pkg/diag"

// SimpleDeclaration is a declaration specifier followed by zero or more
// declarators, e.g. "int a, *b = 0;" or "class C { ... };".
type SimpleDeclaration struct {
	node
	Spec        DeclSpecifier
	Declarators []*Declarator
}

func (*SimpleDeclaration) declNode() {}

func (d *SimpleDeclaration) Children() []Node {
	out := appendNodes(nil, d.Spec)
	for _, dt := range d.Declarators {
		out = appendNodes(out, dt)
	}
	return out
}

// FunctionDefinition is a function declarator with a body, or with
// "= default" / "= delete".
type FunctionDefinition struct {
	node
	Spec        DeclSpecifier
	Declarator  *Declarator
	MemberInits []*ConstructorChainInitializer
	Body        *CompoundStatement
	Defaulted   bool
	Deleted     bool
}

func (*FunctionDefinition) declNode() {}

func (d *FunctionDefinition) Children() []Node {
	out := appendNodes(nil, d.Spec, d.Declarator)
	for _, mi := range d.MemberInits {
		out = appendNodes(out, mi)
	}
	return appendNodes(out, d.Body)
}

// NamespaceDefinition is a named or anonymous namespace. Name is nil for an
// anonymous namespace; nested definitions such as "namespace a::b" produce
// one NamespaceDefinition per segment.
type NamespaceDefinition struct {
	node
	Name   *Name
	Inline bool
	Decls  []Declaration
}

func (*NamespaceDefinition) declNode() {}

func (d *NamespaceDefinition) Children() []Node {
	out := appendNodes(nil, d.Name)
	for _, c := range d.Decls {
		out = appendNodes(out, c)
	}
	return out
}

// NamespaceAlias is "namespace Alias = Target;".
type NamespaceAlias struct {
	node
	Alias  *Name
	Target NameNode
}

func (*NamespaceAlias) declNode()          {}
func (d *NamespaceAlias) Children() []Node { return appendNodes(nil, d.Alias, d.Target) }

// UsingDirective is "using namespace N;".
type UsingDirective struct {
	node
	Name NameNode
}

func (*UsingDirective) declNode()          {}
func (d *UsingDirective) Children() []Node { return appendNodes(nil, d.Name) }

// UsingDeclaration is "using N::name;".
type UsingDeclaration struct {
	node
	Typename bool
	Name     NameNode
}

func (*UsingDeclaration) declNode()          {}
func (d *UsingDeclaration) Children() []Node { return appendNodes(nil, d.Name) }

// AliasDeclaration is "using Alias = type-id;".
type AliasDeclaration struct {
	node
	Alias *Name
	Type  *TypeId
}

func (*AliasDeclaration) declNode()          {}
func (d *AliasDeclaration) Children() []Node { return appendNodes(nil, d.Alias, d.Type) }

// TemplateDeclaration wraps a declaration with its template parameter list.
// Parameters are *TypeTemplateParameter or *ParameterDeclaration nodes. An
// explicit specialization has an empty parameter list.
type TemplateDeclaration struct {
	node
	Params                 []Node
	Decl                   Declaration
	ExplicitSpecialization bool
}

func (*TemplateDeclaration) declNode() {}

func (d *TemplateDeclaration) Children() []Node {
	out := appendNodes(nil, d.Params...)
	return appendNodes(out, d.Decl)
}

// LinkageSpecification is extern "C" { ... } or extern "C" declaration.
type LinkageSpecification struct {
	node
	Linkage string
	Decls   []Declaration
}

func (*LinkageSpecification) declNode() {}

func (d *LinkageSpecification) Children() []Node {
	var out []Node
	for _, c := range d.Decls {
		out = appendNodes(out, c)
	}
	return out
}

// VisibilityLabel is an access label inside a class body.
type VisibilityLabel struct {
	node
	Access AccessLevel
}

func (*VisibilityLabel) declNode()        {}
func (*VisibilityLabel) Children() []Node { return nil }

// StaticAssert is static_assert(cond, message).
type StaticAssert struct {
	node
	Cond    Expression
	Message Expression
}

func (*StaticAssert) declNode()          {}
func (d *StaticAssert) Children() []Node { return appendNodes(nil, d.Cond, d.Message) }

// ProblemDeclaration covers a span the parser could not match.
type ProblemDeclaration struct {
	node
	Problem diag.Kind
}

func (*ProblemDeclaration) declNode()        {}
func (*ProblemDeclaration) Children() []Node { return nil }
