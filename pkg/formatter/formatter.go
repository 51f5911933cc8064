// Package formatter renders translation units as indented trees or as JSON
// ready structures, optionally annotated with the bindings of names and the
// implicit calls found by the resolver.
package formatter

import (
	"fmt"
	"strings"

	"cppsema/pkg/ast"
)

// Formatter turns a parse tree into text
type Formatter struct {
	indentSize   int
	useSpaces    bool
	showInactive bool
	showBindings bool
	showImplicit bool
	maxText      int
}

// Option configures a Formatter.
type Option func(*Formatter)

// WithIndent sets the indentation of nested nodes.
func WithIndent(size int, spaces bool) Option {
	return func(f *Formatter) {
		f.indentSize = size
		f.useSpaces = spaces
	}
}

// WithInactive includes the declarations of untaken conditional branches.
func WithInactive() Option {
	return func(f *Formatter) { f.showInactive = true }
}

// WithBindings annotates every name with the entity it resolves to.
func WithBindings() Option {
	return func(f *Formatter) { f.showBindings = true }
}

// WithImplicitNames lists the implicit calls of expressions, declarators
// and scopes below their owner.
func WithImplicitNames() Option {
	return func(f *Formatter) { f.showImplicit = true }
}

// WithMaxText limits the source excerpt printed for leaf nodes. Zero
// disables excerpts.
func WithMaxText(n int) Option {
	return func(f *Formatter) { f.maxText = n }
}

// New creates a new formatter
func New(opts ...Option) *Formatter {
	f := &Formatter{
		indentSize: 2,
		useSpaces:  true,
		maxText:    40,
	}
	for _, o := range opts {
		o(f)
	}
	return f
}

// Node is the rendering of one AST node. It marshals to the JSON form of
// the parse command.
type Node struct {
	Kind     string  `json:"kind"`
	Offset   int     `json:"offset"`
	Length   int     `json:"length"`
	Line     int     `json:"line,omitempty"`
	File     string  `json:"file,omitempty"`
	Name     string  `json:"name,omitempty"`
	Text     string  `json:"text,omitempty"`
	Binding  string  `json:"binding,omitempty"`
	Inactive bool    `json:"inactive,omitempty"`
	Implicit []*Node `json:"implicit,omitempty"`
	Children []*Node `json:"children,omitempty"`
}

// Tree converts tu into its rendering.
func (f *Formatter) Tree(tu *ast.TranslationUnit) *Node {
	return f.Subtree(tu, tu)
}

// Subtree converts the subtree rooted at n.
func (f *Formatter) Subtree(tu *ast.TranslationUnit, n ast.Node) *Node {
	out := f.convert(tu, n)
	if tn, ok := n.(*ast.TranslationUnit); ok {
		out.Name = tn.FileName
	}
	return out
}

func (f *Formatter) convert(tu *ast.TranslationUnit, n ast.Node) *Node {
	rng := n.Range()
	out := &Node{
		Kind:     KindName(n),
		Offset:   rng.Offset,
		Length:   rng.Length,
		Inactive: n.IsInactive(),
	}
	if loc, ok := tu.FileLocation(n); ok {
		out.Line = loc.StartLine
		out.File = loc.File
	}
	if name, ok := n.(ast.NameNode); ok {
		out.Name = name.SimpleID()
		if f.showBindings && !n.IsInactive() {
			out.Binding = DescribeBinding(name.ResolveBinding())
		}
	}

	children := n.Children()
	if len(children) == 0 && f.maxText > 0 {
		out.Text = f.excerpt(tu.RawText(n))
	}
	if f.showImplicit && !n.IsInactive() {
		out.Implicit = f.implicit(n)
	}
	for _, c := range children {
		if c.IsInactive() && !f.showInactive {
			continue
		}
		out.Children = append(out.Children, f.convert(tu, c))
	}
	return out
}

func (f *Formatter) implicit(n ast.Node) []*Node {
	var names []*ast.ImplicitName
	if owner, ok := n.(ast.ImplicitNameOwner); ok {
		names = append(names, owner.ImplicitNames()...)
	}
	if owner, ok := n.(ast.ImplicitDestructorNameOwner); ok {
		names = append(names, owner.ImplicitDestructorNames()...)
	}
	var out []*Node
	for _, in := range names {
		rng := in.Range()
		out = append(out, &Node{
			Kind:    KindName(in),
			Offset:  rng.Offset,
			Length:  rng.Length,
			Name:    in.Ident,
			Binding: DescribeBinding(in.ResolveBinding()),
		})
	}
	return out
}

func (f *Formatter) excerpt(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	if len(text) > f.maxText {
		text = text[:f.maxText] + "..."
	}
	return text
}

// KindName returns the type name of a node without its package prefix.
func KindName(n ast.Node) string {
	return strings.TrimPrefix(fmt.Sprintf("%T", n), "*ast.")
}

// DescribeBinding returns a one-line description of a binding: its kind and
// qualified name, or the problem it stands for.
func DescribeBinding(b ast.Binding) string {
	if b == nil {
		return ""
	}
	if p, ok := b.(ast.ProblemBinding); ok {
		if b.Name() == "" {
			return "problem " + p.ProblemKind().ID()
		}
		return "problem " + p.ProblemKind().ID() + " " + b.Name()
	}
	name := ast.QualifiedNameOf(b)
	if name == "" {
		name = "<anonymous>"
	}
	return b.BindingKind().String() + " " + name
}

// FormatTree renders tu as an indented tree, one node per line.
func (f *Formatter) FormatTree(tu *ast.TranslationUnit) string {
	var sb strings.Builder
	f.write(&sb, f.Tree(tu), 0)
	return sb.String()
}

// FormatNode renders the subtree rooted at n.
func (f *Formatter) FormatNode(tu *ast.TranslationUnit, n ast.Node) string {
	var sb strings.Builder
	f.write(&sb, f.Subtree(tu, n), 0)
	return sb.String()
}

func (f *Formatter) write(sb *strings.Builder, n *Node, depth int) {
	indent := f.getIndent(depth)
	sb.WriteString(indent)
	sb.WriteString(FormatLine(n))
	sb.WriteString("\n")

	for _, in := range n.Implicit {
		sb.WriteString(f.getIndent(depth + 1))
		sb.WriteString("implicit ")
		sb.WriteString(FormatLine(in))
		sb.WriteString("\n")
	}
	for _, c := range n.Children {
		f.write(sb, c, depth+1)
	}
}

// FormatLine renders a single node without its children.
func FormatLine(n *Node) string {
	var sb strings.Builder
	sb.WriteString(n.Kind)
	fmt.Fprintf(&sb, " [%d+%d]", n.Offset, n.Length)
	if n.Line > 0 {
		fmt.Fprintf(&sb, " <%s:%d>", n.File, n.Line)
	}
	if n.Name != "" {
		fmt.Fprintf(&sb, " %s", n.Name)
	}
	if n.Text != "" && n.Text != n.Name {
		fmt.Fprintf(&sb, " %q", n.Text)
	}
	if n.Binding != "" {
		fmt.Fprintf(&sb, " -> %s", n.Binding)
	}
	if n.Inactive {
		sb.WriteString(" (inactive)")
	}
	return sb.String()
}

// getIndent returns the indentation string for a given depth
func (f *Formatter) getIndent(depth int) string {
	if f.useSpaces {
		return strings.Repeat(" ", depth*f.indentSize)
	}
	return strings.Repeat("\t", depth)
}

// Count returns the number of nodes in a rendered tree.
func Count(n *Node) int {
	total := 1
	for _, c := range n.Children {
		total += Count(c)
	}
	return total
}
