package ast

import "strings"

// TranslationUnit is the root of the tree. Besides the declarations it
// records the preprocessor artifacts and the location map of the unit.
type TranslationUnit struct {
	node
	FileName string
	Decls    []Declaration
	// InactiveDecls are parsed from conditional branches that were not
	// taken. They are flagged inactive and take no part in lookup.
	InactiveDecls []Declaration

	Macros     []*MacroDefinition
	Expansions []*MacroExpansion
	Includes   []*IncludeDirective
	Directives []*ConditionalDirective
	Comments   []*Comment
	Locations  *LocationMap

	resolver Resolver
}

// NewTranslationUnit creates an empty unit for the given main file.
func NewTranslationUnit(fileName string, locations *LocationMap) *TranslationUnit {
	if locations == nil {
		locations = NewLocationMap()
	}
	return &TranslationUnit{FileName: fileName, Locations: locations}
}

func (tu *TranslationUnit) Children() []Node {
	out := make([]Node, 0, len(tu.Decls)+len(tu.InactiveDecls))
	for _, d := range tu.Decls {
		out = appendNodes(out, d)
	}
	for _, d := range tu.InactiveDecls {
		out = appendNodes(out, d)
	}
	return out
}

// SetResolver attaches the semantic resolver that computes bindings for the
// names of the unit.
func (tu *TranslationUnit) SetResolver(r Resolver) {
	tu.resolver = r
}

// Resolver returns the attached resolver, or nil.
func (tu *TranslationUnit) Resolver() Resolver {
	return tu.resolver
}

// AddDeclaration appends a top level declaration.
func (tu *TranslationUnit) AddDeclaration(d Declaration) {
	d.base().parent = tu
	tu.Decls = append(tu.Decls, d)
}

// AddInactiveDeclaration appends a declaration of an inactive branch.
func (tu *TranslationUnit) AddInactiveDeclaration(d Declaration) {
	d.base().parent = tu
	MarkInactive(d)
	tu.InactiveDecls = append(tu.InactiveDecls, d)
}

// AddMacroDefinition records a #define of the unit.
func (tu *TranslationUnit) AddMacroDefinition(d *MacroDefinition) {
	d.parent = tu
	tu.Macros = append(tu.Macros, d)
}

// AddExpansion records a top level macro expansion.
func (tu *TranslationUnit) AddExpansion(e *MacroExpansion) {
	e.parent = tu
	tu.Expansions = append(tu.Expansions, e)
}

// AddInclude records an #include directive.
func (tu *TranslationUnit) AddInclude(d *IncludeDirective) {
	d.parent = tu
	tu.Includes = append(tu.Includes, d)
}

// AddDirective records a conditional directive.
func (tu *TranslationUnit) AddDirective(d *ConditionalDirective) {
	d.parent = tu
	tu.Directives = append(tu.Directives, d)
}

// AddComment records a comment.
func (tu *TranslationUnit) AddComment(c *Comment) {
	c.parent = tu
	tu.Comments = append(tu.Comments, c)
}

// DocComment returns the documentation comment written directly before n,
// with nothing but whitespace in between.
func (tu *TranslationUnit) DocComment(n Node) *Comment {
	start := n.Range().Offset
	for i := len(tu.Comments) - 1; i >= 0; i-- {
		c := tu.Comments[i]
		end := c.Range().End()
		if end > start {
			continue
		}
		if !c.Doc || strings.TrimSpace(tu.Locations.Text(Range{Offset: end, Length: start - end})) != "" {
			return nil
		}
		return c
	}
	return nil
}

// FileLocation returns the file range of n.
func (tu *TranslationUnit) FileLocation(n Node) (FileLocation, bool) {
	return tu.Locations.FileLocation(n.Range())
}

// RawText returns the source text covered by n. For a node produced by a
// macro expansion this is the text of the invocation.
func (tu *TranslationUnit) RawText(n Node) string {
	return tu.Locations.Text(n.Range())
}

// ExpansionAt returns the innermost expansion whose invocation contains r.
// Among nested expansions sharing one range the outermost is returned.
func (tu *TranslationUnit) ExpansionAt(r Range) *MacroExpansion {
	var found *MacroExpansion
	list := tu.Expansions
	for list != nil {
		var next []*MacroExpansion
		for _, e := range list {
			er := e.Range()
			if !er.Contains(r) {
				continue
			}
			if found == nil || er != found.Range() {
				found = e
			}
			next = e.Nested
			break
		}
		list = next
	}
	return found
}

// ImageLocation returns where the text of n was written before macro
// expansion.
func (tu *TranslationUnit) ImageLocation(n Node) ImageLocation {
	if img := nameImage(n); img != nil {
		return *img
	}
	r := n.Range()
	exp := tu.ExpansionAt(r)
	if exp == nil {
		loc, _ := tu.Locations.FileLocation(r)
		return ImageLocation{Kind: ImageRegularCode, File: loc.File, Offset: loc.Offset, Length: loc.Length}
	}
	if r.Offset > exp.Range().Offset || r.End() < exp.Range().End() {
		loc, _ := tu.Locations.FileLocation(r)
		return ImageLocation{
			Kind:      ImageMacroArgument,
			File:      loc.File,
			Offset:    loc.Offset,
			Length:    loc.Length,
			Expansion: exp,
		}
	}
	def := exp.Macro
	return ImageLocation{
		Kind:      ImageMacroDefinition,
		File:      def.File,
		Offset:    def.NameOffset,
		Length:    len(def.Name),
		Expansion: exp,
	}
}

// IsInMacroExpansion reports whether n was produced by a macro expansion.
func (tu *TranslationUnit) IsInMacroExpansion(n Node) bool {
	return tu.ExpansionAt(n.Range()) != nil
}
