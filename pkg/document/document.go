// Package document provides a high-level view of one analyzed source file:
// the entities it declares, how often each is referenced and the problems
// found while resolving its names. It hides the parser and the resolver
// behind a small lookup API.
package document

import (
	"fmt"
	"path/filepath"
	"sort"

	"cppsema/pkg/ast"
	"cppsema/pkg/compilation"
	"cppsema/pkg/diag"
	"cppsema/pkg/frontend"
	"cppsema/pkg/sema"
)

// Document is an analyzed translation unit together with an index of the
// entities it declares.
type Document struct {
	filename    string                   // Name the unit was analyzed under
	content     string                   // Source of the main file
	result      *frontend.Result         // Parse tree, resolver and diagnostics
	entities    []ast.Binding            // Declared entities in declaration order
	entityCache map[string][]ast.Binding // Entities by qualified path
	references  map[ast.Binding]int      // Uses that are not declarations
	stats       ResolutionStats
}

// NewFromFile analyzes a file read through the file provider selected by
// opts, the file system by default.
func NewFromFile(filename string, opts ...compilation.Option) (*Document, error) {
	ctx := compilation.NewContext(opts...)
	content, err := ctx.Files.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", filename, err)
	}

	absPath, err := filepath.Abs(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path for %s: %w", filename, err)
	}

	doc := newDocument(absPath, content, frontend.Analyze(ctx, filename, content))
	return doc, nil
}

// NewFromContent analyzes content as a file with the given name. Includes
// are resolved relative to name.
func NewFromContent(name, content string, opts ...compilation.Option) *Document {
	ctx := compilation.NewContext(opts...)
	return newDocument(name, content, frontend.Analyze(ctx, name, content))
}

// FromResult indexes an existing analysis.
func FromResult(res *frontend.Result, content string) *Document {
	return newDocument(res.Unit.FileName, content, res)
}

func newDocument(name, content string, res *frontend.Result) *Document {
	doc := &Document{
		filename:    name,
		content:     content,
		result:      res,
		entityCache: make(map[string][]ast.Binding),
		references:  make(map[ast.Binding]int),
	}
	doc.buildEntityCache()
	return doc
}

// buildEntityCache resolves every active name once. Declaring names add
// their entity to the index, the others count as references.
func (d *Document) buildEntityCache() {
	r := d.result.Resolver
	seen := make(map[ast.Binding]bool)
	ast.Inspect(d.result.Unit, func(n ast.Node) bool {
		if n.IsInactive() {
			return false
		}
		name, ok := n.(ast.NameNode)
		if !ok {
			return true
		}
		switch n.(type) {
		case *ast.ImplicitName, *ast.QualifiedName, *ast.TemplateId:
			return true
		}

		d.stats.TotalNames++
		b := r.ResolveName(name)
		switch {
		case ast.IsProblem(b):
			d.stats.ProblemNames++
			return true
		case b.BindingKind() == ast.BindingUnknown:
			d.stats.DependentNames++
			return true
		}
		d.stats.ResolvedNames++

		if !isDeclaration(b, name) {
			d.references[b]++
			return true
		}
		if !seen[b] {
			seen[b] = true
			d.entities = append(d.entities, b)
			path := ast.QualifiedNameOf(b)
			d.entityCache[path] = append(d.entityCache[path], b)
		}
		return true
	})
	d.stats.Entities = len(d.entities)
}

// isDeclaration reports whether n, or the qualified name it ends, is one of
// the declarations of b.
func isDeclaration(b ast.Binding, n ast.NameNode) bool {
	decl, ok := b.(interface{ Declarations() []ast.NameNode })
	if !ok {
		return false
	}
	for _, dn := range decl.Declarations() {
		for cur := n; cur != nil; cur = enclosingName(cur) {
			if cur == dn {
				return true
			}
		}
	}
	return false
}

// enclosingName returns the qualified name or template-id that n is the
// final part of.
func enclosingName(n ast.NameNode) ast.NameNode {
	switch p := n.Parent().(type) {
	case *ast.QualifiedName:
		if p.Last() == n {
			return p
		}
	case *ast.TemplateId:
		if p.Template == n {
			return p
		}
	}
	return nil
}

// GetFilename returns the document's filename
func (d *Document) GetFilename() string {
	return d.filename
}

// GetContent returns the source of the main file.
func (d *Document) GetContent() string {
	return d.content
}

// Result returns the underlying analysis (for advanced use cases)
func (d *Document) Result() *frontend.Result {
	return d.result
}

// Entity Lookup Methods

// FindEntity finds an entity by its qualified path (e.g. "geo::Shape::area").
// Of several overloads the first declared is returned.
func (d *Document) FindEntity(path string) ast.Binding {
	if found := d.entityCache[path]; len(found) > 0 {
		return found[0]
	}
	return nil
}

// FindOverloads returns every entity declared under a qualified path.
func (d *Document) FindOverloads(path string) []ast.Binding {
	return d.entityCache[path]
}

// FindEntitiesByName finds all entities with a given name regardless of
// scope.
func (d *Document) FindEntitiesByName(name string) []ast.Binding {
	var found []ast.Binding
	for _, b := range d.entities {
		if b.Name() == name {
			found = append(found, b)
		}
	}
	return found
}

// FindEntitiesByKind returns all entities of one kind.
func (d *Document) FindEntitiesByKind(kind ast.BindingKind) []ast.Binding {
	var found []ast.Binding
	for _, b := range d.entities {
		if b.BindingKind() == kind {
			found = append(found, b)
		}
	}
	return found
}

// GetAllEntities returns all entities in declaration order.
func (d *Document) GetAllEntities() []ast.Binding {
	out := make([]ast.Binding, len(d.entities))
	copy(out, d.entities)
	return out
}

// Paths returns the qualified paths of all entities, sorted.
func (d *Document) Paths() []string {
	paths := make([]string, 0, len(d.entityCache))
	for p := range d.entityCache {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// References returns the number of names referring to b outside its
// declarations.
func (d *Document) References(b ast.Binding) int {
	return d.references[b]
}

// EntitySummary describes one declared entity.
type EntitySummary struct {
	Path         string
	Kind         ast.BindingKind
	Type         string
	Declarations int
	References   int
	Defined      bool
}

// GetEntitySummary returns the summary of the entity at path.
func (d *Document) GetEntitySummary(path string) (*EntitySummary, error) {
	b := d.FindEntity(path)
	if b == nil {
		return nil, fmt.Errorf("entity not found: %s", path)
	}
	return d.summarize(b), nil
}

// Summaries returns the summaries of all entities in declaration order.
func (d *Document) Summaries() []*EntitySummary {
	out := make([]*EntitySummary, 0, len(d.entities))
	for _, b := range d.entities {
		out = append(out, d.summarize(b))
	}
	return out
}

func (d *Document) summarize(b ast.Binding) *EntitySummary {
	s := &EntitySummary{
		Path:       ast.QualifiedNameOf(b),
		Kind:       b.BindingKind(),
		References: d.references[b],
		Defined:    isDefined(b),
	}
	if decl, ok := b.(interface{ Declarations() []ast.NameNode }); ok {
		s.Declarations = len(decl.Declarations())
	}
	switch b.(type) {
	case *sema.Variable, *sema.Function, *sema.Enumerator, *sema.Typedef:
		s.Type = d.result.Resolver.TypeOf(b).String()
	}
	return s
}

func isDefined(b ast.Binding) bool {
	switch b := b.(type) {
	case *sema.Function:
		return b.IsDefined()
	case *sema.Variable:
		return !b.Extern
	case *sema.Class:
		return b.Complete
	}
	return true
}

// ResolutionStats counts the outcome of resolving the names of a document.
type ResolutionStats struct {
	Entities       int
	TotalNames     int
	ResolvedNames  int
	ProblemNames   int
	DependentNames int
}

// Coverage returns the percentage of names that resolved to an entity.
// Names depending on template parameters are left out.
func (s ResolutionStats) Coverage() float64 {
	total := s.TotalNames - s.DependentNames
	if total <= 0 {
		return 100.0
	}
	return float64(s.ResolvedNames) / float64(total) * 100.0
}

// GetResolutionStats returns the name resolution statistics.
func (d *Document) GetResolutionStats() ResolutionStats {
	return d.stats
}

// Validation Methods

// ValidationIssue is a problem found in the document.
type ValidationIssue struct {
	EntityPath string
	IssueType  string
	Message    string
	Severity   string // "error", "warning", "info"
	Offset     int
}

// Validate returns the diagnostics of the analysis followed by functions
// that are called but never defined in this unit.
func (d *Document) Validate() []ValidationIssue {
	var issues []ValidationIssue
	for _, dg := range d.result.Diagnostics() {
		issues = append(issues, ValidationIssue{
			EntityPath: dg.Arg,
			IssueType:  dg.Kind.ID(),
			Message:    dg.String(),
			Severity:   dg.Kind.Severity().String(),
			Offset:     dg.Offset,
		})
	}

	for _, b := range d.entities {
		fn, ok := b.(*sema.Function)
		if !ok || fn.Implicit || fn.IsDefined() || d.references[b] == 0 {
			continue
		}
		issues = append(issues, ValidationIssue{
			EntityPath: ast.QualifiedNameOf(b),
			IssueType:  "missing_definition",
			Message:    "Function is used but not defined in this translation unit",
			Severity:   diag.SeverityInfo.String(),
			Offset:     declOffset(fn),
		})
	}
	return issues
}

func declOffset(fn *sema.Function) int {
	if decls := fn.Declarations(); len(decls) > 0 {
		return decls[0].Range().Offset
	}
	return 0
}

// String returns a string representation of the document
func (d *Document) String() string {
	return fmt.Sprintf("Document[%s]: %d entities, %.1f%% names resolved, %d diagnostics",
		filepath.Base(d.filename), d.stats.Entities, d.stats.Coverage(), d.result.Context.Diagnostics.Len())
}
