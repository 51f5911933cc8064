package parser

import (
	"cppsema/pkg/ast"
)

// symbolKind is what the parser knows about a name. The parser only needs
// to tell types from everything else to choose between the readings of
// ambiguous constructs; real lookup happens in the semantic pass.
type symbolKind int

const (
	symUnknown symbolKind = iota
	symType
	symTemplate
	symFunctionTemplate
	symValue
	symNamespace
)

type symbolScope struct {
	names map[string]symbolKind
	// class is the name of the class whose body this scope is.
	class string
}

// symbolTable is a stack of scopes plus the sets of every type and template
// name seen so far, used for names in qualified or dependent positions.
type symbolTable struct {
	scopes    []*symbolScope
	types     map[string]bool
	templates map[string]bool
	functions map[string]bool // function templates
}

func newSymbolTable() *symbolTable {
	return &symbolTable{
		scopes:    []*symbolScope{{names: make(map[string]symbolKind)}},
		types:     make(map[string]bool),
		templates: make(map[string]bool),
		functions: make(map[string]bool),
	}
}

// enterScope enters a new scope
func (p *Parser) enterScope(class string) {
	p.symbols.scopes = append(p.symbols.scopes, &symbolScope{names: make(map[string]symbolKind), class: class})
}

// exitScope exits the current scope
func (p *Parser) exitScope() {
	if len(p.symbols.scopes) > 1 {
		p.symbols.scopes = p.symbols.scopes[:len(p.symbols.scopes)-1]
	}
}

// getCurrentScope returns the current scope
func (p *Parser) getCurrentScope() *symbolScope {
	return p.symbols.scopes[len(p.symbols.scopes)-1]
}

// currentClass returns the name of the innermost class being defined.
func (p *Parser) currentClass() string {
	for i := len(p.symbols.scopes) - 1; i >= 0; i-- {
		if c := p.symbols.scopes[i].class; c != "" {
			return c
		}
	}
	return ""
}

// isInsideClass returns true if the current scope is a class body
func (p *Parser) isInsideClass() bool {
	return p.getCurrentScope().class != ""
}

// lookupSymbol finds the innermost declaration of name.
func (p *Parser) lookupSymbol(name string) symbolKind {
	for i := len(p.symbols.scopes) - 1; i >= 0; i-- {
		if k, ok := p.symbols.scopes[i].names[name]; ok {
			return k
		}
	}
	return symUnknown
}

// addSymbol declares name in the current scope.
func (p *Parser) addSymbol(name string, kind symbolKind) {
	if name == "" {
		return
	}
	p.getCurrentScope().names[name] = kind
	switch kind {
	case symType:
		p.symbols.types[name] = true
	case symTemplate:
		p.symbols.types[name] = true
		p.symbols.templates[name] = true
	case symFunctionTemplate:
		p.symbols.functions[name] = true
	}
}

// addOuterSymbol declares name in the scope enclosing the current one. A
// class template's name belongs outside its template parameter scope.
func (p *Parser) addOuterSymbol(name string, kind symbolKind) {
	n := len(p.symbols.scopes)
	if n < 2 {
		p.addSymbol(name, kind)
		return
	}
	top := p.symbols.scopes[n-1]
	p.symbols.scopes = p.symbols.scopes[:n-1]
	p.addSymbol(name, kind)
	p.symbols.scopes = append(p.symbols.scopes, top)
}

// isTypeName reports whether n is known to name a type.
func (p *Parser) isTypeName(n ast.NameNode) bool {
	switch n := n.(type) {
	case *ast.Name:
		k := p.lookupSymbol(n.Ident)
		return k == symType || k == symTemplate
	case *ast.TemplateId:
		return p.isClassTemplateName(n.Template)
	case *ast.QualifiedName:
		last := n.Last()
		if tid, ok := last.(*ast.TemplateId); ok {
			return p.symbols.templates[tid.SimpleID()]
		}
		return last != nil && p.symbols.types[last.SimpleID()]
	}
	return false
}

func (p *Parser) isClassTemplateName(n ast.NameNode) bool {
	if n == nil {
		return false
	}
	if nm, ok := n.(*ast.Name); ok {
		if p.lookupSymbol(nm.Ident) == symTemplate {
			return true
		}
	}
	return p.symbols.templates[n.SimpleID()]
}

// isValueName reports whether n is known to name a variable, function or
// enumerator.
func (p *Parser) isValueName(n ast.NameNode) bool {
	nm, ok := n.(*ast.Name)
	return ok && p.lookupSymbol(nm.Ident) == symValue
}

// isTemplateName reports whether an identifier is known to name a class or
// function template.
func (p *Parser) isTemplateName(ident string) bool {
	switch p.lookupSymbol(ident) {
	case symTemplate, symFunctionTemplate:
		return true
	}
	return p.symbols.templates[ident] || p.symbols.functions[ident]
}

// unqualifiedID returns the identifier declared by a name, or "" for
// qualified and operator names, which introduce nothing in the current
// scope.
func unqualifiedID(n ast.NameNode) string {
	switch n := n.(type) {
	case *ast.Name:
		return n.Ident
	case *ast.TemplateId:
		return unqualifiedID(n.Template)
	}
	return ""
}

// declare registers the names introduced by an accepted declaration.
func (p *Parser) declare(n ast.Node) {
	p.declareAs(n, false)
}

func (p *Parser) declareAs(n ast.Node, template bool) {
	switch d := n.(type) {
	case *ast.DeclarationStatement:
		p.declareAs(d.Decl, template)
	case *ast.TemplateDeclaration:
		p.declareAs(d.Decl, len(d.Params) > 0 || template)
	case *ast.LinkageSpecification:
		for _, c := range d.Decls {
			p.declare(c)
		}
	case *ast.NamespaceDefinition:
		if d.Name != nil {
			p.addSymbol(d.Name.Ident, symNamespace)
		}
	case *ast.NamespaceAlias:
		p.addSymbol(d.Alias.Ident, symNamespace)
	case *ast.AliasDeclaration:
		kind := symType
		if template {
			kind = symTemplate
		}
		p.addSymbol(d.Alias.Ident, kind)
	case *ast.UsingDeclaration:
		id := unqualifiedID(lastSegment(d.Name))
		switch {
		case p.symbols.templates[id]:
			p.addSymbol(id, symTemplate)
		case p.symbols.functions[id]:
			p.addSymbol(id, symFunctionTemplate)
		case p.symbols.types[id] || d.Typename:
			p.addSymbol(id, symType)
		}
	case *ast.FunctionDefinition:
		if d.Spec != nil && d.Spec.Specifiers().Friend {
			return
		}
		p.declareDeclarator(d.Declarator, template, false)
	case *ast.SimpleDeclaration:
		p.declareSpec(d.Spec, template && len(d.Declarators) == 0)
		if d.Spec != nil && d.Spec.Specifiers().Friend {
			return
		}
		typedef := d.Spec != nil && d.Spec.Specifiers().Typedef
		for _, dt := range d.Declarators {
			p.declareDeclarator(dt, template, typedef)
		}
	}
}

func (p *Parser) declareSpec(spec ast.DeclSpecifier, template bool) {
	kind := symType
	if template {
		kind = symTemplate
	}
	switch s := spec.(type) {
	case *ast.CompositeTypeSpec:
		if _, specialization := s.Name.(*ast.TemplateId); s.Name != nil && !specialization {
			p.addSymbol(unqualifiedID(s.Name), kind)
		}
	case *ast.ElaboratedTypeSpec:
		if _, specialization := s.Name.(*ast.TemplateId); !s.Spec.Friend && !specialization {
			p.addSymbol(unqualifiedID(s.Name), kind)
		}
	case *ast.EnumSpec:
		if s.Name != nil {
			p.addSymbol(unqualifiedID(s.Name), symType)
		}
		if !s.Scoped {
			for _, e := range s.Enumerators {
				p.addSymbol(e.Name.Ident, symValue)
			}
		}
	}
}

func (p *Parser) declareDeclarator(d *ast.Declarator, template, typedef bool) {
	if d == nil {
		return
	}
	id := unqualifiedID(d.InnermostName())
	switch {
	case p.isInsideClass() && id == p.getCurrentScope().class && d.FunctionDeclarator() != nil:
		// A constructor leaves the class name a type for later members.
	case typedef:
		p.addSymbol(id, symType)
	case template && d.FunctionDeclarator() != nil:
		p.addSymbol(id, symFunctionTemplate)
	default:
		p.addSymbol(id, symValue)
	}
}

func lastSegment(n ast.NameNode) ast.NameNode {
	if q, ok := n.(*ast.QualifiedName); ok {
		return q.Last()
	}
	return n
}
