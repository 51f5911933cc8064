package sema

import (
	"cppsema/pkg/ast"
	"cppsema/pkg/diag"
	"cppsema/pkg/scope"
)

// choose picks the binding of n among the declarations lookup found. outer
// is the outermost name n is part of; its placement decides between a type
// context, a call and a plain use. explicit holds the arguments of a
// template-id naming a function template.
func (r *Resolver) choose(n, outer ast.NameNode, found []ast.Binding, explicit []TemplateArg) ast.Binding {
	name := n.SimpleID()
	for _, b := range found {
		if u, ok := b.(*Unknown); ok {
			return u
		}
	}

	if typeContext(outer) {
		types := filterBindings(found, isTypeBinding)
		switch {
		case len(types) > 0:
			return r.sameType(n, types)
		case len(found) > 0:
			return newProblem(diag.NotAType, name, n, found...)
		}
		return newProblem(diag.NameNotFound, name, n)
	}

	fns := flattenFunctions(found)
	call, fr, paren := callSite(outer)
	if call != nil && (len(fns) > 0 || len(found) == 0) {
		args := r.argInfos(call.Args)
		_, qualified := outer.(*ast.QualifiedName)
		if !paren && fr == nil && !qualified && !r.cMode && !blocksADL(found) {
			fns = appendUnique(fns, r.argumentDependentLookup(name, args)...)
		}
		if len(fns) > 0 {
			return r.resolveCall(n, name, fns, r.implicitObject(outer, fr), args, explicit)
		}
	}
	if len(found) == 0 {
		return newProblem(diag.NameNotFound, name, n)
	}

	if len(fns) > 0 {
		if len(fns) == 1 {
			if ft, ok := fns[0].(*FunctionTemplate); ok && explicit != nil {
				if inst, ok := r.deduceCall(ft, explicit, nil); ok {
					return inst
				}
			}
			return fns[0]
		}
		return &OverloadSet{binding: newBinding(name, fns[0].Owner(), scope.None), Functions: fns}
	}

	values := filterBindings(found, func(b ast.Binding) bool { return !isTypeBinding(b) })
	switch {
	case len(values) == 0:
		return r.sameType(n, found)
	case len(values) == 1:
		// a variable or enumerator hides a class of the same name
		return values[0]
	}
	return newProblem(diag.Ambiguous, name, n, values...)
}

// typeContext reports whether a name is used where only types are
// acceptable.
func typeContext(outer ast.NameNode) bool {
	switch p := outer.Parent().(type) {
	case *ast.NamedTypeSpec, *ast.ElaboratedTypeSpec, *ast.BaseSpecifier:
		return true
	case *ast.PointerOp:
		return p.Class == outer
	}
	return false
}

// sameType returns the first of several type bindings when they all denote
// the same type, as a class and a typedef naming it do.
func (r *Resolver) sameType(n ast.NameNode, types []ast.Binding) ast.Binding {
	first := types[0]
	for _, t := range types[1:] {
		if ct, ok := t.(*ClassTemplate); ok && first == ast.Binding(ct.Pattern) {
			continue
		}
		if !SameType(r.bindingType(first), r.bindingType(t)) {
			return newProblem(diag.Ambiguous, n.SimpleID(), n, types...)
		}
	}
	return first
}

func flattenFunctions(found []ast.Binding) []ast.Binding {
	var out []ast.Binding
	for _, b := range found {
		switch b := b.(type) {
		case *Function, *FunctionTemplate:
			out = appendUnique(out, b)
		case *OverloadSet:
			out = appendUnique(out, b.Functions...)
		}
	}
	return out
}

// blocksADL reports whether the result of ordinary lookup suppresses
// argument dependent lookup: a class member, a block scope function
// declaration or something that is not a function.
func blocksADL(found []ast.Binding) bool {
	for _, b := range found {
		switch b := b.(type) {
		case *Function:
			if b.Class != nil || b.Owner() != nil && b.Owner().BindingKind() != ast.BindingNamespace {
				return true
			}
		case *FunctionTemplate:
			if b.Pattern.Class != nil {
				return true
			}
		default:
			return true
		}
	}
	return false
}

// callSite returns the call whose callee the outermost name is, looking
// through parentheses. fr is the member access the name is the member of.
// A parenthesized callee suppresses argument dependent lookup.
func callSite(outer ast.NameNode) (call *ast.FunctionCallExpression, fr *ast.FieldReference, paren bool) {
	var expr ast.Node
	switch p := outer.Parent().(type) {
	case *ast.IdExpression:
		expr = p
	case *ast.FieldReference:
		if p.Member != outer {
			return nil, nil, false
		}
		expr, fr = p, p
	default:
		return nil, nil, false
	}
	for {
		switch p := expr.Parent().(type) {
		case *ast.UnaryExpression:
			if p.Op == ast.UnaryParen {
				paren = true
				expr = p
				continue
			}
		case *ast.FunctionCallExpression:
			if ast.Node(p.Callee) == expr {
				return p, fr, paren
			}
		}
		return nil, fr, paren
	}
}

// implicitObject returns the object a member function named by outer is
// called on: the object of a member access or *this.
func (r *Resolver) implicitObject(outer ast.NameNode, fr *ast.FieldReference) *exprInfo {
	if fr != nil {
		obj := r.objectType(fr)
		return &obj
	}
	if t, ok := r.thisType(outer); ok {
		if elem, ok := pointee(t); ok {
			return &exprInfo{typ: elem, lvalue: true}
		}
	}
	return nil
}

// resolveQualifier resolves a leading component of a qualified name. Only
// namespaces and types are considered.
func (r *Resolver) resolveQualifier(n ast.NameNode, q *ast.QualifiedName) ast.Binding {
	name := n.SimpleID()
	idx := segmentIndex(q, n)
	var found []ast.Binding
	switch {
	case idx > 0:
		var prob ast.Binding
		found, prob = r.lookupIn(r.resolve(q.Segments[idx-1]), name, n.Range().Offset, n)
		if prob != nil {
			return prob
		}
	case q.FullyQualified:
		found = r.qualifiedNamespaceLookup(r.global, name, n.Range().Offset, nil)
	default:
		if fr, ok := q.Parent().(*ast.FieldReference); ok && fr.Member == ast.NameNode(q) {
			if c := classOf(r.objectType(fr).typ); c != nil {
				found, _ = r.classLookup(c, name)
			}
		}
		if len(found) == 0 {
			var prob ast.Binding
			found, prob = r.lookupUnqualified(name, r.scopeOf(q), q.Range().Offset, isScopeBinding)
			if prob != nil {
				return prob
			}
		}
	}
	scopes := filterBindings(found, isScopeBinding)
	switch {
	case len(scopes) > 0:
		for _, b := range scopes {
			if u, ok := b.(*Unknown); ok {
				return u
			}
		}
		return scopes[0]
	case len(found) > 0:
		return newProblem(diag.NotAType, name, n, found...)
	}
	return newProblem(diag.NameNotFound, name, n)
}

// chooseTemplate picks the template a template-id names.
func (r *Resolver) chooseTemplate(n ast.NameNode, found []ast.Binding) ast.Binding {
	var templates []ast.Binding
	for _, b := range found {
		switch t := b.(type) {
		case *ClassTemplate, *FunctionTemplate:
			templates = appendUnique(templates, t)
		case *Class:
			// the injected class name of a class template
			if t.Template != nil {
				templates = appendUnique(templates, t.Template)
			}
		case *Typedef:
			if t.params != nil {
				templates = appendUnique(templates, t)
			}
		case *Unknown:
			return t
		}
	}
	switch {
	case len(templates) == 0 && len(found) == 0:
		return newProblem(diag.NameNotFound, n.SimpleID(), n)
	case len(templates) == 0:
		return newProblem(diag.NotATemplate, n.SimpleID(), n, found...)
	case len(templates) == 1:
		return templates[0]
	}
	for _, t := range templates {
		if _, ok := t.(*FunctionTemplate); !ok {
			return newProblem(diag.Ambiguous, n.SimpleID(), n, templates...)
		}
	}
	return &OverloadSet{binding: newBinding(n.SimpleID(), templates[0].Owner(), scope.None), Functions: templates}
}

// resolveTemplateId resolves a template name with arguments: the class
// template instance, the alias template target or the function template
// specialization a call selects.
func (r *Resolver) resolveTemplateId(t *ast.TemplateId) ast.Binding {
	tmpl := r.resolve(t.Template)
	switch b := tmpl.(type) {
	case *ClassTemplate:
		return r.instantiate(b, r.templateArgs(t), t)
	case *Typedef:
		if b.params != nil {
			return r.instantiateAlias(b, r.templateArgs(t), t)
		}
	case *FunctionTemplate, *OverloadSet:
		return r.choose(t, outermostName(t), flattenFunctions([]ast.Binding{b}), r.templateArgs(t))
	case *Unknown:
		return r.unknown(t.SimpleID())
	case *Problem:
		return b
	}
	return newProblem(diag.NotATemplate, t.SimpleID(), t, tmpl)
}

// resolveLabel finds the label a goto jumps to in the enclosing function.
func (r *Resolver) resolveLabel(n ast.NameNode, g *ast.GotoStatement) ast.Binding {
	fnScope := r.arena.Enclosing(r.scopeOf(g), scope.KindFunction)
	if l, ok := r.labels[fnScope][n.SimpleID()]; ok {
		return l
	}
	return newProblem(diag.LabelNotFound, n.SimpleID(), n)
}

// resolveMemberInitializer resolves the member or base class named by an
// entry of a constructor's member initializer list.
func (r *Resolver) resolveMemberInitializer(n ast.NameNode, init *ast.ConstructorChainInitializer) ast.Binding {
	var cls *Class
	if def, ok := init.Parent().(*ast.FunctionDefinition); ok {
		if fn := r.functions[def]; fn != nil {
			cls = fn.Class
		}
	}
	if cls == nil {
		found, prob := r.lookupUnqualified(n.SimpleID(), r.scopeOf(init), init.Range().Offset, nil)
		if prob != nil {
			return prob
		}
		if len(found) == 0 {
			return newProblem(diag.NameNotFound, n.SimpleID(), n)
		}
		return found[0]
	}
	found, prob := r.classLookup(cls, n.SimpleID())
	if prob != nil {
		return prob
	}
	if len(found) == 0 {
		// a base named through a typedef declared outside the class
		found, prob = r.lookupUnqualified(n.SimpleID(), r.scopeOf(init), init.Range().Offset, isTypeBinding)
		if prob != nil {
			return prob
		}
	}
	for _, b := range found {
		if v, ok := b.(*Variable); ok && !v.Static {
			return v
		}
	}
	for _, b := range found {
		if isTypeBinding(b) {
			return b
		}
	}
	return newProblem(diag.NameNotFound, n.SimpleID(), n, found...)
}
