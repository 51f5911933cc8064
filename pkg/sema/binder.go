package sema

import (
	"cppsema/pkg/ast"
	"cppsema/pkg/diag"
	"cppsema/pkg/scope"
)

// templateInfo describes the template declaration a declaration is the
// pattern of.
type templateInfo struct {
	decl     *ast.TemplateDeclaration
	scope    scope.ID
	params   []*TemplateParameter
	explicit bool
}

// bodyTask is a function body waiting for the second pass.
type bodyTask struct {
	def   *ast.FunctionDefinition
	fn    *Function
	scope scope.ID
}

// binder declares the entities of a translation unit. Declarations are
// bound in source order; function bodies are bound afterwards, so that a
// member function body sees the complete class.
type binder struct {
	r      *Resolver
	access ast.AccessLevel
	bodies []bodyTask
}

func (b *binder) bindUnit(tu *ast.TranslationUnit) {
	for _, d := range tu.Decls {
		b.declaration(d, b.r.global)
	}
	for i := 0; i < len(b.bodies); i++ {
		b.body(b.bodies[i])
	}
}

func (b *binder) declaration(d ast.Declaration, sc scope.ID) {
	switch d := d.(type) {
	case *ast.SimpleDeclaration:
		b.simpleDeclaration(d, sc, nil)
	case *ast.FunctionDefinition:
		b.functionDefinition(d, sc, nil)
	case *ast.NamespaceDefinition:
		b.namespace(d, sc)
	case *ast.NamespaceAlias:
		b.namespaceAlias(d, sc)
	case *ast.UsingDirective:
		b.usingDirective(d, sc)
	case *ast.UsingDeclaration:
		b.usingDeclaration(d, sc)
	case *ast.AliasDeclaration:
		b.aliasDeclaration(d, sc, nil)
	case *ast.TemplateDeclaration:
		b.template(d, sc, sc)
	case *ast.LinkageSpecification:
		for _, c := range d.Decls {
			b.declaration(c, sc)
		}
	case *ast.VisibilityLabel:
		b.access = d.Access
	case *ast.StaticAssert:
		b.collapse(d)
	}
}

// declare adds a binding to a scope. Members of a class are appended to
// the class in declaration order.
func (b *binder) declare(sc scope.ID, name string, bnd ast.Binding, decl ast.NameNode, relate func(scope.Entry) scope.Relation) scope.Outcome {
	s := b.r.arena.Get(sc)
	if s == nil {
		return scope.Outcome{}
	}
	offset := 0
	if decl != nil {
		offset = decl.Range().Offset
	}
	if relate == nil {
		relate = func(scope.Entry) scope.Relation { return scope.Unrelated }
	}
	out := s.Declare(name, scope.Entry{Binding: bnd, Decl: decl, Offset: offset}, relate)
	if out.Relation == scope.Unrelated && s.Kind == scope.KindClass {
		if c, ok := s.Owner.(*Class); ok {
			c.Members = append(c.Members, bnd)
		}
	}
	return out
}

// settle binds the declaring name according to the outcome of declare and
// returns the binding the declaration ends up denoting.
func (b *binder) settle(out scope.Outcome, bnd ast.Binding, decl ast.NameNode) ast.Binding {
	switch out.Relation {
	case scope.Redeclaration:
		existing := out.Existing.Binding
		if bb, ok := existing.(baseBinding); ok {
			bb.base().addDecl(decl)
		}
		setDeclBinding(decl, existing)
		return existing
	case scope.Redefinition:
		setDeclBinding(decl, newProblem(diag.Redefinition, nameOf(decl), decl, out.Existing.Binding))
	case scope.Conflict:
		setDeclBinding(decl, newProblem(diag.InvalidRedeclaration, nameOf(decl), decl, out.Existing.Binding))
	default:
		setDeclBinding(decl, bnd)
	}
	return bnd
}

func nameOf(n ast.NameNode) string {
	if ast.IsNil(n) {
		return ""
	}
	return n.SimpleID()
}

// setDeclBinding fixes the binding of a declaring name and of the last
// component of a qualified declaring name.
func setDeclBinding(n ast.NameNode, bnd ast.Binding) {
	if ast.IsNil(n) {
		return
	}
	ast.SetBinding(n, bnd)
	if q, ok := n.(*ast.QualifiedName); ok {
		if last := q.Last(); last != nil {
			if _, tid := last.(*ast.TemplateId); !tid {
				ast.SetBinding(last, bnd)
			}
		}
	}
}

// accessIn returns the access of a member declared in sc.
func (b *binder) accessIn(sc scope.ID) ast.AccessLevel {
	if s := b.r.arena.Get(sc); s != nil && s.Kind == scope.KindClass {
		return b.access
	}
	return ast.AccessUnknown
}

// owner returns the binding that owns declarations of sc: the nearest
// namespace, class, enumeration or function.
func (r *Resolver) owner(sc scope.ID) ast.Binding {
	for cur := sc; cur != scope.None; cur = r.arena.Parent(cur) {
		s := r.arena.Get(cur)
		if s == nil || s.Kind == scope.KindGlobal {
			return nil
		}
		if s.Owner != nil {
			return s.Owner
		}
	}
	return nil
}

// namespaceOf returns the innermost namespace or global scope around sc.
func (r *Resolver) namespaceOf(sc scope.ID) scope.ID {
	return r.arena.Enclosing(sc, scope.KindNamespace, scope.KindGlobal)
}

// declScopeOf returns the scope a qualified declaring name refers to, or
// sc for an unqualified name.
func (b *binder) declScopeOf(n ast.NameNode, sc scope.ID) (scope.ID, ast.Binding) {
	q, ok := n.(*ast.QualifiedName)
	if !ok || len(q.Segments) < 2 {
		if ok && q.FullyQualified {
			return b.r.global, nil
		}
		return sc, nil
	}
	qual := b.r.resolve(q.Segments[len(q.Segments)-2])
	switch t := qual.(type) {
	case *Namespace:
		return t.ScopeID, t
	case *Class:
		return t.Pattern().ScopeID, t.Pattern()
	case *ClassTemplate:
		return t.Pattern.ScopeID, t.Pattern
	case *Typedef:
		if c := classOf(t); c != nil {
			return c.Pattern().ScopeID, c.Pattern()
		}
	}
	return scope.None, qual
}

func (b *binder) simpleDeclaration(d *ast.SimpleDeclaration, sc scope.ID, tmpl *templateInfo) {
	flags := d.Spec.Specifiers()
	var specType Type
	switch s := d.Spec.(type) {
	case *ast.CompositeTypeSpec:
		specType = b.class(s, sc, tmpl)
	case *ast.EnumSpec:
		specType = b.enum(s, sc)
	case *ast.ElaboratedTypeSpec:
		specType = b.elaborated(s, sc, len(d.Declarators) == 0, flags.Friend, tmpl)
	default:
		b.collapse(d.Spec)
		specType = b.r.specType(d.Spec)
	}
	for _, dt := range d.Declarators {
		b.collapse(dt)
		b.declarator(dt, d.Spec, specType, sc, tmpl, nil)
	}
}

// declarator declares the entity of one declarator of a declaration.
func (b *binder) declarator(dt *ast.Declarator, spec ast.DeclSpecifier, specType Type, sc scope.ID, tmpl *templateInfo, def *ast.FunctionDefinition) ast.Binding {
	name := dt.InnermostName()
	if name == nil {
		return nil
	}
	flags := spec.Specifiers()
	switch {
	case flags.Typedef:
		td := &Typedef{binding: newBinding(name.SimpleID(), b.r.owner(sc), sc), Target: b.r.declaratorType(specType, dt)}
		td.access = b.accessIn(sc)
		td.addDecl(name)
		out := b.declare(sc, td.name, td, name, func(e scope.Entry) scope.Relation {
			if ex, ok := e.Binding.(*Typedef); ok && SameType(ex.Target, td.Target) {
				return scope.Redeclaration
			}
			if _, ok := e.Binding.(*Class); ok {
				return scope.Unrelated
			}
			return scope.Conflict
		})
		bnd := b.settle(out, td, name)
		b.r.declarations[dt] = bnd
		return bnd
	case dt.FunctionDeclarator() != nil:
		bnd := b.function(dt, spec, specType, sc, tmpl, def)
		b.r.declarations[dt] = bnd
		return bnd
	}
	bnd := b.variable(dt, spec, specType, sc)
	b.r.declarations[dt] = bnd
	return bnd
}

func (b *binder) variable(dt *ast.Declarator, spec ast.DeclSpecifier, specType Type, sc scope.ID) ast.Binding {
	name := dt.InnermostName()
	flags := spec.Specifiers()
	target, qual := b.declScopeOf(name, sc)
	if target == scope.None {
		p := newProblem(diag.NameNotFound, name.SimpleID(), name, qual)
		setDeclBinding(name, p)
		return p
	}
	if target != sc {
		// definition of a static data member or a namespace member
		for _, e := range b.r.arena.Get(target).Lookup(name.SimpleID()) {
			if v, ok := e.Binding.(*Variable); ok {
				v.addDecl(name)
				setDeclBinding(name, v)
				return v
			}
		}
		p := newProblem(diag.NameNotFound, name.SimpleID(), name)
		setDeclBinding(name, p)
		return p
	}

	s := b.r.arena.Get(sc)
	v := &Variable{
		binding:    newBinding(name.SimpleID(), b.r.owner(sc), sc),
		kind:       ast.BindingVariable,
		typ:        b.r.declaratorType(specType, dt),
		Static:     flags.Storage == ast.StorageStatic,
		Extern:     flags.Storage == ast.StorageExtern,
		Mutable:    flags.Mutable,
		Declarator: dt,
	}
	v.access = b.accessIn(sc)
	v.addDecl(name)
	if s.Kind == scope.KindClass {
		v.kind = ast.BindingField
		v.Class, _ = s.Owner.(*Class)
	}
	block := s.Kind == scope.KindBlock || s.Kind == scope.KindFunction
	out := b.declare(sc, v.name, v, name, func(e scope.Entry) scope.Relation {
		switch ex := e.Binding.(type) {
		case *Variable:
			if s.Kind == scope.KindClass || (block && !(ex.Extern && v.Extern)) {
				return scope.Redefinition
			}
			if !SameType(ex.typ, v.typ) && !containsAuto(v.typ) {
				return scope.Conflict
			}
			if !ex.Extern && !v.Extern {
				return scope.Redefinition
			}
			return scope.Redeclaration
		case *Class, *Enum:
			return scope.Unrelated
		}
		return scope.Conflict
	})
	if out.Relation == scope.Redeclaration {
		if ex, ok := out.Existing.Binding.(*Variable); ok && !v.Extern {
			ex.Extern = false
			ex.Declarator = dt
		}
	}
	return b.settle(out, v, name)
}

// function declares a function or function template.
func (b *binder) function(dt *ast.Declarator, spec ast.DeclSpecifier, specType Type, sc scope.ID, tmpl *templateInfo, def *ast.FunctionDefinition) ast.Binding {
	name := dt.InnermostName()
	flags := spec.Specifiers()
	fd := dt.FunctionDeclarator()

	target, qual := b.declScopeOf(name, sc)
	if flags.Friend && target == sc {
		target = b.r.namespaceOf(sc)
	}
	if target == scope.None {
		p := newProblem(diag.NameNotFound, name.SimpleID(), name, qual)
		setDeclBinding(name, p)
		return p
	}
	ts := b.r.arena.Get(target)

	var cls *Class
	if ts.Kind == scope.KindClass {
		cls, _ = ts.Owner.(*Class)
	}
	id := name.SimpleID()
	if tid, ok := lastSegment(name).(*ast.TemplateId); ok {
		id = tid.SimpleID()
	}

	fn := &Function{
		binding:    newBinding(id, b.r.owner(target), target),
		kind:       ast.BindingFunction,
		Class:      cls,
		Static:     flags.Storage == ast.StorageStatic,
		Virtual:    flags.Virtual || fd.Override || fd.Final,
		Pure:       fd.Pure,
		Explicit:   flags.Explicit,
		Inline:     flags.Inline || def != nil && cls != nil && target == sc,
		Extern:     flags.Storage == ast.StorageExtern,
		Definition: def,
	}
	if def != nil {
		fn.Deleted = def.Deleted
		fn.Defaulted = def.Defaulted
	}
	fn.typ = b.r.functionType(specType, dt)
	if cn, ok := lastSegment(name).(*ast.ConversionName); ok && cn.Type != nil {
		fn.typ.Result = b.r.typeIdType(cn.Type)
	}
	fn.Params = b.parameters(fd, fn)
	if cls != nil {
		fn.kind = ast.BindingMethod
		switch {
		case id == cls.name:
			fn.kind = ast.BindingConstructor
		case id == "~"+cls.name:
			fn.kind = ast.BindingDestructor
		}
		if target == sc {
			fn.access = b.access
		} else if !flags.Friend {
			fn.Static = false
		}
	}
	fn.addDecl(name)

	if flags.Friend && target != sc {
		b.friendFunction(fn, sc, target, tmpl, name)
		return fn
	}

	var declared ast.Binding = fn
	var ft *FunctionTemplate
	if tmpl != nil && !tmpl.explicit {
		ft = &FunctionTemplate{binding: fn.binding, Params: tmpl.params, Pattern: fn, instances: map[string]*Function{}}
		fn.Template = ft
		declared = ft
	}
	if tmpl != nil && tmpl.explicit {
		// an explicit specialization is found through its template
		if t, ok := b.r.resolve(templateNameOf(name)).(*FunctionTemplate); ok {
			fn.Template = t
			tid, _ := lastSegment(name).(*ast.TemplateId)
			b.r.registerSpecialization(t, fn, tid)
		}
		setDeclBinding(name, fn)
		return fn
	}

	if target != sc {
		// out of line definition of a member or a namespace member
		existing := b.matchFunction(ts.Lookup(id), fn, ft != nil)
		if existing == nil {
			p := newProblem(diag.InvalidRedeclaration, id, name)
			setDeclBinding(name, p)
			return p
		}
		b.mergeFunction(existing, fn, name, def)
		return existing
	}

	if hidden := b.takeHiddenFriend(fn, target); hidden != nil {
		b.mergeFunction(hidden, fn, name, def)
		b.declare(target, id, hidden, name, nil)
		return hidden
	}

	out := b.declare(target, id, declared, name, func(e scope.Entry) scope.Relation {
		return b.relateFunction(e.Binding, fn, ft != nil)
	})
	if out.Relation == scope.Redeclaration {
		existing := out.Existing.Binding
		b.mergeFunction(existing, fn, name, def)
		return existing
	}
	bnd := b.settle(out, declared, name)
	if bnd == declared && cls != nil {
		b.addMember(cls, fn)
	}
	return bnd
}

func lastSegment(n ast.NameNode) ast.NameNode {
	if q, ok := n.(*ast.QualifiedName); ok {
		return q.Last()
	}
	return n
}

func templateNameOf(n ast.NameNode) ast.NameNode {
	if tid, ok := lastSegment(n).(*ast.TemplateId); ok {
		return tid.Template
	}
	return n
}

// relateFunction classifies a function declaration against an existing
// entry of the same name.
func (b *binder) relateFunction(existing ast.Binding, fn *Function, template bool) scope.Relation {
	switch ex := existing.(type) {
	case *Function:
		if template {
			return scope.Unrelated
		}
		if b.r.cMode || sameParameterTypes(ex.typ, fn.typ) {
			if ex.IsDefined() && fn.Definition != nil {
				return scope.Redefinition
			}
			return scope.Redeclaration
		}
		return scope.Unrelated
	case *FunctionTemplate:
		if template && len(ex.Params) == len(fn.templateParams()) && sameParameterTypes(ex.Pattern.typ, fn.typ) {
			if ex.Pattern.IsDefined() && fn.Definition != nil {
				return scope.Redefinition
			}
			return scope.Redeclaration
		}
		return scope.Unrelated
	case *Class, *Enum:
		return scope.Unrelated
	}
	return scope.Conflict
}

func (f *Function) templateParams() []*TemplateParameter {
	if f.Template != nil {
		return f.Template.Params
	}
	return nil
}

// matchFunction finds the declaration an out of line definition belongs
// to.
func (b *binder) matchFunction(entries []scope.Entry, fn *Function, template bool) ast.Binding {
	var only ast.Binding
	count := 0
	for _, e := range entries {
		switch ex := e.Binding.(type) {
		case *Function:
			if template {
				continue
			}
			count++
			only = ex
			if sameParameterTypes(ex.typ, fn.typ) {
				return ex
			}
		case *FunctionTemplate:
			count++
			only = ex
			if sameParameterTypes(ex.Pattern.typ, fn.typ) {
				return ex
			}
		}
	}
	if count == 1 && IsDependent(fn.typ) {
		return only
	}
	if count == 0 && fn.kind == ast.BindingConstructor {
		if cls := fn.Class; cls != nil {
			for _, c := range cls.Constructors {
				if sameParameterTypes(c.typ, fn.typ) {
					return c
				}
			}
		}
	}
	return nil
}

// mergeFunction records a redeclaration or the definition of an existing
// function.
func (b *binder) mergeFunction(existing ast.Binding, fn *Function, name ast.NameNode, def *ast.FunctionDefinition) {
	target, _ := existing.(*Function)
	if ft, ok := existing.(*FunctionTemplate); ok {
		target = ft.Pattern
	}
	if target == nil {
		setDeclBinding(name, existing)
		return
	}
	if def != nil && target.IsDefined() && target.Definition != def {
		setDeclBinding(name, newProblem(diag.Redefinition, target.name, name, existing))
		b.r.functions[def] = fn
		return
	}
	target.addDecl(name)
	if def != nil {
		target.Definition = def
		target.Deleted = target.Deleted || def.Deleted
		target.Defaulted = target.Defaulted || def.Defaulted
		b.r.functions[def] = target
	}
	for i, p := range fn.Params {
		if i < len(target.Params) && p.HasDefault {
			target.Params[i].HasDefault = true
		}
	}
	setDeclBinding(name, existing)
}

func (b *binder) addMember(cls *Class, fn *Function) {
	switch fn.kind {
	case ast.BindingConstructor:
		cls.Constructors = append(cls.Constructors, fn)
	case ast.BindingDestructor:
		cls.Destructor = fn
	}
	if fn.Virtual {
		cls.polymorphic = true
	}
}

// friendFunction records a function declared a friend of the class owning
// sc. A friend that was not declared before is only found by argument
// dependent lookup until it is declared in its namespace.
func (b *binder) friendFunction(fn *Function, sc, target scope.ID, tmpl *templateInfo, name ast.NameNode) {
	cls, _ := b.r.arena.Get(sc).Owner.(*Class)
	var bnd ast.Binding = fn
	if tmpl != nil && !tmpl.explicit {
		ft := &FunctionTemplate{binding: fn.binding, Params: tmpl.params, Pattern: fn, instances: map[string]*Function{}}
		fn.Template = ft
		bnd = ft
	}
	fn.access = ast.AccessUnknown
	if existing := b.matchFunction(b.r.arena.Get(target).Lookup(fn.name), fn, tmpl != nil && !tmpl.explicit); existing != nil {
		b.mergeFunction(existing, fn, name, fn.Definition)
		bnd = existing
	} else {
		for _, h := range b.r.hidden {
			if h.name == fn.name && h.scope == target && sameParameterTypes(h.typ, fn.typ) {
				b.mergeFunction(h, fn, name, fn.Definition)
				h.friendOf = append(h.friendOf, cls)
				bnd = h
				break
			}
		}
		if bnd == ast.Binding(fn) {
			fn.friendOf = append(fn.friendOf, cls)
			b.r.hidden = append(b.r.hidden, fn)
			setDeclBinding(name, bnd)
		}
	}
	if cls != nil {
		cls.Friends = appendUnique(cls.Friends, bnd)
	}
}

// takeHiddenFriend returns the friend function a namespace scope
// declaration redeclares, and makes it visible.
func (b *binder) takeHiddenFriend(fn *Function, target scope.ID) *Function {
	for i, h := range b.r.hidden {
		if h.name == fn.name && h.scope == target && sameParameterTypes(h.typ, fn.typ) {
			b.r.hidden = append(b.r.hidden[:i:i], b.r.hidden[i+1:]...)
			h.friendOf = nil
			return h
		}
	}
	return nil
}

// parameters creates the parameter bindings of a function declarator.
func (b *binder) parameters(fd *ast.Declarator, fn *Function) []*Variable {
	var out []*Variable
	for i, pd := range fd.Params {
		if i == 0 && len(fd.Params) == 1 && isVoidParam(pd) {
			break
		}
		name := ""
		var pn ast.NameNode
		if pd.Declarator != nil {
			if pn = pd.Declarator.InnermostName(); pn != nil {
				name = pn.SimpleID()
			}
		}
		v := &Variable{
			binding:    newBinding(name, fn, fn.scope),
			kind:       ast.BindingParameter,
			HasDefault: pd.Declarator != nil && pd.Declarator.Init != nil,
			Declarator: pd.Declarator,
		}
		if i < len(fn.typ.Params) {
			v.typ = fn.typ.Params[i]
		} else {
			v.typ = InvalidType{Problem: diag.InvalidType}
		}
		if pn != nil {
			v.addDecl(pn)
			setDeclBinding(pn, v)
		}
		if pd.Declarator != nil {
			b.r.declarations[pd.Declarator] = v
		}
		out = append(out, v)
	}
	return out
}

func isVoidParam(pd *ast.ParameterDeclaration) bool {
	s, ok := pd.Spec.(*ast.SimpleDeclSpec)
	if !ok || s.Type != ast.TypeVoid {
		return false
	}
	d := pd.Declarator
	return d == nil || (d.InnermostName() == nil && len(d.PtrOps) == 0 && len(d.Arrays) == 0 && d.Nested == nil && !d.IsFunction)
}

func (b *binder) functionDefinition(d *ast.FunctionDefinition, sc scope.ID, tmpl *templateInfo) {
	b.collapse(d.Spec)
	b.collapse(d.Declarator)
	specType := b.r.specType(d.Spec)
	bnd := b.function(d.Declarator, d.Spec, specType, sc, tmpl, d)
	b.r.declarations[d.Declarator] = bnd

	fn, ok := b.r.functions[d]
	if !ok {
		switch t := bnd.(type) {
		case *Function:
			fn = t
		case *FunctionTemplate:
			fn = t.Pattern
		default:
			// an erroneous declaration still gets its body bound
			fn = &Function{binding: newBinding(nameOf(d.Declarator.InnermostName()), b.r.owner(sc), sc), kind: ast.BindingFunction}
		}
		b.r.functions[d] = fn
	}

	// the body sees the class members and the template parameters
	parent := sc
	if tmpl != nil {
		parent = tmpl.scope
	}
	if target, _ := b.declScopeOf(d.Declarator.InnermostName(), sc); target != sc && target != scope.None {
		parent = target
		if fn.Class != nil {
			parent = fn.Class.ScopeID
		}
	}
	fnScope := b.r.arena.New(scope.KindFunction, parent, d, fn)
	b.r.scopes[d] = fnScope
	if fd := d.Declarator.FunctionDeclarator(); fd != nil {
		for _, pd := range fd.Params {
			if pd.Declarator == nil {
				continue
			}
			pn := pd.Declarator.InnermostName()
			if pn == nil {
				continue
			}
			if v, ok := ast.CachedBinding(pn).(*Variable); ok {
				b.declare(fnScope, v.name, v, pn, nil)
			}
		}
	}
	if d.Body != nil {
		b.bodies = append(b.bodies, bodyTask{def: d, fn: fn, scope: fnScope})
	}
}

func (b *binder) namespace(d *ast.NamespaceDefinition, sc scope.ID) {
	var ns *Namespace
	if d.Name == nil {
		ns = b.r.anonymous[sc]
		if ns == nil {
			ns = &Namespace{binding: newBinding("", b.r.owner(sc), sc), Anonymous: true}
			ns.ScopeID = b.r.arena.New(scope.KindNamespace, sc, d, ns)
			b.r.anonymous[sc] = ns
			b.r.arena.Get(sc).AddUsing(ns.ScopeID, d.Range().Offset)
		}
	} else {
		for _, e := range b.r.arena.Get(sc).Lookup(d.Name.Ident) {
			if ex, ok := e.Binding.(*Namespace); ok {
				ns = ex
				ns.addDecl(d.Name)
				setDeclBinding(d.Name, ns)
				break
			}
		}
		if ns == nil {
			ns = &Namespace{binding: newBinding(d.Name.Ident, b.r.owner(sc), sc), Inline: d.Inline}
			ns.ScopeID = b.r.arena.New(scope.KindNamespace, sc, d, ns)
			b.r.arena.Get(ns.ScopeID).Inline = d.Inline
			ns.addDecl(d.Name)
			out := b.declare(sc, ns.name, ns, d.Name, func(e scope.Entry) scope.Relation { return scope.Conflict })
			b.settle(out, ns, d.Name)
		}
	}
	b.r.scopes[d] = ns.ScopeID
	for _, c := range d.Decls {
		b.declaration(c, ns.ScopeID)
	}
}

func (b *binder) namespaceAlias(d *ast.NamespaceAlias, sc scope.ID) {
	b.r.scopes[d] = sc
	target := b.r.resolve(d.Target)
	ns, ok := target.(*Namespace)
	if !ok {
		if !ast.IsProblem(target) {
			target = newProblem(diag.NameNotFound, nameOf(d.Target), d.Target, target)
		}
		setDeclBinding(d.Alias, target)
		return
	}
	out := b.declare(sc, d.Alias.Ident, ns, d.Alias, func(e scope.Entry) scope.Relation {
		if e.Binding == ast.Binding(ns) {
			return scope.Redeclaration
		}
		return scope.Conflict
	})
	b.settle(out, ns, d.Alias)
}

func (b *binder) usingDirective(d *ast.UsingDirective, sc scope.ID) {
	if ns, ok := b.r.resolve(d.Name).(*Namespace); ok {
		b.r.arena.Get(sc).AddUsing(ns.ScopeID, d.Range().Offset)
	}
}

// usingDeclaration introduces the named members into sc. The introduced
// entries are the original bindings.
func (b *binder) usingDeclaration(d *ast.UsingDeclaration, sc scope.ID) {
	last := lastSegment(d.Name)
	if last == nil {
		return
	}
	found, prob := b.r.lookupName(last, last)
	if prob != nil {
		setDeclBinding(d.Name, prob)
		return
	}
	if len(found) == 0 {
		setDeclBinding(d.Name, newProblem(diag.NameNotFound, last.SimpleID(), d.Name))
		return
	}
	for _, f := range found {
		b.declare(sc, last.SimpleID(), f, d.Name, func(e scope.Entry) scope.Relation {
			if e.Binding == f {
				return scope.Redeclaration
			}
			return scope.Unrelated
		})
	}
	if len(found) == 1 {
		setDeclBinding(d.Name, found[0])
		return
	}
	setDeclBinding(d.Name, &OverloadSet{binding: newBinding(last.SimpleID(), b.r.owner(sc), sc), Functions: found})
}

func (b *binder) aliasDeclaration(d *ast.AliasDeclaration, sc scope.ID, tmpl *templateInfo) {
	b.collapse(d.Type)
	td := &Typedef{binding: newBinding(d.Alias.Ident, b.r.owner(sc), sc), Target: b.r.typeIdType(d.Type)}
	td.access = b.accessIn(sc)
	td.addDecl(d.Alias)
	if tmpl != nil {
		td.params = tmpl.params
	}
	out := b.declare(sc, td.name, td, d.Alias, func(e scope.Entry) scope.Relation {
		if ex, ok := e.Binding.(*Typedef); ok && SameType(ex.Target, td.Target) {
			return scope.Redeclaration
		}
		return scope.Conflict
	})
	b.settle(out, td, d.Alias)
}

// template declares the parameters of a template declaration in their own
// scope, nested in lookup, and the templated entity in sc.
func (b *binder) template(d *ast.TemplateDeclaration, sc, lookup scope.ID) {
	tsc := b.r.arena.New(scope.KindTemplate, lookup, d, nil)
	b.r.scopes[d] = tsc
	info := &templateInfo{decl: d, scope: tsc, explicit: d.ExplicitSpecialization}
	for i, p := range d.Params {
		b.collapse(p)
		tp := &TemplateParameter{binding: newBinding("", nil, tsc), Index: i}
		var pn ast.NameNode
		switch p := p.(type) {
		case *ast.TypeTemplateParameter:
			tp.Pack = p.Pack
			if p.Name != nil {
				pn = p.Name
			}
			if p.Default != nil {
				tp.Default = TemplateArg{Type: b.r.typeIdType(p.Default)}
				tp.HasDefault = true
			}
		case *ast.ParameterDeclaration:
			tp.NonType = true
			tp.ValueType = b.r.declaratorType(b.r.specType(p.Spec), p.Declarator)
			if p.Declarator != nil {
				pn = p.Declarator.InnermostName()
				tp.Pack = p.Declarator.Pack
				if eq, ok := p.Declarator.Init.(*ast.EqualsInitializer); ok {
					if e, ok := eq.Value.(ast.Expression); ok {
						if v, ok := b.r.constValue(e); ok {
							tp.Default = TemplateArg{Value: v, IsValue: true}
							tp.HasDefault = true
						}
					}
				}
				b.r.declarations[p.Declarator] = tp
			}
		}
		if pn != nil {
			tp.name = pn.SimpleID()
			tp.addDecl(pn)
			b.declare(tsc, tp.name, tp, pn, nil)
			setDeclBinding(pn, tp)
		}
		info.params = append(info.params, tp)
	}

	switch inner := d.Decl.(type) {
	case *ast.SimpleDeclaration:
		b.simpleDeclaration(inner, sc, info)
	case *ast.FunctionDefinition:
		b.functionDefinition(inner, sc, info)
	case *ast.AliasDeclaration:
		b.aliasDeclaration(inner, sc, info)
	case *ast.TemplateDeclaration:
		b.template(inner, sc, tsc)
	default:
		if inner != nil {
			b.declaration(inner, sc)
		}
	}
}

// class declares a class, struct or union with its members.
func (b *binder) class(s *ast.CompositeTypeSpec, sc scope.ID, tmpl *templateInfo) Type {
	declScope, _ := b.declScopeOf(s.Name, sc)
	if declScope == scope.None {
		declScope = sc
	}
	id := ""
	if s.Name != nil {
		id = s.Name.SimpleID()
	}

	cls := &Class{binding: newBinding(id, b.r.owner(declScope), declScope), Key: s.Key, Spec: s}
	cls.access = b.accessIn(declScope)
	if id != "" {
		cls.addDecl(s.Name)
	}

	var specialization *ClassTemplate
	var specArgs []TemplateArg
	if tid, ok := lastSegment(s.Name).(*ast.TemplateId); ok {
		if ct, ok := b.r.resolve(tid.Template).(*ClassTemplate); ok {
			specialization = ct
			specArgs = b.r.templateArgs(tid)
		}
	}

	switch {
	case specialization != nil:
		cls.Template = specialization
		if tmpl != nil && !tmpl.explicit {
			specialization.partials = append(specialization.partials, partialSpec{class: cls, params: tmpl.params, args: specArgs})
		} else {
			cls.Args = specArgs
			specialization.specializations[argsKey(specArgs)] = cls
		}
		setDeclBinding(s.Name, cls)
	case tmpl != nil && !tmpl.explicit:
		ct := &ClassTemplate{binding: cls.binding, Params: tmpl.params, Pattern: cls,
			specializations: map[string]*Class{}, instances: map[string]*Class{}}
		cls.Template = ct
		out := b.declare(declScope, id, ct, s.Name, func(e scope.Entry) scope.Relation {
			if ex, ok := e.Binding.(*ClassTemplate); ok {
				if ex.Pattern.Complete {
					return scope.Redefinition
				}
				return scope.Redeclaration
			}
			return scope.Conflict
		})
		if out.Relation == scope.Redeclaration {
			ex := out.Existing.Binding.(*ClassTemplate)
			ex.addDecl(s.Name)
			cls = ex.Pattern
			cls.Spec = s
			ex.Params = tmpl.params
			setDeclBinding(s.Name, ex)
		} else {
			b.settle(out, ct, s.Name)
		}
	case id != "":
		out := b.declare(declScope, id, cls, s.Name, func(e scope.Entry) scope.Relation {
			switch ex := e.Binding.(type) {
			case *Class:
				if ex.Complete || ex.Spec != nil {
					return scope.Redefinition
				}
				return scope.Redeclaration
			case *Variable, *Function, *FunctionTemplate:
				return scope.Unrelated
			}
			return scope.Conflict
		})
		if out.Relation == scope.Redeclaration {
			cls = out.Existing.Binding.(*Class)
			cls.Spec = s
			cls.addDecl(s.Name)
			setDeclBinding(s.Name, cls)
		} else {
			b.settle(out, cls, s.Name)
		}
	}
	lookupParent := declScope
	if tmpl != nil {
		lookupParent = tmpl.scope
	}
	cls.ScopeID = b.r.arena.New(scope.KindClass, lookupParent, s, cls)
	cls.inTemplate = b.r.inTemplate(cls.ScopeID)
	b.r.scopes[s] = cls.ScopeID
	b.r.classes[s] = cls
	if id != "" {
		// the injected class name
		b.r.arena.Get(cls.ScopeID).Declare(id, scope.Entry{Binding: cls, Offset: s.Range().Offset}, func(scope.Entry) scope.Relation {
			return scope.Unrelated
		})
	}

	defAccess := ast.AccessPrivate
	if s.Key != ast.KeyClass {
		defAccess = ast.AccessPublic
	}
	for _, base := range s.Bases {
		b.r.scopes[base] = lookupParent
		b.collapse(base)
		t := b.r.typeOfName(base.Name)
		access := base.Access
		if access == ast.AccessUnknown {
			access = defAccess
		}
		bc := classOf(t)
		cls.Bases = append(cls.Bases, Base{Class: bc, Type: t, Access: access, Virtual: base.Virtual, Spec: base})
		if bc != nil && bc.polymorphic {
			cls.polymorphic = true
		}
	}

	saved := b.access
	b.access = defAccess
	for _, m := range s.Members {
		b.declaration(m, cls.ScopeID)
	}
	b.access = saved

	b.r.completeClass(cls)
	return cls
}

// elaborated resolves or declares the class named by an elaborated type
// specifier.
func (b *binder) elaborated(s *ast.ElaboratedTypeSpec, sc scope.ID, declOnly, friend bool, tmpl *templateInfo) Type {
	if s.Name == nil {
		return InvalidType{Problem: diag.InvalidType}
	}
	id := s.Name.SimpleID()
	_, qualified := s.Name.(*ast.QualifiedName)

	var found ast.Binding
	switch {
	case qualified:
		found = b.r.resolve(s.Name)
		if ast.IsProblem(found) {
			return InvalidType{Problem: found.(ast.ProblemBinding).ProblemKind()}
		}
	case declOnly && !friend:
		for _, e := range b.r.arena.Get(sc).Lookup(id) {
			if isTypeBinding(e.Binding) {
				found = e.Binding
				break
			}
		}
	default:
		list, _ := b.r.lookupUnqualified(id, sc, s.Range().Offset, isTypeBinding)
		if len(list) > 0 {
			found = list[0]
		}
	}

	if found == nil {
		target := sc
		if !declOnly || friend {
			target = b.r.namespaceOf(sc)
		}
		if s.Key == ast.KeyEnum {
			e := &Enum{binding: newBinding(id, b.r.owner(target), target)}
			e.addDecl(s.Name)
			b.declare(target, id, e, s.Name, nil)
			found = e
		} else {
			cls := &Class{binding: newBinding(id, b.r.owner(target), target), Key: s.Key}
			cls.addDecl(s.Name)
			cls.ScopeID = b.r.arena.New(scope.KindClass, target, nil, cls)
			cls.inTemplate = b.r.inTemplate(target)
			var declared ast.Binding = cls
			if tmpl != nil && !tmpl.explicit && !friend {
				ct := &ClassTemplate{binding: cls.binding, Params: tmpl.params, Pattern: cls,
					specializations: map[string]*Class{}, instances: map[string]*Class{}}
				cls.Template = ct
				declared = ct
			}
			b.declare(target, id, declared, s.Name, nil)
			found = declared
		}
	} else if bb, ok := found.(baseBinding); ok {
		bb.base().addDecl(s.Name)
	}
	setDeclBinding(s.Name, found)

	if friend {
		if cls, ok := b.r.arena.Get(sc).Owner.(*Class); ok {
			cls.Friends = appendUnique(cls.Friends, found)
		}
	}
	return qualify(b.r.bindingType(found), s.Spec.Const, s.Spec.Volatile)
}

// enum declares an enumeration and its enumerators. The enumerators of an
// unscoped enumeration are also declared in the enclosing scope.
func (b *binder) enum(s *ast.EnumSpec, sc scope.ID) Type {
	id := ""
	if s.Name != nil {
		id = s.Name.SimpleID()
	}
	var e *Enum
	if id != "" {
		for _, en := range b.r.arena.Get(sc).Lookup(id) {
			if ex, ok := en.Binding.(*Enum); ok && ex.Enumerators == nil && !s.Opaque {
				e = ex
				break
			}
		}
	}
	if e == nil {
		e = &Enum{binding: newBinding(id, b.r.owner(sc), sc), Scoped: s.Scoped}
		e.access = b.accessIn(sc)
		if id != "" {
			out := b.declare(sc, id, e, s.Name, func(en scope.Entry) scope.Relation {
				if _, ok := en.Binding.(*Enum); ok {
					return scope.Redefinition
				}
				return scope.Conflict
			})
			b.settle(out, e, s.Name)
		}
	} else {
		setDeclBinding(s.Name, e)
	}
	if s.Name != nil {
		e.addDecl(s.Name)
	}
	e.Underlying = Basic{Kind: Int}
	if s.Underlying != nil {
		b.collapse(s.Underlying)
		e.Underlying = b.r.specType(s.Underlying)
	}
	if e.ScopeID == scope.None {
		e.ScopeID = b.r.arena.New(scope.KindEnum, sc, s, e)
	}
	b.r.scopes[s] = e.ScopeID

	next := int64(0)
	for _, en := range s.Enumerators {
		if en.Name == nil {
			continue
		}
		if en.Value != nil {
			b.collapse(en.Value)
			if v, ok := b.r.constValue(en.Value); ok {
				next = v
			}
		}
		c := &Enumerator{binding: newBinding(en.Name.Ident, e, e.ScopeID), Enum: e, Value: next}
		c.access = b.accessIn(sc)
		c.addDecl(en.Name)
		next++
		out := b.declare(e.ScopeID, c.name, c, en.Name, func(scope.Entry) scope.Relation { return scope.Redefinition })
		b.settle(out, c, en.Name)
		e.Enumerators = append(e.Enumerators, c)
		if !s.Scoped {
			b.declare(sc, c.name, c, en.Name, func(x scope.Entry) scope.Relation {
				if _, ok := x.Binding.(*Class); ok {
					return scope.Unrelated
				}
				return scope.Conflict
			})
		}
	}
	return qualify(e, s.Spec.Const, s.Spec.Volatile)
}

// body binds the local declarations of a function body.
func (b *binder) body(t bodyTask) {
	d := t.def
	for _, mi := range d.MemberInits {
		b.collapse(mi)
	}
	b.labels(d.Body, t.scope)
	b.statement(d.Body, t.scope)
}

// labels declares the labels of a function body, so that a goto may jump
// forward.
func (b *binder) labels(body *ast.CompoundStatement, fnScope scope.ID) {
	table := map[string]*Label{}
	b.r.labels[fnScope] = table
	fn := b.r.arena.Get(fnScope).Owner
	ast.Inspect(body, func(n ast.Node) bool {
		switch n := n.(type) {
		case *ast.CompositeTypeSpec:
			return false
		case *ast.LabelStatement:
			if n.Label == nil {
				return true
			}
			if _, dup := table[n.Label.Ident]; dup {
				setDeclBinding(n.Label, newProblem(diag.Redefinition, n.Label.Ident, n.Label, table[n.Label.Ident]))
				return true
			}
			l := &Label{binding: newBinding(n.Label.Ident, fn, fnScope), Statement: n}
			l.addDecl(n.Label)
			table[n.Label.Ident] = l
			setDeclBinding(n.Label, l)
		}
		return true
	})
}

func (b *binder) newBlock(n ast.Node, parent scope.ID) scope.ID {
	id := b.r.arena.New(scope.KindBlock, parent, n, nil)
	b.r.scopes[n] = id
	return id
}

func (b *binder) statement(s ast.Statement, sc scope.ID) {
	switch s := s.(type) {
	case nil:
	case *ast.CompoundStatement:
		inner := b.newBlock(s, sc)
		for i := 0; i < len(s.Stmts); i++ {
			b.statement(s.Stmts[i], inner)
		}
	case *ast.AmbiguousStatement:
		chosen := b.disambiguate(s)
		ast.Replace(s, chosen)
		b.statement(chosen, sc)
	case *ast.DeclarationStatement:
		b.localDeclaration(s.Decl, sc)
	case *ast.IfStatement:
		inner := b.newBlock(s, sc)
		b.statement(s.Init, inner)
		b.condition(s.Cond, inner)
		b.statement(s.Then, inner)
		b.statement(s.Else, inner)
	case *ast.WhileStatement:
		inner := b.newBlock(s, sc)
		b.condition(s.Cond, inner)
		b.statement(s.Body, inner)
	case *ast.DoStatement:
		b.statement(s.Body, sc)
		b.collapse(s.Cond)
	case *ast.ForStatement:
		inner := b.newBlock(s, sc)
		b.statement(s.Init, inner)
		b.condition(s.Cond, inner)
		b.collapse(s.Iter)
		b.statement(s.Body, inner)
	case *ast.RangeForStatement:
		inner := b.newBlock(s, sc)
		b.collapse(s.RangeExpr)
		if s.Decl != nil {
			b.localDeclaration(s.Decl, inner)
		}
		b.statement(s.Body, inner)
	case *ast.SwitchStatement:
		inner := b.newBlock(s, sc)
		b.statement(s.Init, inner)
		b.condition(s.Cond, inner)
		b.statement(s.Body, inner)
	case *ast.LabelStatement:
		b.statement(s.Stmt, sc)
	case *ast.TryBlockStatement:
		b.statement(s.Body, sc)
		for _, h := range s.Handlers {
			inner := b.newBlock(h, sc)
			if h.Decl != nil {
				b.localDeclaration(h.Decl, inner)
			}
			b.statement(h.Body, inner)
		}
	default:
		b.collapse(s)
	}
}

func (b *binder) condition(cond ast.Node, sc scope.ID) {
	if d, ok := cond.(*ast.SimpleDeclaration); ok {
		b.localDeclaration(d, sc)
		return
	}
	b.collapse(cond)
}

func (b *binder) localDeclaration(d ast.Declaration, sc scope.ID) {
	switch d := d.(type) {
	case *ast.SimpleDeclaration:
		b.simpleDeclaration(d, sc, nil)
	case *ast.FunctionDefinition:
		b.functionDefinition(d, sc, nil)
	default:
		b.declaration(d, sc)
	}
}

// disambiguate picks the reading of an ambiguous statement that lookup
// supports: the declaration when its leading name denotes a type, the
// expression otherwise.
func (b *binder) disambiguate(s *ast.AmbiguousStatement) ast.Statement {
	var decl, expr ast.Statement
	for _, alt := range s.Alternatives {
		switch alt.(type) {
		case *ast.DeclarationStatement:
			decl = alt
		default:
			expr = alt
		}
	}
	if decl == nil {
		return s.Alternatives[0]
	}
	if expr == nil {
		return decl
	}
	ds, _ := decl.(*ast.DeclarationStatement)
	if sd, ok := ds.Decl.(*ast.SimpleDeclaration); ok {
		if named, ok := sd.Spec.(*ast.NamedTypeSpec); ok {
			if isTypeBinding(b.r.resolve(named.Name)) {
				return decl
			}
		}
	}
	return expr
}

// collapse replaces the ambiguous template arguments below n by the
// reading lookup supports. Nested scopes are collapsed when they are bound.
func (b *binder) collapse(n ast.Node) {
	if ast.IsNil(n) {
		return
	}
	var ambiguous []*ast.AmbiguousTemplateArgument
	ast.Inspect(n, func(c ast.Node) bool {
		switch c := c.(type) {
		case *ast.CompoundStatement, *ast.CompositeTypeSpec, *ast.EnumSpec:
			return c == n
		case *ast.AmbiguousTemplateArgument:
			ambiguous = append(ambiguous, c)
			return false
		}
		return true
	})
	for _, amb := range ambiguous {
		chosen := amb.Alternatives[len(amb.Alternatives)-1]
		for _, alt := range amb.Alternatives {
			t, ok := alt.(*ast.TypeId)
			if !ok {
				continue
			}
			if named, ok := t.Spec.(*ast.NamedTypeSpec); ok && isTypeBinding(b.r.resolve(named.Name)) {
				chosen = alt
			}
		}
		ast.Replace(amb, chosen)
		b.collapse(chosen)
	}
}
