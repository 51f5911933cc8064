// Package sema is the semantic layer of the front end. It declares the
// entities of a translation unit in the scope arena of the compilation
// context and resolves names lazily: every name gets a binding, or a
// problem binding telling why none exists. Call sites are resolved by
// overload resolution, and the calls the compiler inserts (operators,
// constructors, destructors, allocation functions) are exposed as implicit
// names on their owner nodes.
//
// Resolution is memoized and serialized: the first resolution of a name
// happens under the resolver's lock, later queries read the cached binding
// without locking.
package sema

import (
	"sync"

	"cppsema/pkg/ast"
	"cppsema/pkg/compilation"
	"cppsema/pkg/diag"
	"cppsema/pkg/scope"
)

// Resolver computes bindings, types and implicit names of one translation
// unit.
type Resolver struct {
	mu sync.Mutex

	ctx    *compilation.Context
	tu     *ast.TranslationUnit
	arena  *scope.Arena
	global scope.ID
	cMode  bool

	// scopes maps scope opening nodes to their scope.
	scopes map[ast.Node]scope.ID
	// declarations maps declarators to the entity they declare.
	declarations map[*ast.Declarator]ast.Binding
	functions    map[*ast.FunctionDefinition]*Function
	classes      map[*ast.CompositeTypeSpec]*Class
	labels       map[scope.ID]map[string]*Label
	anonymous    map[scope.ID]*Namespace
	hidden       []*Function

	resolving  map[ast.NameNode]bool
	exprs      map[ast.Node]exprInfo
	typing     map[ast.Node]bool
	varTypes   map[*Variable]bool
	implicit   map[ast.Node][]*ast.ImplicitName
	dtors      map[ast.Node][]*ast.ImplicitName
	operators  map[ast.Node]operatorCall
	arrows     map[*ast.FieldReference]arrowResult
	members    map[memberKey]ast.Binding

	builtinDelete      *Function
	builtinDeleteArray *Function
}

type memberKey struct {
	class  *Class
	member ast.Binding
}

// Resolve declares the entities of tu and attaches a resolver to it. The
// returned resolver is also reachable through tu.Resolver().
func Resolve(ctx *compilation.Context, tu *ast.TranslationUnit) *Resolver {
	r := &Resolver{
		ctx:          ctx,
		tu:           tu,
		arena:        ctx.Scopes,
		cMode:        !ctx.Config.IsCPlusPlus(),
		scopes:       make(map[ast.Node]scope.ID),
		declarations: make(map[*ast.Declarator]ast.Binding),
		functions:    make(map[*ast.FunctionDefinition]*Function),
		classes:      make(map[*ast.CompositeTypeSpec]*Class),
		labels:       make(map[scope.ID]map[string]*Label),
		anonymous:    make(map[scope.ID]*Namespace),
		resolving:    make(map[ast.NameNode]bool),
		exprs:        make(map[ast.Node]exprInfo),
		typing:       make(map[ast.Node]bool),
		varTypes:     make(map[*Variable]bool),
		implicit:     make(map[ast.Node][]*ast.ImplicitName),
		dtors:        make(map[ast.Node][]*ast.ImplicitName),
		operators:    make(map[ast.Node]operatorCall),
		arrows:       make(map[*ast.FieldReference]arrowResult),
		members:      make(map[memberKey]ast.Binding),
	}

	r.mu.Lock()
	r.global = r.arena.New(scope.KindGlobal, scope.None, tu, nil)
	r.scopes[tu] = r.global
	r.declareBuiltins()
	b := &binder{r: r}
	b.bindUnit(tu)
	r.mu.Unlock()

	tu.SetResolver(r)
	return r
}

// TranslationUnit returns the unit the resolver belongs to.
func (r *Resolver) TranslationUnit() *ast.TranslationUnit { return r.tu }

// GlobalScope returns the scope of the translation unit.
func (r *Resolver) GlobalScope() scope.ID { return r.global }

// ResolveName returns the binding of n, computing it on first use.
func (r *Resolver) ResolveName(n ast.NameNode) ast.Binding {
	if b := ast.CachedBinding(n); b != nil {
		return b
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.resolve(n)
}

// ImplicitNames returns the calls implied by owner, in source order.
func (r *Resolver) ImplicitNames(owner ast.ImplicitNameOwner) []*ast.ImplicitName {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.implicitNames(owner)
}

// ImplicitDestructorNames returns the destructor calls at owner, last
// constructed object first.
func (r *Resolver) ImplicitDestructorNames(owner ast.ImplicitDestructorNameOwner) []*ast.ImplicitName {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.destructorNames(owner)
}

// TypeOf returns the type of a variable, function, type or enumerator
// binding. Other bindings have an invalid type.
func (r *Resolver) TypeOf(b ast.Binding) Type {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.bindingType(b)
}

// ExpressionType returns the type of e and whether e is an lvalue.
func (r *Resolver) ExpressionType(e ast.Expression) (Type, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	info := r.exprType(e)
	return info.typ, info.lvalue
}

// ScopeOf returns the scope a node is looked up from.
func (r *Resolver) ScopeOf(n ast.Node) scope.ID {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.scopeOf(n)
}

// Lookup performs unqualified lookup of name from the given scope, seeing
// every declaration of the unit.
func (r *Resolver) Lookup(name string, from scope.ID) []ast.Binding {
	r.mu.Lock()
	defer r.mu.Unlock()
	found, _ := r.lookupUnqualified(name, from, maxOffset, nil)
	return found
}

const maxOffset = int(^uint(0) >> 1)

// resolve is ResolveName without locking. Reentrant calls for a name whose
// resolution is in progress yield a circular-resolution problem.
func (r *Resolver) resolve(n ast.NameNode) ast.Binding {
	if ast.IsNil(n) {
		return newProblem(diag.NameNotFound, "", nil)
	}
	if b := ast.CachedBinding(n); b != nil {
		return b
	}
	if r.resolving[n] {
		return newProblem(diag.CircularResolution, n.SimpleID(), n)
	}
	r.resolving[n] = true
	b := r.compute(n)
	delete(r.resolving, n)
	if b == nil {
		b = newProblem(diag.NameNotFound, n.SimpleID(), n)
	}
	return ast.SetBinding(n, b)
}

func (r *Resolver) compute(n ast.NameNode) ast.Binding {
	switch n := n.(type) {
	case *ast.QualifiedName:
		if last := n.Last(); last != nil {
			return r.resolve(last)
		}
		return newProblem(diag.NameNotFound, "", n)
	case *ast.TemplateId:
		return r.resolveTemplateId(n)
	case *ast.ImplicitName:
		return newProblem(diag.NameNotFound, n.Ident, n)
	}

	switch p := n.Parent().(type) {
	case *ast.GotoStatement:
		return r.resolveLabel(n, p)
	case *ast.ConstructorChainInitializer:
		if p.Member == n {
			return r.resolveMemberInitializer(n, p)
		}
	case *ast.TemplateId:
		if p.Template == n {
			found, prob := r.lookupName(n, p)
			if prob != nil {
				return prob
			}
			return r.chooseTemplate(n, found)
		}
	case *ast.QualifiedName:
		if n != p.Last() {
			return r.resolveQualifier(n, p)
		}
	}

	found, prob := r.lookupName(n, n)
	if prob != nil {
		return prob
	}
	return r.choose(n, outermostName(n), found, nil)
}

// outermostName returns the name node that a simple name is the last
// component of.
func outermostName(n ast.NameNode) ast.NameNode {
	for {
		switch p := n.Parent().(type) {
		case *ast.QualifiedName:
			if p.Last() == n {
				n = p
				continue
			}
		case *ast.TemplateId:
			if p.Template == n {
				n = p
				continue
			}
		}
		return n
	}
}

// scopeOf returns the scope names inside n are looked up from.
func (r *Resolver) scopeOf(n ast.Node) scope.ID {
	for cur := n; !ast.IsNil(cur); cur = cur.Parent() {
		if id, ok := r.scopes[cur]; ok {
			return id
		}
	}
	return r.global
}

// inTemplate reports whether the scope is inside a template declaration
// with parameters. Explicit specializations are not templates.
func (r *Resolver) inTemplate(sc scope.ID) bool {
	for id := r.arena.Enclosing(sc, scope.KindTemplate); id != scope.None; {
		s := r.arena.Get(id)
		if s.Len() > 0 {
			return true
		}
		id = r.arena.Enclosing(s.Parent, scope.KindTemplate)
	}
	return false
}

// bindingType returns the type an entity contributes to an expression or
// declaration.
func (r *Resolver) bindingType(b ast.Binding) Type {
	switch b := b.(type) {
	case *Variable:
		return r.variableType(b)
	case *Function:
		return b.typ
	case *Enumerator:
		return b.Enum
	case *Class:
		return b
	case *Enum:
		return b
	case *Typedef:
		return b
	case *TemplateParameter:
		if b.NonType {
			return b.ValueType
		}
		return b
	case *ClassTemplate:
		return b.Pattern
	case *Unknown:
		return Dependent{Name: b.name}
	case *Problem:
		return InvalidType{Problem: b.kind}
	}
	return InvalidType{Problem: diag.InvalidType}
}

// variableType returns the declared type of v, deducing auto from the
// initializer on first use.
func (r *Resolver) variableType(v *Variable) Type {
	if _, ok := v.typ.(autoType); !ok && !containsAuto(v.typ) {
		return v.typ
	}
	if r.varTypes[v] {
		return InvalidType{Problem: diag.CircularResolution}
	}
	r.varTypes[v] = true
	defer delete(r.varTypes, v)

	t := r.deduceAuto(v)
	v.typ = t
	return t
}

func containsAuto(t Type) bool {
	switch t := t.(type) {
	case autoType:
		return true
	case Qualified:
		return containsAuto(t.Elem)
	case Pointer:
		return containsAuto(t.Elem)
	case Reference:
		return containsAuto(t.Elem)
	}
	return false
}

func (r *Resolver) declareBuiltins() {
	voidPtr := Pointer{Elem: Basic{Kind: Void}}
	mk := func(op string) *Function {
		f := &Function{
			binding:  newBinding("operator "+op, nil, r.global),
			kind:     ast.BindingFunction,
			typ:      FunctionType{Result: Basic{Kind: Void}, Params: []Type{voidPtr}},
			Implicit: true,
			Trivial:  true,
		}
		return f
	}
	r.builtinDelete = mk("delete")
	r.builtinDeleteArray = mk("delete[]")
}
