package sema

import (
	"strings"

	"cppsema/pkg/ast"
	"cppsema/pkg/scope"
)

// implicitNames computes the calls implied by owner. Operators produce a
// name only when they resolve to a user declared operator function, and
// constructors only when they are user declared or not trivial.
func (r *Resolver) implicitNames(owner ast.ImplicitNameOwner) []*ast.ImplicitName {
	if names, ok := r.implicit[owner]; ok {
		return names
	}
	var names []*ast.ImplicitName
	if !owner.IsInactive() && !r.cMode {
		names = r.computeImplicitNames(owner)
	}
	r.implicit[owner] = names
	return names
}

func (r *Resolver) computeImplicitNames(owner ast.ImplicitNameOwner) []*ast.ImplicitName {
	switch e := owner.(type) {
	case *ast.UnaryExpression:
		return r.operatorNames(e, e.OpOffset, len(e.Op.String()))
	case *ast.BinaryExpression:
		return r.operatorNames(e, e.OpOffset, len(e.Op.String()))
	case *ast.ArraySubscriptExpression:
		return r.bracketNames(e, e.LBracket, e.RBracket)
	case *ast.FunctionCallExpression:
		if names := r.bracketNames(e, e.LParen, e.RParen); names != nil {
			return names
		}
		return r.temporaryConstruction(e, e.Callee.Range(), e.Args)
	case *ast.FieldReference:
		return r.arrowNames(e)
	case *ast.TypeConstruction:
		cls := classOf(r.exprType(e).typ)
		if cls == nil {
			return nil
		}
		args, list := initializerArgs(e.Init)
		if list && r.isAggregate(cls) {
			return nil
		}
		return r.constructorName(e, cls, r.argInfos(args), e.Spec.Range(), false)
	case *ast.NewExpression:
		return r.allocationNames(e)
	case *ast.DeleteExpression:
		return r.deallocationNames(e)
	case *ast.Declarator:
		return r.declaratorConstruction(e)
	case *ast.ConstructorChainInitializer:
		return r.memberConstruction(e)
	}
	return nil
}

func implicitName(owner ast.Node, fn *Function, rng ast.Range) *ast.ImplicitName {
	return ast.NewImplicitName(owner, fn.name, rng, fn)
}

// operatorNames returns the name of a user declared operator function at
// the operator token.
func (r *Resolver) operatorNames(e ast.ImplicitNameOwner, offset, length int) []*ast.ImplicitName {
	op := r.resolveOperator(e)
	if op.fn == nil || !op.fn.UserDeclared() {
		return nil
	}
	return []*ast.ImplicitName{implicitName(e, op.fn, ast.Range{Offset: offset, Length: length})}
}

// bracketNames returns the pair of names of an operator() or operator[]
// call, at the opening and the closing bracket.
func (r *Resolver) bracketNames(e ast.ImplicitNameOwner, open, close int) []*ast.ImplicitName {
	op := r.resolveOperator(e)
	if op.fn == nil || !op.fn.UserDeclared() {
		return nil
	}
	first := implicitName(e, op.fn, ast.Range{Offset: open, Length: 1})
	second := implicitName(e, op.fn, ast.Range{Offset: close, Length: 1})
	second.Alternate = true
	return []*ast.ImplicitName{first, second}
}

// arrowNames returns the operator-> calls of an arrow member access, at
// the arrow token.
func (r *Resolver) arrowNames(fr *ast.FieldReference) []*ast.ImplicitName {
	if !fr.Arrow {
		return nil
	}
	if classOf(NonReference(r.exprType(fr.Owner).typ)) == nil {
		return nil
	}
	chain, _ := r.arrowChain(fr)
	if len(chain) == 0 {
		return nil
	}
	rng := ast.Range{Offset: fr.Owner.Range().End(), Length: 2}
	if fr.Member != nil {
		between := ast.Range{Offset: rng.Offset, Length: fr.Member.Range().Offset - rng.Offset}
		if i := strings.Index(r.tu.Locations.Text(between), "->"); i >= 0 {
			rng.Offset += i
		}
	}
	var names []*ast.ImplicitName
	for _, fn := range chain {
		if fn.UserDeclared() {
			names = append(names, implicitName(fr, fn, rng))
		}
	}
	return names
}

// keywordRange returns the range of a keyword at the start of n, after an
// optional global scope qualifier.
func (r *Resolver) keywordRange(n ast.Node, keyword string) ast.Range {
	rng := n.Range()
	if i := strings.Index(r.tu.Locations.Text(rng), keyword); i >= 0 {
		return ast.Range{Offset: rng.Offset + i, Length: len(keyword)}
	}
	return ast.Range{Offset: rng.Offset, Length: len(keyword)}
}

// allocationNames returns the user declared operator new a new-expression
// calls, a class member unless the expression is global, or a function at
// namespace scope.
func (r *Resolver) allocationNames(e *ast.NewExpression) []*ast.ImplicitName {
	name := "operator new"
	if e.IsArrayAllocation() {
		name = "operator new[]"
	}
	t := r.typeIdType(e.Type)
	if IsDependent(t) {
		return nil
	}
	for {
		a, ok := Canonical(t).(Array)
		if !ok {
			break
		}
		t = a.Elem
	}
	args := append([]exprInfo{{typ: Basic{Kind: UnsignedLong}}}, r.argInfos(placementNodes(e))...)
	fn := r.allocationFunction(e, name, classOf(t), e.Global, args)
	if fn == nil || !fn.UserDeclared() {
		return nil
	}
	return []*ast.ImplicitName{implicitName(e, fn, r.keywordRange(e, "new"))}
}

func placementNodes(e *ast.NewExpression) []ast.Node {
	out := make([]ast.Node, len(e.Placement))
	for i, p := range e.Placement {
		out[i] = p
	}
	return out
}

// allocationFunction selects an allocation or deallocation function: a
// member of cls, then a function at namespace scope.
func (r *Resolver) allocationFunction(at ast.Node, name string, cls *Class, global bool, args []exprInfo) *Function {
	if cls != nil && !global {
		if found, _ := r.classLookup(cls, name); len(found) > 0 {
			if fn, ok := r.bestFunction(found, nil, args); ok {
				return fn
			}
		}
	}
	found := r.qualifiedNamespaceLookup(r.global, name, at.Range().Offset, nil)
	if len(found) == 0 {
		return nil
	}
	fn, _ := r.bestFunction(found, nil, args)
	return fn
}

// deallocationNames returns the destructor call of a delete-expression on
// a class with a user declared or non-trivial destructor, followed by the
// deallocation function.
func (r *Resolver) deallocationNames(e *ast.DeleteExpression) []*ast.ImplicitName {
	operand := r.exprType(e.Operand)
	if operand.dependent() {
		return nil
	}
	elem, ok := pointee(decay(NonReference(operand.typ)))
	if !ok {
		return nil
	}
	var names []*ast.ImplicitName
	cls := classOf(elem)
	if cls != nil {
		if dtor := r.destructor(cls); dtor != nil && (dtor.UserDeclared() || !dtor.Trivial) {
			names = append(names, implicitName(e, dtor, e.Operand.Range()))
		}
	}

	name, builtin := "operator delete", r.builtinDelete
	if e.Array {
		name, builtin = "operator delete[]", r.builtinDeleteArray
	}
	args := []exprInfo{{typ: Pointer{Elem: Basic{Kind: Void}}}}
	fn := r.allocationFunction(e, name, cls, e.Global, args)
	if fn == nil {
		fn = builtin
	}
	return append(names, implicitName(e, fn, r.keywordRange(e, "delete")))
}

// initializerArgs returns the arguments of an initializer and whether it
// is a braced list.
func initializerArgs(init ast.Initializer) ([]ast.Node, bool) {
	switch i := init.(type) {
	case *ast.ConstructorInitializer:
		return i.Args, false
	case *ast.InitializerList:
		return i.Elements, true
	case *ast.EqualsInitializer:
		if il, ok := i.Value.(*ast.InitializerList); ok {
			return il.Elements, true
		}
		return []ast.Node{i.Value}, false
	}
	return nil, false
}

// constructorCall selects the constructor initializing an object of cls
// from args. Copy initialization only considers converting constructors.
func (r *Resolver) constructorCall(cls *Class, args []exprInfo, copyInit bool) *Function {
	if dependentCall(nil, args) || cls.dependent() {
		return nil
	}
	cands := r.constructorBindings(cls)
	if copyInit {
		cands = filterBindings(cands, func(b ast.Binding) bool {
			switch f := b.(type) {
			case *Function:
				return !f.Explicit
			case *FunctionTemplate:
				return !f.Pattern.Explicit
			}
			return false
		})
	}
	fn, _ := r.bestFunction(cands, nil, args)
	return fn
}

// constructorName returns the implicit name of the constructor call that
// initializes an object of cls, or nil when the constructor is implicit
// and trivial.
func (r *Resolver) constructorName(owner ast.Node, cls *Class, args []exprInfo, rng ast.Range, copyInit bool) []*ast.ImplicitName {
	if elided(cls, args) {
		return nil
	}
	ctor := r.constructorCall(cls, args, copyInit)
	if ctor == nil || ctor.Implicit && ctor.Trivial {
		return nil
	}
	return []*ast.ImplicitName{implicitName(owner, ctor, rng)}
}

// elided reports whether an object is initialized directly from a prvalue
// of its own class, so that no constructor runs.
func elided(cls *Class, args []exprInfo) bool {
	if len(args) != 1 || args[0].lvalue {
		return false
	}
	return classOf(args[0].typ) == cls
}

// temporaryConstruction returns the constructor of a functional cast
// written as a call, S(args).
func (r *Resolver) temporaryConstruction(e *ast.FunctionCallExpression, rng ast.Range, args []ast.Node) []*ast.ImplicitName {
	var named ast.Binding
	switch c := ast.StripParens(e.Callee).(type) {
	case *ast.IdExpression:
		named = r.resolve(c.Name)
	default:
		return nil
	}
	if named == nil || !isTypeBinding(named) {
		return nil
	}
	cls := classOf(r.bindingType(named))
	if cls == nil {
		return nil
	}
	return r.constructorName(e, cls, r.argInfos(args), rng, false)
}

// declaratorConstruction returns the constructor call of a variable
// definition. References, extern declarations without initializer, data
// members and parameters construct nothing.
func (r *Resolver) declaratorConstruction(d *ast.Declarator) []*ast.ImplicitName {
	v, ok := r.declarations[d].(*Variable)
	if !ok || v.kind == ast.BindingParameter || d.FunctionDeclarator() != nil {
		return nil
	}
	if v.Extern && d.Init == nil {
		return nil
	}
	if s := r.arena.Get(r.scopeOf(d)); s != nil && s.Kind == scope.KindClass {
		return nil
	}
	t := r.variableType(v)
	if _, ok := isReference(t); ok || IsDependent(t) {
		return nil
	}
	cls := classOf(t)
	if cls == nil {
		return nil
	}
	args, list := initializerArgs(d.Init)
	if list && r.isAggregate(cls) {
		return nil
	}
	_, copyInit := d.Init.(*ast.EqualsInitializer)
	rng := d.Range()
	if n := d.InnermostName(); n != nil {
		rng = n.Range()
	}
	return r.constructorName(d, cls, r.argInfos(args), rng, copyInit)
}

// memberConstruction returns the constructor call of a member initializer
// naming a data member or a base class.
func (r *Resolver) memberConstruction(c *ast.ConstructorChainInitializer) []*ast.ImplicitName {
	var t Type
	switch b := r.resolve(c.Member).(type) {
	case *Variable:
		t = r.variableType(b)
	default:
		if !isTypeBinding(b) {
			return nil
		}
		t = r.bindingType(b)
	}
	if _, ok := isReference(t); ok || IsDependent(t) {
		return nil
	}
	cls := classOf(t)
	if cls == nil {
		return nil
	}
	args, list := initializerArgs(c.Init)
	if list && r.isAggregate(cls) {
		return nil
	}
	return r.constructorName(c, cls, r.argInfos(args), c.Member.Range(), false)
}
