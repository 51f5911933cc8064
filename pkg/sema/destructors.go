package sema

import (
	"github.com/emirpasic/gods/stacks/arraystack"

	"cppsema/pkg/ast"
)

// destruction is an object whose destructor runs at the end of its
// lifetime: a local variable or a temporary.
type destruction struct {
	dtor  *Function
	point ast.Node
}

// destructorNames computes the destructor calls at owner, in reverse order
// of construction.
func (r *Resolver) destructorNames(owner ast.ImplicitDestructorNameOwner) []*ast.ImplicitName {
	if names, ok := r.dtors[owner]; ok {
		return names
	}
	var names []*ast.ImplicitName
	if !owner.IsInactive() && !r.cMode {
		objs := r.destroyedAt(owner)
		at := ast.Range{Offset: owner.Range().End()}
		for i := len(objs) - 1; i >= 0; i-- {
			n := implicitName(owner, objs[i].dtor, at)
			n.ConstructionPoint = objs[i].point
			names = append(names, n)
		}
	}
	r.dtors[owner] = names
	return names
}

// destroyedAt returns the objects whose lifetime ends at owner, in
// construction order.
func (r *Resolver) destroyedAt(owner ast.Node) []destruction {
	switch s := owner.(type) {
	case *ast.CompoundStatement:
		var out []destruction
		for _, st := range s.Stmts {
			out = append(out, r.statementLocals(st)...)
		}
		return out
	case *ast.ExpressionStatement:
		return r.temporaries(s.Expr, nil)
	case *ast.Declarator:
		return r.declaratorTemporaries(s)
	case *ast.ReturnStatement:
		out := r.temporaries(s.Value, s.Value)
		return append(r.enclosingLocals(s), out...)
	case *ast.IfStatement:
		return append(r.statementLocals(s.Init), r.conditionObjects(s.Cond)...)
	case *ast.SwitchStatement:
		return append(r.statementLocals(s.Init), r.conditionObjects(s.Cond)...)
	case *ast.WhileStatement:
		return r.conditionObjects(s.Cond)
	case *ast.ForStatement:
		out := append(r.statementLocals(s.Init), r.conditionObjects(s.Cond)...)
		return append(out, r.temporaries(s.Iter, nil)...)
	}
	return nil
}

// conditionObjects returns the condition variable of a selection or
// iteration statement, or the temporaries of its condition expression.
func (r *Resolver) conditionObjects(cond ast.Node) []destruction {
	switch c := cond.(type) {
	case *ast.SimpleDeclaration:
		return r.declarationLocals(c)
	case ast.Expression:
		return r.temporaries(c, nil)
	}
	return nil
}

// statementLocals returns the automatic objects a statement declares
// directly, with the temporaries bound to its reference declarators.
func (r *Resolver) statementLocals(st ast.Node) []destruction {
	switch s := st.(type) {
	case *ast.DeclarationStatement:
		if sd, ok := s.Decl.(*ast.SimpleDeclaration); ok {
			return r.declarationLocals(sd)
		}
	case *ast.LabelStatement:
		return r.statementLocals(s.Stmt)
	}
	return nil
}

func (r *Resolver) declarationLocals(sd *ast.SimpleDeclaration) []destruction {
	var out []destruction
	for _, d := range sd.Declarators {
		v, ok := r.declarations[d].(*Variable)
		if !ok || v.Static || v.Extern || d.FunctionDeclarator() != nil {
			continue
		}
		t := r.variableType(v)
		if _, ok := isReference(t); ok {
			// a temporary bound to the reference lives as long as it
			if tmp := r.extendedTemporary(d); tmp.dtor != nil {
				out = append(out, tmp)
			}
			continue
		}
		if dtor := r.nonTrivialDestructor(t); dtor != nil {
			out = append(out, destruction{dtor: dtor, point: d})
		}
	}
	return out
}

// enclosingLocals returns the locals of the blocks a return statement
// leaves that were declared before it, outermost block first.
func (r *Resolver) enclosingLocals(ret *ast.ReturnStatement) []destruction {
	// Innermost block first; popping yields the outermost.
	blocks := arraystack.New()
	var child ast.Node = ret
	for n := ret.Parent(); !ast.IsNil(n); child, n = n, n.Parent() {
		if _, ok := n.(*ast.FunctionDefinition); ok {
			break
		}
		cs, ok := n.(*ast.CompoundStatement)
		if !ok {
			continue
		}
		var locals []destruction
		for _, st := range cs.Stmts {
			if ast.Node(st) == child {
				break
			}
			locals = append(locals, r.statementLocals(st)...)
		}
		blocks.Push(locals)
	}
	var out []destruction
	for !blocks.Empty() {
		v, _ := blocks.Pop()
		out = append(out, v.([]destruction)...)
	}
	return out
}

// nonTrivialDestructor returns the destructor of a class type when it is
// user declared or not trivial.
func (r *Resolver) nonTrivialDestructor(t Type) *Function {
	if IsDependent(t) {
		return nil
	}
	for {
		a, ok := Unqualified(t).(Array)
		if !ok {
			break
		}
		t = a.Elem
	}
	cls := classOf(t)
	if cls == nil {
		return nil
	}
	dtor := r.destructor(cls)
	if dtor == nil || !dtor.UserDeclared() && dtor.Trivial {
		return nil
	}
	return dtor
}

// temporary returns the destruction of the temporary e materializes, if
// any: a class prvalue made by a functional cast, a call or an operator
// function returning by value.
func (r *Resolver) temporary(e ast.Node) destruction {
	switch x := e.(type) {
	case *ast.TypeConstruction, *ast.FunctionCallExpression, *ast.ArraySubscriptExpression:
	case *ast.UnaryExpression:
		if r.resolveOperator(x).fn == nil {
			return destruction{}
		}
	case *ast.BinaryExpression:
		if r.resolveOperator(x).fn == nil {
			return destruction{}
		}
	default:
		return destruction{}
	}
	info := r.exprType(e)
	if info.lvalue || info.dependent() {
		return destruction{}
	}
	if fc, ok := e.(*ast.FunctionCallExpression); ok && r.returnsReference(fc) {
		return destruction{}
	}
	dtor := r.nonTrivialDestructor(info.typ)
	if dtor == nil {
		return destruction{}
	}
	return destruction{dtor: dtor, point: e}
}

// returnsReference reports whether a call yields an xvalue.
func (r *Resolver) returnsReference(fc *ast.FunctionCallExpression) bool {
	var fn *Function
	if op := r.resolveOperator(fc); op.fn != nil {
		fn = op.fn
	} else if id, ok := ast.StripParens(fc.Callee).(*ast.IdExpression); ok {
		fn, _ = r.resolve(id.Name).(*Function)
	} else if fr, ok := ast.StripParens(fc.Callee).(*ast.FieldReference); ok {
		fn, _ = r.resolve(fr.Member).(*Function)
	}
	if fn == nil {
		return false
	}
	_, ok := isReference(r.resultType(fn))
	return ok
}

// temporaries returns the temporaries of a full expression in construction
// order. skip is a temporary that initializes an object directly.
func (r *Resolver) temporaries(full ast.Node, skip ast.Node) []destruction {
	if ast.IsNil(full) {
		return nil
	}
	if !ast.IsNil(skip) {
		skip = stripParenNodes(skip)
	}
	var out []destruction
	ast.InspectPost(full, func(n ast.Node) {
		if n == skip || unevaluated(n) {
			return
		}
		if t := r.temporary(n); t.dtor != nil {
			out = append(out, t)
		}
	})
	return out
}

// unevaluated reports whether n lies in the operand of sizeof, alignof or
// typeid, which creates no objects.
func unevaluated(n ast.Node) bool {
	for cur := n.Parent(); !ast.IsNil(cur); cur = cur.Parent() {
		switch p := cur.(type) {
		case *ast.UnaryExpression:
			if p.Op == ast.UnarySizeof || p.Op == ast.UnaryAlignof {
				return true
			}
		case *ast.TypeIdExpression:
			return true
		case ast.Statement, ast.Declaration:
			return false
		}
	}
	return false
}

func stripParenNodes(n ast.Node) ast.Node {
	if e, ok := n.(ast.Expression); ok {
		return ast.StripParens(e)
	}
	return n
}

// directInit returns the expression that initializes the object of d
// directly: the value of a copy initialization or the only argument of a
// direct initialization.
func directInit(d *ast.Declarator) ast.Node {
	switch i := d.Init.(type) {
	case *ast.EqualsInitializer:
		return stripParenNodes(i.Value)
	case *ast.ConstructorInitializer:
		if len(i.Args) == 1 {
			return stripParenNodes(i.Args[0])
		}
	}
	return nil
}

// extendedTemporary returns the temporary bound directly to a reference
// declarator.
func (r *Resolver) extendedTemporary(d *ast.Declarator) destruction {
	init := directInit(d)
	if ast.IsNil(init) {
		return destruction{}
	}
	return r.temporary(init)
}

// declaratorTemporaries returns the temporaries of an initializer that are
// destroyed at the end of the declaration. A prvalue initializing a class
// object or bound to a reference is not one of them.
func (r *Resolver) declaratorTemporaries(d *ast.Declarator) []destruction {
	if d.Init == nil {
		return nil
	}
	var skip ast.Node
	if v, ok := r.declarations[d].(*Variable); ok {
		if init := directInit(d); init != nil {
			t := r.variableType(v)
			_, ref := isReference(t)
			if ref || classOf(t) != nil && classOf(r.exprType(init).typ) == classOf(t) {
				skip = init
			}
		}
	}
	return r.temporaries(d.Init, skip)
}
