package sema

import (
	"cppsema/pkg/ast"
	"cppsema/pkg/diag"
)

// operatorCall is the outcome of overload resolution for an operator
// expression. fn is nil when the built-in operator applies.
type operatorCall struct {
	fn *Function
	// problem is set when the operands have class type and no operator
	// function or built-in operator fits.
	problem ast.Binding
	// dependent is set when an operand type depends on template
	// parameters.
	dependent bool
}

type arrowResult struct {
	chain []*Function
	final Type
}

// resolveOperator resolves the operator function an expression invokes.
// Overloading is considered only for operands of class or enumeration
// type.
func (r *Resolver) resolveOperator(e ast.Node) operatorCall {
	if op, ok := r.operators[e]; ok {
		return op
	}
	r.operators[e] = operatorCall{}
	op := r.computeOperator(e)
	r.operators[e] = op
	return op
}

func (r *Resolver) computeOperator(e ast.Node) operatorCall {
	if r.cMode {
		return operatorCall{}
	}
	switch e := e.(type) {
	case *ast.UnaryExpression:
		if !e.Op.Overloadable() {
			return operatorCall{}
		}
		operand := r.exprType(e.Operand)
		if operand.dependent() {
			return operatorCall{dependent: true}
		}
		if !overloadable(operand.typ) {
			return operatorCall{}
		}
		args := []exprInfo{operand}
		if e.Op == ast.UnaryPostIncr || e.Op == ast.UnaryPostDecr {
			args = append(args, exprInfo{typ: Basic{Kind: Int}, null: true})
		}
		return r.overloadOperator(e, "operator "+e.Op.String(), args, e.Op == ast.UnaryAddressOf)
	case *ast.BinaryExpression:
		if e.Op == ast.BinaryPtrMemDot {
			return operatorCall{}
		}
		left, right := r.exprType(e.Left), r.exprType(e.Right)
		if left.dependent() || right.dependent() {
			return operatorCall{dependent: true}
		}
		if !overloadable(left.typ) && !overloadable(right.typ) {
			return operatorCall{}
		}
		name := "operator " + e.Op.String()
		if e.Op == ast.BinaryAssign {
			return r.memberOperator(e, name, left, []exprInfo{right})
		}
		return r.overloadOperator(e, name, []exprInfo{left, right}, e.Op == ast.BinaryComma)
	case *ast.ArraySubscriptExpression:
		array := r.exprType(e.Array)
		if array.dependent() {
			return operatorCall{dependent: true}
		}
		if classOf(NonReference(array.typ)) == nil {
			return operatorCall{}
		}
		return r.memberOperator(e, "operator []", array, r.argInfos([]ast.Node{e.Index}))
	case *ast.FunctionCallExpression:
		if namesFunctionOrType(r, e.Callee) {
			return operatorCall{}
		}
		callee := r.exprType(e.Callee)
		if callee.dependent() {
			return operatorCall{dependent: true}
		}
		if callee.typeName || classOf(NonReference(callee.typ)) == nil {
			return operatorCall{}
		}
		return r.memberOperator(e, "operator ()", callee, r.argInfos(e.Args))
	}
	return operatorCall{}
}

func overloadable(t Type) bool {
	u := NonReference(t)
	return classOf(u) != nil || enumOf(u) != nil
}

// namesFunctionOrType reports whether a callee names a function or a type
// directly, so that the call is not an operator() invocation.
func namesFunctionOrType(r *Resolver, callee ast.Expression) bool {
	var b ast.Binding
	switch c := ast.StripParens(callee).(type) {
	case *ast.IdExpression:
		b = r.resolve(c.Name)
	case *ast.FieldReference:
		b = r.resolve(c.Member)
	default:
		return false
	}
	switch b.(type) {
	case *Function, *FunctionTemplate, *OverloadSet, *Unknown, *Problem:
		return true
	}
	return isTypeBinding(b)
}

// memberOperator resolves an operator that must be a member function:
// assignment, subscript, call and arrow.
func (r *Resolver) memberOperator(e ast.Node, name string, object exprInfo, args []exprInfo) operatorCall {
	cls := classOf(NonReference(object.typ))
	if cls == nil {
		return operatorCall{}
	}
	found, prob := r.classLookup(cls, name)
	if prob != nil {
		return operatorCall{problem: prob}
	}
	if len(found) == 0 {
		if name == "operator =" {
			return operatorCall{}
		}
		return operatorCall{problem: newProblem(diag.NoViableOverload, name, e)}
	}
	obj := object
	obj.typ = NonReference(object.typ)
	switch b := r.resolveCall(e, name, found, &obj, args, nil).(type) {
	case *Function:
		return operatorCall{fn: b}
	case *Problem:
		return operatorCall{problem: b}
	}
	return operatorCall{}
}

// overloadOperator resolves an operator that may be a member or a
// non-member function, competing with the built-in operator. For comma
// and unary & the built-in meaning applies when no operator function is
// viable.
func (r *Resolver) overloadOperator(e ast.Node, name string, args []exprInfo, builtinFallback bool) operatorCall {
	var cands []candidate
	var considered []ast.Binding
	if cls := classOf(NonReference(args[0].typ)); cls != nil {
		found, prob := r.classLookup(cls, name)
		if prob != nil {
			return operatorCall{problem: prob}
		}
		considered = append(considered, found...)
		obj := args[0]
		obj.typ = NonReference(obj.typ)
		cands = append(cands, r.candidates(found, &obj, args[1:], nil)...)
	}

	nonMember := func(b ast.Binding) bool {
		switch f := b.(type) {
		case *Function:
			return f.Class == nil
		case *FunctionTemplate:
			return f.Pattern.Class == nil
		}
		return false
	}
	found, _ := r.lookupUnqualified(name, r.scopeOf(e), e.Range().Offset, nonMember)
	found = appendUnique(found, r.argumentDependentLookup(name, args)...)
	found = filterBindings(found, nonMember)
	considered = appendUnique(considered, found...)
	cands = append(cands, r.candidates(found, nil, args, nil)...)

	if builtin, ok := r.builtinCandidate(args); ok {
		cands = append(cands, builtin)
	}
	if len(cands) == 0 {
		if builtinFallback || len(considered) == 0 && !anyClass(args) {
			return operatorCall{}
		}
		return operatorCall{problem: newProblem(diag.NoViableOverload, name, e, considered...)}
	}
	best, tied := r.bestViable(cands)
	if len(tied) > 0 {
		amb := []ast.Binding{}
		for _, i := range append([]int{best}, tied...) {
			if cands[i].fn != nil {
				amb = append(amb, cands[i].fn)
			}
		}
		return operatorCall{problem: newProblem(diag.Ambiguous, name, e, amb...)}
	}
	if cands[best].builtin {
		return operatorCall{}
	}
	return operatorCall{fn: cands[best].fn}
}

func anyClass(args []exprInfo) bool {
	for _, a := range args {
		if classOf(NonReference(a.typ)) != nil {
			return true
		}
	}
	return false
}

// builtinCandidate returns the built-in operator as a candidate. Class
// operands take part through a conversion function to a scalar type;
// enumerations are promoted.
func (r *Resolver) builtinCandidate(args []exprInfo) (candidate, bool) {
	c := candidate{builtin: true, convs: make([]conversion, len(args))}
	for i, a := range args {
		t := NonReference(a.typ)
		switch {
		case classOf(t) != nil:
			conv, ok := r.scalarConversion(a)
			if !ok {
				return candidate{}, false
			}
			c.convs[i] = conv
		case enumOf(t) != nil:
			c.convs[i] = conversion{rank: rankPromotion}
		default:
			c.convs[i] = exactConversion
		}
	}
	return c, true
}

// scalarConversion finds a conversion function of a class operand yielding
// a scalar type.
func (r *Resolver) scalarConversion(a exprInfo) (conversion, bool) {
	cls := classOf(NonReference(a.typ))
	_, oc, _ := splitQualifiers(NonReference(a.typ))
	found, _ := r.classLookup(cls, "operator conversion")
	for _, b := range found {
		fn, ok := b.(*Function)
		if !ok || oc && !fn.typ.Const {
			continue
		}
		result := NonReference(fn.typ.Result)
		if k, _ := basicOf(result); fn.Explicit && k != Bool {
			continue
		}
		if isScalar(result) {
			return conversion{rank: rankUserDefined, user: fn}, true
		}
	}
	return conversion{}, false
}

// arrowChain returns the operator-> functions an arrow member access on a
// class object applies, in call order, and the type of the final pointer.
func (r *Resolver) arrowChain(fr *ast.FieldReference) ([]*Function, Type) {
	if a, ok := r.arrows[fr]; ok {
		return a.chain, a.final
	}
	r.arrows[fr] = arrowResult{final: InvalidType{Problem: diag.CircularResolution}}
	var chain []*Function
	t := r.exprType(fr.Owner).typ
	seen := map[*Class]bool{}
	for {
		u := NonReference(t)
		if IsDependent(u) {
			t = Dependent{Name: "->"}
			break
		}
		cls := classOf(u)
		if cls == nil {
			break
		}
		if seen[cls] {
			t = InvalidType{Problem: diag.CircularResolution}
			break
		}
		seen[cls] = true
		op := r.memberOperator(fr, "operator ->", exprInfo{typ: u, lvalue: true}, nil)
		if op.fn == nil {
			t = InvalidType{Problem: diag.NoViableOverload}
			if op.problem != nil {
				r.operators[fr] = op
			}
			break
		}
		chain = append(chain, op.fn)
		t = r.resultType(op.fn)
	}
	r.arrows[fr] = arrowResult{chain: chain, final: t}
	return chain, t
}
