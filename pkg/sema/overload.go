package sema

import (
	"cppsema/pkg/ast"
	"cppsema/pkg/diag"
)

// candidate is a function considered by overload resolution together with
// the conversion of each argument. For member functions the conversion of
// the object argument comes first.
type candidate struct {
	fn       *Function
	convs    []conversion
	template bool
	builtin  bool
}

// resolveCall selects the function a call with the given arguments
// invokes. object is the object argument of member function candidates,
// nil outside of member calls.
func (r *Resolver) resolveCall(n ast.Node, name string, fns []ast.Binding, object *exprInfo, args []exprInfo, explicit []TemplateArg) ast.Binding {
	if dependentCall(object, args) {
		if len(fns) == 1 {
			return fns[0]
		}
		return r.unknown(name)
	}
	cands := r.candidates(fns, object, args, explicit)
	if len(cands) == 0 {
		if r.cMode && len(fns) > 0 {
			// C has no overloading; the declaration in scope is called
			return fns[0]
		}
		return newProblem(diag.NoViableOverload, name, n, fns...)
	}
	best, tied := r.bestViable(cands)
	if len(tied) > 0 {
		amb := []ast.Binding{cands[best].fn}
		for _, i := range tied {
			amb = append(amb, cands[i].fn)
		}
		return newProblem(diag.Ambiguous, name, n, amb...)
	}
	return cands[best].fn
}

// bestFunction is overload resolution without diagnostics, as used for
// implicit calls.
func (r *Resolver) bestFunction(fns []ast.Binding, object *exprInfo, args []exprInfo) (*Function, bool) {
	cands := r.candidates(fns, object, args, nil)
	if len(cands) == 0 {
		return nil, false
	}
	best, tied := r.bestViable(cands)
	if len(tied) > 0 {
		return nil, false
	}
	return cands[best].fn, true
}

func dependentCall(object *exprInfo, args []exprInfo) bool {
	if object != nil && object.dependent() {
		return true
	}
	for _, a := range args {
		if a.dependent() {
			return true
		}
		if il, ok := a.typ.(initListType); ok && dependentCall(nil, il.elems) {
			return true
		}
	}
	return false
}

// candidates returns the viable functions among fns. Function templates
// take part with the specialization deduced from the arguments; a failed
// deduction drops the template.
func (r *Resolver) candidates(fns []ast.Binding, object *exprInfo, args []exprInfo, explicit []TemplateArg) []candidate {
	var out []candidate
	for _, b := range flattenFunctions(fns) {
		switch f := b.(type) {
		case *Function:
			if explicit != nil {
				continue
			}
			if c, ok := r.viable(f, object, args); ok {
				out = append(out, c)
			}
		case *FunctionTemplate:
			inst, ok := r.deduceCall(f, explicit, args)
			if !ok {
				continue
			}
			if c, ok := r.viable(inst, object, args); ok {
				c.template = true
				out = append(out, c)
			}
		}
	}
	return out
}

// viable computes the conversion sequences of a call to fn, and reports
// whether every argument can be converted.
func (r *Resolver) viable(fn *Function, object *exprInfo, args []exprInfo) (candidate, bool) {
	params := fn.typ.Params
	if len(args) < fn.minArgs() || len(args) > len(params) && !fn.typ.Varargs {
		return candidate{}, false
	}
	c := candidate{fn: fn, convs: make([]conversion, 0, len(args)+1)}
	if object != nil {
		conv := conversion{rank: rankExact, any: true}
		if fn.isMember() && fn.kind != ast.BindingConstructor {
			conv = r.objectConversion(*object, fn)
			if !conv.viable() {
				return candidate{}, false
			}
		}
		c.convs = append(c.convs, conv)
	}
	for i, a := range args {
		if i >= len(params) {
			c.convs = append(c.convs, conversion{rank: rankEllipsis})
			continue
		}
		conv := r.implicitConversion(a, params[i])
		if !conv.viable() {
			return candidate{}, false
		}
		c.convs = append(c.convs, conv)
	}
	return c, true
}

// objectConversion binds the implicit object parameter of a member
// function, a reference to the cv-qualified class.
func (r *Resolver) objectConversion(obj exprInfo, fn *Function) conversion {
	if obj.dependent() {
		return exactConversion
	}
	ou, oc, ov := splitQualifiers(NonReference(obj.typ))
	if (oc && !fn.typ.Const) || (ov && !fn.typ.Volatile) {
		return noConversion
	}
	switch fn.typ.RefQual {
	case ast.RefLValue:
		if !obj.lvalue && !fn.typ.Const {
			return noConversion
		}
	case ast.RefRValue:
		if obj.lvalue {
			return noConversion
		}
	}
	conv := conversion{rank: rankExact, refBinding: true, refRValue: fn.typ.RefQual == ast.RefRValue}
	if fn.typ.Const && !oc {
		conv.qualAdded++
	}
	if fn.typ.Volatile && !ov {
		conv.qualAdded++
	}
	if oc := classOf(ou); oc != nil && fn.Class != nil && oc != fn.Class && oc.Pattern() != fn.Class.Pattern() {
		if d := r.baseDistance(oc, fn.Class); d > 0 {
			conv.rank = rankConversion
			conv.derivedToBase = d
		}
	}
	return conv
}

// bestViable returns the index of the best candidate and the candidates it
// is not better than.
func (r *Resolver) bestViable(cands []candidate) (int, []int) {
	best := 0
	for i := 1; i < len(cands); i++ {
		if r.better(cands[i], cands[best]) {
			best = i
		}
	}
	var tied []int
	for i := range cands {
		if i != best && !r.better(cands[best], cands[i]) {
			tied = append(tied, i)
		}
	}
	return best, tied
}

// better reports whether a is a better candidate than b: no argument
// converts worse and one converts better, or the tie breakers prefer it.
func (r *Resolver) better(a, b candidate) bool {
	if a.fn == b.fn && a.builtin == b.builtin {
		return false
	}
	improved := false
	for i := 0; i < len(a.convs) && i < len(b.convs); i++ {
		switch compareConversions(a.convs[i], b.convs[i]) {
		case 1:
			return false
		case -1:
			improved = true
		}
	}
	if improved {
		return true
	}
	switch {
	case !a.template && b.template:
		return true
	case a.template && !b.template:
		return false
	case a.template && b.template:
		return r.moreSpecialized(a.fn.Template, b.fn.Template)
	}
	// an operator function wins over the built-in operator it matches
	return !a.builtin && b.builtin
}
