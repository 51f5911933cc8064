package sema

// convRank is the rank of an implicit conversion sequence. Lower is better.
type convRank int

const (
	rankExact convRank = iota
	rankPromotion
	rankConversion
	rankUserDefined
	rankEllipsis
	rankNone
)

func (k convRank) String() string {
	switch k {
	case rankExact:
		return "exact"
	case rankPromotion:
		return "promotion"
	case rankConversion:
		return "conversion"
	case rankUserDefined:
		return "user-defined"
	case rankEllipsis:
		return "ellipsis"
	default:
		return "none"
	}
}

// conversion is an implicit conversion sequence from an argument to a
// parameter type.
type conversion struct {
	rank convRank
	// refBinding is set when the parameter is a reference.
	refBinding bool
	// refRValue is set when an rvalue reference binds to an rvalue.
	refRValue bool
	// qualAdded counts the cv-qualifiers the conversion adds to the target
	// of a pointer or reference.
	qualAdded int
	// derivedToBase is the number of inheritance edges crossed.
	derivedToBase int
	toVoid        bool
	toBool        bool
	// user is the constructor or conversion function of a user-defined
	// conversion and second the rank of the standard conversion after it.
	user      *Function
	second    convRank
	ambiguous bool
	// any is set for the object argument of a static member function, which
	// matches every object.
	any bool
}

func (c conversion) viable() bool { return c.rank != rankNone }

var (
	noConversion    = conversion{rank: rankNone}
	exactConversion = conversion{rank: rankExact}
)

// implicitConversion returns the conversion sequence from an argument to a
// parameter of type to.
func (r *Resolver) implicitConversion(from exprInfo, to Type) conversion {
	return r.convert(from, to, true)
}

func (r *Resolver) convert(from exprInfo, to Type, allowUser bool) conversion {
	if IsDependent(to) || from.dependent() {
		return exactConversion
	}
	if isInvalid(from.typ) || isInvalid(to) {
		return noConversion
	}
	if ref, ok := isReference(to); ok {
		return r.referenceConversion(from, ref, allowUser)
	}
	if il, ok := from.typ.(initListType); ok {
		return r.listConversion(il, to)
	}
	return r.valueConversion(from, to, allowUser)
}

// referenceConversion binds a reference parameter. A reference to
// non-const binds lvalues only, an rvalue reference binds rvalues only,
// and a reference to const binds both, through a temporary if needed.
func (r *Resolver) referenceConversion(from exprInfo, ref Reference, allowUser bool) conversion {
	tu, tc, tv := splitQualifiers(ref.Elem)
	fu, fc, fv := splitQualifiers(from.typ)
	if _, ok := from.typ.(initListType); ok {
		if !ref.RValue && !tc {
			return noConversion
		}
		conv := r.listConversion(from.typ.(initListType), tu)
		conv.refBinding = true
		conv.refRValue = ref.RValue
		return conv
	}

	related := SameType(tu, fu)
	distance := 0
	if !related {
		if tcls, fcls := classOf(tu), classOf(fu); tcls != nil && fcls != nil {
			if d := r.baseDistance(fcls, tcls); d > 0 {
				related = true
				distance = d
			}
		}
	}
	_, isFunction := tu.(FunctionType)
	if related && (tc || !fc) && (tv || !fv) {
		conv := conversion{rank: rankExact, refBinding: true, derivedToBase: distance}
		if distance > 0 {
			conv.rank = rankConversion
		}
		if tc && !fc {
			conv.qualAdded++
		}
		if tv && !fv {
			conv.qualAdded++
		}
		switch {
		case ref.RValue && from.lvalue && !isFunction:
			return noConversion
		case ref.RValue:
			conv.refRValue = true
		case !from.lvalue && !(tc && !tv):
			return noConversion
		}
		return conv
	}
	if related {
		// binding would drop qualifiers
		return noConversion
	}

	// a temporary is created from the argument
	if !ref.RValue && !(tc && !tv) {
		return noConversion
	}
	conv := r.valueConversion(exprInfo{typ: from.typ, lvalue: from.lvalue, null: from.null}, tu, allowUser)
	if !conv.viable() {
		return noConversion
	}
	conv.refBinding = true
	conv.refRValue = ref.RValue
	return conv
}

// valueConversion converts to a non-reference type.
func (r *Resolver) valueConversion(from exprInfo, to Type, allowUser bool) conversion {
	tu := Unqualified(to)
	fu := decay(NonReference(from.typ))
	if SameType(fu, tu) {
		return exactConversion
	}

	tcls, fcls := classOf(tu), classOf(fu)
	if tcls != nil {
		if fcls != nil {
			if d := r.baseDistance(fcls, tcls); d > 0 {
				return conversion{rank: rankConversion, derivedToBase: d}
			}
		}
		if !allowUser {
			return noConversion
		}
		return r.userConversion(from, tu)
	}
	if fcls != nil {
		if !allowUser {
			return noConversion
		}
		return r.userConversion(from, tu)
	}
	return r.standardConversion(from, fu, tu)
}

// standardConversion converts between scalar types.
func (r *Resolver) standardConversion(from exprInfo, fu, tu Type) conversion {
	switch t := tu.(type) {
	case Basic:
		if t.Kind == Bool && isPointerLike(fu) {
			return conversion{rank: rankConversion, toBool: true}
		}
		if t.Kind == NullPtr {
			if from.null {
				return conversion{rank: rankConversion}
			}
			return noConversion
		}
		if !isArithmetic(t) {
			return noConversion
		}
		switch {
		case isArithmetic(fu):
		case enumOf(fu) != nil && !enumOf(fu).Scoped:
		default:
			return noConversion
		}
		if !SameType(fu, promoted(fu)) && SameType(promoted(fu), t) {
			return conversion{rank: rankPromotion}
		}
		if e := enumOf(fu); e != nil && SameType(e.Underlying, t) {
			return conversion{rank: rankPromotion}
		}
		conv := conversion{rank: rankConversion}
		if t.Kind == Bool {
			conv.toBool = true
		}
		return conv
	case Pointer:
		if from.null && (isIntegral(fu) || isPointerLike(fu)) {
			if _, ok := fu.(Pointer); !ok {
				return conversion{rank: rankConversion}
			}
		}
		fp, ok := fu.(Pointer)
		if !ok {
			return noConversion
		}
		te, tc, tv := splitQualifiers(t.Elem)
		fe, fc, fv := splitQualifiers(fp.Elem)
		if (fc && !tc) || (fv && !tv) {
			return noConversion
		}
		added := 0
		if tc && !fc {
			added++
		}
		if tv && !fv {
			added++
		}
		switch {
		case SameType(te, fe):
			return conversion{rank: rankExact, qualAdded: added}
		case isVoid(te):
			if _, fn := fe.(FunctionType); fn {
				return noConversion
			}
			return conversion{rank: rankConversion, qualAdded: added, toVoid: true}
		}
		if tcls, fcls := classOf(te), classOf(fe); tcls != nil && fcls != nil {
			if d := r.baseDistance(fcls, tcls); d > 0 {
				return conversion{rank: rankConversion, qualAdded: added, derivedToBase: d}
			}
		}
		if r.cMode && isPointerLike(fu) {
			// C converts between object pointer types with a warning
			return conversion{rank: rankConversion}
		}
		return noConversion
	case MemberPointer:
		if from.null {
			return conversion{rank: rankConversion}
		}
		if fm, ok := fu.(MemberPointer); ok && SameType(fm.Elem, t.Elem) {
			if tcls, fcls := classOf(t.Class), classOf(fm.Class); tcls != nil && fcls != nil && r.baseDistance(tcls, fcls) > 0 {
				return conversion{rank: rankConversion}
			}
		}
		return noConversion
	case *Enum:
		if r.cMode && (isArithmetic(fu) || enumOf(fu) != nil) {
			return conversion{rank: rankConversion}
		}
		return noConversion
	}
	return noConversion
}

// userConversion finds the converting constructor of the target class or
// the conversion function of the source class that performs a conversion.
func (r *Resolver) userConversion(from exprInfo, to Type) conversion {
	best := noConversion
	consider := func(fn *Function, second conversion) {
		if !second.viable() {
			return
		}
		cand := conversion{rank: rankUserDefined, user: fn, second: second.rank}
		switch {
		case best.user == nil || second.rank < best.second:
			best = cand
		case second.rank == best.second && best.user != fn:
			best.ambiguous = true
		}
	}

	if tcls := classOf(to); tcls != nil {
		for _, ctor := range r.constructors(tcls) {
			if ctor.Explicit || ctor.Template != nil && ctor.TemplateArgs == nil {
				continue
			}
			params := ctor.typ.Params
			if len(params) == 0 || ctor.minArgs() > 1 {
				continue
			}
			if isCopyOrMove(ctor) {
				continue
			}
			consider(ctor, r.convert(from, params[0], false))
		}
	}
	if fcls := classOf(from.typ); fcls != nil {
		_, oc, ov := splitQualifiers(NonReference(from.typ))
		found, _ := r.classLookup(fcls, "operator conversion")
		for _, b := range found {
			fn, ok := b.(*Function)
			if !ok || fn.Explicit {
				continue
			}
			if (oc && !fn.typ.Const) || (ov && !fn.typ.Volatile) {
				continue
			}
			consider(fn, r.convert(resultInfo(fn.typ.Result), to, false))
		}
	}
	return best
}

// isCopyOrMove reports whether a constructor takes a reference to its own
// class as the only required parameter.
func isCopyOrMove(fn *Function) bool {
	if fn.Class == nil || len(fn.typ.Params) == 0 || fn.minArgs() > 1 {
		return false
	}
	ref, ok := isReference(fn.typ.Params[0])
	return ok && classOf(ref.Elem) == fn.Class
}

// listConversion converts a braced initializer list.
func (r *Resolver) listConversion(il initListType, to Type) conversion {
	tu := Unqualified(NonReference(to))
	if cls := classOf(tu); cls != nil {
		ctors := r.constructors(cls)
		if len(ctors) == 0 || r.isAggregate(cls) {
			return conversion{rank: rankUserDefined}
		}
		if fn, ok := r.bestFunction(r.constructorBindings(cls), nil, il.elems); ok {
			return conversion{rank: rankUserDefined, user: fn}
		}
		return noConversion
	}
	if a, ok := tu.(Array); ok {
		if a.Size >= 0 && len(il.elems) > a.Size {
			return noConversion
		}
		worst := exactConversion
		for _, e := range il.elems {
			c := r.convert(e, a.Elem, true)
			if !c.viable() {
				return noConversion
			}
			if c.rank > worst.rank {
				worst = c
			}
		}
		return worst
	}
	switch len(il.elems) {
	case 0:
		return exactConversion
	case 1:
		return r.convert(il.elems[0], tu, true)
	}
	return noConversion
}

// isAggregate reports whether a class has no user-declared constructors,
// no virtual functions and no virtual bases.
func (r *Resolver) isAggregate(c *Class) bool {
	if c.polymorphic {
		return false
	}
	for _, ctor := range r.constructors(c) {
		if ctor.UserDeclared() {
			return false
		}
	}
	for _, b := range r.classBases(c) {
		if b.Virtual {
			return false
		}
	}
	return true
}

// compareConversions returns -1 when a is the better conversion sequence, 1
// when b is, and 0 when neither is better.
func compareConversions(a, b conversion) int {
	if a.any || b.any {
		return 0
	}
	if a.rank != b.rank {
		if a.rank < b.rank {
			return -1
		}
		return 1
	}
	if a.rank == rankUserDefined {
		if a.user != nil && a.user == b.user && a.second != b.second {
			if a.second < b.second {
				return -1
			}
			return 1
		}
		return 0
	}
	if a.refBinding && b.refBinding && a.refRValue != b.refRValue {
		if a.refRValue {
			return -1
		}
		return 1
	}
	if a.toBool != b.toBool {
		if b.toBool {
			return -1
		}
		return 1
	}
	if a.derivedToBase != b.derivedToBase && a.derivedToBase > 0 && b.derivedToBase > 0 {
		if a.derivedToBase < b.derivedToBase {
			return -1
		}
		return 1
	}
	if a.toVoid != b.toVoid && (a.derivedToBase > 0 || b.derivedToBase > 0) {
		if b.toVoid {
			return -1
		}
		return 1
	}
	if a.qualAdded != b.qualAdded {
		if a.qualAdded < b.qualAdded {
			return -1
		}
		return 1
	}
	return 0
}
