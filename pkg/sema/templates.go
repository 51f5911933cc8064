package sema

import (
	"cppsema/pkg/ast"
	"cppsema/pkg/diag"
)

// substitution maps template parameters to their arguments.
type substitution map[*TemplateParameter]TemplateArg

// partialSpec is a class template partial specialization: a pattern used
// for the arguments that match args.
type partialSpec struct {
	class  *Class
	params []*TemplateParameter
	args   []TemplateArg
}

// completeArgs appends the default arguments of the parameters without
// argument. A pack parameter takes the remaining arguments.
func (r *Resolver) completeArgs(params []*TemplateParameter, args []TemplateArg) ([]TemplateArg, bool) {
	out := make([]TemplateArg, 0, len(params))
	for i, p := range params {
		if p.Pack {
			if i < len(args) {
				out = append(out, args[i:]...)
			}
			return out, true
		}
		if i < len(args) {
			out = append(out, args[i])
			continue
		}
		if !p.HasDefault {
			return nil, false
		}
		d := p.Default
		if !d.IsValue {
			m := substitution{}
			for j, a := range out {
				m[params[j]] = a
			}
			d.Type = r.subst(d.Type, m, nil)
		}
		out = append(out, d)
	}
	if len(args) > len(params) {
		return nil, false
	}
	return out, true
}

// instantiate returns the class a class template denotes for the given
// arguments: an explicit specialization, the instance of a matching partial
// specialization or of the primary template. Equal arguments yield the
// identical class.
func (r *Resolver) instantiate(ct *ClassTemplate, args []TemplateArg, at ast.Node) ast.Binding {
	full, ok := r.completeArgs(ct.Params, args)
	if !ok {
		return newProblem(diag.WrongTemplateArgCount, ct.name, at, ct)
	}
	if currentInstantiation(ct.Params, full) {
		return ct.Pattern
	}
	key := argsKey(full)
	if c, ok := ct.specializations[key]; ok {
		return c
	}
	if c, ok := ct.instances[key]; ok {
		return c
	}

	pattern := ct.Pattern
	m := substitution{}
	for i, p := range ct.Params {
		if i < len(full) {
			m[p] = full[i]
		}
	}
	if !anyDependent(full) {
		for _, ps := range ct.partials {
			if dm, ok := r.matchPartial(ps, full); ok {
				pattern, m = ps.class, dm
				break
			}
		}
	}
	inst := &Class{
		binding:     pattern.binding,
		Key:         pattern.Key,
		ScopeID:     pattern.ScopeID,
		Spec:        pattern.Spec,
		Complete:    pattern.Complete,
		Template:    ct,
		Args:        full,
		pattern:     pattern,
		subst:       m,
		polymorphic: pattern.polymorphic,
	}
	inst.binding.decls = nil
	ct.instances[key] = inst
	return inst
}

// currentInstantiation reports whether the arguments are the template's
// own parameters, as in A<T> inside the definition of A.
func currentInstantiation(params []*TemplateParameter, args []TemplateArg) bool {
	if len(params) != len(args) || len(params) == 0 {
		return false
	}
	for i, p := range params {
		tp, ok := args[i].Type.(*TemplateParameter)
		if args[i].IsValue || !ok || tp != p {
			return false
		}
	}
	return true
}

func anyDependent(args []TemplateArg) bool {
	for _, a := range args {
		if !a.IsValue && IsDependent(a.Type) {
			return true
		}
	}
	return false
}

func (r *Resolver) matchPartial(ps partialSpec, args []TemplateArg) (substitution, bool) {
	if len(ps.args) != len(args) {
		return nil, false
	}
	m := substitution{}
	for i, pa := range ps.args {
		if !deduceArg(r, pa, args[i], m) {
			return nil, false
		}
	}
	for _, p := range ps.params {
		if _, ok := m[p]; !ok {
			return nil, false
		}
	}
	return m, true
}

// deduceArg matches a template argument pattern against an argument.
func deduceArg(r *Resolver, pattern, arg TemplateArg, m substitution) bool {
	if tp, ok := pattern.Type.(*TemplateParameter); ok && tp.NonType {
		if prev, ok := m[tp]; ok {
			return prev.IsValue == arg.IsValue && prev.Value == arg.Value
		}
		m[tp] = arg
		return true
	}
	if pattern.IsValue || arg.IsValue {
		return pattern.IsValue == arg.IsValue && pattern.Value == arg.Value
	}
	return r.deduceType(pattern.Type, arg.Type, m)
}

// instantiateAlias substitutes the arguments of an alias template into its
// target.
func (r *Resolver) instantiateAlias(td *Typedef, args []TemplateArg, at ast.Node) ast.Binding {
	full, ok := r.completeArgs(td.params, args)
	if !ok {
		return newProblem(diag.WrongTemplateArgCount, td.name, at, td)
	}
	key := argsKey(full)
	if inst, ok := td.instances[key]; ok {
		return inst
	}
	m := substitution{}
	for i, p := range td.params {
		if i < len(full) {
			m[p] = full[i]
		}
	}
	inst := &Typedef{binding: td.binding, Target: r.subst(td.Target, m, nil)}
	inst.binding.decls = nil
	if td.instances == nil {
		td.instances = map[string]*Typedef{}
	}
	td.instances[key] = inst
	return inst
}

// subst replaces the template parameters in t. self is the class template
// instance whose pattern the type is taken from; its pattern denotes the
// instance.
func (r *Resolver) subst(t Type, m substitution, self *Class) Type {
	if t == nil || len(m) == 0 && self == nil {
		return t
	}
	switch u := t.(type) {
	case *TemplateParameter:
		if a, ok := m[u]; ok && !a.IsValue && a.Type != nil {
			return a.Type
		}
		return u
	case *Typedef:
		if !IsDependent(u) && self == nil {
			return u
		}
		inner := r.subst(u.Target, m, self)
		if typeKey(inner) == typeKey(u.Target) {
			return u
		}
		return inner
	case Qualified:
		return qualify(r.subst(u.Elem, m, self), u.Const, u.Volatile)
	case Pointer:
		return Pointer{Elem: r.subst(u.Elem, m, self)}
	case Reference:
		return Canonical(Reference{Elem: r.subst(u.Elem, m, self), RValue: u.RValue})
	case Array:
		return Array{Elem: r.subst(u.Elem, m, self), Size: u.Size}
	case FunctionType:
		out := u
		out.Result = r.subst(u.Result, m, self)
		out.Params = make([]Type, len(u.Params))
		for i, p := range u.Params {
			out.Params[i] = r.subst(p, m, self)
		}
		return out
	case MemberPointer:
		return MemberPointer{Class: r.subst(u.Class, m, self), Elem: r.subst(u.Elem, m, self)}
	case *Class:
		return r.substClass(u, m, self)
	}
	return t
}

func (r *Resolver) substClass(c *Class, m substitution, self *Class) Type {
	if self != nil && c == self.pattern {
		return self
	}
	ct := c.Template
	if ct == nil {
		return c
	}
	var args []TemplateArg
	switch {
	case c.pattern != nil && anyDependent(c.Args):
		args = make([]TemplateArg, len(c.Args))
		for i, a := range c.Args {
			if a.IsValue {
				args[i] = a
				continue
			}
			if tp, ok := a.Type.(*TemplateParameter); ok && tp.NonType {
				if v, ok := m[tp]; ok {
					args[i] = v
					continue
				}
			}
			args[i] = TemplateArg{Type: r.subst(a.Type, m, self)}
		}
	case c.pattern == nil && c == ct.Pattern:
		args = make([]TemplateArg, len(ct.Params))
		for i, p := range ct.Params {
			a, ok := m[p]
			if !ok {
				return c
			}
			args[i] = a
		}
	default:
		return c
	}
	if inst, ok := r.instantiate(ct, args, nil).(*Class); ok {
		return inst
	}
	return c
}

// substitute replaces the template parameters of an instance's pattern in
// t.
func (r *Resolver) substitute(t Type, inst *Class) Type {
	if inst == nil || inst.pattern == nil {
		return t
	}
	return r.subst(t, inst.subst, inst)
}

// specializeMember returns the member of a class template instance that
// corresponds to a member b of its pattern. Types are substituted on first
// use and the result is memoized.
func (r *Resolver) specializeMember(inst *Class, b ast.Binding) ast.Binding {
	if inst.pattern == nil {
		return b
	}
	key := memberKey{class: inst, member: b}
	if m, ok := r.members[key]; ok {
		return m
	}
	var out ast.Binding = b
	switch m := b.(type) {
	case *Variable:
		if m.Class == nil {
			break
		}
		clone := *m
		clone.typ = r.substitute(r.variableType(m), inst)
		clone.Class = inst
		clone.owner = inst
		clone.Specialized = m
		out = &clone
	case *Function:
		if m.Class == nil {
			break
		}
		out = r.specializeFunction(inst, m)
	case *Typedef:
		clone := *m
		clone.Target = r.substitute(m.Target, inst)
		clone.owner = inst
		out = &clone
	case *Class:
		if m == inst.pattern {
			out = inst
		}
	}
	r.members[key] = out
	return out
}

func (r *Resolver) specializeFunction(inst *Class, m *Function) *Function {
	clone := *m
	f := &clone
	f.Class = inst
	f.owner = inst
	f.Specialized = m
	if ft, ok := r.substitute(m.typ, inst).(FunctionType); ok {
		f.typ = ft
	}
	f.Params = make([]*Variable, len(m.Params))
	for i, p := range m.Params {
		v := *p
		v.typ = r.substitute(p.typ, inst)
		v.owner = f
		f.Params[i] = &v
	}
	if m.special != specialNone && (m.Implicit || defaultedInClass(m)) {
		f.Trivial = r.trivialSpecial(inst, m.special)
	}
	return f
}

// constructors returns the constructors of c. Constructor templates are
// represented by their template.
func (r *Resolver) constructors(c *Class) []*Function {
	if c.pattern == nil {
		return c.Constructors
	}
	out := make([]*Function, 0, len(c.pattern.Constructors))
	for _, ctor := range c.pattern.Constructors {
		if f, ok := r.specializeMember(c, ctor).(*Function); ok {
			out = append(out, f)
		}
	}
	return out
}

// constructorBindings returns the constructors of c as overload candidates,
// constructor templates as templates.
func (r *Resolver) constructorBindings(c *Class) []ast.Binding {
	var out []ast.Binding
	for _, ctor := range r.constructors(c) {
		if ctor.Template != nil && ctor.TemplateArgs == nil {
			out = appendUnique(out, ctor.Template)
			continue
		}
		out = append(out, ctor)
	}
	return out
}

// destructor returns the destructor of c, or nil.
func (r *Resolver) destructor(c *Class) *Function {
	if c.pattern == nil {
		return c.Destructor
	}
	if c.pattern.Destructor == nil {
		return nil
	}
	f, _ := r.specializeMember(c, c.pattern.Destructor).(*Function)
	return f
}

// deduceType deduces the template parameters in the pattern p from the
// argument type a.
func (r *Resolver) deduceType(p, a Type, m substitution) bool {
	if p == nil || a == nil {
		return false
	}
	if tp, ok := p.(*TemplateParameter); ok {
		if tp.NonType {
			return false
		}
		if prev, ok := m[tp]; ok {
			return !prev.IsValue && SameType(prev.Type, a)
		}
		m[tp] = TemplateArg{Type: a}
		return true
	}
	if !IsDependent(p) {
		return SameType(p, a)
	}
	switch pt := Canonical(p).(type) {
	case *TemplateParameter:
		return r.deduceType(pt, a, m)
	case Qualified:
		au, ac, av := splitQualifiers(a)
		if (pt.Const && !ac) || (pt.Volatile && !av) {
			return false
		}
		return r.deduceType(pt.Elem, qualify(au, ac && !pt.Const, av && !pt.Volatile), m)
	case Pointer:
		ap, ok := Unqualified(a).(Pointer)
		return ok && r.deduceType(pt.Elem, ap.Elem, m)
	case Reference:
		ar, ok := Canonical(a).(Reference)
		return ok && ar.RValue == pt.RValue && r.deduceType(pt.Elem, ar.Elem, m)
	case Array:
		aa, ok := Unqualified(a).(Array)
		return ok && r.deduceType(pt.Elem, aa.Elem, m)
	case FunctionType:
		af, ok := Canonical(a).(FunctionType)
		if !ok || len(af.Params) != len(pt.Params) || af.Varargs != pt.Varargs {
			return false
		}
		for i := range pt.Params {
			if !r.deduceType(pt.Params[i], af.Params[i], m) {
				return false
			}
		}
		return r.deduceType(pt.Result, af.Result, m)
	case MemberPointer:
		am, ok := Unqualified(a).(MemberPointer)
		return ok && r.deduceType(pt.Class, am.Class, m) && r.deduceType(pt.Elem, am.Elem, m)
	case *Class:
		return r.deduceClass(pt, classOf(a), m)
	}
	return SameType(p, a)
}

// deduceClass matches a template instance pattern such as A<T> against a
// class or, failing that, its bases.
func (r *Resolver) deduceClass(p, a *Class, m substitution) bool {
	if a == nil || p.Template == nil {
		return false
	}
	pargs := p.Args
	if p.pattern == nil {
		// the injected class name stands for A<params...>
		for _, tp := range p.Template.Params {
			pargs = append(pargs, TemplateArg{Type: tp})
		}
	}
	queue := []*Class{a}
	seen := map[*Class]bool{}
	for len(queue) > 0 {
		c := queue[0]
		queue = queue[1:]
		if seen[c] {
			continue
		}
		seen[c] = true
		if c.Template == p.Template && len(c.Args) == len(pargs) {
			trial := substitution{}
			for k, v := range m {
				trial[k] = v
			}
			ok := true
			for i := range pargs {
				if !deduceArg(r, pargs[i], c.Args[i], trial) {
					ok = false
					break
				}
			}
			if ok {
				for k, v := range trial {
					m[k] = v
				}
				return true
			}
		}
		for _, b := range r.classBases(c) {
			if b.Class != nil {
				queue = append(queue, b.Class)
			}
		}
	}
	return false
}

// deduceArgument deduces from a call argument: a reference parameter
// deduces from the argument type, a forwarding reference T&& from an
// lvalue deduces T as a reference, and other parameters from the decayed,
// unqualified argument type.
func (r *Resolver) deduceArgument(p Type, a exprInfo, m substitution) bool {
	if il, ok := a.typ.(initListType); ok {
		if len(il.elems) == 0 {
			return !IsDependent(p)
		}
		return !IsDependent(p) || r.deduceArgument(p, il.elems[0], m)
	}
	if ref, ok := p.(Reference); ok {
		if tp, ok := ref.Elem.(*TemplateParameter); ok && ref.RValue && a.lvalue {
			return r.deduceType(tp, Reference{Elem: a.typ}, m)
		}
	}
	if ref, ok := isReference(p); ok {
		at := NonReference(a.typ)
		if q, ok := Canonical(ref.Elem).(Qualified); ok {
			// const T& binds a non-const argument
			at = qualify(at, q.Const, q.Volatile)
		}
		return r.deduceType(ref.Elem, at, m)
	}
	return r.deduceType(Unqualified(p), decay(a.typ), m)
}

// deduceCall deduces the arguments of a function template from explicit
// template arguments and call arguments, and returns the specialization.
func (r *Resolver) deduceCall(ft *FunctionTemplate, explicit []TemplateArg, args []exprInfo) (*Function, bool) {
	m := substitution{}
	given := substitution{}
	for i, e := range explicit {
		if i >= len(ft.Params) {
			return nil, false
		}
		m[ft.Params[i]] = e
		given[ft.Params[i]] = e
	}
	// Every pair is deduced against the pattern with only the explicit
	// arguments substituted, so that two arguments deducing different
	// types for one parameter fail. Non-deduced contexts are checked
	// once the rest is known.
	params := ft.Pattern.typ.Params
	var deferred []int
	for i, a := range args {
		if i >= len(params) {
			if ft.Pattern.typ.Varargs {
				break
			}
			return nil, false
		}
		p := r.subst(params[i], given, nil)
		switch {
		case !IsDependent(p):
		case hasNonDeducedContext(p):
			deferred = append(deferred, i)
		case !r.deduceArgument(p, a, m):
			return nil, false
		}
	}
	for _, i := range deferred {
		if IsDependent(r.subst(params[i], m, nil)) {
			return nil, false
		}
	}
	for _, tp := range ft.Params {
		if _, ok := m[tp]; ok {
			continue
		}
		switch {
		case tp.HasDefault:
			m[tp] = tp.Default
		default:
			return nil, false
		}
	}
	return r.instantiateFunction(ft, m), true
}

// hasNonDeducedContext reports whether t mentions a dependent name such as
// T::type, from which no template argument is deduced.
func hasNonDeducedContext(t Type) bool {
	switch t := Canonical(t).(type) {
	case Dependent:
		return true
	case Qualified:
		return hasNonDeducedContext(t.Elem)
	case Pointer:
		return hasNonDeducedContext(t.Elem)
	case Reference:
		return hasNonDeducedContext(t.Elem)
	case Array:
		return hasNonDeducedContext(t.Elem)
	case FunctionType:
		if hasNonDeducedContext(t.Result) {
			return true
		}
		for _, p := range t.Params {
			if hasNonDeducedContext(p) {
				return true
			}
		}
	case MemberPointer:
		return hasNonDeducedContext(t.Class) || hasNonDeducedContext(t.Elem)
	case *Class:
		for _, a := range t.Args {
			if !a.IsValue && a.Type != nil && hasNonDeducedContext(a.Type) {
				return true
			}
		}
	}
	return false
}

// instantiateFunction returns the specialization of a function template
// for the given arguments. Equal arguments yield the identical function.
func (r *Resolver) instantiateFunction(ft *FunctionTemplate, m substitution) *Function {
	args := make([]TemplateArg, len(ft.Params))
	for i, tp := range ft.Params {
		args[i] = m[tp]
	}
	key := argsKey(args)
	if f, ok := ft.instances[key]; ok {
		return f
	}
	pat := ft.Pattern
	clone := *pat
	f := &clone
	f.binding.decls = nil
	f.Template = ft
	f.TemplateArgs = args
	if t, ok := r.subst(pat.typ, m, nil).(FunctionType); ok {
		f.typ = t
	}
	f.Params = make([]*Variable, len(pat.Params))
	for i, p := range pat.Params {
		v := *p
		v.typ = r.subst(p.typ, m, nil)
		v.owner = f
		f.Params[i] = &v
	}
	ft.instances[key] = f
	return f
}

// registerSpecialization records an explicit specialization of a function
// template, so that calls deducing its arguments find it.
func (r *Resolver) registerSpecialization(ft *FunctionTemplate, fn *Function, tid *ast.TemplateId) {
	m := substitution{}
	if tid != nil {
		for i, a := range r.templateArgs(tid) {
			if i < len(ft.Params) {
				m[ft.Params[i]] = a
			}
		}
	}
	params := ft.Pattern.typ.Params
	for i := 0; i < len(params) && i < len(fn.typ.Params); i++ {
		if !r.deduceType(params[i], fn.typ.Params[i], m) {
			return
		}
	}
	args := make([]TemplateArg, len(ft.Params))
	for i, tp := range ft.Params {
		a, ok := m[tp]
		if !ok {
			return
		}
		args[i] = a
	}
	fn.TemplateArgs = args
	ft.instances[argsKey(args)] = fn
}

// moreSpecialized reports whether function template a is more specialized
// than b by partial ordering.
func (r *Resolver) moreSpecialized(a, b *FunctionTemplate) bool {
	if a == nil || b == nil || a == b {
		return false
	}
	return r.atLeastAsSpecialized(a, b) && !r.atLeastAsSpecialized(b, a)
}

// atLeastAsSpecialized reports whether the parameter types of b can be
// deduced from those of a.
func (r *Resolver) atLeastAsSpecialized(a, b *FunctionTemplate) bool {
	pa, pb := a.Pattern.typ.Params, b.Pattern.typ.Params
	m := substitution{}
	for i := 0; i < len(pa) && i < len(pb); i++ {
		if !r.deduceType(orderingType(pb[i]), orderingType(pa[i]), m) {
			return false
		}
	}
	return true
}

// orderingType strips references and top-level qualifiers for partial
// ordering.
func orderingType(t Type) Type {
	if ref, ok := t.(Reference); ok {
		t = ref.Elem
	}
	if q, ok := t.(Qualified); ok {
		return q.Elem
	}
	return t
}

// deduceAuto deduces the type of a variable declared with a placeholder
// type from its initializer, or from the range of a range-based for.
func (r *Resolver) deduceAuto(v *Variable) Type {
	d := v.Declarator
	if d == nil {
		return InvalidType{Problem: diag.DeductionFailure}
	}
	for {
		p, ok := d.Parent().(*ast.Declarator)
		if !ok {
			break
		}
		d = p
	}
	var init ast.Node
	switch i := d.Init.(type) {
	case *ast.EqualsInitializer:
		init = i.Value
	case *ast.ConstructorInitializer:
		if len(i.Args) == 1 {
			init = i.Args[0]
		}
	case *ast.InitializerList:
		if len(i.Elements) == 1 {
			init = i.Elements[0]
		}
	}
	var info exprInfo
	switch {
	case init != nil:
		if _, list := init.(*ast.InitializerList); list {
			return InvalidType{Problem: diag.DeductionFailure}
		}
		info = r.exprType(init)
	default:
		rf := enclosingRangeFor(d)
		if rf == nil {
			return InvalidType{Problem: diag.DeductionFailure}
		}
		info = r.rangeElement(rf)
	}
	return r.deduceAutoType(v.typ, info)
}

func enclosingRangeFor(d *ast.Declarator) *ast.RangeForStatement {
	sd, ok := d.Parent().(*ast.SimpleDeclaration)
	if !ok {
		return nil
	}
	rf, ok := sd.Parent().(*ast.RangeForStatement)
	if !ok || rf.Decl != sd {
		return nil
	}
	return rf
}

// deduceAutoType deduces a placeholder type by the rules of template
// argument deduction, with auto as the template parameter.
func (r *Resolver) deduceAutoType(pattern Type, a exprInfo) Type {
	if a.dependent() {
		return Dependent{Name: "auto"}
	}
	if isInvalid(a.typ) {
		return a.typ
	}
	tp := &TemplateParameter{binding: binding{name: "auto"}}
	p := replaceAuto(pattern, tp)
	m := substitution{}
	if !r.deduceArgument(p, a, m) {
		return InvalidType{Problem: diag.DeductionFailure}
	}
	return r.subst(p, m, nil)
}

func replaceAuto(t Type, tp *TemplateParameter) Type {
	switch u := t.(type) {
	case autoType:
		return tp
	case Qualified:
		return Qualified{Elem: replaceAuto(u.Elem, tp), Const: u.Const, Volatile: u.Volatile}
	case Pointer:
		return Pointer{Elem: replaceAuto(u.Elem, tp)}
	case Reference:
		return Reference{Elem: replaceAuto(u.Elem, tp), RValue: u.RValue}
	}
	return t
}

// rangeElement returns the type of the elements a range-based for
// iterates: the array element, or the result of dereferencing the
// iterator that begin returns.
func (r *Resolver) rangeElement(rf *ast.RangeForStatement) exprInfo {
	rng := r.exprType(rf.RangeExpr)
	if rng.dependent() {
		return exprInfo{typ: Dependent{Name: "range"}}
	}
	if il, ok := rng.typ.(initListType); ok {
		if len(il.elems) == 0 {
			return invalidInfo(diag.DeductionFailure)
		}
		return exprInfo{typ: Unqualified(il.elems[0].typ), lvalue: true}
	}
	t := NonReference(rng.typ)
	if a, ok := Unqualified(t).(Array); ok {
		_, c, v := splitQualifiers(t)
		return exprInfo{typ: qualify(a.Elem, c, v), lvalue: true}
	}
	cls := classOf(t)
	if cls == nil {
		return invalidInfo(diag.DeductionFailure)
	}
	var begin *Function
	obj := exprInfo{typ: t, lvalue: rng.lvalue}
	if found, _ := r.classLookup(cls, "begin"); len(found) > 0 {
		begin, _ = r.bestFunction(found, &obj, nil)
	} else {
		begin, _ = r.bestFunction(r.argumentDependentLookup("begin", []exprInfo{rng}), nil, []exprInfo{rng})
	}
	if begin == nil {
		return invalidInfo(diag.DeductionFailure)
	}
	iter := resultInfo(r.resultType(begin))
	if IsDependent(iter.typ) {
		return exprInfo{typ: Dependent{Name: "range"}}
	}
	if elem, ok := pointee(decay(iter.typ)); ok {
		return exprInfo{typ: elem, lvalue: true}
	}
	if icls := classOf(iter.typ); icls != nil {
		if found, _ := r.classLookup(icls, "operator *"); len(found) > 0 {
			if deref, ok := r.bestFunction(found, &iter, nil); ok {
				return resultInfo(r.resultType(deref))
			}
		}
	}
	return invalidInfo(diag.DeductionFailure)
}
