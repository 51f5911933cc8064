package sema

import (
	"cppsema/pkg/ast"
	"cppsema/pkg/diag"
	"cppsema/pkg/scope"
)

// lookupName finds the declarations a simple name denotes. pos is the node
// whose placement decides the kind of lookup: the name itself, or the
// template-id it is the template name of. A non-nil second result replaces
// the lookup: a problem, or an Unknown binding for dependent names.
func (r *Resolver) lookupName(n, pos ast.NameNode) ([]ast.Binding, ast.Binding) {
	name := n.SimpleID()
	offset := pos.Range().Offset

	switch p := pos.Parent().(type) {
	case *ast.QualifiedName:
		idx := segmentIndex(p, pos)
		switch {
		case idx > 0:
			qual := r.resolve(p.Segments[idx-1])
			return r.lookupIn(qual, name, offset, n)
		case p.FullyQualified:
			found := r.qualifiedNamespaceLookup(r.global, name, offset, nil)
			return found, nil
		}
		if fr, ok := p.Parent().(*ast.FieldReference); ok && fr.Member == ast.NameNode(p) {
			if c := classOf(r.objectType(fr).typ); c != nil {
				found, prob := r.classLookup(c, name)
				if prob != nil || len(found) > 0 {
					return found, prob
				}
			}
		}
		return r.lookupUnqualified(name, r.scopeOf(p), p.Range().Offset, nil)
	case *ast.FieldReference:
		if p.Member == pos {
			return r.memberAccessLookup(p, name, n)
		}
	}
	return r.lookupUnqualified(name, r.scopeOf(pos), offset, nil)
}

func segmentIndex(q *ast.QualifiedName, n ast.NameNode) int {
	for i, s := range q.Segments {
		if s == n {
			return i
		}
	}
	return -1
}

// lookupIn performs qualified lookup of name in the entity qual denotes.
func (r *Resolver) lookupIn(qual ast.Binding, name string, offset int, at ast.Node) ([]ast.Binding, ast.Binding) {
	switch q := qual.(type) {
	case *Problem:
		return nil, q
	case *Unknown:
		return nil, r.unknown(name)
	case *Namespace:
		found := r.qualifiedNamespaceLookup(q.ScopeID, name, offset, nil)
		if len(found) == 0 {
			return nil, newProblem(diag.NameNotFound, name, at)
		}
		return found, nil
	case *Enum:
		found := entryBindings(r.arena.Get(q.ScopeID).Lookup(name))
		if len(found) == 0 {
			return nil, newProblem(diag.NameNotFound, name, at)
		}
		return found, nil
	case *ClassTemplate:
		return r.lookupIn(q.Pattern, name, offset, at)
	}

	if isTypeBinding(qual) {
		t := Unqualified(r.bindingType(qual))
		if IsDependent(t) {
			if c, ok := t.(*Class); ok && c.pattern == nil {
				// the current instantiation
				found, prob := r.classLookup(c, name)
				if prob != nil || len(found) > 0 {
					return found, prob
				}
			}
			return nil, r.unknown(name)
		}
		switch t := t.(type) {
		case *Class:
			found, prob := r.classLookup(t, name)
			if prob != nil {
				return nil, prob
			}
			if len(found) == 0 {
				return nil, newProblem(diag.NameNotFound, name, at)
			}
			return found, nil
		case *Enum:
			return r.lookupIn(t, name, offset, at)
		}
	}
	return nil, newProblem(diag.NotAType, name, at, qual)
}

// memberAccessLookup looks up the member of a class member access.
func (r *Resolver) memberAccessLookup(fr *ast.FieldReference, name string, at ast.Node) ([]ast.Binding, ast.Binding) {
	obj := r.objectType(fr)
	if isInvalid(obj.typ) {
		if p, ok := Canonical(obj.typ).(InvalidType); ok {
			return nil, newProblem(p.Problem, name, at)
		}
	}
	t := Unqualified(obj.typ)
	if IsDependent(t) {
		if c, ok := t.(*Class); ok && c.pattern == nil {
			found, prob := r.classLookup(c, name)
			if prob != nil || len(found) > 0 {
				return found, prob
			}
		}
		return nil, r.unknown(name)
	}
	c, ok := t.(*Class)
	if !ok {
		if name != "" && name[0] == '~' {
			// pseudo destructor call on a scalar
			return nil, r.unknown(name)
		}
		return nil, newProblem(diag.InvalidType, name, at)
	}
	found, prob := r.classLookup(c, name)
	if prob != nil {
		return nil, prob
	}
	if len(found) == 0 {
		return nil, newProblem(diag.NameNotFound, name, at)
	}
	return found, nil
}

// lookupUnqualified walks from the scope outwards and stops at the first
// scope that declares name. Declarations after offset are not visible in
// namespace, block and enumeration scopes.
func (r *Resolver) lookupUnqualified(name string, from scope.ID, offset int, filter func(ast.Binding) bool) ([]ast.Binding, ast.Binding) {
	for cur := from; cur != scope.None; cur = r.arena.Parent(cur) {
		s := r.arena.Get(cur)
		if s == nil {
			break
		}
		var found []ast.Binding
		switch s.Kind {
		case scope.KindClass:
			c, _ := s.Owner.(*Class)
			if c == nil {
				continue
			}
			var prob ast.Binding
			found, prob = r.classLookup(c, name)
			if _, unknown := prob.(*Unknown); prob != nil && !unknown {
				return nil, prob
			}
			// names of dependent bases are not found by unqualified lookup
		case scope.KindGlobal, scope.KindNamespace:
			found = r.namespaceLookup(cur, name, offset, nil)
		case scope.KindTemplate, scope.KindFunction, scope.KindPrototype:
			found = entryBindings(s.Lookup(name))
		default:
			found = entryBindings(s.LookupBefore(name, offset))
			for _, u := range s.Usings {
				if u.Offset <= offset {
					found = appendUnique(found, r.namespaceLookup(u.Target, name, maxOffset, nil)...)
				}
			}
		}
		if filter != nil {
			found = filterBindings(found, filter)
		}
		if len(found) > 0 {
			return found, nil
		}
	}
	return nil, nil
}

// namespaceLookup returns the declarations of name in a namespace scope,
// its inline namespaces and the namespaces nominated by using-directives.
func (r *Resolver) namespaceLookup(sc scope.ID, name string, offset int, visited map[scope.ID]bool) []ast.Binding {
	if visited == nil {
		visited = make(map[scope.ID]bool)
	}
	if visited[sc] {
		return nil
	}
	visited[sc] = true
	s := r.arena.Get(sc)
	if s == nil {
		return nil
	}
	found := entryBindings(s.LookupBefore(name, offset))
	for _, child := range s.Children {
		if cs := r.arena.Get(child); cs != nil && cs.Inline {
			found = appendUnique(found, r.namespaceLookup(child, name, offset, visited)...)
		}
	}
	for _, u := range s.Usings {
		if u.Offset <= offset {
			found = appendUnique(found, r.namespaceLookup(u.Target, name, maxOffset, visited)...)
		}
	}
	return found
}

// qualifiedNamespaceLookup finds name as a member of a namespace. The
// namespaces nominated by using-directives are only searched when the
// namespace and its inline namespaces do not declare the name.
func (r *Resolver) qualifiedNamespaceLookup(sc scope.ID, name string, offset int, visited map[scope.ID]bool) []ast.Binding {
	if visited == nil {
		visited = make(map[scope.ID]bool)
	}
	if visited[sc] {
		return nil
	}
	visited[sc] = true
	s := r.arena.Get(sc)
	if s == nil {
		return nil
	}
	found := entryBindings(s.LookupBefore(name, offset))
	for _, child := range s.Children {
		if cs := r.arena.Get(child); cs != nil && cs.Inline {
			found = appendUnique(found, r.qualifiedNamespaceLookup(child, name, offset, visited)...)
		}
	}
	if len(found) > 0 {
		return found
	}
	for _, u := range s.Usings {
		found = appendUnique(found, r.qualifiedNamespaceLookup(u.Target, name, maxOffset, visited)...)
	}
	return found
}

// lookupResult is the outcome of class member lookup in one subobject.
type lookupResult struct {
	bindings []ast.Binding
	// class is the class that declares the bindings.
	class   *Class
	virtual bool
}

// classLookup finds name as a member of c, searching the bases when c does
// not declare it. Finding different members in distinct base subobjects is
// ambiguous.
func (r *Resolver) classLookup(c *Class, name string) ([]ast.Binding, ast.Binding) {
	res, prob := r.classLookupIn(c, name, false, make(map[*Class]int))
	if prob != nil {
		return nil, prob
	}
	return res.bindings, nil
}

func (r *Resolver) classLookupIn(c *Class, name string, virtual bool, depth map[*Class]int) (lookupResult, ast.Binding) {
	if depth[c] > 0 {
		// a class deriving from itself
		return lookupResult{}, nil
	}
	depth[c]++
	defer func() { depth[c]-- }()

	pattern := c.Pattern()
	if s := r.arena.Get(pattern.ScopeID); s != nil {
		if entries := s.Lookup(name); len(entries) > 0 {
			found := entryBindings(entries)
			if c.pattern != nil {
				for i, b := range found {
					found[i] = r.specializeMember(c, b)
				}
			}
			return lookupResult{bindings: found, class: c, virtual: virtual}, nil
		}
	}

	var results []lookupResult
	dependentBase := false
	for _, base := range r.classBases(c) {
		if base.Class == nil {
			if IsDependent(base.Type) {
				dependentBase = true
			}
			continue
		}
		res, prob := r.classLookupIn(base.Class, name, virtual || base.Virtual, depth)
		if prob != nil {
			return lookupResult{}, prob
		}
		if len(res.bindings) > 0 {
			results = append(results, res)
		}
	}
	switch len(results) {
	case 0:
		if dependentBase {
			return lookupResult{}, r.unknown(name)
		}
		return lookupResult{}, nil
	case 1:
		return results[0], nil
	}

	first := results[0]
	for _, other := range results[1:] {
		if sameBindings(first.bindings, other.bindings) &&
			((first.class == other.class && first.virtual && other.virtual) || allShared(first.bindings)) {
			continue
		}
		var cands []ast.Binding
		for _, res := range results {
			cands = appendUnique(cands, res.bindings...)
		}
		return lookupResult{}, newProblem(diag.Ambiguous, name, nil, cands...)
	}
	return first, nil
}

// allShared reports whether the bindings denote entities that exist once
// regardless of the number of base subobjects: types, enumerators and
// static members.
func allShared(bs []ast.Binding) bool {
	for _, b := range bs {
		switch b := b.(type) {
		case *Variable:
			if !b.Static {
				return false
			}
		case *Function:
			if !b.Static {
				return false
			}
		case *Enumerator, *Class, *Enum, *Typedef, *ClassTemplate:
		default:
			return false
		}
	}
	return true
}

// classBases returns the bases of c. The bases of an instance are the
// bases of its pattern with the template arguments substituted.
func (r *Resolver) classBases(c *Class) []Base {
	if c.pattern == nil {
		return c.Bases
	}
	if c.Bases == nil && len(c.pattern.Bases) > 0 {
		bases := make([]Base, len(c.pattern.Bases))
		for i, b := range c.pattern.Bases {
			t := r.substitute(b.Type, c)
			bases[i] = Base{Class: classOf(t), Type: t, Access: b.Access, Virtual: b.Virtual, Spec: b.Spec}
		}
		c.Bases = bases
	}
	return c.Bases
}

// isDerivedFrom reports whether base is a direct or indirect base of c.
func (r *Resolver) isDerivedFrom(c, base *Class) bool {
	return r.baseDistance(c, base) > 0
}

// baseDistance returns the number of inheritance edges from c to base, 0
// when c is base and -1 when base is not a base of c.
func (r *Resolver) baseDistance(c, base *Class) int {
	type item struct {
		c *Class
		d int
	}
	seen := map[*Class]bool{}
	queue := []item{{c, 0}}
	for len(queue) > 0 {
		it := queue[0]
		queue = queue[1:]
		if it.c == base {
			return it.d
		}
		if seen[it.c] {
			continue
		}
		seen[it.c] = true
		for _, b := range r.classBases(it.c) {
			if b.Class != nil {
				queue = append(queue, item{b.Class, it.d + 1})
			}
		}
	}
	return -1
}

// argumentDependentLookup returns the functions named name that are
// declared in the namespaces associated with the argument types, and the
// friend functions of the associated classes.
func (r *Resolver) argumentDependentLookup(name string, args []exprInfo) []ast.Binding {
	namespaces := map[scope.ID]bool{}
	var nsOrder []scope.ID
	classes := map[*Class]bool{}
	for _, a := range args {
		r.associated(a.typ, namespaces, &nsOrder, classes, 0)
	}

	var found []ast.Binding
	for _, ns := range nsOrder {
		for _, b := range r.namespaceLookup(ns, name, maxOffset, map[scope.ID]bool{}) {
			if isFunctionBinding(b) {
				found = appendUnique(found, b)
			}
		}
	}
	for _, f := range r.hidden {
		if f.name != name {
			continue
		}
		for _, c := range f.friendOf {
			if classes[c] {
				found = appendUnique(found, f)
			}
		}
	}
	return found
}

func (r *Resolver) associated(t Type, namespaces map[scope.ID]bool, order *[]scope.ID, classes map[*Class]bool, depth int) {
	if depth > 16 {
		return
	}
	addNS := func(sc scope.ID) {
		ns := r.arena.Enclosing(sc, scope.KindNamespace, scope.KindGlobal)
		if ns != scope.None && !namespaces[ns] {
			namespaces[ns] = true
			*order = append(*order, ns)
		}
	}
	switch t := Canonical(t).(type) {
	case Qualified:
		r.associated(t.Elem, namespaces, order, classes, depth+1)
	case Pointer:
		r.associated(t.Elem, namespaces, order, classes, depth+1)
	case Reference:
		r.associated(t.Elem, namespaces, order, classes, depth+1)
	case Array:
		r.associated(t.Elem, namespaces, order, classes, depth+1)
	case FunctionType:
		r.associated(t.Result, namespaces, order, classes, depth+1)
		for _, p := range t.Params {
			r.associated(p, namespaces, order, classes, depth+1)
		}
	case *Enum:
		addNS(t.scope)
	case *Class:
		if classes[t] {
			return
		}
		classes[t] = true
		if t.pattern != nil {
			classes[t.pattern] = true
		}
		addNS(t.Pattern().scope)
		for _, b := range r.classBases(t) {
			if b.Class != nil {
				r.associated(b.Class, namespaces, order, classes, depth+1)
			}
		}
		for _, a := range t.Args {
			if !a.IsValue {
				r.associated(a.Type, namespaces, order, classes, depth+1)
			}
		}
	}
}

func entryBindings(entries []scope.Entry) []ast.Binding {
	if len(entries) == 0 {
		return nil
	}
	out := make([]ast.Binding, 0, len(entries))
	for _, e := range entries {
		out = appendUnique(out, e.Binding)
	}
	return out
}

func appendUnique(list []ast.Binding, bs ...ast.Binding) []ast.Binding {
outer:
	for _, b := range bs {
		for _, x := range list {
			if x == b {
				continue outer
			}
		}
		list = append(list, b)
	}
	return list
}

func filterBindings(bs []ast.Binding, keep func(ast.Binding) bool) []ast.Binding {
	var out []ast.Binding
	for _, b := range bs {
		if keep(b) {
			out = append(out, b)
		}
	}
	return out
}

func sameBindings(a, b []ast.Binding) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func (r *Resolver) unknown(name string) *Unknown {
	return &Unknown{binding: binding{name: name}}
}
