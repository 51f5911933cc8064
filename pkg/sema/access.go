package sema

import (
	"cppsema/pkg/ast"
)

// IsAccessible reports whether the member b may be named at use. Non
// members are always accessible.
func (r *Resolver) IsAccessible(b ast.Binding, use ast.Node) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.isAccessible(b, use)
}

// accessContext is where a name is used: the enclosing classes, innermost
// first, and the enclosing function.
type accessContext struct {
	classes []*Class
	fn      *Function
}

func (r *Resolver) isAccessible(b ast.Binding, use ast.Node) bool {
	decl := memberClass(b)
	if decl == nil {
		return true
	}
	access := ast.AccessPublic
	if a, ok := b.(interface{ Access() ast.AccessLevel }); ok && a.Access() != ast.AccessUnknown {
		access = a.Access()
	}
	ctx := r.accessContextOf(use)
	naming := r.namingClass(use, decl, ctx)
	return r.accessibleIn(naming, decl, access, ctx, map[*Class]bool{})
}

func (r *Resolver) accessContextOf(use ast.Node) accessContext {
	var ctx accessContext
	for n := use; !ast.IsNil(n); n = n.Parent() {
		switch x := n.(type) {
		case *ast.FunctionDefinition:
			if fn := r.functions[x]; fn != nil && ctx.fn == nil {
				ctx.fn = fn
				if fn.Class != nil {
					ctx.classes = append(ctx.classes, fn.Class)
				}
			}
		case *ast.CompositeTypeSpec:
			if c := r.classes[x]; c != nil {
				ctx.classes = appendClass(ctx.classes, c)
			}
		}
	}
	return ctx
}

func appendClass(list []*Class, c *Class) []*Class {
	for _, x := range list {
		if x == c {
			return list
		}
	}
	return append(list, c)
}

// namingClass returns the class a member is named through: the class of
// the object of a member access, the class of a qualifier, or the
// innermost enclosing class that is or derives from the declaring class.
func (r *Resolver) namingClass(use ast.Node, decl *Class, ctx accessContext) *Class {
	n, ok := use.(ast.NameNode)
	if ok {
		n = outermostName(n)
		switch p := n.Parent().(type) {
		case *ast.FieldReference:
			if p.Member == n {
				if c := classOf(NonReference(r.objectType(p).typ)); c != nil {
					return c
				}
			}
		}
		if q, ok := n.(*ast.QualifiedName); ok && len(q.Segments) > 1 {
			if c, ok := r.resolve(q.Segments[len(q.Segments)-2]).(*Class); ok {
				return c
			}
		}
	}
	for _, c := range ctx.classes {
		if sameClass(c, decl) || r.baseDistance(c, decl) > 0 {
			return c
		}
	}
	return decl
}

func sameClass(a, b *Class) bool {
	return a == b || a != nil && b != nil && a.Pattern() == b.Pattern()
}

// accessibleIn reports whether a member of decl with the given access is
// accessible when named in class n: by its access as a member of n, or
// through a base of n that is accessible at the use site.
func (r *Resolver) accessibleIn(n, decl *Class, access ast.AccessLevel, ctx accessContext, seen map[*Class]bool) bool {
	if seen[n] {
		return false
	}
	seen[n] = true
	switch r.memberAccess(n, decl, access) {
	case ast.AccessPublic:
		return true
	case ast.AccessPrivate:
		if r.memberOrFriend(ctx, n) {
			return true
		}
	case ast.AccessProtected:
		if r.memberOrFriend(ctx, n) || r.derivedContext(ctx, n) {
			return true
		}
	}
	for _, base := range r.classBases(n) {
		if base.Class == nil || !r.derivesFrom(base.Class, decl) {
			continue
		}
		if r.baseAccessible(n, base, ctx) && r.accessibleIn(base.Class, decl, access, ctx, seen) {
			return true
		}
	}
	return false
}

// memberAccess returns the access of a member of decl as a member of n,
// the most permissive over all inheritance paths. AccessUnknown means the
// member is not accessible as a member of n at all.
func (r *Resolver) memberAccess(n, decl *Class, access ast.AccessLevel) ast.AccessLevel {
	if sameClass(n, decl) {
		return access
	}
	best := ast.AccessUnknown
	for _, base := range r.classBases(n) {
		if base.Class == nil {
			continue
		}
		inner := r.memberAccess(base.Class, decl, access)
		if inner == ast.AccessUnknown || inner == ast.AccessPrivate {
			continue
		}
		a := inner
		switch base.Access {
		case ast.AccessProtected:
			a = ast.AccessProtected
		case ast.AccessPrivate:
			a = ast.AccessPrivate
		}
		best = morePermissive(best, a)
	}
	return best
}

func morePermissive(a, b ast.AccessLevel) ast.AccessLevel {
	rank := func(l ast.AccessLevel) int {
		switch l {
		case ast.AccessPublic:
			return 3
		case ast.AccessProtected:
			return 2
		case ast.AccessPrivate:
			return 1
		}
		return 0
	}
	if rank(b) > rank(a) {
		return b
	}
	return a
}

func (r *Resolver) derivesFrom(c, base *Class) bool {
	return sameClass(c, base) || r.baseDistance(c, base) > 0
}

// baseAccessible reports whether the base of n is accessible at the use
// site: a public base always, a protected or private base from members
// and friends of n.
func (r *Resolver) baseAccessible(n *Class, base Base, ctx accessContext) bool {
	switch base.Access {
	case ast.AccessPrivate:
		return r.memberOrFriend(ctx, n)
	case ast.AccessProtected:
		return r.memberOrFriend(ctx, n) || r.derivedContext(ctx, n)
	}
	return true
}

// memberOrFriend reports whether the use site is inside a member of c or a
// friend of c.
func (r *Resolver) memberOrFriend(ctx accessContext, c *Class) bool {
	for _, x := range ctx.classes {
		if sameClass(x, c) || c.isFriend(x) {
			return true
		}
		if x.Template != nil && c.isFriend(x.Template) {
			return true
		}
	}
	if ctx.fn != nil {
		fn := ctx.fn
		if fn.Specialized != nil {
			fn = fn.Specialized
		}
		if c.isFriend(fn) {
			return true
		}
	}
	return false
}

// derivedContext reports whether the use site is inside a member or friend
// of a class derived from c.
func (r *Resolver) derivedContext(ctx accessContext, c *Class) bool {
	for _, x := range ctx.classes {
		if r.baseDistance(x, c) > 0 {
			return true
		}
	}
	if ctx.fn != nil {
		for _, f := range ctx.fn.friendOf {
			if r.baseDistance(f, c) > 0 {
				return true
			}
		}
	}
	return false
}
