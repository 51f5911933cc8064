package sema

import (
	"cppsema/pkg/ast"
	"cppsema/pkg/compilation"
	"cppsema/pkg/diag"
)

// Check resolves every name of tu and records the problems in the
// diagnostic sink of ctx, each problem once. Inactive code is skipped. With
// Config.CheckAccess set, uses of inaccessible members are reported too.
func Check(ctx *compilation.Context, tu *ast.TranslationUnit) *Resolver {
	r, ok := tu.Resolver().(*Resolver)
	if !ok {
		r = Resolve(ctx, tu)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.check(ctx.Config.CheckAccess)
	return r
}

func (r *Resolver) check(access bool) {
	reported := map[ast.Binding]bool{}
	report := func(p *Problem, at ast.Node) {
		if reported[p] {
			return
		}
		reported[p] = true
		rng := at.Range()
		r.ctx.Report(p.kind, rng.Offset, rng.Length, p.name)
	}

	ast.Inspect(r.tu, func(n ast.Node) bool {
		if n.IsInactive() {
			return false
		}
		if owner, ok := n.(ast.ImplicitNameOwner); ok {
			r.implicitNames(owner)
			if op, ok := r.operators[n]; ok && op.problem != nil {
				if p, ok := op.problem.(*Problem); ok {
					report(p, n)
				}
			}
		}
		name, ok := n.(ast.NameNode)
		if !ok {
			return true
		}
		if _, implicit := n.(*ast.ImplicitName); implicit {
			return true
		}
		b := r.resolve(name)
		if p, ok := b.(*Problem); ok {
			report(p, name)
			return true
		}
		if _, q := n.(*ast.QualifiedName); q {
			return true
		}
		if access && !declares(b, name) && !r.isAccessible(b, name) {
			rng := name.Range()
			r.ctx.Report(diag.Inaccessible, rng.Offset, rng.Length, name.SimpleID())
		}
		return true
	})
}

// declares reports whether n is one of the declarations of b.
func declares(b ast.Binding, n ast.NameNode) bool {
	d, ok := b.(interface{ Declarations() []ast.NameNode })
	if !ok {
		return false
	}
	for _, decl := range d.Declarations() {
		if decl == n || outermostName(decl) == n {
			return true
		}
	}
	return false
}
