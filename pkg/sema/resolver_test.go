package sema

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cppsema/pkg/ast"
	"cppsema/pkg/compilation"
	"cppsema/pkg/diag"
	"cppsema/pkg/parser"
)

func analyze(t *testing.T, src string) (*ast.TranslationUnit, *Resolver, *compilation.Context) {
	t.Helper()
	ctx := compilation.NewContext(compilation.WithFiles(compilation.NewMemoryFiles(nil)))
	tu := parser.Parse(ctx, "test.cpp", src)
	require.NotNil(t, tu)
	r := Resolve(ctx, tu)
	return tu, r, ctx
}

// nodeWithText returns the nth node of type T whose source text is text.
func nodeWithText[T ast.Node](t *testing.T, tu *ast.TranslationUnit, text string, nth int) T {
	t.Helper()
	var found []T
	ast.Inspect(tu, func(n ast.Node) bool {
		if x, ok := n.(T); ok && tu.RawText(x) == text {
			found = append(found, x)
		}
		return true
	})
	require.Greater(t, len(found), nth, "no node %q #%d", text, nth)
	return found[nth]
}

// nameAt returns the nth simple name spelled ident.
func nameAt(t *testing.T, tu *ast.TranslationUnit, ident string, nth int) ast.NameNode {
	t.Helper()
	return nodeWithText[*ast.Name](t, tu, ident, nth)
}

func TestUnqualifiedLookup(t *testing.T) {
	tu, r, _ := analyze(t, `
int x;
namespace ns {
    int x;
    int f() { return x; }
}
int g() { int x = 1; return x; }
`)
	global := r.ResolveName(nameAt(t, tu, "x", 0))
	inner := r.ResolveName(nameAt(t, tu, "x", 1))
	require.IsType(t, &Variable{}, global)
	require.IsType(t, &Variable{}, inner)
	assert.NotSame(t, global, inner)

	assert.Same(t, inner, r.ResolveName(nameAt(t, tu, "x", 2)))
	assert.Equal(t, "ns::x", ast.QualifiedNameOf(inner))

	local := r.ResolveName(nameAt(t, tu, "x", 3))
	assert.Same(t, local, r.ResolveName(nameAt(t, tu, "x", 4)))
	assert.Equal(t, ast.BindingVariable, local.BindingKind())
}

func TestQualifiedLookupAndUsing(t *testing.T) {
	tu, r, _ := analyze(t, `
namespace a { namespace b { int v; } }
namespace c = a::b;
using namespace a;
int f() { return a::b::v + c::v + b::v; }
`)
	decl := r.ResolveName(nameAt(t, tu, "v", 0))
	for i := 1; i <= 3; i++ {
		assert.Same(t, decl, r.ResolveName(nameAt(t, tu, "v", i)), "use %d", i)
	}
}

func TestNameNotFound(t *testing.T) {
	tu, r, _ := analyze(t, `int f() { return missing; }`)
	b := r.ResolveName(nameAt(t, tu, "missing", 0))
	p, ok := b.(ast.ProblemBinding)
	require.True(t, ok)
	assert.Equal(t, diag.NameNotFound, p.ProblemKind())
}

func TestAmbiguousMemberLookup(t *testing.T) {
	tu, r, _ := analyze(t, `
struct A { int m; };
struct B { int m; };
struct C : A, B {};
int f(C c) { return c.m; }
`)
	b := r.ResolveName(nameAt(t, tu, "m", 2))
	p, ok := b.(ast.ProblemBinding)
	require.True(t, ok)
	assert.Equal(t, diag.Ambiguous, p.ProblemKind())
}

func TestOverloadResolution(t *testing.T) {
	tu, r, _ := analyze(t, `
void f(int);
void f(double);
void f(const char*);
void g() {
    f(1);
    f(1.0);
    f("s");
    f('c');
}
`)
	intF := r.ResolveName(nameAt(t, tu, "f", 0))
	doubleF := r.ResolveName(nameAt(t, tu, "f", 1))
	strF := r.ResolveName(nameAt(t, tu, "f", 2))

	assert.Same(t, intF, r.ResolveName(nameAt(t, tu, "f", 3)))
	assert.Same(t, doubleF, r.ResolveName(nameAt(t, tu, "f", 4)))
	assert.Same(t, strF, r.ResolveName(nameAt(t, tu, "f", 5)))
	// char to int is a promotion and wins over the conversion to double
	assert.Same(t, intF, r.ResolveName(nameAt(t, tu, "f", 6)))
}

func TestAmbiguousAndNonViableCalls(t *testing.T) {
	tu, r, _ := analyze(t, `
void f(int);
void f(float);
struct S {};
void g(S s) {
    f(1.0);
    f(s);
}
`)
	p, ok := r.ResolveName(nameAt(t, tu, "f", 2)).(ast.ProblemBinding)
	require.True(t, ok)
	assert.Equal(t, diag.Ambiguous, p.ProblemKind())
	assert.Len(t, p.Candidates(), 2)

	p, ok = r.ResolveName(nameAt(t, tu, "f", 3)).(ast.ProblemBinding)
	require.True(t, ok)
	assert.Equal(t, diag.NoViableOverload, p.ProblemKind())
}

func TestReferenceBindingPrefersMatchingCategory(t *testing.T) {
	tu, r, _ := analyze(t, `
struct S {};
void h(S&);
void h(S&&);
S make();
void g(S s) {
    h(s);
    h(make());
}
`)
	lref := r.ResolveName(nameAt(t, tu, "h", 0))
	rref := r.ResolveName(nameAt(t, tu, "h", 1))
	assert.Same(t, lref, r.ResolveName(nameAt(t, tu, "h", 2)))
	assert.Same(t, rref, r.ResolveName(nameAt(t, tu, "h", 3)))
}

func TestArgumentDependentLookup(t *testing.T) {
	tu, r, _ := analyze(t, `
namespace lib {
    struct Obj {};
    void touch(Obj);
}
void g() {
    lib::Obj o;
    touch(o);
}
`)
	decl := r.ResolveName(nameAt(t, tu, "touch", 0))
	require.IsType(t, &Function{}, decl)
	assert.Same(t, decl, r.ResolveName(nameAt(t, tu, "touch", 1)))
}

func TestFunctionTemplateDeduction(t *testing.T) {
	tu, r, _ := analyze(t, `
template <typename T> T max(T a, T b);
int max(int a, int b);
void g() {
    max(1, 2);
    max(1.0, 2.0);
}
`)
	plain := r.ResolveName(nameAt(t, tu, "max", 1))
	assert.Same(t, plain, r.ResolveName(nameAt(t, tu, "max", 2)), "non-template wins a tie")

	inst, ok := r.ResolveName(nameAt(t, tu, "max", 3)).(*Function)
	require.True(t, ok)
	require.NotNil(t, inst.Template)
	require.Len(t, inst.TemplateArgs, 1)
	assert.Equal(t, "double", inst.TemplateArgs[0].String())
}

func TestConflictingDeductionIsNotViable(t *testing.T) {
	tu, r, _ := analyze(t, `
template <class T> T mx(T a, T b);
template <class T> T first(T a, int b);
void g() {
    mx(1, 2.0);
    mx(1, 2);
    first(1.0, 'c');
}
`)
	p, ok := r.ResolveName(nameAt(t, tu, "mx", 1)).(ast.ProblemBinding)
	require.True(t, ok, "int and double deduced for one parameter")
	assert.Equal(t, diag.NoViableOverload, p.ProblemKind())

	inst, ok := r.ResolveName(nameAt(t, tu, "mx", 2)).(*Function)
	require.True(t, ok)
	require.Len(t, inst.TemplateArgs, 1)
	assert.Equal(t, "int", inst.TemplateArgs[0].String())

	// a parameter without template parameters converts as usual
	inst, ok = r.ResolveName(nameAt(t, tu, "first", 1)).(*Function)
	require.True(t, ok)
	require.Len(t, inst.TemplateArgs, 1)
	assert.Equal(t, "double", inst.TemplateArgs[0].String())
}

func TestClassTemplateInstantiation(t *testing.T) {
	tu, r, ctx := analyze(t, `
template <typename T, typename U = int> struct Pair {
    T first;
    U second;
};
void g() {
    Pair<double> p;
    p.first;
    p.second;
    Pair<int, int, int> bad;
}
`)
	first, ok := r.ResolveName(nameAt(t, tu, "first", 1)).(*Variable)
	require.True(t, ok)
	assert.Equal(t, "double", r.TypeOf(first).String())

	second, ok := r.ResolveName(nameAt(t, tu, "second", 1)).(*Variable)
	require.True(t, ok)
	assert.Equal(t, "int", r.TypeOf(second).String())

	Check(ctx, tu)
	var kinds []diag.Kind
	for _, d := range ctx.Diagnostics.All() {
		kinds = append(kinds, d.Kind)
	}
	assert.Contains(t, kinds, diag.WrongTemplateArgCount)
}

func TestDependentNamesAreUnknown(t *testing.T) {
	tu, r, _ := analyze(t, `
template <typename T> void f(T t) {
    t.anything();
}
`)
	b := r.ResolveName(nameAt(t, tu, "anything", 0))
	assert.False(t, ast.IsProblem(b))
	assert.Equal(t, ast.BindingUnknown, b.BindingKind())
}

func TestAutoDeduction(t *testing.T) {
	tu, r, _ := analyze(t, `
struct S { int v; };
S make();
void g() {
    auto a = 1;
    auto b = make();
    const auto& c = b;
    b.v;
}
`)
	a := r.ResolveName(nameAt(t, tu, "a", 0))
	assert.Equal(t, "int", r.TypeOf(a).String())
	b := r.ResolveName(nameAt(t, tu, "b", 0))
	assert.Equal(t, "S", r.TypeOf(b).String())
	c := r.ResolveName(nameAt(t, tu, "c", 0))
	assert.Equal(t, "const S&", r.TypeOf(c).String())

	v := r.ResolveName(nameAt(t, tu, "v", 1))
	assert.IsType(t, &Variable{}, v)
}

func TestImplicitSpecialMembers(t *testing.T) {
	tu, r, _ := analyze(t, `
struct Plain { int x; };
struct Owner { ~Owner(); };
struct Holder { Owner o; };
struct Moving { Moving(Moving&&); };
`)
	plain := r.ResolveName(nameAt(t, tu, "Plain", 0)).(*Class)
	require.Len(t, plain.Constructors, 3)
	for _, c := range plain.Constructors {
		assert.True(t, c.Implicit)
		assert.True(t, c.Trivial)
	}
	require.NotNil(t, plain.Destructor)
	assert.True(t, plain.Destructor.Trivial)

	holder := r.ResolveName(nameAt(t, tu, "Holder", 0)).(*Class)
	require.NotNil(t, holder.Destructor)
	assert.True(t, holder.Destructor.Implicit)
	assert.False(t, holder.Destructor.Trivial)

	moving := r.ResolveName(nameAt(t, tu, "Moving", 0)).(*Class)
	var copyCtor *Function
	for _, c := range moving.Constructors {
		if c.special == specialCopyCtor {
			copyCtor = c
		}
	}
	require.NotNil(t, copyCtor)
	assert.True(t, copyCtor.Deleted)
}

func TestCModeHasNoSpecialMembers(t *testing.T) {
	ctx := compilation.NewContext(compilation.WithFiles(compilation.NewMemoryFiles(nil)))
	ctx.Config.Language = "c"
	tu := parser.Parse(ctx, "test.c", "struct P { int x; }; struct P p;")
	r := Resolve(ctx, tu)
	cls, ok := r.ResolveName(nameAt(t, tu, "P", 0)).(*Class)
	require.True(t, ok)
	assert.Empty(t, cls.Constructors)
	assert.Nil(t, cls.Destructor)
}

func TestRedefinition(t *testing.T) {
	tu, _, ctx := analyze(t, `
int x;
int x;
void f() {}
void f() {}
long y;
double y;
`)
	Check(ctx, tu)
	counts := map[diag.Kind]int{}
	for _, d := range ctx.Diagnostics.All() {
		counts[d.Kind]++
	}
	assert.Equal(t, 2, counts[diag.Redefinition])
	assert.Equal(t, 1, counts[diag.InvalidRedeclaration])
}

func TestResolutionIsIdempotent(t *testing.T) {
	src := `
struct V { V operator+(const V&) const; };
int f(int);
int f(double);
void g(V a, V b) { a + b; f(1); undefined_name; }
`
	tu, r, ctx := analyze(t, src)
	for _, n := range ast.Names(tu) {
		first := n.ResolveBinding()
		require.NotNil(t, first)
		assert.Same(t, first, n.ResolveBinding())
		assert.Same(t, first, r.ResolveName(n))
	}
	Check(ctx, tu)
	Check(ctx, tu)

	tu2, _, ctx2 := analyze(t, src)
	Check(ctx2, tu2)
	assert.Equal(t, shape(tu), shape(tu2))
	assert.Equal(t, ctx.Diagnostics.All(), ctx2.Diagnostics.All())
}

// shape lists the node types and ranges of a tree in pre-order.
func shape(tu *ast.TranslationUnit) []string {
	var out []string
	ast.Inspect(tu, func(n ast.Node) bool {
		out = append(out, fmt.Sprintf("%T %v", n, n.Range()))
		return true
	})
	return out
}

func TestConcurrentFirstResolution(t *testing.T) {
	tu, _, _ := analyze(t, `
int f(int);
int f(long);
void g() { f(1); f(2L); }
`)
	names := ast.Names(tu)
	results := make(chan map[ast.NameNode]ast.Binding, 4)
	for i := 0; i < 4; i++ {
		go func() {
			m := map[ast.NameNode]ast.Binding{}
			for _, n := range names {
				m[n] = n.ResolveBinding()
			}
			results <- m
		}()
	}
	first := <-results
	for i := 1; i < 4; i++ {
		other := <-results
		for _, n := range names {
			assert.Same(t, first[n], other[n])
		}
	}
}
