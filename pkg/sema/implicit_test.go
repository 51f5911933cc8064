package sema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cppsema/pkg/ast"
	"cppsema/pkg/diag"
)

func TestOverloadedOperatorNames(t *testing.T) {
	tu, _, _ := analyze(t, `
struct V {
    V operator+(const V&) const;
    bool operator!() const;
};
void f(V a, V b, int i, int j) {
    a + b;
    !a;
    i + j;
}
`)
	sum := nodeWithText[*ast.BinaryExpression](t, tu, "a + b", 0)
	names := sum.ImplicitNames()
	require.Len(t, names, 1)
	assert.Equal(t, "+", tu.RawText(names[0]))
	assert.Equal(t, "operator +", names[0].ResolveBinding().Name())
	assert.False(t, names[0].IsAlternate())
	assert.Same(t, ast.Node(sum), names[0].Parent())

	not := nodeWithText[*ast.UnaryExpression](t, tu, "!a", 0)
	names = not.ImplicitNames()
	require.Len(t, names, 1)
	assert.Equal(t, "!", tu.RawText(names[0]))

	builtin := nodeWithText[*ast.BinaryExpression](t, tu, "i + j", 0)
	assert.Empty(t, builtin.ImplicitNames())
}

func TestOperatorWithoutMatchingOverload(t *testing.T) {
	tu, _, _ := analyze(t, `
struct V { V operator+(const V&) const; };
struct W {};
void f(V v, W w) {
    v + v;
    w + w;
}
`)
	assert.Len(t, nodeWithText[*ast.BinaryExpression](t, tu, "v + v", 0).ImplicitNames(), 1)
	assert.Empty(t, nodeWithText[*ast.BinaryExpression](t, tu, "w + w", 0).ImplicitNames())
}

func TestCallAndSubscriptOperatorPairs(t *testing.T) {
	tu, _, _ := analyze(t, `
struct F {
    int operator()(int, int) const;
    int operator[](int) const;
};
void g(F f) {
    f(1, 2);
    f[3];
}
`)
	call := nodeWithText[*ast.FunctionCallExpression](t, tu, "f(1, 2)", 0)
	names := call.ImplicitNames()
	require.Len(t, names, 2)
	assert.Equal(t, "(", tu.RawText(names[0]))
	assert.Equal(t, ")", tu.RawText(names[1]))
	assert.False(t, names[0].IsAlternate())
	assert.True(t, names[1].IsAlternate())
	assert.Same(t, names[0].ResolveBinding(), names[1].ResolveBinding())
	assert.Equal(t, "operator ()", names[0].ResolveBinding().Name())

	sub := nodeWithText[*ast.ArraySubscriptExpression](t, tu, "f[3]", 0)
	names = sub.ImplicitNames()
	require.Len(t, names, 2)
	assert.Equal(t, "[", tu.RawText(names[0]))
	assert.Equal(t, "]", tu.RawText(names[1]))
	assert.True(t, names[1].IsAlternate())
	assert.Same(t, names[0].ResolveBinding(), names[1].ResolveBinding())
}

func TestCommaOperatorIsLeftAssociative(t *testing.T) {
	tu, _, _ := analyze(t, `
struct C { C operator,(const C&) const; };
void take(C, C, C);
void f(C a, C b, C c, C d) {
    a, b, c, d;
    take(a, b, c);
}
`)
	outer := nodeWithText[*ast.BinaryExpression](t, tu, "a, b, c, d", 0)
	middle, ok := outer.Left.(*ast.BinaryExpression)
	require.True(t, ok)
	assert.Equal(t, "a, b, c", tu.RawText(middle))
	inner, ok := middle.Left.(*ast.BinaryExpression)
	require.True(t, ok)
	assert.Equal(t, "a, b", tu.RawText(inner))

	var offsets []int
	for _, e := range []*ast.BinaryExpression{inner, middle, outer} {
		names := e.ImplicitNames()
		require.Len(t, names, 1)
		assert.Equal(t, ",", tu.RawText(names[0]))
		assert.Equal(t, "operator ,", names[0].ResolveBinding().Name())
		offsets = append(offsets, names[0].Range().Offset)
	}
	assert.IsIncreasing(t, offsets)

	call := nodeWithText[*ast.FunctionCallExpression](t, tu, "take(a, b, c)", 0)
	assert.Empty(t, call.ImplicitNames())
	ast.Inspect(call, func(n ast.Node) bool {
		_, isBinary := n.(*ast.BinaryExpression)
		assert.False(t, isBinary, "argument commas are not operators")
		return true
	})
}

func TestDestructorOrderAtEndOfBlock(t *testing.T) {
	tu, _, _ := analyze(t, `
struct S { S(); S(int); ~S(); };
void f() {
    S s1;
    const S& s2 = S(1);
    S s3;
}
`)
	fd := tu.Decls[1].(*ast.FunctionDefinition)
	names := fd.Body.ImplicitDestructorNames()
	require.Len(t, names, 3)
	for _, n := range names {
		assert.Equal(t, "~S", n.ResolveBinding().Name())
		assert.Equal(t, fd.Body.Range().End(), n.Range().Offset)
		assert.Zero(t, n.Range().Length)
	}
	assert.Equal(t, "s3", tu.RawText(names[0].ConstructionPoint))
	assert.Equal(t, "S(1)", tu.RawText(names[1].ConstructionPoint))
	assert.Equal(t, "s1", tu.RawText(names[2].ConstructionPoint))
}

func TestReferenceBindingExtendsTemporary(t *testing.T) {
	tu, _, _ := analyze(t, `
struct T { ~T(); };
void f() {
    T& x = T();
}
`)
	d := nodeWithText[*ast.Declarator](t, tu, "& x = T()", 0)
	assert.Empty(t, d.ImplicitDestructorNames())
	assert.Empty(t, d.ImplicitNames())
}

func TestFullExpressionTemporaries(t *testing.T) {
	tu, _, _ := analyze(t, `
struct T { ~T(); int get() const; };
T make();
void f() {
    make().get();
    sizeof(make());
}
`)
	first := nodeWithText[*ast.ExpressionStatement](t, tu, "make().get();", 0)
	names := first.ImplicitDestructorNames()
	require.Len(t, names, 1)
	assert.Equal(t, "make()", tu.RawText(names[0].ConstructionPoint))

	unevaluated := nodeWithText[*ast.ExpressionStatement](t, tu, "sizeof(make());", 0)
	assert.Empty(t, unevaluated.ImplicitDestructorNames())
}

func TestReturnDestroysEnclosingLocals(t *testing.T) {
	tu, _, _ := analyze(t, `
struct S { ~S(); };
int f(bool c) {
    S outer;
    {
        S inner;
        if (c) return 1;
    }
    return 0;
}
`)
	early := nodeWithText[*ast.ReturnStatement](t, tu, "return 1;", 0)
	names := early.ImplicitDestructorNames()
	require.Len(t, names, 2)
	assert.Equal(t, "inner", tu.RawText(names[0].ConstructionPoint))
	assert.Equal(t, "outer", tu.RawText(names[1].ConstructionPoint))
}

func TestDeleteExpressionNames(t *testing.T) {
	tu, _, _ := analyze(t, `
struct S { ~S(); };
struct P {
    ~P();
    static void operator delete[](void*);
};
void f(S* x, P* p) {
    delete x;
    delete[] p;
    delete 1;
}
`)
	del := nodeWithText[*ast.DeleteExpression](t, tu, "delete x", 0)
	names := del.ImplicitNames()
	require.Len(t, names, 2)
	assert.Equal(t, "~S", names[0].ResolveBinding().Name())
	assert.Equal(t, "x", tu.RawText(names[0]))
	assert.Equal(t, "operator delete", names[1].ResolveBinding().Name())
	assert.Equal(t, "delete", tu.RawText(names[1]))

	arr := nodeWithText[*ast.DeleteExpression](t, tu, "delete[] p", 0)
	names = arr.ImplicitNames()
	require.Len(t, names, 2)
	fn, ok := names[1].ResolveBinding().(*Function)
	require.True(t, ok)
	assert.Equal(t, "operator delete[]", fn.Name())
	assert.True(t, fn.UserDeclared())

	assert.Empty(t, nodeWithText[*ast.DeleteExpression](t, tu, "delete 1", 0).ImplicitNames())
}

func TestNewExpressionNames(t *testing.T) {
	tu, _, _ := analyze(t, `
struct A {
    static void* operator new(unsigned long);
};
struct B {};
void f() {
    new A;
    new B;
}
`)
	names := nodeWithText[*ast.NewExpression](t, tu, "new A", 0).ImplicitNames()
	require.Len(t, names, 1)
	assert.Equal(t, "new", tu.RawText(names[0]))
	assert.Equal(t, "operator new", names[0].ResolveBinding().Name())

	assert.Empty(t, nodeWithText[*ast.NewExpression](t, tu, "new B", 0).ImplicitNames())
}

func TestConstructorNames(t *testing.T) {
	tu, _, _ := analyze(t, `
struct Plain { int x; };
struct Built { Built(int); };
struct Holder {
    Built b;
    Holder() : b(1) {}
};
void f() {
    Plain p;
    Built q(2);
    Built& r = q;
    extern Built e;
}
`)
	assert.Empty(t, nodeWithText[*ast.Declarator](t, tu, "p", 0).ImplicitNames())

	names := nodeWithText[*ast.Declarator](t, tu, "q(2)", 0).ImplicitNames()
	require.Len(t, names, 1)
	assert.Equal(t, "q", tu.RawText(names[0]))
	assert.Equal(t, "Built", names[0].ResolveBinding().Name())

	assert.Empty(t, nodeWithText[*ast.Declarator](t, tu, "& r = q", 0).ImplicitNames())
	assert.Empty(t, nodeWithText[*ast.Declarator](t, tu, "e", 0).ImplicitNames())

	chain := nodeWithText[*ast.ConstructorChainInitializer](t, tu, "b(1)", 0)
	names = chain.ImplicitNames()
	require.Len(t, names, 1)
	assert.Equal(t, "b", tu.RawText(names[0]))
}

func TestCopyConstructorDeclaredAfterAnotherConstructor(t *testing.T) {
	tu, _, ctx := analyze(t, `
struct S { S(); S(const S& other); ~S(); };
void f() {
    S a;
    S b = a;
}
`)
	assert.Zero(t, ctx.Diagnostics.Len(), "%v", ctx.Diagnostics.All())

	names := nodeWithText[*ast.Declarator](t, tu, "b = a", 0).ImplicitNames()
	require.Len(t, names, 1)
	ctor, ok := names[0].ResolveBinding().(*Function)
	require.True(t, ok)
	assert.Equal(t, "S", ctor.Name())
	assert.Len(t, ctor.Params, 1)
	assert.False(t, ctor.Implicit)
}

func TestAccessThroughDerivedClassFriend(t *testing.T) {
	tu, r, _ := analyze(t, `
class Derived;
class Base {
    int secret;
    friend void peek(Derived& d);
};
class Derived : public Base {};
void peek(Derived& d) { d.secret; }
class Stranger {
    void look(Derived& d) { d.secret; }
};
`)
	fromFriend := nameAt(t, tu, "secret", 1)
	fromStranger := nameAt(t, tu, "secret", 2)
	b := r.ResolveName(fromFriend)
	require.IsType(t, &Variable{}, b)
	assert.Same(t, b, r.ResolveName(fromStranger))

	assert.True(t, r.IsAccessible(b, fromFriend))
	assert.False(t, r.IsAccessible(b, fromStranger))
}

func TestAccessAlongInheritance(t *testing.T) {
	tu, r, ctx := analyze(t, `
class A {
public:
    int pub;
protected:
    int prot;
};
class B : private A {
    void m() { pub; prot; }
};
class C : public B {
    void n() { pub; }
};
void f(A& a) { a.pub; a.prot; }
`)
	pub := r.ResolveName(nameAt(t, tu, "pub", 0))
	prot := r.ResolveName(nameAt(t, tu, "prot", 0))

	assert.True(t, r.IsAccessible(pub, nameAt(t, tu, "pub", 1)))
	assert.True(t, r.IsAccessible(prot, nameAt(t, tu, "prot", 1)))
	assert.False(t, r.IsAccessible(pub, nameAt(t, tu, "pub", 2)), "private base hides public members")
	assert.True(t, r.IsAccessible(pub, nameAt(t, tu, "pub", 3)))
	assert.False(t, r.IsAccessible(prot, nameAt(t, tu, "prot", 2)))

	ctx.Config.CheckAccess = true
	Check(ctx, tu)
	count := 0
	for _, d := range ctx.Diagnostics.All() {
		if d.Kind == diag.Inaccessible {
			count++
		}
	}
	assert.Equal(t, 2, count)
}

func TestTypedefAccessIsIndependent(t *testing.T) {
	tu, r, _ := analyze(t, `
class Outer {
    struct Hidden {};
public:
    typedef Hidden Visible;
};
void f() { Outer::Visible v; }
`)
	alias := nameAt(t, tu, "Visible", 1)
	assert.True(t, r.IsAccessible(r.ResolveName(alias), alias))
}

func TestCheckReportsEachProblemOnce(t *testing.T) {
	tu, _, ctx := analyze(t, `
void f() { missing; other; }
`)
	Check(ctx, tu)
	Check(ctx, tu)
	all := ctx.Diagnostics.All()
	require.Len(t, all, 2)
	assert.Equal(t, "missing", all[0].Arg)
	assert.Equal(t, "other", all[1].Arg)
}

func TestInactiveCodeHasNoImplicitNames(t *testing.T) {
	tu, _, _ := analyze(t, `
struct V { V operator+(const V&) const; };
#if 0
void f(V a, V b) { a + b; }
#endif
`)
	ast.Inspect(tu, func(n ast.Node) bool {
		if owner, ok := n.(ast.ImplicitNameOwner); ok {
			assert.Empty(t, owner.ImplicitNames())
		}
		return true
	})
}
