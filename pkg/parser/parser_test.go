package parser

import (
	"strings"
	"testing"

	"cppsema/pkg/ast"
	"cppsema/pkg/compilation"
	"cppsema/pkg/diag"
)

func parseString(t *testing.T, content string) (*ast.TranslationUnit, *compilation.Context) {
	t.Helper()
	ctx := compilation.NewContext(compilation.WithFiles(compilation.NewMemoryFiles(nil)))
	tu := Parse(ctx, "test.cpp", content)
	if tu == nil {
		t.Fatalf("Failed to parse: nil translation unit")
	}
	return tu, ctx
}

func requireNoDiagnostics(t *testing.T, ctx *compilation.Context) {
	t.Helper()
	for _, d := range ctx.Diagnostics.All() {
		t.Errorf("Unexpected diagnostic: %s", d)
	}
}

// classOf returns the class specifier of a simple declaration.
func classOf(t *testing.T, d ast.Declaration) *ast.CompositeTypeSpec {
	t.Helper()
	sd, ok := d.(*ast.SimpleDeclaration)
	if !ok {
		t.Fatalf("Expected simple declaration, got %T", d)
	}
	spec, ok := sd.Spec.(*ast.CompositeTypeSpec)
	if !ok {
		t.Fatalf("Expected class specifier, got %T", sd.Spec)
	}
	return spec
}

func functionBody(t *testing.T, d ast.Declaration) *ast.CompoundStatement {
	t.Helper()
	fd, ok := d.(*ast.FunctionDefinition)
	if !ok {
		t.Fatalf("Expected function definition, got %T", d)
	}
	return fd.Body
}

func TestBasicNamespaceParsing(t *testing.T) {
	content := `namespace TestNamespace {
    class TestClass {
    public:
        void publicMethod();
    private:
        int privateField;
    };
}`

	tu, ctx := parseString(t, content)
	requireNoDiagnostics(t, ctx)

	if len(tu.Decls) != 1 {
		t.Fatalf("Expected 1 root declaration, got %d", len(tu.Decls))
	}
	ns, ok := tu.Decls[0].(*ast.NamespaceDefinition)
	if !ok || ns.Name == nil || ns.Name.Ident != "TestNamespace" {
		t.Fatalf("Expected namespace TestNamespace, got %T", tu.Decls[0])
	}
	if len(ns.Decls) != 1 {
		t.Fatalf("Expected 1 declaration in namespace, got %d", len(ns.Decls))
	}

	class := classOf(t, ns.Decls[0])
	if class.Key != ast.KeyClass || ast.NameString(class.Name) != "TestClass" {
		t.Errorf("Expected class TestClass, got %s %s", class.Key, ast.NameString(class.Name))
	}
	if len(class.Members) != 4 {
		t.Fatalf("Expected 4 members, got %d", len(class.Members))
	}

	labels := []ast.AccessLevel{ast.AccessPublic, ast.AccessPrivate}
	for i, idx := range []int{0, 2} {
		label, ok := class.Members[idx].(*ast.VisibilityLabel)
		if !ok {
			t.Fatalf("Expected access label at %d, got %T", idx, class.Members[idx])
		}
		if label.Access != labels[i] {
			t.Errorf("Expected %s label, got %s", labels[i], label.Access)
		}
	}

	method := class.Members[1].(*ast.SimpleDeclaration)
	if fn := method.Declarators[0].FunctionDeclarator(); fn == nil {
		t.Error("Expected publicMethod to be a function declarator")
	}
	if ast.Root(method) != tu {
		t.Error("Expected parent links up to the translation unit")
	}
}

func TestNestedNamespaceParsing(t *testing.T) {
	content := `namespace outer::inner { int value; }
inline namespace v1 { }
namespace { int hidden; }
namespace alias = outer::inner;`

	tu, ctx := parseString(t, content)
	requireNoDiagnostics(t, ctx)

	if len(tu.Decls) != 4 {
		t.Fatalf("Expected 4 declarations, got %d", len(tu.Decls))
	}
	outer := tu.Decls[0].(*ast.NamespaceDefinition)
	if outer.Name.Ident != "outer" || len(outer.Decls) != 1 {
		t.Fatalf("Expected namespace outer with one member, got %s", outer.Name.Ident)
	}
	inner := outer.Decls[0].(*ast.NamespaceDefinition)
	if inner.Name.Ident != "inner" || len(inner.Decls) != 1 {
		t.Errorf("Expected nested namespace inner, got %s", inner.Name.Ident)
	}
	if inner.Range() != outer.Range() {
		t.Errorf("Expected nested definitions to share a range")
	}
	if v1 := tu.Decls[1].(*ast.NamespaceDefinition); !v1.Inline {
		t.Error("Expected inline namespace")
	}
	if anon := tu.Decls[2].(*ast.NamespaceDefinition); anon.Name != nil {
		t.Error("Expected anonymous namespace")
	}
	alias, ok := tu.Decls[3].(*ast.NamespaceAlias)
	if !ok || alias.Alias.Ident != "alias" || ast.NameString(alias.Target) != "outer::inner" {
		t.Errorf("Expected namespace alias, got %T", tu.Decls[3])
	}
}

func TestClassParsing(t *testing.T) {
	content := `struct Base { virtual ~Base() {} };
class Point : public Base, private virtual Other {
public:
    Point(int x, int y) : x_(x), y_(y) {}
    Point(const Point&) = default;
    Point& operator=(const Point&) = delete;
    virtual int area() const = 0;
    int x() const { return x_; }
    friend class Helper;
private:
    int x_, y_;
    unsigned flags : 3;
};`

	tu, ctx := parseString(t, content)
	requireNoDiagnostics(t, ctx)

	if len(tu.Decls) != 2 {
		t.Fatalf("Expected 2 declarations, got %d", len(tu.Decls))
	}
	base := classOf(t, tu.Decls[0])
	if base.Key != ast.KeyStruct {
		t.Errorf("Expected struct, got %s", base.Key)
	}
	dtor, ok := base.Members[0].(*ast.FunctionDefinition)
	if !ok {
		t.Fatalf("Expected destructor definition, got %T", base.Members[0])
	}
	if name, ok := dtor.Declarator.Name.(*ast.Name); !ok || !name.IsDestructor() {
		t.Errorf("Expected destructor name, got %s", ast.NameString(dtor.Declarator.Name))
	}

	point := classOf(t, tu.Decls[1])
	if len(point.Bases) != 2 {
		t.Fatalf("Expected 2 bases, got %d", len(point.Bases))
	}
	if point.Bases[0].Access != ast.AccessPublic || point.Bases[0].Virtual {
		t.Errorf("Expected public non-virtual base, got %s", point.Bases[0].Access)
	}
	if point.Bases[1].Access != ast.AccessPrivate || !point.Bases[1].Virtual {
		t.Errorf("Expected private virtual base, got %s", point.Bases[1].Access)
	}

	var defs []*ast.FunctionDefinition
	var simple []*ast.SimpleDeclaration
	for _, m := range point.Members {
		switch m := m.(type) {
		case *ast.FunctionDefinition:
			defs = append(defs, m)
		case *ast.SimpleDeclaration:
			simple = append(simple, m)
		}
	}
	if len(defs) != 4 {
		t.Fatalf("Expected 4 function definitions, got %d", len(defs))
	}

	ctor := defs[0]
	if len(ctor.MemberInits) != 2 {
		t.Errorf("Expected 2 member initializers, got %d", len(ctor.MemberInits))
	}
	if params := ctor.Declarator.FunctionDeclarator().Params; len(params) != 2 {
		t.Errorf("Expected 2 constructor parameters, got %d", len(params))
	}
	if !defs[1].Defaulted {
		t.Error("Expected defaulted copy constructor")
	}
	if !defs[2].Deleted {
		t.Error("Expected deleted assignment operator")
	}
	if _, ok := defs[2].Declarator.Name.(*ast.OperatorName); !ok {
		t.Errorf("Expected operator name, got %T", defs[2].Declarator.Name)
	}
	if !defs[3].Declarator.FunctionDeclarator().Const {
		t.Error("Expected const member function")
	}

	// area, friend, fields, bit-field
	if len(simple) != 4 {
		t.Fatalf("Expected 4 simple member declarations, got %d", len(simple))
	}
	if !simple[0].Declarators[0].Pure {
		t.Error("Expected pure virtual function")
	}
	if !simple[1].Spec.Specifiers().Friend {
		t.Error("Expected friend declaration")
	}
	if len(simple[2].Declarators) != 2 {
		t.Errorf("Expected 2 field declarators, got %d", len(simple[2].Declarators))
	}
	if simple[3].Declarators[0].BitField == nil {
		t.Error("Expected bit-field width")
	}
}

func TestTemplateParsing(t *testing.T) {
	content := `template<typename T, int N = 4>
class Buffer {
public:
    T data[N];
};
template<>
class Buffer<char, 1> {};
template<class T> T max(T a, T b) { return a > b ? a : b; }
Buffer<Buffer<int, 2>, 3> nested;`

	tu, ctx := parseString(t, content)
	requireNoDiagnostics(t, ctx)

	if len(tu.Decls) != 4 {
		t.Fatalf("Expected 4 declarations, got %d", len(tu.Decls))
	}

	tmpl := tu.Decls[0].(*ast.TemplateDeclaration)
	if len(tmpl.Params) != 2 {
		t.Fatalf("Expected 2 template parameters, got %d", len(tmpl.Params))
	}
	if tp, ok := tmpl.Params[0].(*ast.TypeTemplateParameter); !ok || tp.Name.Ident != "T" {
		t.Errorf("Expected type parameter T, got %T", tmpl.Params[0])
	}
	if np, ok := tmpl.Params[1].(*ast.ParameterDeclaration); !ok || np.Declarator.Init == nil {
		t.Errorf("Expected non-type parameter with default, got %T", tmpl.Params[1])
	}
	if tmpl.ExplicitSpecialization {
		t.Error("Primary template marked as specialization")
	}

	spec := tu.Decls[1].(*ast.TemplateDeclaration)
	if !spec.ExplicitSpecialization {
		t.Error("Expected explicit specialization")
	}
	id, ok := classOf(t, spec.Decl).Name.(*ast.TemplateId)
	if !ok || len(id.Args) != 2 {
		t.Fatalf("Expected specialization Buffer<char, 1>, got %T", classOf(t, spec.Decl).Name)
	}

	fn := tu.Decls[2].(*ast.TemplateDeclaration)
	if _, ok := fn.Decl.(*ast.FunctionDefinition); !ok {
		t.Errorf("Expected function template definition, got %T", fn.Decl)
	}

	variable := tu.Decls[3].(*ast.SimpleDeclaration)
	named, ok := variable.Spec.(*ast.NamedTypeSpec)
	if !ok {
		t.Fatalf("Expected named type, got %T", variable.Spec)
	}
	outer, ok := named.Name.(*ast.TemplateId)
	if !ok || len(outer.Args) != 2 {
		t.Fatalf("Expected template-id with 2 arguments, got %s", ast.NameString(named.Name))
	}
	if _, ok := outer.Args[0].(*ast.TypeId); !ok {
		t.Errorf("Expected type argument, got %T", outer.Args[0])
	}
}

func TestVariableParsing(t *testing.T) {
	content := `int a = 1, *b = nullptr, c[3] = {1, 2, 3};
static const unsigned long long big = 0xFFull;
extern int shared;
void (*callback)(int, char);
Widget w(1, 2);
Widget braced{3};`

	tu, ctx := parseString(t, content)
	requireNoDiagnostics(t, ctx)

	if len(tu.Decls) != 6 {
		t.Fatalf("Expected 6 declarations, got %d", len(tu.Decls))
	}

	first := tu.Decls[0].(*ast.SimpleDeclaration)
	if len(first.Declarators) != 3 {
		t.Fatalf("Expected 3 declarators, got %d", len(first.Declarators))
	}
	if len(first.Declarators[1].PtrOps) != 1 {
		t.Error("Expected pointer declarator")
	}
	if _, ok := first.Declarators[2].Init.(*ast.EqualsInitializer); !ok {
		t.Errorf("Expected equals initializer, got %T", first.Declarators[2].Init)
	}

	big := tu.Decls[1].(*ast.SimpleDeclaration).Spec.(*ast.SimpleDeclSpec)
	if big.Spec.Storage != ast.StorageStatic || !big.Spec.Const || !big.Unsigned || big.Long != 2 || big.Type != ast.TypeInt {
		t.Errorf("Unexpected specifiers %+v", big)
	}

	if spec := tu.Decls[2].(*ast.SimpleDeclaration).Spec; spec.Specifiers().Storage != ast.StorageExtern {
		t.Error("Expected extern storage")
	}

	fp := tu.Decls[3].(*ast.SimpleDeclaration).Declarators[0]
	if fp.Nested == nil || !fp.IsFunction || fp.FunctionDeclarator() != nil {
		t.Error("Expected pointer to function, not a function")
	}
	if ast.NameString(fp.InnermostName()) != "callback" {
		t.Errorf("Expected callback, got %s", ast.NameString(fp.InnermostName()))
	}

	w := tu.Decls[4].(*ast.SimpleDeclaration).Declarators[0]
	if ci, ok := w.Init.(*ast.ConstructorInitializer); !ok || len(ci.Args) != 2 {
		t.Errorf("Expected constructor initializer, got %T", w.Init)
	}
	if _, ok := tu.Decls[5].(*ast.SimpleDeclaration).Declarators[0].Init.(*ast.InitializerList); !ok {
		t.Error("Expected braced initializer")
	}
}

func TestUsingAndTypedefParsing(t *testing.T) {
	content := `namespace lib { struct Item {}; }
using namespace lib;
using lib::Item;
using ItemPtr = Item*;
typedef unsigned int uint;
uint counter;`

	tu, ctx := parseString(t, content)
	requireNoDiagnostics(t, ctx)

	if len(tu.Decls) != 6 {
		t.Fatalf("Expected 6 declarations, got %d", len(tu.Decls))
	}
	if _, ok := tu.Decls[1].(*ast.UsingDirective); !ok {
		t.Errorf("Expected using directive, got %T", tu.Decls[1])
	}
	if ud, ok := tu.Decls[2].(*ast.UsingDeclaration); !ok || ast.NameString(ud.Name) != "lib::Item" {
		t.Errorf("Expected using declaration, got %T", tu.Decls[2])
	}
	alias, ok := tu.Decls[3].(*ast.AliasDeclaration)
	if !ok || alias.Alias.Ident != "ItemPtr" {
		t.Fatalf("Expected alias declaration, got %T", tu.Decls[3])
	}
	if len(alias.Type.Declarator.PtrOps) != 1 {
		t.Error("Expected pointer in alias type")
	}
	td := tu.Decls[4].(*ast.SimpleDeclaration)
	if !td.Spec.Specifiers().Typedef {
		t.Error("Expected typedef")
	}
	counter := tu.Decls[5].(*ast.SimpleDeclaration)
	if ast.NameString(counter.Spec.(*ast.NamedTypeSpec).Name) != "uint" {
		t.Error("Expected typedef name as type")
	}
}

func TestEnumParsing(t *testing.T) {
	content := `enum Color { Red, Green = 5, Blue };
enum class Mode : unsigned char { Off, On };
enum Opaque : int;`

	tu, ctx := parseString(t, content)
	requireNoDiagnostics(t, ctx)

	if len(tu.Decls) != 3 {
		t.Fatalf("Expected 3 declarations, got %d", len(tu.Decls))
	}
	color := tu.Decls[0].(*ast.SimpleDeclaration).Spec.(*ast.EnumSpec)
	if color.Scoped || len(color.Enumerators) != 3 {
		t.Fatalf("Expected unscoped enum with 3 enumerators, got %d", len(color.Enumerators))
	}
	if color.Enumerators[1].Name.Ident != "Green" || color.Enumerators[1].Value == nil {
		t.Error("Expected Green = 5")
	}
	mode := tu.Decls[1].(*ast.SimpleDeclaration).Spec.(*ast.EnumSpec)
	if !mode.Scoped || mode.Underlying == nil || len(mode.Enumerators) != 2 {
		t.Error("Expected scoped enum with underlying type")
	}
	if opaque := tu.Decls[2].(*ast.SimpleDeclaration).Spec.(*ast.EnumSpec); !opaque.Opaque {
		t.Error("Expected opaque enum declaration")
	}
}

func TestStatementParsing(t *testing.T) {
	content := `int compute(int n) {
    int total = 0;
    for (int i = 0; i < n; ++i) {
        if (i % 2) continue; else total += i;
    }
    for (int v : values) total -= v;
    while (n > 0) --n;
    do { n++; } while (n < 3);
    switch (n) { case 1: break; default: break; }
    try { throw 1; } catch (const Error& e) { } catch (...) { }
done:
    goto done;
    return total;
}`

	tu, ctx := parseString(t, content)
	requireNoDiagnostics(t, ctx)

	body := functionBody(t, tu.Decls[0])
	expected := []ast.Node{
		&ast.DeclarationStatement{},
		&ast.ForStatement{},
		&ast.RangeForStatement{},
		&ast.WhileStatement{},
		&ast.DoStatement{},
		&ast.SwitchStatement{},
		&ast.TryBlockStatement{},
		&ast.LabelStatement{},
		&ast.ReturnStatement{},
	}
	if len(body.Stmts) != len(expected) {
		t.Fatalf("Expected %d statements, got %d", len(expected), len(body.Stmts))
	}
	for i, want := range expected {
		if got := body.Stmts[i]; got.Kind() != want.Kind() {
			t.Errorf("Statement %d: expected %T, got %T", i, want, got)
		}
	}

	loop := body.Stmts[1].(*ast.ForStatement)
	if loop.Init == nil || loop.Cond == nil || loop.Iter == nil {
		t.Error("Expected all three for clauses")
	}
	inner := loop.Body.(*ast.CompoundStatement).Stmts[0].(*ast.IfStatement)
	if inner.Else == nil {
		t.Error("Expected else branch")
	}
	try := body.Stmts[6].(*ast.TryBlockStatement)
	if len(try.Handlers) != 2 || !try.Handlers[1].CatchAll {
		t.Error("Expected two handlers, the last catching all")
	}

	rangeFor := body.Stmts[2].(*ast.RangeForStatement)
	if rangeFor.Decl == nil {
		t.Fatal("Expected range-for declaration")
	}
	if text := tu.RawText(rangeFor.RangeExpr); text != "values" {
		t.Errorf("Expected range expression 'values', got %q", text)
	}
	repl := &ast.LiteralExpression{Lit: ast.LitInteger, Value: "0"}
	if !ast.Replace(rangeFor.RangeExpr, repl) {
		t.Fatal("Expected the range expression to be replaceable")
	}
	if rangeFor.RangeExpr != ast.Node(repl) || repl.Parent() != ast.Node(rangeFor) {
		t.Error("Expected the replacement to be linked into the range-for")
	}
}

func TestConstructorsKeepClassNameAType(t *testing.T) {
	content := `struct S {
    S();
    S(const S& other);
    S(S&&);
    ~S();
    S& operator=(const S&);
    static S make();
};`

	tu, ctx := parseString(t, content)
	requireNoDiagnostics(t, ctx)

	s := classOf(t, tu.Decls[0])
	if len(s.Members) != 6 {
		t.Fatalf("Expected 6 members, got %d", len(s.Members))
	}
	for i, m := range s.Members {
		if _, ok := m.(*ast.SimpleDeclaration); !ok {
			t.Errorf("Member %d: expected declaration, got %T", i, m)
		}
	}
}

func TestExpressionParsing(t *testing.T) {
	content := `int r = a + b * c;
int s = f(a, b);
int t = (a, b, c);
bool u = x < y && y > z;
auto v = static_cast<long>(r) + sizeof(int) + sizeof r;
int* p = new int[4];
void cleanup() { delete[] p; ::delete q; }`

	tu, ctx := parseString(t, content)
	requireNoDiagnostics(t, ctx)

	initOf := func(i int) ast.Node {
		d := tu.Decls[i].(*ast.SimpleDeclaration).Declarators[0]
		eq, ok := d.Init.(*ast.EqualsInitializer)
		if !ok {
			t.Fatalf("Declaration %d: expected equals initializer, got %T", i, d.Init)
		}
		return eq.Value
	}

	add, ok := initOf(0).(*ast.BinaryExpression)
	if !ok || add.Op != ast.BinaryAdd {
		t.Fatalf("Expected addition at the top, got %T", initOf(0))
	}
	if mul, ok := add.Right.(*ast.BinaryExpression); !ok || mul.Op != ast.BinaryMul {
		t.Error("Expected multiplication to bind tighter")
	}

	call, ok := initOf(1).(*ast.FunctionCallExpression)
	if !ok || len(call.Args) != 2 {
		t.Fatalf("Expected call with 2 arguments, got %T", initOf(1))
	}

	comma := ast.StripParens(initOf(2).(ast.Expression)).(*ast.BinaryExpression)
	if comma.Op != ast.BinaryComma {
		t.Fatalf("Expected comma expression, got %s", comma.Op)
	}
	if left, ok := comma.Left.(*ast.BinaryExpression); !ok || left.Op != ast.BinaryComma {
		t.Error("Expected comma to nest to the left")
	}

	if and, ok := initOf(3).(*ast.BinaryExpression); !ok || and.Op != ast.BinaryLogAnd {
		t.Errorf("Expected && at the top, got %T", initOf(3))
	}

	sum := initOf(4).(*ast.BinaryExpression)
	if _, ok := sum.Right.(*ast.UnaryExpression); !ok {
		t.Errorf("Expected sizeof expression, got %T", sum.Right)
	}
	inner := sum.Left.(*ast.BinaryExpression)
	if cast, ok := inner.Left.(*ast.CastExpression); !ok || cast.Cast != ast.CastStatic {
		t.Errorf("Expected static_cast, got %T", inner.Left)
	}
	if _, ok := inner.Right.(*ast.TypeIdExpression); !ok {
		t.Errorf("Expected sizeof(type), got %T", inner.Right)
	}

	if ne, ok := initOf(5).(*ast.NewExpression); !ok || !ne.IsArrayAllocation() {
		t.Errorf("Expected array new, got %T", initOf(5))
	}

	body := functionBody(t, tu.Decls[6])
	del := body.Stmts[0].(*ast.ExpressionStatement).Expr.(*ast.DeleteExpression)
	if !del.Array || del.Global {
		t.Error("Expected delete[]")
	}
	global := body.Stmts[1].(*ast.ExpressionStatement).Expr.(*ast.DeleteExpression)
	if global.Array || !global.Global {
		t.Error("Expected ::delete")
	}
}

func TestAmbiguousStatements(t *testing.T) {
	content := `struct Known {};
void foo(int);
void f(int v) {
    T(x);
    Known(y);
    foo(v);
}`

	tu, ctx := parseString(t, content)
	requireNoDiagnostics(t, ctx)

	body := functionBody(t, tu.Decls[2])
	if len(body.Stmts) != 3 {
		t.Fatalf("Expected 3 statements, got %d", len(body.Stmts))
	}

	amb, ok := body.Stmts[0].(*ast.AmbiguousStatement)
	if !ok {
		t.Fatalf("Expected ambiguous statement for T(x), got %T", body.Stmts[0])
	}
	if len(amb.Alternatives) != 2 {
		t.Fatalf("Expected 2 alternatives, got %d", len(amb.Alternatives))
	}
	if _, ok := amb.Alternatives[0].(*ast.DeclarationStatement); !ok {
		t.Errorf("Expected declaration reading first, got %T", amb.Alternatives[0])
	}
	if _, ok := amb.Alternatives[1].(*ast.ExpressionStatement); !ok {
		t.Errorf("Expected expression reading second, got %T", amb.Alternatives[1])
	}
	for _, alt := range amb.Alternatives {
		if alt.Parent() != amb {
			t.Error("Expected alternatives to be linked to the ambiguous node")
		}
	}

	if _, ok := body.Stmts[1].(*ast.DeclarationStatement); !ok {
		t.Errorf("Expected declaration for a known type, got %T", body.Stmts[1])
	}
	if _, ok := body.Stmts[2].(*ast.ExpressionStatement); !ok {
		t.Errorf("Expected expression for a known function, got %T", body.Stmts[2])
	}
}

func TestLinkageAndStaticAssert(t *testing.T) {
	content := `extern "C" {
    int c_function(void);
}
extern "C" int single(void);
static_assert(sizeof(int) == 4, "int size");`

	tu, ctx := parseString(t, content)
	requireNoDiagnostics(t, ctx)

	if len(tu.Decls) != 3 {
		t.Fatalf("Expected 3 declarations, got %d", len(tu.Decls))
	}
	block := tu.Decls[0].(*ast.LinkageSpecification)
	if block.Linkage != `"C"` && block.Linkage != "C" {
		t.Errorf("Unexpected linkage %q", block.Linkage)
	}
	if len(block.Decls) != 1 {
		t.Errorf("Expected 1 declaration in linkage block, got %d", len(block.Decls))
	}
	if sa, ok := tu.Decls[2].(*ast.StaticAssert); !ok || sa.Message == nil {
		t.Errorf("Expected static_assert with message, got %T", tu.Decls[2])
	}
}

func TestConditionalCompilation(t *testing.T) {
	content := `#define FEATURE 1
#if FEATURE
int active;
#else
int inactive;
#endif
#ifdef MISSING
class Hidden { void method(); };
#endif
int after;`

	tu, ctx := parseString(t, content)
	requireNoDiagnostics(t, ctx)

	if len(tu.Decls) != 2 {
		t.Fatalf("Expected 2 active declarations, got %d", len(tu.Decls))
	}
	if len(tu.InactiveDecls) != 2 {
		t.Fatalf("Expected 2 inactive declarations, got %d", len(tu.InactiveDecls))
	}
	for _, d := range tu.InactiveDecls {
		if !d.IsInactive() {
			t.Errorf("Expected %T to be flagged inactive", d)
		}
		ast.Inspect(d, func(n ast.Node) bool {
			if !n.IsInactive() {
				t.Errorf("Expected nested %T to be inactive", n)
			}
			return true
		})
	}
	for _, d := range tu.Decls {
		if d.IsInactive() {
			t.Errorf("Active declaration %T flagged inactive", d)
		}
	}

	hidden := classOf(t, tu.InactiveDecls[1])
	if ast.NameString(hidden.Name) != "Hidden" || len(hidden.Members) != 1 {
		t.Error("Expected inactive class to be parsed with its members")
	}
	if text := tu.RawText(tu.InactiveDecls[0]); text != "int inactive;" {
		t.Errorf("Expected raw text of inactive declaration, got %q", text)
	}
}

func TestMacroImageLocations(t *testing.T) {
	content := "#define MUL(a, b) ((a) * (b) + offset)\nint offset;\nint r = MUL(x, 2);\n"

	tu, ctx := parseString(t, content)
	requireNoDiagnostics(t, ctx)

	if len(tu.Expansions) != 1 || tu.Expansions[0].Macro.Name != "MUL" {
		t.Fatalf("Expected one expansion of MUL, got %d", len(tu.Expansions))
	}
	exp := tu.Expansions[0]
	if text := tu.RawText(exp); text != "MUL(x, 2)" {
		t.Errorf("Expected invocation text, got %q", text)
	}

	names := map[string]*ast.Name{}
	ast.Inspect(tu.Decls[1], func(n ast.Node) bool {
		if nm, ok := n.(*ast.Name); ok {
			names[nm.Ident] = nm
		}
		return true
	})
	x, offset := names["x"], names["offset"]
	if x == nil || offset == nil {
		t.Fatalf("Expected names x and offset in the expansion, got %v", names)
	}

	argImg := tu.ImageLocation(x)
	if argImg.Kind != ast.ImageMacroArgument {
		t.Errorf("Expected macro argument image, got %s", argImg.Kind)
	}
	if want := strings.Index(content, "MUL(x") + 4; argImg.Offset != want || argImg.Length != 1 {
		t.Errorf("Expected argument image at %d, got %d+%d", want, argImg.Offset, argImg.Length)
	}

	defImg := tu.ImageLocation(offset)
	if defImg.Kind != ast.ImageMacroDefinition {
		t.Errorf("Expected macro definition image, got %s", defImg.Kind)
	}
	if want := strings.Index(content, "offset)"); defImg.Offset != want {
		t.Errorf("Expected definition image at %d, got %d", want, defImg.Offset)
	}
	if argImg.Expansion != exp || defImg.Expansion != exp {
		t.Error("Expected both images to refer to the same expansion")
	}

	if !tu.IsInMacroExpansion(x) || tu.IsInMacroExpansion(tu.Decls[0]) {
		t.Error("Unexpected macro expansion membership")
	}
	if offset.Range() != exp.Range() {
		t.Errorf("Expected body tokens to take the invocation range, got %+v", offset.Range())
	}
}

func TestCommentsAndDocumentation(t *testing.T) {
	content := `/// Adds two numbers.
int add(int a, int b);

// plain comment
int sub(int a, int b);

/**
 * Multiplies.
 */

int mul(int a, int b);`

	tu, ctx := parseString(t, content)
	requireNoDiagnostics(t, ctx)

	if len(tu.Comments) != 3 {
		t.Fatalf("Expected 3 comments, got %d", len(tu.Comments))
	}
	doc := tu.DocComment(tu.Decls[0])
	if doc == nil || !strings.HasPrefix(doc.Text, "/// Adds two numbers.") {
		t.Errorf("Expected doc comment for add, got %v", doc)
	}
	if doc := tu.DocComment(tu.Decls[1]); doc != nil {
		t.Errorf("Expected no doc comment for sub, got %q", doc.Text)
	}
	block := tu.DocComment(tu.Decls[2])
	if block == nil || !block.Block || !block.Doc {
		t.Error("Expected block doc comment for mul")
	}
}

func TestIncludeParsing(t *testing.T) {
	files := compilation.NewMemoryFiles(map[string]string{
		"inc/shape.h": "struct Shape { int sides; };\n",
	})
	ctx := compilation.NewContext(compilation.WithFiles(files))
	ctx.Config.IncludePaths = []string{"inc"}

	content := "#include \"shape.h\"\n#include <missing.h>\nShape square;\n"
	tu := Parse(ctx, "main.cpp", content)

	if len(tu.Includes) != 2 {
		t.Fatalf("Expected 2 include directives, got %d", len(tu.Includes))
	}
	if len(tu.Decls) != 2 {
		t.Fatalf("Expected the included class and the variable, got %d declarations", len(tu.Decls))
	}
	loc, ok := tu.FileLocation(tu.Decls[0])
	if !ok || loc.File != "inc/shape.h" {
		t.Errorf("Expected the class to come from inc/shape.h, got %s", loc.File)
	}
	square := tu.Decls[1].(*ast.SimpleDeclaration)
	if _, ok := square.Spec.(*ast.NamedTypeSpec); !ok {
		t.Errorf("Expected Shape as a type, got %T", square.Spec)
	}

	found := false
	for _, d := range ctx.Diagnostics.All() {
		if d.Kind == diag.IncludeNotFound {
			found = true
		}
	}
	if !found {
		t.Error("Expected include-not-found diagnostic")
	}
}

func TestParseIsDeterministic(t *testing.T) {
	content := `namespace n { template<class T> struct S { T v; }; }
int main() { n::S<int> s; s.v = 1; return s.v + undefined; }
int broken = ;`

	dump := func() (string, string) {
		tu, ctx := parseString(t, content)
		var b strings.Builder
		ast.Inspect(tu, func(n ast.Node) bool {
			b.WriteString(n.Kind().String())
			b.WriteString(tu.RawText(n))
			b.WriteByte('\n')
			return true
		})
		var d strings.Builder
		for _, x := range ctx.Diagnostics.All() {
			d.WriteString(x.String())
			d.WriteByte('\n')
		}
		return b.String(), d.String()
	}

	tree1, diags1 := dump()
	tree2, diags2 := dump()
	if tree1 != tree2 {
		t.Error("Expected identical trees for identical input")
	}
	if diags1 != diags2 || diags1 == "" {
		t.Errorf("Expected identical, non-empty diagnostics, got %q and %q", diags1, diags2)
	}
}
