package parser

import (
	"strings"
	"testing"

	"cppsema/pkg/ast"
	"cppsema/pkg/compilation"
	"cppsema/pkg/config"
	"cppsema/pkg/diag"
)

func hasDiagnostic(ctx *compilation.Context, kind diag.Kind) bool {
	for _, d := range ctx.Diagnostics.All() {
		if d.Kind == kind {
			return true
		}
	}
	return false
}

func TestRecoveryKeepsSiblings(t *testing.T) {
	content := `int before;
int broken = ;
int after;`

	tu, ctx := parseString(t, content)

	if len(tu.Decls) != 3 {
		t.Fatalf("Expected 3 declarations, got %d", len(tu.Decls))
	}
	if _, ok := tu.Decls[0].(*ast.SimpleDeclaration); !ok {
		t.Errorf("Expected declaration before the error, got %T", tu.Decls[0])
	}
	problem, ok := tu.Decls[1].(*ast.ProblemDeclaration)
	if !ok {
		t.Fatalf("Expected problem declaration, got %T", tu.Decls[1])
	}
	if !ast.HasFlags(problem, ast.FlagProblem) || problem.Problem != diag.SyntaxError {
		t.Errorf("Expected flagged syntax problem, got %s", problem.Problem)
	}
	if text := tu.RawText(problem); text != "int broken = ;" {
		t.Errorf("Expected the problem to cover the broken declaration, got %q", text)
	}
	if _, ok := tu.Decls[2].(*ast.SimpleDeclaration); !ok {
		t.Errorf("Expected declaration after the error, got %T", tu.Decls[2])
	}
	if !ctx.Diagnostics.HasErrors() {
		t.Error("Expected a syntax diagnostic")
	}
}

func TestStatementRecovery(t *testing.T) {
	content := `void f() {
    int a = 1;
    a = = 2;
    return;
}
int g;`

	tu, ctx := parseString(t, content)

	if len(tu.Decls) != 2 {
		t.Fatalf("Expected 2 declarations, got %d", len(tu.Decls))
	}
	body := functionBody(t, tu.Decls[0])
	if len(body.Stmts) != 3 {
		t.Fatalf("Expected 3 statements, got %d", len(body.Stmts))
	}
	if _, ok := body.Stmts[1].(*ast.ProblemStatement); !ok {
		t.Errorf("Expected problem statement, got %T", body.Stmts[1])
	}
	if _, ok := body.Stmts[2].(*ast.ReturnStatement); !ok {
		t.Errorf("Expected return after the problem, got %T", body.Stmts[2])
	}
	if len(ctx.Diagnostics.ByCategory(diag.CategorySyntax)) == 0 {
		t.Error("Expected a syntax diagnostic")
	}
}

func TestRecoveryInsideClass(t *testing.T) {
	content := `class Widget {
public:
    void ok();
    int = 5;
    void alsoOk();
};
Widget instance;`

	tu, _ := parseString(t, content)

	if len(tu.Decls) != 2 {
		t.Fatalf("Expected 2 declarations, got %d", len(tu.Decls))
	}
	class := classOf(t, tu.Decls[0])
	var problems, functions int
	for _, m := range class.Members {
		switch m := m.(type) {
		case *ast.ProblemDeclaration:
			problems++
		case *ast.SimpleDeclaration:
			if m.Declarators[0].FunctionDeclarator() != nil {
				functions++
			}
		}
	}
	if problems != 1 || functions != 2 {
		t.Errorf("Expected 1 problem and 2 functions, got %d and %d", problems, functions)
	}
}

func TestMissingSemicolon(t *testing.T) {
	content := "int a\nint b;\n"

	tu, ctx := parseString(t, content)

	if len(tu.Decls) != 2 {
		t.Fatalf("Expected 2 declarations, got %d", len(tu.Decls))
	}
	for _, d := range tu.Decls {
		if _, ok := d.(*ast.SimpleDeclaration); !ok {
			t.Errorf("Expected simple declaration, got %T", d)
		}
	}
	if !hasDiagnostic(ctx, diag.MissingSemicolon) {
		t.Error("Expected missing semicolon diagnostic")
	}
}

func TestUnbalancedBraces(t *testing.T) {
	t.Run("UnclosedBody", func(t *testing.T) {
		tu, ctx := parseString(t, "void f() {\n    int a;\n")
		if len(tu.Decls) != 1 {
			t.Fatalf("Expected 1 declaration, got %d", len(tu.Decls))
		}
		if _, ok := tu.Decls[0].(*ast.FunctionDefinition); !ok {
			t.Errorf("Expected function definition, got %T", tu.Decls[0])
		}
		if !hasDiagnostic(ctx, diag.UnbalancedBrace) {
			t.Error("Expected unbalanced brace diagnostic")
		}
	})

	t.Run("StrayClose", func(t *testing.T) {
		tu, ctx := parseString(t, "int a;\n}\nint b;\n")
		if len(tu.Decls) != 3 {
			t.Fatalf("Expected 3 declarations, got %d", len(tu.Decls))
		}
		if p, ok := tu.Decls[1].(*ast.ProblemDeclaration); !ok || p.Problem != diag.UnbalancedBrace {
			t.Errorf("Expected problem for the stray brace, got %T", tu.Decls[1])
		}
		if !hasDiagnostic(ctx, diag.UnbalancedBrace) {
			t.Error("Expected unbalanced brace diagnostic")
		}
	})
}

func TestDeepNesting(t *testing.T) {
	cfg := config.Default()
	cfg.MaxNestingDepth = 32
	ctx := compilation.NewContext(compilation.WithConfig(cfg), compilation.WithFiles(compilation.NewMemoryFiles(nil)))

	content := "int x = " + strings.Repeat("(", 200) + "1" + strings.Repeat(")", 200) + ";\nint y;\n"
	tu := Parse(ctx, "deep.cpp", content)

	if len(tu.Decls) != 2 {
		t.Fatalf("Expected 2 declarations, got %d", len(tu.Decls))
	}
	problem, ok := tu.Decls[0].(*ast.ProblemDeclaration)
	if !ok || problem.Problem != diag.NestingTooDeep {
		t.Fatalf("Expected nesting problem, got %T", tu.Decls[0])
	}
	if !hasDiagnostic(ctx, diag.NestingTooDeep) {
		t.Error("Expected nesting diagnostic")
	}
	if _, ok := tu.Decls[1].(*ast.SimpleDeclaration); !ok {
		t.Errorf("Expected parsing to resume, got %T", tu.Decls[1])
	}
}

func TestDeepNestingWithinLimit(t *testing.T) {
	content := "int x = " + strings.Repeat("(", 40) + "1" + strings.Repeat(")", 40) + ";"
	tu, ctx := parseString(t, content)
	requireNoDiagnostics(t, ctx)
	if _, ok := tu.Decls[0].(*ast.SimpleDeclaration); !ok {
		t.Errorf("Expected declaration, got %T", tu.Decls[0])
	}
}

func TestGarbageInput(t *testing.T) {
	inputs := []string{
		"",
		"}}}}",
		"(((((",
		"class { public: private: ;",
		"template < < > > ;",
		"int f( { ; } ) ;",
		"#if\n#else\n#else\n#endif\n#endif",
		"a b c d e f g;",
		"operator;",
		"\"unterminated",
	}

	for _, input := range inputs {
		t.Run(input, func(t *testing.T) {
			tu, _ := parseString(t, input)
			ast.Inspect(tu, func(n ast.Node) bool {
				if n == tu {
					return true
				}
				parent := n.Parent()
				if parent == nil {
					t.Errorf("Node %T has no parent", n)
					return true
				}
				if !n.IsImplicit() && !parent.Range().Contains(n.Range()) {
					t.Errorf("Node %T %+v escapes parent %T %+v", n, n.Range(), parent, parent.Range())
				}
				return true
			})
		})
	}
}

func TestRangesNestWithinParents(t *testing.T) {
	content := `namespace ns {
template<class T> struct Box { T value; Box(T v) : value(v) {} };
int run(Box<int> b) {
    for (int i = 0; i < 3; ++i) { b.value += i * 2; }
    return b.value > 0 ? 1 : 0;
}
}`

	tu, ctx := parseString(t, content)
	requireNoDiagnostics(t, ctx)

	ast.Inspect(tu, func(n ast.Node) bool {
		if p := n.Parent(); p != nil && !p.Range().Contains(n.Range()) {
			t.Errorf("Node %T %+v escapes parent %T %+v", n, n.Range(), p, p.Range())
		}
		return true
	})
}

func TestPreprocessorDiagnostics(t *testing.T) {
	tests := []struct {
		name    string
		content string
		kind    diag.Kind
	}{
		{"UndefinedInCondition", "#if UNDEFINED_THING\nint a;\n#endif\n", diag.UndefinedMacroInCondition},
		{"ArgumentCount", "#define F(a, b) a + b\nint x = F(1);\n", diag.MacroArgCount},
		{"Unterminated", "#if 1\nint a;\n", diag.UnterminatedConditional},
		{"StrayEndif", "int a;\n#endif\n", diag.UnbalancedConditional},
		{"ErrorDirective", "#error stop here\n", diag.ErrorDirective},
		{"DivisionByZero", "#if 1 / 0\n#endif\n", diag.ConditionDivisionByZero},
		{"MissingInclude", "#include \"nowhere.h\"\n", diag.IncludeNotFound},
		{"Redefinition", "#define A 1\n#define A 2\n", diag.MacroRedefinition},
		{"UnknownDirective", "#frobnicate\n", diag.InvalidDirective},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ctx := parseString(t, tt.content)
			if !hasDiagnostic(ctx, tt.kind) {
				t.Errorf("Expected %s, got %v", tt.kind.ID(), ctx.Diagnostics.All())
			}
		})
	}
}

func TestMacroExpansionContinuesAfterErrors(t *testing.T) {
	content := `#define F(a, b) a + b
int x = F(1);
int y = F(1, 2);`

	tu, ctx := parseString(t, content)
	if !hasDiagnostic(ctx, diag.MacroArgCount) {
		t.Error("Expected argument count diagnostic")
	}
	if len(tu.Expansions) != 1 {
		t.Errorf("Expected only the valid invocation to expand, got %d", len(tu.Expansions))
	}
	if len(tu.Decls) != 2 {
		t.Fatalf("Expected 2 declarations, got %d", len(tu.Decls))
	}
}

func TestRecursiveMacroGuard(t *testing.T) {
	content := `#define foo foo + 1
#define a b
#define b a
int x = foo;
int y = a;`

	tu, ctx := parseString(t, content)
	requireNoDiagnostics(t, ctx)

	if len(tu.Decls) != 2 {
		t.Fatalf("Expected 2 declarations, got %d", len(tu.Decls))
	}
	init := tu.Decls[0].(*ast.SimpleDeclaration).Declarators[0].Init.(*ast.EqualsInitializer)
	sum, ok := init.Value.(*ast.BinaryExpression)
	if !ok || sum.Op != ast.BinaryAdd {
		t.Fatalf("Expected foo + 1, got %T", init.Value)
	}
	if id, ok := sum.Left.(*ast.IdExpression); !ok || ast.NameString(id.Name) != "foo" {
		t.Errorf("Expected the self reference to stay unexpanded, got %T", sum.Left)
	}

	y := tu.Decls[1].(*ast.SimpleDeclaration).Declarators[0].Init.(*ast.EqualsInitializer)
	if id, ok := y.Value.(*ast.IdExpression); !ok || ast.NameString(id.Name) != "a" {
		t.Errorf("Expected a to expand to b and back to a, got %T", y.Value)
	}
	if len(tu.Expansions) != 2 || len(tu.Expansions[1].Nested) != 1 {
		t.Errorf("Expected nested expansion of a -> b, got %d top level expansions", len(tu.Expansions))
	}
}

func TestStringizeAndPaste(t *testing.T) {
	content := `#define STR(x) #x
#define CAT(a, b) a ## b
const char* s = STR(hello world);
int CAT(my, Var) = 3;`

	tu, ctx := parseString(t, content)
	requireNoDiagnostics(t, ctx)

	init := tu.Decls[0].(*ast.SimpleDeclaration).Declarators[0].Init.(*ast.EqualsInitializer)
	lit, ok := init.Value.(*ast.LiteralExpression)
	if !ok || lit.Lit != ast.LitString || lit.Value != `"hello world"` {
		t.Errorf("Expected stringized literal, got %T", init.Value)
	}
	d := tu.Decls[1].(*ast.SimpleDeclaration).Declarators[0]
	if ast.NameString(d.Name) != "myVar" {
		t.Errorf("Expected pasted identifier myVar, got %s", ast.NameString(d.Name))
	}
}

func TestPredefinedMacros(t *testing.T) {
	content := `#ifdef __cplusplus
int cpp;
#endif
#if defined(__STDC__) && __cplusplus >= 201103L
int line;
#endif
#if __has_feature_like_thing
#endif`

	tu, _ := parseString(t, content)
	if len(tu.Decls) != 2 {
		t.Errorf("Expected both guarded declarations, got %d", len(tu.Decls))
	}
}

func TestCModeParsing(t *testing.T) {
	cfg := config.Default()
	cfg.Language = config.LanguageC
	ctx := compilation.NewContext(compilation.WithConfig(cfg), compilation.WithFiles(compilation.NewMemoryFiles(nil)))

	content := `int class = 1;
int new(int this) { return this; }
#ifdef __cplusplus
int hidden;
#endif`
	tu := Parse(ctx, "test.c", content)

	if len(tu.Decls) != 2 {
		t.Fatalf("Expected 2 declarations, got %d", len(tu.Decls))
	}
	for _, d := range ctx.Diagnostics.All() {
		if d.Kind.Severity() == diag.SeverityError {
			t.Errorf("Unexpected diagnostic: %s", d)
		}
	}
	if len(tu.InactiveDecls) != 1 {
		t.Errorf("Expected the C++-only declaration to be inactive, got %d", len(tu.InactiveDecls))
	}
}
