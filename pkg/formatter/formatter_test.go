package formatter

import (
	"encoding/json"
	"strings"
	"testing"

	"cppsema/pkg/ast"
	"cppsema/pkg/compilation"
	"cppsema/pkg/frontend"
	"cppsema/pkg/parser"
)

func parseOnly(t *testing.T, src string) *ast.TranslationUnit {
	t.Helper()
	ctx := compilation.NewContext(compilation.WithFiles(compilation.NewMemoryFiles(nil)))
	return parser.Parse(ctx, "test.cpp", src)
}

func analyze(t *testing.T, src string) *ast.TranslationUnit {
	t.Helper()
	ctx := compilation.NewContext(compilation.WithFiles(compilation.NewMemoryFiles(nil)))
	return frontend.Analyze(ctx, "test.cpp", src).Unit
}

func TestNew(t *testing.T) {
	f := New()
	if f == nil {
		t.Fatal("New() should not return nil")
	}
	if f.indentSize != 2 || !f.useSpaces {
		t.Errorf("Unexpected defaults: indent=%d spaces=%t", f.indentSize, f.useSpaces)
	}
}

func TestFormatTree(t *testing.T) {
	tu := parseOnly(t, "int x = 1;\n")
	out := New().FormatTree(tu)

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if !strings.HasPrefix(lines[0], "TranslationUnit [0+11]") {
		t.Errorf("Unexpected root line: %s", lines[0])
	}
	if !strings.HasSuffix(lines[0], "test.cpp") {
		t.Errorf("Root should carry the file name: %s", lines[0])
	}

	expectedElements := []string{
		"  SimpleDeclaration [0+10] <test.cpp:1>",
		"Name [4+1] <test.cpp:1> x",
		"LiteralExpression [8+1] <test.cpp:1> \"1\"",
	}
	for _, expected := range expectedElements {
		if !strings.Contains(out, expected) {
			t.Errorf("Expected output to contain %q, got:\n%s", expected, out)
		}
	}
}

func TestIndentation(t *testing.T) {
	tu := parseOnly(t, "int x;\n")

	spaced := New(WithIndent(4, true)).FormatTree(tu)
	if !strings.Contains(spaced, "\n    SimpleDeclaration") {
		t.Errorf("Expected four space indentation, got:\n%s", spaced)
	}

	tabbed := New(WithIndent(0, false)).FormatTree(tu)
	if !strings.Contains(tabbed, "\n\tSimpleDeclaration") {
		t.Errorf("Expected tab indentation, got:\n%s", tabbed)
	}
}

func TestInactiveNodes(t *testing.T) {
	tu := parseOnly(t, "#ifdef NEVER\nint hidden;\n#endif\nint shown;\n")

	out := New().FormatTree(tu)
	if strings.Contains(out, "hidden") {
		t.Errorf("Inactive code should be hidden by default:\n%s", out)
	}

	out = New(WithInactive()).FormatTree(tu)
	if !strings.Contains(out, "hidden") || !strings.Contains(out, "(inactive)") {
		t.Errorf("Expected inactive code to be shown and marked:\n%s", out)
	}
}

func TestBindings(t *testing.T) {
	tu := analyze(t, "namespace geo { int side; }\nint area() { return geo::side * missing; }\n")
	out := New(WithBindings()).FormatTree(tu)

	expectedElements := []string{
		"-> namespace geo",
		"-> variable geo::side",
		"-> function area",
		"-> problem sema.name-not-found missing",
	}
	for _, expected := range expectedElements {
		if !strings.Contains(out, expected) {
			t.Errorf("Expected output to contain %q, got:\n%s", expected, out)
		}
	}
}

func TestImplicitNames(t *testing.T) {
	src := "struct S { S(); ~S(); };\nvoid f() { S s; }\n"
	tu := analyze(t, src)

	out := New(WithImplicitNames()).FormatTree(tu)
	if !strings.Contains(out, "implicit ImplicitName") {
		t.Fatalf("Expected implicit names in output:\n%s", out)
	}
	if !strings.Contains(out, "-> constructor S::S") {
		t.Errorf("Expected the constructor call:\n%s", out)
	}
	if !strings.Contains(out, "-> destructor S::~S") {
		t.Errorf("Expected the destructor call:\n%s", out)
	}

	plain := New().FormatTree(tu)
	if strings.Contains(plain, "implicit") {
		t.Errorf("Implicit names should only be listed on request:\n%s", plain)
	}
}

func TestJSON(t *testing.T) {
	tu := analyze(t, "int x;\nint y = x;\n")

	data, err := json.Marshal(New(WithBindings()).Tree(tu))
	if err != nil {
		t.Fatalf("Failed to marshal: %v", err)
	}

	var decoded Node
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Failed to unmarshal: %v", err)
	}
	if decoded.Kind != "TranslationUnit" || decoded.Name != "test.cpp" {
		t.Errorf("Unexpected root: %+v", decoded)
	}
	if len(decoded.Children) != 2 {
		t.Fatalf("Expected 2 declarations, got %d", len(decoded.Children))
	}
	if !strings.Contains(string(data), `"binding":"variable x"`) {
		t.Errorf("Expected the use of x to be bound: %s", data)
	}
}

func TestFormatNode(t *testing.T) {
	tu := parseOnly(t, "int a;\nint b;\n")
	second := tu.Decls[1]

	out := New().FormatNode(tu, second)
	if strings.Contains(out, " a") || !strings.Contains(out, " b") {
		t.Errorf("Expected only the second declaration:\n%s", out)
	}
	if !strings.HasPrefix(out, "SimpleDeclaration") {
		t.Errorf("Subtree should start unindented:\n%s", out)
	}
}

func TestExcerpt(t *testing.T) {
	f := New(WithMaxText(5))
	if got := f.excerpt("a  very\n long text"); got != "a ver..." {
		t.Errorf("Unexpected excerpt %q", got)
	}

	tree := New(WithMaxText(0)).Tree(parseOnly(t, "int x = 1;"))
	if Count(tree) < 4 {
		t.Errorf("Expected at least 4 nodes, got %d", Count(tree))
	}
	if strings.Contains(New(WithMaxText(0)).FormatTree(parseOnly(t, "int x = 1;")), `"1"`) {
		t.Error("Excerpts should be disabled")
	}
}

func TestDescribeBinding(t *testing.T) {
	if DescribeBinding(nil) != "" {
		t.Error("nil binding should describe as empty")
	}
	tu := parseOnly(t, "int x;")
	name := ast.Names(tu)[0]
	// Without a resolver names are unresolved.
	if got := DescribeBinding(name.ResolveBinding()); got != "problem sema.name-not-found x" {
		t.Errorf("Unexpected description %q", got)
	}
}
