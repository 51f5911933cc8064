package document

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"cppsema/pkg/ast"
	"cppsema/pkg/compilation"
	"cppsema/pkg/config"
	"cppsema/pkg/frontend"
)

// Test content for document operations
const testSourceContent = `
namespace TestNS {

class Calculator {
public:
    Calculator();
    int add(int a, int b);
    int subtract(int a, int b);

private:
    int result_;
};

int Calculator::add(int a, int b) { return a + b + result_; }

void globalFunction();

int processValue(int value) {
    Calculator c;
    globalFunction();
    return c.add(value, 1) + c.add(1, value);
}

} // namespace TestNS
`

func newTestDocument(t *testing.T, content string) *Document {
	t.Helper()
	doc := NewFromContent("test.cpp", content, compilation.WithFiles(compilation.NewMemoryFiles(nil)))
	if doc == nil {
		t.Fatal("Failed to create document")
	}
	return doc
}

func TestNewFromContent(t *testing.T) {
	doc := newTestDocument(t, testSourceContent)

	if doc.GetFilename() != "test.cpp" {
		t.Errorf("Expected filename 'test.cpp', got '%s'", doc.GetFilename())
	}
	if doc.GetContent() != testSourceContent {
		t.Error("Content should be kept unchanged")
	}
	if doc.Result() == nil || doc.Result().Unit == nil {
		t.Fatal("Document should expose its analysis")
	}
	if len(doc.Result().Diagnostics()) != 0 {
		t.Errorf("Expected no diagnostics, got %v", doc.Result().Diagnostics())
	}
}

func TestFindEntity(t *testing.T) {
	doc := newTestDocument(t, testSourceContent)

	tests := []struct {
		path     string
		expected bool
		kind     ast.BindingKind
	}{
		{"TestNS", true, ast.BindingNamespace},
		{"TestNS::Calculator", true, ast.BindingClass},
		{"TestNS::Calculator::add", true, ast.BindingMethod},
		{"TestNS::Calculator::subtract", true, ast.BindingMethod},
		{"TestNS::Calculator::result_", true, ast.BindingField},
		{"TestNS::globalFunction", true, ast.BindingFunction},
		{"TestNS::processValue", true, ast.BindingFunction},
		{"TestNS::processValue::c", true, ast.BindingVariable},
		{"NonExistent", false, ast.BindingProblem},
		{"TestNS::NonExistent", false, ast.BindingProblem},
	}

	for _, test := range tests {
		entity := doc.FindEntity(test.path)
		if !test.expected {
			if entity != nil {
				t.Errorf("Expected not to find entity at path '%s', but found '%s'", test.path, entity.Name())
			}
			continue
		}
		if entity == nil {
			t.Errorf("Expected to find entity at path '%s'", test.path)
			continue
		}
		if got := ast.QualifiedNameOf(entity); got != test.path {
			t.Errorf("Expected path '%s', got '%s'", test.path, got)
		}
		if entity.BindingKind() != test.kind {
			t.Errorf("Expected %s to be a %s, got %s", test.path, test.kind, entity.BindingKind())
		}
	}
}

func TestOutOfLineDefinitionIsOneEntity(t *testing.T) {
	doc := newTestDocument(t, testSourceContent)

	adds := doc.FindEntitiesByName("add")
	if len(adds) != 1 {
		t.Fatalf("Expected 1 entity named add, found %d", len(adds))
	}
	summary, err := doc.GetEntitySummary("TestNS::Calculator::add")
	if err != nil {
		t.Fatalf("Failed to get summary: %v", err)
	}
	if summary.Declarations != 2 {
		t.Errorf("Expected 2 declarations of add, got %d", summary.Declarations)
	}
	if !summary.Defined {
		t.Error("add is defined out of line")
	}
	if summary.References != 2 {
		t.Errorf("Expected 2 references to add, got %d", summary.References)
	}
	if summary.Type != "int(int, int)" {
		t.Errorf("Unexpected type of add: %q", summary.Type)
	}
}

func TestFindEntitiesByKind(t *testing.T) {
	doc := newTestDocument(t, testSourceContent)

	classes := doc.FindEntitiesByKind(ast.BindingClass)
	if len(classes) != 1 || classes[0].Name() != "Calculator" {
		t.Errorf("Expected the single class Calculator, got %v", classes)
	}

	methods := doc.FindEntitiesByKind(ast.BindingMethod)
	if len(methods) != 2 {
		t.Errorf("Expected 2 methods, found %d", len(methods))
	}

	constructors := doc.FindEntitiesByKind(ast.BindingConstructor)
	if len(constructors) != 1 {
		t.Errorf("Expected 1 user-declared constructor, found %d", len(constructors))
	}
}

func TestGetAllEntitiesInDeclarationOrder(t *testing.T) {
	doc := newTestDocument(t, "int first;\nint second;\nint third;\n")

	var names []string
	for _, e := range doc.GetAllEntities() {
		names = append(names, e.Name())
	}
	if strings.Join(names, ",") != "first,second,third" {
		t.Errorf("Unexpected entity order: %v", names)
	}
	if got := doc.Paths(); len(got) != 3 || got[0] != "first" {
		t.Errorf("Unexpected paths: %v", got)
	}
}

func TestOverloadsShareAPath(t *testing.T) {
	doc := newTestDocument(t, "void f(int);\nvoid f(double);\nvoid g() { f(1); f(2.0); f(3); }\n")

	overloads := doc.FindOverloads("f")
	if len(overloads) != 2 {
		t.Fatalf("Expected 2 overloads of f, found %d", len(overloads))
	}
	if doc.FindEntity("f") != overloads[0] {
		t.Error("FindEntity should return the first declared overload")
	}
	if n := doc.References(overloads[0]); n != 2 {
		t.Errorf("Expected 2 calls of f(int), got %d", n)
	}
	if n := doc.References(overloads[1]); n != 1 {
		t.Errorf("Expected 1 call of f(double), got %d", n)
	}
}

func TestGetEntitySummaryNotFound(t *testing.T) {
	doc := newTestDocument(t, testSourceContent)

	if _, err := doc.GetEntitySummary("TestNS::Missing"); err == nil {
		t.Error("Expected an error for an unknown entity")
	}
}

func TestResolutionStats(t *testing.T) {
	doc := newTestDocument(t, "int known;\nint f() { return known + unknown; }\n")

	stats := doc.GetResolutionStats()
	if stats.ProblemNames != 1 {
		t.Errorf("Expected 1 unresolved name, got %d", stats.ProblemNames)
	}
	if stats.ResolvedNames != stats.TotalNames-1 {
		t.Errorf("Expected all but one name to resolve, got %d of %d", stats.ResolvedNames, stats.TotalNames)
	}
	if stats.Entities != 2 {
		t.Errorf("Expected 2 entities, got %d", stats.Entities)
	}
	if c := stats.Coverage(); c <= 0 || c >= 100 {
		t.Errorf("Coverage should be partial, got %.1f", c)
	}

	clean := newTestDocument(t, "template <class T> int size(T t) { return t.size(); }\n")
	cs := clean.GetResolutionStats()
	if cs.DependentNames == 0 {
		t.Error("Expected the member of a dependent object to stay unresolved")
	}
	if cs.Coverage() != 100.0 {
		t.Errorf("Dependent names do not count against coverage, got %.1f", cs.Coverage())
	}
}

func TestValidate(t *testing.T) {
	doc := newTestDocument(t, testSourceContent+"int broken = missing;\n")

	issues := doc.Validate()
	var kinds []string
	for _, issue := range issues {
		kinds = append(kinds, issue.IssueType+":"+issue.EntityPath)
	}

	expected := []string{
		"sema.name-not-found:missing",
		"missing_definition:TestNS::globalFunction",
	}
	if strings.Join(kinds, " ") != strings.Join(expected, " ") {
		t.Fatalf("Expected issues %v, got %v", expected, kinds)
	}
	if issues[0].Severity != "error" || issues[1].Severity != "info" {
		t.Errorf("Unexpected severities: %s, %s", issues[0].Severity, issues[1].Severity)
	}
}

func TestNewFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "shapes.cpp")
	content := "#include \"shape.h\"\nint sides(Shape s) { return s.sides; }\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "shape.h"), []byte("struct Shape { int sides; };\n"), 0644); err != nil {
		t.Fatal(err)
	}

	doc, err := NewFromFile(path)
	if err != nil {
		t.Fatalf("Failed to load document: %v", err)
	}
	if !filepath.IsAbs(doc.GetFilename()) {
		t.Errorf("Expected an absolute filename, got %s", doc.GetFilename())
	}
	if doc.FindEntity("Shape::sides") == nil {
		t.Error("Entities of included headers should be indexed")
	}
	if len(doc.Validate()) != 0 {
		t.Errorf("Expected no issues, got %v", doc.Validate())
	}

	if _, err := NewFromFile(filepath.Join(dir, "missing.cpp")); err == nil {
		t.Error("Expected an error for a missing file")
	}
}

func TestFromResult(t *testing.T) {
	cfg := config.Default()
	cfg.Language = config.LanguageC
	ctx := compilation.NewContext(compilation.WithConfig(cfg), compilation.WithFiles(compilation.NewMemoryFiles(nil)))
	src := "struct point { int x; };\nint px(struct point p) { return p.x; }\n"
	doc := FromResult(frontend.Analyze(ctx, "point.c", src), src)

	if doc.FindEntity("point::x") == nil {
		t.Error("Expected the field of point to be indexed")
	}
	if len(doc.FindEntitiesByKind(ast.BindingConstructor)) != 0 {
		t.Error("C code has no constructors")
	}
}

func TestString(t *testing.T) {
	doc := newTestDocument(t, "int a;\nint b = c;\n")

	s := doc.String()
	if !strings.HasPrefix(s, "Document[test.cpp]: 2 entities") {
		t.Errorf("Unexpected string: %s", s)
	}
	if !strings.HasSuffix(s, "1 diagnostics") {
		t.Errorf("Unexpected string: %s", s)
	}
}
