package report

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cppsema/pkg/ast"
	"cppsema/pkg/compilation"
	"cppsema/pkg/diag"
	"cppsema/pkg/formatter"
	"cppsema/pkg/frontend"
)

func analyze(t *testing.T, files map[string]string, main string) *frontend.Result {
	t.Helper()
	ctx := compilation.NewContext(compilation.WithFiles(compilation.NewMemoryFiles(files)))
	res, err := frontend.AnalyzeFile(ctx, main)
	require.NoError(t, err)
	return res
}

func TestDiagnosticCodeSelection(t *testing.T) {
	src := "int f() { return missing; }\n"
	res := analyze(t, map[string]string{"test.cpp": src}, "test.cpp")
	ds := res.Diagnostics()
	require.Len(t, ds, 1)

	var buf bytes.Buffer
	NewPrinter(&buf, false).Diagnostics(res.Unit, ds)
	out := buf.String()

	assert.Contains(t, out, "-- Semantic Error ---")
	assert.Contains(t, out, "test.cpp\n")
	assert.Contains(t, out, "sema.name-not-found: missing\n")
	assert.Contains(t, out, "1 |  int f() { return missing; }\n")
	assert.Contains(t, out, "  |  "+strings.Repeat(" ", 17)+"^^^^^^^\n")
}

func TestDiagnosticInIncludedFile(t *testing.T) {
	files := map[string]string{
		"lib.h":    "\n\n    int broken = nothing;\n",
		"main.cpp": "#include \"lib.h\"\nint ok;\n",
	}
	res := analyze(t, files, "main.cpp")
	ds := res.Diagnostics()
	require.Len(t, ds, 1)

	var buf bytes.Buffer
	NewPrinter(&buf, false).Diagnostic(res.Unit, ds[0])
	out := buf.String()

	assert.Contains(t, out, "lib.h\n", "the banner names the file holding the problem")
	assert.Contains(t, out, "3 |  int broken = nothing;\n", "leading whitespace is trimmed")
	assert.Contains(t, out, "  |  "+strings.Repeat(" ", len("int broken = "))+"^^^^^^^\n")
}

func TestMultiLineSelection(t *testing.T) {
	src := "int a;\nint b;\n"
	ctx := compilation.NewContext(compilation.WithFiles(compilation.NewMemoryFiles(nil)))
	res := frontend.Analyze(ctx, "two.cpp", src)
	d := diag.Diagnostic{Kind: diag.SyntaxError, Offset: 4, Length: 7}

	var buf bytes.Buffer
	NewPrinter(&buf, false).Diagnostic(res.Unit, d)
	out := buf.String()

	assert.Contains(t, out, "-- Syntax Error")
	assert.Contains(t, out, "1 |  int a;\n  |      ^^\n")
	assert.Contains(t, out, "2 |  int b;\n  |  ^^^^\n")
}

func TestCount(t *testing.T) {
	ds := []diag.Diagnostic{
		{Kind: diag.NameNotFound},
		{Kind: diag.Ambiguous},
		{Kind: diag.SyntaxError},
	}
	errs, warns := Count(ds)
	assert.Equal(t, 3, errs)
	assert.Equal(t, 0, warns)
}

func TestSummary(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, false)

	p.Summary(2, 0, 0)
	assert.Equal(t, "\nAll clean! (2 files, 0 errors, 0 warnings)\n", buf.String())

	buf.Reset()
	p.Summary(1, 1, 3)
	assert.Equal(t, "\nProblems found! (1 file, 1 error, 3 warnings)\n", buf.String())
}

func TestMessages(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, false)

	p.ErrorMessage("Config", errors.New("bad value"))
	p.WarningMessage("Input", "empty file")
	p.InfoMessage("Jobs", "4")
	assert.Equal(t, "Config bad value\nInput empty file\nJobs 4\n", buf.String())

	buf.Reset()
	NewPrinter(&buf, true).ErrorMessage("Config", errors.New("bad value"))
	assert.Contains(t, buf.String(), "bad value")
}

func TestTree(t *testing.T) {
	ctx := compilation.NewContext(compilation.WithFiles(compilation.NewMemoryFiles(nil)))
	res := frontend.Analyze(ctx, "tree.cpp", "int x;\n")
	root := formatter.New().Tree(res.Unit)

	out, err := Tree(root)
	require.NoError(t, err)
	assert.Contains(t, out, "TranslationUnit")
	assert.Contains(t, out, "SimpleDeclaration")
	assert.Contains(t, out, formatter.KindName(&ast.Name{}))
}
