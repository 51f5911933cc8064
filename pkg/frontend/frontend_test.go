package frontend

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cppsema/pkg/ast"
	"cppsema/pkg/compilation"
	"cppsema/pkg/config"
	"cppsema/pkg/diag"
	"cppsema/pkg/selector"
)

func memContext(files map[string]string) *compilation.Context {
	return compilation.NewContext(compilation.WithFiles(compilation.NewMemoryFiles(files)))
}

func TestAnalyzeResolvesAndChecks(t *testing.T) {
	src := "int used;\nint f() { return used + missing; }\n"
	res := Analyze(memContext(nil), "main.cpp", src)

	require.NotNil(t, res.Unit)
	require.NotNil(t, res.Resolver)
	assert.True(t, res.HasErrors())

	ds := res.Diagnostics()
	require.Len(t, ds, 1)
	assert.Equal(t, diag.NameNotFound, ds[0].Kind)
	assert.Equal(t, "missing", ds[0].Arg)

	n, err := res.Selector().Name(len("int used;\nint f() { return "), len("used"))
	require.NoError(t, err)
	require.NotNil(t, n)
	b := res.Resolver.ResolveName(n)
	require.NotNil(t, b)
	assert.Equal(t, "used", b.Name())
}

func TestAnalyzeFileFollowsIncludes(t *testing.T) {
	ctx := memContext(map[string]string{
		"src/shape.h":  "struct Shape { int sides; };\n",
		"src/main.cpp": "#include \"shape.h\"\nint count(Shape s) { return s.sides; }\n",
	})
	res, err := AnalyzeFile(ctx, "src/main.cpp")
	require.NoError(t, err)
	assert.Empty(t, res.Diagnostics())
	assert.False(t, res.HasErrors())
}

func TestAnalyzeFileMissing(t *testing.T) {
	_, err := AnalyzeFile(memContext(nil), "nowhere.cpp")
	assert.ErrorContains(t, err, "nowhere.cpp")
}

func TestAnalyzeFilesKeepsOrder(t *testing.T) {
	files := compilation.NewMemoryFiles(map[string]string{
		"a.cpp": "int a;\n",
		"b.cpp": "int b = a;\n",
		"c.cpp": "int c;\nint c;\n",
	})
	results, err := AnalyzeFiles(context.Background(), []string{"a.cpp", "b.cpp", "c.cpp"}, Options{
		Files: files,
		Jobs:  2,
	})
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, "a.cpp", results[0].Unit.FileName)
	assert.Empty(t, results[0].Diagnostics())

	require.Len(t, results[1].Diagnostics(), 1, "units do not see each other")
	assert.Equal(t, diag.NameNotFound, results[1].Diagnostics()[0].Kind)

	require.Len(t, results[2].Diagnostics(), 1)
	assert.Equal(t, diag.Redefinition, results[2].Diagnostics()[0].Kind)
}

func TestAnalyzeFilesSharesConfig(t *testing.T) {
	cfg := config.Default()
	require.NoError(t, cfg.ApplyDefines([]string{"WIDTH=4"}))
	files := compilation.NewMemoryFiles(map[string]string{
		"x.cpp": "int w = WIDTH;\n",
		"y.cpp": "#ifdef WIDTH\nint y;\n#endif\n",
	})
	results, err := AnalyzeFiles(context.Background(), []string{"x.cpp", "y.cpp"}, Options{
		Config: cfg,
		Files:  files,
		Jobs:   4,
	})
	require.NoError(t, err)
	for _, r := range results {
		assert.Empty(t, r.Diagnostics(), r.Unit.FileName)
	}
	assert.Len(t, results[1].Unit.Decls, 1)
}

func TestAnalyzeFilesStopsOnUnreadableFile(t *testing.T) {
	files := compilation.NewMemoryFiles(map[string]string{"ok.cpp": "int ok;\n"})
	_, err := AnalyzeFiles(context.Background(), []string{"ok.cpp", "gone.cpp"}, Options{Files: files})
	assert.ErrorContains(t, err, "gone.cpp")
}

func TestSelectorOptionsPassThrough(t *testing.T) {
	src := "#if 0\nint hidden;\n#endif\n"
	res := Analyze(memContext(nil), "main.cpp", src)
	off := len("#if 0\nint ")

	n, err := res.Selector().Name(off, len("hidden"))
	require.NoError(t, err)
	assert.Nil(t, n)

	n, err = res.Selector(selector.WithInactive()).Name(off, len("hidden"))
	require.NoError(t, err)
	require.NotNil(t, n)
	assert.True(t, ast.Node(n).IsInactive())
}
