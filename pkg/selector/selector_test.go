package selector

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cppsema/pkg/ast"
	"cppsema/pkg/compilation"
	"cppsema/pkg/parser"
)

func parse(t *testing.T, src string) *ast.TranslationUnit {
	t.Helper()
	ctx := compilation.NewContext(compilation.WithFiles(compilation.NewMemoryFiles(nil)))
	tu := parser.Parse(ctx, "test.cpp", src)
	require.NotNil(t, tu)
	return tu
}

func TestExactName(t *testing.T) {
	src := "int counter;\nint next() { return counter + 1; }\n"
	tu := parse(t, src)
	s := New(tu)

	use := strings.LastIndex(src, "counter")
	n, err := s.Name(use, len("counter"))
	require.NoError(t, err)
	require.NotNil(t, n)
	assert.Equal(t, "counter", n.SimpleID())
	assert.Equal(t, use, n.Range().Offset)

	n, err = s.Name(use, 3)
	require.NoError(t, err)
	assert.Nil(t, n)
}

func TestExactNodePrefersInnermost(t *testing.T) {
	src := "int v = (1 + 2);\n"
	tu := parse(t, src)
	s := New(tu)

	off := strings.Index(src, "1 + 2")
	n, err := s.Node(off, len("1 + 2"))
	require.NoError(t, err)
	require.IsType(t, &ast.BinaryExpression{}, n)

	lit, err := s.Node(off, 1)
	require.NoError(t, err)
	assert.IsType(t, &ast.LiteralExpression{}, lit)
}

func TestEnclosingAndContained(t *testing.T) {
	src := "void f() {\n    int a = 1;\n    a = a * 3;\n}\n"
	tu := parse(t, src)
	s := New(tu)

	star := strings.Index(src, "*")
	n, err := s.EnclosingNode(star, 1)
	require.NoError(t, err)
	bin, ok := n.(*ast.BinaryExpression)
	require.True(t, ok)
	assert.Equal(t, ast.BinaryMul, bin.Op)

	name, err := s.EnclosingName(strings.Index(src, "a * 3"), 0)
	require.NoError(t, err)
	require.NotNil(t, name)
	assert.Equal(t, "a", name.SimpleID())

	stmt := strings.Index(src, "a = a * 3;")
	c, err := s.FirstContainedNode(stmt-1, len("a = a * 3;")+2)
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, 1, c.Range().Length)
	assert.Equal(t, stmt, c.Range().Offset, "the first of the smallest nodes wins")
}

func TestOutOfRange(t *testing.T) {
	tu := parse(t, "int x;")
	s := New(tu)

	_, err := s.Select(-1, 1, ExactNode)
	assert.ErrorIs(t, err, ErrOutOfRange)
	_, err = s.Select(3, 10, Enclosing)
	assert.ErrorIs(t, err, ErrOutOfRange)
	_, err = New(nil).Node(0, 0)
	assert.ErrorIs(t, err, ErrOutOfRange)
}

func TestMacroArgumentSelection(t *testing.T) {
	src := "#define MUL(a, b) ((a) * (b) + offset)\nint offset;\nint width;\nint r = MUL(width, 2);\n"
	tu := parse(t, src)
	s := New(tu)

	arg := strings.LastIndex(src, "width")
	n, err := s.Name(arg, len("width"))
	require.NoError(t, err)
	require.NotNil(t, n)
	assert.Equal(t, "width", n.SimpleID())
	img := s.ImageLocation(n)
	assert.Equal(t, ast.ImageMacroArgument, img.Kind)
	assert.Equal(t, arg, img.Offset)

	inv := strings.Index(src, "MUL(width")
	exp, err := s.Expansion(arg, 1)
	require.NoError(t, err)
	require.NotNil(t, exp)
	assert.Equal(t, "MUL", exp.Macro.Name)
	assert.Equal(t, inv, exp.Range().Offset)

	m, err := s.Select(inv, 3, MacroExpansion)
	require.NoError(t, err)
	assert.Same(t, exp, m)

	none, err := s.Select(0, 3, MacroExpansion)
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestAmbiguityResolver(t *testing.T) {
	src := "#define SUM first + second\nint first, second;\nint r = SUM;\n"
	tu := parse(t, src)
	inv := strings.LastIndex(src, "SUM")

	n, err := New(tu).Name(inv, len("SUM"))
	require.NoError(t, err)
	require.NotNil(t, n)
	assert.Equal(t, "first", n.SimpleID(), "first in source order without a resolver")

	var seen []ast.Node
	s := New(tu, WithAmbiguityResolver(func(c []ast.Node) ast.Node {
		seen = c
		return c[len(c)-1]
	}))
	n, err = s.Name(inv, len("SUM"))
	require.NoError(t, err)
	require.NotNil(t, n)
	assert.Len(t, seen, 2)
	assert.Equal(t, "second", n.SimpleID())
}

func TestInactiveNodesAreSkipped(t *testing.T) {
	src := "#if 0\nint hidden;\n#endif\nint shown;\n"
	tu := parse(t, src)
	off := strings.Index(src, "hidden")

	n, err := New(tu).Name(off, len("hidden"))
	require.NoError(t, err)
	assert.Nil(t, n)

	n, err = New(tu, WithInactive()).Name(off, len("hidden"))
	require.NoError(t, err)
	require.NotNil(t, n)
	assert.Equal(t, "hidden", n.SimpleID())
}

func TestParseMode(t *testing.T) {
	for _, m := range []Mode{Contained, Enclosing, ExactName, ExactNode, MacroExpansion} {
		got, err := ParseMode(m.String())
		require.NoError(t, err)
		assert.Equal(t, m, got)
	}
	_, err := ParseMode("nearest")
	assert.Error(t, err)
}
