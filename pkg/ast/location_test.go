package ast

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSourceFilePosition(t *testing.T) {
	f := NewSourceFile("a.cpp", "int x;\n  int y;\n\nz")

	tests := []struct {
		offset int
		line   int
		column int
	}{
		{0, 1, 1},
		{4, 1, 5},
		{6, 1, 7},
		{7, 2, 1},
		{9, 2, 3},
		{16, 3, 1},
		{17, 4, 1},
		{100, 4, 2},
		{-3, 1, 1},
	}
	for _, tt := range tests {
		pos := f.Position(tt.offset)
		assert.Equal(t, tt.line, pos.Line, "line of offset %d", tt.offset)
		assert.Equal(t, tt.column, pos.Column, "column of offset %d", tt.offset)
	}

	assert.Equal(t, "int x;", f.LineText(1))
	assert.Equal(t, "  int y;", f.LineText(2))
	assert.Equal(t, "", f.LineText(3))
	assert.Equal(t, "z", f.LineText(4))
	assert.Equal(t, "", f.LineText(5))
	assert.Equal(t, "", f.LineText(0))
}

// Builds the sequence of a main file that includes a header after its
// first line.
func splicedMap() (*LocationMap, *SourceFile, *SourceFile) {
	main := NewSourceFile("main.cpp", "#include \"h.h\"\nint b;\n")
	header := NewSourceFile("h.h", "int a;\n")

	m := NewLocationMap()
	m.Append(main, 0, 15)
	m.Append(header, 0, len(header.Content))
	m.Append(main, 15, len(main.Content))
	return m, main, header
}

func TestLocationMapSplicesIncludes(t *testing.T) {
	m, main, header := splicedMap()

	assert.Equal(t, 15+7+7, m.Extent())
	require.Len(t, m.Files(), 2)
	assert.Same(t, main, m.File("main.cpp"))
	assert.Same(t, header, m.File("h.h"))
	assert.Nil(t, m.File("other.h"))

	loc, ok := m.FileLocation(Range{Offset: 19, Length: 1})
	require.True(t, ok)
	assert.Equal(t, FileLocation{File: "h.h", Offset: 4, Length: 1, StartLine: 1, EndLine: 1}, loc)
	assert.Equal(t, "h.h:1", loc.String())

	loc, ok = m.FileLocation(Range{Offset: 26, Length: 1})
	require.True(t, ok)
	assert.Equal(t, "main.cpp", loc.File)
	assert.Equal(t, 19, loc.Offset)
	assert.Equal(t, 2, loc.StartLine)

	_, ok = m.FileLocation(Range{Offset: 500})
	assert.False(t, ok)
}

func TestLocationMapClipsRangesToOneFile(t *testing.T) {
	m, _, _ := splicedMap()

	loc, ok := m.FileLocation(Range{Offset: 18, Length: 10})
	require.True(t, ok)
	assert.Equal(t, "h.h", loc.File)
	assert.Equal(t, 3, loc.Offset)
	assert.Equal(t, 4, loc.Length)
}

func TestLocationMapSequenceOffset(t *testing.T) {
	m, _, _ := splicedMap()

	seq, ok := m.SequenceOffset("h.h", 4)
	require.True(t, ok)
	assert.Equal(t, 19, seq)

	seq, ok = m.SequenceOffset("main.cpp", 19)
	require.True(t, ok)
	assert.Equal(t, 26, seq)

	_, ok = m.SequenceOffset("other.h", 0)
	assert.False(t, ok)
}

func TestLocationMapText(t *testing.T) {
	m, _, _ := splicedMap()

	assert.Equal(t, "int a;\n", m.Text(Range{Offset: 15, Length: 7}))
	assert.Equal(t, "a;\nint b", m.Text(Range{Offset: 19, Length: 8}))
	assert.Equal(t, "", m.Text(Range{Offset: 100, Length: 3}))
}

func TestImageKindString(t *testing.T) {
	assert.Equal(t, "regular-code", ImageRegularCode.String())
	assert.Equal(t, "macro-definition", ImageMacroDefinition.String())
	assert.Equal(t, "macro-argument", ImageMacroArgument.String())
}
