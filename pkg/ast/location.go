package ast

import (
	"fmt"
	"sort"
	"strings"
)

// ImageKind classifies where the text of a node was written.
type ImageKind int

const (
	// ImageRegularCode is text outside any macro expansion.
	ImageRegularCode ImageKind = iota
	// ImageMacroDefinition is text of a macro's replacement list.
	ImageMacroDefinition
	// ImageMacroArgument is text passed as an argument to a macro
	// invocation. The location is the call site.
	ImageMacroArgument
)

func (k ImageKind) String() string {
	switch k {
	case ImageMacroDefinition:
		return "macro-definition"
	case ImageMacroArgument:
		return "macro-argument"
	default:
		return "regular-code"
	}
}

// ImageLocation is the pre-expansion location of a node.
type ImageLocation struct {
	Kind   ImageKind
	File   string
	Offset int
	Length int
	// Expansion is the macro expansion the node came out of, nil for
	// regular code.
	Expansion *MacroExpansion
}

// FileLocation is a range of a source file with its line span.
type FileLocation struct {
	File      string
	Offset    int
	Length    int
	StartLine int
	EndLine   int
}

func (l FileLocation) String() string {
	return fmt.Sprintf("%s:%d", l.File, l.StartLine)
}

// SourceFile is the content of one file of a translation unit.
type SourceFile struct {
	Name    string
	Content string
	lines   []int
}

// NewSourceFile creates a source file and indexes its line starts.
func NewSourceFile(name, content string) *SourceFile {
	f := &SourceFile{Name: name, Content: content, lines: []int{0}}
	for i := 0; i < len(content); i++ {
		if content[i] == '\n' {
			f.lines = append(f.lines, i+1)
		}
	}
	return f
}

// Position converts a file offset to a 1-based line and column.
func (f *SourceFile) Position(offset int) Position {
	if offset < 0 {
		offset = 0
	}
	if offset > len(f.Content) {
		offset = len(f.Content)
	}
	line := sort.Search(len(f.lines), func(i int) bool { return f.lines[i] > offset }) - 1
	return Position{Line: line + 1, Column: offset - f.lines[line] + 1, Offset: offset}
}

// LineText returns the text of a 1-based line without its newline.
func (f *SourceFile) LineText(line int) string {
	if line < 1 || line > len(f.lines) {
		return ""
	}
	start := f.lines[line-1]
	end := len(f.Content)
	if line < len(f.lines) {
		end = f.lines[line] - 1
	}
	return f.Content[start:end]
}

type piece struct {
	seq    int
	file   *SourceFile
	start  int
	length int
}

// LocationMap maps sequence offsets to files. The sequence is the text of
// the translation unit with every included file spliced in at its #include
// directive. Without includes, sequence and main file offsets coincide.
type LocationMap struct {
	files  []*SourceFile
	pieces []piece
	next   int
}

// NewLocationMap creates an empty map.
func NewLocationMap() *LocationMap {
	return &LocationMap{}
}

// AddFile registers a file of the translation unit.
func (m *LocationMap) AddFile(f *SourceFile) {
	if m.File(f.Name) == nil {
		m.files = append(m.files, f)
	}
}

// Append adds the file range [start, end) at the end of the sequence and
// returns its sequence offset.
func (m *LocationMap) Append(f *SourceFile, start, end int) int {
	m.AddFile(f)
	seq := m.next
	if end > start {
		m.pieces = append(m.pieces, piece{seq: seq, file: f, start: start, length: end - start})
		m.next += end - start
	}
	return seq
}

// Files returns the registered files in the order they were added.
func (m *LocationMap) Files() []*SourceFile {
	return append([]*SourceFile(nil), m.files...)
}

// File returns the registered file with the given name.
func (m *LocationMap) File(name string) *SourceFile {
	for _, f := range m.files {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// Extent returns the length of the sequence.
func (m *LocationMap) Extent() int {
	return m.next
}

// SequenceOffset maps a file offset back to the sequence. A file included
// more than once maps to its first inclusion.
func (m *LocationMap) SequenceOffset(file string, offset int) (int, bool) {
	for _, p := range m.pieces {
		if p.file.Name == file && offset >= p.start && offset <= p.start+p.length {
			return p.seq + offset - p.start, true
		}
	}
	return 0, false
}

func (m *LocationMap) pieceAt(offset int) (piece, bool) {
	i := sort.Search(len(m.pieces), func(i int) bool { return m.pieces[i].seq > offset }) - 1
	if i < 0 {
		return piece{}, false
	}
	p := m.pieces[i]
	if offset > p.seq+p.length {
		return piece{}, false
	}
	return p, true
}

// FileLocation maps a sequence range to the file it lies in. A range that
// crosses into another file is clipped to the piece of its start.
func (m *LocationMap) FileLocation(r Range) (FileLocation, bool) {
	p, ok := m.pieceAt(r.Offset)
	if !ok {
		return FileLocation{}, false
	}
	off := p.start + r.Offset - p.seq
	length := r.Length
	if limit := p.start + p.length; off+length > limit {
		length = limit - off
	}
	if length < 0 {
		length = 0
	}
	start := p.file.Position(off)
	end := p.file.Position(off + length)
	return FileLocation{
		File:      p.file.Name,
		Offset:    off,
		Length:    length,
		StartLine: start.Line,
		EndLine:   end.Line,
	}, true
}

// Text returns the source text of a sequence range, joining the pieces of
// every file the range passes through.
func (m *LocationMap) Text(r Range) string {
	var sb strings.Builder
	for _, p := range m.pieces {
		lo, hi := p.seq, p.seq+p.length
		if r.Offset > lo {
			lo = r.Offset
		}
		if r.End() < hi {
			hi = r.End()
		}
		if lo >= hi {
			continue
		}
		start := p.start + lo - p.seq
		sb.WriteString(p.file.Content[start : start+hi-lo])
	}
	return sb.String()
}
