package parser

import (
	"sort"
	"strings"

	"cppsema/pkg/ast"
)

// recordComments adds the comments of a fully processed file to the
// translation unit. Comments inside skipped branches are kept as well.
func (pp *Preprocessor) recordComments(src *source) {
	for _, tok := range src.comments {
		seq, ok := pp.tu.Locations.SequenceOffset(src.file.Name, tok.Offset)
		if !ok {
			continue
		}
		c := &ast.Comment{
			Text:  tok.Value,
			Block: tok.Type == TokenBlockComment,
			Doc:   isDocComment(tok.Value),
		}
		ast.SetRange(c, ast.Range{Offset: seq, Length: tok.Length})
		pp.tu.AddComment(c)
	}
}

// isDocComment checks for the documentation comment markers.
func isDocComment(content string) bool {
	if strings.HasPrefix(content, "/**/") || strings.HasPrefix(content, "////") {
		return false
	}
	return strings.HasPrefix(content, "/**") ||
		strings.HasPrefix(content, "/*!") ||
		strings.HasPrefix(content, "///") ||
		strings.HasPrefix(content, "//!")
}

// sortComments orders comments by sequence offset. Included files are
// recorded when they finish, before the rest of their includer.
func sortComments(comments []*ast.Comment) {
	sort.SliceStable(comments, func(i, j int) bool {
		return comments[i].Range().Offset < comments[j].Range().Offset
	})
}
