// Package report prints diagnostics for people: a banner per problem, the
// offending source lines with the range underlined, and a closing summary.
package report

import (
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pterm/pterm"
	"github.com/pterm/pterm/putils"

	"cppsema/pkg/ast"
	"cppsema/pkg/diag"
	"cppsema/pkg/formatter"
)

var (
	SuccessColorFG = pterm.FgLightGreen
	SuccessStyleBG = pterm.NewStyle(pterm.BgLightGreen, pterm.FgBlack)
	WarnColorFG    = pterm.FgYellow
	WarnStyleBG    = pterm.NewStyle(pterm.BgYellow, pterm.FgBlack)
	ErrorColorFG   = pterm.FgRed
	ErrorStyleBG   = pterm.NewStyle(pterm.BgRed, pterm.FgWhite)
	InfoColorFG    = pterm.FgLightBlue
	InfoStyleBG    = pterm.NewStyle(pterm.BgLightBlue, pterm.FgBlack)
)

const bannerWidth = 50

// Printer writes reports to w. Without color, output is plain text.
type Printer struct {
	w     io.Writer
	color bool
}

// NewPrinter creates a printer writing to w.
func NewPrinter(w io.Writer, color bool) *Printer {
	return &Printer{w: w, color: color}
}

func (p *Printer) paint(c pterm.Color, s string) string {
	if !p.color {
		return s
	}
	return c.Sprint(s)
}

func (p *Printer) style(st *pterm.Style, s string) string {
	if !p.color {
		return s
	}
	return st.Sprint(s)
}

// ErrorMessage prints a standard Go error
func (p *Printer) ErrorMessage(tag string, err error) {
	fmt.Fprintln(p.w, p.style(ErrorStyleBG, tag)+" "+p.paint(ErrorColorFG, err.Error()))
}

// WarningMessage prints a warning message
func (p *Printer) WarningMessage(tag, msg string) {
	fmt.Fprintln(p.w, p.style(WarnStyleBG, tag)+" "+p.paint(WarnColorFG, msg))
}

// InfoMessage prints an informational message
func (p *Printer) InfoMessage(tag, msg string) {
	fmt.Fprintln(p.w, p.style(InfoStyleBG, tag)+" "+p.paint(InfoColorFG, msg))
}

// Diagnostics prints every diagnostic of tu with its code selection.
func (p *Printer) Diagnostics(tu *ast.TranslationUnit, ds []diag.Diagnostic) {
	for _, d := range ds {
		p.Diagnostic(tu, d)
	}
}

// Diagnostic prints one diagnostic.
func (p *Printer) Diagnostic(tu *ast.TranslationUnit, d diag.Diagnostic) {
	loc, ok := tu.Locations.FileLocation(ast.Range{Offset: d.Offset, Length: d.Length})
	file := tu.FileName
	if ok {
		file = loc.File
	}
	p.banner(d.Kind, file)

	msg := d.Kind.ID()
	if d.Arg != "" {
		msg += ": " + d.Arg
	}
	fmt.Fprintln(p.w, msg)

	if ok {
		if src := tu.Locations.File(loc.File); src != nil {
			p.codeSelection(src, loc)
		}
	}
}

// banner prints the line heading a diagnostic: category and severity,
// padded with dashes, then the file name.
func (p *Printer) banner(k diag.Kind, file string) {
	title := capitalize(k.Category().String()) + " " + capitalize(k.Severity().String())
	var tag string
	switch k.Severity() {
	case diag.SeverityError:
		tag = p.style(ErrorStyleBG, title)
	case diag.SeverityWarning:
		tag = p.style(WarnStyleBG, title)
	default:
		tag = p.style(InfoStyleBG, title)
	}

	name := filepath.Base(file)
	dashes := bannerWidth - len(name) - len(title) - 1
	if dashes < 3 {
		dashes = 3
	}
	fmt.Fprintf(p.w, "\n-- %s %s %s\n", tag, strings.Repeat("-", dashes), p.paint(InfoColorFG, name))
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// codeSelection prints the lines of loc with line numbers and underlines
// the selected columns.
func (p *Printer) codeSelection(src *ast.SourceFile, loc ast.FileLocation) {
	start := src.Position(loc.Offset)
	end := src.Position(loc.Offset + loc.Length)

	lines := make([]string, 0, end.Line-start.Line+1)
	for ln := start.Line; ln <= end.Line; ln++ {
		lines = append(lines, strings.ReplaceAll(src.LineText(ln), "\t", " "))
	}

	trim := -1
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		lead := len(line) - len(strings.TrimLeft(line, " "))
		if trim < 0 || lead < trim {
			trim = lead
		}
	}
	if trim < 0 {
		trim = 0
	}

	width := len(strconv.Itoa(end.Line)) + 1
	numberFmt := "%-" + strconv.Itoa(width) + "d"
	gutter := strings.Repeat(" ", width) + "|  "

	fmt.Fprintln(p.w)
	for i, line := range lines {
		text := line
		if len(text) >= trim {
			text = text[trim:]
		}
		fmt.Fprintln(p.w, p.paint(InfoColorFG, fmt.Sprintf(numberFmt, start.Line+i))+"|  "+text)

		from, to := 0, len(line)
		if i == 0 {
			from = start.Column - 1
		}
		if i == len(lines)-1 {
			to = end.Column - 1
		}
		if from < trim {
			from = trim
		}
		n := to - from
		if n < 1 {
			n = 1
		}
		carets := strings.Repeat(" ", from-trim) + p.paint(ErrorColorFG, strings.Repeat("^", n))
		fmt.Fprintln(p.w, gutter+carets)
	}
}

// Count returns the number of error and warning diagnostics.
func Count(ds []diag.Diagnostic) (errors, warnings int) {
	for _, d := range ds {
		switch d.Kind.Severity() {
		case diag.SeverityError:
			errors++
		case diag.SeverityWarning:
			warnings++
		}
	}
	return errors, warnings
}

// Summary prints the closing line of a check run.
func (p *Printer) Summary(files, errorCount, warningCount int) {
	fmt.Fprintln(p.w)
	if errorCount == 0 {
		fmt.Fprint(p.w, p.paint(SuccessColorFG, "All clean! "))
	} else {
		fmt.Fprint(p.w, p.paint(ErrorColorFG, "Problems found! "))
	}

	count := func(n int, c pterm.Color, one, many string) string {
		if n == 0 {
			c = SuccessColorFG
		}
		word := many
		if n == 1 {
			word = one
		}
		return p.paint(c, strconv.Itoa(n)) + " " + word
	}
	fmt.Fprintf(p.w, "(%s, %s, %s)\n",
		count(files, SuccessColorFG, "file", "files"),
		count(errorCount, ErrorColorFG, "error", "errors"),
		count(warningCount, WarnColorFG, "warning", "warnings"))
}

// Tree renders a formatted parse tree with box drawing characters.
func Tree(root *formatter.Node) (string, error) {
	var list pterm.LeveledList
	var walk func(n *formatter.Node, level int)
	walk = func(n *formatter.Node, level int) {
		list = append(list, pterm.LeveledListItem{Level: level, Text: formatter.FormatLine(n)})
		for _, in := range n.Implicit {
			list = append(list, pterm.LeveledListItem{Level: level + 1, Text: "implicit " + formatter.FormatLine(in)})
		}
		for _, c := range n.Children {
			walk(c, level+1)
		}
	}
	walk(root, 0)
	return pterm.DefaultTree.WithRoot(putils.TreeFromLeveledList(list)).Srender()
}
