package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"cppsema/pkg/ast"
	"cppsema/pkg/document"
	"cppsema/pkg/formatter"
	"cppsema/pkg/frontend"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve [file]",
	Short: "Resolve every name of a file to the entity it denotes",
	Long: `Resolve every name of a translation unit and print the kind and qualified
name of the entity it denotes, or the problem that prevented resolution.

With --implicit, the implicit constructor, destructor and operator calls of
each expression, declarator and scope are listed under their owner.
With --entities, a table of the declared entities is printed instead,
followed by resolution statistics.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, err := newContext()
		if err != nil {
			return err
		}
		res, err := frontend.AnalyzeFile(ctx, args[0])
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		format, _ := cmd.Flags().GetString("format")
		entity, _ := cmd.Flags().GetString("entity")
		entities, _ := cmd.Flags().GetBool("entities")
		implicit, _ := cmd.Flags().GetBool("implicit")

		if entity != "" || entities {
			content, _ := ctx.Files.ReadFile(args[0])
			doc := document.FromResult(res, content)
			if entity != "" {
				return outputEntity(out, doc, entity, format)
			}
			return outputEntities(out, doc, format)
		}

		refs := collectReferences(res, implicit)
		switch format {
		case "json":
			encoder := json.NewEncoder(out)
			encoder.SetIndent("", "  ")
			return encoder.Encode(refs)
		case "human":
			for _, r := range refs {
				indent := ""
				if r.Implicit {
					indent = "    implicit "
				}
				fmt.Fprintf(out, "%s%s %s -> %s\n", indent, r.Position, r.Name, r.Binding)
			}
			return nil
		default:
			return fmt.Errorf("unknown format %q", format)
		}
	},
}

func init() {
	resolveCmd.Flags().StringP("format", "f", "human", "Output format (human, json)")
	resolveCmd.Flags().Bool("implicit", false, "List implicit calls under their owners")
	resolveCmd.Flags().Bool("entities", false, "Print the declared entities instead of every name")
	resolveCmd.Flags().String("entity", "", "Print the summary of one entity by qualified name")
}

type reference struct {
	Position string `json:"position"`
	Offset   int    `json:"offset"`
	Length   int    `json:"length"`
	Name     string `json:"name"`
	Binding  string `json:"binding"`
	Implicit bool   `json:"implicit,omitempty"`
}

// collectReferences resolves the active names of a unit in AST order.
func collectReferences(res *frontend.Result, implicit bool) []reference {
	tu := res.Unit
	var refs []reference
	add := func(n ast.NameNode, isImplicit bool) {
		rng := n.Range()
		refs = append(refs, reference{
			Position: position(tu, n),
			Offset:   rng.Offset,
			Length:   rng.Length,
			Name:     tu.RawText(n),
			Binding:  formatter.DescribeBinding(n.ResolveBinding()),
			Implicit: isImplicit,
		})
		if isImplicit {
			refs[len(refs)-1].Name = n.SimpleID()
		}
	}

	ast.Inspect(tu, func(n ast.Node) bool {
		if n.IsInactive() {
			return false
		}
		if name, ok := n.(ast.NameNode); ok {
			add(name, false)
		}
		if !implicit {
			return true
		}
		if owner, ok := n.(ast.ImplicitNameOwner); ok {
			for _, in := range owner.ImplicitNames() {
				add(in, true)
			}
		}
		if owner, ok := n.(ast.ImplicitDestructorNameOwner); ok {
			for _, in := range owner.ImplicitDestructorNames() {
				add(in, true)
			}
		}
		return true
	})
	return refs
}

// position formats the file, line and column where n starts.
func position(tu *ast.TranslationUnit, n ast.Node) string {
	loc, ok := tu.FileLocation(n)
	if !ok {
		return "?"
	}
	col := 1
	if f := tu.Locations.File(loc.File); f != nil {
		col = f.Position(loc.Offset).Column
	}
	return loc.File + ":" + strconv.Itoa(loc.StartLine) + ":" + strconv.Itoa(col)
}

func outputEntity(w io.Writer, doc *document.Document, path, format string) error {
	summary, err := doc.GetEntitySummary(path)
	if err != nil {
		return err
	}
	if format == "json" {
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(summaryJSON(summary))
	}
	fmt.Fprintf(w, "Entity: %s\n", summary.Path)
	fmt.Fprintf(w, "  Kind: %s\n", summary.Kind)
	if summary.Type != "" {
		fmt.Fprintf(w, "  Type: %s\n", summary.Type)
	}
	fmt.Fprintf(w, "  Declarations: %d\n", summary.Declarations)
	fmt.Fprintf(w, "  References: %d\n", summary.References)
	fmt.Fprintf(w, "  Defined: %t\n", summary.Defined)
	if overloads := doc.FindOverloads(path); len(overloads) > 1 {
		fmt.Fprintf(w, "  Overloads: %d\n", len(overloads))
	}
	return nil
}

type entityJSON struct {
	Path         string `json:"path"`
	Kind         string `json:"kind"`
	Type         string `json:"type,omitempty"`
	Declarations int    `json:"declarations"`
	References   int    `json:"references"`
	Defined      bool   `json:"defined"`
}

func summaryJSON(s *document.EntitySummary) entityJSON {
	return entityJSON{
		Path:         s.Path,
		Kind:         s.Kind.String(),
		Type:         s.Type,
		Declarations: s.Declarations,
		References:   s.References,
		Defined:      s.Defined,
	}
}

func outputEntities(w io.Writer, doc *document.Document, format string) error {
	summaries := doc.Summaries()
	stats := doc.GetResolutionStats()

	if format == "json" {
		list := make([]entityJSON, 0, len(summaries))
		for _, s := range summaries {
			list = append(list, summaryJSON(s))
		}
		output := map[string]interface{}{
			"filename": doc.GetFilename(),
			"entities": list,
			"stats":    stats,
			"coverage": stats.Coverage(),
		}
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(output)
	}

	data := pterm.TableData{{"Entity", "Kind", "Type", "Decls", "Refs", "Defined"}}
	for _, s := range summaries {
		data = append(data, []string{
			s.Path,
			s.Kind.String(),
			s.Type,
			strconv.Itoa(s.Declarations),
			strconv.Itoa(s.References),
			strconv.FormatBool(s.Defined),
		})
	}
	table, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}
	fmt.Fprintln(w, table)
	fmt.Fprintln(w)
	fmt.Fprintln(w, doc.String())
	fmt.Fprintf(w, "Names: %d resolved, %d unresolved, %d dependent\n",
		stats.ResolvedNames, stats.ProblemNames, stats.DependentNames)
	return nil
}
