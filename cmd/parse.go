package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"cppsema/pkg/formatter"
	"cppsema/pkg/frontend"
	"cppsema/pkg/report"
)

var parseCmd = &cobra.Command{
	Use:   "parse [file]",
	Short: "Parse a C or C++ file and output the AST",
	Long: `Preprocess and parse a translation unit and print its AST. Every node is
shown with its range in the expanded source and its file and line.
The output can be in JSON format for further processing, an indented
human-readable listing, or a drawn tree.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		filename := args[0]

		ctx, err := newContext()
		if err != nil {
			return err
		}
		res, err := frontend.AnalyzeFile(ctx, filename)
		if err != nil {
			return err
		}

		format, _ := cmd.Flags().GetString("format")
		var opts []formatter.Option
		if v, _ := cmd.Flags().GetBool("inactive"); v {
			opts = append(opts, formatter.WithInactive())
		}
		if v, _ := cmd.Flags().GetBool("bindings"); v {
			opts = append(opts, formatter.WithBindings())
		}
		if v, _ := cmd.Flags().GetBool("implicit"); v {
			opts = append(opts, formatter.WithImplicitNames())
		}
		f := formatter.New(opts...)

		out := cmd.OutOrStdout()
		switch format {
		case "json":
			return outputJSON(out, f, res)
		case "tree":
			tree, err := report.Tree(f.Tree(res.Unit))
			if err != nil {
				return fmt.Errorf("failed to render tree: %w", err)
			}
			fmt.Fprint(out, tree)
			return nil
		case "human":
			return outputHuman(out, f, res)
		default:
			return fmt.Errorf("unknown format %q", format)
		}
	},
}

func init() {
	parseCmd.Flags().StringP("format", "f", "human", "Output format (human, json, tree)")
	parseCmd.Flags().Bool("inactive", false, "Include code of untaken conditional branches")
	parseCmd.Flags().Bool("bindings", false, "Annotate names with the entities they resolve to")
	parseCmd.Flags().Bool("implicit", false, "List implicit constructor, destructor and operator calls")
}

func outputJSON(w io.Writer, f *formatter.Formatter, res *frontend.Result) error {
	type jsonDiagnostic struct {
		ID     string `json:"id"`
		Offset int    `json:"offset"`
		Length int    `json:"length"`
		Arg    string `json:"arg,omitempty"`
	}

	var diagnostics []jsonDiagnostic
	for _, d := range res.Diagnostics() {
		diagnostics = append(diagnostics, jsonDiagnostic{
			ID:     d.Kind.ID(),
			Offset: d.Offset,
			Length: d.Length,
			Arg:    d.Arg,
		})
	}

	output := map[string]interface{}{
		"filename":    res.Unit.FileName,
		"ast":         f.Tree(res.Unit),
		"diagnostics": diagnostics,
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(output)
}

func outputHuman(w io.Writer, f *formatter.Formatter, res *frontend.Result) error {
	fmt.Fprintf(w, "Parsed file: %s\n", res.Unit.FileName)
	fmt.Fprintf(w, "=====================================\n\n")

	root := f.Tree(res.Unit)
	fmt.Fprint(w, f.FormatTree(res.Unit))

	fmt.Fprintf(w, "\nSummary:\n")
	fmt.Fprintf(w, "--------\n")
	fmt.Fprintf(w, "Declarations: %d\n", len(res.Unit.Decls))
	fmt.Fprintf(w, "Inactive declarations: %d\n", len(res.Unit.InactiveDecls))
	fmt.Fprintf(w, "Macro expansions: %d\n", len(res.Unit.Expansions))
	fmt.Fprintf(w, "Nodes: %d\n", formatter.Count(root))
	fmt.Fprintf(w, "Diagnostics: %d\n", len(res.Diagnostics()))
	return nil
}
