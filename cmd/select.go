package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"cppsema/pkg/ast"
	"cppsema/pkg/formatter"
	"cppsema/pkg/frontend"
	"cppsema/pkg/selector"
)

var selectCmd = &cobra.Command{
	Use:   "select [file]",
	Short: "Find the node at a range of the expanded source",
	Long: `Find the AST node that corresponds to a range of the expanded source of a
translation unit and print it with its binding and where its text was written.

Modes:
  contained  smallest node inside the range
  enclosing  smallest node covering the range
  name       name whose range is exactly the range
  node       node whose range is exactly the range
  macro      innermost macro expansion covering the range`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		offset, _ := cmd.Flags().GetInt("offset")
		length, _ := cmd.Flags().GetInt("length")
		modeName, _ := cmd.Flags().GetString("mode")
		mode, err := selector.ParseMode(modeName)
		if err != nil {
			return err
		}

		ctx, err := newContext()
		if err != nil {
			return err
		}
		res, err := frontend.AnalyzeFile(ctx, args[0])
		if err != nil {
			return err
		}

		var opts []selector.Option
		if v, _ := cmd.Flags().GetBool("inactive"); v {
			opts = append(opts, selector.WithInactive())
		}
		s := res.Selector(opts...)
		n, err := s.Select(offset, length, mode)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if n == nil {
			fmt.Fprintf(out, "No %s node at %d+%d\n", mode, offset, length)
			return nil
		}

		fmt.Fprint(out, formatter.New(formatter.WithBindings()).FormatNode(res.Unit, n))
		fmt.Fprintf(out, "Text: %q\n", res.Unit.RawText(n))
		img := s.ImageLocation(n)
		fmt.Fprintf(out, "Image: %s in %s at %d+%d\n", img.Kind, img.File, img.Offset, img.Length)
		if loc, ok := res.Unit.FileLocation(n); ok {
			fmt.Fprintf(out, "Location: %s\n", loc)
		}
		if e, ok := n.(*ast.MacroExpansion); ok && e.Macro != nil {
			fmt.Fprintf(out, "Macro: %s\n", e.Macro.Name)
		}
		return nil
	},
}

func init() {
	selectCmd.Flags().Int("offset", 0, "Start of the range in the expanded source")
	selectCmd.Flags().Int("length", 0, "Length of the range")
	selectCmd.Flags().StringP("mode", "m", selector.Enclosing.String(), "Selection mode (contained, enclosing, name, node, macro)")
	selectCmd.Flags().Bool("inactive", false, "Allow selecting nodes of untaken conditional branches")
}
