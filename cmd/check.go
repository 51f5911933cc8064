package cmd

import (
	"encoding/json"
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"cppsema/pkg/ast"
	"cppsema/pkg/compilation"
	"cppsema/pkg/frontend"
	"cppsema/pkg/report"
)

var checkCmd = &cobra.Command{
	Use:   "check [files...]",
	Short: "Report the problems found in one or more files",
	Long: `Analyze each file as its own translation unit and report every lexical,
preprocessor, syntax and semantic problem with the offending source lines.
Files are analyzed concurrently. The exit status is 1 if any error was found.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		jobs, _ := cmd.Flags().GetInt("jobs")
		format, _ := cmd.Flags().GetString("format")

		results, err := frontend.AnalyzeFiles(cmd.Context(), args, frontend.Options{
			Config: cfg,
			Files:  compilation.OSFiles{},
			Jobs:   jobs,
		})
		if err != nil {
			return err
		}

		errorCount, warningCount := 0, 0
		for _, res := range results {
			e, w := report.Count(res.Diagnostics())
			errorCount += e
			warningCount += w
		}

		switch format {
		case "json":
			if err := outputCheckJSON(cmd, results); err != nil {
				return err
			}
		case "human":
			p := newPrinter(cmd)
			for _, res := range results {
				p.Diagnostics(res.Unit, res.Diagnostics())
			}
			p.Summary(len(results), errorCount, warningCount)
		default:
			return fmt.Errorf("unknown format %q", format)
		}

		if errorCount > 0 {
			return errProblemsFound
		}
		return nil
	},
}

func init() {
	checkCmd.Flags().IntP("jobs", "j", runtime.NumCPU(), "Number of files analyzed at once")
	checkCmd.Flags().StringP("format", "f", "human", "Output format (human, json)")
}

func outputCheckJSON(cmd *cobra.Command, results []*frontend.Result) error {
	type jsonDiagnostic struct {
		ID       string `json:"id"`
		Severity string `json:"severity"`
		File     string `json:"file"`
		Line     int    `json:"line"`
		Offset   int    `json:"offset"`
		Length   int    `json:"length"`
		Arg      string `json:"arg,omitempty"`
	}
	type jsonFile struct {
		Filename    string           `json:"filename"`
		Diagnostics []jsonDiagnostic `json:"diagnostics"`
	}

	files := make([]jsonFile, 0, len(results))
	for _, res := range results {
		jf := jsonFile{Filename: res.Unit.FileName, Diagnostics: []jsonDiagnostic{}}
		for _, d := range res.Diagnostics() {
			jd := jsonDiagnostic{
				ID:       d.Kind.ID(),
				Severity: d.Kind.Severity().String(),
				File:     res.Unit.FileName,
				Offset:   d.Offset,
				Length:   d.Length,
				Arg:      d.Arg,
			}
			if loc, ok := res.Unit.Locations.FileLocation(ast.Range{Offset: d.Offset, Length: d.Length}); ok {
				jd.File = loc.File
				jd.Line = loc.StartLine
			}
			jf.Diagnostics = append(jf.Diagnostics, jd)
		}
		files = append(files, jf)
	}

	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	return encoder.Encode(files)
}
