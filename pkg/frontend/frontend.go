// Package frontend runs the analysis pipeline: preprocessing and parsing,
// declaration of entities, name resolution and the diagnostics pass.
package frontend

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"cppsema/pkg/ast"
	"cppsema/pkg/compilation"
	"cppsema/pkg/config"
	"cppsema/pkg/diag"
	"cppsema/pkg/parser"
	"cppsema/pkg/selector"
	"cppsema/pkg/sema"
)

// Result is the analysis of one translation unit.
type Result struct {
	Context  *compilation.Context
	Unit     *ast.TranslationUnit
	Resolver *sema.Resolver
}

// Analyze parses content as the main file of a translation unit, resolves
// every name and records all problems in the diagnostic sink of ctx. The
// tree is always produced, however malformed the input.
func Analyze(ctx *compilation.Context, filename, content string) *Result {
	tu := parser.Parse(ctx, filename, content)
	r := sema.Resolve(ctx, tu)
	sema.Check(ctx, tu)
	return &Result{Context: ctx, Unit: tu, Resolver: r}
}

// AnalyzeFile reads filename through the file provider of ctx and analyzes
// it.
func AnalyzeFile(ctx *compilation.Context, filename string) (*Result, error) {
	content, err := ctx.Files.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", filename, err)
	}
	return Analyze(ctx, filename, content), nil
}

// Diagnostics returns the recorded problems ordered by offset.
func (r *Result) Diagnostics() []diag.Diagnostic {
	return r.Context.Diagnostics.Sorted()
}

// HasErrors reports whether any problem of error severity was recorded.
func (r *Result) HasErrors() bool {
	return r.Context.Diagnostics.HasErrors()
}

// Selector returns a selector over the analyzed unit.
func (r *Result) Selector(opts ...selector.Option) *selector.Selector {
	return selector.New(r.Unit, opts...)
}

// Options configures AnalyzeFiles.
type Options struct {
	Config *config.Config
	Files  compilation.FileProvider
	// Jobs bounds the number of files analyzed at once. Zero or less means
	// one.
	Jobs int
}

// AnalyzeFiles analyzes several translation units concurrently. Every unit
// gets its own context; the config is shared read-only. Results are in the
// order of filenames. The first file that cannot be read cancels the rest.
func AnalyzeFiles(ctx context.Context, filenames []string, opts Options) ([]*Result, error) {
	if opts.Config == nil {
		opts.Config = config.Default()
	}
	if opts.Files == nil {
		opts.Files = compilation.OSFiles{}
	}
	jobs := opts.Jobs
	if jobs < 1 {
		jobs = 1
	}

	results := make([]*Result, len(filenames))
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)
	for i, name := range filenames {
		i, name := i, name
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			cc := compilation.NewContext(
				compilation.WithConfig(opts.Config),
				compilation.WithFiles(opts.Files),
			)
			res, err := AnalyzeFile(cc, name)
			if err != nil {
				return err
			}
			mu.Lock()
			results[i] = res
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
