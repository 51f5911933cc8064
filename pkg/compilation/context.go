// Package compilation provides the Context shared by the stages of one
// analysis: configuration, macro table, scope arena, diagnostic sink and the
// provider used to read included files.
package compilation

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"cppsema/pkg/ast"
	"cppsema/pkg/config"
	"cppsema/pkg/diag"
	"cppsema/pkg/scope"
)

// FileProvider reads the files of a translation unit.
type FileProvider interface {
	ReadFile(path string) (string, error)
	Exists(path string) bool
}

// OSFiles reads files from the file system.
type OSFiles struct{}

func (OSFiles) ReadFile(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return string(b), nil
}

func (OSFiles) Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// MemoryFiles serves files from a map. It is safe for concurrent reads.
type MemoryFiles struct {
	mu    sync.RWMutex
	files map[string]string
}

// NewMemoryFiles creates a provider holding the given files.
func NewMemoryFiles(files map[string]string) *MemoryFiles {
	m := &MemoryFiles{files: make(map[string]string, len(files))}
	for k, v := range files {
		m.files[filepath.Clean(k)] = v
	}
	return m
}

// Add stores a file.
func (m *MemoryFiles) Add(path, content string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[filepath.Clean(path)] = content
}

func (m *MemoryFiles) ReadFile(path string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	content, ok := m.files[filepath.Clean(path)]
	if !ok {
		return "", fmt.Errorf("file not found: %s", path)
	}
	return content, nil
}

func (m *MemoryFiles) Exists(path string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.files[filepath.Clean(path)]
	return ok
}

// Context is passed to every stage of the pipeline. A Context belongs to a
// single translation unit; analyses of different files use different
// contexts.
type Context struct {
	Config      *config.Config
	Macros      *ast.MacroTable
	Scopes      *scope.Arena
	Diagnostics *diag.Sink
	Files       FileProvider
}

// Option configures a Context.
type Option func(*Context)

// WithFiles sets the file provider.
func WithFiles(fp FileProvider) Option {
	return func(c *Context) { c.Files = fp }
}

// WithConfig sets the configuration.
func WithConfig(cfg *config.Config) Option {
	return func(c *Context) { c.Config = cfg }
}

// NewContext creates a context with the default configuration reading from
// the file system, unless options say otherwise.
func NewContext(opts ...Option) *Context {
	c := &Context{
		Config:      config.Default(),
		Macros:      ast.NewMacroTable(),
		Scopes:      scope.NewArena(),
		Diagnostics: diag.NewSink(),
		Files:       OSFiles{},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Report records a diagnostic in the sink.
func (c *Context) Report(kind diag.Kind, offset, length int, arg string) {
	c.Diagnostics.Report(kind, offset, length, arg)
}

// ResolveInclude finds an included file. Quoted includes are searched
// relative to the including file first, then in the include paths.
func (c *Context) ResolveInclude(path string, system bool, includer string) (string, bool) {
	if filepath.IsAbs(path) {
		return path, c.Files.Exists(path)
	}
	if !system && includer != "" {
		p := filepath.Join(filepath.Dir(includer), path)
		if c.Files.Exists(p) {
			return p, true
		}
	}
	for _, dir := range c.Config.IncludePaths {
		p := filepath.Join(dir, path)
		if c.Files.Exists(p) {
			return p, true
		}
	}
	return "", false
}
