package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cppsema/pkg/config"
)

// resetFlags restores every flag of c and its subcommands to its default, so
// that one test run does not leak values into the next.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append(args, "--no-color"))
	err := rootCmd.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

const addSource = `int add(int a, int b) { return a + b; }
int y = add(1, 2);
`

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "cppsema dev")
	assert.Contains(t, out, "Commit:")
}

func TestParseJSON(t *testing.T) {
	file := writeFile(t, t.TempDir(), "x.cpp", "int x = 1;\n")

	out, err := execute(t, "parse", file, "--format", "json")
	require.NoError(t, err)

	var decoded struct {
		Filename string          `json:"filename"`
		AST      json.RawMessage `json:"ast"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.Equal(t, file, decoded.Filename)
	assert.Contains(t, string(decoded.AST), `"SimpleDeclaration"`)
}

func TestParseHuman(t *testing.T) {
	file := writeFile(t, t.TempDir(), "x.cpp", "int x = 1;\n#if 0\nint hidden;\n#endif\n")

	out, err := execute(t, "parse", file)
	require.NoError(t, err)
	assert.Contains(t, out, "Parsed file: "+file)
	assert.Contains(t, out, "Declarations: 1")
	assert.Contains(t, out, "Inactive declarations: 1")
	assert.NotContains(t, out, "hidden")

	out, err = execute(t, "parse", file, "--inactive")
	require.NoError(t, err)
	assert.Contains(t, out, "hidden")
}

func TestParseUnknownFormat(t *testing.T) {
	file := writeFile(t, t.TempDir(), "x.cpp", "int x;\n")

	_, err := execute(t, "parse", file, "--format", "xml")
	assert.EqualError(t, err, `unknown format "xml"`)
}

func TestParseMissingFile(t *testing.T) {
	_, err := execute(t, "parse", filepath.Join(t.TempDir(), "missing.cpp"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load")
}

func TestResolve(t *testing.T) {
	file := writeFile(t, t.TempDir(), "add.cpp", addSource)

	out, err := execute(t, "resolve", file)
	require.NoError(t, err)
	assert.Contains(t, out, "-> function add")
	assert.Contains(t, out, "-> variable y")
	assert.Contains(t, out, file+":2:")
}

func TestResolveEntity(t *testing.T) {
	file := writeFile(t, t.TempDir(), "add.cpp", addSource)

	out, err := execute(t, "resolve", file, "--entity", "add", "--format", "json")
	require.NoError(t, err)

	var entity entityJSON
	require.NoError(t, json.Unmarshal([]byte(out), &entity))
	assert.Equal(t, "add", entity.Path)
	assert.Equal(t, "function", entity.Kind)
	assert.Equal(t, "int(int, int)", entity.Type)
	assert.Equal(t, 1, entity.Declarations)
	assert.Equal(t, 1, entity.References)
	assert.True(t, entity.Defined)

	_, err = execute(t, "resolve", file, "--entity", "sub")
	assert.EqualError(t, err, "entity not found: sub")
}

func TestResolveEntities(t *testing.T) {
	file := writeFile(t, t.TempDir(), "add.cpp", addSource)

	out, err := execute(t, "resolve", file, "--entities")
	require.NoError(t, err)
	assert.Contains(t, out, "add")
	assert.Contains(t, out, "int(int, int)")
	assert.Contains(t, out, "Document[add.cpp]")
	assert.Contains(t, out, "Names:")
}

func TestSelect(t *testing.T) {
	file := writeFile(t, t.TempDir(), "x.cpp", "int x = 1;\n")

	out, err := execute(t, "select", file, "--offset", "4", "--length", "1", "--mode", "name")
	require.NoError(t, err)
	assert.Contains(t, out, "Name [4+1]")
	assert.Contains(t, out, "-> variable x")
	assert.Contains(t, out, `Text: "x"`)
	assert.Contains(t, out, "Image: ")

	_, err = execute(t, "select", file, "--mode", "sideways")
	assert.Error(t, err)
}

func TestCheckClean(t *testing.T) {
	file := writeFile(t, t.TempDir(), "x.cpp", "int x = 1;\n")

	out, err := execute(t, "check", file)
	require.NoError(t, err)
	assert.Contains(t, out, "All clean!")
}

func TestCheckReportsErrors(t *testing.T) {
	dir := t.TempDir()
	good := writeFile(t, dir, "good.cpp", "int x = 1;\n")
	bad := writeFile(t, dir, "bad.cpp", "int x = 1;\nint y = missing;\n")

	out, err := execute(t, "check", good, bad, "--jobs", "2")
	assert.ErrorIs(t, err, errProblemsFound)
	assert.Contains(t, out, "sema.name-not-found: missing")
	assert.Contains(t, out, "int y = missing;")
	assert.Contains(t, out, "Problems found!")
	assert.Contains(t, out, "2 files")
}

func TestCheckJSON(t *testing.T) {
	file := writeFile(t, t.TempDir(), "bad.cpp", "int x = 1;\nint y = missing;\n")

	out, err := execute(t, "check", file, "--format", "json")
	assert.ErrorIs(t, err, errProblemsFound)

	var files []struct {
		Filename    string `json:"filename"`
		Diagnostics []struct {
			ID       string `json:"id"`
			Severity string `json:"severity"`
			Line     int    `json:"line"`
			Arg      string `json:"arg"`
		} `json:"diagnostics"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &files))
	require.Len(t, files, 1)
	require.Len(t, files[0].Diagnostics, 1)
	d := files[0].Diagnostics[0]
	assert.Equal(t, "sema.name-not-found", d.ID)
	assert.Equal(t, "error", d.Severity)
	assert.Equal(t, 2, d.Line)
	assert.Equal(t, "missing", d.Arg)
}

func TestDefineFlag(t *testing.T) {
	file := writeFile(t, t.TempDir(), "w.cpp", "int x = WIDTH;\n")

	_, err := execute(t, "check", file, "-D", "WIDTH=3")
	assert.NoError(t, err)

	// Flags do not leak into the next run.
	_, err = execute(t, "check", file)
	assert.ErrorIs(t, err, errProblemsFound)

	_, err = execute(t, "check", file, "-D", "3WIDTH")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid -D flag")
}

func TestConfigIncludePathsAreRelativeToFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "inc/h.h", "int fromHeader;\n")
	cfgPath := writeFile(t, dir, ".cppsema.yaml", "include_paths:\n  - inc\n")
	file := writeFile(t, dir, "main.cpp", "#include <h.h>\nint y = fromHeader;\n")

	out, err := execute(t, "check", file, "--config", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, out, "All clean!")
}

func TestUnknownLanguage(t *testing.T) {
	file := writeFile(t, t.TempDir(), "x.cpp", "int x;\n")

	_, err := execute(t, "check", file, "--lang", "rust")
	assert.EqualError(t, err, `unknown language "rust"`)
}

func TestInit(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "include/shape.h", "struct Shape {};\n")
	writeFile(t, dir, "src/main.cpp", "#include \"shape.h\"\n")
	writeFile(t, dir, "build/gen.h", "int generated;\n")

	out, err := execute(t, "init", dir, "-D", "NDEBUG")
	require.NoError(t, err)
	assert.Contains(t, out, "found 2 source files")

	cfg, err := config.Load(filepath.Join(dir, ".cppsema.yaml"))
	require.NoError(t, err)
	assert.Equal(t, config.LanguageCXX, cfg.Language)
	assert.Equal(t, []string{"include"}, cfg.IncludePaths)
	assert.Contains(t, cfg.Defines, "NDEBUG")

	_, err = execute(t, "init", dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	_, err = execute(t, "init", dir, "--overwrite")
	assert.NoError(t, err)
}

func TestInitToml(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "lib.c", "int f(void) { return 0; }\n")
	writeFile(t, dir, "lib.h", "int f(void);\n")

	_, err := execute(t, "init", dir, "--format", "toml")
	require.NoError(t, err)

	cfg, err := config.Load(filepath.Join(dir, ".cppsema.toml"))
	require.NoError(t, err)
	assert.Equal(t, config.LanguageC, cfg.Language)
	assert.Empty(t, cfg.IncludePaths)
}

func TestInitEmptyDirectory(t *testing.T) {
	_, err := execute(t, "init", t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no C or C++ files found")
}
