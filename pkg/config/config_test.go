package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.True(t, cfg.IsCPlusPlus())
	assert.Equal(t, DefaultMaxNestingDepth, cfg.MaxNestingDepth)
	assert.Empty(t, cfg.Defines)
}

func TestParseYAML(t *testing.T) {
	cfg, err := ParseYAML([]byte(`
language: c
defines:
  DEBUG: "1"
  VERSION: "3"
include_paths:
  - include
max_nesting_depth: 64
check_access: true
`))
	require.NoError(t, err)
	assert.False(t, cfg.IsCPlusPlus())
	assert.Equal(t, map[string]string{"DEBUG": "1", "VERSION": "3"}, cfg.Defines)
	assert.Equal(t, []string{"include"}, cfg.IncludePaths)
	assert.Equal(t, 64, cfg.MaxNestingDepth)
	assert.Equal(t, DefaultMaxTokens, cfg.MaxTokens)
	assert.True(t, cfg.CheckAccess)
}

func TestParseTOML(t *testing.T) {
	cfg, err := ParseTOML([]byte(`
language = "cpp"
include_paths = ["a", "b"]
max_macro_expansion_depth = 16

[defines]
FOO = "2"
`))
	require.NoError(t, err)
	assert.Equal(t, LanguageCXX, cfg.Language)
	assert.Equal(t, []string{"a", "b"}, cfg.IncludePaths)
	assert.Equal(t, 16, cfg.MaxMacroExpansionDepth)
	assert.Equal(t, "2", cfg.Defines["FOO"])
}

func TestParseRejectsBadInput(t *testing.T) {
	_, err := ParseYAML([]byte("language: fortran\n"))
	assert.Error(t, err)

	_, err = ParseYAML([]byte("defines:\n  1BAD: x\n"))
	assert.Error(t, err)

	_, err = ParseTOML([]byte("language = \n"))
	assert.Error(t, err)
}

func TestParseDefine(t *testing.T) {
	tests := []struct {
		in    string
		name  string
		value string
		ok    bool
	}{
		{"FOO", "FOO", "1", true},
		{"-DBAR=2", "BAR", "2", true},
		{"EMPTY=", "EMPTY", "", true},
		{"F(x)=x", "", "", false},
		{"9X", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			name, value, err := ParseDefine(tt.in)
			if !tt.ok {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.name, name)
			assert.Equal(t, tt.value, value)
		})
	}
}

func TestApplyDefinesAndUndefines(t *testing.T) {
	cfg := Default()
	err := cfg.ApplyDefines([]string{"A", "B=2", "bad name"})
	assert.Error(t, err)
	assert.Equal(t, []string{"A", "B"}, cfg.DefineNames())

	cfg.ApplyUndefines([]string{"-UA"})
	assert.Equal(t, []string{"B"}, cfg.DefineNames())
	assert.Equal(t, []string{"A"}, cfg.Undefines)

	clone := cfg.Clone()
	clone.Defines["C"] = "3"
	assert.NotContains(t, cfg.Defines, "C")
}

func TestLoadAndFind(t *testing.T) {
	dir := t.TempDir()
	nested := filepath.Join(dir, "src", "lib")
	require.NoError(t, os.MkdirAll(nested, 0o755))
	path := filepath.Join(dir, ".cppsema.toml")
	require.NoError(t, os.WriteFile(path, []byte("check_access = true\n"), 0o644))

	found, ok := Find(nested)
	require.True(t, ok)
	assert.Equal(t, path, found)

	cfg, err := Load(found)
	require.NoError(t, err)
	assert.True(t, cfg.CheckAccess)

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestSaveIsReadBackByLoad(t *testing.T) {
	dir := t.TempDir()
	cfg := Default()
	cfg.Language = LanguageC
	cfg.IncludePaths = []string{"include"}
	cfg.CheckAccess = true
	require.NoError(t, cfg.ApplyDefines([]string{"DEBUG", "LEVEL=2"}))

	for _, name := range []string{".cppsema.yaml", ".cppsema.toml"} {
		path := filepath.Join(dir, name)
		require.NoError(t, cfg.Save(path))

		loaded, err := Load(path)
		require.NoError(t, err, name)
		assert.False(t, loaded.IsCPlusPlus(), name)
		assert.Equal(t, cfg.IncludePaths, loaded.IncludePaths, name)
		assert.Equal(t, cfg.Defines, loaded.Defines, name)
		assert.True(t, loaded.CheckAccess, name)
	}
}
