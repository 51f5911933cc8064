package compilation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cppsema/pkg/config"
)

func TestNewContextDefaults(t *testing.T) {
	c := NewContext()
	require.NotNil(t, c.Config)
	assert.True(t, c.Config.IsCPlusPlus())
	assert.Equal(t, 0, c.Macros.Len())
	assert.Equal(t, 0, c.Scopes.Len())
	assert.Equal(t, 0, c.Diagnostics.Len())
	assert.IsType(t, OSFiles{}, c.Files)
}

func TestResolveInclude(t *testing.T) {
	files := NewMemoryFiles(map[string]string{
		"src/local.h":     "",
		"include/sys.h":   "",
		"include/local.h": "",
	})
	cfg := config.Default()
	cfg.IncludePaths = []string{"include"}
	c := NewContext(WithFiles(files), WithConfig(cfg))

	p, ok := c.ResolveInclude("local.h", false, "src/main.cpp")
	require.True(t, ok)
	assert.Equal(t, "src/local.h", p)

	p, ok = c.ResolveInclude("local.h", true, "src/main.cpp")
	require.True(t, ok)
	assert.Equal(t, "include/local.h", p)

	p, ok = c.ResolveInclude("sys.h", false, "src/main.cpp")
	require.True(t, ok)
	assert.Equal(t, "include/sys.h", p)

	_, ok = c.ResolveInclude("missing.h", false, "src/main.cpp")
	assert.False(t, ok)
}

func TestMemoryFiles(t *testing.T) {
	files := NewMemoryFiles(nil)
	files.Add("./a.h", "int a;")
	content, err := files.ReadFile("a.h")
	require.NoError(t, err)
	assert.Equal(t, "int a;", content)

	_, err = files.ReadFile("b.h")
	assert.Error(t, err)
}
