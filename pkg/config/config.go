// Package config holds the analysis configuration: language mode,
// predefined macros, include search paths and resource limits. It is read
// from .cppsema.yaml or .cppsema.toml and refined by command line flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/pelletier/go-toml"
	"gopkg.in/yaml.v2"
)

// Language modes.
const (
	LanguageC   = "c"
	LanguageCXX = "c++"
)

// Default limits.
const (
	DefaultMaxNestingDepth        = 256
	DefaultMaxMacroExpansionDepth = 256
	DefaultMaxIncludeDepth        = 64
	DefaultMaxTokens              = 1000000
)

// FileNames lists the configuration files looked up by Find, in order.
var FileNames = []string{".cppsema.yaml", ".cppsema.yml", ".cppsema.toml"}

// Config is the configuration of one analysis.
type Config struct {
	Language               string            `yaml:"language,omitempty" toml:"language,omitempty"`
	Defines                map[string]string `yaml:"defines,omitempty" toml:"defines,omitempty"`
	Undefines              []string          `yaml:"undefines,omitempty" toml:"undefines,omitempty"`
	IncludePaths           []string          `yaml:"include_paths,omitempty" toml:"include_paths,omitempty"`
	MaxNestingDepth        int               `yaml:"max_nesting_depth,omitempty" toml:"max_nesting_depth,omitempty"`
	MaxMacroExpansionDepth int               `yaml:"max_macro_expansion_depth,omitempty" toml:"max_macro_expansion_depth,omitempty"`
	MaxIncludeDepth        int               `yaml:"max_include_depth,omitempty" toml:"max_include_depth,omitempty"`
	MaxTokens              int               `yaml:"max_tokens,omitempty" toml:"max_tokens,omitempty"`
	CheckAccess            bool              `yaml:"check_access,omitempty" toml:"check_access,omitempty"`
}

// Default returns a C++ configuration with the default limits.
func Default() *Config {
	return &Config{
		Language:               LanguageCXX,
		Defines:                map[string]string{},
		MaxNestingDepth:        DefaultMaxNestingDepth,
		MaxMacroExpansionDepth: DefaultMaxMacroExpansionDepth,
		MaxIncludeDepth:        DefaultMaxIncludeDepth,
		MaxTokens:              DefaultMaxTokens,
	}
}

// IsCPlusPlus reports whether the configuration selects C++.
func (c *Config) IsCPlusPlus() bool {
	return c.Language != LanguageC
}

// Load reads a configuration file. The format is chosen by extension:
// .toml files are TOML, everything else is YAML. Unset fields keep their
// defaults.
func Load(path string) (*Config, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		return ParseTOML(content)
	}
	return ParseYAML(content)
}

// ParseYAML decodes a YAML configuration.
func ParseYAML(content []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(content, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}
	return cfg, cfg.normalize()
}

// ParseTOML decodes a TOML configuration.
func ParseTOML(content []byte) (*Config, error) {
	cfg := Default()
	if err := toml.Unmarshal(content, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse TOML config: %w", err)
	}
	return cfg, cfg.normalize()
}

// Find looks for a configuration file in dir and its parents.
func Find(dir string) (string, bool) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", false
	}
	for {
		for _, name := range FileNames {
			p := filepath.Join(abs, name)
			if info, err := os.Stat(p); err == nil && !info.IsDir() {
				return p, true
			}
		}
		parent := filepath.Dir(abs)
		if parent == abs {
			return "", false
		}
		abs = parent
	}
}

func (c *Config) normalize() error {
	if c.Defines == nil {
		c.Defines = map[string]string{}
	}
	c.Language = strings.ToLower(c.Language)
	switch c.Language {
	case "":
		c.Language = LanguageCXX
	case "cpp", "cxx":
		c.Language = LanguageCXX
	case LanguageC, LanguageCXX:
	default:
		return fmt.Errorf("unknown language %q", c.Language)
	}
	if c.MaxNestingDepth <= 0 {
		c.MaxNestingDepth = DefaultMaxNestingDepth
	}
	if c.MaxMacroExpansionDepth <= 0 {
		c.MaxMacroExpansionDepth = DefaultMaxMacroExpansionDepth
	}
	if c.MaxIncludeDepth <= 0 {
		c.MaxIncludeDepth = DefaultMaxIncludeDepth
	}
	if c.MaxTokens <= 0 {
		c.MaxTokens = DefaultMaxTokens
	}
	for name := range c.Defines {
		if !MacroIdentifierRegex.MatchString(name) {
			return fmt.Errorf("invalid macro name %q", name)
		}
	}
	return nil
}

// MacroIdentifierRegex matches a valid macro name.
var MacroIdentifierRegex = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ParseDefine splits a -D style definition, NAME or NAME=VALUE. A bare name
// is defined as 1.
func ParseDefine(definition string) (name, value string, err error) {
	definition = strings.TrimPrefix(definition, "-D")
	name, value = definition, "1"
	if eq := strings.Index(definition, "="); eq >= 0 {
		name, value = definition[:eq], definition[eq+1:]
	}
	if !MacroIdentifierRegex.MatchString(name) {
		return "", "", fmt.Errorf("invalid macro name %q", name)
	}
	return name, value, nil
}

// ApplyDefines adds -D style definitions. Every malformed definition is
// reported; the valid ones are applied regardless.
func (c *Config) ApplyDefines(definitions []string) error {
	if c.Defines == nil {
		c.Defines = map[string]string{}
	}
	var errs []error
	for _, d := range definitions {
		name, value, err := ParseDefine(d)
		if err != nil {
			errs = append(errs, fmt.Errorf("failed to parse %s: %w", d, err))
			continue
		}
		c.Defines[name] = value
	}
	return errors.Join(errs...)
}

// ApplyUndefines removes macros, including ones defined by ApplyDefines.
func (c *Config) ApplyUndefines(names []string) {
	for _, n := range names {
		n = strings.TrimPrefix(n, "-U")
		delete(c.Defines, n)
		c.Undefines = append(c.Undefines, n)
	}
}

// DefineNames returns the configured macro names in sorted order.
func (c *Config) DefineNames() []string {
	names := make([]string, 0, len(c.Defines))
	for n := range c.Defines {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	out := *c
	out.Defines = make(map[string]string, len(c.Defines))
	for k, v := range c.Defines {
		out.Defines[k] = v
	}
	out.Undefines = append([]string(nil), c.Undefines...)
	out.IncludePaths = append([]string(nil), c.IncludePaths...)
	return &out
}

// Marshal encodes the configuration in the format chosen by the extension
// of path, as Load would read it.
func (c *Config) Marshal(path string) ([]byte, error) {
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		out, err := toml.Marshal(*c)
		if err != nil {
			return nil, fmt.Errorf("failed to encode TOML config: %w", err)
		}
		return out, nil
	}
	out, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("failed to encode YAML config: %w", err)
	}
	return out, nil
}

// Save writes the configuration to path.
func (c *Config) Save(path string) error {
	out, err := c.Marshal(path)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, out, 0644); err != nil {
		return fmt.Errorf("failed to write config %s: %w", path, err)
	}
	return nil
}
