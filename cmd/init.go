package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"cppsema/pkg/config"
)

var initCmd = &cobra.Command{
	Use:   "init [flags] <directory>",
	Short: "Create a .cppsema.yaml configuration file by scanning the codebase",
	Long: `Create a configuration file by scanning the C and C++ files in a directory.

The language mode is C when only .c and .h files are found, C++ otherwise.
Every directory holding headers, relative to the target directory, is added
to the include search path. Macros given with -D are stored as defines.

Examples:
  # Initialize .cppsema.yaml for the current directory
  cppsema init .

  # Write TOML instead and predefine a macro
  cppsema init --format toml -D NDEBUG src/`,
	Args: cobra.ExactArgs(1),
	RunE: runInit,
}

var (
	overwrite  bool
	initFormat string
)

// Source file extensions by language.
var (
	cExtensions   = []string{".c", ".h"}
	cxxExtensions = []string{".cpp", ".cc", ".cxx", ".c++", ".hpp", ".hh", ".hxx", ".inl"}
	headerExts    = []string{".h", ".hpp", ".hh", ".hxx", ".inl"}
)

func init() {
	initCmd.Flags().BoolVar(&overwrite, "overwrite", false, "Overwrite an existing configuration file")
	initCmd.Flags().StringVar(&initFormat, "format", "yaml", "Configuration format (yaml, toml)")
}

func runInit(cmd *cobra.Command, args []string) error {
	targetDir := args[0]
	p := newPrinter(cmd)

	var name string
	switch initFormat {
	case "yaml":
		name = ".cppsema.yaml"
	case "toml":
		name = ".cppsema.toml"
	default:
		return fmt.Errorf("unknown format %q", initFormat)
	}
	path := filepath.Join(targetDir, name)
	if _, err := os.Stat(path); err == nil && !overwrite {
		return fmt.Errorf("%s already exists, use --overwrite to replace it", path)
	}

	files, err := findSourceFiles(targetDir)
	if err != nil {
		return fmt.Errorf("failed to scan %s: %w", targetDir, err)
	}
	if len(files) == 0 {
		return fmt.Errorf("no C or C++ files found in %s", targetDir)
	}
	p.InfoMessage("Scan", fmt.Sprintf("found %d source files", len(files)))

	cfg := config.Default()
	cfg.Language = detectLanguage(files)
	cfg.IncludePaths = includeDirs(targetDir, files)
	if err := cfg.ApplyDefines(defineFlags); err != nil {
		return fmt.Errorf("invalid -D flag: %w", err)
	}
	if err := cfg.Save(path); err != nil {
		return err
	}

	p.InfoMessage("Language", cfg.Language)
	if len(cfg.IncludePaths) > 0 {
		p.InfoMessage("Include", strings.Join(cfg.IncludePaths, ", "))
	}
	p.InfoMessage("Done", "wrote "+path)
	return nil
}

// findSourceFiles lists the C and C++ files below targetDir, skipping build
// output and third party trees.
func findSourceFiles(targetDir string) ([]string, error) {
	var files []string

	excludeDirs := map[string]bool{"build": true, "vendor": true, "third_party": true, ".git": true, "node_modules": true}

	err := filepath.Walk(targetDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			if path != targetDir && excludeDirs[info.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		if hasExtension(path, cExtensions) || hasExtension(path, cxxExtensions) {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

func hasExtension(path string, exts []string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range exts {
		if ext == e {
			return true
		}
	}
	return false
}

func detectLanguage(files []string) string {
	for _, f := range files {
		if hasExtension(f, cxxExtensions) {
			return config.LanguageCXX
		}
	}
	return config.LanguageC
}

// includeDirs returns the sorted directories holding headers, relative to
// root. Headers directly in root need no entry.
func includeDirs(root string, files []string) []string {
	seen := map[string]bool{}
	var dirs []string
	for _, f := range files {
		if !hasExtension(f, headerExts) {
			continue
		}
		rel, err := filepath.Rel(root, filepath.Dir(f))
		if err != nil || rel == "." || seen[rel] {
			continue
		}
		seen[rel] = true
		dirs = append(dirs, filepath.ToSlash(rel))
	}
	sort.Strings(dirs)
	return dirs
}
