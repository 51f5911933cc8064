package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"cppsema/pkg/compilation"
	"cppsema/pkg/config"
	"cppsema/pkg/report"
)

// Version information
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// errProblemsFound is returned by commands whose input had errors. The
// problems themselves have been printed already.
var errProblemsFound = errors.New("problems found")

var rootCmd = &cobra.Command{
	Use:   "cppsema",
	Short: "Semantic analysis front end for C and C++ sources",
	Long: `cppsema preprocesses and parses a C or C++ translation unit, builds an
AST that keeps every node tied to its source range, and resolves each name to
the entity it denotes: overloads, templates, implicit constructor, destructor
and operator calls included. Malformed code never stops the analysis;
problems are reported as diagnostics.`,
	Version:       getVersionString(),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if noColor {
			pterm.DisableStyling()
		} else {
			pterm.EnableStyling()
		}
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "cppsema %s\n", getVersionString())
		fmt.Fprintf(out, "  Version: %s\n", version)
		fmt.Fprintf(out, "  Commit:  %s\n", commit)
		fmt.Fprintf(out, "  Date:    %s\n", date)
	},
}

// Flags shared by every analysis command.
var (
	defineFlags   []string
	undefineFlags []string
	includeFlags  []string
	configPath    string
	languageFlag  string
	checkAccess   bool
	noColor       bool
)

func getVersionString() string {
	if version == "dev" {
		return fmt.Sprintf("%s (%s)", version, commit)
	}
	return version
}

func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
	rootCmd.Version = getVersionString()
}

// Execute runs the command line. Errors other than errProblemsFound are
// printed here.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil && !errors.Is(err, errProblemsFound) {
		report.NewPrinter(os.Stderr, !noColor).ErrorMessage("Error", err)
	}
	return err
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringArrayVarP(&defineFlags, "define", "D", nil, "Define a macro (NAME or NAME=VALUE)")
	pf.StringArrayVarP(&undefineFlags, "undefine", "U", nil, "Undefine a macro")
	pf.StringArrayVarP(&includeFlags, "include", "I", nil, "Add a directory to the include search path")
	pf.StringVar(&configPath, "config", "", "Configuration file (default: nearest .cppsema.yaml or .cppsema.toml)")
	pf.StringVar(&languageFlag, "lang", "", "Language mode (c, c++)")
	pf.BoolVar(&checkAccess, "check-access", false, "Report uses of inaccessible members")
	pf.BoolVar(&noColor, "no-color", false, "Disable colored output")

	rootCmd.AddCommand(parseCmd)
	rootCmd.AddCommand(resolveCmd)
	rootCmd.AddCommand(selectCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig reads the configuration file, if any, and applies the command
// line flags on top of it.
func loadConfig() (*config.Config, error) {
	var cfg *config.Config
	path := configPath
	if path == "" {
		if found, ok := config.Find("."); ok {
			path = found
		}
	}
	if path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		// Include paths in a file are relative to the file.
		for i, dir := range loaded.IncludePaths {
			if !filepath.IsAbs(dir) {
				loaded.IncludePaths[i] = filepath.Join(filepath.Dir(path), dir)
			}
		}
		cfg = loaded
	} else {
		cfg = config.Default()
	}

	if languageFlag != "" {
		switch languageFlag {
		case config.LanguageC:
			cfg.Language = config.LanguageC
		case config.LanguageCXX, "cpp", "cxx":
			cfg.Language = config.LanguageCXX
		default:
			return nil, fmt.Errorf("unknown language %q", languageFlag)
		}
	}
	if err := cfg.ApplyDefines(defineFlags); err != nil {
		return nil, fmt.Errorf("invalid -D flag: %w", err)
	}
	cfg.ApplyUndefines(undefineFlags)
	cfg.IncludePaths = append(cfg.IncludePaths, includeFlags...)
	if checkAccess {
		cfg.CheckAccess = true
	}
	return cfg, nil
}

// newContext creates the compilation context of one file analysis.
func newContext() (*compilation.Context, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return compilation.NewContext(compilation.WithConfig(cfg)), nil
}

func newPrinter(cmd *cobra.Command) *report.Printer {
	return report.NewPrinter(cmd.OutOrStdout(), !noColor)
}
