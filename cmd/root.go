// pxmkit generate, pxmkit package
package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/veralux/pxmkit/internal/msg"
	"github.com/veralux/pxmkit/internal/platform"
	"github.com/veralux/pxmkit/internal/project"
)

var (
	flagRepoRoot string
	flagConfig   string
)

var rootCmd = &cobra.Command{
	Use:   "pxmkit",
	Short: "PixInsight module build-file generator and release packager",
	Long: `pxmkit maintains the build and release plumbing of a PixInsight module
repository: it generates the per-platform build files (makefiles and Visual
Studio project files) from the source tree, and packages built binaries into
checksummed release archives with an updates.xri manifest.`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagRepoRoot, "repo-root", "",
		"repository root path (default: enclosing git worktree, else cwd)")
	rootCmd.PersistentFlags().StringVarP(&flagConfig, "config", "c", project.DefaultConfigFilename,
		"path to the module configuration file, relative to the repository root")
}

// platformFlag builds the platform selector shared by both subcommands.
func platformFlag() EnumValue {
	return NewEnumValue("all", map[string]string{
		"all":     "All supported platforms (default)",
		"linux":   "Linux/g++ x64",
		"macosx":  "macOS/clang++ x64",
		"windows": "Windows/vc17 x64",
	})
}

// selectedPlatforms expands the platform flag value into target identifiers.
func selectedPlatforms(value string) []platform.ID {
	if value == "all" {
		return platform.All()
	}
	id, err := platform.Parse(value)
	if err != nil {
		msg.Fatal("%v", err)
	}
	return []platform.ID{id}
}

// loadProject resolves the repository root and loads its configuration;
// any failure aborts the run.
func loadProject() (string, *project.Config) {
	root, err := project.DetectRoot(flagRepoRoot)
	if err != nil {
		msg.Fatal("%v", err)
	}

	cfgPath := flagConfig
	if !filepath.IsAbs(cfgPath) {
		cfgPath = filepath.Join(root, cfgPath)
	}
	cfg, err := project.Load(cfgPath, project.NewEnv())
	if err != nil {
		msg.Fatal("load %s: %v", cfgPath, err)
	}

	return root, cfg
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
