// pxmkit generate
package cmd

import (
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/veralux/pxmkit/internal/gen"
	"github.com/veralux/pxmkit/internal/msg"
	"github.com/veralux/pxmkit/internal/scan"
)

var flagGenPlatform = platformFlag()

func doGenerate(cmd *cobra.Command, args []string) {
	root, cfg := loadProject()
	msg.Info("repository root: %s", root)

	srcDir := filepath.Join(root, "src")
	sources, err := scan.Scan(srcDir, cfg.Sources.Compile)
	if err != nil {
		msg.Fatal("%v", err)
	}
	headers, err := scan.Scan(srcDir, cfg.Sources.Headers)
	if err != nil {
		msg.Fatal("%v", err)
	}
	resources, err := scan.Scan(root, cfg.Sources.Resources)
	if err != nil {
		msg.Fatal("%v", err)
	}
	msg.Info("found %d source, %d header, %d resource files",
		len(sources), len(headers), len(resources))

	tree := &gen.SourceTree{
		Sources:   sources,
		Headers:   headers,
		Resources: resources,
	}

	for _, id := range selectedPlatforms(flagGenPlatform.Value()) {
		g, err := gen.ForPlatform(id, cfg.Module.Name)
		if err != nil {
			msg.Fatal("%v", err)
		}

		msg.Info("generating build files for %s", id)
		files, err := g.Generate(root, tree, time.Now())
		if err != nil {
			msg.Fatal("generate %s: %v", id, err)
		}
		for _, f := range files {
			msg.Info("  created %s", filepath.ToSlash(f))
		}
	}
}

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate platform build files from the source tree",
	Long: `Discovers the module's source, header and resource files and generates the
build descriptors for the selected platforms: a Makefile/makefile-x64 pair for
linux and macosx, and a .vcxproj/.vcxproj.filters pair for windows. Existing
build files are overwritten.`,
	Args: cobra.NoArgs,
	Run:  doGenerate,
}

func init() {
	rootCmd.AddCommand(generateCmd)
	generateCmd.Flags().VarP(&flagGenPlatform, "platform", "p", "Target platform, one of "+flagGenPlatform.HelpString())
	generateCmd.RegisterFlagCompletionFunc("platform", flagGenPlatform.CompletionFunc())
}
