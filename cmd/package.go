// pxmkit package --version X.Y.Z
package cmd

import (
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/veralux/pxmkit/internal/msg"
	"github.com/veralux/pxmkit/internal/release"
)

var (
	flagVersion     string
	flagMinVersion  string
	flagMaxVersion  string
	flagPkgPlatform = platformFlag()
)

func doPackage(cmd *cobra.Command, args []string) {
	root, cfg := loadProject()
	msg.Info("repository root: %s", root)
	msg.Info("packaging %s version %s", cfg.Module.Title, flagVersion)

	minVersion := cfg.Release.MinVersion
	if flagMinVersion != "" {
		minVersion = flagMinVersion
	}
	maxVersion := cfg.Release.MaxVersion
	if flagMaxVersion != "" {
		maxVersion = flagMaxVersion
	}

	distDir := filepath.Join(root, "dist")
	if err := os.MkdirAll(distDir, 0o755); err != nil {
		msg.Fatal("create %s: %v", distDir, err)
	}

	// The run aborts on the first platform that cannot be packaged; the
	// manifest is only ever written after every requested platform
	// succeeded.
	packager := release.NewPackager(cfg.Module.Name, root, distDir)
	now := time.Now()

	var records []release.Record
	for _, id := range selectedPlatforms(flagPkgPlatform.Value()) {
		rec, err := packager.Package(id, flagVersion, now)
		if err != nil {
			msg.Fatal("package %s: %v", id, err)
		}
		msg.Info("packaged %s: %s (%d bytes, sha1 %s)", id, rec.Filename, rec.Size, rec.SHA1)
		records = append(records, *rec)
	}

	meta := release.Meta{
		Title:       cfg.Module.Title,
		Description: release.ExtractDescription(filepath.Join(root, "README.md"), cfg.Module.Description),
		Copyright:   cfg.Module.Copyright,
		Version:     flagVersion,
		MinVersion:  minVersion,
		MaxVersion:  maxVersion,
	}

	manifestPath := filepath.Join(distDir, "updates.xri")
	if err := release.WriteManifest(manifestPath, records, meta); err != nil {
		msg.Fatal("%v", err)
	}

	msg.Info("created %s", filepath.ToSlash(manifestPath))
	msg.Info("created %d package(s):", len(records))
	for _, rec := range records {
		msg.Info("  %s", rec.Filename)
	}
	msg.Info("distribution directory: %s", distDir)
}

var packageCmd = &cobra.Command{
	Use:   "package",
	Short: "Package built binaries into release archives and an update manifest",
	Long: `Archives the compiled module binary and its resources into one tar.gz per
platform under <root>/dist/, computes their SHA-1 digests, and writes the
updates.xri manifest listing every package. The run fails outright if any
requested platform's binary is missing.`,
	Args: cobra.NoArgs,
	Run:  doPackage,
}

func init() {
	rootCmd.AddCommand(packageCmd)
	packageCmd.Flags().StringVarP(&flagVersion, "version", "v", "", "module version (e.g. 0.1.0)")
	packageCmd.Flags().StringVar(&flagMinVersion, "min-version", "", "minimum compatible host version (default from config)")
	packageCmd.Flags().StringVar(&flagMaxVersion, "max-version", "", "maximum compatible host version (default from config)")
	packageCmd.Flags().VarP(&flagPkgPlatform, "platform", "p", "Target platform, one of "+flagPkgPlatform.HelpString())
	packageCmd.RegisterFlagCompletionFunc("platform", flagPkgPlatform.CompletionFunc())
	packageCmd.MarkFlagRequired("version")
}
