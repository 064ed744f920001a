package release

import (
	"encoding/xml"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/veralux/pxmkit/internal/platform"
)

func testMeta() Meta {
	return Meta{
		Title:       "Sandbox",
		Description: "A sandbox module for experimentation.",
		Copyright:   "Copyright (c) 2026 Sandbox developers, All Rights Reserved.",
		Version:     "1.2.3",
		MinVersion:  "1.8.9",
		MaxVersion:  "1.9.99",
	}
}

func testRecords() []Record {
	return []Record{
		{Platform: platform.Linux, Filename: "Sandbox-linux-1.2.3-20260826.tar.gz", SHA1: strings.Repeat("ab", 20), Size: 10, ReleaseDate: "20260826"},
		{Platform: platform.MacOSX, Filename: "Sandbox-macosx-1.2.3-20260826.tar.gz", SHA1: strings.Repeat("cd", 20), Size: 11, ReleaseDate: "20260826"},
		{Platform: platform.Windows, Filename: "Sandbox-windows-1.2.3-20260826.tar.gz", SHA1: strings.Repeat("ef", 20), Size: 12, ReleaseDate: "20260826"},
	}
}

// TestWriteManifestBlocks checks one platform block per record, in record
// order, carrying the archive attributes and the version range.
func TestWriteManifestBlocks(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "updates.xri")
	require.NoError(t, WriteManifest(path, testRecords(), testMeta()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)
	require.True(t, strings.HasPrefix(text, `<?xml version="1.0" encoding="UTF-8"?>`))
	require.True(t, strings.HasSuffix(text, "</xri>\n"))

	var doc xriDocument
	require.NoError(t, xml.Unmarshal(data, &doc))
	require.Equal(t, "1.0", doc.Version)
	require.Len(t, doc.Platforms, 3)

	for i, rec := range testRecords() {
		block := doc.Platforms[i]
		require.Equal(t, string(rec.Platform), block.OS)
		require.Equal(t, "noarch", block.Arch)
		require.Equal(t, "1.8.9:1.9.99", block.Version)
		require.Equal(t, rec.Filename, block.Package.FileName)
		require.Equal(t, rec.SHA1, block.Package.SHA1)
		require.Equal(t, "module", block.Package.Type)
		require.Equal(t, "20260826", block.Package.ReleaseDate)
		require.Equal(t, "Sandbox v1.2.3", block.Package.Title)
	}
}

// TestWriteManifestDescriptions checks the repository lead-in paragraph and
// the per-package install/copyright text.
func TestWriteManifestDescriptions(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "updates.xri")
	require.NoError(t, WriteManifest(path, testRecords()[:1], testMeta()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)
	require.Contains(t, text, "<b>Sandbox Repository</b>")
	require.Contains(t, text, "A sandbox module for experimentation.")
	require.Contains(t, text, "This update installs the Sandbox version 1.2.3")
	require.Contains(t, text, "Copyright (c) 2026 Sandbox developers, All Rights Reserved.")
}

// TestWriteManifestRefusesEmpty ensures an empty record set yields the
// sentinel and no manifest file.
func TestWriteManifestRefusesEmpty(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "updates.xri")
	err := WriteManifest(path, nil, testMeta())
	require.ErrorIs(t, err, ErrNoPackages)

	_, err = os.Stat(path)
	require.ErrorIs(t, err, os.ErrNotExist)
}

// TestWriteManifestSubsetOrder checks a two-platform run lists exactly those
// platforms in packaging order.
func TestWriteManifestSubsetOrder(t *testing.T) {
	t.Parallel()

	records := []Record{testRecords()[2], testRecords()[0]}
	path := filepath.Join(t.TempDir(), "updates.xri")
	require.NoError(t, WriteManifest(path, records, testMeta()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var doc xriDocument
	require.NoError(t, xml.Unmarshal(data, &doc))
	require.Len(t, doc.Platforms, 2)
	require.Equal(t, "windows", doc.Platforms[0].OS)
	require.Equal(t, "linux", doc.Platforms[1].OS)
}
