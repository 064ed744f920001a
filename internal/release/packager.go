// Package release archives built module binaries into distributable
// packages and aggregates them into the updates.xri manifest consumed by
// the PixInsight update client.
package release

import (
	"archive/tar"
	"compress/gzip"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/veralux/pxmkit/internal/platform"
	"github.com/veralux/pxmkit/internal/scan"
)

var ErrBinaryNotFound = errors.New("module binary not found")

// Record describes one packaged platform; it is consumed by WriteManifest.
type Record struct {
	Platform    platform.ID
	Filename    string
	SHA1        string
	Size        int64
	ReleaseDate string
}

// Packager builds one tar.gz archive per platform from the module binary
// under <root>/bin/<platform>/ and the SVG resources under <root>/rsc/.
type Packager struct {
	Module  string
	Root    string
	DistDir string
}

func NewPackager(module, root, distDir string) *Packager {
	return &Packager{Module: module, Root: root, DistDir: distDir}
}

const resourceDir = "rsc"

// Package archives the platform's binary plus resources and returns its
// record. The archive name embeds the calendar date, so a same-day re-run
// for the same version overwrites the previous archive in place.
func (p *Packager) Package(id platform.ID, version string, now time.Time) (*Record, error) {
	prof, err := platform.Lookup(id)
	if err != nil {
		return nil, err
	}

	binaryName := prof.BinaryName(p.Module)
	binaryPath := filepath.Join(p.Root, "bin", string(id), binaryName)
	if _, err := os.Stat(binaryPath); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrBinaryNotFound, binaryPath)
		}
		return nil, err
	}

	dateStamp := now.Format("20060102")
	archiveName := fmt.Sprintf("%s-%s-%s-%s.tar.gz", p.Module, id, version, dateStamp)
	archivePath := filepath.Join(p.DistDir, archiveName)

	if err := p.writeArchive(archivePath, binaryPath, binaryName); err != nil {
		return nil, fmt.Errorf("write archive %s: %w", archiveName, err)
	}

	// Digest the final archive bytes so the checksum verifies exactly what
	// ships.
	digest, size, err := sha1File(archivePath)
	if err != nil {
		return nil, err
	}

	return &Record{
		Platform:    id,
		Filename:    archiveName,
		SHA1:        digest,
		Size:        size,
		ReleaseDate: dateStamp,
	}, nil
}

func (p *Packager) writeArchive(archivePath, binaryPath, binaryName string) error {
	f, err := os.Create(archivePath)
	if err != nil {
		return err
	}
	defer f.Close()

	gw := gzip.NewWriter(f)
	tw := tar.NewWriter(gw)

	if err := addFile(tw, binaryPath, "bin/"+binaryName); err != nil {
		return err
	}

	// Resource icons live under rsc/; a module without resources is valid.
	rscDir := filepath.Join(p.Root, resourceDir)
	if _, err := os.Stat(rscDir); err == nil {
		resources, err := scan.Scan(rscDir, []string{"**/*.svg"})
		if err != nil {
			return err
		}
		for _, rel := range resources {
			src := filepath.Join(rscDir, filepath.FromSlash(rel))
			if err := addFile(tw, src, resourceDir+"/"+rel); err != nil {
				return err
			}
		}
	}

	if err := tw.Close(); err != nil {
		return err
	}
	if err := gw.Close(); err != nil {
		return err
	}
	return f.Close()
}

func addFile(tw *tar.Writer, path, name string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}

	hdr, err := tar.FileInfoHeader(info, "")
	if err != nil {
		return err
	}
	hdr.Name = name

	if err := tw.WriteHeader(hdr); err != nil {
		return err
	}
	_, err = io.Copy(tw, f)
	return err
}

// sha1File streams a file through SHA-1 in bounded chunks and returns the
// hex digest and the file size. SHA-1 is what the update client's manifest
// protocol verifies; changing it requires updating the client in lockstep.
func sha1File(path string) (string, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", 0, err
	}
	defer f.Close()

	hash := sha1.New()
	size, err := io.Copy(hash, f)
	if err != nil {
		return "", 0, err
	}

	return hex.EncodeToString(hash.Sum(nil)), size, nil
}
