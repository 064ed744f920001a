package release

import (
	"encoding/xml"
	"errors"
	"fmt"
	"os"
)

var ErrNoPackages = errors.New("no packages to list in manifest")

// Meta carries the static manifest metadata shared by all platform blocks.
type Meta struct {
	Title       string
	Description string
	Copyright   string
	Version     string
	MinVersion  string // oldest compatible host version
	MaxVersion  string // newest compatible host version
}

//
// structures for updates.xri
//

type xriDocument struct {
	XMLName     xml.Name       `xml:"xri"`
	Version     string         `xml:"version,attr"`
	Description xriDescription `xml:"description"`
	Platforms   []xriPlatform  `xml:"platform"`
}

type xriDescription struct {
	Paragraphs []xriParagraph `xml:"p"`
}

// xriParagraph is either a bold lead-in or plain text.
type xriParagraph struct {
	Bold string `xml:"b,omitempty"`
	Text string `xml:",chardata"`
}

type xriPlatform struct {
	OS      string     `xml:"os,attr"`
	Arch    string     `xml:"arch,attr"`
	Version string     `xml:"version,attr"`
	Package xriPackage `xml:"package"`
}

type xriPackage struct {
	FileName    string         `xml:"fileName,attr"`
	SHA1        string         `xml:"sha1,attr"`
	Type        string         `xml:"type,attr"`
	ReleaseDate string         `xml:"releaseDate,attr"`
	Title       string         `xml:"title"`
	Description xriDescription `xml:"description"`
}

// WriteManifest serializes one platform block per record, in record order,
// to path. It refuses to write an empty manifest: a packaging run that
// produced nothing must fail before the update client can see a manifest.
func WriteManifest(path string, records []Record, meta Meta) error {
	if len(records) == 0 {
		return ErrNoPackages
	}

	doc := xriDocument{
		Version: "1.0",
		Description: xriDescription{
			Paragraphs: []xriParagraph{
				{Bold: meta.Title + " Repository"},
				{Text: meta.Description},
			},
		},
	}

	versionRange := meta.MinVersion + ":" + meta.MaxVersion
	for _, rec := range records {
		doc.Platforms = append(doc.Platforms, xriPlatform{
			OS:      string(rec.Platform),
			Arch:    "noarch",
			Version: versionRange,
			Package: xriPackage{
				FileName:    rec.Filename,
				SHA1:        rec.SHA1,
				Type:        "module",
				ReleaseDate: rec.ReleaseDate,
				Title:       meta.Title + " v" + meta.Version,
				Description: xriDescription{
					Paragraphs: []xriParagraph{
						{Text: fmt.Sprintf("This update installs the %s version %s", meta.Title, meta.Version)},
						{Text: meta.Copyright},
					},
				},
			},
		})
	}

	out, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}

	// UTF-8, no BOM, LF line endings, single trailing newline.
	return os.WriteFile(path, append([]byte(xml.Header+string(out)), '\n'), 0o644)
}
