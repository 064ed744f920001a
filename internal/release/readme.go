package release

import (
	"bufio"
	"os"
	"strings"
)

// maxDescriptionLines bounds how much of the README's Overview section ends
// up in the manifest description.
const maxDescriptionLines = 3

// ExtractDescription pulls a short module description from the first
// non-empty lines after an "## Overview" heading in the document at path.
// Every failure mode (missing file, missing heading, empty section) falls
// back to the given default; this is deliberately the only recovered error
// in the packaging pipeline.
func ExtractDescription(path, fallback string) string {
	f, err := os.Open(path)
	if err != nil {
		return fallback
	}
	defer f.Close()

	var lines []string
	inOverview := false

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.Contains(line, "## Overview") {
			inOverview = true
			continue
		}
		if !inOverview {
			continue
		}
		if strings.HasPrefix(line, "##") {
			break
		}
		trimmed := strings.TrimSpace(line)
		if trimmed != "" && !strings.HasPrefix(trimmed, "#") {
			lines = append(lines, trimmed)
			if len(lines) == maxDescriptionLines {
				break
			}
		}
	}

	if err := scanner.Err(); err != nil || len(lines) == 0 {
		return fallback
	}
	return strings.Join(lines, " ")
}
