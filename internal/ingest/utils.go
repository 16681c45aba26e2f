package ingest

import (
	"path/filepath"
	"strings"

	"github.com/joseph-ayodele/broker-reports/constants"
)

// AllowedExt checks if a file extension is in the allowed set (html/htm).
func AllowedExt(ext string) bool {
	ext = constants.NormalizeExt(ext)
	_, ok := constants.AllowedExtensions[ext]
	return ok
}

// IsHidden checks if a file or directory is hidden (starts with '.').
func IsHidden(path string) bool {
	base := filepath.Base(path)
	return strings.HasPrefix(base, ".")
}

// SafeFilename reduces an attachment name to a single path element so a
// crafted name cannot escape the attachments directory.
func SafeFilename(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = filepath.Base(strings.TrimSpace(name))
	switch name {
	case "", ".", "..", "/":
		return ""
	}
	return name
}
