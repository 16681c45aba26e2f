package constants

import "strings"

// AllowedExtensions holds the attachment extensions picked up for parsing.
var AllowedExtensions = map[string]struct{}{
	"html": {},
	"htm":  {},
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// IsHTMLName reports whether an attachment name looks like an HTML report.
func IsHTMLName(name string) bool {
	return strings.Contains(strings.ToLower(name), "html")
}
