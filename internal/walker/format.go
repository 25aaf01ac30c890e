package walker

import (
	"path/filepath"
	"strings"
)

// Document formats recognised by the ingester.
const (
	FormatMarkdown = "markdown"
	FormatText     = "text"
	FormatRST      = "rst"
)

var extensionToFormat = map[string]string{
	".md":       FormatMarkdown,
	".markdown": FormatMarkdown,
	".mdx":      FormatMarkdown,
	".txt":      FormatText,
	".text":     FormatText,
	".rst":      FormatRST,
}

// DetectFormat returns the document format for a file name. Unknown
// extensions are treated as plain text.
func DetectFormat(name string) string {
	if f, ok := extensionToFormat[strings.ToLower(filepath.Ext(name))]; ok {
		return f
	}
	return FormatText
}
