// Package extract turns uploaded document bytes into plain text. Each
// supported format has its own Extractor; unknown extensions fall back to a
// best-effort UTF-8 decode.
package extract

import (
	"path/filepath"
	"strings"
)

type Extractor interface {
	Extract(raw []byte) (string, error)
}

// Supported reports whether a file has a dedicated extractor. Auto-ingestion
// paths skip unsupported files; explicit uploads still fall back.
func Supported(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".txt", ".pdf", ".docx", ".md":
		return true
	}
	return false
}

// ForFilename picks the extractor for a file by its extension.
func ForFilename(name string) Extractor {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".txt":
		return textExtractor{}
	case ".pdf":
		return pdfExtractor{}
	case ".docx":
		return docxExtractor{}
	case ".md":
		return markdownExtractor{}
	default:
		return fallbackExtractor{}
	}
}
