package parser

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/dgallion1/sefreader/internal/sef"
)

// Parser converts raw file bytes into an analysis result.
type Parser interface {
	Parse(r io.Reader, filename string) (*sef.Result, error)
}

// SupportedExtensions lists file extensions this service can handle.
var SupportedExtensions = map[string]bool{
	".sef": true,
	".rtf": true,
}

// ForFile returns the appropriate parser for a filename. The options are
// passed to every analysis the parser runs.
func ForFile(filename string, opts ...sef.Option) (Parser, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".sef":
		return &SEFParser{Options: opts}, nil
	case ".rtf":
		return &RTFParser{Options: opts}, nil
	default:
		return nil, fmt.Errorf("unsupported file extension: %s", ext)
	}
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return SupportedExtensions[ext]
}

// Title derives a story title from a filename.
func Title(filename string) string {
	base := filepath.Base(filename)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
