// Package export renders an analyzed story to reader-facing formats.
package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/sefreader/internal/doctree"
	"github.com/dgallion1/sefreader/internal/sef"
)

// Document is an analyzed story ready to render.
type Document struct {
	Title    string
	Chapters []sef.Chapter
	Tree     *doctree.DocTree
}

// NewDocument builds the outline tree for chapters.
func NewDocument(title string, chapters []sef.Chapter) *Document {
	return &Document{
		Title:    title,
		Chapters: chapters,
		Tree:     doctree.Build(title, chapters),
	}
}

// Exporter writes a Document in one format.
type Exporter interface {
	Export(w io.Writer, doc *Document) error
	ContentType() string
	Extension() string
}

// Formats lists the names ForFormat accepts, one per format.
var Formats = []string{"txt", "md", "html", "docx"}

// ForFormat returns the exporter for a format name.
func ForFormat(name string) (Exporter, error) {
	switch strings.ToLower(name) {
	case "", "txt", "text":
		return TextExporter{}, nil
	case "md", "markdown":
		return MarkdownExporter{}, nil
	case "html", "htm":
		return HTMLExporter{}, nil
	case "docx":
		return DOCXExporter{}, nil
	default:
		return nil, fmt.Errorf("unsupported export format: %s", name)
	}
}

// anchorID is the fragment id of the i-th chapter in HTML output.
func anchorID(i int) string {
	return fmt.Sprintf("ch-%d", i+1)
}

// contentLines returns the non-blank lines of a chapter body.
func contentLines(content string) []string {
	var lines []string
	for _, line := range strings.Split(content, "\n") {
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
