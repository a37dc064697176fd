package export

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/dgallion1/sefreader/internal/doctree"
	"github.com/dgallion1/sefreader/internal/sef"
)

const maxHeadingDepth = 6

// MarkdownExporter writes the story as one heading per chapter, nested by
// outline depth, with each line of the body as its own paragraph.
type MarkdownExporter struct {
	// Anchors appends {#ch-N} heading attributes for in-page links.
	Anchors bool
}

func (MarkdownExporter) ContentType() string { return "text/markdown; charset=utf-8" }
func (MarkdownExporter) Extension() string   { return ".md" }

func (e MarkdownExporter) Export(w io.Writer, doc *Document) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "# %s\n", escapeInline(doc.Title))

	doc.Tree.Walk(func(n *doctree.DocNode, depth int, _ []string) {
		level := min(depth+2, maxHeadingDepth)
		fmt.Fprintf(bw, "\n%s %s", strings.Repeat("#", level), escapeInline(n.Title))
		if e.Anchors {
			fmt.Fprintf(bw, " {#%s}", anchorID(n.Chapter))
		}
		bw.WriteString("\n")

		if n.Placeholder {
			fmt.Fprintf(bw, "\n*%s*\n", sef.MissingContent)
			return
		}
		for _, line := range contentLines(n.Text) {
			bw.WriteString("\n" + escapeLine(line) + "\n")
		}
	})
	return bw.Flush()
}

var (
	inlineEscaper = strings.NewReplacer(
		`\`, `\\`,
		"`", "\\`",
		"*", `\*`,
		"_", `\_`,
		"[", `\[`,
		"]", `\]`,
		"<", `\<`,
		"{", `\{`,
		"}", `\}`,
	)
	orderedMarkerRe = regexp.MustCompile(`^(\d+)([.)])`)
)

func escapeInline(s string) string {
	return inlineEscaper.Replace(s)
}

// escapeLine keeps a body line from being read as a block construct.
func escapeLine(line string) string {
	line = escapeInline(strings.TrimSpace(line))
	if line == "" {
		return line
	}
	switch line[0] {
	case '#', '>', '-', '+', '=', '|', '~':
		return `\` + line
	}
	return orderedMarkerRe.ReplaceAllString(line, `$1\$2`)
}
