package export

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
)

const (
	titleRule = 50
	infoRule  = 30
)

// TextExporter writes every chapter as a titled block of plain text with a
// short statistics footer.
type TextExporter struct{}

func (TextExporter) ContentType() string { return "text/plain; charset=utf-8" }
func (TextExporter) Extension() string   { return ".txt" }

func (TextExporter) Export(w io.Writer, doc *Document) error {
	bw := bufio.NewWriter(w)
	for i, ch := range doc.Chapters {
		if i > 0 {
			bw.WriteString("\n\n")
		}
		fmt.Fprintf(bw, "%s%s\n", strings.Repeat("　", ch.Level), ch.Title)
		bw.WriteString(strings.Repeat("=", titleRule) + "\n\n")
		bw.WriteString(ch.Content)
		bw.WriteString("\n\n" + strings.Repeat("─", infoRule) + "\n")
		fmt.Fprintf(bw, "文字数: %s\n", humanize.Comma(int64(ch.Size)))
		fmt.Fprintf(bw, "RTF位置: %s - %s\n", humanize.Comma(int64(ch.Start)), humanize.Comma(int64(ch.End)))
	}
	return bw.Flush()
}
