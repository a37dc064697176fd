package export

import (
	"fmt"
	"io"

	"github.com/dgallion1/sefreader/internal/doctree"
	"github.com/dgallion1/sefreader/internal/sef"
	"github.com/fumiama/go-docx"
)

// Heading sizes in half-points, by outline depth.
var docxHeadingSizes = []string{"32", "28", "26", "24"}

const docxTitleSize = "40"

// DOCXExporter writes a Word document with one bold heading per chapter and
// one paragraph per body line.
type DOCXExporter struct{}

func (DOCXExporter) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
}
func (DOCXExporter) Extension() string { return ".docx" }

func (DOCXExporter) Export(w io.Writer, doc *Document) error {
	d := docx.New().WithDefaultTheme()
	d.AddParagraph().AddText(doc.Title).Size(docxTitleSize).Bold()

	doc.Tree.Walk(func(n *doctree.DocNode, depth int, _ []string) {
		size := docxHeadingSizes[min(depth, len(docxHeadingSizes)-1)]
		d.AddParagraph().AddText(n.Title).Size(size).Bold()
		if n.Placeholder {
			d.AddParagraph().AddText(sef.MissingContent).Color("808080")
			return
		}
		for _, line := range contentLines(n.Text) {
			d.AddParagraph().AddText(line)
		}
	})

	if _, err := d.WriteTo(w); err != nil {
		return fmt.Errorf("write docx: %w", err)
	}
	return nil
}
