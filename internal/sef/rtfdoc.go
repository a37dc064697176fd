package sef

import (
	"strings"

	"github.com/dgallion1/sefreader/internal/rtftext"
)

// RtfDocument is one brace-balanced RTF document found in the RTF part.
// Start and End are byte offsets into that part; End is exclusive.
type RtfDocument struct {
	Index int    `json:"index"`
	Start int    `json:"start_pos"`
	End   int    `json:"end_pos"`
	Raw   string `json:"-"`
	Plain string `json:"-"`
}

// FindDocumentStarts returns the offset of every non-overlapping RTF marker,
// in ascending order.
func FindDocumentStarts(rtf string) []int {
	var starts []int
	for pos := 0; pos < len(rtf); {
		i := strings.Index(rtf[pos:], RTFMarker)
		if i < 0 {
			break
		}
		starts = append(starts, pos+i)
		pos += i + len(RTFMarker)
	}
	return starts
}

// ExtractDocument returns the document opening at start. Every '{' and '}'
// counts toward the balance, escaped or not. A document whose braces never
// balance runs to the end of rtf.
func ExtractDocument(rtf string, start int) string {
	if start < 0 || start >= len(rtf) || !strings.HasPrefix(rtf[start:], RTFMarker) {
		return ""
	}
	depth := 0
	for pos := start; pos < len(rtf); pos++ {
		switch rtf[pos] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return rtf[start : pos+1]
			}
		}
	}
	return rtf[start:]
}

// ExtractDocuments finds and converts every embedded document.
func ExtractDocuments(rtf string, conv *rtftext.Converter) []RtfDocument {
	if conv == nil {
		conv = rtftext.Default()
	}
	starts := FindDocumentStarts(rtf)
	docs := make([]RtfDocument, 0, len(starts))
	for i, start := range starts {
		raw := ExtractDocument(rtf, start)
		docs = append(docs, RtfDocument{
			Index: i,
			Start: start,
			End:   start + len(raw),
			Raw:   raw,
			Plain: conv.Convert(raw),
		})
	}
	return docs
}
