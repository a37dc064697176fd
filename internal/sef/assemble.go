package sef

import (
	"fmt"
	"unicode/utf8"

	"github.com/dgallion1/sefreader/internal/rtftext"
)

const (
	// NoSource marks a chapter that was not built from an RtfDocument.
	NoSource = -1

	// MainTextTitle names the single chapter of a file without an outline.
	MainTextTitle = "メインテキスト"

	// MissingContent is the body of a chapter whose document is missing.
	MissingContent = "（対応するコンテンツがありません）"
)

// Chapter is an outline entry paired with its content.
type Chapter struct {
	Title       string `json:"title"`
	Content     string `json:"content"`
	Level       int    `json:"level"`
	Start       int    `json:"start_pos"`
	End         int    `json:"end_pos"`
	Size        int    `json:"size"`
	SourceIndex int    `json:"source_index"`
}

// IsPlaceholder reports whether c stands in for a missing document.
func (c Chapter) IsPlaceholder() bool {
	return c.SourceIndex == NoSource && c.End == 0 && c.Content == MissingContent
}

// Pairing selects how outline entries are matched to documents.
type Pairing int

const (
	// PairPositional pairs entry i with document i. Entries past the last
	// document become placeholders.
	PairPositional Pairing = iota
	// PairLeafFirst is positional when there are enough documents. When
	// documents run short, entries that have children give up their slot
	// first, on the assumption that container entries carry no text.
	PairLeafFirst
)

func (p Pairing) String() string {
	switch p {
	case PairPositional:
		return "positional"
	case PairLeafFirst:
		return "leaf-first"
	default:
		return fmt.Sprintf("pairing(%d)", int(p))
	}
}

// ParsePairing maps a configuration name to a Pairing. Empty means positional.
func ParsePairing(name string) (Pairing, error) {
	switch name {
	case "", "positional":
		return PairPositional, nil
	case "leaf-first":
		return PairLeafFirst, nil
	default:
		return PairPositional, fmt.Errorf("unknown pairing %q", name)
	}
}

// AssembleChapters builds the chapter list. With an outline there is exactly
// one chapter per entry; without one, the whole RTF part is a single chapter.
func AssembleChapters(rtf string, hierarchy []HierarchyNode, docs []RtfDocument, conv *rtftext.Converter, pairing Pairing) []Chapter {
	if conv == nil {
		conv = rtftext.Default()
	}
	if len(hierarchy) == 0 {
		content := conv.Convert(rtf)
		return []Chapter{{
			Title:       MainTextTitle,
			Content:     content,
			Level:       0,
			Start:       0,
			End:         len(rtf),
			Size:        utf8.RuneCountInString(content),
			SourceIndex: NoSource,
		}}
	}

	chapters := PairChapters(hierarchy, docs, pairing)
	if len(chapters) == 0 {
		return EqualSplit(rtf, hierarchy, conv)
	}
	return chapters
}

// PairChapters matches outline entries to documents using the given strategy.
func PairChapters(hierarchy []HierarchyNode, docs []RtfDocument, pairing Pairing) []Chapter {
	skip := make([]bool, len(hierarchy))
	if pairing == PairLeafFirst && len(docs) < len(hierarchy) {
		skip = containerSlots(hierarchy, len(hierarchy)-len(docs))
	}

	chapters := make([]Chapter, 0, len(hierarchy))
	next := 0
	for i, node := range hierarchy {
		if skip[i] || next >= len(docs) {
			chapters = append(chapters, placeholder(node))
			continue
		}
		doc := docs[next]
		next++
		chapters = append(chapters, Chapter{
			Title:       node.Title,
			Content:     doc.Plain,
			Level:       node.Level,
			Start:       doc.Start,
			End:         doc.End,
			Size:        utf8.RuneCountInString(doc.Plain),
			SourceIndex: doc.Index,
		})
	}
	return chapters
}

// containerSlots marks up to n entries that are immediately followed by a
// deeper entry, earliest first.
func containerSlots(hierarchy []HierarchyNode, n int) []bool {
	skip := make([]bool, len(hierarchy))
	for i := 0; i+1 < len(hierarchy) && n > 0; i++ {
		if hierarchy[i+1].Level > hierarchy[i].Level {
			skip[i] = true
			n--
		}
	}
	return skip
}

func placeholder(node HierarchyNode) Chapter {
	return Chapter{
		Title:       node.Title,
		Content:     MissingContent,
		Level:       node.Level,
		SourceIndex: NoSource,
	}
}

// EqualSplit cuts the RTF part into len(hierarchy) contiguous ranges and
// converts each one. The last range takes the remainder. Cut points are
// moved back to the nearest rune boundary.
func EqualSplit(rtf string, hierarchy []HierarchyNode, conv *rtftext.Converter) []Chapter {
	count := len(hierarchy)
	if count == 0 {
		return nil
	}
	if conv == nil {
		conv = rtftext.Default()
	}

	chunk := len(rtf) / count
	chapters := make([]Chapter, 0, count)
	for i := 0; i < count; i++ {
		start := runeFloor(rtf, i*chunk)
		end := len(rtf)
		if i < count-1 {
			end = runeFloor(rtf, (i+1)*chunk)
		}
		content := conv.Convert(rtf[start:end])

		title := fmt.Sprintf("章%d", i+1)
		level := 0
		if i < len(hierarchy) {
			title = hierarchy[i].Title
			level = hierarchy[i].Level
		}
		chapters = append(chapters, Chapter{
			Title:       title,
			Content:     content,
			Level:       level,
			Start:       start,
			End:         end,
			Size:        utf8.RuneCountInString(content),
			SourceIndex: NoSource,
		})
	}
	return chapters
}

func runeFloor(s string, i int) int {
	if i >= len(s) {
		return len(s)
	}
	for i > 0 && !utf8.RuneStart(s[i]) {
		i--
	}
	return i
}
