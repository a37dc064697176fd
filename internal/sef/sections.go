package sef

import "strings"

// RTFMarker opens every embedded RTF document.
const RTFMarker = `{\rtf`

// Sections is decoded text split at the first RTF marker.
// Plain + RTF always equals the text it came from.
type Sections struct {
	Plain string
	RTF   string
}

// SplitSections separates the outline from the RTF part. Without a marker
// the whole text is outline.
func SplitSections(text string) Sections {
	i := strings.Index(text, RTFMarker)
	if i < 0 {
		return Sections{Plain: text}
	}
	return Sections{Plain: text[:i], RTF: text[i:]}
}
