package chunker

import (
	"strings"

	"github.com/dgallion1/sefreader/internal/doctree"
)

// Config controls paging behavior.
type Config struct {
	PageSize    int // Target page size in characters.
	PageOverlap int // Characters repeated from the end of the previous page.
}

const defaultPageSize = 2000

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		PageSize:    defaultPageSize,
		PageOverlap: 0,
	}
}

func (c Config) withDefaults() Config {
	if c.PageSize <= 0 {
		c.PageSize = defaultPageSize
	}
	if c.PageOverlap < 0 || c.PageOverlap >= c.PageSize {
		c.PageOverlap = 0
	}
	return c
}

// ChunkTree walks a DocTree and pages every chapter that has content.
// Placeholder entries produce no pages.
func ChunkTree(tree *doctree.DocTree, cfg Config) []doctree.Chunk {
	cfg = cfg.withDefaults()

	var chunks []doctree.Chunk
	tree.Walk(func(n *doctree.DocNode, _ int, bc []string) {
		if n.Placeholder {
			return
		}
		for page, text := range SplitText(n.Text, cfg) {
			chunks = append(chunks, doctree.Chunk{
				Text:       text,
				Index:      len(chunks),
				Chapter:    n.Chapter,
				Page:       page,
				Breadcrumb: copyBreadcrumb(bc),
			})
		}
	})
	return chunks
}

// SplitText breaks chapter text into pages of about cfg.PageSize characters.
// Pages end on line boundaries where possible, then on sentence ends, and
// only cut inside a sentence that is longer than a page.
func SplitText(text string, cfg Config) []string {
	cfg = cfg.withDefaults()
	text = strings.Trim(text, "\n")
	if strings.TrimSpace(text) == "" {
		return nil
	}
	if CountChars(text) <= cfg.PageSize {
		return []string{text}
	}

	p := &pager{size: cfg.PageSize, overlap: cfg.PageOverlap}
	for i, line := range strings.Split(text, "\n") {
		sep := "\n"
		if i == 0 {
			sep = ""
		}
		if CountChars(line) <= cfg.PageSize {
			p.add(sep, line)
			continue
		}
		for j, part := range splitLong(line, cfg.PageSize) {
			if j > 0 {
				sep = ""
			}
			p.add(sep, part)
		}
	}
	return p.finish()
}

// pager accumulates units into pages.
type pager struct {
	size    int
	overlap int
	pages   []string
	cur     strings.Builder
	n       int // runes in cur
	carried int // runes in cur repeated from the previous page
}

func (p *pager) add(sep, unit string) {
	if p.n > p.carried && p.n+CountChars(sep)+CountChars(unit) > p.size {
		p.flush()
	}
	if p.n == 0 {
		sep = ""
	}
	p.cur.WriteString(sep)
	p.cur.WriteString(unit)
	p.n += CountChars(sep) + CountChars(unit)
}

func (p *pager) flush() {
	page := strings.Trim(p.cur.String(), "\n")
	if strings.TrimSpace(page) != "" {
		p.pages = append(p.pages, page)
	}
	tail := tailRunes(page, p.overlap)
	p.cur.Reset()
	p.cur.WriteString(tail)
	p.n = CountChars(tail)
	p.carried = p.n
}

func (p *pager) finish() []string {
	if p.n > p.carried {
		p.flush()
	}
	return p.pages
}

// splitLong breaks a line longer than size into sentences, cutting any
// sentence that is itself longer than size.
func splitLong(line string, size int) []string {
	var units []string
	for _, s := range splitSentences(line) {
		for CountChars(s) > size {
			cut := runeOffset(s, size)
			units = append(units, s[:cut])
			s = s[cut:]
		}
		if s != "" {
			units = append(units, s)
		}
	}
	return units
}

// splitSentences cuts after each sentence terminator and any closing
// brackets that follow it. Nothing is trimmed, so the parts concatenate back
// to the input.
func splitSentences(text string) []string {
	var sentences []string
	start := 0
	ended := false
	for i, r := range text {
		if ended && !isCloser(r) {
			sentences = append(sentences, text[start:i])
			start = i
			ended = false
		}
		if isTerminator(r) {
			ended = true
		}
	}
	if start < len(text) {
		sentences = append(sentences, text[start:])
	}
	return sentences
}

func isTerminator(r rune) bool {
	switch r {
	case '。', '！', '？', '.', '!', '?':
		return true
	}
	return false
}

func isCloser(r rune) bool {
	switch r {
	case '」', '』', '）', ')', '"', '。', '！', '？', '!', '?':
		return true
	}
	return false
}

func copyBreadcrumb(bc []string) []string {
	if len(bc) == 0 {
		return nil
	}
	out := make([]string, len(bc))
	copy(out, bc)
	return out
}
