// Package rtftext reduces an embedded RTF document to readable plain text.
//
// Conversion is an ordered list of pure string transformations. Each step
// assumes the earlier ones already ran, so the order is fixed.
package rtftext

import (
	"encoding/hex"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/dgallion1/sefreader/internal/textcodec"
	"golang.org/x/text/encoding"
)

// Step is one named transformation in the conversion pipeline.
type Step struct {
	Name  string
	Apply func(string) string
}

// Converter applies the conversion steps in order.
type Converter struct {
	steps []Step
}

// New returns a converter whose hex escapes are decoded with enc.
func New(enc encoding.Encoding) *Converter {
	if enc == nil {
		enc = textcodec.Default()
	}
	return &Converter{
		steps: []Step{
			{Name: "hex-escapes", Apply: decodeHexEscapes(enc)},
			{Name: "destinations", Apply: stripDestinations},
			{Name: "param-words", Apply: stripParamWords},
			{Name: "control-words", Apply: stripControlWords},
			{Name: "control-symbols", Apply: stripControlSymbols},
			{Name: "braces", Apply: stripBraces},
			{Name: "semicolons", Apply: collapseSemicolons},
			{Name: "layout-numbers", Apply: stripLayoutNumbers},
			{Name: "whitespace", Apply: normalizeWhitespace},
		},
	}
}

// Default returns a converter for the default legacy codec.
func Default() *Converter {
	return New(nil)
}

// Steps returns a copy of the pipeline in application order.
func (c *Converter) Steps() []Step {
	out := make([]Step, len(c.steps))
	copy(out, c.steps)
	return out
}

// Convert runs every step over raw and returns the plain text.
func (c *Converter) Convert(raw string) string {
	if raw == "" {
		return ""
	}
	text := raw
	for _, s := range c.steps {
		text = s.Apply(text)
	}
	return text
}

var (
	hexRunRe       = regexp.MustCompile(`(?:\\'[0-9a-fA-F]{2})+`)
	fontTableRe    = regexp.MustCompile(`\{\\fonttbl[^{}]*(?:\{[^{}]*\}[^{}]*)*\}`)
	colorTableRe   = regexp.MustCompile(`\{\\colortbl[^{}]*(?:\{[^{}]*\}[^{}]*)*\}`)
	paramWordRe    = regexp.MustCompile(`\\[a-zA-Z]+-?[0-9]+(?:[\s\x{3000}]+\\[a-zA-Z]+-?[0-9]+)*`)
	controlWordRe  = regexp.MustCompile(`\\[a-zA-Z]+`)
	controlSymRe   = regexp.MustCompile(`\\[^a-zA-Z]`)
	semicolonRunRe = regexp.MustCompile(`;+`)
	hspaceRe       = regexp.MustCompile(`[ \t]+`)
	blankRunRe     = regexp.MustCompile(`\n{3,}`)

	braceRemover   = strings.NewReplacer("{", "", "}", "")
	newlineUnifier = strings.NewReplacer("\r\n", "\n", "\r", "\n")
)

// decodeHexEscapes turns each run of \'hh escapes into text. A run is decoded
// as one byte sequence so double-byte characters split across two escapes
// come out whole. A run the codec refuses becomes empty.
func decodeHexEscapes(enc encoding.Encoding) func(string) string {
	return func(s string) string {
		return hexRunRe.ReplaceAllStringFunc(s, func(run string) string {
			buf := make([]byte, 0, len(run)/4)
			for i := 0; i+4 <= len(run); i += 4 {
				b, err := hex.DecodeString(run[i+2 : i+4])
				if err != nil {
					return ""
				}
				buf = append(buf, b...)
			}
			text, err := textcodec.Decode(enc, buf)
			if err != nil {
				return ""
			}
			return text
		})
	}
}

// stripDestinations drops font and color tables.
func stripDestinations(s string) string {
	s = fontTableRe.ReplaceAllString(s, "")
	return colorTableRe.ReplaceAllString(s, "")
}

func stripParamWords(s string) string {
	return paramWordRe.ReplaceAllString(s, " ")
}

func stripControlWords(s string) string {
	return controlWordRe.ReplaceAllString(s, " ")
}

func stripControlSymbols(s string) string {
	return controlSymRe.ReplaceAllString(s, "")
}

func stripBraces(s string) string {
	return braceRemover.Replace(s)
}

func collapseSemicolons(s string) string {
	return semicolonRunRe.ReplaceAllString(s, " ")
}

// stripLayoutNumbers removes bare ASCII digit runs left behind by layout
// parameters. A run touching a date marker (2024年, 3月, 15日) is user text and
// stays. Whitespace-separated digit runs after a removed run go with it, as
// does the whitespace that follows.
func stripLayoutNumbers(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))
	for i := 0; i < len(s); {
		if !isDigit(s[i]) {
			sb.WriteByte(s[i])
			i++
			continue
		}
		end := digitRunEnd(s, i)
		if precededByDate(s, i) || followedByDate(s, end) {
			sb.WriteString(s[i:end])
			i = end
			continue
		}
		pos := end
		for {
			next := skipSpace(s, pos)
			if next == pos || next >= len(s) || !isDigit(s[next]) {
				break
			}
			runEnd := digitRunEnd(s, next)
			if followedByDate(s, runEnd) {
				break
			}
			pos = runEnd
		}
		sb.WriteByte(' ')
		i = skipSpace(s, pos)
	}
	return sb.String()
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isDateMarker(r rune) bool {
	return r == '年' || r == '月' || r == '日'
}

func digitRunEnd(s string, i int) int {
	for i < len(s) && isDigit(s[i]) {
		i++
	}
	return i
}

func precededByDate(s string, i int) bool {
	if i == 0 {
		return false
	}
	r, _ := utf8.DecodeLastRuneInString(s[:i])
	return isDateMarker(r)
}

func followedByDate(s string, i int) bool {
	if i >= len(s) {
		return false
	}
	r, _ := utf8.DecodeRuneInString(s[i:])
	return isDateMarker(r)
}

func skipSpace(s string, i int) int {
	for i < len(s) {
		r, size := utf8.DecodeRuneInString(s[i:])
		if !unicode.IsSpace(r) {
			break
		}
		i += size
	}
	return i
}

// normalizeWhitespace unifies line endings, squeezes horizontal whitespace,
// trims every line and keeps at most one blank line between paragraphs.
func normalizeWhitespace(s string) string {
	s = newlineUnifier.Replace(s)
	s = hspaceRe.ReplaceAllString(s, " ")
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	s = strings.Join(lines, "\n")
	s = blankRunRe.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}
