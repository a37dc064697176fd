package rtftext

import (
	"strings"
	"testing"
)

func TestConvert_MinimalDocument(t *testing.T) {
	got := Default().Convert(`{\rtf1 A content}`)
	if got != "A content" {
		t.Errorf("expected %q, got %q", "A content", got)
	}
}

func TestConvert_Empty(t *testing.T) {
	if got := Default().Convert(""); got != "" {
		t.Errorf("expected empty output, got %q", got)
	}
}

func TestConvert_JapaneseDocument(t *testing.T) {
	raw := `{\rtf1\ansi\ansicpg932\deff0{\fonttbl{\f0\fnil\fcharset128 \'82\'6c\'82\'72 \'96\'be\'92\'a9;}}` +
		`{\colortbl ;\red0\green0\blue0;}` +
		"\r\n" + `\viewkind4\uc1\pard\lang1041\f0\fs20 \'82\'b1\'82\'f1\'82\'c9\'82\'bf\'82\'cd\par` +
		"\r\n" + `\'90\'a2\'8a\'45\par` + "\r\n}"
	got := Default().Convert(raw)
	want := "こんにちは\n世界"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestConvert_KeepsDates(t *testing.T) {
	raw := `{\rtf1\pard 2024\'94\'4e3\'8c\'8e15\'93\'fa\par}`
	got := Default().Convert(raw)
	if got != "2024年3月15日" {
		t.Errorf("expected date to survive, got %q", got)
	}
}

func TestConvert_StepOrder(t *testing.T) {
	want := []string{
		"hex-escapes",
		"destinations",
		"param-words",
		"control-words",
		"control-symbols",
		"braces",
		"semicolons",
		"layout-numbers",
		"whitespace",
	}
	steps := Default().Steps()
	if len(steps) != len(want) {
		t.Fatalf("expected %d steps, got %d", len(want), len(steps))
	}
	for i, name := range want {
		if steps[i].Name != name {
			t.Errorf("step %d: expected %q, got %q", i, name, steps[i].Name)
		}
	}
}

func TestDecodeHexEscapes(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"double byte split across escapes", `\'93\'fa\'96\'7b`, "日本"},
		{"mixed with text", `x \'82\'a0 y`, "x あ y"},
		{"uppercase hex", `\'82\'A0`, "あ"},
		{"dangling lead byte dropped", `\'82\'a0\'82`, "あ"},
		{"no escapes", `plain`, "plain"},
		{"stray 0x80 dropped", `a\'80b`, "ab"},
	}
	dec := decodeHexEscapes(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := dec(tt.in); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestStripDestinations(t *testing.T) {
	in := `{\fonttbl{\f0 MS Mincho;}{\f1 Arial;}}{\colortbl ;\red255\green0\blue0;}body`
	if got := stripDestinations(in); got != "body" {
		t.Errorf("expected %q, got %q", "body", got)
	}
}

func TestStripDestinations_LeavesOtherGroups(t *testing.T) {
	in := `{\stylesheet{\s0 Normal;}}text`
	if got := stripDestinations(in); got != in {
		t.Errorf("expected stylesheet to be left alone, got %q", got)
	}
}

func TestStripParamWords(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{`\fs20 text`, "  text"},
		{`\f0 \fs20 text`, "  text"},
		{`\li-360 x`, "  x"},
		{"\\f0\u3000\\fs20 text", "  text"},
		{`\par text`, `\par text`},
	}
	for _, tt := range tests {
		if got := stripParamWords(tt.in); got != tt.want {
			t.Errorf("stripParamWords(%q): expected %q, got %q", tt.in, tt.want, got)
		}
	}
}

func TestStripControlWords(t *testing.T) {
	if got := stripControlWords(`a\par b\pard c`); got != "a  b  c" {
		t.Errorf("expected %q, got %q", "a  b  c", got)
	}
}

func TestStripControlSymbols(t *testing.T) {
	if got := stripControlSymbols(`a\~b\-c\*d`); got != "abcd" {
		t.Errorf("expected %q, got %q", "abcd", got)
	}
}

func TestStripControlSymbols_EscapedNewline(t *testing.T) {
	if got := stripControlSymbols("a\\\nb"); got != "ab" {
		t.Errorf("expected %q, got %q", "ab", got)
	}
}

func TestCollapseSemicolons(t *testing.T) {
	if got := collapseSemicolons("a;;;b;c"); got != "a b c" {
		t.Errorf("expected %q, got %q", "a b c", got)
	}
}

func TestStripLayoutNumbers(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"bare number", "text 20 more", "text  more"},
		{"chained numbers", "a 1 2 3 b", "a  b"},
		{"year kept", "2024年", "2024年"},
		{"month and day kept", "3月15日", "3月15日"},
		{"number after day marker kept", "日12", "日12"},
		{"chain stops before date", "x 12 2024年", "x  2024年"},
		{"trailing whitespace consumed", "7\n\nnext", " next"},
		{"number at end", "end 42", "end  "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := stripLayoutNumbers(tt.in); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestNormalizeWhitespace(t *testing.T) {
	in := "  first   line  \r\n\r\n\r\n\r\n  second\tline\rthird  "
	want := "first line\n\nsecond line\nthird"
	if got := normalizeWhitespace(in); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestNormalizeWhitespace_KeepsSingleBlankLine(t *testing.T) {
	in := "a\n\nb"
	if got := normalizeWhitespace(in); got != in {
		t.Errorf("expected %q, got %q", in, got)
	}
}

func TestNormalizeWhitespace_IdeographicIndent(t *testing.T) {
	in := "　本文\n　続き"
	if got := normalizeWhitespace(in); got != "本文\n続き" {
		t.Errorf("expected ideographic indent to be trimmed, got %q", got)
	}
}

func TestConvert_LiteralBracesAreStripped(t *testing.T) {
	got := Default().Convert(`{\rtf1 a \{b\} c}`)
	if strings.ContainsAny(got, "{}") {
		t.Errorf("expected braces to be removed, got %q", got)
	}
}
