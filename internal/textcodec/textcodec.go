// Package textcodec decodes legacy double-byte text on a best-effort basis.
//
// SEF payloads carry no charset declaration. Text is assumed to be Shift-JIS
// (Windows code page 932) and every unit the codec rejects is dropped instead
// of failing the whole decode.
package textcodec

import (
	"bytes"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/japanese"
)

// DefaultLeadByte is the smallest byte treated as the first half of a
// double-byte character by LeadByteDecoder.
const DefaultLeadByte = 0x81

// Default returns the codec assumed for SEF payloads and embedded RTF escapes.
func Default() encoding.Encoding {
	return japanese.ShiftJIS
}

// Decode decodes b with enc as a single run and drops rejected units.
func Decode(enc encoding.Encoding, b []byte) (string, error) {
	if enc == nil {
		enc = Default()
	}
	out, err := enc.NewDecoder().Bytes(b)
	if err != nil {
		return "", err
	}
	return dropInvalid(out), nil
}

// Encode encodes s with enc. Used to build fixtures and test containers.
func Encode(enc encoding.Encoding, s string) ([]byte, error) {
	if enc == nil {
		enc = Default()
	}
	return enc.NewEncoder().Bytes([]byte(s))
}

// LeadByteDecoder walks a byte buffer one unit at a time. A zero byte is
// skipped, a byte >= LeadByte starts a two-byte unit, anything else is a
// single-byte unit. Each unit is decoded on its own, so a misaligned pair
// only loses that pair.
//
// ASCII bytes are copied through without calling the codec; the codec must
// be ASCII-compatible, which holds for the East-Asian legacy encodings.
type LeadByteDecoder struct {
	Encoding encoding.Encoding
	LeadByte byte
}

// NewLeadByteDecoder returns a decoder for enc using DefaultLeadByte.
func NewLeadByteDecoder(enc encoding.Encoding) *LeadByteDecoder {
	return &LeadByteDecoder{Encoding: enc, LeadByte: DefaultLeadByte}
}

// Decode converts data to text. It never fails; undecodable units vanish.
func (d *LeadByteDecoder) Decode(data []byte) string {
	enc := d.Encoding
	if enc == nil {
		enc = Default()
	}
	lead := d.LeadByte
	if lead == 0 {
		lead = DefaultLeadByte
	}
	dec := enc.NewDecoder()

	var sb strings.Builder
	sb.Grow(len(data))
	for i := 0; i < len(data); {
		c := data[i]
		switch {
		case c == 0:
			i++
		case c >= lead && i+1 < len(data):
			writeUnit(&sb, dec, data[i:i+2])
			i += 2
		case c < utf8.RuneSelf:
			sb.WriteByte(c)
			i++
		default:
			writeUnit(&sb, dec, data[i:i+1])
			i++
		}
	}
	return sb.String()
}

func writeUnit(sb *strings.Builder, dec *encoding.Decoder, unit []byte) {
	out, err := dec.Bytes(unit)
	if err != nil {
		return
	}
	sb.WriteString(dropInvalid(out))
}

// passThrough80 is what the WHATWG Shift-JIS decoder yields for a lone 0x80
// byte. That byte is not Shift-JIS, and nothing else decodes to U+0080.
const passThrough80 = "\u0080"

var invalidRemover = strings.NewReplacer(string(utf8.RuneError), "", passThrough80, "")

// dropInvalid removes replacement runes the codec emits for rejected input,
// and the U+0080 it passes a stray 0x80 through as.
func dropInvalid(b []byte) string {
	if !bytes.ContainsRune(b, utf8.RuneError) && !bytes.Contains(b, []byte(passThrough80)) {
		return string(b)
	}
	return invalidRemover.Replace(string(b))
}
