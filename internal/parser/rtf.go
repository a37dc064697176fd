package parser

import (
	"fmt"
	"io"

	"github.com/dgallion1/sefreader/internal/sef"
	"github.com/dgallion1/sefreader/internal/textcodec"
)

// RTFParser handles a bare RTF export: the same outline-then-documents text
// a container carries, without the header and compression. A file with no
// outline becomes a single main-text chapter.
type RTFParser struct {
	Options []sef.Option
}

func (p *RTFParser) Parse(r io.Reader, filename string) (*sef.Result, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", filename, err)
	}
	text := textcodec.NewLeadByteDecoder(textcodec.Default()).Decode(data)
	res := sef.AnalyzeText(text, p.Options...)
	res.FileSize = len(data)
	res.DecompressedSize = len(data)
	return res, nil
}
