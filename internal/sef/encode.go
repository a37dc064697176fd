package sef

import (
	"bytes"
	"fmt"

	"github.com/dgallion1/sefreader/internal/textcodec"
	"github.com/klauspost/compress/zlib"
)

// Encode builds a container holding text: an 18-byte header, then the text
// in Shift-JIS deflated at the fastest level so the stream opens with the
// 0x78 0x01 signature LocatePayload looks for. A zero magic becomes Magic.
func Encode(text string, h Header) ([]byte, error) {
	if h.Magic == 0 {
		h.Magic = Magic
	}
	payload, err := textcodec.Encode(textcodec.Default(), text)
	if err != nil {
		return nil, fmt.Errorf("encode text: %w", err)
	}

	var buf bytes.Buffer
	buf.Write(h.Bytes())
	zw, err := zlib.NewWriterLevel(&buf, zlib.BestSpeed)
	if err != nil {
		return nil, fmt.Errorf("create zlib writer: %w", err)
	}
	if _, err := zw.Write(payload); err != nil {
		return nil, fmt.Errorf("compress payload: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("close zlib writer: %w", err)
	}
	return buf.Bytes(), nil
}
