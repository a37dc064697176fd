package sef

import (
	"bytes"
	"testing"

	"github.com/klauspost/compress/zlib"
)

// header16 returns a minimal 16-byte header with the given magic.
func header16(magic uint16) []byte {
	h := make([]byte, MinHeaderSize)
	h[0] = byte(magic)
	h[1] = byte(magic >> 8)
	return h
}

// deflate compresses b at the fastest level, which yields the 0x78 0x01 signature.
func deflate(t *testing.T, b []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw, err := zlib.NewWriterLevel(&buf, zlib.BestSpeed)
	if err != nil {
		t.Fatalf("zlib writer: %v", err)
	}
	if _, err := zw.Write(b); err != nil {
		t.Fatalf("zlib write: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zlib close: %v", err)
	}
	return buf.Bytes()
}

func mustEncode(t *testing.T, text string) []byte {
	t.Helper()
	data, err := Encode(text, Header{})
	if err != nil {
		t.Fatalf("encode container: %v", err)
	}
	return data
}
