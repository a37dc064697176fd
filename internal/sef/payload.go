package sef

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/zlib"
)

// zlibSignature is the CMF/FLG pair the payload stream starts with
// (deflate, 32K window, fastest level).
var zlibSignature = []byte{0x78, 0x01}

// LocatePayload returns the offset of the first zlib signature in data.
//
// The scan starts at offset 0, so a signature that happens to appear inside
// the header fields is taken as the payload start. Real files depend on this
// exact rule.
func LocatePayload(data []byte) (int, error) {
	i := bytes.Index(data, zlibSignature)
	if i < 0 {
		return -1, ErrPayloadNotFound
	}
	return i, nil
}

// Inflate decompresses data[offset:] as a single zlib stream. A limit > 0
// caps the decompressed size. Output is all or nothing.
func Inflate(data []byte, offset int, limit int64) ([]byte, error) {
	if offset < 0 || offset > len(data) {
		return nil, &DecompressionError{Offset: offset, Err: errors.New("offset out of range")}
	}
	zr, err := zlib.NewReader(bytes.NewReader(data[offset:]))
	if err != nil {
		return nil, &DecompressionError{Offset: offset, Err: err}
	}
	defer zr.Close()

	var r io.Reader = zr
	if limit > 0 {
		r = io.LimitReader(zr, limit+1)
	}
	out, err := io.ReadAll(r)
	if err != nil {
		return nil, &DecompressionError{Offset: offset, Err: err}
	}
	if limit > 0 && int64(len(out)) > limit {
		return nil, &DecompressionError{Offset: offset, Err: fmt.Errorf("payload expands beyond %d bytes", limit)}
	}
	return out, nil
}
