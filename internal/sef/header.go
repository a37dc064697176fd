package sef

import (
	"encoding/binary"
	"fmt"
)

const (
	// Magic is the little-endian value every SEF file starts with.
	Magic uint16 = 0x0303

	// MinHeaderSize is the smallest buffer ParseHeader accepts.
	MinHeaderSize = 16

	// extendedHeaderSize is the length needed to read Field4.
	extendedHeaderSize = 18
)

// Header holds the fixed-width fields at the start of a container. The four
// fields are opaque format data; nothing downstream interprets them.
type Header struct {
	Magic  uint16 `json:"magic"`
	Field1 uint32 `json:"field1"`
	Field2 uint32 `json:"field2"`
	Field3 uint32 `json:"field3"`
	Field4 uint32 `json:"field4"`
}

// ParseHeader validates the buffer length and magic and reads the fields.
// Field4 is only present in buffers of at least 18 bytes and is 0 otherwise.
func ParseHeader(data []byte) (Header, error) {
	if len(data) < MinHeaderSize {
		return Header{}, fmt.Errorf("%w: %d bytes (need %d)", ErrTooSmall, len(data), MinHeaderSize)
	}

	h := Header{Magic: binary.LittleEndian.Uint16(data[0:2])}
	if h.Magic != Magic {
		return Header{}, fmt.Errorf("%w: 0x%04x", ErrBadMagic, h.Magic)
	}

	h.Field1 = binary.LittleEndian.Uint32(data[2:6])
	h.Field2 = binary.LittleEndian.Uint32(data[6:10])
	h.Field3 = binary.LittleEndian.Uint32(data[10:14])
	if len(data) >= extendedHeaderSize {
		h.Field4 = binary.LittleEndian.Uint32(data[14:18])
	}
	return h, nil
}

// Bytes returns the 18-byte little-endian encoding of h.
func (h Header) Bytes() []byte {
	b := make([]byte, extendedHeaderSize)
	binary.LittleEndian.PutUint16(b[0:2], h.Magic)
	binary.LittleEndian.PutUint32(b[2:6], h.Field1)
	binary.LittleEndian.PutUint32(b[6:10], h.Field2)
	binary.LittleEndian.PutUint32(b[10:14], h.Field3)
	binary.LittleEndian.PutUint32(b[14:18], h.Field4)
	return b
}
