package format

import (
	"errors"
	"fmt"

	"github.com/joshuapare/hivexml/internal/buf"
)

// Cell represents a single allocation (free or in-use) within an HBIN.
//
// Cell header layout (little-endian):
//
//	Offset  Size  Description
//	0x00    4     Signed size. Negative => allocated, positive => free.
//	              The absolute value includes the 4-byte header.
//	0x04    ...   Payload. First two bytes form the record tag when allocated.
type Cell struct {
	Size int  // Total size including header and padding
	Free bool // True when the cell is marked as free
	Tag  [SignatureSize]byte
	Data []byte // Payload bytes (alias of underlying buffer)
}

// ParseCell decodes the cell starting at b[0]. The payload slice aliases b.
func ParseCell(b []byte) (Cell, error) {
	if len(b) < CellHeaderSize {
		return Cell{}, fmt.Errorf("cell: %w", ErrTruncated)
	}
	raw := buf.I32LE(b)
	if raw == 0 {
		return Cell{}, errors.New("cell: zero length")
	}
	allocated := raw < 0
	size := int(raw)
	if allocated {
		size = -size
	}
	if size < CellHeaderSize || size > len(b) {
		return Cell{}, fmt.Errorf("cell: %w", ErrTruncated)
	}
	payload := b[CellHeaderSize:size]
	var tag [SignatureSize]byte
	if len(payload) >= SignatureSize {
		tag[0], tag[1] = payload[0], payload[1]
	}
	return Cell{
		Size: size,
		Free: !allocated,
		Tag:  tag,
		Data: payload,
	}, nil
}
