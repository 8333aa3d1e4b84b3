package format

import (
	"fmt"

	"github.com/joshuapare/hivexml/internal/buf"
)

// DBRecord represents a "db" (Big Data) record used for registry values that
// exceed a single cell's capacity. The value bytes are split across data
// blocks referenced by a blocklist cell:
//
//	Offset 0x00: Signature "db" (2 bytes)
//	Offset 0x02: Number of blocks (uint16)
//	Offset 0x04: Blocklist cell offset (uint32)
//	Offset 0x08: Unknown (uint32)
//
// The blocklist cell contains an array of uint32 offsets, each pointing to a
// data block. Blocks are concatenated in order up to the length declared by
// the owning VK record.
type DBRecord struct {
	NumBlocks       uint16
	BlocklistOffset uint32
}

// DecodeDB decodes a Big Data record from a cell payload.
func DecodeDB(b []byte) (DBRecord, error) {
	if len(b) < DBMinSize {
		return DBRecord{}, fmt.Errorf("db: %w (need %d bytes, have %d)", ErrTruncated, DBMinSize, len(b))
	}
	if b[0] != DBSignature[0] || b[1] != DBSignature[1] {
		return DBRecord{}, fmt.Errorf("db: %w", ErrSignatureMismatch)
	}
	num := buf.U16LE(b[DBNumBlocksOffset:])
	if num < DBMinBlockCount {
		return DBRecord{}, fmt.Errorf("db: block count %d below minimum %d: %w",
			num, DBMinBlockCount, ErrSanityLimit)
	}
	return DBRecord{
		NumBlocks:       num,
		BlocklistOffset: buf.U32LE(b[DBBlocklistOffset:]),
	}, nil
}

// IsDBRecord checks whether a cell payload starts with the "db" signature.
func IsDBRecord(b []byte) bool {
	return len(b) >= SignatureSize && b[0] == DBSignature[0] && b[1] == DBSignature[1]
}
