package hive

import (
	"fmt"

	"github.com/joshuapare/hivexml/internal/format"
)

// Value describes one registry value during traversal, alongside its raw
// payload bytes. It is valid only for the duration of the visitor call that
// delivers it.
type Value struct {
	ID ValueID
	// Key is the value name decoded to UTF-8. The empty string marks a
	// key's default value rather than a named one.
	Key string
	// Type is the on-disk registry value type code.
	Type uint32
	// Len is the payload length in bytes.
	Len int
	// StructLen is the reported size of the value record: cell header plus
	// fixed VK header plus the decoded name length.
	StructLen int
	// DataCellOffset and DataCellLen locate the out-of-line data cell.
	// Both are zero when the payload is stored inline in the VK record,
	// in which case no separate data cell exists.
	DataCellOffset uint32
	DataCellLen    int
}

// FileOffset returns the absolute file offset of the value's cell.
func (v Value) FileOffset() uint64 {
	return FileOffset(uint32(v.ID))
}

// DataCellFileOffset returns the absolute file offset of the out-of-line
// data cell, or 0 when the payload is inline.
func (v Value) DataCellFileOffset() uint64 {
	if v.DataCellLen == 0 {
		return 0
	}
	return FileOffset(v.DataCellOffset)
}

// value loads the VK record at id along with its payload bytes. Inline
// payloads (up to 4 bytes) come from the VK record itself; larger payloads
// come from a separate data cell, or from a Big Data blocklist when the
// value exceeds a single cell.
func (h *Hive) value(id ValueID) (Value, []byte, error) {
	cell, err := h.cell(uint32(id))
	if err != nil {
		return Value{}, nil, err
	}
	vk, err := format.DecodeVK(cell.Data)
	if err != nil {
		return Value{}, nil, fmt.Errorf("hive: value %#x: %w", uint32(id), err)
	}
	key, err := decodeName(vk.NameRaw, vk.NameIsASCII())
	if err != nil {
		return Value{}, nil, fmt.Errorf("hive: value %#x name: %w", uint32(id), err)
	}
	v := Value{
		ID:        id,
		Key:       key,
		Type:      vk.Type,
		Len:       vk.PayloadLength(),
		StructLen: format.CellHeaderSize + format.VKFixedHeaderSize + len(key),
	}

	if vk.DataInline() {
		return v, vk.DataRaw, nil
	}
	if v.Len == 0 {
		return v, nil, nil
	}

	dataCell, err := h.cell(vk.DataOffset)
	if err != nil {
		return Value{}, nil, fmt.Errorf("hive: value %#x data: %w", uint32(id), err)
	}
	v.DataCellOffset = vk.DataOffset
	v.DataCellLen = v.Len

	// Big Data storage only exists for payloads larger than one data block;
	// a small payload whose first bytes happen to spell the db signature is
	// ordinary data.
	if v.Len > format.DBChunkSize && format.IsDBRecord(dataCell.Data) {
		data, err := h.bigData(dataCell.Data, v.Len)
		if err != nil {
			return Value{}, nil, fmt.Errorf("hive: value %#x: %w", uint32(id), err)
		}
		return v, data, nil
	}

	if len(dataCell.Data) < v.Len {
		return Value{}, nil, fmt.Errorf("hive: value %#x data: declared %d bytes, cell holds %d: %w",
			uint32(id), v.Len, len(dataCell.Data), format.ErrTruncated)
	}
	return v, dataCell.Data[:v.Len], nil
}

// bigData assembles a value stored as a Big Data record: a blocklist cell
// referencing data blocks that are concatenated, each trimmed of the trailing
// cell-header padding, up to the length declared by the VK record.
func (h *Hive) bigData(dbPayload []byte, expectedLen int) ([]byte, error) {
	db, err := format.DecodeDB(dbPayload)
	if err != nil {
		return nil, err
	}
	blocklist, err := h.cell(db.BlocklistOffset)
	if err != nil {
		return nil, fmt.Errorf("db blocklist: %w", err)
	}
	need := int(db.NumBlocks) * format.OffsetFieldSize
	if len(blocklist.Data) < need {
		return nil, fmt.Errorf("db blocklist: need %d bytes for %d blocks, have %d: %w",
			need, db.NumBlocks, len(blocklist.Data), format.ErrTruncated)
	}

	result := make([]byte, expectedLen)
	read := 0
	for i := 0; i < int(db.NumBlocks) && read < expectedLen; i++ {
		blockOff, err := format.CheckedReadU32(blocklist.Data, i*format.OffsetFieldSize)
		if err != nil {
			return nil, fmt.Errorf("db block %d: %w", i, err)
		}
		block, err := h.cell(blockOff)
		if err != nil {
			return nil, fmt.Errorf("db block %d: %w", i, err)
		}
		blockData := block.Data
		if len(blockData) > format.DBBlockPadding {
			blockData = blockData[:len(blockData)-format.DBBlockPadding]
		}
		if remaining := expectedLen - read; len(blockData) > remaining {
			blockData = blockData[:remaining]
		}
		copy(result[read:], blockData)
		read += len(blockData)
	}
	if read != expectedLen {
		return nil, fmt.Errorf("db data: expected %d bytes, assembled %d: %w",
			expectedLen, read, format.ErrTruncated)
	}
	return result, nil
}
