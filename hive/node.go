package hive

import (
	"fmt"

	"github.com/joshuapare/hivexml/internal/format"
)

// Node describes one registry key during traversal. It is valid only for the
// duration of the NodeStart/NodeEnd pair that delivers it.
type Node struct {
	ID NodeID
	// Name is the key name decoded to UTF-8.
	Name string
	// LastWriteRaw is the key's last write time as raw FILETIME ticks,
	// 0 when no timestamp was recorded.
	LastWriteRaw uint64
	// StructLen is the on-disk size of the key record: cell header plus
	// fixed NK header plus the stored name bytes.
	StructLen int
	// Root is set on the hive's root key.
	Root bool

	subkeyCount      uint32
	subkeyListOffset uint32
	valueCount       uint32
	valueListOffset  uint32
}

// FileOffset returns the absolute file offset of the key's cell.
func (n Node) FileOffset() uint64 {
	return FileOffset(uint32(n.ID))
}

// node loads and decodes the NK record at id.
func (h *Hive) node(id NodeID) (Node, error) {
	cell, err := h.cell(uint32(id))
	if err != nil {
		return Node{}, err
	}
	nk, err := format.DecodeNK(cell.Data)
	if err != nil {
		return Node{}, fmt.Errorf("hive: node %#x: %w", uint32(id), err)
	}
	name, err := decodeName(nk.NameRaw, nk.NameIsCompressed())
	if err != nil {
		return Node{}, fmt.Errorf("hive: node %#x name: %w", uint32(id), err)
	}
	return Node{
		ID:               id,
		Name:             name,
		LastWriteRaw:     nk.LastWriteRaw,
		StructLen:        format.CellHeaderSize + format.NKFixedHeaderSize + int(nk.NameLength),
		Root:             id == h.Root(),
		subkeyCount:      nk.SubkeyCount,
		subkeyListOffset: nk.SubkeyListOffset,
		valueCount:       nk.ValueCount,
		valueListOffset:  nk.ValueListOffset,
	}, nil
}

// subkeys returns the NK offsets of the node's children, following indirect
// (RI) lists through their constituent LF/LH lists.
func (h *Hive) subkeys(n Node) ([]NodeID, error) {
	if n.subkeyCount == 0 || n.subkeyListOffset == format.InvalidOffset {
		return nil, nil
	}
	cell, err := h.cell(n.subkeyListOffset)
	if err != nil {
		return nil, fmt.Errorf("hive: subkey list of %#x: %w", uint32(n.ID), err)
	}
	var offsets []uint32
	if format.IsRIList(cell.Data) {
		subLists, err := format.DecodeRIList(cell.Data)
		if err != nil {
			return nil, fmt.Errorf("hive: subkey list of %#x: %w", uint32(n.ID), err)
		}
		for _, listOff := range subLists {
			sub, err := h.cell(listOff)
			if err != nil {
				return nil, fmt.Errorf("hive: ri sub-list %#x: %w", listOff, err)
			}
			offs, err := format.DecodeSubkeyList(sub.Data, 0)
			if err != nil {
				return nil, fmt.Errorf("hive: ri sub-list %#x: %w", listOff, err)
			}
			offsets = append(offsets, offs...)
		}
	} else {
		offsets, err = format.DecodeSubkeyList(cell.Data, n.subkeyCount)
		if err != nil {
			return nil, fmt.Errorf("hive: subkey list of %#x: %w", uint32(n.ID), err)
		}
	}
	ids := make([]NodeID, len(offsets))
	for i, off := range offsets {
		ids[i] = NodeID(off)
	}
	return ids, nil
}

// values returns the VK offsets owned by the node.
func (h *Hive) values(n Node) ([]ValueID, error) {
	if n.valueCount == 0 || n.valueListOffset == format.InvalidOffset {
		return nil, nil
	}
	cell, err := h.cell(n.valueListOffset)
	if err != nil {
		return nil, fmt.Errorf("hive: value list of %#x: %w", uint32(n.ID), err)
	}
	offsets, err := format.DecodeValueList(cell.Data, n.valueCount)
	if err != nil {
		return nil, fmt.Errorf("hive: value list of %#x: %w", uint32(n.ID), err)
	}
	ids := make([]ValueID, len(offsets))
	for i, off := range offsets {
		ids[i] = ValueID(off)
	}
	return ids, nil
}
