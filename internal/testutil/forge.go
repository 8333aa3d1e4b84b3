// Package testutil forges complete hive images in memory so tests can
// exercise parsing and conversion without binary fixture files. The images
// carry a valid REGF header with checksum, a single HBIN sized to fit, and
// properly aligned cells for every record.
package testutil

import (
	"unicode/utf16"

	"github.com/joshuapare/hivexml/internal/format"
)

// Key describes one registry key to forge.
type Key struct {
	Name string
	// NameUTF16 stores the name as UTF-16LE instead of the compressed
	// 8-bit form.
	NameUTF16 bool
	// Time is the key's last write FILETIME tick count.
	Time    uint64
	Values  []*Value
	Subkeys []*Key
}

// Value describes one registry value to forge.
type Value struct {
	Name      string
	NameUTF16 bool
	Type      uint32
	Data      []byte
	// ForceExternal stores the payload in a data cell even when it would
	// fit inline in the VK record.
	ForceExternal bool
}

// Built is a forged hive image plus the cell offsets assigned during
// emission, all relative to the first HBIN, for byte-run assertions.
type Built struct {
	Image        []byte
	KeyOffsets   map[*Key]uint32
	ValueOffsets map[*Value]uint32
	// DataOffsets holds the data cell offset of externally stored values;
	// inline values are absent.
	DataOffsets map[*Value]uint32
}

type forge struct {
	cells []byte
	built *Built
}

// Build forges a hive image rooted at root. hiveTime becomes the hive-level
// last write timestamp.
func Build(root *Key, hiveTime uint64) *Built {
	f := &forge{
		built: &Built{
			KeyOffsets:   make(map[*Key]uint32),
			ValueOffsets: make(map[*Value]uint32),
			DataOffsets:  make(map[*Value]uint32),
		},
	}
	rootOff := f.emitKey(root, format.InvalidOffset)

	// One HBIN sized to the emitted cells plus room for a trailing free
	// cell, rounded up to the bin alignment.
	used := format.HBINHeaderSize + len(f.cells)
	hbinSize := (used + format.CellAlignment + format.HBINAlignment - 1) &^ (format.HBINAlignment - 1)
	image := make([]byte, format.HeaderSize+hbinSize)

	copy(image, format.REGFSignature)
	format.PutU32(image, format.REGFPrimarySeqOffset, 1)
	format.PutU32(image, format.REGFSecondarySeqOffset, 1)
	format.PutU64(image, format.REGFTimeStampOffset, hiveTime)
	format.PutU32(image, format.REGFMajorVersionOffset, 1)
	format.PutU32(image, format.REGFMinorVersionOffset, 3)
	format.PutU32(image, format.REGFTypeOffset, 0)
	format.PutU32(image, format.REGFRootCellOffset, rootOff)
	format.PutU32(image, format.REGFDataSizeOffset, uint32(hbinSize))
	format.PutU32(image, format.REGFClusterOffset, 1)
	format.PutU32(image, format.REGFCheckSumOffset, format.Checksum(image))

	hbin := image[format.HeaderSize:]
	copy(hbin, format.HBINSignature)
	format.PutU32(hbin, 4, 0)
	format.PutU32(hbin, 8, uint32(hbinSize))
	copy(hbin[format.HBINHeaderSize:], f.cells)

	// Mark the remaining space as one free cell.
	if free := hbinSize - used; free >= format.CellHeaderSize {
		format.PutI32(hbin, used, int32(free))
	}

	f.built.Image = image
	return f.built
}

// appendCell places payload in a fresh allocated cell, 8-byte aligned, and
// returns the cell's offset relative to the first HBIN.
func (f *forge) appendCell(payload []byte) uint32 {
	size := (format.CellHeaderSize + len(payload) + format.CellAlignment - 1) &^ (format.CellAlignment - 1)
	cell := make([]byte, size)
	format.PutI32(cell, 0, -int32(size))
	copy(cell[format.CellHeaderSize:], payload)
	off := uint32(format.HBINHeaderSize + len(f.cells))
	f.cells = append(f.cells, cell...)
	return off
}

// emitKey emits k's subtree bottom-up: subkeys, value data, VK records and
// lists first, then the NK record referencing them.
func (f *forge) emitKey(k *Key, parentOff uint32) uint32 {
	subkeyListOff := uint32(format.InvalidOffset)
	if len(k.Subkeys) > 0 {
		// Children need the parent offset before it exists; real hives
		// carry it but nothing in traversal reads it, so the marker
		// offset is good enough for forged images.
		childOffs := make([]uint32, len(k.Subkeys))
		for i, child := range k.Subkeys {
			childOffs[i] = f.emitKey(child, format.InvalidOffset)
		}
		subkeyListOff = f.emitLFList(k.Subkeys, childOffs)
	}

	valueListOff := uint32(format.InvalidOffset)
	if len(k.Values) > 0 {
		vkOffs := make([]uint32, len(k.Values))
		for i, v := range k.Values {
			vkOffs[i] = f.emitValue(v)
		}
		listPayload := make([]byte, len(vkOffs)*format.OffsetFieldSize)
		for i, off := range vkOffs {
			format.PutU32(listPayload, i*format.OffsetFieldSize, off)
		}
		valueListOff = f.appendCell(listPayload)
	}

	nameBytes, compressed := encodeName(k.Name, k.NameUTF16)
	payload := make([]byte, format.NKFixedHeaderSize+len(nameBytes))
	copy(payload, format.NKSignature)
	flags := uint16(0)
	if compressed {
		flags |= format.NKFlagCompressedName
	}
	format.PutU16(payload, format.NKFlagsOffset, flags)
	format.PutU64(payload, format.NKLastWriteOffset, k.Time)
	format.PutU32(payload, format.NKParentOffset, parentOff)
	format.PutU32(payload, format.NKSubkeyCountOffset, uint32(len(k.Subkeys)))
	format.PutU32(payload, format.NKSubkeyListOffset, subkeyListOff)
	format.PutU32(payload, format.NKValueCountOffset, uint32(len(k.Values)))
	format.PutU32(payload, format.NKValueListOffset, valueListOff)
	format.PutU32(payload, format.NKSecurityOffset, format.InvalidOffset)
	format.PutU32(payload, format.NKClassNameOffset, format.InvalidOffset)
	format.PutU16(payload, format.NKNameLenOffset, uint16(len(nameBytes)))
	copy(payload[format.NKNameOffset:], nameBytes)

	off := f.appendCell(payload)
	f.built.KeyOffsets[k] = off
	return off
}

// emitLFList emits an LF subkey list: each entry holds the child offset and
// a hash built from the first four characters of its name.
func (f *forge) emitLFList(subkeys []*Key, offs []uint32) uint32 {
	payload := make([]byte, format.ListHeaderSize+len(offs)*format.LFEntrySize)
	copy(payload, format.LFSignature)
	format.PutU16(payload, format.SignatureSize, uint16(len(offs)))
	for i, off := range offs {
		base := format.ListHeaderSize + i*format.LFEntrySize
		format.PutU32(payload, base, off)
		var hash [4]byte
		copy(hash[:], subkeys[i].Name)
		copy(payload[base+format.OffsetFieldSize:], hash[:])
	}
	return f.appendCell(payload)
}

func (f *forge) emitValue(v *Value) uint32 {
	nameBytes, compressed := encodeName(v.Name, v.NameUTF16)
	payload := make([]byte, format.VKFixedHeaderSize+len(nameBytes))
	copy(payload, format.VKSignature)
	format.PutU16(payload, format.VKNameLenOffset, uint16(len(nameBytes)))
	switch {
	case len(v.Data) <= format.OffsetFieldSize && !v.ForceExternal:
		format.PutU32(payload, format.VKDataLenOffset, format.VKDataInlineBit|uint32(len(v.Data)))
		var inline [format.OffsetFieldSize]byte
		copy(inline[:], v.Data)
		copy(payload[format.VKDataOffOffset:], inline[:])
	case len(v.Data) > format.DBChunkSize:
		dataOff := f.emitBigData(v.Data)
		f.built.DataOffsets[v] = dataOff
		format.PutU32(payload, format.VKDataLenOffset, uint32(len(v.Data)))
		format.PutU32(payload, format.VKDataOffOffset, dataOff)
	default:
		dataOff := f.appendCell(v.Data)
		f.built.DataOffsets[v] = dataOff
		format.PutU32(payload, format.VKDataLenOffset, uint32(len(v.Data)))
		format.PutU32(payload, format.VKDataOffOffset, dataOff)
	}
	format.PutU32(payload, format.VKTypeOffset, v.Type)
	if compressed {
		format.PutU16(payload, format.VKFlagsOffset, format.VKFlagASCIIName)
	}
	copy(payload[format.VKNameOffset:], nameBytes)

	off := f.appendCell(payload)
	f.built.ValueOffsets[v] = off
	return off
}

// emitBigData stores data as a Big Data record: fixed-size block cells, each
// carrying trailing padding bytes, a blocklist cell referencing them, and the
// db record the VK points at.
func (f *forge) emitBigData(data []byte) uint32 {
	var blockOffs []uint32
	for start := 0; start < len(data); start += format.DBChunkSize {
		end := start + format.DBChunkSize
		if end > len(data) {
			end = len(data)
		}
		block := make([]byte, end-start+format.DBBlockPadding)
		copy(block, data[start:end])
		blockOffs = append(blockOffs, f.appendCell(block))
	}

	listPayload := make([]byte, len(blockOffs)*format.OffsetFieldSize)
	for i, off := range blockOffs {
		format.PutU32(listPayload, i*format.OffsetFieldSize, off)
	}
	listOff := f.appendCell(listPayload)

	payload := make([]byte, format.DBMinSize)
	copy(payload, format.DBSignature)
	format.PutU16(payload, format.DBNumBlocksOffset, uint16(len(blockOffs)))
	format.PutU32(payload, format.DBBlocklistOffset, listOff)
	return f.appendCell(payload)
}

func encodeName(name string, wantUTF16 bool) (data []byte, compressed bool) {
	if !wantUTF16 {
		return []byte(name), true
	}
	return UTF16LEBytes(name, false), false
}

// UTF16LEBytes encodes s as UTF-16LE, optionally appending a NUL terminator
// the way REG_SZ payloads carry one.
func UTF16LEBytes(s string, terminate bool) []byte {
	units := utf16.Encode([]rune(s))
	if terminate {
		units = append(units, 0)
	}
	out := make([]byte, len(units)*2)
	for i, u := range units {
		out[i*2] = byte(u)
		out[i*2+1] = byte(u >> 8)
	}
	return out
}

// MultiSZBytes encodes strings as a REG_MULTI_SZ payload: NUL-terminated
// UTF-16LE strings followed by an empty terminator.
func MultiSZBytes(ss ...string) []byte {
	var out []byte
	for _, s := range ss {
		out = append(out, UTF16LEBytes(s, true)...)
	}
	return append(out, 0, 0)
}
