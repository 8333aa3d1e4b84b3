package format

import (
	"bytes"
	"fmt"

	"github.com/joshuapare/hivexml/internal/buf"
)

// VKRecord models a value key record header. VK cells describe registry
// values and reference the actual data payload, either inline or via another
// cell.
type VKRecord struct {
	NameLength uint16
	DataLength uint32
	DataOffset uint32
	Type       uint32
	Flags      uint16
	NameRaw    []byte
	DataRaw    []byte // inline data bytes when DataInline, else nil
}

// NameIsASCII reports whether the name is stored as Windows-1252 bytes.
func (vk VKRecord) NameIsASCII() bool {
	return vk.Flags&VKFlagASCIIName != 0
}

// DataInline reports whether the data is stored within the DataOffset field.
func (vk VKRecord) DataInline() bool {
	return vk.DataLength&VKDataInlineBit != 0
}

// PayloadLength returns the data length with the inline bit masked off.
func (vk VKRecord) PayloadLength() int {
	return int(vk.DataLength & VKDataLengthMask)
}

// DecodeVK decodes a VK record payload with bounds checking on every field.
func DecodeVK(b []byte) (VKRecord, error) {
	if len(b) < VKMinSize {
		return VKRecord{}, fmt.Errorf("vk: %w (have %d, need %d)", ErrTruncated, len(b), VKMinSize)
	}
	if !bytes.Equal(b[:SignatureSize], VKSignature) {
		return VKRecord{}, fmt.Errorf("vk: %w", ErrSignatureMismatch)
	}

	nameLen, err := CheckedReadU16(b, VKNameLenOffset)
	if err != nil {
		return VKRecord{}, fmt.Errorf("vk name len: %w", err)
	}
	if int(nameLen) > MaxNameLen {
		return VKRecord{}, fmt.Errorf("vk name len %d exceeds limit %d: %w",
			nameLen, MaxNameLen, ErrSanityLimit)
	}
	dataLen, err := CheckedReadU32(b, VKDataLenOffset)
	if err != nil {
		return VKRecord{}, fmt.Errorf("vk data len: %w", err)
	}
	if dataLen&VKDataLengthMask > MaxValueDataLen {
		return VKRecord{}, fmt.Errorf("vk data len %d exceeds limit %d: %w",
			dataLen&VKDataLengthMask, MaxValueDataLen, ErrSanityLimit)
	}
	dataOff, err := CheckedReadU32(b, VKDataOffOffset)
	if err != nil {
		return VKRecord{}, fmt.Errorf("vk data off: %w", err)
	}
	valType, err := CheckedReadU32(b, VKTypeOffset)
	if err != nil {
		return VKRecord{}, fmt.Errorf("vk type: %w", err)
	}
	flags, err := CheckedReadU16(b, VKFlagsOffset)
	if err != nil {
		return VKRecord{}, fmt.Errorf("vk flags: %w", err)
	}

	name, ok := buf.Slice(b, VKNameOffset, int(nameLen))
	if !ok {
		return VKRecord{}, fmt.Errorf("vk name: %w (need %d bytes from %d, have %d)",
			ErrTruncated, nameLen, VKNameOffset, len(b))
	}

	rec := VKRecord{
		NameLength: nameLen,
		DataLength: dataLen,
		DataOffset: dataOff,
		Type:       valType,
		Flags:      flags,
		NameRaw:    name,
	}
	if rec.DataInline() {
		n := rec.PayloadLength()
		if n > OffsetFieldSize {
			return VKRecord{}, fmt.Errorf("vk: inline data length %d exceeds %d bytes", n, OffsetFieldSize)
		}
		rec.DataRaw = b[VKDataOffOffset : VKDataOffOffset+n : VKDataOffOffset+n]
	}
	return rec, nil
}
