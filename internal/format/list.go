package format

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/joshuapare/hivexml/internal/buf"
)

// DecodeSubkeyList extracts NK offsets from list records (LI, LF, LH). Each
// entry stores the relative offset of a child NK cell. LF/LH additionally
// store a hashed name which is skipped here because traversal loads the NK
// records anyway.
func DecodeSubkeyList(b []byte, expected uint32) ([]uint32, error) {
	if len(b) < ListHeaderSize {
		return nil, fmt.Errorf("subkey list: %w", ErrTruncated)
	}
	sig := b[:SignatureSize]
	entryCount := uint32(buf.U16LE(b[SignatureSize:ListHeaderSize]))
	if expected != 0 && expected < entryCount {
		entryCount = expected
	}
	switch {
	case bytes.Equal(sig, LISignature):
		return decodeOffsetArray(b[ListHeaderSize:], entryCount, OffsetFieldSize, "li list")
	case bytes.Equal(sig, LFSignature), bytes.Equal(sig, LHSignature):
		return decodeOffsetArray(b[ListHeaderSize:], entryCount, LFEntrySize, "lf list")
	default:
		return nil, fmt.Errorf("subkey list: %w", ErrUnsupported)
	}
}

func decodeOffsetArray(b []byte, count uint32, stride int, what string) ([]uint32, error) {
	if _, err := buf.CheckListBounds(len(b), 0, int(count), stride); err != nil {
		return nil, fmt.Errorf("%s: %w", what, err)
	}
	out := make([]uint32, count)
	for i := range out {
		out[i] = buf.U32LE(b[i*stride:])
	}
	return out, nil
}

// IsRIList checks whether a cell payload contains an RI (indirect) subkey
// list. RI lists appear when a key has many subkeys and contain offsets to
// multiple LF/LH lists rather than direct NK offsets.
func IsRIList(b []byte) bool {
	return len(b) >= SignatureSize && bytes.Equal(b[:SignatureSize], RISignature)
}

// DecodeRIList decodes an RI list and returns the offsets of the constituent
// LF/LH lists. The caller must fetch and decode each sub-list.
func DecodeRIList(b []byte) ([]uint32, error) {
	if len(b) < ListHeaderSize {
		return nil, fmt.Errorf("ri list: %w", ErrTruncated)
	}
	if !bytes.Equal(b[:SignatureSize], RISignature) {
		return nil, errors.New("ri list: invalid signature")
	}
	count := uint32(buf.U16LE(b[SignatureSize:ListHeaderSize]))
	offs, err := decodeOffsetArray(b[ListHeaderSize:], count, OffsetFieldSize, "ri list")
	if err != nil {
		return nil, err
	}
	return offs, nil
}

// DecodeValueList decodes a value list containing offsets to VK records.
func DecodeValueList(b []byte, count uint32) ([]uint32, error) {
	if count == 0 {
		return nil, nil
	}
	offs, err := decodeOffsetArray(b, count, OffsetFieldSize, "value list")
	if err != nil {
		return nil, err
	}
	return offs, nil
}
