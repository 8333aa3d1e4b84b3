package format

import (
	"encoding/binary"
	"fmt"
)

// Little-endian field access for hive structures. Put* helpers are used by
// the test fixtures that forge hive images; CheckedRead* helpers are the
// bounds-checked reads used by record decoders.

// PutU16 writes a little-endian uint16 at off.
func PutU16(b []byte, off int, v uint16) {
	binary.LittleEndian.PutUint16(b[off:off+2], v)
}

// PutU32 writes a little-endian uint32 at off.
func PutU32(b []byte, off int, v uint32) {
	binary.LittleEndian.PutUint32(b[off:off+4], v)
}

// PutI32 writes a little-endian int32 at off.
func PutI32(b []byte, off int, v int32) {
	binary.LittleEndian.PutUint32(b[off:off+4], uint32(v))
}

// PutU64 writes a little-endian uint64 at off.
func PutU64(b []byte, off int, v uint64) {
	binary.LittleEndian.PutUint64(b[off:off+8], v)
}

// CheckedReadU16 reads a little-endian uint16 at off, erroring when the
// buffer is too short.
func CheckedReadU16(b []byte, off int) (uint16, error) {
	if off < 0 || off+2 > len(b) {
		return 0, fmt.Errorf("read u16 at %d: %w", off, ErrTruncated)
	}
	return binary.LittleEndian.Uint16(b[off:]), nil
}

// CheckedReadU32 reads a little-endian uint32 at off, erroring when the
// buffer is too short.
func CheckedReadU32(b []byte, off int) (uint32, error) {
	if off < 0 || off+4 > len(b) {
		return 0, fmt.Errorf("read u32 at %d: %w", off, ErrTruncated)
	}
	return binary.LittleEndian.Uint32(b[off:]), nil
}

// CheckedReadU64 reads a little-endian uint64 at off, erroring when the
// buffer is too short.
func CheckedReadU64(b []byte, off int) (uint64, error) {
	if off < 0 || off+8 > len(b) {
		return 0, fmt.Errorf("read u64 at %d: %w", off, ErrTruncated)
	}
	return binary.LittleEndian.Uint64(b[off:]), nil
}
