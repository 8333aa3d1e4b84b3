// Package hive opens Windows Registry hive files read-only and drives a
// depth-first traversal over their keys and values. It decodes the container
// format (REGF header, hive bins, cells, NK/VK records and their lists) and
// hands typed, pre-decoded data to a Visitor.
package hive

import (
	"errors"
	"fmt"

	"github.com/joshuapare/hivexml/internal/format"
	"github.com/joshuapare/hivexml/internal/mmfile"
)

// NodeID is the cell offset of an NK record, relative to the first hive bin.
type NodeID uint32

// ValueID is the cell offset of a VK record, relative to the first hive bin.
type ValueID uint32

// ErrClosed is returned when a hive is used after Close.
var ErrClosed = errors.New("hive: closed")

// ErrChecksum indicates the REGF header checksum did not match.
var ErrChecksum = errors.New("hive: header checksum mismatch")

// Hive is an open, read-only registry hive.
type Hive struct {
	buf    []byte
	unmap  func() error
	head   format.Header
	closed bool
}

// Open memory-maps the hive file at path and validates its container
// structure.
func Open(path string) (*Hive, error) {
	data, unmap, err := mmfile.Map(path)
	if err != nil {
		return nil, fmt.Errorf("hive: open %s: %w", path, err)
	}
	h, err := newHive(data, unmap)
	if err != nil {
		_ = unmap()
		return nil, err
	}
	return h, nil
}

// OpenBytes opens a hive from an in-memory image. The buffer must remain
// valid and unmodified for the lifetime of the hive.
func OpenBytes(buf []byte) (*Hive, error) {
	return newHive(buf, func() error { return nil })
}

func newHive(buf []byte, unmap func() error) (*Hive, error) {
	head, err := format.ParseHeader(buf)
	if err != nil {
		return nil, fmt.Errorf("hive: %w", err)
	}
	if got, want := format.Checksum(buf), checksumField(buf); got != want {
		return nil, fmt.Errorf("hive: %w (stored %#x, computed %#x)", ErrChecksum, want, got)
	}
	h := &Hive{buf: buf, unmap: unmap, head: head}
	if err := h.validateHBINs(); err != nil {
		return nil, err
	}
	return h, nil
}

func checksumField(buf []byte) uint32 {
	v, _ := format.CheckedReadU32(buf, format.REGFCheckSumOffset)
	return v
}

// validateHBINs walks every hive bin header once at open time so cell
// resolution can trust bin boundaries afterwards.
func (h *Hive) validateHBINs() error {
	offset := format.HeaderSize
	dataEnd := format.HeaderSize + int(h.head.HiveBinsDataSize)
	if dataEnd > len(h.buf) {
		return fmt.Errorf("hive: declared data size %d exceeds file: %w",
			h.head.HiveBinsDataSize, format.ErrTruncated)
	}
	for offset < dataEnd {
		_, next, err := format.NextHBIN(h.buf, offset)
		if err != nil {
			return fmt.Errorf("hive: hbin at %#x: %w", offset, err)
		}
		if next <= offset {
			return fmt.Errorf("hive: hbin at %#x failed to advance", offset)
		}
		offset = next
	}
	return nil
}

// Close releases the underlying mapping. The hive must not be used after.
func (h *Hive) Close() error {
	if h.closed {
		return nil
	}
	h.closed = true
	h.buf = nil
	return h.unmap()
}

func (h *Hive) ensureOpen() error {
	if h.closed {
		return ErrClosed
	}
	return nil
}

// Root returns the ID of the root key.
func (h *Hive) Root() NodeID {
	return NodeID(h.head.RootCellOffset)
}

// LastWriteRaw returns the hive-level last write timestamp as raw FILETIME
// ticks.
func (h *Hive) LastWriteRaw() uint64 {
	return h.head.LastWriteRaw
}

// Size returns the total file size in bytes.
func (h *Hive) Size() int {
	return len(h.buf)
}

// cell resolves a cell offset (relative to the first hive bin) into a parsed
// allocated cell.
func (h *Hive) cell(offset uint32) (format.Cell, error) {
	if offset == format.InvalidOffset {
		return format.Cell{}, fmt.Errorf("hive: invalid cell offset")
	}
	abs := format.HeaderSize + int(offset)
	if abs < format.HeaderSize || abs >= len(h.buf) {
		return format.Cell{}, fmt.Errorf("hive: cell offset %#x out of range", offset)
	}
	cell, err := format.ParseCell(h.buf[abs:])
	if err != nil {
		return format.Cell{}, fmt.Errorf("hive: cell at %#x: %w", offset, err)
	}
	if cell.Free {
		return format.Cell{}, fmt.Errorf("hive: cell at %#x: %w", offset, format.ErrFreeCell)
	}
	return cell, nil
}

// FileOffset converts a relative cell offset to an absolute file offset.
func FileOffset(rel uint32) uint64 {
	return uint64(format.HeaderSize) + uint64(rel)
}
