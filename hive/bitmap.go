package hive

import "github.com/joshuapare/hivexml/internal/format"

const bitsPerWord = 64

// bitmap tracks visited cell offsets during traversal so that crafted hives
// with cyclic subkey lists terminate instead of recursing forever. One bit
// covers each possible cell start (cells are at least header-sized).
type bitmap struct {
	bits []uint64
	size uint32
}

func newBitmap(hiveDataSize uint32) *bitmap {
	numBits := (hiveDataSize + format.CellHeaderSize - 1) / format.CellHeaderSize
	numWords := (numBits + bitsPerWord - 1) / bitsPerWord
	return &bitmap{
		bits: make([]uint64, numWords),
		size: hiveDataSize,
	}
}

func (b *bitmap) set(offset uint32) {
	if offset >= b.size {
		return
	}
	bit := offset / format.CellHeaderSize
	b.bits[bit/bitsPerWord] |= 1 << (bit % bitsPerWord)
}

func (b *bitmap) isSet(offset uint32) bool {
	if offset >= b.size {
		return false
	}
	bit := offset / format.CellHeaderSize
	return b.bits[bit/bitsPerWord]&(1<<(bit%bitsPerWord)) != 0
}
