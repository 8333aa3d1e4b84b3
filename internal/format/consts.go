// Package format houses low-level decoders for the Windows Registry hive file
// format. Parsing here stays allocation-free where possible and independent
// from the traversal layer so higher-level packages can orchestrate the data.
package format

var (
	// REGFSignature is the four-byte signature at the start of every hive file.
	REGFSignature = []byte{'r', 'e', 'g', 'f'}

	// HBINSignature is the four-byte signature at the beginning of each hive bin.
	HBINSignature = []byte{'h', 'b', 'i', 'n'}

	// NKSignature identifies an NK (Node Key) cell payload.
	NKSignature = []byte{'n', 'k'}

	// VKSignature identifies a VK (Value Key) cell payload.
	VKSignature = []byte{'v', 'k'}

	// LFSignature, LHSignature, and LISignature identify subkey list variants.
	// LF/LH include hashed names, while LI is a linear list without hashes.
	LFSignature = []byte{'l', 'f'}
	LHSignature = []byte{'l', 'h'}
	LISignature = []byte{'l', 'i'}

	// RISignature identifies an RI (indirect) subkey list record used when a
	// key has many subkeys. RI lists contain offsets to multiple LF/LH lists.
	RISignature = []byte{'r', 'i'}

	// DBSignature identifies a Big Data (DB) record for large registry values.
	DBSignature = []byte{'d', 'b'}
)

const (
	// HeaderSize is the size of the REGF header in bytes. The first HBIN
	// starts immediately after it, so relative cell offsets are converted to
	// file offsets by adding this constant.
	HeaderSize = 4096

	// HBINHeaderSize is the size of the HBIN header in bytes.
	HBINHeaderSize = 0x20

	// CellHeaderSize is the number of bytes used by the signed-size header
	// preceding every allocation (free or in-use) within an HBIN.
	CellHeaderSize = 4

	// HBINAlignment is the required alignment of hive bins.
	HBINAlignment = 0x1000

	// CellAlignment is the required alignment of cells within HBINs.
	CellAlignment = 8

	// InvalidOffset marks unused offset fields in NK and VK records.
	InvalidOffset = 0xFFFFFFFF
)

// NK field offsets within the record payload (payload start == "nk").
const (
	NKSignatureOffset   = 0x00 // USHORT, "nk"
	NKFlagsOffset       = 0x02 // USHORT
	NKLastWriteOffset   = 0x04 // FILETIME (8 bytes)
	NKAccessBitsOffset  = 0x0C // ULONG, ignored
	NKParentOffset      = 0x10 // ULONG cell offset of parent
	NKSubkeyCountOffset = 0x14 // ULONG stable subkey count
	NKSubkeyListOffset  = 0x1C // ULONG offset to stable subkey list
	NKValueCountOffset  = 0x24 // ULONG value count
	NKValueListOffset   = 0x28 // ULONG offset to value list
	NKSecurityOffset    = 0x2C // ULONG offset to SK
	NKClassNameOffset   = 0x30 // ULONG offset to class data
	NKNameLenOffset     = 0x48 // USHORT name length in bytes
	NKClassLenOffset    = 0x4A // USHORT class length in bytes
	NKNameOffset        = 0x4C // start of inline name

	// NKFlagCompressedName marks names stored as 8-bit Windows-1252 bytes
	// rather than UTF-16LE (KEY_COMP_NAME).
	NKFlagCompressedName = 0x20

	// NKFixedHeaderSize is the offset where the inline name starts.
	NKFixedHeaderSize = NKNameOffset // 0x4C
	NKMinSize         = NKFixedHeaderSize
)

// VK field offsets within the record payload.
const (
	VKSignatureOffset = 0x00 // USHORT, "vk"
	VKNameLenOffset   = 0x02 // USHORT name length in bytes
	VKDataLenOffset   = 0x04 // ULONG, high bit set => data inline in DataOff
	VKDataOffOffset   = 0x08 // ULONG data cell offset, or the inline bytes
	VKTypeOffset      = 0x0C // ULONG registry value type
	VKFlagsOffset     = 0x10 // USHORT
	VKNameOffset      = 0x14 // start of inline name

	// VKFlagASCIIName marks value names stored in Windows-1252.
	VKFlagASCIIName = 0x0001

	// VKDataInlineBit is the high bit of DataLength; when set the data
	// (1..4 bytes) lives directly in the DataOff field.
	VKDataInlineBit  = 0x80000000
	VKDataLengthMask = 0x7FFFFFFF

	VKFixedHeaderSize = VKNameOffset // 0x14
	VKMinSize         = VKFixedHeaderSize
)

// Subkey and value list layout. LI/LF/LH/RI share a four-byte header of
// signature plus entry count.
const (
	SignatureSize   = 2
	ListHeaderSize  = 4
	OffsetFieldSize = 4
	LFEntrySize     = 8 // offset (4 bytes) + name hash (4 bytes)
)

// DB (Big Data) record layout (_CM_BIG_DATA). Values larger than a single
// cell are split into a blocklist of data chunks.
const (
	DBNumBlocksOffset = 0x02 // USHORT, number of data blocks
	DBBlocklistOffset = 0x04 // ULONG, offset to blocklist cell
	DBUnknown1Offset  = 0x08 // ULONG, never accessed
	DBMinSize         = 0x0C

	// DBChunkSize is the data capacity of each block: 16 KiB minus the
	// 4-byte cell header that follows each block.
	DBChunkSize = 16344

	// DBBlockPadding is trimmed from the end of each assembled block; the
	// next cell's header trails every data block.
	DBBlockPadding = 4

	DBMinBlockCount = 2
	DBMaxBlockCount = 65535
)

// REGF header field offsets.
const (
	REGFSignatureSize      = 4
	REGFPrimarySeqOffset   = 0x004 // uint32
	REGFSecondarySeqOffset = 0x008 // uint32
	REGFTimeStampOffset    = 0x00C // uint64 LE, Windows FILETIME
	REGFMajorVersionOffset = 0x014 // uint32
	REGFMinorVersionOffset = 0x018 // uint32
	REGFTypeOffset         = 0x01C // uint32
	REGFRootCellOffset     = 0x024 // uint32, relative to first HBIN
	REGFDataSizeOffset     = 0x028 // uint32, sum of HBIN sizes
	REGFClusterOffset      = 0x02C // uint32
	REGFFileNameOffset     = 0x030 // 64 bytes, UTF-16LE
	REGFCheckSumOffset     = 0x1FC // uint32, XOR of the preceding dwords

	// The header checksum covers the first 508 bytes, i.e. 127 dwords.
	REGFChecksumDwords = 127
)

// Windows registry value type codes.
// See https://docs.microsoft.com/en-us/windows/win32/sysinfo/registry-value-types
const (
	RegNone                     uint32 = 0
	RegSz                       uint32 = 1
	RegExpandSz                 uint32 = 2
	RegBinary                   uint32 = 3
	RegDword                    uint32 = 4
	RegDwordBE                  uint32 = 5
	RegLink                     uint32 = 6
	RegMultiSz                  uint32 = 7
	RegResourceList             uint32 = 8
	RegFullResourceDescriptor   uint32 = 9
	RegResourceRequirementsList uint32 = 10
	RegQword                    uint32 = 11
)

// Sanity limits applied while decoding records. Counts or lengths beyond
// these indicate corruption rather than a legitimately large hive.
const (
	MaxNameLen      = 0x10000
	MaxClassLen     = 0x10000
	MaxSubkeyCount  = 1_000_000
	MaxValueCount   = 1_000_000
	MaxValueDataLen = DBMaxBlockCount * DBChunkSize
)
