package hive

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/hivexml/internal/testutil"
)

func TestDecodeNameCompressed(t *testing.T) {
	got, err := decodeName([]byte("ControlSet001"), true)
	require.NoError(t, err)
	require.Equal(t, "ControlSet001", got)
}

func TestDecodeNameWindows1252(t *testing.T) {
	// 0xE9 is e-acute in Windows-1252.
	got, err := decodeName([]byte{'c', 'a', 'f', 0xE9}, true)
	require.NoError(t, err)
	require.Equal(t, "café", got)
}

func TestDecodeNameUTF16(t *testing.T) {
	got, err := decodeName(testutil.UTF16LEBytes("日本語", false), false)
	require.NoError(t, err)
	require.Equal(t, "日本語", got)
}

func TestDecodeNameOddLength(t *testing.T) {
	_, err := decodeName([]byte{'a', 0, 'b'}, false)
	require.Error(t, err)
}

func TestDecodeUTF16TrimsTerminator(t *testing.T) {
	got, err := DecodeUTF16(testutil.UTF16LEBytes("hello", true))
	require.NoError(t, err)
	require.Equal(t, "hello", got)

	// Without a terminator the text survives untouched.
	got, err = DecodeUTF16(testutil.UTF16LEBytes("hello", false))
	require.NoError(t, err)
	require.Equal(t, "hello", got)
}

func TestDecodeUTF16SurrogatePair(t *testing.T) {
	got, err := DecodeUTF16(testutil.UTF16LEBytes("\U0001F600", true))
	require.NoError(t, err)
	require.Equal(t, "\U0001F600", got)
}

func TestDecodeMultiString(t *testing.T) {
	got, err := DecodeMultiString(testutil.MultiSZBytes("alpha", "beta", "gamma"))
	require.NoError(t, err)
	require.Equal(t, []string{"alpha", "beta", "gamma"}, got)
}

func TestDecodeMultiStringMissingTerminator(t *testing.T) {
	_, err := DecodeMultiString(testutil.UTF16LEBytes("alpha", true))
	require.Error(t, err)
}

func TestValidUTF16LE(t *testing.T) {
	require.True(t, ValidUTF16LE(nil))
	require.True(t, ValidUTF16LE(testutil.UTF16LEBytes("plain", true)))
	require.True(t, ValidUTF16LE(testutil.UTF16LEBytes("\U0001F600", false)))

	// Odd byte count.
	require.False(t, ValidUTF16LE([]byte{'a', 0, 'b'}))
	// High surrogate with no partner.
	require.False(t, ValidUTF16LE([]byte{0x00, 0xD8}))
	// High surrogate followed by a non-surrogate unit.
	require.False(t, ValidUTF16LE([]byte{0x00, 0xD8, 'a', 0x00}))
	// Lone low surrogate.
	require.False(t, ValidUTF16LE([]byte{0x00, 0xDC}))
}
