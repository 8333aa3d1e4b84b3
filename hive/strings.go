package hive

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/encoding/charmap"
)

// decodeName converts a stored key or value name into UTF-8. Compressed
// names use Windows-1252; otherwise the bytes are UTF-16LE.
func decodeName(data []byte, compressed bool) (string, error) {
	if len(data) == 0 {
		return "", nil
	}
	if compressed {
		// ASCII bytes are identical in Windows-1252 and UTF-8.
		if isASCII(data) {
			return string(data), nil
		}
		decoded, err := charmap.Windows1252.NewDecoder().Bytes(data)
		if err != nil {
			return "", fmt.Errorf("decode windows-1252 name: %w", err)
		}
		return string(decoded), nil
	}
	if len(data)%2 != 0 {
		return "", errors.New("utf-16 name has odd length")
	}
	return decodeUTF16LE(data), nil
}

// DecodeUTF16 decodes a UTF-16LE registry string, trimming one trailing NUL
// terminator when present.
func DecodeUTF16(data []byte) (string, error) {
	if len(data) == 0 {
		return "", nil
	}
	if len(data)%2 != 0 {
		return "", errors.New("utf-16 string has odd length")
	}
	if len(data) >= 2 && data[len(data)-2] == 0 && data[len(data)-1] == 0 {
		data = data[:len(data)-2]
	}
	return decodeUTF16LE(data), nil
}

// DecodeMultiString splits a REG_MULTI_SZ payload into its component
// strings. The payload is a sequence of NUL-terminated UTF-16LE strings
// ending with an empty string.
func DecodeMultiString(data []byte) ([]string, error) {
	if len(data)%2 != 0 {
		return nil, errors.New("multi-string has odd length")
	}
	if len(data) < 2 || data[len(data)-1] != 0 || data[len(data)-2] != 0 {
		return nil, errors.New("multi-string missing terminator")
	}
	var result []string
	start := 0
	for i := 0; i < len(data); i += 2 {
		if data[i] == 0 && data[i+1] == 0 {
			if i == start {
				break
			}
			s, err := DecodeUTF16(data[start:i])
			if err != nil {
				return nil, err
			}
			result = append(result, s)
			start = i + 2
		}
	}
	return result, nil
}

// ValidUTF16LE reports whether data is well-formed UTF-16LE: an even number
// of bytes with every surrogate correctly paired. Malformed text is passed
// through raw rather than repaired, so this check decides which path a
// string value takes.
func ValidUTF16LE(data []byte) bool {
	if len(data)%2 != 0 {
		return false
	}
	for i := 0; i+1 < len(data); i += 2 {
		u := uint16(data[i]) | uint16(data[i+1])<<8
		switch {
		case u >= 0xD800 && u <= 0xDBFF:
			if i+3 >= len(data) {
				return false
			}
			u2 := uint16(data[i+2]) | uint16(data[i+3])<<8
			if u2 < 0xDC00 || u2 > 0xDFFF {
				return false
			}
			i += 2
		case u >= 0xDC00 && u <= 0xDFFF:
			return false
		}
	}
	return true
}

// decodeUTF16LE decodes UTF-16LE bytes to a UTF-8 string. The fast path
// handles the all-ASCII names that dominate real hives without rune
// conversion.
func decodeUTF16LE(data []byte) string {
	allASCII := len(data)%2 == 0
	if allASCII {
		for i := 0; i < len(data); i += 2 {
			if data[i+1] != 0 || data[i] >= 0x80 {
				allASCII = false
				break
			}
		}
	}
	if allASCII {
		var b strings.Builder
		b.Grow(len(data) / 2)
		for i := 0; i < len(data); i += 2 {
			b.WriteByte(data[i])
		}
		return b.String()
	}

	var b strings.Builder
	b.Grow(len(data))
	for i := 0; i+1 < len(data); i += 2 {
		r := rune(data[i]) | rune(data[i+1])<<8
		if r >= 0xD800 && r <= 0xDBFF && i+3 < len(data) {
			r2 := rune(data[i+2]) | rune(data[i+3])<<8
			if r2 >= 0xDC00 && r2 <= 0xDFFF {
				r = 0x10000 + ((r-0xD800)<<10 | (r2 - 0xDC00))
				i += 2
			}
		}
		b.WriteRune(r)
	}
	return b.String()
}

// isASCII reports whether every byte in data is below 0x80.
func isASCII(data []byte) bool {
	for _, b := range data {
		if b >= 0x80 {
			return false
		}
	}
	return true
}
