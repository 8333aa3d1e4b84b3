package xmlout

import "strings"

// Encoding is the safety classification of a string destined for an XML
// attribute.
type Encoding int

const (
	// EncodingDirect means the bytes may be embedded as-is.
	EncodingDirect Encoding = iota
	// EncodingBase64 means the bytes must be base64-escaped.
	EncodingBase64
)

// Classify decides whether s can be written directly into an attribute. A
// string qualifies only when it is non-empty and every byte is printable
// ASCII (0x20 through 0x7E); anything else, including the empty string, is
// escaped. Callers must truncate at the first NUL before classifying, see
// TruncateAtNUL.
func Classify(s string) Encoding {
	printable := false
	for i := 0; i < len(s); i++ {
		printable = s[i] >= 0x20 && s[i] <= 0x7E
		if !printable {
			break
		}
	}
	if printable {
		return EncodingDirect
	}
	return EncodingBase64
}

// TruncateAtNUL cuts s at its first NUL byte. String handling here treats
// NUL as a terminator throughout: classification and emission both operate
// on the truncated text, so bytes past an embedded NUL never reach the
// output even on the escaped path.
func TruncateAtNUL(s string) string {
	if i := strings.IndexByte(s, 0); i >= 0 {
		return s[:i]
	}
	return s
}
