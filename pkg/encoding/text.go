// Package encoding converts fixed-size text fields found in binary mesh
// files to and from UTF-8.
package encoding

import (
	"bytes"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// Windows1252ToUTF8 decodes Windows-1252 bytes, the code page most CAD
// exporters use for header text. Returns the input as-is if decoding fails.
func Windows1252ToUTF8(data []byte) string {
	result, _, err := transform.Bytes(charmap.Windows1252.NewDecoder(), data)
	if err != nil {
		return string(data)
	}
	return string(result)
}

// UTF8ToWindows1252 encodes s as Windows-1252. Characters outside the code
// page are replaced with '?'.
func UTF8ToWindows1252(s string) []byte {
	enc := charmap.Windows1252.NewEncoder()
	var out []byte
	for _, r := range s {
		b, err := enc.Bytes([]byte(string(r)))
		if err != nil {
			b = []byte{'?'}
		}
		out = append(out, b...)
	}
	return out
}

// TrimNullBytes removes trailing null bytes from a byte slice.
func TrimNullBytes(data []byte) []byte {
	return bytes.TrimRight(data, "\x00")
}

// FixedStringToUTF8 converts a fixed-size text field to a UTF-8 string.
// Text stops at the first null byte; trailing spaces are dropped. Valid
// UTF-8 is kept, anything else is read as Windows-1252.
func FixedStringToUTF8(data []byte) string {
	if i := bytes.IndexByte(data, 0); i >= 0 {
		data = data[:i]
	}
	data = bytes.TrimRight(data, " ")
	if utf8.Valid(data) {
		return string(data)
	}
	return Windows1252ToUTF8(data)
}

// UTF8ToFixedString converts s to a null-padded field of the given size,
// encoded as Windows-1252 and truncated to fit.
func UTF8ToFixedString(s string, size int) []byte {
	result := make([]byte, size)
	copy(result, UTF8ToWindows1252(s))
	return result
}
