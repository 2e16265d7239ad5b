package quota

import (
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// CountChars returns the number of characters in data decoded as UTF-8.
// A leading byte order mark is consumed and invalid bytes are not counted.
// An encoded U+FFFD in the input is a real character and counts as one.
// When the bytes are non-empty but contain no decodable character the raw
// byte length is returned instead.
func CountChars(data []byte) int64 {
	if len(data) == 0 {
		return 0
	}

	decoded, _, err := transform.Bytes(unicode.BOMOverride(transform.Nop), data)
	if err != nil {
		decoded = data
	}

	var n int64
	for len(decoded) > 0 {
		r, size := utf8.DecodeRune(decoded)
		decoded = decoded[size:]
		if r == utf8.RuneError && size == 1 {
			continue
		}
		n++
	}

	if n == 0 {
		return int64(len(data))
	}
	return n
}

// CountUploadChars sums CountChars over every file in a batch.
func CountUploadChars(files [][]byte) int64 {
	var total int64
	for _, f := range files {
		total += CountChars(f)
	}
	return total
}
