package transform

import (
	"bufio"
	"bytes"
	"io"

	"golang.org/x/text/encoding"
	xtransform "golang.org/x/text/transform"
)

// BOM is the UTF-8 byte-order mark
var BOM = []byte{0xEF, 0xBB, 0xBF}

// ErrInvalidUTF8 is returned when a table contains bytes that are not UTF-8,
// e.g. a feed exported as CP949.
var ErrInvalidUTF8 = encoding.ErrInvalidUTF8

// StripBOM returns a reader over r with a leading UTF-8 byte-order mark
// removed. Every other byte passes through unchanged.
func StripBOM(r io.Reader) io.Reader {
	br := bufio.NewReader(r)
	// a short or failed peek leaves the error for the first Read
	if prefix, _ := br.Peek(len(BOM)); HasBOM(prefix) {
		_, _ = br.Discard(len(BOM))
	}
	return br
}

// RequireUTF8 returns a reader over r that fails with ErrInvalidUTF8 at the
// first invalid byte sequence instead of replacing it.
func RequireUTF8(r io.Reader) io.Reader {
	return xtransform.NewReader(r, encoding.UTF8Validator)
}

// HasBOM reports whether prefix starts with the UTF-8 byte-order mark.
func HasBOM(prefix []byte) bool {
	return bytes.HasPrefix(prefix, BOM)
}
