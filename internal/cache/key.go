package cache

import (
	"crypto/md5"
	"encoding/binary"
	"encoding/hex"
	"unicode/utf8"
)

// KeyLength is the width of every key returned by DeriveKey.
const KeyLength = md5.Size * 2

// DeriveKey hashes an ordered sequence of discriminators into a fixed-width
// hex key. Each part is length-prefixed before hashing, so no choice of part
// contents can make two different sequences encode to the same bytes.
func DeriveKey(parts ...string) string {
	h := md5.New()
	var prefix [8]byte
	for _, p := range parts {
		binary.BigEndian.PutUint64(prefix[:], uint64(len(p)))
		h.Write(prefix[:])
		h.Write([]byte(p))
	}
	return hex.EncodeToString(h.Sum(nil))
}

// TruncateText shortens text to at most maxChars characters, appending "..."
// when anything was cut. A non-positive maxChars leaves text untouched.
func TruncateText(text string, maxChars int) string {
	if maxChars <= 0 || utf8.RuneCountInString(text) <= maxChars {
		return text
	}
	n := 0
	for i := range text {
		if n == maxChars {
			return text[:i] + "..."
		}
		n++
	}
	return text
}

// RequestKey builds the key for an operation over free-form request text plus
// any extra parameters that change the result (item type, item count, ...).
func RequestKey(op, text string, maxChars int, params ...string) string {
	parts := make([]string, 0, len(params)+2)
	parts = append(parts, op, TruncateText(text, maxChars))
	parts = append(parts, params...)
	return DeriveKey(parts...)
}
