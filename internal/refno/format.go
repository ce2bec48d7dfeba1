// Package refno mints the human-readable reference numbers carried by every
// document. A reference has the form PREFIX/SEQ/YY where SEQ is the per-year
// counter of the document type, zero-padded to the type's padding, and YY is
// the last two digits of the year.
package refno

import (
	"fmt"
	"strconv"
	"strings"
)

// FormatSequence renders seq with at least padding digits. Longer values are
// never truncated.
func FormatSequence(seq int64, padding int) string {
	s := strconv.FormatInt(seq, 10)
	if len(s) >= padding {
		return s
	}
	return strings.Repeat("0", padding-len(s)) + s
}

// Format composes a reference number.
func Format(prefix string, seq int64, padding, year int) string {
	return fmt.Sprintf("%s/%s/%02d", prefix, FormatSequence(seq, padding), year%100)
}

// Parse splits a reference number into prefix, sequence and two-digit year.
// Prefixes may themselves contain slashes, so the last two segments are taken
// as sequence and year.
func Parse(ref string) (prefix string, seq int64, yy int, ok bool) {
	yearAt := strings.LastIndexByte(ref, '/')
	if yearAt <= 0 {
		return "", 0, 0, false
	}
	seqAt := strings.LastIndexByte(ref[:yearAt], '/')
	if seqAt <= 0 {
		return "", 0, 0, false
	}

	seq, err := strconv.ParseInt(ref[seqAt+1:yearAt], 10, 64)
	if err != nil || seq <= 0 {
		return "", 0, 0, false
	}
	yy, err = strconv.Atoi(ref[yearAt+1:])
	if err != nil || yy < 0 || yy > 99 || len(ref[yearAt+1:]) != 2 {
		return "", 0, 0, false
	}
	return ref[:seqAt], seq, yy, true
}
