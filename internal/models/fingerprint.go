package models

import (
	"fmt"
	"strconv"
)

// Fingerprint derives the stable identity of a finding from its kind,
// title, and 1-based line number. Identical (kind, title, line) always
// produces the identical fingerprint across scans, which is what the
// diff engine and baselines key on.
//
// Known limitation: an edit that only shifts line numbers changes the
// fingerprint, so the diff reports such findings as a new+fixed pair
// rather than unchanged.
func Fingerprint(kind, title string, line int) string {
	input := fmt.Sprintf("%s|%s|%d", kind, title, line)
	var hash int32
	for _, c := range input {
		hash = (hash << 5) - hash + int32(c)
	}
	// Widen before negating: -MinInt32 does not fit in int32.
	v := int64(hash)
	if v < 0 {
		v = -v
	}
	return strconv.FormatInt(v, 16)
}
