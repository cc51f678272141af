package bearer

import "crypto/subtle"

// constantTimeCompare is swapped in tests to record the comparison trace.
var constantTimeCompare = subtle.ConstantTimeCompare

// compare reports whether candidate equals key without leaking where they
// first differ. On a length mismatch the candidate is compared against itself
// so the work done matches a real comparison of that length.
func compare(key, candidate []byte) bool {
	if len(key) != len(candidate) {
		constantTimeCompare(candidate, candidate)
		return false
	}
	return constantTimeCompare(key, candidate) == 1
}

// authenticate scans every key; it does not stop at the first match.
func authenticate(keys [][]byte, candidate []byte) (int, bool) {
	match := -1
	for i, k := range keys {
		if compare(k, candidate) && match < 0 {
			match = i
		}
	}
	return match, match >= 0
}
