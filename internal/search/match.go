package search

// StemMatch reports whether a stemmed query term matches any stem word.
//
// Matching strategy, in order:
//  1. exact equality;
//  2. prefix: one stem starts with the other, both at least 3 chars;
//  3. shared root: both stems at least 5 chars with a common prefix of at
//     least min(len(a), len(b)) - 1 chars. Covers the Snowball edge case
//     where the nominative singular keeps a suffix that oblique cases lose:
//     гребешок (8) vs гребешк (7) share гребеш (6) >= min(7,8)-1.
//
// Query stems shorter than 3 chars require exact equality only, preventing
// short-stem false positives.
//
// Lengths and prefixes are measured in runes, not bytes; Cyrillic stems are
// two bytes per letter.
func StemMatch(queryStem string, stemWords []string) bool {
	q := []rune(queryStem)
	if len(q) < 3 {
		for _, sw := range stemWords {
			if queryStem == sw {
				return true
			}
		}
		return false
	}

	for _, sw := range stemWords {
		if queryStem == sw {
			return true
		}
		s := []rune(sw)
		minLen := len(q)
		if len(s) < minLen {
			minLen = len(s)
		}
		if minLen < 3 {
			continue
		}
		if hasPrefix(s, q) || hasPrefix(q, s) {
			return true
		}
		if minLen >= 5 && commonPrefixLen(q, s) >= minLen-1 {
			return true
		}
	}
	return false
}

func hasPrefix(word, prefix []rune) bool {
	if len(prefix) > len(word) {
		return false
	}
	for i := range prefix {
		if word[i] != prefix[i] {
			return false
		}
	}
	return true
}

func commonPrefixLen(a, b []rune) int {
	n := 0
	for n < len(a) && n < len(b) && a[n] == b[n] {
		n++
	}
	return n
}
