package canonical

// Similarity scores two normalized keys as
// 1 - levenshtein(a, b) / max(len(a), len(b)), measured in runes.
// Identical non-empty keys score 1. Two empty keys have no defined score and
// return 0; callers never pass empty keys.
func Similarity(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	longest := max(len(ra), len(rb))
	if longest == 0 {
		return 0
	}
	return 1 - float64(levenshtein(ra, rb))/float64(longest)
}

// levenshtein returns the edit distance between a and b using two rows.
func levenshtein(a, b []rune) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	// keep the shorter input in a so the rows stay small
	if len(a) > len(b) {
		a, b = b, a
	}

	prev := make([]int, len(a)+1)
	curr := make([]int, len(a)+1)
	for i := range prev {
		prev[i] = i
	}

	for j := 1; j <= len(b); j++ {
		curr[0] = j
		for i := 1; i <= len(a); i++ {
			if a[i-1] == b[j-1] {
				curr[i] = prev[i-1]
				continue
			}
			curr[i] = 1 + min(prev[i-1], prev[i], curr[i-1])
		}
		prev, curr = curr, prev
	}

	return prev[len(a)]
}
