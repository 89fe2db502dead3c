// Package levenshtein computes edit distances between domain names.
package levenshtein

// Distance computes the Levenshtein edit distance between two strings,
// counting runes rather than bytes.
func Distance(s, t string) int {
	return distance([]rune(s), []rune(t), -1)
}

// Within reports whether the edit distance between s and t is at most max.
// It gives up as soon as every path exceeds max, which makes comparing one
// domain against a provider list cheap.
func Within(s, t string, max int) (int, bool) {
	if max < 0 {
		return 0, false
	}
	a, b := []rune(s), []rune(t)
	if diff := len(a) - len(b); diff > max || -diff > max {
		return 0, false
	}
	d := distance(a, b, max)
	return d, d >= 0 && d <= max
}

// distance runs the two-row dynamic programme. With limit >= 0 it returns
// -1 once the smallest value of a row exceeds limit.
func distance(a, b []rune, limit int) int {
	if len(a) < len(b) {
		a, b = b, a
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		curr[0] = i
		rowMin := curr[0]
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
			rowMin = min(rowMin, curr[j])
		}
		if limit >= 0 && rowMin > limit {
			return -1
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}
