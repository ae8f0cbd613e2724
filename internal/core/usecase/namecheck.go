package usecase

import "strings"

// hasCloseMatch reports whether target is close enough to at least one of
// the known names. Similarity is a subsequence ratio in [0,1]; a cutoff of
// 0.8 tolerates small spelling drift in model output without letting a
// hallucinated clause name through.
func hasCloseMatch(target string, names []string, cutoff float64) bool {
	target = strings.ToLower(strings.TrimSpace(target))
	if target == "" {
		return false
	}
	for _, name := range names {
		if matchRatio(target, strings.ToLower(name)) >= cutoff {
			return true
		}
	}
	return false
}

// matchRatio computes 2*LCS(a,b) / (len(a)+len(b)) over runes.
func matchRatio(a, b string) float64 {
	if a == b {
		return 1
	}
	ra := []rune(a)
	rb := []rune(b)
	total := len(ra) + len(rb)
	if total == 0 {
		return 1
	}
	if len(ra) == 0 || len(rb) == 0 {
		return 0
	}

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for i := 1; i <= len(ra); i++ {
		for j := 1; j <= len(rb); j++ {
			if ra[i-1] == rb[j-1] {
				curr[j] = prev[j-1] + 1
				continue
			}
			if prev[j] >= curr[j-1] {
				curr[j] = prev[j]
			} else {
				curr[j] = curr[j-1]
			}
		}
		prev, curr = curr, prev
		for j := range curr {
			curr[j] = 0
		}
	}
	return 2 * float64(prev[len(rb)]) / float64(total)
}
