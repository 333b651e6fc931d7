// Package fuzzy ranks free-text words against the known vocabulary of
// student and meal names. Distances are counted in Unicode code points so
// diacritics cost a single edit.
package fuzzy

// Distance returns the Levenshtein edit distance between a and b with unit
// insert, delete and substitute costs.
func Distance(a, b string) int {
	ar := []rune(a)
	br := []rune(b)
	if len(ar) == 0 {
		return len(br)
	}
	if len(br) == 0 {
		return len(ar)
	}

	prev := make([]int, len(br)+1)
	curr := make([]int, len(br)+1)
	for j := range prev {
		prev[j] = j
	}

	for i, ac := range ar {
		curr[0] = i + 1
		for j, bc := range br {
			cost := 1
			if ac == bc {
				cost = 0
			}
			curr[j+1] = min(
				min(curr[j]+1, prev[j+1]+1),
				prev[j]+cost,
			)
		}
		prev, curr = curr, prev
	}
	return prev[len(br)]
}
