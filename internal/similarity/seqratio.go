package similarity

// SequenceRatio computes a longest-matching-block similarity ratio between
// two token sequences (Ratcliff/Obershelp): find the longest contiguous
// matching block, recurse on the pieces left and right of it, and return
// 2·M / (len(a) + len(b)) where M is the total number of matched tokens.
//
// Unlike cosine over bags of words, the ratio is sensitive to wording and
// order, which separates near-verbatim republishing from paraphrase and
// catches short, stop-word-heavy articles that cosine under-weights.
// Returns a value in [0,1]; two empty sequences are trivially identical.
func SequenceRatio(a, b []string) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1
	}
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	m := newBlockMatcher(a, b)
	matched := m.matchedTotal()
	return 2 * float64(matched) / float64(len(a)+len(b))
}

// blockMatcher finds matching blocks between two token sequences.
// Positions of every token in b are indexed once so each longest-match
// search only walks occurrences of tokens that actually appear in b.
type blockMatcher struct {
	a, b []string
	b2j  map[string][]int
}

func newBlockMatcher(a, b []string) *blockMatcher {
	b2j := make(map[string][]int)
	for j, tok := range b {
		b2j[tok] = append(b2j[tok], j)
	}
	return &blockMatcher{a: a, b: b, b2j: b2j}
}

// span is a pending pair of sub-ranges [alo,ahi) × [blo,bhi) to match.
type span struct {
	alo, ahi, blo, bhi int
}

// matchedTotal sums the sizes of all matching blocks, processing sub-ranges
// iteratively with an explicit stack instead of recursion.
func (m *blockMatcher) matchedTotal() int {
	total := 0
	stack := []span{{0, len(m.a), 0, len(m.b)}}

	for len(stack) > 0 {
		s := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		i, j, size := m.longestMatch(s.alo, s.ahi, s.blo, s.bhi)
		if size == 0 {
			continue
		}
		total += size
		stack = append(stack,
			span{s.alo, i, s.blo, j},
			span{i + size, s.ahi, j + size, s.bhi},
		)
	}
	return total
}

// longestMatch finds the longest contiguous matching block within
// a[alo:ahi] × b[blo:bhi]. Of equally long blocks it returns the one
// starting earliest in a, then earliest in b, which keeps the matching
// deterministic for identical inputs.
func (m *blockMatcher) longestMatch(alo, ahi, blo, bhi int) (besti, bestj, bestSize int) {
	besti, bestj = alo, blo
	j2len := make(map[int]int)

	for i := alo; i < ahi; i++ {
		newJ2len := make(map[int]int)
		for _, j := range m.b2j[m.a[i]] {
			if j < blo {
				continue
			}
			if j >= bhi {
				break
			}
			k := j2len[j-1] + 1
			newJ2len[j] = k
			if k > bestSize {
				besti, bestj, bestSize = i-k+1, j-k+1, k
			}
		}
		j2len = newJ2len
	}
	return besti, bestj, bestSize
}
