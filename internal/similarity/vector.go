package similarity

import (
	"math"
	"sort"

	"github.com/dgaraujo/newstrend/internal/corpus"
)

// Vector is a sparse TF-IDF article vector: token → non-negative weight,
// absent token means weight zero. Vectors produced by Vectorize are
// L2-normalized, so cosine similarity reduces to a plain dot product.
type Vector map[string]float64

// IsZero reports whether the vector has no components. Articles with no
// retained tokens produce zero vectors and are excluded from pair scoring,
// never treated as an error.
func (v Vector) IsZero() bool {
	return len(v) == 0
}

// Vectorize converts a token sequence into a unit-length TF-IDF vector using
// the batch term-weight table. When logDampenTF is set, the raw term count is
// dampened to 1 + ln(count) before weighting. Pure function of its inputs.
func Vectorize(tokens []string, table *corpus.TermWeightTable, logDampenTF bool) Vector {
	if len(tokens) == 0 {
		return Vector{}
	}

	tf := make(map[string]float64, len(tokens))
	for _, tok := range tokens {
		tf[tok]++
	}

	// Accumulate the norm in sorted token order: float addition is not
	// associative, so summing in map iteration order would change the last
	// ULPs of every weight from run to run.
	terms := make([]string, 0, len(tf))
	for tok := range tf {
		terms = append(terms, tok)
	}
	sort.Strings(terms)

	v := make(Vector, len(tf))
	var sumSquares float64
	for _, tok := range terms {
		count := tf[tok]
		if logDampenTF {
			count = 1 + math.Log(count)
		}
		w := count * table.IDF(tok)
		v[tok] = w
		sumSquares += w * w
	}

	norm := math.Sqrt(sumSquares)
	if norm == 0 {
		return Vector{}
	}
	for tok := range v {
		v[tok] /= norm
	}
	return v
}

// Cosine returns the cosine similarity of two unit-normalized vectors: the
// dot product over their shared tokens, in [0,1] for non-negative weights.
// Returns 0 when either vector is zero.
func Cosine(a, b Vector) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	// Iterate the smaller vector, in sorted token order so the sum is
	// bit-identical on every call regardless of map iteration order
	if len(b) < len(a) {
		a, b = b, a
	}
	shared := make([]string, 0, len(a))
	for tok := range a {
		if _, ok := b[tok]; ok {
			shared = append(shared, tok)
		}
	}
	sort.Strings(shared)

	var dot float64
	for _, tok := range shared {
		dot += a[tok] * b[tok]
	}
	if dot > 1 {
		// Normalization rounding can nudge the dot product past 1
		return 1
	}
	return dot
}
