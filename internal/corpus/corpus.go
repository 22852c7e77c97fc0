// Package corpus normalizes article text into tokens and builds the
// term-weighting statistics for one analysis batch.
//
// Document frequency counts each token once per distinct article. The
// inverse-document-frequency weight uses the smoothed formula
//
//	idf(t) = log((1 + N) / (1 + df(t))) + 1
//
// where N is the batch size. The "+1" smoothing keeps every weight strictly
// positive, so a term present in every document still contributes instead of
// collapsing the vector space to zero.
package corpus

import (
	"math"
	"strings"
	"unicode"

	"github.com/dgaraujo/newstrend/internal/models"
)

// Tokenizer normalizes raw article text into a token sequence.
type Tokenizer struct {
	minTokenLength int
	stopWords      map[string]struct{}
}

// NewTokenizer creates a tokenizer dropping tokens shorter than
// minTokenLength runes or contained in stopWords.
func NewTokenizer(minTokenLength int, stopWords []string) *Tokenizer {
	if minTokenLength < 1 {
		minTokenLength = 1
	}
	stop := make(map[string]struct{}, len(stopWords))
	for _, w := range stopWords {
		stop[strings.ToLower(w)] = struct{}{}
	}
	return &Tokenizer{
		minTokenLength: minTokenLength,
		stopWords:      stop,
	}
}

// Tokenize lower-cases the text, splits on word boundaries (any rune that is
// not a letter or digit separates tokens, which also strips punctuation and
// markup remnants), and drops short and stop-listed tokens. Returns nil for
// text with no retained tokens.
func (t *Tokenizer) Tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		if len([]rune(f)) < t.minTokenLength {
			continue
		}
		if _, stopped := t.stopWords[f]; stopped {
			continue
		}
		tokens = append(tokens, f)
	}
	if len(tokens) == 0 {
		return nil
	}
	return tokens
}

// TokenizeArticle tokenizes an article's title followed by its body, so
// headline terms participate in both term weighting and sequence alignment.
func (t *Tokenizer) TokenizeArticle(a *models.Article) []string {
	if a.Title == "" {
		return t.Tokenize(a.Text)
	}
	return t.Tokenize(a.Title + " " + a.Text)
}

// TermWeightTable holds per-token document frequencies and the batch size.
// Built once per run and read-only afterward; every token appearing in any
// article vector of the run exists in this table.
type TermWeightTable struct {
	docFreq map[string]int
	numDocs int
}

// BuildTable computes document frequencies over the tokenized batch.
// An empty batch yields a usable table that weighs nothing.
func BuildTable(documents [][]string) *TermWeightTable {
	docFreq := make(map[string]int)
	for _, doc := range documents {
		seen := make(map[string]struct{}, len(doc))
		for _, tok := range doc {
			if _, dup := seen[tok]; dup {
				continue
			}
			seen[tok] = struct{}{}
			docFreq[tok]++
		}
	}
	return &TermWeightTable{
		docFreq: docFreq,
		numDocs: len(documents),
	}
}

// NumDocs returns the batch size N.
func (t *TermWeightTable) NumDocs() int {
	return t.numDocs
}

// DocFreq returns the number of distinct documents containing token.
func (t *TermWeightTable) DocFreq(token string) int {
	return t.docFreq[token]
}

// IDF returns the smoothed inverse-document-frequency weight for token.
// Strictly positive for every token, including ones absent from the batch.
func (t *TermWeightTable) IDF(token string) float64 {
	n := float64(t.numDocs)
	df := float64(t.docFreq[token])
	return math.Log((1+n)/(1+df)) + 1
}
