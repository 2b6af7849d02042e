package ml

import (
	"sort"
	"strings"

	"github.com/cockroachdb/errors"
)

// TokenizeFunc splits a document into word tokens.
type TokenizeFunc func(string) []string

// CountVectorizer maps documents to sparse n-gram count vectors.
type CountVectorizer struct {
	NGramMin   int
	NGramMax   int
	Vocabulary map[string]int

	tokenize TokenizeFunc
}

// NewCountVectorizer builds a vectorizer over n-grams of ngramMin..ngramMax tokens.
func NewCountVectorizer(tokenize TokenizeFunc, ngramMin, ngramMax int) *CountVectorizer {
	return &CountVectorizer{
		NGramMin: ngramMin,
		NGramMax: ngramMax,
		tokenize: tokenize,
	}
}

// SetTokenizer attaches the tokenizer after the vectorizer was decoded.
func (v *CountVectorizer) SetTokenizer(tokenize TokenizeFunc) { v.tokenize = tokenize }

// Fit learns the vocabulary. Terms are indexed in sorted order.
func (v *CountVectorizer) Fit(docs []string) error {
	terms := make(map[string]struct{})
	for _, doc := range docs {
		for _, term := range v.analyze(doc) {
			terms[term] = struct{}{}
		}
	}
	if len(terms) == 0 {
		return errors.Mark(errors.New("empty vocabulary; documents only contain stop words"), ErrModelFit)
	}

	sorted := make([]string, 0, len(terms))
	for term := range terms {
		sorted = append(sorted, term)
	}
	sort.Strings(sorted)

	v.Vocabulary = make(map[string]int, len(sorted))
	for i, term := range sorted {
		v.Vocabulary[term] = i
	}
	return nil
}

// Transform counts vocabulary terms per document; unknown terms are ignored.
func (v *CountVectorizer) Transform(docs []string) []SparseVector {
	out := make([]SparseVector, len(docs))
	for i, doc := range docs {
		counts := make(map[int]float64)
		for _, term := range v.analyze(doc) {
			if j, ok := v.Vocabulary[term]; ok {
				counts[j]++
			}
		}
		out[i] = fromMap(counts)
	}
	return out
}

// FitTransform is Fit followed by Transform.
func (v *CountVectorizer) FitTransform(docs []string) ([]SparseVector, error) {
	if err := v.Fit(docs); err != nil {
		return nil, err
	}
	return v.Transform(docs), nil
}

// NumFeatures returns the vocabulary size.
func (v *CountVectorizer) NumFeatures() int { return len(v.Vocabulary) }

// analyze returns the n-grams of doc, shortest first.
func (v *CountVectorizer) analyze(doc string) []string {
	tokens := v.tokenize(doc)
	if v.NGramMin == 1 && v.NGramMax == 1 {
		return tokens
	}

	var grams []string
	for n := v.NGramMin; n <= v.NGramMax; n++ {
		for i := 0; i+n <= len(tokens); i++ {
			if n == 1 {
				grams = append(grams, tokens[i])
				continue
			}
			grams = append(grams, strings.Join(tokens[i:i+n], " "))
		}
	}
	return grams
}

func fromMap(m map[int]float64) SparseVector {
	v := SparseVector{
		Indices: make([]int, 0, len(m)),
		Values:  make([]float64, 0, len(m)),
	}
	for j := range m {
		v.Indices = append(v.Indices, j)
	}
	sort.Ints(v.Indices)
	for _, j := range v.Indices {
		v.Values = append(v.Values, m[j])
	}
	return v
}
