package ml

import (
	"context"
	"fmt"

	"github.com/cockroachdb/errors"
)

// Params are the hyperparameters searched by GridSearch.
type Params struct {
	NGramMin        int
	NGramMax        int
	MinSamplesSplit int
}

func (p Params) String() string {
	return fmt.Sprintf("ngram_range=(%d, %d) min_samples_split=%d", p.NGramMin, p.NGramMax, p.MinSamplesSplit)
}

// ForestConfig holds the forest settings that are not searched.
type ForestConfig struct {
	NEstimators int
	Seed        int64
	Workers     int
}

// Pipeline chains a CountVectorizer, a TfidfTransformer and a
// MultiOutputClassifier. Labels names the classifier's output columns.
// Faithful records the tokenizer mode the vocabulary was built with; a
// loaded pipeline must be given a tokenizer in the same mode.
type Pipeline struct {
	Labels     []string
	Params     Params
	RunID      string
	Faithful   bool
	Vectorizer *CountVectorizer
	Tfidf      *TfidfTransformer
	Classifier *MultiOutputClassifier
}

// NewPipeline returns an unfitted pipeline.
func NewPipeline(tokenize TokenizeFunc, params Params, forest ForestConfig, labels []string) *Pipeline {
	return &Pipeline{
		Labels:     labels,
		Params:     params,
		Vectorizer: NewCountVectorizer(tokenize, params.NGramMin, params.NGramMax),
		Tfidf:      &TfidfTransformer{},
		Classifier: NewMultiOutputClassifier(ForestParams{
			NEstimators:     forest.NEstimators,
			MinSamplesSplit: params.MinSamplesSplit,
			Seed:            forest.Seed,
			Workers:         forest.Workers,
		}),
	}
}

// Fit trains every stage on docs and their label rows Y.
func (p *Pipeline) Fit(ctx context.Context, docs []string, Y [][]int) error {
	if len(docs) == 0 {
		return errors.Mark(errors.New("no training documents"), ErrModelFit)
	}
	if len(docs) != len(Y) {
		return errors.Newf("%d documents but %d label rows", len(docs), len(Y))
	}

	counts, err := p.Vectorizer.FitTransform(docs)
	if err != nil {
		return err
	}
	X := p.Tfidf.FitTransform(counts, p.Vectorizer.NumFeatures())
	return p.Classifier.Fit(ctx, X, Y, p.Vectorizer.NumFeatures())
}

// Predict returns one row of label values per document.
func (p *Pipeline) Predict(docs []string) [][]int {
	X := p.Tfidf.Transform(p.Vectorizer.Transform(docs))
	return p.Classifier.Predict(X)
}

// SetTokenizer attaches the tokenizer to a decoded pipeline.
func (p *Pipeline) SetTokenizer(tokenize TokenizeFunc) {
	p.Vectorizer.SetTokenizer(tokenize)
}
