package ml

import (
	"bufio"
	"encoding/gob"
	"fmt"
	"os"
)

// SaveModel writes the fitted pipeline to path.
func SaveModel(path string, p *Pipeline) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create model file: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	if err := gob.NewEncoder(w).Encode(p); err != nil {
		return fmt.Errorf("failed to encode model: %w", err)
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("failed to write model: %w", err)
	}
	return f.Close()
}

// LoadModel reads a pipeline written by SaveModel. The tokenizer is not part
// of the file: attach one matching p.Faithful with SetTokenizer before
// predicting.
func LoadModel(path string) (*Pipeline, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open model file: %w", err)
	}
	defer f.Close()

	p := &Pipeline{}
	if err := gob.NewDecoder(bufio.NewReader(f)).Decode(p); err != nil {
		return nil, fmt.Errorf("failed to decode model: %w", err)
	}
	if p.Vectorizer == nil || p.Tfidf == nil || p.Classifier == nil {
		return nil, fmt.Errorf("model file %s is incomplete", path)
	}
	return p, nil
}
