// Package textproc turns free-text messages into word tokens.
package textproc

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/aaaton/golem/v4"
	"github.com/aaaton/golem/v4/dicts/en"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var nonAlphanumeric = regexp.MustCompile(`[^a-zA-Z0-9]`)

// Lemmatizer maps a word to its dictionary form.
type Lemmatizer interface {
	Lemma(word string) string
}

// Tokenizer normalizes, splits, filters and lemmatizes message text.
// It is safe for concurrent use.
type Tokenizer struct {
	lemmatizer Lemmatizer
	stopWords  map[string]struct{}
	faithful   bool
}

// Option configures a Tokenizer.
type Option func(*Tokenizer)

// WithLemmatizer replaces the English dictionary lemmatizer.
func WithLemmatizer(l Lemmatizer) Option {
	return func(t *Tokenizer) { t.lemmatizer = l }
}

// WithFaithful reproduces the reference pipeline: text is not lowercased
// and tokens are returned before lemmatization.
func WithFaithful(faithful bool) Option {
	return func(t *Tokenizer) { t.faithful = faithful }
}

// NewTokenizer loads the linguistic resources. Call it once per process and
// share the result.
func NewTokenizer(opts ...Option) (*Tokenizer, error) {
	t := &Tokenizer{stopWords: englishStopWords()}
	for _, opt := range opts {
		opt(t)
	}
	if t.lemmatizer == nil && !t.faithful {
		l, err := golem.New(en.New())
		if err != nil {
			return nil, fmt.Errorf("failed to load english lemmatizer: %w", err)
		}
		t.lemmatizer = l
	}
	return t, nil
}

// Tokenize returns the word tokens of text in order, duplicates kept.
func (t *Tokenizer) Tokenize(text string) []string {
	if !t.faithful {
		text = cases.Lower(language.English).String(text)
	}
	text = nonAlphanumeric.ReplaceAllString(text, " ")

	fields := strings.Fields(text)
	words := fields[:0]
	for _, w := range fields {
		if _, stop := t.stopWords[w]; !stop {
			words = append(words, w)
		}
	}
	if t.faithful {
		return words
	}

	for i, w := range words {
		words[i] = t.lemmatizer.Lemma(w)
	}
	return words
}

// Faithful reports whether t keeps case and skips lemmatization.
func (t *Tokenizer) Faithful() bool { return t.faithful }
