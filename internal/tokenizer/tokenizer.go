// Package tokenizer provides pluggable token-count estimation strategies.
//
// The segmentation and retrieval layers never count tokens themselves; they
// accept a Counter chosen at construction time. Two strategies are provided:
// a character-ratio approximation and a word-ratio estimator that tracks
// English prose more closely. An exact model-specific tokenizer can be
// plugged in by implementing Counter.
package tokenizer

import "strings"

// Counter converts text to an integer token estimate.
type Counter interface {
	Count(text string) int
}

const (
	// charsPerToken is the character-ratio heuristic (~4 chars per token).
	charsPerToken = 4

	// tokensPerWord is the word-ratio heuristic for English prose.
	tokensPerWord = 1.33
)

// CharCounter estimates tokens as len(text)/4. It is the cheap fallback used
// when no model-calibrated strategy is configured.
type CharCounter struct{}

// NewCharCounter creates a character-ratio counter.
func NewCharCounter() CharCounter {
	return CharCounter{}
}

func (CharCounter) Count(text string) int {
	return len(text) / charsPerToken
}

// WordCounter estimates tokens from whitespace-separated word counts. For
// running prose this lands closer to real subword tokenizers than the raw
// character ratio.
type WordCounter struct{}

// NewWordCounter creates a word-ratio counter.
func NewWordCounter() WordCounter {
	return WordCounter{}
}

func (WordCounter) Count(text string) int {
	if text == "" {
		return 0
	}
	words := len(strings.Fields(text))
	tokens := int(float64(words) * tokensPerWord)
	if tokens < 1 {
		tokens = 1
	}
	return tokens
}
