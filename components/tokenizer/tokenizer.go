// Package tokenizer bounds the amount of search text handed to a language model.
package tokenizer

import (
	"bytes"
	"fmt"
	"unicode"

	"github.com/clipperhouse/uax29/words"
	"github.com/pkoukk/tiktoken-go"
)

// TruncatedMarker is appended to text cut by Truncate
const TruncatedMarker = " [truncated]"

// TokenCounter defines the interface for counting and cutting tokens in a string.
type TokenCounter interface {
	// Count returns the number of tokens in text
	Count(text string) int
	// Head returns the leading text holding at most max tokens
	Head(text string, max int) string
}

// Truncate keeps the leading max tokens of text. Text within budget is
// returned unchanged, a non-positive max disables the budget.
func Truncate(counter TokenCounter, text string, max int) string {
	if max <= 0 || counter.Count(text) <= max {
		return text
	}
	return counter.Head(text, max) + TruncatedMarker
}

// WordsTokenCounter counts Unicode words (UAX #29), ignoring whitespace and punctuation segments.
type WordsTokenCounter struct{}

var _ TokenCounter = WordsTokenCounter{}

func (c WordsTokenCounter) Count(text string) int {
	var n int
	for _, seg := range words.SegmentAll([]byte(text)) {
		if isWord(seg) {
			n++
		}
	}
	return n
}

func (c WordsTokenCounter) Head(text string, max int) string {
	var (
		buf bytes.Buffer
		n   int
	)
	for _, seg := range words.SegmentAll([]byte(text)) {
		if isWord(seg) {
			if n == max {
				break
			}
			n++
		}
		buf.Write(seg)
	}
	return string(bytes.TrimRightFunc(buf.Bytes(), unicode.IsSpace))
}

func isWord(seg []byte) bool {
	return bytes.IndexFunc(seg, func(r rune) bool {
		return unicode.IsLetter(r) || unicode.IsNumber(r)
	}) >= 0
}

// TikTokenCounter provides accurate token counting using the tiktoken library,
// which implements the tokenization schemes used by OpenAI models.
type TikTokenCounter struct {
	tke *tiktoken.Tiktoken
}

var _ TokenCounter = (*TikTokenCounter)(nil)

// NewTikTokenCounter creates a new TikTokenCounter using the specified encoding.
// Common encodings include:
// - "cl100k_base" (GPT-4, ChatGPT)
// - "o200k_base" (GPT-4o)
func NewTikTokenCounter(encoding string) (*TikTokenCounter, error) {
	tke, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, fmt.Errorf("failed to get encoding: %w", err)
	}
	return &TikTokenCounter{tke: tke}, nil
}

func (c *TikTokenCounter) Count(text string) int {
	return len(c.tke.Encode(text, nil, nil))
}

func (c *TikTokenCounter) Head(text string, max int) string {
	tokens := c.tke.Encode(text, nil, nil)
	if len(tokens) <= max {
		return text
	}
	return c.tke.Decode(tokens[:max])
}

// New returns a TikTokenCounter for encoding, or the word counter when encoding is empty
func New(encoding string) (TokenCounter, error) {
	if encoding == "" {
		return WordsTokenCounter{}, nil
	}
	return NewTikTokenCounter(encoding)
}
