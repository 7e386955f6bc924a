package fanout

import (
	"fmt"

	"github.com/bububa/deepsearch/components/systemprompt"
	"github.com/bububa/deepsearch/components/tokenizer"
)

// ContextProvider exposes a tagged outcome to a system prompt
type ContextProvider struct {
	title     string
	outcome   Outcome
	counter   tokenizer.TokenCounter
	maxTokens int
}

var _ systemprompt.ContextProvider = (*ContextProvider)(nil)

// NewContextProvider returns a provider for outcome, its text is truncated to maxTokens when a counter is given
func NewContextProvider(title string, outcome Outcome, counter tokenizer.TokenCounter, maxTokens int) *ContextProvider {
	return &ContextProvider{
		title:     title,
		outcome:   outcome,
		counter:   counter,
		maxTokens: maxTokens,
	}
}

func (p ContextProvider) Title() string {
	return p.title
}

func (p ContextProvider) Info() string {
	text := p.outcome.Text()
	if p.counter != nil && p.maxTokens > 0 {
		text = tokenizer.Truncate(p.counter, text, p.maxTokens)
	}
	return fmt.Sprintf("Tag: %s\nQuery: %s\n%s", p.outcome.Tag, p.outcome.Query, text)
}
