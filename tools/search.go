package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bububa/deepsearch/schema"
)

var (
	// ErrEmptyQuery is returned for a blank search query, before any network call
	ErrEmptyQuery = errors.New("empty search query")
	// ErrEmptyRequest is returned for a blank topic or capability request, before any network call
	ErrEmptyRequest = errors.New("empty request")
)

// Searcher is a web search backend normalized to SearchResult
type Searcher interface {
	ITool
	Search(ctx context.Context, query string, output *SearchResult) error
}

// Source is one web page backing a search answer
type Source struct {
	// Title of the page
	Title string `json:"title,omitempty" jsonschema:"title=title,description=The title of the source page."`
	// URL of the page
	URL string `json:"url,omitempty" jsonschema:"title=url,description=The URL of the source page."`
	// Snippet is a short excerpt of the page
	Snippet string `json:"snippet,omitempty" jsonschema:"title=snippet,description=A short excerpt of the source page."`
	// Excerpt is the scraped page content in markdown, when sources are enriched
	Excerpt string `json:"excerpt,omitempty" jsonschema:"title=excerpt,description=The scraped content of the source page in markdown."`
}

// SearchResult is the normalized payload of one search call
type SearchResult struct {
	schema.Base
	// Query used to obtain the result
	Query string `json:"query" jsonschema:"title=query,description=The query used to obtain this result."`
	// Answer is a sourced answer when the backend produces one
	Answer string `json:"answer,omitempty" jsonschema:"title=answer,description=The sourced answer returned by the search engine."`
	// Sources backing the answer, in backend order
	Sources []Source `json:"sources,omitempty" jsonschema:"title=sources,description=The pages backing the answer."`
}

// Empty reports whether the search found nothing
func (r SearchResult) Empty() bool {
	return strings.TrimSpace(r.Answer) == "" && len(r.Sources) == 0
}

// Text renders the result as plain text for a language model
func (r SearchResult) Text() string {
	var b strings.Builder
	if answer := strings.TrimSpace(r.Answer); answer != "" {
		b.WriteString("Answer: ")
		b.WriteString(answer)
		b.WriteString("\n")
	}
	if len(r.Sources) > 0 {
		b.WriteString("Sources:\n")
		for idx, src := range r.Sources {
			title := src.Title
			if title == "" {
				title = "No title"
			}
			fmt.Fprintf(&b, "%d. %s - %s\n", idx+1, title, src.URL)
			if snippet := strings.TrimSpace(src.Snippet); snippet != "" {
				b.WriteString(snippet)
				b.WriteString("\n")
			}
			if excerpt := strings.TrimSpace(src.Excerpt); excerpt != "" {
				b.WriteString("Page excerpt:\n")
				b.WriteString(excerpt)
				b.WriteString("\n")
			}
		}
	}
	return strings.TrimSpace(b.String())
}

// SearchError is the failure of one search call
type SearchError struct {
	// Provider is the search backend title
	Provider string
	// Query is the failed query
	Query string
	// StatusCode is the HTTP status returned by the backend, 0 when no response was received
	StatusCode int
	Err        error
}

func (e *SearchError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s search %q: status %d: %v", e.Provider, e.Query, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s search %q: %v", e.Provider, e.Query, e.Err)
}

func (e *SearchError) Unwrap() error {
	return e.Err
}
