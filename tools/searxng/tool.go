// Package searxng is a web search tool backed by a self-hosted SearxNG instance.
package searxng

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/bububa/deepsearch/schema"
	"github.com/bububa/deepsearch/tools"
	"github.com/bububa/deepsearch/tools/retry"
)

type Category = string

const (
	EmptyCategory       Category = ""
	GeneralCategory     Category = "general"
	NewsCategory        Category = "news"
	SocialMediaCategory Category = "social_media"
)

// Input Schema for input to a tool for searching for information, news, references, and other content using SearxNG.
type Input struct {
	schema.Base
	// Queries list of search queries.
	Queries []string `json:"queries" jsonschema:"title=queries,description=List of search queries." validate:"required"`
	// Category: Category of the search queries."
	Category Category `json:"category,omitempty" jsonschema:"title=category,enum=general,enum=news,enum=social_media,default=general,description=Category of the search queries."`
}

func NewInput(category Category, queries []string) *Input {
	return &Input{
		Queries:  queries,
		Category: category,
	}
}

// SearchResultItem represents a single search result item
type SearchResultItem struct {
	// URL The URL of the search result
	URL string `json:"url" jsonschema:"title=url,description=The URL of the search result"`
	// Title The title of the search result
	Title string `json:"title" jsonschema:"title=title,description=The title of the search result"`
	// Content The content snippet of the search result
	Content string `json:"content,omitempty" jsonschema:"title=content,description=The content snippet of the search result"`
	// Query The query used to obtain this search result
	Query string `json:"query" jsonschema:"title=query,description=The query used to obtain this search result"`
	// Category of the result
	Category Category `json:"category,omitempty"`
	// Metadata returned by some engines, often a date
	Metadata string `json:"metadata,omitempty"`
	// PublishedDate of the page when known
	PublishedDate string `json:"publishedDate,omitempty"`
}

// SearchResponse represents the entire response from the local search engine
type SearchResponse struct {
	Query           string             `json:"query"`
	NumberOfResults int                `json:"number_of_results"`
	Results         []SearchResultItem `json:"results"`
}

// Output represents the output of the SearxNG search tool.
type Output struct {
	schema.Base
	// Results List of search result items
	Results []SearchResultItem `json:"results,omitempty" jsonschema:"title=results,description=List of search result items"`
	// Category The category of the search results
	Category Category `json:"category,omitempty" jsonschema:"title=category,description=Category of the search results."`
}

type Config struct {
	tools.Config
	language   string
	baseURL    string
	maxResults int
	httpClient *http.Client
	retry      *retry.Config
}

// SearxngSearch is a tool for performing searches on SearxNG based on the provided queries and category.
type SearxngSearch struct {
	Config
	clt *retry.Client
}

var (
	_ tools.Tool[Input, Output] = (*SearxngSearch)(nil)
	_ tools.Searcher            = (*SearxngSearch)(nil)
)

func New(opts ...Option) *SearxngSearch {
	ret := new(SearxngSearch)
	for _, opt := range opts {
		opt(&ret.Config)
	}
	if ret.Title() == "" {
		ret.SetTitle("searxng")
	}
	if ret.maxResults == 0 {
		ret.maxResults = 10
	}
	ret.baseURL = strings.TrimRight(ret.baseURL, "/")
	retryCfg := retry.DefaultConfig()
	if ret.retry != nil {
		retryCfg = *ret.retry
	}
	ret.clt = retry.New(ret.httpClient, retryCfg)
	return ret
}

// Run Runs the SearxNGTool synchronously with the given parameters.
// Results missing a title, url or content are dropped, at most maxResults are kept.
func (t *SearxngSearch) Run(ctx context.Context, input *Input, output *Output) error {
	t.OnStart(ctx, t, input)
	results := make([]SearchResultItem, 0, t.maxResults)
	for _, query := range input.Queries {
		if strings.TrimSpace(query) == "" {
			t.OnError(ctx, t, input, tools.ErrEmptyQuery)
			return tools.ErrEmptyQuery
		}
		items, err := t.fetchSearchResults(ctx, query, input.Category)
		if err != nil {
			t.OnError(ctx, t, input, err)
			return err
		}
		for _, item := range items {
			if item.Title == "" || item.URL == "" || item.Content == "" {
				continue
			}
			results = append(results, item)
			if len(results) == t.maxResults {
				break
			}
		}
		if len(results) == t.maxResults {
			break
		}
	}
	output.Results = results
	output.Category = input.Category
	t.OnEnd(ctx, t, input, output)
	return nil
}

// Search implements tools.Searcher, SearxNG has no answer so only sources are filled
func (t *SearxngSearch) Search(ctx context.Context, query string, output *tools.SearchResult) error {
	out := new(Output)
	if err := t.Run(ctx, NewInput(GeneralCategory, []string{query}), out); err != nil {
		return err
	}
	output.Query = query
	output.Sources = make([]tools.Source, 0, len(out.Results))
	for _, item := range out.Results {
		output.Sources = append(output.Sources, tools.Source{
			Title:   item.Title,
			URL:     item.URL,
			Snippet: item.Content,
		})
	}
	return nil
}

// fetchSearchResults queries the local search engine and returns the parsed search response
func (t *SearxngSearch) fetchSearchResults(ctx context.Context, query string, category Category) ([]SearchResultItem, error) {
	if t.baseURL == "" {
		return nil, &tools.SearchError{Provider: t.Title(), Query: query, Err: errors.New("searxng base url is not configured")}
	}
	values := url.Values{}
	values.Set("q", query)
	values.Set("safesearch", "0")
	values.Set("format", "json")
	values.Set("engines", "bing,duckduckgo,google,startpage,yandex")
	if t.language != "" {
		values.Set("language", t.language)
	}
	if category != "" {
		values.Set("categories", category)
	}
	searchURL := fmt.Sprintf("%s/search?%s", t.baseURL, values.Encode())
	body, err := t.clt.Do(ctx, func(ctx context.Context) (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	})
	if err != nil {
		ret := &tools.SearchError{Provider: t.Title(), Query: query, Err: err}
		var statusErr *retry.StatusError
		if errors.As(err, &statusErr) {
			ret.StatusCode = statusErr.StatusCode
		}
		return nil, ret
	}
	var searchResponse SearchResponse
	if err := json.Unmarshal(body, &searchResponse); err != nil {
		return nil, &tools.SearchError{Provider: t.Title(), Query: query, Err: fmt.Errorf("decode response: %w", err)}
	}
	for idx := range searchResponse.Results {
		searchResponse.Results[idx].Query = query
	}
	return searchResponse.Results, nil
}
