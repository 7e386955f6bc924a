// Package linkup is a web search tool backed by the Linkup search API.
package linkup

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/bububa/deepsearch/schema"
	"github.com/bububa/deepsearch/tools"
	"github.com/bububa/deepsearch/tools/retry"
)

const DefaultBaseURL = "https://api.linkup.so"

type Depth = string

const (
	StandardDepth Depth = "standard"
	DeepDepth     Depth = "deep"
)

type OutputType = string

const SourcedAnswerOutput OutputType = "sourcedAnswer"

// Input is the request body of the Linkup search endpoint
type Input struct {
	schema.Base
	// Query is the natural language search query
	Query string `json:"q" jsonschema:"title=q,description=The search query." validate:"required"`
	// Depth is standard or deep
	Depth Depth `json:"depth" jsonschema:"title=depth,enum=standard,enum=deep,default=standard,description=The search depth."`
	// OutputType controls the response shape
	OutputType OutputType `json:"outputType" jsonschema:"title=outputType,description=The response shape."`
	// IncludeImages asks for image results
	IncludeImages bool `json:"includeImages"`
}

func NewInput(query string, depth Depth) *Input {
	if depth == "" {
		depth = StandardDepth
	}
	return &Input{
		Query:      query,
		Depth:      depth,
		OutputType: SourcedAnswerOutput,
	}
}

// Source is a page backing a sourced answer
type Source struct {
	Name    string `json:"name,omitempty"`
	URL     string `json:"url,omitempty"`
	Snippet string `json:"snippet,omitempty"`
}

// Output is the sourced answer returned by Linkup
type Output struct {
	schema.Base
	Answer  string   `json:"answer,omitempty"`
	Sources []Source `json:"sources,omitempty"`
}

type Config struct {
	tools.Config
	apiKey     string
	baseURL    string
	depth      Depth
	httpClient *http.Client
	retry      *retry.Config
}

// Tool performs searches on the Linkup API
type Tool struct {
	Config
	clt *retry.Client
}

var (
	_ tools.Tool[Input, Output] = (*Tool)(nil)
	_ tools.Searcher            = (*Tool)(nil)
)

func New(opts ...Option) *Tool {
	ret := new(Tool)
	for _, opt := range opts {
		opt(&ret.Config)
	}
	if ret.Title() == "" {
		ret.SetTitle("linkup")
	}
	if ret.Description() == "" {
		ret.SetDescription("Performs in-depth internet searches via the Linkup API and returns a sourced answer.")
	}
	if ret.baseURL == "" {
		ret.baseURL = DefaultBaseURL
	}
	ret.baseURL = strings.TrimRight(ret.baseURL, "/")
	if ret.depth == "" {
		ret.depth = StandardDepth
	}
	retryCfg := retry.DefaultConfig()
	if ret.retry != nil {
		retryCfg = *ret.retry
	}
	ret.clt = retry.New(ret.httpClient, retryCfg)
	return ret
}

// Run Runs the Linkup search synchronously with the given input
func (t *Tool) Run(ctx context.Context, input *Input, output *Output) error {
	t.OnStart(ctx, t, input)
	if err := t.run(ctx, input, output); err != nil {
		t.OnError(ctx, t, input, err)
		return err
	}
	t.OnEnd(ctx, t, input, output)
	return nil
}

func (t *Tool) run(ctx context.Context, input *Input, output *Output) error {
	if strings.TrimSpace(input.Query) == "" {
		return tools.ErrEmptyQuery
	}
	if t.apiKey == "" {
		return &tools.SearchError{Provider: t.Title(), Query: input.Query, Err: errors.New("linkup api key is not configured")}
	}
	payload, err := json.Marshal(input)
	if err != nil {
		return err
	}
	log.Debug().Str("query", input.Query).Str("depth", input.Depth).Msg("linkup search")
	body, err := t.clt.Do(ctx, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+"/v1/search", bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+t.apiKey)
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	})
	if err != nil {
		ret := &tools.SearchError{Provider: t.Title(), Query: input.Query, Err: err}
		var statusErr *retry.StatusError
		if errors.As(err, &statusErr) {
			ret.StatusCode = statusErr.StatusCode
		}
		return ret
	}
	if err := json.Unmarshal(body, output); err != nil {
		return &tools.SearchError{Provider: t.Title(), Query: input.Query, Err: fmt.Errorf("decode response: %w", err)}
	}
	log.Debug().Str("query", input.Query).Int("sources", len(output.Sources)).Msg("linkup search completed")
	return nil
}

// Search implements tools.Searcher
func (t *Tool) Search(ctx context.Context, query string, output *tools.SearchResult) error {
	out := new(Output)
	if err := t.Run(ctx, NewInput(query, t.depth), out); err != nil {
		return err
	}
	output.Query = query
	output.Answer = out.Answer
	output.Sources = make([]tools.Source, 0, len(out.Sources))
	for _, src := range out.Sources {
		output.Sources = append(output.Sources, tools.Source{
			Title:   src.Name,
			URL:     src.URL,
			Snippet: src.Snippet,
		})
	}
	return nil
}
