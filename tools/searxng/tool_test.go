package searxng

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bububa/deepsearch/tools"
	"github.com/bububa/deepsearch/tools/retry"
)

func startSearxngServer(t *testing.T, results *SearchResponse) *httptest.Server {
	handler := func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("format") != "json" {
			t.Errorf("expect json format, got %s", r.URL.Query().Get("format"))
		}
		json.NewEncoder(w).Encode(results)
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/search", handler)
	return httptest.NewServer(mux)
}

func TestSearxngSearchWithCategory(t *testing.T) {
	mockQuery := "test query with category"
	mockItem := SearchResultItem{
		URL:      "https://example.com/test-category",
		Title:    "Test Result with Category",
		Content:  "This is a test result content with category.",
		Category: NewsCategory,
	}
	srv := startSearxngServer(t, &SearchResponse{Results: []SearchResultItem{mockItem}})
	defer srv.Close()
	tool := New(WithBaseURL(srv.URL))
	result := new(Output)
	if err := tool.Run(context.Background(), NewInput(NewsCategory, []string{mockQuery}), result); err != nil {
		t.Fatalf("Error running SearxngSearch: %v", err)
	}
	if len(result.Results) != 1 {
		t.Fatalf("Error number of results, expect 1, but got %d", len(result.Results))
	}
	item := result.Results[0]
	if item.Title != mockItem.Title {
		t.Errorf("Expect title %s, but got %s", mockItem.Title, item.Title)
	}
	if item.URL != mockItem.URL {
		t.Errorf("Expect url %s, but got %s", mockItem.URL, item.URL)
	}
	if item.Category != mockItem.Category {
		t.Errorf("Expect category %s, but got %s", mockItem.Category, item.Category)
	}
	if item.Query != mockQuery {
		t.Errorf("Expect query %s, but got %s", mockQuery, item.Query)
	}
}

func TestSearxngSearchMissingFields(t *testing.T) {
	mockQuery := "query with missing fields"
	srv := startSearxngServer(t, &SearchResponse{
		Results: []SearchResultItem{
			{Title: "Result Missing Content", URL: "https://example.com/1", Query: mockQuery},
			{Content: "Result Missing Title", URL: "https://example.com/2", Query: mockQuery},
			{Title: "Result Missing URL", Content: "Some content", Query: mockQuery},
			{Title: "Result Missing Query", Content: "Some content", URL: "https://example.com/4"},
			{Title: "Valid Result", Content: "Some content", URL: "https://example.com/5", Query: mockQuery},
		},
	})
	defer srv.Close()
	tool := New(WithBaseURL(srv.URL))
	result := new(Output)
	if err := tool.Run(context.Background(), NewInput(EmptyCategory, []string{mockQuery}), result); err != nil {
		t.Fatalf("Error running SearxngSearch: %v", err)
	}
	if len(result.Results) != 2 {
		t.Fatalf("Error number of results, expect 2, but got %d", len(result.Results))
	}
	if title := result.Results[0].Title; title != "Result Missing Query" {
		t.Errorf("Expect title Result Missing Query, but got %s", title)
	}
	if title := result.Results[1].Title; title != "Valid Result" {
		t.Errorf("Expect title Valid Result, but got %s", title)
	}
}

func TestSearxngSearchWithMaxResults(t *testing.T) {
	mockQuery := "query with max results"
	srv := startSearxngServer(t, &SearchResponse{
		Results: []SearchResultItem{
			{Title: "Result with Metadata", URL: "https://example.com/metadata", Content: "Content with metadata", Metadata: "2021-01-01"},
			{Title: "Result with Published Date", Content: "Content with published date", URL: "https://example.com/published-data", PublishedDate: "2022-01-01"},
			{Title: "Result without dates", Content: "Content without dates", URL: "https://example.com/no-dates"},
		},
	})
	defer srv.Close()
	tool := New(WithBaseURL(srv.URL), WithMaxResults(2))
	result := new(tools.SearchResult)
	if err := tool.Search(context.Background(), mockQuery, result); err != nil {
		t.Fatalf("Error running SearxngSearch: %v", err)
	}
	if len(result.Sources) != 2 {
		t.Errorf("Error number of results, expect 2, but got %d", len(result.Sources))
	}
	if result.Answer != "" {
		t.Errorf("Expect empty answer, but got %s", result.Answer)
	}
}

func TestSearxngSearchWithNoResults(t *testing.T) {
	srv := startSearxngServer(t, &SearchResponse{})
	defer srv.Close()
	tool := New(WithBaseURL(srv.URL))
	result := new(tools.SearchResult)
	if err := tool.Search(context.Background(), "query without results", result); err != nil {
		t.Fatalf("Error running SearxngSearch: %v", err)
	}
	if !result.Empty() {
		t.Errorf("Expect empty result, but got %d sources", len(result.Sources))
	}
}

func TestSearxngSearchServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()
	cfg := retry.DefaultConfig()
	cfg.InitialDelay = time.Millisecond
	tool := New(WithBaseURL(srv.URL), WithRetry(cfg))
	err := tool.Search(context.Background(), "FastAPI", new(tools.SearchResult))
	var searchErr *tools.SearchError
	if !errors.As(err, &searchErr) {
		t.Fatalf("Expect SearchError, but got %v", err)
	}
	if searchErr.StatusCode != http.StatusInternalServerError {
		t.Errorf("Expect status 500, but got %d", searchErr.StatusCode)
	}
}
