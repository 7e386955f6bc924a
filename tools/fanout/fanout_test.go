package fanout

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"

	"github.com/bububa/deepsearch/components/tokenizer"
	"github.com/bububa/deepsearch/tools"
)

type fakeSearcher struct {
	tools.Config
	fn    func(ctx context.Context, query string, output *tools.SearchResult) error
	calls atomic.Int64
}

func (s *fakeSearcher) Search(ctx context.Context, query string, output *tools.SearchResult) error {
	s.calls.Inc()
	return s.fn(ctx, query, output)
}

func answer(text string) func(context.Context, string, *tools.SearchResult) error {
	return func(_ context.Context, query string, output *tools.SearchResult) error {
		output.Query = query
		output.Answer = text
		return nil
	}
}

var testBranches = []Branch{
	{Tag: "release_date", Query: "FastAPI release date"},
	{Tag: "reviews", Query: "FastAPI reviews"},
	{Tag: "use_cases", Query: "FastAPI use cases"},
	{Tag: "summary", Query: "FastAPI summary"},
	{Tag: "security", Query: "FastAPI security"},
}

func TestRunKeySetMatchesBranches(t *testing.T) {
	searcher := &fakeSearcher{fn: func(ctx context.Context, query string, output *tools.SearchResult) error {
		if query == "FastAPI reviews" {
			return &tools.SearchError{Provider: "fake", Query: query, StatusCode: 500}
		}
		return answer("found")(ctx, query, output)
	}}
	results, err := New(searcher).Run(context.Background(), testBranches)
	require.NoError(t, err)
	assert.Equal(t, []string{"release_date", "reviews", "security", "summary", "use_cases"}, results.Keys())
	assert.EqualValues(t, len(testBranches), searcher.calls.Load())

	failed := results.Failed()
	require.Len(t, failed, 1)
	assert.Equal(t, "reviews", failed[0].Tag)
	assert.Nil(t, failed[0].Result)
	var searchErr *tools.SearchError
	assert.ErrorAs(t, failed[0].Err, &searchErr)
	assert.Contains(t, failed[0].Text(), "unavailable")

	assert.Len(t, results.Succeeded(), 4)
	assert.False(t, results.AllFailed())
	assert.False(t, results.AllEmpty())
	assert.Equal(t, "FastAPI summary", results["summary"].Query)
}

func TestRunAllFailedAndAllEmpty(t *testing.T) {
	failing := &fakeSearcher{fn: func(context.Context, string, *tools.SearchResult) error {
		return errors.New("boom")
	}}
	results, err := New(failing).Run(context.Background(), testBranches)
	require.NoError(t, err)
	assert.True(t, results.AllFailed())
	assert.False(t, results.AllEmpty())

	empty := &fakeSearcher{fn: func(context.Context, string, *tools.SearchResult) error { return nil }}
	results, err = New(empty).Run(context.Background(), testBranches)
	require.NoError(t, err)
	assert.False(t, results.AllFailed())
	assert.True(t, results.AllEmpty())
	assert.Equal(t, "no findings", results["summary"].Text())
}

func TestRunRejectsInvalidBranches(t *testing.T) {
	searcher := &fakeSearcher{fn: answer("x")}
	coordinator := New(searcher)

	_, err := coordinator.Run(context.Background(), []Branch{{Tag: "a", Query: "q"}, {Tag: "a", Query: "q2"}})
	assert.ErrorIs(t, err, ErrInvalidBranch)

	_, err = coordinator.Run(context.Background(), []Branch{{Tag: " ", Query: "q"}})
	assert.ErrorIs(t, err, ErrInvalidBranch)

	assert.Zero(t, searcher.calls.Load())
}

func TestRunCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	searcher := &fakeSearcher{fn: func(ctx context.Context, _ string, _ *tools.SearchResult) error {
		<-ctx.Done()
		return ctx.Err()
	}}
	time.AfterFunc(20*time.Millisecond, cancel)
	results, err := New(searcher, WithConcurrency(2)).Run(ctx, testBranches)
	require.NoError(t, err)
	assert.Len(t, results, len(testBranches))
	assert.True(t, results.AllFailed())
	for _, o := range results {
		assert.ErrorIs(t, o.Err, context.Canceled)
	}
}

func TestRunConcurrencyLimit(t *testing.T) {
	var (
		running atomic.Int64
		peak    atomic.Int64
	)
	searcher := &fakeSearcher{fn: func(ctx context.Context, query string, output *tools.SearchResult) error {
		n := running.Inc()
		defer running.Dec()
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		return answer("ok")(ctx, query, output)
	}}
	results, err := New(searcher, WithConcurrency(2)).Run(context.Background(), testBranches)
	require.NoError(t, err)
	assert.Len(t, results.Succeeded(), len(testBranches))
	assert.LessOrEqual(t, peak.Load(), int64(2))
}

func TestRunHooks(t *testing.T) {
	var (
		mu   sync.Mutex
		seen []string
	)
	searcher := &fakeSearcher{fn: answer("found")}
	coordinator := New(searcher,
		WithEnricher(func(_ context.Context, b Branch, res *tools.SearchResult) {
			res.Sources = append(res.Sources, tools.Source{Title: b.Tag, URL: "https://example.com/" + b.Tag})
		}),
		WithOutcomeHook(func(_ context.Context, o Outcome) {
			mu.Lock()
			seen = append(seen, o.Tag)
			mu.Unlock()
		}),
	)
	results, err := coordinator.Run(context.Background(), testBranches)
	require.NoError(t, err)
	assert.ElementsMatch(t, results.Keys(), seen)
	assert.Equal(t, "https://example.com/security", results["security"].Result.Sources[0].URL)

	started, succeeded, failed := coordinator.Progress()
	assert.EqualValues(t, 5, started)
	assert.EqualValues(t, 5, succeeded)
	assert.Zero(t, failed)
}

func TestResultsErr(t *testing.T) {
	errDown := errors.New("down")
	failed := Results{
		"a": {Tag: "a", Err: errDown},
		"b": {Tag: "b", Err: context.DeadlineExceeded},
	}
	err := failed.Err()
	assert.ErrorIs(t, err, ErrSearchUnavailable)
	assert.ErrorIs(t, err, errDown)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	empty := Results{"a": {Tag: "a", Result: &tools.SearchResult{}}}
	assert.ErrorIs(t, empty.Err(), ErrNoResults)

	mixed := Results{
		"a": {Tag: "a", Err: errDown},
		"b": {Tag: "b", Result: &tools.SearchResult{Answer: "found"}},
	}
	assert.NoError(t, mixed.Err())

	failedAndEmpty := Results{
		"a": {Tag: "a", Err: errDown},
		"b": {Tag: "b", Err: context.DeadlineExceeded},
		"c": {Tag: "c", Result: &tools.SearchResult{}},
	}
	err = failedAndEmpty.Err()
	assert.ErrorIs(t, err, ErrSearchUnavailable)
	assert.ErrorIs(t, err, errDown)
	assert.NotErrorIs(t, err, ErrNoResults)
	assert.False(t, failedAndEmpty.HasContent())

	assert.NoError(t, Results{}.Err())
}

func TestContextProvider(t *testing.T) {
	outcome := Outcome{
		Tag:   "summary",
		Query: "what is FastAPI",
		Result: &tools.SearchResult{
			Answer: "FastAPI is a modern, fast web framework for building APIs with Python based on standard type hints",
		},
	}
	provider := NewContextProvider("summary", outcome, tokenizer.WordsTokenCounter{}, 5)
	assert.Equal(t, "summary", provider.Title())
	info := provider.Info()
	assert.Contains(t, info, "Tag: summary")
	assert.Contains(t, info, "Query: what is FastAPI")
	assert.Contains(t, info, tokenizer.TruncatedMarker)
	assert.NotContains(t, info, "type hints")

	failed := NewContextProvider("security", Outcome{Tag: "security", Query: "q", Err: errors.New("timeout")}, nil, 0)
	assert.Contains(t, failed.Info(), "unavailable: timeout")
}
