// Package fanout runs one search per tagged branch concurrently and joins the tagged outcomes.
package fanout

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"
	"go.uber.org/atomic"
	"golang.org/x/sync/errgroup"

	"github.com/bububa/deepsearch/tools"
)

var (
	ErrInvalidBranch = errors.New("invalid fan-out branch")
	// ErrSearchUnavailable means every branch failed
	ErrSearchUnavailable = errors.New("search service unavailable")
	// ErrNoResults means every branch succeeded without finding anything
	ErrNoResults = errors.New("no results")
)

// Branch is one tagged search of a fan-out
type Branch struct {
	Tag   string
	Query string
}

// Outcome is the tagged result or failure of a branch, exactly one of Result and Err is set
type Outcome struct {
	Tag    string
	Query  string
	Result *tools.SearchResult
	Err    error
}

func (o Outcome) Failed() bool {
	return o.Err != nil
}

func (o Outcome) Empty() bool {
	return o.Err == nil && (o.Result == nil || o.Result.Empty())
}

// Text renders the outcome for a synthesis prompt
func (o Outcome) Text() string {
	switch {
	case o.Err != nil:
		return fmt.Sprintf("unavailable: %v", o.Err)
	case o.Empty():
		return "no findings"
	default:
		return o.Result.Text()
	}
}

// Results maps branch tag to its outcome
type Results map[string]Outcome

// Keys returns the tags sorted
func (r Results) Keys() []string {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (r Results) Failed() []Outcome {
	return r.filter(Outcome.Failed)
}

func (r Results) Succeeded() []Outcome {
	return r.filter(func(o Outcome) bool { return !o.Failed() })
}

// AllFailed is true when there is at least one branch and none succeeded
func (r Results) AllFailed() bool {
	return len(r) > 0 && len(r.Failed()) == len(r)
}

// AllEmpty is true when every branch succeeded without any answer or source
func (r Results) AllEmpty() bool {
	if len(r) == 0 {
		return false
	}
	for _, o := range r {
		if !o.Empty() {
			return false
		}
	}
	return true
}

// HasContent is true when at least one branch returned an answer or a source
func (r Results) HasContent() bool {
	for _, o := range r {
		if !o.Failed() && !o.Empty() {
			return true
		}
	}
	return false
}

// Err returns ErrSearchUnavailable joined with the branch errors when no branch has content
// and at least one failed, ErrNoResults when all of them are empty, nil otherwise
func (r Results) Err() error {
	switch {
	case len(r) == 0 || r.HasContent():
		return nil
	case len(r.Failed()) > 0:
		failed := r.Failed()
		errs := make([]error, 0, len(failed))
		for _, o := range failed {
			errs = append(errs, o.Err)
		}
		return fmt.Errorf("%w: %w", ErrSearchUnavailable, errors.Join(errs...))
	}
	return ErrNoResults
}

func (r Results) filter(fn func(Outcome) bool) []Outcome {
	var ret []Outcome
	for _, k := range r.Keys() {
		if o := r[k]; fn(o) {
			ret = append(ret, o)
		}
	}
	return ret
}

type Config struct {
	concurrency int
	enricher    func(context.Context, Branch, *tools.SearchResult)
	outcomeHook func(context.Context, Outcome)
}

// Coordinator fans branches out over a searcher
type Coordinator struct {
	Config
	searcher  tools.Searcher
	started   atomic.Int64
	succeeded atomic.Int64
	failed    atomic.Int64
}

func New(searcher tools.Searcher, opts ...Option) *Coordinator {
	ret := &Coordinator{
		searcher: searcher,
	}
	for _, opt := range opts {
		opt(&ret.Config)
	}
	return ret
}

// Progress returns the number of branches started, succeeded and failed since creation
func (c *Coordinator) Progress() (started int64, succeeded int64, failed int64) {
	return c.started.Load(), c.succeeded.Load(), c.failed.Load()
}

// Run searches every branch and returns once all of them are settled.
// The returned error is only set when branches are invalid, branch failures are kept in the outcomes.
func (c *Coordinator) Run(ctx context.Context, branches []Branch) (Results, error) {
	if err := validate(branches); err != nil {
		return nil, err
	}
	outcomes := make([]Outcome, len(branches))
	var g errgroup.Group
	if c.concurrency > 0 {
		g.SetLimit(c.concurrency)
	}
	for idx, branch := range branches {
		g.Go(func() error {
			outcomes[idx] = c.search(ctx, branch)
			return nil
		})
	}
	_ = g.Wait()
	ret := make(Results, len(outcomes))
	for _, o := range outcomes {
		ret[o.Tag] = o
	}
	return ret, nil
}

func (c *Coordinator) search(ctx context.Context, branch Branch) Outcome {
	c.started.Inc()
	outcome := Outcome{Tag: branch.Tag, Query: branch.Query}
	if err := ctx.Err(); err != nil {
		outcome.Err = err
	} else {
		result := new(tools.SearchResult)
		if err := c.searcher.Search(ctx, branch.Query, result); err != nil {
			outcome.Err = err
		} else {
			if c.enricher != nil {
				c.enricher(ctx, branch, result)
			}
			outcome.Result = result
		}
	}
	if outcome.Err != nil {
		c.failed.Inc()
		log.Warn().Err(outcome.Err).Str("tag", branch.Tag).Str("query", branch.Query).Msg("search branch failed")
	} else {
		c.succeeded.Inc()
		log.Debug().Str("tag", branch.Tag).Int("sources", len(outcome.Result.Sources)).Msg("search branch done")
	}
	if c.outcomeHook != nil {
		c.outcomeHook(ctx, outcome)
	}
	return outcome
}

func validate(branches []Branch) error {
	seen := make(map[string]struct{}, len(branches))
	for idx, b := range branches {
		if strings.TrimSpace(b.Tag) == "" {
			return fmt.Errorf("%w: empty tag at %d", ErrInvalidBranch, idx)
		}
		if _, ok := seen[b.Tag]; ok {
			return fmt.Errorf("%w: duplicate tag %q", ErrInvalidBranch, b.Tag)
		}
		seen[b.Tag] = struct{}{}
	}
	return nil
}
