package bootstrap

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bububa/deepsearch/agents"
	"github.com/bububa/deepsearch/tools"
	"github.com/bububa/deepsearch/tools/fanout"
)

func TestReadInput(t *testing.T) {
	v, err := ReadInput(strings.NewReader("  Stripe API  \nignored\n"), nil)
	require.NoError(t, err)
	assert.Equal(t, "Stripe API", v)

	v, err = ReadInput(strings.NewReader("ignored"), []string{"weather", "forecasts"})
	require.NoError(t, err)
	assert.Equal(t, "weather forecasts", v)

	_, err = ReadInput(strings.NewReader("   \n"), nil)
	assert.ErrorIs(t, err, tools.ErrEmptyRequest)

	_, err = ReadInput(strings.NewReader(""), nil)
	assert.ErrorIs(t, err, tools.ErrEmptyRequest)

	_, err = ReadInput(strings.NewReader("x"), []string{" "})
	assert.ErrorIs(t, err, tools.ErrEmptyRequest)
}

func TestFailureMessage(t *testing.T) {
	assert.Equal(t, "no topic provided", FailureMessage(tools.ErrEmptyRequest, ResearchSubject))
	assert.Equal(t, "no request provided", FailureMessage(tools.ErrEmptyRequest, DiscoverSubject))
	assert.Equal(t, "no results for topic", FailureMessage(fmt.Errorf("run: %w", fanout.ErrNoResults), ResearchSubject))
	assert.Equal(t, "no results for request", FailureMessage(fmt.Errorf("run: %w", fanout.ErrNoResults), DiscoverSubject))
	assert.True(t, strings.HasPrefix(FailureMessage(fanout.ErrSearchUnavailable, ResearchSubject), "service unavailable"))
	assert.True(t, strings.HasPrefix(FailureMessage(&agents.ExhaustedError{}, DiscoverSubject), "service unavailable"))
	assert.Equal(t, "boom", FailureMessage(errors.New("boom"), DiscoverSubject))
}
