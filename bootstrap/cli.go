package bootstrap

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/bububa/deepsearch/agents"
	"github.com/bububa/deepsearch/tools"
	"github.com/bububa/deepsearch/tools/fanout"
)

// Input names of the command line flows
const (
	ResearchSubject = "topic"
	DiscoverSubject = "request"
)

// ReadInput returns the joined args, or the first line of r when args is empty
func ReadInput(r io.Reader, args []string) (string, error) {
	if len(args) > 0 {
		if v := strings.TrimSpace(strings.Join(args, " ")); v != "" {
			return v, nil
		}
		return "", tools.ErrEmptyRequest
	}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return "", fmt.Errorf("read input: %w", err)
		}
		return "", tools.ErrEmptyRequest
	}
	v := strings.TrimSpace(scanner.Text())
	if v == "" {
		return "", tools.ErrEmptyRequest
	}
	return v, nil
}

// FailureMessage is the terminal message of a failed run, subject names the input of the flow
func FailureMessage(err error, subject string) string {
	switch {
	case errors.Is(err, tools.ErrEmptyRequest):
		return fmt.Sprintf("no %s provided", subject)
	case errors.Is(err, fanout.ErrNoResults):
		return fmt.Sprintf("no results for %s", subject)
	case errors.Is(err, fanout.ErrSearchUnavailable), errors.Is(err, agents.ErrModelsExhausted):
		return fmt.Sprintf("service unavailable: %v", err)
	}
	return err.Error()
}
