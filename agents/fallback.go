package agents

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/bububa/deepsearch/components"
	"github.com/bububa/deepsearch/schema"
)

var ErrModelsExhausted = errors.New("all models exhausted")

// Attempt is a failed try of one agent of a Fallback
type Attempt struct {
	Agent string
	Err   error
}

// ExhaustedError is returned when every agent of a Fallback failed
type ExhaustedError struct {
	Attempts []Attempt
}

func (e *ExhaustedError) Error() string {
	if len(e.Attempts) == 0 {
		return ErrModelsExhausted.Error() + ": no model configured"
	}
	parts := make([]string, 0, len(e.Attempts))
	for _, v := range e.Attempts {
		parts = append(parts, fmt.Sprintf("%s: %v", v.Agent, v.Err))
	}
	return fmt.Sprintf("%s: %s", ErrModelsExhausted.Error(), strings.Join(parts, "; "))
}

func (e *ExhaustedError) Is(target error) bool {
	return target == ErrModelsExhausted
}

func (e *ExhaustedError) Unwrap() error {
	errs := make([]error, 0, len(e.Attempts))
	for _, v := range e.Attempts {
		errs = append(errs, v.Err)
	}
	return errors.Join(errs...)
}

// Fallback tries its agents in order, the first success wins.
// A failed attempt never writes to the caller's output.
type Fallback[I schema.Schema, O schema.Schema] struct {
	name        string
	agents      []TypeableAgent[I, O]
	attemptHook func(ctx context.Context, agent string, err error)
}

var _ TypeableAgent[schema.String, schema.String] = (*Fallback[schema.String, schema.String])(nil)

func NewFallback[I schema.Schema, O schema.Schema](name string, agents ...TypeableAgent[I, O]) *Fallback[I, O] {
	return &Fallback[I, O]{
		name:   name,
		agents: agents,
	}
}

func (f Fallback[I, O]) Name() string {
	return f.name
}

// Agents returns the agents in the order they are tried
func (f Fallback[I, O]) Agents() []TypeableAgent[I, O] {
	return f.agents
}

// SetAttemptHook registers fn called after every attempt, err is nil on success
func (f *Fallback[I, O]) SetAttemptHook(fn func(ctx context.Context, agent string, err error)) *Fallback[I, O] {
	f.attemptHook = fn
	return f
}

// Run runs the agents in order until one succeeds.
// It returns an *ExhaustedError when all of them fail or the context is done.
func (f *Fallback[I, O]) Run(ctx context.Context, userInput *I, output *O, apiResp *components.ApiResponse) error {
	exhausted := new(ExhaustedError)
	for idx, agent := range f.agents {
		out := new(O)
		resp := new(components.ApiResponse)
		err := agent.Run(ctx, userInput, out, resp)
		if fn := f.attemptHook; fn != nil {
			fn(ctx, agent.Name(), err)
		}
		if err == nil {
			*output = *out
			if apiResp != nil {
				*apiResp = *resp
			}
			if idx > 0 {
				log.Info().Str("fallback", f.name).Str("model", agent.Name()).Int("attempt", idx+1).Msg("fallback model succeeded")
			}
			return nil
		}
		exhausted.Attempts = append(exhausted.Attempts, Attempt{Agent: agent.Name(), Err: err})
		log.Warn().Err(err).Str("fallback", f.name).Str("model", agent.Name()).Int("attempt", idx+1).Msg("model attempt failed")
		if ctxErr := ctx.Err(); ctxErr != nil {
			break
		}
	}
	return exhausted
}

// NewMessage appends a message to the memory of every agent able to hold one
func (f *Fallback[I, O]) NewMessage(role components.MessageRole, content schema.Schema) *components.Message {
	var ret *components.Message
	for _, agent := range f.agents {
		if v, ok := agent.(MessageAppender); ok {
			if msg := v.NewMessage(role, content); ret == nil {
				ret = msg
			}
		}
	}
	return ret
}
