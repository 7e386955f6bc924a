package agents

import (
	"context"
	"errors"
	"fmt"

	"github.com/bububa/deepsearch/components"
	"github.com/bububa/deepsearch/schema"
	"github.com/bububa/deepsearch/tools"
)

// ErrHalt is returned by an orchestration tool to end a ToolAgent run before the end agent
var ErrHalt = errors.New("tool agent halted")

// MessageAppender is an agent accepting extra messages in its memory
type MessageAppender interface {
	NewMessage(role components.MessageRole, content schema.Schema) *components.Message
}

type Stage string

const (
	StartStage Stage = "start"
	ToolStage  Stage = "tool"
	EndStage   Stage = "end"
)

// StageError tells which stage of a ToolAgent failed
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s stage: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// ToolAgent represent agent with tool callback: the start agent output feeds the tool,
// the tool output is handed to the end agent as a system message.
type ToolAgent[I schema.Schema, T schema.Schema, O schema.Schema] struct {
	name  string
	start TypeableAgent[I, T]
	end   TypeableAgent[I, O]
	tool  tools.OrchestrationTool
}

var _ TypeableAgent[schema.String, schema.String] = (*ToolAgent[schema.String, schema.String, schema.String])(nil)

// NewToolAgent returns a new ToolAgent instance
func NewToolAgent[I schema.Schema, T schema.Schema, O schema.Schema](name string, start TypeableAgent[I, T], end TypeableAgent[I, O]) *ToolAgent[I, T, O] {
	return &ToolAgent[I, T, O]{
		name:  name,
		start: start,
		end:   end,
	}
}

func (t *ToolAgent[I, T, O]) SetTool(tool tools.OrchestrationTool) *ToolAgent[I, T, O] {
	t.tool = tool
	return t
}

func (t ToolAgent[I, T, O]) Name() string {
	return t.name
}

// Run runs start agent, tool and end agent in sequence.
// Errors are *StageError, a tool returning ErrHalt stops the run with ErrHalt.
func (t *ToolAgent[I, T, O]) Run(ctx context.Context, userInput *I, output *O, apiResp *components.ApiResponse) error {
	toolInput := new(T)
	startResp := new(components.ApiResponse)
	if err := t.start.Run(ctx, userInput, toolInput, startResp); err != nil {
		return &StageError{Stage: StartStage, Err: err}
	}
	if t.tool != nil {
		toolResult, err := t.tool.RunOrchestration(ctx, toolInput)
		if errors.Is(err, ErrHalt) {
			return ErrHalt
		} else if err != nil {
			return &StageError{Stage: ToolStage, Err: err}
		}
		appender, ok := t.end.(MessageAppender)
		if !ok {
			return &StageError{Stage: ToolStage, Err: errors.New("end agent does not accept messages")}
		}
		appender.NewMessage(components.SystemRole, toolResult)
	}
	if err := t.end.Run(ctx, userInput, output, apiResp); err != nil {
		return &StageError{Stage: EndStage, Err: err}
	}
	if apiResp != nil {
		apiResp.MergeUsage(startResp)
	}
	return nil
}
