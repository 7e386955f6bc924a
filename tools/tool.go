package tools

import (
	"context"

	"github.com/bububa/deepsearch/schema"
)

type ITool interface {
	Title() string
	Description() string
	SetStartHook(fn func(context.Context, ITool, any))
	SetEndHook(fn func(context.Context, ITool, any, any))
	SetErrorHook(fn func(context.Context, ITool, any, error))
}

type Tool[I schema.Schema, O schema.Schema] interface {
	ITool
	Run(context.Context, *I, *O) error
}

// OrchestrationTool is a tool run between two agents, its output is handed to the second agent
type OrchestrationTool interface {
	RunOrchestration(context.Context, any) (schema.Schema, error)
}
