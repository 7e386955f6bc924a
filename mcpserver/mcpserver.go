// Package mcpserver exposes research and discovery as Model Context Protocol tools over stdio.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog/log"

	"github.com/bububa/deepsearch/discovery"
	"github.com/bububa/deepsearch/research"
	"github.com/bububa/deepsearch/tools/fanout"
)

const (
	Name    = "deepsearch"
	Version = "1.0.0"

	ResearchTool = "research_topic"
	DiscoverTool = "discover_tools"
)

type Researcher interface {
	Research(ctx context.Context, topic string) (*research.Report, error)
}

type Discoverer interface {
	Discover(ctx context.Context, request string) (*discovery.EndpointDescriptor, error)
}

type Server struct {
	mcpServer  *server.MCPServer
	researcher Researcher
	discoverer Discoverer
}

func New(researcher Researcher, discoverer Discoverer) *Server {
	s := &Server{
		mcpServer: server.NewMCPServer(
			Name,
			Version,
			server.WithToolCapabilities(true),
			server.WithRecovery(),
		),
		researcher: researcher,
		discoverer: discoverer,
	}
	s.setupTools()
	return s
}

func (s *Server) setupTools() {
	researchTool := mcp.NewTool(ResearchTool,
		mcp.WithDescription("Research an API, tool or technology and return a markdown report covering release date, reviews, use cases, summary and security"),
		mcp.WithString("topic",
			mcp.Required(),
			mcp.Description("The API, tool or technology to research"),
		),
	)
	s.mcpServer.AddTool(researchTool, s.handleResearch)

	discoverTool := mcp.NewTool(DiscoverTool,
		mcp.WithDescription("Find the tools, APIs and MCP servers providing the capabilities of a request and return an MCP endpoint descriptor"),
		mcp.WithString("request",
			mcp.Required(),
			mcp.Description("A natural language description of what the tools should do"),
		),
	)
	s.mcpServer.AddTool(discoverTool, s.handleDiscover)
}

// Serve speaks MCP over the given streams until ctx is done or in is closed
func (s *Server) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	log.Info().Str("name", Name).Msg("mcp server listening on stdio")
	err := server.NewStdioServer(s.mcpServer).Listen(ctx, in, out)
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("mcp server error: %w", err)
	}
	return nil
}

func (s *Server) handleResearch(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	topic, err := request.RequireString("topic")
	if err != nil || strings.TrimSpace(topic) == "" {
		return mcp.NewToolResultError("Missing or invalid 'topic' parameter"), nil
	}
	report, err := s.researcher.Research(ctx, topic)
	if err != nil {
		log.Error().Err(err).Str("tool", ResearchTool).Msg("tool call failed")
		return mcp.NewToolResultError(errorMessage(err)), nil
	}
	return mcp.NewToolResultText(report.Markdown), nil
}

func (s *Server) handleDiscover(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	req, err := request.RequireString("request")
	if err != nil || strings.TrimSpace(req) == "" {
		return mcp.NewToolResultError("Missing or invalid 'request' parameter"), nil
	}
	descriptor, err := s.discoverer.Discover(ctx, req)
	if err != nil {
		log.Error().Err(err).Str("tool", DiscoverTool).Msg("tool call failed")
		return mcp.NewToolResultError(errorMessage(err)), nil
	}
	bs, err := json.MarshalIndent(descriptor, "", "  ")
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(string(bs)), nil
}

func errorMessage(err error) string {
	switch {
	case errors.Is(err, fanout.ErrNoResults):
		return "No results found"
	case errors.Is(err, fanout.ErrSearchUnavailable):
		return fmt.Sprintf("Search service unavailable: %v", err)
	}
	return err.Error()
}
