package discovery

import (
	"strings"

	"github.com/bububa/deepsearch/components/tokenizer"
	"github.com/bububa/deepsearch/schema"
	"github.com/bububa/deepsearch/tools"
	"github.com/bububa/deepsearch/tools/fanout"
)

// Request is the natural language capability request
type Request struct {
	schema.Base
	Request string `json:"request" jsonschema:"title=request,description=The capabilities the user needs, in natural language." validate:"required"`
}

// CapabilityList is the extraction output
type CapabilityList struct {
	schema.Base
	Capabilities []string `json:"capabilities" jsonschema:"title=capabilities,description=Short labels of the capabilities required by the request. Empty when the request has no actionable capability." validate:"dive,required"`
}

// Normalize trims labels and drops blank and duplicate ones, keeping order
func (l *CapabilityList) Normalize() {
	seen := make(map[string]struct{}, len(l.Capabilities))
	list := make([]string, 0, len(l.Capabilities))
	for _, v := range l.Capabilities {
		v = strings.TrimSpace(v)
		key := strings.ToLower(v)
		if v == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		list = append(list, v)
	}
	l.Capabilities = list
}

// ToolCandidate is what the search found for one capability
type ToolCandidate struct {
	Capability string         `json:"capability"`
	Status     string         `json:"status"`
	Answer     string         `json:"answer,omitempty"`
	Sources    []tools.Source `json:"sources,omitempty"`
}

// Budget bounds the answer and the source texts of the candidate to max tokens in total.
// Sources are kept in order until the budget runs out.
func (c ToolCandidate) Budget(counter tokenizer.TokenCounter, max int) ToolCandidate {
	if counter == nil || max <= 0 {
		return c
	}
	c.Answer, max = spend(counter, c.Answer, max)
	var sources []tools.Source
	for _, src := range c.Sources {
		if max <= 0 {
			break
		}
		max -= counter.Count(src.Title)
		src.Snippet, max = spend(counter, src.Snippet, max)
		src.Excerpt, max = spend(counter, src.Excerpt, max)
		sources = append(sources, src)
	}
	c.Sources = sources
	return c
}

func spend(counter tokenizer.TokenCounter, text string, left int) (string, int) {
	if text == "" {
		return text, left
	}
	if left <= 0 {
		return "", left
	}
	text = tokenizer.Truncate(counter, text, left)
	return text, left - counter.Count(text)
}

const (
	CandidateFound       = "found"
	CandidateEmpty       = "no findings"
	CandidateUnavailable = "unavailable"
)

// Candidates is handed to the synthesis model, one entry per searched capability
type Candidates struct {
	schema.Base
	Candidates []ToolCandidate `json:"candidates"`
}

// ToolDescriptor is one tool exposed by the assembled endpoint
type ToolDescriptor struct {
	Name             string `json:"name" jsonschema:"title=name,description=The name of the tool or API." validate:"required"`
	Capability       string `json:"capability" jsonschema:"title=capability,description=The requested capability the tool provides." validate:"required"`
	Description      string `json:"description" jsonschema:"title=description,description=What the tool does and how it is integrated."`
	DocumentationURL string `json:"documentation_url,omitempty" jsonschema:"title=documentation_url,description=The documentation URL of the tool." validate:"omitempty,url"`
}

// EndpointDescriptor describes the assembled MCP server endpoint
type EndpointDescriptor struct {
	schema.Base
	Endpoint     string           `json:"endpoint" jsonschema:"title=endpoint,description=The URL of the MCP server endpoint exposing the tools." validate:"required,url"`
	Summary      string           `json:"summary" jsonschema:"title=summary,description=A summary of what the endpoint provides." validate:"required"`
	Capabilities []string         `json:"capabilities" jsonschema:"title=capabilities,description=The capabilities covered by the endpoint."`
	Tools        []ToolDescriptor `json:"tools" jsonschema:"title=tools,description=The tools exposed by the endpoint." validate:"dive"`
}

// NoCapabilitySummary is the summary of the descriptor returned when extraction finds nothing
const NoCapabilitySummary = "No actionable capability was found in the request."

func emptyDescriptor() *EndpointDescriptor {
	return &EndpointDescriptor{
		Summary:      NoCapabilitySummary,
		Capabilities: []string{},
		Tools:        []ToolDescriptor{},
	}
}

func newCandidate(o fanout.Outcome) ToolCandidate {
	ret := ToolCandidate{Capability: o.Tag}
	switch {
	case o.Failed():
		ret.Status = CandidateUnavailable + ": " + o.Err.Error()
	case o.Empty():
		ret.Status = CandidateEmpty
	default:
		ret.Status = CandidateFound
		ret.Answer = o.Result.Answer
		ret.Sources = o.Result.Sources
	}
	return ret
}
