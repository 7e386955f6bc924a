package research

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/bububa/deepsearch/schema"
	"github.com/bububa/deepsearch/tools/fanout"
)

// NoFindings is the content of a section the model left out while its search found something
const NoFindings = "No findings were reported for this category."

// Request is the synthesis input
type Request struct {
	schema.Base
	Topic string `json:"topic" jsonschema:"title=topic,description=The API, tool or technology to research." validate:"required"`
}

// Section is the report part of one category
type Section struct {
	Category string `json:"category" jsonschema:"title=category,enum=release_date,enum=reviews,enum=use_cases,enum=summary,enum=security,description=The category key of the section." validate:"required"`
	Content  string `json:"content" jsonschema:"title=content,description=The findings for the category in markdown, citing sources when available." validate:"required"`
}

// Report is the synthesized research report
type Report struct {
	schema.Base
	Topic    string    `json:"topic" jsonschema:"title=topic,description=The researched topic." validate:"required"`
	Title    string    `json:"title" jsonschema:"title=title,description=A short title for the report." validate:"required"`
	Summary  string    `json:"summary" jsonschema:"title=summary,description=A one paragraph executive summary." validate:"required"`
	Sections []Section `json:"sections" jsonschema:"title=sections,description=One section per category." validate:"dive"`
	Markdown string    `json:"markdown,omitempty" jsonschema:"-"`
}

// Complete orders the sections by category and adds the sections the model left out,
// so the report covers every category of results.
func (r *Report) Complete(results fanout.Results) {
	byCategory := make(map[Category]Section, len(r.Sections))
	for _, s := range r.Sections {
		c, ok := ParseCategory(s.Category)
		if !ok {
			continue
		}
		s.Category = string(c)
		if prev, found := byCategory[c]; found {
			s.Content = prev.Content + "\n\n" + s.Content
		}
		byCategory[c] = s
	}
	sections := make([]Section, 0, len(Categories))
	for _, c := range Categories {
		outcome, searched := results[string(c)]
		section, found := byCategory[c]
		if !searched && !found {
			continue
		}
		if !found || strings.TrimSpace(section.Content) == "" {
			section = Section{Category: string(c), Content: fallbackContent(outcome)}
		}
		sections = append(sections, section)
	}
	r.Sections = sections
	r.Markdown = r.Render()
}

func fallbackContent(outcome fanout.Outcome) string {
	switch {
	case outcome.Failed():
		return fmt.Sprintf("Information unavailable: %v", outcome.Err)
	case outcome.Result == nil || outcome.Empty():
		return "No information was found for this category."
	}
	return NoFindings
}

// Render returns the report as markdown
func (r Report) Render() string {
	var b strings.Builder
	title := strings.TrimSpace(r.Title)
	if title == "" {
		title = r.Topic
	}
	fmt.Fprintf(&b, "# %s\n\n", title)
	if summary := strings.TrimSpace(r.Summary); summary != "" {
		b.WriteString(summary)
		b.WriteString("\n\n")
	}
	for _, s := range r.Sections {
		fmt.Fprintf(&b, "## %s\n\n%s\n\n", capitalize(Category(s.Category).Label()), strings.TrimSpace(s.Content))
	}
	return strings.TrimSpace(b.String()) + "\n"
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
