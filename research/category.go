package research

import (
	"fmt"
	"strings"

	"github.com/bububa/deepsearch/tools/fanout"
)

// Category is one fixed axis of a research report
type Category string

const (
	ReleaseDate Category = "release_date"
	Reviews     Category = "reviews"
	UseCases    Category = "use_cases"
	Summary     Category = "summary"
	Security    Category = "security"
)

// Categories in report order
var Categories = []Category{ReleaseDate, Reviews, UseCases, Summary, Security}

var categoryLabels = map[Category]string{
	ReleaseDate: "release date",
	Reviews:     "reviews",
	UseCases:    "use cases",
	Summary:     "summary",
	Security:    "security",
}

var categoryQueries = map[Category]string{
	ReleaseDate: "official release date of %[1]s OR %[1]s product launch date",
	Reviews:     "%[1]s reviews pros and cons OR site:reddit.com %[1]s review",
	UseCases:    "%[1]s use cases OR projects using %[1]s OR %[1]s tutorial examples",
	Summary:     "what is %[1]s OR %[1]s technology overview OR %[1]s product description",
	Security:    "%[1]s security OR %[1]s SOC 2 compliance OR %[1]s data policy",
}

// Label is the human readable name of the category
func (c Category) Label() string {
	if label, ok := categoryLabels[c]; ok {
		return label
	}
	return strings.ReplaceAll(string(c), "_", " ")
}

// Query embeds topic into the category search template
func (c Category) Query(topic string) string {
	if tpl, ok := categoryQueries[c]; ok {
		return fmt.Sprintf(tpl, topic)
	}
	return fmt.Sprintf("%s %s", topic, c.Label())
}

// ParseCategory matches a category key or label, case insensitive
func ParseCategory(v string) (Category, bool) {
	v = strings.ToLower(strings.TrimSpace(v))
	for _, c := range Categories {
		if v == string(c) || v == c.Label() {
			return c, true
		}
	}
	return "", false
}

// Branches returns one fan-out branch per category
func Branches(topic string) []fanout.Branch {
	ret := make([]fanout.Branch, 0, len(Categories))
	for _, c := range Categories {
		ret = append(ret, fanout.Branch{Tag: string(c), Query: c.Query(topic)})
	}
	return ret
}
