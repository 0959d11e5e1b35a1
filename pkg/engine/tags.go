package engine

import (
	"sort"
	"strings"
)

// Tags is the set of build tags used by only-blocks
type Tags struct {
	set map[string]bool
}

// NewTags returns a tag set holding tags
func NewTags(tags ...string) *Tags {
	t := &Tags{set: make(map[string]bool)}
	for _, tag := range tags {
		t.Add(tag)
	}
	return t
}

// Add adds tag, ignoring blanks
func (t *Tags) Add(tag string) {
	if tag = strings.TrimSpace(tag); tag != "" {
		t.set[tag] = true
	}
}

// Has reports whether tag is set
func (t *Tags) Has(tag string) bool { return t.set[tag] }

// List returns the sorted tags
func (t *Tags) List() []string {
	tags := make([]string, 0, len(t.set))
	for tag := range t.set {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

// Eval evaluates an only-block expression: a tag, "not <expr>", or tags
// joined with "and"/"or" ("and" binds tighter).
func (t *Tags) Eval(expr string) bool {
	for _, alt := range splitWord(expr, "or") {
		ok := true
		for _, term := range splitWord(alt, "and") {
			if !t.evalTerm(term) {
				ok = false
				break
			}
		}
		if ok {
			return true
		}
	}
	return false
}

func (t *Tags) evalTerm(term string) bool {
	fields := strings.Fields(term)
	negate := false
	for len(fields) > 0 && fields[0] == "not" {
		negate = !negate
		fields = fields[1:]
	}
	if len(fields) != 1 {
		return false
	}
	return t.Has(fields[0]) != negate
}

func splitWord(expr, word string) []string {
	var parts []string
	var cur []string
	for _, f := range strings.Fields(expr) {
		if f == word {
			parts = append(parts, strings.Join(cur, " "))
			cur = nil
			continue
		}
		cur = append(cur, f)
	}
	return append(parts, strings.Join(cur, " "))
}
