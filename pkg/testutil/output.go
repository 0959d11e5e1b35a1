package testutil

import "strings"

// ListOutput records every write as a separate entry, so tests can inspect
// diagnostics one message at a time and reset them between phases
type ListOutput struct {
	name    string
	content []string
}

// NewListOutput returns an empty sink called name
func NewListOutput(name string) *ListOutput {
	return &ListOutput{name: name, content: []string{}}
}

// Name returns the sink name
func (o *ListOutput) Name() string { return o.name }

// Content returns a copy of the recorded writes, oldest first
func (o *ListOutput) Content() []string {
	return append([]string{}, o.content...)
}

// Write records p as one entry. It never fails.
func (o *ListOutput) Write(p []byte) (int, error) {
	o.content = append(o.content, string(p))
	return len(p), nil
}

// WriteString records text as one entry
func (o *ListOutput) WriteString(text string) (int, error) {
	o.content = append(o.content, text)
	return len(text), nil
}

// Reset drops all recorded writes
func (o *ListOutput) Reset() {
	o.content = []string{}
}

// String returns the recorded writes concatenated
func (o *ListOutput) String() string {
	return strings.Join(o.content, "")
}
