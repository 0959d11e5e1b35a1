// Package autodoc expands auto-documentation directives in source documents.
//
// A directive is a line of the form
//
//	.. autofunction:: pkg.Name
//
// and is replaced by a stub rendered by the documenter registered for its
// kind. Documenters live in a process-wide registry that the engine fills
// when the "autodoc" extension is enabled.
package autodoc

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/arthur-debert/docfix/pkg/errors"
	"github.com/arthur-debert/docfix/pkg/registry"
)

// ExtensionName enables this package in a project's extensions list
const ExtensionName = "autodoc"

var directivePattern = regexp.MustCompile(`^\.\.\s+auto(\w+)::\s*(\S.*)$`)

// Documenter renders directives of one kind
type Documenter struct {
	Kind  string
	Label string
}

// Render returns the markdown stub for target
func (d Documenter) Render(target string) string {
	return fmt.Sprintf("<a id=\"%s-%s\"></a>\n\n**%s** `%s`\n", d.Kind, anchor(target), d.Label, target)
}

// Registry is the process-wide documenter registry
var Registry = registry.New[Documenter]()

// Defaults are the documenters registered by Setup
var Defaults = []Documenter{
	{Kind: "module", Label: "module"},
	{Kind: "function", Label: "function"},
	{Kind: "type", Label: "type"},
}

// Setup registers the default documenters that are not registered yet
func Setup(reg registry.Registry[Documenter]) error {
	for _, d := range Defaults {
		d := d
		if _, err := reg.GetOrRegister(d.Kind, func() (Documenter, error) { return d, nil }); err != nil {
			return err
		}
	}
	return nil
}

// Expand expands line when it is an autodoc directive. ok is false for
// ordinary lines. A directive of an unregistered kind is a NOT_FOUND error.
func Expand(reg registry.Registry[Documenter], line string) (expanded string, ok bool, err error) {
	m := directivePattern.FindStringSubmatch(strings.TrimSpace(line))
	if m == nil {
		return "", false, nil
	}
	kind, target := m[1], strings.TrimSpace(m[2])

	d, err := reg.Get(kind)
	if err != nil {
		return "", true, errors.Newf(errors.ErrNotFound, "unknown directive type \"auto%s\"", kind).
			WithDetail("target", target)
	}
	return d.Render(target), true, nil
}

func anchor(target string) string {
	return strings.ToLower(strings.NewReplacer(".", "-", " ", "-", "/", "-").Replace(target))
}
