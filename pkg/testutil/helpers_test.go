// pkg/testutil/helpers_test.go
// TEST TYPE: Test helpers
// DEPENDENCIES: afero OsFs, t.TempDir
// PURPOSE: Isolated filesystem setup and registry spies for fixture tests

package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/arthur-debert/docfix/pkg/autodoc"
	"github.com/arthur-debert/docfix/pkg/paths"
	"github.com/arthur-debert/docfix/pkg/registry"
	"github.com/arthur-debert/docfix/pkg/theming"
)

const examplesDir = "testdata/examples"

// countingRegistry counts Clear calls on top of a real registry
type countingRegistry[T any] struct {
	registry.Registry[T]
	clears int
}

func (c *countingRegistry[T]) Clear() {
	c.clears++
	c.Registry.Clear()
}

type spies struct {
	themes      *countingRegistry[*theming.Theme]
	documenters *countingRegistry[autodoc.Documenter]
}

func newSpies() spies {
	return spies{
		themes:      &countingRegistry[*theming.Theme]{Registry: registry.New[*theming.Theme]()},
		documenters: &countingRegistry[autodoc.Documenter]{Registry: registry.New[autodoc.Documenter]()},
	}
}

// isolatedOptions returns options on the OS filesystem whose temporary
// directories are allocated under t.TempDir
func isolatedOptions(t *testing.T, source Source) (Options, spies) {
	t.Helper()
	base := t.TempDir()
	s := newSpies()
	return Options{
		FS:     afero.NewOsFs(),
		Source: source,
		TempDir: func() (paths.Path, error) {
			dir, err := os.MkdirTemp(base, paths.TempDirPrefix)
			if err != nil {
				return paths.Path{}, err
			}
			return paths.New(afero.NewOsFs(), dir), nil
		},
		Themes:      s.themes,
		Documenters: s.documenters,
	}, s
}

// memoryOptions returns options on a fresh memory filesystem
func memoryOptions(source Source) (Options, spies, afero.Fs) {
	fsys := afero.NewMemMapFs()
	s := newSpies()
	return Options{
		FS:          fsys,
		Source:      source,
		Themes:      s.themes,
		Documenters: s.documenters,
	}, s, fsys
}

// copyExamples copies the example project into a private directory, so tests
// building in place never write next to testdata
func copyExamples(t *testing.T) string {
	t.Helper()
	osfs := afero.NewOsFs()
	dst := filepath.Join(t.TempDir(), "examples")
	require.NoError(t, paths.New(osfs, examplesDir).CopyTree(paths.New(osfs, dst)))
	return dst
}

func readFile(t *testing.T, p paths.Path) string {
	t.Helper()
	text, err := p.ReadText()
	require.NoError(t, err)
	return text
}
