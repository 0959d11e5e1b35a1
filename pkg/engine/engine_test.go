// pkg/engine/engine_test.go
// TEST TYPE: Integration Test
// DEPENDENCIES: afero MemMapFs, builtin theme
// PURPOSE: Shared project fixtures for engine tests

package engine

import (
	"bytes"
	"path"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/arthur-debert/docfix/pkg/autodoc"
	"github.com/arthur-debert/docfix/pkg/registry"
	"github.com/arthur-debert/docfix/pkg/theming"
)

const projectDir = "/proj"

// newProject writes files (relative to projectDir) into a fresh memory fs
func newProject(t *testing.T, files map[string]string) afero.Fs {
	t.Helper()
	fsys := afero.NewMemMapFs()
	require.NoError(t, fsys.MkdirAll(projectDir, 0755))
	for name, content := range files {
		full := path.Join(projectDir, name)
		require.NoError(t, fsys.MkdirAll(path.Dir(full), 0755))
		require.NoError(t, afero.WriteFile(fsys, full, []byte(content), 0644))
	}
	return fsys
}

// testOptions returns options for projectDir with isolated registries
func testOptions(fsys afero.Fs, builder string) (Options, *bytes.Buffer, *bytes.Buffer) {
	status, warning := &bytes.Buffer{}, &bytes.Buffer{}
	return Options{
		FS:          fsys,
		SrcDir:      projectDir,
		OutDir:      projectDir + "/_build/" + builder,
		DoctreeDir:  projectDir + "/_build/doctrees",
		BuilderName: builder,
		Status:      status,
		Warning:     warning,
		Themes:      registry.New[*theming.Theme](),
		Documenters: registry.New[autodoc.Documenter](),
	}, status, warning
}

func newTestApp(t *testing.T, fsys afero.Fs, builder string) (*App, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	opts, status, warning := testOptions(fsys, builder)
	app, err := New(opts)
	require.NoError(t, err)
	return app, status, warning
}
