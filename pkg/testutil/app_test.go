// pkg/testutil/app_test.go
// TEST TYPE: Integration Test
// DEPENDENCIES: afero OsFs and MemMapFs, testdata/examples
// PURPOSE: Test fixture provisioning, engine delegation and teardown

package testutil

import (
	"bytes"
	"os"
	"syscall"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arthur-debert/docfix/pkg/errors"
	"github.com/arthur-debert/docfix/pkg/paths"
)

func TestTestApp(t *testing.T) {
	opts, _ := isolatedOptions(t, FromExisting(copyExamples(t)))

	app, err := NewTestApp(opts)
	require.NoError(t, err)
	defer func() { assert.NoError(t, app.Cleanup(nil)) }()

	assert.NotNil(t, app.StatusBuffer())
	assert.NotNil(t, app.WarningOutput())
	assert.Equal(t, "stderr", app.WarningOutput().Name())

	require.NoError(t, app.Build())

	files, err := app.OutDir.List()
	require.NoError(t, err)
	assert.Contains(t, files, "index.html")
	assert.Contains(t, app.StatusBuffer().String(), "build succeeded.")
	assert.Empty(t, app.WarningOutput().Content())
}

func TestTestAppWhenSourceIsExisting(t *testing.T) {
	srcdir := copyExamples(t)
	opts, _ := isolatedOptions(t, FromExisting(srcdir))

	app, err := NewTestApp(opts)
	require.NoError(t, err)

	assert.Equal(t, srcdir, app.SrcDir.String())
	assert.True(t, app.BuildDir.Dir().Equal(app.SrcDir))
	assert.True(t, app.BuildDir.IsDir())

	files, err := app.SrcDir.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"_build", "conf.toml", "index.md"}, files)

	rel, err := app.SrcDir.Rel(app.OutDir)
	require.NoError(t, err)
	assert.Equal(t, "_build/html", rel)

	require.NoError(t, app.Cleanup(nil))

	assert.False(t, app.OutDir.Exists())
	assert.True(t, app.DoctreeDir.Exists(), "doctree cache survives without CleanEnv")
	assert.True(t, app.SrcDir.Join("index.md").Exists(), "caller's tree is never removed")
}

func TestTestAppPreconditions(t *testing.T) {
	tests := []struct {
		name   string
		source Source
	}{
		{"no source", nil},
		{"empty existing path", FromExisting("")},
		{"empty duplicate path", DuplicateOf("")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts, s, _ := memoryOptions(tt.source)

			app, err := NewTestApp(opts)
			assert.Nil(t, app)
			assert.True(t, errors.IsErrorCode(err, errors.ErrPrecondition), "got %v", err)
			assert.Equal(t, 0, s.themes.clears, "no teardown before anything was provisioned")
		})
	}
}

func TestTestAppWhenNewEmpty(t *testing.T) {
	opts, _, _ := memoryOptions(NewEmpty())

	app, err := NewTestApp(opts)
	require.NoError(t, err)
	defer func() { assert.NoError(t, app.Cleanup(nil)) }()

	assert.Equal(t, NewSourceRoot, app.SrcDir.Base())
	files, err := app.SrcDir.List()
	require.NoError(t, err)
	assert.Equal(t, []string{BuildDirName, "conf.toml"}, files)
	assert.Equal(t, "", readFile(t, app.SrcDir.Join("conf.toml")))

	reclaim := app.ReclaimList()
	require.Len(t, reclaim, 2)
	assert.True(t, reclaim[0].Equal(app.OutDir))
	assert.True(t, reclaim[1].Equal(app.SrcDir.Dir()))
}

func TestTestAppWhenDuplicated(t *testing.T) {
	opts, _ := isolatedOptions(t, DuplicateOf(examplesDir))

	app, err := NewTestApp(opts)
	require.NoError(t, err)

	orig := paths.New(opts.FS, examplesDir)
	assert.False(t, app.SrcDir.Equal(orig))
	assert.Equal(t, "examples", app.SrcDir.Base())
	assert.True(t, app.BuildDir.Dir().Equal(app.SrcDir))
	assert.True(t, app.BuildDir.IsDir())

	files, err := app.SrcDir.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"_build", "conf.toml", "index.md"}, files)
	for _, name := range []string{"conf.toml", "index.md"} {
		assert.Equal(t, readFile(t, orig.Join(name)), readFile(t, app.SrcDir.Join(name)), name)
	}

	require.NoError(t, app.Cleanup(nil))

	assert.False(t, app.SrcDir.Exists())
	assert.False(t, app.BuildDir.Exists())
	origFiles, err := orig.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"conf.toml", "index.md"}, origFiles)
}

func TestTestAppDuplicateOfMissingDirectory(t *testing.T) {
	var allocated paths.Path
	opts, s := isolatedOptions(t, DuplicateOf("testdata/missing"))
	alloc := opts.TempDir
	opts.TempDir = func() (paths.Path, error) {
		p, err := alloc()
		allocated = p
		return p, err
	}

	app, err := NewTestApp(opts)
	assert.Nil(t, app)
	assert.True(t, errors.IsErrorCode(err, errors.ErrDirCopy), "got %v", err)
	assert.False(t, allocated.Exists(), "temporary directory is reclaimed")
	assert.Equal(t, 1, s.themes.clears)
}

func TestTestAppCleanup(t *testing.T) {
	opts, s, _ := memoryOptions(NewEmpty())
	app, err := NewTestApp(opts)
	require.NoError(t, err)
	assert.True(t, app.BuildDir.Exists())

	require.NoError(t, app.Cleanup(nil))

	assert.Equal(t, 1, s.themes.clears)
	assert.Equal(t, 1, s.documenters.clears)
	assert.False(t, app.BuildDir.Exists())

	// a second call has nothing left to remove
	require.NoError(t, app.Cleanup(nil))
	assert.False(t, app.BuildDir.Exists())
}

func TestTestAppCleanupWhenKeepOnError(t *testing.T) {
	opts, s, _ := memoryOptions(NewEmpty())
	opts.KeepOnError = true
	app, err := NewTestApp(opts)
	require.NoError(t, err)
	assert.True(t, app.BuildDir.Exists())

	require.NoError(t, app.Cleanup(errors.New(errors.ErrInternal, "test failed")))
	assert.Equal(t, 0, s.themes.clears)
	assert.Equal(t, 0, s.documenters.clears)
	assert.True(t, app.BuildDir.Exists())
	assert.True(t, s.themes.Has("basic"))

	require.NoError(t, app.Cleanup(nil))
	assert.Equal(t, 1, s.themes.clears)
	assert.Equal(t, 1, s.documenters.clears)
	assert.False(t, app.BuildDir.Exists())
}

func TestTestAppCleanEnv(t *testing.T) {
	tests := []struct {
		name        string
		cleanEnv    bool
		wantReclaim int
	}{
		{"doctrees kept", false, 2},
		{"doctrees reclaimed", true, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts, _, _ := memoryOptions(NewEmpty())
			opts.CleanEnv = tt.cleanEnv
			app, err := NewTestApp(opts)
			require.NoError(t, err)
			defer func() { assert.NoError(t, app.Cleanup(nil)) }()

			reclaim := app.ReclaimList()
			require.Len(t, reclaim, tt.wantReclaim)
			assert.Equal(t, tt.cleanEnv, reclaim[0].Equal(app.DoctreeDir))
			assert.True(t, app.DoctreeDir.IsDir())
		})
	}
}

func TestTestAppSuppliedDirectoriesAreNotReclaimed(t *testing.T) {
	opts, _, fsys := memoryOptions(NewEmpty())
	opts.OutDir = "/out"
	opts.DoctreeDir = "/doctrees"
	opts.CleanEnv = true

	app, err := NewTestApp(opts)
	require.NoError(t, err)

	assert.Equal(t, "/out", app.OutDir.String())
	require.Len(t, app.ReclaimList(), 1, "only the temporary directory")

	require.NoError(t, app.Cleanup(nil))
	for _, dir := range []string{"/out", "/doctrees"} {
		info, err := fsys.Stat(dir)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
}

func TestTestAppEngineFailure(t *testing.T) {
	tests := []struct {
		name        string
		keepOnError bool
	}{
		{"reclaims", false},
		{"keeps on error", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var allocated paths.Path
			opts, _ := isolatedOptions(t, NewEmpty())
			alloc := opts.TempDir
			opts.TempDir = func() (paths.Path, error) {
				p, err := alloc()
				allocated = p
				return p, err
			}
			opts.BuilderName = "pdf"
			opts.KeepOnError = tt.keepOnError

			app, err := NewTestApp(opts)
			assert.Nil(t, app)
			assert.True(t, errors.IsErrorCode(err, errors.ErrBuilderNotFound), "got %v", err)
			assert.Equal(t, tt.keepOnError, allocated.Exists())
		})
	}
}

func TestTestAppCustomStreams(t *testing.T) {
	var status, warning bytes.Buffer
	opts, _, _ := memoryOptions(NewEmpty())
	opts.Status = &status
	opts.Warning = &warning
	opts.BuilderName = "xml"

	app, err := NewTestApp(opts)
	require.NoError(t, err)
	defer func() { assert.NoError(t, app.Cleanup(nil)) }()

	assert.Nil(t, app.StatusBuffer())
	assert.Nil(t, app.WarningOutput())
	assert.Equal(t, `<TestApp builder="xml">`, app.String())

	require.NoError(t, app.Build())
	assert.Contains(t, status.String(), "building [xml]")
	assert.Contains(t, warning.String(), "WARNING: master file")
}

func TestTestAppWarningsAreSeparateEntries(t *testing.T) {
	opts, _, _ := memoryOptions(NewEmpty())
	app, err := NewTestApp(opts)
	require.NoError(t, err)
	defer func() { assert.NoError(t, app.Cleanup(nil)) }()

	require.NoError(t, app.SrcDir.Join("page.md").WriteText("<!-- endonly -->\n<!-- only: x -->\n"))
	require.NoError(t, app.Build())

	warnings := app.WarningOutput().Content()
	assert.Len(t, warnings, 3)
	assert.Equal(t, 3, app.WarningCount())

	app.WarningOutput().Reset()
	assert.Empty(t, app.WarningOutput().Content())
}

func TestTestAppRegistries(t *testing.T) {
	opts, s, _ := memoryOptions(NewEmpty())
	opts.ConfOverrides = map[string]interface{}{"extensions": []string{"autodoc"}}

	app, err := NewTestApp(opts)
	require.NoError(t, err)

	assert.True(t, s.themes.Has("basic"))
	assert.Equal(t, 3, s.documenters.Count())

	require.NoError(t, app.Cleanup(nil))
	assert.Equal(t, 0, s.themes.Count())
	assert.Equal(t, 0, s.documenters.Count())
}

func TestTestAppWarningIsError(t *testing.T) {
	opts, _, _ := memoryOptions(NewEmpty())
	opts.WarningIsError = true
	app, err := NewTestApp(opts)
	require.NoError(t, err)
	defer func() { assert.NoError(t, app.Cleanup(nil)) }()

	err = app.Build()
	assert.True(t, errors.IsErrorCode(err, errors.ErrWarningAsError))
}

// denyRemoveFs refuses every RemoveAll and records what was attempted
type denyRemoveFs struct {
	afero.Fs
	attempted []string
}

func (f *denyRemoveFs) RemoveAll(path string) error {
	f.attempted = append(f.attempted, path)
	return &os.PathError{Op: "removeall", Path: path, Err: syscall.EPERM}
}

func TestTestAppCleanupReportsReclaimFailures(t *testing.T) {
	fsys := &denyRemoveFs{Fs: afero.NewMemMapFs()}
	opts, s, _ := memoryOptions(NewEmpty())
	opts.FS = fsys
	app, err := NewTestApp(opts)
	require.NoError(t, err)

	reclaim := app.ReclaimList()
	require.Len(t, reclaim, 2)

	err = app.Cleanup(nil)
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrReclaim), "got %v", err)
	assert.ErrorIs(t, err, syscall.EPERM)
	for _, dir := range reclaim {
		assert.Contains(t, err.Error(), dir.String())
	}

	want := make([]string, 0, len(reclaim))
	for _, dir := range reclaim {
		want = append(want, dir.String())
	}
	assert.Equal(t, want, fsys.attempted, "every directory is attempted after the first failure")
	assert.Equal(t, 1, s.themes.clears)
	assert.Equal(t, 1, s.documenters.clears)
	assert.True(t, app.OutDir.Exists())
}

func TestTestAppCleanupToleratesMissingDirectories(t *testing.T) {
	opts, _, fsys := memoryOptions(NewEmpty())
	app, err := NewTestApp(opts)
	require.NoError(t, err)

	for _, dir := range app.ReclaimList() {
		require.NoError(t, fsys.RemoveAll(dir.String()))
	}
	assert.NoError(t, app.Cleanup(nil))
}
