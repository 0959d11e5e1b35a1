package testutil

import (
	"bytes"
	"fmt"
	"io"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/afero"

	"github.com/arthur-debert/docfix/pkg/autodoc"
	"github.com/arthur-debert/docfix/pkg/engine"
	"github.com/arthur-debert/docfix/pkg/errors"
	"github.com/arthur-debert/docfix/pkg/logging"
	"github.com/arthur-debert/docfix/pkg/paths"
	"github.com/arthur-debert/docfix/pkg/registry"
	"github.com/arthur-debert/docfix/pkg/theming"
)

var log = logging.GetLogger("testutil")

// BuildDirName is the build root created under every fixture source tree
const BuildDirName = "_build"

// DoctreeDirName is the doctree cache directory under the build root
const DoctreeDirName = "doctrees"

// Options configure a TestApp. Only Source is required.
type Options struct {
	// FS is the filesystem the fixture lives on. Defaults to the OS filesystem.
	FS afero.Fs
	// TempDir allocates temporary directories for NewEmpty and DuplicateOf.
	// Defaults to docfix-prefixed directories in the system temp dir of FS.
	TempDir paths.TempDirAllocator

	Source Source

	// Directories left empty are derived from the source directory
	ConfDir    string
	OutDir     string
	DoctreeDir string

	BuilderName   string
	ConfOverrides map[string]interface{}

	// Status defaults to a bytes.Buffer, Warning to a ListOutput named "stderr"
	Status  io.Writer
	Warning io.Writer

	FreshEnv       bool
	WarningIsError bool
	Tags           []string

	// CleanEnv makes teardown remove the doctree cache too
	CleanEnv bool
	// KeepOnError turns teardown into a no-op when it is told about an error,
	// leaving every directory behind for inspection
	KeepOnError bool

	// Themes and Documenters are handed to the engine and cleared on
	// teardown. They default to the process-wide registries.
	Themes      registry.Registry[*theming.Theme]
	Documenters registry.Registry[autodoc.Documenter]
}

// TestApp is an engine App whose directories are provisioned for a test and
// reclaimed by Cleanup
type TestApp struct {
	*engine.App

	// BuildDir is the build root under the source directory
	BuildDir paths.Path

	status  *bytes.Buffer
	warning *ListOutput

	reclaim     []paths.Path
	keepOnError bool
	themes      registry.Clearer
	documenters registry.Clearer
}

// NewTestApp provisions the source tree and build directories described by
// opts and constructs the engine on top of them.
//
// A precondition failure (no usable Source) is reported with code
// PRECONDITION before the engine is involved. Engine failures are returned
// unchanged, after the directories registered so far have been reclaimed.
func NewTestApp(opts Options) (*TestApp, error) {
	fsys := opts.FS
	if fsys == nil {
		fsys = afero.NewOsFs()
	}
	alloc := opts.TempDir
	if alloc == nil {
		alloc = paths.NewTempDirAllocator(fsys)
	}
	themes := opts.Themes
	if themes == nil {
		themes = theming.Themes
	}
	documenters := opts.Documenters
	if documenters == nil {
		documenters = autodoc.Registry
	}

	app := &TestApp{
		keepOnError: opts.KeepOnError,
		themes:      themes,
		documenters: documenters,
	}

	if opts.Source == nil {
		return nil, errors.New(errors.ErrPrecondition, "source directory not found").
			WithDetail("hint", "use FromExisting, NewEmpty or DuplicateOf")
	}
	srcdir, tmp, err := opts.Source.provision(fsys, alloc)
	if !tmp.IsZero() {
		app.reclaim = append(app.reclaim, tmp)
	}
	if err != nil {
		if tmp.IsZero() {
			return nil, err
		}
		return nil, app.abort(err)
	}

	app.BuildDir = srcdir.Join(BuildDirName)

	confdir := opts.ConfDir
	if confdir == "" {
		confdir = srcdir.String()
	}
	builderName := opts.BuilderName
	if builderName == "" {
		builderName = engine.DefaultBuilder
	}

	outdir := opts.OutDir
	if outdir == "" {
		derived := app.BuildDir.Join(builderName)
		if !derived.IsDir() {
			if err := derived.MakeDirs(); err != nil {
				return nil, app.abort(err)
			}
		}
		app.reclaim = append([]paths.Path{derived}, app.reclaim...)
		outdir = derived.String()
	}

	doctreedir := opts.DoctreeDir
	if doctreedir == "" {
		derived := app.BuildDir.Join(DoctreeDirName)
		if !derived.IsDir() {
			if err := derived.MakeDirs(); err != nil {
				return nil, app.abort(err)
			}
		}
		if opts.CleanEnv {
			app.reclaim = append([]paths.Path{derived}, app.reclaim...)
		}
		doctreedir = derived.String()
	}

	overrides := opts.ConfOverrides
	if overrides == nil {
		overrides = map[string]interface{}{}
	}
	status := opts.Status
	if status == nil {
		app.status = &bytes.Buffer{}
		status = app.status
	}
	warning := opts.Warning
	if warning == nil {
		app.warning = NewListOutput("stderr")
		warning = app.warning
	}

	log.Debug().
		Str("source", opts.Source.String()).
		Str("srcdir", srcdir.String()).
		Str("outdir", outdir).
		Int("reclaim", len(app.reclaim)).
		Msg("Fixture provisioned")

	engineApp, err := engine.New(engine.Options{
		FS:             fsys,
		SrcDir:         srcdir.String(),
		ConfDir:        confdir,
		OutDir:         outdir,
		DoctreeDir:     doctreedir,
		BuilderName:    builderName,
		ConfOverrides:  overrides,
		Status:         status,
		Warning:        warning,
		FreshEnv:       opts.FreshEnv,
		WarningIsError: opts.WarningIsError,
		Tags:           opts.Tags,
		Themes:         themes,
		Documenters:    documenters,
	})
	if err != nil {
		return nil, app.abort(err)
	}
	app.App = engineApp
	return app, nil
}

// abort reclaims what construction registered so far and returns err as is
func (a *TestApp) abort(err error) error {
	if cerr := a.Cleanup(err); cerr != nil {
		log.Error().Err(cerr).Msg("Cannot reclaim fixture directories after failed construction")
	}
	return err
}

// StatusBuffer returns the default status buffer, nil when Options.Status was set
func (a *TestApp) StatusBuffer() *bytes.Buffer { return a.status }

// WarningOutput returns the default warning sink, nil when Options.Warning was set
func (a *TestApp) WarningOutput() *ListOutput { return a.warning }

// ReclaimList returns the directories Cleanup removes, in removal order
func (a *TestApp) ReclaimList() []paths.Path {
	return append([]paths.Path{}, a.reclaim...)
}

func (a *TestApp) String() string {
	if a.App == nil {
		return "<TestApp>"
	}
	return fmt.Sprintf("<TestApp builder=%q>", a.Builder.Name())
}

// Cleanup tears the fixture down. With a non-nil cause and KeepOnError it
// does nothing. Otherwise it clears the theme and documenter registries and
// removes every registered directory; missing directories are skipped.
// Calling it again only repeats work that is already done.
func (a *TestApp) Cleanup(cause error) error {
	if cause != nil && a.keepOnError {
		log.Info().Err(cause).Int("kept", len(a.reclaim)).Msg("Keeping fixture directories after error")
		return nil
	}
	done := logging.LogOperationStart(log, "cleanup")
	defer done()

	a.themes.Clear()
	a.documenters.Clear()

	var result *multierror.Error
	for _, dir := range a.reclaim {
		if err := dir.RemoveTree(); err != nil {
			result = multierror.Append(result, fmt.Errorf("%s: %w", dir, err))
		}
	}
	if err := result.ErrorOrNil(); err != nil {
		return errors.Wrap(err, errors.ErrReclaim, "cannot remove fixture directories")
	}
	return nil
}
