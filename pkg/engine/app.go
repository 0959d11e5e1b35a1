package engine

import (
	"fmt"
	"io"
	"sort"

	"github.com/spf13/afero"

	"github.com/arthur-debert/docfix/internal/version"
	"github.com/arthur-debert/docfix/pkg/autodoc"
	"github.com/arthur-debert/docfix/pkg/config"
	"github.com/arthur-debert/docfix/pkg/errors"
	"github.com/arthur-debert/docfix/pkg/logging"
	"github.com/arthur-debert/docfix/pkg/paths"
	"github.com/arthur-debert/docfix/pkg/registry"
	"github.com/arthur-debert/docfix/pkg/theming"
)

var log = logging.GetLogger("engine")

// Options are the constructor arguments of an App
type Options struct {
	// FS is the filesystem every directory lives on. Defaults to the OS filesystem.
	FS afero.Fs

	SrcDir     string
	ConfDir    string
	OutDir     string
	DoctreeDir string

	BuilderName   string
	ConfOverrides map[string]interface{}

	// Status receives informational output, Warning receives diagnostics.
	// Both default to io.Discard.
	Status  io.Writer
	Warning io.Writer

	// FreshEnv ignores cached doctrees
	FreshEnv bool
	// WarningIsError aborts the build on the first warning
	WarningIsError bool
	Tags           []string

	// Themes and Documenters default to the process-wide registries
	Themes      registry.Registry[*theming.Theme]
	Documenters registry.Registry[autodoc.Documenter]
}

// App is a configured documentation project ready to build
type App struct {
	SrcDir     paths.Path
	ConfDir    paths.Path
	OutDir     paths.Path
	DoctreeDir paths.Path

	Config  *config.Config
	Builder Builder
	Tags    *Tags

	Status  io.Writer
	Warning io.Writer

	FreshEnv       bool
	WarningIsError bool

	fs          afero.Fs
	themes      registry.Registry[*theming.Theme]
	documenters registry.Registry[autodoc.Documenter]
	warnings    int
}

// New loads the project configuration and initialises the requested builder
func New(opts Options) (*App, error) {
	fsys := opts.FS
	if fsys == nil {
		fsys = afero.NewOsFs()
	}
	if opts.SrcDir == "" {
		return nil, errors.New(errors.ErrInvalidInput, "source directory is required")
	}
	if opts.ConfDir == "" {
		opts.ConfDir = opts.SrcDir
	}
	if opts.OutDir == "" || opts.DoctreeDir == "" {
		return nil, errors.New(errors.ErrInvalidInput, "output and doctree directories are required")
	}

	app := &App{
		SrcDir:         paths.New(fsys, opts.SrcDir),
		ConfDir:        paths.New(fsys, opts.ConfDir),
		OutDir:         paths.New(fsys, opts.OutDir),
		DoctreeDir:     paths.New(fsys, opts.DoctreeDir),
		Status:         writerOrDiscard(opts.Status),
		Warning:        writerOrDiscard(opts.Warning),
		FreshEnv:       opts.FreshEnv,
		WarningIsError: opts.WarningIsError,
		fs:             fsys,
		themes:         opts.Themes,
		documenters:    opts.Documenters,
	}
	if app.themes == nil {
		app.themes = theming.Themes
	}
	if app.documenters == nil {
		app.documenters = autodoc.Registry
	}

	app.info("Running docfix %s", version.Version)

	if !app.SrcDir.IsDir() {
		return nil, errors.Newf(errors.ErrSourceRead, "source directory %s does not exist", app.SrcDir).
			WithDetail("srcdir", app.SrcDir.String())
	}

	cfg, err := config.Load(fsys, opts.ConfDir, opts.ConfOverrides)
	if err != nil {
		return nil, err
	}
	app.Config = cfg

	if !app.OutDir.IsDir() {
		app.info("making output directory...")
		if err := app.OutDir.MakeDirs(); err != nil {
			return nil, err
		}
	}
	if err := app.DoctreeDir.MakeDirs(); err != nil {
		return nil, err
	}

	if cfg.HasExtension(autodoc.ExtensionName) {
		if err := autodoc.Setup(app.documenters); err != nil {
			return nil, err
		}
	}

	name := opts.BuilderName
	if name == "" {
		name = DefaultBuilder
	}
	factory, err := Builders.Get(name)
	if err != nil {
		return nil, errors.Newf(errors.ErrBuilderNotFound, "builder name %s not registered", name).
			WithDetail("builder", name).
			WithDetail("available", Builders.List())
	}
	app.Builder = factory()

	app.Tags = NewTags(append(append([]string{}, cfg.Tags...), opts.Tags...)...)
	app.Tags.Add("builder_" + app.Builder.Name())
	app.Tags.Add("format_" + app.Builder.Format())

	if err := app.Builder.Init(app); err != nil {
		return nil, err
	}

	log.Debug().
		Str("srcdir", app.SrcDir.String()).
		Str("outdir", app.OutDir.String()).
		Str("builder", app.Builder.Name()).
		Msg("Application initialized")
	return app, nil
}

// String identifies the app by its builder
func (a *App) String() string {
	return fmt.Sprintf("<App builder=%q>", a.Builder.Name())
}

// Fs returns the filesystem the app reads and writes
func (a *App) Fs() afero.Fs { return a.fs }

// Themes returns the theme registry the app resolves themes in
func (a *App) Themes() registry.Registry[*theming.Theme] { return a.themes }

// Documenters returns the documenter registry used for autodoc directives
func (a *App) Documenters() registry.Registry[autodoc.Documenter] { return a.documenters }

// WarningCount returns the number of warnings emitted so far
func (a *App) WarningCount() int { return a.warnings }

// Build reads all sources and writes every document with the builder
func (a *App) Build() error {
	done := logging.LogOperationStart(log, "build")
	defer done()

	env, err := a.loadEnvironment()
	if err != nil {
		return err
	}

	docs, err := a.discover()
	if err != nil {
		return err
	}

	master := a.Config.MasterDoc
	if _, ok := docs[master]; !ok {
		if err := a.warn("", "master file %s not found", a.SrcDir.Join(master+a.Config.SourceSuffix)); err != nil {
			return err
		}
	}

	names := sortedKeys(docs)
	a.info("building [%s]: targets for %d source files", a.Builder.Name(), len(names))

	trees, err := a.readAll(env, names, docs)
	if err != nil {
		return err
	}

	if err := a.pruneDoctrees(env, docs); err != nil {
		return err
	}
	if err := a.saveEnvironment(names); err != nil {
		return err
	}

	for i, name := range names {
		a.info("writing output... [%3d%%] %s", percent(i+1, len(names)), name)
		if err := a.Builder.Write(a, trees[name]); err != nil {
			return err
		}
	}
	if err := a.Builder.Finish(a); err != nil {
		return err
	}

	switch a.warnings {
	case 0:
		a.info("build succeeded.")
	case 1:
		a.info("build succeeded, 1 warning.")
	default:
		a.info("build succeeded, %d warnings.", a.warnings)
	}
	return nil
}

func (a *App) info(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(a.Status, format+"\n", args...)
}

// warn reports a diagnostic. With WarningIsError it returns the error that
// must abort the build.
func (a *App) warn(location string, format string, args ...interface{}) error {
	msg := fmt.Sprintf(format, args...)
	line := "WARNING: " + msg
	if location != "" {
		line = location + ": " + line
	}
	a.warnings++
	_, _ = fmt.Fprintln(a.Warning, line)
	log.Debug().Str("location", location).Msg(msg)

	if a.WarningIsError {
		return errors.New(errors.ErrWarningAsError, msg).WithDetail("location", location)
	}
	return nil
}

func writerOrDiscard(w io.Writer) io.Writer {
	if w == nil {
		return io.Discard
	}
	return w
}

func percent(n, total int) int {
	if total == 0 {
		return 100
	}
	return n * 100 / total
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
