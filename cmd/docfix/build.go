package main

import (
	"fmt"
	"io"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/arthur-debert/docfix/pkg/errors"
	"github.com/arthur-debert/docfix/pkg/logging"
	"github.com/arthur-debert/docfix/pkg/testutil"
)

var log = logging.GetLogger("cli")

type buildFlags struct {
	builder        string
	defines        []string
	tags           []string
	freshEnv       bool
	warningIsError bool
	newSource      bool
	copySource     bool
	cleanEnv       bool
	keep           bool
	keepOnError    bool
}

func newBuildCmd() *cobra.Command {
	var flags buildFlags

	cmd := &cobra.Command{
		Use:   "build [srcdir]",
		Short: MsgBuildShort,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := fixtureOptions(flags, args)
			if err != nil {
				return err
			}
			return runBuild(cmd.OutOrStdout(), opts, flags.keep)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&flags.builder, "builder", "b", "html", MsgFlagBuilder)
	f.StringArrayVarP(&flags.defines, "define", "D", nil, MsgFlagDefine)
	f.StringArrayVarP(&flags.tags, "tag", "t", nil, MsgFlagTag)
	f.BoolVarP(&flags.freshEnv, "fresh-env", "E", false, MsgFlagFreshEnv)
	f.BoolVarP(&flags.warningIsError, "warning-is-error", "W", false, MsgFlagWarningIsError)
	f.BoolVar(&flags.newSource, "new", false, MsgFlagNew)
	f.BoolVar(&flags.copySource, "copy", false, MsgFlagCopy)
	f.BoolVar(&flags.cleanEnv, "clean-env", false, MsgFlagCleanEnv)
	f.BoolVar(&flags.keep, "keep", false, MsgFlagKeep)
	f.BoolVar(&flags.keepOnError, "keep-on-error", false, MsgFlagKeepOnError)
	return cmd
}

// fixtureOptions turns command line flags into fixture options
func fixtureOptions(flags buildFlags, args []string) (testutil.Options, error) {
	source, err := sourceFor(flags, args)
	if err != nil {
		return testutil.Options{}, err
	}
	overrides, err := parseDefines(flags.defines)
	if err != nil {
		return testutil.Options{}, err
	}
	return testutil.Options{
		Source:         source,
		BuilderName:    flags.builder,
		ConfOverrides:  overrides,
		FreshEnv:       flags.freshEnv,
		WarningIsError: flags.warningIsError,
		Tags:           flags.tags,
		CleanEnv:       flags.cleanEnv,
		KeepOnError:    flags.keepOnError,
	}, nil
}

func sourceFor(flags buildFlags, args []string) (testutil.Source, error) {
	switch {
	case flags.newSource && len(args) > 0:
		return nil, errors.New(errors.ErrPrecondition, MsgErrNewWithSource)
	case flags.newSource && flags.copySource:
		return nil, errors.New(errors.ErrPrecondition, MsgErrNewWithCopy)
	case flags.newSource:
		return testutil.NewEmpty(), nil
	case len(args) == 0:
		return nil, errors.New(errors.ErrPrecondition, MsgErrNoSource)
	case flags.copySource:
		return testutil.DuplicateOf(args[0]), nil
	default:
		return testutil.FromExisting(args[0]), nil
	}
}

// parseDefines parses key=value pairs. Values that read as TOML scalars
// (numbers, booleans, arrays) keep their type, anything else is a string.
func parseDefines(defines []string) (map[string]interface{}, error) {
	overrides := make(map[string]interface{}, len(defines))
	for _, define := range defines {
		key, value, ok := strings.Cut(define, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, errors.Newf(errors.ErrInvalidInput, MsgErrBadDefine, define)
		}

		var doc map[string]interface{}
		if err := toml.Unmarshal([]byte("v = "+value), &doc); err == nil {
			overrides[key] = doc["v"]
		} else {
			overrides[key] = value
		}
	}
	return overrides, nil
}

// runBuild builds inside a fixture and reports to out. With keep the fixture
// is never torn down.
func runBuild(out io.Writer, opts testutil.Options, keep bool) error {
	s := newStyles(out)

	body := func(_ struct{}, app *testutil.TestApp) error {
		err := app.Build()
		report(out, s, app, err)
		if keep {
			fmt.Fprintln(out, s.muted.Render(fmt.Sprintf(MsgKept, app.SrcDir)))
		}
		return err
	}

	run := testutil.WithApp(opts, body)
	if keep {
		run = func(arg struct{}) error {
			app, err := testutil.NewTestApp(opts)
			if err != nil {
				return err
			}
			return body(arg, app)
		}
	}
	return run(struct{}{})
}

func report(out io.Writer, s styles, app *testutil.TestApp, buildErr error) {
	fmt.Fprintln(out, s.heading.Render(MsgStatusHeader))
	fmt.Fprintln(out, renderLines(s.muted, app.StatusBuffer().String()))
	fmt.Fprintln(out)

	if warnings := app.WarningOutput().Content(); len(warnings) > 0 {
		fmt.Fprintln(out, s.heading.Render(fmt.Sprintf(MsgWarningsHeader, len(warnings))))
		for _, w := range warnings {
			fmt.Fprintln(out, s.warning.Render(strings.TrimRight(w, "\n")))
		}
		fmt.Fprintln(out)
	}

	if buildErr != nil {
		fmt.Fprintln(out, s.err.Render(MsgBuildFailed))
		return
	}

	fmt.Fprintln(out, s.heading.Render(fmt.Sprintf(MsgOutputHeader, s.path.Render(app.OutDir.String()))))
	files, err := outputFiles(app)
	if err != nil {
		log.Warn().Err(err).Str("outdir", app.OutDir.String()).Msg("Output listing is incomplete")
	}
	for _, name := range files {
		fmt.Fprintf(out, MsgOutputItem+"\n", name)
	}
	fmt.Fprintln(out, s.success.Render(strings.TrimSpace(lastLine(app.StatusBuffer().String()))))
}

// outputFiles lists every file under the output directory, slash separated.
// On error it returns the files found before the walk stopped.
func outputFiles(app *testutil.TestApp) ([]string, error) {
	var files []string
	root := app.OutDir.String()
	err := afero.Walk(app.Fs(), root, func(path string, info fs.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return files, errors.Wrapf(err, errors.ErrBuildWrite, "cannot list output directory %s", root)
	}
	return files, nil
}

func lastLine(text string) string {
	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")
	return lines[len(lines)-1]
}
