package engine

import (
	"bytes"
	"html/template"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	goldmarkhtml "github.com/yuin/goldmark/renderer/html"

	"github.com/arthur-debert/docfix/pkg/errors"
	"github.com/arthur-debert/docfix/pkg/paths"
	"github.com/arthur-debert/docfix/pkg/registry"
	"github.com/arthur-debert/docfix/pkg/theming"
)

// DefaultBuilder is used when no builder name is given
const DefaultBuilder = "html"

// StaticDir is the output subdirectory for theme assets
const StaticDir = "_static"

// Builder turns doctrees into output files
type Builder interface {
	// Name is the name the builder is registered under
	Name() string
	// Format is the output format, used for the format_<x> tag
	Format() string
	// Init prepares the builder for app. It runs during App construction.
	Init(app *App) error
	// Write produces the output of one document
	Write(app *App, doc *Document) error
	// Finish runs once after every document was written
	Finish(app *App) error
}

// BuilderFactory creates a fresh builder
type BuilderFactory func() Builder

// Builders holds every available builder by name
var Builders = registry.New[BuilderFactory]()

func init() {
	registry.MustRegister(Builders, "html", func() Builder { return &htmlBuilder{} })
	registry.MustRegister(Builders, "text", func() Builder { return &textBuilder{} })
	registry.MustRegister(Builders, "xml", func() Builder { return &xmlBuilder{} })
}

// outputPath returns the output file for docname with suffix, creating its
// parent directory
func outputPath(app *App, docname, suffix string) (paths.Path, error) {
	target := app.OutDir.Join(filepath.FromSlash(docname) + suffix)
	if err := target.Dir().MakeDirs(); err != nil {
		return paths.Path{}, err
	}
	return target, nil
}

func writeOutput(app *App, docname, suffix string, data []byte) error {
	target, err := outputPath(app, docname, suffix)
	if err != nil {
		return err
	}
	if err := target.WriteBytes(data); err != nil {
		return errors.Wrapf(err, errors.ErrBuildWrite, "cannot write %s", target)
	}
	return nil
}

type htmlBuilder struct {
	theme    *theming.Theme
	markdown goldmark.Markdown
}

func (b *htmlBuilder) Name() string   { return "html" }
func (b *htmlBuilder) Format() string { return "html" }

func (b *htmlBuilder) Init(app *App) error {
	theme, err := theming.Load(app.themes, app.fs, app.ConfDir.String(), app.Config.HTMLTheme)
	if err != nil {
		return err
	}
	b.theme = theme
	b.markdown = goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
		goldmark.WithRendererOptions(goldmarkhtml.WithUnsafe()),
	)
	return nil
}

func (b *htmlBuilder) Write(app *App, doc *Document) error {
	var body bytes.Buffer
	if err := b.markdown.Convert([]byte(doc.Content), &body); err != nil {
		return errors.Wrapf(err, errors.ErrBuildWrite, "cannot render %s", doc.Name)
	}

	page, err := theming.Render(b.theme, theming.Page{
		Title:        doc.Title,
		Project:      app.Config.Project,
		Language:     app.Config.Language,
		StaticPrefix: strings.Repeat("../", strings.Count(doc.Name, "/")),
		Body:         template.HTML(body.String()),
	})
	if err != nil {
		return err
	}
	return writeOutput(app, doc.Name, ".html", []byte(page))
}

func (b *htmlBuilder) Finish(app *App) error {
	if b.theme.Stylesheet == "" || b.theme.CSS == "" {
		return nil
	}
	return writeOutput(app, StaticDir+"/"+b.theme.Stylesheet, "", []byte(b.theme.CSS))
}

type textBuilder struct {
	renderer *glamour.TermRenderer
}

func (b *textBuilder) Name() string   { return "text" }
func (b *textBuilder) Format() string { return "text" }

func (b *textBuilder) Init(app *App) error {
	opts := []glamour.TermRendererOption{glamour.WithStandardStyle("notty")}
	if app.Config.TextWidth > 0 {
		opts = append(opts, glamour.WithWordWrap(app.Config.TextWidth))
	}
	renderer, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return errors.Wrap(err, errors.ErrInternal, "cannot create text renderer")
	}
	b.renderer = renderer
	return nil
}

func (b *textBuilder) Write(app *App, doc *Document) error {
	out, err := b.renderer.Render(doc.Content)
	if err != nil {
		return errors.Wrapf(err, errors.ErrBuildWrite, "cannot render %s", doc.Name)
	}
	return writeOutput(app, doc.Name, ".txt", []byte(out))
}

func (b *textBuilder) Finish(*App) error { return nil }

type xmlBuilder struct{}

func (b *xmlBuilder) Name() string      { return "xml" }
func (b *xmlBuilder) Format() string    { return "xml" }
func (b *xmlBuilder) Init(*App) error   { return nil }
func (b *xmlBuilder) Finish(*App) error { return nil }

func (b *xmlBuilder) Write(app *App, doc *Document) error {
	data, err := documentXML(doc).WriteToBytes()
	if err != nil {
		return errors.Wrapf(err, errors.ErrBuildWrite, "cannot serialise %s", doc.Name)
	}
	return writeOutput(app, doc.Name, ".xml", data)
}
