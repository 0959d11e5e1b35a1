// Package theming resolves HTML themes and keeps the process-wide theme cache.
package theming

import (
	"bytes"
	"embed"
	"html/template"
	"path"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/afero"

	"github.com/arthur-debert/docfix/pkg/errors"
	"github.com/arthur-debert/docfix/pkg/logging"
	"github.com/arthur-debert/docfix/pkg/paths"
	"github.com/arthur-debert/docfix/pkg/registry"
)

// ThemesDir is the directory, relative to the configuration directory, holding project themes
const ThemesDir = "_themes"

// ThemeFile is the theme definition file inside a theme directory
const ThemeFile = "theme.toml"

//go:embed themes
var builtin embed.FS

var log = logging.GetLogger("theming")

// Themes is the process-wide theme cache. Resolved themes stay here until
// someone clears it, so fixtures reset it on teardown.
var Themes = registry.New[*Theme]()

// Theme is a resolved HTML theme
type Theme struct {
	Name       string `toml:"name"`
	Inherit    string `toml:"inherit"`
	Stylesheet string `toml:"stylesheet"`
	Layout     string `toml:"layout"`

	// CSS is the stylesheet content, empty when the theme ships none
	CSS string `toml:"-"`
	// Origin is where the definition was read from
	Origin string `toml:"-"`
}

// Page is the data a theme layout is executed with
type Page struct {
	Title        string
	Project      string
	Language     string
	Stylesheet   string
	StaticPrefix string
	Body         template.HTML
}

// Parse reads a theme definition
func Parse(data []byte) (*Theme, error) {
	var theme Theme
	if err := toml.Unmarshal(data, &theme); err != nil {
		return nil, errors.Wrap(err, errors.ErrThemeInvalid, "cannot parse theme definition")
	}
	return &theme, nil
}

// Load returns the named theme from reg, resolving and registering it (and
// every theme it inherits from) when missing. Project themes under
// confdir/_themes shadow built-in ones.
func Load(reg registry.Registry[*Theme], fsys afero.Fs, confdir, name string) (*Theme, error) {
	return load(reg, fsys, confdir, name, map[string]bool{})
}

func load(reg registry.Registry[*Theme], fsys afero.Fs, confdir, name string, seen map[string]bool) (*Theme, error) {
	if theme, err := reg.Get(name); err == nil {
		return theme, nil
	}
	if seen[name] {
		return nil, errors.Newf(errors.ErrThemeInvalid, "theme %q inherits from itself", name)
	}
	seen[name] = true

	theme, err := find(fsys, confdir, name)
	if err != nil {
		return nil, err
	}

	if theme.Inherit != "" {
		parent, err := load(reg, fsys, confdir, theme.Inherit, seen)
		if err != nil {
			return nil, errors.Wrapf(err, errors.ErrThemeInvalid, "cannot resolve parent of theme %q", name)
		}
		if theme.Layout == "" {
			theme.Layout = parent.Layout
		}
		if theme.Stylesheet == "" {
			theme.Stylesheet = parent.Stylesheet
			theme.CSS = parent.CSS
		}
	}
	if theme.Layout == "" {
		return nil, errors.Newf(errors.ErrThemeInvalid, "theme %q has no layout", name)
	}
	if _, err := template.New(name).Parse(theme.Layout); err != nil {
		return nil, errors.Wrapf(err, errors.ErrThemeInvalid, "theme %q has an invalid layout", name)
	}

	if err := reg.Register(name, theme); err != nil && !errors.IsErrorCode(err, errors.ErrAlreadyExists) {
		return nil, err
	}
	log.Debug().Str("theme", name).Str("origin", theme.Origin).Msg("Theme registered")
	return theme, nil
}

func find(fsys afero.Fs, confdir, name string) (*Theme, error) {
	if confdir != "" {
		dir := paths.New(fsys, confdir).Join(ThemesDir, name)
		if def := dir.Join(ThemeFile); def.Exists() {
			data, err := def.ReadBytes()
			if err != nil {
				return nil, errors.Wrapf(err, errors.ErrThemeInvalid, "cannot read %s", def)
			}
			theme, err := parseNamed(data, name, def.String())
			if err != nil {
				return nil, err
			}
			if theme.Stylesheet != "" {
				if css := dir.Join("static", theme.Stylesheet); css.Exists() {
					theme.CSS, _ = css.ReadText()
				}
			}
			return theme, nil
		}
	}

	data, err := builtin.ReadFile(path.Join("themes", name, ThemeFile))
	if err != nil {
		return nil, errors.Newf(errors.ErrThemeNotFound, "no theme named %q found", name).
			WithDetail("theme", name)
	}
	theme, err := parseNamed(data, name, "builtin:"+name)
	if err != nil {
		return nil, err
	}
	if theme.Stylesheet != "" {
		if css, err := builtin.ReadFile(path.Join("themes", name, theme.Stylesheet)); err == nil {
			theme.CSS = string(css)
		}
	}
	return theme, nil
}

func parseNamed(data []byte, name, origin string) (*Theme, error) {
	theme, err := Parse(data)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrThemeInvalid, "invalid theme %q (%s)", name, origin)
	}
	if theme.Name == "" {
		theme.Name = name
	}
	theme.Origin = origin
	return theme, nil
}

// Render executes the theme layout for page
func Render(theme *Theme, page Page) (string, error) {
	tmpl, err := template.New(theme.Name).Parse(theme.Layout)
	if err != nil {
		return "", errors.Wrapf(err, errors.ErrThemeInvalid, "theme %q has an invalid layout", theme.Name)
	}
	if page.Stylesheet == "" {
		page.Stylesheet = theme.Stylesheet
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, page); err != nil {
		return "", errors.Wrapf(err, errors.ErrBuildWrite, "cannot render page %q", page.Title)
	}
	return buf.String(), nil
}
