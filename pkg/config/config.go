package config

import (
	_ "embed"
	stderrors "errors"
	"os"
	"sort"

	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/afero"

	"github.com/arthur-debert/docfix/pkg/errors"
	"github.com/arthur-debert/docfix/pkg/logging"
	"github.com/arthur-debert/docfix/pkg/paths"
)

// ConfigFile is the name of the configuration file inside the configuration directory
const ConfigFile = "conf.toml"

//go:embed embedded/defaults.toml
var defaultConfig []byte

var log = logging.GetLogger("config")

// rawBytesProvider feeds bytes already read from an afero filesystem to koanf
type rawBytesProvider struct{ bytes []byte }

func (r *rawBytesProvider) ReadBytes() ([]byte, error) { return r.bytes, nil }
func (r *rawBytesProvider) Read() (map[string]interface{}, error) {
	return nil, stderrors.New("not implemented")
}

// Config is the typed view of a project's configuration
type Config struct {
	Project         string   `koanf:"project"`
	Language        string   `koanf:"language"`
	MasterDoc       string   `koanf:"master_doc"`
	SourceSuffix    string   `koanf:"source_suffix"`
	ExcludePatterns []string `koanf:"exclude_patterns"`
	Extensions      []string `koanf:"extensions"`
	Tags            []string `koanf:"tags"`
	HTMLTheme       string   `koanf:"html_theme"`
	TextWidth       int      `koanf:"text_width"`

	// Raw keeps every loaded key, including ones Config has no field for
	Raw *koanf.Koanf `koanf:"-"`
}

// HasExtension reports whether the named extension is enabled
func (c *Config) HasExtension(name string) bool {
	for _, ext := range c.Extensions {
		if ext == name {
			return true
		}
	}
	return false
}

// Get returns the raw value of key, or nil when it is not set
func (c *Config) Get(key string) interface{} {
	if c.Raw == nil {
		return nil
	}
	return c.Raw.Get(key)
}

// Load reads confdir/conf.toml from fsys and applies overrides on top of it.
// The configuration file must exist, although it may be empty.
func Load(fsys afero.Fs, confdir string, overrides map[string]interface{}) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(&rawBytesProvider{bytes: defaultConfig}, toml.Parser()); err != nil {
		return nil, errors.Wrap(err, errors.ErrInternal, "failed to load defaults")
	}

	confPath := paths.New(fsys, confdir).Join(ConfigFile)
	data, err := confPath.ReadBytes()
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Newf(errors.ErrConfigLoad, "config directory doesn't contain a %s file (%s)", ConfigFile, confdir).
				WithDetail("confdir", confdir)
		}
		return nil, errors.Wrapf(err, errors.ErrConfigLoad, "cannot read %s", confPath)
	}
	if err := k.Load(&rawBytesProvider{bytes: data}, toml.Parser()); err != nil {
		return nil, errors.Wrapf(err, errors.ErrConfigParse, "cannot parse %s", confPath).
			WithDetail("path", confPath.String())
	}

	if len(overrides) > 0 {
		if err := k.Load(confmap.Provider(overrides, "."), nil); err != nil {
			return nil, errors.Wrap(err, errors.ErrConfigValid, "cannot apply configuration overrides")
		}
		log.Debug().Strs("keys", overrideKeys(overrides)).Msg("Applied configuration overrides")
	}

	cfg := &Config{Raw: k}
	unmarshalConf := koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           cfg,
			WeaklyTypedInput: true,
			DecodeHook:       mapstructure.StringToSliceHookFunc(","),
		},
	}
	if err := k.UnmarshalWithConf("", cfg, unmarshalConf); err != nil {
		return nil, errors.Wrapf(err, errors.ErrConfigValid, "invalid configuration in %s", confPath)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	log.Debug().
		Str("confdir", confdir).
		Str("project", cfg.Project).
		Strs("extensions", cfg.Extensions).
		Msg("Configuration loaded")
	return cfg, nil
}

func (c *Config) validate() error {
	if c.MasterDoc == "" {
		return errors.New(errors.ErrConfigValid, "master_doc cannot be empty")
	}
	if c.SourceSuffix == "" {
		return errors.New(errors.ErrConfigValid, "source_suffix cannot be empty")
	}
	if c.TextWidth < 0 {
		return errors.Newf(errors.ErrConfigValid, "text_width must not be negative, got %d", c.TextWidth)
	}
	return nil
}

func overrideKeys(overrides map[string]interface{}) []string {
	keys := make([]string, 0, len(overrides))
	for key := range overrides {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
