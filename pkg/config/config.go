// Package config resolves mermaidpng settings from the environment, an
// optional .env file and command-line flags.
//
// Every setting has an environment key with the MERMAID_ prefix
// (MERMAID_INPUT, MERMAID_OUTPUT_DIR, ...). Precedence, highest first:
// changed command-line flags, process environment, .env file, defaults.
// Nothing is ever written back.
package config

import (
	"cmp"
	"os"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/matzehuels/mermaidpng/pkg/batch"
	"github.com/matzehuels/mermaidpng/pkg/errors"
	"github.com/matzehuels/mermaidpng/pkg/fonts"
	"github.com/matzehuels/mermaidpng/pkg/locate"
	"github.com/matzehuels/mermaidpng/pkg/raster"
	"github.com/matzehuels/mermaidpng/pkg/render"
)

// EnvPrefix prefixes every environment key.
const EnvPrefix = "MERMAID"

// EnvFileVar names an alternative .env file.
const EnvFileVar = "MERMAID_ENV_FILE"

// Config holds the resolved settings for one run.
type Config struct {
	Input         string  `mapstructure:"input" json:"input"`
	OutputDir     string  `mapstructure:"output_dir" json:"output_dir"`
	Theme         string  `mapstructure:"theme" json:"theme"`
	FontFamily    string  `mapstructure:"font_family" json:"font_family"`
	SecurityLevel string  `mapstructure:"security_level" json:"security_level"`
	Background    string  `mapstructure:"background" json:"background"`
	Fonts         string  `mapstructure:"fonts" json:"fonts"`
	Scale         float64 `mapstructure:"scale" json:"scale"`
	Width         int     `mapstructure:"width" json:"width"`
	Height        int     `mapstructure:"height" json:"height"`
	Workers       int     `mapstructure:"workers" json:"workers"`
	FailOnError   bool    `mapstructure:"fail_on_error" json:"fail_on_error"`
	IncludeHidden bool    `mapstructure:"include_hidden" json:"include_hidden"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Input:         locate.DefaultPattern,
		OutputDir:     "diagrams",
		Theme:         render.DefaultThemeName,
		FontFamily:    render.DefaultFontFamily,
		SecurityLevel: string(render.SecurityStrict),
		Background:    "white",
		Fonts:         string(fonts.StrategySystem),
		Scale:         1,
		Workers:       1,
	}
}

// flagSpec ties a config key to its command-line flag.
type flagSpec struct {
	key, flag, short, usage string
}

var flagSpecs = []flagSpec{
	{"input", "input", "i", "glob of diagram sources (** matches any depth)"},
	{"output_dir", "output-dir", "o", "directory for generated PNG files"},
	{"theme", "theme", "t", "theme name or path to a .toml theme file"},
	{"font_family", "font-family", "", "CSS font family list"},
	{"security_level", "security-level", "", "strict, loose, antiscript or sandbox"},
	{"background", "background", "b", "background color or \"transparent\""},
	{"fonts", "fonts", "", "font source: system or embedded"},
	{"scale", "scale", "s", "output scale factor"},
	{"width", "width", "w", "force output width in pixels (0 = intrinsic)"},
	{"height", "height", "", "force output height in pixels (0 = intrinsic)"},
	{"workers", "workers", "j", "files converted in parallel"},
	{"fail_on_error", "fail-on-error", "", "exit non-zero when any file fails"},
	{"include_hidden", "include-hidden", "", "include dot files and dot directories"},
}

// AddFlags defines one flag per setting on fs, with defaults shown in help.
func AddFlags(fs *pflag.FlagSet) {
	d := Default()
	for _, s := range flagSpecs {
		switch s.key {
		case "scale":
			fs.Float64P(s.flag, s.short, d.Scale, s.usage)
		case "width":
			fs.IntP(s.flag, s.short, d.Width, s.usage)
		case "height":
			fs.IntP(s.flag, s.short, d.Height, s.usage)
		case "workers":
			fs.IntP(s.flag, s.short, d.Workers, s.usage)
		case "fail_on_error":
			fs.BoolP(s.flag, s.short, d.FailOnError, s.usage)
		case "include_hidden":
			fs.BoolP(s.flag, s.short, d.IncludeHidden, s.usage)
		default:
			fs.StringP(s.flag, s.short, defaultString(d, s.key), s.usage)
		}
	}
}

func defaultString(d *Config, key string) string {
	switch key {
	case "input":
		return d.Input
	case "output_dir":
		return d.OutputDir
	case "theme":
		return d.Theme
	case "font_family":
		return d.FontFamily
	case "security_level":
		return d.SecurityLevel
	case "background":
		return d.Background
	case "fonts":
		return d.Fonts
	}
	return ""
}

// Load resolves the configuration. flags may be nil; flags defined by
// [AddFlags] override the environment only when set explicitly.
func Load(flags *pflag.FlagSet) (*Config, error) {
	if err := loadEnvFile(); err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	d := Default()
	defaults := map[string]any{
		"input":          d.Input,
		"output_dir":     d.OutputDir,
		"theme":          d.Theme,
		"font_family":    d.FontFamily,
		"security_level": d.SecurityLevel,
		"background":     d.Background,
		"fonts":          d.Fonts,
		"scale":          d.Scale,
		"width":          d.Width,
		"height":         d.Height,
		"workers":        d.Workers,
		"fail_on_error":  d.FailOnError,
		"include_hidden": d.IncludeHidden,
	}
	for k, val := range defaults {
		v.SetDefault(k, val)
	}

	if flags != nil {
		for _, s := range flagSpecs {
			if f := flags.Lookup(s.flag); f != nil {
				if err := v.BindPFlag(s.key, f); err != nil {
					return nil, errors.Wrap(errors.ErrCodeInternal, err, "bind flag --%s", s.flag)
				}
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "decode configuration")
	}
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadEnvFile reads .env (or $MERMAID_ENV_FILE) without overriding variables
// that are already set. A missing default file is not an error.
func loadEnvFile() error {
	explicit := os.Getenv(EnvFileVar)
	path := cmp.Or(explicit, ".env")
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) && explicit == "" {
			return nil
		}
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "env file %s", path)
	}
	if err := godotenv.Load(path); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "load env file %s", path)
	}
	return nil
}

func (c *Config) normalize() {
	c.Input = strings.TrimSpace(c.Input)
	c.OutputDir = strings.TrimSpace(c.OutputDir)
	c.Theme = strings.TrimSpace(c.Theme)
	c.SecurityLevel = strings.ToLower(strings.TrimSpace(c.SecurityLevel))
	c.Fonts = strings.ToLower(strings.TrimSpace(c.Fonts))
	c.Background = strings.TrimSpace(c.Background)
}

// Validate checks every setting. Failures carry INVALID_CONFIG.
func (c *Config) Validate() error {
	err := validation.ValidateStruct(c,
		validation.Field(&c.Input, validation.Required, validation.By(validPath)),
		validation.Field(&c.OutputDir, validation.Required, validation.By(validPath)),
		validation.Field(&c.Theme, validation.Required),
		validation.Field(&c.SecurityLevel, validation.In(
			string(render.SecurityStrict), string(render.SecurityLoose),
			string(render.SecurityAntiscript), string(render.SecuritySandbox))),
		validation.Field(&c.Background, validation.By(validColor)),
		validation.Field(&c.Fonts, validation.In(string(fonts.StrategySystem), string(fonts.StrategyEmbedded))),
		validation.Field(&c.Scale, validation.Required, validation.Min(0.1), validation.Max(10.0)),
		validation.Field(&c.Width, validation.Min(0), validation.Max(raster.MaxDimension)),
		validation.Field(&c.Height, validation.Min(0), validation.Max(raster.MaxDimension)),
		validation.Field(&c.Workers, validation.Required, validation.Min(1), validation.Max(64)),
	)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "invalid configuration")
	}
	return nil
}

func validPath(value any) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	if err := errors.ValidatePath(s); err != nil {
		return validation.NewError("validation_path", errors.UserMessage(err))
	}
	return nil
}

func validColor(value any) error {
	s, _ := value.(string)
	if _, err := raster.ParseBackground(s); err != nil {
		return validation.NewError("validation_color", "must be an SVG color or \"transparent\"")
	}
	return nil
}

// RenderOptions resolves the theme and returns renderer settings.
func (c *Config) RenderOptions() (render.Options, error) {
	theme, err := render.LoadTheme(c.Theme)
	if err != nil {
		return render.Options{}, err
	}
	level, err := render.ParseSecurityLevel(c.SecurityLevel)
	if err != nil {
		return render.Options{}, err
	}
	strategy, err := fonts.ParseStrategy(c.Fonts)
	if err != nil {
		return render.Options{}, err
	}
	return render.Options{
		Theme:      theme,
		FontFamily: c.FontFamily,
		Security:   level,
		Fonts:      fonts.NewLoader(strategy),
	}, nil
}

// RasterOptions returns rasterizer settings.
func (c *Config) RasterOptions() (raster.Options, error) {
	bg, err := raster.ParseBackground(c.Background)
	if err != nil {
		return raster.Options{}, err
	}
	strategy, err := fonts.ParseStrategy(c.Fonts)
	if err != nil {
		return raster.Options{}, err
	}
	return raster.Options{
		Background: bg,
		Fonts:      fonts.NewLoader(strategy),
		Scale:      c.Scale,
		Width:      c.Width,
		Height:     c.Height,
	}, nil
}

// BatchOptions returns batch driver settings.
func (c *Config) BatchOptions() batch.Options {
	return batch.Options{
		Pattern:       c.Input,
		OutputDir:     c.OutputDir,
		Workers:       c.Workers,
		FailOnError:   c.FailOnError,
		IncludeHidden: c.IncludeHidden,
	}
}
