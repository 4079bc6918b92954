package config

import (
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/pflag"

	"github.com/matzehuels/mermaidpng/pkg/errors"
	"github.com/matzehuels/mermaidpng/pkg/fonts"
	"github.com/matzehuels/mermaidpng/pkg/render"
)

// isolate clears MERMAID_* variables and runs the test in an empty
// directory so no stray .env file is picked up.
func isolate(t *testing.T) string {
	t.Helper()
	for _, kv := range os.Environ() {
		if k, _, _ := strings.Cut(kv, "="); strings.HasPrefix(k, EnvPrefix+"_") {
			t.Setenv(k, "")
			os.Unsetenv(k)
		}
	}
	dir := t.TempDir()
	t.Chdir(dir)
	return dir
}

// unsetAfter removes key now and again when the test ends, undoing what a
// loaded .env file sets.
func unsetAfter(t *testing.T, key string) {
	t.Helper()
	t.Setenv(key, "")
	os.Unsetenv(key)
}

func newFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	AddFlags(fs)
	if err := fs.Parse(args); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	return fs
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)

	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if *cfg != *Default() {
		t.Errorf("Load() = %+v, want defaults %+v", cfg, Default())
	}
	if cfg.Input != "diagrams/**/*.mmd" || cfg.OutputDir != "diagrams" || cfg.Theme != "default" {
		t.Errorf("documented defaults changed: %+v", cfg)
	}
}

func TestLoad_Env(t *testing.T) {
	isolate(t)
	t.Setenv("MERMAID_INPUT", "docs/*.mmd")
	t.Setenv("MERMAID_OUTPUT_DIR", "build/img")
	t.Setenv("MERMAID_THEME", "dark")
	t.Setenv("MERMAID_SECURITY_LEVEL", "LOOSE")
	t.Setenv("MERMAID_SCALE", "2.5")
	t.Setenv("MERMAID_WIDTH", "800")
	t.Setenv("MERMAID_WORKERS", "4")
	t.Setenv("MERMAID_FAIL_ON_ERROR", "true")
	t.Setenv("MERMAID_FONTS", "Embedded")

	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	want := Default()
	want.Input = "docs/*.mmd"
	want.OutputDir = "build/img"
	want.Theme = "dark"
	want.SecurityLevel = "loose"
	want.Scale = 2.5
	want.Width = 800
	want.Workers = 4
	want.FailOnError = true
	want.Fonts = "embedded"
	if *cfg != *want {
		t.Errorf("Load() = %+v\nwant %+v", cfg, want)
	}
}

func TestLoad_FlagsOverrideEnv(t *testing.T) {
	isolate(t)
	t.Setenv("MERMAID_OUTPUT_DIR", "from-env")
	t.Setenv("MERMAID_THEME", "forest")

	cfg, err := Load(newFlags(t, "-o", "from-flag", "--workers", "3"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.OutputDir != "from-flag" {
		t.Errorf("OutputDir = %q, want flag value", cfg.OutputDir)
	}
	if cfg.Theme != "forest" {
		t.Errorf("Theme = %q, unset flag must not mask env", cfg.Theme)
	}
	if cfg.Workers != 3 {
		t.Errorf("Workers = %d, want 3", cfg.Workers)
	}
}

func TestLoad_DotEnv(t *testing.T) {
	dir := isolate(t)
	env := "MERMAID_OUTPUT_DIR=dotenv-out\nMERMAID_THEME=neutral\n"
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte(env), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("MERMAID_THEME", "dark")
	unsetAfter(t, "MERMAID_OUTPUT_DIR")

	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.OutputDir != "dotenv-out" {
		t.Errorf("OutputDir = %q, want value from .env", cfg.OutputDir)
	}
	if cfg.Theme != "dark" {
		t.Errorf("Theme = %q, process env must win over .env", cfg.Theme)
	}
}

func TestLoad_EnvFileVar(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "ci.env")
	if err := os.WriteFile(path, []byte("MERMAID_BACKGROUND=transparent\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv(EnvFileVar, path)
	unsetAfter(t, "MERMAID_BACKGROUND")

	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Background != "transparent" {
		t.Errorf("Background = %q", cfg.Background)
	}

	t.Setenv(EnvFileVar, filepath.Join(dir, "missing.env"))
	if _, err := Load(nil); !errors.Is(err, errors.ErrCodeInvalidConfig) {
		t.Errorf("missing explicit env file: err = %v, want INVALID_CONFIG", err)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"workers", map[string]string{"MERMAID_WORKERS": "0"}, "workers"},
		{"security", map[string]string{"MERMAID_SECURITY_LEVEL": "paranoid"}, "security_level"},
		{"fonts", map[string]string{"MERMAID_FONTS": "web"}, "fonts"},
		{"scale", map[string]string{"MERMAID_SCALE": "0"}, "scale"},
		{"width", map[string]string{"MERMAID_WIDTH": "-1"}, "width"},
		{"background", map[string]string{"MERMAID_BACKGROUND": "not-a-color"}, "background"},
		{"output path", map[string]string{"MERMAID_OUTPUT_DIR": "out\tdir"}, "output_dir"},
		{"workers type", map[string]string{"MERMAID_WORKERS": "many"}, "workers"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load(nil)
			if !errors.Is(err, errors.ErrCodeInvalidConfig) {
				t.Fatalf("err = %v, want INVALID_CONFIG", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestAddFlags(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	AddFlags(fs)
	for _, s := range flagSpecs {
		f := fs.Lookup(s.flag)
		if f == nil {
			t.Errorf("flag --%s not defined", s.flag)
			continue
		}
		if s.short != "" && f.Shorthand != s.short {
			t.Errorf("--%s shorthand = %q, want %q", s.flag, f.Shorthand, s.short)
		}
	}
	if got := fs.Lookup("output-dir").DefValue; got != "diagrams" {
		t.Errorf("--output-dir default = %q", got)
	}
}

func TestResolvedOptions(t *testing.T) {
	cfg := Default()
	cfg.Theme = "forest"
	cfg.SecurityLevel = "sandbox"
	cfg.Background = "transparent"
	cfg.Fonts = "embedded"
	cfg.Scale = 2
	cfg.Workers = 3

	ro, err := cfg.RenderOptions()
	if err != nil {
		t.Fatalf("RenderOptions: %v", err)
	}
	if ro.Theme.Name != "forest" || ro.Security != render.SecuritySandbox || ro.Fonts.Strategy() != fonts.StrategyEmbedded {
		t.Errorf("RenderOptions = %+v", ro)
	}

	xo, err := cfg.RasterOptions()
	if err != nil {
		t.Fatalf("RasterOptions: %v", err)
	}
	if xo.Background != color.Transparent || xo.Scale != 2 || xo.Fonts.Strategy() != fonts.StrategyEmbedded {
		t.Errorf("RasterOptions = %+v", xo)
	}

	bo := cfg.BatchOptions()
	if bo.Pattern != cfg.Input || bo.OutputDir != cfg.OutputDir || bo.Workers != 3 {
		t.Errorf("BatchOptions = %+v", bo)
	}

	cfg.Theme = "missing"
	if _, err := cfg.RenderOptions(); !errors.Is(err, errors.ErrCodeInvalidTheme) {
		t.Errorf("unknown theme: err = %v, want INVALID_THEME", err)
	}
}
