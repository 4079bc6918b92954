// Package fonts resolves CSS font-family lists to TrueType fonts for the
// rasterizer.
//
// With [StrategySystem] each family is looked up among the host's fonts
// (via go-findfont) from left to right; the embedded Go Regular font is the
// last resort, so text always renders even on a bare container. With
// [StrategyEmbedded] only the embedded font is used, which makes output
// identical across machines.
package fonts

import (
	"os"
	"strings"
	"sync"

	"github.com/flopp/go-findfont"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/matzehuels/mermaidpng/pkg/errors"
)

// Strategy selects where fonts come from.
type Strategy string

// Font strategies.
const (
	StrategySystem   Strategy = "system"
	StrategyEmbedded Strategy = "embedded"
)

// ParseStrategy validates a strategy name. Empty selects StrategySystem.
func ParseStrategy(s string) (Strategy, error) {
	switch st := Strategy(strings.ToLower(strings.TrimSpace(s))); st {
	case "":
		return StrategySystem, nil
	case StrategySystem, StrategyEmbedded:
		return st, nil
	}
	return "", errors.New(errors.ErrCodeInvalidConfig, "invalid font strategy %q (use system or embedded)", s)
}

// genericFamilies maps CSS generic names to common font file names.
var genericFamilies = map[string][]string{
	"sans-serif": {"DejaVuSans.ttf", "Arial.ttf", "LiberationSans-Regular.ttf", "Helvetica.ttf", "NotoSans-Regular.ttf"},
	"serif":      {"DejaVuSerif.ttf", "Times New Roman.ttf", "LiberationSerif-Regular.ttf", "NotoSerif-Regular.ttf"},
	"monospace":  {"DejaVuSansMono.ttf", "Courier New.ttf", "LiberationMono-Regular.ttf", "NotoSansMono-Regular.ttf"},
}

var (
	embeddedOnce sync.Once
	embedded     *truetype.Font
)

// Embedded returns the Go Regular font compiled into the binary.
func Embedded() *truetype.Font {
	embeddedOnce.Do(func() {
		f, err := truetype.Parse(goregular.TTF)
		if err != nil {
			panic("fonts: embedded Go font is invalid: " + err.Error())
		}
		embedded = f
	})
	return embedded
}

// Loader resolves and caches fonts. It is safe for concurrent use.
type Loader struct {
	strategy Strategy
	find     func(name string) (string, error)

	mu       sync.Mutex
	families map[string]*truetype.Font // family list -> font
	names    map[string]*truetype.Font // single family -> font, nil when missing
}

// NewLoader creates a Loader for the given strategy.
func NewLoader(strategy Strategy) *Loader {
	if strategy == "" {
		strategy = StrategySystem
	}
	return &Loader{
		strategy: strategy,
		find:     findfont.Find,
		families: map[string]*truetype.Font{},
		names:    map[string]*truetype.Font{},
	}
}

// Strategy reports the loader's strategy.
func (l *Loader) Strategy() Strategy { return l.strategy }

// Font returns the first available font of a CSS family list such as
// "trebuchet ms, verdana, arial, sans-serif". It never returns nil.
func (l *Loader) Font(families string) *truetype.Font {
	if l.strategy == StrategyEmbedded {
		return Embedded()
	}

	key := strings.ToLower(strings.TrimSpace(families))
	l.mu.Lock()
	defer l.mu.Unlock()
	if f, ok := l.families[key]; ok {
		return f
	}

	f := Embedded()
	for _, family := range splitFamilies(key) {
		if found := l.lookup(family); found != nil {
			f = found
			break
		}
	}
	l.families[key] = f
	return f
}

// Face returns a face of the resolved font at size (in pixels at 72 DPI).
// Faces are not safe for concurrent use; callers get a fresh one each time.
func (l *Loader) Face(families string, size float64) font.Face {
	if size <= 0 {
		size = 14
	}
	return truetype.NewFace(l.Font(families), &truetype.Options{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingNone,
	})
}

// lookup finds one family on the host. Results, including misses, are
// cached. Callers hold l.mu.
func (l *Loader) lookup(family string) *truetype.Font {
	if f, ok := l.names[family]; ok {
		return f
	}

	var f *truetype.Font
	for _, candidate := range candidates(family) {
		path, err := l.find(candidate)
		if err != nil {
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		// Collections (.ttc) and CFF-flavored OpenType fail here; keep looking.
		parsed, err := truetype.Parse(data)
		if err != nil {
			continue
		}
		f = parsed
		break
	}
	l.names[family] = f
	return f
}

// candidates lists file names to try for a family.
func candidates(family string) []string {
	if generic, ok := genericFamilies[family]; ok {
		return generic
	}
	compact := strings.ReplaceAll(family, " ", "")
	out := []string{family + ".ttf", compact + ".ttf"}
	if dashed := strings.ReplaceAll(family, " ", "-"); dashed != family {
		out = append(out, dashed+".ttf")
	}
	return out
}

// splitFamilies splits a CSS family list and strips quotes.
func splitFamilies(list string) []string {
	var out []string
	for _, part := range strings.Split(list, ",") {
		part = strings.Trim(strings.TrimSpace(part), `"'`)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
