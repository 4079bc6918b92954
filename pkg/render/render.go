package render

import (
	"cmp"
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/matzehuels/mermaidpng/pkg/errors"
	"github.com/matzehuels/mermaidpng/pkg/fonts"
	"github.com/matzehuels/mermaidpng/pkg/mermaid"
)

// DefaultFontFamily is Mermaid's default font stack.
const DefaultFontFamily = "trebuchet ms, verdana, arial, sans-serif"

// Options configures a [Renderer].
type Options struct {
	// Theme is the base palette. The zero value selects the default theme.
	Theme Theme
	// FontFamily is a CSS font list. Diagram config may override it.
	FontFamily string
	// Security defaults to [SecurityStrict].
	Security SecurityLevel
	// Fonts measures text for diagrams drawn without the engine.
	// nil uses the embedded font.
	Fonts *fonts.Loader
}

// SVG is the result of rendering one diagram.
type SVG struct {
	// ID is the unique diagram ID used for this call.
	ID string
	// Data is the SVG document.
	Data []byte
	// Width and Height are the intrinsic size in pixels.
	Width, Height float64
	// Warnings lists statements the parser accepted but ignored.
	Warnings []string
}

// Renderer turns Mermaid source into SVG. It is safe for concurrent use
// when its Engine is.
type Renderer struct {
	engine Engine
	opts   Options
}

// New creates a Renderer that lays diagrams out with engine.
func New(engine Engine, opts Options) *Renderer {
	if opts.Theme.Name == "" {
		opts.Theme = builtinThemes[DefaultThemeName]
	}
	if opts.Security == "" {
		opts.Security = SecurityStrict
	}
	return &Renderer{engine: engine, opts: opts}
}

// Render parses source and produces SVG. name is used only to derive the
// diagram ID; it need not exist on disk.
//
// Errors carry SYNTAX_ERROR or UNSUPPORTED_DIAGRAM for bad input and
// RENDER_FAILED when layout fails. Sequence diagrams are drawn directly
// and never reach the engine.
func (r *Renderer) Render(ctx context.Context, name, source string) (*SVG, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	d, err := mermaid.Parse(source)
	if err != nil {
		return nil, err
	}

	theme, warnings := r.theme(d.Config)
	font := cmp.Or(d.Config.FontFamily, d.Config.ThemeVariables["fontFamily"],
		r.opts.FontFamily, theme.FontFamily, DefaultFontFamily)

	id := NewDiagramID(name)
	var out []byte
	if d.Kind == mermaid.KindSequence {
		out = ToSequenceSVG(d, SequenceOptions{
			Theme:      theme,
			FontFamily: font,
			Security:   r.opts.Security,
			Fonts:      r.opts.Fonts,
		})
	} else {
		dot := ToDOT(d, DOTOptions{
			ID:         id,
			Theme:      theme,
			FontFamily: font,
			Security:   r.opts.Security,
		})
		out, err = r.engine.RenderSVG(ctx, []byte(dot))
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, errors.Wrap(errors.ErrCodeRender, err, "layout failed")
		}
	}

	out = normalizeViewBox(out, id)
	w, h := svgSize(out)
	return &SVG{
		ID:       id,
		Data:     out,
		Width:    w,
		Height:   h,
		Warnings: append(d.Warnings, warnings...),
	}, nil
}

// theme resolves the palette for one diagram. Per-diagram theme names are
// restricted to built-ins; a diagram cannot make the renderer read files.
func (r *Renderer) theme(cfg mermaid.Config) (Theme, []string) {
	t := r.opts.Theme
	var warnings []string
	if cfg.Theme != "" {
		if bt, ok := BuiltinTheme(cfg.Theme); ok {
			t = bt
		} else {
			warnings = append(warnings, fmt.Sprintf("unknown theme %q ignored", cfg.Theme))
		}
	}
	return t.WithVariables(cfg.ThemeVariables), warnings
}

var idSeq atomic.Uint64

var idUnsafe = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

// NewDiagramID returns a process-unique ID derived from the input name,
// the current time and a counter.
func NewDiagramID(name string) string {
	base := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	base = strings.Trim(idUnsafe.ReplaceAllString(base, "-"), "-")
	if base == "" || base == "." {
		base = "diagram"
	}
	return fmt.Sprintf("mermaid-%s-%d-%d", base, time.Now().UnixMilli(), idSeq.Add(1))
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.\-]+)\s+([0-9.\-]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox rewrites the root element so the document has pixel
// dimensions equal to its viewBox and carries the diagram ID.
func normalizeViewBox(svg []byte, id string) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	tag := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" xmlns:xlink="http://www.w3.org/1999/xlink" id="%s" viewBox="%s %s %.2f %.2f" width="%.0f" height="%.0f">`,
		id, match[1], match[2], w, h, w, h)

	loc := svgTagRe.FindIndex(svg)
	if loc == nil {
		return svg
	}
	out := make([]byte, 0, len(svg)+len(tag))
	out = append(out, svg[:loc[0]]...)
	out = append(out, tag...)
	return append(out, svg[loc[1]:]...)
}

func svgSize(svg []byte) (float64, float64) {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return 0, 0
	}
	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	return w, h
}
