// Package raster converts SVG documents to PNG in pure Go.
//
// Shapes are drawn by oksvg/rasterx. oksvg does not render <text>, so a
// second pass walks the document and draws text with gg using TrueType
// faces from [fonts.Loader], honoring nested transforms, text-anchor,
// font-size and fill. The canvas is filled with the background color first.
//
//	r := raster.New(raster.Options{Scale: 2})
//	png, err := r.Rasterize(ctx, svg)
package raster

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"
	"regexp"
	"strings"

	"github.com/fogleman/gg"
	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"

	"github.com/matzehuels/mermaidpng/pkg/errors"
	"github.com/matzehuels/mermaidpng/pkg/fonts"
)

// MaxDimension bounds the output width and height in pixels.
const MaxDimension = 16384

// Options configures a [Rasterizer].
type Options struct {
	// Background fills the canvas before drawing. nil means opaque white;
	// use color.Transparent for a transparent PNG.
	Background color.Color
	// Fonts resolves font families for text. nil uses a system loader.
	Fonts *fonts.Loader
	// Scale multiplies the output size. 0 means 1.
	Scale float64
	// Width and Height force the output size before scaling. When only one
	// is set the other follows the aspect ratio; 0 keeps the intrinsic size.
	Width, Height int
}

// Rasterizer renders SVG to PNG. It is safe for concurrent use.
type Rasterizer struct {
	bg            color.Color
	fonts         *fonts.Loader
	scale         float64
	width, height int
}

// New creates a Rasterizer.
func New(opts Options) *Rasterizer {
	r := &Rasterizer{
		bg:     opts.Background,
		fonts:  opts.Fonts,
		scale:  opts.Scale,
		width:  opts.Width,
		height: opts.Height,
	}
	if r.bg == nil {
		r.bg = color.White
	}
	if r.fonts == nil {
		r.fonts = fonts.NewLoader(fonts.StrategySystem)
	}
	if r.scale <= 0 {
		r.scale = 1
	}
	return r
}

// ParseBackground parses a background color: any SVG color (name, #rgb,
// #rrggbb, rgb()) or "transparent". Empty means white.
func ParseBackground(s string) (color.Color, error) {
	switch v := strings.ToLower(strings.TrimSpace(s)); v {
	case "":
		return color.White, nil
	case "transparent", "none":
		return color.Transparent, nil
	}
	c, err := oksvg.ParseSVGColor(strings.TrimSpace(s))
	if err != nil || c == nil {
		return nil, errors.New(errors.ErrCodeInvalidColor, "invalid background color %q", s)
	}
	return c, nil
}

// Rasterize draws svg and returns PNG bytes.
func (r *Rasterizer) Rasterize(ctx context.Context, svg []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	svg = sanitize(svg)
	icon, err := oksvg.ReadIconStream(bytes.NewReader(svg), oksvg.IgnoreErrorMode)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeRasterize, err, "parse SVG")
	}

	w, h, err := r.size(icon.ViewBox.W, icon.ViewBox.H)
	if err != nil {
		return nil, err
	}
	icon.SetTarget(0, 0, float64(w), float64(h))

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(r.bg), image.Point{}, draw.Src)

	scanner := rasterx.NewScannerGV(w, h, img, img.Bounds())
	icon.Draw(rasterx.NewDasher(w, h, scanner), 1)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	dc := gg.NewContextForRGBA(img)
	viewport := gg.Translate(-icon.ViewBox.X, -icon.ViewBox.Y).
		Multiply(gg.Scale(float64(w)/icon.ViewBox.W, float64(h)/icon.ViewBox.H))
	if err := drawText(dc, svg, viewport, r.fonts); err != nil {
		return nil, errors.Wrap(errors.ErrCodeRasterize, err, "draw text")
	}

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, errors.Wrap(errors.ErrCodeRasterize, err, "encode PNG")
	}
	return buf.Bytes(), nil
}

// size computes the pixel dimensions for a viewBox of vw x vh.
func (r *Rasterizer) size(vw, vh float64) (int, int, error) {
	if vw <= 0 || vh <= 0 || math.IsNaN(vw) || math.IsNaN(vh) {
		return 0, 0, errors.New(errors.ErrCodeRasterize, "SVG has no usable size (viewBox %gx%g)", vw, vh)
	}

	w, h := vw, vh
	switch {
	case r.width > 0 && r.height > 0:
		w, h = float64(r.width), float64(r.height)
	case r.width > 0:
		w, h = float64(r.width), float64(r.width)*vh/vw
	case r.height > 0:
		w, h = float64(r.height)*vw/vh, float64(r.height)
	}

	pw := int(math.Ceil(w * r.scale))
	ph := int(math.Ceil(h * r.scale))
	if pw < 1 || ph < 1 {
		return 0, 0, errors.New(errors.ErrCodeRasterize, "output size %dx%d is empty", pw, ph)
	}
	if pw > MaxDimension || ph > MaxDimension {
		return 0, 0, errors.New(errors.ErrCodeRasterize, "output size %dx%d exceeds %d pixels", pw, ph, MaxDimension)
	}
	return pw, ph, nil
}

var (
	tagRe       = regexp.MustCompile(`<[A-Za-z][^<>]*>`)
	paintAttrRe = regexp.MustCompile(`(\s(?:fill|stroke|stop-color|flood-color)\s*=\s*)(["'])\s*transparent\s*(["'])`)
	styleAttrRe = regexp.MustCompile(`(\sstyle\s*=\s*)("[^"]*"|'[^']*')`)
	paintDeclRe = regexp.MustCompile(`(?i)((?:^|[;"'\s])(?:fill|stroke|stop-color|flood-color)\s*:\s*)transparent`)
)

// sanitize rewrites constructs oksvg rejects. Graphviz paints its
// background with fill="transparent", which is not an SVG 1.1 color. Only
// paint attributes and style declarations inside start tags are touched;
// text content is left alone.
func sanitize(svg []byte) []byte {
	return tagRe.ReplaceAllFunc(svg, func(tag []byte) []byte {
		tag = paintAttrRe.ReplaceAll(tag, []byte(`${1}${2}none${3}`))
		return styleAttrRe.ReplaceAllFunc(tag, func(style []byte) []byte {
			return paintDeclRe.ReplaceAll(style, []byte(`${1}none`))
		})
	})
}

// String describes the configuration, for logs.
func (r *Rasterizer) String() string {
	return fmt.Sprintf("scale=%g size=%dx%d fonts=%s", r.scale, r.width, r.height, r.fonts.Strategy())
}
