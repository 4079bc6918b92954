package raster

import (
	"bytes"
	"encoding/xml"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/fogleman/gg"
	"github.com/srwiley/oksvg"

	"github.com/matzehuels/mermaidpng/pkg/fonts"
)

// textStyle holds the inheritable presentation attributes used for text.
type textStyle struct {
	fill   string
	family string
	size   float64
	anchor string
}

func (s textStyle) apply(key, value string) textStyle {
	value = strings.TrimSpace(value)
	if value == "" || value == "inherit" {
		return s
	}
	switch key {
	case "fill":
		s.fill = value
	case "font-family":
		s.family = value
	case "font-size":
		if size, ok := parseLength(value); ok && size > 0 {
			s.size = size
		}
	case "text-anchor":
		s.anchor = value
	}
	return s
}

// with returns s updated by an element's attributes and its style="" list.
func (s textStyle) with(attrs []xml.Attr) textStyle {
	for _, a := range attrs {
		if a.Name.Local == "style" {
			for _, decl := range strings.Split(a.Value, ";") {
				if k, v, ok := strings.Cut(decl, ":"); ok {
					s = s.apply(strings.TrimSpace(k), v)
				}
			}
			continue
		}
		s = s.apply(a.Name.Local, a.Value)
	}
	return s
}

type frame struct {
	m     gg.Matrix
	style textStyle
	skip  bool
}

type pendingText struct {
	frame
	x, y float64
	buf  strings.Builder
}

// hiddenElements never contribute visible text.
var hiddenElements = map[string]bool{
	"defs": true, "clipPath": true, "mask": true, "symbol": true,
	"marker": true, "pattern": true, "title": true, "desc": true,
	"style": true, "script": true, "metadata": true,
}

// drawText draws every <text> element of svg onto dc. base maps user
// space of the root element to device pixels.
func drawText(dc *gg.Context, svg []byte, base gg.Matrix, loader *fonts.Loader) error {
	dec := xml.NewDecoder(bytes.NewReader(svg))
	dec.Strict = false
	dec.Entity = xml.HTMLEntity

	stack := []frame{{
		m:     base,
		style: textStyle{fill: "black", size: 16, anchor: "start"},
	}}
	var text *pendingText

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			parent := stack[len(stack)-1]
			f := frame{
				m:     parent.m,
				style: parent.style.with(t.Attr),
				skip:  parent.skip || hiddenElements[t.Name.Local],
			}
			if tr := attr(t.Attr, "transform"); tr != "" {
				f.m = parseTransform(tr).Multiply(parent.m)
			}
			if t.Name.Local == "text" && !f.skip {
				text = &pendingText{frame: f}
				text.x, _ = parseCoord(attr(t.Attr, "x"))
				text.y, _ = parseCoord(attr(t.Attr, "y"))
			}
			stack = append(stack, f)

		case xml.EndElement:
			if t.Name.Local == "text" && text != nil {
				drawOne(dc, text, loader)
				text = nil
			}
			if len(stack) > 1 {
				stack = stack[:len(stack)-1]
			}

		case xml.CharData:
			if text != nil {
				text.buf.Write(t)
			}
		}
	}
}

func drawOne(dc *gg.Context, t *pendingText, loader *fonts.Loader) {
	s := strings.Join(strings.Fields(t.buf.String()), " ")
	if s == "" {
		return
	}
	fill, err := oksvg.ParseSVGColor(t.style.fill)
	if err != nil || fill == nil {
		return
	}

	// Glyphs are scaled uniformly by the geometric mean of the axes.
	scale := math.Sqrt(math.Abs(t.m.XX*t.m.YY - t.m.XY*t.m.YX))
	size := t.style.size * scale
	if size < 1 {
		return
	}

	face := loader.Face(t.style.family, size)
	defer face.Close()
	dc.SetFontFace(face)
	dc.SetColor(fill)

	x, y := t.m.TransformPoint(t.x, t.y)
	var ax float64
	switch t.style.anchor {
	case "middle":
		ax = 0.5
	case "end":
		ax = 1
	}
	dc.DrawStringAnchored(s, x, y, ax, 0)
}

func attr(attrs []xml.Attr, name string) string {
	for _, a := range attrs {
		if a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}

// parseCoord reads the first value of a coordinate list such as "10 20".
func parseCoord(s string) (float64, bool) {
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ' ' })
	if len(fields) == 0 {
		return 0, false
	}
	return parseLength(fields[0])
}

func parseLength(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	for _, unit := range []string{"px", "pt"} {
		if v, ok := strings.CutSuffix(s, unit); ok {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return 0, false
			}
			if unit == "pt" {
				f *= 4.0 / 3.0
			}
			return f, true
		}
	}
	f, err := strconv.ParseFloat(s, 64)
	return f, err == nil
}
