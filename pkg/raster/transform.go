package raster

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/fogleman/gg"
)

var transformRe = regexp.MustCompile(`(matrix|translate|scale|rotate|skewX|skewY)\s*\(([^)]*)\)`)

// parseTransform parses an SVG transform list. gg matrices compose as
// "a.Multiply(b) applies a, then b"; the rightmost SVG operation applies
// first, so each operation is prepended. Unknown operations are skipped.
func parseTransform(s string) gg.Matrix {
	m := gg.Identity()
	for _, op := range transformRe.FindAllStringSubmatch(s, -1) {
		args := parseNumbers(op[2])
		m = transformOp(op[1], args).Multiply(m)
	}
	return m
}

func transformOp(name string, a []float64) gg.Matrix {
	arg := func(i int, def float64) float64 {
		if i < len(a) {
			return a[i]
		}
		return def
	}

	switch name {
	case "matrix":
		if len(a) != 6 {
			return gg.Identity()
		}
		return gg.Matrix{XX: a[0], YX: a[1], XY: a[2], YY: a[3], X0: a[4], Y0: a[5]}
	case "translate":
		return gg.Translate(arg(0, 0), arg(1, 0))
	case "scale":
		sx := arg(0, 1)
		return gg.Scale(sx, arg(1, sx))
	case "rotate":
		r := gg.Rotate(gg.Radians(arg(0, 0)))
		if len(a) == 3 {
			cx, cy := a[1], a[2]
			return gg.Translate(-cx, -cy).Multiply(r).Multiply(gg.Translate(cx, cy))
		}
		return r
	case "skewX":
		return gg.Shear(math.Tan(gg.Radians(arg(0, 0))), 0)
	case "skewY":
		return gg.Shear(0, math.Tan(gg.Radians(arg(0, 0))))
	}
	return gg.Identity()
}

func parseNumbers(s string) []float64 {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n' || r == '\r'
	})
	out := make([]float64, 0, len(fields))
	for _, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil
		}
		out = append(out, v)
	}
	return out
}
