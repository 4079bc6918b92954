package mermaid

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// scanner walks a single statement.
type scanner struct {
	s    string
	pos  int
	line int
}

func newScanner(s string, lineNo int) *scanner {
	return &scanner{s: s, line: lineNo}
}

func (sc *scanner) eof() bool { return sc.pos >= len(sc.s) }

func (sc *scanner) rest() string { return sc.s[sc.pos:] }

func (sc *scanner) peek() byte {
	if sc.eof() {
		return 0
	}
	return sc.s[sc.pos]
}

func (sc *scanner) skipSpace() {
	for !sc.eof() && (sc.s[sc.pos] == ' ' || sc.s[sc.pos] == '\t') {
		sc.pos++
	}
}

func (sc *scanner) errorf(format string, args ...any) error {
	return syntaxErr(sc.line, format, args...)
}

func isIdentRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// ident scans a node identifier. A '-' or '.' joins identifier parts only
// when followed by another identifier character, so "a-b-->c" yields "a-b".
func (sc *scanner) ident() string {
	start := sc.pos
	for !sc.eof() {
		r, size := utf8.DecodeRuneInString(sc.rest())
		if isIdentRune(r) {
			sc.pos += size
			continue
		}
		if (r == '-' || r == '.') && sc.pos > start {
			next, _ := utf8.DecodeRuneInString(sc.s[sc.pos+1:])
			if sc.pos+1 < len(sc.s) && isIdentRune(next) {
				sc.pos++
				continue
			}
		}
		break
	}
	return sc.s[start:sc.pos]
}

// stateRef scans a state identifier or the [*] pseudo-state.
func (sc *scanner) stateRef() string {
	if strings.HasPrefix(sc.rest(), "[*]") {
		sc.pos += 3
		return "[*]"
	}
	return sc.ident()
}

// shapeDelims lists node shape delimiters, longest openers first.
var shapeDelims = []struct {
	open, close string
	shape       Shape
}{
	{"(((", ")))", ShapeDoubleCircle},
	{"((", "))", ShapeCircle},
	{"([", "])", ShapeStadium},
	{"[[", "]]", ShapeSubroutine},
	{"[(", ")]", ShapeCylinder},
	{"{{", "}}", ShapeHexagon},
	{"[/", "/]", ShapeParallelogram},
	{"[\\", "\\]", ShapeParallelogramAlt},
	{"[", "]", ShapeRect},
	{"(", ")", ShapeRound},
	{"{", "}", ShapeRhombus},
	{">", "]", ShapeAsymmetric},
}

// shape scans an optional shape with its label directly after a node ID.
func (sc *scanner) shape() (Shape, string, bool, error) {
	rest := sc.rest()
	for _, d := range shapeDelims {
		if !strings.HasPrefix(rest, d.open) {
			continue
		}
		body := rest[len(d.open):]
		shape, closeTok := d.shape, d.close

		var label string
		var end int
		if strings.HasPrefix(strings.TrimLeft(body, " "), `"`) {
			lead := len(body) - len(strings.TrimLeft(body, " "))
			q := strings.IndexByte(body[lead+1:], '"')
			if q < 0 {
				return 0, "", false, sc.errorf("unterminated string in node label")
			}
			label = body[lead+1 : lead+1+q]
			after := body[lead+1+q+1:]
			trimmed := strings.TrimLeft(after, " ")
			shape, closeTok = closingShape(d.shape, trimmed, closeTok)
			if !strings.HasPrefix(trimmed, closeTok) {
				return 0, "", false, sc.errorf("expected %q after node label", closeTok)
			}
			end = len(d.open) + (len(body) - len(trimmed)) + len(closeTok)
		} else {
			idx := -1
			switch d.shape {
			case ShapeParallelogram, ShapeParallelogramAlt:
				// [/x/], [/x\], [\x\] and [\x/] share openers.
				idx, shape, closeTok = slantedClose(d.shape, body)
			default:
				idx = strings.Index(body, closeTok)
			}
			if idx < 0 {
				return 0, "", false, sc.errorf("missing %q to close node shape", d.close)
			}
			label = body[:idx]
			end = len(d.open) + idx + len(closeTok)
		}
		sc.pos += end
		return shape, strings.TrimSpace(label), true, nil
	}
	return 0, "", false, nil
}

// closingShape resolves slanted shapes whose closer decides the variant.
func closingShape(open Shape, after, closeTok string) (Shape, string) {
	switch open {
	case ShapeParallelogram:
		if strings.HasPrefix(after, "\\]") {
			return ShapeTrapezoid, "\\]"
		}
	case ShapeParallelogramAlt:
		if strings.HasPrefix(after, "/]") {
			return ShapeTrapezoidAlt, "/]"
		}
	}
	return open, closeTok
}

func slantedClose(open Shape, body string) (int, Shape, string) {
	fwd, back := strings.Index(body, "/]"), strings.Index(body, "\\]")
	switch {
	case fwd < 0 && back < 0:
		return -1, open, ""
	case back < 0 || (fwd >= 0 && fwd < back):
		if open == ShapeParallelogram {
			return fwd, ShapeParallelogram, "/]"
		}
		return fwd, ShapeTrapezoidAlt, "/]"
	default:
		if open == ShapeParallelogram {
			return back, ShapeTrapezoid, "\\]"
		}
		return back, ShapeParallelogramAlt, "\\]"
	}
}

// link is a scanned edge operator.
type link struct {
	stroke Stroke
	head   Arrow
	tail   Arrow
	length int
	label  string
}

func arrowFor(c byte) Arrow {
	switch c {
	case '>':
		return ArrowPoint
	case 'x':
		return ArrowCross
	case 'o':
		return ArrowCircle
	}
	return ArrowNone
}

// endMarker reports the arrow at s[i], where 'x' and 'o' only count when
// they are not the start of an identifier.
func endMarker(s string, i int) Arrow {
	if i >= len(s) {
		return ArrowNone
	}
	switch s[i] {
	case '>':
		return ArrowPoint
	case 'x', 'o':
		if i+1 >= len(s) || s[i+1] == ' ' || s[i+1] == '\t' || s[i+1] == '|' {
			return arrowFor(s[i])
		}
	}
	return ArrowNone
}

func countRun(s string, i int, c byte) int {
	n := 0
	for i+n < len(s) && s[i+n] == c {
		n++
	}
	return n
}

// link scans an edge operator and an optional |label|.
func (sc *scanner) link() (*link, bool, error) {
	s, i := sc.s, sc.pos
	lk := &link{stroke: StrokeNormal, length: 1}

	if i < len(s) && (s[i] == '<' || s[i] == 'x' || s[i] == 'o') && i+1 < len(s) && (s[i+1] == '-' || s[i+1] == '=') {
		lk.tail = arrowFor(s[i])
		if s[i] == '<' {
			lk.tail = ArrowPoint
		}
		i++
	}
	if i >= len(s) {
		return nil, false, nil
	}

	switch s[i] {
	case '~':
		n := countRun(s, i, '~')
		if n < 3 {
			return nil, false, nil
		}
		lk.stroke = StrokeInvisible
		lk.length = n - 2
		i += n
	case '-':
		n := countRun(s, i, '-')
		j := i + n
		switch {
		case j < len(s) && s[j] == '.':
			// Dotted: -.-  -.->  -..->  or  -. label .->
			lk.stroke = StrokeDotted
			dots := countRun(s, j, '.')
			k := j + dots
			if k < len(s) && s[k] == '-' {
				lk.length = dots
				k++
				lk.head = endMarker(s, k)
				if lk.head != ArrowNone {
					k++
				}
				i = k
				break
			}
			end := strings.Index(s[k:], ".-")
			if end < 0 {
				return nil, false, sc.errorf("unterminated dotted link label")
			}
			lk.label = strings.TrimSpace(s[k : k+end])
			k += end
			k += countRun(s, k, '.')
			k += countRun(s, k, '-')
			lk.head = endMarker(s, k)
			if lk.head != ArrowNone {
				k++
			}
			i = k
		case n >= 2 && endMarker(s, j) != ArrowNone:
			lk.head = endMarker(s, j)
			lk.length = n - 1
			i = j + 1
		case n >= 3:
			lk.length = n - 2
			i = j
		case n == 2:
			k, err := sc.inlineLabel(lk, j, "--", '-')
			if err != nil {
				return nil, false, err
			}
			i = k
		default:
			return nil, false, nil
		}
	case '=':
		lk.stroke = StrokeThick
		n := countRun(s, i, '=')
		j := i + n
		switch {
		case n >= 2 && endMarker(s, j) != ArrowNone:
			lk.head = endMarker(s, j)
			lk.length = n - 1
			i = j + 1
		case n >= 3:
			lk.length = n - 2
			i = j
		case n == 2:
			k, err := sc.inlineLabel(lk, j, "==", '=')
			if err != nil {
				return nil, false, err
			}
			i = k
		default:
			return nil, false, nil
		}
	default:
		return nil, false, nil
	}

	sc.pos = i
	sc.skipSpace()
	if sc.peek() == '|' {
		end := strings.IndexByte(sc.s[sc.pos+1:], '|')
		if end < 0 {
			return nil, false, sc.errorf("unterminated link label")
		}
		lk.label = strings.TrimSpace(sc.s[sc.pos+1 : sc.pos+1+end])
		sc.pos += end + 2
	}
	return lk, true, nil
}

// inlineLabel handles "-- text -->" and "== text ==>" starting after the
// opening run at j. It returns the index after the closing operator.
func (sc *scanner) inlineLabel(lk *link, j int, closer string, c byte) (int, error) {
	s := sc.s
	end := strings.Index(s[j:], closer)
	if end < 0 {
		return 0, sc.errorf("unterminated link label")
	}
	lk.label = strings.TrimSpace(s[j : j+end])
	if lk.label == "" {
		return 0, sc.errorf("empty link label")
	}
	k := j + end
	n := countRun(s, k, c)
	k += n
	lk.head = endMarker(s, k)
	if lk.head != ArrowNone {
		k++
		lk.length = n - 1
	} else if n >= 3 {
		lk.length = n - 2
	} else {
		return 0, sc.errorf("incomplete link after label %q", lk.label)
	}
	if lk.length < 1 {
		lk.length = 1
	}
	return k, nil
}
