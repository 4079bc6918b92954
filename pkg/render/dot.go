package render

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/matzehuels/mermaidpng/pkg/mermaid"
)

// DOTOptions configures [ToDOT].
type DOTOptions struct {
	// ID names the graph; it ends up as the SVG title.
	ID         string
	Theme      Theme
	FontFamily string
	Security   SecurityLevel
}

// ToDOT converts a parsed diagram to Graphviz DOT.
//
// Subgraphs become clusters. Edges that end on a subgraph are attached to
// one of its nodes and clipped at the cluster border (compound=true).
func ToDOT(d *mermaid.Diagram, opts DOTOptions) string {
	if opts.Theme.Name == "" {
		opts.Theme = builtinThemes[DefaultThemeName]
	}
	if opts.Security == "" {
		opts.Security = SecurityStrict
	}
	w := &dotWriter{d: d, opts: opts, t: opts.Theme}
	w.write()
	return w.buf.String()
}

type dotWriter struct {
	buf  bytes.Buffer
	d    *mermaid.Diagram
	opts DOTOptions
	t    Theme
}

// attrs is an ordered DOT attribute list.
type attrs []string

func (a *attrs) set(key, value string) {
	prefix := key + "="
	for i, kv := range *a {
		if strings.HasPrefix(kv, prefix) {
			(*a)[i] = prefix + dotQuote(value)
			return
		}
	}
	*a = append(*a, prefix+dotQuote(value))
}

func (a attrs) String() string {
	return "[" + strings.Join(a, ", ") + "]"
}

func num(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func (w *dotWriter) write() {
	t := w.t
	size := t.FontSize

	name := w.opts.ID
	if name == "" {
		name = "G"
	}
	fmt.Fprintf(&w.buf, "digraph %s {\n", dotQuote(name))

	var g attrs
	g.set("rankdir", string(w.d.Direction))
	g.set("bgcolor", "transparent")
	g.set("compound", "true")
	g.set("fontname", w.opts.FontFamily)
	g.set("fontsize", num(size))
	g.set("fontcolor", dotColor(t.TextColor))
	g.set("nodesep", "0.5")
	g.set("ranksep", "0.6")
	g.set("pad", "0.15")
	if w.d.Title != "" {
		g.set("label", cleanLabel(w.d.Title, w.opts.Security))
		g.set("labelloc", "t")
		g.set("fontsize", num(size*1.3))
	}
	fmt.Fprintf(&w.buf, "  graph %s;\n", g)

	var n attrs
	n.set("shape", "box")
	n.set("style", "filled")
	n.set("fontname", w.opts.FontFamily)
	n.set("fontsize", num(size))
	n.set("fontcolor", dotColor(t.PrimaryTextColor))
	n.set("fillcolor", dotColor(t.PrimaryColor))
	n.set("color", dotColor(t.PrimaryBorderColor))
	n.set("margin", "0.2,0.1")
	n.set("penwidth", "1")
	fmt.Fprintf(&w.buf, "  node %s;\n", n)

	var e attrs
	e.set("fontname", w.opts.FontFamily)
	e.set("fontsize", num(size*0.85))
	e.set("fontcolor", dotColor(t.TextColor))
	e.set("color", dotColor(t.LineColor))
	e.set("arrowsize", "0.7")
	e.set("penwidth", "1.2")
	fmt.Fprintf(&w.buf, "  edge %s;\n\n", e)

	w.writeScope("", 1)

	if len(w.d.Edges) > 0 {
		w.buf.WriteString("\n")
	}
	for _, edge := range w.d.Edges {
		w.writeEdge(edge)
	}
	w.buf.WriteString("}\n")
}

func (w *dotWriter) writeScope(parent string, depth int) {
	indent := strings.Repeat("  ", depth)
	for _, sg := range w.d.SubgraphsOf(parent) {
		fmt.Fprintf(&w.buf, "%ssubgraph %s {\n", indent, dotQuote(clusterName(sg.ID)))

		var a attrs
		a.set("label", cleanLabel(sg.Title, w.opts.Security))
		a.set("style", "filled,rounded")
		a.set("fillcolor", dotColor(w.t.ClusterBackground))
		a.set("color", dotColor(w.t.ClusterBorder))
		a.set("fontcolor", dotColor(w.t.TextColor))
		a.set("penwidth", "1")
		if w.d.Kind == mermaid.KindState {
			a.set("labeljust", "l")
		}
		w.applyStyle(&a, w.d.Classes, sg.Classes, sg.Style, false)
		fmt.Fprintf(&w.buf, "%s  graph %s;\n", indent, a)

		if len(w.d.Descendants(sg.ID)) == 0 {
			fmt.Fprintf(&w.buf, "%s  %s [label=\"\", shape=point, style=invis, width=0];\n", indent, dotQuote(placeholderID(sg.ID)))
		}
		w.writeScope(sg.ID, depth+1)
		fmt.Fprintf(&w.buf, "%s}\n", indent)
	}
	for _, node := range w.d.Children(parent) {
		fmt.Fprintf(&w.buf, "%s%s %s;\n", indent, dotQuote(node.ID), w.nodeAttrs(node))
	}
}

func clusterName(id string) string { return "cluster_" + id }

func placeholderID(id string) string { return "__" + id + "__empty" }

func (w *dotWriter) nodeAttrs(node *mermaid.Node) attrs {
	var a attrs
	a.set("label", cleanLabel(node.Label, w.opts.Security))

	line := dotColor(w.t.LineColor)
	horizontal := w.d.Direction == mermaid.DirLR || w.d.Direction == mermaid.DirRL

	switch node.Shape {
	case mermaid.ShapeRound, mermaid.ShapeStadium, mermaid.ShapeState:
		a.set("style", "rounded,filled")
	case mermaid.ShapeSubroutine:
		a.set("peripheries", "2")
	case mermaid.ShapeCylinder:
		a.set("shape", "cylinder")
	case mermaid.ShapeCircle:
		a.set("shape", "circle")
	case mermaid.ShapeDoubleCircle:
		a.set("shape", "doublecircle")
	case mermaid.ShapeRhombus:
		a.set("shape", "diamond")
	case mermaid.ShapeHexagon:
		a.set("shape", "hexagon")
	case mermaid.ShapeParallelogram:
		a.set("shape", "parallelogram")
	case mermaid.ShapeParallelogramAlt:
		a.set("shape", "polygon")
		a.set("sides", "4")
		a.set("skew", "-0.6")
	case mermaid.ShapeTrapezoid:
		a.set("shape", "trapezium")
	case mermaid.ShapeTrapezoidAlt:
		a.set("shape", "invtrapezium")
	case mermaid.ShapeAsymmetric:
		a.set("shape", "cds")
	case mermaid.ShapeStart:
		a.set("label", "")
		a.set("shape", "circle")
		a.set("fixedsize", "true")
		a.set("width", "0.25")
		a.set("fillcolor", line)
		a.set("color", line)
	case mermaid.ShapeEnd:
		a.set("label", "")
		a.set("shape", "doublecircle")
		a.set("fixedsize", "true")
		a.set("width", "0.2")
		a.set("fillcolor", line)
		a.set("color", line)
	case mermaid.ShapeFork, mermaid.ShapeJoin:
		a.set("label", "")
		a.set("fixedsize", "true")
		if horizontal {
			a.set("width", "0.1")
			a.set("height", "1.1")
		} else {
			a.set("width", "1.1")
			a.set("height", "0.1")
		}
		a.set("fillcolor", line)
		a.set("color", line)
	case mermaid.ShapeChoice:
		a.set("label", "")
		a.set("shape", "diamond")
		a.set("fixedsize", "true")
		a.set("width", "0.4")
		a.set("height", "0.4")
	case mermaid.ShapeNote:
		a.set("shape", "note")
		a.set("fillcolor", dotColor(w.t.NoteBackground))
		a.set("color", dotColor(w.t.NoteBorder))
		a.set("fontcolor", dotColor(w.t.NoteTextColor))
	}

	w.applyStyle(&a, w.d.Classes, node.Classes, node.Style, true)

	if node.URL != "" && w.opts.Security.allowURL(node.URL) {
		a.set("URL", node.URL)
		a.set("target", "_blank")
		if node.Tooltip != "" {
			a.set("tooltip", node.Tooltip)
		}
	}
	return a
}

// applyStyle maps CSS-like declarations from the "default" class, the named
// classes and the inline style (in that order) onto DOT attributes.
func (w *dotWriter) applyStyle(a *attrs, classes map[string]mermaid.Style, names []string, inline mermaid.Style, node bool) {
	var layers []mermaid.Style
	if node {
		if def, ok := classes["default"]; ok {
			layers = append(layers, def)
		}
	}
	for _, c := range names {
		if st, ok := classes[c]; ok {
			layers = append(layers, st)
		}
	}
	layers = append(layers, inline)

	for _, st := range layers {
		if v, ok := st["fill"]; ok {
			a.set("fillcolor", dotColor(v))
		}
		if v, ok := st["stroke"]; ok {
			a.set("color", dotColor(v))
		}
		if v, ok := st["color"]; ok {
			a.set("fontcolor", dotColor(v))
		}
		if v, ok := st["stroke-width"]; ok {
			if pw, ok := parsePx(v); ok {
				a.set("penwidth", num(pw))
			}
		}
		if _, ok := st["stroke-dasharray"]; ok {
			a.appendStyle("dashed")
		}
		if v, ok := st["font-size"]; ok {
			if fs, ok := parsePx(v); ok {
				a.set("fontsize", num(fs))
			}
		}
	}
}

// appendStyle adds a token to the style attribute, keeping "filled".
func (a *attrs) appendStyle(token string) {
	cur := "filled"
	for _, kv := range *a {
		if v, ok := strings.CutPrefix(kv, "style="); ok {
			cur = strings.Trim(v, `"`)
		}
	}
	if !strings.Contains(cur, token) {
		cur += "," + token
	}
	a.set("style", cur)
}

func parsePx(v string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(v), "px"), 64)
	if err != nil || f < 0 {
		return 0, false
	}
	return f, true
}

// anchor returns the node an edge uses to reach a subgraph.
func (w *dotWriter) anchor(id string) (string, bool) {
	if w.d.Subgraph(id) == nil {
		return id, false
	}
	if desc := w.d.Descendants(id); len(desc) > 0 {
		return desc[0].ID, true
	}
	return placeholderID(id), true
}

func (w *dotWriter) writeEdge(e *mermaid.Edge) {
	from, fromCluster := w.anchor(e.From)
	to, toCluster := w.anchor(e.To)

	var a attrs
	if fromCluster {
		a.set("ltail", clusterName(e.From))
	}
	if toCluster {
		a.set("lhead", clusterName(e.To))
	}
	if e.Label != "" {
		a.set("label", " "+cleanLabel(e.Label, w.opts.Security)+" ")
	}

	switch e.Stroke {
	case mermaid.StrokeThick:
		a.set("penwidth", "2.5")
	case mermaid.StrokeDotted:
		a.set("style", "dashed")
	case mermaid.StrokeInvisible:
		a.set("style", "invis")
	}

	switch {
	case e.Head != mermaid.ArrowNone && e.Tail != mermaid.ArrowNone:
		a.set("dir", "both")
	case e.Head != mermaid.ArrowNone:
		a.set("dir", "forward")
	case e.Tail != mermaid.ArrowNone:
		a.set("dir", "back")
	default:
		a.set("dir", "none")
	}
	if e.Head != mermaid.ArrowNone {
		a.set("arrowhead", arrowName(e.Head))
	}
	if e.Tail != mermaid.ArrowNone {
		a.set("arrowtail", arrowName(e.Tail))
	}
	if e.Length > 1 {
		a.set("minlen", strconv.Itoa(e.Length))
	}

	if v, ok := e.Style["stroke"]; ok {
		a.set("color", dotColor(v))
	}
	if v, ok := e.Style["color"]; ok {
		a.set("fontcolor", dotColor(v))
	}
	if v, ok := e.Style["stroke-width"]; ok {
		if pw, ok := parsePx(v); ok {
			a.set("penwidth", num(pw))
		}
	}
	if _, ok := e.Style["stroke-dasharray"]; ok && e.Stroke != mermaid.StrokeInvisible {
		a.set("style", "dashed")
	}

	fmt.Fprintf(&w.buf, "  %s -> %s %s;\n", dotQuote(from), dotQuote(to), a)
}

func arrowName(a mermaid.Arrow) string {
	switch a {
	case mermaid.ArrowCross:
		return "tee"
	case mermaid.ArrowCircle:
		return "dot"
	}
	return "normal"
}
