package mermaid

import (
	"maps"
	"slices"
	"strings"
)

// Kind identifies the diagram grammar.
type Kind string

// Supported diagram kinds.
const (
	KindFlowchart Kind = "flowchart"
	KindState     Kind = "state"
	KindSequence  Kind = "sequence"
)

// Direction is the main layout axis.
type Direction string

// Layout directions. TD is accepted as an alias of TB.
const (
	DirTB Direction = "TB"
	DirBT Direction = "BT"
	DirLR Direction = "LR"
	DirRL Direction = "RL"
)

// parseDirection maps a direction keyword to a Direction.
func parseDirection(s string) (Direction, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "TB", "TD":
		return DirTB, true
	case "BT":
		return DirBT, true
	case "LR":
		return DirLR, true
	case "RL":
		return DirRL, true
	}
	return "", false
}

// Shape is the outline drawn for a node.
type Shape int

// Node shapes.
const (
	ShapeRect Shape = iota
	ShapeRound
	ShapeStadium
	ShapeSubroutine
	ShapeCylinder
	ShapeCircle
	ShapeDoubleCircle
	ShapeRhombus
	ShapeHexagon
	ShapeParallelogram
	ShapeParallelogramAlt
	ShapeTrapezoid
	ShapeTrapezoidAlt
	ShapeAsymmetric

	// State diagram shapes.
	ShapeState
	ShapeStart
	ShapeEnd
	ShapeFork
	ShapeJoin
	ShapeChoice
	ShapeNote
)

var shapeNames = map[Shape]string{
	ShapeRect:             "rect",
	ShapeRound:            "round",
	ShapeStadium:          "stadium",
	ShapeSubroutine:       "subroutine",
	ShapeCylinder:         "cylinder",
	ShapeCircle:           "circle",
	ShapeDoubleCircle:     "doublecircle",
	ShapeRhombus:          "rhombus",
	ShapeHexagon:          "hexagon",
	ShapeParallelogram:    "parallelogram",
	ShapeParallelogramAlt: "parallelogram-alt",
	ShapeTrapezoid:        "trapezoid",
	ShapeTrapezoidAlt:     "trapezoid-alt",
	ShapeAsymmetric:       "asymmetric",
	ShapeState:            "state",
	ShapeStart:            "start",
	ShapeEnd:              "end",
	ShapeFork:             "fork",
	ShapeJoin:             "join",
	ShapeChoice:           "choice",
	ShapeNote:             "note",
}

// String returns the shape name.
func (s Shape) String() string {
	if n, ok := shapeNames[s]; ok {
		return n
	}
	return "unknown"
}

// Stroke is the line style of an edge.
type Stroke int

// Edge strokes.
const (
	StrokeNormal Stroke = iota
	StrokeThick
	StrokeDotted
	StrokeInvisible
)

// Arrow is the marker at one end of an edge.
type Arrow int

// Edge end markers.
const (
	ArrowNone Arrow = iota
	ArrowPoint
	ArrowCross
	ArrowCircle
	// ArrowOpen is the open half-arrow of asynchronous sequence messages.
	ArrowOpen
)

// Style is a set of CSS-like declarations ("fill", "stroke", "color",
// "stroke-width", "stroke-dasharray").
type Style map[string]string

// parseStyle parses "fill:#f9f,stroke:#333,stroke-width:4px".
func parseStyle(s string) Style {
	st := Style{}
	for _, decl := range splitDecls(s) {
		k, v, ok := strings.Cut(decl, ":")
		if !ok {
			continue
		}
		k = strings.ToLower(strings.TrimSpace(k))
		v = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(v), "!important"))
		if k != "" && v != "" {
			st[k] = v
		}
	}
	return st
}

// splitDecls splits on commas and semicolons outside parentheses, so
// rgb(1,2,3) stays in one piece.
func splitDecls(s string) []string {
	var out []string
	depth, start := 0, 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth = max(depth-1, 0)
		case ',', ';':
			if depth == 0 {
				out = append(out, s[start:i])
				start = i + 1
			}
		}
	}
	return append(out, s[start:])
}

// merge copies declarations from other into s, overriding existing keys.
func (s Style) merge(other Style) Style {
	if s == nil {
		s = Style{}
	}
	maps.Copy(s, other)
	return s
}

// Node is a vertex of the diagram.
type Node struct {
	ID      string
	Label   string
	Shape   Shape
	Classes []string
	Style   Style
	URL     string
	Tooltip string
	// Parent is the ID of the innermost subgraph containing the node, or "".
	Parent string
}

// Edge connects two nodes (or subgraphs, for flowcharts).
type Edge struct {
	From, To string
	Label    string
	Stroke   Stroke
	Head     Arrow // marker at To
	Tail     Arrow // marker at From
	// Length is the requested rank span; 1 is the default.
	Length int
	Style  Style
}

// Subgraph groups nodes into a titled cluster. For state diagrams it
// represents a composite state.
type Subgraph struct {
	ID        string
	Title     string
	Direction Direction
	Parent    string
	Style     Style
	Classes   []string
}

// Config carries per-diagram settings from frontmatter and init directives.
type Config struct {
	Theme          string            `yaml:"theme"`
	FontFamily     string            `yaml:"fontFamily"`
	ThemeVariables map[string]string `yaml:"-"`
}

// Diagram is the parsed form of one Mermaid source document.
type Diagram struct {
	Kind      Kind
	Direction Direction
	Title     string
	Config    Config

	Nodes     []*Node
	Edges     []*Edge
	Subgraphs []*Subgraph
	// Classes maps classDef names to their declarations.
	Classes map[string]Style
	// Sequence holds lifelines and events; it is set only for KindSequence.
	Sequence *Sequence
	// Warnings lists statements that were accepted but ignored.
	Warnings []string

	nodes     map[string]*Node
	subgraphs map[string]*Subgraph
}

func newDiagram(kind Kind) *Diagram {
	return &Diagram{
		Kind:      kind,
		Direction: DirTB,
		Classes:   map[string]Style{},
		nodes:     map[string]*Node{},
		subgraphs: map[string]*Subgraph{},
	}
}

// Node returns the node with the given ID, or nil.
func (d *Diagram) Node(id string) *Node {
	return d.nodes[id]
}

// Subgraph returns the subgraph with the given ID, or nil.
func (d *Diagram) Subgraph(id string) *Subgraph {
	return d.subgraphs[id]
}

// Children returns the nodes whose innermost subgraph is parent, in
// declaration order. An empty parent selects top-level nodes.
func (d *Diagram) Children(parent string) []*Node {
	var out []*Node
	for _, n := range d.Nodes {
		if n.Parent == parent {
			out = append(out, n)
		}
	}
	return out
}

// SubgraphsOf returns the subgraphs nested directly in parent.
func (d *Diagram) SubgraphsOf(parent string) []*Subgraph {
	var out []*Subgraph
	for _, sg := range d.Subgraphs {
		if sg.Parent == parent {
			out = append(out, sg)
		}
	}
	return out
}

// Descendants returns all nodes contained in the subgraph id at any depth.
func (d *Diagram) Descendants(id string) []*Node {
	var out []*Node
	for _, n := range d.Nodes {
		for p := n.Parent; p != ""; p = d.parentOf(p) {
			if p == id {
				out = append(out, n)
				break
			}
		}
	}
	return out
}

func (d *Diagram) parentOf(subgraphID string) string {
	if sg := d.subgraphs[subgraphID]; sg != nil {
		return sg.Parent
	}
	return ""
}

// ensureNode returns the node with id, creating it (label = id) if needed.
// A newly created node is placed in parent.
func (d *Diagram) ensureNode(id, parent string) *Node {
	if n, ok := d.nodes[id]; ok {
		if n.Parent == "" && parent != "" {
			n.Parent = parent
		}
		return n
	}
	n := &Node{ID: id, Label: id, Parent: parent}
	if d.Kind == KindState {
		n.Shape = ShapeState
	}
	d.nodes[id] = n
	d.Nodes = append(d.Nodes, n)
	return n
}

// removeNode drops a node that turned out to be a subgraph reference.
func (d *Diagram) removeNode(id string) {
	if _, ok := d.nodes[id]; !ok {
		return
	}
	delete(d.nodes, id)
	d.Nodes = slices.DeleteFunc(d.Nodes, func(n *Node) bool { return n.ID == id })
}

func (d *Diagram) addSubgraph(sg *Subgraph) *Subgraph {
	if existing, ok := d.subgraphs[sg.ID]; ok {
		return existing
	}
	d.subgraphs[sg.ID] = sg
	d.Subgraphs = append(d.Subgraphs, sg)
	return sg
}

func (d *Diagram) addEdge(e *Edge) {
	if e.Length < 1 {
		e.Length = 1
	}
	d.Edges = append(d.Edges, e)
}

func (d *Diagram) warnf(line int, msg string) {
	d.Warnings = append(d.Warnings, lineMsg(line, msg))
}
