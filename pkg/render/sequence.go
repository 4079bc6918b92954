package render

import (
	"bytes"
	"cmp"
	"encoding/xml"
	"fmt"
	"math"
	"strconv"
	"strings"

	"golang.org/x/image/font"

	"github.com/matzehuels/mermaidpng/pkg/fonts"
	"github.com/matzehuels/mermaidpng/pkg/mermaid"
)

// Sequence layout metrics, in pixels.
const (
	seqMargin       = 20.0
	seqActorGap     = 50.0 // between neighbouring participant boxes
	seqBoxMinWidth  = 110.0
	seqBoxPadX      = 16.0
	seqBoxPadY      = 10.0
	seqFigureHeight = 38.0 // stick figure above an actor's label
	seqRowGap       = 14.0
	seqLabelGap     = 4.0 // between a message line and its label
	seqLabelPad     = 14.0
	seqSelfWidth    = 34.0
	seqSelfHeight   = 22.0
	seqActivationW  = 10.0
	seqNotePad      = 8.0
	seqNoteMinWidth = 80.0
	seqNoteOffset   = 6.0
	seqNoteOverhang = 24.0
	seqFramePad     = 10.0
	seqFrameHeader  = 22.0
	seqGroupPad     = 10.0
	seqArrowLen     = 9.0
	seqNumberRadius = 9.0
)

// SequenceOptions configures [ToSequenceSVG].
type SequenceOptions struct {
	Theme      Theme
	FontFamily string
	Security   SecurityLevel
	// Fonts measures label text. nil measures with the embedded font.
	Fonts *fonts.Loader
}

// ToSequenceSVG lays out and draws a sequence diagram. Participants are
// placed in columns wide enough for the labels between them, and events are
// stacked top to bottom in source order.
func ToSequenceSVG(d *mermaid.Diagram, opts SequenceOptions) []byte {
	if opts.Theme.Name == "" {
		opts.Theme = builtinThemes[DefaultThemeName]
	}
	if opts.Security == "" {
		opts.Security = SecurityStrict
	}
	opts.FontFamily = cmp.Or(opts.FontFamily, opts.Theme.FontFamily, DefaultFontFamily)
	loader := opts.Fonts
	if loader == nil {
		loader = fonts.NewLoader(fonts.StrategyEmbedded)
	}
	size := opts.Theme.FontSize
	if size <= 0 {
		size = 14
	}
	face := loader.Face(opts.FontFamily, size)
	defer face.Close()

	seq := d.Sequence
	if seq == nil {
		seq = &mermaid.Sequence{}
	}
	l := &seqLayout{
		s:     seq,
		title: d.Title,
		opts:  opts,
		t:     opts.Theme,
		face:  face,
		size:  size,
		lineH: size * 1.25,
		index: map[string]int{},
		minX:  math.Inf(1),
		maxX:  math.Inf(-1),
	}
	return l.draw()
}

type seqColumn struct {
	p      *mermaid.Participant
	label  []string
	x, w   float64
	active []float64 // start y of open activations, innermost last
}

// edge is where a message toward dir (+1 right, -1 left) meets the
// lifeline, outside any activation bars.
func (c *seqColumn) edge(dir float64) float64 {
	k := len(c.active)
	if k == 0 {
		return c.x
	}
	if dir > 0 {
		return c.x + seqActivationW/2 + float64(k-1)*seqActivationW/2
	}
	return c.x - seqActivationW/2
}

type seqFrame struct {
	block      *mermaid.Block
	top        float64
	minX, maxX float64
	branches   []seqBranch
}

type seqBranch struct {
	y     float64
	label string
}

type seqLayout struct {
	s     *mermaid.Sequence
	title string
	opts  SequenceOptions
	t     Theme
	face  font.Face
	size  float64
	lineH float64

	cols  []*seqColumn
	index map[string]int

	// Layers, back to front.
	back, life, mid, fore bytes.Buffer

	minX, maxX float64
	y, anchor  float64
	headH      float64
	frames     []*seqFrame
}

func (l *seqLayout) draw() []byte {
	for i, p := range l.s.Participants {
		c := &seqColumn{p: p, label: l.label(p.Label)}
		c.w = max(seqBoxMinWidth, l.width(c.label)+2*seqBoxPadX)
		l.cols = append(l.cols, c)
		l.index[p.ID] = i

		h := l.textHeight(c.label) + 2*seqBoxPadY
		if p.Actor {
			h = seqFigureHeight + l.textHeight(c.label) + 4
		}
		l.headH = max(l.headH, h)
	}
	l.place()

	top := seqMargin
	if l.title != "" {
		top += l.size * 1.8
	}
	if len(l.s.Boxes) > 0 {
		top += l.lineH + seqGroupPad
	}
	for _, c := range l.cols {
		l.head(c, top)
	}

	l.y = top + l.headH + seqRowGap
	l.anchor = l.y
	l.rows()

	bottomTop := l.y
	for _, c := range l.cols {
		l.head(c, bottomTop)
		fmt.Fprintf(&l.life, `<line x1="%s" y1="%s" x2="%s" y2="%s" stroke="%s" stroke-width="0.5"/>`+"\n",
			px(c.x), px(top+l.headH), px(c.x), px(bottomTop), esc(dotColor(l.t.LineColor)))
	}
	bottom := bottomTop + l.headH
	if len(l.s.Boxes) > 0 {
		l.groups(top, bottom)
		bottom += seqGroupPad
	}
	bottom += seqMargin

	if math.IsInf(l.minX, 1) {
		l.minX, l.maxX = 0, seqBoxMinWidth
	}
	if l.title != "" {
		w := l.width([]string{cleanLabel(l.title, l.opts.Security)}) * 1.3
		mid := (l.minX + l.maxX) / 2
		l.extend(mid-w/2, mid+w/2)
		l.text(&l.fore, mid, seqMargin+l.size*1.3, "middle", l.t.TextColor,
			cleanLabel(l.title, l.opts.Security), l.size*1.3)
	}

	var buf bytes.Buffer
	x0 := l.minX - seqMargin
	w := l.maxX - l.minX + 2*seqMargin
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="%.2f 0.00 %.2f %.2f" width="%.0f" height="%.0f">`+"\n",
		x0, w, bottom, w, bottom)
	fmt.Fprintf(&buf, `<g font-family="%s" font-size="%s">`+"\n", esc(l.opts.FontFamily), px(l.size))
	buf.Write(l.back.Bytes())
	buf.Write(l.life.Bytes())
	buf.Write(l.mid.Bytes())
	buf.Write(l.fore.Bytes())
	buf.WriteString("</g>\n</svg>\n")
	return buf.Bytes()
}

// place assigns column centers, widening gaps that are too narrow for the
// messages and side notes drawn between them.
func (l *seqLayout) place() {
	n := len(l.cols)
	if n == 0 {
		return
	}
	gaps := make([]float64, n-1)
	for i := range gaps {
		gaps[i] = l.cols[i].w/2 + seqActorGap + l.cols[i+1].w/2
	}
	widen := func(lo, hi int, need float64) {
		if lo < 0 || hi >= n || lo >= hi {
			return
		}
		var have float64
		for _, g := range gaps[lo:hi] {
			have += g
		}
		if need > have {
			gaps[hi-1] += need - have
		}
	}

	for _, st := range l.s.Steps {
		switch st.Kind {
		case mermaid.StepMessage:
			m := st.Message
			a, b := l.index[m.From], l.index[m.To]
			w := l.width(l.label(m.Text)) + 2*seqLabelPad
			if m.Number > 0 {
				w += 2 * seqNumberRadius
			}
			if a == b {
				widen(a, a+1, seqSelfWidth+w)
				continue
			}
			widen(min(a, b), max(a, b), w)
		case mermaid.StepNote:
			nt := st.Note
			w := l.noteWidth(l.label(nt.Text)) + seqNoteOffset + seqActivationW
			i := l.index[nt.Participants[0]]
			switch nt.Placement {
			case mermaid.NoteLeftOf:
				widen(i-1, i, w)
			case mermaid.NoteRightOf:
				widen(i, i+1, w)
			}
		}
	}

	x := 0.0
	for i, c := range l.cols {
		if i > 0 {
			x += gaps[i-1]
		}
		c.x = x
	}
}

func (l *seqLayout) rows() {
	for _, st := range l.s.Steps {
		switch st.Kind {
		case mermaid.StepMessage:
			l.message(st.Message)
		case mermaid.StepNote:
			l.note(st.Note)
		case mermaid.StepActivate:
			c := l.col(st.Participant)
			c.active = append(c.active, l.anchor)
		case mermaid.StepDeactivate:
			c := l.col(st.Participant)
			if k := len(c.active); k > 0 {
				start := c.active[k-1]
				c.active = c.active[:k-1]
				l.activation(c, k-1, start, l.anchor)
			}
		case mermaid.StepBlockStart:
			l.openFrame(st.Block)
		case mermaid.StepBlockBranch:
			l.branch(st.Block)
		case mermaid.StepBlockEnd:
			l.closeFrame()
		}
	}
	for _, c := range l.cols {
		for k := len(c.active) - 1; k >= 0; k-- {
			l.activation(c, k, c.active[k], l.y-seqRowGap/2)
		}
		c.active = nil
	}
	for len(l.frames) > 0 {
		l.closeFrame()
	}
}

func (l *seqLayout) col(id string) *seqColumn {
	return l.cols[l.index[id]]
}

func (l *seqLayout) message(m *mermaid.Message) {
	from, to := l.col(m.From), l.col(m.To)
	text := l.label(m.Text)
	textH := l.textHeight(text)
	stroke := l.stroke(m.Stroke)

	if from == to {
		top := l.y
		x1 := from.edge(1)
		x2 := x1 + seqSelfWidth
		bottom := top + max(seqSelfHeight, textH)
		fmt.Fprintf(&l.fore, `<path d="M%s %s H%s V%s H%s" fill="none"%s/>`+"\n",
			px(x1), px(top), px(x2), px(bottom), px(x1+2), stroke)
		l.marker(m.Head, x1, bottom, -1)
		l.marker(m.Tail, x1, top, -1)
		for k, s := range text {
			l.text(&l.fore, x2+6, l.baseline(top, k), "start", l.t.TextColor, s, 0)
		}
		l.number(m, x1, top)
		l.extend(x1, x2+6+l.width(text))
		l.anchor = bottom
		l.y = bottom + seqRowGap
		return
	}

	dir := 1.0
	if to.x < from.x {
		dir = -1
	}
	x1, x2 := from.edge(dir), to.edge(-dir)
	lineY := l.y + textH + seqLabelGap
	mid := (x1 + x2) / 2
	for k, s := range text {
		l.text(&l.fore, mid, l.baseline(lineY-seqLabelGap-textH, k), "middle", l.t.TextColor, s, 0)
	}
	fmt.Fprintf(&l.fore, `<line x1="%s" y1="%s" x2="%s" y2="%s"%s/>`+"\n",
		px(x1+dir*inset(m.Tail)), px(lineY), px(x2-dir*inset(m.Head)), px(lineY), stroke)
	l.marker(m.Head, x2, lineY, dir)
	l.marker(m.Tail, x1, lineY, -dir)
	l.number(m, x1, lineY)

	tw := l.width(text)
	l.extend(min(x1, x2, mid-tw/2), max(x1, x2, mid+tw/2))
	l.anchor = lineY
	l.y = lineY + seqRowGap
}

// inset shortens a line so it does not poke through a filled arrowhead.
func inset(a mermaid.Arrow) float64 {
	if a == mermaid.ArrowPoint {
		return seqArrowLen / 2
	}
	return 0
}

func (l *seqLayout) stroke(s mermaid.Stroke) string {
	attrs := fmt.Sprintf(` stroke="%s" stroke-width="1.5"`, esc(dotColor(l.t.LineColor)))
	if s == mermaid.StrokeDotted {
		attrs += ` stroke-dasharray="3,3"`
	}
	return attrs
}

// marker draws an arrow end at (x, y) pointing in direction dir.
func (l *seqLayout) marker(a mermaid.Arrow, x, y, dir float64) {
	color := esc(dotColor(l.t.LineColor))
	back := x - dir*seqArrowLen
	switch a {
	case mermaid.ArrowPoint:
		fmt.Fprintf(&l.fore, `<polygon points="%s,%s %s,%s %s,%s" fill="%s" stroke="%s"/>`+"\n",
			px(x), px(y), px(back), px(y-4.5), px(back), px(y+4.5), color, color)
	case mermaid.ArrowOpen:
		fmt.Fprintf(&l.fore, `<polyline points="%s,%s %s,%s %s,%s" fill="none" stroke="%s" stroke-width="1.5"/>`+"\n",
			px(back), px(y-5), px(x), px(y), px(back), px(y+5), color)
	case mermaid.ArrowCross:
		cx := x - dir*5
		fmt.Fprintf(&l.fore, `<path d="M%s %s L%s %s M%s %s L%s %s" stroke="%s" stroke-width="1.5"/>`+"\n",
			px(cx-4), px(y-4), px(cx+4), px(y+4), px(cx-4), px(y+4), px(cx+4), px(y-4), color)
	}
}

func (l *seqLayout) number(m *mermaid.Message, x, y float64) {
	if m.Number <= 0 {
		return
	}
	fmt.Fprintf(&l.fore, `<circle cx="%s" cy="%s" r="%s" fill="%s"/>`+"\n",
		px(x), px(y), px(seqNumberRadius), esc(dotColor(l.t.LineColor)))
	l.text(&l.fore, x, y+l.size*0.27, "middle", l.t.PrimaryColor, strconv.Itoa(m.Number), l.size*0.75)
	l.extend(x-seqNumberRadius, x+seqNumberRadius)
}

func (l *seqLayout) note(n *mermaid.Note) {
	text := l.label(n.Text)
	w := l.noteWidth(text)
	h := max(l.textHeight(text), l.lineH) + 2*seqNotePad
	a := l.col(n.Participants[0])

	var left float64
	switch n.Placement {
	case mermaid.NoteLeftOf:
		left = a.edge(-1) - seqNoteOffset - w
	case mermaid.NoteRightOf:
		left = a.edge(1) + seqNoteOffset
	default:
		lo, hi := a.x, a.x
		if len(n.Participants) == 2 {
			b := l.col(n.Participants[1])
			lo, hi = min(a.x, b.x), max(a.x, b.x)
		}
		if hi > lo {
			w = max(w, hi-lo+2*seqNoteOverhang)
		}
		left = (lo+hi)/2 - w/2
	}

	top := l.y
	fmt.Fprintf(&l.fore, `<rect x="%s" y="%s" width="%s" height="%s" fill="%s" stroke="%s"/>`+"\n",
		px(left), px(top), px(w), px(h), esc(dotColor(l.t.NoteBackground)), esc(dotColor(l.t.NoteBorder)))
	for k, s := range text {
		l.text(&l.fore, left+w/2, l.baseline(top+seqNotePad, k), "middle", l.t.NoteTextColor, s, 0)
	}
	l.extend(left, left+w)
	l.y = top + h + seqRowGap
	l.anchor = l.y
}

func (l *seqLayout) noteWidth(text []string) float64 {
	return max(seqNoteMinWidth, l.width(text)+2*seqNotePad)
}

func (l *seqLayout) activation(c *seqColumn, depth int, start, end float64) {
	if end < start+seqRowGap/2 {
		end = start + seqRowGap/2
	}
	l.y = max(l.y, end+seqRowGap/2)
	x := c.x - seqActivationW/2 + float64(depth)*seqActivationW/2
	fmt.Fprintf(&l.mid, `<rect x="%s" y="%s" width="%s" height="%s" fill="%s" stroke="%s"/>`+"\n",
		px(x), px(start), px(seqActivationW), px(end-start),
		esc(dotColor(l.t.EdgeLabelBackground)), esc(dotColor(l.t.LineColor)))
	l.extend(x, x+seqActivationW)
}

func (l *seqLayout) openFrame(b *mermaid.Block) {
	l.frames = append(l.frames, &seqFrame{block: b, top: l.y, minX: math.Inf(1), maxX: math.Inf(-1)})
	if b.Kind == "rect" {
		l.y += seqFramePad
	} else {
		l.y += seqFrameHeader + seqFramePad
	}
	l.anchor = l.y
}

func (l *seqLayout) branch(b *mermaid.Block) {
	if len(l.frames) == 0 {
		return
	}
	f := l.frames[len(l.frames)-1]
	f.branches = append(f.branches, seqBranch{y: l.y, label: cleanLabel(b.Label, l.opts.Security)})
	l.y += seqFrameHeader + seqFramePad/2
	l.anchor = l.y
}

func (l *seqLayout) closeFrame() {
	f := l.frames[len(l.frames)-1]
	l.frames = l.frames[:len(l.frames)-1]

	bottom := max(l.y-seqRowGap+seqFramePad, f.top+seqFrameHeader+seqFramePad)
	if math.IsInf(f.minX, 1) && len(l.cols) > 0 {
		f.minX, f.maxX = l.cols[0].x, l.cols[len(l.cols)-1].x
	}
	left, right := f.minX-seqFramePad, f.maxX+seqFramePad

	if f.block.Kind == "rect" {
		fmt.Fprintf(&l.back, `<rect x="%s" y="%s" width="%s" height="%s"%s stroke="none"/>`+"\n",
			px(left), px(f.top), px(right-left), px(bottom-f.top), paint("fill", f.block.Color))
		l.extend(left, right)
		l.y = bottom + seqRowGap
		l.anchor = l.y
		return
	}

	kind := f.block.Kind
	label := cleanLabel(f.block.Label, l.opts.Security)
	tabW := max(50, l.width([]string{kind})+2*seqFramePad)
	if label != "" {
		right = max(right, left+tabW+seqFramePad+l.width([]string{"[" + label + "]"})+seqFramePad)
	}
	for _, br := range f.branches {
		if br.label != "" {
			right = max(right, left+seqFramePad+l.width([]string{"[" + br.label + "]"})+seqFramePad)
		}
	}

	border := esc(dotColor(l.t.PrimaryBorderColor))
	fmt.Fprintf(&l.mid, `<rect x="%s" y="%s" width="%s" height="%s" fill="none" stroke="%s" stroke-width="1"/>`+"\n",
		px(left), px(f.top), px(right-left), px(bottom-f.top), border)
	tabH := seqFrameHeader - 2
	fmt.Fprintf(&l.mid, `<polygon points="%s,%s %s,%s %s,%s %s,%s %s,%s" fill="%s" stroke="%s"/>`+"\n",
		px(left), px(f.top), px(left+tabW), px(f.top), px(left+tabW), px(f.top+tabH-6),
		px(left+tabW-6), px(f.top+tabH), px(left), px(f.top+tabH),
		esc(dotColor(l.t.PrimaryColor)), border)
	l.text(&l.mid, left+tabW/2, l.baseline(f.top+(tabH-l.lineH)/2, 0), "middle", l.t.PrimaryTextColor, kind, 0)
	if label != "" {
		l.text(&l.mid, left+tabW+seqFramePad, l.baseline(f.top+(tabH-l.lineH)/2, 0), "start", l.t.TextColor, "["+label+"]", 0)
	}
	for _, br := range f.branches {
		fmt.Fprintf(&l.mid, `<line x1="%s" y1="%s" x2="%s" y2="%s" stroke="%s" stroke-width="1" stroke-dasharray="3,3"/>`+"\n",
			px(left), px(br.y), px(right), px(br.y), border)
		if br.label != "" {
			l.text(&l.mid, left+seqFramePad, l.baseline(br.y+2, 0), "start", l.t.TextColor, "["+br.label+"]", 0)
		}
	}

	l.extend(left, right)
	l.y = bottom + seqRowGap
	l.anchor = l.y
}

// head draws a participant box or actor figure with its top edge at top.
func (l *seqLayout) head(c *seqColumn, top float64) {
	fill := esc(dotColor(l.t.PrimaryColor))
	border := esc(dotColor(l.t.PrimaryBorderColor))
	if c.p.Actor {
		x := c.x
		fmt.Fprintf(&l.fore, `<circle cx="%s" cy="%s" r="7" fill="%s" stroke="%s" stroke-width="1.5"/>`+"\n",
			px(x), px(top+8), fill, border)
		fmt.Fprintf(&l.fore, `<path d="M%s %s V%s M%s %s H%s M%s %s L%s %s M%s %s L%s %s" fill="none" stroke="%s" stroke-width="1.5"/>`+"\n",
			px(x), px(top+15), px(top+27),
			px(x-11), px(top+19), px(x+11),
			px(x), px(top+27), px(x-9), px(top+37),
			px(x), px(top+27), px(x+9), px(top+37),
			border)
		for k, s := range c.label {
			l.text(&l.fore, x, l.baseline(top+seqFigureHeight+2, k), "middle", l.t.TextColor, s, 0)
		}
		l.extend(x-c.w/2, x+c.w/2)
		return
	}

	fmt.Fprintf(&l.fore, `<rect x="%s" y="%s" width="%s" height="%s" rx="3" ry="3" fill="%s" stroke="%s"/>`+"\n",
		px(c.x-c.w/2), px(top), px(c.w), px(l.headH), fill, border)
	textTop := top + (l.headH-l.textHeight(c.label))/2
	for k, s := range c.label {
		l.text(&l.fore, c.x, l.baseline(textTop, k), "middle", l.t.PrimaryTextColor, s, 0)
	}
	l.extend(c.x-c.w/2, c.x+c.w/2)
}

// groups draws box backgrounds behind their member columns.
func (l *seqLayout) groups(top, bottom float64) {
	for i, b := range l.s.Boxes {
		left, right := math.Inf(1), math.Inf(-1)
		for _, c := range l.cols {
			if c.p.Box == i {
				left = min(left, c.x-c.w/2-seqGroupPad)
				right = max(right, c.x+c.w/2+seqGroupPad)
			}
		}
		if math.IsInf(left, 1) {
			continue
		}
		label := cleanLabel(b.Label, l.opts.Security)
		right = max(right, left+l.width([]string{label})+2*seqGroupPad)
		gtop := top - l.lineH - seqGroupPad
		fill := ` fill="none"`
		if b.Color != "" {
			fill = paint("fill", b.Color)
		}
		fmt.Fprintf(&l.back, `<rect x="%s" y="%s" width="%s" height="%s"%s stroke="%s" stroke-width="0.5"/>`+"\n",
			px(left), px(gtop), px(right-left), px(bottom+seqGroupPad-gtop), fill, esc(dotColor(l.t.ClusterBorder)))
		l.text(&l.back, (left+right)/2, l.baseline(gtop+seqGroupPad/2, 0), "middle", l.t.TextColor, label, 0)
		l.extend(left, right)
	}
}

// extend grows the drawing bounds and those of every open frame.
func (l *seqLayout) extend(x1, x2 float64) {
	l.minX, l.maxX = min(l.minX, x1), max(l.maxX, x2)
	for _, f := range l.frames {
		f.minX, f.maxX = min(f.minX, x1), max(f.maxX, x2)
	}
}

// label cleans s and splits it into lines; empty text has no lines.
func (l *seqLayout) label(s string) []string {
	s = cleanLabel(s, l.opts.Security)
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

func (l *seqLayout) width(lines []string) float64 {
	var w float64
	for _, s := range lines {
		w = max(w, float64(font.MeasureString(l.face, s))/64)
	}
	return w
}

func (l *seqLayout) textHeight(lines []string) float64 {
	return float64(len(lines)) * l.lineH
}

// baseline returns the baseline of line k in a text block starting at top.
func (l *seqLayout) baseline(top float64, k int) float64 {
	return top + float64(k)*l.lineH + l.lineH/2 + l.size*0.35
}

func (l *seqLayout) text(buf *bytes.Buffer, x, y float64, anchor, fill, s string, size float64) {
	if s == "" {
		return
	}
	fmt.Fprintf(buf, `<text x="%s" y="%s" text-anchor="%s" fill="%s"`, px(x), px(y), anchor, esc(dotColor(fill)))
	if size > 0 {
		fmt.Fprintf(buf, ` font-size="%s"`, px(size))
	}
	fmt.Fprintf(buf, ">%s</text>\n", esc(s))
}

// paint renders a fill or stroke attribute. The alpha of #rrggbbaa moves to
// the matching -opacity attribute, since SVG 1.1 has no 8-digit hex.
func paint(attr, c string) string {
	c = dotColor(c)
	if len(c) == 9 && c[0] == '#' {
		if a, err := strconv.ParseUint(c[7:], 16, 8); err == nil {
			return fmt.Sprintf(` %s="%s" %s-opacity="%s"`, attr, c[:7], attr, px(float64(a)/255))
		}
	}
	return fmt.Sprintf(` %s="%s"`, attr, esc(c))
}

// px formats a coordinate with at most two decimals.
func px(v float64) string {
	return strconv.FormatFloat(math.Round(v*100)/100, 'f', -1, 64)
}

func esc(s string) string {
	var b bytes.Buffer
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}
