package mermaid

import (
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/image/colornames"
)

// Participant is one lifeline of a sequence diagram.
type Participant struct {
	ID    string
	Label string
	// Actor draws a stick figure instead of a box.
	Actor bool
	// Box indexes Sequence.Boxes, or is -1 outside any box.
	Box int
}

// Message is an arrow between two lifelines. From == To is a self message.
type Message struct {
	From, To string
	Text     string
	Stroke   Stroke // StrokeNormal or StrokeDotted
	Head     Arrow  // marker at To
	Tail     Arrow  // marker at From; set for <<->> arrows
	// Number is the autonumber label, or 0 when numbering is off.
	Number int
}

// NotePlacement positions a note relative to its lifelines.
type NotePlacement int

// Note placements.
const (
	NoteRightOf NotePlacement = iota
	NoteLeftOf
	NoteOver
)

// Note is text pinned to one lifeline, or spanning two with NoteOver.
type Note struct {
	Placement    NotePlacement
	Participants []string
	Text         string
}

// Block is a combined fragment (loop, alt, opt, par, critical, break) or a
// highlighted rect. Branch steps reuse it with Kind else, and or option.
type Block struct {
	Kind  string
	Label string
	// Color is the fill of a rect block.
	Color string
}

// Box groups adjacent participants under a titled background.
type Box struct {
	Label string
	Color string
}

// StepKind identifies the event a Step records.
type StepKind int

// Step kinds, in the order they may appear on the time axis.
const (
	StepMessage StepKind = iota
	StepNote
	StepActivate
	StepDeactivate
	StepBlockStart
	StepBlockBranch
	StepBlockEnd
)

// Step is one event on the vertical time axis.
type Step struct {
	Kind    StepKind
	Message *Message
	Note    *Note
	// Participant is the lifeline of an activate or deactivate step.
	Participant string
	Block       *Block
}

// Sequence is the body of a sequence diagram.
type Sequence struct {
	Participants []*Participant
	Boxes        []*Box
	Steps        []Step

	participants map[string]*Participant
}

func newSequence() *Sequence {
	return &Sequence{participants: map[string]*Participant{}}
}

// Participant returns the lifeline with the given ID, or nil.
func (s *Sequence) Participant(id string) *Participant {
	return s.participants[id]
}

// Index returns the column of the lifeline id, or -1.
func (s *Sequence) Index(id string) int {
	for i, p := range s.Participants {
		if p.ID == id {
			return i
		}
	}
	return -1
}

func (s *Sequence) ensure(id string) *Participant {
	if p, ok := s.participants[id]; ok {
		return p
	}
	p := &Participant{ID: id, Label: id, Box: -1}
	s.participants[id] = p
	s.Participants = append(s.Participants, p)
	return p
}

type seqArrow struct {
	tok        string
	stroke     Stroke
	head, tail Arrow
}

// seqArrows lists message arrows, longest tokens first.
var seqArrows = []seqArrow{
	{"<<-->>", StrokeDotted, ArrowPoint, ArrowPoint},
	{"<<->>", StrokeNormal, ArrowPoint, ArrowPoint},
	{"-->>", StrokeDotted, ArrowPoint, ArrowNone},
	{"->>", StrokeNormal, ArrowPoint, ArrowNone},
	{"--x", StrokeDotted, ArrowCross, ArrowNone},
	{"-x", StrokeNormal, ArrowCross, ArrowNone},
	{"--)", StrokeDotted, ArrowOpen, ArrowNone},
	{"-)", StrokeNormal, ArrowOpen, ArrowNone},
	{"-->", StrokeDotted, ArrowNone, ArrowNone},
	{"->", StrokeNormal, ArrowNone, ArrowNone},
}

// branchOf maps a branch keyword to the block kind it continues.
var branchOf = map[string]string{"else": "alt", "and": "par", "option": "critical"}

var (
	seqDeclRe = regexp.MustCompile(`^(?i:(create)\s+)?(?i:(participant|actor))\s+(.+?)(?:\s+(?i:as)\s+(.+))?$`)
	seqNoteRe = regexp.MustCompile(`^(?i:note)\s+(?i:(left\s+of|right\s+of|over))\s+([^:]+?)\s*:(.*)$`)
	entityEnd = regexp.MustCompile(`#[A-Za-z0-9]+$`)
)

type seqParser struct {
	d *Diagram
	s *Sequence

	blocks []string // open block kinds, innermost last
	box    int      // open box index, or -1
	active map[string]int

	number, increment int // next autonumber and step; increment 0 is off
	inAccDescr        bool
}

func parseSequence(d *Diagram, lines []line) error {
	p := &seqParser{d: d, s: d.Sequence, box: -1, active: map[string]int{}}
	for _, ln := range lines {
		if p.inAccDescr {
			if strings.Contains(ln.text, "}") {
				p.inAccDescr = false
			}
			continue
		}
		for _, stmt := range splitSequenceStatements(ln.text) {
			if stmt = strings.TrimSpace(stmt); stmt == "" {
				continue
			}
			if err := p.statement(stmt, ln.no); err != nil {
				return err
			}
		}
	}

	last := 0
	if len(lines) > 0 {
		last = lines[len(lines)-1].no
	}
	if p.box >= 0 {
		return syntaxErr(last, "box is missing \"end\"")
	}
	if n := len(p.blocks); n > 0 {
		return syntaxErr(last, "%s block is missing \"end\"", p.blocks[n-1])
	}
	return nil
}

// splitSequenceStatements splits on semicolons, except those closing a
// #name; entity code.
func splitSequenceStatements(s string) []string {
	var out []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] != ';' || entityEnd.MatchString(s[start:i]) {
			continue
		}
		out = append(out, s[start:i])
		start = i + 1
	}
	return append(out, s[start:])
}

func (p *seqParser) statement(stmt string, no int) error {
	keyword, rest := splitKeyword(stmt)
	kw := strings.ToLower(keyword)

	if p.box >= 0 && kw != "participant" && kw != "actor" && kw != "create" && kw != "end" {
		return syntaxErr(no, "only participants may be declared inside a box")
	}

	if kw == "title" || strings.HasPrefix(kw, "title:") {
		p.d.Title = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(stmt[len("title"):]), ":"))
		return nil
	}

	switch kw {
	case "participant", "actor", "create":
		return p.declare(stmt, no)
	case "destroy":
		p.d.warnf(no, "destroy is not drawn; lifeline "+strings.TrimSpace(rest)+" continues")
		return nil
	case "activate":
		return p.activate(rest, no)
	case "deactivate":
		return p.deactivate(rest, no)
	case "note":
		return p.note(stmt, no)
	case "autonumber":
		return p.autonumber(rest, no)
	case "link", "links", "properties", "details":
		p.d.warnf(no, keyword+" menus are not drawn")
		return nil
	case "loop", "alt", "opt", "par", "par_over", "critical", "break":
		if kw == "par_over" {
			kw = "par"
		}
		p.blocks = append(p.blocks, kw)
		p.s.Steps = append(p.s.Steps, Step{Kind: StepBlockStart, Block: &Block{Kind: kw, Label: rest}})
		return nil
	case "rect":
		if rest == "" {
			return syntaxErr(no, "rect needs a color")
		}
		p.blocks = append(p.blocks, kw)
		p.s.Steps = append(p.s.Steps, Step{Kind: StepBlockStart, Block: &Block{Kind: kw, Color: rest}})
		return nil
	case "else", "and", "option":
		if n := len(p.blocks); n == 0 || p.blocks[n-1] != branchOf[kw] {
			return syntaxErr(no, "%q outside of %s block", keyword, branchOf[kw])
		}
		p.s.Steps = append(p.s.Steps, Step{Kind: StepBlockBranch, Block: &Block{Kind: kw, Label: rest}})
		return nil
	case "box":
		if p.box >= 0 || len(p.blocks) > 0 {
			return syntaxErr(no, "box cannot be nested")
		}
		color, label := splitBoxColor(rest)
		p.s.Boxes = append(p.s.Boxes, &Box{Label: label, Color: color})
		p.box = len(p.s.Boxes) - 1
		return nil
	case "end":
		if p.box >= 0 {
			p.box = -1
			return nil
		}
		if len(p.blocks) == 0 {
			return syntaxErr(no, "unexpected \"end\"")
		}
		p.blocks = p.blocks[:len(p.blocks)-1]
		p.s.Steps = append(p.s.Steps, Step{Kind: StepBlockEnd})
		return nil
	}

	if strings.HasPrefix(kw, "acctitle") {
		return nil
	}
	if strings.HasPrefix(kw, "accdescr") {
		p.inAccDescr = strings.Contains(stmt, "{") && !strings.Contains(stmt, "}")
		return nil
	}
	return p.message(stmt, no)
}

func (p *seqParser) declare(stmt string, no int) error {
	m := seqDeclRe.FindStringSubmatch(stmt)
	if m == nil {
		return syntaxErr(no, "invalid participant declaration")
	}
	id := strings.TrimSpace(m[3])
	if err := checkParticipant(id, no); err != nil {
		return err
	}
	part := p.s.ensure(id)
	part.Actor = strings.EqualFold(m[2], "actor")
	if alias := strings.TrimSpace(m[4]); alias != "" {
		part.Label = alias
	}
	if p.box >= 0 {
		part.Box = p.box
	}
	return nil
}

func (p *seqParser) activate(id string, no int) error {
	id = strings.TrimSpace(id)
	if err := checkParticipant(id, no); err != nil {
		return err
	}
	p.s.ensure(id)
	p.active[id]++
	p.s.Steps = append(p.s.Steps, Step{Kind: StepActivate, Participant: id})
	return nil
}

func (p *seqParser) deactivate(id string, no int) error {
	id = strings.TrimSpace(id)
	if err := checkParticipant(id, no); err != nil {
		return err
	}
	if p.active[id] == 0 {
		return syntaxErr(no, "participant %q is not active", id)
	}
	p.active[id]--
	p.s.Steps = append(p.s.Steps, Step{Kind: StepDeactivate, Participant: id})
	return nil
}

func (p *seqParser) note(stmt string, no int) error {
	m := seqNoteRe.FindStringSubmatch(stmt)
	if m == nil {
		return syntaxErr(no, "invalid note, expected \"Note left of|right of|over <participant>: text\"")
	}
	n := &Note{Text: trimWrap(m[3])}
	switch strings.Join(strings.Fields(strings.ToLower(m[1])), " ") {
	case "left of":
		n.Placement = NoteLeftOf
	case "right of":
		n.Placement = NoteRightOf
	default:
		n.Placement = NoteOver
	}
	for _, id := range strings.Split(m[2], ",") {
		id = strings.TrimSpace(id)
		if err := checkParticipant(id, no); err != nil {
			return err
		}
		n.Participants = append(n.Participants, id)
	}
	limit := 1
	if n.Placement == NoteOver {
		limit = 2
	}
	if len(n.Participants) > limit {
		return syntaxErr(no, "note names %d participants, at most %d allowed", len(n.Participants), limit)
	}
	for _, id := range n.Participants {
		p.s.ensure(id)
	}
	p.s.Steps = append(p.s.Steps, Step{Kind: StepNote, Note: n})
	return nil
}

func (p *seqParser) autonumber(rest string, no int) error {
	fields := strings.Fields(rest)
	if len(fields) == 1 && strings.EqualFold(fields[0], "off") {
		p.increment = 0
		return nil
	}
	p.number, p.increment = 1, 1
	for i, f := range fields {
		n, err := strconv.Atoi(f)
		if err != nil || n < 0 || i > 1 {
			return syntaxErr(no, "invalid autonumber %q", rest)
		}
		if i == 0 {
			p.number = n
		} else {
			p.increment = n
		}
	}
	return nil
}

func (p *seqParser) message(stmt string, no int) error {
	head, text, hasText := strings.Cut(stmt, ":")
	at, arrow, ok := findArrow(head)
	if !ok {
		return syntaxErr(no, "unrecognized statement %q", truncate(stmt, 40))
	}

	from := strings.TrimSpace(head[:at])
	to := strings.TrimSpace(head[at+len(arrow.tok):])
	var activateTo, deactivateFrom bool
	switch {
	case strings.HasPrefix(to, "+"):
		activateTo, to = true, strings.TrimSpace(to[1:])
	case strings.HasPrefix(to, "-"):
		deactivateFrom, to = true, strings.TrimSpace(to[1:])
	}

	switch {
	case from == "":
		return syntaxErr(no, "message has no source participant")
	case to == "":
		return syntaxErr(no, "message has no target participant")
	case !hasText:
		return syntaxErr(no, "message %s%s%s is missing \": text\"", from, arrow.tok, to)
	}
	for _, id := range []string{from, to} {
		if err := checkParticipant(id, no); err != nil {
			return err
		}
	}

	p.s.ensure(from)
	p.s.ensure(to)
	msg := &Message{
		From:   from,
		To:     to,
		Text:   trimWrap(text),
		Stroke: arrow.stroke,
		Head:   arrow.head,
		Tail:   arrow.tail,
	}
	if p.increment > 0 {
		msg.Number = p.number
		p.number += p.increment
	}
	p.s.Steps = append(p.s.Steps, Step{Kind: StepMessage, Message: msg})

	if activateTo {
		p.active[to]++
		p.s.Steps = append(p.s.Steps, Step{Kind: StepActivate, Participant: to})
	}
	if deactivateFrom {
		if p.active[from] == 0 {
			return syntaxErr(no, "participant %q is not active", from)
		}
		p.active[from]--
		p.s.Steps = append(p.s.Steps, Step{Kind: StepDeactivate, Participant: from})
	}
	return nil
}

// findArrow returns the position of the first message arrow in s.
func findArrow(s string) (int, seqArrow, bool) {
	for i := 0; i < len(s); i++ {
		if s[i] != '-' && s[i] != '<' {
			continue
		}
		for _, a := range seqArrows {
			if strings.HasPrefix(s[i:], a.tok) {
				return i, a, true
			}
		}
	}
	return 0, seqArrow{}, false
}

// checkParticipant rejects names the sequence grammar cannot produce.
func checkParticipant(id string, no int) error {
	if id == "" {
		return syntaxErr(no, "missing participant name")
	}
	if strings.ContainsAny(id, ":,;+<>\"") {
		return syntaxErr(no, "invalid participant name %q", id)
	}
	return nil
}

// trimWrap strips the wrap:/nowrap: prefixes Mermaid allows on text.
func trimWrap(s string) string {
	s = strings.TrimSpace(s)
	for _, prefix := range []string{"wrap:", "nowrap:"} {
		if rest, ok := strings.CutPrefix(s, prefix); ok {
			return strings.TrimSpace(rest)
		}
	}
	return s
}

// splitBoxColor separates an optional leading color from a box title.
func splitBoxColor(s string) (string, string) {
	s = strings.TrimSpace(s)
	lower := strings.ToLower(s)
	if strings.HasPrefix(lower, "rgb(") || strings.HasPrefix(lower, "rgba(") {
		if end := strings.IndexByte(s, ')'); end >= 0 {
			return s[:end+1], strings.TrimSpace(s[end+1:])
		}
	}
	first, rest := splitKeyword(s)
	if strings.HasPrefix(first, "#") || strings.EqualFold(first, "transparent") {
		return first, rest
	}
	if _, ok := colornames.Map[strings.ToLower(first)]; ok {
		return first, rest
	}
	return "", s
}
