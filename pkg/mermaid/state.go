package mermaid

import (
	"regexp"
	"strconv"
	"strings"
)

// stateParser tracks composite state nesting while walking a state diagram.
type stateParser struct {
	d     *Diagram
	stack []string
	notes int
	// open multi-line note
	note      *Node
	noteLines []string
}

func (p *stateParser) scope() string {
	if len(p.stack) == 0 {
		return ""
	}
	return p.stack[len(p.stack)-1]
}

var (
	stateAliasRe  = regexp.MustCompile(`^state\s+"([^"]*)"\s+as\s+(\S+?)(\s*\{)?$`)
	stateAliasRe2 = regexp.MustCompile(`^state\s+(\S+)\s+as\s+"([^"]*)"(\s*\{)?$`)
	stateStereoRe = regexp.MustCompile(`^state\s+(\S+)\s*<<(fork|join|choice)>>$`)
	stateBlockRe  = regexp.MustCompile(`^state\s+(\S+?)\s*(\{)?$`)
	noteInlineRe  = regexp.MustCompile(`^note\s+(left|right)\s+of\s+(\S+)\s*:\s*(.*)$`)
	noteBlockRe   = regexp.MustCompile(`^note\s+(left|right)\s+of\s+(\S+)\s*$`)
)

func parseState(d *Diagram, lines []line) error {
	p := &stateParser{d: d}
	for _, ln := range lines {
		stmt := strings.TrimSpace(ln.text)
		if p.note != nil {
			if stmt == "end note" {
				p.note.Label = strings.Join(p.noteLines, "\n")
				p.note, p.noteLines = nil, nil
			} else {
				p.noteLines = append(p.noteLines, stmt)
			}
			continue
		}
		stmt = strings.TrimSuffix(stmt, ";")
		if stmt == "" {
			continue
		}
		if err := p.statement(stmt, ln.no); err != nil {
			return err
		}
	}
	if p.note != nil {
		return syntaxErr(lines[len(lines)-1].no, "note is missing \"end note\"")
	}
	if len(p.stack) > 0 {
		return syntaxErr(lines[len(lines)-1].no, "composite state %q is missing \"}\"", p.scope())
	}
	return nil
}

func (p *stateParser) statement(stmt string, no int) error {
	keyword, rest := splitKeyword(stmt)
	switch {
	case stmt == "}":
		if len(p.stack) == 0 {
			return syntaxErr(no, "unexpected \"}\"")
		}
		p.stack = p.stack[:len(p.stack)-1]
		return nil
	case stmt == "--" || stmt == "||":
		// Concurrent region separator; regions share one cluster.
		return nil
	case keyword == "direction":
		dir, ok := parseDirection(rest)
		if !ok {
			return syntaxErr(no, "invalid direction %q", rest)
		}
		if sc := p.scope(); sc != "" {
			p.d.Subgraph(sc).Direction = dir
		} else {
			p.d.Direction = dir
		}
		return nil
	case keyword == "hide" || keyword == "scale" || strings.HasPrefix(keyword, "acc"):
		return nil
	case keyword == "classDef":
		return classDef(p.d, rest, no)
	case keyword == "class":
		return applyClass(p.d, rest, no)
	case keyword == "style":
		id, decl := splitKeyword(rest)
		if id == "" || decl == "" {
			return syntaxErr(no, "style needs an id and declarations")
		}
		n := p.d.ensureNode(id, p.scope())
		n.Style = n.Style.merge(parseStyle(decl))
		return nil
	case keyword == "state":
		return p.stateDecl(stmt, no)
	case keyword == "note":
		return p.noteDecl(stmt, no)
	}
	return p.transition(stmt, no)
}

func (p *stateParser) stateDecl(stmt string, no int) error {
	if m := stateAliasRe.FindStringSubmatch(stmt); m != nil {
		return p.define(m[2], m[1], m[3] != "")
	}
	if m := stateAliasRe2.FindStringSubmatch(stmt); m != nil {
		return p.define(m[1], m[2], m[3] != "")
	}
	if m := stateStereoRe.FindStringSubmatch(stmt); m != nil {
		n := p.d.ensureNode(m[1], p.scope())
		n.Label = ""
		switch m[2] {
		case "fork":
			n.Shape = ShapeFork
		case "join":
			n.Shape = ShapeJoin
		case "choice":
			n.Shape = ShapeChoice
		}
		return nil
	}
	if m := stateBlockRe.FindStringSubmatch(stmt); m != nil {
		return p.define(m[1], "", m[2] != "")
	}
	return syntaxErr(no, "invalid state declaration %q", truncate(stmt, 40))
}

// define declares a state, opening a composite scope when block is set.
func (p *stateParser) define(id, label string, block bool) error {
	if !block {
		n := p.d.ensureNode(id, p.scope())
		if label != "" {
			n.Label = label
		}
		return nil
	}
	title := label
	if title == "" {
		title = id
	}
	if n := p.d.Node(id); n != nil {
		if label == "" && n.Label != n.ID {
			title = n.Label
		}
		p.d.removeNode(id)
	}
	sg := p.d.addSubgraph(&Subgraph{ID: id, Title: title, Parent: p.scope()})
	if label != "" {
		sg.Title = label
	}
	p.stack = append(p.stack, id)
	return nil
}

func (p *stateParser) noteDecl(stmt string, no int) error {
	var side, target, text string
	if m := noteInlineRe.FindStringSubmatch(stmt); m != nil {
		side, target, text = m[1], m[2], m[3]
	} else if m := noteBlockRe.FindStringSubmatch(stmt); m != nil {
		side, target = m[1], m[2]
	} else {
		return syntaxErr(no, "invalid note %q", truncate(stmt, 40))
	}

	p.notes++
	id := "note" + strconv.Itoa(p.notes)
	p.d.ensureNode(target, p.scope())
	n := p.d.ensureNode(id, p.scope())
	n.Shape = ShapeNote
	n.Label = text
	e := &Edge{Stroke: StrokeDotted, Head: ArrowNone}
	if side == "left" {
		e.From, e.To = id, target
	} else {
		e.From, e.To = target, id
	}
	p.d.addEdge(e)
	if text == "" {
		p.note = n
	}
	return nil
}

// transition parses "A --> B : label", "[*] --> A", "A : description" and
// bare state references.
func (p *stateParser) transition(stmt string, no int) error {
	sc := newScanner(stmt, no)
	from := sc.stateRef()
	if from == "" {
		return sc.errorf("expected state, got %q", truncate(sc.rest(), 20))
	}
	sc.skipSpace()

	if sc.eof() {
		if from == "[*]" {
			return sc.errorf("[*] must be part of a transition")
		}
		p.d.ensureNode(from, p.scope())
		return nil
	}

	if sc.peek() == ':' {
		if from == "[*]" {
			return sc.errorf("[*] cannot have a description")
		}
		desc := strings.TrimSpace(sc.rest()[1:])
		n := p.d.ensureNode(from, p.scope())
		if n.Label == n.ID {
			n.Label = desc
		} else if desc != "" {
			n.Label += "\n" + desc
		}
		return nil
	}

	if !strings.HasPrefix(sc.rest(), "-->") {
		return sc.errorf("expected \"-->\", got %q", truncate(sc.rest(), 20))
	}
	sc.pos += 3
	sc.skipSpace()
	to := sc.stateRef()
	if to == "" {
		return sc.errorf("transition has no target state")
	}
	sc.skipSpace()

	var label string
	if !sc.eof() {
		if sc.peek() != ':' {
			return sc.errorf("unexpected %q", truncate(sc.rest(), 20))
		}
		label = strings.TrimSpace(sc.rest()[1:])
	}

	p.d.addEdge(&Edge{
		From:  p.endpoint(from, true),
		To:    p.endpoint(to, false),
		Label: label,
		Head:  ArrowPoint,
	})
	return nil
}

// endpoint resolves [*] to the start or end pseudo-state of the current
// scope and makes sure regular states exist.
func (p *stateParser) endpoint(ref string, source bool) string {
	scope := p.scope()
	if ref != "[*]" {
		if p.d.Subgraph(ref) == nil {
			p.d.ensureNode(ref, scope)
		}
		return ref
	}
	prefix := scope
	if prefix == "" {
		prefix = "root"
	}
	id, shape := prefix+"_start", ShapeStart
	if !source {
		id, shape = prefix+"_end", ShapeEnd
	}
	n := p.d.ensureNode(id, scope)
	n.Shape = shape
	n.Label = ""
	return id
}
