package mermaid

import (
	"maps"
	"regexp"
	"slices"
	"strconv"
	"strings"
)

// flowParser holds the subgraph stack while walking flowchart statements.
type flowParser struct {
	d      *Diagram
	stack  []*Subgraph
	anonID int
	// linkStyles keyed by edge index; -1 is "default".
	linkStyles map[int]Style
}

func (p *flowParser) parent() string {
	if len(p.stack) == 0 {
		return ""
	}
	return p.stack[len(p.stack)-1].ID
}

func parseFlowchart(d *Diagram, lines []line) error {
	p := &flowParser{d: d, linkStyles: map[int]Style{}}
	for _, ln := range lines {
		for _, stmt := range splitStatements(ln.text) {
			stmt = strings.TrimSpace(stmt)
			if stmt == "" {
				continue
			}
			if err := p.statement(stmt, ln.no); err != nil {
				return err
			}
		}
	}
	if len(p.stack) > 0 {
		return syntaxErr(lines[len(lines)-1].no, "subgraph %q is missing \"end\"", p.stack[len(p.stack)-1].ID)
	}
	p.applyLinkStyles()
	p.detachSubgraphRefs()
	return nil
}

var (
	subgraphTitleRe = regexp.MustCompile(`^(\S+?)\s*\[\s*"?(.*?)"?\s*\]$`)
	clickRe         = regexp.MustCompile(`^click\s+(\S+)\s+(?:href\s+)?"([^"]+)"(?:\s+"([^"]*)")?`)
)

func (p *flowParser) statement(stmt string, no int) error {
	keyword, rest := splitKeyword(stmt)
	switch keyword {
	case "subgraph":
		return p.subgraph(rest, no)
	case "end":
		if len(p.stack) == 0 {
			return syntaxErr(no, "\"end\" without matching subgraph")
		}
		p.stack = p.stack[:len(p.stack)-1]
		return nil
	case "direction":
		dir, ok := parseDirection(rest)
		if !ok {
			return syntaxErr(no, "invalid direction %q", rest)
		}
		if len(p.stack) == 0 {
			p.d.Direction = dir
		} else {
			p.stack[len(p.stack)-1].Direction = dir
		}
		return nil
	case "classDef":
		return classDef(p.d, rest, no)
	case "class":
		return applyClass(p.d, rest, no)
	case "style":
		id, decl := splitKeyword(rest)
		if id == "" || decl == "" {
			return syntaxErr(no, "style needs an id and declarations")
		}
		if sg := p.d.Subgraph(id); sg != nil {
			sg.Style = sg.Style.merge(parseStyle(decl))
			return nil
		}
		n := p.d.ensureNode(id, p.parent())
		n.Style = n.Style.merge(parseStyle(decl))
		return nil
	case "linkStyle":
		return p.linkStyle(rest, no)
	case "click":
		m := clickRe.FindStringSubmatch(stmt)
		if m == nil {
			// Callback form (click id callback) needs a script runtime.
			p.d.warnf(no, "click callback ignored")
			return nil
		}
		n := p.d.ensureNode(m[1], p.parent())
		n.URL = m[2]
		n.Tooltip = m[3]
		return nil
	case "accTitle", "accDescr", "accTitle:", "accDescr:":
		return nil
	}
	return p.chain(stmt, no)
}

func (p *flowParser) subgraph(rest string, no int) error {
	var id, title string
	rest = strings.TrimSpace(rest)
	switch {
	case rest == "":
		p.anonID++
		id = "subGraph" + strconv.Itoa(p.anonID)
	case strings.HasPrefix(rest, `"`):
		title = strings.Trim(rest, `"`)
		p.anonID++
		id = "subGraph" + strconv.Itoa(p.anonID)
	default:
		if m := subgraphTitleRe.FindStringSubmatch(rest); m != nil {
			id, title = m[1], m[2]
		} else if strings.ContainsAny(rest, " \t") {
			// "subgraph Some title" uses the text as both ID and title.
			id, title = rest, rest
		} else {
			id = rest
		}
	}
	if title == "" {
		title = id
	}
	sg := p.d.addSubgraph(&Subgraph{ID: id, Title: title, Parent: p.parent()})
	p.stack = append(p.stack, sg)
	return nil
}

// chain parses "A --> B & C -.-> D" style statements.
func (p *flowParser) chain(stmt string, no int) error {
	sc := newScanner(stmt, no)
	from, err := p.nodeGroup(sc)
	if err != nil {
		return err
	}
	for {
		sc.skipSpace()
		if sc.eof() {
			return nil
		}
		lk, ok, err := sc.link()
		if err != nil {
			return err
		}
		if !ok {
			return sc.errorf("unexpected %q", truncate(sc.rest(), 20))
		}
		sc.skipSpace()
		if sc.eof() {
			return sc.errorf("link has no target node")
		}
		to, err := p.nodeGroup(sc)
		if err != nil {
			return err
		}
		for _, f := range from {
			for _, t := range to {
				p.d.addEdge(&Edge{
					From:   f,
					To:     t,
					Label:  lk.label,
					Stroke: lk.stroke,
					Head:   lk.head,
					Tail:   lk.tail,
					Length: lk.length,
				})
			}
		}
		from = to
	}
}

// nodeGroup parses one or more nodes joined by '&'.
func (p *flowParser) nodeGroup(sc *scanner) ([]string, error) {
	var ids []string
	for {
		sc.skipSpace()
		id, err := p.node(sc)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
		sc.skipSpace()
		if sc.peek() != '&' {
			return ids, nil
		}
		sc.pos++
	}
}

// node parses an ID with optional shape and :::class suffix.
func (p *flowParser) node(sc *scanner) (string, error) {
	id := sc.ident()
	if id == "" {
		if sc.eof() {
			return "", sc.errorf("expected node")
		}
		return "", sc.errorf("expected node, got %q", truncate(sc.rest(), 20))
	}
	shape, label, hasShape, err := sc.shape()
	if err != nil {
		return "", err
	}

	// A bare reference to a subgraph is an edge endpoint, not a node.
	if !hasShape && p.d.Subgraph(id) != nil {
		return id, nil
	}

	n := p.d.ensureNode(id, p.parent())
	if hasShape {
		n.Shape = shape
		n.Label = label
	}
	if strings.HasPrefix(sc.rest(), ":::") {
		sc.pos += 3
		cls := sc.ident()
		if cls == "" {
			return "", sc.errorf("expected class name after \":::\"")
		}
		n.Classes = append(n.Classes, cls)
	}
	return id, nil
}

func (p *flowParser) linkStyle(rest string, no int) error {
	which, decl := splitKeyword(rest)
	if which == "" || decl == "" {
		return syntaxErr(no, "linkStyle needs edge indexes and declarations")
	}
	st := parseStyle(decl)
	if which == "default" {
		p.linkStyles[-1] = p.linkStyles[-1].merge(st)
		return nil
	}
	for _, part := range strings.Split(which, ",") {
		idx, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || idx < 0 {
			return syntaxErr(no, "invalid linkStyle index %q", part)
		}
		p.linkStyles[idx] = p.linkStyles[idx].merge(st)
	}
	return nil
}

func (p *flowParser) applyLinkStyles() {
	def := p.linkStyles[-1]
	for i, e := range p.d.Edges {
		if def != nil {
			e.Style = e.Style.merge(def)
		}
		if st, ok := p.linkStyles[i]; ok {
			e.Style = e.Style.merge(st)
		}
	}
	for _, idx := range slices.Sorted(maps.Keys(p.linkStyles)) {
		if idx >= len(p.d.Edges) {
			p.d.Warnings = append(p.d.Warnings, "linkStyle index "+strconv.Itoa(idx)+" has no matching link")
		}
	}
}

// detachSubgraphRefs drops nodes that were referenced before a subgraph of
// the same ID was declared.
func (p *flowParser) detachSubgraphRefs() {
	for _, sg := range p.d.Subgraphs {
		if n := p.d.Node(sg.ID); n != nil && n.Label == n.ID {
			p.d.removeNode(sg.ID)
		}
	}
}

// classDef parses "name[,name] fill:#f9f,stroke:#333".
func classDef(d *Diagram, rest string, no int) error {
	names, decl := splitKeyword(rest)
	if names == "" || decl == "" {
		return syntaxErr(no, "classDef needs a name and declarations")
	}
	st := parseStyle(decl)
	for _, name := range strings.Split(names, ",") {
		if name = strings.TrimSpace(name); name != "" {
			d.Classes[name] = d.Classes[name].merge(st)
		}
	}
	return nil
}

// applyClass parses "class a,b className".
func applyClass(d *Diagram, rest string, no int) error {
	ids, name := splitKeyword(rest)
	name = strings.TrimSpace(name)
	if ids == "" || name == "" {
		return syntaxErr(no, "class needs node ids and a class name")
	}
	for _, id := range strings.Split(ids, ",") {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if sg := d.Subgraph(id); sg != nil {
			sg.Classes = append(sg.Classes, name)
			continue
		}
		n := d.ensureNode(id, "")
		n.Classes = append(n.Classes, name)
	}
	return nil
}
