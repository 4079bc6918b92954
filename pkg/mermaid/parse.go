package mermaid

import (
	"fmt"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/matzehuels/mermaidpng/pkg/errors"
)

// line is one source line with its 1-based number.
type line struct {
	no   int
	text string
}

// otherKinds are Mermaid diagram headers this package recognizes but cannot
// draw.
var otherKinds = []string{
	"classDiagram", "classDiagram-v2", "erDiagram",
	"gantt", "pie", "journey", "gitGraph", "mindmap", "timeline",
	"quadrantChart", "requirementDiagram", "C4Context", "C4Container",
	"C4Component", "C4Dynamic", "C4Deployment", "sankey-beta", "xychart-beta",
	"block-beta", "packet-beta", "kanban", "architecture-beta", "zenuml",
}

// Parse parses Mermaid source into a Diagram.
func Parse(src string) (*Diagram, error) {
	lines, cfg, title, err := preamble(src)
	if err != nil {
		return nil, err
	}

	// First statement is the diagram header.
	hi := -1
	for i, ln := range lines {
		if strings.TrimSpace(ln.text) != "" {
			hi = i
			break
		}
	}
	if hi < 0 {
		return nil, errors.New(errors.ErrCodeSyntax, "no diagram definition found")
	}

	header := lines[hi]
	keyword, rest := splitKeyword(strings.TrimSuffix(strings.TrimSpace(header.text), ";"))
	body := lines[hi+1:]

	var d *Diagram
	switch {
	case keyword == "graph" || keyword == "flowchart" || keyword == "flowchart-elk":
		d = newDiagram(KindFlowchart)
		// "graph TD; A-->B" puts statements on the header line.
		dirPart, tail, _ := strings.Cut(rest, ";")
		if dirPart = strings.TrimSpace(dirPart); dirPart != "" {
			dir, ok := parseDirection(dirPart)
			if !ok {
				return nil, syntaxErr(header.no, "invalid direction %q", dirPart)
			}
			d.Direction = dir
		}
		if tail = strings.TrimSpace(tail); tail != "" {
			body = append([]line{{no: header.no, text: tail}}, body...)
		}
		if err := parseFlowchart(d, body); err != nil {
			return nil, err
		}
	case keyword == "stateDiagram" || keyword == "stateDiagram-v2":
		d = newDiagram(KindState)
		if err := parseState(d, body); err != nil {
			return nil, err
		}
	case keyword == "sequenceDiagram":
		d = newDiagram(KindSequence)
		d.Sequence = newSequence()
		if rest != "" {
			body = append([]line{{no: header.no, text: rest}}, body...)
		}
		if err := parseSequence(d, body); err != nil {
			return nil, err
		}
	default:
		for _, k := range otherKinds {
			if keyword == k {
				return nil, errors.New(errors.ErrCodeUnsupported, "diagram type %q is not supported", keyword)
			}
		}
		return nil, syntaxErr(header.no, "no diagram type detected (got %q)", truncate(header.text, 40))
	}

	d.Config = cfg
	if title != "" {
		d.Title = title
	}
	return d, nil
}

// preamble strips frontmatter, init directives and comments. The returned
// lines keep their original numbering.
func preamble(src string) ([]line, Config, string, error) {
	src = strings.TrimPrefix(src, "\uFEFF")
	raw := strings.Split(strings.ReplaceAll(src, "\r\n", "\n"), "\n")

	var cfg Config
	var title string
	start := 0

	// Frontmatter must open on the first non-blank line.
	for start < len(raw) && strings.TrimSpace(raw[start]) == "" {
		start++
	}
	if start < len(raw) && strings.TrimSpace(raw[start]) == "---" {
		end := -1
		for i := start + 1; i < len(raw); i++ {
			if strings.TrimSpace(raw[i]) == "---" {
				end = i
				break
			}
		}
		if end < 0 {
			return nil, cfg, "", syntaxErr(start+1, "unterminated frontmatter")
		}
		fm, err := parseFrontmatter(strings.Join(raw[start+1:end], "\n"))
		if err != nil {
			return nil, cfg, "", errors.Wrap(errors.ErrCodeSyntax, err, "line %d: invalid frontmatter", start+1)
		}
		cfg = fm.Config.config()
		title = fm.Title
		start = end + 1
	}

	var lines []line
	for i := start; i < len(raw); i++ {
		text := raw[i]
		trimmed := strings.TrimSpace(text)
		if m := directiveRe.FindStringSubmatch(trimmed); m != nil {
			dc, err := parseDirective(m[1])
			if err != nil {
				return nil, cfg, "", errors.Wrap(errors.ErrCodeSyntax, err, "line %d: invalid directive", i+1)
			}
			cfg = cfg.overlay(dc)
			continue
		}
		if strings.HasPrefix(trimmed, "%%") {
			continue
		}
		lines = append(lines, line{no: i + 1, text: stripTrailingComment(text)})
	}
	return lines, cfg, title, nil
}

var directiveRe = regexp.MustCompile(`^%%\{(.*)\}%%\s*$`)

// rawConfig is the YAML shape of config blocks. Theme variables may be
// numbers or strings, so they are decoded loosely.
type rawConfig struct {
	Theme          string         `yaml:"theme"`
	FontFamily     string         `yaml:"fontFamily"`
	ThemeVariables map[string]any `yaml:"themeVariables"`
}

func (r *rawConfig) config() Config {
	if r == nil {
		return Config{}
	}
	c := Config{Theme: r.Theme, FontFamily: r.FontFamily}
	if len(r.ThemeVariables) > 0 {
		c.ThemeVariables = make(map[string]string, len(r.ThemeVariables))
		for k, v := range r.ThemeVariables {
			c.ThemeVariables[k] = fmt.Sprint(v)
		}
	}
	return c
}

// overlay returns c with the non-empty settings of o applied on top.
func (c Config) overlay(o Config) Config {
	if o.Theme != "" {
		c.Theme = o.Theme
	}
	if o.FontFamily != "" {
		c.FontFamily = o.FontFamily
	}
	if len(o.ThemeVariables) > 0 {
		merged := make(map[string]string, len(c.ThemeVariables)+len(o.ThemeVariables))
		for k, v := range c.ThemeVariables {
			merged[k] = v
		}
		for k, v := range o.ThemeVariables {
			merged[k] = v
		}
		c.ThemeVariables = merged
	}
	return c
}

type frontmatter struct {
	Title  string     `yaml:"title"`
	Config *rawConfig `yaml:"config"`
}

func parseFrontmatter(s string) (*frontmatter, error) {
	var fm frontmatter
	if err := yaml.Unmarshal([]byte(s), &fm); err != nil {
		return nil, err
	}
	return &fm, nil
}

// parseDirective parses the body of %%{init: {...}}%%. The object is a
// JSON-like flow mapping, often single-quoted, which YAML accepts as is.
func parseDirective(body string) (Config, error) {
	var d struct {
		Init       *rawConfig `yaml:"init"`
		Initialize *rawConfig `yaml:"initialize"`
	}
	if err := yaml.Unmarshal([]byte("{"+body+"}"), &d); err != nil {
		return Config{}, err
	}
	if d.Init != nil {
		return d.Init.config(), nil
	}
	return d.Initialize.config(), nil
}

// stripTrailingComment removes a %% comment that follows a statement,
// ignoring %% inside quotes.
func stripTrailingComment(s string) string {
	inQuote := false
	for i := 0; i+1 < len(s); i++ {
		switch {
		case s[i] == '"':
			inQuote = !inQuote
		case !inQuote && s[i] == '%' && s[i+1] == '%':
			return s[:i]
		}
	}
	return s
}

// splitKeyword splits off the first whitespace-delimited word.
func splitKeyword(s string) (string, string) {
	s = strings.TrimSpace(s)
	if i := strings.IndexAny(s, " \t"); i >= 0 {
		return s[:i], strings.TrimSpace(s[i+1:])
	}
	return s, ""
}

// splitStatements splits a line on semicolons outside quotes and brackets.
func splitStatements(s string) []string {
	var out []string
	depth, inQuote, start := 0, false, 0
	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case c == '"':
			inQuote = !inQuote
		case inQuote:
		case c == '[' || c == '(' || c == '{':
			depth++
		case c == ']' || c == ')' || c == '}':
			if depth > 0 {
				depth--
			}
		case c == ';' && depth == 0:
			out = append(out, s[start:i])
			start = i + 1
		}
	}
	return append(out, s[start:])
}

func syntaxErr(lineNo int, format string, args ...any) error {
	return errors.New(errors.ErrCodeSyntax, "%s", lineMsg(lineNo, fmt.Sprintf(format, args...)))
}

func lineMsg(lineNo int, msg string) string {
	return fmt.Sprintf("line %d: %s", lineNo, msg)
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
