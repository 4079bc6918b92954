package render

import (
	"fmt"
	"html"
	"regexp"
	"strconv"
	"strings"

	"github.com/matzehuels/mermaidpng/pkg/errors"
)

// SecurityLevel controls how much of a diagram's markup is trusted.
type SecurityLevel string

// Security levels, named after Mermaid's securityLevel setting.
const (
	// SecurityStrict renders labels as plain text and ignores click links.
	SecurityStrict SecurityLevel = "strict"
	// SecurityLoose turns <br> into line breaks and keeps click links.
	SecurityLoose SecurityLevel = "loose"
	// SecurityAntiscript is loose, minus script URLs.
	SecurityAntiscript SecurityLevel = "antiscript"
	// SecuritySandbox is treated as strict: there is nothing to sandbox
	// in a static image.
	SecuritySandbox SecurityLevel = "sandbox"
)

// ParseSecurityLevel validates a security level name.
func ParseSecurityLevel(s string) (SecurityLevel, error) {
	switch lvl := SecurityLevel(strings.ToLower(strings.TrimSpace(s))); lvl {
	case "":
		return SecurityStrict, nil
	case SecurityStrict, SecurityLoose, SecurityAntiscript, SecuritySandbox:
		return lvl, nil
	}
	return "", errors.New(errors.ErrCodeInvalidConfig, "invalid security level %q (use strict, loose, antiscript or sandbox)", s)
}

func (l SecurityLevel) trustsMarkup() bool {
	return l == SecurityLoose || l == SecurityAntiscript
}

// allowURL reports whether a click URL survives at this level.
func (l SecurityLevel) allowURL(u string) bool {
	switch l {
	case SecurityLoose:
		return true
	case SecurityAntiscript:
		scheme, _, ok := strings.Cut(strings.ToLower(strings.TrimSpace(u)), ":")
		if !ok {
			return true
		}
		switch strings.Map(dropSpace, scheme) {
		case "javascript", "vbscript", "data":
			return false
		}
		return true
	}
	return false
}

func dropSpace(r rune) rune {
	if r == ' ' || r == '\t' || r == '\n' || r == '\r' {
		return -1
	}
	return r
}

var (
	breakRe  = regexp.MustCompile(`(?i)<br\s*/?>`)
	tagRe    = regexp.MustCompile(`</?[A-Za-z][^<>]*>`)
	entityRe = regexp.MustCompile(`#([A-Za-z][A-Za-z0-9]*|[0-9]+);`)
	spaceRe  = regexp.MustCompile(`[ \t]+`)
)

// cleanLabel turns Mermaid label text into the plain text drawn in the
// image. Mermaid entity codes (#quot;, #9829;) are decoded last so that
// escaped angle brackets survive tag stripping.
func cleanLabel(s string, level SecurityLevel) string {
	if strings.HasPrefix(s, "`") && strings.HasSuffix(s, "`") && len(s) >= 2 {
		s = strings.ReplaceAll(s[1:len(s)-1], "**", "")
	}
	if level.trustsMarkup() {
		s = breakRe.ReplaceAllString(s, "\n")
	} else {
		s = breakRe.ReplaceAllString(s, " ")
	}
	s = tagRe.ReplaceAllString(s, "")
	s = entityRe.ReplaceAllStringFunc(s, func(m string) string {
		if m[1] >= '0' && m[1] <= '9' {
			return html.UnescapeString("&#" + m[1:])
		}
		return html.UnescapeString("&" + m[1:])
	})

	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSpace(spaceRe.ReplaceAllString(l, " "))
	}
	return strings.Join(lines, "\n")
}

// dotQuote quotes s as a DOT string. Newlines become centered line breaks.
func dotQuote(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}

var rgbRe = regexp.MustCompile(`^rgba?\(\s*(\d+)\s*,\s*(\d+)\s*,\s*(\d+)\s*(?:,\s*([0-9.]+)\s*)?\)$`)

// dotColor converts a CSS color into a form Graphviz accepts: short hex is
// expanded, rgb()/rgba() become #rrggbb[aa], names pass through.
func dotColor(c string) string {
	c = strings.ToLower(strings.TrimSpace(c))
	if hex, ok := strings.CutPrefix(c, "#"); ok {
		switch len(hex) {
		case 3, 4:
			var b strings.Builder
			b.WriteByte('#')
			for _, r := range hex {
				b.WriteRune(r)
				b.WriteRune(r)
			}
			return b.String()
		}
		return c
	}
	if m := rgbRe.FindStringSubmatch(c); m != nil {
		out := "#"
		for _, part := range m[1:4] {
			n, _ := strconv.Atoi(part)
			out += fmt.Sprintf("%02x", min(n, 255))
		}
		if m[4] != "" {
			if a, err := strconv.ParseFloat(m[4], 64); err == nil && a < 1 {
				out += fmt.Sprintf("%02x", int(max(a, 0)*255+0.5))
			}
		}
		return out
	}
	if c == "none" {
		return "transparent"
	}
	return c
}
