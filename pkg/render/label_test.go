package render

import (
	"testing"

	"github.com/matzehuels/mermaidpng/pkg/errors"
)

func TestCleanLabel(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		level SecurityLevel
		want  string
	}{
		{"plain", "Hello world", SecurityStrict, "Hello world"},
		{"strict br", "one<br>two", SecurityStrict, "one two"},
		{"loose br", "one<br/>two<BR />three", SecurityLoose, "one\ntwo\nthree"},
		{"tags stripped", "<b>bold</b> and <i>italic</i>", SecurityStrict, "bold and italic"},
		{"script stripped", "<script>alert(1)</script>x", SecurityLoose, "alert(1)x"},
		{"entity names", "say #quot;hi#quot;", SecurityStrict, `say "hi"`},
		{"entity numbers", "I #9829; Go", SecurityStrict, "I ♥ Go"},
		{"escaped brackets survive", "#lt;tag#gt;", SecurityStrict, "<tag>"},
		{"markdown string", "`**Bold** text`", SecurityStrict, "Bold text"},
		{"spaces collapsed", "  a \t  b  ", SecurityStrict, "a b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cleanLabel(tt.in, tt.level); got != tt.want {
				t.Errorf("cleanLabel(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestDotQuote(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"abc", `"abc"`},
		{`say "hi"`, `"say \"hi\""`},
		{`C:\path`, `"C:\\path"`},
		{"a\nb", `"a\nb"`},
		{"a\r\nb", `"a\nb"`},
	}

	for _, tt := range tests {
		if got := dotQuote(tt.in); got != tt.want {
			t.Errorf("dotQuote(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestDotColor(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"#f96", "#ff9966"},
		{"#F96A", "#ff9966aa"},
		{"#123456", "#123456"},
		{"rgb(255, 0, 16)", "#ff0010"},
		{"rgba(0,0,0,0.5)", "#00000080"},
		{"rgba(0,0,0,1)", "#000000"},
		{"Red", "red"},
		{"none", "transparent"},
	}

	for _, tt := range tests {
		if got := dotColor(tt.in); got != tt.want {
			t.Errorf("dotColor(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParseSecurityLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    SecurityLevel
		wantErr bool
	}{
		{"", SecurityStrict, false},
		{"strict", SecurityStrict, false},
		{"LOOSE", SecurityLoose, false},
		{" antiscript ", SecurityAntiscript, false},
		{"sandbox", SecuritySandbox, false},
		{"open", "", true},
	}

	for _, tt := range tests {
		got, err := ParseSecurityLevel(tt.in)
		if tt.wantErr {
			if !errors.Is(err, errors.ErrCodeInvalidConfig) {
				t.Errorf("ParseSecurityLevel(%q) error = %v, want INVALID_CONFIG", tt.in, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("ParseSecurityLevel(%q) = %q, %v, want %q", tt.in, got, err, tt.want)
		}
	}
}

func TestAllowURL(t *testing.T) {
	tests := []struct {
		level SecurityLevel
		url   string
		want  bool
	}{
		{SecurityStrict, "https://example.com", false},
		{SecuritySandbox, "https://example.com", false},
		{SecurityLoose, "https://example.com", true},
		{SecurityLoose, "javascript:alert(1)", true},
		{SecurityAntiscript, "https://example.com", true},
		{SecurityAntiscript, "java script:alert(1)", false},
		{SecurityAntiscript, "DATA:text/html,x", false},
		{SecurityAntiscript, "/relative/path", true},
	}

	for _, tt := range tests {
		if got := tt.level.allowURL(tt.url); got != tt.want {
			t.Errorf("%s.allowURL(%q) = %v, want %v", tt.level, tt.url, got, tt.want)
		}
	}
}
