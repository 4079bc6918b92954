package render

import (
	"strings"
	"testing"

	"github.com/matzehuels/mermaidpng/pkg/mermaid"
)

func mustDOT(t *testing.T, src string, opts DOTOptions) string {
	t.Helper()
	d, err := mermaid.Parse(src)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return ToDOT(d, opts)
}

func assertContains(t *testing.T, dot string, want ...string) {
	t.Helper()
	for _, w := range want {
		if !strings.Contains(dot, w) {
			t.Errorf("DOT missing %s\n%s", w, dot)
		}
	}
}

func TestToDOT_Flowchart(t *testing.T) {
	dot := mustDOT(t, `flowchart LR
    A[Start] --> B{Decide}
    B -->|yes| C((Done))
    B -.-> D[(Store)]
    C ==> E
    A --- E
`, DOTOptions{ID: "mermaid-x-1", FontFamily: "arial"})

	assertContains(t, dot,
		`digraph "mermaid-x-1" {`,
		`rankdir="LR"`,
		`bgcolor="transparent"`,
		`fontname="arial"`,
		`"A" [label="Start"]`,
		`"B" [label="Decide", shape="diamond"]`,
		`"C" [label="Done", shape="circle"]`,
		`"D" [label="Store", shape="cylinder"]`,
		`"B" -> "C" [label=" yes ", dir="forward", arrowhead="normal"]`,
		`"B" -> "D" [style="dashed", dir="forward", arrowhead="normal"]`,
		`"C" -> "E" [penwidth="2.5", dir="forward", arrowhead="normal"]`,
		`"A" -> "E" [dir="none"]`,
	)
}

func TestToDOT_DefaultsWithoutOptions(t *testing.T) {
	dot := mustDOT(t, "graph TD\nA-->B", DOTOptions{})
	def, _ := BuiltinTheme("default")

	assertContains(t, dot,
		`digraph "G" {`,
		`rankdir="TB"`,
		`fillcolor="`+strings.ToLower(def.PrimaryColor)+`"`,
	)
}

func TestToDOT_Subgraphs(t *testing.T) {
	dot := mustDOT(t, `flowchart TB
    subgraph outer [Outer box]
        subgraph inner
            a1 --> a2
        end
        b1
    end
    subgraph empty
    end
    c --> outer
    outer --> empty
`, DOTOptions{})

	assertContains(t, dot,
		`subgraph "cluster_outer" {`,
		`label="Outer box"`,
		`subgraph "cluster_inner" {`,
		`"__empty__empty" [label="", shape=point, style=invis, width=0];`,
		`"c" -> "a1" [lhead="cluster_outer"`,
		`"a1" -> "__empty__empty" [ltail="cluster_outer", lhead="cluster_empty"`,
	)
	if !strings.Contains(dot, `compound="true"`) {
		t.Error("compound edges need compound=true")
	}

	// inner opens inside outer.
	inner := strings.Index(dot, `"cluster_inner"`)
	outer := strings.Index(dot, `"cluster_outer"`)
	if outer < 0 || inner < outer {
		t.Errorf("cluster_inner should be nested after cluster_outer opens")
	}
}

func TestToDOT_Styles(t *testing.T) {
	dot := mustDOT(t, `flowchart LR
    classDef hot fill:#f96,stroke:#333,stroke-width:4px
    classDef default color:#111
    A:::hot --> B
    style B fill:rgb(0,128,255),stroke-dasharray:5 5
    linkStyle 0 stroke:#ff3,stroke-width:3px
`, DOTOptions{})

	assertContains(t, dot,
		`"A" [label="A", fontcolor="#111111", fillcolor="#ff9966", color="#333333", penwidth="4"]`,
		`fillcolor="#0080ff"`,
		`style="filled,dashed"`,
		`"A" -> "B" [dir="forward", arrowhead="normal", color="#ffff33", penwidth="3"]`,
	)
}

func TestToDOT_ClickSecurity(t *testing.T) {
	src := `flowchart LR
    A --> B
    click A "https://example.com" "Open"
    B["line one<br>line two"]
`

	strict := mustDOT(t, src, DOTOptions{Security: SecurityStrict})
	if strings.Contains(strict, "URL=") {
		t.Errorf("strict mode kept a click URL:\n%s", strict)
	}
	assertContains(t, strict, `"B" [label="line one line two"]`)

	loose := mustDOT(t, src, DOTOptions{Security: SecurityLoose})
	assertContains(t, loose,
		`URL="https://example.com"`,
		`tooltip="Open"`,
		`"B" [label="line one\nline two"]`,
	)
}

func TestToDOT_State(t *testing.T) {
	dot := mustDOT(t, `stateDiagram-v2
    [*] --> Idle
    Idle --> Busy : start
    state fork_state <<fork>>
    Busy --> fork_state
    Busy --> [*]
    note right of Idle : waiting
`, DOTOptions{})

	assertContains(t, dot,
		`"root_start" [label="", shape="circle", fixedsize="true"`,
		`"root_end" [label="", shape="doublecircle"`,
		`"Idle" [label="Idle", style="rounded,filled"]`,
		`"fork_state" [label="", fixedsize="true", width="1.1", height="0.1"`,
		`shape="note"`,
		`"Idle" -> "Busy" [label=" start ", dir="forward", arrowhead="normal"]`,
	)
}

func TestToDOT_Title(t *testing.T) {
	dot := mustDOT(t, "---\ntitle: My Flow\n---\nflowchart TD\nA-->B", DOTOptions{})
	assertContains(t, dot, `label="My Flow"`, `labelloc="t"`)
}
