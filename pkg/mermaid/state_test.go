package mermaid

import (
	"testing"

	"github.com/matzehuels/mermaidpng/pkg/errors"
)

func TestState_Transitions(t *testing.T) {
	src := `stateDiagram-v2
    [*] --> Still
    Still --> [*]
    Still --> Moving : push
    Moving --> Crash
    Crash --> [*]
`
	d := mustParse(t, src)

	if len(d.Edges) != 5 {
		t.Fatalf("Edges = %d, want 5", len(d.Edges))
	}
	if e := d.Edges[0]; e.From != "root_start" || e.To != "Still" {
		t.Errorf("edge 0 = %s -> %s", e.From, e.To)
	}
	if e := d.Edges[1]; e.From != "Still" || e.To != "root_end" {
		t.Errorf("edge 1 = %s -> %s", e.From, e.To)
	}
	if e := d.Edges[2]; e.Label != "push" || e.Head != ArrowPoint {
		t.Errorf("edge 2 = %+v", e)
	}
	if n := d.Node("root_start"); n == nil || n.Shape != ShapeStart {
		t.Errorf("root_start = %+v", n)
	}
	if n := d.Node("root_end"); n == nil || n.Shape != ShapeEnd {
		t.Errorf("root_end = %+v", n)
	}
	if n := d.Node("Still"); n.Shape != ShapeState {
		t.Errorf("Still.Shape = %v, want state", n.Shape)
	}
}

func TestState_Descriptions(t *testing.T) {
	src := `stateDiagram
    state "Waiting for input" as Wait
    Busy : Working hard
    Busy : still working
    Wait --> Busy
`
	d := mustParse(t, src)
	if got := d.Node("Wait").Label; got != "Waiting for input" {
		t.Errorf("Wait.Label = %q", got)
	}
	if got := d.Node("Busy").Label; got != "Working hard\nstill working" {
		t.Errorf("Busy.Label = %q", got)
	}
}

func TestState_Composite(t *testing.T) {
	src := `stateDiagram-v2
    [*] --> First
    state First {
        direction LR
        [*] --> second
        second --> [*]
    }
    First --> Done
`
	d := mustParse(t, src)

	sg := d.Subgraph("First")
	if sg == nil {
		t.Fatal("composite state First not found")
	}
	if sg.Direction != DirLR {
		t.Errorf("First.Direction = %q, want LR", sg.Direction)
	}
	if d.Node("First") != nil {
		t.Error("composite state must not remain a plain node")
	}
	if n := d.Node("First_start"); n == nil || n.Parent != "First" {
		t.Errorf("First_start = %+v", n)
	}
	if got := d.Node("second").Parent; got != "First" {
		t.Errorf("second.Parent = %q, want First", got)
	}
	if e := d.Edges[0]; e.To != "First" {
		t.Errorf("edge 0 target = %q, want First", e.To)
	}
}

func TestState_Stereotypes(t *testing.T) {
	src := `stateDiagram-v2
    state fork_state <<fork>>
    state join_state <<join>>
    state if_state <<choice>>
    [*] --> fork_state
    fork_state --> A
    fork_state --> B
    A --> join_state
    B --> join_state
    join_state --> if_state
`
	d := mustParse(t, src)
	for id, shape := range map[string]Shape{"fork_state": ShapeFork, "join_state": ShapeJoin, "if_state": ShapeChoice} {
		if n := d.Node(id); n == nil || n.Shape != shape {
			t.Errorf("%s = %+v, want shape %v", id, n, shape)
		}
	}
}

func TestState_Notes(t *testing.T) {
	src := `stateDiagram-v2
    State1 : The state with a note
    note right of State1
        Important information!
        You can write notes.
    end note
    note left of State2 : This is the note to the left.
`
	d := mustParse(t, src)

	n1 := d.Node("note1")
	if n1 == nil || n1.Shape != ShapeNote {
		t.Fatalf("note1 = %+v", n1)
	}
	if n1.Label != "Important information!\nYou can write notes." {
		t.Errorf("note1.Label = %q", n1.Label)
	}
	n2 := d.Node("note2")
	if n2 == nil || n2.Label != "This is the note to the left." {
		t.Errorf("note2 = %+v", n2)
	}
	if d.Node("State2") == nil {
		t.Error("note target State2 should be created")
	}

	var noteEdges int
	for _, e := range d.Edges {
		if e.Stroke == StrokeDotted && e.Head == ArrowNone {
			noteEdges++
		}
	}
	if noteEdges != 2 {
		t.Errorf("note edges = %d, want 2", noteEdges)
	}
}

func TestState_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"single dash arrow", "stateDiagram-v2\n  A -> B"},
		{"missing target", "stateDiagram-v2\n  A -->"},
		{"unclosed composite", "stateDiagram-v2\n  state X {\n  A --> B"},
		{"stray brace", "stateDiagram-v2\n  }"},
		{"unclosed note", "stateDiagram-v2\n  note right of A\n  text"},
		{"lonely pseudo state", "stateDiagram-v2\n  [*]"},
		{"trailing garbage", "stateDiagram-v2\n  A --> B C"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.src)
			if !errors.Is(err, errors.ErrCodeSyntax) {
				t.Errorf("Parse() error = %v, want %s", err, errors.ErrCodeSyntax)
			}
		})
	}
}
