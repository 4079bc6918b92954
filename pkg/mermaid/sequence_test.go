package mermaid

import (
	"testing"

	"github.com/matzehuels/mermaidpng/pkg/errors"
)

func stepKinds(s *Sequence) []StepKind {
	kinds := make([]StepKind, len(s.Steps))
	for i, st := range s.Steps {
		kinds[i] = st.Kind
	}
	return kinds
}

func sameKinds(a, b []StepKind) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestSequence_Participants(t *testing.T) {
	src := `sequenceDiagram
    participant A as Alice
    actor B as Bob
    participant Web-Server
    A->>B: Hello
    C->>A: joins implicitly
`
	d := mustParse(t, src)
	if d.Kind != KindSequence || d.Sequence == nil {
		t.Fatalf("Kind = %q, Sequence = %v", d.Kind, d.Sequence)
	}

	var ids []string
	for _, p := range d.Sequence.Participants {
		ids = append(ids, p.ID)
	}
	want := []string{"A", "B", "Web-Server", "C"}
	if len(ids) != len(want) {
		t.Fatalf("participants = %v, want %v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("participants = %v, want %v", ids, want)
		}
	}

	if p := d.Sequence.Participant("A"); p.Label != "Alice" || p.Actor {
		t.Errorf("A = %+v", p)
	}
	if p := d.Sequence.Participant("B"); p.Label != "Bob" || !p.Actor {
		t.Errorf("B = %+v", p)
	}
	if p := d.Sequence.Participant("C"); p.Label != "C" || p.Box != -1 {
		t.Errorf("C = %+v", p)
	}
	if got := d.Sequence.Index("Web-Server"); got != 2 {
		t.Errorf("Index(Web-Server) = %d, want 2", got)
	}
	if got := d.Sequence.Index("nobody"); got != -1 {
		t.Errorf("Index(nobody) = %d, want -1", got)
	}
}

func TestSequence_Arrows(t *testing.T) {
	src := `sequenceDiagram
    A->>B: solid
    B-->>A: dotted
    A-xB: lost
    A--xB: lost dotted
    A-)B: async
    A<<->>B: both ways
    A->B: plain
    B->>B: self
`
	d := mustParse(t, src)

	tests := []struct {
		from, to   string
		text       string
		stroke     Stroke
		head, tail Arrow
	}{
		{"A", "B", "solid", StrokeNormal, ArrowPoint, ArrowNone},
		{"B", "A", "dotted", StrokeDotted, ArrowPoint, ArrowNone},
		{"A", "B", "lost", StrokeNormal, ArrowCross, ArrowNone},
		{"A", "B", "lost dotted", StrokeDotted, ArrowCross, ArrowNone},
		{"A", "B", "async", StrokeNormal, ArrowOpen, ArrowNone},
		{"A", "B", "both ways", StrokeNormal, ArrowPoint, ArrowPoint},
		{"A", "B", "plain", StrokeNormal, ArrowNone, ArrowNone},
		{"B", "B", "self", StrokeNormal, ArrowPoint, ArrowNone},
	}
	if len(d.Sequence.Steps) != len(tests) {
		t.Fatalf("Steps = %d, want %d", len(d.Sequence.Steps), len(tests))
	}
	for i, tt := range tests {
		m := d.Sequence.Steps[i].Message
		if m == nil {
			t.Fatalf("step %d is not a message", i)
		}
		if m.From != tt.from || m.To != tt.to || m.Text != tt.text {
			t.Errorf("step %d = %s -> %s %q", i, m.From, m.To, m.Text)
		}
		if m.Stroke != tt.stroke || m.Head != tt.head || m.Tail != tt.tail {
			t.Errorf("step %d (%s) stroke/head/tail = %v/%v/%v", i, tt.text, m.Stroke, m.Head, m.Tail)
		}
	}
}

func TestSequence_Activation(t *testing.T) {
	src := `sequenceDiagram
    A->>+B: request
    B-->>-A: response
    activate A
    A->>A: think
    deactivate A
`
	d := mustParse(t, src)
	want := []StepKind{StepMessage, StepActivate, StepMessage, StepDeactivate, StepActivate, StepMessage, StepDeactivate}
	if got := stepKinds(d.Sequence); !sameKinds(got, want) {
		t.Fatalf("step kinds = %v, want %v", got, want)
	}
	if got := d.Sequence.Steps[1].Participant; got != "B" {
		t.Errorf("activated %q, want B", got)
	}
	if got := d.Sequence.Steps[3].Participant; got != "B" {
		t.Errorf("deactivated %q, want B", got)
	}
	if m := d.Sequence.Steps[2].Message; m.To != "A" {
		t.Errorf("shorthand left %q in the target", m.To)
	}
}

func TestSequence_Notes(t *testing.T) {
	src := `sequenceDiagram
    participant A
    participant B
    Note right of A: one
    note left of B: two
    Note over A,B: spans both
    Note over C: new lifeline
`
	d := mustParse(t, src)
	tests := []struct {
		placement NotePlacement
		parts     []string
		text      string
	}{
		{NoteRightOf, []string{"A"}, "one"},
		{NoteLeftOf, []string{"B"}, "two"},
		{NoteOver, []string{"A", "B"}, "spans both"},
		{NoteOver, []string{"C"}, "new lifeline"},
	}
	for i, tt := range tests {
		n := d.Sequence.Steps[i].Note
		if n == nil {
			t.Fatalf("step %d is not a note", i)
		}
		if n.Placement != tt.placement || n.Text != tt.text || len(n.Participants) != len(tt.parts) {
			t.Errorf("note %d = %+v", i, n)
			continue
		}
		for j := range tt.parts {
			if n.Participants[j] != tt.parts[j] {
				t.Errorf("note %d participants = %v, want %v", i, n.Participants, tt.parts)
			}
		}
	}
	if d.Sequence.Participant("C") == nil {
		t.Error("note did not declare C")
	}
}

func TestSequence_Blocks(t *testing.T) {
	src := `sequenceDiagram
    alt is sick
        Bob->>Alice: Not so good
    else is well
        Bob->>Alice: Feeling fresh
    end
    loop Every minute
        rect rgb(200, 150, 255)
            Alice-)Bob: ping
        end
    end
    par Alice to Bob
        Alice->>Bob: hi
    and Alice to John
        Alice->>John: hi
    end
`
	d := mustParse(t, src)
	want := []StepKind{
		StepBlockStart, StepMessage, StepBlockBranch, StepMessage, StepBlockEnd,
		StepBlockStart, StepBlockStart, StepMessage, StepBlockEnd, StepBlockEnd,
		StepBlockStart, StepMessage, StepBlockBranch, StepMessage, StepBlockEnd,
	}
	if got := stepKinds(d.Sequence); !sameKinds(got, want) {
		t.Fatalf("step kinds = %v, want %v", got, want)
	}

	steps := d.Sequence.Steps
	if b := steps[0].Block; b.Kind != "alt" || b.Label != "is sick" {
		t.Errorf("alt = %+v", b)
	}
	if b := steps[2].Block; b.Kind != "else" || b.Label != "is well" {
		t.Errorf("else = %+v", b)
	}
	if b := steps[6].Block; b.Kind != "rect" || b.Color != "rgb(200, 150, 255)" {
		t.Errorf("rect = %+v", b)
	}
	if b := steps[12].Block; b.Kind != "and" || b.Label != "Alice to John" {
		t.Errorf("and = %+v", b)
	}
}

func TestSequence_Autonumber(t *testing.T) {
	src := `sequenceDiagram
    A->>B: unnumbered
    autonumber 10 5
    A->>B: first
    B->>A: second
    autonumber off
    A->>B: plain again
    autonumber
    A->>B: restart
`
	d := mustParse(t, src)
	want := []int{0, 10, 15, 0, 1}
	for i, n := range want {
		if got := d.Sequence.Steps[i].Message.Number; got != n {
			t.Errorf("message %d number = %d, want %d", i, got, n)
		}
	}
}

func TestSequence_Boxes(t *testing.T) {
	src := `sequenceDiagram
    box Aqua Front end
        participant U as User
        participant W
    end
    box rgb(33, 66, 99)
        participant DB
    end
    participant Ext
    U->>W: click
`
	d := mustParse(t, src)
	if len(d.Sequence.Boxes) != 2 {
		t.Fatalf("Boxes = %d, want 2", len(d.Sequence.Boxes))
	}
	if b := d.Sequence.Boxes[0]; b.Color != "Aqua" || b.Label != "Front end" {
		t.Errorf("box 0 = %+v", b)
	}
	if b := d.Sequence.Boxes[1]; b.Color != "rgb(33, 66, 99)" || b.Label != "" {
		t.Errorf("box 1 = %+v", b)
	}
	for id, box := range map[string]int{"U": 0, "W": 0, "DB": 1, "Ext": -1} {
		if got := d.Sequence.Participant(id).Box; got != box {
			t.Errorf("%s.Box = %d, want %d", id, got, box)
		}
	}
}

func TestSequence_Statements(t *testing.T) {
	src := `sequenceDiagram
    title: Checkout
    A->>B: one; B->>A: two
    A->>B: I #9829; you
    destroy B
    accDescr {
        multi line
        description
    }
    A->>B: wrap:after the description
`
	d := mustParse(t, src)
	if d.Title != "Checkout" {
		t.Errorf("Title = %q", d.Title)
	}
	var texts []string
	for _, st := range d.Sequence.Steps {
		texts = append(texts, st.Message.Text)
	}
	want := []string{"one", "two", "I #9829; you", "after the description"}
	if len(texts) != len(want) {
		t.Fatalf("messages = %q, want %q", texts, want)
	}
	for i := range want {
		if texts[i] != want[i] {
			t.Errorf("message %d = %q, want %q", i, texts[i], want[i])
		}
	}
	if len(d.Warnings) != 1 {
		t.Errorf("Warnings = %v, want one for destroy", d.Warnings)
	}
}

func TestSequence_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"missing text", "sequenceDiagram\n  A->>B"},
		{"missing target", "sequenceDiagram\n  A->>: hi"},
		{"missing source", "sequenceDiagram\n  ->>B: hi"},
		{"not a statement", "sequenceDiagram\n  hello world"},
		{"deactivate inactive", "sequenceDiagram\n  deactivate A"},
		{"shorthand deactivate inactive", "sequenceDiagram\n  A-->>-B: done"},
		{"else outside alt", "sequenceDiagram\n  loop x\n  else y\n  end"},
		{"stray end", "sequenceDiagram\n  A->>B: hi\n  end"},
		{"unclosed block", "sequenceDiagram\n  alt x\n  A->>B: y"},
		{"unclosed box", "sequenceDiagram\n  box Team\n  participant A"},
		{"message in box", "sequenceDiagram\n  box\n  A->>B: hi\n  end"},
		{"nested box", "sequenceDiagram\n  box one\n  box two\n  end\n  end"},
		{"rect without color", "sequenceDiagram\n  rect\n  A->>B: hi\n  end"},
		{"note over three", "sequenceDiagram\n  Note over A,B,C: too many"},
		{"note left of two", "sequenceDiagram\n  Note left of A,B: too many"},
		{"note without text", "sequenceDiagram\n  Note over A"},
		{"bad autonumber", "sequenceDiagram\n  autonumber ten"},
		{"bad participant name", "sequenceDiagram\n  participant A\"B"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.src)
			if err == nil {
				t.Fatal("Parse() expected error")
			}
			if !errors.Is(err, errors.ErrCodeSyntax) {
				t.Errorf("error code = %v, want %v", errors.GetCode(err), errors.ErrCodeSyntax)
			}
		})
	}
}
