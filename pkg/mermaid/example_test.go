package mermaid_test

import (
	"fmt"

	"github.com/matzehuels/mermaidpng/pkg/mermaid"
)

func ExampleParse() {
	d, err := mermaid.Parse(`flowchart LR
    start([Start]) --> check{Valid?}
    check -->|yes| done[Done]
    check -->|no| start`)
	if err != nil {
		fmt.Println(err)
		return
	}

	fmt.Println(d.Kind, d.Direction)
	for _, e := range d.Edges {
		fmt.Printf("%s -> %s %q\n", e.From, e.To, e.Label)
	}
	// Output:
	// flowchart LR
	// start -> check ""
	// check -> done "yes"
	// check -> start "no"
}

func ExampleParse_state() {
	d, _ := mermaid.Parse(`stateDiagram-v2
    [*] --> Idle
    Idle --> Running : start
    Running --> [*]`)

	for _, n := range d.Nodes {
		fmt.Println(n.ID, n.Shape)
	}
	// Output:
	// root_start start
	// Idle state
	// Running state
	// root_end end
}
