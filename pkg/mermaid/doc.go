// Package mermaid parses Mermaid diagram source into a graph model.
//
// # Overview
//
// Mermaid is a text format for diagrams. This package understands the
// kinds that cover the bulk of real-world usage:
//
//   - Flowcharts ("graph" and "flowchart" headers)
//   - State diagrams ("stateDiagram" and "stateDiagram-v2" headers)
//   - Sequence diagrams ("sequenceDiagram" header)
//
// Flowcharts and state diagrams are parsed into the same [Diagram] model of
// nodes, edges and nested subgraphs. Sequence diagrams fill
// [Diagram.Sequence] instead: participants in column order and a list of
// [Step] events (messages, notes, activations, blocks) in time order.
//
// # Preamble
//
// A diagram may start with YAML frontmatter and carry init directives:
//
//	---
//	title: Checkout
//	config:
//	  theme: forest
//	---
//	%%{init: {'themeVariables': {'primaryColor': '#ffcc00'}}}%%
//	flowchart LR
//	  cart --> pay
//
// Both feed [Diagram.Config]. Lines starting with %% are comments.
//
// # Errors
//
// Source that is not a supported diagram fails with an error coded
// UNSUPPORTED_DIAGRAM; malformed statements fail with SYNTAX_ERROR and the
// 1-based line number of the offending statement.
package mermaid
