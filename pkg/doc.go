// Package pkg provides the core libraries for mermaidpng, a batch converter
// from Mermaid diagram sources to PNG images.
//
// # Overview
//
// The pkg directory is organized by pipeline stage:
//
//  1. [locate] - Expand a glob into the sorted list of source files
//  2. [mermaid] - Parse Mermaid flowcharts, state and sequence diagrams
//  3. [render] - Lay out a diagram with Graphviz and produce SVG
//  4. [raster] - Draw the SVG onto a PNG canvas
//  5. [batch] - Drive the whole run with per-file failure isolation
//
// # Architecture
//
// The data flow for one file:
//
//	*.mmd source
//	     ↓
//	[mermaid] Parse (diagram model)
//	     ↓
//	[render] ToDOT + Engine (Graphviz layout → SVG)
//	     ↓
//	[raster] Rasterize (oksvg shapes + gg text → PNG)
//	     ↓
//	<output-dir>/<basename>.png
//
// # Quick Start
//
//	engine, _ := render.NewGraphvizEngine(ctx)
//	defer engine.Close()
//
//	renderer := render.New(engine, render.Options{})
//	rasterizer := raster.New(raster.Options{})
//
//	runner := batch.NewRunner(renderer, rasterizer, nil, nil)
//	summary, err := runner.Run(ctx, batch.Options{
//	    Pattern:   "diagrams/**/*.mmd",
//	    OutputDir: "diagrams",
//	})
//
// # Supporting Packages
//
// [config] - Settings from MERMAID_* environment variables, a .env file and
// command-line flags, validated before a run starts.
//
// [fonts] - Font lookup on the host with an embedded fallback.
//
// [errors] - Coded errors; the code decides whether a failure is per-file or
// aborts the run.
//
// [observability] - Hooks for run, file and stage events.
//
// [buildinfo] - Version information injected at build time.
//
// # Testing
//
//	go test ./pkg/...          # All tests
//	go test -short ./pkg/...   # Skip tests that start the Graphviz engine
//	go test -run Example       # Examples only
//
// [locate]: https://pkg.go.dev/github.com/matzehuels/mermaidpng/pkg/locate
// [mermaid]: https://pkg.go.dev/github.com/matzehuels/mermaidpng/pkg/mermaid
// [render]: https://pkg.go.dev/github.com/matzehuels/mermaidpng/pkg/render
// [raster]: https://pkg.go.dev/github.com/matzehuels/mermaidpng/pkg/raster
// [batch]: https://pkg.go.dev/github.com/matzehuels/mermaidpng/pkg/batch
// [config]: https://pkg.go.dev/github.com/matzehuels/mermaidpng/pkg/config
// [fonts]: https://pkg.go.dev/github.com/matzehuels/mermaidpng/pkg/fonts
// [errors]: https://pkg.go.dev/github.com/matzehuels/mermaidpng/pkg/errors
// [observability]: https://pkg.go.dev/github.com/matzehuels/mermaidpng/pkg/observability
// [buildinfo]: https://pkg.go.dev/github.com/matzehuels/mermaidpng/pkg/buildinfo
package pkg
