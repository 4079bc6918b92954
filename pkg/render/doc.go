// Package render turns Mermaid source into SVG without a browser.
//
// # Overview
//
// The pipeline is:
//
//	mermaid.Parse -> ToDOT -> Engine.RenderSVG -> viewBox normalization
//
// Layout is delegated to an [Engine]. The default [GraphvizEngine] runs
// Graphviz (compiled to WebAssembly by go-graphviz) inside the process; the
// Renderer holds it explicitly, so nothing global is mutated and tests can
// inject a fake.
//
//	engine, err := render.NewGraphvizEngine(ctx)
//	if err != nil {
//	    return err
//	}
//	defer engine.Close()
//
//	r := render.New(engine, render.Options{Security: render.SecurityStrict})
//	svg, err := r.Render(ctx, "flow.mmd", source)
//
// Sequence diagrams are not graphs, so Graphviz cannot place their
// lifelines. [ToSequenceSVG] lays them out in columns and draws the SVG
// itself, measuring labels with the fonts the rasterizer will use.
//
// # Themes
//
// Built-in themes mirror Mermaid's: default, neutral, dark, forest and base.
// [LoadTheme] also accepts a path to a TOML file:
//
//	extends = "dark"
//	primary_color = "#2b2b40"
//	line_color = "#f0f0f0"
//
// Diagrams may pick a built-in theme and override theme variables through
// frontmatter or %%{init: ...}%% directives.
//
// # Diagram IDs
//
// Every Render call gets a fresh ID from [NewDiagramID]. The ID names the
// graph in the SVG and never changes the drawing, so repeated renders
// rasterize to identical pixels.
//
// # Security
//
// [SecurityStrict] (the default) draws labels as plain text and drops click
// links. [SecurityLoose] keeps <br> line breaks and link targets.
package render
