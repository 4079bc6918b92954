package render

import (
	"bytes"
	"context"
	"fmt"
	"sync"

	"github.com/goccy/go-graphviz"
)

// Engine lays out a DOT graph and returns it as SVG. A Renderer owns its
// engine; nothing is installed process-wide.
type Engine interface {
	RenderSVG(ctx context.Context, dot []byte) ([]byte, error)
	Close() error
}

// GraphvizEngine is an [Engine] backed by go-graphviz, which runs Graphviz
// compiled to WebAssembly. Calls are serialized; one instance is safe for
// concurrent use.
type GraphvizEngine struct {
	mu sync.Mutex
	gv *graphviz.Graphviz
}

// NewGraphvizEngine starts a Graphviz instance.
func NewGraphvizEngine(ctx context.Context) (*GraphvizEngine, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	return &GraphvizEngine{gv: gv}, nil
}

// RenderSVG parses dot and renders it with the dot layout.
func (e *GraphvizEngine) RenderSVG(ctx context.Context, dot []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.gv == nil {
		return nil, fmt.Errorf("graphviz engine closed")
	}

	g, err := graphviz.ParseBytes(dot)
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := e.gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return buf.Bytes(), nil
}

// Close releases the Graphviz instance. It is safe to call more than once.
func (e *GraphvizEngine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.gv == nil {
		return nil
	}
	err := e.gv.Close()
	e.gv = nil
	return err
}
