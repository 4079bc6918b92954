// Package batch converts every Mermaid source matched by a glob into a PNG.
//
// A run locates files, creates the output directory once, then pushes each
// file through read, render, rasterize and write. A failing file is recorded
// and the run moves on; only errors outside the per-file loop (bad pattern,
// unwritable output directory, cancellation) abort the run.
//
//	r := batch.NewRunner(renderer, rasterizer, logger, batch.NewTextReporter(os.Stdout))
//	summary, err := r.Run(ctx, batch.Options{Pattern: "diagrams/**/*.mmd", OutputDir: "out"})
package batch

import (
	"cmp"
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/mermaidpng/pkg/errors"
	"github.com/matzehuels/mermaidpng/pkg/locate"
	"github.com/matzehuels/mermaidpng/pkg/observability"
	"github.com/matzehuels/mermaidpng/pkg/render"
)

// DefaultOutputDir receives PNGs when Options.OutputDir is empty.
const DefaultOutputDir = "diagrams"

// Renderer turns Mermaid source into SVG. *render.Renderer satisfies it.
type Renderer interface {
	Render(ctx context.Context, name, source string) (*render.SVG, error)
}

// Rasterizer turns SVG into PNG bytes. *raster.Rasterizer satisfies it.
type Rasterizer interface {
	Rasterize(ctx context.Context, svg []byte) ([]byte, error)
}

// Options controls a single run.
type Options struct {
	Pattern       string // glob; empty means locate.DefaultPattern
	OutputDir     string // empty means DefaultOutputDir
	Workers       int    // values below 2 process files strictly in order
	FailOnError   bool   // return PARTIAL_FAILURE when any file fails
	IncludeHidden bool
}

// Result is the outcome for one input file.
type Result struct {
	Input    string
	Output   string
	Duration time.Duration
	Err      error
}

// OK reports whether the file was converted.
func (r Result) OK() bool { return r.Err == nil }

// Summary aggregates a run. Results are in discovery order.
type Summary struct {
	RunID     string
	Pattern   string
	Succeeded int
	Failed    int
	Duration  time.Duration
	Results   []Result
}

// Total returns the number of files processed.
func (s *Summary) Total() int { return s.Succeeded + s.Failed }

// Runner executes batch runs. It holds no per-run state, so one Runner may
// serve several runs.
type Runner struct {
	renderer   Renderer
	rasterizer Rasterizer
	logger     *log.Logger
	reporter   Reporter
}

// NewRunner creates a runner. A nil logger uses log.Default(); a nil
// reporter writes plain lines to stdout.
func NewRunner(renderer Renderer, rasterizer Rasterizer, logger *log.Logger, reporter Reporter) *Runner {
	if logger == nil {
		logger = log.Default()
	}
	if reporter == nil {
		reporter = NewTextReporter(os.Stdout)
	}
	return &Runner{
		renderer:   renderer,
		rasterizer: rasterizer,
		logger:     logger,
		reporter:   reporter,
	}
}

// Run converts all files matching opts.Pattern.
//
// Per-file failures are reported and counted but never returned, unless
// opts.FailOnError is set, in which case a PARTIAL_FAILURE error accompanies
// the summary.
func (r *Runner) Run(ctx context.Context, opts Options) (*Summary, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()
	pattern := cmp.Or(strings.TrimSpace(opts.Pattern), locate.DefaultPattern)

	files, err := locate.Find(pattern, locate.Options{IncludeHidden: opts.IncludeHidden})
	if err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	summary := &Summary{RunID: runID, Pattern: pattern}
	logger := r.logger.With("run", runID[:8])

	if len(files) == 0 {
		logger.Debug("no matching files", "pattern", pattern)
		r.reporter.Empty(pattern)
		return summary, nil
	}

	outDir, err := filepath.Abs(cmp.Or(strings.TrimSpace(opts.OutputDir), DefaultOutputDir))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "resolve output directory")
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, errors.Wrap(errors.ErrCodeWrite, err, "create output directory %s", outDir)
	}

	logger.Info("starting run", "pattern", pattern, "files", len(files), "output", outDir)
	observability.Batch().OnRunStart(ctx, runID, pattern, len(files))

	summary.Results = make([]Result, len(files))
	groups := planOutputs(files, outDir, caseInsensitiveDir(outDir))
	for _, g := range groups {
		if len(g) > 1 {
			logger.Warn("inputs share an output file; the last one wins",
				"output", outputPath(outDir, files[g[0]]), "inputs", len(g))
		}
	}

	job := func(ctx context.Context, idx int) {
		in := files[idx]
		res := r.convert(ctx, logger, runID, in, outputPath(outDir, in))
		summary.Results[idx] = res
		if ctx.Err() != nil {
			return
		}
		if res.OK() {
			r.reporter.Converted(res.Input, res.Output)
		} else {
			r.reporter.Failed(res.Input, res.Err)
		}
	}

	if opts.Workers > 1 {
		err = runParallel(ctx, groups, opts.Workers, job)
	} else {
		err = runSequential(ctx, len(files), job)
	}

	for _, res := range summary.Results {
		switch {
		case res.Input == "":
		case res.OK():
			summary.Succeeded++
		default:
			summary.Failed++
		}
	}
	summary.Duration = time.Since(start)
	observability.Batch().OnRunComplete(ctx, runID, summary.Succeeded, summary.Failed, summary.Duration)

	if err != nil {
		logger.Warn("run interrupted", "succeeded", summary.Succeeded, "failed", summary.Failed)
		return summary, err
	}

	logger.Info("run complete",
		"succeeded", summary.Succeeded,
		"failed", summary.Failed,
		"duration", summary.Duration.Round(time.Millisecond))
	r.reporter.Summary(summary)

	if opts.FailOnError && summary.Failed > 0 {
		return summary, errors.New(errors.ErrCodePartialFailure,
			"%d of %d files failed", summary.Failed, summary.Total())
	}
	return summary, nil
}

// outputPath flattens input into dir, replacing its extension with .png.
func outputPath(dir, input string) string {
	base := filepath.Base(input)
	return filepath.Join(dir, strings.TrimSuffix(base, filepath.Ext(base))+".png")
}

// planOutputs groups file indexes by output path, keeping discovery order
// both across and within groups. In parallel runs each group goes to one
// worker, so the last input deterministically owns a shared output.
// foldCase treats paths differing only in case as one output.
func planOutputs(files []string, outDir string, foldCase bool) [][]int {
	var groups [][]int
	seen := make(map[string]int, len(files))
	for i, f := range files {
		key := outputPath(outDir, f)
		if foldCase {
			key = strings.ToLower(key)
		}
		if g, ok := seen[key]; ok {
			groups[g] = append(groups[g], i)
			continue
		}
		seen[key] = len(groups)
		groups = append(groups, []int{i})
	}
	return groups
}

func runSequential(ctx context.Context, n int, job func(context.Context, int)) error {
	for idx := range n {
		if err := ctx.Err(); err != nil {
			return err
		}
		job(ctx, idx)
	}
	return ctx.Err()
}

func runParallel(ctx context.Context, groups [][]int, workers int, job func(context.Context, int)) error {
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(workers)
	for _, g := range groups {
		eg.Go(func() error {
			for _, idx := range g {
				if err := ctx.Err(); err != nil {
					return err
				}
				job(ctx, idx)
			}
			return nil
		})
	}
	return eg.Wait()
}

// convert runs one file through every stage.
func (r *Runner) convert(ctx context.Context, logger *log.Logger, runID, input, output string) Result {
	start := time.Now()
	res := Result{Input: input, Output: output}
	observability.Batch().OnFileStart(ctx, runID, input)
	logger.Debug("converting", "file", input)

	res.Err = r.pipeline(ctx, logger, input, output)
	res.Duration = time.Since(start)

	observability.Batch().OnFileComplete(ctx, runID, input, output, res.Duration, res.Err)
	if res.Err != nil {
		switch {
		case ctx.Err() != nil:
		case errors.IsFileLevel(res.Err):
			logger.Error("conversion failed", "file", input, "err", res.Err)
		default:
			// Still isolated to this file, but not a failure any stage reports.
			logger.Error("unexpected conversion error", "file", input, "code", errors.GetCode(res.Err), "err", res.Err)
		}
		return res
	}
	logger.Debug("converted", "file", input, "output", output, "duration", res.Duration.Round(time.Millisecond))
	return res
}

// Convert runs a single file outside of a batch. An output path ending in
// .svg receives the rendered SVG; anything else receives a PNG. The
// directory of output must exist.
func (r *Runner) Convert(ctx context.Context, input, output string) Result {
	return r.convert(ctx, r.logger, "", input, output)
}

func (r *Runner) pipeline(ctx context.Context, logger *log.Logger, input, output string) error {
	var src []byte
	err := stage(ctx, observability.StageRead, input, func() error {
		var err error
		if src, err = os.ReadFile(input); err != nil {
			return errors.Wrap(errors.ErrCodeRead, err, "read source")
		}
		return nil
	})
	if err != nil {
		return err
	}

	var svg *render.SVG
	err = stage(ctx, observability.StageRender, input, func() error {
		var err error
		svg, err = r.renderer.Render(ctx, input, string(src))
		return err
	})
	if err != nil {
		return err
	}
	for _, w := range svg.Warnings {
		logger.Warn(w, "file", input)
	}

	if strings.EqualFold(filepath.Ext(output), ".svg") {
		return stage(ctx, observability.StageWrite, input, func() error {
			return writeFileAtomic(output, svg.Data)
		})
	}

	var png []byte
	err = stage(ctx, observability.StageRasterize, input, func() error {
		var err error
		png, err = r.rasterizer.Rasterize(ctx, svg.Data)
		return err
	})
	if err != nil {
		return err
	}

	return stage(ctx, observability.StageWrite, input, func() error {
		return writeFileAtomic(output, png)
	})
}

func stage(ctx context.Context, s observability.Stage, path string, fn func() error) error {
	hooks := observability.Stages()
	start := time.Now()
	hooks.OnStageStart(ctx, s, path)
	err := fn()
	hooks.OnStageComplete(ctx, s, path, time.Since(start), err)
	return err
}
