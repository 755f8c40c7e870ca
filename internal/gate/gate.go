package gate

import (
	"context"
	"fmt"
	"io"
	"runtime"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"scenegate/internal/analyzer"
	coreerrors "scenegate/internal/core/errors"
	"scenegate/internal/finding"
	"scenegate/internal/output"
	"scenegate/internal/shared/observability"
)

// Exit dispositions. Callers must treat anything non-zero as "do not
// execute the scripts".
const (
	ExitPass      = 0
	ExitViolation = 2
)

type Options struct {
	ProjectRoot   string
	ArtifactsRoot string
	DenyImports   []string
	Workers       int // 0 = GOMAXPROCS
	FailOnWarn    bool
}

// Gate runs the analyzer over a batch of scene scripts and decides the
// pass/fail disposition. Analyses share no state, so files are fanned
// out to workers and findings are reassembled in input order before
// rendering.
type Gate struct {
	analyzer    *analyzer.Analyzer
	projectRoot string
	workers     int
	failOnWarn  bool
}

func New(opts Options) *Gate {
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Gate{
		analyzer:    analyzer.New(analyzer.NewPolicy(opts.DenyImports, opts.ProjectRoot, opts.ArtifactsRoot)),
		projectRoot: opts.ProjectRoot,
		workers:     workers,
		failOnWarn:  opts.FailOnWarn,
	}
}

// Run analyzes every file in input order and returns all findings. An
// empty batch is a neutral pass: nothing to gate, nothing to report.
func (g *Gate) Run(ctx context.Context, paths []string) finding.RunResult {
	ctx, span := observability.Tracer.Start(ctx, "gate.Run",
		trace.WithAttributes(attribute.Int("gate.files", len(paths))))
	defer span.End()

	if len(paths) == 0 {
		return finding.RunResult{}
	}

	start := time.Now()

	// Findings are collected per file and concatenated in input order;
	// ordering is an output contract, not a detection requirement.
	perFile := make([][]finding.Finding, len(paths))

	workers := min(g.workers, len(paths))
	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				perFile[idx] = g.analyzeOne(ctx, paths[idx])
			}
		}()
	}
	for idx := range paths {
		jobs <- idx
	}
	close(jobs)
	wg.Wait()

	var result finding.RunResult
	for _, findings := range perFile {
		result.Findings = append(result.Findings, findings...)
	}

	observability.RunDuration.Observe(time.Since(start).Seconds())
	if g.ExitCode(result) == ExitPass {
		observability.RunsTotal.WithLabelValues("pass").Inc()
	} else {
		observability.RunsTotal.WithLabelValues("fail").Inc()
	}
	return result
}

func (g *Gate) analyzeOne(ctx context.Context, path string) []finding.Finding {
	_, span := observability.Tracer.Start(ctx, "gate.AnalyzeFile",
		trace.WithAttributes(attribute.String("file.path", path)))
	defer span.End()

	start := time.Now()
	findings := g.analyzer.AnalyzeFile(path)

	observability.FilesAnalyzedTotal.Inc()
	observability.AnalysisDuration.Observe(time.Since(start).Seconds())
	for _, f := range findings {
		observability.FindingsTotal.WithLabelValues(f.Code).Inc()
	}
	return findings
}

// ExitCode derives the process disposition: any ERROR fails the run, a
// WARN fails it only when fail-on-warn is set.
func (g *Gate) ExitCode(result finding.RunResult) int {
	if result.HasError() {
		return ExitViolation
	}
	if g.failOnWarn && result.HasWarning() {
		return ExitViolation
	}
	return ExitPass
}

// Render writes the findings in the requested format. A render failure
// is the driver's own failure, distinct from the analysis disposition.
func (g *Gate) Render(w io.Writer, format string, result finding.RunResult) error {
	switch format {
	case "text":
		return output.WriteText(w, result.Findings)
	case "json":
		return output.WriteJSON(w, result.Findings)
	case "sarif":
		return output.WriteSARIF(w, g.projectRoot, result.Findings)
	default:
		return coreerrors.New(coreerrors.CodeRenderError, fmt.Sprintf("unknown output format: %s", format))
	}
}
