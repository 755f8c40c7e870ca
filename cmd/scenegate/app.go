package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"scenegate/internal/config"
	"scenegate/internal/finding"
	"scenegate/internal/gate"
	"scenegate/internal/history"
	"scenegate/internal/shared/observability"
	"scenegate/internal/shared/util"
	"scenegate/internal/watcher"
)

// App wires the gate together with the optional run history, tracing
// exporter and watch-mode infrastructure.
type App struct {
	cfg  *config.Config
	gate *gate.Gate

	store         *history.Store
	traceShutdown func(context.Context) error
	metricsServer *observability.Server
	fileWatcher   *watcher.Watcher
}

func newApp(cfg *config.Config) (*App, error) {
	app := &App{
		cfg: cfg,
		gate: gate.New(gate.Options{
			ProjectRoot:   cfg.ProjectRoot,
			ArtifactsRoot: cfg.ArtifactsRoot,
			DenyImports:   cfg.DenyImports,
			Workers:       cfg.Analysis.Workers,
			FailOnWarn:    cfg.Output.FailOnWarn,
		}),
	}

	if cfg.History.Path != "" {
		store, err := history.Open(cfg.History.Path)
		if err != nil {
			return nil, err
		}
		app.store = store
		slog.Debug("run history enabled", "path", cfg.History.Path)
	}

	if cfg.Observability.TracingEndpoint != "" {
		shutdown, err := observability.SetupTracing(context.Background(),
			cfg.Observability.TracingEndpoint,
			cfg.Observability.ServiceName,
			cfg.Observability.TracingInsecure)
		if err != nil {
			// Tracing is best-effort; the gate still has to answer.
			slog.Warn("tracing setup failed", "error", err)
		} else {
			app.traceShutdown = shutdown
		}
	}

	return app, nil
}

// runOnce analyzes the batch, records it, renders the report to stdout
// and returns the process exit code.
func (a *App) runOnce(ctx context.Context, paths []string) (int, error) {
	result := a.gate.Run(ctx, paths)
	code := a.gate.ExitCode(result)

	a.recordRun(len(paths), result, code)

	if err := a.gate.Render(os.Stdout, a.cfg.Output.Format, result); err != nil {
		return 1, err
	}
	a.logSummary(paths, result, code)
	return code, nil
}

func (a *App) recordRun(fileCount int, result finding.RunResult, code int) {
	if a.store == nil {
		return
	}
	disposition := "pass"
	if code != gate.ExitPass {
		disposition = "fail"
	}
	id, err := a.store.SaveRun(fileCount, result, disposition)
	if err != nil {
		slog.Warn("failed to record run", "error", err)
		return
	}
	slog.Debug("run recorded", "run_id", id, "disposition", disposition)
}

func (a *App) logSummary(paths []string, result finding.RunResult, code int) {
	disposition := "pass"
	if code != gate.ExitPass {
		disposition = "fail"
	}
	slog.Info("gate run complete",
		"files", len(paths),
		"findings", len(result.Findings),
		"disposition", disposition)

	byCode := make(map[string]int)
	for _, f := range result.Findings {
		byCode[f.Code]++
	}
	for _, c := range util.SortedStringKeys(byCode) {
		slog.Debug("finding count", "code", c, "count", byCode[c])
	}
}

// watch runs the gate once, then re-runs it on debounced script
// changes. The metrics server only exists in this mode; one-shot runs
// are over before anyone could scrape them.
func (a *App) watch(paths []string) error {
	ctx := context.Background()

	if a.cfg.Observability.MetricsAddr != "" {
		a.metricsServer = observability.NewServer(a.cfg.Observability.MetricsAddr)
		if err := a.metricsServer.Start(ctx); err != nil {
			return err
		}
	}

	if _, err := a.runOnce(ctx, paths); err != nil {
		return err
	}

	// Cap re-runs even when the debounce window keeps getting beaten by
	// an editor writing in bursts.
	limiter := util.NewLimiter(2, 1)

	w, err := watcher.New(a.cfg.Watch.Debounce, a.cfg.Watch.ExcludeFiles, func(changed []string) {
		if err := limiter.Wait(ctx, 1); err != nil {
			return
		}
		slog.Info("scripts changed; re-running gate", "changed", len(changed))
		if _, err := a.runOnce(ctx, paths); err != nil {
			slog.Error("gate re-run failed", "error", err)
		}
	})
	if err != nil {
		return err
	}
	a.fileWatcher = w

	if err := w.Watch(paths); err != nil {
		return err
	}
	slog.Info("watching scripts", "count", len(paths), "debounce", a.cfg.Watch.Debounce)
	return nil
}

func (a *App) shutdown() {
	if a.fileWatcher != nil {
		_ = a.fileWatcher.Close()
	}
	if a.metricsServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		_ = a.metricsServer.Stop(ctx)
		cancel()
	}
	if a.traceShutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := a.traceShutdown(ctx); err != nil {
			slog.Warn("trace exporter shutdown failed", "error", err)
		}
		cancel()
	}
	if a.store != nil {
		_ = a.store.Close()
	}
}
