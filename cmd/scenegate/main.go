package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"scenegate/internal/config"
	"scenegate/internal/gate"
	"scenegate/internal/manifest"
	"scenegate/internal/shared/util"
	"scenegate/internal/shared/version"
)

var (
	configPath    = flag.String("config", "./scenegate.toml", "Path to config file")
	manifestPath  = flag.String("manifest", "", "Path to a render job manifest supplying source files")
	projectRoot   = flag.String("project-root", "", "Allowed project root for writes (overrides config)")
	artifactsRoot = flag.String("artifacts-root", "", "Allowed artifacts root for writes (overrides config)")
	denyImports   = flag.String("deny-imports", "", "Comma-separated import denylist (overrides config)")
	format        = flag.String("format", "", "Output format: text, json or sarif (overrides config)")
	failOnWarn    = flag.Bool("fail-on-warn", false, "Treat warnings as violations")
	workers       = flag.Int("workers", 0, "Number of analysis workers (0 = GOMAXPROCS)")
	watchMode     = flag.Bool("watch", false, "Re-run the gate when watched scripts change")
	verbose       = flag.Bool("verbose", false, "Enable verbose logging")
	showVersion   = flag.Bool("version", false, "Print version and exit")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Printf("scenegate v%s\n", version.Version)
		os.Exit(0)
	}

	// Findings own stdout; logs go to stderr so callers can parse the
	// report without filtering.
	logLevel := slog.LevelInfo
	if *verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	cfg, err := loadConfig(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	applyOverrides(cfg)

	paths, err := collectPaths()
	if err != nil {
		slog.Error("failed to resolve source files", "error", err)
		os.Exit(1)
	}
	if len(paths) == 0 {
		slog.Info("no source files to gate; skipping", "manifest", *manifestPath)
		os.Exit(gate.ExitPass)
	}

	app, err := newApp(cfg)
	if err != nil {
		slog.Error("failed to initialize", "error", err)
		os.Exit(1)
	}
	defer app.shutdown()

	if *watchMode {
		if err := app.watch(paths); err != nil {
			slog.Error("failed to start watch mode", "error", err)
			os.Exit(1)
		}
		// Block forever
		select {}
	}

	code, err := app.runOnce(context.Background(), paths)
	if err != nil {
		slog.Error("gate run failed", "error", err)
		os.Exit(1)
	}
	os.Exit(code)
}

// loadConfig falls back to built-in defaults when the stock config file
// is absent; an explicitly requested file must exist.
func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		if path == "./scenegate.toml" && os.IsNotExist(err) {
			return config.Default(), nil
		}
		return nil, err
	}
	return cfg, nil
}

func applyOverrides(cfg *config.Config) {
	if *projectRoot != "" {
		cfg.ProjectRoot = *projectRoot
	}
	if *artifactsRoot != "" {
		cfg.ArtifactsRoot = *artifactsRoot
	}
	if *denyImports != "" {
		cfg.DenyImports = util.SplitList(*denyImports)
	}
	if *format != "" {
		cfg.Output.Format = *format
	}
	if *failOnWarn {
		cfg.Output.FailOnWarn = true
	}
	if *workers > 0 {
		cfg.Analysis.Workers = *workers
	}
}

// collectPaths merges manifest source files with positional arguments,
// manifest order first, duplicates dropped.
func collectPaths() ([]string, error) {
	var paths []string
	if *manifestPath != "" {
		m, err := manifest.Load(*manifestPath)
		if err != nil {
			return nil, err
		}
		paths = append(paths, m.SourceFiles()...)
	}
	paths = append(paths, flag.Args()...)
	return util.UniquePaths(paths), nil
}
