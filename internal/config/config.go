package config

import (
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// DefaultDenyImports is the stock set of module names untrusted scene
// scripts may not import: network, process spawning, remote file
// transfer and system introspection.
var DefaultDenyImports = []string{
	"socket", "requests", "subprocess", "multiprocessing",
	"ftplib", "paramiko", "psutil",
}

type Config struct {
	ProjectRoot   string   `toml:"project_root"`
	ArtifactsRoot string   `toml:"artifacts_root"`
	DenyImports   []string `toml:"deny_imports"`
	Output        Output   `toml:"output"`
	Analysis      Analysis `toml:"analysis"`
	History       History  `toml:"history"`
	Watch         Watch    `toml:"watch"`
	Observability Obs      `toml:"observability"`
}

type Output struct {
	Format     string `toml:"format"` // text, json or sarif
	FailOnWarn bool   `toml:"fail_on_warn"`
}

type Analysis struct {
	Workers int `toml:"workers"` // 0 = GOMAXPROCS
}

type History struct {
	Path string `toml:"path"` // empty disables run history
}

type Watch struct {
	Debounce     time.Duration `toml:"debounce"`
	ExcludeFiles []string      `toml:"exclude_files"`
}

type Obs struct {
	MetricsAddr     string `toml:"metrics_addr"`     // promhttp listener, watch mode only
	TracingEndpoint string `toml:"tracing_endpoint"` // OTLP/gRPC collector
	TracingInsecure bool   `toml:"tracing_insecure"`
	ServiceName     string `toml:"service_name"`
}

func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults()
	return &cfg, nil
}

func (cfg *Config) applyDefaults() {
	if cfg.ProjectRoot == "" {
		cfg.ProjectRoot = "/project"
	}
	if cfg.ArtifactsRoot == "" {
		cfg.ArtifactsRoot = "/artifacts"
	}
	if cfg.DenyImports == nil {
		cfg.DenyImports = append([]string(nil), DefaultDenyImports...)
	}
	if cfg.Output.Format == "" {
		cfg.Output.Format = "text"
	}
	if cfg.Watch.Debounce == 0 {
		cfg.Watch.Debounce = 500 * time.Millisecond
	}
	if cfg.Observability.ServiceName == "" {
		cfg.Observability.ServiceName = "scenegate"
	}
}
