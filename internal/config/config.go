package config

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/signalnine/sweepbench/internal/sweep"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Backend        string       `yaml:"backend"`
	Executables    []string     `yaml:"executables"`
	Files          []string     `yaml:"files"`
	Threads        []int        `yaml:"threads"`
	ThreadRange    *ThreadRange `yaml:"thread_range"`
	TimeoutSeconds float64      `yaml:"timeout_seconds"`
	Layout         Layout       `yaml:"layout"`
	Cleanup        string       `yaml:"cleanup"`
	Measure        string       `yaml:"measure"`
	Chart          Chart        `yaml:"chart"`
	Docker         Docker       `yaml:"docker"`
	Metrics        Metrics      `yaml:"metrics"`
}

// ThreadRange is an inclusive range of thread counts, an alternative to
// listing them.
type ThreadRange struct {
	From int `yaml:"from"`
	To   int `yaml:"to"`
}

// Layout picks which dimension names the series and which one is swept.
type Layout struct {
	Series string `yaml:"series"`
	X      string `yaml:"x"`
}

type Chart struct {
	Title    string  `yaml:"title"`
	XLabel   string  `yaml:"x_label"`
	YLabel   string  `yaml:"y_label"`
	Output   string  `yaml:"output"`
	WidthIn  float64 `yaml:"width_in"`
	HeightIn float64 `yaml:"height_in"`
}

type Docker struct {
	CPULimit    float64 `yaml:"cpu_limit"`
	MemoryLimit int64   `yaml:"memory_limit"`
}

type Metrics struct {
	Addr string `yaml:"addr"`
}

// Default is the configuration used when no config file exists.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return &cfg, nil
}

// Validate fills in defaults and checks the config. It is called again after
// command-line overrides are applied.
func Validate(cfg *Config) error {
	if cfg.ThreadRange != nil {
		r := cfg.ThreadRange
		if r.From < 1 || r.To < r.From {
			return fmt.Errorf("thread_range: want 1 <= from <= to, got %d..%d", r.From, r.To)
		}
		if len(cfg.Threads) > 0 {
			return fmt.Errorf("threads and thread_range are mutually exclusive")
		}
		for n := r.From; n <= r.To; n++ {
			cfg.Threads = append(cfg.Threads, n)
		}
		cfg.ThreadRange = nil
	}
	for _, n := range cfg.Threads {
		if n < 1 {
			return fmt.Errorf("thread count must be positive, got %d", n)
		}
	}
	sort.Ints(cfg.Threads)

	if cfg.TimeoutSeconds < 0 {
		return fmt.Errorf("timeout_seconds must not be negative")
	}
	applyDefaults(cfg)

	switch cfg.Backend {
	case "process", "docker":
	default:
		return fmt.Errorf("backend must be process or docker, got %q", cfg.Backend)
	}
	switch cfg.Cleanup {
	case "group", "name", "none":
	default:
		return fmt.Errorf("cleanup must be group, name or none, got %q", cfg.Cleanup)
	}
	switch sweep.Measure(cfg.Measure) {
	case sweep.MeasureOutput, sweep.MeasureWallclock:
	default:
		return fmt.Errorf("measure must be output or wallclock, got %q", cfg.Measure)
	}
	for i, e := range cfg.Executables {
		if strings.TrimSpace(e) == "" {
			return fmt.Errorf("executable %d: empty", i)
		}
	}

	plan := cfg.Plan()
	if err := plan.Validate(); err != nil {
		return fmt.Errorf("layout: %w", err)
	}
	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.Backend == "" {
		cfg.Backend = "process"
	}
	if cfg.TimeoutSeconds == 0 {
		cfg.TimeoutSeconds = 60
	}
	if cfg.Layout.Series == "" {
		cfg.Layout.Series = string(sweep.File)
	}
	if cfg.Layout.X == "" {
		cfg.Layout.X = string(sweep.Threads)
	}
	if cfg.Cleanup == "" {
		cfg.Cleanup = "group"
	}
	if cfg.Measure == "" {
		cfg.Measure = string(sweep.MeasureOutput)
	}
	if cfg.Chart.Output == "" {
		cfg.Chart.Output = "chart.png"
	}
	if cfg.Chart.WidthIn <= 0 {
		cfg.Chart.WidthIn = 8
	}
	if cfg.Chart.HeightIn <= 0 {
		cfg.Chart.HeightIn = 5
	}
	if cfg.Chart.XLabel == "" {
		cfg.Chart.XLabel = axisLabel(sweep.Dimension(cfg.Layout.X))
	}
	if cfg.Chart.YLabel == "" {
		cfg.Chart.YLabel = "Execution Time (s)"
	}
	if cfg.Chart.Title == "" {
		cfg.Chart.Title = fmt.Sprintf("%s / Execution Time", axisLabel(sweep.Dimension(cfg.Layout.X)))
	}
}

func axisLabel(d sweep.Dimension) string {
	switch d {
	case sweep.Threads:
		return "Thread Count"
	case sweep.File:
		return "File"
	case sweep.Executable:
		return "Executable"
	}
	return string(d)
}

func (c *Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds * float64(time.Second))
}

// Plan converts the config into a sweep plan.
func (c *Config) Plan() *sweep.Plan {
	return &sweep.Plan{
		Executables: c.Executables,
		Files:       c.Files,
		Threads:     c.Threads,
		Series:      sweep.Dimension(c.Layout.Series),
		X:           sweep.Dimension(c.Layout.X),
		Timeout:     c.Timeout(),
		Measure:     sweep.Measure(c.Measure),
	}
}
