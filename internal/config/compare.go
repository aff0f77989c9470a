package config

import (
	"context"
	"os"
	"runtime"
)

// CompareConfig configures a batch comparison of ranking files.
type CompareConfig struct {
	LogLevel  string `koanf:"log_level" validate:"oneof=debug info warn warning error"`
	LogFormat string `koanf:"log_format" validate:"oneof=text json"`

	// Suffixes names the two experiment types compared, e.g. "orig" "nohuman".
	Suffixes []string `koanf:"suffixes" validate:"len=2,dive,required"`
	// Directory holds <version>/<pair>-<year>.<suffix> ranking files.
	Directory string `koanf:"directory" validate:"required"`
	// Pairs lists "version,pair,year,interface" lines.
	Pairs string `koanf:"pairs" validate:"required"`

	Verbose bool `koanf:"verbose"`
	// Workers bounds how many pairs are compared at once.
	Workers int `koanf:"workers" validate:"min=1"`

	MetricsTextfile string `koanf:"metrics_textfile"`
}

// NewCompare returns a CompareConfig holding the defaults.
func NewCompare() *CompareConfig {
	return &CompareConfig{
		LogLevel:  "info",
		LogFormat: "text",
		Directory: "rankings",
		Pairs:     "pairs.txt",
		Workers:   runtime.NumCPU(),
	}
}

// LoadCompare builds the comparison configuration the same way Load does.
func LoadCompare(_ context.Context, args []string, opts ...LoadOption) (*CompareConfig, error) {
	o := loadOptions{usage: os.Stderr}
	for _, opt := range opts {
		opt(&o)
	}

	fs := newFlagSet("compare-rankings", o.usage)
	fs.list("suffixes", "the two ranking file suffixes to compare, comma separated", "suffixes", "s")
	fs.str("directory", "directory of ranking files (default rankings)", "directory", "d")
	fs.str("pairs", "file listing version,pair,year,interface lines (default pairs.txt)", "pairs", "l")
	fs.boolean("verbose", "print one line per compared pair", "verbose", "v")
	fs.integer("workers", "pairs compared concurrently (default number of CPUs)", "workers")
	fs.str("metrics_textfile", "write run metrics in Prometheus text format to this path", "metrics-textfile")
	fs.str("log_level", "debug, info, warn or error", "log-level")
	fs.str("log_format", "text or json", "log-format")

	cfg := NewCompare()
	if err := fs.layer(args, cfg); err != nil {
		return nil, err
	}
	if err := check(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
