// Package config defines the ranking run configuration and its loading.
//
// Values are layered (low -> high): defaults from New, an optional YAML file,
// CLUSTERRANK_* environment variables, then flags given on the command line.
package config

import (
	"github.com/okian/clusterrank/internal/domain/significance"
)

// Default file names inside the input directory.
const (
	DefaultRawFile    = "ad-latest.csv"
	DefaultScoredFile = "ad-good-raw-redup.csv"
)

// Config contains the configuration of one ranking run.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level" validate:"oneof=debug info warn warning error"`
	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format" validate:"oneof=text json"`

	// InputDir holds both judgment sources.
	InputDir   string `koanf:"input_dir" validate:"required"`
	RawFile    string `koanf:"raw_file" validate:"required"`
	ScoredFile string `koanf:"scored_file" validate:"required"`

	// Src and Trg select the language pair.
	Src string `koanf:"src" validate:"required"`
	Trg string `koanf:"trg" validate:"required"`

	// Divide scales human and reference scores before use.
	Divide float64 `koanf:"divide" validate:"gt=0"`

	// HumanMarker is the substring that marks a human system name.
	HumanMarker string `koanf:"human_marker" validate:"required"`

	// RemoveHuman drops human and reference judgments from every stage;
	// RemoveHumanSig only keeps human systems out of the report.
	RemoveHuman    bool `koanf:"remove_human"`
	RemoveHumanSig bool `koanf:"remove_human_sig"`

	// Remove lists systems dropped from every stage; SigRemove lists systems
	// that still count for calibration but are left out of the report.
	Remove    []string `koanf:"remove"`
	SigRemove []string `koanf:"sig_remove"`

	// Paths to earlier ranking files whose top or bottom system is added to
	// Remove (or SigRemove for the _sig variants).
	RemoveHighest    string `koanf:"remove_highest"`
	RemoveHighestSig string `koanf:"remove_highest_sig"`
	RemoveLowest     string `koanf:"remove_lowest"`
	RemoveLowestSig  string `koanf:"remove_lowest_sig"`

	// LookaheadThreshold stops the boundary lookahead once a p-value at or
	// above it is seen.
	LookaheadThreshold float64 `koanf:"lookahead_threshold" validate:"gt=0,lte=1"`

	// Output is the report path, "-" for stdout.
	Output string `koanf:"output" validate:"required"`
	// MetricsTextfile, when set, receives the run metrics in Prometheus
	// text format.
	MetricsTextfile string `koanf:"metrics_textfile"`
}

// New returns a Config holding the defaults.
func New() *Config {
	return &Config{
		LogLevel:           "info",
		LogFormat:          "text",
		RawFile:            DefaultRawFile,
		ScoredFile:         DefaultScoredFile,
		Divide:             1.0,
		HumanMarker:        "HUMAN",
		LookaheadThreshold: significance.DefaultLookaheadThreshold,
		Output:             "-",
	}
}
