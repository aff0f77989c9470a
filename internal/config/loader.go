package config

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "CLUSTERRANK_"

// ConfigEnv names the YAML file to load when -config is not given.
const ConfigEnv = EnvPrefix + "CONFIG"

// LoadOption configures Load and LoadCompare.
type LoadOption func(*loadOptions)

type loadOptions struct {
	usage io.Writer
}

// WithUsageOutput sets where flag errors and -h output are printed.
// Defaults to os.Stderr.
func WithUsageOutput(w io.Writer) LoadOption {
	return func(o *loadOptions) {
		if w != nil {
			o.usage = w
		}
	}
}

// listValue collects a comma separated flag, repeatable.
type listValue []string

func (l *listValue) String() string { return strings.Join(*l, ",") }

func (l *listValue) Set(s string) error {
	*l = append(*l, splitList(s)...)
	return nil
}

func (l *listValue) Get() any { return []string(*l) }

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// flagSet records which koanf key each flag writes.
type flagSet struct {
	*flag.FlagSet
	keys  map[string]string
	lists map[string]bool
	path  string
}

func newFlagSet(name string, w io.Writer) *flagSet {
	fs := &flagSet{
		FlagSet: flag.NewFlagSet(name, flag.ContinueOnError),
		keys:    make(map[string]string),
		lists:   make(map[string]bool),
	}
	fs.SetOutput(w)
	fs.StringVar(&fs.path, "config", "", "YAML configuration file (env "+ConfigEnv+")")
	return fs
}

func (fs *flagSet) str(key, usage string, names ...string) {
	for _, n := range names {
		fs.String(n, "", usage)
		fs.keys[n] = key
	}
}

func (fs *flagSet) float(key, usage string, names ...string) {
	for _, n := range names {
		fs.Float64(n, 0, usage)
		fs.keys[n] = key
	}
}

func (fs *flagSet) integer(key, usage string, names ...string) {
	for _, n := range names {
		fs.Int(n, 0, usage)
		fs.keys[n] = key
	}
}

func (fs *flagSet) boolean(key, usage string, names ...string) {
	for _, n := range names {
		fs.Bool(n, false, usage)
		fs.keys[n] = key
	}
}

func (fs *flagSet) list(key, usage string, names ...string) {
	fs.lists[key] = true
	for _, n := range names {
		fs.Var(new(listValue), n, usage)
		fs.keys[n] = key
	}
}

// setFlags returns the explicitly given flags keyed by their koanf key.
func (fs *flagSet) setFlags() map[string]any {
	out := make(map[string]any)
	fs.Visit(func(f *flag.Flag) {
		key, ok := fs.keys[f.Name]
		if !ok {
			return
		}
		v := f.Value.(flag.Getter).Get()
		if prev, ok := out[key].([]string); ok {
			v = append(prev, v.([]string)...)
		}
		out[key] = v
	})
	return out
}

// layer parses args and unmarshals defaults, file, env and flags into dst.
func (fs *flagSet) layer(args []string, dst any) error {
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %w", ErrUsage, err)
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("%w: unexpected arguments %q", ErrUsage, fs.Args())
	}

	k := koanf.New(".")

	path := fs.path
	if path == "" {
		path = os.Getenv(ConfigEnv)
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return fmt.Errorf("%w: %s: %w", ErrLoadConfig, path, err)
		}
	}

	// CLUSTERRANK_INPUT_DIR -> input_dir. List keys take comma separated values.
	envProvider := env.ProviderWithValue(EnvPrefix, ".", func(key, value string) (string, any) {
		key = strings.TrimPrefix(strings.ToLower(key), strings.ToLower(EnvPrefix))
		if key == "config" {
			return "", nil
		}
		if fs.lists[key] {
			return key, splitList(value)
		}
		return key, value
	})
	if err := k.Load(envProvider, nil); err != nil {
		return fmt.Errorf("%w: env: %w", ErrLoadConfig, err)
	}

	if err := k.Load(confmap.Provider(fs.setFlags(), "."), nil); err != nil {
		return fmt.Errorf("%w: flags: %w", ErrLoadConfig, err)
	}

	if err := k.UnmarshalWithConf("", dst, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}
	return nil
}

var validate = newValidator() //nolint:gochecknoglobals // validators cache struct metadata

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("koanf"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}

// check runs struct validation and flattens failures into one error.
func check(cfg any) error {
	err := validate.Struct(cfg)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Tag() == "required" {
			msgs = append(msgs, fe.Field()+" is required")
			continue
		}
		msgs = append(msgs, fmt.Sprintf("%s must satisfy %s=%s (got %v)", fe.Field(), fe.Tag(), fe.Param(), fe.Value()))
	}
	return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(msgs, "; "))
}

// Load builds the ranking configuration from args (without the program
// name), the environment and an optional YAML file.
func Load(_ context.Context, args []string, opts ...LoadOption) (*Config, error) {
	o := loadOptions{usage: os.Stderr}
	for _, opt := range opts {
		opt(&o)
	}

	fs := newFlagSet("clusterrank", o.usage)
	fs.str("input_dir", "directory holding the judgment files", "input", "i")
	fs.str("src", "source language", "src", "s")
	fs.str("trg", "target language", "trg", "t")
	fs.str("raw_file", "calibration source file name (default "+DefaultRawFile+")", "raw-file")
	fs.str("scored_file", "ranking source file name (default "+DefaultScoredFile+")", "scored-file")
	fs.float("divide", "divide human and reference scores by this value (default 1)", "divide", "d")
	fs.str("human_marker", "substring marking human systems (default HUMAN)", "human-marker")
	fs.boolean("remove_human", "remove human and reference scores from all calculations", "remove_human", "remove-human")
	fs.boolean("remove_human_sig", "remove human systems from the report", "remove_human_sig", "remove-human-sig")
	fs.list("remove", "systems to remove from all calculations (comma separated, repeatable)", "remove", "r")
	fs.list("sig_remove", "systems to remove from the report (comma separated, repeatable)", "sig_remove", "sig-remove", "g")
	fs.str("remove_highest", "ranking file whose top system is removed from all calculations", "remove_highest", "remove-highest")
	fs.str("remove_highest_sig", "ranking file whose top system is removed from the report", "remove_highest_sig", "remove-highest-sig")
	fs.str("remove_lowest", "ranking file whose bottom system is removed from all calculations", "remove_lowest", "remove-lowest")
	fs.str("remove_lowest_sig", "ranking file whose bottom system is removed from the report", "remove_lowest_sig", "remove-lowest-sig")
	fs.float("lookahead_threshold", "stop the boundary lookahead at this p-value (default 0.5)", "lookahead-threshold")
	fs.str("output", "report path, - for stdout", "output", "o")
	fs.str("metrics_textfile", "write run metrics in Prometheus text format to this path", "metrics-textfile")
	fs.str("log_level", "debug, info, warn or error", "log-level")
	fs.str("log_format", "text or json", "log-format")

	cfg := New()
	if err := fs.layer(args, cfg); err != nil {
		return nil, err
	}
	if err := check(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
