package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kelseyhightower/envconfig"
)

const (
	defaultInput  = "healthcare/train_data.csv"
	defaultOutput = "healthcare/train_data_comprehensive_cleaned.csv"
)

// Config is the file form of the command line. Flags override environment
// variables, which override the file.
type Config struct {
	Input   InputConfig  `json:"input" yaml:"input" toml:"input"`
	Output  OutputConfig `json:"output" yaml:"output" toml:"output"`
	Clean   CleanConfig  `json:"clean" yaml:"clean" toml:"clean"`
	Log     LogConfig    `json:"log" yaml:"log" toml:"log"`
	Report  string       `json:"report" yaml:"report" toml:"report"`
	History string       `json:"history" yaml:"history" toml:"history"`
	TopK    int          `json:"profile_top_k" yaml:"profile_top_k" toml:"profile_top_k"`
}

type InputConfig struct {
	Path      string `json:"path" yaml:"path" toml:"path"`
	Delimiter string `json:"delimiter" yaml:"delimiter" toml:"delimiter"`
	ChunkSize int    `json:"chunk_size" yaml:"chunk_size" toml:"chunk_size"`
}

type OutputConfig struct {
	Path      string `json:"path" yaml:"path" toml:"path"`
	Format    string `json:"format" yaml:"format" toml:"format"` // csv|jsonl|parquet|xlsx|sqlite|arff
	Delimiter string `json:"delimiter" yaml:"delimiter" toml:"delimiter"`
	Table     string `json:"table" yaml:"table" toml:"table"`
	Class     string `json:"class" yaml:"class" toml:"class"`
}

type CleanConfig struct {
	Sentinel     string `json:"sentinel" yaml:"sentinel" toml:"sentinel"`
	Strict       bool   `json:"strict" yaml:"strict" toml:"strict"`
	ZeroVariance string `json:"zero_variance" yaml:"zero_variance" toml:"zero_variance"`
	SampleStd    bool   `json:"sample_std" yaml:"sample_std" toml:"sample_std"`
}

type LogConfig struct {
	Level string `json:"level" yaml:"level" toml:"level"`
	JSON  bool   `json:"json" yaml:"json" toml:"json"`
}

func defaultConfig() Config {
	var c Config
	c.Input.Path = defaultInput
	c.Output.Path = defaultOutput
	c.Log.Level = "info"
	c.TopK = 5
	return c
}

// decoders maps a config file extension to its unmarshal function.
var decoders = map[string]func([]byte, any) error{
	".json": json.Unmarshal,
}

// loadConfigFile decodes path over cfg, so fields absent from the file keep
// their defaults.
func loadConfigFile(path string, cfg *Config) error {
	ext := strings.ToLower(filepath.Ext(path))
	dec, ok := decoders[ext]
	if !ok {
		return fmt.Errorf("config %s: unsupported extension %q", path, ext)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := dec(b, cfg); err != nil {
		return fmt.Errorf("config %s: %w", path, err)
	}
	return nil
}

const envPrefix = "ADMITPREP"

// envOverrides holds the ADMITPREP_* variables. Names come from
// split_words rather than envconfig tags so unprefixed variables such as
// OUTPUT are never consulted. Empty strings and nil pointers leave the
// config untouched.
type envOverrides struct {
	Input        string `split_words:"true"`
	Output       string `split_words:"true"`
	Format       string `split_words:"true"`
	Table        string `split_words:"true"`
	ChunkSize    int    `split_words:"true"`
	Sentinel     string `split_words:"true"`
	Strict       *bool  `split_words:"true"`
	ZeroVariance string `split_words:"true"`
	Report       string `split_words:"true"`
	History      string `split_words:"true"`
	LogLevel     string `split_words:"true"`
	LogJSON      *bool  `split_words:"true"`
}

// applyEnv reads the environment over cfg.
func applyEnv(cfg *Config) error {
	var o envOverrides
	if err := envconfig.Process(envPrefix, &o); err != nil {
		return fmt.Errorf("environment: %w", err)
	}
	o.apply(cfg)
	return nil
}

func (o envOverrides) apply(cfg *Config) {
	setString(&cfg.Input.Path, o.Input)
	setString(&cfg.Output.Path, o.Output)
	setString(&cfg.Output.Format, o.Format)
	setString(&cfg.Output.Table, o.Table)
	setString(&cfg.Clean.Sentinel, o.Sentinel)
	setString(&cfg.Clean.ZeroVariance, o.ZeroVariance)
	setString(&cfg.Report, o.Report)
	setString(&cfg.History, o.History)
	setString(&cfg.Log.Level, o.LogLevel)
	if o.ChunkSize > 0 {
		cfg.Input.ChunkSize = o.ChunkSize
	}
	if o.Strict != nil {
		cfg.Clean.Strict = *o.Strict
	}
	if o.LogJSON != nil {
		cfg.Log.JSON = *o.LogJSON
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

var formats = []string{"csv", "jsonl", "parquet", "xlsx", "sqlite", "arff"}

// outputFormat returns the configured format, or one guessed from the
// output extension.
func outputFormat(o OutputConfig) (string, error) {
	if o.Format != "" {
		f := strings.ToLower(o.Format)
		for _, known := range formats {
			if f == known {
				return f, nil
			}
		}
		return "", fmt.Errorf("unsupported output format %q", o.Format)
	}
	p := strings.ToLower(strings.TrimSuffix(o.Path, ".gz"))
	switch filepath.Ext(p) {
	case ".jsonl", ".ndjson":
		return "jsonl", nil
	case ".parquet":
		return "parquet", nil
	case ".xlsx":
		return "xlsx", nil
	case ".db", ".sqlite", ".sqlite3":
		return "sqlite", nil
	case ".arff":
		return "arff", nil
	}
	return "csv", nil
}

func delimiter(s string) rune {
	if s == "" {
		return 0
	}
	if s == `\t` {
		return '\t'
	}
	return []rune(s)[0]
}
