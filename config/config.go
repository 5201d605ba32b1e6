// Package config loads experiment configuration from YAML or JSON files
// and maps it onto the generator's options surface.
package config

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/hupe1980/advgo"
	"github.com/hupe1980/advgo/attack/hopskipjump"
	"github.com/hupe1980/advgo/norm"
	"github.com/hupe1980/advgo/oracle"
)

// AttackHopSkipJump is the attack name accepted by Config.
const AttackHopSkipJump = "hopskipjump"

// Log output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Config describes one experiment: the attack and its knobs, the
// runtime limits of the batch driver, and logging.
type Config struct {
	// Attack selects and tunes the attack.
	Attack Attack `json:"attack" yaml:"attack"`
	// Runtime bounds the batch driver.
	Runtime Runtime `json:"runtime,omitempty" yaml:"runtime,omitempty"`
	// Log configures the structured logger.
	Log Log `json:"log,omitempty" yaml:"log,omitempty"`
}

// Attack tunes the attack itself. A zero-value knob means "use the
// attack's default"; a clip range of [0, 0] means the default [0, 1].
type Attack struct {
	// Name selects the attack implementation. Empty means hopskipjump.
	Name string `json:"name" yaml:"name"`
	// Targeted searches for chosen labels instead of any label change.
	Targeted bool `json:"targeted,omitempty" yaml:"targeted,omitempty"`
	// Norm is the perturbation metric, "l2" or "linf".
	Norm string `json:"norm" yaml:"norm"`
	// MaxIter is the iteration budget per sample.
	MaxIter int `json:"max_iter" yaml:"max_iter"`
	// MaxEval caps the probe count of a single direction estimate.
	MaxEval int `json:"max_eval" yaml:"max_eval"`
	// InitEval is the probe count of the first direction estimate.
	InitEval int `json:"init_eval" yaml:"init_eval"`
	// InitSize is the number of random draws allowed when searching
	// for an adversarial starting point.
	InitSize int `json:"init_size" yaml:"init_size"`
	// Theta is the boundary precision knob.
	Theta float64 `json:"theta" yaml:"theta"`
	// ClipMin and ClipMax bound the valid input range.
	ClipMin float64 `json:"clip_min" yaml:"clip_min"`
	ClipMax float64 `json:"clip_max" yaml:"clip_max"`
	// Seed makes runs reproducible. Unset means self-seeded.
	Seed *int64 `json:"seed,omitempty" yaml:"seed,omitempty"`
}

// Runtime bounds the batch driver.
type Runtime struct {
	// Workers is how many samples are attacked concurrently.
	Workers int `json:"workers,omitempty" yaml:"workers,omitempty"`
	// QueryRate caps oracle queries per second, 0 means unlimited.
	QueryRate int `json:"query_rate,omitempty" yaml:"query_rate,omitempty"`
	// ChunkSize splits oracle batches larger than this, 0 passes
	// batches through unchanged.
	ChunkSize int `json:"chunk_size,omitempty" yaml:"chunk_size,omitempty"`
	// CacheSize is the capacity of the LRU label cache, 0 disables it.
	CacheSize int `json:"cache_size,omitempty" yaml:"cache_size,omitempty"`
}

// Log configures the structured logger.
type Log struct {
	// Level is the minimum level, one of "debug", "info", "warn", "error".
	Level string `json:"level,omitempty" yaml:"level,omitempty"`
	// Format is "text" or "json".
	Format string `json:"format,omitempty" yaml:"format,omitempty"`
}

// Default returns a configuration populated with the attack's defaults.
func Default() *Config {
	d := hopskipjump.DefaultOptions

	return &Config{
		Attack: Attack{
			Name:     AttackHopSkipJump,
			Norm:     "l2",
			MaxIter:  d.MaxIter,
			MaxEval:  d.MaxEval,
			InitEval: d.InitEval,
			InitSize: d.InitSize,
			Theta:    d.Theta,
			ClipMin:  d.ClipMin,
			ClipMax:  d.ClipMax,
		},
		Runtime: Runtime{
			Workers: 1,
		},
		Log: Log{
			Level:  "info",
			Format: FormatText,
		},
	}
}

// Validate checks the configuration surface: attack and norm names,
// log settings, and runtime limits. Attack knob ranges are checked by
// the attack constructor when the generator is built.
func (c *Config) Validate() error {
	if c.Attack.Name != "" && c.Attack.Name != AttackHopSkipJump {
		return fmt.Errorf("unsupported attack: %q", c.Attack.Name)
	}

	if c.Attack.Norm != "" {
		if _, err := norm.Parse(c.Attack.Norm); err != nil {
			return err
		}
	}

	if c.Runtime.Workers < 0 {
		return fmt.Errorf("workers must not be negative, got %d", c.Runtime.Workers)
	}
	if c.Runtime.QueryRate < 0 {
		return fmt.Errorf("query rate must not be negative, got %d", c.Runtime.QueryRate)
	}
	if c.Runtime.ChunkSize < 0 {
		return fmt.Errorf("chunk size must not be negative, got %d", c.Runtime.ChunkSize)
	}
	if c.Runtime.CacheSize < 0 {
		return fmt.Errorf("cache size must not be negative, got %d", c.Runtime.CacheSize)
	}

	if _, err := c.level(); err != nil {
		return err
	}

	switch c.Log.Format {
	case "", FormatText, FormatJSON:
	default:
		return fmt.Errorf("unsupported log format: %q", c.Log.Format)
	}

	return nil
}

// Builder maps the configuration onto a generator builder around the
// given oracle. Callers may chain further overrides, such as a metrics
// collector, before Build.
func (c *Config) Builder(o oracle.Oracle) (advgo.HopSkipJumpBuilder, error) {
	if err := c.Validate(); err != nil {
		return advgo.HopSkipJumpBuilder{}, err
	}

	b := advgo.HopSkipJump(o)

	if c.Attack.Norm != "" {
		n, err := norm.Parse(c.Attack.Norm)
		if err != nil {
			return advgo.HopSkipJumpBuilder{}, err
		}
		if n == norm.LInf {
			b = b.LInf()
		}
	}

	if c.Attack.Targeted {
		b = b.Targeted()
	}
	if c.Attack.MaxIter > 0 {
		b = b.MaxIter(c.Attack.MaxIter)
	}
	if c.Attack.MaxEval > 0 {
		b = b.MaxEval(c.Attack.MaxEval)
	}
	if c.Attack.InitEval > 0 {
		b = b.InitEval(c.Attack.InitEval)
	}
	if c.Attack.InitSize > 0 {
		b = b.InitSize(c.Attack.InitSize)
	}
	if c.Attack.Theta > 0 {
		b = b.Theta(c.Attack.Theta)
	}
	if c.Attack.ClipMin != 0 || c.Attack.ClipMax != 0 {
		b = b.Clip(c.Attack.ClipMin, c.Attack.ClipMax)
	}
	if c.Attack.Seed != nil {
		b = b.Seed(*c.Attack.Seed)
	}

	if c.Runtime.Workers > 0 {
		b = b.Workers(c.Runtime.Workers)
	}
	if c.Runtime.QueryRate > 0 {
		b = b.QueryRate(c.Runtime.QueryRate)
	}
	if c.Runtime.ChunkSize > 0 {
		b = b.ChunkSize(c.Runtime.ChunkSize)
	}
	if c.Runtime.CacheSize > 0 {
		b = b.Cache(c.Runtime.CacheSize)
	}

	logger, err := c.Logger()
	if err != nil {
		return advgo.HopSkipJumpBuilder{}, err
	}

	return b.Logger(logger), nil
}

// Logger builds the structured logger the Log section describes.
func (c *Config) Logger() (*advgo.Logger, error) {
	lvl, err := c.level()
	if err != nil {
		return nil, err
	}

	if c.Log.Format == FormatJSON {
		return advgo.NewJSONLogger(lvl), nil
	}

	return advgo.NewTextLogger(lvl), nil
}

func (c *Config) level() (slog.Level, error) {
	if c.Log.Level == "" {
		return slog.LevelInfo, nil
	}

	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return 0, fmt.Errorf("unsupported log level: %q", c.Log.Level)
	}

	return lvl, nil
}

// LoadFromFile loads configuration from a YAML or JSON file.
func LoadFromFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	return Load(f, path)
}

// Load loads configuration from a reader. The filename decides the
// format: ".json" is parsed as JSON, anything else as YAML. Fields
// absent from the document keep their defaults.
func Load(r io.Reader, filename string) (*Config, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read: %w", err)
	}

	cfg := Default()

	if strings.HasSuffix(filename, ".json") {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse JSON: %w", err)
		}
	} else {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse YAML: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// SaveToFile writes the configuration to a YAML or JSON file, picking
// the format from the path suffix.
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	if strings.HasSuffix(path, ".json") {
		data, err = json.MarshalIndent(c, "", "  ")
	} else {
		data, err = yaml.Marshal(c)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal: %w", err)
	}

	return os.WriteFile(path, data, 0644)
}
