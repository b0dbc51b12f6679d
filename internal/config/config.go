package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/limaJavier/orscheduling/pkg/mip"
	"github.com/limaJavier/orscheduling/pkg/model"
)

// EnvPrefix marks environment variables that override file values, e.g. ORS_SOLVER__NAME=cbc.
const EnvPrefix = "ORS_"

const DefaultMaxPlanifications = 500

type Config struct {
	Formulation string            `json:"formulation" validate:"oneof=direct covering-cost covering-count"`
	Solver      SolverConfig      `json:"solver"`
	Enumeration EnumerationConfig `json:"enumeration"`
	Filter      FilterConfig      `json:"filter"`
	Logging     LoggingConfig     `json:"logging"`
	Metrics     MetricsConfig     `json:"metrics"`
}

type SolverConfig struct {
	Name             string `json:"name" validate:"oneof=cbc glpk branchbound"`
	CbcPath          string `json:"cbcPath"`
	GlpkPath         string `json:"glpkPath"`
	TimeLimitSeconds int    `json:"timeLimitSeconds" validate:"gte=0"`
	NodeLimit        int    `json:"nodeLimit" validate:"gte=0"`
}

// EnumerationConfig bounds the feasible-set enumeration of the covering formulations.
type EnumerationConfig struct {
	MaxSets int `json:"maxSets" validate:"gte=1"`
}

type FilterConfig struct {
	Specialties []string `json:"specialties"`
	Match       string   `json:"match" validate:"oneof=exact contains"`
}

type LoggingConfig struct {
	Level string `json:"level" validate:"oneof=debug info warn error"`
}

// MetricsConfig points to a node-exporter textfile receiving the run metrics; empty disables it.
type MetricsConfig struct {
	File string `json:"file"`
}

// Load reads the configuration file (YAML or JSON) when path is not empty, applies
// environment overrides, defaults and validation.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	if path != "" {
		ext := strings.ToLower(filepath.Ext(path))
		var parser koanf.Parser
		switch ext {
		case ".yaml", ".yml":
			parser = yaml.Parser()
		case ".json":
			parser = json.Parser()
		default:
			return nil, fmt.Errorf("unsupported config format: %s", ext)
		}
		if err := k.Load(file.Provider(path), parser); err != nil {
			return nil, err
		}
	}
	// Optional environment overrides
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), strings.ToLower(EnvPrefix))
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	var cfg Config
	cfg.SetDefaults()
	return &cfg
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.Formulation == "" {
		c.Formulation = string(model.DirectFormulation)
	}
	if c.Solver.Name == "" {
		c.Solver.Name = mip.BranchBound
	}
	if c.Enumeration.MaxSets == 0 {
		c.Enumeration.MaxSets = DefaultMaxPlanifications
	}
	if c.Filter.Match == "" {
		c.Filter.Match = string(model.MatchExact)
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
}

// Validate checks every section.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

func (c SolverConfig) Options() mip.SolverOptions {
	return mip.SolverOptions{
		CbcPath:   c.CbcPath,
		GlpkPath:  c.GlpkPath,
		TimeLimit: time.Duration(c.TimeLimitSeconds) * time.Second,
		NodeLimit: c.NodeLimit,
	}
}

func (c FilterConfig) SpecialtyFilter() model.SpecialtyFilter {
	return model.SpecialtyFilter{
		Specialties: c.Specialties,
		Match:       model.MatchMode(c.Match),
	}
}
