// Package config loads and validates the pipeline configuration. The
// defaults embed the target parameters calibrated against the prototype
// evaluation, so running with no config file reproduces the reference
// datasets.
package config

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"

	"github.com/smata-project/evalgen/pkg/schema"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultLogLevel is the default logging level.
	DefaultLogLevel = "info"

	// DefaultDataDir is the default root directory for generated artifacts.
	DefaultDataDir = "./data"

	// DefaultSeed is the default base seed for the deterministic sampler.
	DefaultSeed = 42

	// DefaultSessionMinutes is the default test session length for
	// coverage progression traces.
	DefaultSessionMinutes = 60

	// DefaultBucketMinutes is the default sampling interval for coverage
	// progression traces.
	DefaultBucketMinutes = 5

	// DefaultAlpha is the uncorrected significance threshold.
	DefaultAlpha = 0.05

	// DefaultTrackedComparisons is the Bonferroni divisor: the number of
	// SMATA-vs-baseline comparisons of interest per metric.
	DefaultTrackedComparisons = 3
)

// Config is the root configuration for evalgen.
type Config struct {
	Global    GlobalConfig            `yaml:"global"`
	Generator GeneratorConfig         `yaml:"generator"`
	Analysis  AnalysisConfig          `yaml:"analysis"`
	Metrics   map[string]MetricConfig `yaml:"metrics"`
	Store     *StoreConfig            `yaml:"store,omitempty"`
	Upload    *S3UploadConfig         `yaml:"upload,omitempty"`
}

// GlobalConfig contains global application settings.
type GlobalConfig struct {
	LogLevel string `yaml:"log_level"`
}

// GeneratorConfig contains synthetic data generation settings.
type GeneratorConfig struct {
	Seed           uint64             `yaml:"seed"`
	Runs           int                `yaml:"runs"`
	DataDir        string             `yaml:"data_dir"`
	DataOwner      string             `yaml:"data_owner,omitempty"`
	SessionMinutes int                `yaml:"session_minutes"`
	BucketMinutes  int                `yaml:"bucket_minutes"`
	TraceJitter    float64            `yaml:"trace_jitter"`
	GrowthRates    map[string]float64 `yaml:"growth_rates"`
}

// AnalysisConfig contains statistical analysis settings.
type AnalysisConfig struct {
	Alpha              float64 `yaml:"alpha"`
	TrackedComparisons int     `yaml:"tracked_comparisons"`
}

// CorrectedAlpha returns the Bonferroni-corrected per-comparison threshold.
func (a AnalysisConfig) CorrectedAlpha() float64 {
	return a.Alpha / float64(a.TrackedComparisons)
}

// ApproachParams holds the target distribution parameters for one
// (metric, approach) combination.
type ApproachParams struct {
	Mean float64 `yaml:"mean"`
	Std  float64 `yaml:"std"`
}

// MetricConfig holds per-metric generation parameters. AuthAdjust shifts the
// target mean for apps with authentication flows; ComplexityStdScale scales
// the target std by app complexity. Both are optional and only used for
// metrics where the evaluation calibrated them.
type MetricConfig struct {
	Params             map[string]ApproachParams `yaml:"params"`
	AuthAdjust         map[string]float64        `yaml:"auth_adjust,omitempty"`
	ComplexityStdScale map[string]float64        `yaml:"complexity_std_scale,omitempty"`
}

// StoreConfig configures the optional run catalog database.
type StoreConfig struct {
	Enabled  bool            `yaml:"enabled"`
	Driver   string          `yaml:"driver"`
	SQLite   SQLiteConfig    `yaml:"sqlite,omitempty"`
	Postgres *PostgresConfig `yaml:"postgres,omitempty"`
}

// SQLiteConfig configures the sqlite store driver.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// PostgresConfig configures the postgres store driver.
type PostgresConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"ssl_mode"`
}

// S3UploadConfig configures the optional artifact upload.
type S3UploadConfig struct {
	Enabled         bool   `yaml:"enabled"`
	Bucket          string `yaml:"bucket"`
	Prefix          string `yaml:"prefix,omitempty"`
	Region          string `yaml:"region,omitempty"`
	EndpointURL     string `yaml:"endpoint_url,omitempty"`
	ForcePathStyle  bool   `yaml:"force_path_style,omitempty"`
	AccessKeyID     string `yaml:"access_key_id,omitempty"`
	SecretAccessKey string `yaml:"secret_access_key,omitempty"`
	StorageClass    string `yaml:"storage_class,omitempty"`
	ACL             string `yaml:"acl,omitempty"`
}

// Default returns a fully populated configuration with the calibrated
// evaluation parameters.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()

	return cfg
}

// Load reads and parses a configuration file from the given path. An empty
// path yields the default configuration.
func Load(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.applyDefaults()

	return &cfg, nil
}

// applyDefaults sets default values for unspecified configuration options.
func (c *Config) applyDefaults() {
	if c.Global.LogLevel == "" {
		c.Global.LogLevel = DefaultLogLevel
	}

	if c.Generator.Seed == 0 {
		c.Generator.Seed = DefaultSeed
	}

	if c.Generator.Runs == 0 {
		c.Generator.Runs = schema.DefaultRuns
	}

	if c.Generator.DataDir == "" {
		c.Generator.DataDir = DefaultDataDir
	}

	if c.Generator.SessionMinutes == 0 {
		c.Generator.SessionMinutes = DefaultSessionMinutes
	}

	if c.Generator.BucketMinutes == 0 {
		c.Generator.BucketMinutes = DefaultBucketMinutes
	}

	if c.Generator.TraceJitter == 0 {
		c.Generator.TraceJitter = 0.15
	}

	if c.Generator.GrowthRates == nil {
		// Exploration curve shapes: Monkey saturates early, SMATA keeps
		// finding new coverage throughout the session.
		c.Generator.GrowthRates = map[string]float64{
			string(schema.ApproachMonkey):    0.12,
			string(schema.ApproachDynodroid): 0.08,
			string(schema.ApproachAdHoc):     0.05,
			string(schema.ApproachSMATA):     0.06,
		}
	}

	if c.Analysis.Alpha == 0 {
		c.Analysis.Alpha = DefaultAlpha
	}

	if c.Analysis.TrackedComparisons == 0 {
		c.Analysis.TrackedComparisons = DefaultTrackedComparisons
	}

	if c.Metrics == nil {
		c.Metrics = defaultMetricParams()
	}
}

// defaultMetricParams returns the target parameters calibrated against the
// prototype evaluation.
func defaultMetricParams() map[string]MetricConfig {
	return map[string]MetricConfig{
		string(schema.MetricCoverage): {
			Params: map[string]ApproachParams{
				string(schema.ApproachMonkey):    {Mean: 40.8, Std: 10.7},
				string(schema.ApproachDynodroid): {Mean: 48.2, Std: 9.4},
				string(schema.ApproachAdHoc):     {Mean: 52.4, Std: 8.1},
				string(schema.ApproachSMATA):     {Mean: 68.7, Std: 6.2},
			},
			AuthAdjust: map[string]float64{
				string(schema.ApproachMonkey):    -5.0,
				string(schema.ApproachDynodroid): -3.0,
				string(schema.ApproachAdHoc):     -2.0,
				string(schema.ApproachSMATA):     5.0,
			},
			ComplexityStdScale: map[string]float64{
				"low":    0.85,
				"medium": 1.0,
				"high":   1.2,
			},
		},
		string(schema.MetricDetection): {
			Params: map[string]ApproachParams{
				string(schema.ApproachMonkey):    {Mean: 36.4, Std: 5.8},
				string(schema.ApproachDynodroid): {Mean: 47.3, Std: 6.1},
				string(schema.ApproachAdHoc):     {Mean: 52.6, Std: 4.2},
				string(schema.ApproachSMATA):     {Mean: 68.1, Std: 5.8},
			},
		},
		string(schema.MetricReproducibility): {
			Params: map[string]ApproachParams{
				string(schema.ApproachMonkey):    {Mean: 23.3, Std: 9.1},
				string(schema.ApproachDynodroid): {Mean: 36.3, Std: 5.8},
				string(schema.ApproachAdHoc):     {Mean: 57.1, Std: 11.0},
				string(schema.ApproachSMATA):     {Mean: 90.1, Std: 4.5},
			},
		},
		string(schema.MetricDebugTime): {
			Params: map[string]ApproachParams{
				string(schema.ApproachMonkey):    {Mean: 73.0, Std: 23.2},
				string(schema.ApproachDynodroid): {Mean: 65.0, Std: 21.1},
				string(schema.ApproachAdHoc):     {Mean: 47.0, Std: 17.0},
				string(schema.ApproachSMATA):     {Mean: 28.4, Std: 7.7},
			},
		},
		string(schema.MetricSetupTime): {
			Params: map[string]ApproachParams{
				string(schema.ApproachMonkey):     {Mean: 1.1, Std: 0.3},
				string(schema.ApproachDynodroid):  {Mean: 4.3, Std: 1.5},
				string(schema.ApproachAdHoc):      {Mean: 18.8, Std: 5.7},
				string(schema.ApproachSMATA):      {Mean: 5.0, Std: 2.2},
				string(schema.ApproachSMATAReuse): {Mean: 2.1, Std: 0.6},
			},
		},
	}
}

// Validate checks the configuration against the registry. Every
// (metric, approach) combination the registry declares must have target
// parameters; missing combinations are configuration errors so no partial
// dataset is ever emitted.
func (c *Config) Validate(reg *schema.Registry) error {
	if c.Generator.Runs <= 0 {
		return &schema.ConfigurationError{Key: "generator.runs", Reason: "must be positive"}
	}

	if c.Generator.BucketMinutes <= 0 ||
		c.Generator.SessionMinutes <= 0 ||
		c.Generator.SessionMinutes%c.Generator.BucketMinutes != 0 {
		return &schema.ConfigurationError{
			Key:    "generator.session_minutes",
			Reason: "session length must be a positive multiple of the bucket interval",
		}
	}

	if c.Analysis.Alpha <= 0 || c.Analysis.Alpha >= 1 {
		return &schema.ConfigurationError{Key: "analysis.alpha", Reason: "must be in (0, 1)"}
	}

	if c.Analysis.TrackedComparisons <= 0 {
		return &schema.ConfigurationError{Key: "analysis.tracked_comparisons", Reason: "must be positive"}
	}

	for _, metric := range reg.Metrics() {
		mc, ok := c.Metrics[string(metric.Name)]
		if !ok {
			return &schema.ConfigurationError{
				Key:    string(metric.Name),
				Reason: "no target parameters configured",
			}
		}

		for _, approach := range metric.Approaches {
			params, ok := mc.Params[string(approach)]
			if !ok {
				return &schema.ConfigurationError{
					Key:    fmt.Sprintf("%s/%s", metric.Name, approach),
					Reason: "no target parameters configured",
				}
			}

			if params.Std <= 0 {
				return &schema.ConfigurationError{
					Key:    fmt.Sprintf("%s/%s", metric.Name, approach),
					Reason: "std must be positive",
				}
			}
		}

		if metric.Name == schema.MetricCoverage {
			for _, approach := range metric.Approaches {
				if _, ok := c.Generator.GrowthRates[string(approach)]; !ok {
					return &schema.ConfigurationError{
						Key:    fmt.Sprintf("growth_rates/%s", approach),
						Reason: "no coverage growth rate configured",
					}
				}
			}
		}
	}

	if c.Store != nil && c.Store.Enabled {
		switch c.Store.Driver {
		case "sqlite":
			if c.Store.SQLite.Path == "" {
				return &schema.ConfigurationError{Key: "store.sqlite.path", Reason: "path is required"}
			}
		case "postgres":
			if c.Store.Postgres == nil || c.Store.Postgres.Host == "" {
				return &schema.ConfigurationError{Key: "store.postgres", Reason: "host is required"}
			}
		default:
			return &schema.ConfigurationError{
				Key:    "store.driver",
				Reason: fmt.Sprintf("unsupported driver %q", c.Store.Driver),
			}
		}
	}

	if c.Upload != nil && c.Upload.Enabled && c.Upload.Bucket == "" {
		return &schema.ConfigurationError{Key: "upload.bucket", Reason: "bucket is required"}
	}

	return nil
}

// Hash returns a short digest of the full configuration, recorded in the
// run catalog so regenerated datasets can be traced to their parameters.
func (c *Config) Hash() (string, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("marshaling config: %w", err)
	}

	sum := sha256.Sum256(data)

	return hex.EncodeToString(sum[:])[:16], nil
}
