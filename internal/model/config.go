package model

import (
	"runtime"
	"time"
)

// Config is the full runtime configuration, loadable from
// ~/.cryptopaymap/config.yaml and CPM_* environment variables.
type Config struct {
	Store       StoreConfig       `yaml:"store" json:"store"`
	Chains      ChainsConfig      `yaml:"chains" json:"chains"`
	Normalizer  NormalizerConfig  `yaml:"normalizer" json:"normalizer"`
	Match       MatchConfig       `yaml:"match" json:"match"`
	HTTP        HTTPConfig        `yaml:"http" json:"http"`
	Cache       CacheConfig       `yaml:"cache" json:"cache"`
	Concurrency ConcurrencyConfig `yaml:"concurrency" json:"concurrency"`
	Output      OutputConfig      `yaml:"output" json:"output"`
}

// StoreConfig locates the record store and run artifacts.
type StoreConfig struct {
	Dir            string `yaml:"dir" json:"dir"`
	SubmissionsDir string `yaml:"submissions_dir" json:"submissions_dir"`
	RejectsFile    string `yaml:"rejects_file" json:"rejects_file"`
}

// ChainsConfig points at an optional external chain-alias table.
type ChainsConfig struct {
	AliasFile string `yaml:"alias_file" json:"alias_file"`
}

// NormalizerConfig tags the rule set applied by this run.
type NormalizerConfig struct {
	RulesVersion string `yaml:"rules_version" json:"rules_version"`
}

// MatchConfig holds the fuzzy-dedup threshold.
type MatchConfig struct {
	MaxDistanceMeters float64 `yaml:"max_distance_meters" json:"max_distance_meters"`
}

// HTTPConfig configures the auxiliary liveness checker's client.
type HTTPConfig struct {
	Timeout    time.Duration `yaml:"timeout" json:"timeout"`
	UserAgent  string        `yaml:"user_agent" json:"user_agent"`
	HTTPProxy  string        `yaml:"http_proxy" json:"http_proxy"`
	HTTPSProxy string        `yaml:"https_proxy" json:"https_proxy"`
	NoProxy    string        `yaml:"no_proxy" json:"no_proxy"`
	RatePerSec float64       `yaml:"rate_per_sec" json:"rate_per_sec"`
	RateBurst  int           `yaml:"rate_burst" json:"rate_burst"`
}

// CacheConfig configures the liveness fetch cache.
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" json:"enabled"`
	Dir       string        `yaml:"dir" json:"dir"`
	MemoryTTL time.Duration `yaml:"memory_ttl" json:"memory_ttl"`
	DiskTTL   time.Duration `yaml:"disk_ttl" json:"disk_ttl"`
}

// ConcurrencyConfig sets the shard fan-out width.
type ConcurrencyConfig struct {
	Workers int `yaml:"workers" json:"workers"`
}

// OutputConfig controls diagnostics.
type OutputConfig struct {
	Verbose bool `yaml:"verbose" json:"verbose"`
}

// RulesVersion is the current normalizer rule set tag. Bump when parsing or
// alias semantics change so migrations become replays of a named version.
const RulesVersion = "v2"

// DefaultConfig returns the built-in defaults, lowest priority in the
// flags > env > file > defaults hierarchy.
func DefaultConfig() Config {
	return Config{
		Store: StoreConfig{
			Dir:            "./data/places",
			SubmissionsDir: "./data/submissions",
			RejectsFile:    "./data/rejects.jsonl",
		},
		Normalizer: NormalizerConfig{
			RulesVersion: RulesVersion,
		},
		Match: MatchConfig{
			MaxDistanceMeters: 50,
		},
		HTTP: HTTPConfig{
			Timeout:    10 * time.Second,
			UserAgent:  "cryptopaymap/0.2 (+https://github.com/badjoke-lab/cryptopaymap)",
			RatePerSec: 2,
			RateBurst:  5,
		},
		Cache: CacheConfig{
			Enabled:   true,
			Dir:       "./.cryptopaymap-cache",
			MemoryTTL: 15 * time.Minute,
			DiskTTL:   24 * time.Hour,
		},
		Concurrency: ConcurrencyConfig{
			Workers: runtime.NumCPU(),
		},
		Output: OutputConfig{},
	}
}
