// Package config loads extwrangler.toml.
//
// Every field has a default, so a missing file is not an error. Command
// line flags override file values; that merge happens in the CLI.
package config

import (
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/extwrangler/pkg/depexpr"
	"github.com/matzehuels/extwrangler/pkg/errors"
)

// FileName is the config file looked up in the working directory.
const FileName = "extwrangler.toml"

// Config is the full configuration.
type Config struct {
	Registry RegistryConfig `toml:"registry"`
	Output   OutputConfig   `toml:"output"`
	Resolve  ResolveConfig  `toml:"resolve"`
	Cache    CacheConfig    `toml:"cache"`
	Serve    ServeConfig    `toml:"serve"`
}

// RegistryConfig controls how vk.xml is read and filtered.
type RegistryConfig struct {
	SpecDir        string   `toml:"spec_dir"`
	ExcludeAPIs    []string `toml:"exclude_apis"`
	VersionPattern string   `toml:"version_pattern"`
}

// OutputConfig controls the generated header.
type OutputConfig struct {
	Dir            string `toml:"dir"`
	File           string `toml:"file"`
	GuardPrefix    string `toml:"guard_prefix"`
	FeatureStructs bool   `toml:"feature_structs"`
}

// ResolveConfig tunes resolution.
type ResolveConfig struct {
	Concurrency int `toml:"concurrency"`
}

// CacheConfig selects the model cache backend. RedisURL takes precedence
// over Dir when set.
type CacheConfig struct {
	Enabled   bool          `toml:"enabled"`
	Dir       string        `toml:"dir"`
	TTL       time.Duration `toml:"ttl"`
	RedisURL  string        `toml:"redis_url"`
	Namespace string        `toml:"namespace"`
}

// ServeConfig configures the read-only HTTP view.
type ServeConfig struct {
	Addr string `toml:"addr"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Registry: RegistryConfig{
			ExcludeAPIs:    []string{"vulkansc"},
			VersionPattern: depexpr.DefaultVersionPattern,
		},
		Output: OutputConfig{
			Dir:            ".",
			File:           "GeneratedExtensionHeader.hpp",
			GuardPrefix:    "VK_EXTENSION_WRANGLER_LOOKUPS_",
			FeatureStructs: true,
		},
		Cache: CacheConfig{
			Enabled: true,
			TTL:     7 * 24 * time.Hour,
		},
		Serve: ServeConfig{
			Addr: "127.0.0.1:8080",
		},
	}
}

// Load reads the config at path on top of [Default]. An empty path looks
// for [FileName] in the working directory and falls back to the defaults
// when it is absent. Unknown keys are rejected.
func Load(path string) (Config, error) {
	cfg := Default()
	explicit := path != ""
	if !explicit {
		path = FileName
	}

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) && !explicit {
			return cfg, nil
		}
		return cfg, errors.Wrap(errors.ErrCodeFileNotFound, err, "config %s", path)
	}

	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return cfg, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return cfg, errors.New(errors.ErrCodeInvalidConfig, "unknown keys in %s: %s", path, strings.Join(keys, ", "))
	}
	return cfg, cfg.Validate()
}

// Validate checks field values.
func (c Config) Validate() error {
	if _, err := regexp.Compile(c.Registry.VersionPattern); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "registry.version_pattern")
	}
	if err := errors.ValidateFilename(c.Output.File); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "output.file")
	}
	if c.Output.GuardPrefix != "" && !guardRegex.MatchString(c.Output.GuardPrefix) {
		return errors.New(errors.ErrCodeInvalidConfig, "output.guard_prefix %q is not a valid macro prefix", c.Output.GuardPrefix)
	}
	if c.Resolve.Concurrency < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "resolve.concurrency must not be negative")
	}
	if c.Cache.TTL < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "cache.ttl must not be negative")
	}
	if c.Serve.Addr == "" {
		return errors.New(errors.ErrCodeInvalidConfig, "serve.addr cannot be empty")
	}
	return nil
}

var guardRegex = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Grammar builds the expression grammar from the configured pattern.
func (c Config) Grammar() (*depexpr.Grammar, error) {
	g, err := depexpr.NewGrammar(c.Registry.VersionPattern)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "registry.version_pattern")
	}
	return g, nil
}
