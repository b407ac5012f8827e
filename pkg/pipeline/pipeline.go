// Package pipeline provides the generation pipeline for extwrangler.
//
// Every command (generate, inspect, graph, browse, serve) starts from the
// same resolved model, so the load → resolve → emit flow lives here once.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Load: locate vk.xml, decode it and drop unsupported entries
//  2. Resolve: build the version/alias index and resolve every depends
//     expression into a per-version dependency map
//  3. Emit: write the C++ lookup header and the JSON/YAML exports
//
// The result of the first two stages is an [emit.Model], which is cached
// under a key derived from the registry bytes and the options that affect
// resolution.
//
// # Usage
//
//	runner := pipeline.NewRunner(c, nil, logger)
//	opts := pipeline.OptionsFromConfig(cfg)
//	result, err := runner.Execute(ctx, opts)
//	if err != nil {
//	    return err
//	}
//	fmt.Println(result.Files[pipeline.FormatHeader])
//
// Run the stages separately:
//
//	result, err := runner.Resolve(ctx, opts)      // model only
//	files, err := runner.Emit(ctx, result.Model, opts)
package pipeline

import (
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/extwrangler/pkg/cache"
	"github.com/matzehuels/extwrangler/pkg/config"
	"github.com/matzehuels/extwrangler/pkg/depexpr"
	"github.com/matzehuels/extwrangler/pkg/diag"
	"github.com/matzehuels/extwrangler/pkg/emit"
	"github.com/matzehuels/extwrangler/pkg/errors"
	"github.com/matzehuels/extwrangler/pkg/registry"
)

// Format constants for output formats.
const (
	FormatHeader = "hpp"
	FormatJSON   = "json"
	FormatYAML   = "yaml"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatHeader: true,
	FormatJSON:   true,
	FormatYAML:   true,
}

// modelSchemaRevision is part of the model cache key. Bump it whenever
// emit.Model changes shape.
const modelSchemaRevision = 1

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for one pipeline run.
type Options struct {
	// Load options
	SpecDir     string
	ExcludeAPIs []string

	// Resolve options
	VersionPattern string
	Concurrency    int
	FeatureStructs bool
	Refresh        bool
	CacheTTL       time.Duration

	// Emit options
	OutputDir   string
	OutputFile  string
	GuardPrefix string
	Formats     []string

	// Runtime options
	Logger *log.Logger

	grammar   *depexpr.Grammar
	validated bool
}

// OptionsFromConfig maps a loaded configuration onto pipeline options.
func OptionsFromConfig(cfg config.Config) Options {
	return Options{
		SpecDir:        cfg.Registry.SpecDir,
		ExcludeAPIs:    cfg.Registry.ExcludeAPIs,
		VersionPattern: cfg.Registry.VersionPattern,
		Concurrency:    cfg.Resolve.Concurrency,
		FeatureStructs: cfg.Output.FeatureStructs,
		CacheTTL:       cfg.Cache.TTL,
		OutputDir:      cfg.Output.Dir,
		OutputFile:     cfg.Output.File,
		GuardPrefix:    cfg.Output.GuardPrefix,
	}
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Model is the resolved registry.
	Model *emit.Model

	// RegistryPath is the vk.xml that was read.
	RegistryPath string

	// Removed lists the registry entries dropped before indexing.
	// Empty on a cache hit.
	Removed []registry.Removal

	// Warnings lists the diagnostics of resolution. A cache hit replays
	// the reported ones stored with the model; Skipped entries are not kept.
	Warnings []diag.Warning

	// Files maps each emitted format to the path it was written to.
	Files map[string]string

	Stats     Stats
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	Versions    int
	Extensions  int
	Aliases     int
	LoadTime    time.Duration
	ResolveTime time.Duration
	EmitTime    time.Duration
}

// CacheInfo tracks cache hits.
type CacheInfo struct {
	ModelHit bool // Whether the model came from cache
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.New(errors.ErrCodeInvalidInput, "invalid format: %q (must be one of: hpp, json, yaml)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks fields and applies defaults.
// Calling it more than once has no further effect.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	defaults := config.Default()

	if o.VersionPattern == "" {
		o.VersionPattern = depexpr.DefaultVersionPattern
	}
	g, err := depexpr.NewGrammar(o.VersionPattern)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "version pattern")
	}
	o.grammar = g

	if o.Concurrency < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "concurrency must not be negative")
	}
	if o.OutputDir == "" {
		o.OutputDir = defaults.Output.Dir
	}
	if o.OutputFile == "" {
		o.OutputFile = defaults.Output.File
	}
	if err := errors.ValidateFilename(o.OutputFile); err != nil {
		return err
	}
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatHeader}
	}
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	o.validated = true
	return nil
}

// ModelKeyOpts returns the cache key options for the resolved model.
func (o *Options) ModelKeyOpts() cache.ModelKeyOpts {
	return cache.ModelKeyOpts{
		VersionPattern: o.VersionPattern,
		ExcludeAPIs:    o.ExcludeAPIs,
		FeatureStructs: o.FeatureStructs,
		SchemaRevision: modelSchemaRevision,
	}
}

// OutputPath returns where format is written. The header uses OutputFile
// as is; the exports share its base name.
func (o *Options) OutputPath(format string) string {
	name := o.OutputFile
	if format != FormatHeader {
		name = strings.TrimSuffix(name, filepath.Ext(name)) + "." + format
	}
	return filepath.Join(o.OutputDir, name)
}
