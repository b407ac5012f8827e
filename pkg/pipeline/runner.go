package pipeline

import (
	"bytes"
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/extwrangler/pkg/buildinfo"
	"github.com/matzehuels/extwrangler/pkg/cache"
	"github.com/matzehuels/extwrangler/pkg/diag"
	"github.com/matzehuels/extwrangler/pkg/emit"
	"github.com/matzehuels/extwrangler/pkg/errors"
	"github.com/matzehuels/extwrangler/pkg/model"
	"github.com/matzehuels/extwrangler/pkg/observability"
	"github.com/matzehuels/extwrangler/pkg/registry"
	"github.com/matzehuels/extwrangler/pkg/render/nodelink"
	"github.com/matzehuels/extwrangler/pkg/resolve"
)

// Runner encapsulates pipeline execution with caching.
//
// The Runner is stateless except for the cache and logger; it doesn't
// store pipeline results. Multiple goroutines can safely use the same
// Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute runs the complete load → resolve → emit pipeline.
// No output file is touched unless resolution succeeds.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	result, err := r.Resolve(ctx, opts)
	if err != nil {
		return nil, err
	}

	emitStart := time.Now()
	files, err := r.Emit(ctx, result.Model, opts)
	if err != nil {
		return nil, err
	}
	result.Files = files
	result.Stats.EmitTime = time.Since(emitStart)

	r.Logger.Info("wrote outputs",
		"formats", opts.Formats,
		"duration", result.Stats.EmitTime)
	return result, nil
}

// Resolve loads the registry and returns the resolved model, from cache
// when possible.
func (r *Runner) Resolve(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}

	// Stage 1: Load
	path, err := registry.Locate(opts.SpecDir)
	if err != nil {
		return nil, err
	}
	loadStart := time.Now()
	observability.Pipeline().OnLoadStart(ctx, path)
	reg, err := registry.Load(path)
	extensions := 0
	if reg != nil {
		extensions = len(reg.Extensions)
	}
	observability.Pipeline().OnLoadComplete(ctx, path, extensions, time.Since(loadStart), err)
	if err != nil {
		return nil, err
	}

	result := &Result{RegistryPath: path}
	result.Stats.LoadTime = time.Since(loadStart)
	r.Logger.Info("loaded registry",
		"path", path,
		"versions", len(reg.Versions),
		"extensions", extensions,
		"duration", result.Stats.LoadTime)

	key := r.Keyer.ModelKey(reg.Hash, opts.ModelKeyOpts())
	if !opts.Refresh {
		if m, ok := r.cachedModel(ctx, key, reg.Hash); ok {
			result.Model = m
			result.CacheInfo.ModelHit = true
			result.fillCounts()

			// Warnings were streamed when the model was built; show them again.
			replay := diag.NewCollector(r.Logger)
			diag.Replay(replay, m.Warnings)
			result.Warnings = replay.Warnings()
			r.Logger.Info("using cached model", "extensions", result.Stats.Extensions)
			return result, nil
		}
	}

	// Stage 2: Resolve
	resolveStart := time.Now()
	if err := r.resolveRegistry(ctx, reg, opts, result); err != nil {
		return nil, err
	}
	result.Stats.ResolveTime = time.Since(resolveStart)
	result.fillCounts()

	r.Logger.Info("resolved dependencies",
		"extensions", result.Stats.Extensions,
		"aliases", result.Stats.Aliases,
		"warnings", len(result.Warnings),
		"duration", result.Stats.ResolveTime)

	r.storeModel(ctx, key, result.Model, opts.CacheTTL)
	return result, nil
}

func (r *Runner) resolveRegistry(ctx context.Context, reg *registry.Registry, opts Options, result *Result) error {
	collector := diag.NewCollector(r.Logger)

	result.Removed = reg.FilterUnsupported(opts.ExcludeAPIs)
	for _, rm := range result.Removed {
		collector.Report(diag.Warning{Kind: diag.Skipped, Item: rm.Name, Message: rm.Reason})
	}
	if n := len(result.Removed); n > 0 {
		r.Logger.Info("removed unsupported registry entries", "count", n)
	}

	versions := reg.ModelVersions()
	var qs *registry.QueryStructs
	if opts.FeatureStructs {
		grouped := reg.GroupQueryStructs(versions, reg.Extensions)
		for _, name := range grouped.Missing {
			collector.Report(diag.Warning{Kind: diag.Skipped, Item: name, Message: "feature struct has no sType"})
		}
		qs = &grouped
	}

	idx, err := model.NewIndex(versions, reg.ModelItems(qs), collector)
	if err != nil {
		return err
	}

	run := &resolve.Run{
		Index:       idx,
		Grammar:     opts.grammar,
		Reporter:    collector,
		Logger:      r.Logger,
		Concurrency: opts.Concurrency,
	}
	if err := run.ResolveAll(ctx); err != nil {
		return err
	}

	result.Model = emit.Build(idx, qs, reg.Hash)
	result.Warnings = collector.Warnings()
	result.Model.Warnings = diag.Reported(result.Warnings)
	return nil
}

func (r *Runner) cachedModel(ctx context.Context, key, registryHash string) (*emit.Model, bool) {
	data, hit, err := r.Cache.Get(ctx, key)
	if err != nil {
		r.Logger.Debug("cache read failed", "error", err)
		return nil, false
	}
	if !hit {
		observability.Cache().OnCacheMiss(ctx, "model")
		return nil, false
	}
	m, err := emit.ReadJSON(bytes.NewReader(data))
	if err != nil || m.RegistryHash != registryHash {
		// Unreadable or foreign entries are recomputed and overwritten.
		observability.Cache().OnCacheMiss(ctx, "model")
		return nil, false
	}
	observability.Cache().OnCacheHit(ctx, "model")
	return m, true
}

func (r *Runner) storeModel(ctx context.Context, key string, m *emit.Model, ttl time.Duration) {
	var buf bytes.Buffer
	if err := emit.WriteJSON(m, &buf); err != nil {
		return
	}
	if err := r.Cache.Set(ctx, key, buf.Bytes(), ttl); err != nil {
		r.Logger.Debug("cache write failed", "error", err)
		return
	}
	observability.Cache().OnCacheSet(ctx, "model", buf.Len())
}

// Emit writes every requested format of m and returns format → path.
// Nothing is written unless every format renders.
func (r *Runner) Emit(ctx context.Context, m *emit.Model, opts Options) (map[string]string, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	start := time.Now()
	observability.Pipeline().OnEmitStart(ctx, opts.Formats)

	files, err := emitFormats(m, opts)
	observability.Pipeline().OnEmitComplete(ctx, opts.Formats, time.Since(start), err)
	if err != nil {
		return nil, err
	}
	for format, path := range files {
		r.Logger.Debug("wrote file", "format", format, "path", path)
	}
	return files, nil
}

// emitFormats renders every format in memory before any file is touched,
// then replaces all outputs together.
func emitFormats(m *emit.Model, opts Options) (map[string]string, error) {
	files := make(map[string]string, len(opts.Formats))
	outputs := make([]emit.File, 0, len(opts.Formats))
	for _, format := range opts.Formats {
		data, err := renderFormat(m, format, opts)
		if err != nil {
			return nil, emitError(err, "render %s", format)
		}
		path := opts.OutputPath(format)
		outputs = append(outputs, emit.File{Path: path, Data: data})
		files[format] = path
	}
	if err := emit.WriteFilesAtomic(outputs); err != nil {
		return nil, emitError(err, "write outputs")
	}
	return files, nil
}

func renderFormat(m *emit.Model, format string, opts Options) ([]byte, error) {
	var buf bytes.Buffer
	var err error
	switch format {
	case FormatHeader:
		err = emit.WriteHeader(&buf, m, emit.HeaderOptions{
			GuardPrefix:    opts.GuardPrefix,
			FeatureStructs: opts.FeatureStructs,
			Generator:      buildinfo.GeneratorTag(),
		})
	case FormatJSON:
		err = emit.WriteJSON(m, &buf)
	case FormatYAML:
		err = emit.WriteYAML(m, &buf)
	default:
		err = ValidateFormat(format)
	}
	return buf.Bytes(), err
}

// emitError keeps the code of err, falling back to INTERNAL_ERROR.
func emitError(err error, format string, args ...any) error {
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	return errors.Wrap(code, err, format, args...)
}

// Graph renders the dependency graph of m at a version as "dot" or "svg",
// caching rendered output by model content and graph options.
func (r *Runner) Graph(ctx context.Context, m *emit.Model, version, format string, opts nodelink.Options) ([]byte, bool, error) {
	if format != "dot" && format != "svg" {
		return nil, false, errors.New(errors.ErrCodeInvalidInput, "invalid graph format: %q (must be one of: dot, svg)", format)
	}

	var modelJSON bytes.Buffer
	if err := emit.WriteJSON(m, &modelJSON); err != nil {
		return nil, false, err
	}
	key := r.Keyer.GraphKey(cache.Hash(modelJSON.Bytes()), cache.GraphKeyOpts{
		Version:      version,
		Format:       format,
		Detailed:     opts.Detailed,
		HidePromoted: opts.HidePromoted,
		Focus:        opts.Focus,
	})
	if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
		observability.Cache().OnCacheHit(ctx, "graph")
		return data, true, nil
	}
	observability.Cache().OnCacheMiss(ctx, "graph")

	dot, err := nodelink.ToDOT(m, version, opts)
	if err != nil {
		return nil, false, err
	}
	data := []byte(dot)
	if format == "svg" {
		if data, err = nodelink.RenderSVG(ctx, dot); err != nil {
			return nil, false, errors.Wrap(errors.ErrCodeInternal, err, "render svg")
		}
	}
	if err := r.Cache.Set(ctx, key, data, 0); err == nil {
		observability.Cache().OnCacheSet(ctx, "graph", len(data))
	}
	return data, false, nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

func (res *Result) fillCounts() {
	res.Stats.Versions = len(res.Model.Versions)
	res.Stats.Extensions = len(res.Model.Extensions)
	res.Stats.Aliases = len(res.Model.Aliases)
}
