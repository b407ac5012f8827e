// Package cli implements the extwrangler command-line interface.
package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/extwrangler/pkg/buildinfo"
	"github.com/matzehuels/extwrangler/pkg/cache"
	"github.com/matzehuels/extwrangler/pkg/config"
	"github.com/matzehuels/extwrangler/pkg/observability"
	"github.com/matzehuels/extwrangler/pkg/pipeline"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "extwrangler"

	// sdkEnv names the environment variable consulted when --spec-dir is
	// not given.
	sdkEnv = "VULKAN_SDK"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// Out receives command output. Defaults to stdout.
	Out io.Writer
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		Out:    os.Stdout,
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "extwrangler resolves Vulkan extension dependencies",
		Long: `extwrangler reads the Vulkan registry (vk.xml), resolves the depends
expression of every extension into per-version dependency lists and
generates a C++ lookup header from the result.`,
		Version:       buildinfo.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			hooks := &logHooks{logger: c.Logger}
			observability.SetPipelineHooks(hooks)
			observability.SetCacheHooks(hooks)
			observability.SetHTTPHooks(hooks)
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.SetOut(c.Out)

	root.AddCommand(c.generateCommand())
	root.AddCommand(c.inspectCommand())
	root.AddCommand(c.graphCommand())
	root.AddCommand(c.browseCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Shared Flags
// =============================================================================

// sourceFlags select and configure the registry input. Every command that
// resolves a model registers them.
type sourceFlags struct {
	configPath string
	specDir    string
	exclude    []string
	refresh    bool
	noCache    bool
}

func (f *sourceFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.configPath, "config", "c", "", "config file (default: ./"+config.FileName+" if present)")
	cmd.Flags().StringVar(&f.specDir, "spec-dir", "", "Vulkan SDK or registry directory containing vk.xml (default: $"+sdkEnv+")")
	cmd.Flags().StringSliceVar(&f.exclude, "exclude-api", nil, "API tracks to drop (default from config: vulkansc)")
	cmd.Flags().BoolVar(&f.refresh, "refresh", false, "ignore the cached model and resolve again")
	cmd.Flags().BoolVar(&f.noCache, "no-cache", false, "disable the model cache")
}

// load reads the configuration and applies flag overrides on top of it.
// Flags only win when they were set explicitly.
func (f *sourceFlags) load(cmd *cobra.Command) (config.Config, pipeline.Options, error) {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return cfg, pipeline.Options{}, err
	}

	switch {
	case cmd.Flags().Changed("spec-dir"):
		cfg.Registry.SpecDir = f.specDir
	case cfg.Registry.SpecDir == "":
		cfg.Registry.SpecDir = os.Getenv(sdkEnv)
	}
	if cmd.Flags().Changed("exclude-api") {
		cfg.Registry.ExcludeAPIs = f.exclude
	}
	if f.noCache {
		cfg.Cache.Enabled = false
	}

	opts := pipeline.OptionsFromConfig(cfg)
	opts.Refresh = f.refresh
	return cfg, opts, nil
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(ctx context.Context, cfg config.Config) (*pipeline.Runner, error) {
	store, err := c.newCache(ctx, cfg.Cache)
	if err != nil {
		return nil, err
	}
	var keyer cache.Keyer = cache.NewDefaultKeyer()
	if cfg.Cache.Namespace != "" {
		keyer = cache.NewScopedKeyer(keyer, cfg.Cache.Namespace+":")
	}
	return pipeline.NewRunner(store, keyer, c.Logger), nil
}

// newCache picks the backend: Redis when a URL is configured, the file
// cache otherwise. An unreachable Redis degrades to the file cache.
func (c *CLI) newCache(ctx context.Context, cfg config.CacheConfig) (cache.Cache, error) {
	if !cfg.Enabled {
		return cache.NewNullCache(), nil
	}
	if cfg.RedisURL != "" {
		rc, err := cache.NewRedisCache(ctx, cfg.RedisURL)
		if err == nil {
			return rc, nil
		}
		c.Logger.Warn("redis cache unavailable, using file cache", "error", err)
	}
	dir := cfg.Dir
	if dir == "" {
		var err error
		if dir, err = cacheDir(); err != nil {
			return cache.NewNullCache(), nil
		}
	}
	return cache.NewFileCache(dir)
}

// resolveModel runs the load and resolve stages for commands that only
// read the model.
func (c *CLI) resolveModel(cmd *cobra.Command, flags *sourceFlags) (*pipeline.Result, config.Config, error) {
	cfg, opts, err := flags.load(cmd)
	if err != nil {
		return nil, cfg, err
	}
	runner, err := c.newRunner(cmd.Context(), cfg)
	if err != nil {
		return nil, cfg, err
	}
	defer runner.Close()

	opts.Logger = c.Logger
	result, err := runner.Resolve(cmd.Context(), opts)
	return result, cfg, err
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/extwrangler/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}
