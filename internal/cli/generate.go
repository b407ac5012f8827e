package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/matzehuels/extwrangler/pkg/diag"
	"github.com/matzehuels/extwrangler/pkg/pipeline"
)

type generateFlags struct {
	sourceFlags
	outputDir      string
	outputFile     string
	formats        []string
	noFeatureTypes bool
	concurrency    int
}

// generateCommand creates the generate command.
func (c *CLI) generateCommand() *cobra.Command {
	var flags generateFlags

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate the extension lookup header from vk.xml",
		Long: `Generate resolves every extension of the registry and writes the C++
lookup header. JSON and YAML exports of the resolved model can be written
alongside it with --format.`,
		Example: `  extwrangler generate --spec-dir $VULKAN_SDK --output-dir include/
  extwrangler generate --format hpp,json --refresh`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runGenerate(cmd, &flags)
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&flags.outputDir, "output-dir", "o", "", "directory for generated files (default from config: .)")
	cmd.Flags().StringVar(&flags.outputFile, "output-file", "", "header file name (default from config: GeneratedExtensionHeader.hpp)")
	cmd.Flags().StringSliceVarP(&flags.formats, "format", "f", []string{pipeline.FormatHeader}, "output formats: hpp, json, yaml")
	cmd.Flags().BoolVar(&flags.noFeatureTypes, "no-feature-structs", false, "omit the feature/property struct tables")
	cmd.Flags().IntVar(&flags.concurrency, "concurrency", 0, "parallel resolvers (default: GOMAXPROCS)")

	return cmd
}

func (c *CLI) runGenerate(cmd *cobra.Command, flags *generateFlags) error {
	cfg, opts, err := flags.load(cmd)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("output-dir") {
		opts.OutputDir = flags.outputDir
	}
	if cmd.Flags().Changed("output-file") {
		opts.OutputFile = flags.outputFile
	}
	if flags.noFeatureTypes {
		opts.FeatureStructs = false
	}
	if cmd.Flags().Changed("concurrency") {
		opts.Concurrency = flags.concurrency
	}
	opts.Formats = flags.formats
	opts.Logger = loggerFromContext(cmd.Context())

	runner, err := c.newRunner(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer runner.Close()

	result, err := runner.Execute(cmd.Context(), opts)
	if err != nil {
		return err
	}

	p := printer{w: cmd.OutOrStdout()}
	p.success("Generated %d file(s) from %s", len(result.Files), result.RegistryPath)
	p.stats(result.Stats.Extensions, result.Stats.Aliases, countReported(result.Warnings), result.CacheInfo.ModelHit)

	formats := make([]string, 0, len(result.Files))
	for format := range result.Files {
		formats = append(formats, format)
	}
	sort.Strings(formats)
	for _, format := range formats {
		p.file(result.Files[format])
	}
	if n := countKind(result.Warnings, diag.Dangling); n > 0 {
		p.warning("%d dangling reference(s) were dropped; rerun with -v for details", n)
	}
	if n := countKind(result.Warnings, diag.Inconsistent); n > 0 {
		p.warning("%d inconsistent dependency entries", n)
	}
	p.nextStep("Inspect the result", fmt.Sprintf("%s inspect --version %s", appName, lastVersion(result)))
	return nil
}

// countReported counts the warnings a user should look at. Skipped entries
// are expected and only logged.
func countReported(ws []diag.Warning) int {
	return len(diag.Reported(ws))
}

func countKind(ws []diag.Warning, k diag.Kind) int {
	n := 0
	for _, w := range ws {
		if w.Kind == k {
			n++
		}
	}
	return n
}

func lastVersion(result *pipeline.Result) string {
	vs := result.Model.Versions
	if len(vs) == 0 {
		return ""
	}
	return vs[len(vs)-1].Name
}
