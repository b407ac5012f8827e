package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/extwrangler/pkg/emit"
	"github.com/matzehuels/extwrangler/pkg/render/nodelink"
)

type graphFlags struct {
	sourceFlags
	version string
	format  string
	output  string
	nodelink.Options
}

// graphCommand creates the graph command.
func (c *CLI) graphCommand() *cobra.Command {
	var flags graphFlags

	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Draw the extension dependency graph of a version",
		Example: `  extwrangler graph --version VK_VERSION_1_1 > deps.dot
  extwrangler graph --format svg --focus VK_KHR_dynamic_rendering -o dr.svg`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runGraph(cmd, &flags)
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&flags.version, "version", "", "version to draw (default: latest)")
	cmd.Flags().StringVar(&flags.format, "format", "dot", "output format: dot, svg")
	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "output file (default: stdout)")
	cmd.Flags().StringVar(&flags.Focus, "focus", "", "only draw this extension and what it requires")
	cmd.Flags().BoolVar(&flags.Detailed, "detailed", false, "add type and index to node labels")
	cmd.Flags().BoolVar(&flags.HidePromoted, "hide-promoted", false, "leave out extensions that are core at the version")

	return cmd
}

func (c *CLI) runGraph(cmd *cobra.Command, flags *graphFlags) error {
	cfg, opts, err := flags.load(cmd)
	if err != nil {
		return err
	}
	runner, err := c.newRunner(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer runner.Close()

	opts.Logger = c.Logger
	result, err := runner.Resolve(cmd.Context(), opts)
	if err != nil {
		return err
	}

	version := flags.version
	if version == "" {
		version = lastVersion(result)
	}
	data, cached, err := runner.Graph(cmd.Context(), result.Model, version, flags.format, flags.Options)
	if err != nil {
		return err
	}
	c.Logger.Debug("graph ready", "version", version, "bytes", len(data), "cached", cached)

	if flags.output == "" {
		_, err = cmd.OutOrStdout().Write(data)
		return err
	}
	if err := emit.WriteFileAtomic(flags.output, data); err != nil {
		return err
	}
	printer{w: cmd.ErrOrStderr()}.file(flags.output)
	return nil
}
