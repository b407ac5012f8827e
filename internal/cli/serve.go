package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/extwrangler/internal/server"
)

// shutdownTimeout bounds how long in-flight requests may take after an
// interrupt.
const shutdownTimeout = 5 * time.Second

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		flags sourceFlags
		addr  string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the resolved model as a read-only JSON API",
		Long: `Serve resolves the registry once and answers queries about it:

  GET /versions
  GET /extensions?type=device&version=VK_VERSION_1_2
  GET /extensions/{name}
  GET /extensions/{name}/deps/{version}
  GET /graph/{version}?focus={name}
  GET /model
  GET /healthz`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			result, cfg, err := c.resolveModel(cmd, &flags)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("addr") {
				cfg.Serve.Addr = addr
			}

			srv := server.New(cfg.Serve.Addr, result.Model, c.Logger)
			ctx := cmd.Context()
			g, gctx := errgroup.WithContext(ctx)
			g.Go(srv.Start)
			g.Go(func() error {
				<-gctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
				defer cancel()
				return srv.Shutdown(shutdownCtx)
			})
			if err := g.Wait(); err != nil {
				return err
			}
			// An interrupt ends serve normally but still propagates for the exit code.
			return ctx.Err()
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config: 127.0.0.1:8080)")
	return cmd
}
