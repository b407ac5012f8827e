package resolve

import (
	"context"
	"runtime"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/extwrangler/pkg/depexpr"
	"github.com/matzehuels/extwrangler/pkg/diag"
	"github.com/matzehuels/extwrangler/pkg/errors"
	"github.com/matzehuels/extwrangler/pkg/model"
	"github.com/matzehuels/extwrangler/pkg/observability"
)

// Run is the context of one resolution pass over a registry. It replaces
// any process-wide state: two runs never share anything but read-only
// inputs.
type Run struct {
	Index    *model.Index
	Grammar  *depexpr.Grammar
	Reporter diag.Reporter
	Logger   *log.Logger

	// Concurrency bounds the number of items resolved in parallel.
	// Zero means GOMAXPROCS.
	Concurrency int
}

// NewRun creates a run over idx with the default grammar. Warnings go to
// a fresh [diag.Collector] streaming to logger.
func NewRun(idx *model.Index, logger *log.Logger) *Run {
	if logger == nil {
		logger = log.Default()
	}
	return &Run{
		Index:    idx,
		Grammar:  depexpr.DefaultGrammar,
		Reporter: diag.NewCollector(logger),
		Logger:   logger,
	}
}

func (r *Run) grammar() *depexpr.Grammar {
	if r.Grammar == nil {
		return depexpr.DefaultGrammar
	}
	return r.Grammar
}

func (r *Run) reporter() diag.Reporter {
	if r.Reporter == nil {
		return diag.Discard
	}
	return r.Reporter
}

// ResolveItem parses, resolves and finalizes a single item, storing the
// result in it.Deps. A malformed expression is returned as an
// INVALID_EXPRESSION error and leaves it.Deps untouched.
func (r *Run) ResolveItem(it *model.Item) error {
	var root depexpr.Node
	if it.HasDepends() {
		n, err := r.grammar().Parse(it.Depends)
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidExpression, err, "parse depends of %s", it.Name)
		}
		root = n
	}
	it.Deps = NewResolver(r.Index, r.reporter()).Resolve(it.Name, root)
	Finalize(it, r.Index)
	Verify(it, r.Index, r.reporter())
	return nil
}

// ResolveAll resolves every item of the index, aliases included.
//
// Items are processed concurrently; each goroutine writes only its own
// item. The first error cancels the remaining work and is returned.
func (r *Run) ResolveAll(ctx context.Context) error {
	items := r.Index.Items()
	start := time.Now()
	observability.Pipeline().OnResolveStart(ctx, len(items))

	limit := r.Concurrency
	if limit <= 0 {
		limit = runtime.GOMAXPROCS(0)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for _, it := range items {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return r.ResolveItem(it)
		})
	}
	err := g.Wait()

	warnings := 0
	if c, ok := r.Reporter.(*diag.Collector); ok {
		warnings = len(c.Warnings())
	}
	observability.Pipeline().OnResolveComplete(ctx, len(items), warnings, time.Since(start), err)
	if err != nil {
		return err
	}
	if r.Logger != nil {
		r.Logger.Debug("resolved dependencies",
			"items", len(items),
			"warnings", warnings,
			"duration", time.Since(start))
	}
	return nil
}
