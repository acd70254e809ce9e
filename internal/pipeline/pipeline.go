// Package pipeline turns metadata records into enriched location results.
// It owns the per-record composition (resolve, then enrich) and the bounded
// fan-out used for batches.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/loopercamera/4M/internal/domain/enrich"
	"github.com/loopercamera/4M/internal/domain/resolver"
	"github.com/loopercamera/4M/internal/ports"
)

// Pipeline is safe for concurrent use; it only reads its resolver and table.
type Pipeline struct {
	resolver *resolver.Resolver
	table    *enrich.Table
	workers  int
	logger   *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithWorkers bounds the number of records processed at once. n <= 0 uses
// GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.workers = n
		}
	}
}

// WithLogger sets the logger used for per-record diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.logger = l
		}
	}
}

// New creates a Pipeline.
func New(r *resolver.Resolver, t *enrich.Table, opts ...Option) *Pipeline {
	p := &Pipeline{
		resolver: r,
		table:    t,
		workers:  runtime.GOMAXPROCS(0),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Workers returns the configured concurrency bound.
func (p *Pipeline) Workers() int {
	return p.workers
}

// Resolver returns the underlying resolver.
func (p *Pipeline) Resolver() *resolver.Resolver {
	return p.resolver
}

// Table returns the enrichment table.
func (p *Pipeline) Table() *enrich.Table {
	return p.table
}

// Process resolves and enriches one record.
func (p *Pipeline) Process(rec ports.Record) ports.Result {
	res := p.resolver.ResolveRecord(rec)
	loc := p.table.Enrich(res.LabelID)

	out := ports.Result{
		Identifier: rec.Identifier,
		Language:   rec.Language,
		Publisher:  rec.Publisher(),
		LabelID:    loc.LabelID,
		Location:   loc.Name,
		District:   loc.District,
		Canton:     loc.Canton,
		Country:    loc.Country,
		MatchLevel: res.Level,
		MatchRule:  res.Rule,
	}
	if res.Field != "" {
		field := res.Field
		out.MatchField = &field
	}

	if !res.Resolved() {
		p.logger.Debug("no location found",
			"dataset_identifier", rec.Identifier,
			"rule", res.Rule)
	}
	return out
}

// Run processes records with at most Workers() in flight. Results are
// sorted by identifier. A cancelled context stops the batch between
// records and returns the context error.
func (p *Pipeline) Run(ctx context.Context, records []ports.Record) ([]ports.Result, Summary, error) {
	results := make([]ports.Result, len(records))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for i := range records {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = p.Process(records[i])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, Summary{}, err
	}
	if err := ctx.Err(); err != nil {
		return nil, Summary{}, err
	}

	sort.SliceStable(results, func(a, b int) bool {
		return results[a].Identifier < results[b].Identifier
	})

	sum := NewSummary()
	for _, r := range results {
		sum.Add(r)
	}
	return results, sum, nil
}

// Sync fetches pending records from src, resolves them and saves every
// result to sink in one batch.
func (p *Pipeline) Sync(ctx context.Context, src ports.RecordSource, sink ports.ResultSink, limit int) (Summary, error) {
	records, err := src.Fetch(ctx, limit)
	if err != nil {
		return Summary{}, fmt.Errorf("fetch records: %w", err)
	}
	p.logger.Info("fetched records", "count", len(records), "limit", limit)
	if len(records) == 0 {
		return NewSummary(), nil
	}

	results, sum, err := p.Run(ctx, records)
	if err != nil {
		return Summary{}, err
	}
	if err := sink.Save(ctx, results); err != nil {
		return Summary{}, fmt.Errorf("save results: %w", err)
	}
	p.logger.Info("saved results",
		"total", sum.Total,
		"resolved", sum.Resolved,
		"unresolved", sum.Unresolved)
	return sum, nil
}
