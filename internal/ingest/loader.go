package ingest

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/bankfacts/internal/model"
	"github.com/sells-group/bankfacts/internal/waterfall"
)

// Loader reads batch files concurrently and normalizes their records.
type Loader struct {
	Normalizer  Normalizer
	Read        ReadOptions
	Concurrency int
}

// NewLoader creates a loader ranking candidates with rules.
func NewLoader(rules *waterfall.Config, concurrency int) *Loader {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Loader{Normalizer: Normalizer{Rules: rules}, Concurrency: concurrency}
}

// LoadFile reads and normalizes one batch file in record order.
func (l *Loader) LoadFile(path string) ([]model.Candidate, error) {
	records, err := ReadFile(path, l.Read)
	if err != nil {
		return nil, err
	}
	out := make([]model.Candidate, 0, len(records))
	for i, r := range records {
		c, err := l.Normalizer.Candidate(path, r)
		if err != nil {
			return nil, eris.Wrapf(err, "ingest: %s record %d", path, i+1)
		}
		out = append(out, c)
	}
	return out, nil
}

// LoadFiles parses files in parallel. The result lists candidates file by
// file in argument order, so append order does not depend on scheduling.
func (l *Loader) LoadFiles(ctx context.Context, paths []string) ([]model.Candidate, error) {
	results := make([][]model.Candidate, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.Concurrency)
	for i, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			cs, err := l.LoadFile(path)
			if err != nil {
				return err
			}
			results[i] = cs
			zap.L().Info("ingest: file parsed",
				zap.String("path", path),
				zap.Int("candidates", len(cs)),
			)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, eris.Wrap(err, "ingest: load files")
	}

	var out []model.Candidate
	for _, cs := range results {
		out = append(out, cs...)
	}
	return out, nil
}
