// Package pubfetch hydrates publication records from the external
// bibliographic collaborator.
package pubfetch

import (
	"context"
	"sort"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/verdantbio/geneset/internal/model"
)

// DefaultConcurrency bounds parallel fetches when no limit is configured.
const DefaultConcurrency = 4

// Fetcher retrieves one bibliographic record by its external identifier.
// Implementations talk to the outside world; everything above them stays
// deterministic.
type Fetcher interface {
	Fetch(ctx context.Context, pmid int64) (*model.Publication, error)
}

// Loader fans a batch of identifiers out over a Fetcher with bounded
// concurrency. Each identifier gets exactly one attempt; failures land in
// the failed set instead of aborting the batch.
type Loader struct {
	fetcher Fetcher
	limit   int
	logger  *zap.Logger
}

// NewLoader builds a Loader. limit <= 0 falls back to DefaultConcurrency.
func NewLoader(fetcher Fetcher, limit int, logger *zap.Logger) *Loader {
	if limit <= 0 {
		limit = DefaultConcurrency
	}
	return &Loader{fetcher: fetcher, limit: limit, logger: logger}
}

// BulkLoad fetches every identifier and splits the batch into hydrated
// records and failed identifiers. Both outputs come back sorted by PMID, so
// equal inputs produce equal outputs regardless of scheduling.
func (l *Loader) BulkLoad(ctx context.Context, pmids []int64) ([]model.Publication, []int64) {
	var (
		mu     sync.Mutex
		loaded []model.Publication
		failed []int64
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.limit)

	for _, pmid := range pmids {
		pmid := pmid
		g.Go(func() error {
			p, err := l.fetcher.Fetch(gctx, pmid)
			mu.Lock()
			defer mu.Unlock()
			if err != nil || p == nil {
				l.logger.Warn("publication fetch failed", zap.Int64("pmid", pmid), zap.Error(err))
				failed = append(failed, pmid)
				return nil
			}
			p.PMID = pmid
			p.Loaded = true
			loaded = append(loaded, *p)
			return nil
		})
	}
	_ = g.Wait()

	sort.Slice(loaded, func(i, j int) bool { return loaded[i].PMID < loaded[j].PMID })
	sort.Slice(failed, func(i, j int) bool { return failed[i] < failed[j] })
	return loaded, failed
}
