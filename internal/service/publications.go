package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/verdantbio/geneset/internal/errs"
	"github.com/verdantbio/geneset/internal/metrics"
	"github.com/verdantbio/geneset/internal/model"
	"github.com/verdantbio/geneset/internal/pubfetch"
	"github.com/verdantbio/geneset/internal/repository"
)

// PublicationService serves bibliographic records, hydrating stubs and
// unseen identifiers on demand. Publications are public reference data with
// no access rules.
type PublicationService interface {
	// Get returns the record for a PMID, fetching it through the
	// bibliographic collaborator when the store holds no hydrated copy. A
	// stub whose fetch fails is still served as the stub.
	Get(ctx context.Context, pmid int64) (*model.Publication, error)
}

type PublicationServiceImpl struct {
	pubs   repository.PublicationRepository
	loader *pubfetch.Loader
	logger *zap.Logger
}

// NewPublicationService constructs PublicationService.
func NewPublicationService(pubs repository.PublicationRepository, loader *pubfetch.Loader, logger *zap.Logger) *PublicationServiceImpl {
	return &PublicationServiceImpl{pubs: pubs, loader: loader, logger: logger}
}

func (s *PublicationServiceImpl) Get(ctx context.Context, pmid int64) (*model.Publication, error) {
	p, err := s.pubs.Get(ctx, pmid)
	if err != nil && !errors.Is(err, errs.ErrNotFound) {
		return nil, err
	}
	if p != nil && p.Loaded {
		return p, nil
	}

	loaded, _ := s.loader.BulkLoad(ctx, []int64{pmid})
	if len(loaded) == 1 {
		if err := s.pubs.UpsertLoaded(ctx, loaded); err != nil {
			return nil, err
		}
		metrics.PublicationsHydratedTotal.WithLabelValues(metrics.OutcomeLoaded).Inc()
		return &loaded[0], nil
	}

	metrics.PublicationsHydratedTotal.WithLabelValues(metrics.OutcomeFailed).Inc()
	if p != nil {
		// Keep serving the stub until a later fetch succeeds.
		return p, nil
	}
	return nil, errs.ErrNotFound
}
