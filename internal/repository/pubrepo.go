package repository

import (
	"context"

	"github.com/verdantbio/geneset/internal/model"
)

// PublicationRepository stores bibliographic records keyed by PMID.
type PublicationRepository interface {
	// Get loads a publication, stubs included.
	Get(ctx context.Context, pmid int64) (*model.Publication, error)
	// GetByPMIDs loads publications keyed by PMID. Missing PMIDs are absent
	// from the map, not an error.
	GetByPMIDs(ctx context.Context, pmids []int64) (map[int64]model.Publication, error)
	// UpsertLoaded writes hydrated records, overwriting stubs.
	UpsertLoaded(ctx context.Context, pubs []model.Publication) error
	// InsertStubs records referenced-but-unloaded PMIDs, keeping existing
	// rows untouched.
	InsertStubs(ctx context.Context, pmids []int64) error
}
