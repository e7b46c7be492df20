package repository

import (
	"context"

	"github.com/gofrs/uuid/v5"

	"github.com/verdantbio/geneset/internal/model"
)

// OrganismRepository provides access to organism records.
type OrganismRepository interface {
	// Create inserts an organism. Name or taxonomy collisions map to
	// ErrAlreadyExists.
	Create(ctx context.Context, o *model.Organism) error
	// GetByID loads an organism by ID.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Organism, error)
	// GetByTaxonomyID loads an organism by NCBI taxonomy identifier.
	GetByTaxonomyID(ctx context.Context, taxonomyID int64) (*model.Organism, error)
}

// GeneRepository provides lookup and bulk-load access to genes and their
// cross-references. Lookups return every match ordered by Entrez ID, so a
// caller taking the first match is deterministic.
type GeneRepository interface {
	// LookupByEntrez finds genes of an organism by Entrez ID.
	LookupByEntrez(ctx context.Context, organismID uuid.UUID, entrezID int64) ([]model.Gene, error)
	// LookupBySymbol finds genes of an organism by symbol or systematic name.
	LookupBySymbol(ctx context.Context, organismID uuid.UUID, symbol string) ([]model.Gene, error)
	// LookupByXref finds genes of an organism carrying an identifier in a
	// cross-reference namespace.
	LookupByXref(ctx context.Context, organismID uuid.UUID, namespace, xrid string) ([]model.Gene, error)
	// GetByIDs loads gene records keyed by ID. Missing IDs are absent from
	// the map, not an error.
	GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]model.Gene, error)
	// GetByEntrezIDs loads genes of an organism keyed by Entrez ID. Missing
	// IDs are absent from the map, not an error.
	GetByEntrezIDs(ctx context.Context, organismID uuid.UUID, entrezIDs []int64) (map[int64]model.Gene, error)
	// CountExisting counts how many of the given IDs exist.
	CountExisting(ctx context.Context, ids []uuid.UUID) (int, error)
	// XrefsForGenes returns every cross-reference of each gene with the
	// namespace name resolved.
	XrefsForGenes(ctx context.Context, geneIDs []uuid.UUID) (map[uuid.UUID][]model.CrossRef, error)
	// XrefsForGenesIn restricts XrefsForGenes to one namespace. Genes with
	// no identifier there are absent from the map.
	XrefsForGenesIn(ctx context.Context, geneIDs []uuid.UUID, namespace string) (map[uuid.UUID][]model.CrossRef, error)
	// CopyGenes bulk-inserts gene records and reports the rows written.
	CopyGenes(ctx context.Context, genes []model.Gene) (int64, error)
	// CopyXrefs bulk-inserts cross-references and reports the rows written.
	CopyXrefs(ctx context.Context, xrefs []model.CrossRef) (int64, error)
	// CreateXrefDB registers a cross-reference namespace.
	CreateXrefDB(ctx context.Context, db *model.XrefDB) error
	// GetXrefDB loads a namespace by name.
	GetXrefDB(ctx context.Context, name string) (*model.XrefDB, error)
}
