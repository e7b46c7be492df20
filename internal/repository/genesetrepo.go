package repository

import (
	"context"

	"github.com/gofrs/uuid/v5"

	"github.com/verdantbio/geneset/internal/authz"
	"github.com/verdantbio/geneset/internal/model"
)

// GenesetRepository provides access to geneset records. Reads resolve the
// creator username and never return tombstoned rows.
type GenesetRepository interface {
	// Create inserts a new geneset. A (creator, slug) collision maps to
	// ErrDuplicateSlug.
	Create(ctx context.Context, gs *model.Geneset) error
	// GetByID loads a live geneset by ID.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Geneset, error)
	// GetBySlug loads a live geneset by creator username and slug.
	GetBySlug(ctx context.Context, creatorUsername, slug string) (*model.Geneset, error)
	// SlugExists reports whether the creator already holds a slug,
	// tombstoned rows included.
	SlugExists(ctx context.Context, creatorID uuid.UUID, slug string) (bool, error)
	// List returns genesets within the actor's visibility scope, narrowed
	// by the query filter.
	List(ctx context.Context, scope authz.GenesetFilter, q model.ListGenesetsFilter) ([]model.Geneset, error)
	// Update applies the non-nil fields of req to a live geneset.
	Update(ctx context.Context, id uuid.UUID, req model.UpdateGenesetRequest) error
	// SetDeleted tombstones a geneset. The row and its slug remain held.
	SetDeleted(ctx context.Context, id uuid.UUID) error
	// AddTags appends the tags not already present, atomically.
	AddTags(ctx context.Context, id uuid.UUID, tags []string) error
}
