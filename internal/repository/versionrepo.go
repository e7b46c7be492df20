package repository

import (
	"context"

	"github.com/gofrs/uuid/v5"

	"github.com/verdantbio/geneset/internal/model"
)

// VersionRepository provides append-only access to version lineages.
// Versions are never updated or deleted.
type VersionRepository interface {
	// Insert appends a version. The store assigns the commit date and
	// returns it on v. A second rootless version maps to ErrMissingParent;
	// a (geneset, ver_hash) collision maps to ErrAlreadyExists.
	Insert(ctx context.Context, v *model.Version) error
	// InsertCopies writes fork copies in one transaction, preserving the
	// commit dates carried on the versions.
	InsertCopies(ctx context.Context, versions []model.Version) error
	// Tip returns the version with the latest commit date, or nil when the
	// lineage is empty. Equal dates break by insertion order.
	Tip(ctx context.Context, genesetID uuid.UUID) (*model.Version, error)
	// GetByHash resolves a hash within one lineage. A miss maps to
	// ErrVersionNotFound.
	GetByHash(ctx context.Context, genesetID uuid.UUID, verHash string) (*model.Version, error)
	// List returns a lineage newest first.
	List(ctx context.Context, genesetID uuid.UUID, opts model.VersionListOptions) ([]model.Version, error)
	// AncestorChain walks parent edges from the named version to the root,
	// target first. A hash miss maps to ErrVersionNotFound.
	AncestorChain(ctx context.Context, genesetID uuid.UUID, verHash string) ([]model.Version, error)
	// HasRoot reports whether the lineage already has a rootless version.
	HasRoot(ctx context.Context, genesetID uuid.UUID) (bool, error)
}
