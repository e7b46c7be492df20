package postgres

import (
	"context"
	"errors"

	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"

	"github.com/verdantbio/geneset/internal/errs"
	"github.com/verdantbio/geneset/internal/model"
)

// OrganismRepo implements OrganismRepository using PostgreSQL.
type OrganismRepo struct{ db *DB }

// NewOrganismRepo constructs an organism repository.
func NewOrganismRepo(db *DB) *OrganismRepo { return &OrganismRepo{db: db} }

// Create inserts an organism row.
func (r *OrganismRepo) Create(ctx context.Context, o *model.Organism) error {
	const q = `
INSERT INTO organisms (id, scientific_name, taxonomy_id, default_namespace)
VALUES ($1, $2, $3, $4)`
	_, err := r.db.Pool.Exec(ctx, q, o.ID, o.ScientificName, o.TaxonomyID, o.DefaultNamespace)
	if isUniqueViolation(err) {
		return errs.ErrAlreadyExists
	}
	return err
}

// GetByID selects an organism by ID.
func (r *OrganismRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Organism, error) {
	const q = `
SELECT id, scientific_name, taxonomy_id, default_namespace
FROM organisms WHERE id=$1`
	return r.scanOne(r.db.Pool.QueryRow(ctx, q, id))
}

// GetByTaxonomyID selects an organism by NCBI taxonomy identifier.
func (r *OrganismRepo) GetByTaxonomyID(ctx context.Context, taxonomyID int64) (*model.Organism, error) {
	const q = `
SELECT id, scientific_name, taxonomy_id, default_namespace
FROM organisms WHERE taxonomy_id=$1`
	return r.scanOne(r.db.Pool.QueryRow(ctx, q, taxonomyID))
}

func (r *OrganismRepo) scanOne(row pgx.Row) (*model.Organism, error) {
	var o model.Organism
	err := row.Scan(&o.ID, &o.ScientificName, &o.TaxonomyID, &o.DefaultNamespace)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	return &o, nil
}
