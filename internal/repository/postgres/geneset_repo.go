package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofrs/uuid/v5"
	"github.com/huandu/go-sqlbuilder"
	"github.com/jackc/pgx/v5"

	"github.com/verdantbio/geneset/internal/authz"
	"github.com/verdantbio/geneset/internal/errs"
	"github.com/verdantbio/geneset/internal/model"
)

// GenesetRepo implements GenesetRepository using PostgreSQL.
type GenesetRepo struct{ db *DB }

// NewGenesetRepo constructs a geneset repository.
func NewGenesetRepo(db *DB) *GenesetRepo { return &GenesetRepo{db: db} }

const genesetColumns = `g.id, g.creator_id, u.username, g.organism_id, g.title, g.slug,
	g.abstract, g.public, g.deleted, g.fork_of, g.tags, g.created_at`

// Create inserts a new geneset row.
func (r *GenesetRepo) Create(ctx context.Context, gs *model.Geneset) error {
	const q = `
INSERT INTO genesets (id, creator_id, organism_id, title, slug, abstract, public, fork_of, tags)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, COALESCE($9::text[], '{}'))`
	_, err := r.db.Pool.Exec(ctx, q,
		gs.ID, gs.CreatorID, gs.OrganismID, gs.Title, gs.Slug, gs.Abstract, gs.Public, gs.ForkOf, gs.Tags)
	if isUniqueViolation(err) {
		return errs.ErrDuplicateSlug
	}
	return err
}

// GetByID selects a live geneset by ID.
func (r *GenesetRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Geneset, error) {
	const q = `
SELECT ` + genesetColumns + `
FROM genesets g
JOIN users u ON u.id = g.creator_id
WHERE g.id=$1 AND g.deleted=false`
	return scanGeneset(r.db.Pool.QueryRow(ctx, q, id))
}

// GetBySlug selects a live geneset by creator username and slug.
func (r *GenesetRepo) GetBySlug(ctx context.Context, creatorUsername, slug string) (*model.Geneset, error) {
	const q = `
SELECT ` + genesetColumns + `
FROM genesets g
JOIN users u ON u.id = g.creator_id
WHERE u.username=$1 AND g.slug=$2 AND g.deleted=false`
	return scanGeneset(r.db.Pool.QueryRow(ctx, q, creatorUsername, slug))
}

// SlugExists checks slug ownership, tombstoned rows included.
func (r *GenesetRepo) SlugExists(ctx context.Context, creatorID uuid.UUID, slug string) (bool, error) {
	const q = `
SELECT EXISTS (
	SELECT 1 FROM genesets WHERE creator_id=$1 AND slug=$2
)`
	var ok bool
	if err := r.db.Pool.QueryRow(ctx, q, creatorID, slug).Scan(&ok); err != nil {
		return false, err
	}
	return ok, nil
}

// List returns genesets inside the actor's visibility scope, narrowed by q.
func (r *GenesetRepo) List(ctx context.Context, scope authz.GenesetFilter, q model.ListGenesetsFilter) ([]model.Geneset, error) {
	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("g.id", "g.creator_id", "u.username", "g.organism_id", "g.title", "g.slug",
		"g.abstract", "g.public", "g.deleted", "g.fork_of", "g.tags", "g.created_at")
	sb.From("genesets g")
	sb.Join("users u", "u.id = g.creator_id")

	where := []string{sb.Equal("g.deleted", false)}
	if scope.ViewerID == uuid.Nil {
		where = append(where, sb.Equal("g.public", true))
	} else {
		where = append(where, fmt.Sprintf(
			"(g.public OR g.creator_id = %s OR EXISTS (SELECT 1 FROM shares s WHERE s.geneset_id = g.id AND s.to_user_id = %s))",
			sb.Var(scope.ViewerID), sb.Var(scope.ViewerID)))
	}
	if q.CreatorUsername != "" {
		where = append(where, sb.Equal("u.username", q.CreatorUsername))
	}
	if q.Slug != "" {
		where = append(where, sb.Equal("g.slug", q.Slug))
	}
	if q.Title != "" {
		where = append(where, sb.Equal("g.title", q.Title))
	}
	if len(q.Tags) > 0 {
		where = append(where, fmt.Sprintf("g.tags && %s", sb.Var(q.Tags)))
	}
	if q.ModifiedBefore != nil {
		where = append(where, fmt.Sprintf(
			"EXISTS (SELECT 1 FROM versions v WHERE v.geneset_id = g.id AND v.commit_date <= %s)",
			sb.Var(*q.ModifiedBefore)))
	}
	sb.Where(where...)
	sb.OrderBy("g.created_at DESC", "g.slug")

	query, args := sb.Build()
	rows, err := r.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Geneset
	for rows.Next() {
		gs, err := scanGeneset(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *gs)
	}
	return out, rows.Err()
}

// Update applies the non-nil fields of req to a live geneset.
func (r *GenesetRepo) Update(ctx context.Context, id uuid.UUID, req model.UpdateGenesetRequest) error {
	ub := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	ub.Update("genesets")

	var sets []string
	if req.Title != nil {
		sets = append(sets, ub.Assign("title", *req.Title))
	}
	if req.Abstract != nil {
		sets = append(sets, ub.Assign("abstract", *req.Abstract))
	}
	if req.Public != nil {
		sets = append(sets, ub.Assign("public", *req.Public))
	}
	if len(sets) == 0 {
		return nil
	}
	ub.Set(sets...)
	ub.Where(ub.Equal("id", id), ub.Equal("deleted", false))

	query, args := ub.Build()
	tag, err := r.db.Pool.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// SetDeleted tombstones a geneset.
func (r *GenesetRepo) SetDeleted(ctx context.Context, id uuid.UUID) error {
	const q = `UPDATE genesets SET deleted=true WHERE id=$1 AND deleted=false`
	tag, err := r.db.Pool.Exec(ctx, q, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// AddTags appends the tags not already present. The correlated subquery
// keeps the operation a single atomic statement.
func (r *GenesetRepo) AddTags(ctx context.Context, id uuid.UUID, tags []string) error {
	const q = `
UPDATE genesets
SET tags = tags || (
	SELECT COALESCE(array_agg(t), '{}') FROM unnest($2::text[]) AS t
	WHERE NOT t = ANY (tags)
)
WHERE id=$1 AND deleted=false`
	tag, err := r.db.Pool.Exec(ctx, q, id, tags)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// scanGeneset reads one geneset row produced with genesetColumns ordering.
func scanGeneset(row pgx.Row) (*model.Geneset, error) {
	var (
		gs     model.Geneset
		forkOf uuid.NullUUID
	)
	err := row.Scan(&gs.ID, &gs.CreatorID, &gs.CreatorUsername, &gs.OrganismID, &gs.Title, &gs.Slug,
		&gs.Abstract, &gs.Public, &gs.Deleted, &forkOf, &gs.Tags, &gs.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	if forkOf.Valid {
		gs.ForkOf = &forkOf.UUID
	}
	return &gs, nil
}
