package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"

	"github.com/verdantbio/geneset/internal/errs"
	"github.com/verdantbio/geneset/internal/model"
)

// VersionRepo implements VersionRepository using PostgreSQL.
type VersionRepo struct{ db *DB }

// NewVersionRepo constructs a version repository.
func NewVersionRepo(db *DB) *VersionRepo { return &VersionRepo{db: db} }

const versionColumns = `id, geneset_id, parent_id, ver_hash, creator_id, description, commit_date, annotations`

// Insert appends a version with a store-assigned commit date, returned on v.
// The one-root index turns concurrent first commits into ErrMissingParent
// for the loser; a ver_hash collision inside the lineage maps to
// ErrAlreadyExists.
func (r *VersionRepo) Insert(ctx context.Context, v *model.Version) error {
	const q = `
INSERT INTO versions (id, geneset_id, parent_id, ver_hash, creator_id, description, annotations)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING commit_date`
	payload, err := json.Marshal(v.Annotations)
	if err != nil {
		return fmt.Errorf("marshal annotations: %w", err)
	}
	err = r.db.Pool.QueryRow(ctx, q,
		v.ID, v.GenesetID, v.ParentID, v.VerHash, v.CreatorID, v.Description, payload).
		Scan(&v.CommitDate)
	switch uniqueConstraint(err) {
	case "versions_one_root_per_geneset":
		return errs.ErrMissingParent
	case "versions_geneset_ver_hash_key":
		return errs.ErrAlreadyExists
	}
	return err
}

// InsertCopies writes fork copies in one transaction. Commit dates come from
// the versions themselves, not the clock; a root copy still falls under the
// one-root index.
func (r *VersionRepo) InsertCopies(ctx context.Context, versions []model.Version) (err error) {
	tx, err := r.db.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
			return
		}
		if e := tx.Commit(ctx); e != nil {
			err = e
		}
	}()

	const q = `
INSERT INTO versions (id, geneset_id, parent_id, ver_hash, creator_id, description, commit_date, annotations)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	for i := range versions {
		v := &versions[i]
		payload, mErr := json.Marshal(v.Annotations)
		if mErr != nil {
			err = fmt.Errorf("marshal annotations: %w", mErr)
			return err
		}
		_, err = tx.Exec(ctx, q,
			v.ID, v.GenesetID, v.ParentID, v.VerHash, v.CreatorID, v.Description, v.CommitDate, payload)
		if err != nil {
			switch uniqueConstraint(err) {
			case "versions_one_root_per_geneset":
				err = errs.ErrMissingParent
			case "versions_geneset_ver_hash_key":
				err = errs.ErrAlreadyExists
			}
			return err
		}
	}
	return nil
}

// Tip returns the latest version of a lineage, or nil when it is empty.
// Equal commit dates break by insertion order (seq).
func (r *VersionRepo) Tip(ctx context.Context, genesetID uuid.UUID) (*model.Version, error) {
	const q = `
SELECT ` + versionColumns + `
FROM versions
WHERE geneset_id=$1
ORDER BY commit_date DESC, seq DESC
LIMIT 1`
	v, err := scanVersion(r.db.Pool.QueryRow(ctx, q, genesetID))
	if errors.Is(err, errs.ErrVersionNotFound) {
		return nil, nil
	}
	return v, err
}

// GetByHash resolves a hash within one lineage.
func (r *VersionRepo) GetByHash(ctx context.Context, genesetID uuid.UUID, verHash string) (*model.Version, error) {
	const q = `
SELECT ` + versionColumns + `
FROM versions
WHERE geneset_id=$1 AND ver_hash=$2`
	return scanVersion(r.db.Pool.QueryRow(ctx, q, genesetID, verHash))
}

// List returns a lineage newest first.
func (r *VersionRepo) List(ctx context.Context, genesetID uuid.UUID, opts model.VersionListOptions) ([]model.Version, error) {
	const base = `
SELECT ` + versionColumns + `
FROM versions
WHERE geneset_id=$1`
	const order = `
ORDER BY commit_date DESC, seq DESC`

	var (
		rows pgx.Rows
		err  error
	)
	if opts.ModifiedBefore != nil {
		rows, err = r.db.Pool.Query(ctx, base+` AND commit_date <= $2`+order, genesetID, *opts.ModifiedBefore)
	} else {
		rows, err = r.db.Pool.Query(ctx, base+order, genesetID)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Version
	for rows.Next() {
		v, err := scanVersion(rows)
		if err != nil {
			return nil, err
		}
		if !opts.WithAnnotations {
			v.Annotations = nil
		}
		out = append(out, *v)
	}
	return out, rows.Err()
}

// AncestorChain walks parent edges from the named version to the root,
// target first. Recursion is bounded by lineage depth and stops at the
// rootless version.
func (r *VersionRepo) AncestorChain(ctx context.Context, genesetID uuid.UUID, verHash string) ([]model.Version, error) {
	const q = `
WITH RECURSIVE chain AS (
	SELECT id, geneset_id, parent_id, ver_hash, creator_id, description, commit_date, annotations, 0 AS depth
	FROM versions
	WHERE geneset_id=$1 AND ver_hash=$2
	UNION ALL
	SELECT v.id, v.geneset_id, v.parent_id, v.ver_hash, v.creator_id, v.description, v.commit_date, v.annotations, c.depth + 1
	FROM versions v
	JOIN chain c ON v.id = c.parent_id
)
SELECT id, geneset_id, parent_id, ver_hash, creator_id, description, commit_date, annotations
FROM chain
ORDER BY depth`
	rows, err := r.db.Pool.Query(ctx, q, genesetID, verHash)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Version
	for rows.Next() {
		v, err := scanVersion(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, errs.ErrVersionNotFound
	}
	return out, nil
}

// HasRoot reports whether the lineage already has a rootless version.
func (r *VersionRepo) HasRoot(ctx context.Context, genesetID uuid.UUID) (bool, error) {
	const q = `
SELECT EXISTS (
	SELECT 1 FROM versions WHERE geneset_id=$1 AND parent_id IS NULL
)`
	var ok bool
	if err := r.db.Pool.QueryRow(ctx, q, genesetID).Scan(&ok); err != nil {
		return false, err
	}
	return ok, nil
}

// scanVersion reads one version row produced with versionColumns ordering.
func scanVersion(row pgx.Row) (*model.Version, error) {
	var (
		v       model.Version
		parent  uuid.NullUUID
		payload []byte
	)
	err := row.Scan(&v.ID, &v.GenesetID, &parent, &v.VerHash, &v.CreatorID, &v.Description, &v.CommitDate, &payload)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrVersionNotFound
		}
		return nil, err
	}
	if parent.Valid {
		v.ParentID = &parent.UUID
	}
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &v.Annotations); err != nil {
			return nil, fmt.Errorf("unmarshal annotations: %w", err)
		}
	}
	return &v, nil
}
