package postgres

import (
	"context"

	"github.com/gofrs/uuid/v5"

	"github.com/verdantbio/geneset/internal/model"
)

// ShareRepo implements ShareRepository using PostgreSQL.
type ShareRepo struct{ db *DB }

// NewShareRepo constructs a share repository.
func NewShareRepo(db *DB) *ShareRepo { return &ShareRepo{db: db} }

// Grant records a share; an existing grant is left untouched.
func (r *ShareRepo) Grant(ctx context.Context, s *model.Share) error {
	const q = `
INSERT INTO shares (id, geneset_id, from_user_id, to_user_id)
VALUES ($1, $2, $3, $4)
ON CONFLICT (geneset_id, to_user_id) DO NOTHING`
	_, err := r.db.Pool.Exec(ctx, q, s.ID, s.GenesetID, s.FromUserID, s.ToUserID)
	return err
}

// Has reports whether a grant ties the geneset to the user.
func (r *ShareRepo) Has(ctx context.Context, genesetID, userID uuid.UUID) (bool, error) {
	const q = `
SELECT EXISTS (
	SELECT 1 FROM shares WHERE geneset_id=$1 AND to_user_id=$2
)`
	var ok bool
	if err := r.db.Pool.QueryRow(ctx, q, genesetID, userID).Scan(&ok); err != nil {
		return false, err
	}
	return ok, nil
}

// ListParticipants lists grants on a geneset with user fields resolved.
func (r *ShareRepo) ListParticipants(ctx context.Context, genesetID uuid.UUID) ([]model.Participant, error) {
	const q = `
SELECT tu.username, tu.email, fu.email
FROM shares s
JOIN users tu ON tu.id = s.to_user_id
JOIN users fu ON fu.id = s.from_user_id
WHERE s.geneset_id=$1
ORDER BY tu.username`
	rows, err := r.db.Pool.Query(ctx, q, genesetID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Participant
	for rows.Next() {
		var p model.Participant
		if err = rows.Scan(&p.Username, &p.Email, &p.InvitedBy); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
