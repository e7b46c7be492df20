package postgres

import (
	"context"

	"github.com/gofrs/uuid/v5"

	"github.com/verdantbio/geneset/internal/model"
)

// CollabRepo implements CollaborationRepository using PostgreSQL.
type CollabRepo struct{ db *DB }

// NewCollabRepo constructs a collaboration repository.
func NewCollabRepo(db *DB) *CollabRepo { return &CollabRepo{db: db} }

// Upsert records an invite edge; an existing edge is left untouched.
func (r *CollabRepo) Upsert(ctx context.Context, fromID, toID uuid.UUID) error {
	const q = `
INSERT INTO collaborations (id, from_user_id, to_user_id)
VALUES ($1, $2, $3)
ON CONFLICT (from_user_id, to_user_id) DO NOTHING`
	id, err := uuid.NewV4()
	if err != nil {
		return err
	}
	_, err = r.db.Pool.Exec(ctx, q, id, fromID, toID)
	return err
}

// DeleteBoth removes the edges in both directions between two users.
func (r *CollabRepo) DeleteBoth(ctx context.Context, a, b uuid.UUID) error {
	const q = `
DELETE FROM collaborations
WHERE (from_user_id=$1 AND to_user_id=$2) OR (from_user_id=$2 AND to_user_id=$1)`
	_, err := r.db.Pool.Exec(ctx, q, a, b)
	return err
}

// AreCollaborators reports whether both directed edges exist. The edge
// uniqueness constraint caps the count at two.
func (r *CollabRepo) AreCollaborators(ctx context.Context, a, b uuid.UUID) (bool, error) {
	const q = `
SELECT COUNT(*) FROM collaborations
WHERE (from_user_id=$1 AND to_user_id=$2) OR (from_user_id=$2 AND to_user_id=$1)`
	var n int
	if err := r.db.Pool.QueryRow(ctx, q, a, b).Scan(&n); err != nil {
		return false, err
	}
	return n == 2, nil
}

// Collaborators lists users tied to userID by mutual edges.
func (r *CollabRepo) Collaborators(ctx context.Context, userID uuid.UUID) ([]model.User, error) {
	const q = `
SELECT u.id, u.username, u.email, u.first_name, u.last_name, u.temporary, u.created_at
FROM users u
JOIN collaborations c1 ON c1.from_user_id=$1 AND c1.to_user_id=u.id
JOIN collaborations c2 ON c2.from_user_id=u.id AND c2.to_user_id=$1
ORDER BY u.username`
	return r.queryUsers(ctx, q, userID)
}

// Invites lists users userID invited who have not reciprocated.
func (r *CollabRepo) Invites(ctx context.Context, userID uuid.UUID) ([]model.User, error) {
	const q = `
SELECT u.id, u.username, u.email, u.first_name, u.last_name, u.temporary, u.created_at
FROM users u
JOIN collaborations c ON c.from_user_id=$1 AND c.to_user_id=u.id
WHERE NOT EXISTS (
	SELECT 1 FROM collaborations r WHERE r.from_user_id=u.id AND r.to_user_id=$1
)
ORDER BY u.username`
	return r.queryUsers(ctx, q, userID)
}

// Inviteds lists users who invited userID without reciprocation.
func (r *CollabRepo) Inviteds(ctx context.Context, userID uuid.UUID) ([]model.User, error) {
	const q = `
SELECT u.id, u.username, u.email, u.first_name, u.last_name, u.temporary, u.created_at
FROM users u
JOIN collaborations c ON c.to_user_id=$1 AND c.from_user_id=u.id
WHERE NOT EXISTS (
	SELECT 1 FROM collaborations r WHERE r.from_user_id=$1 AND r.to_user_id=u.id
)
ORDER BY u.username`
	return r.queryUsers(ctx, q, userID)
}

func (r *CollabRepo) queryUsers(ctx context.Context, q string, args ...any) ([]model.User, error) {
	rows, err := r.db.Pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.User
	for rows.Next() {
		var u model.User
		if err = rows.Scan(&u.ID, &u.Username, &u.Email, &u.FirstName, &u.LastName, &u.Temporary, &u.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}
