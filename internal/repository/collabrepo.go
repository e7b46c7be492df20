package repository

import (
	"context"

	"github.com/gofrs/uuid/v5"

	"github.com/verdantbio/geneset/internal/model"
)

// CollaborationRepository stores directed invite edges between users.
// Collaborator, invite and invited sets are derived from the edges, never
// stored.
type CollaborationRepository interface {
	// Upsert records an invite edge, keeping an existing one untouched.
	Upsert(ctx context.Context, fromID, toID uuid.UUID) error
	// DeleteBoth removes the edges in both directions between two users.
	DeleteBoth(ctx context.Context, a, b uuid.UUID) error
	// AreCollaborators reports whether both directed edges exist.
	AreCollaborators(ctx context.Context, a, b uuid.UUID) (bool, error)
	// Collaborators lists users tied to userID by mutual edges.
	Collaborators(ctx context.Context, userID uuid.UUID) ([]model.User, error)
	// Invites lists users userID invited who have not reciprocated.
	Invites(ctx context.Context, userID uuid.UUID) ([]model.User, error)
	// Inviteds lists users who invited userID without reciprocation.
	Inviteds(ctx context.Context, userID uuid.UUID) ([]model.User, error)
}

// ShareRepository stores edit grants on genesets.
type ShareRepository interface {
	// Grant records a share, keeping an existing one untouched.
	Grant(ctx context.Context, s *model.Share) error
	// Has reports whether a grant ties the geneset to the user.
	Has(ctx context.Context, genesetID, userID uuid.UUID) (bool, error)
	// ListParticipants lists grants on a geneset with usernames, emails and
	// inviter emails resolved. Callers blank fields the actor may not see.
	ListParticipants(ctx context.Context, genesetID uuid.UUID) ([]model.Participant, error)
}
