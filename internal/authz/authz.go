// Package authz is the access-control engine. Decisions are pure functions
// of the actor and the target entity, evaluated before any read, mutation or
// listing; entity state never encodes permissions. A nil *model.User actor
// is anonymous.
package authz

import (
	"context"

	"github.com/gofrs/uuid/v5"

	"github.com/verdantbio/geneset/internal/model"
)

// ShareChecker reports whether a share grant ties a geneset to a user.
// Satisfied by repository.ShareRepository.
type ShareChecker interface {
	Has(ctx context.Context, genesetID, userID uuid.UUID) (bool, error)
}

// Authorizer evaluates per-entity, per-operation access rules.
type Authorizer struct {
	shares ShareChecker
}

// New builds an Authorizer over a share store.
func New(shares ShareChecker) *Authorizer {
	return &Authorizer{shares: shares}
}

// GenesetFilter is the list-scope predicate for one actor: which genesets a
// listing may include. CanReadGeneset must agree with it, so that every
// readable geneset appears in the actor's listing and nothing else does.
type GenesetFilter struct {
	// ViewerID is uuid.Nil for anonymous actors, who see only public rows.
	ViewerID uuid.UUID
}

// Filter returns the list-scope predicate for the actor.
func (a *Authorizer) Filter(actor *model.User) GenesetFilter {
	if actor == nil {
		return GenesetFilter{}
	}
	return GenesetFilter{ViewerID: actor.ID}
}

// Matches reports whether a geneset satisfies the filter, given whether the
// viewer holds a share on it. The postgres repository translates this same
// predicate to SQL; tests hold the two readings in agreement.
func (f GenesetFilter) Matches(gs *model.Geneset, hasShare bool) bool {
	if gs.Deleted {
		return false
	}
	if gs.Public {
		return true
	}
	if f.ViewerID == uuid.Nil {
		return false
	}
	return gs.CreatorID == f.ViewerID || hasShare
}

// CanReadGeneset allows public genesets to anyone and private ones to
// actors with update rights. Tombstoned rows are invisible to everyone,
// the creator included.
func (a *Authorizer) CanReadGeneset(ctx context.Context, actor *model.User, gs *model.Geneset) (bool, error) {
	if gs.Deleted {
		return false, nil
	}
	if gs.Public {
		return true, nil
	}
	return a.CanUpdateGeneset(ctx, actor, gs)
}

// CanCreateGeneset allows any authenticated actor.
func (a *Authorizer) CanCreateGeneset(actor *model.User) bool {
	return actor != nil
}

// CanUpdateGeneset allows the creator and holders of a share grant.
func (a *Authorizer) CanUpdateGeneset(ctx context.Context, actor *model.User, gs *model.Geneset) (bool, error) {
	if actor == nil {
		return false, nil
	}
	if gs.CreatorID == actor.ID {
		return true, nil
	}
	return a.shares.Has(ctx, gs.ID, actor.ID)
}

// CanDeleteGeneset allows the creator only. Share grants do not extend to
// deletion.
func (a *Authorizer) CanDeleteGeneset(actor *model.User, gs *model.Geneset) bool {
	return actor != nil && gs.CreatorID == actor.ID
}

// CanInviteToGeneset follows the update rule: anyone who may edit may also
// invite.
func (a *Authorizer) CanInviteToGeneset(ctx context.Context, actor *model.User, gs *model.Geneset) (bool, error) {
	return a.CanUpdateGeneset(ctx, actor, gs)
}

// CanReadVersions inherits the owning geneset's read rule.
func (a *Authorizer) CanReadVersions(ctx context.Context, actor *model.User, gs *model.Geneset) (bool, error) {
	return a.CanReadGeneset(ctx, actor, gs)
}

// CanCommitVersion is governed by the owning geneset's update rule. There
// is no corresponding mutation rule for existing versions: once written
// they are immutable for every actor.
func (a *Authorizer) CanCommitVersion(ctx context.Context, actor *model.User, gs *model.Geneset) (bool, error) {
	return a.CanUpdateGeneset(ctx, actor, gs)
}

// CanReadUser restricts account records to their owner.
func (a *Authorizer) CanReadUser(actor *model.User, u *model.User) bool {
	return actor != nil && actor.ID == u.ID
}
