package authz

import (
	"context"

	"github.com/verdantbio/geneset/internal/model"
)

type ctxKey string

const actorKey ctxKey = "geneset.actor"

// WithActor stores the authenticated user in context. The identity
// collaborator calls this once per request; a nil user means anonymous.
func WithActor(ctx context.Context, u *model.User) context.Context {
	return context.WithValue(ctx, actorKey, u)
}

// ActorFromCtx fetches the current actor. ok=false means no actor was
// attached, which callers treat as anonymous.
func ActorFromCtx(ctx context.Context) (*model.User, bool) {
	v := ctx.Value(actorKey)
	if v == nil {
		return nil, false
	}
	u, ok := v.(*model.User)
	return u, ok
}
