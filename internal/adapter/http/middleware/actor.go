package middleware

import (
	"context"

	"event-token-ledger/internal/core/ports"
)

type actorCtxKey struct{}

// WithActor returns a copy of ctx carrying the authenticated actor.
func WithActor(ctx context.Context, actor ports.Actor) context.Context {
	return context.WithValue(ctx, actorCtxKey{}, actor)
}

// ContextActorProvider implements ports.ActorProvider by reading the actor
// that JWTAuth stored on the request context.
type ContextActorProvider struct{}

func (ContextActorProvider) CurrentActor(ctx context.Context) (ports.Actor, bool) {
	actor, ok := ctx.Value(actorCtxKey{}).(ports.Actor)
	if !ok || actor.AccountID == "" {
		return ports.Actor{}, false
	}
	return actor, true
}
