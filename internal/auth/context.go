package auth

import (
	"context"

	"github.com/google/uuid"
)

// Role names carried in the token's role claim
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// Actor holds the authenticated caller. Services stamp created_by and
// updated_by from Actor.ID.
type Actor struct {
	ID   uuid.UUID
	Name string
	Role string
}

type contextKey string

const actorContextKey contextKey = "actor"

// WithActor adds the actor to the context
func WithActor(ctx context.Context, actor *Actor) context.Context {
	if slot, ok := ctx.Value(slotKey{}).(*actorSlot); ok {
		slot.actor = actor
	}
	return context.WithValue(ctx, actorContextKey, actor)
}

// FromContext extracts the actor from the context
func FromContext(ctx context.Context) (*Actor, bool) {
	actor, ok := ctx.Value(actorContextKey).(*Actor)
	return actor, ok
}

// ActorID returns the id of the actor in ctx, or uuid.Nil when the request is unauthenticated
func ActorID(ctx context.Context) uuid.UUID {
	if actor, ok := FromContext(ctx); ok {
		return actor.ID
	}
	return uuid.Nil
}

// HasRole checks if the actor has a specific role
func (a *Actor) HasRole(role string) bool {
	return a.Role == role
}

// IsAdmin checks if the actor is an administrator
func (a *Actor) IsAdmin() bool {
	return a.HasRole(RoleAdmin)
}

type slotKey struct{}

type actorSlot struct {
	actor *Actor
}

// WithActorSlot prepares ctx so that an outer middleware can see the actor
// stored by Authenticate further down the chain. The returned func reports
// the actor once the inner handler has run.
func WithActorSlot(ctx context.Context) (context.Context, func() (*Actor, bool)) {
	slot := &actorSlot{}
	return context.WithValue(ctx, slotKey{}, slot), func() (*Actor, bool) {
		return slot.actor, slot.actor != nil
	}
}
