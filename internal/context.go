package internal

import (
	"context"
	"time"
)

type ctxKey string

const ContextActorKey ctxKey = "actor"

// Actor identifies who triggered a state change. Background jobs use a named system actor.
type Actor struct {
	UserID   int64
	Username string
}

var SystemActor = Actor{Username: "system"}

func ActorFromContext(ctx context.Context) Actor {
	if ctx == nil {
		return SystemActor
	}
	if actor, ok := ctx.Value(ContextActorKey).(Actor); ok {
		return actor
	}
	return SystemActor
}

func ContextWithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, ContextActorKey, actor)
}

// WithTimeout returns a context with timeout, or a plain cancelable context when duration is zero or negative.
func WithTimeout(ctx context.Context, duration time.Duration) (context.Context, context.CancelFunc) {
	if duration <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, duration)
}
