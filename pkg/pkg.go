package utils

import (
	"context"

	"github.com/google/uuid"
)

const (
	LogName      = "log-name"
	InvocationID = "x-invocation-id"
)

type invocationKey struct{}

func BuildInvocationID() string {
	return uuid.New().String()
}

// WithInvocationID stores id in ctx; downstream links and log hooks read it back.
func WithInvocationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, invocationKey{}, id)
}

func InvocationIDFrom(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(invocationKey{}).(string)
	return id
}
