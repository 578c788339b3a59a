// Package requestid carries the per-request correlation id through contexts
// and the X-Request-ID header.
package requestid

import (
	"context"
	"strings"

	"github.com/google/uuid"
)

// Header is the HTTP header the id travels in.
const Header = "X-Request-ID"

const maxLen = 128

type ctxKey struct{}

// WithRequestID returns a context with the given request ID.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// FromContext extracts the request ID from context, or generates a new one.
func FromContext(ctx context.Context) string {
	if id, ok := Lookup(ctx); ok {
		return id
	}
	return uuid.New().String()
}

// Lookup returns the request ID stored in ctx, if any.
func Lookup(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(ctxKey{}).(string)
	return id, ok && id != ""
}

// New generates a new request ID and returns the enriched context and ID.
func New(ctx context.Context) (context.Context, string) {
	id := uuid.New().String()
	return WithRequestID(ctx, id), id
}

// Accept keeps a caller-supplied id when it is usable and generates one otherwise.
func Accept(ctx context.Context, incoming string) (context.Context, string) {
	incoming = strings.TrimSpace(incoming)
	if incoming == "" || len(incoming) > maxLen || strings.ContainsAny(incoming, "\r\n") {
		return New(ctx)
	}
	return WithRequestID(ctx, incoming), incoming
}
