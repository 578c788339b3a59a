package requestid

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew(t *testing.T) {
	ctx, id := New(context.Background())
	assert.NotEmpty(t, id)
	assert.Equal(t, id, FromContext(ctx))
}

func TestFromContext_Missing(t *testing.T) {
	id := FromContext(context.Background())
	assert.NotEmpty(t, id)

	_, ok := Lookup(context.Background())
	assert.False(t, ok)
}

func TestWithRequestID(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req-123")
	assert.Equal(t, "req-123", FromContext(ctx))
}

func TestAccept(t *testing.T) {
	ctx, id := Accept(context.Background(), " board-42 ")
	assert.Equal(t, "board-42", id)
	got, ok := Lookup(ctx)
	assert.True(t, ok)
	assert.Equal(t, "board-42", got)

	_, generated := Accept(context.Background(), "")
	assert.NotEmpty(t, generated)

	_, replaced := Accept(context.Background(), strings.Repeat("x", 200))
	assert.Len(t, replaced, 36)

	_, injected := Accept(context.Background(), "a\r\nSet-Cookie: x")
	assert.NotContains(t, injected, "\n")
}
