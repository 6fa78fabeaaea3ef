package logging

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRequestID(t *testing.T) {
	assert.Equal(t, "", RequestID(context.Background()))
	assert.Equal(t, "abc", RequestID(ContextWithRequestID(context.Background(), "abc")))
}

func TestWithRequestID_DoesNotClobberCallerSlice(t *testing.T) {
	backing := make([]any, 2, 8)
	backing[0], backing[1] = "k", "v"

	out := withRequestID(ContextWithRequestID(context.Background(), "id"), backing)

	assert.Equal(t, []any{"k", "v", "request_id", "id"}, out)
	assert.Nil(t, backing[:4][2], "caller's spare capacity must stay untouched")
}
