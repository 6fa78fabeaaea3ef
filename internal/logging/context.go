package logging

import "context"

type requestIDKey struct{}

// ContextWithRequestID tags ctx so every adapter adds request_id to the
// entries it writes for that context.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestID returns the id stored by ContextWithRequestID, or "".
func RequestID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

func withRequestID(ctx context.Context, args []any) []any {
	if id := RequestID(ctx); id != "" {
		return append(args[:len(args):len(args)], "request_id", id)
	}
	return args
}
