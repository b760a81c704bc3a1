package log

import (
	"context"

	"go.uber.org/zap"
)

type reqIDKey struct{}

func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, reqIDKey{}, id)
}

func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(reqIDKey{}).(string)
	return id
}

// Req is Ctx plus the request id carried by ctx, when there is one.
func Req(ctx context.Context, extra ...zap.Field) *zap.Logger {
	if id := RequestID(ctx); id != "" {
		extra = append(extra, zap.String("request_id", id))
	}
	return Ctx(ctx, extra...)
}
