package logger

import (
	"context"
	"log/slog"
)

type storeIDCtxKey struct{}

// WithStoreID stores the tenant store id in ctx so every record logged with
// ctx carries it, once StoreIDExtractor is registered.
func WithStoreID(ctx context.Context, storeID any) context.Context {
	return context.WithValue(ctx, storeIDCtxKey{}, storeID)
}

// StoreIDExtractor injects the store id set by WithStoreID.
func StoreIDExtractor(ctx context.Context) (slog.Attr, bool) {
	if v := ctx.Value(storeIDCtxKey{}); v != nil {
		return StoreID(v), true
	}
	return slog.Attr{}, false
}
