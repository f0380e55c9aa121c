// Package requestctx carries per-request values between middleware, handlers and services.
package requestctx

import (
	"context"

	"go.uber.org/zap"
)

type (
	loggerKey  struct{}
	traceKey   struct{}
	shopperKey struct{}
)

var nop = zap.NewNop()

// TraceInfo is the Cloud Trace context of a request.
type TraceInfo struct {
	TraceID   string
	SpanID    string
	Sampled   bool
	ProjectID string
}

func WithLogger(ctx context.Context, logger *zap.Logger) context.Context {
	if logger == nil {
		logger = nop
	}
	return context.WithValue(orBackground(ctx), loggerKey{}, logger)
}

// Logger returns the request logger or a no-op logger.
func Logger(ctx context.Context) *zap.Logger {
	return LoggerOr(ctx, nop)
}

// LoggerOr returns the request logger, or fallback when none was installed.
func LoggerOr(ctx context.Context, fallback *zap.Logger) *zap.Logger {
	if ctx != nil {
		if logger, ok := ctx.Value(loggerKey{}).(*zap.Logger); ok && logger != nil {
			return logger
		}
	}
	if fallback == nil {
		return nop
	}
	return fallback
}

func WithTrace(ctx context.Context, info TraceInfo) context.Context {
	return context.WithValue(orBackground(ctx), traceKey{}, info)
}

func Trace(ctx context.Context) (TraceInfo, bool) {
	if ctx == nil {
		return TraceInfo{}, false
	}
	info, ok := ctx.Value(traceKey{}).(TraceInfo)
	return info, ok
}

func TraceID(ctx context.Context) string {
	info, _ := Trace(ctx)
	return info.TraceID
}

// Shopper records who a request acted for. The request logger installs an empty one before
// authentication runs; auth and the cart handlers fill it in.
type Shopper struct {
	UserID  string
	GuestID string
}

func WithShopperSlot(ctx context.Context) (context.Context, *Shopper) {
	slot := &Shopper{}
	return context.WithValue(orBackground(ctx), shopperKey{}, slot), slot
}

// SetUserID is a no-op when no slot is installed.
func SetUserID(ctx context.Context, uid string) {
	if slot := shopper(ctx); slot != nil {
		slot.UserID = uid
	}
}

func SetGuestID(ctx context.Context, guestID string) {
	if slot := shopper(ctx); slot != nil {
		slot.GuestID = guestID
	}
}

func shopper(ctx context.Context) *Shopper {
	if ctx == nil {
		return nil
	}
	slot, _ := ctx.Value(shopperKey{}).(*Shopper)
	return slot
}

func orBackground(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}
