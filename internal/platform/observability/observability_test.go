package observability

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/naga-sai1/inv-ecommerce/internal/platform/requestctx"
)

func TestParseCloudTraceContext(t *testing.T) {
	spanCtx, ok := parseCloudTraceContext("105445aa7843bc8bf206b12000100000/1;o=1")
	require.True(t, ok)
	assert.Equal(t, "105445aa7843bc8bf206b12000100000", spanCtx.TraceID().String())
	assert.Equal(t, "0000000000000001", spanCtx.SpanID().String())
	assert.True(t, spanCtx.IsSampled())
	assert.True(t, spanCtx.IsRemote())
	assert.Equal(t, "105445aa7843bc8bf206b12000100000/1;o=1", formatCloudTraceHeader(spanCtx))

	for _, header := range []string{"", "nope", "zz/1;o=1", "105445aa7843bc8bf206b12000100000/abc", "105445aa7843bc8bf206b12000100000/0"} {
		_, ok := parseCloudTraceContext(header)
		assert.False(t, ok, header)
	}
}

func TestTraceMiddlewareStoresTraceInfo(t *testing.T) {
	var info requestctx.TraceInfo
	handler := TraceMiddleware("shop-prod")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		info, _ = requestctx.Trace(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	req.Header.Set(cloudTraceHeader, "105445aa7843bc8bf206b12000100000/7;o=1")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	// The global no-op provider propagates the remote span context unchanged.
	assert.Equal(t, "105445aa7843bc8bf206b12000100000", info.TraceID)
	assert.Equal(t, "shop-prod", info.ProjectID)
}

func TestRequestLoggerReportsShopperSetDownstream(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	router := chi.NewRouter()
	router.Use(InjectLoggerMiddleware(zap.New(core)), RequestLoggerMiddleware())
	router.Get("/cart/{id}", func(w http.ResponseWriter, r *http.Request) {
		requestctx.SetUserID(r.Context(), "uid-42")
		requestctx.SetGuestID(r.Context(), "guest-token")
		w.WriteHeader(http.StatusConflict)
	})

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/cart/abc", nil))

	completed := logs.FilterMessage("request completed").All()
	require.Len(t, completed, 1)
	entry := completed[0]
	fields := entry.ContextMap()
	assert.Equal(t, zapcore.WarnLevel, entry.Level)
	assert.Equal(t, int64(http.StatusConflict), fields["status"])
	assert.Equal(t, "/cart/{id}", fields["route"])
	assert.Equal(t, "uid-42", fields["user_id"])
	assert.Equal(t, SanitizeGuestID("guest-token"), fields["guest"])
	assert.NotContains(t, fields["guest"], "guest-token")
}

func TestRecoveryMiddlewareWritesEnvelope(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	handler := RecoveryMiddleware(zap.New(core))(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Contains(t, rr.Body.String(), "internal_server_error")
	assert.Equal(t, 1, logs.FilterMessage("panic recovered").Len())
}

func TestServiceLoggerLevels(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	log := ServiceLogger(zap.New(core))

	log(context.Background(), "order.placed", map[string]any{"orderId": "ord_1", "total": int64(100)})
	log(context.Background(), "order.event.publish.failed", map[string]any{"error": "down"})

	all := logs.All()
	require.Len(t, all, 2)
	assert.Equal(t, zapcore.InfoLevel, all[0].Level)
	assert.Equal(t, "ord_1", all[0].ContextMap()["orderId"])
	assert.Equal(t, "order.placed", all[0].ContextMap()["event"])
	assert.Equal(t, zapcore.WarnLevel, all[1].Level)
}

func TestSanitizers(t *testing.T) {
	assert.Equal(t, "/", SanitizeRoute(""))
	assert.Equal(t, "GET", SanitizeMethod("GE\x00T"))
	assert.Len(t, SanitizeUserID(strings.Repeat("u", 100)), 64)
	assert.Empty(t, SanitizeGuestID(""))
	assert.True(t, strings.HasPrefix(SanitizeGuestID("abc"), "g_"))
}

func TestNewLoggerFallsBackToInfo(t *testing.T) {
	logger, err := newLogger("not-a-level", []string{"stderr"})
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zapcore.InfoLevel))
	assert.False(t, logger.Core().Enabled(zapcore.DebugLevel))
}
