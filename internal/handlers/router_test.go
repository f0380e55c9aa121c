package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type envelope struct {
	Error     string `json:"error"`
	Message   string `json:"message"`
	RequestID string `json:"request_id"`
}

func serve(t *testing.T, h http.Handler, method, path string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(method, path, nil))
	var body envelope
	if rr.Body.Len() > 0 && strings.HasPrefix(rr.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
			t.Fatalf("decode %s %s: %v", method, path, err)
		}
	}
	return rr, body
}

func TestRouterUnregisteredGroupsAnswerNotImplemented(t *testing.T) {
	router := NewRouter()

	for _, path := range []string{
		"/api/v1/public/products",
		"/api/v1/cart",
		"/api/v1/cart/items/p1",
		"/api/v1/checkout/orders",
		"/api/v1/orders",
		"/api/v1/admin/dashboard",
	} {
		rr, body := serve(t, router, http.MethodPost, path)
		if rr.Code != http.StatusNotImplemented {
			t.Fatalf("%s: expected 501, got %d", path, rr.Code)
		}
		if body.Error != "not_implemented" {
			t.Fatalf("%s: expected not_implemented, got %q", path, body.Error)
		}
		if body.RequestID == "" {
			t.Fatalf("%s: expected request id in envelope", path)
		}
	}
}

func TestRouterMountsEachGroupAtItsPrefix(t *testing.T) {
	tests := []struct {
		option func(RouteRegistrar) Option
		prefix string
	}{
		{WithPublicRoutes, "/api/v1/public"},
		{WithCartRoutes, "/api/v1/cart"},
		{WithCheckoutRoutes, "/api/v1/checkout"},
		{WithOrderRoutes, "/api/v1/orders"},
		{WithAdminRoutes, "/api/v1/admin"},
	}
	for _, tc := range tests {
		t.Run(tc.prefix, func(t *testing.T) {
			router := NewRouter(tc.option(func(r chi.Router) {
				r.Get("/ping", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) })
			}))

			if rr, _ := serve(t, router, http.MethodGet, tc.prefix+"/ping"); rr.Code != http.StatusNoContent {
				t.Fatalf("expected 204, got %d", rr.Code)
			}
			// Other groups stay unavailable.
			other := "/api/v1/admin/ping"
			if tc.prefix == "/api/v1/admin" {
				other = "/api/v1/cart/ping"
			}
			if rr, _ := serve(t, router, http.MethodGet, other); rr.Code != http.StatusNotImplemented {
				t.Fatalf("%s: expected 501, got %d", other, rr.Code)
			}
		})
	}
}

func TestRouterUnknownRouteAndMethod(t *testing.T) {
	router := NewRouter()

	rr, body := serve(t, router, http.MethodGet, "/does/not/exist")
	if rr.Code != http.StatusNotFound || body.Error != "route_not_found" {
		t.Fatalf("expected 404 route_not_found, got %d %q", rr.Code, body.Error)
	}

	rr, body = serve(t, router, http.MethodDelete, "/healthz")
	if rr.Code != http.StatusMethodNotAllowed || body.Error != "method_not_allowed" {
		t.Fatalf("expected 405 method_not_allowed, got %d %q", rr.Code, body.Error)
	}
	if !strings.Contains(body.Message, "DELETE") {
		t.Fatalf("expected method in message, got %q", body.Message)
	}
}

func TestRouterRunsGlobalMiddlewareAfterRequestID(t *testing.T) {
	var sawID string
	tag := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sawID = middleware.GetReqID(r.Context())
			w.Header().Set("X-Test-Middleware", "global")
			next.ServeHTTP(w, r)
		})
	}

	rr, _ := serve(t, NewRouter(WithMiddlewares(tag, nil)), http.MethodGet, "/healthz")
	if rr.Header().Get("X-Test-Middleware") != "global" {
		t.Fatalf("expected global middleware to set header")
	}
	if sawID == "" {
		t.Fatalf("expected request id before custom middleware")
	}
}
