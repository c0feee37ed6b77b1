package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	chimw "github.com/go-chi/chi/v5/middleware"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"pet-health-records/internal/platform/logger"
	"pet-health-records/internal/ports/auth"
)

type stubVerifier struct{}

func (stubVerifier) Verify(ctx context.Context, token string) (auth.Claims, error) {
	if token == "good" {
		return auth.Claims{UserID: "u-jwt"}, nil
	}
	return auth.Claims{}, errors.New("bad token")
}

func whoami() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, ok := GetClaims(r.Context())
		if !ok {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(c.UserID))
	})
}

func TestAuthContext_DevMode(t *testing.T) {
	h := AuthContext(nil)(whoami())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(DebugUserHeader, "u-dev")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Body.String() != "u-dev" {
		t.Fatalf("expected u-dev, got %q", rr.Body.String())
	}

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected no claims, got %d", rr.Code)
	}
}

func TestAuthContext_VerifierMode(t *testing.T) {
	h := AuthContext(stubVerifier{})(whoami())

	cases := []struct {
		name   string
		header map[string]string
		want   int
	}{
		{"valid bearer", map[string]string{"Authorization": "Bearer good"}, http.StatusOK},
		{"invalid bearer", map[string]string{"Authorization": "Bearer bad"}, http.StatusUnauthorized},
		{"debug header ignored", map[string]string{DebugUserHeader: "u-dev"}, http.StatusUnauthorized},
		{"no bearer prefix", map[string]string{"Authorization": "good"}, http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			for k, v := range tc.header {
				req.Header.Set(k, v)
			}
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)
			if rr.Code != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, rr.Code)
			}
		})
	}
}

func TestRecoverer_PanicGoesToRequestLogger(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	boom := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})
	h := chimw.RequestID(RequestLogger(logger.NewZap(zap.New(core)))(chimw.Recoverer(boom)))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/pets", nil))
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rr.Code)
	}

	panics := logs.FilterMessage("panic recovered").All()
	if len(panics) != 1 {
		t.Fatalf("expected 1 panic entry, got %d", len(panics))
	}
	fields := panics[0].ContextMap()
	if fields["panic"] != "boom" || fields["request_id"] == nil {
		t.Fatalf("unexpected panic fields: %#v", fields)
	}

	access := logs.FilterMessage("http request").All()
	if len(access) != 1 || access[0].ContextMap()["status"] != int64(http.StatusInternalServerError) {
		t.Fatalf("expected access line with status 500, got %#v", access)
	}
}

func TestRequestLogger_InjectsLogger(t *testing.T) {
	var got logger.Logger
	h := chimw.RequestID(RequestLogger(logger.Nop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = logger.FromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rr.Code)
	}
	if got == nil {
		t.Fatalf("expected request logger in context")
	}
}
