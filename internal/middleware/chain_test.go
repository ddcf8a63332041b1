package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
)

type recordedRequest struct {
	method, route string
	status        int
}

type fakeHTTPRecorder struct {
	mu   sync.Mutex
	reqs []recordedRequest
}

func (f *fakeHTTPRecorder) RecordHTTPRequest(method, route string, statusCode int, _ time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reqs = append(f.reqs, recordedRequest{method, route, statusCode})
}

// newTestRouter は本番と同じ順序でミドルウェアを組み立てたルーターを返す。
func newTestRouter(logger *slog.Logger, recorder HTTPRecorder) *chi.Mux {
	rl := NewRateLimiter(testConfig(100, 1))

	r := chi.NewRouter()
	r.Use(NewRecoveryMiddleware())
	r.Use(NewMetricsMiddleware(recorder))
	r.Use(NewLoggingMiddleware(logger))
	r.Use(NewSecurityHeadersMiddleware("/uploads/"))
	r.Use(NewCORSMiddleware("http://localhost:3000"))

	r.Get("/api/help/docs", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Group(func(r chi.Router) {
		r.Use(NewAuthMiddleware(acceptToken("chain-token", "user-chain")))
		r.Use(rl.GeneralMiddleware())
		r.Get("/api/sites/{id}", func(w http.ResponseWriter, r *http.Request) {
			userID, _ := UserIDFromContext(r.Context())
			json.NewEncoder(w).Encode(map[string]string{"user_id": userID, "site_id": chi.URLParam(r, "id")})
		})
		r.Get("/api/panic", func(w http.ResponseWriter, r *http.Request) {
			panic("boom")
		})
	})
	return r
}

func TestMiddlewareChain_AuthenticatedRoute(t *testing.T) {
	var buf bytes.Buffer
	recorder := &fakeHTTPRecorder{}
	router := newTestRouter(slog.New(slog.NewJSONHandler(&buf, nil)), recorder)

	req := httptest.NewRequest(http.MethodGet, "/api/sites/site-1", nil)
	req.Header.Set("Authorization", "Bearer chain-token")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	var body map[string]string
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if body["user_id"] != "user-chain" || body["site_id"] != "site-1" {
		t.Errorf("body = %v", body)
	}

	if got := w.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q", got)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("Access-Control-Allow-Origin = %q", got)
	}

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("failed to parse log: %v", err)
	}
	if entry["user_id"] != "user-chain" {
		t.Errorf("logged user_id = %v", entry["user_id"])
	}

	if len(recorder.reqs) != 1 || recorder.reqs[0] != (recordedRequest{"GET", "/api/sites/{id}", 200}) {
		t.Errorf("recorded = %+v, want route pattern label", recorder.reqs)
	}
}

func TestMiddlewareChain_PublicRouteWithoutToken(t *testing.T) {
	router := newTestRouter(slog.New(slog.NewJSONHandler(&bytes.Buffer{}, nil)), &fakeHTTPRecorder{})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/help/docs", nil))

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
}

func TestMiddlewareChain_ProtectedRouteWithoutToken(t *testing.T) {
	recorder := &fakeHTTPRecorder{}
	router := newTestRouter(slog.New(slog.NewJSONHandler(&bytes.Buffer{}, nil)), recorder)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/sites/site-1", nil))

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
	if len(recorder.reqs) != 1 || recorder.reqs[0].status != http.StatusUnauthorized {
		t.Errorf("recorded = %+v", recorder.reqs)
	}
}

func TestMiddlewareChain_PanicBecomesEnvelope(t *testing.T) {
	var buf bytes.Buffer
	router := newTestRouter(slog.New(slog.NewJSONHandler(&buf, nil)), &fakeHTTPRecorder{})

	req := httptest.NewRequest(http.MethodGet, "/api/panic", nil)
	req.Header.Set("Authorization", "Bearer chain-token")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusInternalServerError)
	}
	var body ErrorResponseBody
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if body.ErrorCode != "INTERNAL_ERROR" {
		t.Errorf("error_code = %q", body.ErrorCode)
	}
}

func TestMetricsMiddleware_UnmatchedRoute(t *testing.T) {
	recorder := &fakeHTTPRecorder{}
	router := newTestRouter(slog.New(slog.NewJSONHandler(&bytes.Buffer{}, nil)), recorder)

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/no/such/path", nil))

	if len(recorder.reqs) != 1 || recorder.reqs[0].route != unmatchedRoute || recorder.reqs[0].status != http.StatusNotFound {
		t.Errorf("recorded = %+v", recorder.reqs)
	}
}
