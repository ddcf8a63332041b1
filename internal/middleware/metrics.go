package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

// HTTPRecorder はHTTPリクエストの計測値を記録する。
type HTTPRecorder interface {
	RecordHTTPRequest(method, route string, statusCode int, duration time.Duration)
}

// unmatchedRoute はルートに一致しなかったリクエストのラベル。
// パスをそのままラベルにするとカーディナリティが際限なく増える。
const unmatchedRoute = "unmatched"

// NewMetricsMiddleware はリクエスト数とレイテンシを記録するミドルウェアを返す。
// routeラベルにはURLパスではなくchiのルートパターン（/api/sites/{id} など）を使う。
func NewMetricsMiddleware(recorder HTTPRecorder) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(rec, r)

			route := unmatchedRoute
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				if pattern := rctx.RoutePattern(); pattern != "" {
					route = pattern
				}
			}
			recorder.RecordHTTPRequest(r.Method, route, rec.statusCode, time.Since(start))
		})
	}
}
