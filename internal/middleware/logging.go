package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

// statusRecorder はhttp.ResponseWriterをラップし、ステータスコードを記録する。
type statusRecorder struct {
	http.ResponseWriter
	statusCode int
	written    bool
}

// WriteHeader はステータスコードを記録してから委譲する。
func (sr *statusRecorder) WriteHeader(code int) {
	if !sr.written {
		sr.statusCode = code
		sr.written = true
	}
	sr.ResponseWriter.WriteHeader(code)
}

// Write はデータを書き込む。WriteHeaderが未呼び出しの場合は200を記録する。
func (sr *statusRecorder) Write(b []byte) (int, error) {
	if !sr.written {
		sr.statusCode = http.StatusOK
		sr.written = true
	}
	return sr.ResponseWriter.Write(b)
}

// Unwrap はhttp.ResponseControllerから元のResponseWriterを辿れるようにする。
func (sr *statusRecorder) Unwrap() http.ResponseWriter {
	return sr.ResponseWriter
}

// loggedRequest はアクセスログの出力後に判明する値を内側のミドルウェアから受け取る。
// 認証ミドルウェアはロギングより内側で実行されるため、ユーザーIDはここ経由で渡す。
type loggedRequest struct {
	mu     sync.Mutex
	userID string
}

var loggedRequestKey = contextKey("logged_request")

// setLoggedUserID はアクセスログに記録するユーザーIDを設定する。
// ロギングミドルウェアを通っていないコンテキストでは何もしない。
func setLoggedUserID(ctx context.Context, userID string) {
	if lr, ok := ctx.Value(loggedRequestKey).(*loggedRequest); ok {
		lr.mu.Lock()
		lr.userID = userID
		lr.mu.Unlock()
	}
}

func (lr *loggedRequest) get() string {
	lr.mu.Lock()
	defer lr.mu.Unlock()
	return lr.userID
}

// NewLoggingMiddleware はリクエストのJSON構造化ログを出力するミドルウェアを返す。
// ログにはmethod、path、status、duration_ms、user_id（認証済みの場合）を含む。
func NewLoggingMiddleware(logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			rec := &statusRecorder{
				ResponseWriter: w,
				statusCode:     http.StatusOK,
			}
			lr := &loggedRequest{}
			r = r.WithContext(context.WithValue(r.Context(), loggedRequestKey, lr))

			next.ServeHTTP(rec, r)

			duration := time.Since(start)
			durationMs := float64(duration.Nanoseconds()) / float64(time.Millisecond)

			args := []any{
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", rec.statusCode),
				slog.Float64("duration_ms", durationMs),
			}

			userID := lr.get()
			if userID == "" {
				userID, _ = UserIDFromContext(r.Context())
			}
			if userID != "" {
				args = append(args, slog.String("user_id", userID))
			}

			// slogのログレベルをステータスコードに応じて変更
			level := slog.LevelInfo
			if rec.statusCode >= 500 {
				level = slog.LevelError
			} else if rec.statusCode >= 400 {
				level = slog.LevelWarn
			}

			logger.Log(r.Context(), level, "http_request", args...)
		})
	}
}
