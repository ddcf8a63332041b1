package middleware

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/portfoliopro/portfoliopro/internal/model"
)

// ErrorCodeRateLimited はレート制限超過時のエラーコード。
const ErrorCodeRateLimited = model.ErrCodeRateLimited

// nowFunc はtimestampの時刻源。テストで差し替える。
var nowFunc = time.Now

// ErrorResponseBody はAPIエラーレスポンスの統一フォーマット。
type ErrorResponseBody struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	ErrorCode string `json:"error_code,omitempty"`
	Details   any    `json:"details,omitempty"`
	Timestamp string `json:"timestamp"`
}

// WriteErrorResponse は統一エラーフォーマットでHTTPエラーレスポンスを書き込む。
// すべてのAPIエンドポイントとミドルウェアで同じ形式を使う。
func WriteErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(ErrorResponseBody{
		Success:   false,
		Message:   apiErr.Message,
		ErrorCode: apiErr.Code,
		Details:   apiErr.Details,
		Timestamp: nowFunc().UTC().Format(time.RFC3339),
	})
}

// WriteInternalServerError は内部サーバーエラーの統一レスポンスを書き込む。
// 詳細はログのみに記録し、呼び出し元には一般的なメッセージを返す。
func WriteInternalServerError(w http.ResponseWriter) {
	WriteErrorResponse(w, http.StatusInternalServerError, model.NewInternalError())
}

// writeRateLimited は429レスポンスを書き込む。
func writeRateLimited(w http.ResponseWriter, retryAfter string) {
	w.Header().Set("Retry-After", retryAfter)
	WriteErrorResponse(w, http.StatusTooManyRequests, model.NewRateLimitedError())
}
