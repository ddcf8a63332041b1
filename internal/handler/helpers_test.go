package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/portfoliopro/portfoliopro/internal/middleware"
)

// withUserID はテスト用に認証済みユーザーIDをコンテキストに注入する。
func withUserID(req *http.Request, userID string) *http.Request {
	return req.WithContext(middleware.ContextWithUserID(req.Context(), userID))
}

// withURLParams はchiのURLパラメータをリクエストに設定する。
func withURLParams(req *http.Request, kv ...string) *http.Request {
	rctx := chi.NewRouteContext()
	for i := 0; i+1 < len(kv); i += 2 {
		rctx.URLParams.Add(kv[i], kv[i+1])
	}
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

// decodeData は成功レスポンスの {"data": ...} を取り出す。
func decodeData(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	var body struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if err := json.Unmarshal(body.Data, v); err != nil {
		t.Fatalf("failed to decode data: %v (raw=%s)", err, body.Data)
	}
}

// decodeList は一覧レスポンスの件数とdataを取り出す。
func decodeList(t *testing.T, w *httptest.ResponseRecorder) (int, []map[string]any) {
	t.Helper()
	var body struct {
		Data  []map[string]any `json:"data"`
		Total *int             `json:"total"`
	}
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body.Total == nil {
		t.Fatal("total is missing")
	}
	return *body.Total, body.Data
}

// decodeError はエラーレスポンスを取り出す。
func decodeError(t *testing.T, w *httptest.ResponseRecorder) middleware.ErrorResponseBody {
	t.Helper()
	var body middleware.ErrorResponseBody
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	if body.Success {
		t.Error("success should be false")
	}
	return body
}

func assertStatus(t *testing.T, w *httptest.ResponseRecorder, want int) {
	t.Helper()
	if w.Code != want {
		t.Fatalf("status = %d, want %d (body=%s)", w.Code, want, w.Body.String())
	}
}
