// Package handler はHTTPハンドラーを提供する。
//
// 成功レスポンスは {"data": ..., "total": n} 、失敗レスポンスは
// middleware.ErrorResponseBody の形式に統一する。
package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/portfoliopro/portfoliopro/internal/middleware"
	"github.com/portfoliopro/portfoliopro/internal/model"
	"github.com/portfoliopro/portfoliopro/internal/patch"
)

// maxJSONBodyBytes はJSONリクエストボディの上限。
const maxJSONBodyBytes = 1 << 20

// dataEnvelope は成功レスポンスの共通形式。
type dataEnvelope struct {
	Data  any  `json:"data"`
	Total *int `json:"total,omitempty"`
}

// writeData は単一エンティティを {"data": ...} で書き込む。
func writeData(w http.ResponseWriter, statusCode int, data any) {
	writeJSON(w, statusCode, dataEnvelope{Data: data})
}

// writeList は一覧を {"data": [...], "total": n} で書き込む。
func writeList[T any](w http.ResponseWriter, items []T) {
	if items == nil {
		items = []T{}
	}
	total := len(items)
	writeJSON(w, http.StatusOK, dataEnvelope{Data: items, Total: &total})
}

func writeJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Warn("failed to write response", slog.String("error", err.Error()))
	}
}

// writeAPIErrorResponse は統一エラーフォーマットでエラーレスポンスを書き込む。
func writeAPIErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	middleware.WriteErrorResponse(w, statusCode, apiErr)
}

// handleServiceError はサービス層から返されたエラーを適切なHTTPステータスコードに変換する。
func handleServiceError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		statusCode := mapAPIErrorToHTTPStatus(apiErr)
		if statusCode == http.StatusInternalServerError {
			slog.Error("internal server error", slog.String("error", apiErr.Error()))
		}
		writeAPIErrorResponse(w, statusCode, apiErr)
		return
	}

	// APIError以外のエラーは内部サーバーエラーとして扱う
	slog.Error("internal server error", slog.String("error", err.Error()))
	middleware.WriteInternalServerError(w)
}

// mapAPIErrorToHTTPStatus はAPIErrorの種別からHTTPステータスコードにマッピングする。
// エラーコードやメッセージは参照しない。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Kind {
	case model.KindValidation:
		return http.StatusBadRequest
	case model.KindUnauthorized:
		return http.StatusUnauthorized
	case model.KindForbidden:
		return http.StatusForbidden
	case model.KindNotFound:
		return http.StatusNotFound
	case model.KindRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// requireUserID は認証済みユーザーIDを返す。取得できない場合は401を書き込みfalseを返す。
func requireUserID(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError(""))
		return "", false
	}
	return userID, true
}

// decodeJSON はリクエストボディをvにデコードする。未知のキーは無視する。
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	body := http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)
	if err := json.NewDecoder(body).Decode(v); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			return model.NewInvalidRequestError("body too large")
		case errors.Is(err, io.EOF):
			return model.NewInvalidRequestError("body is empty")
		default:
			return model.NewInvalidRequestError("malformed JSON")
		}
	}
	return nil
}

// decodePatch は部分更新リクエストのボディをキー順を保ったまま読み込む。
func decodePatch(w http.ResponseWriter, r *http.Request) (*patch.Payload, error) {
	p, err := patch.DecodePayload(http.MaxBytesReader(w, r.Body, maxJSONBodyBytes))
	if err != nil {
		return nil, patch.ToAPIError(err)
	}
	return p, nil
}
