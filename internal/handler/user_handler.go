package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/portfoliopro/portfoliopro/internal/model"
	"github.com/portfoliopro/portfoliopro/internal/patch"
)

// UserServiceInterface はユーザーハンドラーが必要とするサービスインターフェース。
type UserServiceInterface interface {
	GetProfile(ctx context.Context, userID string) (*model.User, error)
	// UpdateProfile は許可リスト内のフィールドのみを部分更新する。
	UpdateProfile(ctx context.Context, userID string, p *patch.Payload) (*model.User, error)
}

// UserHandler はユーザープロフィールのHTTPハンドラー。
type UserHandler struct {
	service UserServiceInterface
}

// NewUserHandler はUserHandlerを生成する。
func NewUserHandler(service UserServiceInterface) *UserHandler {
	return &UserHandler{
		service: service,
	}
}

// GetProfile は公開プロフィールを返す。メールアドレスは含めない。
// GET /api/users/{id}
func (h *UserHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	user, err := h.service.GetProfile(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeData(w, http.StatusOK, toPublicUserResponse(user))
}

// UpdateMe は自分のプロフィールを更新する。
// PUT /api/users/me
func (h *UserHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	p, err := decodePatch(w, r)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	user, err := h.service.UpdateProfile(r.Context(), userID, p)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeData(w, http.StatusOK, toUserResponse(user))
}
