package handler

import (
	"context"
	"net/http"

	"github.com/portfoliopro/portfoliopro/internal/auth"
	"github.com/portfoliopro/portfoliopro/internal/model"
)

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	Register(ctx context.Context, in auth.RegisterInput) (*auth.Result, error)
	Login(ctx context.Context, in auth.LoginInput) (*auth.Result, error)
	CurrentUser(ctx context.Context, userID string) (*model.User, error)
}

// AuthHandler はユーザー登録・ログインのHTTPハンドラー。
type AuthHandler struct {
	service AuthServiceInterface
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(service AuthServiceInterface) *AuthHandler {
	return &AuthHandler{service: service}
}

// Register はユーザーを登録しトークンを発行する。
// POST /api/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var in auth.RegisterInput
	if err := decodeJSON(w, r, &in); err != nil {
		handleServiceError(w, err)
		return
	}

	result, err := h.service.Register(r.Context(), in)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeData(w, http.StatusCreated, authResponse{User: toUserResponse(result.User), Token: result.Token})
}

// Login はemailまたはusernameとパスワードで認証する。
// POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var in auth.LoginInput
	if err := decodeJSON(w, r, &in); err != nil {
		handleServiceError(w, err)
		return
	}

	result, err := h.service.Login(r.Context(), in)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeData(w, http.StatusOK, authResponse{User: toUserResponse(result.User), Token: result.Token})
}

// Me は現在のログインユーザー情報を返す。
// GET /api/auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	user, err := h.service.CurrentUser(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeData(w, http.StatusOK, toUserResponse(user))
}
