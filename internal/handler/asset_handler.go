package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/portfoliopro/portfoliopro/internal/asset"
	"github.com/portfoliopro/portfoliopro/internal/model"
	"github.com/portfoliopro/portfoliopro/internal/patch"
)

// AssetServiceInterface は画像アセットハンドラーが必要とするサービスインターフェース。
type AssetServiceInterface interface {
	List(ctx context.Context, userID, siteID string) ([]*model.ImageAsset, error)
	Create(ctx context.Context, userID, siteID string, in asset.CreateInput) (*model.ImageAsset, error)
	Update(ctx context.Context, userID, siteID, assetID string, p *patch.Payload) (*model.ImageAsset, error)
	Delete(ctx context.Context, userID, siteID, assetID string) error
}

// AssetHandler は画像アセット管理のHTTPハンドラー。
type AssetHandler struct {
	service       AssetServiceInterface
	maxUploadSize int64
}

// NewAssetHandler はAssetHandlerを生成する。
func NewAssetHandler(service AssetServiceInterface, maxUploadSize int64) *AssetHandler {
	return &AssetHandler{service: service, maxUploadSize: maxUploadSize}
}

// ListAssets はサイトの画像一覧を返す。
// GET /api/sites/{id}/assets
func (h *AssetHandler) ListAssets(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	assets, err := h.service.List(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeList(w, mapSlice(assets, toAssetResponse))
}

// CreateAsset は画像を登録する。
// multipart (image, alt_text, project_id) の場合はファイルを保存し、
// JSON ({url, alt_text, project_id}) の場合は外部URLを参照として登録する。
// POST /api/sites/{id}/assets
func (h *AssetHandler) CreateAsset(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var in asset.CreateInput
	if isMultipart(r) {
		form, err := parseUploadForm(w, r, h.maxUploadSize)
		if err != nil {
			handleServiceError(w, err)
			return
		}
		defer form.Close()

		if form.file == nil {
			handleServiceError(w, model.NewMissingFieldsError(imageFormField))
			return
		}
		in = asset.CreateInput{
			File:      form.file,
			FileName:  form.fileName,
			AltText:   form.value("alt_text"),
			ProjectID: form.value("project_id"),
		}
	} else if err := decodeJSON(w, r, &in); err != nil {
		handleServiceError(w, err)
		return
	}

	created, err := h.service.Create(r.Context(), userID, chi.URLParam(r, "id"), in)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeData(w, http.StatusCreated, toAssetResponse(created))
}

// UpdateAsset は画像を部分更新する。
// PUT /api/sites/{id}/assets/{aid}
func (h *AssetHandler) UpdateAsset(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	p, err := decodePatch(w, r)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	updated, err := h.service.Update(r.Context(), userID, chi.URLParam(r, "id"), chi.URLParam(r, "aid"), p)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeData(w, http.StatusOK, toAssetResponse(updated))
}

// DeleteAsset は画像を削除する。保存ファイルの削除はベストエフォート。
// DELETE /api/sites/{id}/assets/{aid}
func (h *AssetHandler) DeleteAsset(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), userID, chi.URLParam(r, "id"), chi.URLParam(r, "aid")); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
