package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/portfoliopro/portfoliopro/internal/model"
	"github.com/portfoliopro/portfoliopro/internal/patch"
	"github.com/portfoliopro/portfoliopro/internal/project"
)

// ProjectServiceInterface はプロジェクトハンドラーが必要とするサービスインターフェース。
type ProjectServiceInterface interface {
	List(ctx context.Context, userID, siteID string) ([]*model.Project, error)
	Create(ctx context.Context, userID, siteID string, in project.CreateInput) (*model.Project, error)
	Update(ctx context.Context, userID, siteID, projectID string, p *patch.Payload) (*model.Project, error)
	// Delete はプロジェクトと紐づく画像行を1トランザクションで削除する。
	Delete(ctx context.Context, userID, siteID, projectID string) error
	UploadImage(ctx context.Context, userID, siteID, projectID string, in project.UploadInput) (*model.Project, *model.ImageAsset, error)
}

// ProjectHandler はプロジェクト管理のHTTPハンドラー。
type ProjectHandler struct {
	service       ProjectServiceInterface
	maxUploadSize int64
}

// NewProjectHandler はProjectHandlerを生成する。
func NewProjectHandler(service ProjectServiceInterface, maxUploadSize int64) *ProjectHandler {
	return &ProjectHandler{service: service, maxUploadSize: maxUploadSize}
}

// ListProjects はサイトのプロジェクトをorder_index順に返す。
// GET /api/sites/{id}/projects
func (h *ProjectHandler) ListProjects(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	projects, err := h.service.List(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeList(w, mapSlice(projects, toProjectResponse))
}

// CreateProject はプロジェクトを末尾に追加する。
// POST /api/sites/{id}/projects
func (h *ProjectHandler) CreateProject(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var in project.CreateInput
	if err := decodeJSON(w, r, &in); err != nil {
		handleServiceError(w, err)
		return
	}

	created, err := h.service.Create(r.Context(), userID, chi.URLParam(r, "id"), in)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeData(w, http.StatusCreated, toProjectResponse(created))
}

// UpdateProject はプロジェクトを部分更新する。
// PUT /api/sites/{id}/projects/{pid}
func (h *ProjectHandler) UpdateProject(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	p, err := decodePatch(w, r)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	updated, err := h.service.Update(r.Context(), userID, chi.URLParam(r, "id"), chi.URLParam(r, "pid"), p)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeData(w, http.StatusOK, toProjectResponse(updated))
}

// DeleteProject はプロジェクトを削除する。
// DELETE /api/sites/{id}/projects/{pid}
func (h *ProjectHandler) DeleteProject(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), userID, chi.URLParam(r, "id"), chi.URLParam(r, "pid")); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// UploadImage はプロジェクトに画像をアップロードする。
// POST /api/sites/{id}/projects/{pid}/images  (multipart: image, alt_text)
func (h *ProjectHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	if !isMultipart(r) {
		handleServiceError(w, model.NewInvalidRequestError("multipart/form-data is required"))
		return
	}
	form, err := parseUploadForm(w, r, h.maxUploadSize)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	defer form.Close()

	in := project.UploadInput{
		FileName: form.fileName,
		AltText:  form.value("alt_text"),
	}
	// nilのmultipart.Fileをio.Readerに入れるとnil判定できなくなる
	if form.file != nil {
		in.File = form.file
	}

	updated, asset, err := h.service.UploadImage(r.Context(), userID, chi.URLParam(r, "id"), chi.URLParam(r, "pid"), in)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeData(w, http.StatusCreated, projectImageResponse{
		Project: toProjectResponse(updated),
		Asset:   toAssetResponse(asset),
	})
}
