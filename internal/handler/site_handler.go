package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/portfoliopro/portfoliopro/internal/model"
	"github.com/portfoliopro/portfoliopro/internal/patch"
	"github.com/portfoliopro/portfoliopro/internal/site"
)

// SiteServiceInterface はサイトハンドラーが必要とするサービスインターフェース。
type SiteServiceInterface interface {
	Create(ctx context.Context, userID string, in site.CreateInput) (*model.Site, error)
	List(ctx context.Context, userID string) ([]*model.Site, error)
	Get(ctx context.Context, userID, siteID string) (*model.Site, error)
	Update(ctx context.Context, userID, siteID string, section site.Section, p *patch.Payload) (*model.Site, error)
	Publish(ctx context.Context, userID, siteID string) (*model.Site, error)
	// Export はエクスポート成果物を生成し、export_urlを記録したサイトを返す。
	Export(ctx context.Context, userID, siteID string) (*model.Site, error)
}

// SiteHandler はポートフォリオサイト管理のHTTPハンドラー。
type SiteHandler struct {
	service SiteServiceInterface
}

// NewSiteHandler はSiteHandlerを生成する。
func NewSiteHandler(service SiteServiceInterface) *SiteHandler {
	return &SiteHandler{service: service}
}

// CreateSite はサイトを作成する。サブドメインはここで一度だけ決まる。
// POST /api/sites
func (h *SiteHandler) CreateSite(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var in site.CreateInput
	if err := decodeJSON(w, r, &in); err != nil {
		handleServiceError(w, err)
		return
	}

	created, err := h.service.Create(r.Context(), userID, in)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeData(w, http.StatusCreated, toSiteResponse(created))
}

// ListSites は自分のサイト一覧を返す。
// GET /api/sites
func (h *SiteHandler) ListSites(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	sites, err := h.service.List(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeList(w, mapSlice(sites, toSiteResponse))
}

// GetSite はサイトを1件返す。
// GET /api/sites/{id}
func (h *SiteHandler) GetSite(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	s, err := h.service.Get(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeData(w, http.StatusOK, toSiteResponse(s))
}

// UpdateSite は一般設定を部分更新する。
// PUT /api/sites/{id}
func (h *SiteHandler) UpdateSite(w http.ResponseWriter, r *http.Request) {
	h.update(w, r, site.SectionGeneral)
}

// UpdateSection はエディタのセクション単位で部分更新する。
// PUT /api/sites/{id}/{section}  (hero, about, seo, theme)
func (h *SiteHandler) UpdateSection(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "section")
	section, ok := site.ParseSection(name)
	if !ok {
		writeAPIErrorResponse(w, http.StatusNotFound, &model.APIError{
			Kind:    model.KindNotFound,
			Code:    "SECTION_NOT_FOUND",
			Message: "Unknown editor section: " + name,
		})
		return
	}
	h.update(w, r, section)
}

func (h *SiteHandler) update(w http.ResponseWriter, r *http.Request, section site.Section) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	p, err := decodePatch(w, r)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	updated, err := h.service.Update(r.Context(), userID, chi.URLParam(r, "id"), section, p)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeData(w, http.StatusOK, toSiteResponse(updated))
}

// PublishSite は公開日時を記録する。
// PUT /api/sites/{id}/publish
func (h *SiteHandler) PublishSite(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	published, err := h.service.Publish(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeData(w, http.StatusOK, toSiteResponse(published))
}

// ExportSite は静的エクスポートのZIPを生成する。
// POST /api/sites/{id}/export
func (h *SiteHandler) ExportSite(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	exported, err := h.service.Export(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeData(w, http.StatusOK, exportResponse{
		ExportURL: exported.ExportURL,
		Site:      toSiteResponse(exported),
	})
}
