package handler

import (
	"context"
	"net/http"

	"github.com/portfoliopro/portfoliopro/internal/dashboard"
	"github.com/portfoliopro/portfoliopro/internal/model"
)

// DashboardServiceInterface はダッシュボードハンドラーが必要とするサービスインターフェース。
// いずれも呼び出し元が所有するサイトのみを集計対象とする。
type DashboardServiceInterface interface {
	Projects(ctx context.Context, userID string) ([]*model.Project, error)
	Submissions(ctx context.Context, userID string) ([]*model.ContactSubmission, error)
	Exports(ctx context.Context, userID string) ([]*model.Site, error)
	Preview(ctx context.Context, userID, siteID string) (*dashboard.Preview, error)
}

// DashboardHandler はダッシュボードのHTTPハンドラー。
type DashboardHandler struct {
	service DashboardServiceInterface
}

// NewDashboardHandler はDashboardHandlerを生成する。
func NewDashboardHandler(service DashboardServiceInterface) *DashboardHandler {
	return &DashboardHandler{service: service}
}

// Projects は全サイトのプロジェクトを返す。
// GET /api/dashboard/projects
func (h *DashboardHandler) Projects(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	projects, err := h.service.Projects(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeList(w, mapSlice(projects, toProjectResponse))
}

// Submissions は受信した問い合わせを新しい順に返す。
// GET /api/dashboard/submissions
func (h *DashboardHandler) Submissions(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	submissions, err := h.service.Submissions(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeList(w, mapSlice(submissions, toSubmissionResponse))
}

// Preview はサイト1件とそのプロジェクト・画像をまとめて返す。
// site_id省略時は最後に更新されたサイト。
// GET /api/dashboard/preview?site_id=
func (h *DashboardHandler) Preview(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	preview, err := h.service.Preview(r.Context(), userID, r.URL.Query().Get("site_id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeData(w, http.StatusOK, toPreviewResponse(preview))
}

// Exports はエクスポート成果物を持つサイトを返す。
// GET /api/dashboard/export
func (h *DashboardHandler) Exports(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	sites, err := h.service.Exports(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeList(w, mapSlice(sites, toSiteResponse))
}
