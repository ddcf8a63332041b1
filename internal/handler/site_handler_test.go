package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/portfoliopro/portfoliopro/internal/model"
	"github.com/portfoliopro/portfoliopro/internal/patch"
	"github.com/portfoliopro/portfoliopro/internal/site"
)

// --- モック定義 ---

// mockSiteService はSiteServiceInterfaceのモック実装。
type mockSiteService struct {
	createFn  func(ctx context.Context, userID string, in site.CreateInput) (*model.Site, error)
	listFn    func(ctx context.Context, userID string) ([]*model.Site, error)
	getFn     func(ctx context.Context, userID, siteID string) (*model.Site, error)
	updateFn  func(ctx context.Context, userID, siteID string, section site.Section, p *patch.Payload) (*model.Site, error)
	publishFn func(ctx context.Context, userID, siteID string) (*model.Site, error)
	exportFn  func(ctx context.Context, userID, siteID string) (*model.Site, error)
}

func (m *mockSiteService) Create(ctx context.Context, userID string, in site.CreateInput) (*model.Site, error) {
	if m.createFn != nil {
		return m.createFn(ctx, userID, in)
	}
	return nil, errors.New("not configured")
}

func (m *mockSiteService) List(ctx context.Context, userID string) ([]*model.Site, error) {
	if m.listFn != nil {
		return m.listFn(ctx, userID)
	}
	return nil, nil
}

func (m *mockSiteService) Get(ctx context.Context, userID, siteID string) (*model.Site, error) {
	if m.getFn != nil {
		return m.getFn(ctx, userID, siteID)
	}
	return nil, errors.New("not configured")
}

func (m *mockSiteService) Update(ctx context.Context, userID, siteID string, section site.Section, p *patch.Payload) (*model.Site, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, userID, siteID, section, p)
	}
	return nil, errors.New("not configured")
}

func (m *mockSiteService) Publish(ctx context.Context, userID, siteID string) (*model.Site, error) {
	if m.publishFn != nil {
		return m.publishFn(ctx, userID, siteID)
	}
	return nil, errors.New("not configured")
}

func (m *mockSiteService) Export(ctx context.Context, userID, siteID string) (*model.Site, error) {
	if m.exportFn != nil {
		return m.exportFn(ctx, userID, siteID)
	}
	return nil, errors.New("not configured")
}

func testSite() *model.Site {
	return &model.Site{
		ID:          "site-1",
		UserID:      "user-123",
		SiteTitle:   "My Work",
		Template:    model.DefaultTemplate,
		ColorScheme: model.DefaultColorScheme,
		FontFamily:  model.DefaultFontFamily,
		Subdomain:   "bob",
		CreatedAt:   time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		UpdatedAt:   time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

// --- テスト ---

func TestSiteHandler_CreateSite_Returns201(t *testing.T) {
	h := NewSiteHandler(&mockSiteService{
		createFn: func(ctx context.Context, userID string, in site.CreateInput) (*model.Site, error) {
			if userID != "user-123" || in.SiteTitle != "My Work" || in.Tagline != "hi" {
				t.Errorf("userID = %q, in = %+v", userID, in)
			}
			return testSite(), nil
		},
	})

	req := httptest.NewRequest(http.MethodPost, "/api/sites", strings.NewReader(`{"site_title":"My Work","tagline":"hi","subdomain":"ignored"}`))
	w := httptest.NewRecorder()
	h.CreateSite(w, withUserID(req, "user-123"))

	assertStatus(t, w, http.StatusCreated)
	var data map[string]any
	decodeData(t, w, &data)
	if data["subdomain"] != "bob" || data["user_id"] != "user-123" {
		t.Errorf("data = %v", data)
	}
	if data["published_at"] != nil {
		t.Errorf("published_at = %v, want null", data["published_at"])
	}
}

func TestSiteHandler_CreateSite_MissingTitle(t *testing.T) {
	h := NewSiteHandler(&mockSiteService{
		createFn: func(ctx context.Context, userID string, in site.CreateInput) (*model.Site, error) {
			return nil, model.NewMissingFieldsError("site_title")
		},
	})

	req := httptest.NewRequest(http.MethodPost, "/api/sites", strings.NewReader(`{}`))
	w := httptest.NewRecorder()
	h.CreateSite(w, withUserID(req, "user-123"))

	assertStatus(t, w, http.StatusBadRequest)
	body := decodeError(t, w)
	if body.ErrorCode != model.ErrCodeMissingFields || body.Message != "Missing required fields: site_title" {
		t.Errorf("body = %+v", body)
	}
}

func TestSiteHandler_ListSites_EmptyIsArray(t *testing.T) {
	h := NewSiteHandler(&mockSiteService{})

	w := httptest.NewRecorder()
	h.ListSites(w, withUserID(httptest.NewRequest(http.MethodGet, "/api/sites", nil), "user-123"))

	assertStatus(t, w, http.StatusOK)
	if !strings.Contains(w.Body.String(), `"data":[]`) {
		t.Errorf("body = %s, want empty array", w.Body.String())
	}
	total, _ := decodeList(t, w)
	if total != 0 {
		t.Errorf("total = %d", total)
	}
}

func TestSiteHandler_GetSite_OwnershipErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"other owner", model.NewForbiddenError(model.ResourceSite), http.StatusForbidden},
		{"missing", model.NewNotFoundError(model.ResourceSite, "site-x"), http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewSiteHandler(&mockSiteService{
				getFn: func(ctx context.Context, userID, siteID string) (*model.Site, error) {
					return nil, tt.err
				},
			})

			req := withURLParams(httptest.NewRequest(http.MethodGet, "/api/sites/site-x", nil), "id", "site-x")
			w := httptest.NewRecorder()
			h.GetSite(w, withUserID(req, "user-123"))

			assertStatus(t, w, tt.wantStatus)
		})
	}
}

func TestSiteHandler_UpdateSection_ResolvesSection(t *testing.T) {
	var gotSection site.Section
	h := NewSiteHandler(&mockSiteService{
		updateFn: func(ctx context.Context, userID, siteID string, section site.Section, p *patch.Payload) (*model.Site, error) {
			gotSection = section
			if siteID != "site-1" {
				t.Errorf("siteID = %q", siteID)
			}
			return testSite(), nil
		},
	})

	req := httptest.NewRequest(http.MethodPut, "/api/sites/site-1/theme", strings.NewReader(`{"color_scheme":"dark"}`))
	req = withURLParams(req, "id", "site-1", "section", "theme")
	w := httptest.NewRecorder()
	h.UpdateSection(w, withUserID(req, "user-123"))

	assertStatus(t, w, http.StatusOK)
	if gotSection != site.SectionTheme {
		t.Errorf("section = %q, want %q", gotSection, site.SectionTheme)
	}
}

func TestSiteHandler_UpdateSection_UnknownSection(t *testing.T) {
	h := NewSiteHandler(&mockSiteService{
		updateFn: func(ctx context.Context, userID, siteID string, section site.Section, p *patch.Payload) (*model.Site, error) {
			t.Error("service should not be called")
			return nil, nil
		},
	})

	req := httptest.NewRequest(http.MethodPut, "/api/sites/site-1/footer", strings.NewReader(`{}`))
	req = withURLParams(req, "id", "site-1", "section", "footer")
	w := httptest.NewRecorder()
	h.UpdateSection(w, withUserID(req, "user-123"))

	assertStatus(t, w, http.StatusNotFound)
	if body := decodeError(t, w); body.ErrorCode != "SECTION_NOT_FOUND" {
		t.Errorf("error_code = %q", body.ErrorCode)
	}
}

func TestSiteHandler_UpdateSite_UsesGeneralSection(t *testing.T) {
	h := NewSiteHandler(&mockSiteService{
		updateFn: func(ctx context.Context, userID, siteID string, section site.Section, p *patch.Payload) (*model.Site, error) {
			if section != site.SectionGeneral {
				t.Errorf("section = %q", section)
			}
			return nil, model.NewUnknownFieldsError([]string{"owner"})
		},
	})

	req := withURLParams(httptest.NewRequest(http.MethodPut, "/api/sites/site-1", strings.NewReader(`{"owner":"x"}`)), "id", "site-1")
	w := httptest.NewRecorder()
	h.UpdateSite(w, withUserID(req, "user-123"))

	assertStatus(t, w, http.StatusBadRequest)
	if body := decodeError(t, w); body.ErrorCode != model.ErrCodeUnknownFields {
		t.Errorf("error_code = %q", body.ErrorCode)
	}
}

func TestSiteHandler_PublishSite(t *testing.T) {
	published := time.Date(2025, 2, 1, 9, 0, 0, 0, time.UTC)
	h := NewSiteHandler(&mockSiteService{
		publishFn: func(ctx context.Context, userID, siteID string) (*model.Site, error) {
			s := testSite()
			s.PublishedAt = &published
			return s, nil
		},
	})

	req := withURLParams(httptest.NewRequest(http.MethodPut, "/api/sites/site-1/publish", nil), "id", "site-1")
	w := httptest.NewRecorder()
	h.PublishSite(w, withUserID(req, "user-123"))

	assertStatus(t, w, http.StatusOK)
	var data siteResponse
	decodeData(t, w, &data)
	if data.PublishedAt == nil || !data.PublishedAt.Equal(published) || data.Subdomain != "bob" {
		t.Errorf("data = %+v", data)
	}
}

func TestSiteHandler_ExportSite_ReturnsURLAndSite(t *testing.T) {
	h := NewSiteHandler(&mockSiteService{
		exportFn: func(ctx context.Context, userID, siteID string) (*model.Site, error) {
			s := testSite()
			s.ExportURL = "/uploads/exports/site-1-1700000000.zip"
			return s, nil
		},
	})

	req := withURLParams(httptest.NewRequest(http.MethodPost, "/api/sites/site-1/export", nil), "id", "site-1")
	w := httptest.NewRecorder()
	h.ExportSite(w, withUserID(req, "user-123"))

	assertStatus(t, w, http.StatusOK)
	var data exportResponse
	decodeData(t, w, &data)
	if data.ExportURL != "/uploads/exports/site-1-1700000000.zip" || data.Site.ExportURL != data.ExportURL {
		t.Errorf("data = %+v", data)
	}
}
