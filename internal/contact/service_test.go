package contact

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/portfoliopro/portfoliopro/internal/model"
	"github.com/portfoliopro/portfoliopro/internal/patch"
	"github.com/portfoliopro/portfoliopro/internal/security"
)

const siteID = "33333333-3333-4333-8333-333333333333"

type mockContactRepo struct {
	created   []*model.ContactSubmission
	createErr error
}

func (m *mockContactRepo) Create(ctx context.Context, c *model.ContactSubmission) error {
	if m.createErr != nil {
		return m.createErr
	}
	c.CreatedAt = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	m.created = append(m.created, c)
	return nil
}
func (m *mockContactRepo) ListByOwner(ctx context.Context, userID string) ([]*model.ContactSubmission, error) {
	return m.created, nil
}
func (m *mockContactRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	return 0, nil
}

// mockSiteRepo はOwnerOfのみを使用するSiteRepositoryのモック。
type mockSiteRepo struct {
	sites   map[string]string
	lookups int
}

func (m *mockSiteRepo) FindByID(ctx context.Context, id string) (*model.Site, error) { return nil, nil }
func (m *mockSiteRepo) ListByUserID(ctx context.Context, userID string) ([]*model.Site, error) {
	return nil, nil
}
func (m *mockSiteRepo) FindLatestByUserID(ctx context.Context, userID string) (*model.Site, error) {
	return nil, nil
}
func (m *mockSiteRepo) ListExportedByUserID(ctx context.Context, userID string) ([]*model.Site, error) {
	return nil, nil
}
func (m *mockSiteRepo) SubdomainExists(ctx context.Context, s string) (bool, error) {
	return false, nil
}
func (m *mockSiteRepo) Create(ctx context.Context, site *model.Site) error { return nil }
func (m *mockSiteRepo) Update(ctx context.Context, st *patch.Statement) (*model.Site, error) {
	return nil, nil
}
func (m *mockSiteRepo) Publish(ctx context.Context, id string) (*model.Site, error) { return nil, nil }
func (m *mockSiteRepo) SetExportURL(ctx context.Context, id, u string) (*model.Site, error) {
	return nil, nil
}
func (m *mockSiteRepo) OwnerOf(ctx context.Context, id string) (string, bool, error) {
	m.lookups++
	owner, ok := m.sites[id]
	return owner, ok, nil
}

type countingRecorder struct{ n int }

func (r *countingRecorder) RecordContactSubmission() { r.n++ }

func newTestService() (*Service, *mockContactRepo, *mockSiteRepo, *countingRecorder) {
	contacts := &mockContactRepo{}
	sites := &mockSiteRepo{sites: map[string]string{siteID: "owner"}}
	rec := &countingRecorder{}
	return NewService(contacts, sites, security.NewContentSanitizer(), rec), contacts, sites, rec
}

func apiErrorCode(t *testing.T, err error) string {
	t.Helper()
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %v, want *model.APIError", err)
	}
	return apiErr.Code
}

func TestService_Submit(t *testing.T) {
	svc, contacts, _, rec := newTestService()

	c, err := svc.Submit(context.Background(), SubmitInput{
		SiteID:  siteID,
		Name:    " Visitor ",
		Email:   "v@example.com",
		Subject: "Hi",
		Message: `Hello <script>alert(1)</script><b>there</b>`,
	})
	if err != nil {
		t.Fatalf("Submit returned error: %v", err)
	}
	if c.ID == "" || c.SiteID != siteID || c.Name != "Visitor" {
		t.Errorf("submission = %+v", c)
	}
	if strings.Contains(c.Message, "<") {
		t.Errorf("Message = %q, tags should be stripped", c.Message)
	}
	if !strings.Contains(c.Message, "there") {
		t.Errorf("Message = %q, text should be kept", c.Message)
	}
	if len(contacts.created) != 1 {
		t.Errorf("created = %d, want 1", len(contacts.created))
	}
	if rec.n != 1 {
		t.Errorf("recorded = %d, want 1", rec.n)
	}
}

func TestService_Submit_WithoutSite(t *testing.T) {
	svc, contacts, sites, _ := newTestService()

	c, err := svc.Submit(context.Background(), SubmitInput{Name: "V", Email: "v@example.com", Message: "m"})
	if err != nil {
		t.Fatalf("Submit returned error: %v", err)
	}
	if c.SiteID != "" {
		t.Errorf("SiteID = %q, want empty", c.SiteID)
	}
	if sites.lookups != 0 {
		t.Error("no site lookup expected without site_id")
	}
	if len(contacts.created) != 1 {
		t.Error("submission should be stored")
	}
}

func TestService_Submit_MissingFields(t *testing.T) {
	svc, contacts, _, _ := newTestService()

	_, err := svc.Submit(context.Background(), SubmitInput{Name: "V", Message: "  "})
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeMissingFields {
		t.Fatalf("err = %v, want MISSING_FIELDS", err)
	}
	if !strings.Contains(apiErr.Message, "email") || !strings.Contains(apiErr.Message, "message") {
		t.Errorf("Message = %q, should name email and message", apiErr.Message)
	}
	if len(contacts.created) != 0 {
		t.Error("nothing should be stored")
	}
}

func TestService_Submit_Rejects(t *testing.T) {
	tests := []struct {
		name     string
		in       SubmitInput
		wantCode string
	}{
		{"bad email", SubmitInput{Name: "V", Email: "not-an-email", Message: "m"}, model.ErrCodeValidation},
		{"display-name email", SubmitInput{Name: "V", Email: "V <v@example.com>", Message: "m"}, model.ErrCodeValidation},
		{"long message", SubmitInput{Name: "V", Email: "v@example.com", Message: strings.Repeat("a", maxMessageLength+1)}, model.ErrCodeValidation},
		{"unknown site", SubmitInput{SiteID: "66666666-6666-4666-8666-666666666666", Name: "V", Email: "v@example.com", Message: "m"}, "SITE_NOT_FOUND"},
		{"malformed site", SubmitInput{SiteID: "site-1", Name: "V", Email: "v@example.com", Message: "m"}, "SITE_NOT_FOUND"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, contacts, _, rec := newTestService()
			_, err := svc.Submit(context.Background(), tt.in)
			if code := apiErrorCode(t, err); code != tt.wantCode {
				t.Errorf("Code = %q, want %q", code, tt.wantCode)
			}
			if len(contacts.created) != 0 || rec.n != 0 {
				t.Error("rejected submissions must not be stored or counted")
			}
		})
	}
}

func TestService_Submit_StoreFailure(t *testing.T) {
	svc, contacts, _, rec := newTestService()
	contacts.createErr = errors.New("db down")

	_, err := svc.Submit(context.Background(), SubmitInput{Name: "V", Email: "v@example.com", Message: "m"})
	if err == nil {
		t.Fatal("expected error")
	}
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		t.Errorf("infrastructure failure should not be an APIError: %v", apiErr)
	}
	if rec.n != 0 {
		t.Error("failed submissions must not be counted")
	}
}
