// Package site はポートフォリオサイトのドメインロジックを提供する。
//
// サイトの作成時にユーザー名からサブドメインを一意に確保し、以降の変更系操作は
// すべて所有者確認を経てから実行する。
package site

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/portfoliopro/portfoliopro/internal/model"
	"github.com/portfoliopro/portfoliopro/internal/ownership"
	"github.com/portfoliopro/portfoliopro/internal/patch"
	"github.com/portfoliopro/portfoliopro/internal/repository"
	"github.com/portfoliopro/portfoliopro/internal/security"
	"github.com/portfoliopro/portfoliopro/internal/subdomain"
)

// Section はエディタ画面ごとの更新範囲。
type Section string

const (
	SectionGeneral Section = ""
	SectionHero    Section = "hero"
	SectionAbout   Section = "about"
	SectionSEO     Section = "seo"
	SectionTheme   Section = "theme"
)

// sectionFields はエディタ画面ごとに更新を許可するキー。
var sectionFields = map[Section][]string{
	SectionHero:  {"site_title", "tagline", "hero_image_url"},
	SectionAbout: {"about_text"},
	SectionSEO:   {"seo_title", "seo_description", "seo_keywords"},
	SectionTheme: {"template", "color_scheme", "font_family"},
}

// Exporter はエクスポート成果物の書き出しを行う。
type Exporter interface {
	WriteExport(siteID string, now time.Time) (string, error)
}

// ExportRecorder はエクスポート生成を記録する。
type ExportRecorder interface {
	RecordExport()
}

// CreateInput はサイト作成の入力。
type CreateInput struct {
	SiteTitle      string `json:"site_title"`
	Tagline        string `json:"tagline"`
	HeroImageURL   string `json:"hero_image_url"`
	AboutText      string `json:"about_text"`
	Template       string `json:"template"`
	ColorScheme    string `json:"color_scheme"`
	FontFamily     string `json:"font_family"`
	SEOTitle       string `json:"seo_title"`
	SEODescription string `json:"seo_description"`
	SEOKeywords    string `json:"seo_keywords"`
}

// Service はサイト管理のサービス層。
type Service struct {
	siteRepo  repository.SiteRepository
	userRepo  repository.UserRepository
	sanitizer security.ContentSanitizer
	exporter  Exporter
	recorder  ExportRecorder
	schemas   map[Section]patch.Schema
	now       func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。recorderはnilでもよい。
func NewService(
	siteRepo repository.SiteRepository,
	userRepo repository.UserRepository,
	sanitizer security.ContentSanitizer,
	exporter Exporter,
	recorder ExportRecorder,
) *Service {
	general := patch.Schema{
		Table: "sites",
		Fields: map[string]patch.Field{
			"site_title":      {Column: "site_title", Decode: patch.NonEmptyText, NotNull: true},
			"tagline":         {Column: "tagline", Decode: patch.Text},
			"hero_image_url":  {Column: "hero_image_url", Decode: patch.TextChecked(security.ValidateImageURL)},
			"about_text":      {Column: "about_text", Decode: patch.TextWith(sanitizer.SanitizeRich)},
			"template":        {Column: "template", Decode: patch.NonEmptyText, NotNull: true},
			"color_scheme":    {Column: "color_scheme", Decode: patch.NonEmptyText, NotNull: true},
			"font_family":     {Column: "font_family", Decode: patch.NonEmptyText, NotNull: true},
			"seo_title":       {Column: "seo_title", Decode: patch.Text},
			"seo_description": {Column: "seo_description", Decode: patch.Text},
			"seo_keywords":    {Column: "seo_keywords", Decode: patch.Text},
		},
		// サブドメイン・公開日時・エクスポートURLはサーバーが管理する
		Protected: map[string]bool{
			"id": true, "user_id": true, "subdomain": true,
			"published_at": true, "export_url": true,
			"created_at": true, "updated_at": true,
		},
		Returning: repository.SiteColumns,
	}

	schemas := map[Section]patch.Schema{SectionGeneral: general}
	for section, keys := range sectionFields {
		schemas[section] = general.Subset(keys...)
	}

	return &Service{
		siteRepo:  siteRepo,
		userRepo:  userRepo,
		sanitizer: sanitizer,
		exporter:  exporter,
		recorder:  recorder,
		schemas:   schemas,
		now:       time.Now,
	}
}

// ParseSection はパスセグメントからSectionを解決する。
func ParseSection(s string) (Section, bool) {
	section := Section(s)
	if _, ok := sectionFields[section]; !ok {
		return "", false
	}
	return section, true
}

// authorize はサイトの所有者であることを確認する。
func (s *Service) authorize(ctx context.Context, userID, siteID string) error {
	return ownership.Authorize(ctx, model.ResourceSite, siteID,
		func(ctx context.Context) (string, bool, error) {
			return s.siteRepo.OwnerOf(ctx, siteID)
		},
		userID,
	)
}

// Create はサイトを作成する。サブドメインはユーザー名から生成し、ここで一度だけ割り当てる。
func (s *Service) Create(ctx context.Context, userID string, in CreateInput) (*model.Site, error) {
	title := strings.TrimSpace(in.SiteTitle)
	if title == "" {
		return nil, model.NewMissingFieldsError("site_title")
	}
	if in.HeroImageURL != "" {
		if err := security.ValidateImageURL(in.HeroImageURL); err != nil {
			return nil, model.NewValidationError("hero_image_url " + err.Error())
		}
	}

	owner, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if owner == nil {
		return nil, model.NewUnauthorizedError("User no longer exists")
	}

	var created *model.Site
	insert := func(ctx context.Context, candidate string) error {
		site := &model.Site{
			ID:             uuid.New().String(),
			UserID:         userID,
			SiteTitle:      title,
			Tagline:        in.Tagline,
			HeroImageURL:   in.HeroImageURL,
			AboutText:      s.sanitizer.SanitizeRich(in.AboutText),
			Template:       strings.TrimSpace(in.Template),
			ColorScheme:    strings.TrimSpace(in.ColorScheme),
			FontFamily:     strings.TrimSpace(in.FontFamily),
			SEOTitle:       in.SEOTitle,
			SEODescription: in.SEODescription,
			SEOKeywords:    in.SEOKeywords,
			Subdomain:      candidate,
		}
		if err := s.siteRepo.Create(ctx, site); err != nil {
			// sitesの一意制約はsubdomainのみ
			if errors.Is(err, repository.ErrDuplicate) {
				return subdomain.ErrTaken
			}
			return fmt.Errorf("failed to create site: %w", err)
		}
		created = site
		return nil
	}

	sub, err := subdomain.Reserve(ctx, subdomain.Base(owner.Username), s.siteRepo.SubdomainExists, insert)
	if err != nil {
		return nil, err
	}

	slog.Info("site created",
		slog.String("user_id", userID),
		slog.String("site_id", created.ID),
		slog.String("subdomain", sub),
	)
	return created, nil
}

// List はユーザーが所有するサイトを返す。
func (s *Service) List(ctx context.Context, userID string) ([]*model.Site, error) {
	sites, err := s.siteRepo.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sites: %w", err)
	}
	return sites, nil
}

// Get は所有者に対してサイトを返す。
func (s *Service) Get(ctx context.Context, userID, siteID string) (*model.Site, error) {
	if err := s.authorize(ctx, userID, siteID); err != nil {
		return nil, err
	}
	site, err := s.siteRepo.FindByID(ctx, siteID)
	if err != nil {
		return nil, fmt.Errorf("failed to find site: %w", err)
	}
	if site == nil {
		return nil, model.NewNotFoundError(model.ResourceSite, siteID)
	}
	return site, nil
}

// Update はsectionの許可リストに従いサイトを部分更新する。
func (s *Service) Update(ctx context.Context, userID, siteID string, section Section, p *patch.Payload) (*model.Site, error) {
	schema, ok := s.schemas[section]
	if !ok {
		return nil, model.NewValidationError(fmt.Sprintf("unknown section %q", section))
	}
	if err := s.authorize(ctx, userID, siteID); err != nil {
		return nil, err
	}

	st, err := schema.Build(p, patch.Eq("id", siteID), patch.Eq("user_id", userID))
	if err != nil {
		return nil, patch.ToAPIError(err)
	}

	site, err := s.siteRepo.Update(ctx, st)
	if err != nil {
		return nil, fmt.Errorf("failed to update site: %w", err)
	}
	if site == nil {
		return nil, model.NewNotFoundError(model.ResourceSite, siteID)
	}
	return site, nil
}

// Publish はpublished_atを現在時刻に設定する。繰り返し呼ぶと最後の呼び出し時刻で上書きされる。
func (s *Service) Publish(ctx context.Context, userID, siteID string) (*model.Site, error) {
	if err := s.authorize(ctx, userID, siteID); err != nil {
		return nil, err
	}
	site, err := s.siteRepo.Publish(ctx, siteID)
	if err != nil {
		return nil, fmt.Errorf("failed to publish site: %w", err)
	}
	if site == nil {
		return nil, model.NewNotFoundError(model.ResourceSite, siteID)
	}

	slog.Info("site published",
		slog.String("site_id", siteID),
		slog.String("subdomain", site.Subdomain),
	)
	return site, nil
}

// Export はエクスポートアーカイブを生成し、URLをサイトに記録する。
// アーカイブはサイト内容を反映しない固定のindex.htmlのみを含む。
func (s *Service) Export(ctx context.Context, userID, siteID string) (*model.Site, error) {
	if err := s.authorize(ctx, userID, siteID); err != nil {
		return nil, err
	}

	url, err := s.exporter.WriteExport(siteID, s.now())
	if err != nil {
		return nil, fmt.Errorf("failed to write export: %w", err)
	}

	site, err := s.siteRepo.SetExportURL(ctx, siteID, url)
	if err != nil {
		return nil, fmt.Errorf("failed to record export: %w", err)
	}
	if site == nil {
		return nil, model.NewNotFoundError(model.ResourceSite, siteID)
	}

	if s.recorder != nil {
		s.recorder.RecordExport()
	}
	slog.Info("site exported",
		slog.String("site_id", siteID),
		slog.String("export_url", url),
	)
	return site, nil
}
