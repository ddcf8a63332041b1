// Package dashboard はユーザーの全サイトにまたがる集計ビューを提供する。
package dashboard

import (
	"context"
	"fmt"

	"github.com/portfoliopro/portfoliopro/internal/model"
	"github.com/portfoliopro/portfoliopro/internal/ownership"
	"github.com/portfoliopro/portfoliopro/internal/repository"
)

// Preview はプレビュー画面に表示するサイトと、その配下のプロジェクト・画像。
type Preview struct {
	Site     *model.Site
	Projects []*model.Project
	Assets   []*model.ImageAsset
}

// Service はダッシュボードのサービス層。読み取り専用。
type Service struct {
	siteRepo    repository.SiteRepository
	projectRepo repository.ProjectRepository
	assetRepo   repository.AssetRepository
	contactRepo repository.ContactRepository
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	siteRepo repository.SiteRepository,
	projectRepo repository.ProjectRepository,
	assetRepo repository.AssetRepository,
	contactRepo repository.ContactRepository,
) *Service {
	return &Service{
		siteRepo:    siteRepo,
		projectRepo: projectRepo,
		assetRepo:   assetRepo,
		contactRepo: contactRepo,
	}
}

// Projects はユーザーの全サイトのプロジェクトを返す。
func (s *Service) Projects(ctx context.Context, userID string) ([]*model.Project, error) {
	projects, err := s.projectRepo.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	return projects, nil
}

// Submissions はユーザーのサイト宛ての問い合わせを新しい順に返す。
func (s *Service) Submissions(ctx context.Context, userID string) ([]*model.ContactSubmission, error) {
	subs, err := s.contactRepo.ListByOwner(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list contact submissions: %w", err)
	}
	return subs, nil
}

// Exports はエクスポート成果物を持つサイトを返す。
func (s *Service) Exports(ctx context.Context, userID string) ([]*model.Site, error) {
	sites, err := s.siteRepo.ListExportedByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list exported sites: %w", err)
	}
	return sites, nil
}

// Preview はsiteIDのサイトを返す。siteIDが空の場合は最後に更新したサイトを返す。
func (s *Service) Preview(ctx context.Context, userID, siteID string) (*Preview, error) {
	site, err := s.previewSite(ctx, userID, siteID)
	if err != nil {
		return nil, err
	}

	projects, err := s.projectRepo.ListBySiteID(ctx, site.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	assets, err := s.assetRepo.ListBySiteID(ctx, site.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list image assets: %w", err)
	}
	return &Preview{Site: site, Projects: projects, Assets: assets}, nil
}

func (s *Service) previewSite(ctx context.Context, userID, siteID string) (*model.Site, error) {
	if siteID == "" {
		site, err := s.siteRepo.FindLatestByUserID(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("failed to find latest site: %w", err)
		}
		if site == nil {
			return nil, model.NewNotFoundError(model.ResourceSite, "latest")
		}
		return site, nil
	}

	err := ownership.Authorize(ctx, model.ResourceSite, siteID,
		func(ctx context.Context) (string, bool, error) {
			return s.siteRepo.OwnerOf(ctx, siteID)
		},
		userID,
	)
	if err != nil {
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
