// Package asset はサイトの画像アセットのドメインロジックを提供する。
package asset

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/portfoliopro/portfoliopro/internal/model"
	"github.com/portfoliopro/portfoliopro/internal/ownership"
	"github.com/portfoliopro/portfoliopro/internal/patch"
	"github.com/portfoliopro/portfoliopro/internal/repository"
	"github.com/portfoliopro/portfoliopro/internal/security"
	"github.com/portfoliopro/portfoliopro/internal/storage"
)

// ImageStore はアップロード画像の保存と削除を行う。削除はStored.Keyで指定する。
type ImageStore interface {
	SaveImage(ctx context.Context, r io.Reader, originalName string) (*storage.Stored, error)
	Delete(key string) error
}

// UploadRecorder は画像の保存を記録する。
type UploadRecorder interface {
	RecordUpload(sizeBytes int64)
}

// Schema は画像更新で変更可能なフィールドの許可リスト。
// project_idにnullを指定するとプロジェクトとの紐付けを解除する。
var Schema = patch.Schema{
	Table: "image_assets",
	Fields: map[string]patch.Field{
		"alt_text":   {Column: "alt_text", Decode: patch.Text},
		"url":        {Column: "url", Decode: patch.TextChecked(security.ValidateImageURL), NotNull: true},
		"project_id": {Column: "project_id", Decode: patch.UUID},
	},
	Protected: map[string]bool{
		"id": true, "site_id": true,
		"file_name": true, "mime_type": true, "width": true, "height": true, "file_key": true,
		"created_at": true, "updated_at": true,
	},
	Returning: repository.AssetColumns,
}

// CreateInput は画像登録の入力。FileとURLのどちらか一方を指定する。
type CreateInput struct {
	File      io.Reader `json:"-"`
	FileName  string    `json:"-"`
	URL       string    `json:"url"`
	AltText   string    `json:"alt_text"`
	ProjectID string    `json:"project_id"`
}

// Service は画像アセット管理のサービス層。
type Service struct {
	assetRepo   repository.AssetRepository
	projectRepo repository.ProjectRepository
	siteRepo    repository.SiteRepository
	store       ImageStore
	recorder    UploadRecorder
}

// NewService はServiceの新しいインスタンスを生成する。recorderはnilでもよい。
func NewService(
	assetRepo repository.AssetRepository,
	projectRepo repository.ProjectRepository,
	siteRepo repository.SiteRepository,
	store ImageStore,
	recorder UploadRecorder,
) *Service {
	return &Service{
		assetRepo:   assetRepo,
		projectRepo: projectRepo,
		siteRepo:    siteRepo,
		store:       store,
		recorder:    recorder,
	}
}

func (s *Service) authorizeSite(ctx context.Context, userID, siteID string) error {
	return ownership.Authorize(ctx, model.ResourceSite, siteID,
		func(ctx context.Context) (string, bool, error) {
			return s.siteRepo.OwnerOf(ctx, siteID)
		},
		userID,
	)
}

// authorizeAsset は画像→サイト→ユーザーを辿り所有者であることを確認する。
func (s *Service) authorizeAsset(ctx context.Context, userID, siteID, assetID string) error {
	if !ownership.ValidID(siteID) {
		return model.NewNotFoundError(model.ResourceSite, siteID)
	}
	return ownership.Authorize(ctx, model.ResourceAsset, assetID,
		func(ctx context.Context) (string, bool, error) {
			return s.assetRepo.OwnerOf(ctx, siteID, assetID)
		},
		userID,
	)
}

// checkProject はproject_idが同じサイトのプロジェクトを指していることを確認する。
func (s *Service) checkProject(ctx context.Context, siteID, projectID string) error {
	if !ownership.ValidID(projectID) {
		return model.NewValidationError("project_id must be a UUID")
	}
	p, err := s.projectRepo.FindByID(ctx, siteID, projectID)
	if err != nil {
		return fmt.Errorf("failed to find project: %w", err)
	}
	if p == nil {
		return model.NewValidationError("project_id must reference a project of the same site")
	}
	return nil
}

// List はサイトの画像を返す。
func (s *Service) List(ctx context.Context, userID, siteID string) ([]*model.ImageAsset, error) {
	if err := s.authorizeSite(ctx, userID, siteID); err != nil {
		return nil, err
	}
	assets, err := s.assetRepo.ListBySiteID(ctx, siteID)
	if err != nil {
		return nil, fmt.Errorf("failed to list image assets: %w", err)
	}
	return assets, nil
}

// Create は画像を登録する。ファイルが指定された場合は保存してから行を作成し、
// それ以外は外部URLの参照として登録する。
func (s *Service) Create(ctx context.Context, userID, siteID string, in CreateInput) (*model.ImageAsset, error) {
	in.URL = strings.TrimSpace(in.URL)
	in.ProjectID = strings.TrimSpace(in.ProjectID)
	if in.File == nil {
		if in.URL == "" {
			return nil, model.NewMissingFieldsError("url")
		}
		if err := security.ValidateImageURL(in.URL); err != nil {
			return nil, model.NewValidationError("url " + err.Error())
		}
	}

	if err := s.authorizeSite(ctx, userID, siteID); err != nil {
		return nil, err
	}
	if in.ProjectID != "" {
		if err := s.checkProject(ctx, siteID, in.ProjectID); err != nil {
			return nil, err
		}
	}

	a := &model.ImageAsset{
		ID:        uuid.New().String(),
		SiteID:    siteID,
		ProjectID: in.ProjectID,
		URL:       in.URL,
		AltText:   strings.TrimSpace(in.AltText),
	}

	var stored *storage.Stored
	if in.File != nil {
		var err error
		stored, err = s.store.SaveImage(ctx, in.File, in.FileName)
		if err != nil {
			return nil, err
		}
		a.URL = stored.URL
		a.FileName = stored.FileName
		a.MimeType = stored.MimeType
		a.Width = stored.Width
		a.Height = stored.Height
		a.FileKey = stored.Key
	}

	if err := s.assetRepo.Create(ctx, a); err != nil {
		if stored != nil {
			s.removeFile(stored.Key)
		}
		return nil, fmt.Errorf("failed to create image asset: %w", err)
	}

	if stored != nil && s.recorder != nil {
		s.recorder.RecordUpload(stored.Size)
	}
	slog.Info("image asset created",
		slog.String("site_id", siteID),
		slog.String("asset_id", a.ID),
		slog.Bool("uploaded", stored != nil),
	)
	return a, nil
}

// Update は画像を部分更新する。
func (s *Service) Update(ctx context.Context, userID, siteID, assetID string, p *patch.Payload) (*model.ImageAsset, error) {
	if err := s.authorizeAsset(ctx, userID, siteID, assetID); err != nil {
		return nil, err
	}

	// アップロード画像のURLはサーバーが保存したファイルを指すため変更させない
	if _, ok := p.Raw("url"); ok {
		a, err := s.assetRepo.FindByID(ctx, siteID, assetID)
		if err != nil {
			return nil, fmt.Errorf("failed to find image asset: %w", err)
		}
		if a == nil {
			return nil, model.NewNotFoundError(model.ResourceAsset, assetID)
		}
		if a.FileKey != "" {
			return nil, model.NewValidationError("url of an uploaded image cannot be changed")
		}
	}

	if raw, ok := p.Raw("project_id"); ok && !p.IsNull("project_id") {
		var projectID string
		if err := json.Unmarshal(raw, &projectID); err != nil {
			return nil, model.NewValidationError("project_id must be a string")
		}
		if err := s.checkProject(ctx, siteID, projectID); err != nil {
			return nil, err
		}
	}

	st, err := Schema.Build(p, patch.Eq("id", assetID), patch.Eq("site_id", siteID))
	if err != nil {
		return nil, patch.ToAPIError(err)
	}

	a, err := s.assetRepo.Update(ctx, st)
	if err != nil {
		return nil, fmt.Errorf("failed to update image asset: %w", err)
	}
	if a == nil {
		return nil, model.NewNotFoundError(model.ResourceAsset, assetID)
	}
	return a, nil
}

// Delete は画像行を削除し、アップロードで保存したファイルをベストエフォートで削除する。
// URL参照の画像ではファイルに触れない。
func (s *Service) Delete(ctx context.Context, userID, siteID, assetID string) error {
	if err := s.authorizeAsset(ctx, userID, siteID, assetID); err != nil {
		return err
	}

	a, err := s.assetRepo.FindByID(ctx, siteID, assetID)
	if err != nil {
		return fmt.Errorf("failed to find image asset: %w", err)
	}
	if a == nil {
		return model.NewNotFoundError(model.ResourceAsset, assetID)
	}

	deleted, err := s.assetRepo.Delete(ctx, siteID, assetID)
	if err != nil {
		return fmt.Errorf("failed to delete image asset: %w", err)
	}
	if !deleted {
		return model.NewNotFoundError(model.ResourceAsset, assetID)
	}
	if a.FileKey != "" {
		s.removeFile(a.FileKey)
	}

	slog.Info("image asset deleted",
		slog.String("site_id", siteID),
		slog.String("asset_id", assetID),
	)
	return nil
}

func (s *Service) removeFile(key string) {
	if err := s.store.Delete(key); err != nil {
		slog.Warn("failed to remove stored image",
			slog.String("file_key", key),
			slog.String("error", err.Error()),
		)
	}
}
