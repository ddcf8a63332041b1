// Package project はサイトに属するプロジェクトのドメインロジックを提供する。
package project

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

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
	DeleteAll(keys []string)
}

// UploadRecorder は画像の保存を記録する。
type UploadRecorder interface {
	RecordUpload(sizeBytes int64)
}

// Schema はプロジェクト更新で変更可能なフィールドの許可リスト。
// JSONキー date は project_date カラムに対応する。
var Schema = patch.Schema{
	Table: "projects",
	Fields: map[string]patch.Field{
		"title":       {Column: "title", Decode: patch.NonEmptyText, NotNull: true},
		"description": {Column: "description", Decode: patch.Text},
		"date":        {Column: "project_date", Decode: patch.Date},
		"tags":        {Column: "tags", Decode: patch.TextArray, NotNull: true},
		"images":      {Column: "images", Decode: decodeImageURLs, NotNull: true},
		"order_index": {Column: "order_index", Decode: patch.Int, NotNull: true},
	},
	Protected: map[string]bool{"id": true, "site_id": true, "created_at": true, "updated_at": true},
	Returning: repository.ProjectColumns,
}

// decodeImageURLs は画像URLの配列を受け付け、各URLを検証する。
func decodeImageURLs(raw json.RawMessage) (any, error) {
	var urls []string
	if err := json.Unmarshal(raw, &urls); err != nil {
		return nil, errors.New("must be an array of strings")
	}
	if err := validateImageURLs(urls); err != nil {
		return nil, err
	}
	if urls == nil {
		urls = []string{}
	}
	return pq.Array(urls), nil
}

func validateImageURLs(urls []string) error {
	for i, u := range urls {
		if err := security.ValidateImageURL(u); err != nil {
			return fmt.Errorf("[%d] %v", i, err)
		}
	}
	return nil
}

// CreateInput はプロジェクト作成の入力。
type CreateInput struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Date        string   `json:"date"`
	Tags        []string `json:"tags"`
	Images      []string `json:"images"`
}

// UploadInput はプロジェクト画像アップロードの入力。
type UploadInput struct {
	File     io.Reader
	FileName string
	AltText  string
}

// Service はプロジェクト管理のサービス層。
type Service struct {
	projectRepo repository.ProjectRepository
	siteRepo    repository.SiteRepository
	store       ImageStore
	recorder    UploadRecorder
}

// NewService はServiceの新しいインスタンスを生成する。recorderはnilでもよい。
func NewService(projectRepo repository.ProjectRepository, siteRepo repository.SiteRepository, store ImageStore, recorder UploadRecorder) *Service {
	return &Service{
		projectRepo: projectRepo,
		siteRepo:    siteRepo,
		store:       store,
		recorder:    recorder,
	}
}

// authorizeSite はサイトの所有者であることを確認する。
func (s *Service) authorizeSite(ctx context.Context, userID, siteID string) error {
	return ownership.Authorize(ctx, model.ResourceSite, siteID,
		func(ctx context.Context) (string, bool, error) {
			return s.siteRepo.OwnerOf(ctx, siteID)
		},
		userID,
	)
}

// authorizeProject はプロジェクト→サイト→ユーザーを辿り所有者であることを確認する。
func (s *Service) authorizeProject(ctx context.Context, userID, siteID, projectID string) error {
	if !ownership.ValidID(siteID) {
		return model.NewNotFoundError(model.ResourceSite, siteID)
	}
	return ownership.Authorize(ctx, model.ResourceProject, projectID,
		func(ctx context.Context) (string, bool, error) {
			return s.projectRepo.OwnerOf(ctx, siteID, projectID)
		},
		userID,
	)
}

// List はサイトのプロジェクトをorder_index順に返す。
func (s *Service) List(ctx context.Context, userID, siteID string) ([]*model.Project, error) {
	if err := s.authorizeSite(ctx, userID, siteID); err != nil {
		return nil, err
	}
	projects, err := s.projectRepo.ListBySiteID(ctx, siteID)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	return projects, nil
}

// Create はプロジェクトを作成する。order_indexはサイト内の末尾に割り当てられる。
func (s *Service) Create(ctx context.Context, userID, siteID string, in CreateInput) (*model.Project, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, model.NewMissingFieldsError("title")
	}
	if in.Date != "" {
		if _, err := time.Parse(patch.DateLayout, in.Date); err != nil {
			return nil, model.NewValidationError("date must be a date in YYYY-MM-DD format")
		}
	}
	if err := validateImageURLs(in.Images); err != nil {
		return nil, model.NewValidationError("images " + err.Error())
	}

	if err := s.authorizeSite(ctx, userID, siteID); err != nil {
		return nil, err
	}

	p := &model.Project{
		ID:          uuid.New().String(),
		SiteID:      siteID,
		Title:       title,
		Description: in.Description,
		Date:        in.Date,
		Tags:        in.Tags,
		Images:      in.Images,
	}
	if err := s.projectRepo.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}

	slog.Info("project created",
		slog.String("site_id", siteID),
		slog.String("project_id", p.ID),
		slog.Int("order_index", p.OrderIndex),
	)
	return p, nil
}

// Update はプロジェクトを部分更新する。
func (s *Service) Update(ctx context.Context, userID, siteID, projectID string, p *patch.Payload) (*model.Project, error) {
	if err := s.authorizeProject(ctx, userID, siteID, projectID); err != nil {
		return nil, err
	}

	st, err := Schema.Build(p, patch.Eq("id", projectID), patch.Eq("site_id", siteID))
	if err != nil {
		return nil, patch.ToAPIError(err)
	}

	project, err := s.projectRepo.Update(ctx, st)
	if err != nil {
		return nil, fmt.Errorf("failed to update project: %w", err)
	}
	if project == nil {
		return nil, model.NewNotFoundError(model.ResourceProject, projectID)
	}
	return project, nil
}

// Delete はプロジェクトと紐付く画像行を1トランザクションで削除し、
// アップロードで保存したファイルをベストエフォートで削除する。
func (s *Service) Delete(ctx context.Context, userID, siteID, projectID string) error {
	if err := s.authorizeProject(ctx, userID, siteID, projectID); err != nil {
		return err
	}

	fileKeys, err := s.projectRepo.DeleteWithAssets(ctx, siteID, projectID)
	if err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}
	s.store.DeleteAll(fileKeys)

	slog.Info("project deleted",
		slog.String("site_id", siteID),
		slog.String("project_id", projectID),
		slog.Int("files_removed", len(fileKeys)),
	)
	return nil
}

// UploadImage は画像を保存し、画像行の作成とプロジェクトのimagesへの追加を1トランザクションで行う。
func (s *Service) UploadImage(ctx context.Context, userID, siteID, projectID string, in UploadInput) (*model.Project, *model.ImageAsset, error) {
	if in.File == nil {
		return nil, nil, model.NewMissingFieldsError("image")
	}
	if err := s.authorizeProject(ctx, userID, siteID, projectID); err != nil {
		return nil, nil, err
	}

	stored, err := s.store.SaveImage(ctx, in.File, in.FileName)
	if err != nil {
		return nil, nil, err
	}

	asset := &model.ImageAsset{
		ID:        uuid.New().String(),
		SiteID:    siteID,
		ProjectID: projectID,
		URL:       stored.URL,
		AltText:   strings.TrimSpace(in.AltText),
		FileName:  stored.FileName,
		MimeType:  stored.MimeType,
		Width:     stored.Width,
		Height:    stored.Height,
		FileKey:   stored.Key,
	}
	project, err := s.projectRepo.AttachImage(ctx, asset)
	if err != nil {
		if rmErr := s.store.Delete(stored.Key); rmErr != nil {
			slog.Warn("failed to remove orphaned upload",
				slog.String("file_key", stored.Key),
				slog.String("error", rmErr.Error()),
			)
		}
		return nil, nil, fmt.Errorf("failed to attach image: %w", err)
	}

	if s.recorder != nil {
		s.recorder.RecordUpload(stored.Size)
	}
	return project, asset, nil
}
