// Package user はユーザープロフィールのドメインロジックを提供する。
package user

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/portfoliopro/portfoliopro/internal/model"
	"github.com/portfoliopro/portfoliopro/internal/ownership"
	"github.com/portfoliopro/portfoliopro/internal/patch"
	"github.com/portfoliopro/portfoliopro/internal/repository"
	"github.com/portfoliopro/portfoliopro/internal/security"
)

// ProfileSchema はプロフィール編集で更新可能なフィールドの許可リスト。
// username、email、パスワードはこの経路では変更できない。
var ProfileSchema = patch.Schema{
	Table: "users",
	Fields: map[string]patch.Field{
		"full_name":  {Column: "full_name", Decode: patch.Text},
		"bio":        {Column: "bio", Decode: patch.Text},
		"avatar_url": {Column: "avatar_url", Decode: patch.TextChecked(security.ValidateImageURL)},
		"location":   {Column: "location", Decode: patch.Text},
		"website":    {Column: "website", Decode: patch.TextChecked(security.ValidateLinkURL)},
	},
	Protected: map[string]bool{"id": true, "created_at": true, "updated_at": true},
	Returning: repository.UserColumns,
}

// Service はユーザープロフィールのサービス層。
type Service struct {
	userRepo repository.UserRepository
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(userRepo repository.UserRepository) *Service {
	return &Service{userRepo: userRepo}
}

// GetProfile は公開プロフィールを返す。
func (s *Service) GetProfile(ctx context.Context, userID string) (*model.User, error) {
	if !ownership.ValidID(userID) {
		return nil, model.NewNotFoundError(model.ResourceUser, userID)
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, model.NewNotFoundError(model.ResourceUser, userID)
	}
	return user, nil
}

// UpdateProfile は認証済みユーザー自身のプロフィールを部分更新する。
func (s *Service) UpdateProfile(ctx context.Context, userID string, p *patch.Payload) (*model.User, error) {
	st, err := ProfileSchema.Build(p, patch.Eq("id", userID))
	if err != nil {
		return nil, patch.ToAPIError(err)
	}

	user, err := s.userRepo.Update(ctx, st)
	if err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	if user == nil {
		// トークン発行後にユーザーが削除された
		return nil, model.NewUnauthorizedError("User no longer exists")
	}

	slog.Info("profile updated",
		slog.String("user_id", userID),
		slog.Any("fields", p.Keys()),
	)
	return user, nil
}
