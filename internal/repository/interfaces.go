// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"time"

	"github.com/portfoliopro/portfoliopro/internal/model"
	"github.com/portfoliopro/portfoliopro/internal/patch"
)

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// FindByEmail はメールアドレスでユーザーを検索する。見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// FindByUsername はユーザー名でユーザーを検索する。見つからない場合はnilを返す。
	FindByUsername(ctx context.Context, username string) (*model.User, error)

	// Create はユーザーを作成する。ユーザー名またはメールアドレスが重複する場合はErrDuplicateを返す。
	Create(ctx context.Context, user *model.User) error

	// Update は組み立て済みのUPDATE文を実行し、更新後のユーザーを返す。
	// 対象行がない場合はnilを返す。
	Update(ctx context.Context, st *patch.Statement) (*model.User, error)
}

// SiteRepository はポートフォリオサイトの永続化インターフェース。
type SiteRepository interface {
	// FindByID は指定IDのサイトを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Site, error)

	// ListByUserID はユーザーが所有するサイトを作成日時順に返す。
	ListByUserID(ctx context.Context, userID string) ([]*model.Site, error)

	// FindLatestByUserID はユーザーが最後に更新したサイトを返す。見つからない場合はnilを返す。
	FindLatestByUserID(ctx context.Context, userID string) (*model.Site, error)

	// ListExportedByUserID はエクスポート成果物を持つサイトを返す。
	ListExportedByUserID(ctx context.Context, userID string) ([]*model.Site, error)

	// SubdomainExists はサブドメインが既に使用されているかを返す。
	SubdomainExists(ctx context.Context, subdomain string) (bool, error)

	// Create はサイトを作成する。サブドメインが重複する場合はErrDuplicateを返す。
	Create(ctx context.Context, site *model.Site) error

	// Update は組み立て済みのUPDATE文を実行し、更新後のサイトを返す。
	// 対象行がない場合はnilを返す。
	Update(ctx context.Context, st *patch.Statement) (*model.Site, error)

	// Publish はpublished_atを現在時刻に設定する。サブドメインは変更しない。
	Publish(ctx context.Context, id string) (*model.Site, error)

	// SetExportURL はエクスポート成果物のURLを記録する。
	SetExportURL(ctx context.Context, id, exportURL string) (*model.Site, error)

	// OwnerOf はサイトの所有ユーザーIDを1回のクエリで解決する。
	OwnerOf(ctx context.Context, siteID string) (ownerID string, found bool, err error)
}

// ProjectRepository はプロジェクトの永続化インターフェース。
type ProjectRepository interface {
	// ListBySiteID はサイトのプロジェクトをorder_index昇順で返す。
	ListBySiteID(ctx context.Context, siteID string) ([]*model.Project, error)

	// ListByUserID はユーザーの全サイトにまたがるプロジェクトを返す。
	ListByUserID(ctx context.Context, userID string) ([]*model.Project, error)

	// FindByID はサイト内の指定プロジェクトを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, siteID, id string) (*model.Project, error)

	// Create はプロジェクトを作成する。order_indexはサイト内の最大値+1が割り当てられる。
	Create(ctx context.Context, project *model.Project) error

	// Update は組み立て済みのUPDATE文を実行し、更新後のプロジェクトを返す。
	Update(ctx context.Context, st *patch.Statement) (*model.Project, error)

	// DeleteWithAssets はプロジェクトと紐付く画像行を1トランザクションで削除する。
	// 削除したアップロード画像のファイルキーを返す。URL参照の画像は含まない。
	DeleteWithAssets(ctx context.Context, siteID, id string) (fileKeys []string, err error)

	// AttachImage は画像行の挿入とプロジェクトのimagesへのURL追加を1トランザクションで行う。
	AttachImage(ctx context.Context, asset *model.ImageAsset) (*model.Project, error)

	// OwnerOf はプロジェクト→サイト→ユーザーを辿り所有ユーザーIDを解決する。
	OwnerOf(ctx context.Context, siteID, projectID string) (ownerID string, found bool, err error)
}

// AssetRepository は画像アセットの永続化インターフェース。
type AssetRepository interface {
	// ListBySiteID はサイトの画像を作成日時順に返す。
	ListBySiteID(ctx context.Context, siteID string) ([]*model.ImageAsset, error)

	// FindByID はサイト内の指定画像を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, siteID, id string) (*model.ImageAsset, error)

	// Create は画像行を作成する。
	Create(ctx context.Context, asset *model.ImageAsset) error

	// Update は組み立て済みのUPDATE文を実行し、更新後の画像を返す。
	Update(ctx context.Context, st *patch.Statement) (*model.ImageAsset, error)

	// Delete は画像行を削除する。削除した場合はtrueを返す。
	Delete(ctx context.Context, siteID, id string) (bool, error)

	// OwnerOf は画像→サイト→ユーザーを辿り所有ユーザーIDを解決する。
	OwnerOf(ctx context.Context, siteID, assetID string) (ownerID string, found bool, err error)
}

// ContactRepository は問い合わせの永続化インターフェース。
type ContactRepository interface {
	// Create は問い合わせを作成する。
	Create(ctx context.Context, submission *model.ContactSubmission) error

	// ListByOwner はユーザーの所有サイト宛ての問い合わせを新しい順に返す。
	ListByOwner(ctx context.Context, userID string) ([]*model.ContactSubmission, error)

	// DeleteOlderThan はcutoffより前に作成された問い合わせを削除し、削除件数を返す。
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}
