package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/portfoliopro/portfoliopro/internal/model"
	"github.com/portfoliopro/portfoliopro/internal/patch"
)

// AssetColumns はimage_assetsテーブルのSELECT/RETURNING用カラムリスト。
const AssetColumns = "id, site_id, project_id, url, alt_text, file_name, mime_type, width, height, file_key, created_at, updated_at"

// PostgresAssetRepo はPostgreSQLを使用した画像アセットリポジトリ。
type PostgresAssetRepo struct {
	db *sql.DB
}

// NewPostgresAssetRepo はPostgresAssetRepoを生成する。
func NewPostgresAssetRepo(db *sql.DB) *PostgresAssetRepo {
	return &PostgresAssetRepo{db: db}
}

func scanAsset(row rowScanner) (*model.ImageAsset, error) {
	a := &model.ImageAsset{}
	var projectID, altText, fileName, mimeType, fileKey sql.NullString
	var width, height sql.NullInt64
	if err := row.Scan(
		&a.ID, &a.SiteID, &projectID, &a.URL, &altText, &fileName, &mimeType,
		&width, &height, &fileKey, &a.CreatedAt, &a.UpdatedAt,
	); err != nil {
		return nil, err
	}
	a.ProjectID = projectID.String
	a.AltText = altText.String
	a.FileName = fileName.String
	a.MimeType = mimeType.String
	a.Width = int(width.Int64)
	a.Height = int(height.Int64)
	a.FileKey = fileKey.String
	return a, nil
}

// insertAsset は画像行を挿入し、サーバー側で設定された値をassetに反映する。
// プロジェクト画像の追加トランザクションからも使用する。
func insertAsset(ctx context.Context, q querier, asset *model.ImageAsset) error {
	created, err := scanAsset(q.QueryRowContext(ctx,
		`INSERT INTO image_assets (id, site_id, project_id, url, alt_text, file_name, mime_type, width, height, file_key)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 RETURNING `+AssetColumns,
		asset.ID, asset.SiteID, nullString(asset.ProjectID), asset.URL,
		nullString(asset.AltText), nullString(asset.FileName), nullString(asset.MimeType),
		nullInt(asset.Width), nullInt(asset.Height), nullString(asset.FileKey),
	))
	if err != nil {
		return fmt.Errorf("failed to insert image asset: %w", err)
	}
	*asset = *created
	return nil
}

// ListBySiteID はサイトの画像を作成日時順に返す。
func (r *PostgresAssetRepo) ListBySiteID(ctx context.Context, siteID string) ([]*model.ImageAsset, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+AssetColumns+` FROM image_assets WHERE site_id = $1 ORDER BY created_at ASC`,
		siteID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list image assets: %w", err)
	}
	defer rows.Close()

	var assets []*model.ImageAsset
	for rows.Next() {
		a, err := scanAsset(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan image asset: %w", err)
		}
		assets = append(assets, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate image assets: %w", err)
	}
	return assets, nil
}

// FindByID はサイト内の指定画像を取得する。見つからない場合はnilを返す。
func (r *PostgresAssetRepo) FindByID(ctx context.Context, siteID, id string) (*model.ImageAsset, error) {
	a, err := scanAsset(r.db.QueryRowContext(ctx,
		`SELECT `+AssetColumns+` FROM image_assets WHERE id = $1 AND site_id = $2`,
		id, siteID,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find image asset by ID: %w", err)
	}
	return a, nil
}

// Create は画像行を作成する。
func (r *PostgresAssetRepo) Create(ctx context.Context, asset *model.ImageAsset) error {
	return insertAsset(ctx, r.db, asset)
}

// Update は組み立て済みのUPDATE文を実行し、更新後の画像を返す。
func (r *PostgresAssetRepo) Update(ctx context.Context, st *patch.Statement) (*model.ImageAsset, error) {
	a, err := scanAsset(r.db.QueryRowContext(ctx, st.SQL, st.Args...))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update image asset: %w", err)
	}
	return a, nil
}

// Delete は画像行を削除する。
func (r *PostgresAssetRepo) Delete(ctx context.Context, siteID, id string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM image_assets WHERE id = $1 AND site_id = $2`,
		id, siteID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to delete image asset: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n > 0, nil
}

// OwnerOf は画像→サイト→ユーザーを辿り所有ユーザーIDを解決する。
func (r *PostgresAssetRepo) OwnerOf(ctx context.Context, siteID, assetID string) (string, bool, error) {
	return lookupOwner(ctx, r.db,
		`SELECT s.user_id FROM image_assets a INNER JOIN sites s ON s.id = a.site_id WHERE a.id = $1 AND a.site_id = $2`,
		assetID, siteID)
}

// compile-time interface check
var _ AssetRepository = (*PostgresAssetRepo)(nil)
