package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/portfoliopro/portfoliopro/internal/model"
	"github.com/portfoliopro/portfoliopro/internal/patch"
)

// SiteColumns はsitesテーブルのSELECT/RETURNING用カラムリスト。
const SiteColumns = "id, user_id, site_title, tagline, hero_image_url, about_text, template, color_scheme, font_family, seo_title, seo_description, seo_keywords, subdomain, published_at, export_url, created_at, updated_at"

// PostgresSiteRepo はPostgreSQLを使用したサイトリポジトリ。
type PostgresSiteRepo struct {
	db *sql.DB
}

// NewPostgresSiteRepo はPostgresSiteRepoを生成する。
func NewPostgresSiteRepo(db *sql.DB) *PostgresSiteRepo {
	return &PostgresSiteRepo{db: db}
}

func scanSite(row rowScanner) (*model.Site, error) {
	s := &model.Site{}
	var tagline, heroImageURL, aboutText, seoTitle, seoDescription, seoKeywords, exportURL sql.NullString
	var publishedAt sql.NullTime
	if err := row.Scan(
		&s.ID, &s.UserID, &s.SiteTitle, &tagline, &heroImageURL, &aboutText,
		&s.Template, &s.ColorScheme, &s.FontFamily,
		&seoTitle, &seoDescription, &seoKeywords,
		&s.Subdomain, &publishedAt, &exportURL,
		&s.CreatedAt, &s.UpdatedAt,
	); err != nil {
		return nil, err
	}
	s.Tagline = tagline.String
	s.HeroImageURL = heroImageURL.String
	s.AboutText = aboutText.String
	s.SEOTitle = seoTitle.String
	s.SEODescription = seoDescription.String
	s.SEOKeywords = seoKeywords.String
	s.ExportURL = exportURL.String
	if publishedAt.Valid {
		t := publishedAt.Time
		s.PublishedAt = &t
	}
	return s, nil
}

func (r *PostgresSiteRepo) queryOne(ctx context.Context, op, query string, args ...any) (*model.Site, error) {
	site, err := scanSite(r.db.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to %s: %w", op, err)
	}
	return site, nil
}

func (r *PostgresSiteRepo) queryList(ctx context.Context, op, query string, args ...any) ([]*model.Site, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to %s: %w", op, err)
	}
	defer rows.Close()

	var sites []*model.Site
	for rows.Next() {
		site, err := scanSite(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan site: %w", err)
		}
		sites = append(sites, site)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sites: %w", err)
	}
	return sites, nil
}

// FindByID は指定IDのサイトを取得する。見つからない場合はnilを返す。
func (r *PostgresSiteRepo) FindByID(ctx context.Context, id string) (*model.Site, error) {
	return r.queryOne(ctx, "find site by ID",
		`SELECT `+SiteColumns+` FROM sites WHERE id = $1`, id)
}

// ListByUserID はユーザーが所有するサイトを作成日時順に返す。
func (r *PostgresSiteRepo) ListByUserID(ctx context.Context, userID string) ([]*model.Site, error) {
	return r.queryList(ctx, "list sites",
		`SELECT `+SiteColumns+` FROM sites WHERE user_id = $1 ORDER BY created_at ASC`, userID)
}

// FindLatestByUserID はユーザーが最後に更新したサイトを返す。
func (r *PostgresSiteRepo) FindLatestByUserID(ctx context.Context, userID string) (*model.Site, error) {
	return r.queryOne(ctx, "find latest site",
		`SELECT `+SiteColumns+` FROM sites WHERE user_id = $1 ORDER BY updated_at DESC LIMIT 1`, userID)
}

// ListExportedByUserID はエクスポート成果物を持つサイトを新しい順に返す。
func (r *PostgresSiteRepo) ListExportedByUserID(ctx context.Context, userID string) ([]*model.Site, error) {
	return r.queryList(ctx, "list exported sites",
		`SELECT `+SiteColumns+` FROM sites WHERE user_id = $1 AND export_url IS NOT NULL ORDER BY updated_at DESC`, userID)
}

// SubdomainExists はサブドメインが既に使用されているかを返す。
func (r *PostgresSiteRepo) SubdomainExists(ctx context.Context, subdomain string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM sites WHERE subdomain = $1)`,
		subdomain,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check subdomain: %w", err)
	}
	return exists, nil
}

// Create はサイトを作成する。テーマ未指定の場合はDB既定値が使われる。
func (r *PostgresSiteRepo) Create(ctx context.Context, site *model.Site) error {
	created, err := scanSite(r.db.QueryRowContext(ctx,
		`INSERT INTO sites (id, user_id, site_title, tagline, hero_image_url, about_text,
		                    template, color_scheme, font_family,
		                    seo_title, seo_description, seo_keywords, subdomain)
		 VALUES ($1, $2, $3, $4, $5, $6,
		         COALESCE($7, 'minimal'), COALESCE($8, 'light'), COALESCE($9, 'inter'),
		         $10, $11, $12, $13)
		 RETURNING `+SiteColumns,
		site.ID, site.UserID, site.SiteTitle,
		nullString(site.Tagline), nullString(site.HeroImageURL), nullString(site.AboutText),
		nullString(site.Template), nullString(site.ColorScheme), nullString(site.FontFamily),
		nullString(site.SEOTitle), nullString(site.SEODescription), nullString(site.SEOKeywords),
		site.Subdomain,
	))
	if err != nil {
		return wrapUniqueViolation(err, "failed to insert site")
	}
	*site = *created
	return nil
}

// Update は組み立て済みのUPDATE文を実行し、更新後のサイトを返す。
func (r *PostgresSiteRepo) Update(ctx context.Context, st *patch.Statement) (*model.Site, error) {
	return r.queryOne(ctx, "update site", st.SQL, st.Args...)
}

// Publish はpublished_atを現在時刻に設定する。
func (r *PostgresSiteRepo) Publish(ctx context.Context, id string) (*model.Site, error) {
	return r.queryOne(ctx, "publish site",
		`UPDATE sites SET published_at = now(), updated_at = now() WHERE id = $1 RETURNING `+SiteColumns, id)
}

// SetExportURL はエクスポート成果物のURLを記録する。
func (r *PostgresSiteRepo) SetExportURL(ctx context.Context, id, exportURL string) (*model.Site, error) {
	return r.queryOne(ctx, "set export url",
		`UPDATE sites SET export_url = $1, updated_at = now() WHERE id = $2 RETURNING `+SiteColumns, exportURL, id)
}

// OwnerOf はサイトの所有ユーザーIDを解決する。
func (r *PostgresSiteRepo) OwnerOf(ctx context.Context, siteID string) (string, bool, error) {
	return lookupOwner(ctx, r.db, `SELECT user_id FROM sites WHERE id = $1`, siteID)
}

// compile-time interface check
var _ SiteRepository = (*PostgresSiteRepo)(nil)
