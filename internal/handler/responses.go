package handler

import (
	"time"

	"github.com/portfoliopro/portfoliopro/internal/dashboard"
	"github.com/portfoliopro/portfoliopro/internal/model"
)

// publicUserResponse は公開プロフィールのAPIレスポンス。メールアドレスは含まない。
type publicUserResponse struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	FullName  string    `json:"full_name"`
	Bio       string    `json:"bio"`
	AvatarURL string    `json:"avatar_url"`
	Location  string    `json:"location"`
	Website   string    `json:"website"`
	CreatedAt time.Time `json:"created_at"`
}

// userResponse は本人向けのユーザー情報。パスワードハッシュは含まない。
type userResponse struct {
	publicUserResponse
	Email     string    `json:"email"`
	UpdatedAt time.Time `json:"updated_at"`
}

// authResponse は登録・ログインのAPIレスポンス。
type authResponse struct {
	User  userResponse `json:"user"`
	Token string       `json:"token"`
}

type siteResponse struct {
	ID             string     `json:"id"`
	UserID         string     `json:"user_id"`
	SiteTitle      string     `json:"site_title"`
	Tagline        string     `json:"tagline"`
	HeroImageURL   string     `json:"hero_image_url"`
	AboutText      string     `json:"about_text"`
	Template       string     `json:"template"`
	ColorScheme    string     `json:"color_scheme"`
	FontFamily     string     `json:"font_family"`
	SEOTitle       string     `json:"seo_title"`
	SEODescription string     `json:"seo_description"`
	SEOKeywords    string     `json:"seo_keywords"`
	Subdomain      string     `json:"subdomain"`
	PublishedAt    *time.Time `json:"published_at"`
	ExportURL      string     `json:"export_url"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// exportResponse はエクスポート生成のAPIレスポンス。
type exportResponse struct {
	ExportURL string       `json:"export_url"`
	Site      siteResponse `json:"site"`
}

type projectResponse struct {
	ID          string    `json:"id"`
	SiteID      string    `json:"site_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Date        *string   `json:"date"`
	Tags        []string  `json:"tags"`
	Images      []string  `json:"images"`
	OrderIndex  int       `json:"order_index"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type assetResponse struct {
	ID        string    `json:"id"`
	SiteID    string    `json:"site_id"`
	ProjectID *string   `json:"project_id"`
	URL       string    `json:"url"`
	AltText   string    `json:"alt_text"`
	FileName  string    `json:"file_name,omitempty"`
	MimeType  string    `json:"mime_type,omitempty"`
	Width     int       `json:"width,omitempty"`
	Height    int       `json:"height,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// projectImageResponse はプロジェクト画像アップロードのAPIレスポンス。
type projectImageResponse struct {
	Project projectResponse `json:"project"`
	Asset   assetResponse   `json:"asset"`
}

type submissionResponse struct {
	ID        string    `json:"id"`
	SiteID    *string   `json:"site_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Subject   string    `json:"subject"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

type previewResponse struct {
	Site     siteResponse      `json:"site"`
	Projects []projectResponse `json:"projects"`
	Assets   []assetResponse   `json:"assets"`
}

// optional は空文字列をJSONのnullとして出力するためのポインタを返す。
func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func toPublicUserResponse(u *model.User) publicUserResponse {
	return publicUserResponse{
		ID:        u.ID,
		Username:  u.Username,
		FullName:  u.FullName,
		Bio:       u.Bio,
		AvatarURL: u.AvatarURL,
		Location:  u.Location,
		Website:   u.Website,
		CreatedAt: u.CreatedAt,
	}
}

func toUserResponse(u *model.User) userResponse {
	return userResponse{
		publicUserResponse: toPublicUserResponse(u),
		Email:              u.Email,
		UpdatedAt:          u.UpdatedAt,
	}
}

func toSiteResponse(s *model.Site) siteResponse {
	return siteResponse{
		ID:             s.ID,
		UserID:         s.UserID,
		SiteTitle:      s.SiteTitle,
		Tagline:        s.Tagline,
		HeroImageURL:   s.HeroImageURL,
		AboutText:      s.AboutText,
		Template:       s.Template,
		ColorScheme:    s.ColorScheme,
		FontFamily:     s.FontFamily,
		SEOTitle:       s.SEOTitle,
		SEODescription: s.SEODescription,
		SEOKeywords:    s.SEOKeywords,
		Subdomain:      s.Subdomain,
		PublishedAt:    s.PublishedAt,
		ExportURL:      s.ExportURL,
		CreatedAt:      s.CreatedAt,
		UpdatedAt:      s.UpdatedAt,
	}
}

func toProjectResponse(p *model.Project) projectResponse {
	tags, images := p.Tags, p.Images
	if tags == nil {
		tags = []string{}
	}
	if images == nil {
		images = []string{}
	}
	return projectResponse{
		ID:          p.ID,
		SiteID:      p.SiteID,
		Title:       p.Title,
		Description: p.Description,
		Date:        optional(p.Date),
		Tags:        tags,
		Images:      images,
		OrderIndex:  p.OrderIndex,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func toAssetResponse(a *model.ImageAsset) assetResponse {
	return assetResponse{
		ID:        a.ID,
		SiteID:    a.SiteID,
		ProjectID: optional(a.ProjectID),
		URL:       a.URL,
		AltText:   a.AltText,
		FileName:  a.FileName,
		MimeType:  a.MimeType,
		Width:     a.Width,
		Height:    a.Height,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

func toSubmissionResponse(c *model.ContactSubmission) submissionResponse {
	return submissionResponse{
		ID:        c.ID,
		SiteID:    optional(c.SiteID),
		Name:      c.Name,
		Email:     c.Email,
		Subject:   c.Subject,
		Message:   c.Message,
		CreatedAt: c.CreatedAt,
	}
}

func toPreviewResponse(p *dashboard.Preview) previewResponse {
	return previewResponse{
		Site:     toSiteResponse(p.Site),
		Projects: mapSlice(p.Projects, toProjectResponse),
		Assets:   mapSlice(p.Assets, toAssetResponse),
	}
}

// mapSlice はドメインモデルの一覧をレスポンス型の一覧に変換する。nilは空スライスにする。
func mapSlice[M any, R any](items []*M, fn func(*M) R) []R {
	out := make([]R, len(items))
	for i, item := range items {
		out[i] = fn(item)
	}
	return out
}
