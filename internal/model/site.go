// Package model はドメインモデルを定義する。
package model

import "time"

// サイトのテーマ既定値。
const (
	DefaultTemplate    = "minimal"
	DefaultColorScheme = "light"
	DefaultFontFamily  = "inter"
)

// Site はユーザーが所有するポートフォリオサイトを表す。
// Subdomainは作成時に一度だけ生成され、以降変更されない。
type Site struct {
	ID             string
	UserID         string
	SiteTitle      string
	Tagline        string
	HeroImageURL   string
	AboutText      string
	Template       string
	ColorScheme    string
	FontFamily     string
	SEOTitle       string
	SEODescription string
	SEOKeywords    string
	Subdomain      string
	PublishedAt    *time.Time
	ExportURL      string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Project はサイトに属するプロジェクトを表す。
// OrderIndexの昇順で表示される。
type Project struct {
	ID          string
	SiteID      string
	Title       string
	Description string
	Date        string // YYYY-MM-DD。未設定の場合は空文字列
	Tags        []string
	Images      []string
	OrderIndex  int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ImageAsset はサイトにアップロードまたは参照登録された画像を表す。
// ProjectIDが空文字列の場合はプロジェクトに紐付かない。
type ImageAsset struct {
	ID        string
	SiteID    string
	ProjectID string
	URL       string
	AltText   string
	FileName  string
	MimeType  string
	Width     int
	Height    int
	// FileKey はアップロードで保存したファイルのキー。URL参照の画像では空。
	// 利用者は変更できず、ファイル削除はこの値でのみ行う。
	FileKey   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ContactSubmission は訪問者からの問い合わせを表す。
// 認証なしで作成でき、SiteIDは空文字列（サイト未指定）を許容する。
type ContactSubmission struct {
	ID        string
	SiteID    string
	Name      string
	Email     string
	Subject   string
	Message   string
	CreatedAt time.Time
}
