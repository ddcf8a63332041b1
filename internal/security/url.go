package security

import (
	"errors"
	"net/url"
	"strings"
)

// ErrUnsafeURL は公開ページに埋め込めないURLのエラー。
var ErrUnsafeURL = errors.New("must be an http(s) URL or an /uploads/ path")

// ValidateImageURL は画像URLとして公開ページに埋め込めるかを検証する。
// http/httpsの絶対URL、またはアップロード済みファイルの相対パス（/uploads/...）のみ許可する。
func ValidateImageURL(raw string) error {
	if strings.HasPrefix(raw, "/uploads/") {
		if strings.Contains(raw, "..") {
			return ErrUnsafeURL
		}
		return nil
	}

	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return ErrUnsafeURL
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ErrUnsafeURL
	}
	return nil
}

// ValidateLinkURL はプロフィールのWebサイトなど外部リンクを検証する。
func ValidateLinkURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return errors.New("must be an http(s) URL")
	}
	return nil
}
