package middleware

import (
	"net/http"
	"strings"
)

const (
	// apiContentSecurityPolicy はJSON APIレスポンス用。何も読み込ませず、埋め込みも禁止する。
	apiContentSecurityPolicy = "default-src 'none'; frame-ancestors 'none'"
	// uploadContentSecurityPolicy はアップロード画像用。直接開かれても sandbox でスクリプトを動かさない。
	uploadContentSecurityPolicy = "default-src 'none'; img-src 'self'; sandbox"
	// アップロードファイル名はUUIDで二度と書き換わらないため長期キャッシュしてよい
	uploadCacheControl = "public, max-age=31536000, immutable"
)

// NewSecurityHeadersMiddleware はセキュリティ関連のHTTPレスポンスヘッダーを付与するミドルウェアを返す。
//
// uploadPrefix 配下は公開サイトから <img> で埋め込まれる静的画像として扱い、
// Cross-Origin-Resource-Policy を cross-origin にして長期キャッシュを許可する。
// それ以外はAPIレスポンスとしてキャッシュを禁止する。
func NewSecurityHeadersMiddleware(uploadPrefix string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("Referrer-Policy", "strict-origin-when-cross-origin")

			if uploadPrefix != "" && strings.HasPrefix(r.URL.Path, uploadPrefix) {
				h.Set("Content-Security-Policy", uploadContentSecurityPolicy)
				h.Set("Cross-Origin-Resource-Policy", "cross-origin")
				h.Set("Cache-Control", uploadCacheControl)
			} else {
				h.Set("Content-Security-Policy", apiContentSecurityPolicy)
				h.Set("Cross-Origin-Resource-Policy", "same-site")
				h.Set("X-Frame-Options", "DENY")
				h.Set("Cache-Control", "no-store")
			}
			next.ServeHTTP(w, r)
		})
	}
}
