// Package security はユーザー入力の無害化とURL検証を提供する。
//
// ContentSanitizer はポートフォリオ所有者や訪問者が入力したテキストをサニタイズし、
// 公開ページでのXSSを防ぐ。bluemondayの許可リストベースのポリシーを使用する。
package security

import (
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// imageSrcPattern はimgのsrcとして許可するURL。
var imageSrcPattern = regexp.MustCompile(`^(https://|/uploads/)[^\s"'<>]+$`)

// ContentSanitizer はテキストのサニタイズ機能を定義する。
type ContentSanitizer interface {
	// SanitizeRich は自己紹介文など、装飾を許可するHTMLをサニタイズする。
	// 許可タグ: p, br, a, ul, ol, li, blockquote, pre, code, strong, em, h2, h3, img
	// aタグにはtarget="_blank"とrel="noopener noreferrer"が自動付与される。
	// imgのsrcはhttpsの絶対URLか、/uploads/ 配下の相対URLのみ許可する。
	SanitizeRich(rawHTML string) string

	// PlainText はすべてのタグを除去したプレーンテキストを返す。
	// 問い合わせ本文など、HTMLを一切許可しない入力に使う。
	// 残った特殊文字はHTMLエスケープされた状態で返る。
	PlainText(raw string) string
}

type contentSanitizer struct {
	rich   *bluemonday.Policy
	strict *bluemonday.Policy
}

// NewContentSanitizer はContentSanitizerを生成する。
func NewContentSanitizer() ContentSanitizer {
	p := bluemonday.NewPolicy()

	// script, iframe, style等は許可リストに含めないことで除去される
	p.AllowElements(
		"p", "br", "ul", "ol", "li",
		"blockquote", "pre", "code",
		"strong", "em", "h2", "h3",
	)

	p.AllowAttrs("href").OnElements("a")
	p.AllowStandardURLs()
	p.AddTargetBlankToFullyQualifiedLinks(true)
	p.RequireNoReferrerOnLinks(true)

	p.AllowAttrs("alt").OnElements("img")
	p.AllowAttrs("src").Matching(imageSrcPattern).OnElements("img")
	p.AllowRelativeURLs(true)

	return &contentSanitizer{
		rich:   p,
		strict: bluemonday.StrictPolicy(),
	}
}

// SanitizeRich は装飾を許可するHTMLをサニタイズする。
func (s *contentSanitizer) SanitizeRich(rawHTML string) string {
	return s.rich.Sanitize(rawHTML)
}

// PlainText はすべてのタグを除去する。
func (s *contentSanitizer) PlainText(raw string) string {
	return strings.TrimSpace(s.strict.Sanitize(raw))
}
