package security

import (
	"strings"
	"testing"
)

func TestSanitizeRich(t *testing.T) {
	sanitizer := NewContentSanitizer()

	tests := []struct {
		name         string
		input        string
		wantContains []string
		wantAbsent   []string
	}{
		{
			name:         "段落と強調が許可される",
			input:        "<p>私は<strong>デザイナー</strong>です</p>",
			wantContains: []string{"<p>私は<strong>デザイナー</strong>です</p>"},
		},
		{
			name:         "見出しとリストが許可される",
			input:        "<h2>経歴</h2><ul><li>2020 入社</li></ul>",
			wantContains: []string{"<h2>経歴</h2>", "<ul>", "<li>2020 入社</li>"},
		},
		{
			name:         "scriptタグが除去される",
			input:        `<p>自己紹介</p><script>alert('xss')</script>`,
			wantContains: []string{"<p>自己紹介</p>"},
			wantAbsent:   []string{"<script", "alert"},
		},
		{
			name:       "iframeとstyleが除去される",
			input:      `<iframe src="https://evil.com"></iframe><style>body{display:none}</style>`,
			wantAbsent: []string{"<iframe", "evil.com", "<style", "display:none"},
		},
		{
			name:       "on*イベント属性が除去される",
			input:      `<p onclick="steal()">テスト</p><img src="https://example.com/a.png" onerror="alert(1)">`,
			wantAbsent: []string{"onclick", "steal", "onerror", "alert"},
		},
		{
			name:         "aタグにtarget=_blankとrel=noopener noreferrerが付与される",
			input:        `<a href="https://example.com" target="_self">作品</a>`,
			wantContains: []string{`target="_blank"`, "noopener", "noreferrer", "作品"},
			wantAbsent:   []string{`target="_self"`},
		},
		{
			name:       "javascriptスキームのリンクが除去される",
			input:      `<a href="javascript:alert(1)">click</a>`,
			wantAbsent: []string{"javascript:"},
		},
		{
			name:         "https画像が許可される",
			input:        `<img src="https://cdn.example.com/hero.jpg" alt="ヒーロー">`,
			wantContains: []string{"<img", "https://cdn.example.com/hero.jpg", `alt="ヒーロー"`},
		},
		{
			name:         "アップロード済み画像の相対URLが許可される",
			input:        `<img src="/uploads/6f9619ff.png" alt="作品">`,
			wantContains: []string{`src="/uploads/6f9619ff.png"`},
		},
		{
			name:       "http画像が拒否される",
			input:      `<img src="http://example.com/a.png">`,
			wantAbsent: []string{"http://example.com/a.png"},
		},
		{
			name:       "data URI画像が拒否される",
			input:      `<img src="data:image/png;base64,abc">`,
			wantAbsent: []string{"data:image"},
		},
		{
			name:       "uploads以外の相対パス画像が拒否される",
			input:      `<img src="/etc/passwd">`,
			wantAbsent: []string{"/etc/passwd"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := sanitizer.SanitizeRich(tt.input)
			for _, want := range tt.wantContains {
				if !strings.Contains(got, want) {
					t.Errorf("SanitizeRich(%q) = %q, expected to contain %q", tt.input, got, want)
				}
			}
			for _, absent := range tt.wantAbsent {
				if strings.Contains(got, absent) {
					t.Errorf("SanitizeRich(%q) = %q, should NOT contain %q", tt.input, got, absent)
				}
			}
		})
	}
}

func TestSanitizeRich_Idempotent(t *testing.T) {
	sanitizer := NewContentSanitizer()

	input := `<p>テスト<em>強調</em></p><a href="https://example.com">リンク</a><img src="https://example.com/img.png" alt="画像">`
	once := sanitizer.SanitizeRich(input)
	twice := sanitizer.SanitizeRich(once)

	if once != twice {
		t.Errorf("二重サニタイズで結果が変わった: 1回目=%q, 二重=%q", once, twice)
	}
}

func TestPlainText(t *testing.T) {
	sanitizer := NewContentSanitizer()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"プレーンテキストはそのまま", "ご依頼の件でご連絡しました", "ご依頼の件でご連絡しました"},
		{"タグが除去される", "<b>Hello</b> <i>there</i>", "Hello there"},
		{"scriptは中身ごと除去される", "Hi<script>alert(1)</script>", "Hi"},
		{"前後の空白が除去される", "  hello \n", "hello"},
		{"空文字列", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sanitizer.PlainText(tt.input); got != tt.want {
				t.Errorf("PlainText(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
