// Package security はアプリケーションのセキュリティ機能を提供する。
//
// TextSanitizer は外部ヘッドラインから取得した記事のタイトルや説明文を
// プレーンテキストに変換してからバックエンドへミラー同期する。
// OutboundGuard は外部ヘッドライン取得先への通信をSSRF対策付きに制限する。
package security

import (
	"html"
	"net/url"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// TextSanitizer は外部記事のテキスト項目を無害化するインターフェース。
type TextSanitizer interface {
	// PlainText はHTMLタグを全て除去し、実体参照を戻し、連続する空白を1つにまとめる。
	PlainText(raw string) string
	// ImageURL はhttp/httpsの絶対URLのみを返し、それ以外は空文字列を返す。
	ImageURL(raw string) string
}

// textSanitizer はTextSanitizerの実装。
// bluemondayのStrictPolicyはスレッドセーフに共有できる。
type textSanitizer struct {
	policy *bluemonday.Policy
}

// NewTextSanitizer はTextSanitizerの新しいインスタンスを生成する。
func NewTextSanitizer() *textSanitizer {
	return &textSanitizer{policy: bluemonday.StrictPolicy()}
}

// PlainText はHTMLを除去したプレーンテキストを返す。
func (s *textSanitizer) PlainText(raw string) string {
	if raw == "" {
		return ""
	}
	stripped := html.UnescapeString(s.policy.Sanitize(raw))
	return strings.Join(strings.Fields(stripped), " ")
}

// ImageURL は画像URLを検証する。
func (s *textSanitizer) ImageURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return ""
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		return u.String()
	default:
		return ""
	}
}

var _ TextSanitizer = (*textSanitizer)(nil)
