package model

import "time"

// Role はユーザーの権限種別を表す。
type Role string

const (
	// RoleAdmin は管理画面を利用できる権限。
	RoleAdmin Role = "admin"
	// RoleUser は一般ユーザー権限。
	RoleUser Role = "user"
)

// ParseRole はバックエンドが返した文字列をRoleに変換する。
// 未知の値は一般ユーザーとして扱う。
func ParseRole(s string) Role {
	if Role(s) == RoleAdmin {
		return RoleAdmin
	}
	return RoleUser
}

// Session はポータルのログインセッションを表す。
// ログイン成功時に生成され、ログアウトまたは認証失敗時に破棄される。
type Session struct {
	ID        string
	Token     string
	Username  string
	Role      Role
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Authenticated はトークンを保持しているかを返す。
// nilレシーバーは未ログインとして扱う。
func (s *Session) Authenticated() bool {
	return s != nil && s.Token != ""
}

// IsAdmin は管理者セッションかを返す。
func (s *Session) IsAdmin() bool {
	return s.Authenticated() && s.Role == RoleAdmin
}

// Expired は指定時刻の時点で期限切れかを返す。
// ExpiresAtがゼロ値の場合は無期限とみなす。
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// Theme はUIの配色設定を表す。
type Theme string

const (
	// ThemeLight はライトテーマ。
	ThemeLight Theme = "light"
	// ThemeDark はダークテーマ。
	ThemeDark Theme = "dark"
)

// ParseTheme は文字列をThemeに変換する。不正な値はエラーを返す。
func ParseTheme(s string) (Theme, error) {
	switch Theme(s) {
	case ThemeLight, ThemeDark:
		return Theme(s), nil
	default:
		return "", NewValidationError("テーマには light または dark を指定してください")
	}
}

// Toggle は反対のテーマを返す。
func (t Theme) Toggle() Theme {
	if t == ThemeDark {
		return ThemeLight
	}
	return ThemeDark
}
