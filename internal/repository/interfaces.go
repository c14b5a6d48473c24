// Package repository はポータルが保持する状態（セッションとテーマ設定）の永続化インターフェースを定義する。
// 記事・評価・コメントはバックエンドが唯一の正であり、ここでは扱わない。
package repository

import (
	"context"
	"time"

	"github.com/hitoshi/newsportal/internal/model"
)

// SessionRepository はセッションデータの永続化インターフェース。
type SessionRepository interface {
	// Create はセッションを作成する。
	Create(ctx context.Context, session *model.Session) error
	// FindByID は指定IDのセッションを取得する。見つからない場合と期限切れの場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Session, error)
	// DeleteByID は指定IDのセッションを削除する。存在しない場合もエラーにしない。
	DeleteByID(ctx context.Context, id string) error
	// DeleteExpired はbefore時点で期限切れのセッションを削除し、削除件数を返す。
	DeleteExpired(ctx context.Context, before time.Time) (int, error)
}

// PreferenceRepository はテーマ設定の永続化インターフェース。
// subjectはログインユーザー名または匿名訪問者のIDを表す。
type PreferenceRepository interface {
	// FindTheme は保存済みのテーマを返す。未保存の場合は空文字列を返す。
	FindTheme(ctx context.Context, subject string) (model.Theme, error)
	// SaveTheme はテーマを冪等に保存する。
	SaveTheme(ctx context.Context, subject string, theme model.Theme) error
}
